// Package embedding provides the optional synonym expansion capability:
// an embedder turns terms into vectors, an in-memory index answers
// nearest-neighbour queries over a term vocabulary, and the expander
// exposes the result as additional search synonyms.
package embedding

import (
	"context"
	"math"

	"github.com/cespare/xxhash/v2"

	"github.com/rencanakan/ahsmatch/internal/textnorm"
)

// Embedder turns a text into a vector. Implementations may call out to a
// model; the expander treats any failure as the capability being absent.
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
}

// DefaultHashingDim is the vector width of the hashing embedder. Wide
// enough that trigram collisions stay rare for a catalog-sized
// vocabulary.
const DefaultHashingDim = 256

// HashingEmbedder embeds text by feature-hashing its character trigrams
// into a fixed-width vector. It needs no model files and is fully
// deterministic, which makes morphological variants of the same root
// (pemasangan, pasangan, memasang) land close together in cosine space.
type HashingEmbedder struct {
	dim int
}

// NewHashingEmbedder returns an embedder of the given dimension.
// Non-positive dimensions fall back to the default.
func NewHashingEmbedder(dim int) *HashingEmbedder {
	if dim <= 0 {
		dim = DefaultHashingDim
	}
	return &HashingEmbedder{dim: dim}
}

// EmbedText implements Embedder. The text is normalized first; an empty
// normalized text yields a zero vector.
func (e *HashingEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vec := make([]float32, e.dim)
	for _, gram := range trigrams(textnorm.Normalize(text)) {
		h := xxhash.Sum64String(gram)
		idx := int(h % uint64(e.dim))
		// Signed hashing cancels collision bias instead of accumulating it.
		if (h>>32)&1 == 0 {
			vec[idx]++
		} else {
			vec[idx]--
		}
	}
	return l2Normalize(vec), nil
}

// trigrams returns the character trigrams of each word. Words shorter
// than three runes contribute themselves as a single feature.
func trigrams(text string) []string {
	var grams []string
	start := 0
	for i := 0; i <= len(text); i++ {
		if i < len(text) && text[i] != ' ' {
			continue
		}
		word := []rune(text[start:i])
		start = i + 1
		if len(word) == 0 {
			continue
		}
		if len(word) < 3 {
			grams = append(grams, string(word))
			continue
		}
		for j := 0; j+3 <= len(word); j++ {
			grams = append(grams, string(word[j:j+3]))
		}
	}
	return grams
}

func l2Normalize(vec []float32) []float32 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return vec
	}
	norm := math.Sqrt(sum)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec
}
