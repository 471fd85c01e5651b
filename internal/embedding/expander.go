package embedding

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rencanakan/ahsmatch/internal/textnorm"
)

const (
	// DefaultMinScore is the cosine similarity below which a
	// neighbouring term is not considered a usable synonym.
	DefaultMinScore = 0.5

	// DefaultEmbedTimeout bounds a single embedding call. The hashing
	// embedder finishes instantly; model-backed embedders may not.
	DefaultEmbedTimeout = 2 * time.Second

	// minVocabularyTermLen drops short tokens from the indexed
	// vocabulary. They carry too few trigrams to score reliably.
	minVocabularyTermLen = 4
)

// VocabularyExpander answers synonym queries by nearest-neighbour
// search over an embedded term vocabulary. It satisfies the expander
// contract of the match provider; the provider degrades to its other
// search strategies whenever Synonyms returns an error.
type VocabularyExpander struct {
	embedder Embedder
	index    *Index
	minScore float64
	timeout  time.Duration
	log      *zap.Logger
}

// NewVocabularyExpander returns an expander with an empty index. Call
// Build before first use and again whenever the catalog changes.
func NewVocabularyExpander(embedder Embedder, log *zap.Logger) *VocabularyExpander {
	if log == nil {
		log = zap.NewNop()
	}
	return &VocabularyExpander{
		embedder: embedder,
		index:    NewIndex(),
		minScore: DefaultMinScore,
		timeout:  DefaultEmbedTimeout,
		log:      log,
	}
}

// WithMinScore overrides the similarity cutoff. Values outside (0, 1]
// keep the default.
func (e *VocabularyExpander) WithMinScore(score float64) *VocabularyExpander {
	if score > 0 && score <= 1 {
		e.minScore = score
	}
	return e
}

// WithTimeout overrides the per-call embedding timeout. Non-positive
// durations keep the default.
func (e *VocabularyExpander) WithTimeout(d time.Duration) *VocabularyExpander {
	if d > 0 {
		e.timeout = d
	}
	return e
}

// Build embeds the vocabulary and replaces the index contents. Terms
// are normalized and deduplicated first; an embedding failure aborts
// the build and leaves the previous index in place.
func (e *VocabularyExpander) Build(ctx context.Context, vocabulary []string) error {
	terms := dedupeTerms(vocabulary)

	entries := make([]Entry, 0, len(terms))
	for _, term := range terms {
		vec, err := e.embedder.EmbedText(ctx, term)
		if err != nil {
			return fmt.Errorf("embedding vocabulary term %q: %w", term, err)
		}
		entries = append(entries, Entry{Term: term, Vector: vec})
	}

	e.index.Replace(entries)
	e.log.Info("synonym vocabulary indexed", zap.Int("terms", e.index.Size()))
	return nil
}

// Synonyms returns up to topK vocabulary terms similar to word, best
// first. The word itself is never returned. An empty index is an
// error so callers can tell a missing capability from a true miss.
func (e *VocabularyExpander) Synonyms(word string, topK int) ([]string, error) {
	norm := textnorm.Normalize(word)
	if norm == "" || topK <= 0 {
		return nil, nil
	}
	if e.index.Size() == 0 {
		return nil, fmt.Errorf("synonym vocabulary is empty")
	}

	ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
	defer cancel()

	query, err := e.embedder.EmbedText(ctx, norm)
	if err != nil {
		return nil, fmt.Errorf("embedding query %q: %w", norm, err)
	}

	// Over-fetch so filtering the word itself and weak scores still
	// leaves topK usable neighbours.
	hits := e.index.Search(query, topK+8)
	synonyms := make([]string, 0, topK)
	for _, hit := range hits {
		if hit.Term == norm || hit.Score < e.minScore {
			continue
		}
		synonyms = append(synonyms, hit.Term)
		if len(synonyms) == topK {
			break
		}
	}
	return synonyms, nil
}

// TermsFromNames extracts the vocabulary for Build from catalog row
// names: normalized tokens long enough to embed, deduplicated and
// sorted.
func TermsFromNames(names []string) []string {
	seen := make(map[string]struct{})
	for _, name := range names {
		for _, token := range strings.Fields(textnorm.Normalize(name)) {
			if len([]rune(token)) < minVocabularyTermLen {
				continue
			}
			seen[token] = struct{}{}
		}
	}
	terms := make([]string, 0, len(seen))
	for term := range seen {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	return terms
}

func dedupeTerms(vocabulary []string) []string {
	seen := make(map[string]struct{}, len(vocabulary))
	terms := make([]string, 0, len(vocabulary))
	for _, raw := range vocabulary {
		term := textnorm.Normalize(raw)
		if term == "" {
			continue
		}
		if _, ok := seen[term]; ok {
			continue
		}
		seen[term] = struct{}{}
		terms = append(terms, term)
	}
	return terms
}
