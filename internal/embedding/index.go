package embedding

import (
	"math"
	"sort"
	"sync"
)

// Entry is one indexed term with its vector.
type Entry struct {
	Term   string
	Vector []float32
}

// Hit is a search result with its cosine similarity to the query.
type Hit struct {
	Term  string
	Score float64
}

// Index is an in-memory brute-force cosine index. Linear scan is more
// than fast enough for a vocabulary drawn from a single AHS catalog.
type Index struct {
	mu      sync.RWMutex
	entries []Entry
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{}
}

// Replace swaps the indexed entries wholesale. Entries with empty terms
// or nil vectors are dropped.
func (ix *Index) Replace(entries []Entry) {
	kept := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.Term == "" || len(e.Vector) == 0 {
			continue
		}
		kept = append(kept, e)
	}

	ix.mu.Lock()
	ix.entries = kept
	ix.mu.Unlock()
}

// Search returns the topK entries most similar to the query vector,
// sorted by descending score. Ties break on term order so results are
// stable across runs.
func (ix *Index) Search(query []float32, topK int) []Hit {
	if len(query) == 0 || topK <= 0 {
		return nil
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	hits := make([]Hit, 0, len(ix.entries))
	for _, e := range ix.entries {
		hits = append(hits, Hit{Term: e.Term, Score: cosineSimilarity(query, e.Vector)})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Term < hits[j].Term
	})
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits
}

// Size reports the number of indexed entries.
func (ix *Index) Size() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.entries)
}

// cosineSimilarity accumulates in float64 to keep long vectors from
// losing precision. Mismatched lengths compare over the shorter prefix;
// a zero-norm operand scores zero.
func cosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
