package match

import (
	"sort"

	"go.uber.org/zap"

	"github.com/rencanakan/ahsmatch/internal/textnorm"
)

// Processor scores provided candidates with the similarity calculator and
// applies the minimum-similarity threshold. It backs the non-confidence
// matching paths.
type Processor struct {
	calc          *Calculator
	provider      *Provider
	minSimilarity float64
	log           *zap.Logger
}

// NewProcessor wires a processor. The minimum similarity is clamped to
// [0,1] at construction.
func NewProcessor(calc *Calculator, provider *Provider, minSimilarity float64, log *zap.Logger) *Processor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Processor{
		calc:          calc,
		provider:      provider,
		minSimilarity: clamp01(minSimilarity),
		log:           log,
	}
}

// FindBestMatch returns the single highest-scoring candidate at or above
// the threshold, or nil. Candidates with empty normalized names are
// skipped; earlier candidates win score ties.
func (pr *Processor) FindBestMatch(query, unit string) *Result {
	norm := textnorm.Normalize(query)
	if norm == "" {
		return nil
	}

	var best *Result
	bestScore := 0.0
	for _, row := range pr.provider.Candidates(norm, unit) {
		name := textnorm.Normalize(row.Name)
		if name == "" {
			continue
		}
		score := pr.calc.Overall(norm, name)
		if score >= pr.minSimilarity && score > bestScore {
			bestScore = score
			best = rowResult(row, MatchedOnSemantic)
		}
	}

	if best != nil {
		pr.log.Debug("best fuzzy match",
			zap.String("query", norm), zap.String("name", best.Name), zap.Float64("score", bestScore))
	}
	return best
}

// FindMultipleMatches returns up to limit candidates at or above the
// threshold, in descending score order. A non-positive limit yields no
// results.
func (pr *Processor) FindMultipleMatches(query string, limit int, unit string) []*Result {
	if limit <= 0 {
		return nil
	}
	norm := textnorm.Normalize(query)
	if norm == "" {
		return nil
	}

	type scored struct {
		result *Result
		score  float64
	}
	var hits []scored
	for _, row := range pr.provider.Candidates(norm, unit) {
		name := textnorm.Normalize(row.Name)
		if name == "" {
			continue
		}
		score := pr.calc.Overall(norm, name)
		if score >= pr.minSimilarity {
			hits = append(hits, scored{result: rowResult(row, MatchedOnSemantic), score: score})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })
	if len(hits) > limit {
		hits = hits[:limit]
	}

	out := make([]*Result, len(hits))
	for i, h := range hits {
		out[i] = h.result
	}
	return out
}
