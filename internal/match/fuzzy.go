package match

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/rencanakan/ahsmatch/internal/textnorm"
)

// maxSynonymsPerWord bounds query expansion so synonym-rich words do not
// drown the original tokens.
const maxSynonymsPerWord = 2

// Matcher is the fuzzy matching facade. It owns the candidate provider,
// the similarity processor, and a pluggable confidence scorer; the
// minimum similarity is fixed per instance at construction.
type Matcher struct {
	provider      *Provider
	processor     *Processor
	scorer        Scorer
	syn           *SynonymTable
	minSimilarity float64
	log           *zap.Logger
}

// NewMatcher wires a fuzzy matcher over the repository. The expander may
// be nil to disable embedding synonyms, a nil scorer falls back to the
// composite confidence scorer, and the minimum similarity is clamped to
// [0,1].
func NewMatcher(repo Repository, minSimilarity float64, expander Expander, scorer Scorer, log *zap.Logger) *Matcher {
	if log == nil {
		log = zap.NewNop()
	}
	if scorer == nil {
		scorer = NewConfidenceScorer()
	}
	syn := DefaultSynonymTable()
	weights := NewWeights()
	calc := NewCalculator(weights)
	provider := NewProvider(repo, syn, weights, expander, 0, log)
	minSimilarity = clamp01(minSimilarity)
	processor := NewProcessor(calc, provider, minSimilarity, log)

	return &Matcher{
		provider:      provider,
		processor:     processor,
		scorer:        scorer,
		syn:           syn,
		minSimilarity: minSimilarity,
		log:           log,
	}
}

// Match returns the best candidate by internal similarity, or nil. The
// unit, when non-empty, constrains candidates before scoring.
func (m *Matcher) Match(description, unit string) *Result {
	return m.processor.FindBestMatch(description, unit)
}

// FindMultipleMatches returns up to limit candidates by internal
// similarity, descending.
func (m *Matcher) FindMultipleMatches(description string, limit int, unit string) []*Result {
	return m.processor.FindMultipleMatches(description, limit, unit)
}

// MatchWithConfidence returns the best candidate by confidence score, or
// nil. The query is also scored in synonym-expanded form and the better
// of the two scores wins, so trade names still reach their catalog
// phrasing without penalizing literal matches.
func (m *Matcher) MatchWithConfidence(description, unit string) *Result {
	norm := textnorm.Normalize(description)
	if norm == "" {
		return nil
	}
	expanded := m.expandQuery(norm)

	var best *Result
	bestScore := 0.0
	for _, row := range m.provider.Candidates(norm, unit) {
		name := textnorm.Normalize(row.Name)
		if name == "" {
			continue
		}
		score := m.confidenceScore(norm, expanded, name)
		if score >= m.minSimilarity && score > bestScore {
			bestScore = score
			res := rowResult(row, MatchedOnSemantic)
			res.Confidence = confidence(score)
			best = res
		}
	}

	if best != nil {
		m.log.Debug("confidence match",
			zap.String("query", norm), zap.String("name", best.Name), zap.Float64("confidence", bestScore))
	}
	return best
}

// FindMultipleMatchesWithConfidence returns up to limit candidates with
// confidence scores, descending. A non-positive limit yields no results.
func (m *Matcher) FindMultipleMatchesWithConfidence(description string, limit int, unit string) []*Result {
	if limit <= 0 {
		return nil
	}
	norm := textnorm.Normalize(description)
	if norm == "" {
		return nil
	}
	expanded := m.expandQuery(norm)

	type scored struct {
		result *Result
		score  float64
	}
	var hits []scored
	for _, row := range m.provider.Candidates(norm, unit) {
		name := textnorm.Normalize(row.Name)
		if name == "" {
			continue
		}
		score := m.confidenceScore(norm, expanded, name)
		if score < m.minSimilarity {
			continue
		}
		res := rowResult(row, MatchedOnSemantic)
		res.Confidence = confidence(score)
		hits = append(hits, scored{result: res, score: score})
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

func (m *Matcher) confidenceScore(norm, expanded, name string) float64 {
	score := m.scorer.Score(norm, name)
	if expanded != norm {
		if es := m.scorer.Score(expanded, name); es > score {
			score = es
		}
	}
	return score
}

// expandQuery appends up to two synonyms after each word that has any.
// Multi-word synonyms contribute all their tokens, which is what lets a
// lone trade name line up with a multi-word catalog phrase.
func (m *Matcher) expandQuery(norm string) string {
	words := strings.Fields(norm)
	out := make([]string, 0, len(words)*(1+maxSynonymsPerWord))
	for _, w := range words {
		out = append(out, w)
		if !m.syn.HasSynonyms(w) {
			continue
		}
		for i, s := range m.syn.Synonyms(w) {
			if i >= maxSynonymsPerWord {
				break
			}
			out = append(out, s)
		}
	}
	return strings.Join(out, " ")
}
