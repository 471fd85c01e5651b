package match

import "strings"

// Scorer turns a normalized query/candidate pair into a confidence score
// in [0,1]. Strategies are interchangeable; the composite fuzzy scorer is
// the default.
type Scorer interface {
	Score(query, candidate string) float64
}

// ExactScorer scores 1.0 for equal non-empty strings and 0.0 otherwise.
type ExactScorer struct{}

// Score implements Scorer.
func (ExactScorer) Score(query, candidate string) float64 {
	if query != "" && query == candidate {
		return 1.0
	}
	return 0.0
}

// NoopScorer always scores 0.0, disabling fuzzy confidence entirely.
type NoopScorer struct{}

// Score implements Scorer.
func (NoopScorer) Score(query, candidate string) float64 {
	return 0.0
}

// ConfidenceScorer is the composite fuzzy strategy. A single metric fails
// on reordered or partially overlapping multi-word phrases, so it blends
// character alignment with bag-of-words signals and rewards double
// agreement between them.
type ConfidenceScorer struct {
	SequenceWeight float64
	OverlapWeight  float64
	NearWeight     float64
	CoverageWeight float64
	BalanceWeight  float64

	// Double-agreement boost: applied when sequence and Jaccard both
	// clear their thresholds.
	AgreementSequence float64
	AgreementOverlap  float64
	AgreementBoost    float64

	// Additive bonus when at least two significant query tokens appear
	// verbatim in the candidate.
	MultiWordBonus float64
	SignificantLen int
}

// NewConfidenceScorer returns the scorer with default weighting.
func NewConfidenceScorer() *ConfidenceScorer {
	return &ConfidenceScorer{
		SequenceWeight:    0.35,
		OverlapWeight:     0.25,
		NearWeight:        0.15,
		CoverageWeight:    0.15,
		BalanceWeight:     0.10,
		AgreementSequence: 0.75,
		AgreementOverlap:  0.70,
		AgreementBoost:    1.05,
		MultiWordBonus:    0.20,
		SignificantLen:    4,
	}
}

// Score implements Scorer. Inputs are expected pre-normalized.
func (s *ConfidenceScorer) Score(query, candidate string) float64 {
	if query == "" || candidate == "" {
		return 0.0
	}
	if query == candidate {
		return 1.0
	}

	queryTokens := strings.Fields(query)
	candidateTokens := strings.Fields(candidate)
	if len(queryTokens) == 0 || len(candidateTokens) == 0 {
		return 0.0
	}

	querySet := tokenSet(queryTokens)
	candidateSet := tokenSet(candidateTokens)
	intersection := 0
	for token := range querySet {
		if candidateSet[token] {
			intersection++
		}
	}

	seq := sequenceRatio(query, candidate)

	union := len(querySet) + len(candidateSet) - intersection
	jaccard := 0.0
	if union > 0 {
		jaccard = float64(intersection) / float64(union)
	}

	near := nearTokenSimilarity(queryTokens, candidateTokens)
	cov := 0.5 * (float64(intersection)/float64(len(querySet)) + float64(intersection)/float64(len(candidateSet)))
	balance := tokenBalance(len(queryTokens), len(candidateTokens))

	score := s.SequenceWeight*seq +
		s.OverlapWeight*jaccard +
		s.NearWeight*near +
		s.CoverageWeight*cov +
		s.BalanceWeight*balance

	if seq >= s.AgreementSequence && jaccard >= s.AgreementOverlap {
		score *= s.AgreementBoost
		if score > 1.0 {
			score = 1.0
		}
	}

	score += s.multiWordBonus(queryTokens, candidateSet)

	return clamp01(score)
}

// multiWordBonus rewards candidates that contain several of the query's
// significant tokens verbatim, proportionally to how many matched.
func (s *ConfidenceScorer) multiWordBonus(queryTokens []string, candidateSet map[string]bool) float64 {
	significant := 0
	matched := 0
	for _, token := range queryTokens {
		if len(token) < s.SignificantLen {
			continue
		}
		significant++
		if candidateSet[token] {
			matched++
		}
	}
	if significant < 2 || matched < 2 {
		return 0.0
	}
	return s.MultiWordBonus * float64(matched) / float64(significant)
}

// nearTokenSimilarity averages the best pair score per query token,
// counting only tokens that found some pairing. Tokens shorter than three
// characters never pair.
func nearTokenSimilarity(queryTokens, candidateTokens []string) float64 {
	var sum float64
	count := 0
	for _, q := range queryTokens {
		best := 0.0
		for _, c := range candidateTokens {
			if s := tokenPairScore(q, c); s > best {
				best = s
			}
		}
		if best > 0 {
			sum += best
			count++
		}
	}
	if count == 0 {
		return 0.0
	}
	return sum / float64(count)
}

// tokenPairScore grades one token pair: exact 1.0, substring containment
// 0.8, high alignment ratio scaled by 0.6, otherwise 0.
func tokenPairScore(a, b string) float64 {
	if len(a) < 3 || len(b) < 3 {
		return 0.0
	}
	if a == b {
		return 1.0
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return 0.8
	}
	if r := sequenceRatio(a, b); r >= 0.75 {
		return 0.6 * r
	}
	return 0.0
}

func tokenSet(tokens []string) map[string]bool {
	set := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		set[t] = true
	}
	return set
}

func tokenBalance(a, b int) float64 {
	if a == 0 || b == 0 {
		return 0.0
	}
	if a > b {
		a, b = b, a
	}
	return float64(a) / float64(b)
}

func clamp01(v float64) float64 {
	switch {
	case v < 0.0:
		return 0.0
	case v > 1.0:
		return 1.0
	default:
		return v
	}
}
