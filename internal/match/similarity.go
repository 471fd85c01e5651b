package match

import (
	"strings"

	"github.com/hbollon/go-edlib"
)

// Token match types reported by ExplainPartial.
const (
	TokenMatchExact     = "exact"
	TokenMatchSubstring = "substring"
	TokenMatchNone      = "none"
)

// TokenMatch describes how one query token matched during weighted
// partial similarity. Diagnostics only; decisions never read it.
type TokenMatch struct {
	Token        string  `json:"token"`
	Matched      string  `json:"matched"`
	Type         string  `json:"type"`
	Score        float64 `json:"score"`
	Weight       float64 `json:"weight"`
	Contribution float64 `json:"contribution"`
}

// Calculator computes the two similarity measures the matching processor
// combines: character-level sequence similarity and weighted token-level
// partial similarity.
type Calculator struct {
	weights Weights
}

// NewCalculator returns a calculator using the given token weights.
func NewCalculator(weights Weights) *Calculator {
	return &Calculator{weights: weights}
}

// SequenceSimilarity returns the character-level alignment ratio of two
// strings in [0,1]: twice the longest common subsequence over the summed
// lengths. Equal non-empty strings score 1.0.
func (c *Calculator) SequenceSimilarity(a, b string) float64 {
	return sequenceRatio(a, b)
}

// PartialSimilarity returns the weighted token overlap of query against
// candidate in [0,1]. Each query token contributes its best candidate
// match (exact, else substring containment ratio), scaled by the token's
// weight; the result is matched weight over total weight.
func (c *Calculator) PartialSimilarity(query, candidate string) float64 {
	queryTokens := strings.Fields(query)
	if len(queryTokens) == 0 {
		return 0.0
	}
	candidateTokens := strings.Fields(candidate)

	var total, matched float64
	for _, token := range queryTokens {
		weight := c.weights.Weight(token)
		total += weight
		score, _, _ := bestTokenMatch(token, candidateTokens)
		matched += score * weight
	}
	if total == 0 {
		return 0.0
	}
	return matched / total
}

// Overall returns the similarity used for match decisions: the maximum
// of sequence and weighted partial similarity.
func (c *Calculator) Overall(query, candidate string) float64 {
	seq := c.SequenceSimilarity(query, candidate)
	partial := c.PartialSimilarity(query, candidate)
	if partial > seq {
		return partial
	}
	return seq
}

// ExplainPartial returns the per-token breakdown behind
// PartialSimilarity, for diagnostics and match explanations.
func (c *Calculator) ExplainPartial(query, candidate string) []TokenMatch {
	queryTokens := strings.Fields(query)
	candidateTokens := strings.Fields(candidate)

	out := make([]TokenMatch, 0, len(queryTokens))
	for _, token := range queryTokens {
		weight := c.weights.Weight(token)
		score, matchedWord, matchType := bestTokenMatch(token, candidateTokens)
		out = append(out, TokenMatch{
			Token:        token,
			Matched:      matchedWord,
			Type:         matchType,
			Score:        score,
			Weight:       weight,
			Contribution: score * weight,
		})
	}
	return out
}

// bestTokenMatch finds the best-scoring candidate token for a query
// token: exact equality wins outright, otherwise substring containment
// scores min(len)/max(len).
func bestTokenMatch(token string, candidates []string) (score float64, matched, matchType string) {
	matchType = TokenMatchNone
	for _, cand := range candidates {
		if token == cand {
			return 1.0, cand, TokenMatchExact
		}
		if strings.Contains(cand, token) || strings.Contains(token, cand) {
			if r := containmentRatio(token, cand); r > score {
				score, matched, matchType = r, cand, TokenMatchSubstring
			}
		}
	}
	return score, matched, matchType
}

func containmentRatio(a, b string) float64 {
	la, lb := len(a), len(b)
	if la == 0 || lb == 0 {
		return 0.0
	}
	if la > lb {
		la, lb = lb, la
	}
	return float64(la) / float64(lb)
}

// sequenceRatio is the shared LCS-based alignment ratio.
func sequenceRatio(a, b string) float64 {
	if a == "" || b == "" {
		return 0.0
	}
	if a == b {
		return 1.0
	}
	la := len([]rune(a))
	lb := len([]rune(b))
	lcs := edlib.LCS(a, b)
	return 2.0 * float64(lcs) / float64(la+lb)
}
