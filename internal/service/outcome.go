package service

import (
	"fmt"

	"github.com/rencanakan/ahsmatch/internal/match"
)

// Exposed status vocabulary. Multi-result outcomes with more than one
// hit report "found N similar" via FoundSimilarStatus.
const (
	StatusFound        = "found"
	StatusSimilar      = "similar"
	StatusUnitMismatch = "unit mismatch"
	StatusNotFound     = "not found"
	StatusError        = "error"
)

// FoundSimilarStatus formats the multi-hit status string.
func FoundSimilarStatus(n int) string {
	return fmt.Sprintf("found %d similar", n)
}

// Alternatives is the envelope returned when matches exist only under a
// different unit than the caller asked for. Transports pass it through
// verbatim instead of the usual status/match pair.
type Alternatives struct {
	Message      string          `json:"message"`
	Alternatives []*match.Result `json:"alternatives"`
	UnitMismatch bool            `json:"unit_mismatch"`
}

// alternativesMessage is shown with the envelope; near matches exist
// but carry different units than requested.
const alternativesMessage = "No matches with the requested unit were found. Showing alternatives with different units."

func newAlternatives(hits []*match.Result) *Alternatives {
	return &Alternatives{
		Message:      alternativesMessage,
		Alternatives: hits,
		UnitMismatch: true,
	}
}

// Outcome is the decision of one best-match call. Exactly one of Match,
// Matches, or Alternatives is set for a successful outcome; all three
// are empty when nothing was found.
type Outcome struct {
	Status       string
	Match        *match.Result
	Matches      []*match.Result
	Alternatives *Alternatives
}

// MatchPayload returns the value a transport should render in the match
// field: a single result, a result list, or nil when nothing matched.
func (o *Outcome) MatchPayload() any {
	switch {
	case o.Match != nil:
		return o.Match
	case o.Matches != nil:
		return o.Matches
	default:
		return nil
	}
}

// listStatus derives the status for a non-empty result list.
func listStatus(n int) string {
	if n == 1 {
		return StatusSimilar
	}
	return FoundSimilarStatus(n)
}

// singleStatus derives the status for a single chosen result. A missing
// confidence means an exact strategy produced it.
func singleStatus(res *match.Result) string {
	if res.UnitMismatch {
		return StatusUnitMismatch
	}
	if res.Confidence == nil || *res.Confidence == 1.0 {
		return StatusFound
	}
	return StatusSimilar
}
