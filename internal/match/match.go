// Package match implements the layered pipeline that resolves free-text
// construction job descriptions against the AHS catalog. Matching runs in
// stages: exact code and name lookup first, then fuzzy similarity over a
// synonym- and compound-material-aware candidate pool, with optional unit
// filtering at the end.
package match

import (
	"math"

	"github.com/rencanakan/ahsmatch/internal/catalog"
)

// SourceCatalog identifies the AHS catalog as the origin of a result.
const SourceCatalog = "catalog"

// Match provenance reported in Result.MatchedOn.
const (
	MatchedOnCode     = "code"
	MatchedOnName     = "name"
	MatchedOnSemantic = "semantic"
)

// Result is a single resolved match against a catalog row. Confidence is
// only set by the confidence-scoring paths; UnitMismatch and Status are
// filled in by the service layer.
type Result struct {
	Source       string   `json:"source"`
	ID           int64    `json:"id"`
	Code         string   `json:"code"`
	Name         string   `json:"name"`
	MatchedOn    string   `json:"matched_on"`
	Confidence   *float64 `json:"confidence,omitempty"`
	UnitMismatch bool     `json:"unit_mismatch,omitempty"`
	Status       string   `json:"status,omitempty"`
}

// Repository is the read-only catalog access the matchers depend on.
// Implementations live in the catalog package; anything satisfying these
// three bounded reads can back the pipeline.
type Repository interface {
	// ByCodeLike returns rows whose code resembles the given fragment.
	ByCodeLike(code string) []catalog.Row
	// ByNameCandidates returns a bounded set of rows whose name starts
	// with the given prefix, case-insensitively.
	ByNameCandidates(prefix string) []catalog.Row
	// GetAll returns the full catalog up to the repository's row cap.
	GetAll() []catalog.Row
}

// Expander supplies embedding-derived synonyms for a single word. It is an
// optional collaborator; the candidate provider swallows its failures and
// degrades to manual synonyms.
type Expander interface {
	Synonyms(word string, topK int) ([]string, error)
}

func rowResult(row catalog.Row, matchedOn string) *Result {
	return &Result{
		Source:    SourceCatalog,
		ID:        row.ID,
		Code:      row.Code,
		Name:      row.Name,
		MatchedOn: matchedOn,
	}
}

// confidence rounds a score to four decimals and boxes it for the
// omitempty-friendly pointer field.
func confidence(score float64) *float64 {
	v := math.Round(score*10000) / 10000
	return &v
}
