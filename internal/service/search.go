package service

import (
	"context"
	"strings"

	"github.com/rencanakan/ahsmatch/internal/match"
)

// DefaultSearchLimit bounds typeahead listings when the caller gives no
// limit.
const DefaultSearchLimit = 10

// SearchCandidates lists catalog rows whose names start with the term,
// shaped as results without confidence. Blank terms and canceled
// contexts list nothing.
func (s *Matcher) SearchCandidates(ctx context.Context, term string, limit int) []*match.Result {
	if ctx.Err() != nil {
		return nil
	}
	cleaned := strings.TrimSpace(term)
	if cleaned == "" {
		return nil
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	rows := s.repo.ByNameCandidates(cleaned)
	if len(rows) > limit {
		rows = rows[:limit]
	}

	out := make([]*match.Result, 0, len(rows))
	for _, row := range rows {
		out = append(out, &match.Result{
			Source:    match.SourceCatalog,
			ID:        row.ID,
			Code:      row.Code,
			Name:      row.Name,
			MatchedOn: match.MatchedOnName,
		})
	}
	return out
}
