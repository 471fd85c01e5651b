package match

import (
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/rencanakan/ahsmatch/internal/textnorm"
)

// ExactMatcher resolves descriptions that are literal catalog codes or
// complete catalog names. It runs before any fuzzy strategy and always
// reports full confidence.
type ExactMatcher struct {
	repo Repository
	log  *zap.Logger
}

// NewExactMatcher returns an exact matcher over the repository.
func NewExactMatcher(repo Repository, log *zap.Logger) *ExactMatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &ExactMatcher{repo: repo, log: log}
}

// Match tries the code path first: when the input looks like a catalog
// code, the first row whose normalized code equals the input's wins.
// Otherwise the normalized input must equal a whole catalog name among
// the head-token prefix candidates. Blank input yields nil.
func (m *ExactMatcher) Match(description string) *Result {
	raw := strings.TrimSpace(description)
	if raw == "" {
		return nil
	}

	if code := normCode(raw); looksLikeCode(code) {
		for _, row := range m.repo.ByCodeLike(raw) {
			if normCode(row.Code) == code {
				m.log.Debug("exact code match",
					zap.String("input", raw), zap.String("code", row.Code))
				res := rowResult(row, MatchedOnCode)
				res.Confidence = confidence(1.0)
				return res
			}
		}
	}

	norm := textnorm.Normalize(raw)
	if norm == "" {
		return nil
	}
	head := strings.Fields(norm)[0]
	for _, row := range m.repo.ByNameCandidates(head) {
		if textnorm.Normalize(row.Name) == norm {
			m.log.Debug("exact name match",
				zap.String("input", raw), zap.String("name", row.Name))
			res := rowResult(row, MatchedOnName)
			res.Confidence = confidence(1.0)
			return res
		}
	}
	return nil
}

// normCode reduces a string to upper-cased letters and digits, so
// T.15.a-1 and T.15.A.1 compare equal.
func normCode(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	return b.String()
}

// looksLikeCode reports whether a normalized code has at least one
// letter, one digit, and three characters, the minimum shape of a real
// catalog code.
func looksLikeCode(code string) bool {
	if len(code) < 3 {
		return false
	}
	hasLetter, hasDigit := false, false
	for _, r := range code {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	return hasLetter && hasDigit
}
