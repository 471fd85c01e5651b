package match

import (
	"errors"
	"strings"

	"github.com/rencanakan/ahsmatch/internal/catalog"
)

// fakeRepo implements Repository over an in-memory row slice, mirroring
// the store-backed lookups: code fragments match by substring, name
// candidates by case-insensitive prefix.
type fakeRepo struct {
	rows []catalog.Row
}

func (f *fakeRepo) ByCodeLike(code string) []catalog.Row {
	frag := normCode(code)
	if frag == "" {
		return nil
	}
	var out []catalog.Row
	for _, row := range f.rows {
		if strings.Contains(normCode(row.Code), frag) {
			out = append(out, row)
		}
	}
	return out
}

func (f *fakeRepo) ByNameCandidates(prefix string) []catalog.Row {
	prefix = strings.ToLower(prefix)
	var out []catalog.Row
	for _, row := range f.rows {
		if strings.HasPrefix(strings.ToLower(row.Name), prefix) {
			out = append(out, row)
		}
	}
	return out
}

func (f *fakeRepo) GetAll() []catalog.Row {
	out := make([]catalog.Row, len(f.rows))
	copy(out, f.rows)
	return out
}

// fakeExpander returns a fixed synonym list for every word.
type fakeExpander struct {
	synonyms []string
	calls    int
}

func (f *fakeExpander) Synonyms(word string, topK int) ([]string, error) {
	f.calls++
	return f.synonyms, nil
}

// failingExpander always errors, for degradation tests.
type failingExpander struct{}

func (failingExpander) Synonyms(word string, topK int) ([]string, error) {
	return nil, errors.New("embedding service unavailable")
}
