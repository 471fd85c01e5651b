package catalog

import "strings"

// Result caps for the read operations. Matching quality degrades long
// before these are reached; they bound worst-case work per query.
const (
	DefaultNameCandidateCap = 200
	DefaultGetAllCap        = 5000
)

// queryIndex serves the three read operations over an immutable row
// slice. Repositories share it so code-variant and prefix semantics stay
// identical across backends.
type queryIndex struct {
	rows    []Row
	nameCap int
	allCap  int
}

// byCodeLike returns rows whose code contains any separator variant of
// the fragment, case-insensitively, de-duplicated by row ID in variant
// order.
func (ix *queryIndex) byCodeLike(code string) []Row {
	variants := codeVariants(code)
	if len(variants) == 0 {
		return nil
	}

	seen := make(map[int64]bool)
	var out []Row
	for _, variant := range variants {
		needle := strings.ToLower(variant)
		for _, row := range ix.rows {
			if seen[row.ID] {
				continue
			}
			if strings.Contains(strings.ToLower(row.Code), needle) {
				seen[row.ID] = true
				out = append(out, row)
			}
		}
	}
	return out
}

// byNameCandidates returns rows whose name starts with the prefix,
// case-insensitively, up to the candidate cap.
func (ix *queryIndex) byNameCandidates(prefix string) []Row {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if prefix == "" {
		return nil
	}

	var out []Row
	for _, row := range ix.rows {
		if strings.HasPrefix(strings.ToLower(row.Name), prefix) {
			out = append(out, row)
			if len(out) >= ix.nameCap {
				break
			}
		}
	}
	return out
}

// getAll returns a copy of the rows, up to the catalog cap.
func (ix *queryIndex) getAll() []Row {
	n := len(ix.rows)
	if n > ix.allCap {
		n = ix.allCap
	}
	out := make([]Row, n)
	copy(out, ix.rows[:n])
	return out
}

// codeVariants returns the fragment plus its dash/dot-swapped forms,
// de-duplicated in order. Catalog exports disagree on the separator, so
// T.15.a-1 and T.15.a.1 must find the same rows.
func codeVariants(code string) []string {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil
	}

	candidates := []string{
		code,
		strings.ReplaceAll(code, "-", "."),
		strings.ReplaceAll(code, ".", "-"),
	}
	seen := make(map[string]bool, len(candidates))
	out := candidates[:0]
	for _, c := range candidates {
		if seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

// MemoryRepository serves catalog reads from rows held in memory. It
// backs tests and curated row sets layered over a bulk catalog.
type MemoryRepository struct {
	index queryIndex
}

// NewMemoryRepository copies the rows into a repository with default
// result caps.
func NewMemoryRepository(rows []Row) *MemoryRepository {
	copied := make([]Row, len(rows))
	copy(copied, rows)
	return &MemoryRepository{index: queryIndex{
		rows:    copied,
		nameCap: DefaultNameCandidateCap,
		allCap:  DefaultGetAllCap,
	}}
}

// WithCaps overrides the result caps. Non-positive values keep the
// defaults.
func (r *MemoryRepository) WithCaps(nameCandidateCap, getAllCap int) *MemoryRepository {
	if nameCandidateCap > 0 {
		r.index.nameCap = nameCandidateCap
	}
	if getAllCap > 0 {
		r.index.allCap = getAllCap
	}
	return r
}

// ByCodeLike returns rows whose code contains any separator variant of
// the fragment.
func (r *MemoryRepository) ByCodeLike(code string) []Row {
	return r.index.byCodeLike(code)
}

// ByNameCandidates returns rows whose name starts with the prefix.
func (r *MemoryRepository) ByNameCandidates(prefix string) []Row {
	return r.index.byNameCandidates(prefix)
}

// GetAll returns all rows up to the catalog cap.
func (r *MemoryRepository) GetAll() []Row {
	return r.index.getAll()
}

// Len reports the number of rows held.
func (r *MemoryRepository) Len() int {
	return len(r.index.rows)
}
