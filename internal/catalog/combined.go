package catalog

import "strings"

// Source is the read capability a combined repository merges. Every
// repository in this package satisfies it.
type Source interface {
	ByCodeLike(code string) []Row
	ByNameCandidates(prefix string) []Row
	GetAll() []Row
}

// CombinedRepository merges an ordered list of sources into one logical
// catalog. Rows are de-duplicated by code and the first source wins, so
// a curated override file can shadow the bulk catalog behind it.
type CombinedRepository struct {
	sources []Source
}

// NewCombinedRepository builds a combined repository over the sources in
// priority order.
func NewCombinedRepository(sources ...Source) *CombinedRepository {
	return &CombinedRepository{sources: sources}
}

// ByCodeLike merges code lookups across sources.
func (r *CombinedRepository) ByCodeLike(code string) []Row {
	return r.merge(func(s Source) []Row { return s.ByCodeLike(code) })
}

// ByNameCandidates merges prefix lookups across sources.
func (r *CombinedRepository) ByNameCandidates(prefix string) []Row {
	return r.merge(func(s Source) []Row { return s.ByNameCandidates(prefix) })
}

// GetAll merges the full catalogs of all sources.
func (r *CombinedRepository) GetAll() []Row {
	return r.merge(func(s Source) []Row { return s.GetAll() })
}

func (r *CombinedRepository) merge(query func(Source) []Row) []Row {
	seen := make(map[string]bool)
	var out []Row
	for _, source := range r.sources {
		for _, row := range query(source) {
			key := strings.ToLower(strings.TrimSpace(row.Code))
			if key != "" {
				if seen[key] {
					continue
				}
				seen[key] = true
			}
			out = append(out, row)
		}
	}
	return out
}
