package match

import (
	"sort"
	"strings"
	"sync"
)

// actionSynonymBase maps construction action words to interchangeable
// terms, grouped by work category. Entries are one-directional here; the
// table builder adds the reverse edges.
var actionSynonymBase = map[string][]string{
	// generic work prefix
	"pekerjaan": {"pemasangan", "pembongkaran", "perbaikan", "pembuatan", "pengecatan", "pembangunan", "pengerjaan", "pemeliharaan"},

	// installation
	"pemasangan": {"pekerjaan", "pembuatan", "pengerjaan", "instalasi"},
	"pasang":     {"pemasangan", "memasang"},

	// demolition
	"pembongkaran": {"pekerjaan", "bongkar", "membongkar"},
	"bongkar":      {"pembongkaran", "membongkar"},

	// construction
	"pembuatan":   {"pekerjaan", "pemasangan", "pembangunan", "pengerjaan", "buat", "membuat"},
	"pembangunan": {"pekerjaan", "pembuatan", "pengerjaan", "bangun", "membangun"},
	"buat":        {"pembuatan", "membuat"},
	"bangun":      {"pembangunan", "membangun"},

	// repair and maintenance
	"perbaikan":    {"pekerjaan", "pemasangan", "pemeliharaan", "perbaiki", "memperbaiki"},
	"pemeliharaan": {"pekerjaan", "perbaikan"},

	// painting
	"pengecatan": {"pekerjaan", "pemasangan", "cat", "mengecat"},

	// excavation
	"galian":     {"penggalian", "pekerjaan", "gali", "menggali"},
	"penggalian": {"galian", "pekerjaan"},

	// backfill
	"urugan":     {"pengurugan", "pekerjaan", "urug", "mengurug"},
	"pengurugan": {"urugan", "pekerjaan"},
}

// materialSynonymBase maps material and fixture terms, including
// phrase-level synonyms where a trade name stands in for a multi-word
// catalog phrase (hebel for bata ringan, plumbing for instalasi pipa).
var materialSynonymBase = map[string][]string{
	// structural
	"hebel":            {"bata ringan", "bata putih"},
	"bata ringan":      {"hebel", "bata putih"},
	"borepile":         {"strauss pile", "bore pile"},
	"pengecoran beton": {"cor beton"},
	"bekisting":        {"cetakan"},

	// plumbing and sanitary
	"instalasi pipa": {"plumbing"},
	"kloset":         {"toilet", "wc"},
	"toilet":         {"wc"},
	"wastafel":       {"sink"},

	// electrical
	"instalasi":   {"pekerjaan"},
	"saklar":      {"switch"},
	"stop kontak": {"colokan"},
}

// compoundMaterialTerms lists material terms that participate in
// phrase-level synonymy. Multi-word entries are detected as phrases in
// query text so their component words are never matched independently;
// single-word entries route lone-word queries into material filtering.
var compoundMaterialTerms = []string{
	"bata ringan",
	"bata putih",
	"bore pile",
	"strauss pile",
	"pengecoran beton",
	"cor beton",
	"instalasi pipa",
	"stop kontak",
	"hebel",
	"borepile",
	"bekisting",
	"cetakan",
	"plumbing",
	"kloset",
	"toilet",
	"wc",
	"wastafel",
	"sink",
	"saklar",
	"switch",
	"colokan",
}

// SynonymTable holds the merged, symmetric synonym relation plus the
// compound-material term list. Build it once at startup and share it;
// it is immutable afterwards and safe for concurrent reads.
type SynonymTable struct {
	synonyms  map[string][]string
	compounds []string
	compound  map[string]bool
}

// NewSynonymTable builds the table from the curated base maps: entries
// are merged in order with later tables winning key collisions, every
// edge is mirrored so the relation is symmetric, and each value list is
// sorted for deterministic iteration.
func NewSynonymTable() *SynonymTable {
	merged := make(map[string][]string, len(actionSynonymBase)+len(materialSynonymBase))
	for _, base := range []map[string][]string{actionSynonymBase, materialSynonymBase} {
		for term, values := range base {
			merged[term] = values
		}
	}

	edges := make(map[string]map[string]bool, len(merged)*2)
	link := func(a, b string) {
		if a == b {
			return
		}
		if edges[a] == nil {
			edges[a] = make(map[string]bool)
		}
		edges[a][b] = true
	}
	for term, values := range merged {
		for _, v := range values {
			link(term, v)
			link(v, term)
		}
	}

	synonyms := make(map[string][]string, len(edges))
	for term, set := range edges {
		values := make([]string, 0, len(set))
		for v := range set {
			values = append(values, v)
		}
		sort.Strings(values)
		synonyms[term] = values
	}

	compound := make(map[string]bool, len(compoundMaterialTerms))
	for _, term := range compoundMaterialTerms {
		compound[term] = true
	}

	return &SynonymTable{
		synonyms:  synonyms,
		compounds: compoundMaterialTerms,
		compound:  compound,
	}
}

var (
	defaultSynonymTable     *SynonymTable
	defaultSynonymTableOnce sync.Once
)

// DefaultSynonymTable returns the shared table built from the curated
// base maps. The build runs once per process; the result is immutable
// and safe for concurrent use.
func DefaultSynonymTable() *SynonymTable {
	defaultSynonymTableOnce.Do(func() {
		defaultSynonymTable = NewSynonymTable()
	})
	return defaultSynonymTable
}

// Synonyms returns the synonym list for a term, case-insensitively.
// Unknown terms yield nil.
func (t *SynonymTable) Synonyms(term string) []string {
	return t.synonyms[normTerm(term)]
}

// HasSynonyms reports whether the term has any synonyms.
func (t *SynonymTable) HasSynonyms(term string) bool {
	return len(t.synonyms[normTerm(term)]) > 0
}

// CompoundMaterials returns the compound-material term list in
// declaration order.
func (t *SynonymTable) CompoundMaterials() []string {
	return t.compounds
}

// IsCompoundMaterial reports whether the term is a known compound
// material, case-insensitively.
func (t *SynonymTable) IsCompoundMaterial(term string) bool {
	return t.compound[normTerm(term)]
}

func normTerm(term string) string {
	return strings.ToLower(strings.TrimSpace(term))
}
