// Package units normalizes construction units of measure and infers the
// likely unit of a catalog item from its name.
package units

import (
	"regexp"
	"strings"
)

// unitReplacer folds spreadsheet notation variants ("M^3", "㎡", "meter")
// into canonical short forms before comparison.
var unitReplacer = strings.NewReplacer(
	" ", "",
	"^", "",
	"²", "2",
	"³", "3",
	"㎡", "m2",
	"㎥", "m3",
	"meter", "m",
	"buah", "bh",
)

var nonUnitRe = regexp.MustCompile(`[^0-9a-z/]+`)

// Explicit unit mentions inside a description. The trailing boundary is
// left off the superscript forms since they are not word characters.
var (
	squareMeterRe = regexp.MustCompile(`\b(?:m2|meter2|persegi)\b|\bm²`)
	cubicMeterRe  = regexp.MustCompile(`\b(?:m3|meter3|kubik)\b|\bm³`)
	linearMeterRe = regexp.MustCompile(`m'|m1\b|\b1\s*m\s+(?:[^23²³]|$)`)
	lumpSumRe     = regexp.MustCompile(`\b(?:ls|lumpsum|paket)\b`)
	pieceRe       = regexp.MustCompile(`\b(?:bh|buah|unit|set)\b`)
	kilogramRe    = regexp.MustCompile(`\b(?:kg|kilogram)\b`)
)

// Keyword fallbacks, checked in priority order when the description names
// no unit outright. Matching is substring containment, mirroring how the
// reference catalog phrases its item names.
var (
	lumpSumHints = []string{
		"mobilisasi", "demobilisasi", "penyiapan", "persiapan",
		"papan proyek", "papan nama", "direksi keet", "barak",
		"administrasi", "dokumentasi", "laporan", "rapat",
		"sertifikat", "ijin", "perijinan",
	}
	cubicMeterHints = []string{
		"galian", "urugan", "timbunan", "pemadatan", "pengurugan",
		"beton cor", "pengecoran", "volume",
		"tanah", "pasir urug", "sirtu", "agregat",
		"pembongkaran beton",
	}
	squareMeterHints = []string{
		"lantai", "dinding", "plafon", "ceiling",
		"keramik", "granit", "marmer", "parket", "vinyl",
		"cat", "pengecatan", "plester", "acian", "aci",
		"lapangan", "perataan", "permukaan",
		"waterproofing", "membran", "geotextile", "aspal",
		"paving", "conblock", "grass block",
	}
	linearMeterHints = []string{
		"pipa", "kabel", "pagar", "railing", "handrail",
		"list", "profil", "besi beton", "tulangan",
		"drainase", "saluran", "gorong", "talang",
		"kawat", "tali", "selang",
	}
	pieceHints = []string{
		"pintu", "jendela", "lampu", "saklar", "stop kontak",
		"kunci", "handle", "engsel",
		"pompa", "tangki", "reservoir", "septictank",
		"closet", "wastafel", "kran", "shower",
		"ac ", "air conditioner", "exhaust fan",
	}
)

// Normalize canonicalizes a raw unit string ("M²" to "m2", "Buah" to
// "bh"). It returns "" when the input carries no usable unit.
func Normalize(unit string) string {
	s := strings.ToLower(strings.TrimSpace(unit))
	if s == "" {
		return ""
	}

	s = unitReplacer.Replace(s)

	// m1 denotes a linear meter in some bills of quantities.
	if s == "m1" {
		s = "m"
	}

	// m' is another linear meter notation; drop the quote variants.
	s = strings.ReplaceAll(s, "'", "")
	s = strings.ReplaceAll(s, "’", "")

	return nonUnitRe.ReplaceAllString(s, "")
}

// InferFromDescription guesses the unit of measure for a work item from
// its description. Explicit unit mentions win; otherwise keyword lists
// decide, lump sum first since preparation items often name materials
// that would trip the volume and area lists. It returns "" when nothing
// matches.
func InferFromDescription(description string) string {
	desc := strings.ToLower(description)

	switch {
	case squareMeterRe.MatchString(desc):
		return "m2"
	case cubicMeterRe.MatchString(desc):
		return "m3"
	case linearMeterRe.MatchString(desc):
		return "m"
	case lumpSumRe.MatchString(desc):
		return "ls"
	case pieceRe.MatchString(desc):
		return "bh"
	case kilogramRe.MatchString(desc):
		return "kg"
	}

	if containsAny(desc, lumpSumHints) {
		return "ls"
	}
	if containsAny(desc, cubicMeterHints) {
		return "m3"
	}
	// Plint and lis items are linear even though they name area materials.
	if strings.Contains(desc, "plint") || strings.Contains(desc, "lis") {
		return "m"
	}
	if containsAny(desc, squareMeterHints) {
		return "m2"
	}
	if containsAny(desc, linearMeterHints) {
		return "m"
	}
	if containsAny(desc, pieceHints) {
		return "bh"
	}
	return ""
}

// aliasGroups lists unit notations that denote the same measure.
var aliasGroups = []map[string]bool{
	{"m": true, "m1": true, "meter": true},
	{"m2": true, "meter2": true, "persegi": true},
	{"m3": true, "meter3": true, "kubik": true},
	{"bh": true, "buah": true, "unit": true, "set": true},
	{"ls": true, "lumpsum": true, "paket": true},
	{"kg": true, "kilogram": true},
}

// Compatible reports whether an inferred candidate unit satisfies the
// unit the caller asked for. An empty user unit never filters; an empty
// inferred unit fails any requested filter.
func Compatible(inferred, user string) bool {
	if user == "" {
		return true
	}
	if inferred == "" {
		return false
	}

	normalizedUser := Normalize(user)
	normalizedInferred := Normalize(inferred)
	if normalizedUser == "" || normalizedInferred == "" {
		return false
	}
	if normalizedUser == normalizedInferred {
		return true
	}

	for _, group := range aliasGroups {
		if group[normalizedUser] && group[normalizedInferred] {
			return true
		}
	}
	return false
}

func containsAny(s string, hints []string) bool {
	for _, hint := range hints {
		if strings.Contains(s, hint) {
			return true
		}
	}
	return false
}
