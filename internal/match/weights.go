package match

import "strings"

// genericWords are Indonesian function words that carry no matching
// signal. They get the lowest weight and never count as significant.
var genericWords = map[string]bool{
	"dan":     true,
	"atau":    true,
	"dengan":  true,
	"untuk":   true,
	"yang":    true,
	"di":      true,
	"ke":      true,
	"dari":    true,
	"pada":    true,
	"dalam":   true,
	"atas":    true,
	"oleh":    true,
	"per":     true,
	"serta":   true,
	"adalah":  true,
	"ini":     true,
	"itu":     true,
	"juga":    true,
	"sebagai": true,
	"secara":  true,
	"dll":     true,
}

// materialIndicators are curated material and building-element roots.
// Roots of four or more characters also match as substrings, so compound
// tokens like "keramik40x40" or "beton225" classify as technical.
var materialIndicators = []string{
	"semen",
	"pasir",
	"batu",
	"bata",
	"besi",
	"baja",
	"beton",
	"keramik",
	"granit",
	"marmer",
	"kayu",
	"triplek",
	"gypsum",
	"plafon",
	"atap",
	"genteng",
	"seng",
	"aluminium",
	"kaca",
	"pipa",
	"kabel",
	"cat",
	"paku",
	"hebel",
	"tanah",
	"dinding",
	"lantai",
	"pondasi",
	"tulangan",
	"wiremesh",
	"bekisting",
	"papan",
	"ubin",
	"aspal",
	"kerikil",
	"plat",
	"baut",
	"kusen",
	"pintu",
	"jendela",
}

// actionVerbs whitelists bare and affixed verb forms that the
// morphological patterns alone would miss.
var actionVerbs = map[string]bool{
	"pasang":      true,
	"bongkar":     true,
	"gali":        true,
	"urug":        true,
	"buat":        true,
	"bangun":      true,
	"ganti":       true,
	"cor":         true,
	"memasang":    true,
	"membongkar":  true,
	"menggali":    true,
	"mengurug":    true,
	"membuat":     true,
	"membangun":   true,
	"memperbaiki": true,
	"mengecat":    true,
	"perbaiki":    true,
}

// Weights assigns per-token weights for partial similarity. Material
// nouns disambiguate job descriptions far better than common action
// verbs, so technical tokens dominate the weighted score.
type Weights struct {
	UltraLow float64
	Low      float64
	Normal   float64
	High     float64
}

// NewWeights returns the default weight levels.
func NewWeights() Weights {
	return Weights{
		UltraLow: 0.1,
		Low:      0.3,
		Normal:   1.0,
		High:     3.0,
	}
}

// Weight classifies a token and returns its weight. Precedence: generic
// words lowest, then technical/material highest, then action words at
// normal weight, then very short tokens low.
func (w Weights) Weight(word string) float64 {
	word = normTerm(word)
	switch {
	case genericWords[word]:
		return w.UltraLow
	case w.IsTechnicalWord(word):
		return w.High
	case w.IsActionWord(word):
		return w.Normal
	case len(word) <= 2:
		return w.Low
	default:
		return w.Normal
	}
}

// IsActionWord reports whether the token is a construction action word,
// by whitelist or by Indonesian verb morphology (pe-/di- prefixes,
// -an/-kan suffixes).
func (w Weights) IsActionWord(word string) bool {
	word = normTerm(word)
	if actionVerbs[word] {
		return true
	}
	if len(word) < 4 {
		return false
	}
	if strings.HasPrefix(word, "pe") || strings.HasPrefix(word, "di") {
		return true
	}
	return strings.HasSuffix(word, "an") || strings.HasSuffix(word, "kan")
}

// IsTechnicalWord reports whether the token names a material or other
// technical term: a curated indicator match, or any longer non-generic,
// non-action token.
func (w Weights) IsTechnicalWord(word string) bool {
	word = normTerm(word)
	if word == "" || genericWords[word] {
		return false
	}
	for _, root := range materialIndicators {
		if word == root {
			return true
		}
		if len(root) >= 4 && strings.Contains(word, root) {
			return true
		}
	}
	return len(word) >= 6 && !w.IsActionWord(word)
}

// IsGenericWord reports whether the token is a stopword.
func (w Weights) IsGenericWord(word string) bool {
	return genericWords[normTerm(word)]
}
