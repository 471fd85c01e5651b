// Package textnorm canonicalizes free-text job descriptions for matching.
//
// Normalization lowercases, folds measurement symbols to ASCII, strips
// diacritics, and collapses punctuation to single spaces while preserving
// catalog item codes such as "T.14.d" or "AT.19-1" verbatim.
package textnorm

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	nonAlnumRe   = regexp.MustCompile(`[^0-9a-z]+`)

	// Dotted or dashed catalog codes, e.g. "T.14.d" or "AT.19-1".
	codeRe = regexp.MustCompile(`\b[A-Za-z]+(?:[.-][A-Za-z0-9]+)+\b`)

	// Spaced AT code variants as they appear in imported spreadsheets.
	atTwoPartRe = regexp.MustCompile(`(?i)\b(AT)\s+(\d+)\s+(\d+)\b`)
	atOnePartRe = regexp.MustCompile(`(?i)\b(AT)\s+(\d+)\b`)

	placeholderRe = regexp.MustCompile(`codeplaceholder(\d+)`)
)

// symbolReplacer folds measurement symbols and separator punctuation to
// ASCII-friendly forms before diacritics are stripped. Earlier pairs win
// when patterns overlap ("m²" before "²").
var symbolReplacer = strings.NewReplacer(
	"m²", "m2",
	"㎡", "m2",
	"²", "2",
	"m³", "m3",
	"㎥", "m3",
	"³", "3",
	"–", "-",
	"—", "-",
	"·", " ",
	"×", "x",
	"Ø", " ",
	"@", " ",
	"/", " ",
	":", " ",
	";", " ",
	",", " ",
	".", " ",
	"!", " ",
	"?", " ",
	"(", " ",
	")", " ",
	"[", " ",
	"]", " ",
	"{", " ",
	"}", " ",
	"'", " ",
	"‘", " ",
	"’", " ",
	"“", " ",
	"”", " ",
)

var nonASCII = runes.Predicate(func(r rune) bool { return r > unicode.MaxASCII })

// Normalize canonicalizes a raw description. The result contains only
// lowercase ASCII letters, digits, single spaces, and verbatim catalog
// codes. Normalize is idempotent.
func Normalize(text string) string {
	return normalize(text, nil)
}

// NormalizeWithoutStopwords canonicalizes text like Normalize and then
// drops tokens that exactly match an entry in stopwords.
func NormalizeWithoutStopwords(text string, stopwords map[string]bool) string {
	return normalize(text, stopwords)
}

func normalize(text string, stopwords map[string]bool) string {
	if text == "" {
		return ""
	}

	s := convertSpacedATCodes(text)
	s, codes := protectCodes(s)

	s = strings.ToLower(s)
	s = symbolReplacer.Replace(s)
	s = foldASCII(s)
	s = nonAlnumRe.ReplaceAllString(s, " ")
	s = strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
	if s == "" {
		return s
	}

	if len(stopwords) > 0 {
		s = dropStopwords(s, stopwords)
	}

	s = restoreCodes(s, codes)
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// convertSpacedATCodes rewrites "AT 19 1" to "AT.19-1" and "AT 20" to
// "AT.20" so the dotted form survives code protection.
func convertSpacedATCodes(text string) string {
	text = atTwoPartRe.ReplaceAllString(text, "${1}.${2}-${3}")
	return atOnePartRe.ReplaceAllString(text, "${1}.${2}")
}

// protectCodes swaps catalog codes for indexed placeholders so the
// punctuation passes leave them intact. Codes are restored with their
// original casing after normalization.
func protectCodes(text string) (string, []string) {
	var codes []string
	protected := codeRe.ReplaceAllStringFunc(text, func(code string) string {
		codes = append(codes, code)
		return fmt.Sprintf(" codeplaceholder%d ", len(codes)-1)
	})
	return protected, codes
}

func restoreCodes(text string, codes []string) string {
	if len(codes) == 0 {
		return text
	}
	return placeholderRe.ReplaceAllStringFunc(text, func(placeholder string) string {
		idx, err := strconv.Atoi(strings.TrimPrefix(placeholder, "codeplaceholder"))
		if err != nil || idx < 0 || idx >= len(codes) {
			return placeholder
		}
		return codes[idx]
	})
}

// foldASCII decomposes the text, removes combining marks, and drops any
// remaining non-ASCII runes (e.g. "ø" has no decomposition).
func foldASCII(text string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), runes.Remove(nonASCII))
	folded, _, err := transform.String(t, text)
	if err != nil {
		return text
	}
	return folded
}

func dropStopwords(text string, stopwords map[string]bool) string {
	fields := strings.Fields(text)
	kept := fields[:0]
	for _, field := range fields {
		if !stopwords[field] {
			kept = append(kept, field)
		}
	}
	return strings.Join(kept, " ")
}
