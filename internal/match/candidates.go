package match

import (
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/rencanakan/ahsmatch/internal/catalog"
	"github.com/rencanakan/ahsmatch/internal/textnorm"
	"github.com/rencanakan/ahsmatch/internal/units"
)

// DefaultHeadPoolCap is the row-count ceiling above which the head-token
// prefix pool is considered too broad and the full catalog is filtered
// instead. A performance heuristic, not a correctness requirement.
const DefaultHeadPoolCap = 1000

const (
	expanderTopK         = 5
	significantTokenLen  = 4
	fuzzyTokenLen        = 6
	fuzzyTokenRatio      = 0.8
	compoundComponentLen = 3
)

// Provider narrows the catalog to the rows worth scoring for a query.
// Routing depends on query shape: lone material words filter the catalog
// by material, multi-word queries require every significant token to
// match, and everything else falls back to prefix and synonym lookups.
type Provider struct {
	repo        Repository
	syn         *SynonymTable
	weights     Weights
	expander    Expander
	headPoolCap int
	log         *zap.Logger
}

// NewProvider wires a candidate provider. The synonym table defaults when
// nil, headPoolCap defaults when non-positive, and the expander may be
// nil to disable embedding-based synonym lookups.
func NewProvider(repo Repository, syn *SynonymTable, weights Weights, expander Expander, headPoolCap int, log *zap.Logger) *Provider {
	if syn == nil {
		syn = DefaultSynonymTable()
	}
	if headPoolCap <= 0 {
		headPoolCap = DefaultHeadPoolCap
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Provider{
		repo:        repo,
		syn:         syn,
		weights:     weights,
		expander:    expander,
		headPoolCap: headPoolCap,
		log:         log,
	}
}

// Candidates returns the rows worth scoring for a normalized query, with
// the unit filter applied last when a unit is given. First matching
// branch wins; an empty query yields the entire catalog.
func (p *Provider) Candidates(query, unit string) []catalog.Row {
	words := strings.Fields(query)
	if len(words) == 0 {
		return filterByUnit(p.repo.GetAll(), unit)
	}

	detected := p.detectCompounds(strings.Join(words, " "))

	if len(words) == 1 && (p.weights.IsTechnicalWord(words[0]) || p.syn.IsCompoundMaterial(words[0])) {
		if rows := p.filterAnyMaterial(p.repo.GetAll(), words, detected); len(rows) > 0 {
			p.log.Debug("candidates via single material word",
				zap.String("word", words[0]), zap.Int("count", len(rows)))
			return filterByUnit(rows, unit)
		}
	}

	significant := p.significantTokens(words)
	if len(significant) >= 2 {
		if rows := p.multiWordCandidates(significant, words, detected); len(rows) > 0 {
			p.log.Debug("candidates via multi-word filter",
				zap.Strings("significant", significant), zap.Int("count", len(rows)))
			return filterByUnit(rows, unit)
		}
	} else if materials := p.materialTokens(words, detected); len(materials) > 0 {
		if rows := p.filterAnyMaterial(p.repo.GetAll(), materials, detected); len(rows) > 0 {
			p.log.Debug("candidates via material filter",
				zap.Strings("materials", materials), zap.Int("count", len(rows)))
			return filterByUnit(rows, unit)
		}
	}

	if rows := p.prefixPool(words[0]); len(rows) > 0 {
		p.log.Debug("candidates via prefix pool",
			zap.String("head", words[0]), zap.Int("count", len(rows)))
		return filterByUnit(rows, unit)
	}

	p.log.Debug("candidates via full catalog fallback")
	return filterByUnit(p.repo.GetAll(), unit)
}

// multiWordCandidates requires every significant token to match. It
// prefers the bounded head-token pool when it is small enough, retries
// against the full catalog, and as a last resort relaxes to an
// any-of-materials filter.
func (p *Provider) multiWordCandidates(significant, words []string, detected map[string]string) []catalog.Row {
	pool := p.repo.ByNameCandidates(significant[0])
	if len(pool) > 0 && len(pool) <= p.headPoolCap {
		if rows := p.filterAllWords(pool, significant, detected); len(rows) > 0 {
			return rows
		}
	}
	if rows := p.filterAllWords(p.repo.GetAll(), significant, detected); len(rows) > 0 {
		return rows
	}
	return p.filterAnyMaterial(p.repo.GetAll(), p.materialTokens(words, detected), detected)
}

// filterAllWords keeps rows whose normalized name matches every token.
func (p *Provider) filterAllWords(rows []catalog.Row, tokens []string, detected map[string]string) []catalog.Row {
	var out []catalog.Row
	for _, row := range rows {
		name := textnorm.Normalize(row.Name)
		if name == "" {
			continue
		}
		all := true
		for _, token := range tokens {
			if !p.wordMatches(token, name, detected) {
				all = false
				break
			}
		}
		if all {
			out = append(out, row)
		}
	}
	return out
}

// filterAnyMaterial keeps rows whose normalized name matches at least one
// material token directly, via compound membership, or via synonym.
func (p *Provider) filterAnyMaterial(rows []catalog.Row, materials []string, detected map[string]string) []catalog.Row {
	if len(materials) == 0 {
		return nil
	}
	var out []catalog.Row
	for _, row := range rows {
		name := textnorm.Normalize(row.Name)
		if name == "" {
			continue
		}
		if p.anyMaterialMatches(name, materials, detected) {
			out = append(out, row)
		}
	}
	return out
}

// wordMatches reports whether one query token matches a candidate name:
// substring, synonym-in-candidate, fuzzy token alignment for longer
// words, or compound-material membership.
func (p *Provider) wordMatches(word, name string, detected map[string]string) bool {
	if strings.Contains(name, word) {
		return true
	}
	for _, syn := range p.syn.Synonyms(word) {
		if strings.Contains(name, syn) {
			return true
		}
	}
	if p.fuzzyTokenMatch(word, name) {
		return true
	}
	if phrase, ok := detected[word]; ok && containsAllParts(name, phrase) {
		return true
	}
	return false
}

func (p *Provider) anyMaterialMatches(name string, materials []string, detected map[string]string) bool {
	for _, material := range materials {
		if strings.Contains(name, material) {
			return true
		}
		if phrase, ok := detected[material]; ok && containsAllParts(name, phrase) {
			return true
		}
		for _, syn := range p.syn.Synonyms(material) {
			if strings.Contains(name, syn) {
				return true
			}
		}
	}
	return false
}

// fuzzyTokenMatch aligns a longer query token against candidate tokens of
// comparable length. Both words must be at least six characters, share
// their first character, and align at a ratio of 0.8 or better; the guard
// keeps short-word noise out.
func (p *Provider) fuzzyTokenMatch(word, name string) bool {
	if len(word) < fuzzyTokenLen {
		return false
	}
	for _, cand := range strings.Fields(name) {
		if len(cand) < fuzzyTokenLen || cand[0] != word[0] {
			continue
		}
		if sequenceRatio(word, cand) >= fuzzyTokenRatio {
			return true
		}
	}
	return false
}

// prefixPool unions prefix lookups for the head token, its manual
// synonyms, and (when an expander is wired) its embedding-derived
// synonyms, de-duplicated by code. Expander failures degrade silently to
// manual-synonym results.
func (p *Provider) prefixPool(head string) []catalog.Row {
	seen := make(map[string]bool)
	var out []catalog.Row
	for _, term := range p.synonymsToSearch(head) {
		for _, row := range p.repo.ByNameCandidates(term) {
			key := row.Code
			if key == "" {
				key = "id:" + strconv.FormatInt(row.ID, 10)
			}
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, row)
		}
	}
	return out
}

// synonymsToSearch returns the head word plus its manual and embedding
// synonyms, de-duplicated in order.
func (p *Provider) synonymsToSearch(word string) []string {
	terms := []string{word}
	if p.syn.HasSynonyms(word) {
		terms = append(terms, p.syn.Synonyms(word)...)
	}
	if p.expander != nil {
		expanded, err := p.expander.Synonyms(word, expanderTopK)
		if err != nil {
			p.log.Debug("synonym expander failed, using manual synonyms only",
				zap.String("word", word), zap.Error(err))
		} else {
			terms = append(terms, expanded...)
		}
	}

	seen := make(map[string]bool, len(terms))
	out := terms[:0]
	for _, term := range terms {
		term = normTerm(term)
		if term == "" || seen[term] {
			continue
		}
		seen[term] = true
		out = append(out, term)
	}
	return out
}

// detectCompounds scans the query for known compound-material phrases and
// maps each component word to its owning phrase, so a component later
// matches only when the whole phrase is present in the candidate.
func (p *Provider) detectCompounds(query string) map[string]string {
	detected := make(map[string]string)
	for _, phrase := range p.syn.CompoundMaterials() {
		if !strings.Contains(query, phrase) {
			continue
		}
		for _, part := range strings.Fields(phrase) {
			if len(part) >= compoundComponentLen {
				detected[part] = phrase
			}
		}
	}
	return detected
}

func (p *Provider) significantTokens(words []string) []string {
	var out []string
	for _, w := range words {
		if len(w) >= significantTokenLen && !p.weights.IsGenericWord(w) {
			out = append(out, w)
		}
	}
	return out
}

func (p *Provider) materialTokens(words []string, detected map[string]string) []string {
	var out []string
	for _, w := range words {
		if p.weights.IsTechnicalWord(w) || p.syn.IsCompoundMaterial(w) {
			out = append(out, w)
			continue
		}
		if _, ok := detected[w]; ok {
			out = append(out, w)
		}
	}
	return out
}

func containsAllParts(name, phrase string) bool {
	for _, part := range strings.Fields(phrase) {
		if !strings.Contains(name, part) {
			return false
		}
	}
	return true
}

// filterByUnit drops candidates whose inferred unit conflicts with the
// requested one. No unit, or a unit that does not normalize, disables
// filtering; candidates whose unit cannot be inferred are kept.
func filterByUnit(rows []catalog.Row, unit string) []catalog.Row {
	if strings.TrimSpace(unit) == "" {
		return rows
	}
	if units.Normalize(unit) == "" {
		return rows
	}
	out := make([]catalog.Row, 0, len(rows))
	for _, row := range rows {
		inferred := units.InferFromDescription(row.Name)
		if inferred == "" || units.Compatible(inferred, unit) {
			out = append(out, row)
		}
	}
	return out
}
