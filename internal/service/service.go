// Package service implements the matching decision policy on top of the
// exact and fuzzy matchers: which strategy runs when, how units gate
// and retry, and how results map to the exposed status vocabulary.
package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/rencanakan/ahsmatch/internal/match"
	"github.com/rencanakan/ahsmatch/internal/monitoring"
	"github.com/rencanakan/ahsmatch/internal/textnorm"
	"github.com/rencanakan/ahsmatch/internal/units"
)

// Thresholds fixes the minimum similarity per strategy and the result
// cap for multi-match strategies. Zero-valued fields take defaults.
type Thresholds struct {
	// Single gates the high-precision single fuzzy match for
	// multi-word queries.
	Single float64
	// Multi gates the multi-match fallback for multi-word queries.
	Multi float64
	// SingleWord is the low floor used for one-word queries, which
	// always return a list of candidates.
	SingleWord float64
	// Limit caps multi-match result lists.
	Limit int
}

// DefaultThresholds returns the standard decision policy settings.
func DefaultThresholds() Thresholds {
	return Thresholds{Single: 0.9, Multi: 0.6, SingleWord: 0.25, Limit: 5}
}

func (t Thresholds) withDefaults() Thresholds {
	def := DefaultThresholds()
	if t.Single <= 0 {
		t.Single = def.Single
	}
	if t.Multi <= 0 {
		t.Multi = def.Multi
	}
	if t.SingleWord <= 0 {
		t.SingleWord = def.SingleWord
	}
	if t.Limit <= 0 {
		t.Limit = def.Limit
	}
	return t
}

// Matcher runs the decision policy. Each fuzzy strategy gets its own
// matcher instance because minimum similarity is fixed at construction.
type Matcher struct {
	repo    match.Repository
	exact   *match.ExactMatcher
	single  *match.Matcher
	multi   *match.Matcher
	oneWord *match.Matcher
	limit   int
	monitor *monitoring.Recorder
	log     *zap.Logger
}

// NewMatcher wires the full strategy stack over one repository. The
// expander may be nil to disable embedding synonyms.
func NewMatcher(repo match.Repository, th Thresholds, expander match.Expander, log *zap.Logger) *Matcher {
	if log == nil {
		log = zap.NewNop()
	}
	th = th.withDefaults()
	return &Matcher{
		repo:    repo,
		exact:   match.NewExactMatcher(repo, log),
		single:  match.NewMatcher(repo, th.Single, expander, nil, log),
		multi:   match.NewMatcher(repo, th.Multi, expander, nil, log),
		oneWord: match.NewMatcher(repo, th.SingleWord, expander, nil, log),
		limit:   th.Limit,
		monitor: monitoring.NewRecorder(log),
		log:     log,
	}
}

// BestMatch resolves one description against the catalog. No-match is
// an outcome, not an error; the error return only reports a canceled
// context. A panicking strategy is logged and treated as that strategy
// finding nothing.
func (s *Matcher) BestMatch(ctx context.Context, description, unit string) (*Outcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := s.resolve(description, unit, true)
	s.observe(description, unit, out)
	return out, nil
}

// resolve runs the decision policy. With guard set, each strategy
// recovers its own panic and degrades to no result; without it panics
// escape to the caller's per-item boundary.
func (s *Matcher) resolve(description, unit string, guard bool) *Outcome {
	norm := textnorm.Normalize(description)
	if norm == "" {
		return &Outcome{Status: StatusNotFound}
	}
	if len(strings.Fields(norm)) == 1 {
		return s.resolveOneWord(description, unit, guard)
	}
	return s.resolveMultiWord(description, unit, guard)
}

// resolveOneWord handles single-token queries, typically bare material
// names. These are too ambiguous for a single answer, so everything
// after the exact attempt returns a candidate list.
func (s *Matcher) resolveOneWord(description, unit string, guard bool) *Outcome {
	if res := s.runExact(description, guard); res != nil {
		return &Outcome{Status: listStatus(1), Matches: []*match.Result{res}}
	}
	if hits := s.runMulti(s.oneWord, description, unit, guard); len(hits) > 0 {
		return &Outcome{Status: listStatus(len(hits)), Matches: hits}
	}
	if unit != "" {
		if alts := s.runMulti(s.oneWord, description, "", guard); len(alts) > 0 {
			return &Outcome{Status: StatusUnitMismatch, Alternatives: newAlternatives(alts)}
		}
	}
	return &Outcome{Status: StatusNotFound}
}

func (s *Matcher) resolveMultiWord(description, unit string, guard bool) *Outcome {
	res := s.runExact(description, guard)
	if res == nil {
		res = s.runSingle(s.single, description, unit, guard)
	}
	if res != nil {
		applyUnitCheck(res, unit)
		res.Status = singleStatus(res)
		return &Outcome{Status: res.Status, Match: res}
	}

	if hits := s.runMulti(s.multi, description, unit, guard); len(hits) > 0 {
		return &Outcome{Status: listStatus(len(hits)), Matches: hits}
	}
	if unit != "" {
		if alts := s.runMulti(s.multi, description, "", guard); len(alts) > 0 {
			return &Outcome{Status: StatusUnitMismatch, Alternatives: newAlternatives(alts)}
		}
	}
	return &Outcome{Status: StatusNotFound}
}

func (s *Matcher) runExact(description string, guard bool) (res *match.Result) {
	if guard {
		defer s.recoverStrategy("exact")
	}
	return s.exact.Match(description)
}

func (s *Matcher) runSingle(m *match.Matcher, description, unit string, guard bool) (res *match.Result) {
	if guard {
		defer s.recoverStrategy("fuzzy")
	}
	return m.MatchWithConfidence(description, unit)
}

func (s *Matcher) runMulti(m *match.Matcher, description, unit string, guard bool) (hits []*match.Result) {
	if guard {
		defer s.recoverStrategy("multi")
	}
	return m.FindMultipleMatchesWithConfidence(description, s.limit, unit)
}

// recoverStrategy must be deferred directly so recover sees the panic.
func (s *Matcher) recoverStrategy(strategy string) {
	if r := recover(); r != nil {
		s.log.Error("matching strategy failed",
			zap.String("strategy", strategy), zap.Any("panic", r))
	}
}

// applyUnitCheck flags a chosen result whose own inferable unit is
// incompatible with the requested one. The fuzzy strategies filter by
// unit up front, so in practice this fires on exact matches, which
// deliberately ignore units.
func applyUnitCheck(res *match.Result, unit string) {
	if unit == "" {
		return
	}
	inferred := units.InferFromDescription(res.Name)
	if inferred != "" && !units.Compatible(inferred, unit) {
		res.UnitMismatch = true
	}
}

func (s *Matcher) observe(description, unit string, out *Outcome) {
	s.monitor.TagMatchEvent(description, unit)
	if out.Status == StatusNotFound {
		s.monitor.LogUnmatchedEntry(description, unit)
	}
}
