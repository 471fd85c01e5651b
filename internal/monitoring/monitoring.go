// Package monitoring emits the matching telemetry events. Events are
// structured log lines only; persisting unmatched entries for later
// catalog curation happens downstream of the log pipeline.
package monitoring

import (
	"go.uber.org/zap"

	"github.com/rencanakan/ahsmatch/internal/logging"
)

const (
	componentField = "matching_service"

	// unmatchedSnippetLen caps how much of a free-text description is
	// quoted in an unmatched event.
	unmatchedSnippetLen = 100
)

// Recorder tags match attempts and records unmatched descriptions.
type Recorder struct {
	log *zap.Logger
}

// NewRecorder wraps the logger. A nil logger records nothing.
func NewRecorder(log *zap.Logger) *Recorder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Recorder{log: log}
}

// TagMatchEvent records that a match attempt completed. The description
// itself is not logged here, only its length.
func (r *Recorder) TagMatchEvent(description, unit string) {
	r.log.Info("match event",
		zap.String("component", componentField),
		zap.String("unit", unitOrUnknown(unit)),
		zap.Int("description_length", len([]rune(description))),
	)
}

// LogUnmatchedEntry records a description that produced no match, with
// enough of the text quoted to act on.
func (r *Recorder) LogUnmatchedEntry(description, unit string) {
	r.log.Warn("unmatched job description",
		zap.String("component", componentField),
		zap.String("match_status", "unmatched"),
		zap.String("unit", unitOrUnknown(unit)),
		zap.String("description_snippet", logging.TruncateForLog(description, unmatchedSnippetLen)),
	)
}

func unitOrUnknown(unit string) string {
	if unit == "" {
		return "unknown"
	}
	return unit
}
