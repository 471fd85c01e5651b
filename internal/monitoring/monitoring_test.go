package monitoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObservedRecorder(t *testing.T) (*Recorder, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.InfoLevel)
	return NewRecorder(zap.New(core)), logs
}

func TestTagMatchEvent(t *testing.T) {
	rec, logs := newObservedRecorder(t)

	rec.TagMatchEvent("galian tanah biasa", "m3")

	entries := logs.FilterMessage("match event").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	fields := entries[0].ContextMap()
	assert.Equal(t, "matching_service", fields["component"])
	assert.Equal(t, "m3", fields["unit"])
	assert.Equal(t, int64(18), fields["description_length"])
}

func TestTagMatchEventWithoutUnit(t *testing.T) {
	rec, logs := newObservedRecorder(t)

	rec.TagMatchEvent("galian tanah", "")

	entries := logs.FilterMessage("match event").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "unknown", entries[0].ContextMap()["unit"])
}

func TestLogUnmatchedEntry(t *testing.T) {
	rec, logs := newObservedRecorder(t)

	rec.LogUnmatchedEntry("bongkar dinding eksisting", "m2")

	entries := logs.FilterMessage("unmatched job description").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	fields := entries[0].ContextMap()
	assert.Equal(t, "matching_service", fields["component"])
	assert.Equal(t, "unmatched", fields["match_status"])
	assert.Equal(t, "m2", fields["unit"])
	assert.Equal(t, "bongkar dinding eksisting", fields["description_snippet"])
}

func TestLogUnmatchedEntryTruncatesLongDescriptions(t *testing.T) {
	rec, logs := newObservedRecorder(t)
	long := make([]byte, 0, 300)
	for i := 0; i < 300; i++ {
		long = append(long, 'a')
	}

	rec.LogUnmatchedEntry(string(long), "")

	entries := logs.FilterMessage("unmatched job description").All()
	require.Len(t, entries, 1)
	snippet, ok := entries[0].ContextMap()["description_snippet"].(string)
	require.True(t, ok)
	assert.Len(t, snippet, 103)
	assert.Equal(t, "...", snippet[100:])
}

func TestNilLoggerRecordsNothing(t *testing.T) {
	rec := NewRecorder(nil)

	assert.NotPanics(t, func() {
		rec.TagMatchEvent("galian", "m3")
		rec.LogUnmatchedEntry("galian", "m3")
	})
}
