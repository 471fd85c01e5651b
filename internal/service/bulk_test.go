package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rencanakan/ahsmatch/internal/catalog"
	"github.com/rencanakan/ahsmatch/internal/match"
)

func TestBulkBestMatchPreservesOrder(t *testing.T) {
	s := newTestMatcher(serviceRows())

	items := []BulkItem{
		{Description: "Galian tanah 1 m3", TaskID: "t-1"},
		{Description: "galian tanah", Unit: "m3", TaskID: "t-2"},
		{Description: "completely unrelated xyz", TaskID: "t-3"},
	}
	results := s.BulkBestMatch(context.Background(), items)

	require.Len(t, results, 3)
	assert.Equal(t, "t-1", results[0].TaskID)
	assert.Equal(t, StatusFound, results[0].Status)
	require.IsType(t, (*match.Result)(nil), results[0].Match)
	assert.Equal(t, "T.15.a.1", results[0].Match.(*match.Result).Code)

	assert.Equal(t, "t-2", results[1].TaskID)
	assert.Equal(t, StatusSimilar, results[1].Status)

	assert.Equal(t, "t-3", results[2].TaskID)
	assert.Equal(t, StatusNotFound, results[2].Status)
	assert.Nil(t, results[2].Match)
}

func TestBulkBestMatchIsolatesDependencyFailure(t *testing.T) {
	repo := &panickyRepo{
		Repository: catalog.NewMemoryRepository(serviceRows()),
		trigger:    "boom",
	}
	s := NewMatcher(repo, DefaultThresholds(), nil, zap.NewNop())

	items := []BulkItem{
		{Description: "Galian tanah 1 m3"},
		{Description: "boom galian"},
		{Description: "galian tanah"},
	}
	results := s.BulkBestMatch(context.Background(), items)

	require.Len(t, results, 3)
	assert.Equal(t, StatusFound, results[0].Status)

	assert.Equal(t, StatusError, results[1].Status)
	assert.Contains(t, results[1].Error, "catalog backend unavailable")
	assert.Nil(t, results[1].Match)
	assert.Equal(t, "boom galian", results[1].Description)

	assert.Equal(t, StatusSimilar, results[2].Status)
	assert.Empty(t, results[2].Error)
}

func TestBulkBestMatchBlankDescription(t *testing.T) {
	s := newTestMatcher(serviceRows())

	results := s.BulkBestMatch(context.Background(), []BulkItem{
		{Description: "   ", Unit: "m2"},
	})

	require.Len(t, results, 1)
	assert.Equal(t, StatusError, results[0].Status)
	assert.Equal(t, "description is required", results[0].Error)
	assert.Equal(t, "m2", results[0].Unit)
}

func TestBulkBestMatchEmptyBatch(t *testing.T) {
	s := newTestMatcher(serviceRows())

	results := s.BulkBestMatch(context.Background(), nil)

	assert.Empty(t, results)
}

func TestBulkBestMatchCanceledContext(t *testing.T) {
	s := newTestMatcher(serviceRows())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := s.BulkBestMatch(ctx, []BulkItem{{Description: "galian tanah"}})

	require.Len(t, results, 1)
	assert.Equal(t, StatusError, results[0].Status)
	assert.NotEmpty(t, results[0].Error)
}

func TestBulkBestMatchAlternativesEnvelope(t *testing.T) {
	rows := []catalog.Row{{ID: 1, Code: "G.01", Name: "Galian tanah per m2"}}
	s := newTestMatcher(rows)

	results := s.BulkBestMatch(context.Background(), []BulkItem{
		{Description: "galian tanah", Unit: "m3"},
	})

	require.Len(t, results, 1)
	assert.Equal(t, StatusUnitMismatch, results[0].Status)
	env, ok := results[0].Match.(*Alternatives)
	require.True(t, ok)
	assert.True(t, env.UnitMismatch)
	require.Len(t, env.Alternatives, 1)
	assert.Equal(t, "G.01", env.Alternatives[0].Code)
}

func TestBulkBestMatchLargeBatchKeepsIndexAlignment(t *testing.T) {
	s := newTestMatcher(serviceRows())

	items := make([]BulkItem, 40)
	for i := range items {
		if i%2 == 0 {
			items[i] = BulkItem{Description: "galian tanah"}
		} else {
			items[i] = BulkItem{Description: "completely unrelated xyz"}
		}
	}
	results := s.BulkBestMatch(context.Background(), items)

	require.Len(t, results, 40)
	for i, res := range results {
		if i%2 == 0 {
			assert.Equal(t, StatusSimilar, res.Status, "index %d", i)
		} else {
			assert.Equal(t, StatusNotFound, res.Status, "index %d", i)
		}
	}
}
