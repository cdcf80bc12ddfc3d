package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klug-labs/closing-cli/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { s.Close() })
	return s
}

func strPtr(s string) *string { return &s }

func TestSQLite_EnrichmentRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	e := &model.Enrichment{CNAE: strPtr("6201500"), State: strPtr("SP")}
	require.NoError(t, s.SetEnrichment(ctx, "12345678000195", e))

	got, found, err := s.GetEnrichment(ctx, "12345678000195")
	require.NoError(t, err)
	require.True(t, found)
	require.NotNil(t, got)
	assert.Equal(t, "6201500", *got.CNAE)
	assert.Equal(t, "SP", *got.State)
}

func TestSQLite_EnrichmentMiss(t *testing.T) {
	s := newTestStore(t)

	got, found, err := s.GetEnrichment(context.Background(), "99999999000199")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, got)
}

func TestSQLite_EnrichmentCachedNotFound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// A nil enrichment records a terminal not-found.
	require.NoError(t, s.SetEnrichment(ctx, "11111111000111", nil))

	got, found, err := s.GetEnrichment(ctx, "11111111000111")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Nil(t, got)
}

func TestSQLite_EnrichmentWriteOnce(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := &model.Enrichment{State: strPtr("SP")}
	require.NoError(t, s.SetEnrichment(ctx, "12345678000195", first))

	// Second write for the same identifier is a no-op.
	second := &model.Enrichment{State: strPtr("RJ")}
	require.NoError(t, s.SetEnrichment(ctx, "12345678000195", second))

	got, found, err := s.GetEnrichment(ctx, "12345678000195")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "SP", *got.State)
}

func TestSQLite_PredictionRunRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	run := &model.PredictionRun{
		Status:   model.PredictionRunComplete,
		Total:    3,
		Excluded: 1,
		Predictions: []model.Prediction{
			{Index: 0, Name: "Op A", PredictedDays: 12, SuggestedValue: 1500},
			{Index: 2, Name: "Op C", PredictedDays: 40, SuggestedValue: 900},
		},
	}
	require.NoError(t, s.SavePredictionRun(ctx, run))
	require.NotEmpty(t, run.ID)

	got, err := s.GetPredictionRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.Total, got.Total)
	assert.Equal(t, run.Excluded, got.Excluded)
	require.Len(t, got.Predictions, 2)
	assert.Equal(t, 12, got.Predictions[0].PredictedDays)
}

func TestSQLite_LatestPredictionRun(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	older := &model.PredictionRun{Status: model.PredictionRunComplete, CreatedAt: time.Now().UTC().Add(-time.Hour)}
	newer := &model.PredictionRun{Status: model.PredictionRunComplete, CreatedAt: time.Now().UTC()}
	require.NoError(t, s.SavePredictionRun(ctx, older))
	require.NoError(t, s.SavePredictionRun(ctx, newer))

	got, err := s.LatestPredictionRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, newer.ID, got.ID)
}

func TestSQLite_GetPredictionRun_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetPredictionRun(context.Background(), "nope")
	assert.True(t, errors.Is(err, ErrRunNotFound))
}

func TestSQLite_ListPredictionRuns(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		run := &model.PredictionRun{
			Status:    model.PredictionRunComplete,
			CreatedAt: time.Now().UTC().Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, s.SavePredictionRun(ctx, run))
	}

	runs, err := s.ListPredictionRuns(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}
