package predict

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klug-labs/closing-cli/internal/artifact"
	"github.com/klug-labs/closing-cli/internal/dataset"
	"github.com/klug-labs/closing-cli/internal/gbm"
	"github.com/klug-labs/closing-cli/internal/model"
)

func strPtr(s string) *string { return &s }

func fPtr(f float64) *float64 { return &f }

func tPtr(t time.Time) *time.Time { return &t }

// fixedNow pins "today" for deterministic closing dates.
var fixedNow = time.Date(2026, 3, 15, 14, 30, 0, 0, time.UTC)

// trainedArtifacts fits a small model where inbound deals close in ~5 days
// and outbound deals in ~60.
func trainedArtifacts(t *testing.T) *artifact.Artifacts {
	t.Helper()

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var records []model.Opportunity
	for i := 0; i < 10; i++ {
		in := start.AddDate(0, 0, 5)
		out := start.AddDate(0, 0, 60)
		records = append(records,
			model.Opportunity{Origin: strPtr("Inbound"), SuggestedValue: fPtr(1000), SearchCycleStart: tPtr(start), SaleDate: tPtr(in)},
			model.Opportunity{Origin: strPtr("Outbound"), SuggestedValue: fPtr(2000), SearchCycleStart: tPtr(start), SaleDate: tPtr(out)},
		)
	}

	closed, y, _ := dataset.ExtractTarget(records)
	encoder := dataset.FitEncoder(closed)
	m, err := gbm.Fit(encoder.Transform(closed), y, gbm.Params{NEstimators: 50})
	require.NoError(t, err)

	return &artifact.Artifacts{Model: m, Encoder: encoder}
}

func TestRun_ScoresOpenRecords(t *testing.T) {
	p := New(trainedArtifacts(t), WithNow(func() time.Time { return fixedNow }))

	records := []model.Opportunity{
		{Name: strPtr("Fast deal"), Origin: strPtr("Inbound"), SuggestedValue: fPtr(1000)},
		{Name: strPtr("Slow deal"), Origin: strPtr("Outbound"), SuggestedValue: fPtr(2000)},
	}
	run, err := p.Run(records)
	require.NoError(t, err)
	require.Len(t, run.Predictions, 2)

	fast, slow := run.Predictions[0], run.Predictions[1]
	assert.Equal(t, "Fast deal", fast.Name)
	assert.InDelta(t, 5, fast.PredictedDays, 1)
	assert.InDelta(t, 60, slow.PredictedDays, 1)
	assert.Less(t, fast.PredictedDays, slow.PredictedDays)

	// Closing date is today (at midnight) plus the predicted days.
	today := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, today.AddDate(0, 0, fast.PredictedDays), fast.ClosingDate)
}

func TestRun_SkipsClosedRecords(t *testing.T) {
	p := New(trainedArtifacts(t), WithNow(func() time.Time { return fixedNow }))

	sale := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	records := []model.Opportunity{
		{Origin: strPtr("Inbound"), SaleDate: tPtr(sale)},
		{Origin: strPtr("Inbound"), SuggestedValue: fPtr(500)},
	}
	run, err := p.Run(records)
	require.NoError(t, err)

	require.Len(t, run.Predictions, 1)
	assert.Equal(t, 1, run.Predictions[0].Index)
	assert.Equal(t, 2, run.Total)
	assert.Equal(t, 0, run.Excluded)
}

func TestRun_ExcludesUnusableRecords(t *testing.T) {
	p := New(trainedArtifacts(t), WithNow(func() time.Time { return fixedNow }))

	// No whitelisted attribute at all: nothing to score.
	records := []model.Opportunity{
		{Name: strPtr("Empty record")},
		{Origin: strPtr("Inbound"), SuggestedValue: fPtr(1000)},
	}
	run, err := p.Run(records)
	require.NoError(t, err)

	assert.Equal(t, 1, run.Excluded)
	require.Len(t, run.Predictions, 1)
	assert.Equal(t, 1, run.Predictions[0].Index)
}

func TestRun_UnseenCategoryStillScores(t *testing.T) {
	p := New(trainedArtifacts(t), WithNow(func() time.Time { return fixedNow }))

	// The origin was never observed at training time; its block encodes all
	// zero but the record still carries a usable attribute.
	records := []model.Opportunity{
		{Origin: strPtr("Feira de negocios"), SuggestedValue: fPtr(1500)},
	}
	run, err := p.Run(records)
	require.NoError(t, err)
	require.Len(t, run.Predictions, 1)
	assert.GreaterOrEqual(t, run.Predictions[0].PredictedDays, 1)
}

func TestClampDays(t *testing.T) {
	assert.Equal(t, 1, clampDays(-3.2))
	assert.Equal(t, 1, clampDays(0))
	assert.Equal(t, 1, clampDays(0.4))
	assert.Equal(t, 1, clampDays(1.2))
	assert.Equal(t, 2, clampDays(1.6))
	assert.Equal(t, 60, clampDays(59.9))
}
