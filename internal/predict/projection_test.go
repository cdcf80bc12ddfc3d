package predict

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klug-labs/closing-cli/internal/model"
)

func TestProject_AggregatesByClosingMonth(t *testing.T) {
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	predictions := []model.Prediction{
		{SuggestedValue: 1000, ClosingDate: time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC)},
		{SuggestedValue: 500, ClosingDate: time.Date(2026, 3, 28, 0, 0, 0, 0, time.UTC)},
		{SuggestedValue: 2000, ClosingDate: time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC)},
	}

	points := Project(predictions, now)
	require.Len(t, points, 12)

	assert.Equal(t, "2026-03", points[0].Month)
	assert.Equal(t, 1500.0, points[0].SuggestedValue)
	assert.Equal(t, "2026-04", points[1].Month)
	assert.Equal(t, 0.0, points[1].SuggestedValue)
	assert.Equal(t, "2026-05", points[2].Month)
	assert.Equal(t, 2000.0, points[2].SuggestedValue)
	assert.Equal(t, "2027-02", points[11].Month)
}

func TestProject_EmptyInputIsZeroFilled(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	points := Project(nil, now)
	require.Len(t, points, 12)
	for _, pt := range points {
		assert.Equal(t, 0.0, pt.SuggestedValue, pt.Month)
	}
	assert.Equal(t, "2026-08", points[0].Month)
	assert.Equal(t, "2027-07", points[11].Month)
}

func TestProject_DropsClosingsBeyondWindow(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	predictions := []model.Prediction{
		{SuggestedValue: 999, ClosingDate: time.Date(2027, 6, 1, 0, 0, 0, 0, time.UTC)},
	}

	points := Project(predictions, now)
	for _, pt := range points {
		assert.Equal(t, 0.0, pt.SuggestedValue, pt.Month)
	}
}

func TestProject_YearRollover(t *testing.T) {
	now := time.Date(2026, 11, 20, 0, 0, 0, 0, time.UTC)
	predictions := []model.Prediction{
		{SuggestedValue: 300, ClosingDate: time.Date(2027, 1, 5, 0, 0, 0, 0, time.UTC)},
	}

	points := Project(predictions, now)
	require.Len(t, points, 12)
	assert.Equal(t, "2027-01", points[2].Month)
	assert.Equal(t, 300.0, points[2].SuggestedValue)
}
