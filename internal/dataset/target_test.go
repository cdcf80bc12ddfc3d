package dataset

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klug-labs/closing-cli/internal/model"
)

func strPtr(s string) *string        { return &s }
func datePtr(t time.Time) *time.Time { return &t }

func closedOpp(start, sale time.Time) model.Opportunity {
	return model.Opportunity{
		Stage:            strPtr(model.StageWon),
		SearchCycleStart: datePtr(start),
		SaleDate:         datePtr(sale),
	}
}

func TestExtractTarget(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	records := []model.Opportunity{
		closedOpp(base, base.AddDate(0, 0, 10)),
		closedOpp(base, base.AddDate(0, 0, 20)),
		{Stage: strPtr("Proposta"), SearchCycleStart: datePtr(base)}, // open
	}

	kept, labels, stats := ExtractTarget(records)
	require.Len(t, kept, 2)
	assert.Equal(t, []float64{10, 20}, labels)
	assert.Equal(t, 2, stats.Closed)
	assert.Equal(t, 2, stats.Kept)
}

func TestExtractTarget_DropsNegativeInterval(t *testing.T) {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	records := []model.Opportunity{
		closedOpp(base, base.AddDate(0, 0, -5)), // sale before cycle start
		closedOpp(base, base.AddDate(0, 0, 3)),
	}

	kept, labels, stats := ExtractTarget(records)
	require.Len(t, kept, 1)
	assert.Equal(t, []float64{3}, labels)
	assert.Equal(t, 1, stats.Negative)
}

func TestExtractTarget_KeepsSameDayClose(t *testing.T) {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	_, labels, stats := ExtractTarget([]model.Opportunity{closedOpp(base, base)})
	require.Len(t, labels, 1)
	assert.Equal(t, float64(0), labels[0])
	assert.Zero(t, stats.Negative)
}

func TestExtractTarget_DropsMissingStart(t *testing.T) {
	sale := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	records := []model.Opportunity{
		{Stage: strPtr(model.StageWon), SaleDate: datePtr(sale)},
	}
	kept, _, stats := ExtractTarget(records)
	assert.Empty(t, kept)
	assert.Equal(t, 1, stats.MissingStart)
}
