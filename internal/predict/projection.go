package predict

import (
	"time"

	"github.com/klug-labs/closing-cli/internal/model"
)

// projectionMonths is the rolling window length of the revenue projection.
const projectionMonths = 12

const monthKey = "2006-01"

// Project aggregates suggested value by predicted closing month over a
// rolling window anchored at the current month. Every month of the window
// appears in the output, zero-filled when nothing is predicted to close in
// it; closings beyond the window are dropped.
func Project(predictions []model.Prediction, now time.Time) []model.ProjectionPoint {
	anchor := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	totals := make(map[string]float64, projectionMonths)
	points := make([]model.ProjectionPoint, 0, projectionMonths)
	for i := 0; i < projectionMonths; i++ {
		key := anchor.AddDate(0, i, 0).Format(monthKey)
		totals[key] = 0
		points = append(points, model.ProjectionPoint{Month: key})
	}

	for _, p := range predictions {
		key := p.ClosingDate.Format(monthKey)
		if _, in := totals[key]; in {
			totals[key] += p.SuggestedValue
		}
	}

	for i := range points {
		points[i].SuggestedValue = totals[points[i].Month]
	}
	return points
}
