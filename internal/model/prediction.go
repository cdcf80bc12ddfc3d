package model

import "time"

// Prediction is the per-record output of the predictor. Index refers to the
// record's position in the input batch; excluded records leave gaps.
type Prediction struct {
	Index          int        `json:"index"`
	Name           string     `json:"name,omitempty"`
	Stage          string     `json:"stage,omitempty"`
	SuggestedValue float64    `json:"suggested_value"`
	PredictedDays  int        `json:"predicted_days"`
	ClosingDate    time.Time  `json:"closing_date"`
	HumanForecast  *time.Time `json:"human_forecast,omitempty"`
	HumanFeeling   *float64   `json:"human_feeling,omitempty"`
}

// ProjectionPoint is one month of the rolling revenue projection: the sum
// of suggested value over opportunities predicted to close in that month.
type ProjectionPoint struct {
	Month          string  `json:"month"` // "2026-08"
	SuggestedValue float64 `json:"suggested_value"`
}

// PredictionRunStatus tracks a stored batch prediction run.
type PredictionRunStatus string

const (
	PredictionRunComplete PredictionRunStatus = "complete"
	PredictionRunFailed   PredictionRunStatus = "failed"
)

// PredictionRun records one batch prediction for operator visibility:
// how many records came in, how many were excluded, and the outputs.
type PredictionRun struct {
	ID          string              `json:"id"`
	Status      PredictionRunStatus `json:"status"`
	Total       int                 `json:"total"`
	Excluded    int                 `json:"excluded"`
	Predictions []Prediction        `json:"predictions"`
	CreatedAt   time.Time           `json:"created_at"`
}
