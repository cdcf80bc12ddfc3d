// Package predict applies the trained estimator to open opportunities and
// derives closing dates and the rolling revenue projection.
package predict

import (
	"math"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/klug-labs/closing-cli/internal/artifact"
	"github.com/klug-labs/closing-cli/internal/model"
)

// Predictor scores open opportunity records against a loaded artifact pair.
type Predictor struct {
	artifacts *artifact.Artifacts
	now       func() time.Time
}

// Option configures a Predictor.
type Option func(*Predictor)

// WithNow overrides the clock. Used by tests to pin "today".
func WithNow(now func() time.Time) Option {
	return func(p *Predictor) { p.now = now }
}

// New creates a Predictor for a consistent artifact pair.
func New(a *artifact.Artifacts, opts ...Option) *Predictor {
	p := &Predictor{artifacts: a, now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run scores every open record in the batch. Closed records and records
// with no usable attribute are excluded rather than given fabricated
// estimates; Index ties each prediction back to its input position.
//
// Predicted durations are clamped to at least one day: the model can emit
// values below one, but "closes in under a day" is not a meaningful
// forecast for a sales cycle.
func (p *Predictor) Run(records []model.Opportunity) (*model.PredictionRun, error) {
	today := truncateDay(p.now())

	run := &model.PredictionRun{
		Status: model.PredictionRunComplete,
		Total:  len(records),
	}

	open := 0
	for i, o := range records {
		if !o.Open() {
			continue
		}
		open++

		vec, usable := p.artifacts.Encoder.TransformOne(o)
		if !usable {
			run.Excluded++
			continue
		}

		raw, err := p.artifacts.Model.Predict(vec)
		if err != nil {
			return nil, eris.Wrap(err, "predict: score record")
		}
		days := clampDays(raw)

		pred := model.Prediction{
			Index:         i,
			PredictedDays: days,
			ClosingDate:   today.AddDate(0, 0, days),
			HumanForecast: o.HumanForecast,
			HumanFeeling:  o.HumanFeeling,
		}
		if o.Name != nil {
			pred.Name = *o.Name
		}
		if o.Stage != nil {
			pred.Stage = *o.Stage
		}
		if o.SuggestedValue != nil {
			pred.SuggestedValue = *o.SuggestedValue
		}
		run.Predictions = append(run.Predictions, pred)
	}

	zap.L().Info("predict: batch scored",
		zap.Int("records", len(records)),
		zap.Int("open", open),
		zap.Int("predicted", len(run.Predictions)),
		zap.Int("excluded", run.Excluded),
	)
	return run, nil
}

// clampDays rounds the raw model output and enforces the one-day floor.
func clampDays(raw float64) int {
	days := int(math.Round(raw))
	if days < 1 {
		days = 1
	}
	return days
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
