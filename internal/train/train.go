// Package train orchestrates model training: label extraction, encoder
// fitting, boosting, and in-sample evaluation.
package train

import (
	"math"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/klug-labs/closing-cli/internal/artifact"
	"github.com/klug-labs/closing-cli/internal/dataset"
	"github.com/klug-labs/closing-cli/internal/gbm"
	"github.com/klug-labs/closing-cli/internal/model"
)

// Result carries the trained artifacts plus what the run dropped.
type Result struct {
	Artifacts *artifact.Artifacts
	Target    dataset.TargetStats
}

// Run trains the closing-time estimator on the full batch of records. The
// model is fit on every closed record with a valid label; there is no
// held-out split, so MAE and R2 are in-sample figures.
func Run(records []model.Opportunity, params gbm.Params) (*Result, error) {
	closed, labels, targetStats := dataset.ExtractTarget(records)
	if len(closed) == 0 {
		return nil, eris.New("train: no closed records with usable labels")
	}

	encoder := dataset.FitEncoder(closed)
	x := encoder.Transform(closed)

	m, err := gbm.Fit(x, labels, params)
	if err != nil {
		return nil, eris.Wrap(err, "train: fit")
	}

	preds, err := m.PredictBatch(x)
	if err != nil {
		return nil, eris.Wrap(err, "train: evaluate")
	}
	mae := meanAbsoluteError(labels, preds)
	r2 := rSquared(labels, preds)

	zap.L().Info("train: model fitted",
		zap.Int("samples", len(closed)),
		zap.Int("features", len(encoder.FeatureNames)),
		zap.Int("trees", len(m.Trees)),
		zap.Float64("mae_days", mae),
		zap.Float64("r2", r2),
	)

	return &Result{
		Artifacts: &artifact.Artifacts{
			Model:   m,
			Encoder: encoder,
			Meta: artifact.Meta{
				TrainedAt: time.Now().UTC(),
				Samples:   len(closed),
				MAE:       mae,
				R2:        r2,
			},
		},
		Target: targetStats,
	}, nil
}

func meanAbsoluteError(y, preds []float64) float64 {
	if len(y) == 0 {
		return 0
	}
	sum := 0.0
	for i := range y {
		sum += math.Abs(y[i] - preds[i])
	}
	return sum / float64(len(y))
}

// rSquared is 1 - SSres/SStot. A constant target has zero total variance;
// report 0 rather than dividing by it.
func rSquared(y, preds []float64) float64 {
	if len(y) == 0 {
		return 0
	}
	mean := 0.0
	for _, v := range y {
		mean += v
	}
	mean /= float64(len(y))

	var ssRes, ssTot float64
	for i := range y {
		ssRes += (y[i] - preds[i]) * (y[i] - preds[i])
		ssTot += (y[i] - mean) * (y[i] - mean)
	}
	if ssTot == 0 {
		return 0
	}
	return 1 - ssRes/ssTot
}
