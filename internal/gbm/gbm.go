// Package gbm implements gradient-boosted regression trees with
// least-squares loss. Boosting is sequential by nature; only the per-tree
// split search fans out across features.
package gbm

import (
	"github.com/rotisserie/eris"
)

// Params are the boosting hyperparameters.
type Params struct {
	NEstimators    int     `json:"n_estimators"`
	LearningRate   float64 `json:"learning_rate"`
	MaxDepth       int     `json:"max_depth"`
	MinSamplesLeaf int     `json:"min_samples_leaf"`
}

// DefaultParams mirrors the settings the model was originally tuned with.
func DefaultParams() Params {
	return Params{
		NEstimators:    100,
		LearningRate:   0.1,
		MaxDepth:       3,
		MinSamplesLeaf: 1,
	}
}

func (p Params) withDefaults() Params {
	d := DefaultParams()
	if p.NEstimators <= 0 {
		p.NEstimators = d.NEstimators
	}
	if p.LearningRate <= 0 {
		p.LearningRate = d.LearningRate
	}
	if p.MaxDepth <= 0 {
		p.MaxDepth = d.MaxDepth
	}
	if p.MinSamplesLeaf <= 0 {
		p.MinSamplesLeaf = d.MinSamplesLeaf
	}
	return p
}

// Model is a fitted gradient-boosted ensemble. Base is the training-target
// mean; each tree corrects the running residual scaled by the learning
// rate. The struct is JSON-serializable and immutable after Fit.
type Model struct {
	Params      Params  `json:"params"`
	NumFeatures int     `json:"num_features"`
	Base        float64 `json:"base"`
	Trees       []Tree  `json:"trees"`
}

// Fit trains the ensemble on the full dataset. X must be rectangular and
// parallel to y. Training is deterministic: no subsampling, no random
// feature selection.
func Fit(x [][]float64, y []float64, params Params) (*Model, error) {
	if len(x) == 0 {
		return nil, eris.New("gbm: empty training set")
	}
	if len(x) != len(y) {
		return nil, eris.Errorf("gbm: %d rows but %d labels", len(x), len(y))
	}
	width := len(x[0])
	for i, row := range x {
		if len(row) != width {
			return nil, eris.Errorf("gbm: row %d has %d columns, want %d", i, len(row), width)
		}
	}

	params = params.withDefaults()

	base := 0.0
	for _, v := range y {
		base += v
	}
	base /= float64(len(y))

	m := &Model{
		Params:      params,
		NumFeatures: width,
		Base:        base,
		Trees:       make([]Tree, 0, params.NEstimators),
	}

	preds := make([]float64, len(y))
	for i := range preds {
		preds[i] = base
	}
	residuals := make([]float64, len(y))

	indices := make([]int, len(y))
	for i := range indices {
		indices[i] = i
	}

	for t := 0; t < params.NEstimators; t++ {
		allZero := true
		for i := range y {
			residuals[i] = y[i] - preds[i]
			if residuals[i] != 0 {
				allZero = false
			}
		}
		if allZero {
			break // perfect fit, further trees would be constant zero
		}

		b := &treeBuilder{x: x, targets: residuals, params: params}
		var tree Tree
		b.build(&tree, indices, 0)
		m.Trees = append(m.Trees, tree)

		for i, row := range x {
			preds[i] += params.LearningRate * tree.predict(row)
		}
	}

	return m, nil
}

// Predict returns the ensemble prediction for one feature vector.
func (m *Model) Predict(x []float64) (float64, error) {
	if len(x) != m.NumFeatures {
		return 0, eris.Errorf("gbm: vector has %d features, model trained on %d", len(x), m.NumFeatures)
	}
	pred := m.Base
	for i := range m.Trees {
		pred += m.Params.LearningRate * m.Trees[i].predict(x)
	}
	return pred, nil
}

// PredictBatch predicts every row of a matrix.
func (m *Model) PredictBatch(x [][]float64) ([]float64, error) {
	out := make([]float64, len(x))
	for i, row := range x {
		p, err := m.Predict(row)
		if err != nil {
			return nil, err
		}
		out[i] = p
	}
	return out, nil
}
