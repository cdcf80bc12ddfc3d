// Package artifact persists the trained model and its feature encoder as a
// consistent pair of JSON files.
package artifact

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"

	"github.com/klug-labs/closing-cli/internal/dataset"
	"github.com/klug-labs/closing-cli/internal/gbm"
)

// Default file names inside the artifact directory.
const (
	ModelFile    = "model.json"
	FeaturesFile = "features.json"
)

// Version identifies the artifact schema. Bump on incompatible changes.
const Version = 1

// Artifacts is the persisted training output: the boosted model, the
// encoder that produced its inputs, and training metadata.
type Artifacts struct {
	Model   *gbm.Model
	Encoder *dataset.Encoder
	Meta    Meta
}

// Meta is the training metadata stored alongside the model.
type Meta struct {
	Version      int       `json:"version"`
	TrainedAt    time.Time `json:"trained_at"`
	Samples      int       `json:"samples"`
	MAE          float64   `json:"mae"`
	R2           float64   `json:"r2"`
	FeatureNames []string  `json:"feature_names"`
}

type modelFile struct {
	Meta
	Model *gbm.Model `json:"model"`
}

// Save writes the model and feature files into dir. Each file is written to
// a temp name and renamed into place, so a crash mid-save never leaves a
// half-written artifact next to a stale partner.
func Save(dir string, a *Artifacts) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrap(err, "artifact: create dir")
	}
	a.Meta.Version = Version
	a.Meta.FeatureNames = a.Encoder.FeatureNames

	if err := writeJSON(filepath.Join(dir, FeaturesFile), a.Encoder); err != nil {
		return err
	}
	return writeJSON(filepath.Join(dir, ModelFile), modelFile{Meta: a.Meta, Model: a.Model})
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return eris.Wrapf(err, "artifact: marshal %s", filepath.Base(path))
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return eris.Wrap(err, "artifact: create temp")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return eris.Wrapf(err, "artifact: write %s", filepath.Base(path))
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrap(err, "artifact: close temp")
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return eris.Wrapf(err, "artifact: rename into %s", filepath.Base(path))
	}
	return nil
}

// Load reads the artifact pair from dir and verifies it is consistent:
// both files present, the encoder internally valid, and the feature list
// the model was trained against identical to the encoder's. Any mismatch
// is fatal since predictions against a skewed column order are garbage.
func Load(dir string) (*Artifacts, error) {
	var encoder dataset.Encoder
	if err := readJSON(filepath.Join(dir, FeaturesFile), &encoder); err != nil {
		return nil, err
	}
	var mf modelFile
	if err := readJSON(filepath.Join(dir, ModelFile), &mf); err != nil {
		return nil, err
	}

	if err := encoder.Validate(); err != nil {
		return nil, eris.Wrap(err, "artifact: invalid encoder")
	}
	if mf.Model == nil {
		return nil, eris.Errorf("artifact: %s has no model payload", ModelFile)
	}
	if err := matchFeatureNames(mf.FeatureNames, encoder.FeatureNames); err != nil {
		return nil, err
	}
	if mf.Model.NumFeatures != len(encoder.FeatureNames) {
		return nil, eris.Errorf("artifact: model expects %d features, encoder provides %d",
			mf.Model.NumFeatures, len(encoder.FeatureNames))
	}

	return &Artifacts{Model: mf.Model, Encoder: &encoder, Meta: mf.Meta}, nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return eris.Wrapf(err, "artifact: read %s", filepath.Base(path))
	}
	if err := json.Unmarshal(data, v); err != nil {
		return eris.Wrapf(err, "artifact: parse %s", filepath.Base(path))
	}
	return nil
}

func matchFeatureNames(model, encoder []string) error {
	if len(model) != len(encoder) {
		return eris.Errorf("artifact: feature list mismatch: model has %d columns, encoder has %d",
			len(model), len(encoder))
	}
	for i := range model {
		if model[i] != encoder[i] {
			return eris.Errorf("artifact: feature list mismatch at column %d: model %q, encoder %q",
				i, model[i], encoder[i])
		}
	}
	return nil
}
