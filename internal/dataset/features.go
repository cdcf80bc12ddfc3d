package dataset

import (
	"sort"

	"github.com/rotisserie/eris"

	"github.com/klug-labs/closing-cli/internal/model"
)

// DefaultCategorical is the categorical attribute whitelist, in canonical
// column order. Registry attributes come after the CRM ones.
var DefaultCategorical = []string{
	model.ColOrigin,
	model.ColStage,
	model.ColESN,
	model.ColGSN,
	model.ColActivityType,
	model.ColProduct,
	model.ColSuggestedProduct,
	model.ColCNAE,
	model.ColCompanySize,
	model.ColLegalNature,
	model.ColRegistrationStatus,
	model.ColState,
	model.ColMunicipality,
}

// DefaultNumeric is the numeric attribute whitelist. Missing values encode
// as zero, not as an imputed mean.
var DefaultNumeric = []string{
	model.ColSuggestedValue,
	model.ColSoldValue,
}

// Encoder converts opportunity records into fixed-width feature vectors.
// Categories is the per-attribute observed-value list fixed at training
// time; the first value of each attribute is the dropped reference level.
// FeatureNames is the canonical ordered column list; its length and order
// never change between training and inference.
type Encoder struct {
	Categorical  []string            `json:"categorical"`
	Numeric      []string            `json:"numeric"`
	Categories   map[string][]string `json:"categories"`
	FeatureNames []string            `json:"feature_names"`
}

// FitEncoder observes category values across the training records and
// builds the canonical feature-name list: one indicator column per observed
// value per categorical attribute (minus the reference level), followed by
// the numeric columns.
func FitEncoder(records []model.Opportunity) *Encoder {
	e := &Encoder{
		Categorical: DefaultCategorical,
		Numeric:     DefaultNumeric,
		Categories:  make(map[string][]string),
	}

	for _, attr := range e.Categorical {
		seen := make(map[string]bool)
		for _, o := range records {
			if v, ok := o.Categorical(attr); ok {
				seen[v] = true
			}
		}
		values := make([]string, 0, len(seen))
		for v := range seen {
			values = append(values, v)
		}
		sort.Strings(values)
		e.Categories[attr] = values
	}

	e.FeatureNames = buildFeatureNames(e.Categorical, e.Numeric, e.Categories)
	return e
}

// buildFeatureNames produces the ordered column list, dropping the first
// (reference) value of each categorical attribute.
func buildFeatureNames(categorical, numeric []string, categories map[string][]string) []string {
	var names []string
	for _, attr := range categorical {
		values := categories[attr]
		for i, v := range values {
			if i == 0 {
				continue // reference level
			}
			names = append(names, attr+"_"+v)
		}
	}
	names = append(names, numeric...)
	return names
}

// Validate checks that the encoder's stored feature names match what its
// categories and whitelists imply. A mismatch means the persisted artifact
// pair is inconsistent and inference must not proceed.
func (e *Encoder) Validate() error {
	want := buildFeatureNames(e.Categorical, e.Numeric, e.Categories)
	if len(want) != len(e.FeatureNames) {
		return eris.Errorf("dataset: feature list mismatch: %d names stored, %d derived", len(e.FeatureNames), len(want))
	}
	for i := range want {
		if want[i] != e.FeatureNames[i] {
			return eris.Errorf("dataset: feature list mismatch at column %d: stored %q, derived %q", i, e.FeatureNames[i], want[i])
		}
	}
	return nil
}

// TransformOne builds the feature vector for a single record, aligned to
// FeatureNames. ok is false when the record carries no usable attribute at
// all; such records are excluded from prediction rather than fabricated.
//
// A category value unseen at training time contributes nothing: its
// attribute block stays all zero. Missing numeric values encode as zero.
func (e *Encoder) TransformOne(o model.Opportunity) ([]float64, bool) {
	vec := make([]float64, len(e.FeatureNames))
	usable := false

	col := 0
	for _, attr := range e.Categorical {
		values := e.Categories[attr]
		if len(values) == 0 {
			continue
		}
		v, present := o.Categorical(attr)
		if present {
			usable = true
		}
		for i, category := range values {
			if i == 0 {
				continue
			}
			if present && v == category {
				vec[col] = 1
			}
			col++
		}
	}
	for _, attr := range e.Numeric {
		if v, present := o.Numeric(attr); present {
			vec[col] = v
			usable = true
		}
		col++
	}

	return vec, usable
}

// Transform builds the feature matrix for a batch, aligned 1:1 with the
// input so label vectors stay parallel. Every row has exactly
// len(FeatureNames) columns in canonical order; records with no usable
// attributes produce all-zero rows (the training path keeps them, the
// prediction path uses TransformOne and excludes them).
func (e *Encoder) Transform(records []model.Opportunity) [][]float64 {
	matrix := make([][]float64, len(records))
	for i, o := range records {
		vec, _ := e.TransformOne(o)
		matrix[i] = vec
	}
	return matrix
}
