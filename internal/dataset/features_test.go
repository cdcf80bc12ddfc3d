package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klug-labs/closing-cli/internal/model"
)

func floatPtr(f float64) *float64 { return &f }

func opp(origin, stage string, suggested float64) model.Opportunity {
	return model.Opportunity{
		Origin:         strPtr(origin),
		Stage:          strPtr(stage),
		SuggestedValue: floatPtr(suggested),
	}
}

func TestFitEncoder_FeatureNames(t *testing.T) {
	records := []model.Opportunity{
		opp("Indicação", "Ganho", 100),
		opp("Site", "Ganho", 200),
		opp("Evento", "Perda", 300),
	}

	e := FitEncoder(records)

	// ORIGEM has {Evento, Indicação, Site} sorted; Evento is the dropped
	// reference level. ETAPA_ATUAL has {Ganho, Perda}; Ganho is dropped.
	assert.Contains(t, e.FeatureNames, "ORIGEM_Indicação")
	assert.Contains(t, e.FeatureNames, "ORIGEM_Site")
	assert.NotContains(t, e.FeatureNames, "ORIGEM_Evento")
	assert.Contains(t, e.FeatureNames, "ETAPA_ATUAL_Perda")
	assert.NotContains(t, e.FeatureNames, "ETAPA_ATUAL_Ganho")

	// Numeric columns come last, in whitelist order.
	n := len(e.FeatureNames)
	require.GreaterOrEqual(t, n, 2)
	assert.Equal(t, model.ColSuggestedValue, e.FeatureNames[n-2])
	assert.Equal(t, model.ColSoldValue, e.FeatureNames[n-1])

	require.NoError(t, e.Validate())
}

func TestTransform_ShapeIsInvariant(t *testing.T) {
	train := []model.Opportunity{
		opp("Indicação", "Ganho", 100),
		opp("Site", "Perda", 200),
	}
	e := FitEncoder(train)

	batch := []model.Opportunity{
		opp("Site", "Ganho", 50),
		opp("Telefone", "Ganho", 75), // origin unseen at training time
		{},
	}
	matrix := e.Transform(batch)
	require.Len(t, matrix, 3)
	for _, row := range matrix {
		assert.Len(t, row, len(e.FeatureNames))
	}
}

func TestTransformOne_UnseenCategoryIsAllZero(t *testing.T) {
	train := []model.Opportunity{
		opp("Indicação", "Ganho", 100),
		opp("Site", "Ganho", 200),
	}
	e := FitEncoder(train)

	vec, ok := e.TransformOne(opp("Telefone", "Ganho", 0))
	require.True(t, ok)

	for i, name := range e.FeatureNames {
		if name == "ORIGEM_Indicação" || name == "ORIGEM_Site" {
			assert.Zero(t, vec[i], "column %s", name)
		}
	}
}

func TestTransformOne_IndicatorSet(t *testing.T) {
	train := []model.Opportunity{
		opp("Indicação", "Ganho", 100),
		opp("Site", "Perda", 200),
	}
	e := FitEncoder(train)

	vec, ok := e.TransformOne(opp("Site", "Perda", 123.5))
	require.True(t, ok)

	byName := make(map[string]float64, len(e.FeatureNames))
	for i, name := range e.FeatureNames {
		byName[name] = vec[i]
	}
	assert.Equal(t, 1.0, byName["ORIGEM_Site"])
	assert.Equal(t, 1.0, byName["ETAPA_ATUAL_Perda"])
	assert.Equal(t, 123.5, byName[model.ColSuggestedValue])
	assert.Equal(t, 0.0, byName[model.ColSoldValue]) // missing numeric -> 0
}

func TestTransformOne_ReferenceLevelIsZeroBlock(t *testing.T) {
	train := []model.Opportunity{
		opp("Evento", "Ganho", 0),
		opp("Site", "Ganho", 0),
	}
	e := FitEncoder(train)

	// "Evento" sorts first and is the reference level: its indicator block
	// is all zero, same as an unseen value, by dummy-encoding convention.
	vec, ok := e.TransformOne(opp("Evento", "Ganho", 10))
	require.True(t, ok)
	for i, name := range e.FeatureNames {
		if name == "ORIGEM_Site" {
			assert.Zero(t, vec[i])
		}
	}
}

func TestTransformOne_NoUsableAttributes(t *testing.T) {
	e := FitEncoder([]model.Opportunity{opp("Site", "Ganho", 100)})
	_, ok := e.TransformOne(model.Opportunity{})
	assert.False(t, ok)
}

func TestEncoder_Validate_Mismatch(t *testing.T) {
	e := FitEncoder([]model.Opportunity{opp("Site", "Ganho", 100)})
	e.FeatureNames[0] = "TAMPERED"
	require.Error(t, e.Validate())
}

func TestTransform_MissingAttributeWholeBatch(t *testing.T) {
	// Batch where ORIGEM never appears: the origin indicator columns are
	// synthesized as zero, never an error.
	train := []model.Opportunity{
		opp("Indicação", "Ganho", 100),
		opp("Site", "Perda", 200),
	}
	e := FitEncoder(train)

	batch := []model.Opportunity{
		{Stage: strPtr("Ganho"), SuggestedValue: floatPtr(10)},
	}
	matrix := e.Transform(batch)
	require.Len(t, matrix, 1)
	assert.Len(t, matrix[0], len(e.FeatureNames))
}
