package expansion

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davestroud/publix/internal/model"
)

func opportunity(city string, pop int, saturation, score, per100k float64) model.OpportunityScore {
	return model.OpportunityScore{
		City:             city,
		State:            "FL",
		Population:       pop,
		SaturationScore:  saturation,
		OpportunityScore: score,
		StoresPer100k:    per100k,
	}
}

func TestPredictNextCities(t *testing.T) {
	opps := []model.OpportunityScore{
		opportunity("Entered", 150000, 0.2, 0.9, 0.5),
		opportunity("Fresh", 120000, 0.1, 0.8, 0.0),
		opportunity("Small", 60000, 0.5, 0.5, 2.0),
	}
	entry := time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)
	tl := &Timeline{
		State:         "FL",
		CitiesEntered: []CityEntry{{City: "Entered", State: "FL", EnteredAt: entry}},
	}

	preds := PredictNextCities(opps, tl, 10)
	require.Len(t, preds, 2)

	assert.Equal(t, "Fresh", preds[0].City)
	assert.NotEmpty(t, preds[0].ID)
	assert.InDelta(t, 0.96, preds[0].Confidence, 0.001) // 0.8 * 1.2
	assert.Contains(t, preds[0].ReasoningFactors, "Low market saturation")
	assert.Contains(t, preds[0].ReasoningFactors, "Large population base")
	assert.Contains(t, preds[0].ReasoningFactors, "Under-served market")

	assert.Equal(t, "Small", preds[1].City)
	assert.Empty(t, preds[1].ReasoningFactors)
}

func TestPredictNextCities_ConfidenceCap(t *testing.T) {
	preds := PredictNextCities([]model.OpportunityScore{
		opportunity("Big", 200000, 0.0, 0.95, 0.0),
	}, nil, 5)
	require.Len(t, preds, 1)
	assert.InDelta(t, 1.0, preds[0].Confidence, 0.001)
}

func TestPredictNextCities_TopN(t *testing.T) {
	opps := []model.OpportunityScore{
		opportunity("A", 100000, 0.1, 0.9, 0.5),
		opportunity("B", 100000, 0.1, 0.8, 0.5),
		opportunity("C", 100000, 0.1, 0.7, 0.5),
	}

	preds := PredictNextCities(opps, nil, 2)
	require.Len(t, preds, 2)
	assert.Equal(t, "A", preds[0].City)
	assert.Equal(t, "B", preds[1].City)
}
