package expansion

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/davestroud/publix/internal/model"
)

// Thresholds for the human-readable reasoning factors attached to a
// prediction. They annotate the score, they do not change it.
const (
	lowSaturationThreshold = 0.3
	largeMarketPopulation  = 100_000
	underServedPer100k     = 1.0
)

// PredictNextCities turns the ranked opportunity list into predictions for
// cities the chain has not entered yet. At most topN opportunities are
// considered, mirroring how many the ranking caller asked for.
func PredictNextCities(opportunities []model.OpportunityScore, timeline *Timeline, topN int) []model.Prediction {
	entered := make(map[string]struct{})
	if timeline != nil {
		for _, e := range timeline.CitiesEntered {
			entered[cityKey(e.City, e.State)] = struct{}{}
		}
	}

	if topN > 0 && topN < len(opportunities) {
		opportunities = opportunities[:topN]
	}

	var predictions []model.Prediction
	for _, opp := range opportunities {
		if _, ok := entered[cityKey(opp.City, opp.State)]; ok {
			continue
		}

		confidence := opp.OpportunityScore * 1.2
		if confidence > 1.0 {
			confidence = 1.0
		}

		predictions = append(predictions, model.Prediction{
			ID:               uuid.New().String(),
			City:             opp.City,
			State:            opp.State,
			Population:       opp.Population,
			OpportunityScore: opp.OpportunityScore,
			Confidence:       confidence,
			ReasoningFactors: reasoningFactors(opp),
			CreatedAt:        time.Now().UTC(),
		})
	}

	zap.L().Info("expansion: predictions generated",
		zap.Int("candidates", len(opportunities)),
		zap.Int("predictions", len(predictions)),
	)
	return predictions
}

func reasoningFactors(opp model.OpportunityScore) []string {
	var factors []string
	if opp.SaturationScore < lowSaturationThreshold {
		factors = append(factors, "Low market saturation")
	}
	if opp.Population > largeMarketPopulation {
		factors = append(factors, "Large population base")
	}
	if opp.StoresPer100k < underServedPer100k {
		factors = append(factors, "Under-served market")
	}
	return factors
}
