package analytics

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/davestroud/publix/internal/model"
)

// Weights of the blended opportunity score. Under-saturation dominates;
// market size breaks the broad strokes.
const (
	saturationWeight = 0.7
	populationWeight = 0.3
)

// CityMetrics pairs a city's demographics with its computed density.
// Density may be nil when demographics were insufficient to compute it.
type CityMetrics struct {
	Profile model.DemographicProfile
	Density *model.DensityMetrics
}

// RankOpportunities filters, scores, and orders cities by expansion
// opportunity. Cities below minPopulation or without density metrics are
// excluded. The result is sorted descending by score; equal scores are
// ordered by city then state ascending so repeated calls over the same
// input produce the same ranking.
func RankOpportunities(cities []CityMetrics, minPopulation int) []model.OpportunityScore {
	var scores []model.OpportunityScore
	for _, c := range cities {
		if c.Density == nil || c.Profile.Population < minPopulation {
			continue
		}
		scores = append(scores, scoreCity(c))
	}

	sort.Slice(scores, func(i, j int) bool {
		if scores[i].OpportunityScore != scores[j].OpportunityScore {
			return scores[i].OpportunityScore > scores[j].OpportunityScore
		}
		if scores[i].City != scores[j].City {
			return scores[i].City < scores[j].City
		}
		return scores[i].State < scores[j].State
	})

	for i := range scores {
		scores[i].Rank = i + 1
	}
	return scores
}

func scoreCity(c CityMetrics) model.OpportunityScore {
	underSaturation := 1.0 - c.Density.SaturationScore

	popWeight := float64(c.Profile.Population) / 100_000
	if popWeight > 1.0 {
		popWeight = 1.0
	}

	combined := saturationWeight*underSaturation + populationWeight*popWeight

	return model.OpportunityScore{
		City:             c.Profile.City,
		State:            c.Profile.State,
		Population:       c.Profile.Population,
		TargetStores:     c.Density.TargetStoreCount,
		StoresPer100k:    c.Density.StoresPer100k,
		SaturationScore:  c.Density.SaturationScore,
		OpportunityScore: combined,
	}
}

// ComputeCityMetrics derives density metrics for every profile in parallel.
// Each city's computation is independent, so the work fans out across
// workers; ordering is restored by index before returning.
func ComputeCityMetrics(ctx context.Context, profiles []model.DemographicProfile, stores []model.StoreRecord, chain string, cfg DensityConfig, workers int) ([]CityMetrics, error) {
	if workers <= 0 {
		workers = 4
	}

	metrics := make([]CityMetrics, len(profiles))
	var mu sync.Mutex

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, p := range profiles {
		g.Go(func() error {
			targetCount, competitors := CountByCity(stores, chain, p.City, p.State)
			density, err := ComputeDensity(targetCount, competitors, p.Population, cfg)
			if err != nil {
				return err
			}
			mu.Lock()
			metrics[i] = CityMetrics{Profile: p, Density: density}
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return metrics, nil
}
