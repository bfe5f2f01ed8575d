// Package analytics implements the deterministic scoring layer: store
// density and market saturation, proximity scans, opportunity ranking,
// co-tenancy scoring, and ROI estimation. Every function here is a pure
// computation over already-fetched records; insufficient input data yields
// a nil metric, never a fabricated zero.
package analytics

import (
	"github.com/rotisserie/eris"

	"github.com/davestroud/publix/internal/model"
)

// DensityConfig holds the tunable parameters of the density calculation.
type DensityConfig struct {
	// BaselineStoresPer100k is the stores-per-100k density of a mature
	// market. A city at or above the baseline saturates at 1.0.
	BaselineStoresPer100k float64

	// AssumedDensityPerSqMile estimates city land area from population.
	// The derived per-square-mile figure is a heuristic, not measured
	// geography.
	AssumedDensityPerSqMile float64
}

// ComputeDensity derives per-capita density and saturation for one city.
//
// Returns (nil, nil) when population is not positive: per-capita metrics
// cannot be computed, and that is an ordinary insufficient-data outcome.
// A negative target count is an ingestion bug and returns an error.
func ComputeDensity(targetCount int, competitorCounts map[string]int, population int, cfg DensityConfig) (*model.DensityMetrics, error) {
	if targetCount < 0 {
		return nil, eris.Errorf("analytics: negative target store count %d", targetCount)
	}
	if cfg.BaselineStoresPer100k <= 0 {
		return nil, eris.New("analytics: baseline stores per 100k must be positive")
	}
	if population <= 0 {
		return nil, nil
	}

	per100k := float64(targetCount) / float64(population) * 100_000

	saturation := per100k / cfg.BaselineStoresPer100k
	if saturation > 1.0 {
		saturation = 1.0
	}

	// Rough area estimate from an assumed residential density.
	var perSqMile float64
	if cfg.AssumedDensityPerSqMile > 0 {
		estimatedSqMiles := float64(population) / cfg.AssumedDensityPerSqMile
		if estimatedSqMiles > 0 {
			perSqMile = float64(targetCount) / estimatedSqMiles
		}
	}

	counts := make(map[string]int, len(competitorCounts))
	for brand, n := range competitorCounts {
		counts[brand] = n
	}

	return &model.DensityMetrics{
		TargetStoreCount: targetCount,
		CompetitorCounts: counts,
		Population:       population,
		StoresPer100k:    per100k,
		StoresPerSqMile:  perSqMile,
		SaturationScore:  saturation,
	}, nil
}

// CountByCity tallies store records for one (city, state) pair, split into
// the target chain's count and a per-brand competitor map.
func CountByCity(stores []model.StoreRecord, chain, city, state string) (int, map[string]int) {
	targetCount := 0
	competitors := make(map[string]int)

	for _, s := range stores {
		if s.City != city || s.State != state {
			continue
		}
		if s.Chain == chain {
			targetCount++
		} else {
			competitors[s.Chain]++
		}
	}
	return targetCount, competitors
}
