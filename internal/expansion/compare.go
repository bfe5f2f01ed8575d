package expansion

import (
	"sort"

	"github.com/davestroud/publix/internal/model"
)

// Population band for "similar" markets: within ±30% of the target city.
const similarityBand = 0.3

// MarketComparison relates a target city to markets of similar size where
// the chain already operates.
type MarketComparison struct {
	TargetCity             string          `json:"target_city"`
	TargetState            string          `json:"target_state"`
	TargetPopulation       int             `json:"target_population"`
	SimilarMarkets         []SimilarMarket `json:"similar_markets"`
	AverageStoresInSimilar float64         `json:"average_stores_in_similar"`
}

// SimilarMarket is one comparable city with chain presence.
type SimilarMarket struct {
	City          string  `json:"city"`
	State         string  `json:"state"`
	Population    int     `json:"population"`
	TargetStores  int     `json:"target_stores"`
	StoresPer100k float64 `json:"stores_per_100k"`
}

// BrandShare is one brand's slice of the combined store footprint.
type BrandShare struct {
	Brand    string  `json:"brand"`
	Count    int     `json:"count"`
	SharePct float64 `json:"share_pct"`
}

// CompareSimilarMarkets finds cities with population within the similarity
// band of the target where the chain already has stores, and averages the
// chain's store count across them. Returns nil when the target has no
// usable population.
func CompareSimilarMarkets(target model.DemographicProfile, profiles []model.DemographicProfile, stores []model.StoreRecord, chain string) *MarketComparison {
	if target.Population <= 0 {
		return nil
	}

	counts := make(map[string]int)
	for _, s := range stores {
		if s.Chain == chain {
			counts[cityKey(s.City, s.State)]++
		}
	}

	low := float64(target.Population) * (1 - similarityBand)
	high := float64(target.Population) * (1 + similarityBand)

	var similar []SimilarMarket
	totalStores := 0
	for _, p := range profiles {
		if p.City == target.City && p.State == target.State {
			continue
		}
		pop := float64(p.Population)
		if pop < low || pop > high {
			continue
		}
		n := counts[cityKey(p.City, p.State)]
		if n == 0 {
			continue // only markets the chain has entered are comparable
		}
		similar = append(similar, SimilarMarket{
			City:          p.City,
			State:         p.State,
			Population:    p.Population,
			TargetStores:  n,
			StoresPer100k: float64(n) / float64(p.Population) * 100_000,
		})
		totalStores += n
	}

	sort.Slice(similar, func(i, j int) bool {
		if similar[i].City != similar[j].City {
			return similar[i].City < similar[j].City
		}
		return similar[i].State < similar[j].State
	})

	cmp := &MarketComparison{
		TargetCity:       target.City,
		TargetState:      target.State,
		TargetPopulation: target.Population,
		SimilarMarkets:   similar,
	}
	if len(similar) > 0 {
		cmp.AverageStoresInSimilar = float64(totalStores) / float64(len(similar))
	}
	return cmp
}

// MarketShare computes each brand's share of the combined footprint across
// all records, the target chain included, sorted by count descending then
// brand name.
func MarketShare(stores []model.StoreRecord) []BrandShare {
	counts := make(map[string]int)
	total := 0
	for _, s := range stores {
		counts[s.Chain]++
		total++
	}
	if total == 0 {
		return nil
	}

	shares := make([]BrandShare, 0, len(counts))
	for brand, n := range counts {
		shares = append(shares, BrandShare{
			Brand:    brand,
			Count:    n,
			SharePct: float64(n) / float64(total) * 100,
		})
	}
	sort.Slice(shares, func(i, j int) bool {
		if shares[i].Count != shares[j].Count {
			return shares[i].Count > shares[j].Count
		}
		return shares[i].Brand < shares[j].Brand
	})
	return shares
}
