package analytics

import (
	"sort"

	"github.com/davestroud/publix/internal/model"
)

// Per-brand points of the co-tenancy score. Any anchor adds base points;
// high-value anchors add a premium on top.
const (
	anchorPoints    = 10
	highValuePoints = 20
	maxCoTenancy    = 100
)

// ScoreCoTenancy rates the anchor-tenant mix around a candidate location.
// highValueBrands is configuration, not business logic: the caller decides
// which brands carry premium weight.
func ScoreCoTenancy(anchorBrandsFound, highValueBrands []string) model.CoTenancyResult {
	found := make(map[string]struct{}, len(anchorBrandsFound))
	for _, b := range anchorBrandsFound {
		found[b] = struct{}{}
	}

	highValue := make(map[string]struct{}, len(highValueBrands))
	for _, b := range highValueBrands {
		highValue[b] = struct{}{}
	}

	highValueCount := 0
	for b := range found {
		if _, ok := highValue[b]; ok {
			highValueCount++
		}
	}

	score := len(found)*anchorPoints + highValueCount*highValuePoints
	if score > maxCoTenancy {
		score = maxCoTenancy
	}

	brands := make([]string, 0, len(found))
	for b := range found {
		brands = append(brands, b)
	}
	sort.Strings(brands)

	return model.CoTenancyResult{
		AnchorBrands:   brands,
		HighValueCount: highValueCount,
		Score:          score,
		Recommendation: recommendCoTenancy(score),
	}
}

// recommendCoTenancy maps a score to its band; lower bounds are inclusive.
func recommendCoTenancy(score int) model.CoTenancyRecommendation {
	switch {
	case score >= 70:
		return model.CoTenancyExcellent
	case score >= 50:
		return model.CoTenancyGood
	case score >= 30:
		return model.CoTenancyFair
	default:
		return model.CoTenancyPoor
	}
}
