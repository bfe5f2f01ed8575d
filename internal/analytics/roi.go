package analytics

import (
	"github.com/rotisserie/eris"

	"github.com/davestroud/publix/internal/model"
)

// Factor caps keep the revenue extrapolation inside the range observed for
// real stores, regardless of how large or wealthy a market is.
const (
	maxPopulationFactor = 2.0
	maxIncomeFactor     = 1.5
	saturationDiscount  = 0.2 // per existing store
)

// ROIInput describes a candidate site. Population and MedianIncome are nil
// when unknown; a missing factor simply leaves the base revenue unadjusted.
type ROIInput struct {
	Population          *int
	MedianIncome        *float64
	ExistingStoreCount  int
	StoreSizeSqFt       int
	LandCostPerAcre     float64
	ConstructionPerSqFt float64
	AcresNeeded         float64
}

// ROIConfig holds the revenue model assumptions.
type ROIConfig struct {
	BaseRevenue  float64
	ProfitMargin float64
	AcresNeeded  float64 // default when the input leaves acreage zero
}

// EstimateROI derives a rough investment estimate for a candidate site.
// Negative acreage, store size, or store count indicate an ingestion bug
// and are rejected. A non-positive annual profit leaves PaybackYears nil;
// the estimator never divides by zero.
func EstimateROI(in ROIInput, cfg ROIConfig) (*model.ROIEstimate, error) {
	if in.AcresNeeded < 0 {
		return nil, eris.Errorf("analytics: negative acreage %f", in.AcresNeeded)
	}
	if in.StoreSizeSqFt < 0 {
		return nil, eris.Errorf("analytics: negative store size %d", in.StoreSizeSqFt)
	}
	if in.ExistingStoreCount < 0 {
		return nil, eris.Errorf("analytics: negative store count %d", in.ExistingStoreCount)
	}
	if in.Population != nil && *in.Population < 0 {
		return nil, eris.Errorf("analytics: negative population %d", *in.Population)
	}

	acres := in.AcresNeeded
	if acres == 0 {
		acres = cfg.AcresNeeded
	}

	landCost := acres * in.LandCostPerAcre
	constructionCost := float64(in.StoreSizeSqFt) * in.ConstructionPerSqFt
	totalInvestment := landCost + constructionCost

	revenue := cfg.BaseRevenue

	if in.Population != nil && *in.Population > 0 {
		factor := float64(*in.Population) / 100_000
		if factor > maxPopulationFactor {
			factor = maxPopulationFactor
		}
		revenue *= factor
	}

	if in.MedianIncome != nil && *in.MedianIncome > 0 {
		factor := *in.MedianIncome / 50_000
		if factor > maxIncomeFactor {
			factor = maxIncomeFactor
		}
		revenue *= factor
	}

	if in.ExistingStoreCount > 0 {
		revenue *= 1.0 / (1.0 + float64(in.ExistingStoreCount)*saturationDiscount)
	}

	profit := revenue * cfg.ProfitMargin

	est := &model.ROIEstimate{
		LandCost:         landCost,
		ConstructionCost: constructionCost,
		TotalInvestment:  totalInvestment,
		AnnualRevenue:    revenue,
		AnnualProfit:     profit,
		ProfitMargin:     cfg.ProfitMargin,
	}

	if totalInvestment > 0 {
		est.ROIPercentage = profit / totalInvestment * 100
	}

	if profit > 0 && totalInvestment > 0 {
		payback := totalInvestment / profit
		est.PaybackYears = &payback
	}

	est.Recommendation = recommendROI(est.ROIPercentage)
	return est, nil
}

func recommendROI(roiPct float64) model.ROIRecommendation {
	switch {
	case roiPct > 15:
		return model.ROIHigh
	case roiPct > 10:
		return model.ROIMedium
	default:
		return model.ROILow
	}
}
