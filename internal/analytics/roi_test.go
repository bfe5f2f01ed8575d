package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davestroud/publix/internal/model"
)

var testROICfg = ROIConfig{
	BaseRevenue:  35_000_000,
	ProfitMargin: 0.10,
	AcresNeeded:  20,
}

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

func TestEstimateROI_NoDemographics(t *testing.T) {
	// Missing population and income leave the base revenue unadjusted.
	est, err := EstimateROI(ROIInput{
		StoreSizeSqFt:       45000,
		LandCostPerAcre:     500_000,
		ConstructionPerSqFt: 200,
	}, testROICfg)
	require.NoError(t, err)

	assert.InDelta(t, 10_000_000, est.LandCost, 0.01)
	assert.InDelta(t, 9_000_000, est.ConstructionCost, 0.01)
	assert.InDelta(t, 19_000_000, est.TotalInvestment, 0.01)
	assert.InDelta(t, 35_000_000, est.AnnualRevenue, 0.01)
	assert.InDelta(t, 3_500_000, est.AnnualProfit, 0.01)
	assert.InDelta(t, 18.42, est.ROIPercentage, 0.01)
	assert.Equal(t, model.ROIHigh, est.Recommendation)

	require.NotNil(t, est.PaybackYears)
	assert.InDelta(t, 5.43, *est.PaybackYears, 0.01)
}

func TestEstimateROI_FactorsAndCaps(t *testing.T) {
	tests := []struct {
		name        string
		population  *int
		income      *float64
		wantRevenue float64
	}{
		{"population scales revenue", intPtr(150000), nil, 52_500_000},
		{"population factor caps at 2", intPtr(900000), nil, 70_000_000},
		{"income scales revenue", nil, floatPtr(60000), 42_000_000},
		{"income factor caps at 1.5", nil, floatPtr(200000), 52_500_000},
		{"both capped", intPtr(900000), floatPtr(200000), 105_000_000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			est, err := EstimateROI(ROIInput{
				Population:          tt.population,
				MedianIncome:        tt.income,
				StoreSizeSqFt:       45000,
				LandCostPerAcre:     500_000,
				ConstructionPerSqFt: 200,
			}, testROICfg)
			require.NoError(t, err)
			assert.InDelta(t, tt.wantRevenue, est.AnnualRevenue, 1)
		})
	}
}

func TestEstimateROI_SaturationDiscount(t *testing.T) {
	est, err := EstimateROI(ROIInput{
		ExistingStoreCount:  2,
		StoreSizeSqFt:       45000,
		LandCostPerAcre:     500_000,
		ConstructionPerSqFt: 200,
	}, testROICfg)
	require.NoError(t, err)

	// 35M / (1 + 2*0.2) = 25M
	assert.InDelta(t, 25_000_000, est.AnnualRevenue, 1)
}

func TestEstimateROI_PaybackGuard(t *testing.T) {
	// Zero profit margin means zero profit: payback must be unavailable,
	// never negative or infinite.
	est, err := EstimateROI(ROIInput{
		StoreSizeSqFt:       45000,
		LandCostPerAcre:     500_000,
		ConstructionPerSqFt: 200,
	}, ROIConfig{BaseRevenue: 35_000_000, ProfitMargin: 0, AcresNeeded: 20})
	require.NoError(t, err)

	assert.Zero(t, est.AnnualProfit)
	assert.Nil(t, est.PaybackYears)
	assert.Equal(t, model.ROILow, est.Recommendation)
}

func TestEstimateROI_ZeroInvestment(t *testing.T) {
	est, err := EstimateROI(ROIInput{AcresNeeded: 0}, ROIConfig{BaseRevenue: 35_000_000, ProfitMargin: 0.1})
	require.NoError(t, err)
	assert.Zero(t, est.TotalInvestment)
	assert.Zero(t, est.ROIPercentage)
	assert.Nil(t, est.PaybackYears)
}

func TestEstimateROI_DefaultAcreage(t *testing.T) {
	est, err := EstimateROI(ROIInput{
		LandCostPerAcre: 100_000,
	}, testROICfg)
	require.NoError(t, err)
	assert.InDelta(t, 2_000_000, est.LandCost, 0.01) // falls back to cfg's 20 acres
}

func TestEstimateROI_RejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name string
		in   ROIInput
	}{
		{"negative acreage", ROIInput{AcresNeeded: -1}},
		{"negative store size", ROIInput{StoreSizeSqFt: -10}},
		{"negative store count", ROIInput{ExistingStoreCount: -1}},
		{"negative population", ROIInput{Population: intPtr(-5)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := EstimateROI(tt.in, testROICfg)
			assert.Error(t, err)
		})
	}
}

func TestEstimateROI_RecommendationBands(t *testing.T) {
	tests := []struct {
		roiPct float64
		want   model.ROIRecommendation
	}{
		{18.4, model.ROIHigh},
		{15.0, model.ROIMedium},
		{12.0, model.ROIMedium},
		{10.0, model.ROILow},
		{4.0, model.ROILow},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, recommendROI(tt.roiPct), "roi %.1f", tt.roiPct)
	}
}
