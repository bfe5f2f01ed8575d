// Package model defines the domain types shared across the expansion
// analysis pipeline: store records, demographic profiles, candidate
// parcels, and the derived scoring structures.
package model

import (
	"time"

	"github.com/davestroud/publix/internal/geo"
)

// StoreRecord represents one physical store, either the target chain or a
// competitor. Records are produced by ingestion and read-only thereafter.
type StoreRecord struct {
	Chain       string     `json:"chain"`
	City        string     `json:"city"`
	State       string     `json:"state"`
	Address     string     `json:"address,omitempty"`
	Location    *geo.Point `json:"location,omitempty"` // nil = unknown location
	OpeningDate *time.Time `json:"opening_date,omitempty"`
}

// HasLocation reports whether the record carries usable coordinates.
func (s StoreRecord) HasLocation() bool {
	return s.Location != nil
}

// DemographicProfile holds census-derived figures for one (city, state) pair.
// MedianIncome and GrowthRate are nil when the upstream source had no data;
// callers must treat nil as "cannot compute", never as zero.
type DemographicProfile struct {
	City         string   `json:"city"`
	State        string   `json:"state"`
	Population   int      `json:"population"`
	MedianIncome *float64 `json:"median_income,omitempty"`
	GrowthRate   *float64 `json:"growth_rate,omitempty"` // annualized fraction, 0.02 = 2%/yr
}

// Parcel is a candidate development site loaded from county parcel data.
type Parcel struct {
	ParcelID string     `json:"parcel_id"`
	City     string     `json:"city"`
	State    string     `json:"state"`
	Acreage  float64    `json:"acreage"`
	Zoning   string     `json:"zoning,omitempty"`
	Centroid *geo.Point `json:"centroid,omitempty"`
}

// DensityMetrics is the per-city output of the density calculator.
// All fields are derived; nothing here is persisted by the core.
type DensityMetrics struct {
	TargetStoreCount int            `json:"target_store_count"`
	CompetitorCounts map[string]int `json:"competitor_counts"`
	Population       int            `json:"population"`
	StoresPer100k    float64        `json:"stores_per_100k"`
	StoresPerSqMile  float64        `json:"stores_per_sq_mile"` // heuristic estimate, not measured geography
	SaturationScore  float64        `json:"saturation_score"`   // 0..1
}

// TotalCompetitors sums the competitor counts across brands.
func (d DensityMetrics) TotalCompetitors() int {
	total := 0
	for _, n := range d.CompetitorCounts {
		total += n
	}
	return total
}

// OpportunityScore ranks a city's expansion potential.
type OpportunityScore struct {
	City             string  `json:"city"`
	State            string  `json:"state"`
	Population       int     `json:"population"`
	TargetStores     int     `json:"target_stores"`
	StoresPer100k    float64 `json:"stores_per_100k"`
	SaturationScore  float64 `json:"saturation_score"`
	OpportunityScore float64 `json:"opportunity_score"` // 0..1
	Rank             int     `json:"rank"`              // 1-based after sorting
}

// CoTenancyRecommendation classifies a co-tenancy score into a quality band.
type CoTenancyRecommendation string

const (
	CoTenancyPoor      CoTenancyRecommendation = "Poor"
	CoTenancyFair      CoTenancyRecommendation = "Fair"
	CoTenancyGood      CoTenancyRecommendation = "Good"
	CoTenancyExcellent CoTenancyRecommendation = "Excellent"
)

// CoTenancyResult scores the anchor-tenant mix around a candidate location.
type CoTenancyResult struct {
	AnchorBrands   []string                `json:"anchor_brands"`
	HighValueCount int                     `json:"high_value_count"`
	Score          int                     `json:"score"` // 0..100
	Recommendation CoTenancyRecommendation `json:"recommendation"`
}

// ROIRecommendation is a coarse investment signal.
type ROIRecommendation string

const (
	ROIHigh   ROIRecommendation = "high"
	ROIMedium ROIRecommendation = "medium"
	ROILow    ROIRecommendation = "low"
)

// ROIEstimate is the rough revenue/cost model for a candidate site.
// PaybackYears is nil when annual profit is not positive.
type ROIEstimate struct {
	LandCost         float64           `json:"land_cost"`
	ConstructionCost float64           `json:"construction_cost"`
	TotalInvestment  float64           `json:"total_investment"`
	AnnualRevenue    float64           `json:"annual_revenue"`
	AnnualProfit     float64           `json:"annual_profit"`
	ProfitMargin     float64           `json:"profit_margin"`
	ROIPercentage    float64           `json:"roi_percentage"`
	PaybackYears     *float64          `json:"payback_years,omitempty"`
	Recommendation   ROIRecommendation `json:"recommendation"`
}

// Prediction is a persisted expansion prediction for a city.
type Prediction struct {
	ID               string     `json:"id"`
	City             string     `json:"city"`
	State            string     `json:"state"`
	Population       int        `json:"population"`
	OpportunityScore float64    `json:"opportunity_score"`
	Confidence       float64    `json:"confidence"`
	ReasoningFactors []string   `json:"reasoning_factors"`
	Narrative        string     `json:"narrative,omitempty"`
	Location         *geo.Point `json:"location,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}
