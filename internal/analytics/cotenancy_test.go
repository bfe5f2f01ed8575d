package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/davestroud/publix/internal/model"
)

var highValue = []string{"Target", "Walmart", "Costco"}

func TestScoreCoTenancy(t *testing.T) {
	// Two anchors, both high-value: 10*2 + 20*2 = 60.
	result := ScoreCoTenancy([]string{"Target", "Walmart"}, highValue)
	assert.Equal(t, 60, result.Score)
	assert.Equal(t, model.CoTenancyGood, result.Recommendation)
	assert.Equal(t, 2, result.HighValueCount)
	assert.Equal(t, []string{"Target", "Walmart"}, result.AnchorBrands)
}

func TestScoreCoTenancy_Caps(t *testing.T) {
	brands := []string{
		"Target", "Walmart", "Costco", "Home Depot", "Lowe's",
		"Best Buy", "Macy's", "JCPenney", "Kohl's", "Dillard's",
	}
	result := ScoreCoTenancy(brands, highValue)
	assert.Equal(t, 100, result.Score)
	assert.Equal(t, model.CoTenancyExcellent, result.Recommendation)
}

func TestScoreCoTenancy_Empty(t *testing.T) {
	result := ScoreCoTenancy(nil, highValue)
	assert.Equal(t, 0, result.Score)
	assert.Equal(t, model.CoTenancyPoor, result.Recommendation)
	assert.Empty(t, result.AnchorBrands)
}

func TestScoreCoTenancy_DeduplicatesBrands(t *testing.T) {
	result := ScoreCoTenancy([]string{"Target", "Target", "Target"}, highValue)
	assert.Equal(t, 30, result.Score) // one brand: 10 + 20
	assert.Equal(t, 1, result.HighValueCount)
}

func TestScoreCoTenancy_Bands(t *testing.T) {
	tests := []struct {
		name   string
		brands []string
		score  int
		want   model.CoTenancyRecommendation
	}{
		{"Poor below 30", []string{"Home Depot", "Best Buy"}, 20, model.CoTenancyPoor},
		{"Fair at 30", []string{"Target"}, 30, model.CoTenancyFair},
		{"Fair below 50", []string{"Home Depot", "Best Buy", "Macy's", "Kohl's"}, 40, model.CoTenancyFair},
		{"Good at 50", []string{"Target", "Home Depot", "Best Buy"}, 50, model.CoTenancyGood},
		{"Excellent at 70", []string{"Target", "Walmart", "Home Depot"}, 70, model.CoTenancyExcellent},
		{"Excellent at 90", []string{"Target", "Walmart", "Costco"}, 90, model.CoTenancyExcellent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ScoreCoTenancy(tt.brands, highValue)
			assert.Equal(t, tt.score, result.Score)
			assert.Equal(t, tt.want, result.Recommendation)
		})
	}
}

func TestScoreCoTenancy_HighValueMonotonic(t *testing.T) {
	// Adding a high-value anchor never lowers the score.
	base := []string{"Home Depot", "Best Buy"}
	before := ScoreCoTenancy(base, highValue)

	for _, add := range highValue {
		after := ScoreCoTenancy(append(base, add), highValue)
		assert.GreaterOrEqual(t, after.Score, before.Score, "adding %s decreased the score", add)
	}
}
