package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/davestroud/publix/internal/geo"
	"github.com/davestroud/publix/internal/model"
)

func pt(lat, lng float64) *geo.Point {
	return &geo.Point{Lat: lat, Lng: lng}
}

func TestFindNearby(t *testing.T) {
	orlando := geo.Point{Lat: 28.5384, Lng: -81.3789}

	stores := []model.StoreRecord{
		{Chain: "Publix", City: "Orlando", State: "FL", Location: pt(28.55, -81.38)},     // ~1 mi
		{Chain: "Walmart", City: "Orlando", State: "FL", Location: pt(28.60, -81.30)},    // ~6 mi
		{Chain: "Kroger", City: "Jacksonville", State: "FL", Location: pt(30.33, -81.66)}, // ~125 mi
	}

	nearby := FindNearby(orlando, stores, 10.0)
	assert.Len(t, nearby, 2)

	nearby = FindNearby(orlando, stores, 2.0)
	assert.Len(t, nearby, 1)
	assert.Equal(t, "Publix", nearby[0].Chain)
}

func TestFindNearby_SkipsMissingCoordinates(t *testing.T) {
	point := geo.Point{Lat: 28.5384, Lng: -81.3789}
	stores := []model.StoreRecord{
		{Chain: "Publix", City: "Orlando", State: "FL"},
		{Chain: "Walmart", City: "Orlando", State: "FL"},
	}

	nearby := FindNearby(point, stores, 100.0)
	assert.Empty(t, nearby)
}

func TestFindNearby_InclusiveBoundary(t *testing.T) {
	point := geo.Point{Lat: 0, Lng: 0}
	store := model.StoreRecord{Chain: "Publix", Location: pt(0, 0)}

	nearby := FindNearby(point, []model.StoreRecord{store}, 0)
	assert.Len(t, nearby, 1)
}

func TestNearestPerBrand(t *testing.T) {
	point := geo.Point{Lat: 28.5384, Lng: -81.3789}

	stores := []model.StoreRecord{
		{Chain: "Walmart", Location: pt(28.60, -81.30)},
		{Chain: "Walmart", Location: pt(28.54, -81.38)}, // closer Walmart
		{Chain: "Kroger", Location: pt(28.70, -81.50)},
		{Chain: "Aldi"}, // no coordinates, brand must be absent
	}

	nearest := NearestPerBrand(point, stores)
	assert.Len(t, nearest, 2)
	assert.Contains(t, nearest, "Walmart")
	assert.Contains(t, nearest, "Kroger")
	assert.NotContains(t, nearest, "Aldi")

	// The closer Walmart wins.
	assert.Less(t, nearest["Walmart"], 1.0)
	assert.Greater(t, nearest["Kroger"], nearest["Walmart"])
}

func TestNearestPerBrand_FirstSeenWinsOnTie(t *testing.T) {
	point := geo.Point{Lat: 0, Lng: 0}
	stores := []model.StoreRecord{
		{Chain: "Walmart", City: "First", Location: pt(1, 0)},
		{Chain: "Walmart", City: "Second", Location: pt(-1, 0)}, // same distance
	}

	nearest := NearestPerBrand(point, stores)
	assert.Len(t, nearest, 1)
	assert.InDelta(t, 69.09, nearest["Walmart"], 0.1)
}

func TestNearestPerBrand_Empty(t *testing.T) {
	nearest := NearestPerBrand(geo.Point{}, nil)
	assert.Empty(t, nearest)
}
