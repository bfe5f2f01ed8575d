package analytics

import (
	"github.com/davestroud/publix/internal/geo"
	"github.com/davestroud/publix/internal/model"
)

// FindNearby returns the stores within maxMiles of point. Records without
// coordinates are skipped; an unknown location is not an error.
func FindNearby(point geo.Point, stores []model.StoreRecord, maxMiles float64) []model.StoreRecord {
	var nearby []model.StoreRecord
	for _, s := range stores {
		if !s.HasLocation() {
			continue
		}
		if geo.DistanceMiles(point, *s.Location) <= maxMiles {
			nearby = append(nearby, s)
		}
	}
	return nearby
}

// NearestPerBrand computes the distance to the closest store of each brand
// present in the candidate set. Brands with no locatable store are absent
// from the result. Ties keep the first-seen store, so a single scan over a
// fixed input always yields the same map.
func NearestPerBrand(point geo.Point, stores []model.StoreRecord) map[string]float64 {
	nearest := make(map[string]float64)
	for _, s := range stores {
		if !s.HasLocation() {
			continue
		}
		d := geo.DistanceMiles(point, *s.Location)
		if best, ok := nearest[s.Chain]; !ok || d < best {
			nearest[s.Chain] = d
		}
	}
	return nearest
}
