// Package geo provides coordinate validation and great-circle distance
// calculations used throughout the scoring layer.
package geo

import (
	"math"

	"github.com/rotisserie/eris"
)

// earthRadiusMiles is the mean Earth radius used by the Haversine formula.
const earthRadiusMiles = 3959.0

// Point is an immutable latitude/longitude pair in decimal degrees.
type Point struct {
	Lat float64 `json:"latitude"`
	Lng float64 `json:"longitude"`
}

// NewPoint validates coordinate ranges and returns a Point.
// Out-of-range coordinates indicate an ingestion bug and fail fast.
func NewPoint(lat, lng float64) (Point, error) {
	if lat < -90 || lat > 90 {
		return Point{}, eris.Errorf("geo: latitude %f out of range [-90, 90]", lat)
	}
	if lng < -180 || lng > 180 {
		return Point{}, eris.Errorf("geo: longitude %f out of range [-180, 180]", lng)
	}
	return Point{Lat: lat, Lng: lng}, nil
}

// DistanceMiles returns the great-circle distance between two points using
// the Haversine formula.
func DistanceMiles(a, b Point) float64 {
	dlat := radians(b.Lat - a.Lat)
	dlng := radians(b.Lng - a.Lng)

	h := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(radians(a.Lat))*math.Cos(radians(b.Lat))*
			math.Sin(dlng/2)*math.Sin(dlng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusMiles * c
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
