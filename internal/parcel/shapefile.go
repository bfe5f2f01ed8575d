// Package parcel loads candidate development sites from county parcel
// shapefiles and filters them to lots sized for a new store.
package parcel

import (
	"strconv"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/davestroud/publix/internal/geo"
	"github.com/davestroud/publix/internal/model"
)

// Attribute names tried, in order, for each parcel field. County GIS
// departments do not agree on a schema.
var (
	idFields      = []string{"parcel_id", "parcelid", "pin", "apn"}
	cityFields    = []string{"city", "situs_city", "muni"}
	stateFields   = []string{"state", "situs_st"}
	acreageFields = []string{"acreage", "acres", "gis_acres"}
	zoningFields  = []string{"zoning", "zone_code", "zone"}
)

// Filter bounds the acreage of parcels worth evaluating.
type Filter struct {
	MinAcres float64
	MaxAcres float64
}

// DefaultFilter matches the lot size of a typical suburban supermarket
// with parking and outparcels.
func DefaultFilter() Filter {
	return Filter{MinAcres: 15, MaxAcres: 25}
}

// LoadShapefile reads parcels from a county shapefile, keeping only polygon
// records whose acreage falls inside the filter. Records without a parsable
// acreage are skipped.
func LoadShapefile(shpPath string, filter Filter) ([]model.Parcel, error) {
	if filter.MinAcres < 0 || filter.MaxAcres <= filter.MinAcres {
		return nil, eris.Errorf("parcel: invalid acreage filter [%f, %f]", filter.MinAcres, filter.MaxAcres)
	}

	reader, err := shp.Open(shpPath)
	if err != nil {
		return nil, eris.Wrapf(err, "parcel: open shapefile %s", shpPath)
	}
	defer func() { _ = reader.Close() }()

	fields := reader.Fields()
	fieldIdx := make(map[string]int, len(fields))
	for i, f := range fields {
		name := strings.TrimRight(f.String(), "\x00")
		fieldIdx[strings.ToLower(name)] = i
	}

	var parcels []model.Parcel
	var skipped int

	for reader.Next() {
		_, shape := reader.Shape()

		attr := func(names []string) string {
			for _, name := range names {
				if idx, ok := fieldIdx[name]; ok {
					val := strings.TrimRight(reader.Attribute(idx), "\x00")
					if val = strings.TrimSpace(val); val != "" {
						return val
					}
				}
			}
			return ""
		}

		acreage, ok := parseAcreage(attr(acreageFields))
		if !ok {
			skipped++
			continue
		}
		if acreage < filter.MinAcres || acreage > filter.MaxAcres {
			continue
		}

		p := model.Parcel{
			ParcelID: attr(idFields),
			City:     attr(cityFields),
			State:    strings.ToUpper(attr(stateFields)),
			Acreage:  acreage,
			Zoning:   attr(zoningFields),
		}
		if p.ParcelID == "" {
			skipped++
			continue
		}

		if centroid, ok := shapeCentroid(shape); ok {
			p.Centroid = centroid
		}

		parcels = append(parcels, p)
	}

	if skipped > 0 {
		zap.L().Debug("parcel: skipped shapefile records",
			zap.String("path", shpPath),
			zap.Int("skipped", skipped),
		)
	}

	return parcels, nil
}

func parseAcreage(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

// shapeCentroid computes the bounding-box center of a polygon shape.
// Good enough for distance screening; parcels are small relative to the
// radii the proximity analysis uses.
func shapeCentroid(shape shp.Shape) (*geo.Point, bool) {
	poly, ok := shape.(*shp.Polygon)
	if !ok || len(poly.Points) == 0 {
		return nil, false
	}

	coords := make([]float64, 0, len(poly.Points)*2)
	for _, pt := range poly.Points {
		coords = append(coords, pt.X, pt.Y)
	}

	ring := geom.NewLinearRingFlat(geom.XY, coords)
	bounds := ring.Bounds()

	lat := (bounds.Min(1) + bounds.Max(1)) / 2
	lng := (bounds.Min(0) + bounds.Max(0)) / 2

	p, err := geo.NewPoint(lat, lng)
	if err != nil {
		return nil, false
	}
	return &p, true
}
