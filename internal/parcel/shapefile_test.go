package parcel

import (
	"path/filepath"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testParcel struct {
	id      string
	city    string
	state   string
	acreage string
	zoning  string
	ring    []shp.Point
}

func writeTestShapefile(t *testing.T, parcels []testParcel) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "parcels.shp")
	w, err := shp.Create(path, shp.POLYGON)
	require.NoError(t, err)

	fields := []shp.Field{
		shp.StringField("PARCEL_ID", 32),
		shp.StringField("CITY", 32),
		shp.StringField("STATE", 2),
		shp.StringField("ACRES", 16),
		shp.StringField("ZONING", 16),
	}
	require.NoError(t, w.SetFields(fields))

	for i, p := range parcels {
		poly := shp.Polygon(*shp.NewPolyLine([][]shp.Point{p.ring}))
		w.Write(&poly)
		require.NoError(t, w.WriteAttribute(i, 0, p.id))
		require.NoError(t, w.WriteAttribute(i, 1, p.city))
		require.NoError(t, w.WriteAttribute(i, 2, p.state))
		require.NoError(t, w.WriteAttribute(i, 3, p.acreage))
		require.NoError(t, w.WriteAttribute(i, 4, p.zoning))
	}
	w.Close()

	return path
}

func squareRing(lng, lat, size float64) []shp.Point {
	return []shp.Point{
		{X: lng, Y: lat},
		{X: lng + size, Y: lat},
		{X: lng + size, Y: lat + size},
		{X: lng, Y: lat + size},
		{X: lng, Y: lat},
	}
}

func TestLoadShapefileFiltersAcreage(t *testing.T) {
	path := writeTestShapefile(t, []testParcel{
		{id: "P-1", city: "Lakeland", state: "fl", acreage: "20.5", zoning: "C-2", ring: squareRing(-81.95, 28.03, 0.002)},
		{id: "P-2", city: "Tampa", state: "FL", acreage: "5.0", ring: squareRing(-82.46, 27.95, 0.001)},
		{id: "P-3", city: "Orlando", state: "FL", acreage: "40.0", ring: squareRing(-81.38, 28.54, 0.004)},
		{id: "P-4", city: "Ocala", state: "FL", acreage: "not-a-number", ring: squareRing(-82.14, 29.19, 0.002)},
	})

	parcels, err := LoadShapefile(path, DefaultFilter())
	require.NoError(t, err)
	require.Len(t, parcels, 1)

	p := parcels[0]
	assert.Equal(t, "P-1", p.ParcelID)
	assert.Equal(t, "Lakeland", p.City)
	assert.Equal(t, "FL", p.State)
	assert.InDelta(t, 20.5, p.Acreage, 1e-9)
	assert.Equal(t, "C-2", p.Zoning)

	require.NotNil(t, p.Centroid)
	assert.InDelta(t, 28.031, p.Centroid.Lat, 1e-6)
	assert.InDelta(t, -81.949, p.Centroid.Lng, 1e-6)
}

func TestLoadShapefileSkipsMissingID(t *testing.T) {
	path := writeTestShapefile(t, []testParcel{
		{id: "", city: "Lakeland", state: "FL", acreage: "18.0", ring: squareRing(-81.95, 28.03, 0.002)},
	})

	parcels, err := LoadShapefile(path, DefaultFilter())
	require.NoError(t, err)
	assert.Empty(t, parcels)
}

func TestLoadShapefileInvalidFilter(t *testing.T) {
	_, err := LoadShapefile("anything.shp", Filter{MinAcres: 25, MaxAcres: 15})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid acreage filter")
}

func TestLoadShapefileMissingFile(t *testing.T) {
	_, err := LoadShapefile(filepath.Join(t.TempDir(), "nope.shp"), DefaultFilter())
	require.Error(t, err)
}

func TestDefaultFilter(t *testing.T) {
	f := DefaultFilter()
	assert.InDelta(t, 15.0, f.MinAcres, 1e-9)
	assert.InDelta(t, 25.0, f.MaxAcres, 1e-9)
}
