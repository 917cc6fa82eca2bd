package shape

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
)

func square(x, y, size float64) []shp.Point {
	return []shp.Point{
		{X: x, Y: y},
		{X: x, Y: y + size},
		{X: x + size, Y: y + size},
		{X: x + size, Y: y},
		{X: x, Y: y}, // closed ring
	}
}

// writeBoroughs writes a two-feature polygon shapefile with a boro_name field.
func writeBoroughs(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "boroughs.shp")

	w, err := shp.Create(path, shp.POLYGON)
	require.NoError(t, err)
	w.SetFields([]shp.Field{shp.StringField("boro_name", 32)})

	shapes := []struct {
		name  string
		parts [][]shp.Point
	}{
		{name: "Manhattan", parts: [][]shp.Point{square(-74.02, 40.70, 0.1)}},
		{name: "STATEN ISLAND", parts: [][]shp.Point{square(-74.25, 40.50, 0.1), square(-74.10, 40.60, 0.01)}},
	}
	for i, s := range shapes {
		poly := shp.Polygon(*shp.NewPolyLine(s.parts))
		w.Write(&poly)
		w.WriteAttribute(i, 0, s.name)
	}
	w.Close()
	return path
}

func TestRead(t *testing.T) {
	layer, err := Read(writeBoroughs(t))
	require.NoError(t, err)
	require.Len(t, layer.Features, 2)

	assert.Equal(t, "Manhattan", layer.Features[0].Attr("boro_name"))
	assert.Equal(t, "Manhattan", layer.Features[0].Attr("BORO_NAME"))
	assert.Equal(t, "STATEN ISLAND", layer.Features[1].Attr("boro_name"))

	mp, ok := layer.Features[1].Geom.(*geom.MultiPolygon)
	require.True(t, ok)
	assert.Equal(t, 2, mp.NumPolygons())
	assert.Equal(t, SRID, mp.SRID())

	assert.Len(t, layer.Rings(), 3)

	b := layer.Bounds()
	require.NotNil(t, b)
	assert.InDelta(t, -74.25, b.Min(0), 1e-9)
	assert.InDelta(t, 40.50, b.Min(1), 1e-9)
	assert.InDelta(t, -73.92, b.Max(0), 1e-9)
	assert.InDelta(t, 40.80, b.Max(1), 1e-9)
}

func TestRead_Missing(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "missing.shp"))
	assert.Error(t, err)
}

func TestLayerBounds_Empty(t *testing.T) {
	assert.Nil(t, (&Layer{}).Bounds())
}

func TestGeoJSON_FeatureIDs(t *testing.T) {
	layer, err := Read(writeBoroughs(t))
	require.NoError(t, err)

	data, err := layer.GeoJSON("boro_name", func(s string) string { return "k:" + s })
	require.NoError(t, err)

	var fc struct {
		Type     string `json:"type"`
		Features []struct {
			ID         string         `json:"id"`
			Properties map[string]any `json:"properties"`
			Geometry   struct {
				Type string `json:"type"`
			} `json:"geometry"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(data, &fc))
	assert.Equal(t, "FeatureCollection", fc.Type)
	require.Len(t, fc.Features, 2)
	assert.Equal(t, "k:Manhattan", fc.Features[0].ID)
	assert.Equal(t, "MultiPolygon", fc.Features[0].Geometry.Type)
	assert.Equal(t, "Manhattan", fc.Features[0].Properties["boro_name"])
}

func TestToGeom(t *testing.T) {
	pt := ToGeom(&shp.Point{X: -73.97, Y: 40.64})
	require.NotNil(t, pt)
	assert.Equal(t, geom.Coord{-73.97, 40.64}, pt.(*geom.Point).Coords())

	pl := ToGeom(shp.NewPolyLine([][]shp.Point{
		{{X: 0, Y: 0}, {X: 1, Y: 1}},
		{{X: 2, Y: 2}, {X: 3, Y: 3}, {X: 4, Y: 4}},
	}))
	mls, ok := pl.(*geom.MultiLineString)
	require.True(t, ok)
	assert.Equal(t, 2, mls.NumLineStrings())
	assert.Len(t, Rings(mls), 2)
	assert.Len(t, Rings(mls)[1], 3)

	assert.Nil(t, ToGeom(nil))
	assert.Nil(t, ToGeom(&shp.Null{}))
	assert.Nil(t, ToGeom(&shp.Polygon{}))
	assert.Nil(t, ToGeom(&shp.PolyLine{}))
}

func TestEncodeWKB(t *testing.T) {
	data, err := EncodeWKB(ToGeom(&shp.Point{X: -80.19, Y: 25.77}))
	require.NoError(t, err)
	assert.NotEmpty(t, data)

	poly := shp.Polygon(*shp.NewPolyLine([][]shp.Point{square(0, 0, 1)}))
	data, err = EncodeWKB(ToGeom(&poly))
	require.NoError(t, err)
	assert.NotEmpty(t, data)

	data, err = EncodeWKB(nil)
	require.NoError(t, err)
	assert.Nil(t, data)
}
