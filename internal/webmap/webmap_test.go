package webmap

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/sells-group/listing-atlas/internal/listing"
	"github.com/sells-group/listing-atlas/internal/palette"
	"github.com/sells-group/listing-atlas/internal/shape"
)

var nyc = View{Lat: 40.71427, Lon: -74.00597, Zoom: 10, Tiles: "openstreetmap"}

func testListings() []listing.Listing {
	return []listing.Listing{
		{ID: 1, Borough: listing.Brooklyn, Latitude: 40.64, Longitude: -73.97},
		{ID: 2, Borough: listing.Manhattan, Latitude: 40.75, Longitude: -73.98},
	}
}

func boroughLayer() *shape.Layer {
	sq := func(x, y float64) *geom.MultiPolygon {
		p := geom.NewPolygonFlat(geom.XY, []float64{x, y, x, y + 0.1, x + 0.1, y + 0.1, x + 0.1, y, x, y}, []int{10})
		mp := geom.NewMultiPolygon(geom.XY)
		_ = mp.Push(p)
		return mp
	}
	return &shape.Layer{Features: []shape.Feature{
		{Attrs: map[string]string{"boro_name": "Manhattan"}, Geom: sq(-74.0, 40.7)},
		{Attrs: map[string]string{"boro_name": "BROOKLYN"}, Geom: sq(-73.95, 40.6)},
		{Attrs: map[string]string{"boro_name": "Staten Island"}, Geom: sq(-74.2, 40.5)},
	}}
}

func TestTileSet(t *testing.T) {
	ts, err := TileSet("cartodbpositron")
	require.NoError(t, err)
	assert.Contains(t, ts.URL, "cartocdn")

	_, err = TileSet("stamen")
	assert.Error(t, err)
}

func TestHeatmap(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Heatmap(&buf, nyc, testListings(), 12))

	out := buf.String()
	assert.Contains(t, out, "leaflet-heat.js")
	assert.Contains(t, out, "L.heatLayer(points, {radius:")
	assert.Contains(t, out, "[40.64,-73.97]")
	assert.Contains(t, out, "tile.openstreetmap.org")
	assert.NotContains(t, out, "markerClusterGroup")
}

func TestHeatmap_UnknownTiles(t *testing.T) {
	var buf bytes.Buffer
	err := Heatmap(&buf, View{Tiles: "nope"}, nil, 12)
	assert.Error(t, err)
}

func TestMarkerCluster(t *testing.T) {
	v := nyc
	v.Tiles = "cartodbpositron"

	var buf bytes.Buffer
	require.NoError(t, MarkerCluster(&buf, v, testListings()))

	out := buf.String()
	assert.Contains(t, out, "L.markerClusterGroup()")
	assert.Contains(t, out, "MarkerCluster.css")
	assert.Contains(t, out, "[40.75,-73.98]")
	assert.NotContains(t, out, "leaflet-heat.js")
}

func TestBins(t *testing.T) {
	r := Ramp{Low: palette.Gainsboro, High: palette.Purple}
	bins := Bins(0, 60, 6, r)
	require.Len(t, bins, 6)
	assert.InDelta(t, 0.0, bins[0].Min, 1e-9)
	assert.InDelta(t, 10.0, bins[0].Max, 1e-9)
	assert.InDelta(t, 60.0, bins[5].Max, 1e-9)
	assert.Equal(t, palette.Gainsboro.Hex(), bins[0].Color)
	assert.Equal(t, palette.Purple.Hex(), bins[5].Color)

	assert.Equal(t, 0, binFor(bins, 0))
	assert.Equal(t, 0, binFor(bins, 10))
	assert.Equal(t, 1, binFor(bins, 10.5))
	assert.Equal(t, 5, binFor(bins, 60))
	assert.Equal(t, 5, binFor(bins, 1000))

	assert.Nil(t, Bins(0, 1, 0, r))
}

func TestChoropleth(t *testing.T) {
	values := map[string]int{"Manhattan": 21661, "Brooklyn": 20104, "Staten Island": 373}
	r := Ramp{Low: palette.Gainsboro, High: palette.Purple}

	var buf bytes.Buffer
	require.NoError(t, Choropleth(&buf, nyc, boroughLayer(), "boro_name", values, r, "Number of Airbnb apartments by borough (2019)"))

	out := buf.String()
	assert.Contains(t, out, `"id":"Manhattan"`)
	assert.Contains(t, out, `"id":"Brooklyn"`, "ids are normalised to match listing boroughs")
	assert.Contains(t, out, `"Manhattan":"`+palette.Purple.Hex()+`"`)
	assert.Contains(t, out, `"Staten Island":"`+palette.Gainsboro.Hex()+`"`)
	assert.Contains(t, out, "Number of Airbnb apartments by borough (2019)")
}

func TestChoropleth_EmptyLayer(t *testing.T) {
	var buf bytes.Buffer
	err := Choropleth(&buf, nyc, &shape.Layer{}, "boro_name", nil, Ramp{}, "")
	assert.Error(t, err)
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Results", "heatmap.html")
	require.NoError(t, WriteFile(path, func(w io.Writer) error {
		return Heatmap(w, nyc, testListings(), 12)
	}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "<!DOCTYPE html>"))
}
