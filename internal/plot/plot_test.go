package plot

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/sells-group/listing-atlas/internal/listing"
	"github.com/sells-group/listing-atlas/internal/shape"
	"github.com/sells-group/listing-atlas/internal/tier"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func testLayer() *shape.Layer {
	poly := geom.NewPolygonFlat(geom.XY, []float64{
		-74.25, 40.50,
		-74.25, 40.90,
		-73.70, 40.90,
		-73.70, 40.50,
		-74.25, 40.50,
	}, []int{10})
	return &shape.Layer{Features: []shape.Feature{{Attrs: map[string]string{}, Geom: poly}}}
}

func price(v float64) *float64 { return &v }

func testListings() []listing.Listing {
	return []listing.Listing{
		{ID: 1, Borough: listing.Brooklyn, Latitude: 40.64, Longitude: -73.97, Price: price(150)},
		{ID: 2, Borough: listing.Manhattan, Latitude: 40.75, Longitude: -73.98, Price: price(2500)},
		{ID: 3, Borough: listing.Manhattan, Latitude: 40.80, Longitude: -73.94, Price: price(9999)},
		{ID: 4, Borough: listing.Queens, Latitude: 40.72, Longitude: -73.80, Price: price(105)},
	}
}

func TestMapSize(t *testing.T) {
	s := MapSize(testLayer(), 14)
	assert.InDelta(t, 14.0, s.Width, 1e-9)
	assert.InDelta(t, 14.0*0.4/0.55, s.Height, 1e-9)

	s = MapSize(&shape.Layer{}, 10)
	assert.Equal(t, Size{Width: 10, Height: 10}, s)
}

func TestLocations_RendersPNG(t *testing.T) {
	p, err := Locations(testLayer(), testListings())
	require.NoError(t, err)
	assert.Equal(t, LocationsTitle, p.Title.Text)

	var buf bytes.Buffer
	require.NoError(t, WritePNG(p, Size{Width: 3, Height: 3}, &buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))
}

func TestLocations_NoListingsNoBase(t *testing.T) {
	p, err := Locations(nil, nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WritePNG(p, Size{Width: 2, Height: 2}, &buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))
}

func TestBoroughs(t *testing.T) {
	counts := listing.CountByBorough(testListings())
	p, err := Boroughs(counts)
	require.NoError(t, err)
	assert.Equal(t, BoroughsTitle, p.Title.Text)

	path := filepath.Join(t.TempDir(), "out", "number_of_apts.png")
	require.NoError(t, Save(p, Size{Width: 3, Height: 2}, path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, pngMagic))
}

func TestCountTicks(t *testing.T) {
	ticks := countTicks(1200)
	values := make([]float64, len(ticks))
	for i, tk := range ticks {
		values[i] = tk.Value
	}
	assert.Equal(t, []float64{500, 1000, 0, 5000, 10000, 15000, 20000}, values)

	ticks = countTicks(21661)
	assert.Equal(t, 25000.0, ticks[len(ticks)-1].Value)
}

func TestTop(t *testing.T) {
	tops := listing.TopPerBorough(testListings(), listing.Boroughs, 100)
	p, err := Top(testLayer(), tops, tier.Default())
	require.NoError(t, err)
	assert.Contains(t, p.Title.Text, "Top 2 most expensive")

	var buf bytes.Buffer
	require.NoError(t, WritePNG(p, Size{Width: 4, Height: 4}, &buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))
}

func TestTop_MissingPriceFails(t *testing.T) {
	tops := []listing.BoroughTop{{
		Borough:  listing.Bronx,
		Listings: []listing.Listing{{ID: 9, Borough: listing.Bronx, Latitude: 40.85, Longitude: -73.87}},
	}}
	_, err := Top(nil, tops, tier.Default())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid value")
}

func TestRangeLabels(t *testing.T) {
	got := RangeLabels(tier.Default(), 105, 10000, "$")
	assert.Equal(t, []string{"105 - 700 $", "701 - 3000 $", "3001 - 10000 $"}, got)

	// Data entirely inside the first tier.
	got = RangeLabels(tier.Default(), 100, 500, "$")
	assert.Equal(t, []string{"100 - 500 $", "701 - 3000 $", "> 3000 $"}, got)

	// Data starting above the first bound.
	got = RangeLabels(tier.Default(), 800, 5000, "$")
	assert.Equal(t, []string{"<= 700 $", "800 - 3000 $", "3001 - 5000 $"}, got)

	// Data spanning the middle tier only.
	got = RangeLabels(tier.Default(), 1000, 2000, "$")
	assert.Equal(t, []string{"<= 700 $", "1000 - 2000 $", "> 3000 $"}, got)
}

func TestMarkerRadius(t *testing.T) {
	assert.InDelta(t, 10.0, float64(markerRadius(400)), 1e-9)
	assert.InDelta(t, 1.0, float64(markerRadius(0)), 1e-9)
}
