package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/listing-atlas/internal/config"
)

const listingsCSV = `id,name,host_id,host_name,neighbourhood_group,neighbourhood,latitude,longitude,room_type,price,minimum_nights,number_of_reviews,last_review,reviews_per_month,calculated_host_listings_count,availability_365
2539,Clean & quiet apt,2787,John,Brooklyn,Kensington,40.64749,-73.97237,Private room,149,1,9,2018-10-19,0.21,6,365
2595,Skylit Midtown Castle,2845,Jennifer,Manhattan,Midtown,40.75362,-73.98377,Entire home/apt,225,1,45,2019-05-21,0.38,2,355
3647,Village of Harlem,4632,Elisabeth,Manhattan,Harlem,40.80902,-73.94190,Private room,3500,3,0,,,1,365
3831,Cozy Entire Floor,4869,LisaRoxanne,Brooklyn,Clinton Hill,40.68514,-73.95976,Entire home/apt,,1,270,2019-07-05,4.64,1,194
5099,Large Cozy 1 BR,7322,Chris,Staten Island,St. George,40.64,-74.08,Entire home/apt,900,3,74,2019-06-22,0.59,1,129
6000,Queens nook,7400,Ana,Queens,Astoria,40.76,-73.92,Private room,60,1,3,2019-06-01,0.10,1,10
6001,Bronx room,7401,Ben,Bronx,Mott Haven,40.81,-73.92,Private room,45,1,3,2019-06-01,0.10,1,10
`

func square(x, y, size float64) []shp.Point {
	return []shp.Point{
		{X: x, Y: y},
		{X: x, Y: y + size},
		{X: x + size, Y: y + size},
		{X: x + size, Y: y},
		{X: x, Y: y},
	}
}

// writeShapefile writes one square polygon per name with a boro_name field.
func writeShapefile(t *testing.T, path string, names []string) {
	t.Helper()
	w, err := shp.Create(path, shp.POLYGON)
	require.NoError(t, err)
	w.SetFields([]shp.Field{shp.StringField("boro_name", 32)})
	for i, name := range names {
		poly := shp.Polygon(*shp.NewPolyLine([][]shp.Point{square(-74.25+0.1*float64(i), 40.5, 0.1)}))
		w.Write(&poly)
		w.WriteAttribute(i, 0, name)
	}
	w.Close()
}

// testConfig returns the default configuration pointed at fixtures in a
// temp dir.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()

	csvPath := filepath.Join(dir, "AB_NYC_2019.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(listingsCSV), 0o644))

	boroughs := []string{"Brooklyn", "MANHATTAN", "Queens", "Staten Island", "Bronx"}
	basePath := filepath.Join(dir, "nyad.shp")
	writeShapefile(t, basePath, boroughs)
	boroPath := filepath.Join(dir, "boroughs.shp")
	writeShapefile(t, boroPath, boroughs)

	c, err := config.Load()
	require.NoError(t, err)
	c.Data.ListingsCSV = csvPath
	c.Data.BaseMap = basePath
	c.Data.Boroughs = boroPath
	c.Output.Dir = filepath.Join(dir, "Results")
	c.Output.MapInches = 4
	c.Output.BarWidthIn = 4
	c.Output.BarHeightIn = 3
	c.Export.SQLitePath = filepath.Join(dir, "listings.db")
	c.Top.PerBorough = 2
	require.NoError(t, c.Validate())
	return c
}
