package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/listing-atlas/internal/listing"
	"github.com/sells-group/listing-atlas/internal/report"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func TestRenderAll(t *testing.T) {
	c := testConfig(t)

	m, err := renderAll(context.Background(), c, 2)
	require.NoError(t, err)
	assert.Equal(t, 7, m.Listings)
	assert.Equal(t, 1, m.MissingPrices)
	require.Len(t, m.Artifacts, len(artifacts))

	for _, name := range []string{"locations.png", "number_of_apts.png", "top_2.png"} {
		data, err := os.ReadFile(filepath.Join(c.Output.Dir, name))
		require.NoError(t, err, name)
		assert.True(t, bytes.HasPrefix(data, pngMagic), "%s is a PNG", name)
	}
	for _, name := range []string{"heatmap.html", "marker_cluster.html", "choropleth.html"} {
		data, err := os.ReadFile(filepath.Join(c.Output.Dir, name))
		require.NoError(t, err, name)
		assert.Contains(t, string(data), "leaflet", name)
	}

	saved, err := report.Read(filepath.Join(c.Output.Dir, report.FileName))
	require.NoError(t, err)
	assert.Equal(t, m.RunID, saved.RunID)
	assert.Equal(t, "boroughs", saved.Artifacts[0].Name)
	assert.Equal(t, listing.Manhattan, saved.Boroughs[len(saved.Boroughs)-1].Borough)
}

func TestRenderAll_MissingShapefile(t *testing.T) {
	c := testConfig(t)
	c.Data.BaseMap = filepath.Join(t.TempDir(), "missing.shp")

	_, err := renderAll(context.Background(), c, 2)
	assert.Error(t, err)
	_, statErr := os.Stat(filepath.Join(c.Output.Dir, report.FileName))
	assert.True(t, os.IsNotExist(statErr), "no manifest on failure")
}

func TestRunArtifact_Single(t *testing.T) {
	c := testConfig(t)
	a, err := loadAtlas(c, needs{})
	require.NoError(t, err)
	assert.Nil(t, a.base)
	assert.Nil(t, a.boroughs)

	var heat artifact
	for _, ar := range artifacts {
		if ar.name == "heatmap" {
			heat = ar
		}
	}
	out, err := runArtifact(context.Background(), a, heat)
	require.NoError(t, err)
	assert.Equal(t, report.KindHTML, out.Kind)
	assert.FileExists(t, out.Path)
}

func TestRenderChoropleth_BadRamp(t *testing.T) {
	c := testConfig(t)
	c.Maps.RampLow = "not-a-colour"
	a, err := loadAtlas(c, needs{boroughs: true})
	require.NoError(t, err)

	err = renderChoropleth(context.Background(), a, filepath.Join(c.Output.Dir, "c.html"))
	assert.Error(t, err)
}
