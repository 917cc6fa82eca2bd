// Package webmap writes standalone Leaflet HTML maps: a heatmap, a marker
// cluster map and a choropleth.
package webmap

import (
	"embed"
	"html/template"
	"io"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/sells-group/listing-atlas/internal/listing"
)

//go:embed templates/*.html.tmpl
var templateFS embed.FS

var pages = map[string]*template.Template{
	"heatmap":    mustPage("templates/heatmap.html.tmpl"),
	"cluster":    mustPage("templates/cluster.html.tmpl"),
	"choropleth": mustPage("templates/choropleth.html.tmpl"),
}

func mustPage(file string) *template.Template {
	return template.Must(template.New("page").ParseFS(templateFS, "templates/base.html.tmpl", file))
}

// Tiles is a raster tile source.
type Tiles struct {
	URL         string
	Attribution string
}

var tileSets = map[string]Tiles{
	"openstreetmap": {
		URL:         "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png",
		Attribution: "&copy; OpenStreetMap contributors",
	},
	"cartodbpositron": {
		URL:         "https://{s}.basemaps.cartocdn.com/light_all/{z}/{x}/{y}{r}.png",
		Attribution: "&copy; OpenStreetMap contributors &copy; CARTO",
	},
}

// TileSet resolves a tile set name. Unknown names are an error.
func TileSet(name string) (Tiles, error) {
	t, ok := tileSets[name]
	if !ok {
		return Tiles{}, eris.Errorf("webmap: unknown tile set %q", name)
	}
	return t, nil
}

// View is the initial map viewport and base tiles.
type View struct {
	Lat   float64
	Lon   float64
	Zoom  int
	Tiles string
}

type page struct {
	Title string
	Lat   float64
	Lon   float64
	Zoom  int
	Tiles Tiles
}

func newPage(title string, v View) (page, error) {
	tiles, err := TileSet(v.Tiles)
	if err != nil {
		return page{}, err
	}
	return page{Title: title, Lat: v.Lat, Lon: v.Lon, Zoom: v.Zoom, Tiles: tiles}, nil
}

func render(w io.Writer, name string, data any) error {
	if err := pages[name].ExecuteTemplate(w, "base", data); err != nil {
		return eris.Wrapf(err, "webmap: render %s", name)
	}
	return nil
}

// points returns [lat, lon] pairs for every listing.
func points(ls []listing.Listing) [][2]float64 {
	out := make([][2]float64, len(ls))
	for i, l := range ls {
		out[i] = [2]float64{l.Latitude, l.Longitude}
	}
	return out
}

// WriteFile creates path (and its directory) and renders into it.
func WriteFile(path string, fn func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrapf(err, "webmap: create dir for %s", path)
	}
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "webmap: create %s", path)
	}
	if err := fn(f); err != nil {
		_ = f.Close()
		return err
	}
	return eris.Wrapf(f.Close(), "webmap: close %s", path)
}
