package webmap

import (
	"encoding/json"
	"fmt"
	"html"
	"io"
	"math"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/rotisserie/eris"

	"github.com/sells-group/listing-atlas/internal/listing"
	"github.com/sells-group/listing-atlas/internal/palette"
	"github.com/sells-group/listing-atlas/internal/shape"
)

// Heatmap writes a heat layer over every listing location.
func Heatmap(w io.Writer, v View, ls []listing.Listing, radius int) error {
	p, err := newPage("Airbnb heatmap", v)
	if err != nil {
		return err
	}
	return render(w, "heatmap", struct {
		page
		Points [][2]float64
		Radius int
	}{page: p, Points: points(ls), Radius: radius})
}

// MarkerCluster writes one marker per listing inside a cluster group.
func MarkerCluster(w io.Writer, v View, ls []listing.Listing) error {
	p, err := newPage("Airbnb marker cluster", v)
	if err != nil {
		return err
	}
	return render(w, "cluster", struct {
		page
		Points [][2]float64
	}{page: p, Points: points(ls)})
}

// ChoroplethBins is the number of legend classes.
const ChoroplethBins = 6

// Ramp is a two-color sequential scale.
type Ramp struct {
	Low  colorful.Color
	High colorful.Color
}

// Bin is one legend class: values in [Min, Max] share Color.
type Bin struct {
	Min   float64
	Max   float64
	Color string
}

// Bins splits [lo, hi] into n equal-width classes colored along r.
func Bins(lo, hi float64, n int, r Ramp) []Bin {
	if n <= 0 {
		return nil
	}
	if hi < lo {
		lo, hi = hi, lo
	}
	colors := palette.Ramp(r.Low, r.High, n)
	step := (hi - lo) / float64(n)
	out := make([]Bin, n)
	for i := range out {
		out[i] = Bin{
			Min:   lo + step*float64(i),
			Max:   lo + step*float64(i+1),
			Color: colors[i].Hex(),
		}
	}
	out[n-1].Max = hi
	return out
}

// binFor returns the index of the class containing v.
func binFor(bins []Bin, v float64) int {
	for i, b := range bins {
		if v <= b.Max {
			return i
		}
	}
	return len(bins) - 1
}

// Choropleth shades each feature of layer by values[key], where key is the
// feature's idField attribute normalised with listing.NormalizeBorough.
// Features without a value are left unshaded.
func Choropleth(w io.Writer, v View, layer *shape.Layer, idField string, values map[string]int, r Ramp, legend string) error {
	if layer == nil || len(layer.Features) == 0 {
		return eris.New("webmap: choropleth needs at least one feature")
	}
	p, err := newPage("Airbnb choropleth", v)
	if err != nil {
		return err
	}

	geo, err := layer.GeoJSON(idField, listing.NormalizeBorough)
	if err != nil {
		return err
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, n := range values {
		lo = min(lo, float64(n))
		hi = max(hi, float64(n))
	}
	if len(values) == 0 {
		lo, hi = 0, 0
	}
	bins := Bins(lo, hi, ChoroplethBins, r)

	fills := make(map[string]string, len(values))
	for k, n := range values {
		fills[k] = bins[binFor(bins, float64(n))].Color
	}

	var rows strings.Builder
	for _, b := range bins {
		fmt.Fprintf(&rows, `<i style="background:%s"></i>%s &ndash; %s<br>`,
			html.EscapeString(b.Color), formatCount(b.Min), formatCount(b.Max))
	}

	return render(w, "choropleth", struct {
		page
		GeoJSON    json.RawMessage
		Fills      map[string]string
		Legend     string
		LegendRows string
	}{page: p, GeoJSON: geo, Fills: fills, Legend: legend, LegendRows: rows.String()})
}

func formatCount(v float64) string {
	return fmt.Sprintf("%.0f", v)
}
