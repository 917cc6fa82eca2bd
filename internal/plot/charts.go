package plot

import (
	"fmt"
	"math"
	"strconv"

	"github.com/rotisserie/eris"
	gplot "gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/sells-group/listing-atlas/internal/listing"
	"github.com/sells-group/listing-atlas/internal/palette"
	"github.com/sells-group/listing-atlas/internal/shape"
	"github.com/sells-group/listing-atlas/internal/tier"
)

// Titles used by the static charts.
const (
	LocationsTitle = "Airbnb locations in New York City (2019)"
	BoroughsTitle  = "Number of Airbnb apartments by borough (2019)"
	TopTitle       = "Top %d most expensive Airbnb apartments per night, in each borough (2019)"
)

// Locations draws the base map with every listing as a tiny point.
func Locations(base *shape.Layer, ls []listing.Listing) (*gplot.Plot, error) {
	p := gplot.New()
	setTitle(p, LocationsTitle, 30)
	p.HideAxes()

	if err := addBaseMap(p, base); err != nil {
		return nil, err
	}
	if len(ls) == 0 {
		return p, nil
	}

	xys := make(plotter.XYs, len(ls))
	for i, l := range ls {
		xys[i].X = l.Longitude
		xys[i].Y = l.Latitude
	}
	s, err := plotter.NewScatter(xys)
	if err != nil {
		return nil, eris.Wrap(err, "plot: locations scatter")
	}
	s.GlyphStyle = draw.GlyphStyle{
		Color:  palette.Blue,
		Radius: vg.Points(0.3),
		Shape:  draw.CircleGlyph{},
	}
	p.Add(s)
	return p, nil
}

// Boroughs draws one bar per borough in the given order, colored along a
// magenta to cyan ramp.
func Boroughs(counts []listing.BoroughCount) (*gplot.Plot, error) {
	p := gplot.New()
	setTitle(p, BoroughsTitle, 21)

	names := make([]string, len(counts))
	colors := palette.Ramp(palette.Magenta, palette.Cyan, len(counts))
	var top float64
	for i, c := range counts {
		names[i] = c.Borough
		bc, err := plotter.NewBarChart(plotter.Values{float64(c.Count)}, vg.Points(40))
		if err != nil {
			return nil, eris.Wrapf(err, "plot: bar for %s", c.Borough)
		}
		bc.XMin = float64(i)
		bc.Color = colors[i]
		bc.LineStyle.Width = 0
		p.Add(bc)
		top = max(top, float64(c.Count))
	}
	p.NominalX(names...)
	p.Y.Tick.Marker = gplot.ConstantTicks(countTicks(top))
	p.Add(plotter.NewGrid())
	return p, nil
}

// countTicks returns 500 and 1000 followed by multiples of 5000 up to at
// least 20000 and at least the tallest bar.
func countTicks(top float64) []gplot.Tick {
	ticks := []gplot.Tick{{Value: 500, Label: "500"}, {Value: 1000, Label: "1000"}}
	limit := math.Max(20000, math.Ceil(top/5000)*5000)
	for v := 0.0; v <= limit; v += 5000 {
		ticks = append(ticks, gplot.Tick{Value: v, Label: strconv.FormatFloat(v, 'f', -1, 64)})
	}
	return ticks
}

// Top draws each borough's most expensive listings over the base map, with
// marker area taken from the listing's price tier. Every listing must carry
// a price.
func Top(base *shape.Layer, tops []listing.BoroughTop, table *tier.Table) (*gplot.Plot, error) {
	n := 0
	var all []listing.Listing
	for _, bt := range tops {
		n = max(n, len(bt.Listings))
		all = append(all, bt.Listings...)
	}

	p := gplot.New()
	setTitle(p, fmt.Sprintf(TopTitle, n), 25)
	p.HideAxes()
	p.Legend.Top = true
	p.Legend.Left = true

	if err := addBaseMap(p, base); err != nil {
		return nil, err
	}

	for _, bt := range tops {
		fill := palette.WithAlpha(palette.Borough(bt.Borough), 0.5)
		p.Legend.Add(bt.Borough, glyphThumb{style: draw.GlyphStyle{
			Color: fill, Radius: vg.Points(6), Shape: draw.BoxGlyph{},
		}})
		if len(bt.Listings) == 0 {
			continue
		}

		sizes, err := table.Sizes(listing.Prices(bt.Listings))
		if err != nil {
			return nil, eris.Wrapf(err, "plot: size markers for %s", bt.Borough)
		}

		xys := make(plotter.XYs, len(bt.Listings))
		for i, l := range bt.Listings {
			xys[i].X = l.Longitude
			xys[i].Y = l.Latitude
		}

		dots, err := plotter.NewScatter(xys)
		if err != nil {
			return nil, eris.Wrapf(err, "plot: scatter for %s", bt.Borough)
		}
		dots.GlyphStyleFunc = func(i int) draw.GlyphStyle {
			return draw.GlyphStyle{Color: fill, Radius: markerRadius(sizes[i]), Shape: draw.CircleGlyph{}}
		}

		edges, err := plotter.NewScatter(xys)
		if err != nil {
			return nil, eris.Wrapf(err, "plot: edges for %s", bt.Borough)
		}
		edges.GlyphStyleFunc = func(i int) draw.GlyphStyle {
			return draw.GlyphStyle{Color: palette.Black, Radius: markerRadius(sizes[i]), Shape: draw.RingGlyph{}}
		}

		p.Add(dots, edges)
	}

	lo, hi, ok := listing.PriceRange(all)
	if ok {
		labels := RangeLabels(table, lo, hi, "$")
		for i, tr := range table.Tiers() {
			p.Legend.Add(labels[i], glyphThumb{style: draw.GlyphStyle{
				Color: palette.Black, Radius: markerRadius(tr.Size), Shape: draw.CircleGlyph{},
			}})
		}
	}

	return p, nil
}

// markerRadius converts a marker area in points squared to a glyph radius.
func markerRadius(area float64) vg.Length {
	if area <= 0 {
		return vg.Points(1)
	}
	return vg.Points(math.Sqrt(area) / 2)
}

// RangeLabels describes each tier's price span as "lo - hi unit". Bounds are
// whole-unit prices, so a tier after bound b starts at b+1. Each span is
// narrowed to the data range [lo, hi]; a tier the data never reaches keeps
// its full span, or "<= b" and "> b" for the open-ended first and top tiers.
func RangeLabels(table *tier.Table, lo, hi float64, unit string) []string {
	bounds := table.Bounds()
	out := make([]string, 0, len(bounds)+1)
	for i, b := range bounds {
		if i == 0 {
			if lo > b.Max {
				out = append(out, fmt.Sprintf("<= %s %s", num(b.Max), unit))
				continue
			}
			out = append(out, span(lo, min(hi, b.Max), unit))
			continue
		}
		from := bounds[i-1].Max + 1
		start, end := max(lo, from), min(hi, b.Max)
		if start > end {
			start, end = from, b.Max
		}
		out = append(out, span(start, end, unit))
	}

	last := bounds[len(bounds)-1].Max
	if hi <= last {
		return append(out, fmt.Sprintf("> %s %s", num(last), unit))
	}
	return append(out, span(max(lo, last+1), hi, unit))
}

func span(from, to float64, unit string) string {
	return fmt.Sprintf("%s - %s %s", num(from), num(to), unit)
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
