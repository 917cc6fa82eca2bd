// Package plot renders the static PNG charts: the listing locations map, the
// per-borough bar chart and the top-N sized-marker map.
package plot

import (
	"io"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	gplot "gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/sells-group/listing-atlas/internal/palette"
	"github.com/sells-group/listing-atlas/internal/shape"
)

// Size is a figure size in inches.
type Size struct {
	Width  float64
	Height float64
}

// MapSize returns a figure whose aspect ratio matches the layer's extent,
// with the longer side set to inches.
func MapSize(layer *shape.Layer, inches float64) Size {
	b := layer.Bounds()
	if b == nil {
		return Size{Width: inches, Height: inches}
	}
	dx := b.Max(0) - b.Min(0)
	dy := b.Max(1) - b.Min(1)
	if dx <= 0 || dy <= 0 {
		return Size{Width: inches, Height: inches}
	}
	if dx >= dy {
		return Size{Width: inches, Height: inches * dy / dx}
	}
	return Size{Width: inches * dx / dy, Height: inches}
}

// Save writes p to path; the format follows the file extension.
func Save(p *gplot.Plot, size Size, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrapf(err, "plot: create dir for %s", path)
	}
	if err := p.Save(vg.Length(size.Width)*vg.Inch, vg.Length(size.Height)*vg.Inch, path); err != nil {
		return eris.Wrapf(err, "plot: save %s", path)
	}
	return nil
}

// WritePNG renders p as PNG to w.
func WritePNG(p *gplot.Plot, size Size, w io.Writer) error {
	wt, err := p.WriterTo(vg.Length(size.Width)*vg.Inch, vg.Length(size.Height)*vg.Inch, "png")
	if err != nil {
		return eris.Wrap(err, "plot: png writer")
	}
	if _, err := wt.WriteTo(w); err != nil {
		return eris.Wrap(err, "plot: write png")
	}
	return nil
}

// addBaseMap draws every polygon ring of layer filled gainsboro with a black
// outline. A nil layer draws nothing.
func addBaseMap(p *gplot.Plot, layer *shape.Layer) error {
	if layer == nil {
		return nil
	}
	for _, ring := range layer.Rings() {
		if len(ring) < 3 {
			continue
		}
		pg, err := plotter.NewPolygon(coordsXY(ring))
		if err != nil {
			return eris.Wrap(err, "plot: base map polygon")
		}
		pg.Color = palette.Gainsboro
		pg.LineStyle.Color = palette.Black
		pg.LineStyle.Width = vg.Points(0.5)
		p.Add(pg)
	}
	return nil
}

func coordsXY(coords []geom.Coord) plotter.XYs {
	xys := make(plotter.XYs, len(coords))
	for i, c := range coords {
		xys[i].X = c.X()
		xys[i].Y = c.Y()
	}
	return xys
}

// glyphThumb is a legend entry drawn as a single glyph.
type glyphThumb struct {
	style draw.GlyphStyle
}

func (g glyphThumb) Thumbnail(c *draw.Canvas) {
	c.DrawGlyph(g.style, c.Center())
}

func setTitle(p *gplot.Plot, title string, points float64) {
	p.Title.Text = title
	p.Title.TextStyle.Font.Size = vg.Points(points)
}
