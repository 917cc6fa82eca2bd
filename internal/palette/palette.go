// Package palette provides the named colors and color ramps shared by the
// static plots and the web maps.
package palette

import (
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/rotisserie/eris"
)

// Named colors used across renderers.
var (
	Gainsboro = mustHex("#dcdcdc")
	Black     = mustHex("#000000")
	Red       = mustHex("#ff0000")
	Green     = mustHex("#008000")
	Blue      = mustHex("#0000ff")
	Purple    = mustHex("#800080")
	Orange    = mustHex("#ffa500")
	Magenta   = mustHex("#ff00ff")
	Cyan      = mustHex("#00ffff")
)

// Borough returns the marker color for a borough, falling back to gray for
// names outside the five boroughs.
func Borough(name string) colorful.Color {
	switch name {
	case "Brooklyn":
		return Red
	case "Manhattan":
		return Green
	case "Queens":
		return Blue
	case "Staten Island":
		return Purple
	case "Bronx":
		return Orange
	default:
		return mustHex("#808080")
	}
}

// Parse reads a "#rrggbb" string.
func Parse(hex string) (colorful.Color, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return colorful.Color{}, eris.Wrapf(err, "palette: parse %q", hex)
	}
	return c, nil
}

// Ramp returns n colors blended in Lab space from lo to hi inclusive.
func Ramp(lo, hi colorful.Color, n int) []colorful.Color {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []colorful.Color{lo}
	}
	out := make([]colorful.Color, n)
	for i := range out {
		out[i] = lo.BlendLab(hi, float64(i)/float64(n-1)).Clamped()
	}
	return out
}

// At returns the color at position t in [0,1] along the lo->hi ramp.
func At(lo, hi colorful.Color, t float64) colorful.Color {
	t = max(0, min(1, t))
	return lo.BlendLab(hi, t).Clamped()
}

// WithAlpha converts c to an NRGBA with the given opacity in [0,1].
func WithAlpha(c colorful.Color, alpha float64) color.NRGBA {
	r, g, b := c.Clamped().RGB255()
	alpha = max(0, min(1, alpha))
	return color.NRGBA{R: r, G: g, B: b, A: uint8(alpha*255 + 0.5)}
}

func mustHex(hex string) colorful.Color {
	c, err := colorful.Hex(hex)
	if err != nil {
		panic(err)
	}
	return c
}
