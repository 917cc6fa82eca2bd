// Package shape reads ESRI shapefiles into go-geom features.
package shape

import (
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"
)

// Feature is one shapefile record. Attribute keys are lower-cased field names.
type Feature struct {
	Attrs map[string]string
	Geom  geom.T
}

// Attr returns the named attribute (case-insensitive).
func (f Feature) Attr(name string) string {
	return f.Attrs[strings.ToLower(name)]
}

// Layer is every feature read from one shapefile.
type Layer struct {
	Name     string
	Features []Feature
}

// Read opens a shapefile and converts each record. Records with a null or
// unsupported geometry are skipped.
func Read(shpPath string) (*Layer, error) {
	reader, err := shp.Open(shpPath)
	if err != nil {
		return nil, eris.Wrapf(err, "shape: open shapefile %s", shpPath)
	}
	defer func() { _ = reader.Close() }()

	fields := reader.Fields()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = strings.ToLower(strings.TrimRight(f.String(), "\x00"))
	}

	layer := &Layer{Name: shpPath}
	var skipped int

	for reader.Next() {
		_, s := reader.Shape()

		g := ToGeom(s)
		if g == nil {
			skipped++
			continue
		}

		attrs := make(map[string]string, len(names))
		for i, name := range names {
			val := strings.TrimRight(reader.Attribute(i), "\x00")
			attrs[name] = strings.TrimSpace(val)
		}

		layer.Features = append(layer.Features, Feature{Attrs: attrs, Geom: g})
	}

	if skipped > 0 {
		zap.L().Debug("shape: skipped shapefile records",
			zap.String("path", shpPath),
			zap.Int("skipped", skipped),
		)
	}

	zap.L().Info("shape: loaded layer",
		zap.String("path", shpPath),
		zap.Int("features", len(layer.Features)),
	)
	return layer, nil
}

// Bounds returns the extent of every feature, or nil for an empty layer.
func (l *Layer) Bounds() *geom.Bounds {
	if len(l.Features) == 0 {
		return nil
	}
	b := geom.NewBounds(geom.XY)
	for _, f := range l.Features {
		b.Extend(f.Geom)
	}
	return b
}

// Rings returns every polygon ring and line part in the layer as coordinate
// lists, ready for outline plotting.
func (l *Layer) Rings() [][]geom.Coord {
	var out [][]geom.Coord
	for _, f := range l.Features {
		out = append(out, Rings(f.Geom)...)
	}
	return out
}
