package shape

import (
	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"
	"go.uber.org/zap"
)

// SRID assumed for every geometry read from disk (WGS 84 lon/lat).
const SRID = 4326

// ToGeom converts a go-shp shape to a go-geom geometry. Polygons become
// MultiPolygons with one polygon per part; polylines become MultiLineStrings.
// Returns nil for nil, empty or unsupported shapes.
func ToGeom(s shp.Shape) geom.T {
	switch v := s.(type) {
	case *shp.Point:
		return geom.NewPointFlat(geom.XY, []float64{v.X, v.Y}).SetSRID(SRID)
	case *shp.PolyLine:
		return polyLineToMultiLineString(v)
	case *shp.Polygon:
		return polygonToMultiPolygon(v)
	default:
		return nil
	}
}

// EncodeWKB serialises g as little-endian EWKB.
func EncodeWKB(g geom.T) ([]byte, error) {
	if g == nil {
		return nil, nil
	}
	data, err := ewkb.Marshal(g, ewkb.NDR)
	if err != nil {
		return nil, eris.Wrap(err, "shape: encode WKB")
	}
	return data, nil
}

// Rings flattens g into coordinate lists: polygon rings, line parts or a
// single-coordinate list for a point.
func Rings(g geom.T) [][]geom.Coord {
	switch v := g.(type) {
	case *geom.MultiPolygon:
		var out [][]geom.Coord
		for i := 0; i < v.NumPolygons(); i++ {
			p := v.Polygon(i)
			for j := 0; j < p.NumLinearRings(); j++ {
				out = append(out, p.LinearRing(j).Coords())
			}
		}
		return out
	case *geom.Polygon:
		var out [][]geom.Coord
		for j := 0; j < v.NumLinearRings(); j++ {
			out = append(out, v.LinearRing(j).Coords())
		}
		return out
	case *geom.MultiLineString:
		var out [][]geom.Coord
		for i := 0; i < v.NumLineStrings(); i++ {
			out = append(out, v.LineString(i).Coords())
		}
		return out
	case *geom.Point:
		return [][]geom.Coord{{v.Coords()}}
	default:
		return nil
	}
}

// partRange returns the [start, end) point indexes of part i.
func partRange(parts []int32, numPoints int, i int) (int32, int32) {
	start := parts[i]
	if i+1 < len(parts) {
		return start, parts[i+1]
	}
	return start, int32(numPoints)
}

func polyLineToMultiLineString(pl *shp.PolyLine) geom.T {
	if pl == nil || len(pl.Parts) == 0 || len(pl.Points) == 0 {
		return nil
	}

	mls := geom.NewMultiLineString(geom.XY).SetSRID(SRID)
	for i := range pl.Parts {
		start, end := partRange(pl.Parts, len(pl.Points), i)
		ls := geom.NewLineStringFlat(geom.XY, flatPoints(pl.Points[start:end]))
		if err := mls.Push(ls); err != nil {
			zap.L().Debug("shape: skipping malformed linestring part", zap.Int("part", i), zap.Error(err))
		}
	}

	if mls.NumLineStrings() == 0 {
		return nil
	}
	return mls
}

func polygonToMultiPolygon(p *shp.Polygon) geom.T {
	if p == nil || len(p.Parts) == 0 || len(p.Points) == 0 {
		return nil
	}

	mp := geom.NewMultiPolygon(geom.XY).SetSRID(SRID)
	for i := range p.Parts {
		start, end := partRange(p.Parts, len(p.Points), i)
		ring := geom.NewLinearRingFlat(geom.XY, flatPoints(p.Points[start:end]))
		poly := geom.NewPolygon(geom.XY)
		if err := poly.Push(ring); err != nil {
			zap.L().Debug("shape: skipping malformed polygon ring", zap.Int("part", i), zap.Error(err))
			continue
		}
		if err := mp.Push(poly); err != nil {
			zap.L().Debug("shape: skipping malformed polygon part", zap.Int("part", i), zap.Error(err))
		}
	}

	if mp.NumPolygons() == 0 {
		return nil
	}
	return mp
}

func flatPoints(pts []shp.Point) []float64 {
	flat := make([]float64, 0, len(pts)*2)
	for _, pt := range pts {
		flat = append(flat, pt.X, pt.Y)
	}
	return flat
}
