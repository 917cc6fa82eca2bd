package shape

import (
	"encoding/json"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// GeoJSON encodes the layer as a FeatureCollection. Each feature's id is its
// idField attribute passed through keyFn (nil keeps the raw value), so
// choropleth values can be joined on feature.id.
func (l *Layer) GeoJSON(idField string, keyFn func(string) string) ([]byte, error) {
	fc := &geojson.FeatureCollection{
		Features: make([]*geojson.Feature, 0, len(l.Features)),
	}
	for _, f := range l.Features {
		id := f.Attr(idField)
		if keyFn != nil {
			id = keyFn(id)
		}
		props := make(map[string]any, len(f.Attrs))
		for k, v := range f.Attrs {
			props[k] = v
		}
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:         id,
			Geometry:   f.Geom,
			Properties: props,
		})
	}

	data, err := json.Marshal(fc)
	if err != nil {
		return nil, eris.Wrap(err, "shape: encode geojson")
	}
	return data, nil
}
