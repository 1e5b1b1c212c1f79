// Package geojson turns raw GeoJSON documents into orb geometries at the
// index boundary. Features and FeatureCollections are flattened to a
// geometry collection; properties are discarded.
package geojson

import (
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// TypeError reports a GeoJSON document whose top-level type is not usable.
type TypeError struct {
	Type string
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("unsupported GeoJSON type %q", e.Type)
}

type typeProbe struct {
	Type string `json:"type"`
}

// Decode parses a GeoJSON document into an orb geometry. A Feature yields
// a collection holding its geometry; a FeatureCollection yields a
// collection of its features' geometries.
func Decode(data []byte) (orb.Geometry, error) {
	var probe typeProbe
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, err
	}
	switch probe.Type {
	case "Feature":
		feature, err := geojson.UnmarshalFeature(data)
		if err != nil {
			return nil, err
		}
		if feature.Geometry == nil {
			return orb.Collection{}, nil
		}
		return orb.Collection{feature.Geometry}, nil
	case "FeatureCollection":
		fc, err := geojson.UnmarshalFeatureCollection(data)
		if err != nil {
			return nil, err
		}
		collection := make(orb.Collection, 0, len(fc.Features))
		for _, feature := range fc.Features {
			if feature.Geometry != nil {
				collection = append(collection, feature.Geometry)
			}
		}
		return collection, nil
	case "Point", "MultiPoint", "LineString", "MultiLineString",
		"Polygon", "MultiPolygon", "GeometryCollection":
		g, err := geojson.UnmarshalGeometry(data)
		if err != nil {
			return nil, err
		}
		return g.Geometry(), nil
	default:
		return nil, &TypeError{Type: probe.Type}
	}
}
