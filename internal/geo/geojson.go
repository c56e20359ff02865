package geo

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/golang/geo/r2"
)

// ErrNoFeatures is returned when a boundary document has no usable features.
var ErrNoFeatures = errors.New("no country features")

// nameKeys are the property keys checked, in order, for a feature's name.
var nameKeys = []string{"name", "NAME", "ADMIN", "admin", "name_en", "NAME_EN", "country", "COUNTRY"}

type featureCollection struct {
	Features []struct {
		Properties map[string]any `json:"properties"`
		Geometry   *struct {
			Type        string          `json:"type"`
			Coordinates json.RawMessage `json:"coordinates"`
		} `json:"geometry"`
	} `json:"features"`
}

// DecodeFeatureCollection parses a GeoJSON FeatureCollection of Polygon and
// MultiPolygon country boundaries. Features without a name, or with another
// geometry type, are skipped.
func DecodeFeatureCollection(data []byte) ([]Feature, error) {
	var fc featureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("decode feature collection: %w", err)
	}

	features := make([]Feature, 0, len(fc.Features))
	for _, raw := range fc.Features {
		name := featureName(raw.Properties)
		if name == "" || raw.Geometry == nil {
			continue
		}

		var polygons []Polygon
		switch raw.Geometry.Type {
		case "Polygon":
			var coords [][][]float64
			if err := json.Unmarshal(raw.Geometry.Coordinates, &coords); err != nil {
				continue
			}
			polygons = []Polygon{toPolygon(coords)}
		case "MultiPolygon":
			var coords [][][][]float64
			if err := json.Unmarshal(raw.Geometry.Coordinates, &coords); err != nil {
				continue
			}
			for _, c := range coords {
				polygons = append(polygons, toPolygon(c))
			}
		default:
			continue
		}

		features = append(features, NewFeature(name, polygons))
	}

	if len(features) == 0 {
		return nil, ErrNoFeatures
	}
	return features, nil
}

func featureName(props map[string]any) string {
	for _, key := range nameKeys {
		if s, ok := props[key].(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

// toPolygon converts [lng, lat] ring coordinates. Positions with fewer than
// two values are dropped.
func toPolygon(rings [][][]float64) Polygon {
	poly := make(Polygon, 0, len(rings))
	for _, coords := range rings {
		ring := make(Ring, 0, len(coords))
		for _, pos := range coords {
			if len(pos) < 2 {
				continue
			}
			ring = append(ring, r2.Point{X: pos[0], Y: pos[1]})
		}
		poly = append(poly, ring)
	}
	return poly
}
