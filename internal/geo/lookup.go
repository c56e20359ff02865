// Package geo resolves coordinates to countries from GeoJSON boundaries,
// without any network geocoding.
package geo

import (
	"github.com/golang/geo/r2"
)

// denominatorEpsilon keeps the edge intersection finite on horizontal edges.
const denominatorEpsilon = 1e-12

// Ring is a closed sequence of vertices with X as longitude and Y as latitude.
type Ring []r2.Point

// Polygon is a list of rings. Every ring is treated as additive; interior
// holes are not subtracted.
type Polygon []Ring

// Feature is a named country boundary.
type Feature struct {
	Name     string
	Polygons []Polygon

	bounds r2.Rect
}

// NewFeature builds a Feature and its bounding rectangle.
func NewFeature(name string, polygons []Polygon) Feature {
	f := Feature{Name: name, Polygons: polygons, bounds: r2.EmptyRect()}
	for _, poly := range polygons {
		for _, ring := range poly {
			for _, p := range ring {
				f.bounds = f.bounds.AddPoint(p)
			}
		}
	}
	return f
}

// Contains reports whether the point lies inside any ring of the feature.
func (f Feature) Contains(lat, lng float64) bool {
	p := r2.Point{X: lng, Y: lat}
	if !f.bounds.ContainsPoint(p) {
		return false
	}
	for _, poly := range f.Polygons {
		for _, ring := range poly {
			if ring.Contains(p) {
				return true
			}
		}
	}
	return false
}

// Contains runs an even-odd ray cast from p towards positive X.
func (r Ring) Contains(p r2.Point) bool {
	inside := false
	for i, j := 0, len(r)-1; i < len(r); j, i = i, i+1 {
		a, b := r[i], r[j]
		if (a.Y > p.Y) != (b.Y > p.Y) &&
			p.X < (b.X-a.X)*(p.Y-a.Y)/(b.Y-a.Y+denominatorEpsilon)+a.X {
			inside = !inside
		}
	}
	return inside
}

// CountryLookup maps coordinates to country names by scanning features in
// order; the first containing feature wins. It is immutable after
// construction and safe for concurrent use. A nil *CountryLookup finds nothing.
type CountryLookup struct {
	features []Feature
}

// NewCountryLookup creates a lookup over features.
func NewCountryLookup(features []Feature) *CountryLookup {
	cpy := make([]Feature, len(features))
	copy(cpy, features)
	return &CountryLookup{features: cpy}
}

// Country returns the name of the first feature containing the point.
func (l *CountryLookup) Country(lat, lng float64) (string, bool) {
	if l == nil {
		return "", false
	}
	for _, f := range l.features {
		if f.Contains(lat, lng) {
			return f.Name, true
		}
	}
	return "", false
}

// Len returns the number of features loaded.
func (l *CountryLookup) Len() int {
	if l == nil {
		return 0
	}
	return len(l.features)
}
