// Package polyline encodes location trails with Google's encoded polyline
// algorithm and measures them on the sphere.
// See https://developers.google.com/maps/documentation/utilities/polylinealgorithm
package polyline

import (
	"errors"
	"math"

	"github.com/golang/geo/s2"
)

// EarthRadiusMeters is the mean Earth radius used for distances.
const EarthRadiusMeters = 6371008.8

// DefaultPrecision is the number of decimal places used by Google Maps.
const DefaultPrecision = 5

// ErrTruncated is returned when an encoded string ends mid-value.
var ErrTruncated = errors.New("polyline: truncated input")

// Coordinate is a point in degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (c Coordinate) point() s2.Point {
	return s2.PointFromLatLng(s2.LatLngFromDegrees(c.Lat, c.Lng))
}

// Encode encodes coords at DefaultPrecision.
func Encode(coords []Coordinate) string {
	return EncodePrecision(coords, DefaultPrecision)
}

// EncodePrecision encodes coords with the given number of decimal places.
func EncodePrecision(coords []Coordinate, precision int) string {
	if len(coords) == 0 {
		return ""
	}

	factor := math.Pow10(precision)
	buf := make([]byte, 0, len(coords)*6)
	var prevLat, prevLng int64

	for _, c := range coords {
		lat := int64(math.Round(c.Lat * factor))
		lng := int64(math.Round(c.Lng * factor))

		buf = appendValue(buf, lat-prevLat)
		buf = appendValue(buf, lng-prevLng)

		prevLat, prevLng = lat, lng
	}

	return string(buf)
}

func appendValue(buf []byte, v int64) []byte {
	u := uint64(v) << 1
	if v < 0 {
		u = ^u
	}
	for u >= 0x20 {
		buf = append(buf, byte(0x20|(u&0x1f))+63)
		u >>= 5
	}
	return append(buf, byte(u)+63)
}

// Decode decodes a string produced at DefaultPrecision.
func Decode(encoded string) ([]Coordinate, error) {
	return DecodePrecision(encoded, DefaultPrecision)
}

// DecodePrecision decodes a string produced with the given precision.
func DecodePrecision(encoded string, precision int) ([]Coordinate, error) {
	if encoded == "" {
		return nil, nil
	}

	factor := math.Pow10(precision)
	coords := make([]Coordinate, 0, len(encoded)/6)
	var lat, lng int64

	for i := 0; i < len(encoded); {
		dLat, next, err := readValue(encoded, i)
		if err != nil {
			return nil, err
		}
		dLng, next, err := readValue(encoded, next)
		if err != nil {
			return nil, err
		}
		i = next

		lat += dLat
		lng += dLng
		coords = append(coords, Coordinate{
			Lat: float64(lat) / factor,
			Lng: float64(lng) / factor,
		})
	}

	return coords, nil
}

func readValue(s string, i int) (int64, int, error) {
	var u uint64
	var shift uint
	for {
		if i >= len(s) {
			return 0, i, ErrTruncated
		}
		b := uint64(s[i]) - 63
		i++
		u |= (b & 0x1f) << shift
		shift += 5
		if b < 0x20 {
			break
		}
	}

	v := int64(u >> 1)
	if u&1 != 0 {
		v = ^v
	}
	return v, i, nil
}

// Distance returns the great-circle distance between a and b in meters.
func Distance(a, b Coordinate) float64 {
	return a.point().Distance(b.point()).Radians() * EarthRadiusMeters
}

// Length returns the great-circle length of the trail in meters.
func Length(coords []Coordinate) float64 {
	var total float64
	for i := 1; i < len(coords); i++ {
		total += Distance(coords[i-1], coords[i])
	}
	return total
}

// Thin drops points closer than minMeters to the previously kept point.
// The first and last points are kept unless the last repeats the previous
// kept point exactly.
func Thin(coords []Coordinate, minMeters float64) []Coordinate {
	if len(coords) <= 2 || minMeters <= 0 {
		return coords
	}

	out := []Coordinate{coords[0]}
	last := coords[0]
	for _, c := range coords[1 : len(coords)-1] {
		if Distance(last, c) >= minMeters {
			out = append(out, c)
			last = c
		}
	}
	if end := coords[len(coords)-1]; end != last {
		out = append(out, end)
	}
	return out
}
