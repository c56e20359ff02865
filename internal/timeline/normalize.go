package timeline

import (
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/goccy/go-json"
)

// UnknownActivityType is the canonical token for an activity with no type.
const UnknownActivityType = "UNKNOWN"

// Coordinate is a parsed latitude/longitude pair in degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// ParseLatLng parses coordinate strings such as "12.97°, 77.59°" or
// "geo:12.97,77.59". It reports false for anything that does not yield
// exactly two numeric parts.
func ParseLatLng(s string) (Coordinate, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "geo:")
	s = strings.ReplaceAll(s, "°", "")

	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return Coordinate{}, false
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return Coordinate{}, false
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return Coordinate{}, false
	}

	if !finite(lat) || !finite(lng) {
		return Coordinate{}, false
	}

	return Coordinate{Lat: lat, Lng: lng}, true
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// CanonicalActivityType uppercases an activity type and replaces each run of
// whitespace with a single underscore. The result is idempotent.
func CanonicalActivityType(s string) string {
	fields := strings.FieldsFunc(s, unicode.IsSpace)
	if len(fields) == 0 {
		return UnknownActivityType
	}
	return strings.ToUpper(strings.Join(fields, "_"))
}

// ParseNumber parses a numeric string. Failures yield 0 and false.
func ParseNumber(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || !finite(v) {
		return 0, false
	}
	return v, true
}

// flexFloat decodes a JSON number, a numeric string, or null.
type flexFloat struct {
	Value   float64
	Present bool
	Valid   bool
}

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	*f = flexFloat{}
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	f.Present = true

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		f.Value, f.Valid = ParseNumber(s)
		return nil
	}

	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return nil
	}
	f.Value, f.Valid = v, true
	return nil
}

// flexString decodes a JSON string. Any other value decodes to "" so a
// mistyped field does not discard the rest of its segment.
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	*s = ""
	if len(data) == 0 || data[0] != '"' {
		return nil
	}
	var v string
	if err := json.Unmarshal(data, &v); err != nil {
		return nil
	}
	*s = flexString(v)
	return nil
}

// orZero returns the value when it parsed, and 0 otherwise.
func (f flexFloat) orZero() float64 {
	if !f.Valid {
		return 0
	}
	return f.Value
}

// ptr returns nil unless the value is present and parsed.
func (f flexFloat) ptr() *float64 {
	if !f.Valid {
		return nil
	}
	v := f.Value
	return &v
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05",
}

// ParseTimestamp parses ISO-8601 timestamps with any sub-second precision.
// Timestamps without an offset are read as UTC.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
