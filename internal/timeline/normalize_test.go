package timeline_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/travelrecap/travelrecap/internal/timeline"
)

func TestParseLatLng(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantLat float64
		wantLng float64
		wantOK  bool
	}{
		{name: "degree string", input: "12.9716°, 77.5946°", wantLat: 12.9716, wantLng: 77.5946, wantOK: true},
		{name: "geo uri", input: "geo:12.952684,77.693002", wantLat: 12.952684, wantLng: 77.693002, wantOK: true},
		{name: "plain pair", input: "10, 20", wantLat: 10, wantLng: 20, wantOK: true},
		{name: "negative values", input: "-33.8688°, -151.2093°", wantLat: -33.8688, wantLng: -151.2093, wantOK: true},
		{name: "surrounding whitespace", input: "  52.37 ,  4.90  ", wantLat: 52.37, wantLng: 4.90, wantOK: true},
		{name: "empty", input: "", wantOK: false},
		{name: "single part", input: "12.5", wantOK: false},
		{name: "three parts", input: "1,2,3", wantOK: false},
		{name: "non numeric", input: "north, east", wantOK: false},
		{name: "nan", input: "NaN, 4", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := timeline.ParseLatLng(tt.input)
			require.Equal(t, tt.wantOK, ok)
			if !tt.wantOK {
				return
			}
			assert.InDelta(t, tt.wantLat, got.Lat, 1e-9)
			assert.InDelta(t, tt.wantLng, got.Lng, 1e-9)
		})
	}
}

func TestCanonicalActivityType(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"in bus", "IN_BUS"},
		{"IN_BUS", "IN_BUS"},
		{"in_bus", "IN_BUS"},
		{"in  passenger\tvehicle", "IN_PASSENGER_VEHICLE"},
		{"walking", "WALKING"},
		{"", timeline.UnknownActivityType},
		{"   ", timeline.UnknownActivityType},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := timeline.CanonicalActivityType(tt.input)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, timeline.CanonicalActivityType(got), "canonicalization must be idempotent")
		})
	}
}

func TestParseNumber(t *testing.T) {
	v, ok := timeline.ParseNumber("1234.5")
	assert.True(t, ok)
	assert.InDelta(t, 1234.5, v, 1e-9)

	v, ok = timeline.ParseNumber("twelve")
	assert.False(t, ok)
	assert.Zero(t, v)
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		wantOK bool
		year   int
	}{
		{name: "millis with offset", input: "2024-01-02T10:00:00.000+05:30", wantOK: true, year: 2024},
		{name: "seconds utc", input: "2023-12-31T23:59:59Z", wantOK: true, year: 2023},
		{name: "micros", input: "2022-06-01T08:00:00.123456-07:00", wantOK: true, year: 2022},
		{name: "no offset", input: "2021-03-04T05:06:07", wantOK: true, year: 2021},
		{name: "empty", input: "", wantOK: false},
		{name: "garbage", input: "yesterday", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := timeline.ParseTimestamp(tt.input)
			require.Equal(t, tt.wantOK, ok)
			if ok {
				assert.Equal(t, tt.year, got.Year())
			}
		})
	}
}
