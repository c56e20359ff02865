package polyline_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/travelrecap/travelrecap/pkg/polyline"
)

var googleExample = []polyline.Coordinate{
	{Lat: 38.5, Lng: -120.2},
	{Lat: 40.7, Lng: -120.95},
	{Lat: 43.252, Lng: -126.453},
}

func assertCoordsInDelta(t *testing.T, want, got []polyline.Coordinate, delta float64) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		assert.InDelta(t, want[i].Lat, got[i].Lat, delta, "lat %d", i)
		assert.InDelta(t, want[i].Lng, got[i].Lng, delta, "lng %d", i)
	}
}

func TestEncode_GoogleExample(t *testing.T) {
	assert.Equal(t, "_p~iF~ps|U_ulLnnqC_mqNvxq`@", polyline.Encode(googleExample))
}

func TestDecode_GoogleExample(t *testing.T) {
	tests := []struct {
		name    string
		encoded string
		want    []polyline.Coordinate
	}{
		{"single point", "_p~iF~ps|U", googleExample[:1]},
		{"two points", "_p~iF~ps|U_ulLnnqC", googleExample[:2]},
		{"three points", "_p~iF~ps|U_ulLnnqC_mqNvxq`@", googleExample},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := polyline.Decode(tt.encoded)
			require.NoError(t, err)
			assertCoordsInDelta(t, tt.want, got, 1e-5)
		})
	}
}

func TestDecode_Empty(t *testing.T) {
	got, err := polyline.Decode("")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Equal(t, "", polyline.Encode(nil))
}

func TestDecode_Truncated(t *testing.T) {
	_, err := polyline.Decode("_p~iF")
	assert.ErrorIs(t, err, polyline.ErrTruncated)

	_, err = polyline.Decode("_p~iF~ps|")
	assert.ErrorIs(t, err, polyline.ErrTruncated)
}

func TestPrecision(t *testing.T) {
	coords := []polyline.Coordinate{
		{Lat: 52.3740312, Lng: 4.8896901},
		{Lat: -33.8688197, Lng: 151.2092955},
	}

	got, err := polyline.DecodePrecision(polyline.EncodePrecision(coords, 6), 6)
	require.NoError(t, err)
	assertCoordsInDelta(t, coords, got, 1e-6)

	got, err = polyline.Decode(polyline.Encode(coords))
	require.NoError(t, err)
	assertCoordsInDelta(t, coords, got, 1e-5)
}

func TestLength(t *testing.T) {
	tests := []struct {
		name      string
		coords    []polyline.Coordinate
		want      float64
		tolerance float64
	}{
		{"empty", nil, 0, 0},
		{"single point", []polyline.Coordinate{{Lat: 52, Lng: 4}}, 0, 0},
		{
			name:      "Amsterdam to Utrecht",
			coords:    []polyline.Coordinate{{Lat: 52.3676, Lng: 4.9041}, {Lat: 52.0907, Lng: 5.1214}},
			want:      34000,
			tolerance: 2000,
		},
		{
			name:      "one degree of latitude",
			coords:    []polyline.Coordinate{{Lat: 0, Lng: 0}, {Lat: 1, Lng: 0}},
			want:      111195,
			tolerance: 10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, polyline.Length(tt.coords), tt.tolerance)
		})
	}
}

func TestThin(t *testing.T) {
	coords := []polyline.Coordinate{
		{Lat: 52.0, Lng: 4.0},
		{Lat: 52.0001, Lng: 4.0}, // ~11m
		{Lat: 52.01, Lng: 4.0},
		{Lat: 52.0101, Lng: 4.0},
		{Lat: 52.0102, Lng: 4.0},
	}

	thinned := polyline.Thin(coords, 100)
	assert.Equal(t, []polyline.Coordinate{coords[0], coords[2], coords[4]}, thinned)
	assert.Equal(t, coords, polyline.Thin(coords, 0))
}

func BenchmarkEncode(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = polyline.Encode(googleExample)
	}
}
