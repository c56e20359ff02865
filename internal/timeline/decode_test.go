package timeline_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/travelrecap/travelrecap/internal/timeline"
)

const semanticSegmentsExport = `{
  "semanticSegments": [
    {
      "startTime": "2024-03-01T09:00:00.000+01:00",
      "endTime": "2024-03-01T11:00:00.000+01:00",
      "visit": {
        "probability": 0.92,
        "topCandidate": {
          "placeId": "ChIJ-home",
          "semanticType": "HOME",
          "placeLocation": {"latLng": "52.3676°, 4.9041°"}
        }
      }
    },
    {
      "startTime": "2024-03-01T11:00:00.000+01:00",
      "endTime": "2024-03-01T11:30:00.000+01:00",
      "activity": {
        "distanceMeters": 12500.5,
        "topCandidate": {"type": "IN_PASSENGER_VEHICLE", "probability": 0.8}
      }
    },
    {
      "startTime": "2024-03-01T12:00:00.000+01:00",
      "endTime": "2024-03-01T14:00:00.000+01:00",
      "timelinePath": [
        {"point": "52.10°, 5.10°", "time": "2024-03-01T12:05:00.000+01:00"}
      ]
    }
  ],
  "rawSignals": [],
  "userLocationProfile": {}
}`

const segmentArrayExport = `[
  {
    "startTime": "2023-07-10T08:00:00.000-07:00",
    "endTime": "2023-07-10T09:00:00.000-07:00",
    "visit": {
      "probability": "0.75",
      "topCandidate": {
        "placeID": "ChIJ-cafe",
        "semanticType": "Unknown",
        "probability": "0.5",
        "placeLocation": "geo:37.774900,-122.419400"
      }
    }
  },
  {
    "startTime": "2023-07-10T09:00:00.000-07:00",
    "endTime": "2023-07-10T09:20:00.000-07:00",
    "activity": {
      "start": "geo:37.774900,-122.419400",
      "end": "geo:37.780000,-122.410000",
      "distanceMeters": "1530.0",
      "topCandidate": {"type": "in bus", "probability": "0.9"}
    }
  },
  {
    "startTime": "2023-07-10T10:00:00.000-07:00",
    "endTime": "2023-07-10T12:00:00.000-07:00",
    "timelinePath": [
      {"point": "geo:37.78,-122.41", "durationMinutesOffsetFromStartTime": "15"},
      {"point": "geo:37.79,-122.40", "durationMinutesOffsetFromStartTime": "45"}
    ]
  }
]`

func TestDecode_SemanticSegments(t *testing.T) {
	decoded, err := timeline.Decode([]byte(semanticSegmentsExport))
	require.NoError(t, err)

	assert.Equal(t, timeline.FormatSemanticSegments, decoded.Format)
	require.Len(t, decoded.Segments, 3)
	assert.Zero(t, decoded.Skipped)

	visit := decoded.Segments[0].Visit
	require.NotNil(t, visit)
	assert.Equal(t, "ChIJ-home", visit.PlaceID)
	assert.Equal(t, "52.3676°, 4.9041°", visit.LatLng)
	require.NotNil(t, visit.Probability)
	assert.InDelta(t, 0.92, *visit.Probability, 1e-9)

	act := decoded.Segments[1].Activity
	require.NotNil(t, act)
	assert.Equal(t, "IN_PASSENGER_VEHICLE", act.Type)
	assert.InDelta(t, 12500.5, act.DistanceMeters, 1e-9)

	path := decoded.Segments[2].TimelinePath
	require.Len(t, path, 1)
	assert.False(t, path[0].Time.IsZero())
}

func TestDecode_SegmentArray(t *testing.T) {
	decoded, err := timeline.Decode([]byte(segmentArrayExport))
	require.NoError(t, err)

	assert.Equal(t, timeline.FormatSegmentArray, decoded.Format)
	require.Len(t, decoded.Segments, 3)

	visit := decoded.Segments[0].Visit
	require.NotNil(t, visit)
	assert.Equal(t, "ChIJ-cafe", visit.PlaceID)
	assert.Equal(t, "geo:37.774900,-122.419400", visit.LatLng)
	require.NotNil(t, visit.Probability)
	assert.InDelta(t, 0.75, *visit.Probability, 1e-9)

	act := decoded.Segments[1].Activity
	require.NotNil(t, act)
	assert.Equal(t, "IN_BUS", act.Type)
	assert.InDelta(t, 1530.0, act.DistanceMeters, 1e-9)
	assert.Equal(t, "geo:37.780000,-122.410000", act.End)

	path := decoded.Segments[2].TimelinePath
	require.Len(t, path, 2)
	assert.InDelta(t, 15.0, path[0].OffsetMinutes, 1e-9)
	assert.InDelta(t, 45.0, path[1].OffsetMinutes, 1e-9)
}

func TestDecode_UnparseableDistanceIsZero(t *testing.T) {
	data := `[{"startTime":"2023-01-01T00:00:00Z","activity":{"distanceMeters":"far","topCandidate":{"type":"walking"}}}]`

	decoded, err := timeline.Decode([]byte(data))
	require.NoError(t, err)
	require.Len(t, decoded.Segments, 1)
	assert.Zero(t, decoded.Segments[0].Activity.DistanceMeters)
	assert.Equal(t, "WALKING", decoded.Segments[0].Activity.Type)
}

func TestDecode_UnrecognizedRoot(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "object without segments", data: `{"timelineObjects": []}`},
		{name: "segments not an array", data: `{"semanticSegments": {"a": 1}}`},
		{name: "scalar root", data: `42`},
		{name: "string root", data: `"hello"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decoded, err := timeline.Decode([]byte(tt.data))
			require.NoError(t, err)
			assert.Equal(t, timeline.FormatUnknown, decoded.Format)
			assert.Empty(t, decoded.Segments)
		})
	}
}

func TestDecode_MalformedJSON(t *testing.T) {
	_, err := timeline.Decode([]byte(`{"semanticSegments": [`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, timeline.ErrMalformedJSON))
}

func TestDecode_SkipsBadElements(t *testing.T) {
	data := `[
	  {"startTime": "2023-01-01T00:00:00Z", "visit": {"topCandidate": {"placeID": "a", "placeLocation": "geo:1,2"}}},
	  "not a segment",
	  {"startTime": "2023-01-02T00:00:00Z", "visit": {"topCandidate": {"placeID": "b", "placeLocation": "geo:3,4"}}}
	]`

	decoded, err := timeline.Decode([]byte(data))
	require.NoError(t, err)
	assert.Len(t, decoded.Segments, 2)
	assert.Equal(t, 1, decoded.Skipped)
}

func TestDecode_MistypedFieldsKeepSegment(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"semantic segments", `{"semanticSegments": [
		  {"startTime": 2024, "endTime": "2024-03-01T11:00:00Z",
		   "visit": {"probability": 0.9, "topCandidate": {"placeId": 42, "name": ["x"], "placeLocation": {"latLng": 7}}}},
		  {"startTime": "2024-03-01T12:00:00Z", "activity": {"distanceMeters": 500, "topCandidate": {"type": true}}}
		]}`},
		{"segment array", `[
		  {"startTime": 2024, "endTime": "2024-03-01T11:00:00Z",
		   "visit": {"probability": "0.9", "topCandidate": {"placeID": 42, "name": ["x"], "placeLocation": false}}},
		  {"startTime": "2024-03-01T12:00:00Z", "activity": {"distanceMeters": "500", "topCandidate": {"type": true}}}
		]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decoded, err := timeline.Decode([]byte(tt.data))
			require.NoError(t, err)
			assert.Zero(t, decoded.Skipped)
			require.Len(t, decoded.Segments, 2)

			visit := decoded.Segments[0]
			assert.True(t, visit.Start.IsZero())
			assert.False(t, visit.End.IsZero())
			require.NotNil(t, visit.Visit)
			assert.Empty(t, visit.Visit.PlaceID)
			assert.Empty(t, visit.Visit.Name)
			assert.Empty(t, visit.Visit.LatLng)
			require.NotNil(t, visit.Visit.Probability)
			assert.InDelta(t, 0.9, *visit.Visit.Probability, 1e-9)

			activity := decoded.Segments[1]
			require.NotNil(t, activity.Activity)
			assert.Equal(t, "UNKNOWN", activity.Activity.Type)
			assert.InDelta(t, 500, activity.Activity.DistanceMeters, 1e-9)
		})
	}
}

func TestTopLevelKeys(t *testing.T) {
	keys := timeline.TopLevelKeys([]byte(`{"timelineObjects": [], "deviceSettings": {}}`))
	assert.Equal(t, []string{"deviceSettings", "timelineObjects"}, keys)

	assert.Nil(t, timeline.TopLevelKeys([]byte(`[1, 2]`)))
}
