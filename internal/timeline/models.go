// Package timeline ingests location-history exports and aggregates travel statistics.
package timeline

import "time"

// Segment is one normalized timeline entry. It carries at most one of Visit
// or Activity and may carry a recorded trail.
type Segment struct {
	StartTime    string      `json:"startTime,omitempty"`
	EndTime      string      `json:"endTime,omitempty"`
	Visit        *Visit      `json:"visit,omitempty"`
	Activity     *Activity   `json:"activity,omitempty"`
	TimelinePath []PathPoint `json:"timelinePath,omitempty"`

	// Country is resolved during extraction for visit segments.
	Country string `json:"country,omitempty"`

	// Start and End are zero when the raw timestamp is absent or unparseable.
	Start time.Time `json:"-"`
	End   time.Time `json:"-"`
}

// Visit is a stay at a place.
type Visit struct {
	Probability  *float64 `json:"probability,omitempty"`
	PlaceID      string   `json:"placeId,omitempty"`
	Name         string   `json:"name,omitempty"`
	LatLng       string   `json:"latLng,omitempty"`
	SemanticType string   `json:"semanticType,omitempty"`

	// probabilityInvalid marks a probability that was present but not numeric.
	probabilityInvalid bool
}

// Activity is a movement between places.
type Activity struct {
	DistanceMeters float64  `json:"distanceMeters"`
	Type           string   `json:"type"`
	Probability    *float64 `json:"probability,omitempty"`
	Start          string   `json:"start,omitempty"`
	End            string   `json:"end,omitempty"`
}

// PathPoint is a point on a segment's recorded trail.
type PathPoint struct {
	Point         string  `json:"point"`
	OffsetMinutes float64 `json:"durationMinutesOffsetFromStartTime"`

	// Time is set when the export records an absolute time for the point.
	Time time.Time `json:"-"`
}

// LocationPoint is a map-ready point derived from a visit or a trail point.
type LocationPoint struct {
	Lat         float64   `json:"lat"`
	Lng         float64   `json:"lng"`
	StartTime   time.Time `json:"startTime"`
	EndTime     time.Time `json:"endTime"`
	Name        string    `json:"name,omitempty"`
	Probability *float64  `json:"probability,omitempty"`
	PlaceID     string    `json:"placeId,omitempty"`
	Country     string    `json:"country,omitempty"`
}

// Result is the output of segment extraction.
type Result struct {
	Segments  []Segment       `json:"segments"`
	Locations []LocationPoint `json:"locations"`
	Years     []int           `json:"years"`

	// Skipped counts raw elements that could not be decoded.
	Skipped int `json:"-"`
}

// Duration returns End-Start when both timestamps parsed.
func (s Segment) Duration() (time.Duration, bool) {
	if s.Start.IsZero() || s.End.IsZero() {
		return 0, false
	}
	return s.End.Sub(s.Start), true
}

// IsVisit reports whether the segment is a visit.
func (s Segment) IsVisit() bool {
	return s.Visit != nil
}

// IsActivity reports whether the segment is an activity.
func (s Segment) IsActivity() bool {
	return s.Activity != nil
}
