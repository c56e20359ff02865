// Package place stores imported places and visits and serves them to the map layer.
package place

import (
	"errors"
	"time"
)

// Year bounds accepted by the year filter.
const (
	MinYear = 1900
	MaxYear = 2100
)

var (
	// ErrInvalidYear is returned for a year filter outside MinYear..MaxYear.
	ErrInvalidYear = errors.New("invalid year: must be between 1900 and 2100")

	// ErrMissingPlaceID is returned when storing a location without a place id.
	ErrMissingPlaceID = errors.New("place id is required")
)

// Location is a place with its coordinates and geocoded names.
type Location struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	City    *string `json:"city"`
	Country *string `json:"country"`
	PlaceID string  `json:"place_id"`
}

// Visit is one imported stay, optionally tied to a place.
type Visit struct {
	PlaceID     *string
	Name        string
	StartTime   time.Time
	EndTime     *time.Time
	Probability *float64
}

// YearRange returns the UTC half-open interval [Jan 1 year, Jan 1 year+1).
func YearRange(year int) (time.Time, time.Time) {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(1, 0, 0)
}

// ValidateYear checks the year filter bounds.
func ValidateYear(year int) error {
	if year < MinYear || year > MaxYear {
		return ErrInvalidYear
	}
	return nil
}
