package models

// PlaceLocationsQuery holds the query parameters of the place locations
// endpoint.
type PlaceLocationsQuery struct {
	Year *int `query:"year" validate:"omitempty,min=1900,max=2100"`
}

// RecapQuery holds the query parameters of the recap endpoint.
type RecapQuery struct {
	ProbabilityThreshold float64 `query:"probabilityThreshold" validate:"min=0,max=1"`
	Year                 *int    `query:"year" validate:"omitempty,min=1900,max=2100"`
}
