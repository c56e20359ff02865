package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/travelrecap/travelrecap/internal/api/response"
	"github.com/travelrecap/travelrecap/internal/place"
)

// PlaceLister lists stored place locations.
type PlaceLister interface {
	ListLocations(ctx context.Context, year *int) ([]*place.Location, error)
}

// PlaceHandler serves stored place locations to the map layer.
type PlaceHandler struct {
	places PlaceLister
	logger zerolog.Logger
}

// NewPlaceHandler creates a new PlaceHandler.
func NewPlaceHandler(places PlaceLister, logger zerolog.Logger) *PlaceHandler {
	return &PlaceHandler{places: places, logger: logger}
}

// ListPlaceLocations returns every stored location, or the distinct
// locations visited in a year.
//
// @Summary Get place locations
// @Description Returns place locations, optionally limited to places with a visit starting in the given year (UTC).
// @Tags locations
// @Produce json
// @Param year query int false "Filter locations by year (1900-2100)"
// @Success 200 {array} place.Location
// @Failure 400 {object} models.Problem
// @Failure 500 {object} models.Problem
// @Router /v1/place-locations [get]
func (h *PlaceHandler) ListPlaceLocations(w http.ResponseWriter, r *http.Request) {
	q, fieldErrs := parsePlaceLocationsQuery(r)
	if fieldErrs != nil {
		response.BadRequest(w, r, "invalid year parameter, must be a valid year between 1900 and 2100", fieldErrs)
		return
	}

	locations, err := h.places.ListLocations(r.Context(), q.Year)
	if errors.Is(err, place.ErrInvalidYear) {
		response.BadRequest(w, r, err.Error(), nil)
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list place locations")
		response.InternalError(w, r, "failed to list place locations")
		return
	}

	if locations == nil {
		locations = []*place.Location{}
	}
	response.JSON(w, r, http.StatusOK, locations)
}
