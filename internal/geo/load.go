package geo

import (
	"context"

	"github.com/rs/zerolog"
)

// Source reads a boundary document from a location.
type Source interface {
	Load(ctx context.Context, location string) ([]byte, error)
}

// LoadLookup reads and decodes a boundary document. Any failure is logged as
// a warning and yields a nil lookup, which resolves no countries.
func LoadLookup(ctx context.Context, src Source, location string, logger zerolog.Logger) *CountryLookup {
	if location == "" {
		logger.Warn().Msg("no country boundary source configured, country resolution disabled")
		return nil
	}

	data, err := src.Load(ctx, location)
	if err != nil {
		logger.Warn().Err(err).Str("source", location).Msg("failed to load country boundaries")
		return nil
	}

	features, err := DecodeFeatureCollection(data)
	if err != nil {
		logger.Warn().Err(err).Str("source", location).Msg("failed to decode country boundaries")
		return nil
	}

	logger.Info().
		Str("source", location).
		Int("features", len(features)).
		Msg("country boundaries loaded")

	return NewCountryLookup(features)
}
