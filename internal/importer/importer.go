// Package importer persists processed timelines into the place store.
package importer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/travelrecap/travelrecap/internal/place"
	"github.com/travelrecap/travelrecap/internal/telemetry"
	"github.com/travelrecap/travelrecap/internal/timeline"
)

const defaultBatchSize = 500

// Config holds importer dependencies.
type Config struct {
	Repository place.Repository
	// Resolver fills countries for visits the processor did not enrich.
	Resolver  timeline.CountryResolver
	Logger    zerolog.Logger
	Metrics   *telemetry.Pipeline
	BatchSize int
}

// Summary reports what one import wrote.
type Summary struct {
	ID        string        `json:"id"`
	Segments  int           `json:"segments"`
	Locations int           `json:"locations"`
	Visits    int           `json:"visits"`
	Skipped   int           `json:"skipped"`
	Duration  time.Duration `json:"duration"`
}

// Importer writes visit segments as place locations and visit rows.
type Importer struct {
	repo      place.Repository
	processor *timeline.Processor
	resolver  timeline.CountryResolver
	logger    zerolog.Logger
	metrics   *telemetry.Pipeline
	batchSize int
}

// New creates an Importer.
func New(cfg Config) *Importer {
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	return &Importer{
		repo:      cfg.Repository,
		processor: timeline.NewProcessor(cfg.Resolver),
		resolver:  cfg.Resolver,
		logger:    cfg.Logger,
		metrics:   cfg.Metrics,
		batchSize: batch,
	}
}

// ImportJSON processes a raw export and imports it.
func (i *Importer) ImportJSON(ctx context.Context, data []byte, opts timeline.Options) (*Summary, error) {
	result, err := i.processor.ProcessJSON(data, opts)
	if err != nil {
		return nil, err
	}
	i.metrics.RecordSegments(ctx, len(result.Segments), result.Skipped)
	return i.Import(ctx, result)
}

// Import upserts a location for every visit with a place id and a
// parseable coordinate, then appends one visit row per visit. Visits
// without a parsed start time are skipped. City is left unset.
func (i *Importer) Import(ctx context.Context, result *timeline.Result) (*Summary, error) {
	started := time.Now()
	summary := &Summary{
		ID:       uuid.New().String(),
		Segments: len(result.Segments),
		Skipped:  result.Skipped,
	}
	log := i.logger.With().Str("import_id", summary.ID).Logger()

	locations, visits, skipped := i.rows(result.Segments)
	summary.Skipped += skipped

	for _, chunk := range chunks(locations, i.batchSize) {
		n, err := i.repo.UpsertLocations(ctx, chunk)
		if err != nil {
			return nil, fmt.Errorf("upsert locations: %w", err)
		}
		summary.Locations += n
	}
	i.metrics.RecordImport(ctx, "place_locations", summary.Locations)

	for _, chunk := range chunks(visits, i.batchSize) {
		n, err := i.repo.InsertVisits(ctx, chunk)
		if err != nil {
			return nil, fmt.Errorf("insert visits: %w", err)
		}
		summary.Visits += n
	}
	i.metrics.RecordImport(ctx, "visits", summary.Visits)

	summary.Duration = time.Since(started)
	log.Info().
		Int("segments", summary.Segments).
		Int("locations", summary.Locations).
		Int("visits", summary.Visits).
		Int("skipped", summary.Skipped).
		Dur("duration", summary.Duration).
		Msg("timeline imported")

	return summary, nil
}

// rows converts visit segments into rows. Locations are deduplicated by
// place id with the last occurrence winning.
func (i *Importer) rows(segments []timeline.Segment) ([]*place.Location, []*place.Visit, int) {
	var (
		locations []*place.Location
		visits    []*place.Visit
		index     = make(map[string]int)
		skipped   int
	)

	for _, seg := range segments {
		if seg.Visit == nil {
			continue
		}
		if seg.Start.IsZero() {
			skipped++
			continue
		}

		v := &place.Visit{
			Name:        seg.Visit.Name,
			StartTime:   seg.Start,
			Probability: seg.Visit.Probability,
		}
		if !seg.End.IsZero() {
			end := seg.End
			v.EndTime = &end
		}
		if seg.Visit.PlaceID != "" {
			v.PlaceID = stringPtr(seg.Visit.PlaceID)
		}
		visits = append(visits, v)

		if seg.Visit.PlaceID == "" {
			continue
		}
		coord, ok := timeline.ParseLatLng(seg.Visit.LatLng)
		if !ok {
			continue
		}

		loc := &place.Location{PlaceID: seg.Visit.PlaceID, Lat: coord.Lat, Lng: coord.Lng}
		if country := i.country(seg, coord); country != "" {
			loc.Country = stringPtr(country)
		}
		if idx, seen := index[loc.PlaceID]; seen {
			locations[idx] = loc
			continue
		}
		index[loc.PlaceID] = len(locations)
		locations = append(locations, loc)
	}

	return locations, visits, skipped
}

func (i *Importer) country(seg timeline.Segment, coord timeline.Coordinate) string {
	if seg.Country != "" {
		return seg.Country
	}
	if i.resolver == nil {
		return ""
	}
	name, _ := i.resolver.Country(coord.Lat, coord.Lng)
	return name
}

func chunks[T any](items []T, size int) [][]T {
	var out [][]T
	for size < len(items) {
		items, out = items[size:], append(out, items[:size])
	}
	if len(items) > 0 {
		out = append(out, items)
	}
	return out
}

func stringPtr(s string) *string { return &s }
