// Package recap builds per-year and all-time travel summaries from a
// processed timeline.
package recap

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/travelrecap/travelrecap/internal/telemetry"
	"github.com/travelrecap/travelrecap/internal/timeline"
	"github.com/travelrecap/travelrecap/pkg/polyline"
)

// ErrYearNotPresent is returned when a year has no segments.
var ErrYearNotPresent = errors.New("year not present in timeline")

const (
	defaultTopPlaces   = 10
	defaultPathSpacing = 25.0
)

// Summary aggregates one slice of a timeline. Year is zero for the
// all-time summary.
type Summary struct {
	Year             int                     `json:"year,omitempty"`
	Stats            *timeline.Stats         `json:"stats"`
	Advanced         *timeline.AdvancedStats `json:"advanced"`
	TopPlaces        []timeline.PlaceCount   `json:"topPlaces"`
	Path             string                  `json:"path"`
	PathLengthMeters float64                 `json:"pathLengthMeters"`
	LocationCount    int                     `json:"locationCount"`
	SegmentCount     int                     `json:"segmentCount"`
}

// Report is the response of a recap request.
type Report struct {
	Years   []int    `json:"years"`
	Skipped int      `json:"skipped"`
	Summary *Summary `json:"summary"`
}

// Option configures a Builder.
type Option func(*Builder)

// WithEmissionFactors overrides the CO2 factor table.
func WithEmissionFactors(f timeline.EmissionFactors) Option {
	return func(b *Builder) { b.factors = f }
}

// WithTopPlaces sets how many places a summary ranks. Negative keeps all.
func WithTopPlaces(n int) Option {
	return func(b *Builder) { b.topPlaces = n }
}

// WithPathSpacing sets the minimum spacing in meters between encoded path
// points. Zero keeps every point.
func WithPathSpacing(meters float64) Option {
	return func(b *Builder) { b.pathSpacing = meters }
}

// WithMetrics records build durations.
func WithMetrics(m *telemetry.Pipeline) Option {
	return func(b *Builder) { b.metrics = m }
}

// Builder computes summaries lazily and memoizes them. It is safe for
// concurrent use.
type Builder struct {
	result      *timeline.Result
	resolver    timeline.CountryResolver
	factors     timeline.EmissionFactors
	topPlaces   int
	pathSpacing float64
	metrics     *telemetry.Pipeline
	tracer      trace.Tracer

	mu      sync.Mutex
	overall *Summary
	years   map[int]*Summary
}

// New creates a Builder over result. The resolver fills countries for
// segments that were not enriched during processing and may be nil.
func New(result *timeline.Result, resolver timeline.CountryResolver, opts ...Option) *Builder {
	if result == nil {
		result = &timeline.Result{}
	}
	b := &Builder{
		result:      result,
		resolver:    resolver,
		topPlaces:   defaultTopPlaces,
		pathSpacing: defaultPathSpacing,
		tracer:      otel.Tracer(telemetry.InstrumentationName),
		years:       make(map[int]*Summary),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Years returns the years present in the timeline, ascending.
func (b *Builder) Years() []int {
	return b.result.Years
}

// Overall returns the all-time summary.
func (b *Builder) Overall(ctx context.Context) *Summary {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.overall == nil {
		b.overall = b.build(ctx, 0, b.result.Segments, b.result.Locations)
	}
	return b.overall
}

// Year returns the summary of one calendar year.
func (b *Builder) Year(ctx context.Context, year int) (*Summary, error) {
	if !b.result.HasYear(year) {
		return nil, ErrYearNotPresent
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if s, ok := b.years[year]; ok {
		return s, nil
	}
	s := b.build(ctx, year,
		timeline.FilterByYear(b.result.Segments, year),
		timeline.FilterLocationsByYear(b.result.Locations, year),
	)
	b.years[year] = s
	return s, nil
}

// Report returns the summary for year, or the all-time summary when year
// is nil.
func (b *Builder) Report(ctx context.Context, year *int) (*Report, error) {
	report := &Report{
		Years:   b.Years(),
		Skipped: b.result.Skipped,
	}
	if report.Years == nil {
		report.Years = []int{}
	}

	if year == nil {
		report.Summary = b.Overall(ctx)
		return report, nil
	}

	s, err := b.Year(ctx, *year)
	if err != nil {
		return nil, err
	}
	report.Summary = s
	return report, nil
}

func (b *Builder) build(ctx context.Context, year int, segments []timeline.Segment, points []timeline.LocationPoint) *Summary {
	scope := "overall"
	if year != 0 {
		scope = strconv.Itoa(year)
	}

	ctx, span := b.tracer.Start(ctx, "recap.build", trace.WithAttributes(
		attribute.String("recap.scope", scope),
		attribute.Int("recap.segments", len(segments)),
		attribute.Int("recap.locations", len(points)),
	))
	defer span.End()

	start := time.Now()
	defer func() { b.metrics.RecordRecap(ctx, scope, time.Since(start)) }()

	stats := timeline.CalculateStats(segments, b.resolver)
	coords := trail(points)

	return &Summary{
		Year:             year,
		Stats:            stats,
		Advanced:         timeline.CalculateAdvancedStats(segments, b.factors),
		TopPlaces:        stats.TopPlaces(b.topPlaces),
		Path:             polyline.Encode(polyline.Thin(coords, b.pathSpacing)),
		PathLengthMeters: polyline.Length(coords),
		LocationCount:    len(points),
		SegmentCount:     len(segments),
	}
}

func trail(points []timeline.LocationPoint) []polyline.Coordinate {
	coords := make([]polyline.Coordinate, len(points))
	for i, p := range points {
		coords[i] = polyline.Coordinate{Lat: p.Lat, Lng: p.Lng}
	}
	return coords
}
