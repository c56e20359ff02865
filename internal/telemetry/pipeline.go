package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// InstrumentationName is the scope used for pipeline spans and instruments.
const InstrumentationName = "github.com/travelrecap/travelrecap"

// Pipeline holds the instruments recorded while ingesting timelines,
// building recaps and importing places. A nil *Pipeline records nothing.
type Pipeline struct {
	segments       metric.Int64Counter
	countryLookups metric.Int64Counter
	recapDuration  metric.Float64Histogram
	importedRows   metric.Int64Counter
	fetchDuration  metric.Float64Histogram
}

// NewPipeline creates the pipeline instruments on the global meter.
func NewPipeline() (*Pipeline, error) {
	meter := otel.Meter(InstrumentationName)

	segments, err := meter.Int64Counter(
		"timeline.segments",
		metric.WithDescription("Timeline segments decoded, by outcome"),
		metric.WithUnit("{segment}"),
	)
	if err != nil {
		return nil, err
	}

	countryLookups, err := meter.Int64Counter(
		"geo.country.lookups",
		metric.WithDescription("Offline country lookups, by hit"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, err
	}

	recapDuration, err := meter.Float64Histogram(
		"recap.build.duration",
		metric.WithDescription("Time spent building a recap summary"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	importedRows, err := meter.Int64Counter(
		"import.rows",
		metric.WithDescription("Rows written by timeline imports, by table"),
		metric.WithUnit("{row}"),
	)
	if err != nil {
		return nil, err
	}

	fetchDuration, err := meter.Float64Histogram(
		"fetch.request.duration",
		metric.WithDescription("Duration of remote document fetches"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		segments:       segments,
		countryLookups: countryLookups,
		recapDuration:  recapDuration,
		importedRows:   importedRows,
		fetchDuration:  fetchDuration,
	}, nil
}

// RecordSegments counts kept and skipped segments of one decode.
func (p *Pipeline) RecordSegments(ctx context.Context, kept, skipped int) {
	if p == nil {
		return
	}
	p.segments.Add(ctx, int64(kept), metric.WithAttributes(attribute.String("outcome", "kept")))
	p.segments.Add(ctx, int64(skipped), metric.WithAttributes(attribute.String("outcome", "skipped")))
}

// RecordCountryLookup counts one country lookup.
func (p *Pipeline) RecordCountryLookup(ctx context.Context, hit bool) {
	if p == nil {
		return
	}
	p.countryLookups.Add(ctx, 1, metric.WithAttributes(attribute.Bool("hit", hit)))
}

// RecordRecap records how long a recap summary took to build.
func (p *Pipeline) RecordRecap(ctx context.Context, scope string, d time.Duration) {
	if p == nil {
		return
	}
	p.recapDuration.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String("recap.scope", scope)))
}

// RecordImport counts rows written to table.
func (p *Pipeline) RecordImport(ctx context.Context, table string, rows int) {
	if p == nil {
		return
	}
	p.importedRows.Add(ctx, int64(rows), metric.WithAttributes(attribute.String("table", table)))
}

// RecordFetch records a remote fetch. Metrics use a background context so
// a cancelled request still reports.
func (p *Pipeline) RecordFetch(client string, d time.Duration, err error) {
	if p == nil {
		return
	}
	attrs := []attribute.KeyValue{attribute.String("fetch.client", client)}
	if err != nil {
		attrs = append(attrs, attribute.Bool("error", true))
	}
	p.fetchDuration.Record(context.Background(), d.Seconds(), metric.WithAttributes(attrs...))
}
