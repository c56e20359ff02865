package geo

import (
	"context"

	"github.com/travelrecap/travelrecap/internal/telemetry"
)

// MeteredLookup counts hits and misses of a CountryLookup.
type MeteredLookup struct {
	lookup  *CountryLookup
	metrics *telemetry.Pipeline
}

// WithMetrics wraps lookup so every resolution is recorded on metrics.
// A nil lookup stays degraded and every call counts as a miss.
func WithMetrics(lookup *CountryLookup, metrics *telemetry.Pipeline) *MeteredLookup {
	return &MeteredLookup{lookup: lookup, metrics: metrics}
}

// Country resolves the point and records the outcome.
func (m *MeteredLookup) Country(lat, lng float64) (string, bool) {
	name, ok := m.lookup.Country(lat, lng)
	m.metrics.RecordCountryLookup(context.Background(), ok)
	return name, ok
}

// Len returns the number of features in the wrapped lookup.
func (m *MeteredLookup) Len() int {
	return m.lookup.Len()
}
