package place

import "context"

// Repository defines the interface for place and visit persistence.
type Repository interface {
	// ListLocations returns all locations ordered by place id.
	ListLocations(ctx context.Context) ([]*Location, error)

	// ListLocationsByYear returns the distinct locations with at least one
	// visit starting in year, ordered by place id.
	ListLocationsByYear(ctx context.Context, year int) ([]*Location, error)

	// UpsertLocations inserts or replaces locations keyed by place id.
	UpsertLocations(ctx context.Context, locations []*Location) (int, error)

	// InsertVisits appends visits.
	InsertVisits(ctx context.Context, visits []*Visit) (int, error)

	// Ping checks that the store is reachable.
	Ping(ctx context.Context) error
}
