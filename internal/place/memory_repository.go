package place

import (
	"context"
	"sort"
	"sync"
)

// InMemoryRepository is an in-memory implementation of Repository.
// This is intended for testing and for running without a database.
type InMemoryRepository struct {
	mu        sync.RWMutex
	locations map[string]*Location
	visits    []*Visit
}

// NewInMemoryRepository creates a new in-memory place repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		locations: make(map[string]*Location),
	}
}

// ListLocations returns all locations ordered by place id.
func (r *InMemoryRepository) ListLocations(_ context.Context) ([]*Location, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Location, 0, len(r.locations))
	for _, loc := range r.locations {
		cpy := *loc
		out = append(out, &cpy)
	}
	sortByPlaceID(out)
	return out, nil
}

// ListLocationsByYear returns the distinct locations visited in year.
func (r *InMemoryRepository) ListLocationsByYear(_ context.Context, year int) ([]*Location, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	start, end := YearRange(year)
	seen := make(map[string]bool)
	out := make([]*Location, 0)
	for _, v := range r.visits {
		if v.PlaceID == nil || seen[*v.PlaceID] {
			continue
		}
		if v.StartTime.Before(start) || !v.StartTime.Before(end) {
			continue
		}
		loc, ok := r.locations[*v.PlaceID]
		if !ok {
			continue
		}
		seen[*v.PlaceID] = true
		cpy := *loc
		out = append(out, &cpy)
	}
	sortByPlaceID(out)
	return out, nil
}

// UpsertLocations inserts or replaces locations, keeping stored city and
// country when the new value is nil.
func (r *InMemoryRepository) UpsertLocations(_ context.Context, locations []*Location) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, loc := range locations {
		if loc.PlaceID == "" {
			return 0, ErrMissingPlaceID
		}
	}

	for _, loc := range locations {
		cpy := *loc
		if existing, ok := r.locations[loc.PlaceID]; ok {
			if cpy.City == nil {
				cpy.City = existing.City
			}
			if cpy.Country == nil {
				cpy.Country = existing.Country
			}
		}
		r.locations[loc.PlaceID] = &cpy
	}
	return len(locations), nil
}

// InsertVisits appends visits.
func (r *InMemoryRepository) InsertVisits(_ context.Context, visits []*Visit) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, v := range visits {
		cpy := *v
		r.visits = append(r.visits, &cpy)
	}
	return len(visits), nil
}

// Ping always succeeds.
func (r *InMemoryRepository) Ping(_ context.Context) error {
	return nil
}

func sortByPlaceID(locations []*Location) {
	sort.Slice(locations, func(i, j int) bool {
		return locations[i].PlaceID < locations[j].PlaceID
	})
}

// Ensure InMemoryRepository implements Repository interface.
var _ Repository = (*InMemoryRepository)(nil)
