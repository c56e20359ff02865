package place

import "context"

// Service provides place location queries.
type Service struct {
	repo Repository
}

// NewService creates a new place service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ListLocations returns every location, or only those visited in year when
// year is set.
func (s *Service) ListLocations(ctx context.Context, year *int) ([]*Location, error) {
	if year == nil {
		return s.repo.ListLocations(ctx)
	}
	if err := ValidateYear(*year); err != nil {
		return nil, err
	}
	return s.repo.ListLocationsByYear(ctx, *year)
}

// Ready reports whether the backing store is reachable.
func (s *Service) Ready(ctx context.Context) error {
	return s.repo.Ping(ctx)
}
