package place

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL place repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// ListLocations returns all locations ordered by place id.
func (r *PostgresRepository) ListLocations(ctx context.Context) ([]*Location, error) {
	query := `
		SELECT lat, lng, city, country, place_id
		FROM place_locations
		ORDER BY place_id
	`

	return r.queryLocations(ctx, query)
}

// ListLocationsByYear returns the distinct locations visited in year.
func (r *PostgresRepository) ListLocationsByYear(ctx context.Context, year int) ([]*Location, error) {
	query := `
		SELECT DISTINCT pl.lat, pl.lng, pl.city, pl.country, pl.place_id
		FROM place_locations pl
		INNER JOIN visits v ON pl.place_id = v.place_id
		WHERE v.start_time >= $1 AND v.start_time < $2 AND v.place_id IS NOT NULL
		ORDER BY pl.place_id
	`

	start, end := YearRange(year)
	return r.queryLocations(ctx, query, start, end)
}

func (r *PostgresRepository) queryLocations(ctx context.Context, query string, args ...any) ([]*Location, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query place_locations: %w", err)
	}
	defer rows.Close()

	locations := make([]*Location, 0)
	for rows.Next() {
		var loc Location
		if err := rows.Scan(&loc.Lat, &loc.Lng, &loc.City, &loc.Country, &loc.PlaceID); err != nil {
			return nil, fmt.Errorf("scan place_location: %w", err)
		}
		locations = append(locations, &loc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate place_locations: %w", err)
	}

	return locations, nil
}

// UpsertLocations inserts or updates locations in one batch. Existing city
// and country values are kept when the new value is NULL.
func (r *PostgresRepository) UpsertLocations(ctx context.Context, locations []*Location) (int, error) {
	if len(locations) == 0 {
		return 0, nil
	}

	query := `
		INSERT INTO place_locations (place_id, lat, lng, city, country)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (place_id) DO UPDATE SET
			lat = EXCLUDED.lat,
			lng = EXCLUDED.lng,
			city = COALESCE(EXCLUDED.city, place_locations.city),
			country = COALESCE(EXCLUDED.country, place_locations.country)
	`

	batch := &pgx.Batch{}
	for _, loc := range locations {
		if loc.PlaceID == "" {
			return 0, ErrMissingPlaceID
		}
		batch.Queue(query, loc.PlaceID, loc.Lat, loc.Lng, loc.City, loc.Country)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range locations {
		if _, err := br.Exec(); err != nil {
			return 0, fmt.Errorf("upsert place_location: %w", err)
		}
	}

	return len(locations), nil
}

// InsertVisits copies visits into the visits table.
func (r *PostgresRepository) InsertVisits(ctx context.Context, visits []*Visit) (int, error) {
	if len(visits) == 0 {
		return 0, nil
	}

	n, err := r.pool.CopyFrom(ctx,
		pgx.Identifier{"visits"},
		[]string{"place_id", "name", "start_time", "end_time", "probability"},
		pgx.CopyFromSlice(len(visits), func(i int) ([]any, error) {
			v := visits[i]
			return []any{v.PlaceID, v.Name, v.StartTime, v.EndTime, v.Probability}, nil
		}),
	)
	if err != nil {
		return 0, fmt.Errorf("copy visits: %w", err)
	}

	return int(n), nil
}

// Ping checks the database connection.
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
