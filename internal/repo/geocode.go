package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/pkordes/eld-planner/internal/domain"
)

// GeocodeRepo persists resolved locations so repeated queries skip the
// upstream geocoder.
type GeocodeRepo interface {
	// Get returns the cached coordinate for a normalized query.
	// Returns domain.ErrNotFound on a miss.
	Get(ctx context.Context, query string) (domain.Coordinate, error)

	// Put stores or refreshes the coordinate for a normalized query.
	Put(ctx context.Context, query string, c domain.Coordinate) error
}

type pgGeocodeRepo struct {
	db db
}

// NewGeocodeRepo constructs a GeocodeRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewGeocodeRepo(db db) GeocodeRepo {
	return &pgGeocodeRepo{db: db}
}

func (r *pgGeocodeRepo) Get(ctx context.Context, query string) (domain.Coordinate, error) {
	const q = `
		SELECT lng, lat
		FROM geocode_cache
		WHERE query = @query`

	var c domain.Coordinate
	err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"query": query}).Scan(&c.Lng, &c.Lat)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Coordinate{}, fmt.Errorf("repo.GeocodeRepo.Get: %w", domain.ErrNotFound)
		}
		return domain.Coordinate{}, fmt.Errorf("repo.GeocodeRepo.Get: %w", err)
	}
	return c, nil
}

func (r *pgGeocodeRepo) Put(ctx context.Context, query string, c domain.Coordinate) error {
	if query == "" {
		return fmt.Errorf("repo.GeocodeRepo.Put: %w: empty query", domain.ErrValidation)
	}
	const q = `
		INSERT INTO geocode_cache (query, lng, lat)
		VALUES (@query, @lng, @lat)
		ON CONFLICT (query) DO UPDATE
		SET lng        = EXCLUDED.lng,
		    lat        = EXCLUDED.lat,
		    updated_at = now()`

	args := pgx.NamedArgs{
		"query": query,
		"lng":   c.Lng,
		"lat":   c.Lat,
	}
	if _, err := r.db.Exec(ctx, q, args); err != nil {
		return fmt.Errorf("repo.GeocodeRepo.Put: %w", err)
	}
	return nil
}
