package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/pkordes/eld-planner/internal/domain"
	"github.com/pkordes/eld-planner/internal/repo"
	"github.com/pkordes/eld-planner/internal/upstream"
)

// Geocoder is an upstream.Geocoder with two cache tiers: an in-process map
// and an optional persistent repo.GeocodeRepo. Queries are normalized before
// lookup. Cache failures are logged and never fail a request.
type Geocoder struct {
	next  upstream.Geocoder
	mem   *gocache.Cache
	store repo.GeocodeRepo
	log   *slog.Logger
}

// NewGeocoder wraps next. store may be nil when no database is configured.
func NewGeocoder(next upstream.Geocoder, store repo.GeocodeRepo, ttl time.Duration, log *slog.Logger) *Geocoder {
	return &Geocoder{
		next:  next,
		mem:   gocache.New(ttl, 2*ttl),
		store: store,
		log:   log,
	}
}

// Geocode implements upstream.Geocoder.
func (g *Geocoder) Geocode(ctx context.Context, query string) (domain.Coordinate, error) {
	key := upstream.Normalize(query)

	if v, ok := g.mem.Get(key); ok {
		return v.(domain.Coordinate), nil
	}

	if g.store != nil {
		c, err := g.store.Get(ctx, key)
		switch {
		case err == nil:
			g.mem.SetDefault(key, c)
			return c, nil
		case !errors.Is(err, domain.ErrNotFound):
			g.log.WarnContext(ctx, "geocode cache read failed", "query", key, "error", err)
		}
	}

	c, err := g.next.Geocode(ctx, query)
	if err != nil {
		return domain.Coordinate{}, err
	}

	g.mem.SetDefault(key, c)
	if g.store != nil && key != "" {
		if err := g.store.Put(ctx, key, c); err != nil {
			g.log.WarnContext(ctx, "geocode cache write failed", "query", key, "error", err)
		}
	}
	return c, nil
}
