// Package cache wraps the upstream geocoder and router with caches so repeat
// plans for the same places skip the network.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pkordes/eld-planner/internal/domain"
	"github.com/pkordes/eld-planner/internal/upstream"
)

// RouteKey returns the Redis key for a waypoint list. Coordinates are
// rounded to 5 decimal places (about a metre).
func RouteKey(waypoints []domain.Coordinate) string {
	var b strings.Builder
	b.WriteString("route:")
	for i, w := range waypoints {
		if i > 0 {
			b.WriteByte(';')
		}
		b.WriteString(strconv.FormatFloat(w.Lng, 'f', 5, 64))
		b.WriteByte(',')
		b.WriteString(strconv.FormatFloat(w.Lat, 'f', 5, 64))
	}
	return b.String()
}

// Router is an upstream.Router that serves repeated routes from Redis.
// Cache failures are logged and never fail a request.
type Router struct {
	next upstream.Router
	rdb  *redis.Client
	ttl  time.Duration
	log  *slog.Logger
}

// NewRouter wraps next with a Redis-backed cache whose entries expire
// after ttl.
func NewRouter(next upstream.Router, rdb *redis.Client, ttl time.Duration, log *slog.Logger) *Router {
	return &Router{next: next, rdb: rdb, ttl: ttl, log: log}
}

// Route implements upstream.Router.
func (r *Router) Route(ctx context.Context, waypoints []domain.Coordinate) (upstream.RouteResult, error) {
	key := RouteKey(waypoints)

	res, err := r.get(ctx, key)
	switch {
	case err == nil:
		return res, nil
	case !errors.Is(err, redis.Nil):
		r.log.WarnContext(ctx, "route cache read failed", "key", key, "error", err)
	}

	res, err = r.next.Route(ctx, waypoints)
	if err != nil {
		return upstream.RouteResult{}, err
	}
	if err := r.put(ctx, key, res); err != nil {
		r.log.WarnContext(ctx, "route cache write failed", "key", key, "error", err)
	}
	return res, nil
}

func (r *Router) get(ctx context.Context, key string) (upstream.RouteResult, error) {
	raw, err := r.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return upstream.RouteResult{}, err
	}
	var res upstream.RouteResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return upstream.RouteResult{}, fmt.Errorf("decode cached route: %w", err)
	}
	return res, nil
}

func (r *Router) put(ctx context.Context, key string, res upstream.RouteResult) error {
	raw, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encode route: %w", err)
	}
	return r.rdb.Set(ctx, key, raw, r.ttl).Err()
}
