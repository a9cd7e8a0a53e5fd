// Package upstream defines the geocoding and routing collaborators the
// planner depends on, plus the HTTP plumbing shared by their adapters.
package upstream

import (
	"context"
	"strings"

	"github.com/pkordes/eld-planner/internal/domain"
)

// Geocoder resolves a free-text location to a coordinate.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (domain.Coordinate, error)
}

// Router computes a driving route through two or more waypoints.
type Router interface {
	Route(ctx context.Context, waypoints []domain.Coordinate) (RouteResult, error)
}

// RouteResult is a routed polyline with its totals.
// Legs has one entry per pair of consecutive waypoints.
type RouteResult struct {
	Coordinates   []domain.Coordinate
	DistanceKm    float64
	DurationHours float64
	Legs          []domain.Leg
}

// Normalize collapses whitespace and case so equivalent queries share a
// cache key.
func Normalize(query string) string {
	return strings.ToLower(strings.Join(strings.Fields(query), " "))
}
