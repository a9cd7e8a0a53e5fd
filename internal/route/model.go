// Package route owns the distance-indexed view of a routed polyline.
// Every consumer that needs "where is the truck after N km" goes through
// Model.Locate instead of re-deriving distances from raw coordinates.
package route

import (
	"fmt"
	"math"
	"sort"

	"github.com/pkordes/eld-planner/internal/domain"
	"github.com/pkordes/eld-planner/internal/geo"
)

// Model is a polyline with the cumulative distance at each vertex.
// It is immutable after Build and safe to share across goroutines.
type Model struct {
	points []domain.RoutePoint
}

// Build filters out vertices with non-finite components and computes the
// cumulative great-circle distance at each remaining vertex.
// Returns domain.ErrInvalidRoute when fewer than two vertices survive.
func Build(coords []domain.Coordinate) (*Model, error) {
	points := make([]domain.RoutePoint, 0, len(coords))
	for _, c := range coords {
		if !c.IsFinite() {
			continue
		}
		cum := 0.0
		if n := len(points); n > 0 {
			cum = points[n-1].CumulativeKm + geo.Distance(points[n-1].Coordinate, c)
		}
		points = append(points, domain.RoutePoint{Coordinate: c, CumulativeKm: cum})
	}

	if len(points) < 2 {
		return nil, fmt.Errorf("route.Build: %w: need at least 2 usable coordinates, got %d", domain.ErrInvalidRoute, len(points))
	}
	return &Model{points: points}, nil
}

// TotalKm is the length of the route.
func (m *Model) TotalKm() float64 {
	return m.points[len(m.points)-1].CumulativeKm
}

// Points returns a copy of the distance-indexed vertices.
func (m *Model) Points() []domain.RoutePoint {
	out := make([]domain.RoutePoint, len(m.points))
	copy(out, m.points)
	return out
}

// First is the route origin.
func (m *Model) First() domain.Coordinate { return m.points[0].Coordinate }

// Last is the route destination.
func (m *Model) Last() domain.Coordinate { return m.points[len(m.points)-1].Coordinate }

// Segment clamps km to [0, TotalKm] and returns the index i of the bracketing
// pair (points[i-1], points[i]) together with the fraction of the way along it.
// A zero-length bracket reports fraction 1.
func (m *Model) Segment(km float64) (int, float64) {
	total := m.TotalKm()
	if math.IsNaN(km) || km < 0 {
		km = 0
	}
	if km > total {
		km = total
	}

	n := len(m.points)
	i := sort.Search(n-1, func(j int) bool {
		return m.points[j+1].CumulativeKm >= km
	}) + 1
	if i >= n {
		i = n - 1
	}

	d0 := m.points[i-1].CumulativeKm
	d1 := m.points[i].CumulativeKm
	if d1 == d0 {
		return i, 1
	}
	return i, (km - d0) / (d1 - d0)
}

// Locate returns the coordinate km along the route.
func (m *Model) Locate(km float64) domain.Coordinate {
	i, f := m.Segment(km)
	if f >= 1 {
		return m.points[i].Coordinate
	}
	return geo.Interpolate(m.points[i-1].Coordinate, m.points[i].Coordinate, f)
}
