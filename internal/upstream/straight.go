package upstream

import (
	"context"
	"fmt"
	"math"

	"github.com/pkordes/eld-planner/internal/domain"
	"github.com/pkordes/eld-planner/internal/geo"
)

// StraightLine is an offline Router that joins waypoints with great-circle
// chords, densified to one point every PointSpacingKm. Useful for local
// development and tests where no routing service is reachable.
type StraightLine struct {
	SpeedKmh       float64
	PointSpacingKm float64
}

// NewStraightLine returns a StraightLine router at 80 km/h with a point
// every 50 km.
func NewStraightLine() *StraightLine {
	return &StraightLine{SpeedKmh: 80, PointSpacingKm: 50}
}

// Route implements Router.
func (s *StraightLine) Route(ctx context.Context, waypoints []domain.Coordinate) (RouteResult, error) {
	if err := ctx.Err(); err != nil {
		return RouteResult{}, err
	}
	if len(waypoints) < 2 {
		return RouteResult{}, fmt.Errorf("upstream.StraightLine.Route: %w: need at least 2 waypoints", domain.ErrValidation)
	}

	var res RouteResult
	res.Coordinates = append(res.Coordinates, waypoints[0])
	for i := 1; i < len(waypoints); i++ {
		a, b := waypoints[i-1], waypoints[i]
		km := geo.Distance(a, b)
		n := int(math.Max(10, km/s.PointSpacingKm))
		for k := 1; k <= n; k++ {
			res.Coordinates = append(res.Coordinates, geo.Interpolate(a, b, float64(k)/float64(n)))
		}
		leg := domain.Leg{DistanceKm: km, DurationHours: km / s.SpeedKmh}
		res.Legs = append(res.Legs, leg)
		res.DistanceKm += leg.DistanceKm
		res.DurationHours += leg.DurationHours
	}
	return res, nil
}
