package route

import "github.com/pkordes/eld-planner/internal/domain"

// PlaceStops resolves a coordinate for every stop. START is pinned to the
// route origin and DROPOFF to the destination; every other stop is located by
// its cumulative distance. The input slice is not modified and no distance
// or ordering changes.
func PlaceStops(m *Model, stops []domain.Stop) []domain.Stop {
	out := make([]domain.Stop, len(stops))
	for i, s := range stops {
		var c domain.Coordinate
		switch s.Type {
		case domain.StopStart:
			c = m.First()
		case domain.StopDropoff:
			c = m.Last()
		default:
			c = m.Locate(s.CumulativeKm)
		}
		s.Coordinate = &c
		out[i] = s
	}
	return out
}
