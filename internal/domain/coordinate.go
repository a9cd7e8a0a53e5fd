package domain

import (
	"encoding/json"
	"fmt"
	"math"
)

// Coordinate is an immutable (longitude, latitude) pair in decimal degrees.
// It marshals to the GeoJSON-style [lng, lat] array used by routing services
// and map clients.
type Coordinate struct {
	Lng float64
	Lat float64
}

// IsFinite reports whether both components are real numbers.
func (c Coordinate) IsFinite() bool {
	return !math.IsNaN(c.Lng) && !math.IsInf(c.Lng, 0) &&
		!math.IsNaN(c.Lat) && !math.IsInf(c.Lat, 0)
}

// MarshalJSON encodes the coordinate as [lng, lat].
func (c Coordinate) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{c.Lng, c.Lat})
}

// UnmarshalJSON decodes a [lng, lat] array.
func (c *Coordinate) UnmarshalJSON(b []byte) error {
	var pair []float64
	if err := json.Unmarshal(b, &pair); err != nil {
		return fmt.Errorf("coordinate: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("coordinate: expected [lng, lat], got %d values", len(pair))
	}
	c.Lng, c.Lat = pair[0], pair[1]
	return nil
}

// RoutePoint is a polyline vertex with its cumulative distance from the route start.
type RoutePoint struct {
	Coordinate
	CumulativeKm float64
}
