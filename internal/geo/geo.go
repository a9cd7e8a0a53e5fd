// Package geo contains pure geographic computation helpers.
// Inputs are assumed to be validated; nothing here recovers from NaN or Inf.
package geo

import (
	"math"

	"github.com/pkordes/eld-planner/internal/domain"
)

// EarthRadiusKm is the mean Earth radius used by the haversine formula.
const EarthRadiusKm = 6371.0

// Distance returns the great-circle distance in kilometres between a and b.
func Distance(a, b domain.Coordinate) float64 {
	if a == b {
		return 0
	}
	dLat := degreesToRadians(b.Lat - a.Lat)
	dLng := degreesToRadians(b.Lng - a.Lng)

	rLat1 := degreesToRadians(a.Lat)
	rLat2 := degreesToRadians(b.Lat)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rLat1)*math.Cos(rLat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusKm * c
}

// Interpolate returns the point at fraction f of the way from a to b,
// interpolating longitude and latitude independently. This is a planar
// approximation; it is adequate for the short segments of a routed polyline.
func Interpolate(a, b domain.Coordinate, f float64) domain.Coordinate {
	switch {
	case f <= 0:
		return a
	case f >= 1:
		return b
	}
	return domain.Coordinate{
		Lng: a.Lng + (b.Lng-a.Lng)*f,
		Lat: a.Lat + (b.Lat-a.Lat)*f,
	}
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}
