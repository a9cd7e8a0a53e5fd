package domain

// StopType identifies why the truck is stopped at a point along the route.
type StopType string

const (
	StopStart     StopType = "START"
	StopPickup    StopType = "PICKUP"
	StopDropoff   StopType = "DROPOFF"
	StopFuel      StopType = "FUEL"
	StopRest      StopType = "REST"
	StopOvernight StopType = "OVERNIGHT"
)

// Stop is a mandated break or waypoint on a planned trip.
//
// CumulativeKm is the distance from the trip origin at which the stop occurs.
// ElapsedHours is the trip clock on arrival (driving plus every earlier stop).
// Restart marks an OVERNIGHT stop that is a 34-hour cycle restart rather than
// the normal 10-hour rest. Coordinate stays nil until stop placement runs.
type Stop struct {
	Type          StopType
	Label         string
	CumulativeKm  float64
	DurationHours float64
	DayNumber     int
	ElapsedHours  float64
	Restart       bool
	Coordinate    *Coordinate
}
