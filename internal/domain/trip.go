// Package domain contains the core data types for the ELD trip planner.
// This package has zero external dependencies beyond uuid and is imported by
// every other internal package (hos, route, logbook, service, handler).
package domain

import (
	"github.com/google/uuid"
)

// PlanRequest is a planning call as received from a client.
type PlanRequest struct {
	CurrentLocation  string
	PickupLocation   string
	DropoffLocation  string
	CurrentCycleUsed float64
}

// Leg is one routed section of the trip.
type Leg struct {
	DistanceKm    float64
	DurationHours float64
}

// Trip is the request-scoped aggregate root for one planning response.
// It exclusively owns its Stops and DailyLogs and is never stored.
type Trip struct {
	ID                     uuid.UUID
	Request                PlanRequest
	StartingCycleUsedHours float64
	TotalDistanceKm        float64
	TotalDrivingHours      float64
	TotalDurationHours     float64
	Stops                  []Stop
	DailyLogs              []DailyLog
	Remarks                map[int][]string
	Route                  []Coordinate
	Origin                 Coordinate
	Pickup                 Coordinate
	Dropoff                Coordinate
	ToPickup               Leg
	ToDropoff              Leg
	Documents              []LogDocument
}

// LogDocument points at a rendered log sheet for one day of a trip.
type LogDocument struct {
	DayNumber int
	Filename  string
	URL       string
}
