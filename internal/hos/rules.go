// Package hos is the Hours-of-Service rule engine. It turns a trip distance
// and a driver's starting cycle usage into an ordered list of stops and one
// compliance log per duty day.
package hos

import (
	"fmt"
	"math"

	"github.com/pkordes/eld-planner/internal/domain"
)

// Rules is a regulatory rule set. It is passed to the Scheduler explicitly so
// other jurisdictions can be substituted without global state.
// All durations are in hours.
type Rules struct {
	Name string

	MaxDrivingPerDay        float64
	MaxOnDutyWindow         float64
	MinOffDutyBetweenShifts float64
	CycleCap                float64
	CycleDays               int
	RestartDuration         float64

	FuelIntervalKm   float64
	FuelStopDuration float64
	PickupDuration   float64
	DropoffDuration  float64

	BreakAfterDriving float64
	BreakDuration     float64

	// AverageSpeedKmh converts distance into driving time.
	AverageSpeedKmh float64

	// ShiftStartHour places each duty day on the 24-hour log grid.
	ShiftStartHour float64
	DailyLogHours  float64
}

// PropertyCarrying70 returns the US property-carrying 70-hour/8-day rules
// with a 55 mph (88 km/h) average speed.
func PropertyCarrying70() Rules {
	return Rules{
		Name:                    "property-carrying-70-8",
		MaxDrivingPerDay:        11,
		MaxOnDutyWindow:         14,
		MinOffDutyBetweenShifts: 10,
		CycleCap:                70,
		CycleDays:               8,
		RestartDuration:         34,
		FuelIntervalKm:          1600,
		FuelStopDuration:        0.5,
		PickupDuration:          1,
		DropoffDuration:         1,
		BreakAfterDriving:       8,
		BreakDuration:           0.5,
		AverageSpeedKmh:         88,
		ShiftStartHour:          6,
		DailyLogHours:           24,
	}
}

// Validate rejects rule sets the simulation cannot make progress under.
// Returns an error wrapping domain.ErrValidation.
func (r Rules) Validate() error {
	positive := map[string]float64{
		"max driving per day": r.MaxDrivingPerDay,
		"max on-duty window":  r.MaxOnDutyWindow,
		"min off-duty":        r.MinOffDutyBetweenShifts,
		"cycle cap":           r.CycleCap,
		"restart duration":    r.RestartDuration,
		"fuel interval":       r.FuelIntervalKm,
		"break after driving": r.BreakAfterDriving,
		"average speed":       r.AverageSpeedKmh,
		"daily log hours":     r.DailyLogHours,
	}
	for name, v := range positive {
		if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
			return fmt.Errorf("%w: %s must be positive", domain.ErrValidation, name)
		}
	}
	nonNegative := map[string]float64{
		"fuel stop duration": r.FuelStopDuration,
		"pickup duration":    r.PickupDuration,
		"dropoff duration":   r.DropoffDuration,
		"break duration":     r.BreakDuration,
		"shift start hour":   r.ShiftStartHour,
	}
	for name, v := range nonNegative {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return fmt.Errorf("%w: %s must not be negative", domain.ErrValidation, name)
		}
	}

	switch {
	case r.MaxDrivingPerDay > r.MaxOnDutyWindow:
		return fmt.Errorf("%w: daily driving cap exceeds the on-duty window", domain.ErrValidation)
	case r.PickupDuration+r.DropoffDuration >= r.MaxOnDutyWindow:
		return fmt.Errorf("%w: pickup and dropoff leave no driving time in the window", domain.ErrValidation)
	case r.PickupDuration+r.DropoffDuration >= r.CycleCap:
		return fmt.Errorf("%w: pickup and dropoff exceed the cycle cap", domain.ErrValidation)
	case r.ShiftStartHour+r.MaxOnDutyWindow > r.DailyLogHours:
		return fmt.Errorf("%w: shift starting at %.1fh overruns the daily log", domain.ErrValidation, r.ShiftStartHour)
	case r.MaxOnDutyWindow+r.MinOffDutyBetweenShifts > r.DailyLogHours:
		return fmt.Errorf("%w: on-duty window plus minimum rest exceeds the daily log", domain.ErrValidation)
	case r.RestartDuration < r.MinOffDutyBetweenShifts:
		return fmt.Errorf("%w: restart shorter than the minimum rest", domain.ErrValidation)
	}
	return nil
}

// hours converts a distance into driving hours at the average speed.
func (r Rules) hours(km float64) float64 { return km / r.AverageSpeedKmh }

// km converts driving hours into distance at the average speed.
func (r Rules) km(hours float64) float64 { return hours * r.AverageSpeedKmh }
