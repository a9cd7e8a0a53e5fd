// Package logbook folds scheduled stops and per-day summaries into the final
// daily compliance records.
package logbook

import (
	"fmt"
	"math"

	"github.com/pkordes/eld-planner/internal/domain"
	"github.com/pkordes/eld-planner/internal/hos"
)

const (
	tol = 1e-6

	// KmPerMile converts the planner's kilometres into the miles printed on
	// US log sheets.
	KmPerMile = 1.609344
)

// Day is one log day with the stops that fall on it.
type Day struct {
	Log     domain.DailyLog
	Stops   []domain.Stop
	Remarks []string
}

// Miles converts kilometres to statute miles.
func Miles(km float64) float64 { return km / KmPerMile }

// Assemble validates a scheduled plan against the caps in rules and groups
// its stops by day.
//
// Any inconsistency is a defect in the plan, not bad user input: the returned
// error wraps domain.ErrMalformedStopData and nothing is clamped or repaired.
func Assemble(stops []domain.Stop, logs []domain.DailyLog, totalKm float64, rules hos.Rules) ([]Day, error) {
	if err := validate(stops, logs, totalKm, rules); err != nil {
		return nil, fmt.Errorf("logbook.Assemble: %w: %s", domain.ErrMalformedStopData, err)
	}

	days := make([]Day, len(logs))
	for i, l := range logs {
		days[i].Log = l
	}
	for _, s := range stops {
		d := &days[s.DayNumber-1]
		d.Stops = append(d.Stops, s)
	}
	for i := range days {
		days[i].Remarks = Remarks(days[i].Log, days[i].Stops)
	}
	return days, nil
}

// validate returns a plain description of the first broken invariant.
func validate(stops []domain.Stop, logs []domain.DailyLog, totalKm float64, r hos.Rules) error {
	if !finite(totalKm) || totalKm <= 0 {
		return fmt.Errorf("total distance %v km", totalKm)
	}
	if len(stops) == 0 {
		return fmt.Errorf("no stops")
	}
	if len(logs) == 0 {
		return fmt.Errorf("no daily logs")
	}

	if first := stops[0]; first.Type != domain.StopStart || math.Abs(first.CumulativeKm) > tol {
		return fmt.Errorf("first stop is %s at %.3f km, want START at 0", first.Type, first.CumulativeKm)
	}
	if last := stops[len(stops)-1]; last.Type != domain.StopDropoff || math.Abs(last.CumulativeKm-totalKm) > tol {
		return fmt.Errorf("last stop is %s at %.3f km, want DROPOFF at %.3f", last.Type, last.CumulativeKm, totalKm)
	}

	perDay := make(map[int]int, len(logs))
	restarts := make(map[int]bool)
	for i, s := range stops {
		switch {
		case !finite(s.CumulativeKm) || s.CumulativeKm < -tol || s.CumulativeKm > totalKm+tol:
			return fmt.Errorf("stop %d at %v km is outside the route", i, s.CumulativeKm)
		case !finite(s.DurationHours) || s.DurationHours < 0:
			return fmt.Errorf("stop %d has duration %v h", i, s.DurationHours)
		case s.DayNumber < 1 || s.DayNumber > len(logs):
			return fmt.Errorf("stop %d is on day %d of %d", i, s.DayNumber, len(logs))
		case s.Restart && s.Type != domain.StopOvernight:
			return fmt.Errorf("stop %d is a %s marked as restart", i, s.Type)
		}
		if i > 0 {
			prev := stops[i-1]
			if s.CumulativeKm < prev.CumulativeKm-tol {
				return fmt.Errorf("stop %d at %.3f km comes before stop %d at %.3f km", i, s.CumulativeKm, i-1, prev.CumulativeKm)
			}
			if !isMarker(s.Type) && !isMarker(prev.Type) && s.CumulativeKm-prev.CumulativeKm <= tol {
				return fmt.Errorf("%s stop %d and %s stop %d share %.3f km", prev.Type, i-1, s.Type, i, s.CumulativeKm)
			}
			if s.DayNumber < prev.DayNumber {
				return fmt.Errorf("stop %d on day %d follows day %d", i, s.DayNumber, prev.DayNumber)
			}
		}
		perDay[s.DayNumber]++
		if s.Restart {
			restarts[s.DayNumber] = true
		}
	}

	for i, l := range logs {
		switch {
		case l.DayNumber != i+1:
			return fmt.Errorf("log %d has day number %d", i, l.DayNumber)
		case perDay[l.DayNumber] == 0:
			return fmt.Errorf("day %d has no stops", l.DayNumber)
		case !finite(l.DrivingHours) || !finite(l.OnDutyHours) || !finite(l.OffDutyHours) || !finite(l.CycleUsedHours):
			return fmt.Errorf("day %d has non-finite totals", l.DayNumber)
		case l.DrivingHours < 0 || l.OnDutyHours < 0 || l.OffDutyHours < 0 || l.CycleUsedHours < 0:
			return fmt.Errorf("day %d has negative totals", l.DayNumber)
		case l.DrivingHours > l.OnDutyHours+tol:
			return fmt.Errorf("day %d drives %.2f h but is on duty %.2f h", l.DayNumber, l.DrivingHours, l.OnDutyHours)
		case math.Abs(l.OnDutyHours+l.OffDutyHours-r.DailyLogHours) > tol:
			return fmt.Errorf("day %d on and off duty total %.2f h", l.DayNumber, l.OnDutyHours+l.OffDutyHours)
		case l.DrivingHours > r.MaxDrivingPerDay+tol:
			return fmt.Errorf("day %d drives %.2f h, cap %.0f h", l.DayNumber, l.DrivingHours, r.MaxDrivingPerDay)
		case l.OnDutyHours > r.MaxOnDutyWindow+tol:
			return fmt.Errorf("day %d is on duty %.2f h, window %.0f h", l.DayNumber, l.OnDutyHours, r.MaxOnDutyWindow)
		case l.DrivingHours+l.OnDutyHours > r.DailyLogHours+tol:
			return fmt.Errorf("day %d books %.2f h of driving and on duty", l.DayNumber, l.DrivingHours+l.OnDutyHours)
		case l.CycleUsedHours > r.CycleCap+tol:
			return fmt.Errorf("day %d ends with %.2f h of cycle, cap %.0f h", l.DayNumber, l.CycleUsedHours, r.CycleCap)
		case l.Requires34HourRestart != restarts[l.DayNumber]:
			return fmt.Errorf("day %d restart flag %t disagrees with its stops", l.DayNumber, l.Requires34HourRestart)
		}
		if i == 0 {
			continue
		}
		prev := logs[i-1]
		if prev.Requires34HourRestart {
			if math.Abs(l.CycleUsedHours-l.OnDutyHours) > tol {
				return fmt.Errorf("day %d follows a restart with cycle %.2f h but %.2f h on duty",
					l.DayNumber, l.CycleUsedHours, l.OnDutyHours)
			}
		} else if l.CycleUsedHours < prev.CycleUsedHours-tol {
			return fmt.Errorf("cycle drops from %.2f h to %.2f h on day %d without a restart",
				prev.CycleUsedHours, l.CycleUsedHours, l.DayNumber)
		}
	}
	return nil
}

// isMarker reports whether a stop type is a trip marker, which may share
// its km with the stop next to it.
func isMarker(t domain.StopType) bool {
	return t == domain.StopStart || t == domain.StopPickup || t == domain.StopDropoff
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
