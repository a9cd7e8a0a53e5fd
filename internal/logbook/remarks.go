package logbook

import (
	"fmt"

	"github.com/pkordes/eld-planner/internal/domain"
)

// Remarks returns the human-readable lines printed in the remarks section of
// a day's log sheet: one per stop, then a summary of the day.
func Remarks(l domain.DailyLog, stops []domain.Stop) []string {
	out := make([]string, 0, len(stops)+2)
	for _, s := range stops {
		out = append(out, stopRemark(s))
	}
	out = append(out, fmt.Sprintf("Day %d: driving %.2f h, on duty %.2f h, off duty %.2f h, %.0f km (%.0f mi)",
		l.DayNumber, l.DrivingHours, l.OnDutyHours, l.OffDutyHours, l.DistanceKm, Miles(l.DistanceKm)))
	if l.Requires34HourRestart {
		out = append(out, fmt.Sprintf("Cycle at %.2f h: 34-hour restart taken", l.CycleUsedHours))
	} else {
		out = append(out, fmt.Sprintf("Cycle used %.2f h", l.CycleUsedHours))
	}
	return out
}

func stopRemark(s domain.Stop) string {
	label := s.Label
	if label == "" {
		label = string(s.Type)
	}
	where := fmt.Sprintf("%s at %.0f km (%.0f mi)", label, s.CumulativeKm, Miles(s.CumulativeKm))
	switch {
	case s.Type == domain.StopOvernight:
		return fmt.Sprintf("%s, %.0f h off duty", where, s.DurationHours)
	case s.DurationHours > 0:
		return fmt.Sprintf("%s, %.2g h on duty", where, s.DurationHours)
	default:
		return where
	}
}
