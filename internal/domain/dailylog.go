package domain

// DutyStatus is one of the four rows on a driver's daily log grid.
type DutyStatus string

const (
	DutyOff     DutyStatus = "OFF"
	DutySleeper DutyStatus = "SB"
	DutyDriving DutyStatus = "D"
	DutyOnDuty  DutyStatus = "ON"
)

// DutySegment is a contiguous block of one duty status on the 24-hour grid.
// Hours are measured from midnight of the log day.
type DutySegment struct {
	Status    DutyStatus
	StartHour float64
	EndHour   float64
	Remark    string
}

// DailyLog is the compliance record for one duty day of the trip.
//
// Days are numbered by duty day, not calendar day. A 34-hour restart closes
// the day it starts on and the next log is the first shift after it; the
// all-off-duty calendar day the restart spans gets no log of its own.
//
// OnDutyHours includes DrivingHours. OffDutyHours includes SleeperHours and is
// always 24 - OnDutyHours. CycleUsedHours is the cycle counter at the end of
// the day, before any restart that closes it.
type DailyLog struct {
	DayNumber             int
	DrivingHours          float64
	OnDutyHours           float64
	OffDutyHours          float64
	SleeperHours          float64
	CycleUsedHours        float64
	DistanceKm            float64
	Requires34HourRestart bool
	Schedule              []DutySegment
}
