package hos

import (
	"fmt"
	"math"

	"github.com/pkordes/eld-planner/internal/domain"
)

// tolKm and tolHours absorb floating-point drift when deciding which bound a
// driving step landed on.
const (
	tolKm    = 1e-6
	tolHours = 1e-9

	// maxSteps guards the simulation loop. Every step either covers distance
	// or emits a stop, so a real trip never gets close.
	maxSteps = 100000
)

// Input is what the scheduler needs to know about a trip.
type Input struct {
	TotalDistanceKm        float64
	StartingCycleUsedHours float64
}

// Plan is the scheduler output: stops in trip order and one log per duty day.
// Stop coordinates are not resolved here.
type Plan struct {
	Stops             []domain.Stop
	Days              []domain.DailyLog
	TotalDrivingHours float64
	// TotalElapsedHours is driving time plus the duration of every stop,
	// i.e. the fastest legal trip.
	TotalElapsedHours float64
}

// Scheduler plans stops and duty days under a fixed rule set.
// It holds no per-trip state and is safe for concurrent use.
type Scheduler struct {
	rules Rules
}

// NewScheduler returns a Scheduler for rules, or an error wrapping
// domain.ErrValidation when the rules are unusable.
func NewScheduler(rules Rules) (*Scheduler, error) {
	if err := rules.Validate(); err != nil {
		return nil, fmt.Errorf("hos.NewScheduler: %w", err)
	}
	return &Scheduler{rules: rules}, nil
}

// Rules returns the rule set the scheduler enforces.
func (s *Scheduler) Rules() Rules { return s.rules }

// Schedule simulates the trip and returns its stops and daily logs.
//
// Errors wrap domain.ErrInvalidRoute when the distance is not a positive
// finite number, and domain.ErrCycleExhausted when the starting cycle leaves
// no room to plan.
func (s *Scheduler) Schedule(in Input) (Plan, error) {
	d := in.TotalDistanceKm
	if math.IsNaN(d) || math.IsInf(d, 0) || d <= 0 {
		return Plan{}, fmt.Errorf("hos.Scheduler.Schedule: %w: total distance %v km", domain.ErrInvalidRoute, d)
	}
	if err := s.CheckCycle(in.StartingCycleUsedHours); err != nil {
		return Plan{}, fmt.Errorf("hos.Scheduler.Schedule: %w", err)
	}

	sim := &simulation{r: s.rules, total: d, cycle: in.StartingCycleUsedHours, day: 1, freshCycle: true}
	if err := sim.run(); err != nil {
		return Plan{}, fmt.Errorf("hos.Scheduler.Schedule: %w", err)
	}
	return Plan{
		Stops:             sim.stops,
		Days:              sim.days,
		TotalDrivingHours: sim.totalDriving,
		TotalElapsedHours: sim.elapsed,
	}, nil
}

// CheckCycle returns an error wrapping domain.ErrCycleExhausted unless hours
// is a usable starting cycle: finite, not negative and under the cap.
// It needs no route, so callers can reject a request before any lookups.
func (s *Scheduler) CheckCycle(hours float64) error {
	if math.IsNaN(hours) || math.IsInf(hours, 0) || hours < 0 || hours >= s.rules.CycleCap {
		return fmt.Errorf("%w (starting cycle %v h, cap %v h)", domain.ErrCycleExhausted, hours, s.rules.CycleCap)
	}
	return nil
}

// bound is one of the limits on how far the next driving step may go.
type bound int

const (
	boundComplete bound = iota
	boundCycle
	boundDay
	boundFuel
	boundBreak
)

type simulation struct {
	r     Rules
	total float64

	covered      float64
	elapsed      float64
	totalDriving float64

	day          int
	dayStartKm   float64
	drivingToday float64
	onDutyToday  float64
	cycle        float64
	sinceFuelKm  float64
	sinceBreak   float64

	// freshCycle is set on day 1 and after a restart; the log grid shows the
	// hours before the shift as OFF rather than sleeper berth.
	freshCycle bool

	fuelStops  int
	breakStops int

	schedule []domain.DutySegment
	stops    []domain.Stop
	days     []domain.DailyLog
}

func (s *simulation) run() error {
	s.openDay()
	s.emit(domain.StopStart, "Start", 0)

	// A pickup that leaves no drivable cycle time waits for a restart first.
	reserve := s.r.DropoffDuration
	if s.cycle+s.r.PickupDuration+reserve >= s.r.CycleCap-tolHours {
		s.closeDay(true, false)
	}
	s.onDuty(domain.StopPickup, "Pickup", s.r.PickupDuration)

	for step := 0; step < maxSteps; step++ {
		limits := s.limits()
		next := math.Inf(1)
		for _, km := range limits {
			next = math.Min(next, km)
		}
		s.drive(next)

		switch {
		case limits[boundComplete]-next <= tolKm:
			s.finish()
			return nil
		case limits[boundCycle]-next <= tolKm:
			s.closeDay(true, limits[boundFuel]-next <= tolKm)
		case limits[boundDay]-next <= tolKm:
			s.closeDay(s.needsRestart(), limits[boundFuel]-next <= tolKm)
		case limits[boundFuel]-next <= tolKm:
			s.fuelStop()
		default:
			s.restBreak()
		}
	}
	return fmt.Errorf("%w: no progress after %d steps at %.1f km", domain.ErrMalformedStopData, maxSteps, s.covered)
}

// limits returns how far the truck may drive before each bound is hit.
func (s *simulation) limits() [5]float64 {
	dayHours, cycleHours := s.budget(0)

	var l [5]float64
	l[boundComplete] = math.Max(0, s.total-s.covered)
	l[boundCycle] = s.r.km(math.Max(0, cycleHours))
	l[boundDay] = s.r.km(math.Max(0, dayHours))
	l[boundFuel] = math.Max(0, s.r.FuelIntervalKm-s.sinceFuelKm)
	l[boundBreak] = s.r.km(math.Max(0, s.r.BreakAfterDriving-s.sinceBreak))
	return l
}

// budget returns the driving hours left in the day and in the cycle once h
// more non-driving on-duty hours are booked. Both keep the dropoff reserve.
func (s *simulation) budget(h float64) (day, cycle float64) {
	reserve := s.r.DropoffDuration

	driveLeft := s.r.MaxDrivingPerDay - s.drivingToday
	windowLeft := s.r.MaxOnDutyWindow - reserve - s.onDutyToday - h
	// Driving counts against both the driving and on-duty ledgers, so each
	// driven hour uses two hours of the combined log budget.
	ledgerLeft := (s.r.DailyLogHours - reserve - s.onDutyToday - s.drivingToday - h) / 2
	day = math.Min(driveLeft, math.Min(windowLeft, ledgerLeft))
	cycle = s.r.CycleCap - reserve - s.cycle - h
	return day, cycle
}

func (s *simulation) drive(km float64) {
	if km <= 0 {
		return
	}
	h := s.r.hours(km)
	s.segment(domain.DutyDriving, h, "")
	s.covered += km
	s.sinceFuelKm += km
	s.sinceBreak += h
	s.drivingToday += h
	s.onDutyToday += h
	s.cycle += h
	s.elapsed += h
	s.totalDriving += h
}

// worthwhile reports whether an on-duty stop of h hours leaves some driving
// time in both the day and the cycle. A stop that does not is absorbed by
// the day close at the same point instead.
func (s *simulation) worthwhile(h float64) bool {
	day, cycle := s.budget(h)
	return day > tolHours && cycle > tolHours
}

func (s *simulation) fuelStop() {
	h := s.r.FuelStopDuration
	if s.r.BreakAfterDriving-s.sinceBreak <= tolHours {
		// The break falls due here too; one stop covers both.
		h = math.Max(h, s.r.BreakDuration)
	}
	if !s.worthwhile(h) {
		s.closeDay(s.needsRestart(), true)
		return
	}
	s.fuelStops++
	s.onDuty(domain.StopFuel, fmt.Sprintf("Fuel stop %d", s.fuelStops), h)
	s.sinceFuelKm = 0
	if h >= s.r.BreakDuration {
		s.sinceBreak = 0
	}
}

func (s *simulation) restBreak() {
	h := s.r.BreakDuration
	if !s.worthwhile(h) {
		s.closeDay(s.needsRestart(), false)
		return
	}
	s.breakStops++
	s.stops = append(s.stops, s.stop(domain.StopRest, fmt.Sprintf("%s break %d", breakName(h), s.breakStops), h))
	s.work(domain.DutyOnDuty, h, "Rest break")
	s.sinceBreak = 0
}

// needsRestart reports whether the cycle has no driving time left, or the
// next day's projected on-duty time would pass the cap.
func (s *simulation) needsRestart() bool {
	reserve := s.r.DropoffDuration
	if s.cycle >= s.r.CycleCap-reserve-tolHours {
		return true
	}
	remaining := s.r.hours(math.Max(0, s.total-s.covered))
	next := math.Min(s.r.MaxOnDutyWindow, remaining+reserve)
	return s.cycle+next > s.r.CycleCap+tolHours
}

func (s *simulation) onDuty(t domain.StopType, label string, h float64) {
	s.stops = append(s.stops, s.stop(t, label, h))
	s.work(domain.DutyOnDuty, h, label)
}

// work books h on-duty hours that are not driving.
func (s *simulation) work(status domain.DutyStatus, h float64, remark string) {
	if h <= 0 {
		return
	}
	s.segment(status, h, remark)
	s.onDutyToday += h
	s.cycle += h
	s.elapsed += h
}

func (s *simulation) closeDay(restart, fueled bool) {
	rest := s.r.MinOffDutyBetweenShifts
	label := fmt.Sprintf("10-hour rest (end of day %d)", s.day)
	if restart {
		rest = s.r.RestartDuration
		label = "34-hour restart"
	}
	st := s.stop(domain.StopOvernight, label, rest)
	st.Restart = restart
	s.stops = append(s.stops, st)

	tail := domain.DutySleeper
	if restart {
		tail = domain.DutyOff
	}
	s.closeGrid(tail, label)
	s.days = append(s.days, s.log(restart))

	s.elapsed += rest
	s.day++
	s.drivingToday = 0
	s.onDutyToday = 0
	s.sinceBreak = 0
	if fueled {
		s.sinceFuelKm = 0
	}
	s.freshCycle = restart
	if restart {
		s.cycle = 0
	}
	s.openDay()
}

func (s *simulation) finish() {
	s.covered = s.total
	s.onDuty(domain.StopDropoff, "Dropoff", s.r.DropoffDuration)
	s.closeGrid(domain.DutyOff, "End of trip")
	s.days = append(s.days, s.log(false))
}

func (s *simulation) stop(t domain.StopType, label string, h float64) domain.Stop {
	return domain.Stop{
		Type:          t,
		Label:         label,
		CumulativeKm:  s.covered,
		DurationHours: h,
		DayNumber:     s.day,
		ElapsedHours:  s.elapsed,
	}
}

func (s *simulation) emit(t domain.StopType, label string, h float64) {
	s.stops = append(s.stops, s.stop(t, label, h))
}

func (s *simulation) log(restart bool) domain.DailyLog {
	var sleeper float64
	for _, seg := range s.schedule {
		if seg.Status == domain.DutySleeper {
			sleeper += seg.EndHour - seg.StartHour
		}
	}
	return domain.DailyLog{
		DayNumber:             s.day,
		DrivingHours:          s.drivingToday,
		OnDutyHours:           s.onDutyToday,
		OffDutyHours:          math.Max(s.r.DailyLogHours-s.onDutyToday, 0),
		SleeperHours:          sleeper,
		CycleUsedHours:        s.cycle,
		DistanceKm:            s.covered - s.dayStartKm,
		Requires34HourRestart: restart,
		Schedule:              s.schedule,
	}
}

// openDay starts a fresh log grid with the hours before the shift.
func (s *simulation) openDay() {
	s.schedule = nil
	s.dayStartKm = s.covered
	before := domain.DutySleeper
	if s.freshCycle {
		before = domain.DutyOff
	}
	if s.r.ShiftStartHour > 0 {
		s.schedule = append(s.schedule, domain.DutySegment{Status: before, StartHour: 0, EndHour: s.r.ShiftStartHour})
	}
}

// clock is the current hour on the log grid. Every hour after the shift
// start is on duty until the day closes.
func (s *simulation) clock() float64 { return s.r.ShiftStartHour + s.onDutyToday }

func (s *simulation) segment(status domain.DutyStatus, h float64, remark string) {
	start := s.clock()
	end := start + h
	if n := len(s.schedule); n > 0 {
		last := &s.schedule[n-1]
		if last.Status == status && last.Remark == remark && math.Abs(last.EndHour-start) <= tolHours {
			last.EndHour = end
			return
		}
	}
	s.schedule = append(s.schedule, domain.DutySegment{Status: status, StartHour: start, EndHour: end, Remark: remark})
}

func (s *simulation) closeGrid(status domain.DutyStatus, remark string) {
	if left := s.r.DailyLogHours - s.clock(); left > tolHours {
		s.segment(status, left, remark)
	}
}

func breakName(h float64) string {
	if h == 0.5 {
		return "30-minute"
	}
	return fmt.Sprintf("%.0f-minute", h*60)
}
