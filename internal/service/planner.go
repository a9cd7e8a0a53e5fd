// Package service contains the business logic for the ELD planner.
// The Planner validates input, gathers upstream data under a deadline, then
// runs the pure scheduling core. It depends on interfaces, not adapters.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/pkordes/eld-planner/internal/document"
	"github.com/pkordes/eld-planner/internal/domain"
	"github.com/pkordes/eld-planner/internal/events"
	"github.com/pkordes/eld-planner/internal/hos"
	"github.com/pkordes/eld-planner/internal/logbook"
	"github.com/pkordes/eld-planner/internal/metrics"
	"github.com/pkordes/eld-planner/internal/route"
	"github.com/pkordes/eld-planner/internal/upstream"
)

// Deps are the collaborators a Planner needs. Renderer and Events may be nil.
type Deps struct {
	Geocoder  upstream.Geocoder
	Router    upstream.Router
	Scheduler *hos.Scheduler
	Renderer  document.LogRenderer
	Events    events.Publisher
	Metrics   *metrics.Collector
	Log       *slog.Logger

	// UpstreamTimeout bounds all geocoding and routing for one plan.
	UpstreamTimeout time.Duration
	Carrier         string
}

// Planner turns a PlanRequest into a fully computed Trip.
type Planner struct {
	deps  Deps
	now   func() time.Time
	newID func() uuid.UUID
}

// NewPlanner constructs a Planner. Events defaults to events.Nop.
func NewPlanner(d Deps) *Planner {
	if d.Events == nil {
		d.Events = events.Nop{}
	}
	if d.UpstreamTimeout <= 0 {
		d.UpstreamTimeout = 20 * time.Second
	}
	return &Planner{deps: d, now: time.Now, newID: uuid.New}
}

// WithClock overrides the time source and ID generator, for tests.
func (p *Planner) WithClock(now func() time.Time, newID func() uuid.UUID) *Planner {
	p.now = now
	p.newID = newID
	return p
}

// Plan geocodes the three locations, routes current → pickup → dropoff,
// schedules the trip under the HOS rules, and renders one log sheet per day.
//
// Returns domain.ErrValidation for bad input or unknown places,
// domain.ErrUpstreamUnavailable when geocoding or routing fails,
// domain.ErrInvalidRoute or domain.ErrCycleExhausted from the scheduler, and
// domain.ErrMalformedStopData if the computed plan is inconsistent.
func (p *Planner) Plan(ctx context.Context, req domain.PlanRequest) (trip domain.Trip, err error) {
	start := time.Now()
	defer func() {
		p.deps.Metrics.Plans.WithLabelValues(Outcome(err)).Inc()
		p.deps.Metrics.PlanDuration.Observe(time.Since(start).Seconds())
	}()

	if err := validatePlanRequest(req); err != nil {
		return domain.Trip{}, err
	}
	if err := p.deps.Scheduler.CheckCycle(req.CurrentCycleUsed); err != nil {
		return domain.Trip{}, fmt.Errorf("service.Planner.Plan: %w", err)
	}

	points, res, err := p.fetchRoute(ctx, req)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.Planner.Plan: %w", err)
	}

	model, err := route.Build(res.Coordinates)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.Planner.Plan: %w", err)
	}

	plan, err := p.deps.Scheduler.Schedule(hos.Input{
		TotalDistanceKm:        model.TotalKm(),
		StartingCycleUsedHours: req.CurrentCycleUsed,
	})
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.Planner.Plan: %w", err)
	}

	stops := route.PlaceStops(model, plan.Stops)
	days, err := logbook.Assemble(stops, plan.Days, model.TotalKm(), p.deps.Scheduler.Rules())
	if err != nil {
		p.deps.Log.ErrorContext(ctx, "assembled plan is inconsistent", "error", err)
		return domain.Trip{}, fmt.Errorf("service.Planner.Plan: %w", err)
	}

	trip = domain.Trip{
		ID:                     p.newID(),
		Request:                req,
		StartingCycleUsedHours: req.CurrentCycleUsed,
		TotalDistanceKm:        model.TotalKm(),
		TotalDrivingHours:      plan.TotalDrivingHours,
		TotalDurationHours:     plan.TotalElapsedHours,
		Stops:                  stops,
		DailyLogs:              plan.Days,
		Remarks:                make(map[int][]string, len(days)),
		Route:                  res.Coordinates,
		Origin:                 points[0],
		Pickup:                 points[1],
		Dropoff:                points[2],
	}
	if len(res.Legs) == 2 {
		trip.ToPickup, trip.ToDropoff = res.Legs[0], res.Legs[1]
	}
	for _, d := range days {
		trip.Remarks[d.Log.DayNumber] = d.Remarks
	}

	if p.deps.Renderer != nil {
		docs, err := p.render(ctx, trip, days)
		if err != nil {
			return domain.Trip{}, fmt.Errorf("service.Planner.Plan: %w", err)
		}
		trip.Documents = docs
	}

	p.record(trip)
	p.publish(ctx, trip)
	return trip, nil
}

// fetchRoute geocodes the three locations concurrently and routes through
// them, all under one upstream deadline. Nothing downstream runs on a
// partial result.
func (p *Planner) fetchRoute(ctx context.Context, req domain.PlanRequest) ([3]domain.Coordinate, upstream.RouteResult, error) {
	uctx, cancel := context.WithTimeout(ctx, p.deps.UpstreamTimeout)
	defer cancel()

	var points [3]domain.Coordinate
	g, gctx := errgroup.WithContext(uctx)
	for i, loc := range []string{req.CurrentLocation, req.PickupLocation, req.DropoffLocation} {
		g.Go(func() (err error) {
			defer p.deps.Metrics.Time(gctx, "geocode")(&err)
			c, err := p.deps.Geocoder.Geocode(gctx, loc)
			if err != nil {
				return upstreamError(fmt.Sprintf("geocode %q", loc), err)
			}
			points[i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return points, upstream.RouteResult{}, err
	}

	res, err := p.routeThrough(uctx, points[:])
	if err != nil {
		return points, upstream.RouteResult{}, upstreamError("route", err)
	}
	return points, res, nil
}

func (p *Planner) routeThrough(ctx context.Context, waypoints []domain.Coordinate) (res upstream.RouteResult, err error) {
	defer p.deps.Metrics.Time(ctx, "route")(&err)
	return p.deps.Router.Route(ctx, waypoints)
}

// upstreamError keeps "no such place" as a validation error and marks
// everything else (timeouts, outages, bad responses) as retryable.
func upstreamError(op string, err error) error {
	if errors.Is(err, domain.ErrValidation) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrUpstreamUnavailable, err)
}

func (p *Planner) render(ctx context.Context, trip domain.Trip, days []logbook.Day) ([]domain.LogDocument, error) {
	today := p.now().UTC().Truncate(24 * time.Hour)
	docs := make([]domain.LogDocument, 0, len(days))
	var miles float64
	for i, d := range days {
		miles += logbook.Miles(d.Log.DistanceKm)
		from, to := sheetEnds(trip.Request, i, len(days))
		ref, err := p.deps.Renderer.Render(ctx, document.LogSheet{
			TripID:     trip.ID,
			Date:       today.AddDate(0, 0, i),
			Day:        d,
			From:       from,
			To:         to,
			TotalMiles: miles,
			Carrier:    p.deps.Carrier,
		})
		if err != nil {
			return nil, fmt.Errorf("render day %d: %w", d.Log.DayNumber, err)
		}
		p.deps.Metrics.LogsRendered.Inc()
		docs = append(docs, domain.LogDocument{DayNumber: d.Log.DayNumber, Filename: ref.Filename, URL: ref.URL})
	}
	return docs, nil
}

// sheetEnds returns the From/To lines printed on day i (0-based) of n.
func sheetEnds(req domain.PlanRequest, i, n int) (string, string) {
	enroute := "Enroute to " + req.DropoffLocation
	switch {
	case n == 1:
		return req.CurrentLocation, req.DropoffLocation
	case i == 0:
		return req.CurrentLocation, enroute
	case i == n-1:
		return enroute, req.DropoffLocation
	default:
		return fmt.Sprintf("Day %d rest stop", i+1), fmt.Sprintf("Day %d rest stop", i+2)
	}
}

func (p *Planner) record(trip domain.Trip) {
	p.deps.Metrics.PlanDays.Observe(float64(len(trip.DailyLogs)))
	for _, s := range trip.Stops {
		if s.Restart {
			p.deps.Metrics.Restarts.Inc()
		}
	}
}

func (p *Planner) publish(ctx context.Context, trip domain.Trip) {
	restarts := 0
	for _, s := range trip.Stops {
		if s.Restart {
			restarts++
		}
	}
	last := trip.DailyLogs[len(trip.DailyLogs)-1]
	msg := events.TripPlanned{
		TripID:             trip.ID.String(),
		PlannedAt:          p.now().UTC(),
		Pickup:             trip.Request.PickupLocation,
		Dropoff:            trip.Request.DropoffLocation,
		TotalDistanceKm:    trip.TotalDistanceKm,
		TotalDrivingHours:  trip.TotalDrivingHours,
		TotalDurationHours: trip.TotalDurationHours,
		Days:               len(trip.DailyLogs),
		Restarts:           restarts,
		StartingCycleHours: trip.StartingCycleUsedHours,
		EndingCycleHours:   last.CycleUsedHours,
	}
	if err := p.deps.Events.PublishTripPlanned(ctx, msg); err != nil {
		p.deps.Log.WarnContext(ctx, "publish trip planned event failed", "trip_id", msg.TripID, "error", err)
	}
}

// Outcome is the metrics label for a planning result.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrValidation):
		return "validation_error"
	case errors.Is(err, domain.ErrInvalidRoute):
		return "invalid_route"
	case errors.Is(err, domain.ErrCycleExhausted):
		return "cycle_exhausted"
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		return "upstream_unavailable"
	default:
		return "internal_error"
	}
}

// validatePlanRequest enforces the request rules the scheduler does not.
//   - All three locations must be non-blank.
//
// Cycle hours are range-checked by the scheduler, which reports
// domain.ErrCycleExhausted.
func validatePlanRequest(req domain.PlanRequest) error {
	var missing []string
	for _, f := range []struct{ name, value string }{
		{"current_location", req.CurrentLocation},
		{"pickup_location", req.PickupLocation},
		{"dropoff_location", req.DropoffLocation},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s required", domain.ErrValidation, strings.Join(missing, ", "))
	}
	return nil
}
