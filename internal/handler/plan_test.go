package handler_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/eld-planner/internal/domain"
	"github.com/pkordes/eld-planner/internal/handler"
	"github.com/pkordes/eld-planner/internal/middleware"
)

// mockPlanner is a test double for handler.Planner.
type mockPlanner struct {
	plan func(ctx context.Context, req domain.PlanRequest) (domain.Trip, error)
}

func (m *mockPlanner) Plan(ctx context.Context, req domain.PlanRequest) (domain.Trip, error) {
	return m.plan(ctx, req)
}

// mockLogStore is a test double for handler.LogStore.
type mockLogStore struct {
	get func(name string) ([]byte, error)
}

func (m *mockLogStore) Get(name string) ([]byte, error) { return m.get(name) }

// compile-time checks.
var (
	_ handler.Planner  = (*mockPlanner)(nil)
	_ handler.LogStore = (*mockLogStore)(nil)
)

// ---- helpers ---------------------------------------------------------------

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func newHTTPHandler(p handler.Planner) http.Handler {
	return handler.NewServer(p, nil, discard()).Handler()
}

var tripID = uuid.MustParse("0b6a8f3e-5c1d-4e2f-9a7b-3c4d5e6f7a8b")

// tripFixture is a one-day, 500 km plan.
func tripFixture() domain.Trip {
	origin := domain.Coordinate{Lng: -97.5, Lat: 35.5}
	dest := domain.Coordinate{Lng: -92.0, Lat: 35.0}
	return domain.Trip{
		ID:                     tripID,
		StartingCycleUsedHours: 10,
		TotalDistanceKm:        500,
		TotalDrivingHours:      500.0 / 88,
		TotalDurationHours:     500.0/88 + 2,
		Stops: []domain.Stop{
			{Type: domain.StopStart, Label: "Start", DayNumber: 1, Coordinate: &origin},
			{Type: domain.StopPickup, Label: "Pickup", DurationHours: 1, DayNumber: 1, Coordinate: &origin},
			{Type: domain.StopDropoff, Label: "Dropoff", CumulativeKm: 500, DurationHours: 1, DayNumber: 1, ElapsedHours: 1 + 500.0/88, Coordinate: &dest},
		},
		DailyLogs: []domain.DailyLog{{
			DayNumber:      1,
			DrivingHours:   500.0 / 88,
			OnDutyHours:    500.0/88 + 2,
			OffDutyHours:   24 - (500.0/88 + 2),
			SleeperHours:   0,
			CycleUsedHours: 10 + 500.0/88 + 2,
			DistanceKm:     500,
			Schedule: []domain.DutySegment{
				{Status: domain.DutyOff, StartHour: 0, EndHour: 6},
				{Status: domain.DutyOnDuty, StartHour: 6, EndHour: 7, Remark: "Pickup"},
			},
		}},
		Remarks:   map[int][]string{1: {"Start at 0 km (0 mi)"}},
		Route:     []domain.Coordinate{origin, dest},
		ToPickup:  domain.Leg{DistanceKm: 0},
		ToDropoff: domain.Leg{DistanceKm: 500, DurationHours: 6},
		Documents: []domain.LogDocument{{DayNumber: 1, Filename: "fmcsa_log_x_day_1.pdf", URL: "http://localhost:8080/api/logs/fmcsa_log_x_day_1.pdf"}},
	}
}

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func validBody() map[string]any {
	return map[string]any{
		"current_location":   "Oklahoma City, OK",
		"pickup_location":    "Oklahoma City, OK",
		"dropoff_location":   "Little Rock, AR",
		"current_cycle_used": 10,
	}
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) handler.ErrorDetail {
	t.Helper()
	var body handler.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body.Error
}

// ---- POST /api/plan-trip ---------------------------------------------------

func TestPlanTrip_Success(t *testing.T) {
	var got domain.PlanRequest
	h := newHTTPHandler(&mockPlanner{plan: func(_ context.Context, req domain.PlanRequest) (domain.Trip, error) {
		got = req
		return tripFixture(), nil
	}})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/plan-trip", jsonBody(t, validBody())))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Little Rock, AR", got.DropoffLocation)
	assert.Equal(t, 10.0, got.CurrentCycleUsed)

	var resp handler.PlanTripResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, tripID.String(), resp.TripID)
	assert.Equal(t, 500.0, resp.TotalDistanceKm)
	assert.InDelta(t, 310.7, resp.TotalDistanceMiles, 0.1)
	require.Len(t, resp.Stops, 3)
	assert.Equal(t, domain.StopDropoff, resp.Stops[2].Type)
	assert.Equal(t, 500.0, resp.Stops[2].DistanceKm)
	assert.Equal(t, 1.0, resp.Stops[2].StopDuration)
	require.NotNil(t, resp.Stops[2].Coordinate)
	assert.Equal(t, -92.0, resp.Stops[2].Coordinate.Lng)
	require.Len(t, resp.RouteCoordinates, 2)
	assert.Equal(t, 500.0, resp.Route.PickupToDropoff.DistanceKm)

	require.Len(t, resp.DailyLogs, 1)
	assert.Equal(t, []string{"Start at 0 km (0 mi)"}, resp.DailyLogs[0].Remarks)
	require.Len(t, resp.DailyLogs[0].Schedule, 2)
	assert.Equal(t, "Pickup", resp.DailyLogs[0].Schedule[1].Remark)

	require.Len(t, resp.FMCSADailyLogs, 1)
	assert.Equal(t, "fmcsa_log_x_day_1.pdf", resp.FMCSADailyLogs[0].Filename)
	assert.Equal(t, resp.DailyLogs[0].CycleUsed, resp.FMCSADailyLogs[0].CycleUsed)
}

func TestPlanTrip_CoordinatesAreLngLatArrays(t *testing.T) {
	h := newHTTPHandler(&mockPlanner{plan: func(context.Context, domain.PlanRequest) (domain.Trip, error) {
		return tripFixture(), nil
	}})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/plan-trip", jsonBody(t, validBody())))

	require.Equal(t, http.StatusOK, rec.Code)
	var raw struct {
		RouteCoordinates [][2]float64 `json:"route_coordinates"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&raw))
	assert.Equal(t, [2]float64{-97.5, 35.5}, raw.RouteCoordinates[0])
}

func TestPlanTrip_CycleAsString(t *testing.T) {
	var got domain.PlanRequest
	h := newHTTPHandler(&mockPlanner{plan: func(_ context.Context, req domain.PlanRequest) (domain.Trip, error) {
		got = req
		return tripFixture(), nil
	}})
	body := validBody()
	body["current_cycle_used"] = "12.5"

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/plan-trip", jsonBody(t, body)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 12.5, got.CurrentCycleUsed)
}

func TestPlanTrip_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"not json", "{", "JSON object"},
		{"cycle not numeric", `{"current_location":"a","pickup_location":"b","dropoff_location":"c","current_cycle_used":"lots"}`, "current_cycle_used must be a number"},
		{"location wrong type", `{"current_location":1}`, "current_location"},
		{"cycle missing", `{"current_location":"a","pickup_location":"b","dropoff_location":"c"}`, "current_cycle_used is required"},
		{"cycle null", `{"current_location":"a","pickup_location":"b","dropoff_location":"c","current_cycle_used":null}`, "current_cycle_used is required"},
		{"cycle empty string", `{"current_location":"a","pickup_location":"b","dropoff_location":"c","current_cycle_used":""}`, "current_cycle_used must be a number"},
		{"cycle blank string", `{"current_location":"a","pickup_location":"b","dropoff_location":"c","current_cycle_used":"  "}`, "current_cycle_used must be a number"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := newHTTPHandler(&mockPlanner{plan: func(context.Context, domain.PlanRequest) (domain.Trip, error) {
				t.Fatal("planner must not be called")
				return domain.Trip{}, nil
			}})

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/plan-trip", strings.NewReader(tc.body)))

			require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			e := decodeError(t, rec)
			assert.Equal(t, "validation_error", e.Code)
			assert.Contains(t, e.Message, tc.want)
		})
	}
}

func TestPlanTrip_ErrorMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("%w: pickup_location required", domain.ErrValidation), http.StatusUnprocessableEntity, "validation_error"},
		{fmt.Errorf("service.Planner.Plan: route.Build: %w: need at least 2 usable coordinates", domain.ErrInvalidRoute), http.StatusUnprocessableEntity, "invalid_route"},
		{fmt.Errorf("service.Planner.Plan: hos.Scheduler.Schedule: %w", domain.ErrCycleExhausted), http.StatusUnprocessableEntity, "cycle_exhausted"},
		{fmt.Errorf("service.Planner.Plan: route: %w: status 503", domain.ErrUpstreamUnavailable), http.StatusBadGateway, "upstream_unavailable"},
		{fmt.Errorf("service.Planner.Plan: %w: day 2 has no stops", domain.ErrMalformedStopData), http.StatusInternalServerError, "internal_error"},
		{errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range tests {
		t.Run(tc.code, func(t *testing.T) {
			h := newHTTPHandler(&mockPlanner{plan: func(context.Context, domain.PlanRequest) (domain.Trip, error) {
				return domain.Trip{}, tc.err
			}})

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/plan-trip", jsonBody(t, validBody())))

			require.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.code, decodeError(t, rec).Code)
		})
	}
}

func TestPlanTrip_ErrorMessageDropsCallSites(t *testing.T) {
	h := newHTTPHandler(&mockPlanner{plan: func(context.Context, domain.PlanRequest) (domain.Trip, error) {
		return domain.Trip{}, fmt.Errorf("service.Planner.Plan: hos.Scheduler.Schedule: %w: starting cycle 70 h, cap 70 h", domain.ErrCycleExhausted)
	}})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/plan-trip", jsonBody(t, validBody())))

	e := decodeError(t, rec)
	assert.True(t, strings.HasPrefix(e.Message, "cycle exhausted: a 34-hour restart is required"), e.Message)
	assert.NotContains(t, e.Message, "service.Planner")
}

func TestPlanTrip_InternalErrorHidesDetail(t *testing.T) {
	h := newHTTPHandler(&mockPlanner{plan: func(context.Context, domain.PlanRequest) (domain.Trip, error) {
		return domain.Trip{}, errors.New("pq: password authentication failed")
	}})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/plan-trip", jsonBody(t, validBody())))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestPlanTrip_BodyTooLarge(t *testing.T) {
	h := middleware.NewMaxBodySizeHandler(64)(newHTTPHandler(&mockPlanner{plan: func(context.Context, domain.PlanRequest) (domain.Trip, error) {
		return tripFixture(), nil
	}}))
	body := `{"current_location":"` + strings.Repeat("x", 200) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/plan-trip", strings.NewReader(body))
	req.ContentLength = -1

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "body_too_large", decodeError(t, rec).Code)
}

// ---- ?format=csv -----------------------------------------------------------

func TestPlanTrip_CSV(t *testing.T) {
	h := newHTTPHandler(&mockPlanner{plan: func(context.Context, domain.PlanRequest) (domain.Trip, error) {
		return tripFixture(), nil
	}})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/plan-trip?format=csv", jsonBody(t, validBody())))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), tripID.String())

	records, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "trip_id", records[0][0])
	row := records[1]
	assert.Equal(t, tripID.String(), row[0])
	assert.Equal(t, "1", row[1])
	assert.Equal(t, "5.68", row[2])
	assert.Equal(t, "500.0", row[7])
	assert.Equal(t, "310.7", row[8])
	assert.Equal(t, "false", row[9])
	assert.Equal(t, "Start|Pickup|Dropoff", row[10])
	assert.Equal(t, "http://localhost:8080/api/logs/fmcsa_log_x_day_1.pdf", row[11])
}

func TestPlanTrip_UnsupportedFormat(t *testing.T) {
	h := newHTTPHandler(&mockPlanner{plan: func(context.Context, domain.PlanRequest) (domain.Trip, error) {
		return tripFixture(), nil
	}})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/plan-trip?format=xml", jsonBody(t, validBody())))

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, decodeError(t, rec).Message, "xml")
}
