package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/oapi-codegen/runtime"

	"github.com/pkordes/eld-planner/internal/domain"
	"github.com/pkordes/eld-planner/internal/logbook"
)

// PlanTripRequest is the body of POST /api/plan-trip.
type PlanTripRequest struct {
	CurrentLocation  string      `json:"current_location"`
	PickupLocation   string      `json:"pickup_location"`
	DropoffLocation  string      `json:"dropoff_location"`
	CurrentCycleUsed *CycleHours `json:"current_cycle_used"`
}

// CycleHours accepts a JSON number or a numeric string, since form-backed
// clients send "12.5". A blank string is rejected like any other non-number.
type CycleHours float64

func (c *CycleHours) UnmarshalJSON(b []byte) error {
	var n float64
	if err := json.Unmarshal(b, &n); err == nil {
		*c = CycleHours(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return errors.New("current_cycle_used must be a number")
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return errors.New("current_cycle_used must be a number")
	}
	*c = CycleHours(n)
	return nil
}

// PlanTripResponse is the JSON body of a successful plan.
type PlanTripResponse struct {
	TripID             string              `json:"trip_id"`
	TotalDistanceKm    float64             `json:"total_distance_km"`
	TotalDistanceMiles float64             `json:"total_distance_miles"`
	TotalDrivingHours  float64             `json:"total_driving_hours"`
	TotalDurationHours float64             `json:"total_duration_hours"`
	Stops              []StopBody          `json:"stops"`
	RouteCoordinates   []domain.Coordinate `json:"route_coordinates"`
	Route              RouteBody           `json:"route"`
	DailyLogs          []DailyLogBody      `json:"daily_logs"`
	FMCSADailyLogs     []LogSheetBody      `json:"fmcsa_daily_logs"`
}

type StopBody struct {
	Type         domain.StopType    `json:"type"`
	Location     string             `json:"location"`
	Coordinate   *domain.Coordinate `json:"coordinate"`
	DistanceKm   float64            `json:"distance_km"`
	Duration     float64            `json:"duration"`
	StopDuration float64            `json:"stop_duration"`
	Day          int                `json:"day"`
	IsRestart    bool               `json:"is_restart"`
}

type LegBody struct {
	DistanceKm    float64 `json:"distance_km"`
	DurationHours float64 `json:"duration_hours"`
}

type RouteBody struct {
	CurrentToPickup LegBody `json:"current_to_pickup"`
	PickupToDropoff LegBody `json:"pickup_to_dropoff"`
}

type SegmentBody struct {
	Status    domain.DutyStatus `json:"status"`
	StartHour float64           `json:"start_hour"`
	EndHour   float64           `json:"end_hour"`
	Remark    string            `json:"remark,omitempty"`
}

type DailyLogBody struct {
	DayNumber             int           `json:"day_number"`
	DrivingHours          float64       `json:"driving_hours"`
	OnDutyHours           float64       `json:"on_duty_hours"`
	OffDutyHours          float64       `json:"off_duty_hours"`
	SleeperHours          float64       `json:"sleeper_hours"`
	CycleUsed             float64       `json:"cycle_used"`
	DistanceKm            float64       `json:"distance_km"`
	DistanceMiles         float64       `json:"distance_miles"`
	Requires34HourRestart bool          `json:"requires_34_hour_restart"`
	Schedule              []SegmentBody `json:"schedule"`
	Remarks               []string      `json:"remarks"`
}

type LogSheetBody struct {
	DayNumber       int     `json:"day_number"`
	PDFURL          string  `json:"pdf_url"`
	Filename        string  `json:"filename"`
	DrivingHours    float64 `json:"driving_hours"`
	OnDutyHours     float64 `json:"on_duty_hours"`
	CycleUsed       float64 `json:"cycle_used"`
	RequiresRestart bool    `json:"requires_restart"`
}

// PlanTrip handles POST /api/plan-trip.
// Supports ?format=csv to receive the daily logs as CSV; default is JSON.
func (s *Server) PlanTrip(w http.ResponseWriter, r *http.Request) {
	var format *string
	if err := runtime.BindQueryParameter("form", true, false, "format", r.URL.Query(), &format); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, requestBody("invalid format parameter"))
		return
	}
	wantCSV := format != nil && *format == "csv"
	if format != nil && *format != "csv" && *format != "json" {
		writeJSON(w, http.StatusUnprocessableEntity, requestBody(fmt.Sprintf("unsupported format %q", *format)))
		return
	}

	var body PlanTripRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, ErrorResponse{Error: ErrorDetail{Code: "body_too_large", Message: "request body too large"}})
			return
		}
		writeJSON(w, http.StatusUnprocessableEntity, requestBody(decodeMessage(err)))
		return
	}
	// Missing and null both leave the pointer nil.
	if body.CurrentCycleUsed == nil {
		writeJSON(w, http.StatusUnprocessableEntity, requestBody("current_cycle_used is required"))
		return
	}

	trip, err := s.planner.Plan(r.Context(), domain.PlanRequest{
		CurrentLocation:  body.CurrentLocation,
		PickupLocation:   body.PickupLocation,
		DropoffLocation:  body.DropoffLocation,
		CurrentCycleUsed: float64(*body.CurrentCycleUsed),
	})
	if err != nil {
		status, resp := errorBody(err)
		if status == http.StatusInternalServerError {
			s.log.ErrorContext(r.Context(), "plan trip failed", "error", err)
		}
		writeJSON(w, status, resp)
		return
	}

	if wantCSV {
		writeCSV(w, trip)
		return
	}
	writeJSON(w, http.StatusOK, tripToResponse(trip))
}

// decodeMessage turns a JSON decode error into a client-facing message.
func decodeMessage(err error) string {
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &typeErr) && typeErr.Field != "":
		return typeErr.Field + " has the wrong type"
	case strings.Contains(err.Error(), "current_cycle_used"):
		return "current_cycle_used must be a number"
	default:
		return "request body must be a JSON object"
	}
}

func tripToResponse(t domain.Trip) PlanTripResponse {
	resp := PlanTripResponse{
		TripID:             t.ID.String(),
		TotalDistanceKm:    t.TotalDistanceKm,
		TotalDistanceMiles: logbook.Miles(t.TotalDistanceKm),
		TotalDrivingHours:  t.TotalDrivingHours,
		TotalDurationHours: t.TotalDurationHours,
		Stops:              make([]StopBody, len(t.Stops)),
		RouteCoordinates:   t.Route,
		Route: RouteBody{
			CurrentToPickup: LegBody(t.ToPickup),
			PickupToDropoff: LegBody(t.ToDropoff),
		},
		DailyLogs:      make([]DailyLogBody, len(t.DailyLogs)),
		FMCSADailyLogs: make([]LogSheetBody, 0, len(t.Documents)),
	}
	for i, st := range t.Stops {
		resp.Stops[i] = StopBody{
			Type:         st.Type,
			Location:     st.Label,
			Coordinate:   st.Coordinate,
			DistanceKm:   st.CumulativeKm,
			Duration:     st.ElapsedHours,
			StopDuration: st.DurationHours,
			Day:          st.DayNumber,
			IsRestart:    st.Restart,
		}
	}
	byDay := make(map[int]domain.DailyLog, len(t.DailyLogs))
	for i, l := range t.DailyLogs {
		byDay[l.DayNumber] = l
		resp.DailyLogs[i] = DailyLogBody{
			DayNumber:             l.DayNumber,
			DrivingHours:          l.DrivingHours,
			OnDutyHours:           l.OnDutyHours,
			OffDutyHours:          l.OffDutyHours,
			SleeperHours:          l.SleeperHours,
			CycleUsed:             l.CycleUsedHours,
			DistanceKm:            l.DistanceKm,
			DistanceMiles:         logbook.Miles(l.DistanceKm),
			Requires34HourRestart: l.Requires34HourRestart,
			Schedule:              make([]SegmentBody, len(l.Schedule)),
			Remarks:               t.Remarks[l.DayNumber],
		}
		for j, seg := range l.Schedule {
			resp.DailyLogs[i].Schedule[j] = SegmentBody(seg)
		}
		if resp.DailyLogs[i].Remarks == nil {
			resp.DailyLogs[i].Remarks = []string{}
		}
	}
	for _, d := range t.Documents {
		l := byDay[d.DayNumber]
		resp.FMCSADailyLogs = append(resp.FMCSADailyLogs, LogSheetBody{
			DayNumber:       d.DayNumber,
			PDFURL:          d.URL,
			Filename:        d.Filename,
			DrivingHours:    l.DrivingHours,
			OnDutyHours:     l.OnDutyHours,
			CycleUsed:       l.CycleUsedHours,
			RequiresRestart: l.Requires34HourRestart,
		})
	}
	return resp
}
