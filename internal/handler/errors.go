package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/pkordes/eld-planner/internal/domain"
)

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries a stable machine-readable code and a human message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// notFoundBody returns an ErrorResponse for a missing resource.
// The caller supplies the human-readable message (e.g. "log sheet not found")
// because the handler is the layer that knows what was being looked up.
func notFoundBody(message string) ErrorResponse {
	return ErrorResponse{Error: ErrorDetail{Code: "not_found", Message: message}}
}

// requestBody returns an ErrorResponse for a bad request rejected before
// reaching the service layer (e.g. missing or malformed body).
func requestBody(message string) ErrorResponse {
	return ErrorResponse{Error: ErrorDetail{Code: "validation_error", Message: message}}
}

// planErrors maps service sentinels to status and code, checked in order.
var planErrors = []struct {
	sentinel error
	status   int
	code     string
}{
	{domain.ErrValidation, http.StatusUnprocessableEntity, "validation_error"},
	{domain.ErrInvalidRoute, http.StatusUnprocessableEntity, "invalid_route"},
	{domain.ErrCycleExhausted, http.StatusUnprocessableEntity, "cycle_exhausted"},
	{domain.ErrUpstreamUnavailable, http.StatusBadGateway, "upstream_unavailable"},
}

// errorBody maps a service error to its HTTP status and body.
// Anything unrecognised, MalformedStopData included, is a 500 whose detail
// stays in the server log.
func errorBody(err error) (int, ErrorResponse) {
	for _, e := range planErrors {
		if errors.Is(err, e.sentinel) {
			return e.status, ErrorResponse{Error: ErrorDetail{Code: e.code, Message: unwrapMessage(err, e.sentinel)}}
		}
	}
	return http.StatusInternalServerError, ErrorResponse{Error: ErrorDetail{Code: "internal_error", Message: "internal error"}}
}

// unwrapMessage drops the call-site prefixes in front of a wrapped sentinel.
// e.g. "service.Planner.Plan: geocode \"x\": ors.Geocoder.Geocode: validation error: no match for \"x\""
// → "validation error: no match for \"x\""
func unwrapMessage(err, sentinel error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if i := strings.Index(msg, sentinel.Error()); i >= 0 {
		return msg[i:]
	}
	return msg
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
