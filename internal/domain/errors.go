package domain

import "errors"

// ErrNotFound is returned when the requested resource does not exist
// (an expired or unknown rendered log sheet, a cache miss).
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned when input fails request validation
// (e.g. missing location, non-numeric cycle hours).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrInvalidRoute is returned when a route has fewer than two usable
// coordinates or a non-positive total distance.
var ErrInvalidRoute = errors.New("invalid route")

// ErrCycleExhausted is returned when the starting cycle usage leaves no room
// to plan any driving. A 34-hour restart is required before planning.
var ErrCycleExhausted = errors.New("cycle exhausted: a 34-hour restart is required before planning")

// ErrMalformedStopData marks an internal consistency failure in a computed
// plan. It is a defect, never clamped, and fails the request.
var ErrMalformedStopData = errors.New("malformed stop data")

// ErrUpstreamUnavailable wraps geocoding and routing failures so callers can
// tell a dependency outage (safe to retry) from invalid input.
var ErrUpstreamUnavailable = errors.New("upstream unavailable")
