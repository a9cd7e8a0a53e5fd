// Package handler implements the HTTP handlers for the ELD planner API.
// All handlers are methods on Server. Methods are split into domain-specific
// files (health.go, plan.go, logs.go, export.go) but all share the same Server
// struct so they can access its dependencies.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pkordes/eld-planner/internal/domain"
	"github.com/pkordes/eld-planner/spec"
)

// Planner defines the business operation the plan handler depends on.
// Defining the interface here (in the consumer package) follows the Go
// convention: "accept interfaces, return concrete types". It lets handler
// tests inject a mock without touching upstream services.
type Planner interface {
	Plan(ctx context.Context, req domain.PlanRequest) (domain.Trip, error)
}

// LogStore serves rendered log sheets by filename.
// Get returns domain.ErrNotFound for unknown or expired sheets.
type LogStore interface {
	Get(name string) ([]byte, error)
}

// Server holds the dependencies shared by every endpoint.
type Server struct {
	planner Planner
	logs    LogStore
	log     *slog.Logger
}

// NewServer constructs the Server with all its dependencies.
func NewServer(planner Planner, logs LogStore, log *slog.Logger) *Server {
	return &Server{planner: planner, logs: logs, log: log}
}

// Handler returns a chi router with every API route registered.
// Cross-cutting middleware (request IDs, logging, CORS) is applied by the caller.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", s.GetHealth)
	r.Get("/openapi.yaml", s.GetOpenAPI)
	r.Post("/api/plan-trip", s.PlanTrip)
	r.Get("/api/logs/{filename}", s.GetLog)
	return r
}

// GetOpenAPI handles GET /openapi.yaml.
func (s *Server) GetOpenAPI(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(spec.OpenAPI)
}
