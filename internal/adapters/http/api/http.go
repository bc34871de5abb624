// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
)

// Dependencies required by HTTP handlers.
type Dependencies interface {
	CounterService
	StatsProvider
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	countersHandler *CountersHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(deps),
		countersHandler: NewCountersHandler(deps),
	}
}

// Register attaches all HTTP routes to mux. Unlisted methods on a
// registered path are answered with 405 by the mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}

	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("POST /counters/{name}", MetricsMiddleware(s.countersHandler.HandleCreate, "counters"))
	mux.HandleFunc("PUT /counters/{name}", MetricsMiddleware(s.countersHandler.HandleUpdate, "counters"))
	mux.HandleFunc("GET /counters/{name}", MetricsMiddleware(s.countersHandler.HandleRead, "counters"))
	mux.HandleFunc("DELETE /counters/{name}", MetricsMiddleware(s.countersHandler.HandleDelete, "counters"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
