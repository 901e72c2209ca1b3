// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gridsight/gridsight/internal/app"
	"github.com/gridsight/gridsight/internal/domain/engine"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the service implementation.
type Dependencies interface {
	Predict(ctx context.Context, component, areaCode, substationID string, input map[string]any) (*engine.Report, error)
	Simulate(ctx context.Context, component, substationID string, panel map[string]any) (map[string]float64, error)
	Components() []string
}

// Server wires HTTP routes for the diagnostics API.
type Server struct {
	predictHandler    *PredictHandler
	simulateHandler   *SimulateHandler
	healthHandler     *HealthHandler
	componentsHandler *ComponentsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		predictHandler:    NewPredictHandler(deps),
		simulateHandler:   NewSimulateHandler(deps),
		healthHandler:     NewHealthHandler(),
		componentsHandler: NewComponentsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("/components", MetricsMiddleware(s.componentsHandler.HandleGetComponents, "components"))
	mux.HandleFunc("/predict/", MetricsMiddleware(s.predictHandler.HandlePredict, "predict"))
	mux.HandleFunc("/simulate/", MetricsMiddleware(s.simulateHandler.HandleSimulate, "simulate"))
}

type errorResponse struct {
	Error     string `json:"error"`
	Component string `json:"component,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, component string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Error: msg, Component: component})
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, app.ErrUnknownComponent):
		return http.StatusNotFound
	case errors.Is(err, app.ErrUsage):
		return http.StatusBadRequest
	case errors.Is(err, app.ErrUpstreamFetch):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
