// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

// simulateRequest mirrors the request schema for POST /simulate/{component}.
type simulateRequest struct {
	SubstationID string         `json:"substation_id"`
	Panel        map[string]any `json:"panel"`
}

// SimulateHandler handles simulation requests.
type SimulateHandler struct {
	deps Dependencies
}

// NewSimulateHandler creates a new simulate handler.
func NewSimulateHandler(deps Dependencies) *SimulateHandler {
	return &SimulateHandler{deps: deps}
}

// HandleSimulate handles POST /simulate/{component} requests.
func (h *SimulateHandler) HandleSimulate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	component := strings.TrimPrefix(r.URL.Path, "/simulate/")
	if component == "" || strings.Contains(component, "/") {
		writeError(w, http.StatusBadRequest, component, ErrBadRequest)
		return
	}

	var req simulateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, component, ErrBadRequest)
		return
	}
	if len(req.Panel) == 0 {
		writeError(w, http.StatusBadRequest, component, errors.New("missing panel"))
		return
	}

	out, err := h.deps.Simulate(r.Context(), component, req.SubstationID, req.Panel)
	if err != nil {
		writeError(w, statusFor(err), component, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
