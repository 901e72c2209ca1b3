// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
)

// predictRequest mirrors the request schema for POST /predict/{component}.
// Input switches to the direct mode; otherwise area and substation address
// the upstream fetch.
type predictRequest struct {
	AreaCode     string         `json:"area_code"`
	SubstationID string         `json:"substation_id"`
	Input        map[string]any `json:"input"`
}

// PredictHandler handles prediction requests.
type PredictHandler struct {
	deps Dependencies
}

// NewPredictHandler creates a new predict handler.
func NewPredictHandler(deps Dependencies) *PredictHandler {
	return &PredictHandler{deps: deps}
}

// HandlePredict handles POST /predict/{component} requests.
func (h *PredictHandler) HandlePredict(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	component := strings.TrimPrefix(r.URL.Path, "/predict/")
	if component == "" || strings.Contains(component, "/") {
		writeError(w, http.StatusBadRequest, component, ErrBadRequest)
		return
	}

	var req predictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		writeError(w, http.StatusBadRequest, component, ErrBadRequest)
		return
	}

	rep, err := h.deps.Predict(r.Context(), component, req.AreaCode, req.SubstationID, req.Input)
	if err != nil {
		writeError(w, statusFor(err), component, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}
