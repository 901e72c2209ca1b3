// Package api declares HTTP contracts and route registration helpers.
package api

import "net/http"

// ComponentsHandler handles component listing requests.
type ComponentsHandler struct {
	deps Dependencies
}

// NewComponentsHandler creates a new components handler.
func NewComponentsHandler(deps Dependencies) *ComponentsHandler {
	return &ComponentsHandler{deps: deps}
}

// HandleGetComponents handles GET /components requests.
func (h *ComponentsHandler) HandleGetComponents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"components": h.deps.Components()})
}
