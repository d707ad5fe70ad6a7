package api

import (
	"net/http"
)

// CompatibilityHandler scores pairwise compatibility between two profiles.
type CompatibilityHandler struct {
	deps Dependencies
}

// NewCompatibilityHandler creates a new compatibility handler.
func NewCompatibilityHandler(deps Dependencies) *CompatibilityHandler {
	return &CompatibilityHandler{deps: deps}
}

// HandleGetCompatibility handles GET /compatibility?a={id}&b={id}.
func (h *CompatibilityHandler) HandleGetCompatibility(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}

	idA := r.URL.Query().Get("a")
	idB := r.URL.Query().Get("b")
	if idA == "" || idB == "" {
		writeError(w, http.StatusBadRequest, "bad_request", badRequestf("both a and b profile ids are required"))
		return
	}

	result, err := h.deps.Compatibility(r.Context(), idA, idB)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
