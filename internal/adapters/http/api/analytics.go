package api

import (
	"encoding/json"
	"net/http"
)

// AnalyticsHandler computes classroom-level analytics over a set of profiles.
type AnalyticsHandler struct {
	deps Dependencies
}

// NewAnalyticsHandler creates a new analytics handler.
func NewAnalyticsHandler(deps Dependencies) *AnalyticsHandler {
	return &AnalyticsHandler{deps: deps}
}

// classroomRequest is the POST /classrooms/analytics payload.
type classroomRequest struct {
	ProfileIDs []string `json:"profile_ids"`
}

// HandleClassroomAnalytics handles POST /classrooms/analytics.
func (h *AnalyticsHandler) HandleClassroomAnalytics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}

	var req classroomRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", badRequestf("decode body: %v", err))
		return
	}

	summary, err := h.deps.ClassroomAnalytics(r.Context(), req.ProfileIDs)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
