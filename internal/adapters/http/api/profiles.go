package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/classlens/classlens/internal/domain/model"
)

// ProfilesHandler serves consolidated profiles and per-profile analytics.
type ProfilesHandler struct {
	deps Dependencies
}

// NewProfilesHandler creates a new profiles handler.
func NewProfilesHandler(deps Dependencies) *ProfilesHandler {
	return &ProfilesHandler{deps: deps}
}

// HandleProfiles dispatches /profiles/{id} and its sub-resources.
//
//	GET /profiles/{id}          full consolidated profile
//	GET /profiles/{id}/summary  compact profile view
//	GET /profiles/{id}/risks    risk assessment
//	GET /profiles/{id}/trend    trend extrapolation (query: dimension, horizon)
func (h *ProfilesHandler) HandleProfiles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/profiles/")
	id, sub, _ := strings.Cut(rest, "/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "bad_request", badRequestf("missing profile id"))
		return
	}

	switch sub {
	case "":
		h.handleProfile(w, r, id)
	case "summary":
		h.handleSummary(w, r, id)
	case "risks":
		h.handleRisks(w, r, id)
	case "trend":
		h.handleTrend(w, r, id)
	default:
		writeError(w, http.StatusNotFound, "not_found", nil)
	}
}

func (h *ProfilesHandler) handleProfile(w http.ResponseWriter, r *http.Request, id string) {
	profile, err := h.deps.Profile(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *ProfilesHandler) handleSummary(w http.ResponseWriter, r *http.Request, id string) {
	summary, err := h.deps.ProfileSummary(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// riskReportResponse wraps risk factors so an empty report stays an
// explicit JSON array instead of null.
type riskReportResponse struct {
	ProfileID string             `json:"profile_id"`
	Risks     []model.RiskFactor `json:"risks"`
}

func (h *ProfilesHandler) handleRisks(w http.ResponseWriter, r *http.Request, id string) {
	risks, err := h.deps.RiskReport(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if risks == nil {
		risks = []model.RiskFactor{}
	}
	writeJSON(w, http.StatusOK, riskReportResponse{ProfileID: id, Risks: risks})
}

func (h *ProfilesHandler) handleTrend(w http.ResponseWriter, r *http.Request, id string) {
	dimension := r.URL.Query().Get("dimension")
	if dimension == "" {
		writeError(w, http.StatusBadRequest, "bad_request", badRequestf("missing dimension parameter"))
		return
	}

	horizon := 1
	if raw := r.URL.Query().Get("horizon"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", badRequestf("invalid horizon parameter: %q", raw))
			return
		}
		horizon = parsed
	}

	prediction, err := h.deps.Trend(r.Context(), id, dimension, horizon)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, prediction)
}
