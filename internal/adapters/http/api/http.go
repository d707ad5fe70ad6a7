// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	service "github.com/classlens/classlens/internal/app"
	"github.com/classlens/classlens/internal/domain/cohort"
	"github.com/classlens/classlens/internal/domain/compat"
	"github.com/classlens/classlens/internal/domain/model"
	"github.com/classlens/classlens/internal/domain/trend"
	"github.com/classlens/classlens/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// SubmitAssessment consolidates one submission synchronously.
	SubmitAssessment(ctx context.Context, sub model.Submission) (types.SubmitResult, error)

	// Read operations expose consolidated profiles and analytics.
	Profile(ctx context.Context, id string) (*model.ConsolidatedProfile, error)
	ProfileSummary(ctx context.Context, id string) (types.ProfileSummary, error)
	RiskReport(ctx context.Context, id string) ([]model.RiskFactor, error)
	ClassroomAnalytics(ctx context.Context, profileIDs []string) (cohort.Summary, error)
	Compatibility(ctx context.Context, idA, idB string) (compat.Result, error)
	Trend(ctx context.Context, id, dimension string, horizon int) (trend.Prediction, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler        *HealthHandler
	statsHandler         *StatsHandler
	assessmentsHandler   *AssessmentsHandler
	profilesHandler      *ProfilesHandler
	analyticsHandler     *AnalyticsHandler
	compatibilityHandler *CompatibilityHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:        NewHealthHandler(),
		statsHandler:         NewStatsHandler(statsProvider),
		assessmentsHandler:   NewAssessmentsHandler(deps),
		profilesHandler:      NewProfilesHandler(deps),
		analyticsHandler:     NewAnalyticsHandler(deps),
		compatibilityHandler: NewCompatibilityHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", MetricsMiddleware(s.healthHandler.HandleHealth, "metrics"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/assessments", MetricsMiddleware(s.assessmentsHandler.HandlePostAssessment, "assessments"))
	mux.HandleFunc("/profiles/", MetricsMiddleware(s.profilesHandler.HandleProfiles, "profiles"))
	mux.HandleFunc("/classrooms/analytics", MetricsMiddleware(s.analyticsHandler.HandleClassroomAnalytics, "classroom_analytics"))
	mux.HandleFunc("/compatibility", MetricsMiddleware(s.compatibilityHandler.HandleGetCompatibility, "compatibility"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError translates service sentinels onto status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, service.ErrMergeContention):
		writeError(w, http.StatusConflict, "contention", err)
	case errors.Is(err, service.ErrStoreUnavailable):
		writeError(w, http.StatusServiceUnavailable, "store_unavailable", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
