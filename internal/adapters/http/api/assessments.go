package api

import (
	"encoding/json"
	"errors"
	"net/http"

	service "github.com/classlens/classlens/internal/app"
	"github.com/classlens/classlens/internal/domain/model"
)

// AssessmentsHandler handles assessment submissions.
type AssessmentsHandler struct {
	deps Dependencies
}

// NewAssessmentsHandler creates a new assessments handler.
func NewAssessmentsHandler(deps Dependencies) *AssessmentsHandler {
	return &AssessmentsHandler{deps: deps}
}

// submissionRequest is the POST /assessments payload. Responses stay
// loosely typed; the extractor normalizes each value.
type submissionRequest struct {
	SubmissionID string         `json:"submission_id"`
	SubjectName  string         `json:"subject_name"`
	AgeBand      string         `json:"age_band"`
	Variant      string         `json:"variant"`
	Role         string         `json:"role"`
	Responses    map[string]any `json:"responses"`
}

// duplicateAck acknowledges a replayed submission without reprocessing it.
type duplicateAck struct {
	Status       string `json:"status"`
	SubmissionID string `json:"submission_id"`
	Duplicate    bool   `json:"duplicate"`
}

// HandlePostAssessment accepts one assessment submission and consolidates
// it synchronously. Replays of an already-processed submission ID are
// acknowledged with 200 rather than rejected, so retrying clients converge.
func (h *AssessmentsHandler) HandlePostAssessment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}

	var req submissionRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", badRequestf("decode body: %v", err))
		return
	}

	sub := model.Submission{
		SubmissionID: req.SubmissionID,
		SubjectName:  req.SubjectName,
		AgeBand:      model.AgeBand(req.AgeBand),
		Variant:      model.Variant(req.Variant),
		Role:         model.Role(req.Role),
		Responses:    req.Responses,
	}

	result, err := h.deps.SubmitAssessment(r.Context(), sub)
	if err != nil {
		if errors.Is(err, service.ErrDuplicateSubmission) {
			writeJSON(w, http.StatusOK, duplicateAck{
				Status:       "duplicate",
				SubmissionID: req.SubmissionID,
				Duplicate:    true,
			})
			return
		}
		writeServiceError(w, err)
		return
	}

	status := http.StatusOK
	if result.IsNewProfile {
		status = http.StatusCreated
	}
	writeJSON(w, status, result)
}
