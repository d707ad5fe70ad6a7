// Package types contains common read shapes shared by the service and
// its HTTP API.
package types

import (
	"time"

	"github.com/classlens/classlens/internal/domain/model"
)

// ContributionSummary describes what one submission added to a profile.
type ContributionSummary struct {
	ContributionID    string   `json:"contribution_id"`
	Role              string   `json:"role"`
	Variant           string   `json:"variant"`
	Weight            float64  `json:"weight"`
	ConfidenceBoost   float64  `json:"confidence_boost"`
	DimensionsCovered []string `json:"dimensions_covered"`
	NewDimensions     []string `json:"new_dimensions"`
	Conflicting       bool     `json:"conflicting"`
}

// SubmitResult is returned by a successful assessment submission. It
// carries the consolidated profile as written, so callers do not need a
// follow-up read to see the submission's effect.
type SubmitResult struct {
	ProfileID    string                     `json:"profile_id"`
	IsNewProfile bool                       `json:"is_new_profile"`
	Confidence   float64                    `json:"confidence"`
	Completeness float64                    `json:"completeness"`
	Profile      *model.ConsolidatedProfile `json:"profile"`
	Contribution ContributionSummary        `json:"contribution"`
}

// ProfileSummary is the compact profile view returned by read endpoints.
type ProfileSummary struct {
	ProfileID     string             `json:"profile_id"`
	SubjectName   string             `json:"subject_name"`
	AgeBand       string             `json:"age_band,omitempty"`
	LearningStyle string             `json:"learning_style"`
	Scores        map[string]float64 `json:"scores"`
	Confidence    float64            `json:"confidence"`
	Completeness  float64            `json:"completeness"`
	Contributions int                `json:"contributions"`
	RoleCounts    map[string]int     `json:"role_counts"`
	UpdatedAt     time.Time          `json:"updated_at"`
}
