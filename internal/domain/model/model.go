// Package model contains domain models passed between layers.
package model

import (
	"sort"
	"strings"
	"time"
)

// Known skill dimensions. Every assessment variant scores a subset of these.
const (
	DimCommunication    = "communication"
	DimCollaboration    = "collaboration"
	DimContent          = "content"
	DimCriticalThinking = "critical_thinking"
	DimCreativity       = "creativity"
	DimConfidence       = "confidence"
	DimEngagement       = "engagement"
	DimParticipation    = "participation"
)

// Dimensions is the full, fixed skill-dimension space.
var Dimensions = []string{
	DimCommunication,
	DimCollaboration,
	DimContent,
	DimCriticalThinking,
	DimCreativity,
	DimConfidence,
	DimEngagement,
	DimParticipation,
}

// Valid score bounds. Inputs outside this range are tolerated but
// consolidated values and predictions are clamped into it.
const (
	ScoreMin = 1.0
	ScoreMax = 5.0
)

// KnownDimension reports whether name is part of the fixed dimension space.
func KnownDimension(name string) bool {
	for _, d := range Dimensions {
		if d == name {
			return true
		}
	}
	return false
}

// ScoreVector maps skill dimensions to scores. Dimensions a given
// assessment did not observe are absent, not zero.
type ScoreVector map[string]float64

// Clone returns an independent copy of the vector.
func (v ScoreVector) Clone() ScoreVector {
	out := make(ScoreVector, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}

// Covered returns the sorted list of dimensions present in the vector.
func (v ScoreVector) Covered() []string {
	dims := make([]string, 0, len(v))
	for k := range v {
		dims = append(dims, k)
	}
	sort.Strings(dims)
	return dims
}

// Role identifies who submitted an assessment.
type Role string

const (
	RoleParent  Role = "parent"
	RoleTeacher Role = "teacher"
)

// ValidRole reports whether r is one of the closed respondent roles.
func ValidRole(r Role) bool {
	return r == RoleParent || r == RoleTeacher
}

// Variant identifies the assessment instrument used for a submission.
type Variant string

const (
	VariantParentChecklist     Variant = "parent_home_checklist"
	VariantParentQuestionnaire Variant = "parent_detailed_questionnaire"
	VariantTeacherObservation  Variant = "teacher_classroom_observation"
	VariantTeacherStructured   Variant = "teacher_structured_assessment"
)

// ValidVariant reports whether v is one of the known assessment instruments.
func ValidVariant(v Variant) bool {
	switch v {
	case VariantParentChecklist, VariantParentQuestionnaire,
		VariantTeacherObservation, VariantTeacherStructured:
		return true
	default:
		return false
	}
}

// AgeBand groups subjects by age for extraction context and reporting.
type AgeBand string

const (
	AgeBandEarly   AgeBand = "3-5"
	AgeBandPrimary AgeBand = "6-8"
	AgeBandMiddle  AgeBand = "9-11"
)

// AnswerKind tags the variants of a raw answer value.
type AnswerKind int

const (
	AnswerInvalid AnswerKind = iota
	AnswerNumber
	AnswerText
	AnswerChoices
)

// RawAnswer is the tagged union for one raw response value. Submissions
// arrive as loosely typed JSON; every value is normalized into exactly one
// of the kinds above before scoring.
type RawAnswer struct {
	Kind    AnswerKind
	Number  float64
	Text    string
	Choices []string
}

// ParseAnswer normalizes an arbitrary decoded JSON value into a RawAnswer.
// Anything that is not a number, a string, or a list of strings comes back
// as AnswerInvalid; it is never an error.
func ParseAnswer(v any) RawAnswer {
	switch x := v.(type) {
	case float64:
		return RawAnswer{Kind: AnswerNumber, Number: x}
	case int:
		return RawAnswer{Kind: AnswerNumber, Number: float64(x)}
	case int64:
		return RawAnswer{Kind: AnswerNumber, Number: float64(x)}
	case string:
		if strings.TrimSpace(x) == "" {
			return RawAnswer{Kind: AnswerInvalid}
		}
		return RawAnswer{Kind: AnswerText, Text: x}
	case []string:
		if len(x) == 0 {
			return RawAnswer{Kind: AnswerInvalid}
		}
		return RawAnswer{Kind: AnswerChoices, Choices: x}
	case []any:
		choices := make([]string, 0, len(x))
		for _, e := range x {
			if s, ok := e.(string); ok && strings.TrimSpace(s) != "" {
				choices = append(choices, s)
			}
		}
		if len(choices) == 0 {
			return RawAnswer{Kind: AnswerInvalid}
		}
		return RawAnswer{Kind: AnswerChoices, Choices: choices}
	default:
		return RawAnswer{Kind: AnswerInvalid}
	}
}

// Submission is one inbound assessment payload before any processing.
type Submission struct {
	SubmissionID string         // optional client id for idempotent resubmits
	SubjectName  string         // subject identity
	AgeBand      AgeBand        // optional
	Variant      Variant        // assessment instrument
	Role         Role           // respondent role
	Responses    map[string]any // question id -> raw answer value
}

// SubjectKey normalizes a subject name into the identity key used for
// profile lookup and the uniqueness constraint.
func SubjectKey(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// Contribution is one submission's processed effect on a profile.
// Immutable once recorded; profiles keep an append-only history of these.
type Contribution struct {
	ID                string      `json:"id"`
	Role              Role        `json:"role"`
	Variant           Variant     `json:"variant"`
	Scores            ScoreVector `json:"scores"`
	Weight            float64     `json:"weight"`           // 0..1 influence on the consolidated vector
	ConfidenceBoost   float64     `json:"confidence_boost"` // 0..100 certainty added by one observation
	DimensionsCovered []string    `json:"dimensions_covered"`
	SubmittedAt       time.Time   `json:"submitted_at"`
}

// ConsolidatedProfile is the authoritative aggregate for one subject.
type ConsolidatedProfile struct {
	ID          string      `json:"id"`
	SubjectKey  string      `json:"subject_key"`
	SubjectName string      `json:"subject_name"`
	AgeBand     AgeBand     `json:"age_band"`
	Scores      ScoreVector `json:"scores"`
	// DimensionWeights holds the cumulative contribution weight per
	// dimension; the weighted running average needs it to stay O(1)
	// per merge instead of replaying the whole history.
	DimensionWeights map[string]float64 `json:"dimension_weights"`
	Confidence       float64            `json:"confidence"`   // 0..100
	Completeness     float64            `json:"completeness"` // 0..100
	Contributions    []Contribution     `json:"contributions"`
	RoleCounts       map[Role]int       `json:"role_counts"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
	// Version counts committed writes. Stores compare it on update so a
	// writer holding a stale read cannot overwrite a newer profile.
	Version int64 `json:"version"`
}

// Clone returns a deep copy so stores can hand out profiles without
// aliasing their internal state.
func (p *ConsolidatedProfile) Clone() *ConsolidatedProfile {
	if p == nil {
		return nil
	}
	out := *p
	out.Scores = p.Scores.Clone()
	out.DimensionWeights = make(map[string]float64, len(p.DimensionWeights))
	for k, v := range p.DimensionWeights {
		out.DimensionWeights[k] = v
	}
	out.RoleCounts = make(map[Role]int, len(p.RoleCounts))
	for k, v := range p.RoleCounts {
		out.RoleCounts[k] = v
	}
	out.Contributions = make([]Contribution, len(p.Contributions))
	for i, c := range p.Contributions {
		cc := c
		cc.Scores = c.Scores.Clone()
		cc.DimensionsCovered = append([]string(nil), c.DimensionsCovered...)
		out.Contributions[i] = cc
	}
	return &out
}

// RiskType enumerates the detectable risk patterns.
type RiskType string

const (
	RiskLearningStyleMismatch RiskType = "learning-style-mismatch"
	RiskLowEngagement         RiskType = "low-engagement"
	RiskSocialIsolation       RiskType = "social-isolation"
	RiskAcademicStruggle      RiskType = "academic-struggle"
)

// Severity ranks a risk factor.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// SeverityRank orders severities for sorting, higher is more severe.
func SeverityRank(s Severity) int {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// Timeline indicates how urgently an intervention should start.
type Timeline string

const (
	TimelineImmediate Timeline = "immediate"
	TimelineShortTerm Timeline = "short-term"
	TimelineOngoing   Timeline = "ongoing"
)

// RiskFactor is a derived flag; recomputed on demand, never persisted.
type RiskFactor struct {
	ID            string
	Type          RiskType
	Severity      Severity
	Description   string
	Indicators    []string
	Interventions []string
	Timeline      Timeline
}

// ProgressSample is one historical point for one skill dimension.
type ProgressSample struct {
	Date     time.Time
	Metric   string
	Value    float64
	MaxValue float64
}
