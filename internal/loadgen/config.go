// Package loadgen drives concurrent assessment submissions against a
// running ClassLens instance and verifies that consolidation held up.
package loadgen

import "time"

// Config holds configuration for a storm run.
type Config struct {
	BaseURL        string        // Base URL of the service
	NumChildren    int           // Number of distinct children to simulate
	PerChild       int           // Submissions per child
	Workers        int           // Number of concurrent workers
	Timeout        time.Duration // HTTP request timeout
	ReplayFraction float64       // Fraction of submissions replayed to exercise idempotency
	LogFile        string        // Log file for run output
	Verbose        bool          // Enable verbose logging
}

// Submission is the assessment payload posted to /assessments.
type Submission struct {
	SubmissionID string         `json:"submission_id"`
	SubjectName  string         `json:"subject_name"`
	AgeBand      string         `json:"age_band"`
	Variant      string         `json:"variant"`
	Role         string         `json:"role"`
	Responses    map[string]any `json:"responses"`
}

// SubmitResult mirrors the service response to a submission.
type SubmitResult struct {
	ProfileID    string  `json:"profile_id"`
	IsNewProfile bool    `json:"is_new_profile"`
	Confidence   float64 `json:"confidence"`
	Completeness float64 `json:"completeness"`
}

// DuplicateAck mirrors the replay acknowledgement.
type DuplicateAck struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

// Profile is the subset of the consolidated profile the verifier needs.
type Profile struct {
	ID            string           `json:"id"`
	SubjectKey    string           `json:"subject_key"`
	Confidence    float64          `json:"confidence"`
	Completeness  float64          `json:"completeness"`
	Contributions []map[string]any `json:"contributions"`
}

// Stats holds run statistics.
type Stats struct {
	SubmissionsGenerated int
	SubmissionsSubmitted int
	SubmissionsCreated   int
	SubmissionsMerged    int
	SubmissionsDuplicate int
	SubmissionsFailed    int
	ProfilesVerified     int
	VerificationErrors   int
	StartTime            time.Time
	EndTime              time.Time
	Duration             time.Duration
}
