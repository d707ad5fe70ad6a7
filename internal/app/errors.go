package service

import "errors"

// Sentinel kinds for service errors. The HTTP layer maps these onto
// status codes with errors.Is.
var (
	ErrValidation          = errors.New("invalid submission")
	ErrNotFound            = errors.New("profile not found")
	ErrDuplicateSubmission = errors.New("submission already processed")
	ErrStoreUnavailable    = errors.New("profile store unavailable")
	ErrMergeContention     = errors.New("merge retries exhausted")
	ErrNotStarted          = errors.New("service not started")
)
