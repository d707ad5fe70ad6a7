package repository

import "errors"

// Sentinel kinds for profile store errors.
var (
	ErrNotFound         = errors.New("profile not found")
	ErrDuplicateSubject = errors.New("profile already exists for subject")
	ErrVersionConflict  = errors.New("profile changed since read")
	ErrUnavailable      = errors.New("profile store unavailable")
)
