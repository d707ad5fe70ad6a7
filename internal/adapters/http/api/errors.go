package api

import (
	"errors"
	"fmt"
)

// Package-level sentinel errors for the HTTP adapter.
var (
	// ErrServe indicates the HTTP server failed while serving.
	ErrServe = errors.New("http serve failed")

	// ErrBadRequest indicates a malformed or invalid request payload.
	ErrBadRequest = errors.New("bad request")
)

// badRequestf builds an ErrBadRequest with handler context.
func badRequestf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrBadRequest, fmt.Sprintf(format, args...))
}
