// ABOUTME: Sentinel errors shared by the index, builder and orchestrator
// ABOUTME: Callers classify failures with errors.Is
package models

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument marks input rejected synchronously (bad k, dimension mismatch)
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidQuery marks an empty or whitespace-only question
	ErrInvalidQuery = fmt.Errorf("%w: question must not be empty", ErrInvalidArgument)

	// ErrBuildInProgress is returned when a rebuild is requested while one is running.
	// Callers may retry after a backoff.
	ErrBuildInProgress = errors.New("build already in progress")

	// ErrRetrievalUnavailable means the question could not be embedded
	ErrRetrievalUnavailable = errors.New("retrieval unavailable")

	// ErrBuildFailed means a build produced chunks but none could be embedded
	ErrBuildFailed = errors.New("build failed")

	// ErrNotFound indicates a requested entity does not exist
	ErrNotFound = errors.New("not found")
)

// NewInvalidArgument formats an error wrapping ErrInvalidArgument
func NewInvalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}
