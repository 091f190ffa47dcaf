/*
errors.go - Centralized storage-level error types

PURPOSE:
  Errors raised by store implementations. Domain packages wrap these with
  additional context (see overtime/errors.go).

USAGE:
    if errors.Is(err, generic.ErrDuplicateArtifact) {
        return &overtime.DuplicateArtifactError{...}
    }
*/
package generic

import (
	"errors"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrDuplicateArtifact is returned when a second non-voided overtime
	// artifact is written for the same (employee, date). Stores enforce this
	// with a unique constraint, not only a read-then-write check.
	ErrDuplicateArtifact = errors.New("overtime artifact already exists for employee and date")

	// ErrNotFound is returned when a referenced record doesn't exist.
	ErrNotFound = errors.New("record not found")

	// ErrInvalidPeriod is returned when a date range is malformed (end before start).
	ErrInvalidPeriod = errors.New("invalid period: end before start")
)

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrDuplicateArtifact) ||
		errors.Is(err, ErrInvalidPeriod)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
