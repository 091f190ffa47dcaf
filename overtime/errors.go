/*
errors.go - Business-rule errors of the overtime core

PURPOSE:
  Distinguishes the three failure classes of approval processing:
  - Soft "cannot compute" states (no shift, no rate): never errors, the
    calculator returns a zero result.
  - Business-rule violations: the errors below. They fail one batch item and
    their message is shown to the operator as is.
  - Unexpected failures: anything else. Logged and recorded per item.

USAGE:
    if overtime.IsBusinessRule(err) {
        // show err.Error() to the operator
    }
*/
package overtime

import (
	"errors"
	"fmt"

	"github.com/warp/overtime-engine/generic"
)

// =============================================================================
// SENTINEL ERRORS
// =============================================================================

var (
	ErrAttendanceNotFound     = errors.New("Attendance not found")
	ErrNoCheckout             = errors.New("No checkout time recorded")
	ErrNotEligible            = errors.New("employee is not eligible for overtime")
	ErrNoOvertimeHours        = errors.New("no overtime hours to approve")
	ErrNoOvertimeAmount       = errors.New("overtime amount is zero (check hourly rate)")
	ErrComponentNotConfigured = errors.New("overtime salary component is not configured")
	ErrComponentNotFound      = errors.New("overtime salary component does not exist")
	ErrShiftNotFound          = errors.New("no shift with an end time found")
	ErrInvalidAction          = errors.New("Invalid action")
	ErrEmptyBatch             = errors.New("no attendance records selected")
	ErrArtifactNotFound       = errors.New("overtime artifact not found")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// DuplicateArtifactError is returned when (employee, date) already has a
// non-voided overtime artifact.
type DuplicateArtifactError struct {
	EmployeeID string
	Date       generic.TimePoint
	ExistingID string // empty when the store reported the conflict
}

func (e *DuplicateArtifactError) Error() string {
	if e.ExistingID != "" {
		return fmt.Sprintf("overtime already approved for %s on %s (%s)", e.EmployeeID, e.Date, e.ExistingID)
	}
	return fmt.Sprintf("overtime already approved for %s on %s", e.EmployeeID, e.Date)
}

func (e *DuplicateArtifactError) Unwrap() error { return generic.ErrDuplicateArtifact }

// ShiftNotFoundError names the employee and date that had no usable shift.
type ShiftNotFoundError struct {
	EmployeeID string
	Date       generic.TimePoint
}

func (e *ShiftNotFoundError) Error() string {
	return fmt.Sprintf("no shift with an end time found for %s on %s", e.EmployeeID, e.Date)
}

func (e *ShiftNotFoundError) Unwrap() error { return ErrShiftNotFound }

// ComponentError names the missing or unconfigured component.
type ComponentError struct {
	Type      OvertimeType
	Component string
	Err       error
}

func (e *ComponentError) Error() string {
	if e.Component == "" {
		return fmt.Sprintf("%s overtime salary component is not configured", e.Type)
	}
	return fmt.Sprintf("salary component %q does not exist", e.Component)
}

func (e *ComponentError) Unwrap() error { return e.Err }

// =============================================================================
// HELPERS
// =============================================================================

// IsBusinessRule reports whether err is an operator-facing rule violation.
func IsBusinessRule(err error) bool {
	for _, target := range []error{
		ErrAttendanceNotFound,
		ErrNoCheckout,
		ErrNotEligible,
		ErrNoOvertimeHours,
		ErrNoOvertimeAmount,
		ErrComponentNotConfigured,
		ErrComponentNotFound,
		ErrShiftNotFound,
		ErrInvalidAction,
		ErrArtifactNotFound,
		generic.ErrDuplicateArtifact,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
