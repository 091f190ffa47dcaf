/*
store.go - Host-store contract consumed by the overtime core

PURPOSE:
  The core owns no records except the approval artifact. Everything else
  (attendance, employees, shifts, pay rates, holidays, check-in events) lives
  in the host record store and is reached through the interfaces below.

NOT FOUND:
  Single-record getters return (nil, nil) when the record does not exist.
  Callers decide whether absence is a soft "cannot compute" state or an error.

UNIQUENESS:
  CreateArtifact MUST enforce at-most-one non-voided overtime artifact per
  (employee, effective date) at the storage level and return
  generic.ErrDuplicateArtifact when it would be violated. The processor's
  existence check only produces a friendlier message; it is not the guard.

IMPLEMENTATIONS:
  - store/sqlite: SQLite with a partial unique index
  - store/memory: map + mutex conditional insert (tests, demos)
*/
package overtime

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/overtime-engine/generic"
)

// AttendanceReader looks up attendance records.
type AttendanceReader interface {
	GetAttendance(ctx context.Context, id string) (*AttendanceRecord, error)
}

// EmployeeReader looks up overtime profiles.
type EmployeeReader interface {
	GetEmployeeProfile(ctx context.Context, employeeID string) (*EmployeeProfile, error)
}

// ShiftReader looks up shift assignments and shift definitions.
type ShiftReader interface {
	// LatestShiftAssignment returns the most recent confirmed assignment with
	// StartDate <= asOf.
	LatestShiftAssignment(ctx context.Context, employeeID string, asOf generic.TimePoint) (*ShiftAssignment, error)
	GetShiftType(ctx context.Context, shiftID string) (*ShiftType, error)
}

// RateReader looks up pay-rate assignments.
type RateReader interface {
	// LatestPayRate returns the most recent confirmed assignment with
	// EffectiveFrom <= asOf.
	LatestPayRate(ctx context.Context, employeeID string, asOf generic.TimePoint) (*PayRateAssignment, error)
}

// ArtifactFilter narrows ListArtifacts. Zero fields match everything.
type ArtifactFilter struct {
	EmployeeID     string
	Period         generic.Period
	IncludeVoided  bool
	OnlySubmitted  bool
	OvertimeMarked bool
}

// ArtifactStore persists approval artifacts and checks component references.
type ArtifactStore interface {
	// FindOvertimeArtifact returns the non-voided overtime artifact for
	// (employee, date), or nil.
	FindOvertimeArtifact(ctx context.Context, employeeID string, date generic.TimePoint) (*ApprovalArtifact, error)

	// CreateArtifact inserts a draft artifact. Returns generic.ErrDuplicateArtifact
	// when the uniqueness invariant would be violated.
	CreateArtifact(ctx context.Context, a ApprovalArtifact) error

	// FinalizeArtifact moves a draft artifact to submitted.
	FinalizeArtifact(ctx context.Context, id string) error

	// VoidArtifact marks an artifact voided. Returns generic.ErrNotFound if absent.
	VoidArtifact(ctx context.Context, id string) error

	GetArtifact(ctx context.Context, id string) (*ApprovalArtifact, error)
	ListArtifacts(ctx context.Context, filter ArtifactFilter) ([]ApprovalArtifact, error)

	// ComponentExists reports whether a salary component record exists.
	ComponentExists(ctx context.Context, name string) (bool, error)
}

// ResetWrite is the dual write of a clock-out reset: the attendance aggregate
// and its OUT check-in event. Both are applied in one transaction.
type ResetWrite struct {
	AttendanceID string
	ClockOut     time.Time
	WorkedHours  decimal.Decimal
	CheckinID    string // empty when no OUT event was found
	Reason       string
}

// CheckinStore reads OUT events and applies clock-out resets.
type CheckinStore interface {
	// LatestOutCheckin returns the newest OUT event linked to the attendance.
	LatestOutCheckin(ctx context.Context, attendanceID string) (*Checkin, error)

	// LatestOutCheckinOnDay returns the newest OUT event for the employee on
	// the calendar day, linked or not.
	LatestOutCheckinOnDay(ctx context.Context, employeeID string, day generic.TimePoint) (*Checkin, error)

	// ApplyClockOutReset writes the new clock-out to the attendance record and
	// the check-in event. The check-in keeps its first original time and is
	// flagged so automatic attendance recomputation does not re-trigger.
	ApplyClockOutReset(ctx context.Context, w ResetWrite) error
}

// ReportFilter narrows the candidate rows of the overtime report.
type ReportFilter struct {
	Period     generic.Period
	EmployeeID string
	Department string
	CompanyID  string
	Eligible   *bool
}

// ReportCandidate is a present, checked-out attendance row joined with its employee.
type ReportCandidate struct {
	Attendance AttendanceRecord
	Employee   EmployeeProfile
}

// ReportSource lists report candidates ordered by date desc, employee name.
type ReportSource interface {
	ListReportCandidates(ctx context.Context, filter ReportFilter) ([]ReportCandidate, error)
}

// Store is everything the core needs from the host.
type Store interface {
	AttendanceReader
	EmployeeReader
	ShiftReader
	RateReader
	ArtifactStore
	CheckinStore
	ReportSource
	generic.HolidayCalendar
}
