// Package overtime implements overtime computation, approval and the
// clock-out reset protocol on top of the generic primitives.
package overtime

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/overtime-engine/generic"
)

// StandardWorkdayHours is the legally required minimum workday. Overtime
// starts accruing after it (plus the shift allowance) and a reset clock-out
// never reports less than it.
var StandardWorkdayHours = decimal.NewFromInt(8)

// =============================================================================
// HOST RECORDS - Owned by the host store, read (and partly written) by the core
// =============================================================================

// AttendanceRecord is one day of attendance for an employee.
type AttendanceRecord struct {
	ID         string
	EmployeeID string
	CompanyID  string
	Date       generic.TimePoint
	ClockIn    time.Time
	ClockOut   *time.Time // nil until the employee checks out
	Status     AttendanceStatus

	// Written by the reset engine
	WorkedHours    *decimal.Decimal
	ResetCloseTime *time.Time // clock-out before the first reset
}

// AttendanceStatus is the host's day status. Only Present days are reported.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "Present"
	AttendanceAbsent  AttendanceStatus = "Absent"
	AttendanceHalfDay AttendanceStatus = "Half Day"
	AttendanceOnLeave AttendanceStatus = "On Leave"
)

// HasCheckout reports whether a clock-out has been recorded.
func (a AttendanceRecord) HasCheckout() bool { return a.ClockOut != nil && !a.ClockOut.IsZero() }

// EmployeeProfile carries the overtime-relevant employee fields.
type EmployeeProfile struct {
	EmployeeID     string
	Name           string
	Department     string
	CompanyID      string
	Eligible       bool
	DefaultShiftID string // empty when the employee has no default shift
}

// CalculationMethod controls how holiday/Sunday work is compensated.
type CalculationMethod string

const (
	MethodExtraHoursOnly        CalculationMethod = "Extra Hours Only"
	MethodAllHoursAsOvertime    CalculationMethod = "All Hours as Overtime"
	MethodAllHoursPlusCompOff   CalculationMethod = "All Hours + Comp Off"
	MethodExtraHoursPlusCompOff CalculationMethod = "Extra Hours + Comp Off"
)

// GrantsCompOff reports whether the method grants a compensatory day off.
func (m CalculationMethod) GrantsCompOff() bool {
	return m == MethodAllHoursPlusCompOff || m == MethodExtraHoursPlusCompOff
}

// Valid reports whether m is one of the known methods.
func (m CalculationMethod) Valid() bool {
	switch m {
	case MethodExtraHoursOnly, MethodAllHoursAsOvertime, MethodAllHoursPlusCompOff, MethodExtraHoursPlusCompOff:
		return true
	}
	return false
}

// ShiftType is a shift definition as stored by the host.
type ShiftType struct {
	ID               string
	Name             string
	StartTime        *generic.TimeOfDay
	EndTime          *generic.TimeOfDay // nil = not configured
	AllowanceMinutes int
	HolidayMethod    CalculationMethod
	SundayMethod     CalculationMethod
	MinHoursCompOff  decimal.Decimal // minimum worked hours for a comp-off day
}

// ShiftPolicy is a ShiftType resolved for a particular (employee, date).
type ShiftPolicy struct {
	ShiftID          string
	EndTime          generic.TimeOfDay
	ShiftEnd         time.Time // EndTime on the attendance date
	AllowanceMinutes int
	HolidayMethod    CalculationMethod
	SundayMethod     CalculationMethod
	MinHoursCompOff  decimal.Decimal
}

// OvertimeThreshold is the shift end plus the grace allowance.
func (p ShiftPolicy) OvertimeThreshold() time.Time {
	return p.ShiftEnd.Add(time.Duration(p.AllowanceMinutes) * time.Minute)
}

// MethodFor returns the calculation method for a day classification.
func (p ShiftPolicy) MethodFor(t OvertimeType) CalculationMethod {
	switch t {
	case TypeHoliday:
		return p.HolidayMethod
	case TypeSunday:
		return p.SundayMethod
	default:
		return MethodExtraHoursOnly
	}
}

// ShiftAssignment binds an employee to a shift from StartDate onwards.
type ShiftAssignment struct {
	ID         string
	EmployeeID string
	ShiftID    string
	StartDate  generic.TimePoint
	Confirmed  bool
}

// PayRateAssignment is a salary assignment; HourlyRate nil means "derive it".
type PayRateAssignment struct {
	ID            string
	EmployeeID    string
	EffectiveFrom generic.TimePoint
	BaseSalary    decimal.Decimal
	HourlyRate    *decimal.Decimal
	Confirmed     bool
}

// =============================================================================
// CLASSIFICATION
// =============================================================================

// OvertimeType is the Normal/Holiday/Sunday classification of a work date.
type OvertimeType string

const (
	TypeNormal  OvertimeType = "Normal"
	TypeHoliday OvertimeType = "Holiday"
	TypeSunday  OvertimeType = "Sunday"
)

// IsPremium reports whether the type uses the holiday component and multiplier.
func (t OvertimeType) IsPremium() bool { return t == TypeHoliday || t == TypeSunday }

// =============================================================================
// COMPUTATION - Ephemeral result of the calculator
// =============================================================================

// Computation is the calculator's output. It is never persisted directly.
// Fields after OvertimeHours are only populated when OvertimeHours > 0.
type Computation struct {
	AttendanceID      string
	EmployeeID        string
	Date              generic.TimePoint
	IsEligible        bool
	WorkedHours       decimal.Decimal
	AllowanceMinutes  int
	ShiftEnd          *time.Time
	OvertimeThreshold *time.Time
	OvertimeHours     decimal.Decimal
	OvertimeType      OvertimeType // empty when there is no overtime
	HourlyRate        decimal.Decimal
	Multiplier        decimal.Decimal
	OvertimeAmount    decimal.Decimal
	Method            CalculationMethod
	CompOff           bool
}

// HasOvertime reports whether any overtime hours were computed.
func (c Computation) HasOvertime() bool { return c.OvertimeHours.IsPositive() }

// OvertimeRate is the effective hourly overtime rate (rate × multiplier).
func (c Computation) OvertimeRate() decimal.Decimal {
	return generic.Round2(c.HourlyRate.Mul(c.Multiplier))
}

// =============================================================================
// APPROVAL ARTIFACT - Payroll adjustment line created on approval
// =============================================================================

// ArtifactStatus follows the host's draft -> submitted -> cancelled lifecycle.
type ArtifactStatus string

const (
	ArtifactDraft     ArtifactStatus = "draft"
	ArtifactSubmitted ArtifactStatus = "submitted"
	ArtifactVoided    ArtifactStatus = "voided"
)

// ApprovalArtifact is the durable record of an approved overtime payment.
type ApprovalArtifact struct {
	ID                 string
	EmployeeID         string
	CompanyID          string
	ComponentRef       string
	Amount             decimal.Decimal
	EffectiveDate      generic.TimePoint
	OvertimeHours      decimal.Decimal
	OvertimeType       OvertimeType
	SourceAttendanceID string
	IsOvertime         bool
	Status             ArtifactStatus
	CreatedAt          time.Time
}

// IsVoided reports whether the artifact no longer counts.
func (a ApprovalArtifact) IsVoided() bool { return a.Status == ArtifactVoided }

// SalaryComponent is a payroll component the artifact points at.
type SalaryComponent struct {
	Name        string
	Abbr        string
	Type        string // Earning | Deduction
	Description string
	IsOvertime  bool
}

// =============================================================================
// CHECK-IN EVENTS
// =============================================================================

// LogType is the direction of a check-in event.
type LogType string

const (
	LogIn  LogType = "IN"
	LogOut LogType = "OUT"
)

// Checkin is a raw clock event from the attendance device log.
type Checkin struct {
	ID                 string
	EmployeeID         string
	AttendanceID       string // empty when not yet linked
	LogType            LogType
	Time               time.Time
	OriginalTime       *time.Time
	SkipAutoAttendance bool
	ResetReason        string
}
