/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the overtime domain model (which carries no JSON tags) from the external
  API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

TYPES:
  Overtime:
    ComputationDTO, DetailsDTO, ReportRowDTO, ProcessRequest, BatchResultDTO,
    ArtifactDTO, ResetDTO

  Edits:
    SaveEditRequest, MarkAppliedRequest

  Records:
    EmployeeDTO, ShiftAssignmentRequest, PayRateRequest, HolidayDTO,
    AttendanceDTO, CheckinDTO, ComponentDTO, SettingsDTO

  Scenarios:
    ScenarioDTO, LoadScenarioRequest

VALIDATION:
  Request structs carry `validate` tags checked with go-playground/validator
  before the handler touches the store. Failures become a 400 with one
  FieldError per offending field.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/shift.go: ShiftJSON type
*/
package api

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/warp/overtime-engine/generic"
	"github.com/warp/overtime-engine/overtime"
)

// =============================================================================
// VALIDATION
// =============================================================================

var validate = validator.New()

// FieldError describes one failed validation rule.
type FieldError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

// validationErrors runs the struct validator and flattens its errors.
func validationErrors(s any) []FieldError {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldError{{Message: err.Error()}}
	}

	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		e := FieldError{Field: fe.Field(), Tag: fe.Tag()}
		switch fe.Tag() {
		case "required":
			e.Message = fmt.Sprintf("'%s' is required", fe.Field())
		case "oneof":
			e.Message = fmt.Sprintf("'%s' must be one of: %s", fe.Field(), fe.Param())
		case "gte", "min":
			e.Message = fmt.Sprintf("'%s' must be at least %s", fe.Field(), fe.Param())
		case "datetime":
			e.Message = fmt.Sprintf("'%s' must match the layout %s", fe.Field(), fe.Param())
		default:
			e.Message = fmt.Sprintf("'%s' failed the '%s' rule", fe.Field(), fe.Tag())
		}
		out = append(out, e)
	}
	return out
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string       `json:"error"`
	Details string       `json:"details,omitempty"`
	Fields  []FieldError `json:"fields,omitempty"`
}

// =============================================================================
// OVERTIME
// =============================================================================

// ComputationDTO is a calculator result.
type ComputationDTO struct {
	AttendanceID      string          `json:"attendance_id"`
	EmployeeID        string          `json:"employee_id"`
	Date              string          `json:"date"`
	IsEligible        bool            `json:"is_eligible"`
	WorkedHours       decimal.Decimal `json:"worked_hours"`
	AllowanceMinutes  int             `json:"allowance_minutes"`
	ShiftEnd          *time.Time      `json:"shift_end,omitempty"`
	OvertimeThreshold *time.Time      `json:"overtime_threshold,omitempty"`
	OvertimeHours     decimal.Decimal `json:"overtime_hours"`
	OvertimeType      string          `json:"overtime_type,omitempty"`
	HourlyRate        decimal.Decimal `json:"hourly_rate"`
	Multiplier        decimal.Decimal `json:"multiplier"`
	OvertimeAmount    decimal.Decimal `json:"overtime_amount"`
	Method            string          `json:"calculation_method,omitempty"`
	CompOff           bool            `json:"comp_off_recommended"`
}

func toComputationDTO(c overtime.Computation) ComputationDTO {
	return ComputationDTO{
		AttendanceID:      c.AttendanceID,
		EmployeeID:        c.EmployeeID,
		Date:              c.Date.String(),
		IsEligible:        c.IsEligible,
		WorkedHours:       c.WorkedHours,
		AllowanceMinutes:  c.AllowanceMinutes,
		ShiftEnd:          c.ShiftEnd,
		OvertimeThreshold: c.OvertimeThreshold,
		OvertimeHours:     c.OvertimeHours,
		OvertimeType:      string(c.OvertimeType),
		HourlyRate:        c.HourlyRate,
		Multiplier:        c.Multiplier,
		OvertimeAmount:    c.OvertimeAmount,
		Method:            string(c.Method),
		CompOff:           c.CompOff,
	}
}

// DetailsDTO is the verification view of one attendance record.
type DetailsDTO struct {
	ComputationDTO
	Status      string       `json:"status"`
	StatusLabel string       `json:"status_label"`
	IsApproved  bool         `json:"is_approved"`
	Artifact    *ArtifactDTO `json:"artifact,omitempty"`
}

func toDetailsDTO(d overtime.Details) DetailsDTO {
	dto := DetailsDTO{
		ComputationDTO: toComputationDTO(d.Computation),
		Status:         string(d.Status),
		StatusLabel:    d.Status.Label(),
		IsApproved:     d.IsApproved,
	}
	if d.Artifact != nil {
		a := toArtifactDTO(*d.Artifact)
		dto.Artifact = &a
	}
	return dto
}

// ReportRowDTO is one row of the overtime review report.
type ReportRowDTO struct {
	AttendanceID   string          `json:"attendance_id"`
	EmployeeID     string          `json:"employee_id"`
	EmployeeName   string          `json:"employee_name"`
	Department     string          `json:"department,omitempty"`
	CompanyID      string          `json:"company_id,omitempty"`
	Date           string          `json:"date"`
	ClockIn        time.Time       `json:"in_time"`
	ClockOut       time.Time       `json:"out_time"`
	WorkedHours    decimal.Decimal `json:"worked_hours"`
	OvertimeHours  decimal.Decimal `json:"overtime_hours"`
	OvertimeType   string          `json:"overtime_type"`
	HourlyRate     decimal.Decimal `json:"hourly_rate"`
	Multiplier     decimal.Decimal `json:"multiplier"`
	OvertimeRate   decimal.Decimal `json:"ot_rate"`
	OvertimeAmount decimal.Decimal `json:"overtime_amount"`
	CompOff        bool            `json:"comp_off_recommended"`
	Status         string          `json:"status"`
	StatusLabel    string          `json:"status_label"`
	ArtifactID     string          `json:"artifact_id,omitempty"`
}

func toReportRowDTO(r overtime.ReportRow) ReportRowDTO {
	return ReportRowDTO{
		AttendanceID:   r.AttendanceID,
		EmployeeID:     r.EmployeeID,
		EmployeeName:   r.EmployeeName,
		Department:     r.Department,
		CompanyID:      r.CompanyID,
		Date:           r.Date.String(),
		ClockIn:        r.ClockIn,
		ClockOut:       r.ClockOut,
		WorkedHours:    r.Computation.WorkedHours,
		OvertimeHours:  r.Computation.OvertimeHours,
		OvertimeType:   string(r.Computation.OvertimeType),
		HourlyRate:     r.Computation.HourlyRate,
		Multiplier:     r.Computation.Multiplier,
		OvertimeRate:   r.OvertimeRate,
		OvertimeAmount: r.Computation.OvertimeAmount,
		CompOff:        r.Computation.CompOff,
		Status:         string(r.Status),
		StatusLabel:    r.Status.Label(),
		ArtifactID:     r.ArtifactID,
	}
}

// ProcessItem is one selected attendance row.
type ProcessItem struct {
	AttendanceID  string           `json:"attendance_id" validate:"required"`
	ApprovedHours *decimal.Decimal `json:"approved_hours,omitempty"`
	IsOverride    bool             `json:"is_override"`
}

// ProcessRequest approves or rejects a batch. With ApplyEdits set, rows
// without an explicit override take the user's cached edit as override.
type ProcessRequest struct {
	Action     string        `json:"action" validate:"required"`
	Items      []ProcessItem `json:"items" validate:"dive"`
	ApplyEdits bool          `json:"apply_edits"`
}

// BatchResultDTO summarizes a processed batch.
type BatchResultDTO struct {
	Processed    int           `json:"processed"`
	Approved     int           `json:"approved"`
	Rejected     int           `json:"rejected"`
	Errors       []string      `json:"errors"`
	Artifacts    []ArtifactDTO `json:"artifacts"`
	Resets       []ResetDTO    `json:"resets"`
	EditsApplied *int          `json:"edits_applied,omitempty"`
}

func toBatchResultDTO(r overtime.BatchResult) BatchResultDTO {
	dto := BatchResultDTO{
		Processed: r.Processed,
		Approved:  r.Approved,
		Rejected:  r.Rejected,
		Errors:    r.Errors,
		Artifacts: make([]ArtifactDTO, 0, len(r.Artifacts)),
		Resets:    make([]ResetDTO, 0, len(r.Resets)),
	}
	if dto.Errors == nil {
		dto.Errors = []string{}
	}
	for _, a := range r.Artifacts {
		dto.Artifacts = append(dto.Artifacts, toArtifactDTO(a))
	}
	for _, rs := range r.Resets {
		dto.Resets = append(dto.Resets, toResetDTO(rs))
	}
	return dto
}

// ArtifactDTO is an approval artifact.
type ArtifactDTO struct {
	ID                 string          `json:"id"`
	EmployeeID         string          `json:"employee_id"`
	CompanyID          string          `json:"company_id,omitempty"`
	SalaryComponent    string          `json:"salary_component"`
	Amount             decimal.Decimal `json:"amount"`
	PayrollDate        string          `json:"payroll_date"`
	OvertimeHours      decimal.Decimal `json:"overtime_hours"`
	OvertimeType       string          `json:"overtime_type"`
	SourceAttendanceID string          `json:"source_attendance"`
	IsOvertime         bool            `json:"is_overtime"`
	Status             string          `json:"status"`
	CreatedAt          time.Time       `json:"created_at"`
}

func toArtifactDTO(a overtime.ApprovalArtifact) ArtifactDTO {
	return ArtifactDTO{
		ID:                 a.ID,
		EmployeeID:         a.EmployeeID,
		CompanyID:          a.CompanyID,
		SalaryComponent:    a.ComponentRef,
		Amount:             a.Amount,
		PayrollDate:        a.EffectiveDate.String(),
		OvertimeHours:      a.OvertimeHours,
		OvertimeType:       string(a.OvertimeType),
		SourceAttendanceID: a.SourceAttendanceID,
		IsOvertime:         a.IsOvertime,
		Status:             string(a.Status),
		CreatedAt:          a.CreatedAt,
	}
}

// ResetDTO describes an applied clock-out reset.
type ResetDTO struct {
	AttendanceID string          `json:"attendance_id"`
	Mode         string          `json:"mode"`
	ClockOut     time.Time       `json:"out_time"`
	WorkedHours  decimal.Decimal `json:"worked_hours"`
	CheckinID    string          `json:"checkin_id,omitempty"`
	Reason       string          `json:"reason"`
}

func toResetDTO(r overtime.ResetResult) ResetDTO {
	return ResetDTO{
		AttendanceID: r.AttendanceID,
		Mode:         string(r.Mode),
		ClockOut:     r.ClockOut,
		WorkedHours:  r.WorkedHours,
		CheckinID:    r.CheckinID,
		Reason:       r.Reason,
	}
}

// =============================================================================
// EDITS
// =============================================================================

// SaveEditRequest stores an operator's pending hours for one row.
type SaveEditRequest struct {
	AttendanceID  string          `json:"attendance_id" validate:"required"`
	ApprovedHours decimal.Decimal `json:"approved_hours"`
}

// MarkAppliedRequest drops edits that were submitted.
type MarkAppliedRequest struct {
	AttendanceIDs []string `json:"attendance_ids" validate:"required,min=1,dive,required"`
}

// =============================================================================
// RECORDS
// =============================================================================

// EmployeeDTO is an employee's overtime profile.
type EmployeeDTO struct {
	ID             string `json:"id" validate:"required"`
	Name           string `json:"name" validate:"required"`
	Department     string `json:"department,omitempty"`
	CompanyID      string `json:"company_id,omitempty"`
	Eligible       bool   `json:"overtime_eligible"`
	DefaultShiftID string `json:"default_shift,omitempty"`
}

func toEmployeeDTO(e overtime.EmployeeProfile) EmployeeDTO {
	return EmployeeDTO{
		ID:             e.EmployeeID,
		Name:           e.Name,
		Department:     e.Department,
		CompanyID:      e.CompanyID,
		Eligible:       e.Eligible,
		DefaultShiftID: e.DefaultShiftID,
	}
}

func (d EmployeeDTO) profile() overtime.EmployeeProfile {
	return overtime.EmployeeProfile{
		EmployeeID:     d.ID,
		Name:           d.Name,
		Department:     d.Department,
		CompanyID:      d.CompanyID,
		Eligible:       d.Eligible,
		DefaultShiftID: d.DefaultShiftID,
	}
}

// ShiftAssignmentRequest binds an employee to a shift.
type ShiftAssignmentRequest struct {
	ID         string `json:"id"`
	EmployeeID string `json:"employee_id" validate:"required"`
	ShiftID    string `json:"shift_type" validate:"required"`
	StartDate  string `json:"start_date" validate:"required,datetime=2006-01-02"`
	Confirmed  *bool  `json:"confirmed,omitempty"`
}

// PayRateRequest records a salary assignment. A missing hourly rate is
// derived from the base salary and the standard monthly hours.
type PayRateRequest struct {
	ID            string           `json:"id"`
	EmployeeID    string           `json:"employee_id" validate:"required"`
	EffectiveFrom string           `json:"from_date" validate:"required,datetime=2006-01-02"`
	BaseSalary    decimal.Decimal  `json:"base"`
	HourlyRate    *decimal.Decimal `json:"hourly_rate,omitempty"`
	Confirmed     *bool            `json:"confirmed,omitempty"`
}

// PayRateDTO is a stored salary assignment.
type PayRateDTO struct {
	ID            string          `json:"id"`
	EmployeeID    string          `json:"employee_id"`
	EffectiveFrom string          `json:"from_date"`
	BaseSalary    decimal.Decimal `json:"base"`
	HourlyRate    decimal.Decimal `json:"hourly_rate"`
	Confirmed     bool            `json:"confirmed"`
}

// HolidayDTO is a company or global holiday.
type HolidayDTO struct {
	ID        string `json:"id"`
	CompanyID string `json:"company_id"`
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	Name      string `json:"name" validate:"required"`
	Recurring bool   `json:"recurring"`
}

func toHolidayDTO(h generic.Holiday) HolidayDTO {
	return HolidayDTO{
		ID:        h.ID,
		CompanyID: h.CompanyID,
		Date:      h.Date.String(),
		Name:      h.Name,
		Recurring: h.Recurring,
	}
}

// AttendanceDTO is a day of attendance. Times use "2006-01-02 15:04:05".
type AttendanceDTO struct {
	ID             string           `json:"id"`
	EmployeeID     string           `json:"employee_id" validate:"required"`
	CompanyID      string           `json:"company_id,omitempty"`
	Date           string           `json:"attendance_date" validate:"required,datetime=2006-01-02"`
	ClockIn        string           `json:"in_time" validate:"required,datetime=2006-01-02 15:04:05"`
	ClockOut       string           `json:"out_time,omitempty" validate:"omitempty,datetime=2006-01-02 15:04:05"`
	Status         string           `json:"status,omitempty" validate:"omitempty,oneof=Present Absent 'Half Day' 'On Leave'"`
	WorkedHours    *decimal.Decimal `json:"working_hours,omitempty"`
	ResetCloseTime string           `json:"reset_close_time,omitempty"`
}

func toAttendanceDTO(a overtime.AttendanceRecord) AttendanceDTO {
	dto := AttendanceDTO{
		ID:          a.ID,
		EmployeeID:  a.EmployeeID,
		CompanyID:   a.CompanyID,
		Date:        a.Date.String(),
		ClockIn:     a.ClockIn.Format(generic.DateTimeLayout),
		Status:      string(a.Status),
		WorkedHours: a.WorkedHours,
	}
	if a.ClockOut != nil {
		dto.ClockOut = a.ClockOut.Format(generic.DateTimeLayout)
	}
	if a.ResetCloseTime != nil {
		dto.ResetCloseTime = a.ResetCloseTime.Format(generic.DateTimeLayout)
	}
	return dto
}

func (d AttendanceDTO) record() (overtime.AttendanceRecord, error) {
	date, err := generic.ParseDate(d.Date)
	if err != nil {
		return overtime.AttendanceRecord{}, err
	}
	in, err := generic.ParseDateTime(d.ClockIn)
	if err != nil {
		return overtime.AttendanceRecord{}, err
	}
	rec := overtime.AttendanceRecord{
		ID:          d.ID,
		EmployeeID:  d.EmployeeID,
		CompanyID:   d.CompanyID,
		Date:        date,
		ClockIn:     in,
		Status:      overtime.AttendanceStatus(d.Status),
		WorkedHours: d.WorkedHours,
	}
	if d.ClockOut != "" {
		out, err := generic.ParseDateTime(d.ClockOut)
		if err != nil {
			return overtime.AttendanceRecord{}, err
		}
		if out.Before(in) {
			return overtime.AttendanceRecord{}, fmt.Errorf("out_time %s is before in_time %s", d.ClockOut, d.ClockIn)
		}
		rec.ClockOut = &out
	}
	return rec, nil
}

// CheckinDTO is a raw clock event.
type CheckinDTO struct {
	ID                 string `json:"id"`
	EmployeeID         string `json:"employee_id" validate:"required"`
	AttendanceID       string `json:"attendance,omitempty"`
	LogType            string `json:"log_type" validate:"required,oneof=IN OUT"`
	Time               string `json:"time" validate:"required,datetime=2006-01-02 15:04:05"`
	OriginalTime       string `json:"original_time,omitempty"`
	SkipAutoAttendance bool   `json:"skip_auto_attendance"`
	ResetReason        string `json:"overtime_reset_reason,omitempty"`
}

func toCheckinDTO(c overtime.Checkin) CheckinDTO {
	dto := CheckinDTO{
		ID:                 c.ID,
		EmployeeID:         c.EmployeeID,
		AttendanceID:       c.AttendanceID,
		LogType:            string(c.LogType),
		Time:               c.Time.Format(generic.DateTimeLayout),
		SkipAutoAttendance: c.SkipAutoAttendance,
		ResetReason:        c.ResetReason,
	}
	if c.OriginalTime != nil {
		dto.OriginalTime = c.OriginalTime.Format(generic.DateTimeLayout)
	}
	return dto
}

// ComponentDTO is a payroll salary component.
type ComponentDTO struct {
	Name        string `json:"name" validate:"required"`
	Abbr        string `json:"salary_component_abbr,omitempty"`
	Type        string `json:"type" validate:"required,oneof=Earning Deduction"`
	Description string `json:"description,omitempty"`
	IsOvertime  bool   `json:"is_overtime"`
}

// SettingsDTO is the HR configuration singleton.
type SettingsDTO struct {
	Enabled               bool            `json:"enable_overtime_tracking"`
	StandardHoursPerMonth decimal.Decimal `json:"standard_hours_per_month"`
	WeekdayMultiplier     decimal.Decimal `json:"weekday_overtime_multiplier"`
	HolidayMultiplier     decimal.Decimal `json:"holiday_overtime_multiplier"`
	SundayMultiplier      decimal.Decimal `json:"sunday_overtime_multiplier"`
	VarianceSeconds       int             `json:"overtime_variance_seconds"`
	WeekdayComponent      string          `json:"weekday_overtime_component"`
	HolidayComponent      string          `json:"holiday_overtime_component"`
}

func toSettingsDTO(s overtime.Settings) SettingsDTO {
	return SettingsDTO{
		Enabled:               s.Enabled,
		StandardHoursPerMonth: s.StandardHoursPerMonth,
		WeekdayMultiplier:     s.WeekdayMultiplier,
		HolidayMultiplier:     s.HolidayMultiplier,
		SundayMultiplier:      s.SundayMultiplier,
		VarianceSeconds:       s.VarianceBaseSeconds,
		WeekdayComponent:      s.WeekdayComponent,
		HolidayComponent:      s.HolidayComponent,
	}
}

// apply overlays the DTO on current, keeping the knobs the API does not expose.
func (d SettingsDTO) apply(current overtime.Settings) overtime.Settings {
	current.Enabled = d.Enabled
	current.StandardHoursPerMonth = d.StandardHoursPerMonth
	current.WeekdayMultiplier = d.WeekdayMultiplier
	current.HolidayMultiplier = d.HolidayMultiplier
	current.SundayMultiplier = d.SundayMultiplier
	current.VarianceBaseSeconds = d.VarianceSeconds
	current.WeekdayComponent = d.WeekdayComponent
	current.HolidayComponent = d.HolidayComponent
	return current
}

// =============================================================================
// SCENARIOS
// =============================================================================

// ScenarioDTO describes a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// LoadScenarioRequest selects the scenario to load.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id" validate:"required"`
}
