package overtime

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/overtime-engine/generic"
)

// DefaultMinHoursCompOff is the worked-hours floor for a comp-off recommendation.
var DefaultMinHoursCompOff = decimal.NewFromInt(6)

// ShiftResolver resolves the effective shift policy for an employee on a date.
type ShiftResolver struct {
	Employees EmployeeReader
	Shifts    ShiftReader
}

// NewShiftResolver creates a resolver over the host store.
func NewShiftResolver(employees EmployeeReader, shifts ShiftReader) *ShiftResolver {
	return &ShiftResolver{Employees: employees, Shifts: shifts}
}

// Resolve returns the policy from the most recent confirmed assignment as of
// date, falling back to the employee's default shift. It returns a
// *ShiftNotFoundError when neither yields a shift with an end time.
func (r *ShiftResolver) Resolve(ctx context.Context, employeeID string, date generic.TimePoint) (*ShiftPolicy, error) {
	shiftID, err := r.shiftIDFor(ctx, employeeID, date)
	if err != nil {
		return nil, err
	}
	if shiftID == "" {
		return nil, &ShiftNotFoundError{EmployeeID: employeeID, Date: date}
	}

	st, err := r.Shifts.GetShiftType(ctx, shiftID)
	if err != nil {
		return nil, fmt.Errorf("load shift %s: %w", shiftID, err)
	}
	if st == nil || st.EndTime == nil {
		return nil, &ShiftNotFoundError{EmployeeID: employeeID, Date: date}
	}

	return st.PolicyOn(date), nil
}

func (r *ShiftResolver) shiftIDFor(ctx context.Context, employeeID string, date generic.TimePoint) (string, error) {
	assignment, err := r.Shifts.LatestShiftAssignment(ctx, employeeID, date)
	if err != nil {
		return "", fmt.Errorf("load shift assignment: %w", err)
	}
	if assignment != nil && assignment.ShiftID != "" {
		return assignment.ShiftID, nil
	}

	profile, err := r.Employees.GetEmployeeProfile(ctx, employeeID)
	if err != nil {
		return "", fmt.Errorf("load employee %s: %w", employeeID, err)
	}
	if profile == nil {
		return "", nil
	}
	return profile.DefaultShiftID, nil
}

// PolicyOn resolves the shift for a date. EndTime must be set.
func (st ShiftType) PolicyOn(date generic.TimePoint) *ShiftPolicy {
	allowance := st.AllowanceMinutes
	if allowance < 0 {
		allowance = 0
	}
	holiday, sunday := st.HolidayMethod, st.SundayMethod
	if !holiday.Valid() {
		holiday = MethodExtraHoursOnly
	}
	if !sunday.Valid() {
		sunday = MethodExtraHoursOnly
	}
	minCompOff := st.MinHoursCompOff
	if !minCompOff.IsPositive() {
		minCompOff = DefaultMinHoursCompOff
	}

	return &ShiftPolicy{
		ShiftID:          st.ID,
		EndTime:          *st.EndTime,
		ShiftEnd:         date.At(*st.EndTime),
		AllowanceMinutes: allowance,
		HolidayMethod:    holiday,
		SundayMethod:     sunday,
		MinHoursCompOff:  minCompOff,
	}
}
