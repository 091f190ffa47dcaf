/*
calculator.go - Attendance interval to overtime hours and amount

PURPOSE:
  The central computation. Given an attendance record it resolves the shift,
  the day classification and the hourly rate, and produces a Computation.
  It is read-only and idempotent: nothing is written.

ALGORITHM:
  worked     = clock_out - clock_in                      (fractional hours)
  allowance  = round2(allowance_minutes / 60)
  overtime   = round2(max(0, worked - 8 - allowance))
  multiplier = holiday | sunday | weekday multiplier by classification
  amount     = round2(overtime * rate * multiplier)

  Each derived quantity is rounded once. Intermediate values are not.

SOFT FAILURES:
  No checkout, no shift, no end time and no pay rate all produce a zero
  (or amount-less) result with a nil error, so listings can render
  "No Overtime" safely. Only store failures are returned as errors.

EXAMPLE:
  08:00 -> 18:30, shift ends 17:00, allowance 30 min, rate 200, weekday 1.5
  worked 10.5, allowance 0.5, overtime 2.0, amount 600.00
*/
package overtime

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/overtime-engine/generic"
)

// Calculator computes overtime for attendance records.
type Calculator struct {
	Attendance AttendanceReader
	Employees  EmployeeReader
	Shifts     *ShiftResolver
	Rates      *RateResolver
	Days       *DayClassifier
	Settings   Settings
}

// NewCalculator wires a calculator over the host store. Settings get their
// defaults applied here.
func NewCalculator(store Store, settings Settings) *Calculator {
	settings = settings.WithDefaults()
	return &Calculator{
		Attendance: store,
		Employees:  store,
		Shifts:     NewShiftResolver(store, store),
		Rates:      NewRateResolver(store, settings),
		Days:       NewDayClassifier(store),
		Settings:   settings,
	}
}

// ComputeByID loads the attendance record and computes it. Returns
// ErrAttendanceNotFound when the record does not exist.
func (c *Calculator) ComputeByID(ctx context.Context, attendanceID string) (Computation, error) {
	att, err := c.Attendance.GetAttendance(ctx, attendanceID)
	if err != nil {
		return Computation{}, fmt.Errorf("load attendance %s: %w", attendanceID, err)
	}
	if att == nil {
		return Computation{}, ErrAttendanceNotFound
	}
	return c.Compute(ctx, *att)
}

// Compute produces the overtime computation for one attendance record.
func (c *Calculator) Compute(ctx context.Context, att AttendanceRecord) (Computation, error) {
	result := Computation{
		AttendanceID:  att.ID,
		EmployeeID:    att.EmployeeID,
		Date:          att.Date,
		WorkedHours:   decimal.Zero,
		OvertimeHours: decimal.Zero,
	}

	eligible, err := c.isEligible(ctx, att.EmployeeID)
	if err != nil {
		return result, err
	}
	result.IsEligible = eligible

	if !att.HasCheckout() {
		return result, nil
	}

	policy, err := c.Shifts.Resolve(ctx, att.EmployeeID, att.Date)
	if err != nil {
		var notFound *ShiftNotFoundError
		if errors.As(err, &notFound) {
			return result, nil
		}
		return result, err
	}

	worked := generic.HoursBetween(att.ClockIn, *att.ClockOut)
	shiftEnd := policy.ShiftEnd
	threshold := policy.OvertimeThreshold()
	result.WorkedHours = generic.Round2(worked)
	result.AllowanceMinutes = policy.AllowanceMinutes
	result.ShiftEnd = &shiftEnd
	result.OvertimeThreshold = &threshold

	result.OvertimeHours = OvertimeHours(worked, policy.AllowanceMinutes)
	if !result.HasOvertime() {
		return result, nil
	}

	pricing, err := c.Price(ctx, att)
	if err != nil {
		return result, err
	}
	result.OvertimeType = pricing.Type
	result.Multiplier = pricing.Multiplier
	result.HourlyRate = pricing.HourlyRate
	result.Method = policy.MethodFor(pricing.Type)
	result.CompOff = result.Method.GrantsCompOff() && worked.GreaterThanOrEqual(policy.MinHoursCompOff)

	result.OvertimeAmount = pricing.Amount(result.OvertimeHours)
	return result, nil
}

// =============================================================================
// PRICING
// =============================================================================

// Pricing is the classification-dependent part of a computation.
type Pricing struct {
	Type       OvertimeType
	HourlyRate decimal.Decimal
	Multiplier decimal.Decimal
}

// Amount is round2(hours × rate × multiplier), or 0 without a rate.
func (p Pricing) Amount(hours decimal.Decimal) decimal.Decimal {
	if !p.HourlyRate.IsPositive() || !hours.IsPositive() {
		return decimal.Zero
	}
	return generic.Round2(hours.Mul(p.HourlyRate).Mul(p.Multiplier))
}

// Price classifies the attendance date and resolves rate and multiplier.
func (c *Calculator) Price(ctx context.Context, att AttendanceRecord) (Pricing, error) {
	t, err := c.Days.Classify(ctx, att.Date, att.CompanyID)
	if err != nil {
		return Pricing{}, err
	}
	rate, err := c.Rates.Resolve(ctx, att.EmployeeID, att.Date)
	if err != nil {
		return Pricing{}, err
	}
	return Pricing{
		Type:       t,
		HourlyRate: rate,
		Multiplier: c.Settings.MultiplierFor(t),
	}, nil
}

// OvertimeHours is round2(max(0, worked - 8 - round2(allowance/60))).
func OvertimeHours(worked decimal.Decimal, allowanceMinutes int) decimal.Decimal {
	allowance := generic.Round2(generic.MinutesToHours(allowanceMinutes))
	ot := worked.Sub(StandardWorkdayHours).Sub(allowance)
	if !ot.IsPositive() {
		return decimal.Zero
	}
	return generic.Round2(ot)
}

func (c *Calculator) isEligible(ctx context.Context, employeeID string) (bool, error) {
	profile, err := c.Employees.GetEmployeeProfile(ctx, employeeID)
	if err != nil {
		return false, fmt.Errorf("load employee %s: %w", employeeID, err)
	}
	return profile != nil && profile.Eligible, nil
}
