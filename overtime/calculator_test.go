package overtime_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/overtime-engine/generic"
	"github.com/warp/overtime-engine/overtime"
)

// =============================================================================
// END-TO-END SCENARIOS
// =============================================================================

func TestCompute_WeekdayOvertime(t *testing.T) {
	// GIVEN: 08:00 -> 18:30 on a Tuesday, shift ends 17:00 with 30 min allowance
	// WHEN: Computing overtime
	// THEN: 10.5 worked, 2.0 overtime at 200 × 1.5 = 600.00
	f := newFixture(t)
	att := f.attend("ATT-1", tuesday, "08:00", "18:30")

	c, err := f.calculator().Compute(context.Background(), att)
	require.NoError(t, err)

	assert.True(t, c.IsEligible)
	assert.Equal(t, "10.50", c.WorkedHours.StringFixed(2))
	assert.Equal(t, 30, c.AllowanceMinutes)
	assert.Equal(t, "2.00", c.OvertimeHours.StringFixed(2))
	assert.Equal(t, overtime.TypeNormal, c.OvertimeType)
	assert.Equal(t, "200.00", c.HourlyRate.StringFixed(2))
	assert.Equal(t, "1.50", c.Multiplier.StringFixed(2))
	assert.Equal(t, "600.00", c.OvertimeAmount.StringFixed(2))
	assert.Equal(t, "300.00", c.OvertimeRate().StringFixed(2))

	require.NotNil(t, c.ShiftEnd)
	require.NotNil(t, c.OvertimeThreshold)
	assert.Equal(t, tuesday.At(tod(t, "17:00")), *c.ShiftEnd)
	assert.Equal(t, tuesday.At(tod(t, "17:30")), *c.OvertimeThreshold)
}

func TestCompute_HolidayOvertime(t *testing.T) {
	// GIVEN: Same interval, but the date is a company holiday
	// WHEN: Computing overtime
	// THEN: Holiday type at 2.0 -> 800.00
	f := newFixture(t)
	f.holiday(tuesday)
	att := f.attend("ATT-1", tuesday, "08:00", "18:30")

	c, err := f.calculator().Compute(context.Background(), att)
	require.NoError(t, err)

	assert.Equal(t, overtime.TypeHoliday, c.OvertimeType)
	assert.Equal(t, "2.00", c.Multiplier.StringFixed(2))
	assert.Equal(t, "800.00", c.OvertimeAmount.StringFixed(2))
}

func TestCompute_NoCheckout(t *testing.T) {
	// GIVEN: Attendance without a clock-out
	// WHEN: Computing overtime
	// THEN: Zero result, eligibility still reported, no error
	f := newFixture(t)
	att := f.attend("ATT-1", tuesday, "08:00", "")

	c, err := f.calculator().Compute(context.Background(), att)
	require.NoError(t, err)

	assert.True(t, c.IsEligible)
	assert.True(t, c.OvertimeHours.IsZero())
	assert.True(t, c.OvertimeAmount.IsZero())
	assert.Empty(t, c.OvertimeType)
	assert.Nil(t, c.ShiftEnd)
}

// =============================================================================
// HOURS PROPERTIES
// =============================================================================

func TestCompute_OvertimeHours(t *testing.T) {
	tests := []struct {
		name  string
		out   string
		hours string
	}{
		{"well under threshold", "15:00", "0.00"},
		{"exactly 8 hours", "16:00", "0.00"},
		{"inside allowance", "16:20", "0.00"},
		{"exactly at threshold", "16:30", "0.00"},
		{"one minute past threshold", "16:31", "0.02"},
		{"one hour past threshold", "17:30", "1.00"},
		{"fractional", "18:40", "2.17"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			att := f.attend("ATT-1", tuesday, "08:00", tt.out)

			c, err := f.calculator().Compute(context.Background(), att)
			require.NoError(t, err)

			assert.Equal(t, tt.hours, c.OvertimeHours.StringFixed(2))
			if c.OvertimeHours.IsZero() {
				assert.True(t, c.OvertimeAmount.IsZero())
				assert.Empty(t, c.OvertimeType)
			} else {
				assert.True(t, c.OvertimeHours.IsPositive())
			}
		})
	}
}

func TestCompute_AllowanceRoundedOnce(t *testing.T) {
	// GIVEN: 20 minute allowance (0.333... h rounds to 0.33)
	// WHEN: 08:00 -> 17:20 (9.333... h worked)
	// THEN: round(9.333... - 8 - 0.33) = 1.00
	f := newFixture(t)
	end := tod(t, "17:00")
	f.store.PutShiftType(overtime.ShiftType{ID: dayShift, EndTime: &end, AllowanceMinutes: 20})
	att := f.attend("ATT-1", tuesday, "08:00", "17:20")

	c, err := f.calculator().Compute(context.Background(), att)
	require.NoError(t, err)

	assert.Equal(t, "1.00", c.OvertimeHours.StringFixed(2))
	assert.Equal(t, "300.00", c.OvertimeAmount.StringFixed(2))
}

func TestOvertimeHours_Formula(t *testing.T) {
	assert.Equal(t, "2.00", overtime.OvertimeHours(dec("10.5"), 30).StringFixed(2))
	assert.Equal(t, "0.00", overtime.OvertimeHours(dec("8"), 0).StringFixed(2))
	assert.Equal(t, "0.01", overtime.OvertimeHours(dec("8.005"), 0).StringFixed(2), "half rounds away from zero")
	assert.True(t, overtime.OvertimeHours(dec("6"), 45).IsZero())
}

// =============================================================================
// CLASSIFICATION
// =============================================================================

func TestCompute_SundayUsesSundayMultiplier(t *testing.T) {
	f := newFixture(t)
	f.settings.SundayMultiplier = dec("1.75")
	att := f.attend("ATT-1", sunday, "08:00", "18:30")

	c, err := f.calculator().Compute(context.Background(), att)
	require.NoError(t, err)

	assert.Equal(t, overtime.TypeSunday, c.OvertimeType)
	assert.Equal(t, "700.00", c.OvertimeAmount.StringFixed(2))
}

func TestCompute_HolidayTakesPrecedenceOverSunday(t *testing.T) {
	// GIVEN: A Sunday that is also a configured holiday
	// THEN: Classified as Holiday, never Sunday
	f := newFixture(t)
	f.holiday(sunday)
	att := f.attend("ATT-1", sunday, "08:00", "18:30")

	c, err := f.calculator().Compute(context.Background(), att)
	require.NoError(t, err)

	assert.Equal(t, overtime.TypeHoliday, c.OvertimeType)
}

func TestClassify_Idempotent(t *testing.T) {
	f := newFixture(t)
	f.holiday(tuesday)
	classifier := overtime.NewDayClassifier(f.store)
	ctx := context.Background()

	first, err := classifier.Classify(ctx, tuesday, companyID)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := classifier.Classify(ctx, tuesday, companyID)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}

	other, err := classifier.Classify(ctx, tuesday, "OTHER-CO")
	require.NoError(t, err)
	assert.Equal(t, overtime.TypeNormal, other, "holiday belongs to another company")
}

func TestClassify_GlobalAndRecurringHolidays(t *testing.T) {
	f := newFixture(t)
	f.store.AddHoliday(generic.Holiday{ID: "NEWYEAR", Date: generic.NewTimePoint(2020, time.January, 1), Recurring: true})
	classifier := overtime.NewDayClassifier(f.store)

	got, err := classifier.Classify(context.Background(), generic.NewTimePoint(2025, time.January, 1), "ANY")
	require.NoError(t, err)
	assert.Equal(t, overtime.TypeHoliday, got)

	none := overtime.NewDayClassifier(nil)
	got, err = none.Classify(context.Background(), sunday, companyID)
	require.NoError(t, err)
	assert.Equal(t, overtime.TypeSunday, got)
}

func TestCompute_CompOffRecommendation(t *testing.T) {
	// GIVEN: Sunday method "Extra Hours + Comp Off", min 6 hours
	// WHEN: 10.5 hours worked on a Sunday
	// THEN: Comp-off recommended, hours and amount unchanged
	f := newFixture(t)
	att := f.attend("ATT-1", sunday, "08:00", "18:30")

	c, err := f.calculator().Compute(context.Background(), att)
	require.NoError(t, err)

	assert.Equal(t, overtime.MethodExtraHoursPlusCompOff, c.Method)
	assert.True(t, c.CompOff)
	assert.Equal(t, "2.00", c.OvertimeHours.StringFixed(2))
	assert.Equal(t, "800.00", c.OvertimeAmount.StringFixed(2))

	weekday, err := f.calculator().Compute(context.Background(), f.attend("ATT-2", tuesday, "08:00", "18:30"))
	require.NoError(t, err)
	assert.Equal(t, overtime.MethodExtraHoursOnly, weekday.Method)
	assert.False(t, weekday.CompOff)
}

// =============================================================================
// SOFT "CANNOT COMPUTE" STATES
// =============================================================================

func TestCompute_IneligibleStillComputes(t *testing.T) {
	f := newFixture(t)
	f.store.PutEmployee(overtime.EmployeeProfile{EmployeeID: empID, Eligible: false, DefaultShiftID: dayShift})
	att := f.attend("ATT-1", tuesday, "08:00", "18:30")

	c, err := f.calculator().Compute(context.Background(), att)
	require.NoError(t, err)

	assert.False(t, c.IsEligible)
	assert.Equal(t, "2.00", c.OvertimeHours.StringFixed(2))
}

func TestCompute_NoShiftIsZero(t *testing.T) {
	f := newFixture(t)
	f.store.PutEmployee(overtime.EmployeeProfile{EmployeeID: empID, Eligible: true})
	att := f.attend("ATT-1", tuesday, "08:00", "20:00")

	c, err := f.calculator().Compute(context.Background(), att)
	require.NoError(t, err)

	assert.True(t, c.IsEligible)
	assert.True(t, c.OvertimeHours.IsZero())
	assert.Nil(t, c.OvertimeThreshold)
}

func TestCompute_ShiftWithoutEndTimeIsZero(t *testing.T) {
	f := newFixture(t)
	f.store.PutShiftType(overtime.ShiftType{ID: dayShift, AllowanceMinutes: 30})
	att := f.attend("ATT-1", tuesday, "08:00", "20:00")

	c, err := f.calculator().Compute(context.Background(), att)
	require.NoError(t, err)
	assert.True(t, c.OvertimeHours.IsZero())
}

func TestCompute_NoRateKeepsHoursWithoutAmount(t *testing.T) {
	f := newFixture(t)
	f.store.PutEmployee(overtime.EmployeeProfile{EmployeeID: "EMP-NORATE", Eligible: true, DefaultShiftID: dayShift})
	in := tuesday.At(tod(t, "08:00"))
	out := tuesday.At(tod(t, "18:30"))
	att := overtime.AttendanceRecord{ID: "ATT-9", EmployeeID: "EMP-NORATE", Date: tuesday, ClockIn: in, ClockOut: &out}

	c, err := f.calculator().Compute(context.Background(), att)
	require.NoError(t, err)

	assert.Equal(t, "2.00", c.OvertimeHours.StringFixed(2))
	assert.True(t, c.HourlyRate.IsZero())
	assert.True(t, c.OvertimeAmount.IsZero())
}

// =============================================================================
// RESOLUTION ORDER
// =============================================================================

func TestShiftResolver_ConfirmedAssignmentWins(t *testing.T) {
	// GIVEN: Default shift allows 30 min, a confirmed assignment to a shift
	//        with no allowance starts 2025-03-01
	// THEN: The assignment's allowance applies (2.5 h overtime)
	f := newFixture(t)
	late := tod(t, "19:00")
	f.store.PutShiftType(overtime.ShiftType{ID: "LATE", EndTime: &late})
	f.store.AddShiftAssignment(overtime.ShiftAssignment{
		ID: "SA-1", EmployeeID: empID, ShiftID: "LATE",
		StartDate: generic.NewTimePoint(2025, time.March, 1), Confirmed: true,
	})
	f.store.AddShiftAssignment(overtime.ShiftAssignment{
		ID: "SA-2", EmployeeID: empID, ShiftID: dayShift,
		StartDate: generic.NewTimePoint(2025, time.March, 3), Confirmed: false,
	})
	att := f.attend("ATT-1", tuesday, "08:00", "18:30")

	c, err := f.calculator().Compute(context.Background(), att)
	require.NoError(t, err)

	assert.Equal(t, 0, c.AllowanceMinutes)
	assert.Equal(t, "2.50", c.OvertimeHours.StringFixed(2))
	assert.Equal(t, tuesday.At(late), *c.ShiftEnd)
}

func TestShiftResolver_NotFound(t *testing.T) {
	f := newFixture(t)
	r := overtime.NewShiftResolver(f.store, f.store)

	_, err := r.Resolve(context.Background(), "EMP-UNKNOWN", tuesday)

	var notFound *overtime.ShiftNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.ErrorIs(t, err, overtime.ErrShiftNotFound)
	assert.Equal(t, "EMP-UNKNOWN", notFound.EmployeeID)
}

func TestRateResolver_MostRecentConfirmed(t *testing.T) {
	f := newFixture(t)
	f.store.AddPayRate(overtime.PayRateAssignment{
		ID: "PR-2", EmployeeID: empID, EffectiveFrom: generic.NewTimePoint(2025, time.March, 1),
		HourlyRate: decPtr("250"), Confirmed: true,
	})
	f.store.AddPayRate(overtime.PayRateAssignment{
		ID: "PR-3", EmployeeID: empID, EffectiveFrom: generic.NewTimePoint(2025, time.March, 3),
		HourlyRate: decPtr("999"), Confirmed: false,
	})
	f.store.AddPayRate(overtime.PayRateAssignment{
		ID: "PR-4", EmployeeID: empID, EffectiveFrom: generic.NewTimePoint(2025, time.April, 1),
		HourlyRate: decPtr("300"), Confirmed: true,
	})
	r := overtime.NewRateResolver(f.store, f.settings)
	ctx := context.Background()

	rate, err := r.Resolve(ctx, empID, tuesday)
	require.NoError(t, err)
	assert.Equal(t, "250.00", rate.StringFixed(2))

	rate, err = r.Resolve(ctx, empID, generic.NewTimePoint(2025, time.February, 1))
	require.NoError(t, err)
	assert.Equal(t, "200.00", rate.StringFixed(2))

	rate, err = r.Resolve(ctx, "EMP-UNKNOWN", tuesday)
	require.NoError(t, err)
	assert.True(t, rate.IsZero())
}

func TestRateResolver_DerivesFromBaseSalary(t *testing.T) {
	// GIVEN: Base salary 45000 without a stored hourly rate, 225 standard hours
	// THEN: 45000 / 225 = 200.00
	f := newFixture(t)
	f.store.AddPayRate(overtime.PayRateAssignment{
		ID: "PR-2", EmployeeID: empID, EffectiveFrom: generic.NewTimePoint(2025, time.March, 1),
		BaseSalary: dec("45000"), Confirmed: true,
	})

	rate, err := overtime.NewRateResolver(f.store, f.settings).Resolve(context.Background(), empID, tuesday)
	require.NoError(t, err)
	assert.Equal(t, "200.00", rate.StringFixed(2))

	assert.Equal(t, "133.33", overtime.DeriveHourlyRate(dec("30000"), dec("225")).StringFixed(2))
	assert.True(t, overtime.DeriveHourlyRate(dec("0"), dec("225")).IsZero())
}

func TestPayRateAssignment_WithDerivedRate(t *testing.T) {
	a := overtime.PayRateAssignment{BaseSalary: dec("50000")}.WithDerivedRate(dec("225"))
	require.NotNil(t, a.HourlyRate)
	assert.Equal(t, "222.22", a.HourlyRate.StringFixed(2))

	kept := overtime.PayRateAssignment{BaseSalary: dec("50000"), HourlyRate: decPtr("300")}.WithDerivedRate(dec("225"))
	assert.Equal(t, "300.00", kept.HourlyRate.StringFixed(2))
}

func TestComputeByID_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.calculator().ComputeByID(context.Background(), "ATT-MISSING")
	assert.ErrorIs(t, err, overtime.ErrAttendanceNotFound)
}
