package overtime_test

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/warp/overtime-engine/generic"
	"github.com/warp/overtime-engine/overtime"
	"github.com/warp/overtime-engine/store/memory"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

const (
	empID     = "EMP-001"
	companyID = "ACME"
	dayShift  = "DAY"
)

// 2025-03-04 is a Tuesday, 2025-03-02 a Sunday.
var (
	tuesday = generic.NewTimePoint(2025, time.March, 4)
	sunday  = generic.NewTimePoint(2025, time.March, 2)
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func tod(t *testing.T, s string) generic.TimeOfDay {
	t.Helper()
	v, err := generic.ParseTimeOfDay(s)
	require.NoError(t, err)
	return v
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fixedRand returns the queued values in order (clamped to n-1), then 0.
type fixedRand struct {
	values []int
}

func (r *fixedRand) IntN(n int) int {
	if len(r.values) == 0 {
		return 0
	}
	v := r.values[0]
	r.values = r.values[1:]
	if v >= n {
		return n - 1
	}
	return v
}

type fixture struct {
	t        *testing.T
	store    *memory.Store
	settings overtime.Settings
}

// newFixture seeds one eligible employee on a 09:00-17:00 shift with a 30
// minute allowance, an hourly rate of 200 and both overtime components.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		t:        t,
		store:    memory.New(),
		settings: overtime.DefaultSettings().WithDefaultComponents(),
	}

	start, end := tod(t, "09:00"), tod(t, "17:00")
	f.store.PutShiftType(overtime.ShiftType{
		ID: dayShift, Name: "Day Shift", StartTime: &start, EndTime: &end,
		AllowanceMinutes: 30,
		HolidayMethod:    overtime.MethodExtraHoursOnly,
		SundayMethod:     overtime.MethodExtraHoursPlusCompOff,
	})
	f.store.PutEmployee(overtime.EmployeeProfile{
		EmployeeID: empID, Name: "Amina Otieno", Department: "Operations",
		CompanyID: companyID, Eligible: true, DefaultShiftID: dayShift,
	})
	f.store.AddPayRate(overtime.PayRateAssignment{
		ID: "PR-1", EmployeeID: empID, EffectiveFrom: generic.NewTimePoint(2025, time.January, 1),
		BaseSalary: dec("45000"), HourlyRate: decPtr("200"), Confirmed: true,
	})
	f.store.AddComponent(overtime.SalaryComponent{Name: overtime.DefaultWeekdayComponent, Abbr: "OT-WD", Type: "Earning", IsOvertime: true})
	f.store.AddComponent(overtime.SalaryComponent{Name: overtime.DefaultHolidayComponent, Abbr: "OT-HOL", Type: "Earning", IsOvertime: true})
	return f
}

// attend records an attendance for empID; an empty out leaves it open.
func (f *fixture) attend(id string, date generic.TimePoint, in, out string) overtime.AttendanceRecord {
	f.t.Helper()
	a := overtime.AttendanceRecord{
		ID: id, EmployeeID: empID, CompanyID: companyID, Date: date,
		ClockIn: date.At(tod(f.t, in)), Status: overtime.AttendancePresent,
	}
	if out != "" {
		o := date.At(tod(f.t, out))
		a.ClockOut = &o
	}
	f.store.PutAttendance(a)
	return a
}

func (f *fixture) holiday(date generic.TimePoint) {
	f.store.AddHoliday(generic.Holiday{ID: "HOL-" + date.String(), CompanyID: companyID, Date: date, Name: "Public Holiday"})
}

func (f *fixture) calculator() *overtime.Calculator {
	return overtime.NewCalculator(f.store, f.settings)
}

func (f *fixture) processor(rnd overtime.RandomSource) *overtime.Processor {
	p := overtime.NewProcessor(f.store, f.settings, discardLogger())
	if rnd != nil {
		p.Resets.Rand = rnd
	}
	return p
}
