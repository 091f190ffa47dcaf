package overtime_test

import (
	"context"
	"fmt"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/overtime-engine/generic"
	"github.com/warp/overtime-engine/overtime"
)

func TestVarianceSeconds_DeterministicAndBounded(t *testing.T) {
	seen := map[int]bool{}
	for i := 0; i < 50; i++ {
		emp := fmt.Sprintf("EMP-%03d", i)
		v := overtime.VarianceSeconds(emp, tuesday, 3, 2)
		assert.GreaterOrEqual(t, v, 3)
		assert.LessOrEqual(t, v, 4)
		assert.Equal(t, v, overtime.VarianceSeconds(emp, tuesday, 3, 2), "same input, same variance")
		seen[v] = true
	}
	assert.Len(t, seen, 2, "both offsets occur across employees")

	assert.Equal(t, 3, overtime.VarianceSeconds(empID, tuesday, 3, 0))
}

func TestStandardClockOut_NeverBelowWorkday(t *testing.T) {
	// Reject-mode resets always leave at least 8 worked hours.
	engine := overtime.NewResetEngine(nil, overtime.DefaultSettings())
	engine.Rand = rand.New(rand.NewPCG(1, 2))

	for i := 0; i < 500; i++ {
		date := tuesday.AddDays(i % 60)
		att := overtime.AttendanceRecord{
			ID: "ATT", EmployeeID: fmt.Sprintf("EMP-%d", i%7), Date: date,
			ClockIn: date.At(generic.TimeOfDay(time.Duration(6+i%5) * time.Hour)),
		}
		out := engine.StandardClockOut(att, i%61)

		worked := generic.HoursBetween(att.ClockIn, out)
		assert.True(t, worked.GreaterThanOrEqual(overtime.StandardWorkdayHours), "worked %s", worked)
		assert.LessOrEqual(t, out.Sub(att.ClockIn), 8*time.Hour+time.Duration(i%61)*time.Minute+4*time.Second)
	}
}

func TestAlignedClockOut_CoversApprovedHours(t *testing.T) {
	// Align-mode resets always leave at least 8 + H worked hours, even when
	// the jitter draw is negative.
	engine := overtime.NewResetEngine(nil, overtime.DefaultSettings())
	engine.Rand = rand.New(rand.NewPCG(3, 4))

	for i := 0; i < 500; i++ {
		approved := generic.Round2Float(float64(i%40) * 0.13)
		if !approved.IsPositive() {
			continue
		}
		att := overtime.AttendanceRecord{ID: "ATT", EmployeeID: empID, Date: tuesday, ClockIn: tuesday.At(tod(t, "07:45"))}
		out := engine.AlignedClockOut(att, i%3*5, approved)

		worked := generic.HoursBetween(att.ClockIn, out)
		assert.True(t, worked.GreaterThanOrEqual(overtime.StandardWorkdayHours.Add(approved)),
			"approved %s worked %s", approved, worked)
	}
}

func TestAlignedClockOut_FractionalHoursCeilToSecond(t *testing.T) {
	engine := overtime.NewResetEngine(nil, overtime.DefaultSettings())
	engine.Rand = &fixedRand{}

	att := overtime.AttendanceRecord{ID: "ATT", EmployeeID: empID, Date: tuesday, ClockIn: tuesday.At(tod(t, "08:00"))}
	out := engine.AlignedClockOut(att, 0, dec("0.33"))

	// 0.33 h = 1188 s exactly
	assert.Equal(t, tuesday.At(tod(t, "16:19:48")), out)
}

func TestReset_FallsBackToSameDayCheckin(t *testing.T) {
	// GIVEN: OUT check-ins not linked to the attendance, one on the day and a
	//        later one on the next day
	// WHEN: Resetting
	// THEN: The newest same-day OUT event is rewritten, the others are untouched
	f := newFixture(t)
	att := f.attend("ATT-1", tuesday, "08:00", "20:00")
	f.store.AddCheckin(overtime.Checkin{ID: "CHK-IN", EmployeeID: empID, LogType: overtime.LogIn, Time: tuesday.At(tod(t, "08:00"))})
	f.store.AddCheckin(overtime.Checkin{ID: "CHK-EARLY", EmployeeID: empID, LogType: overtime.LogOut, Time: tuesday.At(tod(t, "12:00"))})
	f.store.AddCheckin(overtime.Checkin{ID: "CHK-LATE", EmployeeID: empID, LogType: overtime.LogOut, Time: tuesday.At(tod(t, "20:00"))})
	next := tuesday.AddDays(1)
	f.store.AddCheckin(overtime.Checkin{ID: "CHK-NEXT", EmployeeID: empID, LogType: overtime.LogOut, Time: next.At(tod(t, "18:00"))})

	engine := overtime.NewResetEngine(f.store, f.settings)
	engine.Rand = &fixedRand{}
	policy, err := overtime.NewShiftResolver(f.store, f.store).Resolve(context.Background(), empID, tuesday)
	require.NoError(t, err)

	res, err := engine.Reset(context.Background(), att, *policy, dec("0"))
	require.NoError(t, err)
	assert.Equal(t, "CHK-LATE", res.CheckinID)
	assert.Equal(t, overtime.ResetStandard, res.Mode)

	late, _ := f.store.Checkin("CHK-LATE")
	assert.Equal(t, res.ClockOut, late.Time)
	assert.True(t, late.SkipAutoAttendance)

	for _, id := range []string{"CHK-IN", "CHK-EARLY", "CHK-NEXT"} {
		c, _ := f.store.Checkin(id)
		assert.False(t, c.SkipAutoAttendance, id)
		assert.Nil(t, c.OriginalTime, id)
	}
}

func TestReset_RepeatedResetKeepsFirstOriginalTime(t *testing.T) {
	f := newFixture(t)
	att := f.attend("ATT-1", tuesday, "08:00", "20:00")
	f.store.AddCheckin(overtime.Checkin{ID: "CHK-OUT", EmployeeID: empID, AttendanceID: "ATT-1",
		LogType: overtime.LogOut, Time: tuesday.At(tod(t, "20:00"))})

	engine := overtime.NewResetEngine(f.store, f.settings)
	engine.Rand = &fixedRand{}
	policy, err := overtime.NewShiftResolver(f.store, f.store).Resolve(context.Background(), empID, tuesday)
	require.NoError(t, err)

	first, err := engine.Reset(context.Background(), att, *policy, dec("0"))
	require.NoError(t, err)
	second, err := engine.Reset(context.Background(), att, *policy, dec("0"))
	require.NoError(t, err)

	assert.Equal(t, first.ClockOut, second.ClockOut, "deterministic variance keeps repeated resets stable")
	chk, _ := f.store.Checkin("CHK-OUT")
	require.NotNil(t, chk.OriginalTime)
	assert.Equal(t, tuesday.At(tod(t, "20:00")), *chk.OriginalTime)
}

func TestDeriveStatus(t *testing.T) {
	withOT := overtime.Computation{OvertimeHours: dec("1.5")}
	noOT := overtime.Computation{OvertimeHours: dec("0")}
	live := &overtime.ApprovalArtifact{Status: overtime.ArtifactSubmitted}
	voided := &overtime.ApprovalArtifact{Status: overtime.ArtifactVoided}

	assert.Equal(t, "Approved & Paid", overtime.DeriveStatus(&withOT, live).Label())
	assert.Equal(t, "Pending Review", overtime.DeriveStatus(&withOT, nil).Label())
	assert.Equal(t, "Pending Review", overtime.DeriveStatus(&withOT, voided).Label())
	assert.Equal(t, "No Overtime", overtime.DeriveStatus(&noOT, nil).Label())
	assert.Equal(t, overtime.StatusUncomputed, overtime.DeriveStatus(nil, nil))
}

func TestSettings_Defaults(t *testing.T) {
	s := overtime.Settings{}.WithDefaults()

	assert.Equal(t, "225", s.StandardHoursPerMonth.String())
	assert.Equal(t, "1.50", s.MultiplierFor(overtime.TypeNormal).StringFixed(2))
	assert.Equal(t, "2.00", s.MultiplierFor(overtime.TypeHoliday).StringFixed(2))
	assert.Equal(t, "2.00", s.MultiplierFor(overtime.TypeSunday).StringFixed(2))
	assert.Equal(t, 3, s.VarianceBaseSeconds)
	assert.Equal(t, 2, s.VarianceSpanSeconds)
	assert.Empty(t, s.WeekdayComponent, "components stay as configured")

	s = s.WithDefaultComponents()
	assert.Equal(t, overtime.DefaultWeekdayComponent, s.ComponentFor(overtime.TypeNormal))
	assert.Equal(t, overtime.DefaultHolidayComponent, s.ComponentFor(overtime.TypeSunday))

	s.HolidayMultiplier = dec("-1")
	assert.Error(t, s.Validate())
}
