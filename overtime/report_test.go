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

func (f *fixture) reporter() *overtime.Reporter {
	return overtime.NewReporter(f.store, f.calculator())
}

func TestReport_RowsStatusAndOrder(t *testing.T) {
	// GIVEN: Three days of attendance for two employees, one day without
	//        overtime and one day already approved
	// WHEN: Running the report
	// THEN: Zero-overtime rows are dropped, rows ordered by date desc then name
	f := newFixture(t)
	f.store.PutEmployee(overtime.EmployeeProfile{EmployeeID: "EMP-002", Name: "Brian Kamau", Department: "Finance",
		CompanyID: companyID, Eligible: false, DefaultShiftID: dayShift})
	wed := tuesday.AddDays(1)

	f.attend("ATT-1", tuesday, "08:00", "18:30")
	f.attend("ATT-2", wed, "08:00", "16:00")
	in, out := wed.At(tod(t, "08:00")), wed.At(tod(t, "19:00"))
	f.store.PutAttendance(overtime.AttendanceRecord{ID: "ATT-3", EmployeeID: "EMP-002", CompanyID: companyID,
		Date: wed, ClockIn: in, ClockOut: &out})
	f.store.PutAttendance(overtime.AttendanceRecord{ID: "ATT-ABSENT", EmployeeID: empID, CompanyID: companyID,
		Date: tuesday.AddDays(2), ClockIn: in, ClockOut: &out, Status: overtime.AttendanceAbsent})

	_, err := f.processor(nil).Approve(context.Background(), approveItem("ATT-1"))
	require.NoError(t, err)

	rows, err := f.reporter().Run(context.Background(), overtime.ReportFilter{})
	require.NoError(t, err)

	require.Len(t, rows, 2)
	assert.Equal(t, "ATT-3", rows[0].AttendanceID)
	assert.Equal(t, "Brian Kamau", rows[0].EmployeeName)
	assert.Equal(t, "Pending Review", rows[0].Status.Label())
	assert.False(t, rows[0].Computation.IsEligible)
	assert.Equal(t, "2.50", rows[0].Computation.OvertimeHours.StringFixed(2))
	assert.True(t, rows[0].Computation.OvertimeAmount.IsZero(), "EMP-002 has no pay rate")

	assert.Equal(t, "ATT-1", rows[1].AttendanceID)
	assert.Equal(t, "Approved & Paid", rows[1].Status.Label())
	assert.NotEmpty(t, rows[1].ArtifactID)
	assert.Equal(t, "300.00", rows[1].OvertimeRate.StringFixed(2))
}

func TestReport_Filters(t *testing.T) {
	f := newFixture(t)
	f.store.PutEmployee(overtime.EmployeeProfile{EmployeeID: "EMP-002", Name: "Brian Kamau", Department: "Finance",
		CompanyID: "OTHER", Eligible: false, DefaultShiftID: dayShift})
	f.attend("ATT-1", tuesday, "08:00", "18:30")
	in, out := tuesday.At(tod(t, "08:00")), tuesday.At(tod(t, "19:00"))
	f.store.PutAttendance(overtime.AttendanceRecord{ID: "ATT-2", EmployeeID: "EMP-002", CompanyID: "OTHER",
		Date: tuesday, ClockIn: in, ClockOut: &out})
	march := generic.Period{Start: generic.NewTimePoint(2025, time.March, 1), End: generic.NewTimePoint(2025, time.March, 31)}
	yes, no := true, false

	tests := []struct {
		name   string
		filter overtime.ReportFilter
		want   []string
	}{
		{"department", overtime.ReportFilter{Department: "Finance"}, []string{"ATT-2"}},
		{"company", overtime.ReportFilter{CompanyID: companyID}, []string{"ATT-1"}},
		{"employee", overtime.ReportFilter{EmployeeID: empID}, []string{"ATT-1"}},
		{"eligible yes", overtime.ReportFilter{Eligible: &yes}, []string{"ATT-1"}},
		{"eligible no", overtime.ReportFilter{Eligible: &no}, []string{"ATT-2"}},
		{"period", overtime.ReportFilter{Period: march}, []string{"ATT-1", "ATT-2"}},
		{"outside period", overtime.ReportFilter{Period: generic.Period{Start: tuesday.AddDays(1)}}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := f.reporter().Run(context.Background(), tt.filter)
			require.NoError(t, err)

			var got []string
			for _, r := range rows {
				got = append(got, r.AttendanceID)
			}
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := f.reporter().Run(context.Background(), overtime.ReportFilter{
		Period: generic.Period{Start: tuesday, End: tuesday.AddDays(-1)},
	})
	assert.ErrorIs(t, err, generic.ErrInvalidPeriod)
}

func TestDetails(t *testing.T) {
	f := newFixture(t)
	f.attend("ATT-1", tuesday, "08:00", "18:30")
	ctx := context.Background()

	before, err := f.reporter().Details(ctx, "ATT-1")
	require.NoError(t, err)
	assert.False(t, before.IsApproved)
	assert.Equal(t, overtime.StatusPendingReview, before.Status)

	art, err := f.processor(nil).Approve(ctx, approveItem("ATT-1"))
	require.NoError(t, err)

	after, err := f.reporter().Details(ctx, "ATT-1")
	require.NoError(t, err)
	assert.True(t, after.IsApproved)
	assert.Equal(t, overtime.StatusApproved, after.Status)
	require.NotNil(t, after.Artifact)
	assert.Equal(t, art.ID, after.Artifact.ID)

	_, err = f.reporter().Details(ctx, "ATT-MISSING")
	assert.ErrorIs(t, err, overtime.ErrAttendanceNotFound)
}
