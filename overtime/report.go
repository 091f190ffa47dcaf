package overtime

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/overtime-engine/generic"
)

// ReportRow is one attendance row of the overtime review report.
type ReportRow struct {
	AttendanceID string
	EmployeeID   string
	EmployeeName string
	Department   string
	CompanyID    string
	Date         generic.TimePoint
	ClockIn      time.Time
	ClockOut     time.Time
	Computation  Computation
	OvertimeRate decimal.Decimal // round2(rate × multiplier)
	Status       Status
	ArtifactID   string
}

// Details is the verification view of a single attendance record.
type Details struct {
	Computation Computation
	Status      Status
	IsApproved  bool
	Artifact    *ApprovalArtifact
}

// Reporter builds the overtime report and per-record details.
type Reporter struct {
	Source     ReportSource
	Attendance AttendanceReader
	Artifacts  ArtifactStore
	Calculator *Calculator
}

// NewReporter wires a reporter over the host store.
func NewReporter(store Store, calc *Calculator) *Reporter {
	return &Reporter{Source: store, Attendance: store, Artifacts: store, Calculator: calc}
}

// Run computes overtime for every candidate row and keeps the rows with
// overtime hours. Candidate order (date desc, employee name) is preserved.
func (r *Reporter) Run(ctx context.Context, filter ReportFilter) ([]ReportRow, error) {
	if err := filter.Period.Validate(); err != nil {
		return nil, err
	}
	candidates, err := r.Source.ListReportCandidates(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list report candidates: %w", err)
	}

	rows := make([]ReportRow, 0, len(candidates))
	for _, cand := range candidates {
		att := cand.Attendance
		if !att.HasCheckout() {
			continue
		}
		calc, err := r.Calculator.Compute(ctx, att)
		if err != nil {
			return nil, fmt.Errorf("compute %s: %w", att.ID, err)
		}
		if !calc.HasOvertime() {
			continue
		}
		artifact, err := r.Artifacts.FindOvertimeArtifact(ctx, att.EmployeeID, att.Date)
		if err != nil {
			return nil, err
		}

		row := ReportRow{
			AttendanceID: att.ID,
			EmployeeID:   att.EmployeeID,
			EmployeeName: cand.Employee.Name,
			Department:   cand.Employee.Department,
			CompanyID:    att.CompanyID,
			Date:         att.Date,
			ClockIn:      att.ClockIn,
			ClockOut:     *att.ClockOut,
			Computation:  calc,
			OvertimeRate: calc.OvertimeRate(),
			Status:       DeriveStatus(&calc, artifact),
		}
		if artifact != nil {
			row.ArtifactID = artifact.ID
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Details computes one record and reports whether it is already approved.
func (r *Reporter) Details(ctx context.Context, attendanceID string) (*Details, error) {
	att, err := r.Attendance.GetAttendance(ctx, attendanceID)
	if err != nil {
		return nil, err
	}
	if att == nil {
		return nil, ErrAttendanceNotFound
	}
	calc, err := r.Calculator.Compute(ctx, *att)
	if err != nil {
		return nil, err
	}
	artifact, err := r.Artifacts.FindOvertimeArtifact(ctx, att.EmployeeID, att.Date)
	if err != nil {
		return nil, err
	}
	return &Details{
		Computation: calc,
		Status:      DeriveStatus(&calc, artifact),
		IsApproved:  artifact != nil,
		Artifact:    artifact,
	}, nil
}
