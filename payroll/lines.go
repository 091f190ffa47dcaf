package payroll

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/warp/overtime-engine/generic"
	"github.com/warp/overtime-engine/overtime"
)

// LinesFromArtifacts converts approved overtime artifacts into earnings rows,
// one per artifact, in the order given. Voided artifacts are skipped.
func LinesFromArtifacts(artifacts []overtime.ApprovalArtifact) []SalaryDetail {
	lines := make([]SalaryDetail, 0, len(artifacts))
	for _, a := range artifacts {
		if a.IsVoided() {
			continue
		}
		lines = append(lines, SalaryDetail{
			Component:        a.ComponentRef,
			Amount:           generic.Round2(a.Amount),
			AdditionalAmount: generic.Round2(a.Amount),
			AdditionalSalary: a.ID,
			Description: fmt.Sprintf("%s overtime on %s (%s hrs)",
				a.OvertimeType, a.EffectiveDate, a.OvertimeHours.StringFixed(2)),
			Idx: len(lines) + 1,
		})
	}
	return lines
}

// MonthlyLines is an employee's consolidated overtime earnings for a month.
type MonthlyLines struct {
	EmployeeID string         `json:"employee_id"`
	Period     generic.Period `json:"-"`
	Month      string         `json:"month"`
	Artifacts  int            `json:"artifacts"`
	Lines      []SalaryDetail `json:"lines"`
}

// LineBuilder reads finalized artifacts and produces salary lines.
type LineBuilder struct {
	Artifacts overtime.ArtifactStore
	Logger    *slog.Logger
}

// NewLineBuilder creates a builder over the artifact store.
func NewLineBuilder(artifacts overtime.ArtifactStore, logger *slog.Logger) *LineBuilder {
	if logger == nil {
		logger = slog.Default()
	}
	return &LineBuilder{Artifacts: artifacts, Logger: logger}
}

// ForMonth returns the consolidated overtime lines for an employee in the
// month given as "YYYY-MM".
func (b *LineBuilder) ForMonth(ctx context.Context, employeeID, month string) (*MonthlyLines, error) {
	period, err := generic.ParseMonth(month)
	if err != nil {
		return nil, err
	}

	arts, err := b.Artifacts.ListArtifacts(ctx, overtime.ArtifactFilter{
		EmployeeID:     employeeID,
		Period:         period,
		OnlySubmitted:  true,
		OvertimeMarked: true,
	})
	if err != nil {
		return nil, fmt.Errorf("list overtime artifacts: %w", err)
	}

	slip := Slip{EmployeeID: employeeID, Earnings: LinesFromArtifacts(arts)}
	res := slip.Consolidate()
	if res.Merged() {
		b.Logger.Info("overtime lines consolidated",
			"employee", employeeID,
			"month", month,
			"components", OvertimeComponents(slip),
		)
	}

	return &MonthlyLines{
		EmployeeID: employeeID,
		Period:     period,
		Month:      month,
		Artifacts:  len(arts),
		Lines:      slip.Earnings,
	}, nil
}
