/*
aggregate.go - Duplicate salary component consolidation

PURPOSE:
  Every approved overtime day becomes its own payroll adjustment line, so a
  month with several approvals produces several earnings rows for the same
  component. Consolidate merges them into one row per component before the
  slip is saved.

RULES:
  - Rows are grouped by component, keeping first-occurrence order
  - amount, additional_amount, default_amount and year_to_date are summed
    from values rounded to 2 places, and the sum is rounded again
  - Adjustment references of merged rows are joined with ", "
  - Idx is renumbered from 1
  - Finalized slips are never modified

EXAMPLE:
  Before: OT-WD 3281.99, OT-WD 3281.99
  After:  OT-WD 6563.98

SEE ALSO:
  - lines.go: Artifact -> salary line conversion
*/
package payroll

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/warp/overtime-engine/generic"
)

// RefSeparator joins adjustment references of merged rows.
const RefSeparator = ", "

// SalaryDetail is one earnings or deductions row of a salary slip.
type SalaryDetail struct {
	Component        string          `json:"salary_component"`
	Abbr             string          `json:"abbr,omitempty"`
	Amount           decimal.Decimal `json:"amount"`
	AdditionalAmount decimal.Decimal `json:"additional_amount"`
	DefaultAmount    decimal.Decimal `json:"default_amount"`
	YearToDate       decimal.Decimal `json:"year_to_date"`
	AdditionalSalary string          `json:"additional_salary,omitempty"` // adjustment reference(s)
	Description      string          `json:"description,omitempty"`
	Idx              int             `json:"idx"`
}

// Refs splits the joined adjustment references.
func (d SalaryDetail) Refs() []string {
	if d.AdditionalSalary == "" {
		return nil
	}
	parts := strings.Split(d.AdditionalSalary, ",")
	refs := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			refs = append(refs, p)
		}
	}
	return refs
}

// Slip is a salary slip. Docstatus follows the host lifecycle:
// 0 = draft, 1 = submitted, 2 = cancelled.
type Slip struct {
	ID         string         `json:"name"`
	EmployeeID string         `json:"employee"`
	Docstatus  int            `json:"docstatus"`
	Earnings   []SalaryDetail `json:"earnings"`
	Deductions []SalaryDetail `json:"deductions"`
}

// IsFinalized reports whether the slip can no longer be modified.
func (s Slip) IsFinalized() bool { return s.Docstatus > 0 }

// ConsolidationResult reports what Consolidate changed.
type ConsolidationResult struct {
	EarningsBefore   int  `json:"earnings_before"`
	EarningsAfter    int  `json:"earnings_after"`
	DeductionsBefore int  `json:"deductions_before"`
	DeductionsAfter  int  `json:"deductions_after"`
	Skipped          bool `json:"skipped"` // finalized slip, nothing touched
}

// Merged reports whether any rows were combined.
func (r ConsolidationResult) Merged() bool {
	return r.EarningsAfter < r.EarningsBefore || r.DeductionsAfter < r.DeductionsBefore
}

// Messages returns the operator notices for merged sections.
func (r ConsolidationResult) Messages() []string {
	var out []string
	if r.EarningsAfter < r.EarningsBefore {
		out = append(out, fmt.Sprintf("Aggregated %d duplicate earning components into %d entries",
			r.EarningsBefore, r.EarningsAfter))
	}
	if r.DeductionsAfter < r.DeductionsBefore {
		out = append(out, fmt.Sprintf("Aggregated %d duplicate deduction components into %d entries",
			r.DeductionsBefore, r.DeductionsAfter))
	}
	return out
}

// Consolidate merges duplicate components in both sections of a draft slip.
func (s *Slip) Consolidate() ConsolidationResult {
	res := ConsolidationResult{
		EarningsBefore:   len(s.Earnings),
		DeductionsBefore: len(s.Deductions),
	}
	if s.IsFinalized() {
		res.EarningsAfter, res.DeductionsAfter, res.Skipped = res.EarningsBefore, res.DeductionsBefore, true
		return res
	}
	s.Earnings = Aggregate(s.Earnings)
	s.Deductions = Aggregate(s.Deductions)
	res.EarningsAfter = len(s.Earnings)
	res.DeductionsAfter = len(s.Deductions)
	return res
}

// Aggregate groups rows by component. Lists with at most one row are returned
// unchanged.
func Aggregate(details []SalaryDetail) []SalaryDetail {
	if len(details) <= 1 {
		return details
	}

	type group struct {
		first SalaryDetail
		sum   SalaryDetail
		refs  []string
		count int
	}
	var (
		order  []string
		groups = make(map[string]*group)
	)

	for _, d := range details {
		g, ok := groups[d.Component]
		if !ok {
			g = &group{first: d}
			groups[d.Component] = g
			order = append(order, d.Component)
		}
		g.sum.Amount = g.sum.Amount.Add(generic.Round2(d.Amount))
		g.sum.AdditionalAmount = g.sum.AdditionalAmount.Add(generic.Round2(d.AdditionalAmount))
		g.sum.DefaultAmount = g.sum.DefaultAmount.Add(generic.Round2(d.DefaultAmount))
		g.sum.YearToDate = g.sum.YearToDate.Add(generic.Round2(d.YearToDate))
		g.count++
		if d.AdditionalSalary != "" {
			g.refs = append(g.refs, d.AdditionalSalary)
		}
	}

	out := make([]SalaryDetail, 0, len(order))
	for i, component := range order {
		g := groups[component]
		d := g.first
		if g.count > 1 {
			d.Amount = generic.Round2(g.sum.Amount)
			d.AdditionalAmount = generic.Round2(g.sum.AdditionalAmount)
			d.DefaultAmount = generic.Round2(g.sum.DefaultAmount)
			d.YearToDate = generic.Round2(g.sum.YearToDate)
			if len(g.refs) > 0 {
				d.AdditionalSalary = strings.Join(g.refs, RefSeparator)
			}
		}
		d.Idx = i + 1
		out = append(out, d)
	}
	return out
}

// OvertimeComponents lists the overtime earnings of a slip for audit logs,
// noting how many adjustments were merged into each.
func OvertimeComponents(s Slip) []string {
	var out []string
	for _, e := range s.Earnings {
		if !strings.Contains(strings.ToLower(e.Component), "overtime") || e.AdditionalSalary == "" {
			continue
		}
		if strings.Contains(e.AdditionalSalary, ",") {
			out = append(out, fmt.Sprintf("%s (aggregated from %d entries)", e.Component, len(e.Refs())))
		} else {
			out = append(out, e.Component)
		}
	}
	return out
}
