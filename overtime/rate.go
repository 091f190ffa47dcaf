package overtime

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/overtime-engine/generic"
)

// RateResolver resolves an employee's effective hourly pay rate.
type RateResolver struct {
	Rates    RateReader
	Settings Settings
}

// NewRateResolver creates a resolver; settings get their defaults applied.
func NewRateResolver(rates RateReader, settings Settings) *RateResolver {
	return &RateResolver{Rates: rates, Settings: settings.WithDefaults()}
}

// Resolve returns the hourly rate from the most recent confirmed assignment
// as of date. A missing stored rate is derived from the base salary. Zero
// means "cannot compute amount"; it is not an error.
func (r *RateResolver) Resolve(ctx context.Context, employeeID string, date generic.TimePoint) (decimal.Decimal, error) {
	a, err := r.Rates.LatestPayRate(ctx, employeeID, date)
	if err != nil {
		return decimal.Zero, fmt.Errorf("load pay rate: %w", err)
	}
	if a == nil {
		return decimal.Zero, nil
	}
	return EffectiveHourlyRate(*a, r.Settings.StandardHoursPerMonth), nil
}

// EffectiveHourlyRate returns the stored rate when positive, else the rate
// derived from the base salary.
func EffectiveHourlyRate(a PayRateAssignment, standardHours decimal.Decimal) decimal.Decimal {
	if a.HourlyRate != nil && a.HourlyRate.IsPositive() {
		return *a.HourlyRate
	}
	return DeriveHourlyRate(a.BaseSalary, standardHours)
}

// DeriveHourlyRate is base / standardHours rounded to 2 places; 0 when either
// input is not positive.
func DeriveHourlyRate(base, standardHours decimal.Decimal) decimal.Decimal {
	if !base.IsPositive() || !standardHours.IsPositive() {
		return decimal.Zero
	}
	return generic.Round2(base.Div(standardHours))
}

// WithDerivedRate fills HourlyRate from the base salary when it is absent.
// Called when a pay-rate assignment is saved.
func (a PayRateAssignment) WithDerivedRate(standardHours decimal.Decimal) PayRateAssignment {
	if a.HourlyRate != nil && a.HourlyRate.IsPositive() {
		return a
	}
	rate := DeriveHourlyRate(a.BaseSalary, standardHours)
	if rate.IsPositive() {
		a.HourlyRate = &rate
	}
	return a
}
