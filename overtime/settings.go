package overtime

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Settings is the HR configuration singleton. It is passed explicitly to the
// components that need it; callers apply WithDefaults at the boundary.
type Settings struct {
	Enabled               bool            `toml:"enable_overtime_tracking"`
	StandardHoursPerMonth decimal.Decimal `toml:"standard_hours_per_month"`
	WeekdayMultiplier     decimal.Decimal `toml:"weekday_overtime_multiplier"`
	HolidayMultiplier     decimal.Decimal `toml:"holiday_overtime_multiplier"`
	SundayMultiplier      decimal.Decimal `toml:"sunday_overtime_multiplier"`

	// Deterministic reset variance is VarianceBaseSeconds + hash mod VarianceSpanSeconds.
	VarianceBaseSeconds int `toml:"overtime_variance_seconds"`
	VarianceSpanSeconds int `toml:"overtime_variance_span"`

	// AlignJitterMinutes bounds the ±jitter added when aligning to approved hours.
	AlignJitterMinutes int `toml:"align_jitter_minutes"`

	WeekdayComponent string `toml:"weekday_overtime_component"`
	HolidayComponent string `toml:"holiday_overtime_component"`
}

// Default values of the HR configuration.
var (
	DefaultStandardHoursPerMonth = decimal.NewFromInt(225)
	DefaultWeekdayMultiplier     = decimal.NewFromFloat(1.5)
	DefaultHolidayMultiplier     = decimal.NewFromInt(2)
	DefaultSundayMultiplier      = decimal.NewFromInt(2)
)

const (
	DefaultVarianceBaseSeconds = 3
	DefaultVarianceSpanSeconds = 2
	DefaultAlignJitterMinutes  = 5
	DefaultWeekdayComponent    = "Overtime Pay - Weekday"
	DefaultHolidayComponent    = "Overtime Pay - Holiday"
)

// DefaultSettings returns the provisioning defaults.
func DefaultSettings() Settings {
	return Settings{Enabled: true}.WithDefaults()
}

// WithDefaults fills every zero value with its default. Component references
// are left as configured: an empty reference is a configuration error the
// processor reports per item.
func (s Settings) WithDefaults() Settings {
	if !s.StandardHoursPerMonth.IsPositive() {
		s.StandardHoursPerMonth = DefaultStandardHoursPerMonth
	}
	if !s.WeekdayMultiplier.IsPositive() {
		s.WeekdayMultiplier = DefaultWeekdayMultiplier
	}
	if !s.HolidayMultiplier.IsPositive() {
		s.HolidayMultiplier = DefaultHolidayMultiplier
	}
	if !s.SundayMultiplier.IsPositive() {
		s.SundayMultiplier = DefaultSundayMultiplier
	}
	if s.VarianceBaseSeconds <= 0 {
		s.VarianceBaseSeconds = DefaultVarianceBaseSeconds
	}
	if s.VarianceSpanSeconds <= 0 {
		s.VarianceSpanSeconds = DefaultVarianceSpanSeconds
	}
	if s.AlignJitterMinutes <= 0 {
		s.AlignJitterMinutes = DefaultAlignJitterMinutes
	}
	return s
}

// WithDefaultComponents fills empty component references with the
// provisioned component names.
func (s Settings) WithDefaultComponents() Settings {
	if s.WeekdayComponent == "" {
		s.WeekdayComponent = DefaultWeekdayComponent
	}
	if s.HolidayComponent == "" {
		s.HolidayComponent = DefaultHolidayComponent
	}
	return s
}

// MultiplierFor returns the pay multiplier for an overtime type, rounded to 2 places.
func (s Settings) MultiplierFor(t OvertimeType) decimal.Decimal {
	switch t {
	case TypeHoliday:
		return s.HolidayMultiplier.Round(2)
	case TypeSunday:
		return s.SundayMultiplier.Round(2)
	default:
		return s.WeekdayMultiplier.Round(2)
	}
}

// ComponentFor returns the configured salary component for an overtime type.
func (s Settings) ComponentFor(t OvertimeType) string {
	if t.IsPremium() {
		return s.HolidayComponent
	}
	return s.WeekdayComponent
}

// Validate rejects settings that cannot produce meaningful pay.
func (s Settings) Validate() error {
	if s.StandardHoursPerMonth.IsNegative() {
		return fmt.Errorf("standard_hours_per_month must not be negative")
	}
	for name, m := range map[string]decimal.Decimal{
		"weekday_overtime_multiplier": s.WeekdayMultiplier,
		"holiday_overtime_multiplier": s.HolidayMultiplier,
		"sunday_overtime_multiplier":  s.SundayMultiplier,
	} {
		if m.IsNegative() {
			return fmt.Errorf("%s must not be negative", name)
		}
	}
	return nil
}
