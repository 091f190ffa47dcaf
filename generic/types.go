/*
Package generic provides the domain-agnostic primitives of the overtime engine.

PURPOSE:
  Quantities (hours, money), calendar dates, holiday calendars and the
  sentinel storage errors used by every domain package. Nothing in here
  knows what an attendance record or a shift is.

KEY CONCEPTS IN THIS FILE (types.go):
  - Round2: The single rounding rule of the system (half away from zero)
  - Hours helpers: converting time.Duration to fractional hours and back

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal to avoid floating-point drift
  2. Round once: each derived quantity is rounded exactly once, never cumulatively

USAGE:
  worked := generic.HoursBetween(in, out)        // 10.5
  ot := generic.Round2(worked.Sub(decimal.NewFromInt(8)))

SEE ALSO:
  - time.go: TimePoint and holiday calendar
  - errors.go: Sentinel errors
*/
package generic

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// ROUNDING
// =============================================================================

// Round2 rounds half away from zero at two decimal places.
// decimal.Round already rounds half away from zero (5.455 -> 5.46, -5.455 -> -5.46).
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Round2Float is Round2 for callers that hold float64 input (JSON payloads).
func Round2Float(f float64) decimal.Decimal {
	return Round2(decimal.NewFromFloat(f))
}

// =============================================================================
// HOURS
// =============================================================================

var (
	hour   = decimal.NewFromInt(int64(time.Hour))
	minute = decimal.NewFromInt(60)
)

// HoursBetween returns to-from in fractional hours, unrounded.
func HoursBetween(from, to time.Time) decimal.Decimal {
	return decimal.NewFromInt(int64(to.Sub(from))).Div(hour)
}

// MinutesToHours converts whole minutes to fractional hours, unrounded.
func MinutesToHours(minutes int) decimal.Decimal {
	return decimal.NewFromInt(int64(minutes)).Div(minute)
}

// DurationFromHours converts fractional hours to a duration, rounding up to
// the next whole second so the result never undershoots the requested hours.
func DurationFromHours(h decimal.Decimal) time.Duration {
	seconds := h.Mul(decimal.NewFromInt(3600)).Ceil()
	return time.Duration(seconds.IntPart()) * time.Second
}
