package generic

import (
	"fmt"
	"time"
)

// =============================================================================
// PERIOD - Inclusive date range used by reports and payroll months
// =============================================================================

// Period is an inclusive [Start, End] date range. A zero Start or End leaves
// that side open.
type Period struct {
	Start TimePoint
	End   TimePoint
}

// MonthPeriod returns the calendar month containing date.
func MonthPeriod(date TimePoint) Period {
	return Period{
		Start: StartOfMonth(date.Time.Year(), date.Time.Month()),
		End:   EndOfMonth(date.Time.Year(), date.Time.Month()),
	}
}

// ParseMonth parses "YYYY-MM" into the month's period.
func ParseMonth(s string) (Period, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Period{}, fmt.Errorf("invalid month %q (use YYYY-MM): %w", s, err)
	}
	return MonthPeriod(DateOf(t)), nil
}

// Validate returns ErrInvalidPeriod when both ends are set and End < Start.
func (p Period) Validate() error {
	if !p.Start.IsZero() && !p.End.IsZero() && p.End.Before(p.Start) {
		return ErrInvalidPeriod
	}
	return nil
}

// Contains returns true if the date is within the period; open ends match everything.
func (p Period) Contains(t TimePoint) bool {
	if !p.Start.IsZero() && t.Before(p.Start) {
		return false
	}
	if !p.End.IsZero() && t.After(p.End) {
		return false
	}
	return true
}

func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}
