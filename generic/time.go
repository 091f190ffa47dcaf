package generic

import (
	"context"
	"time"
)

// DateLayout is the wire and storage format for calendar dates.
const DateLayout = "2006-01-02"

// DateTimeLayout is the storage format for time-zone-naive timestamps.
const DateTimeLayout = "2006-01-02 15:04:05"

// =============================================================================
// TIME POINT - A calendar date (attendance dates, payroll dates)
// =============================================================================

// TimePoint is a calendar day. All timestamps in this system are
// time-zone naive and carried in UTC.
type TimePoint struct {
	Time time.Time
}

// Constructors
func NewTimePoint(year int, month time.Month, day int) TimePoint {
	return TimePoint{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates a timestamp to its calendar day.
func DateOf(t time.Time) TimePoint {
	return NewTimePoint(t.Year(), t.Month(), t.Day())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (TimePoint, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return TimePoint{}, err
	}
	return DateOf(t), nil
}

// ParseDateTime parses a naive "YYYY-MM-DD HH:MM:SS" timestamp, also
// accepting RFC3339 for API callers.
func ParseDateTime(s string) (time.Time, error) {
	if t, err := time.Parse(DateTimeLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC), nil
}

func (tp TimePoint) normalize() time.Time {
	return time.Date(tp.Time.Year(), tp.Time.Month(), tp.Time.Day(), 0, 0, 0, 0, time.UTC)
}

// Comparison
func (tp TimePoint) Before(other TimePoint) bool { return tp.normalize().Before(other.normalize()) }
func (tp TimePoint) Equal(other TimePoint) bool  { return tp.normalize().Equal(other.normalize()) }
func (tp TimePoint) After(other TimePoint) bool  { return tp.normalize().After(other.normalize()) }

// Arithmetic
func (tp TimePoint) AddDays(n int) TimePoint { return TimePoint{Time: tp.normalize().AddDate(0, 0, n)} }

// At combines the date with a time of day.
func (tp TimePoint) At(tod TimeOfDay) time.Time {
	return tp.normalize().Add(time.Duration(tod))
}

// Properties
func (tp TimePoint) Weekday() time.Weekday { return tp.Time.Weekday() }
func (tp TimePoint) IsSunday() bool        { return tp.Weekday() == time.Sunday }
func (tp TimePoint) IsZero() bool          { return tp.Time.IsZero() }
func (tp TimePoint) String() string        { return tp.Time.Format(DateLayout) }

func StartOfMonth(year int, month time.Month) TimePoint { return NewTimePoint(year, month, 1) }
func EndOfMonth(year int, month time.Month) TimePoint {
	return StartOfMonth(year, month).addMonths(1).AddDays(-1)
}

func (tp TimePoint) addMonths(n int) TimePoint { return TimePoint{Time: tp.normalize().AddDate(0, n, 0)} }

// =============================================================================
// TIME OF DAY - Shift boundaries
// =============================================================================

// TimeOfDay is an offset from midnight (e.g., 17:00 -> 17h).
type TimeOfDay time.Duration

// ParseTimeOfDay accepts "HH:MM" or "HH:MM:SS".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return TimeOfDay(time.Duration(t.Hour())*time.Hour +
				time.Duration(t.Minute())*time.Minute +
				time.Duration(t.Second())*time.Second), nil
		}
	}
	return 0, &time.ParseError{Layout: "15:04:05", Value: s, Message: ": invalid time of day"}
}

func (t TimeOfDay) String() string {
	return time.Time{}.Add(time.Duration(t)).Format("15:04:05")
}

// =============================================================================
// HOLIDAY CALENDAR - Company-specific holidays
// =============================================================================

// Holiday is a company holiday. An empty CompanyID applies to every company.
type Holiday struct {
	ID        string
	CompanyID string
	Date      TimePoint
	Name      string
	Recurring bool // true = same month/day every year
}

// HolidayCalendar answers holiday-membership questions for a company.
type HolidayCalendar interface {
	// IsHoliday checks company-specific holidays first, then global holidays.
	IsHoliday(ctx context.Context, companyID string, date TimePoint) (bool, error)
}

// NoHolidays is a calendar without holidays.
type NoHolidays struct{}

func (NoHolidays) IsHoliday(context.Context, string, TimePoint) (bool, error) { return false, nil }

// Matches reports whether the holiday falls on date for companyID.
func (h Holiday) Matches(companyID string, date TimePoint) bool {
	if h.CompanyID != "" && h.CompanyID != companyID {
		return false
	}
	if h.Recurring {
		return h.Date.Time.Month() == date.Time.Month() && h.Date.Time.Day() == date.Time.Day()
	}
	return h.Date.Equal(date)
}
