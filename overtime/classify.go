package overtime

import (
	"context"
	"fmt"

	"github.com/warp/overtime-engine/generic"
)

// DayClassifier classifies a work date as Normal, Holiday or Sunday.
type DayClassifier struct {
	Calendar generic.HolidayCalendar
}

// NewDayClassifier creates a classifier; a nil calendar has no holidays.
func NewDayClassifier(cal generic.HolidayCalendar) *DayClassifier {
	if cal == nil {
		cal = generic.NoHolidays{}
	}
	return &DayClassifier{Calendar: cal}
}

// Classify checks the company holiday calendar first. A Sunday that is also
// a holiday is a Holiday.
func (c *DayClassifier) Classify(ctx context.Context, date generic.TimePoint, companyID string) (OvertimeType, error) {
	holiday, err := c.Calendar.IsHoliday(ctx, companyID, date)
	if err != nil {
		return "", fmt.Errorf("check holiday calendar: %w", err)
	}
	if holiday {
		return TypeHoliday, nil
	}
	if date.IsSunday() {
		return TypeSunday, nil
	}
	return TypeNormal, nil
}
