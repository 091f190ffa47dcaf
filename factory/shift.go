/*
Package factory provides JSON to Go shift conversion.

PURPOSE:
  Converts JSON shift definitions into overtime.ShiftType values. HR defines
  shifts (end time, grace allowance, holiday and Sunday compensation) in the
  admin UI or in seed files, and the factory validates and normalizes them.

JSON SCHEMA:
  {
    "id": "day",
    "name": "Day Shift",
    "start_time": "09:00",
    "end_time": "17:00",
    "allowance_minutes": 30,
    "holiday_method": "Extra Hours Only",
    "sunday_method": "All Hours + Comp Off",
    "min_hours_comp_off": 6
  }

DEFAULTS:
  - Unknown or missing methods become "Extra Hours Only"
  - Negative allowance is rejected
  - min_hours_comp_off defaults to 6

USAGE:
  f := factory.NewShiftFactory()
  shift, err := f.ParseShift(factory.DayShiftJSON("day", "Day Shift", 30))
  store.SaveShiftType(ctx, *shift)

SEE ALSO:
  - overtime/types.go: ShiftType definition
  - overtime/shift.go: Resolving a shift for an (employee, date)
*/
package factory

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/overtime-engine/generic"
	"github.com/warp/overtime-engine/overtime"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// ShiftJSON is the JSON representation of a shift.
type ShiftJSON struct {
	ID               string   `json:"id" validate:"required"`
	Name             string   `json:"name"`
	StartTime        string   `json:"start_time,omitempty"`
	EndTime          string   `json:"end_time,omitempty"` // empty = not configured
	AllowanceMinutes int      `json:"allowance_minutes" validate:"gte=0"`
	HolidayMethod    string   `json:"holiday_method,omitempty"`
	SundayMethod     string   `json:"sunday_method,omitempty"`
	MinHoursCompOff  *float64 `json:"min_hours_comp_off,omitempty"`
}

// =============================================================================
// SHIFT FACTORY
// =============================================================================

// ShiftFactory converts JSON shifts to overtime.ShiftType.
type ShiftFactory struct{}

// NewShiftFactory creates a new shift factory.
func NewShiftFactory() *ShiftFactory {
	return &ShiftFactory{}
}

// ParseShift parses a JSON string into a ShiftType.
func (f *ShiftFactory) ParseShift(jsonStr string) (*overtime.ShiftType, error) {
	var sj ShiftJSON
	if err := json.Unmarshal([]byte(jsonStr), &sj); err != nil {
		return nil, fmt.Errorf("failed to parse shift JSON: %w", err)
	}
	return f.FromJSON(sj)
}

// FromJSON converts ShiftJSON to overtime.ShiftType.
func (f *ShiftFactory) FromJSON(sj ShiftJSON) (*overtime.ShiftType, error) {
	if sj.ID == "" {
		return nil, fmt.Errorf("shift id is required")
	}
	if sj.AllowanceMinutes < 0 {
		return nil, fmt.Errorf("shift %s: allowance_minutes must not be negative", sj.ID)
	}

	st := &overtime.ShiftType{
		ID:               sj.ID,
		Name:             sj.Name,
		AllowanceMinutes: sj.AllowanceMinutes,
		HolidayMethod:    parseMethod(sj.HolidayMethod),
		SundayMethod:     parseMethod(sj.SundayMethod),
		MinHoursCompOff:  overtime.DefaultMinHoursCompOff,
	}
	if st.Name == "" {
		st.Name = sj.ID
	}

	var err error
	if st.StartTime, err = parseClock(sj.StartTime); err != nil {
		return nil, fmt.Errorf("shift %s: invalid start_time: %w", sj.ID, err)
	}
	if st.EndTime, err = parseClock(sj.EndTime); err != nil {
		return nil, fmt.Errorf("shift %s: invalid end_time: %w", sj.ID, err)
	}
	if sj.MinHoursCompOff != nil && *sj.MinHoursCompOff > 0 {
		st.MinHoursCompOff = generic.Round2Float(*sj.MinHoursCompOff)
	}

	return st, nil
}

// ToJSON converts a ShiftType to ShiftJSON.
func (f *ShiftFactory) ToJSON(st overtime.ShiftType) ShiftJSON {
	sj := ShiftJSON{
		ID:               st.ID,
		Name:             st.Name,
		AllowanceMinutes: st.AllowanceMinutes,
		HolidayMethod:    string(st.HolidayMethod),
		SundayMethod:     string(st.SundayMethod),
	}
	if st.StartTime != nil {
		sj.StartTime = st.StartTime.String()
	}
	if st.EndTime != nil {
		sj.EndTime = st.EndTime.String()
	}
	if !st.MinHoursCompOff.IsZero() {
		v := st.MinHoursCompOff.InexactFloat64()
		sj.MinHoursCompOff = &v
	}
	return sj
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

func parseMethod(s string) overtime.CalculationMethod {
	m := overtime.CalculationMethod(s)
	if m.Valid() {
		return m
	}
	return overtime.MethodExtraHoursOnly
}

func parseClock(s string) (*generic.TimeOfDay, error) {
	if s == "" {
		return nil, nil
	}
	t, err := generic.ParseTimeOfDay(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// =============================================================================
// PRESET SHIFTS
// =============================================================================

// DayShiftJSON is a 09:00-17:00 shift paying only hours past the threshold
// on holidays and Sundays.
func DayShiftJSON(id, name string, allowanceMinutes int) string {
	return fmt.Sprintf(`{
		"id": %q,
		"name": %q,
		"start_time": "09:00",
		"end_time": "17:00",
		"allowance_minutes": %d,
		"holiday_method": %q,
		"sunday_method": %q
	}`, id, name, allowanceMinutes, overtime.MethodExtraHoursOnly, overtime.MethodExtraHoursOnly)
}

// LateShiftJSON is a 14:00-22:00 shift.
func LateShiftJSON(id, name string, allowanceMinutes int) string {
	return fmt.Sprintf(`{
		"id": %q,
		"name": %q,
		"start_time": "14:00",
		"end_time": "22:00",
		"allowance_minutes": %d
	}`, id, name, allowanceMinutes)
}

// WeekendCrewShiftJSON is a 07:00-15:00 shift that grants a comp-off day for
// holiday and Sunday work of at least minCompOffHours.
func WeekendCrewShiftJSON(id, name string, allowanceMinutes int, minCompOffHours float64) string {
	return fmt.Sprintf(`{
		"id": %q,
		"name": %q,
		"start_time": "07:00",
		"end_time": "15:00",
		"allowance_minutes": %d,
		"holiday_method": %q,
		"sunday_method": %q,
		"min_hours_comp_off": %s
	}`, id, name, allowanceMinutes, overtime.MethodAllHoursPlusCompOff, overtime.MethodExtraHoursPlusCompOff,
		decimal.NewFromFloat(minCompOffHours).String())
}
