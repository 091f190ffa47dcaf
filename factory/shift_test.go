package factory_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/overtime-engine/factory"
	"github.com/warp/overtime-engine/overtime"
)

func TestParseShift_Presets(t *testing.T) {
	f := factory.NewShiftFactory()

	tests := []struct {
		name       string
		json       string
		end        string
		allowance  int
		sunday     overtime.CalculationMethod
		minCompOff string
	}{
		{"day", factory.DayShiftJSON("day", "Day Shift", 30), "17:00:00", 30, overtime.MethodExtraHoursOnly, "6"},
		{"late", factory.LateShiftJSON("late", "Late Shift", 15), "22:00:00", 15, overtime.MethodExtraHoursOnly, "6"},
		{"weekend", factory.WeekendCrewShiftJSON("wknd", "Weekend Crew", 0, 4.5), "15:00:00", 0, overtime.MethodExtraHoursPlusCompOff, "4.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, err := f.ParseShift(tt.json)
			require.NoError(t, err)
			require.NotNil(t, st.EndTime)
			assert.Equal(t, tt.end, st.EndTime.String())
			assert.Equal(t, tt.allowance, st.AllowanceMinutes)
			assert.Equal(t, tt.sunday, st.SundayMethod)
			assert.Equal(t, tt.minCompOff, st.MinHoursCompOff.String())
		})
	}
}

func TestParseShift_Defaults(t *testing.T) {
	// GIVEN: A shift without end time and with an unknown holiday method
	// WHEN: Parsing it
	// THEN: EndTime stays nil and the method falls back to Extra Hours Only
	st, err := factory.NewShiftFactory().ParseShift(`{"id":"flex","holiday_method":"Double Everything"}`)
	require.NoError(t, err)

	assert.Nil(t, st.EndTime)
	assert.Equal(t, "flex", st.Name)
	assert.Equal(t, overtime.MethodExtraHoursOnly, st.HolidayMethod)
	assert.Equal(t, overtime.MethodExtraHoursOnly, st.SundayMethod)
}

func TestParseShift_Errors(t *testing.T) {
	f := factory.NewShiftFactory()

	tests := []struct {
		name string
		json string
	}{
		{"malformed", `{"id":`},
		{"missing id", `{"name":"x"}`},
		{"negative allowance", `{"id":"x","allowance_minutes":-5}`},
		{"bad end time", `{"id":"x","end_time":"5pm"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.ParseShift(tt.json)
			assert.Error(t, err)
		})
	}
}

func TestShiftJSON_RoundTrip(t *testing.T) {
	f := factory.NewShiftFactory()
	st, err := f.ParseShift(factory.WeekendCrewShiftJSON("wknd", "Weekend Crew", 10, 6))
	require.NoError(t, err)

	back, err := f.FromJSON(f.ToJSON(*st))
	require.NoError(t, err)
	assert.Equal(t, st.EndTime.String(), back.EndTime.String())
	assert.Equal(t, st.HolidayMethod, back.HolidayMethod)
	assert.True(t, st.MinHoursCompOff.Equal(back.MinHoursCompOff))
}
