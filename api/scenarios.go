/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	data for demos of the overtime review flow. Each scenario creates salary
	components, shifts, employees, pay rates, holidays, attendance and the
	matching IN/OUT check-ins.

AVAILABLE SCENARIOS:

	weekday-overtime: One employee, a week of day-shift attendance
	holiday-sunday:   Holiday and Sunday work on a comp-off shift
	batch-review:     Several employees, an ineligible one, a missing pay
	                  rate and an already approved day

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Create salary components and shifts via the factory
 3. Create employees, shift assignments and pay rates
 4. Add attendance days with check-ins

	Attendance falls in the week starting on the first Monday of the current
	month, so the default report period shows it.

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "batch-review"}

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: Record endpoints
  - factory/shift.go: Shift JSON presets
*/
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/overtime-engine/factory"
	"github.com/warp/overtime-engine/generic"
	"github.com/warp/overtime-engine/overtime"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "weekday-overtime",
		Name:        "Weekday Overtime",
		Description: "Day shift with a 30 minute allowance; some days inside it, some past it",
		Category:    "overtime",
	},
	{
		ID:          "holiday-sunday",
		Name:        "Holiday & Sunday Work",
		Description: "Weekend crew shift paying all holiday hours with a comp-off day",
		Category:    "overtime",
	},
	{
		ID:          "batch-review",
		Name:        "Batch Review",
		Description: "Mixed eligibility, a missing pay rate and an already approved day",
		Category:    "approval",
	},
}

type scenarioLoader func(h *Handler, ctx context.Context, week generic.TimePoint) error

var scenarioLoaders = map[string]scenarioLoader{
	"weekday-overtime": (*Handler).loadWeekdayOvertimeScenario,
	"holiday-sunday":   (*Handler).loadHolidaySundayScenario,
	"batch-review":     (*Handler).loadBatchReviewScenario,
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	current := h.currentScenario
	h.mu.RUnlock()

	if current == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, ScenarioDTO{ID: current, Name: current})
}

// LoadScenario resets the database and loads a predefined scenario.
// POST /api/scenarios/load
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	load, ok := scenarioLoaders[req.ScenarioID]
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	ctx := r.Context()
	if err := h.reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	if err := load(h, ctx, scenarioWeek(time.Now())); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}

	h.mu.Lock()
	h.currentScenario = req.ScenarioID
	h.mu.Unlock()

	h.Logger.Info("scenario loaded", "scenario", req.ScenarioID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// ResetDatabase clears all data and the edit cache.
// POST /api/scenarios/reset
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) reset(ctx context.Context) error {
	if err := h.Store.Reset(ctx); err != nil {
		return err
	}
	h.Edits.Reset()

	h.mu.Lock()
	h.currentScenario = ""
	h.mu.Unlock()
	return nil
}

// scenarioWeek is the first Monday of now's month.
func scenarioWeek(now time.Time) generic.TimePoint {
	first := generic.NewTimePoint(now.Year(), now.Month(), 1)
	offset := (int(time.Monday) - int(first.Weekday()) + 7) % 7
	return first.AddDays(offset)
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

const demoCompany = "ACME"

func (h *Handler) loadWeekdayOvertimeScenario(ctx context.Context, week generic.TimePoint) error {
	if err := h.seedComponents(ctx); err != nil {
		return err
	}
	if err := h.seedShift(ctx, factory.DayShiftJSON("day", "Day Shift", 30)); err != nil {
		return err
	}

	emp := overtime.EmployeeProfile{
		EmployeeID:     "EMP-001",
		Name:           "Amina Otieno",
		Department:     "Operations",
		CompanyID:      demoCompany,
		Eligible:       true,
		DefaultShiftID: "day",
	}
	if err := h.seedEmployee(ctx, emp, "day", week.AddDays(-30), "45000"); err != nil {
		return err
	}

	days := []demoDay{
		{offset: 0, in: "08:00", out: "16:20"}, // inside the allowance
		{offset: 1, in: "08:00", out: "18:30"}, // 2.0 h
		{offset: 2, in: "09:00", out: "20:00"}, // 2.5 h
		{offset: 3, in: "08:30", out: "17:00"},
		{offset: 4, in: "08:00"}, // still clocked in
	}
	return h.seedDays(ctx, emp, week, days)
}

func (h *Handler) loadHolidaySundayScenario(ctx context.Context, week generic.TimePoint) error {
	if err := h.seedComponents(ctx); err != nil {
		return err
	}
	if err := h.seedShift(ctx, factory.WeekendCrewShiftJSON("weekend", "Weekend Crew", 0, 6)); err != nil {
		return err
	}

	holidays := []generic.Holiday{
		{ID: "HOL-FOUNDERS", CompanyID: demoCompany, Date: week.AddDays(2), Name: "Founders Day"},
		{ID: "HOL-NEW-YEAR", Date: generic.NewTimePoint(week.Time.Year(), time.January, 1), Name: "New Year's Day", Recurring: true},
	}
	for _, hol := range holidays {
		if err := h.Store.SaveHoliday(ctx, hol); err != nil {
			return err
		}
	}

	emp := overtime.EmployeeProfile{
		EmployeeID: "EMP-002",
		Name:       "Baraka Mwangi",
		Department: "Logistics",
		CompanyID:  demoCompany,
		Eligible:   true,
	}
	if err := h.seedEmployee(ctx, emp, "weekend", week.AddDays(-7), "56250"); err != nil {
		return err
	}

	days := []demoDay{
		{offset: 1, in: "07:00", out: "16:00"}, // 1.0 h weekday
		{offset: 2, in: "07:00", out: "17:00"}, // holiday, comp-off
		{offset: 6, in: "07:00", out: "16:30"}, // Sunday
	}
	return h.seedDays(ctx, emp, week, days)
}

func (h *Handler) loadBatchReviewScenario(ctx context.Context, week generic.TimePoint) error {
	if err := h.seedComponents(ctx); err != nil {
		return err
	}
	if err := h.seedShift(ctx, factory.DayShiftJSON("day", "Day Shift", 30)); err != nil {
		return err
	}

	team := []struct {
		emp  overtime.EmployeeProfile
		base string // empty = no pay rate
	}{
		{overtime.EmployeeProfile{EmployeeID: "EMP-010", Name: "Chen Wei", Department: "Finance", CompanyID: demoCompany, Eligible: true}, "36000"},
		{overtime.EmployeeProfile{EmployeeID: "EMP-011", Name: "Dana Kowalski", Department: "Finance", CompanyID: demoCompany}, "40500"},
		{overtime.EmployeeProfile{EmployeeID: "EMP-012", Name: "Emeka Obi", Department: "Support", CompanyID: demoCompany, Eligible: true}, ""},
	}
	for _, m := range team {
		if err := h.seedEmployee(ctx, m.emp, "day", week.AddDays(-30), m.base); err != nil {
			return err
		}
		days := []demoDay{
			{offset: 0, in: "08:00", out: "18:00"},
			{offset: 1, in: "08:00", out: "19:00"},
		}
		if err := h.seedDays(ctx, m.emp, week, days); err != nil {
			return err
		}
	}

	// Monday of the first employee is already approved.
	_, err := h.processor().Approve(ctx, overtime.BatchItem{AttendanceID: attendanceID("EMP-010", week)})
	return err
}

// =============================================================================
// SEED HELPERS
// =============================================================================

type demoDay struct {
	offset  int
	in, out string // "15:04"; empty out = not checked out
}

func attendanceID(employeeID string, date generic.TimePoint) string {
	return fmt.Sprintf("ATT-%s-%s", employeeID, date)
}

func (h *Handler) seedComponents(ctx context.Context) error {
	settings := h.Settings()
	for _, name := range []string{settings.WeekdayComponent, settings.HolidayComponent} {
		if name == "" {
			continue
		}
		c := overtime.SalaryComponent{Name: name, Type: "Earning", IsOvertime: true, Description: "Overtime earnings"}
		if err := h.Store.SaveComponent(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) seedShift(ctx context.Context, def string) error {
	st, err := h.ShiftFactory.ParseShift(def)
	if err != nil {
		return err
	}
	return h.Store.SaveShiftType(ctx, *st)
}

func (h *Handler) seedEmployee(ctx context.Context, emp overtime.EmployeeProfile, shiftID string, from generic.TimePoint, base string) error {
	if err := h.Store.SaveEmployee(ctx, emp); err != nil {
		return err
	}
	err := h.Store.SaveShiftAssignment(ctx, overtime.ShiftAssignment{
		ID:         "SA-" + emp.EmployeeID,
		EmployeeID: emp.EmployeeID,
		ShiftID:    shiftID,
		StartDate:  from,
		Confirmed:  true,
	})
	if err != nil || base == "" {
		return err
	}

	rate := overtime.PayRateAssignment{
		ID:            "PR-" + emp.EmployeeID,
		EmployeeID:    emp.EmployeeID,
		EffectiveFrom: from,
		BaseSalary:    decimal.RequireFromString(base),
		Confirmed:     true,
	}
	return h.Store.SavePayRate(ctx, rate.WithDerivedRate(h.Settings().StandardHoursPerMonth))
}

func (h *Handler) seedDays(ctx context.Context, emp overtime.EmployeeProfile, week generic.TimePoint, days []demoDay) error {
	for _, d := range days {
		date := week.AddDays(d.offset)
		in, err := clockOn(date, d.in)
		if err != nil {
			return err
		}
		att := overtime.AttendanceRecord{
			ID:         attendanceID(emp.EmployeeID, date),
			EmployeeID: emp.EmployeeID,
			CompanyID:  emp.CompanyID,
			Date:       date,
			ClockIn:    in,
			Status:     overtime.AttendancePresent,
		}
		events := []overtime.Checkin{{
			ID: att.ID + "-IN", EmployeeID: emp.EmployeeID, AttendanceID: att.ID, LogType: overtime.LogIn, Time: in,
		}}
		if d.out != "" {
			out, err := clockOn(date, d.out)
			if err != nil {
				return err
			}
			att.ClockOut = &out
			events = append(events, overtime.Checkin{
				ID: att.ID + "-OUT", EmployeeID: emp.EmployeeID, AttendanceID: att.ID, LogType: overtime.LogOut, Time: out,
			})
		}

		if err := h.Store.SaveAttendance(ctx, att); err != nil {
			return err
		}
		for _, c := range events {
			if err := h.Store.SaveCheckin(ctx, c); err != nil {
				return err
			}
		}
	}
	return nil
}

func clockOn(date generic.TimePoint, hhmm string) (time.Time, error) {
	tod, err := generic.ParseTimeOfDay(hhmm)
	if err != nil {
		return time.Time{}, err
	}
	return date.At(tod), nil
}
