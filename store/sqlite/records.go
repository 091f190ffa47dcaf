package sqlite

import (
	"context"
	"database/sql"

	"github.com/shopspring/decimal"
	"github.com/warp/overtime-engine/generic"
	"github.com/warp/overtime-engine/overtime"
)

// =============================================================================
// EMPLOYEES
// =============================================================================

// SaveEmployee upserts an employee's overtime profile.
func (s *Store) SaveEmployee(ctx context.Context, e overtime.EmployeeProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO employees (id, name, department, company_id, eligible_for_overtime, default_shift_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			department = excluded.department,
			company_id = excluded.company_id,
			eligible_for_overtime = excluded.eligible_for_overtime,
			default_shift_id = excluded.default_shift_id
	`, e.EmployeeID, e.Name, e.Department, e.CompanyID, e.Eligible, nullString(e.DefaultShiftID), now())
	return err
}

// GetEmployeeProfile retrieves an employee by ID.
func (s *Store) GetEmployeeProfile(ctx context.Context, employeeID string) (*overtime.EmployeeProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, err := scanEmployee(s.db.QueryRowContext(ctx, `
		SELECT id, name, department, company_id, eligible_for_overtime, default_shift_id
		FROM employees WHERE id = ?
	`, employeeID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// ListEmployees returns all employees ordered by name.
func (s *Store) ListEmployees(ctx context.Context) ([]overtime.EmployeeProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, department, company_id, eligible_for_overtime, default_shift_id
		FROM employees ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var employees []overtime.EmployeeProfile
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, e)
	}
	return employees, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEmployee(row scanner) (overtime.EmployeeProfile, error) {
	var (
		e     overtime.EmployeeProfile
		shift sql.NullString
	)
	err := row.Scan(&e.EmployeeID, &e.Name, &e.Department, &e.CompanyID, &e.Eligible, &shift)
	e.DefaultShiftID = shift.String
	return e, err
}

// =============================================================================
// SHIFTS
// =============================================================================

// SaveShiftType upserts a shift definition.
func (s *Store) SaveShiftType(ctx context.Context, st overtime.ShiftType) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	minCompOff := st.MinHoursCompOff
	if !minCompOff.IsPositive() {
		minCompOff = overtime.DefaultMinHoursCompOff
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO shift_types (id, name, start_time, end_time, allowance_minutes,
			holiday_method, sunday_method, min_hours_comp_off, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			start_time = excluded.start_time,
			end_time = excluded.end_time,
			allowance_minutes = excluded.allowance_minutes,
			holiday_method = excluded.holiday_method,
			sunday_method = excluded.sunday_method,
			min_hours_comp_off = excluded.min_hours_comp_off
	`,
		st.ID, st.Name,
		nullTimeOfDay(st.StartTime), nullTimeOfDay(st.EndTime),
		st.AllowanceMinutes,
		string(methodOrDefault(st.HolidayMethod)), string(methodOrDefault(st.SundayMethod)),
		minCompOff.String(),
		now(),
	)
	return err
}

// GetShiftType retrieves a shift definition by ID.
func (s *Store) GetShiftType(ctx context.Context, shiftID string) (*overtime.ShiftType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, err := scanShiftType(s.db.QueryRowContext(ctx, `
		SELECT id, name, start_time, end_time, allowance_minutes, holiday_method, sunday_method, min_hours_comp_off
		FROM shift_types WHERE id = ?
	`, shiftID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// ListShiftTypes returns all shift definitions ordered by name.
func (s *Store) ListShiftTypes(ctx context.Context) ([]overtime.ShiftType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, start_time, end_time, allowance_minutes, holiday_method, sunday_method, min_hours_comp_off
		FROM shift_types ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var shifts []overtime.ShiftType
	for rows.Next() {
		st, err := scanShiftType(rows)
		if err != nil {
			return nil, err
		}
		shifts = append(shifts, st)
	}
	return shifts, rows.Err()
}

func scanShiftType(row scanner) (overtime.ShiftType, error) {
	var (
		st              overtime.ShiftType
		start, end      sql.NullString
		holiday, sunday string
	)
	if err := row.Scan(&st.ID, &st.Name, &start, &end, &st.AllowanceMinutes, &holiday, &sunday, &st.MinHoursCompOff); err != nil {
		return st, err
	}
	st.StartTime = timeOfDayPtr(start)
	st.EndTime = timeOfDayPtr(end)
	st.HolidayMethod = overtime.CalculationMethod(holiday)
	st.SundayMethod = overtime.CalculationMethod(sunday)
	return st, nil
}

// SaveShiftAssignment upserts a shift assignment.
func (s *Store) SaveShiftAssignment(ctx context.Context, a overtime.ShiftAssignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO shift_assignments (id, employee_id, shift_id, start_date, confirmed, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			shift_id = excluded.shift_id,
			start_date = excluded.start_date,
			confirmed = excluded.confirmed
	`, a.ID, a.EmployeeID, a.ShiftID, a.StartDate.String(), a.Confirmed, now())
	return err
}

// LatestShiftAssignment returns the most recent confirmed assignment as of asOf.
func (s *Store) LatestShiftAssignment(ctx context.Context, employeeID string, asOf generic.TimePoint) (*overtime.ShiftAssignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		a     overtime.ShiftAssignment
		start string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, employee_id, shift_id, start_date, confirmed
		FROM shift_assignments
		WHERE employee_id = ? AND confirmed = 1 AND start_date <= ?
		ORDER BY start_date DESC, created_at DESC
		LIMIT 1
	`, employeeID, asOf.String()).Scan(&a.ID, &a.EmployeeID, &a.ShiftID, &start, &a.Confirmed)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	a.StartDate = parseDate(start)
	return &a, nil
}

// =============================================================================
// PAY RATES
// =============================================================================

// SavePayRate upserts a pay-rate assignment. Callers derive a missing hourly
// rate first (see overtime.PayRateAssignment.WithDerivedRate).
func (s *Store) SavePayRate(ctx context.Context, a overtime.PayRateAssignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO pay_rate_assignments (id, employee_id, effective_from, base_salary, hourly_rate, confirmed, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			effective_from = excluded.effective_from,
			base_salary = excluded.base_salary,
			hourly_rate = excluded.hourly_rate,
			confirmed = excluded.confirmed
	`, a.ID, a.EmployeeID, a.EffectiveFrom.String(), a.BaseSalary.String(), nullDecimal(a.HourlyRate), a.Confirmed, now())
	return err
}

// LatestPayRate returns the most recent confirmed assignment as of asOf.
func (s *Store) LatestPayRate(ctx context.Context, employeeID string, asOf generic.TimePoint) (*overtime.PayRateAssignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		a    overtime.PayRateAssignment
		from string
		rate decimal.NullDecimal
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, employee_id, effective_from, base_salary, hourly_rate, confirmed
		FROM pay_rate_assignments
		WHERE employee_id = ? AND confirmed = 1 AND effective_from <= ?
		ORDER BY effective_from DESC, created_at DESC
		LIMIT 1
	`, employeeID, asOf.String()).Scan(&a.ID, &a.EmployeeID, &from, &a.BaseSalary, &rate, &a.Confirmed)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	a.EffectiveFrom = parseDate(from)
	a.HourlyRate = decimalPtr(rate)
	return &a, nil
}

// =============================================================================
// HOLIDAY CALENDAR IMPLEMENTATION
// =============================================================================

// SaveHoliday saves a holiday to the database.
func (s *Store) SaveHoliday(ctx context.Context, h generic.Holiday) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO holidays (id, company_id, date, name, recurring, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(company_id, date, name) DO UPDATE SET
			recurring = excluded.recurring
	`, h.ID, h.CompanyID, h.Date.String(), h.Name, h.Recurring, now())
	return err
}

// DeleteHoliday deletes a holiday by ID.
func (s *Store) DeleteHoliday(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM holidays WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return generic.ErrNotFound
	}
	return nil
}

// IsHoliday checks company-specific holidays first, then global holidays.
func (s *Store) IsHoliday(ctx context.Context, companyID string, date generic.TimePoint) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM holidays
		WHERE (company_id = ? OR company_id = '')
		  AND (
			(recurring = FALSE AND date = ?)
			OR (recurring = TRUE AND strftime('%m-%d', date) = ?)
		  )
	`, companyID, date.String(), date.Time.Format("01-02")).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListHolidays returns the holidays visible to a company (all when companyID
// is empty).
func (s *Store) ListHolidays(ctx context.Context, companyID string) ([]generic.Holiday, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, company_id, date, name, recurring
		FROM holidays
		WHERE ? = '' OR company_id = ? OR company_id = ''
		ORDER BY date ASC
	`, companyID, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var holidays []generic.Holiday
	for rows.Next() {
		var (
			h       generic.Holiday
			dateStr string
		)
		if err := rows.Scan(&h.ID, &h.CompanyID, &dateStr, &h.Name, &h.Recurring); err != nil {
			return nil, err
		}
		h.Date = parseDate(dateStr)
		holidays = append(holidays, h)
	}
	return holidays, rows.Err()
}

// =============================================================================
// SALARY COMPONENTS
// =============================================================================

// SaveComponent upserts a salary component.
func (s *Store) SaveComponent(ctx context.Context, c overtime.SalaryComponent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO salary_components (name, abbr, component_type, description, is_overtime)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			abbr = excluded.abbr,
			component_type = excluded.component_type,
			description = excluded.description,
			is_overtime = excluded.is_overtime
	`, c.Name, c.Abbr, c.Type, c.Description, c.IsOvertime)
	return err
}

// ComponentExists reports whether a salary component record exists.
func (s *Store) ComponentExists(ctx context.Context, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM salary_components WHERE name = ?", name).Scan(&count)
	return count > 0, err
}

// ListComponents returns all salary components.
func (s *Store) ListComponents(ctx context.Context) ([]overtime.SalaryComponent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT name, abbr, component_type, description, is_overtime FROM salary_components ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []overtime.SalaryComponent
	for rows.Next() {
		var c overtime.SalaryComponent
		if err := rows.Scan(&c.Name, &c.Abbr, &c.Type, &c.Description, &c.IsOvertime); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Helper functions

func methodOrDefault(m overtime.CalculationMethod) overtime.CalculationMethod {
	if m.Valid() {
		return m
	}
	return overtime.MethodExtraHoursOnly
}

func nullTimeOfDay(t *generic.TimeOfDay) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.String(), Valid: true}
}

func timeOfDayPtr(ns sql.NullString) *generic.TimeOfDay {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	t, err := generic.ParseTimeOfDay(ns.String)
	if err != nil {
		return nil
	}
	return &t
}
