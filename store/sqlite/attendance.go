package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/overtime-engine/generic"
	"github.com/warp/overtime-engine/overtime"
)

// =============================================================================
// ATTENDANCE
// =============================================================================

const attendanceColumns = `a.id, a.employee_id, a.company_id, a.attendance_date, a.status,
	a.in_time, a.out_time, a.working_hours, a.reset_close_time`

// SaveAttendance upserts an attendance record.
func (s *Store) SaveAttendance(ctx context.Context, a overtime.AttendanceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := a.Status
	if status == "" {
		status = overtime.AttendancePresent
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO attendance (id, employee_id, company_id, attendance_date, status,
			in_time, out_time, working_hours, reset_close_time, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			in_time = excluded.in_time,
			out_time = excluded.out_time,
			working_hours = excluded.working_hours
	`,
		a.ID, a.EmployeeID, a.CompanyID, a.Date.String(), string(status),
		formatTime(a.ClockIn), nullTime(a.ClockOut), nullDecimal(a.WorkedHours), nullTime(a.ResetCloseTime),
		now(),
	)
	return err
}

// GetAttendance retrieves an attendance record by ID.
func (s *Store) GetAttendance(ctx context.Context, id string) (*overtime.AttendanceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, err := scanAttendance(s.db.QueryRowContext(ctx,
		"SELECT "+attendanceColumns+" FROM attendance a WHERE a.id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// ListAttendance returns an employee's attendance within a period, newest first.
// An empty employeeID lists every employee.
func (s *Store) ListAttendance(ctx context.Context, employeeID string, period generic.Period) ([]overtime.AttendanceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	where, args := periodClause("a.attendance_date", period)
	if employeeID != "" {
		where = append(where, "a.employee_id = ?")
		args = append(args, employeeID)
	}
	query := "SELECT " + attendanceColumns + " FROM attendance a"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY a.attendance_date DESC, a.id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []overtime.AttendanceRecord
	for rows.Next() {
		a, err := scanAttendance(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, a)
	}
	return records, rows.Err()
}

func scanAttendance(row scanner) (overtime.AttendanceRecord, error) {
	var (
		a                overtime.AttendanceRecord
		date, status, in string
		out, resetCloser sql.NullString
		worked           decimal.NullDecimal
	)
	if err := row.Scan(&a.ID, &a.EmployeeID, &a.CompanyID, &date, &status, &in, &out, &worked, &resetCloser); err != nil {
		return a, err
	}
	a.Date = parseDate(date)
	a.Status = overtime.AttendanceStatus(status)
	a.ClockIn = parseTime(in)
	a.ClockOut = timePtr(out)
	a.WorkedHours = decimalPtr(worked)
	a.ResetCloseTime = timePtr(resetCloser)
	return a, nil
}

// =============================================================================
// REPORT CANDIDATES
// =============================================================================

// ListReportCandidates returns present, checked-out attendance joined with the
// employee, ordered by date desc then employee name.
func (s *Store) ListReportCandidates(ctx context.Context, f overtime.ReportFilter) ([]overtime.ReportCandidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	where, args := periodClause("a.attendance_date", f.Period)
	where = append(where, "a.status = ?", "a.out_time IS NOT NULL")
	args = append(args, string(overtime.AttendancePresent))
	if f.EmployeeID != "" {
		where = append(where, "a.employee_id = ?")
		args = append(args, f.EmployeeID)
	}
	if f.Department != "" {
		where = append(where, "e.department = ?")
		args = append(args, f.Department)
	}
	if f.CompanyID != "" {
		where = append(where, "a.company_id = ?")
		args = append(args, f.CompanyID)
	}
	if f.Eligible != nil {
		where = append(where, "e.eligible_for_overtime = ?")
		args = append(args, *f.Eligible)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+attendanceColumns+`,
		       e.id, e.name, e.department, e.company_id, e.eligible_for_overtime, e.default_shift_id
		FROM attendance a
		JOIN employees e ON e.id = a.employee_id
		WHERE `+strings.Join(where, " AND ")+`
		ORDER BY a.attendance_date DESC, e.name ASC, a.id ASC
	`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []overtime.ReportCandidate
	for rows.Next() {
		var (
			c                overtime.ReportCandidate
			date, status, in string
			outTime, resetCT sql.NullString
			worked           decimal.NullDecimal
			shift            sql.NullString
		)
		err := rows.Scan(
			&c.Attendance.ID, &c.Attendance.EmployeeID, &c.Attendance.CompanyID, &date, &status,
			&in, &outTime, &worked, &resetCT,
			&c.Employee.EmployeeID, &c.Employee.Name, &c.Employee.Department, &c.Employee.CompanyID,
			&c.Employee.Eligible, &shift,
		)
		if err != nil {
			return nil, err
		}
		c.Attendance.Date = parseDate(date)
		c.Attendance.Status = overtime.AttendanceStatus(status)
		c.Attendance.ClockIn = parseTime(in)
		c.Attendance.ClockOut = timePtr(outTime)
		c.Attendance.WorkedHours = decimalPtr(worked)
		c.Attendance.ResetCloseTime = timePtr(resetCT)
		c.Employee.DefaultShiftID = shift.String
		out = append(out, c)
	}
	return out, rows.Err()
}

// =============================================================================
// CHECK-INS
// =============================================================================

const checkinColumns = `id, employee_id, attendance_id, log_type, time, original_time,
	skip_auto_attendance, overtime_reset_reason`

// SaveCheckin upserts a check-in event.
func (s *Store) SaveCheckin(ctx context.Context, c overtime.Checkin) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO checkins (id, employee_id, attendance_id, log_type, time, original_time,
			skip_auto_attendance, overtime_reset_reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			attendance_id = excluded.attendance_id,
			time = excluded.time
	`,
		c.ID, c.EmployeeID, nullString(c.AttendanceID), string(c.LogType), formatTime(c.Time),
		nullTime(c.OriginalTime), c.SkipAutoAttendance, nullString(c.ResetReason), now(),
	)
	return err
}

// GetCheckin retrieves a check-in event by ID.
func (s *Store) GetCheckin(ctx context.Context, id string) (*overtime.Checkin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return queryCheckin(s.db.QueryRowContext(ctx, "SELECT "+checkinColumns+" FROM checkins WHERE id = ?", id))
}

// LatestOutCheckin returns the newest OUT event linked to the attendance.
func (s *Store) LatestOutCheckin(ctx context.Context, attendanceID string) (*overtime.Checkin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return queryCheckin(s.db.QueryRowContext(ctx, `
		SELECT `+checkinColumns+` FROM checkins
		WHERE attendance_id = ? AND log_type = 'OUT'
		ORDER BY time DESC
		LIMIT 1
	`, attendanceID))
}

// LatestOutCheckinOnDay returns the newest OUT event for the employee on the
// calendar day, linked or not.
func (s *Store) LatestOutCheckinOnDay(ctx context.Context, employeeID string, day generic.TimePoint) (*overtime.Checkin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	from, to := dayBounds(day)
	return queryCheckin(s.db.QueryRowContext(ctx, `
		SELECT `+checkinColumns+` FROM checkins
		WHERE employee_id = ? AND log_type = 'OUT' AND time >= ? AND time < ?
		ORDER BY time DESC
		LIMIT 1
	`, employeeID, from, to))
}

func queryCheckin(row *sql.Row) (*overtime.Checkin, error) {
	var (
		c                    overtime.Checkin
		attendanceID, reason sql.NullString
		logType, at          string
		original             sql.NullString
	)
	err := row.Scan(&c.ID, &c.EmployeeID, &attendanceID, &logType, &at, &original, &c.SkipAutoAttendance, &reason)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	c.AttendanceID = attendanceID.String
	c.LogType = overtime.LogType(logType)
	c.Time = parseTime(at)
	c.OriginalTime = timePtr(original)
	c.ResetReason = reason.String
	return &c, nil
}

// ApplyClockOutReset writes the new clock-out to the attendance record and its
// OUT check-in in one transaction. The first pre-reset values are preserved.
func (s *Store) ApplyClockOutReset(ctx context.Context, w overtime.ResetWrite) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	clockOut := formatTime(w.ClockOut)
	res, err := tx.ExecContext(ctx, `
		UPDATE attendance SET
			reset_close_time = COALESCE(reset_close_time, out_time),
			out_time = ?,
			working_hours = ?
		WHERE id = ?
	`, clockOut, generic.Round2(w.WorkedHours).StringFixed(2), w.AttendanceID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return generic.ErrNotFound
	}

	if w.CheckinID != "" {
		_, err := tx.ExecContext(ctx, `
			UPDATE checkins SET
				original_time = COALESCE(original_time, time),
				time = ?,
				skip_auto_attendance = TRUE,
				overtime_reset_reason = ?
			WHERE id = ?
		`, clockOut, nullString(w.Reason), w.CheckinID)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// periodClause builds the WHERE fragments for an inclusive date period on col.
func periodClause(col string, p generic.Period) ([]string, []any) {
	var (
		where []string
		args  []any
	)
	if !p.Start.IsZero() {
		where = append(where, col+" >= ?")
		args = append(args, p.Start.String())
	}
	if !p.End.IsZero() {
		where = append(where, col+" <= ?")
		args = append(args, p.End.String())
	}
	return where, args
}

// dayBounds returns the [start, next day) timestamps of a calendar day.
func dayBounds(day generic.TimePoint) (string, string) {
	start := day.At(0)
	return formatTime(start), formatTime(start.Add(24 * time.Hour))
}
