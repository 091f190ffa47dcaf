package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/warp/overtime-engine/generic"
	"github.com/warp/overtime-engine/overtime"
)

// =============================================================================
// APPROVAL ARTIFACTS
// =============================================================================

const artifactColumns = `id, employee_id, company_id, component_ref, amount, effective_date,
	overtime_hours, overtime_type, source_attendance_id, is_overtime, status, created_at`

// FindOvertimeArtifact returns the non-voided overtime artifact for
// (employee, date), or nil.
func (s *Store) FindOvertimeArtifact(ctx context.Context, employeeID string, date generic.TimePoint) (*overtime.ApprovalArtifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return queryArtifact(s.db.QueryRowContext(ctx, `
		SELECT `+artifactColumns+` FROM overtime_artifacts
		WHERE employee_id = ? AND effective_date = ? AND is_overtime = 1 AND status != 'voided'
		LIMIT 1
	`, employeeID, date.String()))
}

// CreateArtifact inserts an artifact. The partial unique index rejects a second
// live overtime artifact for the same employee and day.
func (s *Store) CreateArtifact(ctx context.Context, a overtime.ApprovalArtifact) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := a.Status
	if status == "" {
		status = overtime.ArtifactDraft
	}
	createdAt := a.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO overtime_artifacts (`+artifactColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		a.ID, a.EmployeeID, a.CompanyID, a.ComponentRef,
		generic.Round2(a.Amount).StringFixed(2), a.EffectiveDate.String(),
		generic.Round2(a.OvertimeHours).StringFixed(2), string(a.OvertimeType),
		a.SourceAttendanceID, a.IsOvertime, string(status), formatTime(createdAt),
	)
	if isUniqueConstraintError(err) {
		return generic.ErrDuplicateArtifact
	}
	return err
}

// FinalizeArtifact moves a draft artifact to submitted.
func (s *Store) FinalizeArtifact(ctx context.Context, id string) error {
	return s.setArtifactStatus(ctx, id, overtime.ArtifactSubmitted)
}

// VoidArtifact marks an artifact voided, releasing its (employee, date) slot.
func (s *Store) VoidArtifact(ctx context.Context, id string) error {
	return s.setArtifactStatus(ctx, id, overtime.ArtifactVoided)
}

func (s *Store) setArtifactStatus(ctx context.Context, id string, status overtime.ArtifactStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "UPDATE overtime_artifacts SET status = ? WHERE id = ?", string(status), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return generic.ErrNotFound
	}
	return nil
}

// GetArtifact retrieves an artifact by ID.
func (s *Store) GetArtifact(ctx context.Context, id string) (*overtime.ApprovalArtifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return queryArtifact(s.db.QueryRowContext(ctx,
		"SELECT "+artifactColumns+" FROM overtime_artifacts WHERE id = ?", id))
}

// ListArtifacts returns artifacts matching the filter ordered by effective date.
func (s *Store) ListArtifacts(ctx context.Context, f overtime.ArtifactFilter) ([]overtime.ApprovalArtifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	where, args := periodClause("effective_date", f.Period)
	if f.EmployeeID != "" {
		where = append(where, "employee_id = ?")
		args = append(args, f.EmployeeID)
	}
	if !f.IncludeVoided {
		where = append(where, "status != 'voided'")
	}
	if f.OnlySubmitted {
		where = append(where, "status = 'submitted'")
	}
	if f.OvertimeMarked {
		where = append(where, "is_overtime = 1")
	}
	query := "SELECT " + artifactColumns + " FROM overtime_artifacts"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY effective_date ASC, created_at ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []overtime.ApprovalArtifact
	for rows.Next() {
		a, err := scanArtifact(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func queryArtifact(row *sql.Row) (*overtime.ApprovalArtifact, error) {
	a, err := scanArtifact(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func scanArtifact(row scanner) (overtime.ApprovalArtifact, error) {
	var (
		a                 overtime.ApprovalArtifact
		date, otType      string
		status, createdAt string
	)
	err := row.Scan(&a.ID, &a.EmployeeID, &a.CompanyID, &a.ComponentRef, &a.Amount, &date,
		&a.OvertimeHours, &otType, &a.SourceAttendanceID, &a.IsOvertime, &status, &createdAt)
	if err != nil {
		return a, err
	}
	a.EffectiveDate = parseDate(date)
	a.OvertimeType = overtime.OvertimeType(otType)
	a.Status = overtime.ArtifactStatus(status)
	a.CreatedAt = parseTime(createdAt)
	return a, nil
}
