/*
Package sqlite provides a SQLite-backed implementation of the host store.

PURPOSE:
  Implements overtime.Store (attendance, employees, shifts, pay rates,
  holidays, check-ins, approval artifacts, report candidates) plus the record
  management used by the HTTP API and the demo scenarios. In production the
  same patterns apply to PostgreSQL with minor dialect differences.

KEY TABLES:
  attendance:           One row per employee-day, clock-in/out, worked hours
  checkins:             Raw IN/OUT device events, rewritten on reset
  employees:            Overtime eligibility and default shift
  shift_types:          End time, allowance, holiday/Sunday methods
  shift_assignments:    Employee -> shift from a start date
  pay_rate_assignments: Base salary and (optional) hourly rate
  holidays:             Company-specific and global holidays
  salary_components:    Components artifacts may reference
  overtime_artifacts:   Approved overtime (payroll adjustment lines)
  hr_settings:          HR configuration singleton

UNIQUENESS:
  idx_unique_overtime_artifact is a partial unique index on
  overtime_artifacts(employee_id, effective_date) for live overtime rows.
  A violation is reported as generic.ErrDuplicateArtifact.

MIGRATIONS:
  Versioned SQL files in migrations/ are embedded and applied with
  golang-migrate on New(). `server migrate` runs them explicitly.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety and a single connection so that
  ":memory:" databases are shared by every query.

USAGE:
  store, err := sqlite.New("./data/overtime.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - overtime/store.go: Interface definitions
  - store/memory: In-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/overtime-engine/generic"
	"github.com/warp/overtime-engine/overtime"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store implements overtime.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ overtime.Store = (*Store)(nil)

// New opens the database at dbPath and applies pending migrations.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	store, err := Open(dbPath)
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(); err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Open opens the database without running migrations.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// =============================================================================
// MIGRATIONS
// =============================================================================

// MigrationStatus describes the schema version of the database.
type MigrationStatus struct {
	CurrentVersion uint
	LatestVersion  uint
	Dirty          bool
	Pending        bool
}

// Migrate applies all pending up migrations.
func (s *Store) Migrate() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.migrator()
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// MigrateDown rolls back every migration.
func (s *Store) MigrateDown() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.migrator()
	if err != nil {
		return err
	}
	if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// MigrationStatus reports the current and latest schema versions.
func (s *Store) MigrationStatus() (*MigrationStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.migrator()
	if err != nil {
		return nil, err
	}
	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return nil, err
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, err
	}
	var latest uint
	if first, err := source.First(); err == nil {
		latest = first
		for {
			next, err := source.Next(latest)
			if err != nil {
				break
			}
			latest = next
		}
	}

	return &MigrationStatus{
		CurrentVersion: version,
		LatestVersion:  latest,
		Dirty:          dirty,
		Pending:        version < latest,
	}, nil
}

// migrator builds a migrate instance over the open connection. It is never
// closed: closing it would close s.db.
func (s *Store) migrator() (*migrate.Migrate, error) {
	driver, err := migratesqlite.WithInstance(s.db, &migratesqlite.Config{})
	if err != nil {
		return nil, err
	}
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, err
	}
	return migrate.NewWithInstance("iofs", source, "sqlite3", driver)
}

// =============================================================================
// HR SETTINGS
// =============================================================================

// GetSettings returns the stored HR configuration, or nil when none was saved.
func (s *Store) GetSettings(ctx context.Context) (*overtime.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var st overtime.Settings
	err := s.db.QueryRowContext(ctx, `
		SELECT enable_overtime_tracking, standard_hours_per_month, weekday_overtime_multiplier,
		       holiday_overtime_multiplier, sunday_overtime_multiplier, overtime_variance_seconds,
		       weekday_overtime_component, holiday_overtime_component
		FROM hr_settings WHERE id = 1
	`).Scan(&st.Enabled, &st.StandardHoursPerMonth, &st.WeekdayMultiplier, &st.HolidayMultiplier,
		&st.SundayMultiplier, &st.VarianceBaseSeconds,
		&st.WeekdayComponent, &st.HolidayComponent)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// SaveSettings upserts the HR configuration singleton.
func (s *Store) SaveSettings(ctx context.Context, st overtime.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO hr_settings (id, enable_overtime_tracking, standard_hours_per_month,
			weekday_overtime_multiplier, holiday_overtime_multiplier, sunday_overtime_multiplier,
			overtime_variance_seconds, weekday_overtime_component, holiday_overtime_component, updated_at)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			enable_overtime_tracking = excluded.enable_overtime_tracking,
			standard_hours_per_month = excluded.standard_hours_per_month,
			weekday_overtime_multiplier = excluded.weekday_overtime_multiplier,
			holiday_overtime_multiplier = excluded.holiday_overtime_multiplier,
			sunday_overtime_multiplier = excluded.sunday_overtime_multiplier,
			overtime_variance_seconds = excluded.overtime_variance_seconds,
			weekday_overtime_component = excluded.weekday_overtime_component,
			holiday_overtime_component = excluded.holiday_overtime_component,
			updated_at = excluded.updated_at
	`,
		st.Enabled,
		st.StandardHoursPerMonth.String(),
		st.WeekdayMultiplier.String(),
		st.HolidayMultiplier.String(),
		st.SundayMultiplier.String(),
		st.VarianceBaseSeconds,
		st.WeekdayComponent,
		st.HolidayComponent,
		now(),
	)
	return err
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{
		"overtime_artifacts", "checkins", "attendance", "pay_rate_assignments",
		"shift_assignments", "holidays", "employees", "shift_types", "salary_components",
	}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

// Helper functions

func now() string { return time.Now().UTC().Format(time.RFC3339) }

func formatTime(t time.Time) string { return t.Format(generic.DateTimeLayout) }

func parseTime(s string) time.Time {
	t, _ := generic.ParseDateTime(s)
	return t
}

func parseDate(s string) generic.TimePoint {
	tp, _ := generic.ParseDate(s)
	return tp
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func nullDecimal(d *decimal.Decimal) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func timePtr(ns sql.NullString) *time.Time {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	t := parseTime(ns.String)
	return &t
}

func decimalPtr(nd decimal.NullDecimal) *decimal.Decimal {
	if !nd.Valid {
		return nil
	}
	return &nd.Decimal
}

func isUniqueConstraintError(err error) bool {
	var se sqlite3.Error
	return errors.As(err, &se) &&
		(se.ExtendedCode == sqlite3.ErrConstraintUnique || se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey)
}
