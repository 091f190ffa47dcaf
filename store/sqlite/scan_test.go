package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/overtime-engine/generic"
	"github.com/warp/overtime-engine/overtime"
)

func TestScan_MalformedDecimalIsAnError(t *testing.T) {
	store, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	ctx := context.Background()
	asOf := generic.NewTimePoint(2025, time.March, 4)

	t.Run("pay rate", func(t *testing.T) {
		// GIVEN: A base salary written by hand with a thousands separator
		_, err := store.db.ExecContext(ctx, `
			INSERT INTO pay_rate_assignments (id, employee_id, effective_from, base_salary, hourly_rate, confirmed, created_at)
			VALUES ('PR-1', 'EMP-001', '2025-01-01', '45,000', NULL, 1, '2025-01-01 00:00:00')
		`)
		require.NoError(t, err)

		// THEN: Reading it fails instead of yielding a zero salary
		rate, err := store.LatestPayRate(ctx, "EMP-001", asOf)
		assert.Error(t, err)
		assert.Nil(t, rate)
	})

	t.Run("nullable rate", func(t *testing.T) {
		_, err := store.db.ExecContext(ctx, `
			INSERT INTO pay_rate_assignments (id, employee_id, effective_from, base_salary, hourly_rate, confirmed, created_at)
			VALUES ('PR-2', 'EMP-002', '2025-01-01', '45000', NULL, 1, '2025-01-01 00:00:00')
		`)
		require.NoError(t, err)

		rate, err := store.LatestPayRate(ctx, "EMP-002", asOf)
		require.NoError(t, err)
		require.NotNil(t, rate)
		assert.Equal(t, "45000", rate.BaseSalary.String())
		assert.Nil(t, rate.HourlyRate)
	})

	t.Run("settings", func(t *testing.T) {
		require.NoError(t, store.SaveSettings(ctx, overtime.DefaultSettings()))
		_, err := store.db.ExecContext(ctx, `UPDATE hr_settings SET weekday_overtime_multiplier = 'one and a half' WHERE id = 1`)
		require.NoError(t, err)

		st, err := store.GetSettings(ctx)
		assert.Error(t, err)
		assert.Nil(t, st)
	})
}
