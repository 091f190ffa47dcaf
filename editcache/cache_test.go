package editcache_test

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/overtime-engine/editcache"
)

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func newCache(t *testing.T) (*editcache.Cache, *clock) {
	t.Helper()
	clk := &clock{now: time.Date(2025, time.March, 4, 9, 0, 0, 0, time.UTC)}
	c := editcache.New(0, slog.New(slog.NewTextHandler(io.Discard, nil)))
	c.Now = clk.Now
	return c, clk
}

func hours(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestCache_SaveGetAll(t *testing.T) {
	c, _ := newCache(t)

	assert.Equal(t, 1, c.Save("ops", "ATT-1", hours("1.5")))
	assert.Equal(t, 2, c.Save("ops", "ATT-2", hours("2")))
	assert.Equal(t, 2, c.Save("ops", "ATT-1", hours("1.75")), "saving again replaces the edit")
	c.Save("other", "ATT-1", hours("9"))

	e, ok := c.Get("ops", "ATT-1")
	require.True(t, ok)
	assert.Equal(t, "1.75", e.ApprovedHours.String())
	assert.Equal(t, "ops", e.EditedBy)

	all := c.All("ops")
	assert.Len(t, all, 2)

	_, ok = c.Get("ops", "ATT-9")
	assert.False(t, ok)
	assert.Equal(t, 2, c.Users())
}

func TestCache_DeleteClearMarkApplied(t *testing.T) {
	c, _ := newCache(t)
	for _, id := range []string{"ATT-1", "ATT-2", "ATT-3"} {
		c.Save("ops", id, hours("1"))
	}

	deleted, remaining := c.Delete("ops", "ATT-1")
	assert.True(t, deleted)
	assert.Equal(t, 2, remaining)

	deleted, _ = c.Delete("ops", "ATT-1")
	assert.False(t, deleted)

	res := c.MarkApplied("ops", []string{"ATT-2", "ATT-MISSING"})
	assert.Equal(t, editcache.ApplyResult{Removed: 1, Remaining: 1}, res)

	res = c.MarkApplied("ops", []string{"ATT-3"})
	assert.Equal(t, editcache.ApplyResult{Removed: 1, Remaining: 0}, res)
	assert.Equal(t, 0, c.Users(), "empty bucket is dropped")

	c.Save("ops", "ATT-4", hours("1"))
	c.Save("ops", "ATT-5", hours("1"))
	assert.Equal(t, 2, c.Clear("ops"))
	assert.Equal(t, 0, c.Clear("ops"))
}

func TestCache_ExpiryAndInfo(t *testing.T) {
	// GIVEN: An edit saved at 09:00 and a second one two hours later
	// WHEN: Reading info and advancing past the TTL
	// THEN: The TTL counts from the last save and the bucket then disappears
	c, clk := newCache(t)
	c.Save("ops", "ATT-1", hours("1"))

	clk.now = clk.now.Add(2 * time.Hour)
	c.Save("ops", "ATT-2", hours("1"))

	clk.now = clk.now.Add(30 * time.Minute)
	info := c.Info("ops")
	assert.Equal(t, 2, info.EditCount)
	assert.Equal(t, int64(23*3600+30*60), info.TTLSeconds)
	assert.Equal(t, "23.5", info.TTLHours.String())

	clk.now = clk.now.Add(23*time.Hour + 30*time.Minute)
	assert.Empty(t, c.All("ops"))
	assert.Equal(t, 0, c.Info("ops").EditCount)
}

func TestCache_Sweep(t *testing.T) {
	c, clk := newCache(t)
	c.Save("early", "ATT-1", hours("1"))
	clk.now = clk.now.Add(12 * time.Hour)
	c.Save("late", "ATT-2", hours("1"))

	clk.now = clk.now.Add(12 * time.Hour)
	assert.Equal(t, 1, c.Sweep())
	assert.Equal(t, 1, c.Users())
	assert.Equal(t, editcache.DefaultTTL, c.TTL())
}
