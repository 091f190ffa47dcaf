package api

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/warp/overtime-engine/editcache"
)

func TestCacheSweeper_RunNowDropsExpiredBuckets(t *testing.T) {
	// GIVEN: Two users' buckets, one of them past its TTL
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cache := editcache.New(time.Hour, logger)
	now := time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC)
	cache.Now = func() time.Time { return now }

	cache.Save("early", "ATT-1", dec("1"))
	now = now.Add(45 * time.Minute)
	cache.Save("late", "ATT-2", dec("2"))
	now = now.Add(30 * time.Minute)

	// WHEN: Sweeping
	sweeper := NewCacheSweeper(cache, logger)
	removed := sweeper.RunNow()

	// THEN: Only the expired bucket is removed
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, cache.Users())
	assert.Empty(t, cache.All("early"))
	assert.Len(t, cache.All("late"), 1)
}

func TestCacheSweeper_StartStop(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sweeper := NewCacheSweeper(editcache.New(0, logger), logger)
	sweeper.CheckInterval = time.Millisecond

	sweeper.Start()
	sweeper.Start()
	time.Sleep(5 * time.Millisecond)
	sweeper.Stop()
	sweeper.Stop()

	// Restart after stop
	sweeper.Start()
	sweeper.Stop()
}

func TestCacheSweeper_Disabled(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sweeper := NewCacheSweeper(editcache.New(0, logger), logger)
	sweeper.Enabled = false

	sweeper.Start()
	assert.Nil(t, sweeper.ticker)
	sweeper.Stop()
}
