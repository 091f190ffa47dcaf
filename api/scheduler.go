/*
scheduler.go - Periodic edit cache sweeper

PURPOSE:
  Expired edit buckets already read as empty, but their memory is only
  released when something touches them. The sweeper drops them periodically
  so abandoned review sessions do not accumulate.

DESIGN:
  - Runs a background goroutine with a configurable check interval
  - Sweeps once immediately on start
  - Stop waits for an in-flight sweep to finish

CONFIGURATION:
  - CheckInterval: How often to sweep (CACHE_SWEEP_INTERVAL, default 10m)
  - Enabled: Whether the sweeper runs (default: true)

USAGE:
  sweeper := NewCacheSweeper(handler.Edits, logger)
  sweeper.Start()
  // ... later
  sweeper.Stop()

SEE ALSO:
  - editcache/cache.go: Bucket expiry
*/
package api

import (
	"log/slog"
	"sync"
	"time"

	"github.com/warp/overtime-engine/editcache"
)

// DefaultSweepInterval is used when no interval is configured.
const DefaultSweepInterval = 10 * time.Minute

// CacheSweeper removes expired edit buckets on a timer.
type CacheSweeper struct {
	Cache         *editcache.Cache
	CheckInterval time.Duration
	Enabled       bool
	Logger        *slog.Logger

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewCacheSweeper creates a sweeper with the default interval.
func NewCacheSweeper(cache *editcache.Cache, logger *slog.Logger) *CacheSweeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &CacheSweeper{
		Cache:         cache,
		CheckInterval: DefaultSweepInterval,
		Enabled:       true,
		Logger:        logger.With("component", "scheduler"),
	}
}

// Start begins the sweeper.
func (cs *CacheSweeper) Start() {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if !cs.Enabled {
		cs.Logger.Info("edit cache sweeper disabled, not starting")
		return
	}
	if cs.ticker != nil {
		return
	}
	if cs.CheckInterval <= 0 {
		cs.CheckInterval = DefaultSweepInterval
	}

	cs.ticker = time.NewTicker(cs.CheckInterval)
	cs.stop = make(chan struct{})
	cs.wg.Add(1)

	go cs.run(cs.ticker.C, cs.stop)

	cs.Logger.Info("edit cache sweeper started", "interval", cs.CheckInterval.String())
}

// Stop stops the sweeper. It is safe to call more than once.
func (cs *CacheSweeper) Stop() {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if cs.ticker != nil {
		cs.ticker.Stop()
		close(cs.stop)
		cs.wg.Wait()
		cs.ticker = nil
		cs.Logger.Info("edit cache sweeper stopped")
	}
}

func (cs *CacheSweeper) run(tick <-chan time.Time, stop <-chan struct{}) {
	defer cs.wg.Done()

	cs.RunNow()

	for {
		select {
		case <-tick:
			cs.RunNow()
		case <-stop:
			return
		}
	}
}

// RunNow sweeps immediately and returns the number of buckets removed.
func (cs *CacheSweeper) RunNow() int {
	removed := cs.Cache.Sweep()
	if removed > 0 {
		cs.Logger.Info("expired edit buckets removed", "removed", removed, "live", cs.Cache.Users())
	}
	return removed
}
