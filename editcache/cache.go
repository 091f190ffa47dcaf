/*
Package editcache holds operators' unsaved overtime edits.

PURPOSE:
  While reviewing the overtime report an operator may change the approved
  hours of several rows before submitting the batch. The edits are kept
  server-side per user so they survive a page reload, and are dropped once
  the batch is applied or the bucket expires.

EXPIRY:
  Each user has one bucket. Saving an edit resets the bucket's expiry to
  now + TTL (24h by default). Expired buckets read as empty and are removed
  by Sweep, which the API scheduler calls periodically.

USAGE:
  cache := editcache.New(24*time.Hour, logger)
  cache.Save("ops@acme", "ATT-1", decimal.RequireFromString("1.5"))
  edits := cache.All("ops@acme")
  cache.MarkApplied("ops@acme", []string{"ATT-1"})
*/
package editcache

import (
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/overtime-engine/generic"
)

// DefaultTTL is how long a bucket lives after its last save.
const DefaultTTL = 24 * time.Hour

// Edit is one pending change to an attendance row's approved hours.
type Edit struct {
	ApprovedHours decimal.Decimal `json:"approved_hours"`
	Timestamp     time.Time       `json:"timestamp"`
	EditedBy      string          `json:"edited_by"`
}

// Info describes a user's bucket.
type Info struct {
	User       string          `json:"user"`
	EditCount  int             `json:"edit_count"`
	TTLSeconds int64           `json:"ttl_seconds"`
	TTLHours   decimal.Decimal `json:"ttl_hours"`
	Edits      map[string]Edit `json:"edits,omitempty"`
}

// ApplyResult reports the outcome of MarkApplied.
type ApplyResult struct {
	Removed   int `json:"removed"`
	Remaining int `json:"remaining"`
}

type bucket struct {
	edits     map[string]Edit
	expiresAt time.Time
}

// Cache is a per-user map of attendance ID to pending edit.
type Cache struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	ttl     time.Duration
	logger  *slog.Logger

	// Now is the clock; tests replace it.
	Now func() time.Time
}

// New creates a cache. A non-positive ttl uses DefaultTTL.
func New(ttl time.Duration, logger *slog.Logger) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		buckets: make(map[string]*bucket),
		ttl:     ttl,
		logger:  logger,
		Now:     func() time.Time { return time.Now().UTC() },
	}
}

// TTL returns the configured bucket lifetime.
func (c *Cache) TTL() time.Duration { return c.ttl }

// Save records an edit and returns the user's total pending edits.
func (c *Cache) Save(user, attendanceID string, approvedHours decimal.Decimal) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.Now()
	b := c.liveLocked(user, now)
	if b == nil {
		b = &bucket{edits: make(map[string]Edit)}
		c.buckets[user] = b
	}
	b.edits[attendanceID] = Edit{
		ApprovedHours: approvedHours,
		Timestamp:     now,
		EditedBy:      user,
	}
	b.expiresAt = now.Add(c.ttl)

	c.logger.Debug("overtime edit saved", "user", user, "attendance", attendanceID, "hours", approvedHours.String())
	return len(b.edits)
}

// All returns a copy of the user's pending edits.
func (c *Cache) All(user string) map[string]Edit {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[string]Edit)
	if b := c.liveLocked(user, c.Now()); b != nil {
		for k, v := range b.edits {
			out[k] = v
		}
	}
	return out
}

// Get returns a single pending edit.
func (c *Cache) Get(user, attendanceID string) (Edit, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	b := c.liveLocked(user, c.Now())
	if b == nil {
		return Edit{}, false
	}
	e, ok := b.edits[attendanceID]
	return e, ok
}

// Delete removes one edit. It reports whether the edit existed and how many
// remain.
func (c *Cache) Delete(user, attendanceID string) (bool, int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	b := c.liveLocked(user, c.Now())
	if b == nil {
		return false, 0
	}
	if _, ok := b.edits[attendanceID]; !ok {
		return false, len(b.edits)
	}
	delete(b.edits, attendanceID)
	return true, len(b.edits)
}

// Clear drops the user's bucket and returns how many edits it held.
func (c *Cache) Clear(user string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := 0
	if b := c.liveLocked(user, c.Now()); b != nil {
		count = len(b.edits)
	}
	delete(c.buckets, user)

	c.logger.Debug("overtime edits cleared", "user", user, "count", count)
	return count
}

// Reset drops every bucket.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.buckets = make(map[string]*bucket)
}

// MarkApplied removes the edits of processed attendance rows. The bucket is
// dropped once empty.
func (c *Cache) MarkApplied(user string, attendanceIDs []string) ApplyResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	b := c.liveLocked(user, c.Now())
	if b == nil {
		return ApplyResult{}
	}
	var res ApplyResult
	for _, id := range attendanceIDs {
		if _, ok := b.edits[id]; ok {
			delete(b.edits, id)
			res.Removed++
		}
	}
	res.Remaining = len(b.edits)
	if res.Remaining == 0 {
		delete(c.buckets, user)
	}

	c.logger.Debug("overtime edits applied", "user", user, "removed", res.Removed)
	return res
}

// Info describes the user's bucket including its remaining lifetime.
func (c *Cache) Info(user string) Info {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.Now()
	info := Info{User: user, TTLHours: decimal.Zero}
	b := c.liveLocked(user, now)
	if b == nil {
		return info
	}

	ttl := b.expiresAt.Sub(now).Truncate(time.Second)
	info.EditCount = len(b.edits)
	info.TTLSeconds = int64(ttl / time.Second)
	info.TTLHours = generic.Round2(decimal.NewFromInt(info.TTLSeconds).Div(decimal.NewFromInt(3600)))
	info.Edits = make(map[string]Edit, len(b.edits))
	for k, v := range b.edits {
		info.Edits[k] = v
	}
	return info
}

// Sweep removes expired buckets and returns how many were dropped.
func (c *Cache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.Now()
	removed := 0
	for user, b := range c.buckets {
		if !now.Before(b.expiresAt) {
			delete(c.buckets, user)
			removed++
		}
	}
	return removed
}

// Users returns the number of live buckets.
func (c *Cache) Users() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.Now()
	n := 0
	for _, b := range c.buckets {
		if now.Before(b.expiresAt) {
			n++
		}
	}
	return n
}

// liveLocked returns the user's bucket unless it has expired.
func (c *Cache) liveLocked(user string, now time.Time) *bucket {
	b, ok := c.buckets[user]
	if !ok {
		return nil
	}
	if !now.Before(b.expiresAt) {
		delete(c.buckets, user)
		return nil
	}
	return b
}
