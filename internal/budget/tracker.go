// Package budget tracks the shared daily oracle-call ceiling. One Tracker is
// created at service start and injected into every component that talks to
// the oracle.
package budget

import (
	"sync"
	"time"
)

// DefaultDailyLimit is the conservative built-in daily oracle-call ceiling.
const DefaultDailyLimit = 1000

// Tracker is a process-wide daily call counter with UTC day rollover.
// Safe for concurrent use; each reservation is a single read-modify-write,
// so no two increments are lost.
type Tracker struct {
	mu    sync.Mutex
	limit int
	count int
	day   time.Time // UTC midnight of the day the counter belongs to

	now func() time.Time
}

// NewTracker creates a tracker with the given daily ceiling.
// A non-positive limit falls back to DefaultDailyLimit.
func NewTracker(limit int) *Tracker {
	if limit <= 0 {
		limit = DefaultDailyLimit
	}
	t := &Tracker{limit: limit, now: time.Now}
	t.day = utcDay(t.now())
	return t
}

// NewTrackerAt is NewTracker with an injectable clock.
func NewTrackerAt(limit int, now func() time.Time) *Tracker {
	t := NewTracker(limit)
	t.now = now
	t.day = utcDay(now())
	return t
}

// TryReserve consumes one oracle call from today's budget.
// The counter resets at the first use after a UTC day rollover.
// Returns false once the ceiling is reached; the caller must then take the
// deterministic path.
func (t *Tracker) TryReserve() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.rolloverLocked()
	if t.count >= t.limit {
		return false
	}
	t.count++
	return true
}

// Exhausted reports whether today's budget is already spent, without
// consuming a call.
func (t *Tracker) Exhausted() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rolloverLocked()
	return t.count >= t.limit
}

// Used returns calls consumed today.
func (t *Tracker) Used() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rolloverLocked()
	return t.count
}

// Limit returns the configured daily ceiling.
func (t *Tracker) Limit() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.limit
}

// SetLimit updates the ceiling, e.g. after a credentials-file hot reload.
func (t *Tracker) SetLimit(limit int) {
	if limit <= 0 {
		limit = DefaultDailyLimit
	}
	t.mu.Lock()
	t.limit = limit
	t.mu.Unlock()
}

func (t *Tracker) rolloverLocked() {
	today := utcDay(t.now())
	if today.After(t.day) {
		t.count = 0
		t.day = today
	}
}

func utcDay(ts time.Time) time.Time {
	u := ts.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
