// Package flood applies a fixed-window message limit per user. Verification
// runs over DMs, so a user pasting at machine speed is either a bot or a
// copy-paste run; either way the interview gains nothing from consuming the
// burst.
package flood

import (
	"sync"
	"time"
)

// Limit is a fixed-window message budget. Zero values disable the guard.
type Limit struct {
	MaxMessages int           `yaml:"max_messages"`
	Window      time.Duration `yaml:"window"`
}

// DefaultLimit allows a human typing pace with headroom.
var DefaultLimit = Limit{MaxMessages: 10, Window: time.Minute}

// Enabled reports whether the limit is configured.
func (l Limit) Enabled() bool {
	return l.MaxMessages > 0 && l.Window > 0
}

type window struct {
	start time.Time
	count int
}

// Guard tracks per-user message counts in fixed windows. Safe for
// concurrent use.
type Guard struct {
	mu      sync.Mutex
	limit   Limit
	windows map[string]*window
	now     func() time.Time
}

// NewGuard builds a guard with the given limit. A zero limit yields a
// guard that allows everything.
func NewGuard(limit Limit) *Guard {
	return &Guard{
		limit:   limit,
		windows: make(map[string]*window),
		now:     time.Now,
	}
}

// Allow records one message from userID and reports whether it is within
// the window budget. The window resets once its duration elapses; a user
// over budget stays blocked until then.
func (g *Guard) Allow(userID string) bool {
	if !g.limit.Enabled() {
		return true
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	w := g.windows[userID]
	if w == nil || now.Sub(w.start) >= g.limit.Window {
		w = &window{start: now}
		g.windows[userID] = w
	}
	if w.count >= g.limit.MaxMessages {
		return false
	}
	w.count++
	return true
}

// Forget drops the user's window, typically when their session ends.
func (g *Guard) Forget(userID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.windows, userID)
}
