package scoring

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
)

// DefaultCacheSize bounds the score cache; overflow evicts the oldest fifth.
const DefaultCacheSize = 50

// Cache memoizes oracle verdicts by content fingerprint so identical answer
// sets never pay for a second oracle call. Insertion-ordered with
// oldest-first batch eviction; safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	max     int
	entries map[string]Result
	order   []string
}

// NewCache creates a bounded cache. Non-positive max falls back to the
// package default.
func NewCache(max int) *Cache {
	if max <= 0 {
		max = DefaultCacheSize
	}
	return &Cache{
		max:     max,
		entries: make(map[string]Result, max),
	}
}

// Key fingerprints a (questions, answers) pair. Length prefixes keep
// distinct pairs from colliding under concatenation.
func Key(questions, answers []string) string {
	h := sha256.New()
	for _, q := range questions {
		fmt.Fprintf(h, "q%d:%s;", len(q), q)
	}
	for _, a := range answers {
		fmt.Fprintf(h, "a%d:%s;", len(a), a)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the cached result for key, if present.
func (c *Cache) Get(key string) (Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.entries[key]
	return r, ok
}

// Put stores a result, evicting the oldest ~20% of entries on overflow.
func (c *Cache) Put(key string, r Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists {
		c.order = append(c.order, key)
	}
	c.entries[key] = r

	if len(c.entries) <= c.max {
		return
	}
	drop := c.max / 5
	if drop < 1 {
		drop = 1
	}
	for _, old := range c.order[:drop] {
		delete(c.entries, old)
	}
	c.order = c.order[drop:]
}

// Len reports the current entry count.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
