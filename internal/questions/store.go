package questions

import (
	"sync"
)

// Store holds the current bank snapshot. Reload swaps the snapshot
// atomically; readers always see a coherent bank, never a partial update.
type Store struct {
	mu      sync.RWMutex
	bank    *Bank
	path    string
	version int
}

// NewStore loads the initial snapshot from path (or defaults).
func NewStore(path string) (*Store, error) {
	bank, err := Load(path)
	if err != nil {
		return nil, err
	}
	return &Store{bank: bank, path: path, version: 1}, nil
}

// Snapshot returns the current bank. The returned bank must be treated as
// read-only; an in-flight selection keeps using its snapshot even if a
// reload lands concurrently.
func (s *Store) Snapshot() *Bank {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bank
}

// Version returns the snapshot generation, starting at 1.
func (s *Store) Version() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Reload re-reads the bank file and swaps the snapshot. On error the
// previous snapshot stays in place.
func (s *Store) Reload() error {
	bank, err := Load(s.path)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.bank = bank
	s.version++
	s.mu.Unlock()
	return nil
}
