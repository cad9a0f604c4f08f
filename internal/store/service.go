package store

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Open returns a SQLite-backed store, degrading to the JSON file backend
// when the database cannot be opened.
func Open(log *zap.Logger, dbPath, filePath string) Store {
	if dbPath != "" {
		s, err := OpenSQL(dbPath)
		if err == nil {
			return s
		}
		log.Warn("sqlite unavailable, using file-backed config store",
			zap.String("db_path", dbPath),
			zap.Error(err))
	}
	return OpenFile(filePath)
}

// Service caches one community's configuration in memory in front of a
// Store, so the hot path (every join and answer) never touches the backend.
type Service struct {
	mu          sync.RWMutex
	store       Store
	communityID string
	current     Config
}

// NewService loads the community's configuration and keeps it cached.
func NewService(ctx context.Context, s Store, communityID string) (*Service, error) {
	cfg, err := s.Load(ctx, communityID)
	if err != nil {
		return nil, err
	}
	return &Service{store: s, communityID: communityID, current: cfg}, nil
}

// Current returns the cached configuration.
func (s *Service) Current() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Configured reports whether setup has completed for this community.
func (s *Service) Configured() bool {
	return s.Current().IsConfigured
}

// Update applies fn to the configuration and persists the result. The
// cache is only replaced after a successful save.
func (s *Service) Update(ctx context.Context, fn func(*Config)) (Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.current
	fn(&next)
	if err := s.store.Save(ctx, s.communityID, next); err != nil {
		return s.current, err
	}
	s.current = next
	return next, nil
}

// Reset clears the configuration entirely.
func (s *Service) Reset(ctx context.Context) error {
	_, err := s.Update(ctx, func(c *Config) { *c = Config{} })
	return err
}

// Close closes the underlying store.
func (s *Service) Close() error { return s.store.Close() }
