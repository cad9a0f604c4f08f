package oracle

import (
	"context"
	"sync"
)

// Service owns the oracle client and keyring and supports hot reload of
// the settings file. Callers hold the Service; the client underneath may
// be swapped by a reload at any time.
type Service struct {
	mu     sync.Mutex
	path   string
	client *Client
	keys   *Keyring
}

// NewService loads the settings file (or defaults) and builds the client
// and keyring.
func NewService(path string) (*Service, Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, Config{}, err
	}
	return &Service{
		path:   path,
		client: NewClient(cfg.APIURL, cfg.Model, cfg.Timeout, cfg.MaxTokens),
		keys:   NewKeyring(cfg.PrimaryKey, cfg.BackupKey),
	}, cfg, nil
}

// Generate delegates to the current client.
func (s *Service) Generate(ctx context.Context, apiKey, prompt string) (string, error) {
	s.mu.Lock()
	client := s.client
	s.mu.Unlock()
	return client.Generate(ctx, apiKey, prompt)
}

// Keys returns the shared keyring. The keyring instance is stable across
// reloads; only its credentials change.
func (s *Service) Keys() *Keyring { return s.keys }

// Reload re-reads the settings file, swaps the client, and replaces the
// keyring credentials (resetting failover to the primary slot). The new
// config is returned so the caller can propagate the daily limit.
func (s *Service) Reload() (Config, error) {
	cfg, err := LoadConfig(s.path)
	if err != nil {
		return Config{}, err
	}

	s.mu.Lock()
	s.client = NewClient(cfg.APIURL, cfg.Model, cfg.Timeout, cfg.MaxTokens)
	s.mu.Unlock()
	s.keys.Replace(cfg.PrimaryKey, cfg.BackupKey)
	return cfg, nil
}
