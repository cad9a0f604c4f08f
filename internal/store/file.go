package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStore keeps community configurations in a single JSON file, keyed by
// community id. It is the fallback when no database path is usable.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// OpenFile creates a file-backed store at path. The file is created lazily
// on the first save.
func OpenFile(path string) *FileStore {
	return &FileStore{path: path}
}

// Load fetches the community's configuration; a missing file or missing
// entry is a zero Config, not an error.
func (f *FileStore) Load(ctx context.Context, communityID string) (Config, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	all, err := f.readAll()
	if err != nil {
		return Config{}, err
	}
	return all[communityID], nil
}

// Save writes the community's configuration back to the file.
func (f *FileStore) Save(ctx context.Context, communityID string, cfg Config) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	all, err := f.readAll()
	if err != nil {
		return err
	}
	all[communityID] = cfg

	data, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config file: %w", err)
	}
	if dir := filepath.Dir(f.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("replace config file: %w", err)
	}
	return nil
}

// Close is a no-op; the file is not held open.
func (f *FileStore) Close() error { return nil }

func (f *FileStore) readAll() (map[string]Config, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]Config{}, nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}
	all := make(map[string]Config)
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, fmt.Errorf("decode config file: %w", err)
	}
	return all, nil
}
