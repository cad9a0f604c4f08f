package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS community_configs (
	community_id TEXT PRIMARY KEY,
	config_data  TEXT NOT NULL,
	is_configured INTEGER NOT NULL DEFAULT 0,
	configured_by TEXT NOT NULL DEFAULT '',
	created_at   TIMESTAMP NOT NULL,
	updated_at   TIMESTAMP NOT NULL
);`

// SQLStore keeps community configurations in a SQLite database, one row
// per community with the config as a JSON blob.
type SQLStore struct {
	db *sql.DB
}

// OpenSQL opens (and if needed initializes) the SQLite database at path.
func OpenSQL(path string) (*SQLStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// The driver serializes access; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &SQLStore{db: db}, nil
}

// Load fetches the community's configuration; a missing row is a zero
// Config, not an error.
func (s *SQLStore) Load(ctx context.Context, communityID string) (Config, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT config_data FROM community_configs WHERE community_id = ?`,
		communityID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return Config{}, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal([]byte(data), &cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// Save upserts the community's configuration.
func (s *SQLStore) Save(ctx context.Context, communityID string, cfg Config) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx, `
INSERT INTO community_configs (community_id, config_data, is_configured, configured_by, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(community_id) DO UPDATE SET
	config_data = excluded.config_data,
	is_configured = excluded.is_configured,
	configured_by = excluded.configured_by,
	updated_at = excluded.updated_at`,
		communityID, string(data), boolToInt(cfg.IsConfigured), cfg.ConfiguredBy, now, now)
	if err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *SQLStore) Close() error { return s.db.Close() }

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
