// Package store persists the per-community configuration: role ids,
// channel ids, scoring thresholds, and the configured flag that gates the
// whole admission pipeline. The primary backend is SQLite; a JSON file
// backend stands in when no database path is usable.
package store

import "context"

// Config is the flat per-community configuration blob.
type Config struct {
	DevoteeRoleID    string `json:"devotee_role_id,omitempty"`
	SeekerRoleID     string `json:"seeker_role_id,omitempty"`
	RestrictedRoleID string `json:"restricted_role_id,omitempty"`

	VerificationChannelID string `json:"verification_channel_id,omitempty"`
	AdminChannelID        string `json:"admin_channel_id,omitempty"`
	GeneralChannelID      string `json:"general_chat_channel_id,omitempty"`

	AdminRoleIDs []string `json:"admin_role_ids,omitempty"`

	// Zero thresholds mean the built-in defaults.
	DevoteeMin int `json:"devotee_min,omitempty"`
	SeekerMin  int `json:"seeker_min,omitempty"`

	ConfiguredBy string `json:"configured_by,omitempty"`
	IsConfigured bool   `json:"is_configured"`
}

// Default score thresholds.
const (
	DefaultDevoteeMin = 8
	DefaultSeekerMin  = 5
)

// Thresholds returns the devotee and seeker score minimums, applying the
// defaults for unset values.
func (c Config) Thresholds() (devotee, seeker int) {
	devotee, seeker = c.DevoteeMin, c.SeekerMin
	if devotee <= 0 {
		devotee = DefaultDevoteeMin
	}
	if seeker <= 0 {
		seeker = DefaultSeekerMin
	}
	return devotee, seeker
}

// Store loads and saves a community's configuration.
// Load returns a zero Config (IsConfigured false) when none exists.
type Store interface {
	Load(ctx context.Context, communityID string) (Config, error)
	Save(ctx context.Context, communityID string, cfg Config) error
	Close() error
}
