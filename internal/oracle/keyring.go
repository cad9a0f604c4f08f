package oracle

import "sync"

// Key slots.
const (
	SlotPrimary = "primary"
	SlotBackup  = "backup"
)

// Keyring holds the primary and optional backup oracle credential and the
// sticky active-slot flag shared across all concurrent scoring calls.
// Once failover switches to the backup it stays there until the keys are
// replaced (e.g. by a credentials hot reload).
type Keyring struct {
	mu      sync.Mutex
	primary string
	backup  string
	active  string
}

// NewKeyring creates a keyring starting on the primary slot.
func NewKeyring(primary, backup string) *Keyring {
	return &Keyring{primary: primary, backup: backup, active: SlotPrimary}
}

// Configured reports whether at least one credential exists.
func (k *Keyring) Configured() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.primary != "" || k.backup != ""
}

// HasBackup reports whether a backup credential exists.
func (k *Keyring) HasBackup() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.backup != ""
}

// Active returns the currently-active credential and its slot name.
// ok is false when no credential is available at all.
func (k *Keyring) Active() (key, slot string, ok bool) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.active == SlotPrimary && k.primary != "" {
		return k.primary, SlotPrimary, true
	}
	if k.backup != "" {
		k.active = SlotBackup
		return k.backup, SlotBackup, true
	}
	if k.primary != "" {
		k.active = SlotPrimary
		return k.primary, SlotPrimary, true
	}
	return "", "", false
}

// MarkFailure records a failure of the active credential and switches to the
// backup when one exists and the failure was on the primary.
// Returns true if a switch happened.
func (k *Keyring) MarkFailure() bool {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.active == SlotPrimary && k.backup != "" {
		k.active = SlotBackup
		return true
	}
	return false
}

// Replace swaps both credentials and resets the active slot to primary.
func (k *Keyring) Replace(primary, backup string) {
	k.mu.Lock()
	k.primary = primary
	k.backup = backup
	k.active = SlotPrimary
	k.mu.Unlock()
}
