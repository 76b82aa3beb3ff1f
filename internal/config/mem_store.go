package config

import (
	"sync"

	"github.com/tunedeck/tunedeck-go/internal/models"
)

// MemStore is an in-memory Store for tests that never writes to disk.
type MemStore struct {
	mu    sync.Mutex
	prefs *models.Preferences
}

// NewMemStore returns a new in-memory store with nil preferences (defaults to
// DefaultPreferences on Load).
func NewMemStore() *MemStore {
	return &MemStore{}
}

// Load returns a copy of the stored preferences, or DefaultPreferences if
// none have been saved yet.
func (m *MemStore) Load() (*models.Preferences, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.prefs == nil {
		def := models.DefaultPreferences()
		return &def, nil
	}
	cp := *m.prefs
	return &cp, nil
}

// Save stores a copy of the given preferences in memory.
func (m *MemStore) Save(prefs *models.Preferences) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *prefs
	m.prefs = &cp
	return nil
}

// Path returns ":memory:" to indicate this is an in-memory store.
func (m *MemStore) Path() string { return ":memory:" }

// Flush is a no-op for in-memory stores.
func (m *MemStore) Flush() error { return nil }

// Ensure MemStore implements config.Store
var _ Store = (*MemStore)(nil)
