// Package config handles loading and saving listener preferences
// (volume, mute, last station) across daemon restarts.
package config

import "github.com/tunedeck/tunedeck-go/internal/models"

// Store is the interface for persisting preferences.
type Store interface {
	// Load loads the current preferences. Returns DefaultPreferences if no
	// file exists.
	Load() (*models.Preferences, error)

	// Save persists the preferences. Implementations may debounce rapid saves.
	Save(prefs *models.Preferences) error

	// Path returns the file path used by this store.
	Path() string

	// Flush forces an immediate write of any pending preferences.
	Flush() error
}
