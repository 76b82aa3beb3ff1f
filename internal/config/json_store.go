package config

import (
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/tunedeck/tunedeck-go/internal/models"
)

const (
	prefsFileName = "preferences.json"
	debounceDelay = 500 * time.Millisecond
)

// JSONStore is an atomic JSON file store with debounced writes. Volume drags
// produce a burst of saves; only the last one hits the disk.
type JSONStore struct {
	mu      sync.Mutex
	path    string
	timer   *time.Timer
	pending *models.Preferences
}

// NewJSONStore creates a new JSON store in the given config directory.
func NewJSONStore(configDir string) *JSONStore {
	return &JSONStore{
		path: filepath.Join(configDir, prefsFileName),
	}
}

// Path returns the file path used by this store.
func (s *JSONStore) Path() string { return s.path }

// Load reads the preferences from disk. Returns DefaultPreferences on ENOENT
// or parse errors.
func (s *JSONStore) Load() (*models.Preferences, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			def := models.DefaultPreferences()
			return &def, nil
		}
		return nil, err
	}

	var prefs models.Preferences
	if err := json.Unmarshal(data, &prefs); err != nil {
		slog.Warn("config: corrupt preferences file, using defaults", "path", s.path, "err", err)
		def := models.DefaultPreferences()
		return &def, nil
	}

	sanitize(&prefs)
	return &prefs, nil
}

// Save schedules a debounced write of the preferences to disk.
// The actual write happens after 500ms of no further Save calls.
func (s *JSONStore) Save(prefs *models.Preferences) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Take a copy so we don't hold a reference to the caller's preferences
	cp := *prefs
	s.pending = &cp

	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(debounceDelay, func() {
		s.mu.Lock()
		p := s.pending
		s.mu.Unlock()
		if p != nil {
			if err := s.writeAtomic(p); err != nil {
				slog.Error("config: failed to write preferences", "path", s.path, "err", err)
			}
		}
	})
	return nil
}

// Flush forces an immediate write of any pending preferences.
func (s *JSONStore) Flush() error {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	p := s.pending
	s.mu.Unlock()
	if p == nil {
		return nil
	}
	return s.writeAtomic(p)
}

func (s *JSONStore) writeAtomic(prefs *models.Preferences) error {
	data, err := json.MarshalIndent(prefs, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return err
	}

	// Write to temp file, then rename (atomic on Linux)
	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmpPath, s.path)
}

// sanitize clamps persisted values a hand-edited file may have pushed out of
// range.
func sanitize(p *models.Preferences) {
	if p.Volume < 0 || p.Volume > 1 {
		p.Volume = models.DefaultVolume
	}
	if p.LastVolume <= 0 || p.LastVolume > 1 {
		p.LastVolume = models.DefaultVolume
	}
	if p.LastStation != nil && !p.LastStation.IsPlayable() {
		p.LastStation = nil
	}
}
