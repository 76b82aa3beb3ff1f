package config_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/tunedeck/tunedeck-go/internal/config"
	"github.com/tunedeck/tunedeck-go/internal/models"
)

func TestJSONStoreLoadMissingFile(t *testing.T) {
	dir := t.TempDir()
	store := config.NewJSONStore(dir)

	prefs, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if prefs.Volume != models.DefaultVolume {
		t.Errorf("volume = %v, want default %v", prefs.Volume, models.DefaultVolume)
	}
	if prefs.LastStation != nil {
		t.Error("expected no last station on fresh load")
	}
}

func TestJSONStoreSaveFlushLoad(t *testing.T) {
	dir := t.TempDir()
	store := config.NewJSONStore(dir)

	prefs := models.Preferences{
		Volume:     0.3,
		Muted:      true,
		LastVolume: 0.6,
		LastStation: &models.Station{
			ID:        "s1",
			Name:      "Jazz24",
			StreamURL: "http://example.com/stream",
		},
	}
	if err := store.Save(&prefs); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	// Save is debounced; Flush forces the write
	if err := store.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	loaded, err := config.NewJSONStore(dir).Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Volume != 0.3 || !loaded.Muted || loaded.LastVolume != 0.6 {
		t.Errorf("loaded = %+v, want saved values", loaded)
	}
	if loaded.LastStation == nil || loaded.LastStation.Name != "Jazz24" {
		t.Errorf("last station = %+v, want Jazz24", loaded.LastStation)
	}
}

func TestJSONStoreCorruptFile(t *testing.T) {
	dir := t.TempDir()
	store := config.NewJSONStore(dir)
	if err := os.WriteFile(store.Path(), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	prefs, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if prefs.Volume != models.DefaultVolume {
		t.Errorf("corrupt file should fall back to defaults, got %+v", prefs)
	}
}

func TestJSONStoreSanitizesOutOfRange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "preferences.json")
	raw, _ := json.Marshal(map[string]interface{}{
		"volume":       3.5,
		"last_volume":  -1,
		"last_station": map[string]string{"id": "x", "name": "No URL"},
	})
	if err := os.WriteFile(path, raw, 0644); err != nil {
		t.Fatal(err)
	}

	prefs, err := config.NewJSONStore(dir).Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if prefs.Volume != models.DefaultVolume || prefs.LastVolume != models.DefaultVolume {
		t.Errorf("out-of-range volumes should be clamped to defaults, got %+v", prefs)
	}
	if prefs.LastStation != nil {
		t.Error("unplayable last station should be discarded")
	}
}

func TestMemStoreRoundTrip(t *testing.T) {
	store := config.NewMemStore()
	prefs := models.Preferences{Volume: 0.9, LastVolume: 0.9}
	if err := store.Save(&prefs); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	// Mutating the original must not affect the stored copy
	prefs.Volume = 0.1

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Volume != 0.9 {
		t.Errorf("volume = %v, want 0.9", loaded.Volume)
	}
}
