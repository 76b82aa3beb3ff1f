package models_test

import (
	"testing"

	"github.com/tunedeck/tunedeck-go/internal/models"
)

func TestNormalizePrefersResolvedURL(t *testing.T) {
	rec := models.StationRecord{
		StationUUID: "abc-123",
		Name:        "Jazz24",
		URL:         "http://example.com/stream",
		URLResolved: "http://cdn.example.com/stream.mp3",
		Tags:        "jazz, smooth jazz, instrumental",
		Country:     "US",
	}
	s := rec.Normalize()

	if s.ID != "abc-123" {
		t.Errorf("id = %q, want %q", s.ID, "abc-123")
	}
	if got := s.PlaybackURL(); got != "http://cdn.example.com/stream.mp3" {
		t.Errorf("playback url = %q, want resolved url", got)
	}
	if s.Genre != "jazz" {
		t.Errorf("genre = %q, want %q", s.Genre, "jazz")
	}
	if s.FaviconURL != models.PlaceholderFavicon {
		t.Errorf("favicon = %q, want placeholder", s.FaviconURL)
	}
}

func TestNormalizeLegacyShape(t *testing.T) {
	rec := models.StationRecord{
		ID:         "42",
		Name:       "Oldies FM",
		StreamURL:  "http://oldies.example/stream",
		Genre:      "Oldies",
		FaviconURL: "http://oldies.example/icon.png",
	}
	s := rec.Normalize()

	if got := s.PlaybackURL(); got != "http://oldies.example/stream" {
		t.Errorf("playback url = %q", got)
	}
	if s.Genre != "Oldies" {
		t.Errorf("genre = %q, want explicit genre preserved", s.Genre)
	}
	if s.FaviconURL != "http://oldies.example/icon.png" {
		t.Errorf("favicon = %q, want original icon", s.FaviconURL)
	}
}

func TestNormalizeEmptyTags(t *testing.T) {
	s := models.StationRecord{Name: "X", URL: "http://x/s"}.Normalize()
	if s.Genre != "Unknown" {
		t.Errorf("genre = %q, want Unknown", s.Genre)
	}
}

func TestIsPlayable(t *testing.T) {
	if (models.Station{Name: "No URL"}).IsPlayable() {
		t.Error("station without any stream address must not be playable")
	}
	if !(models.Station{StreamURL: "http://x/s"}).IsPlayable() {
		t.Error("station with a primary URL must be playable")
	}
	if !(models.Station{ResolvedURL: "http://x/r"}).IsPlayable() {
		t.Error("station with only a resolved URL must be playable")
	}
}

func TestCloneDoesNotShareStation(t *testing.T) {
	st := &models.Station{ID: "1", Name: "A"}
	state := models.PlayerState{CurrentStation: st}
	cp := state.Clone()
	cp.CurrentStation.Name = "B"
	if st.Name != "A" {
		t.Error("Clone must not share the station pointer")
	}
}

func TestEffectiveVolume(t *testing.T) {
	s := models.PlayerState{Volume: 0.7}
	if got := s.EffectiveVolume(); got != 0.7 {
		t.Errorf("effective volume = %v, want 0.7", got)
	}
	s.IsMuted = true
	if got := s.EffectiveVolume(); got != 0 {
		t.Errorf("effective volume while muted = %v, want 0", got)
	}
}
