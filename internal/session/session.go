// Package session implements the playback session — the single source of
// truth for what station is loaded, whether audio is playing, and how the
// player presents itself. All state mutations go through the apply() method
// which ensures atomicity, preference persistence, and event publishing.
package session

import (
	"sync"

	"github.com/tunedeck/tunedeck-go/internal/config"
	"github.com/tunedeck/tunedeck-go/internal/engine"
	"github.com/tunedeck/tunedeck-go/internal/events"
	"github.com/tunedeck/tunedeck-go/internal/models"
)

// Session is the process-wide playback session. Created once at daemon start
// and mutated until shutdown; never destroyed mid-run.
//
// It tracks two conceptually distinct signals: the requested transport
// intent (wantPlaying) and the engine-confirmed state (state.IsPlaying).
// Views observe only the reconciled state; the binding reconciles the two.
type Session struct {
	mu          sync.RWMutex
	state       models.PlayerState
	wantPlaying bool
	playGen     uint64  // bumped per play request, so replays start a fresh attempt
	lastVolume  float64 // last audible volume, for unmute restore

	store  config.Store
	bus    *events.Bus
	notify chan struct{} // coalesced wake-up for the engine binding
}

// New creates the session, restoring persisted volume/mute preferences.
// The bar starts closed regardless of what was playing last time.
func New(store config.Store, bus *events.Bus) (*Session, error) {
	prefs, err := store.Load()
	if err != nil {
		return nil, err
	}

	state := models.DefaultPlayerState()
	state.Volume = prefs.Volume
	state.IsMuted = prefs.Muted

	return &Session{
		state:      state,
		lastVolume: prefs.LastVolume,
		store:      store,
		bus:        bus,
		notify:     make(chan struct{}, 1),
	}, nil
}

// State returns a deep copy of the current session state.
func (s *Session) State() models.PlayerState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// PlayStation binds a station to the session and requests playback. The bar
// opens in standard mode and any overlay closes. Audio start is asynchronous
// and owned by the engine binding; a station already playing is cleanly
// replaced, never overlapped.
func (s *Session) PlayStation(station models.Station) *models.AppError {
	if !station.IsPlayable() {
		return models.ErrUnplayable("station has no resolvable stream address")
	}
	s.apply(func(st *models.PlayerState) {
		st.CurrentStation = &station
		st.IsBarOpen = true
		st.Mode = models.ModeStandard
		st.OverlayOpen = false
		st.IsLoading = true
		st.IsPlaying = false
		st.Error = ""
		s.wantPlaying = true
		s.playGen++
	})
	return nil
}

// CloseBar is a hard stop: the station is unloaded, the overlay closes, and
// the audio output is released by the binding.
func (s *Session) CloseBar() {
	s.apply(func(st *models.PlayerState) {
		st.IsBarOpen = false
		st.IsPlaying = false
		st.IsLoading = false
		st.CurrentStation = nil
		st.OverlayOpen = false
		st.Mode = models.ModeStandard
		st.Error = ""
		s.wantPlaying = false
	})
}

// SetIsPlaying records transport intent from a play/pause control. Pause is
// reflected immediately; play is confirmed only by the engine's own
// "playing" event, so IsPlaying never optimistically flips true.
func (s *Session) SetIsPlaying(playing bool) {
	s.apply(func(st *models.PlayerState) {
		s.wantPlaying = playing
		if playing {
			s.playGen++
			if st.CurrentStation != nil && st.IsBarOpen {
				st.IsLoading = true
				st.Error = ""
			}
		} else {
			st.IsPlaying = false
		}
	})
}

// TogglePlayerSize flips the bar between standard and minimized. No effect
// while the bar is closed; always closes the overlay.
func (s *Session) TogglePlayerSize() {
	s.apply(func(st *models.PlayerState) {
		if !st.IsBarOpen {
			return
		}
		if st.Mode == models.ModeStandard {
			st.Mode = models.ModeMinimized
		} else {
			st.Mode = models.ModeStandard
		}
		st.OverlayOpen = false
	})
}

// OpenOverlay presents the maximized view. Valid only while the bar is open;
// the bar's size mode is left untouched so closing the overlay restores it.
func (s *Session) OpenOverlay() {
	s.apply(func(st *models.PlayerState) {
		if st.IsBarOpen {
			st.OverlayOpen = true
		}
	})
}

// CloseOverlay collapses the maximized view back to the bar.
func (s *Session) CloseOverlay() {
	s.apply(func(st *models.PlayerState) {
		st.OverlayOpen = false
	})
}

// SetVolume sets the volume in [0,1]. Zero mutes; any audible volume unmutes
// and becomes the restore point for the next unmute.
func (s *Session) SetVolume(vol float64) {
	if vol < 0 {
		vol = 0
	} else if vol > 1 {
		vol = 1
	}
	s.apply(func(st *models.PlayerState) {
		st.Volume = vol
		if vol == 0 {
			st.IsMuted = true
		} else {
			st.IsMuted = false
			s.lastVolume = vol
		}
	})
}

// SetMuted mutes or unmutes. Unmuting restores the last audible volume, or a
// small nonzero default if none is known.
func (s *Session) SetMuted(muted bool) {
	s.apply(func(st *models.PlayerState) {
		st.IsMuted = muted
		if muted {
			if st.Volume > 0 {
				s.lastVolume = st.Volume
			}
			return
		}
		if st.Volume == 0 {
			if s.lastVolume > 0 {
				st.Volume = s.lastVolume
			} else {
				st.Volume = models.UnmuteFallbackVolume
			}
		}
	})
}

// apply is the core mutation primitive: lock, clone, mutate, persist
// preferences, publish, and wake the engine binding.
func (s *Session) apply(fn func(*models.PlayerState)) {
	s.mu.Lock()
	next := s.state.Clone()
	fn(&next)
	s.state = next

	prefs := models.Preferences{
		Volume:      next.Volume,
		Muted:       next.IsMuted,
		LastVolume:  s.lastVolume,
		LastStation: next.CurrentStation,
	}
	published := next.Clone()
	s.mu.Unlock()

	_ = s.store.Save(&prefs) // debounced, async
	s.bus.Publish(published)

	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// snapshot returns the current state, transport intent and play-request
// generation for the binding. The generation distinguishes "still wants to
// play" from "asked to play again": each play request bumps it, so the
// binding starts a fresh attempt even when url and intent are unchanged.
func (s *Session) snapshot() (models.PlayerState, bool, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone(), s.wantPlaying, s.playGen
}

// The engine* mutators below are driven exclusively by audio engine events
// via the binding. They reconcile confirmed reality into the state without
// touching the requested intent, except where reality ends the request
// (faults and natural stream end: no automatic retry).

func (s *Session) engineBuffering() {
	s.apply(func(st *models.PlayerState) {
		st.IsLoading = true
	})
}

func (s *Session) enginePlaying() {
	s.apply(func(st *models.PlayerState) {
		st.IsPlaying = true
		st.IsLoading = false
		st.Error = ""
	})
}

func (s *Session) enginePaused() {
	s.apply(func(st *models.PlayerState) {
		st.IsPlaying = false
		st.IsLoading = false
	})
}

func (s *Session) engineEnded() {
	s.apply(func(st *models.PlayerState) {
		st.IsPlaying = false
		st.IsLoading = false
		s.wantPlaying = false
	})
}

// engineFault records a classified fault. The station stays selected so the
// user can retry; nothing is retried automatically.
func (s *Session) engineFault(code engine.FaultCode) {
	s.apply(func(st *models.PlayerState) {
		st.Error = code.Message()
		st.IsPlaying = false
		st.IsLoading = false
		s.wantPlaying = false
	})
}
