package models

// ViewMode is the presentation size of the player bar. Independent of the
// maximized overlay: opening the overlay does not alter the mode, so closing
// it returns to whichever size was active.
type ViewMode string

const (
	ModeStandard  ViewMode = "standard"
	ModeMinimized ViewMode = "minimized"
)

// Volume constants. UnmuteFallbackVolume is used when unmuting and the last
// audible volume is unknown or zero.
const (
	DefaultVolume        = 0.5
	UnmuteFallbackVolume = 0.1
)

// PlayerState is the complete playback session state shared by every view
// (HTTP clients, SSE/websocket subscribers, MPRIS). There is exactly one of
// these per daemon, alive from start to shutdown.
type PlayerState struct {
	CurrentStation *Station `json:"currentStation"`
	IsBarOpen      bool     `json:"isBarOpen"`

	// IsPlaying reflects the audio engine's confirmed state, not merely user
	// intent. Only an engine "playing" event may set it true.
	IsPlaying bool   `json:"isPlaying"`
	IsLoading bool   `json:"isLoading"`
	Error     string `json:"error,omitempty"`

	Mode        ViewMode `json:"mode"`
	OverlayOpen bool     `json:"overlayOpen"`

	Volume  float64 `json:"volume"` // [0,1]
	IsMuted bool    `json:"isMuted"`
}

// DefaultPlayerState returns the empty session created at daemon start.
func DefaultPlayerState() PlayerState {
	return PlayerState{
		Mode:   ModeStandard,
		Volume: DefaultVolume,
	}
}

// Clone returns a deep copy of the state so readers never share the
// station pointer with the session's own copy.
func (s PlayerState) Clone() PlayerState {
	next := s
	if s.CurrentStation != nil {
		st := *s.CurrentStation
		next.CurrentStation = &st
	}
	return next
}

// EffectiveVolume is the volume actually applied to the audio output.
func (s PlayerState) EffectiveVolume() float64 {
	if s.IsMuted {
		return 0
	}
	return s.Volume
}

// Preferences is the slice of session state that persists across daemon
// restarts. The session restores it at startup without reopening the bar.
type Preferences struct {
	Volume      float64  `json:"volume"`
	Muted       bool     `json:"muted"`
	LastVolume  float64  `json:"last_volume"` // last audible volume, for unmute restore
	LastStation *Station `json:"last_station,omitempty"`
}

// DefaultPreferences returns the preferences used before any have been saved.
func DefaultPreferences() Preferences {
	return Preferences{
		Volume:     DefaultVolume,
		LastVolume: DefaultVolume,
	}
}
