// Package view derives which player presentation is shown from the session
// state. It is a pure derivation — there is no view state machine, only the
// session's flags.
package view

import "github.com/tunedeck/tunedeck-go/internal/models"

// Kind identifies the single presentation rendered for a session state.
type Kind string

const (
	// KindHidden: the bar is closed, no player UI at all.
	KindHidden Kind = "hidden"
	// KindMinimized: the corner widget.
	KindMinimized Kind = "minimized"
	// KindStandard: the full-width bottom bar.
	KindStandard Kind = "standard"
	// KindOverlay: the maximized full-screen presentation. Renders instead
	// of the bar but shares its session and audio output.
	KindOverlay Kind = "overlay"
)

// Bottom insets in pixels that other UI reserves to avoid overlapping the
// player. The minimized widget floats, so it reserves nothing.
const (
	standardBarInset = 96
	overlayInset     = 0
	minimizedInset   = 0
)

// Layout is the derived presentation plus the space it occupies.
type Layout struct {
	Kind Kind `json:"kind"`
	// BottomInset is the vertical space (px) the player occupies at the
	// bottom edge; scroll containers pad by this amount.
	BottomInset int `json:"bottomInset"`
	// ControlsEnabled is false when the bound station cannot be played
	// (no resolvable stream address) — transport controls render disabled
	// rather than attempting and failing.
	ControlsEnabled bool `json:"controlsEnabled"`
}

// For derives the presentation for a session state.
// Exactly one of the four kinds is rendered: the overlay wins while open,
// then the bar in whichever size mode is active. The overlay does not alter
// the mode, so closing it falls back to the prior bar size.
func For(state models.PlayerState) Layout {
	if !state.IsBarOpen {
		return Layout{Kind: KindHidden}
	}

	enabled := state.CurrentStation != nil && state.CurrentStation.IsPlayable()

	if state.OverlayOpen {
		return Layout{Kind: KindOverlay, BottomInset: overlayInset, ControlsEnabled: enabled}
	}
	if state.Mode == models.ModeMinimized {
		return Layout{Kind: KindMinimized, BottomInset: minimizedInset, ControlsEnabled: enabled}
	}
	return Layout{Kind: KindStandard, BottomInset: standardBarInset, ControlsEnabled: enabled}
}
