// Package mpris exposes the playback session on the D-Bus session bus using
// the MPRIS MediaPlayer2 interface, so desktop media keys and widgets can
// drive the daemon.
package mpris

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/prop"

	"github.com/tunedeck/tunedeck-go/internal/models"
)

const (
	busName    = "org.mpris.MediaPlayer2.tunedeck"
	objectPath = dbus.ObjectPath("/org/mpris/MediaPlayer2")

	rootInterface   = "org.mpris.MediaPlayer2"
	playerInterface = "org.mpris.MediaPlayer2.Player"
)

// Player is the subset of session operations MPRIS drives.
type Player interface {
	State() models.PlayerState
	SetIsPlaying(playing bool)
	CloseBar()
	SetVolume(vol float64)
}

// Bridge owns the D-Bus export and mirrors player state into MPRIS
// properties.
type Bridge struct {
	player Player
	conn   *dbus.Conn
	props  *prop.Properties
}

// New connects to the session bus and claims the MPRIS name. Absence of a
// session bus (headless installs) is reported as an error; callers treat
// MPRIS as optional.
func New(player Player) (*Bridge, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("mpris: session bus: %w", err)
	}

	b := &Bridge{player: player, conn: conn}

	if err := conn.Export(rootHandler{}, objectPath, rootInterface); err != nil {
		conn.Close()
		return nil, fmt.Errorf("mpris: export root: %w", err)
	}
	if err := conn.Export(playerHandler{b}, objectPath, playerInterface); err != nil {
		conn.Close()
		return nil, fmt.Errorf("mpris: export player: %w", err)
	}

	props, err := prop.Export(conn, objectPath, b.propertySpec())
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("mpris: export properties: %w", err)
	}
	b.props = props

	reply, err := conn.RequestName(busName, dbus.NameFlagReplaceExisting)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("mpris: request name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		conn.Close()
		return nil, fmt.Errorf("mpris: name %s already owned", busName)
	}

	slog.Info("mpris: registered", "name", busName)
	return b, nil
}

// Run mirrors published player states into MPRIS properties until ctx ends
// or the channel closes.
func (b *Bridge) Run(ctx context.Context, states <-chan models.PlayerState) {
	for {
		select {
		case <-ctx.Done():
			return
		case state, ok := <-states:
			if !ok {
				return
			}
			b.update(state)
		}
	}
}

// Close releases the bus name and connection.
func (b *Bridge) Close() {
	_, _ = b.conn.ReleaseName(busName)
	b.conn.Close()
}

func (b *Bridge) update(state models.PlayerState) {
	b.props.SetMust(playerInterface, "PlaybackStatus", playbackStatus(state))
	b.props.SetMust(playerInterface, "Volume", state.EffectiveVolume())
	b.props.SetMust(playerInterface, "Metadata", metadata(state))
}

func (b *Bridge) propertySpec() prop.Map {
	state := b.player.State()
	return prop.Map{
		rootInterface: {
			"CanQuit":             {Value: false, Writable: false, Emit: prop.EmitFalse},
			"CanRaise":            {Value: false, Writable: false, Emit: prop.EmitFalse},
			"HasTrackList":        {Value: false, Writable: false, Emit: prop.EmitFalse},
			"Identity":            {Value: "tunedeck", Writable: false, Emit: prop.EmitFalse},
			"SupportedUriSchemes": {Value: []string{}, Writable: false, Emit: prop.EmitFalse},
			"SupportedMimeTypes":  {Value: []string{}, Writable: false, Emit: prop.EmitFalse},
		},
		playerInterface: {
			"PlaybackStatus": {Value: playbackStatus(state), Writable: false, Emit: prop.EmitTrue},
			"Metadata":       {Value: metadata(state), Writable: false, Emit: prop.EmitTrue},
			"Volume": {
				Value: state.EffectiveVolume(), Writable: true, Emit: prop.EmitTrue,
				Callback: func(c *prop.Change) *dbus.Error {
					if vol, ok := c.Value.(float64); ok {
						b.player.SetVolume(vol)
					}
					return nil
				},
			},
			"CanPlay":    {Value: true, Writable: false, Emit: prop.EmitFalse},
			"CanPause":   {Value: true, Writable: false, Emit: prop.EmitFalse},
			"CanGoNext":  {Value: false, Writable: false, Emit: prop.EmitFalse},
			"CanControl": {Value: true, Writable: false, Emit: prop.EmitFalse},
		},
	}
}

func playbackStatus(state models.PlayerState) string {
	switch {
	case !state.IsBarOpen || state.CurrentStation == nil:
		return "Stopped"
	case state.IsPlaying:
		return "Playing"
	default:
		return "Paused"
	}
}

func metadata(state models.PlayerState) map[string]dbus.Variant {
	md := map[string]dbus.Variant{
		"mpris:trackid": dbus.MakeVariant(dbus.ObjectPath("/org/mpris/MediaPlayer2/TrackList/NoTrack")),
	}
	st := state.CurrentStation
	if st == nil {
		return md
	}
	md["mpris:trackid"] = dbus.MakeVariant(objectPath + "/track/current")
	md["xesam:title"] = dbus.MakeVariant(st.Name)
	if st.Genre != "" {
		md["xesam:genre"] = dbus.MakeVariant([]string{st.Genre})
	}
	if st.FaviconURL != "" {
		md["mpris:artUrl"] = dbus.MakeVariant(st.FaviconURL)
	}
	md["xesam:url"] = dbus.MakeVariant(st.PlaybackURL())
	return md
}

// rootHandler implements the org.mpris.MediaPlayer2 methods. The daemon has
// no window to raise and is not quit over MPRIS.
type rootHandler struct{}

func (rootHandler) Raise() *dbus.Error { return nil }
func (rootHandler) Quit() *dbus.Error  { return nil }

// playerHandler implements org.mpris.MediaPlayer2.Player methods by
// forwarding intent to the session.
type playerHandler struct {
	b *Bridge
}

func (h playerHandler) Play() *dbus.Error {
	h.b.player.SetIsPlaying(true)
	return nil
}

func (h playerHandler) Pause() *dbus.Error {
	h.b.player.SetIsPlaying(false)
	return nil
}

func (h playerHandler) PlayPause() *dbus.Error {
	h.b.player.SetIsPlaying(!h.b.player.State().IsPlaying)
	return nil
}

func (h playerHandler) Stop() *dbus.Error {
	h.b.player.CloseBar()
	return nil
}

func (h playerHandler) Next() *dbus.Error     { return nil }
func (h playerHandler) Previous() *dbus.Error { return nil }
