// Package engine owns the platform audio output. Exactly one Output exists
// per daemon; it is driven by the session binding and reports real playback
// transitions back through its event channel. Views never touch it.
package engine

// EventKind identifies a runtime transition reported by an Output.
type EventKind int

const (
	// EventBuffering: a load/play attempt is in flight or the stream ran dry
	// and is refilling.
	EventBuffering EventKind = iota
	// EventPlaying: audio is actually being produced. Only this event may
	// confirm a play request — issuing Play() is not success.
	EventPlaying
	// EventPaused: the output stopped producing audio on request.
	EventPaused
	// EventEnded: the stream finished or the server closed the connection.
	EventEnded
	// EventStalled: data stopped arriving while playback was expected.
	EventStalled
	// EventFault: the attempt failed; Code carries the classification.
	EventFault
)

func (k EventKind) String() string {
	switch k {
	case EventBuffering:
		return "buffering"
	case EventPlaying:
		return "playing"
	case EventPaused:
		return "paused"
	case EventEnded:
		return "ended"
	case EventStalled:
		return "stalled"
	case EventFault:
		return "fault"
	default:
		return "unknown"
	}
}

// FaultCode classifies an engine fault for user-facing reporting.
type FaultCode int

const (
	FaultNone FaultCode = iota
	// FaultAborted: playback was stopped by a competing request. Never shown
	// to the user.
	FaultAborted
	// FaultNetwork: the stream could not be fetched or kept alive.
	// Recoverable by a user-initiated retry.
	FaultNetwork
	// FaultDecode: the stream's encoding is unsupported or corrupt. Retrying
	// the same station will not help.
	FaultDecode
	// FaultUnknown: the engine gave no actionable detail.
	FaultUnknown
)

// Message returns the short inline error string shown next to the station
// name. Aborted faults have no message — they are silent.
func (c FaultCode) Message() string {
	switch c {
	case FaultNetwork:
		return "Network error."
	case FaultDecode:
		return "Format not supported."
	case FaultUnknown:
		return "Unknown stream error."
	default:
		return ""
	}
}

// Event is a runtime report from the audio output. URL is the stream address
// the event pertains to; the binding discards events whose URL no longer
// matches the current station, which is how late confirmations from a
// superseded load attempt are ignored.
type Event struct {
	Kind   EventKind
	URL    string
	Code   FaultCode
	Detail string
}

// Output is the single platform audio resource. Implementations serialize
// their own internals; callers (the session binding) serialize calls.
//
// Load assigns a stream address, tearing down whatever was loaded before —
// two streams never overlap. Play starts playback asynchronously: success
// arrives later as an EventPlaying, failure as an EventFault. Stop detaches
// the loaded address entirely so no network activity continues.
type Output interface {
	Load(url string) error
	Play() error
	Pause() error
	Stop() error

	// SetVolume applies the effective volume in [0,1]. Mirrored on every
	// change regardless of transport state, so muting while paused is
	// honored when playback resumes.
	SetVolume(vol float64)

	// Events returns the output's event channel. It is closed by Close.
	Events() <-chan Event

	Close() error
}
