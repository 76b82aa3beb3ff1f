package session

import (
	"context"
	"log/slog"

	"github.com/tunedeck/tunedeck-go/internal/engine"
	"github.com/tunedeck/tunedeck-go/internal/models"
)

// Binding is the sole owner of the one audio output. It is a continuously
// running reactive loop: session state changes become imperative engine
// calls, engine events become state updates. It is bound to the shared
// session, never to a view, which is what makes a second audio output
// structurally impossible.
type Binding struct {
	sess *Session
	out  engine.Output

	// Binding-local shadow of what the output has been told, so reconcile
	// only issues calls for actual differences.
	loadedURL string
	lastWant  bool
	lastGen   uint64 // newest play request already acted on
}

// NewBinding wires the session to the audio output.
func NewBinding(sess *Session, out engine.Output) *Binding {
	return &Binding{sess: sess, out: out}
}

// Run processes session notifications and engine events until ctx ends.
// All transitions are discrete messages handled in arrival order; there is
// no other goroutine touching the output.
func (b *Binding) Run(ctx context.Context) {
	b.reconcile()
	for {
		select {
		case <-ctx.Done():
			_ = b.out.Stop()
			return
		case <-b.sess.notify:
			b.reconcile()
		case ev, ok := <-b.out.Events():
			if !ok {
				return
			}
			b.handleEvent(ev)
		}
	}
}

// reconcile drives the output toward the session's desired state.
func (b *Binding) reconcile() {
	state, want, gen := b.sess.snapshot()

	// Volume/mute are mirrored on every pass, independent of transport
	// state, so muting while paused holds when playback resumes.
	b.out.SetVolume(state.EffectiveVolume())

	url := desiredURL(state)
	if url == "" {
		// Nothing should be loaded: hard stop releases the stream so no
		// network activity continues.
		if b.loadedURL != "" {
			if err := b.out.Stop(); err != nil {
				slog.Warn("binding: stop failed", "err", err)
			}
			b.loadedURL = ""
		}
		b.lastWant = false
		b.lastGen = gen
		return
	}

	fresh := url != b.loadedURL
	if fresh {
		// Replaces whatever was loaded — two streams never overlap.
		if err := b.out.Load(url); err != nil {
			slog.Warn("binding: load failed", "url", url, "err", err)
			b.sess.engineFault(engine.FaultUnknown)
			return
		}
		b.loadedURL = url
	}

	switch {
	// An unacted play request starts an attempt even when the url is
	// unchanged: replaying the current station must clear its loading
	// state through a fresh engine confirmation.
	case want && (fresh || gen != b.lastGen):
		if err := b.out.Play(); err != nil {
			slog.Warn("binding: play failed", "url", url, "err", err)
			b.sess.engineFault(engine.FaultUnknown)
			return
		}
	case !want && b.lastWant && !fresh:
		if err := b.out.Pause(); err != nil {
			slog.Warn("binding: pause failed", "err", err)
		}
	}
	b.lastWant = want
	b.lastGen = gen
}

// handleEvent folds one engine event into the session, discarding events for
// superseded streams and correcting confirmations that contradict current
// intent.
func (b *Binding) handleEvent(ev engine.Event) {
	state, want, _ := b.sess.snapshot()

	// A late event from a stream that is no longer current is stale —
	// station switches and bar closes must not be resurrected by it.
	if ev.URL == "" || ev.URL != desiredURL(state) || ev.URL != b.loadedURL {
		slog.Debug("binding: stale engine event discarded", "kind", ev.Kind.String(), "url", ev.URL)
		return
	}

	switch ev.Kind {
	case engine.EventBuffering, engine.EventStalled:
		// A stall only means "loading" while playback is still wanted;
		// paused sessions have no attempt in flight to spin on.
		if !want {
			return
		}
		b.sess.engineBuffering()

	case engine.EventPlaying:
		if !want {
			// The user already requested pause; a playing confirmation
			// arriving now is outdated. Re-issue pause instead of letting
			// IsPlaying flip true.
			if err := b.out.Pause(); err != nil {
				slog.Warn("binding: corrective pause failed", "err", err)
			}
			return
		}
		b.sess.enginePlaying()

	case engine.EventPaused:
		b.sess.enginePaused()

	case engine.EventEnded:
		b.sess.engineEnded()

	case engine.EventFault:
		if ev.Code == engine.FaultAborted {
			// Faults from competing requests are silent.
			return
		}
		slog.Info("binding: engine fault", "code", ev.Code.Message(), "detail", ev.Detail)
		b.sess.engineFault(ev.Code)
	}
}

// desiredURL returns the stream address the output should have loaded, or ""
// when nothing should be loaded.
func desiredURL(state models.PlayerState) string {
	if !state.IsBarOpen || state.CurrentStation == nil {
		return ""
	}
	return state.CurrentStation.PlaybackURL()
}
