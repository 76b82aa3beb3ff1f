package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
)

const (
	speakerBufferLen = 250 * time.Millisecond
	streamUserAgent  = "tunedeck/0.1"
)

// Beep is an in-process audio Output: it fetches the stream over HTTP,
// decodes MP3 and plays through the machine's default audio device.
type Beep struct {
	mu     sync.Mutex
	events chan Event
	client *http.Client

	url    string // loaded stream address; "" when detached
	cancel context.CancelFunc
	wg     sync.WaitGroup

	ctrl *beep.Ctrl
	vol  *effects.Volume
	gain float64 // effective volume [0,1]
	live bool    // a decoded stream is attached to the speaker

	speakerRate beep.SampleRate
	closed      bool
}

// NewBeep creates the in-process audio output.
func NewBeep() *Beep {
	return &Beep{
		events: make(chan Event, 32),
		gain:   1,
		client: &http.Client{
			// Streams are long-lived; only bound the dial and header phases.
			Transport: &http.Transport{
				DialContext:           (&net.Dialer{Timeout: 10 * time.Second}).DialContext,
				TLSHandshakeTimeout:   10 * time.Second,
				ResponseHeaderTimeout: 15 * time.Second,
				DisableCompression:    true,
			},
		},
	}
}

// Load assigns a new stream address, tearing down any current stream.
func (b *Beep) Load(url string) error {
	b.mu.Lock()
	b.teardownLocked()
	b.url = url
	b.mu.Unlock()
	b.wg.Wait()
	return nil
}

// Play starts (or resumes) playback of the loaded address. Start is
// asynchronous: success surfaces as an EventPlaying, failure as an
// EventFault.
func (b *Beep) Play() error {
	b.mu.Lock()
	url := b.url
	if url == "" {
		b.mu.Unlock()
		return errors.New("beep: no stream loaded")
	}

	// A live paused stream resumes in place
	if b.live && b.ctrl != nil {
		speaker.Lock()
		b.ctrl.Paused = false
		speaker.Unlock()
		b.mu.Unlock()
		b.emit(Event{Kind: EventPlaying, URL: url})
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	if b.cancel != nil {
		b.cancel()
	}
	b.cancel = cancel
	b.wg.Add(1)
	b.mu.Unlock()

	go b.run(ctx, url)
	return nil
}

// Pause pauses the speaker without releasing the stream connection.
func (b *Beep) Pause() error {
	b.mu.Lock()
	url := b.url
	if b.ctrl != nil {
		speaker.Lock()
		b.ctrl.Paused = true
		speaker.Unlock()
	}
	b.mu.Unlock()
	if url != "" {
		b.emit(Event{Kind: EventPaused, URL: url})
	}
	return nil
}

// Stop detaches the loaded address entirely; the HTTP connection is closed
// and no network activity continues.
func (b *Beep) Stop() error {
	b.mu.Lock()
	b.teardownLocked()
	b.url = ""
	b.mu.Unlock()
	b.wg.Wait()
	return nil
}

// SetVolume applies the effective volume. Safe to call at any time; the value
// also seeds the next stream start.
func (b *Beep) SetVolume(vol float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.gain = vol
	if b.vol != nil {
		speaker.Lock()
		applyGain(b.vol, vol)
		speaker.Unlock()
	}
}

func (b *Beep) Events() <-chan Event { return b.events }

// Close stops playback and closes the event channel.
func (b *Beep) Close() error {
	b.mu.Lock()
	b.teardownLocked()
	b.url = ""
	closed := b.closed
	b.closed = true
	b.mu.Unlock()
	b.wg.Wait()
	if !closed {
		close(b.events)
	}
	return nil
}

// teardownLocked cancels the stream goroutine and silences the speaker.
// Callers must hold b.mu and wg.Wait() after releasing it.
func (b *Beep) teardownLocked() {
	if b.cancel != nil {
		b.cancel()
		b.cancel = nil
	}
	if b.live {
		speaker.Clear()
	}
	b.ctrl = nil
	b.vol = nil
	b.live = false
}

// run fetches, decodes and plays one stream attempt. It owns the HTTP
// response for its lifetime; ctx cancellation aborts the fetch silently.
func (b *Beep) run(ctx context.Context, url string) {
	defer b.wg.Done()

	b.emit(Event{Kind: EventBuffering, URL: url})

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		b.fault(ctx, url, FaultNetwork, err)
		return
	}
	req.Header.Set("User-Agent", streamUserAgent)

	resp, err := b.client.Do(req)
	if err != nil {
		b.fault(ctx, url, FaultNetwork, err)
		return
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		b.fault(ctx, url, FaultNetwork, fmt.Errorf("stream returned %s", resp.Status))
		return
	}

	streamer, format, err := mp3.Decode(resp.Body)
	if err != nil {
		resp.Body.Close()
		b.fault(ctx, url, FaultDecode, err)
		return
	}

	if err := b.initSpeaker(format.SampleRate); err != nil {
		streamer.Close()
		b.fault(ctx, url, FaultUnknown, err)
		return
	}

	b.mu.Lock()
	vol := &effects.Volume{Streamer: streamer, Base: 2}
	applyGain(vol, b.gain)
	ctrl := &beep.Ctrl{Streamer: vol}
	b.vol = vol
	b.ctrl = ctrl
	b.live = true
	b.mu.Unlock()

	speaker.Play(beep.Seq(ctrl, beep.Callback(func() {
		// Speaker drained the streamer: either the server closed the
		// connection mid-stream or we were torn down.
		if ctx.Err() != nil {
			return
		}
		if err := streamer.Err(); err != nil {
			b.fault(ctx, url, FaultNetwork, err)
			return
		}
		b.emit(Event{Kind: EventEnded, URL: url})
	})))

	b.emit(Event{Kind: EventPlaying, URL: url})

	<-ctx.Done()
	streamer.Close()
	resp.Body.Close()
}

// initSpeaker initializes (or re-initializes) the speaker for the stream's
// sample rate. Re-init is only needed when stations use different rates.
func (b *Beep) initSpeaker(rate beep.SampleRate) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.speakerRate == rate {
		return nil
	}
	if err := speaker.Init(rate, rate.N(speakerBufferLen)); err != nil {
		return fmt.Errorf("speaker init: %w", err)
	}
	b.speakerRate = rate
	slog.Debug("beep: speaker initialized", "sample_rate", rate)
	return nil
}

// fault classifies and reports a failed attempt. Cancelled attempts map to
// FaultAborted, which the session binding keeps silent.
func (b *Beep) fault(ctx context.Context, url string, code FaultCode, err error) {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		b.emit(Event{Kind: EventFault, URL: url, Code: FaultAborted})
		return
	}
	slog.Warn("beep: stream fault", "url", url, "code", code, "err", err)
	b.emit(Event{Kind: EventFault, URL: url, Code: code, Detail: err.Error()})
}

// emit delivers an event without ever blocking the audio path.
func (b *Beep) emit(ev Event) {
	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()
	if closed {
		return
	}
	select {
	case b.events <- ev:
	default:
		slog.Debug("beep: event dropped", "kind", ev.Kind.String())
	}
}

// applyGain maps a linear volume in [0,1] onto the exponential volume effect.
func applyGain(vol *effects.Volume, gain float64) {
	if gain <= 0 {
		vol.Silent = true
		return
	}
	if gain > 1 {
		gain = 1
	}
	vol.Silent = false
	vol.Volume = math.Log2(gain)
}

var _ Output = (*Beep)(nil)
