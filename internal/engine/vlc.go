package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os/exec"
	"sync"
	"time"
)

const (
	vlcHTTPPort     = 8091
	vlcHTTPPassword = "tunedeck"
	vlcPollInterval = 2 * time.Second
	vlcPollGrace    = 5 * time.Second // let VLC bring its HTTP interface up
	vlcMaxFetchMiss = 5               // consecutive status misses before a fault
)

// VLC is a subprocess audio Output: a VLC instance under supervision, driven
// through its HTTP interface. Useful on hosts where in-process decoding is
// not wanted (e.g. codecs beyond MP3).
type VLC struct {
	mu     sync.Mutex
	events chan Event
	client *http.Client

	streamURL string // loaded stream address; "" when detached
	sup       *supervisor

	pollCancel context.CancelFunc
	pollWg     sync.WaitGroup

	gain   float64
	closed bool
}

// NewVLC creates the VLC-backed audio output. The binary is resolved from
// PATH at load time; a missing binary surfaces as an unknown fault on the
// first play attempt.
func NewVLC() *VLC {
	return &VLC{
		events: make(chan Event, 32),
		gain:   1,
		client: &http.Client{Timeout: 3 * time.Second},
	}
}

// Load assigns a new stream address: the previous VLC instance (if any) is
// torn down and a fresh one is started paused on the new address.
func (v *VLC) Load(streamURL string) error {
	v.mu.Lock()
	v.teardownLocked()
	v.streamURL = streamURL

	v.sup = newSupervisor("vlc", func() *exec.Cmd {
		return exec.Command("vlc",
			"--intf", "http",
			"--http-host", "127.0.0.1",
			"--http-port", fmt.Sprintf("%d", vlcHTTPPort),
			"--http-password", vlcHTTPPassword,
			"--start-paused",
			"--no-video",
			streamURL,
		)
	})
	v.mu.Unlock()
	v.pollWg.Wait()
	return nil
}

// Play starts the supervised VLC process (first call) and issues pl_play.
// Success is confirmed by the status poller observing the "playing" state.
func (v *VLC) Play() error {
	v.mu.Lock()
	if v.streamURL == "" || v.sup == nil {
		v.mu.Unlock()
		return fmt.Errorf("vlc: no stream loaded")
	}
	sup := v.sup
	streamURL := v.streamURL

	if v.pollCancel == nil {
		ctx, cancel := context.WithCancel(context.Background())
		v.pollCancel = cancel
		v.pollWg.Add(1)
		go v.poll(ctx, streamURL)
	}
	v.mu.Unlock()

	if err := sup.Start(context.Background()); err != nil {
		return err
	}
	v.emit(Event{Kind: EventBuffering, URL: streamURL})
	_ = v.command("pl_play", nil)
	_ = v.applyVolume()
	return nil
}

// Pause issues pl_pause. VLC keeps the connection alive while paused.
func (v *VLC) Pause() error {
	return v.command("pl_pause", nil)
}

// Stop kills the VLC process entirely so no network activity continues.
func (v *VLC) Stop() error {
	v.mu.Lock()
	v.teardownLocked()
	v.streamURL = ""
	v.mu.Unlock()
	v.pollWg.Wait()
	return nil
}

// SetVolume maps [0,1] onto VLC's 0–256 scale.
func (v *VLC) SetVolume(vol float64) {
	v.mu.Lock()
	v.gain = vol
	v.mu.Unlock()
	_ = v.applyVolume()
}

func (v *VLC) Events() <-chan Event { return v.events }

// Close stops the subprocess and closes the event channel.
func (v *VLC) Close() error {
	v.mu.Lock()
	v.teardownLocked()
	v.streamURL = ""
	closed := v.closed
	v.closed = true
	v.mu.Unlock()
	v.pollWg.Wait()
	if !closed {
		close(v.events)
	}
	return nil
}

func (v *VLC) teardownLocked() {
	if v.pollCancel != nil {
		v.pollCancel()
		v.pollCancel = nil
	}
	if v.sup != nil {
		_ = v.sup.Stop()
		v.sup = nil
	}
}

func (v *VLC) applyVolume() error {
	v.mu.Lock()
	val := int(v.gain * 256)
	v.mu.Unlock()
	return v.command("volume", url.Values{"val": {fmt.Sprintf("%d", val)}})
}

// command issues a VLC HTTP interface request.
func (v *VLC) command(cmd string, extra url.Values) error {
	q := url.Values{"command": {cmd}}
	for k, vals := range extra {
		q[k] = vals
	}
	reqURL := fmt.Sprintf("http://127.0.0.1:%d/requests/status.json?%s", vlcHTTPPort, q.Encode())
	req, err := http.NewRequest(http.MethodGet, reqURL, nil)
	if err != nil {
		return err
	}
	req.SetBasicAuth("", vlcHTTPPassword)
	resp, err := v.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// vlcStatus is the subset of VLC's status.json this output reads.
type vlcStatus struct {
	State string `json:"state"` // "playing", "paused", "stopped"
}

// poll watches VLC's status endpoint and converts state transitions into
// engine events. Repeated fetch misses while the process should be playing
// are reported as a network fault.
func (v *VLC) poll(ctx context.Context, streamURL string) {
	defer v.pollWg.Done()

	select {
	case <-ctx.Done():
		return
	case <-time.After(vlcPollGrace):
	}

	ticker := time.NewTicker(vlcPollInterval)
	defer ticker.Stop()

	var lastState string
	misses := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			st, err := v.fetchStatus(ctx)
			if err != nil {
				misses++
				if misses == vlcMaxFetchMiss {
					slog.Warn("vlc: status unreachable", "url", streamURL, "err", err)
					v.emit(Event{Kind: EventFault, URL: streamURL, Code: FaultNetwork, Detail: "player not responding"})
				}
				continue
			}
			misses = 0
			if st.State == lastState {
				continue
			}
			lastState = st.State
			switch st.State {
			case "playing":
				v.emit(Event{Kind: EventPlaying, URL: streamURL})
			case "paused":
				v.emit(Event{Kind: EventPaused, URL: streamURL})
			case "stopped":
				v.emit(Event{Kind: EventEnded, URL: streamURL})
			}
		}
	}
}

func (v *VLC) fetchStatus(ctx context.Context) (*vlcStatus, error) {
	reqURL := fmt.Sprintf("http://127.0.0.1:%d/requests/status.json", vlcHTTPPort)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth("", vlcHTTPPassword)

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var st vlcStatus
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func (v *VLC) emit(ev Event) {
	v.mu.Lock()
	closed := v.closed
	v.mu.Unlock()
	if closed {
		return
	}
	select {
	case v.events <- ev:
	default:
		slog.Debug("vlc: event dropped", "kind", ev.Kind.String())
	}
}

var _ Output = (*VLC)(nil)
