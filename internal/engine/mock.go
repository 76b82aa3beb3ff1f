package engine

import "sync"

// Mock is a scripted Output for tests. It records every call, tracks how many
// underlying stream resources are alive at once, and lets tests emit engine
// events on demand (including stale ones for superseded URLs).
type Mock struct {
	mu     sync.Mutex
	events chan Event

	loadedURL string
	playing   bool
	volume    float64
	closed    bool

	// Calls is the ordered log of operations, e.g. "load http://…", "play".
	Calls []string

	// live counts currently-active stream resources; maxLive records the
	// high-water mark across the Mock's lifetime.
	live    int
	maxLive int
}

// NewMock creates a mock audio output.
func NewMock() *Mock {
	return &Mock{
		events: make(chan Event, 32),
		volume: -1,
	}
}

func (m *Mock) Load(url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadedURL == "" {
		m.live++
		if m.live > m.maxLive {
			m.maxLive = m.live
		}
	}
	// Replacing a loaded stream reuses the one resource
	m.loadedURL = url
	m.playing = false
	m.Calls = append(m.Calls, "load "+url)
	return nil
}

func (m *Mock) Play() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, "play")
	return nil
}

func (m *Mock) Pause() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playing = false
	m.Calls = append(m.Calls, "pause")
	return nil
}

func (m *Mock) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadedURL != "" {
		m.live--
	}
	m.loadedURL = ""
	m.playing = false
	m.Calls = append(m.Calls, "stop")
	return nil
}

func (m *Mock) SetVolume(vol float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.volume = vol
}

func (m *Mock) Events() <-chan Event { return m.events }

func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.events)
	}
	return nil
}

// EmitPlaying delivers a "now playing" event for the given stream address.
func (m *Mock) EmitPlaying(url string) {
	m.mu.Lock()
	if m.loadedURL == url {
		m.playing = true
	}
	m.mu.Unlock()
	m.events <- Event{Kind: EventPlaying, URL: url}
}

// EmitPaused delivers a "paused" event for the given stream address.
func (m *Mock) EmitPaused(url string) {
	m.mu.Lock()
	m.playing = false
	m.mu.Unlock()
	m.events <- Event{Kind: EventPaused, URL: url}
}

// EmitBuffering delivers a "buffering" event for the given stream address.
func (m *Mock) EmitBuffering(url string) {
	m.events <- Event{Kind: EventBuffering, URL: url}
}

// EmitStalled delivers a "stalled" event for the given stream address.
func (m *Mock) EmitStalled(url string) {
	m.events <- Event{Kind: EventStalled, URL: url}
}

// EmitEnded delivers an "ended" event for the given stream address.
func (m *Mock) EmitEnded(url string) {
	m.events <- Event{Kind: EventEnded, URL: url}
}

// EmitFault delivers a fault event for the given stream address.
func (m *Mock) EmitFault(url string, code FaultCode, detail string) {
	m.events <- Event{Kind: EventFault, URL: url, Code: code, Detail: detail}
}

// Playing reports whether the mock's transport is running: true after a
// playing confirmation for the loaded address, false again after Pause,
// Stop, or a replacement Load.
func (m *Mock) Playing() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playing
}

// LoadedURL returns the currently loaded stream address ("" when detached).
func (m *Mock) LoadedURL() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadedURL
}

// MaxLive returns the most stream resources ever alive at the same time.
func (m *Mock) MaxLive() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maxLive
}

// Live returns the number of stream resources alive right now.
func (m *Mock) Live() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.live
}

// Volume returns the last volume applied to the output (-1 if never set).
func (m *Mock) Volume() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.volume
}

var _ Output = (*Mock)(nil)
