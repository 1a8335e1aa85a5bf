package testing

import (
	"context"
	"sync"
	"time"

	"github.com/desertthunder/vibes/internal/player"
)

// FakeMedia is an in-memory [player.Media] whose events are raised by the test.
type FakeMedia struct {
	URL    string
	Events player.Events

	mu       sync.Mutex
	started  bool
	paused   bool
	closed   bool
	volume   float64
	position time.Duration
	duration time.Duration
	startErr error
}

func (m *FakeMedia) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.startErr != nil {
		return m.startErr
	}
	m.started = true
	return nil
}

func (m *FakeMedia) Pause() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paused = true
}

func (m *FakeMedia) Resume() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paused = false
}

func (m *FakeMedia) Seek(d time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.position = d
	return nil
}

func (m *FakeMedia) SetVolume(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.volume = v
}

func (m *FakeMedia) Position() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.position
}

func (m *FakeMedia) Duration() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.duration
}

func (m *FakeMedia) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *FakeMedia) Started() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.started
}

func (m *FakeMedia) Paused() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.paused
}

func (m *FakeMedia) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *FakeMedia) Volume() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.volume
}

// Advance moves the position forward and raises OnProgress.
func (m *FakeMedia) Advance(d time.Duration) {
	m.mu.Lock()
	m.position += d
	m.mu.Unlock()
	if m.Events.OnProgress != nil {
		m.Events.OnProgress()
	}
}

// End raises OnEnd.
func (m *FakeMedia) End() {
	if m.Events.OnEnd != nil {
		m.Events.OnEnd()
	}
}

// FakeBackend hands out [FakeMedia] sessions and records them.
type FakeBackend struct {
	Duration time.Duration
	OpenErr  error
	StartErr error
	Block    bool // Open waits for ctx to expire

	mu     sync.Mutex
	opened []*FakeMedia
	closed bool
}

func NewFakeBackend() *FakeBackend {
	return &FakeBackend{Duration: 30 * time.Second}
}

func (b *FakeBackend) Open(ctx context.Context, url string, events player.Events) (player.Media, error) {
	if b.Block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if b.OpenErr != nil {
		return nil, b.OpenErr
	}

	m := &FakeMedia{URL: url, Events: events, duration: b.Duration, startErr: b.StartErr}
	b.mu.Lock()
	b.opened = append(b.opened, m)
	b.mu.Unlock()
	return m, nil
}

func (b *FakeBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

// Opened returns every session handed out, oldest first.
func (b *FakeBackend) Opened() []*FakeMedia {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*FakeMedia(nil), b.opened...)
}

// Last returns the newest session or nil.
func (b *FakeBackend) Last() *FakeMedia {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.opened) == 0 {
		return nil
	}
	return b.opened[len(b.opened)-1]
}

func (b *FakeBackend) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

// FakeOpener records the URLs it is asked to open.
type FakeOpener struct {
	Err error

	mu   sync.Mutex
	urls []string
}

func (o *FakeOpener) Open(url string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.urls = append(o.urls, url)
	return o.Err
}

func (o *FakeOpener) URLs() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.urls...)
}

// StateRecorder collects every snapshot a subscriber receives.
type StateRecorder struct {
	mu     sync.Mutex
	states []player.PlaybackState
}

func (r *StateRecorder) Record(s player.PlaybackState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, s)
}

func (r *StateRecorder) States() []player.PlaybackState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]player.PlaybackState(nil), r.states...)
}

func (r *StateRecorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.states)
}

// Last returns the newest snapshot, or the zero state when none was recorded.
func (r *StateRecorder) Last() player.PlaybackState {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.states) == 0 {
		return player.PlaybackState{}
	}
	return r.states[len(r.states)-1]
}
