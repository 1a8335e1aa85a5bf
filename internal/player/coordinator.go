package player

import (
	"context"
	"io"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/desertthunder/vibes/internal/models"
	"github.com/desertthunder/vibes/internal/shared"
)

const (
	DefaultVolume         = 0.7
	DefaultAcquireTimeout = 10 * time.Second
)

// Fallback handles tracks that cannot be previewed in-process. It must not block.
type Fallback interface {
	Open(info models.TrackInfo)
}

// Listener receives playback snapshots.
type Listener func(PlaybackState)

// Option configures a [Coordinator].
type Option func(*Coordinator)

func WithLogger(l *log.Logger) Option {
	return func(c *Coordinator) { c.logger = l }
}

// WithVolume sets the initial volume, clamped to [0,1].
func WithVolume(v float64) Option {
	return func(c *Coordinator) { c.volume = shared.Clamp(v, 0, 1) }
}

// WithAcquireTimeout bounds opening and starting a session. Zero or negative disables the bound.
func WithAcquireTimeout(d time.Duration) Option {
	return func(c *Coordinator) { c.acquireTimeout = d }
}

// Coordinator is the audio preview coordinator.
//
// Lock order is opMu, then notifyMu, then mu or subMu. opMu serializes mutating calls across
// the whole call, including media acquisition, so a half-built session is never visible.
type Coordinator struct {
	backend        Backend
	fallback       Fallback
	logger         *log.Logger
	acquireTimeout time.Duration

	opMu sync.Mutex
	seq  uint64 // guarded by opMu

	mu      sync.RWMutex
	media   Media
	trackID string
	playing bool
	gen     uint64 // generation of the live session, 0 when idle
	volume  float64

	notifyMu sync.Mutex
	subMu    sync.Mutex
	subs     map[uuid.UUID]Listener
}

// New creates a coordinator over backend. fallback receives every track that does not end up
// playing.
func New(backend Backend, fallback Fallback, opts ...Option) *Coordinator {
	c := &Coordinator{
		backend:        backend,
		fallback:       fallback,
		logger:         log.New(io.Discard),
		acquireTimeout: DefaultAcquireTimeout,
		volume:         DefaultVolume,
		subs:           make(map[uuid.UUID]Listener),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Subscribe registers fn, invokes it once with the current snapshot and then on every change.
// The returned function deregisters fn and is safe to call more than once.
func (c *Coordinator) Subscribe(fn Listener) (unsubscribe func()) {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()

	id := uuid.New()
	c.subMu.Lock()
	c.subs[id] = fn
	c.subMu.Unlock()

	fn(c.PlaybackState())

	var once sync.Once
	return func() {
		once.Do(func() {
			c.subMu.Lock()
			delete(c.subs, id)
			c.subMu.Unlock()
		})
	}
}

// Subscribers returns the number of registered listeners.
func (c *Coordinator) Subscribers() int {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	return len(c.subs)
}

// PlaybackState returns the current snapshot.
func (c *Coordinator) PlaybackState() PlaybackState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot()
}

// snapshot requires mu.
func (c *Coordinator) snapshot() PlaybackState {
	if c.media == nil {
		return PlaybackState{}
	}
	return PlaybackState{
		ActiveTrackID: c.trackID,
		IsPlaying:     c.playing,
		Position:      c.media.Position(),
		Duration:      c.media.Duration(),
	}
}

func (c *Coordinator) CurrentTrackID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.trackID
}

// IsCurrentlyPlaying is true only for the active track while it is playing.
func (c *Coordinator) IsCurrentlyPlaying(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return id != "" && id == c.trackID && c.playing
}

func (c *Coordinator) Volume() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.volume
}

// SetVolume clamps v to [0,1], applies it to the live session and broadcasts.
func (c *Coordinator) SetVolume(v float64) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	v = shared.Clamp(v, 0, 1)
	c.mu.Lock()
	c.volume = v
	if c.media != nil {
		c.media.SetVolume(v)
	}
	c.mu.Unlock()

	c.broadcast()
}

// PlayPreview toggles the active track to paused, or replaces the session with one for t.
// Any failure to play turns into the link fallback.
func (c *Coordinator) PlayPreview(ctx context.Context, t models.Track) Result {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	info := models.ExtractTrackInfo(t)
	if c.IsCurrentlyPlaying(info.ID) {
		c.pauseLocked()
		c.broadcast()
		return Result{Success: true, Action: ActionPaused}
	}

	c.teardown()

	action := ActionPlayingPreview
	if err := c.start(ctx, info); err != nil {
		c.logger.Warn("preview unavailable, opening link", "track", info.ID, "error", err)
		c.fallback.Open(info)
		action = ActionOpenedSpotify
	} else {
		c.logger.Debug("playing preview", "track", info.ID, "name", info.Name)
	}

	c.broadcast()
	return Result{Success: true, Action: action}
}

type acquired struct {
	media Media
	err   error
}

// start acquires and starts a session for info and commits it. Requires opMu.
func (c *Coordinator) start(ctx context.Context, info models.TrackInfo) error {
	if !info.HasPreview() {
		return shared.ErrNoPreview
	}

	if c.acquireTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.acquireTimeout)
		defer cancel()
	}

	c.seq++
	gen := c.seq
	events := Events{
		OnEnd:      func() { c.handleEnd(gen) },
		OnProgress: func() { c.handleProgress(gen) },
	}
	volume := c.Volume()

	done := make(chan acquired, 1)
	go func() {
		m, err := c.backend.Open(ctx, info.PlayURLs.PreviewURL, events)
		if err == nil {
			m.SetVolume(volume)
			if err = m.Start(ctx); err != nil {
				c.release(m)
				m = nil
			}
		}
		done <- acquired{media: m, err: err}
	}()

	var r acquired
	select {
	case r = <-done:
	case <-ctx.Done():
		go func() {
			if late := <-done; late.media != nil {
				c.release(late.media)
			}
		}()
		return ctx.Err()
	}
	if r.err != nil {
		return r.err
	}

	c.mu.Lock()
	c.media = r.media
	c.trackID = info.ID
	c.playing = true
	c.gen = gen
	c.mu.Unlock()
	return nil
}

// Pause halts the playing session, keeping its position.
func (c *Coordinator) Pause() {
	c.opMu.Lock()
	defer c.opMu.Unlock()
	if c.pauseLocked() {
		c.broadcast()
	}
}

func (c *Coordinator) pauseLocked() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.media == nil || !c.playing {
		return false
	}
	c.media.Pause()
	c.playing = false
	return true
}

// Resume continues a paused session from its position.
func (c *Coordinator) Resume() {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	if c.media == nil || c.playing {
		c.mu.Unlock()
		return
	}
	c.media.Resume()
	c.playing = true
	c.mu.Unlock()

	c.broadcast()
}

// TogglePause pauses a playing session or resumes a paused one.
func (c *Coordinator) TogglePause() {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	if c.media == nil {
		c.mu.Unlock()
		return
	}
	if c.playing {
		c.media.Pause()
	} else {
		c.media.Resume()
	}
	c.playing = !c.playing
	c.mu.Unlock()

	c.broadcast()
}

// Stop releases the session and returns to idle.
func (c *Coordinator) Stop() {
	c.opMu.Lock()
	defer c.opMu.Unlock()
	if c.teardown() {
		c.broadcast()
	}
}

// Seek repositions the active session. Bounds are the caller's concern.
func (c *Coordinator) Seek(d time.Duration) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.RLock()
	m := c.media
	c.mu.RUnlock()
	if m == nil {
		return
	}
	if err := m.Seek(d); err != nil {
		c.logger.Warn("seek failed", "position", d, "error", err)
	}
	c.broadcast()
}

// Close stops playback and releases the backend when it holds resources of its own.
func (c *Coordinator) Close() error {
	c.opMu.Lock()
	defer c.opMu.Unlock()
	if c.teardown() {
		c.broadcast()
	}
	if closer, ok := c.backend.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// teardown clears the session without broadcasting and reports whether one existed.
// Requires opMu.
func (c *Coordinator) teardown() bool {
	c.mu.Lock()
	m := c.media
	c.media = nil
	c.trackID = ""
	c.playing = false
	c.gen = 0
	c.mu.Unlock()

	if m == nil {
		return false
	}
	c.release(m)
	return true
}

func (c *Coordinator) release(m Media) {
	if err := m.Close(); err != nil {
		c.logger.Warn("closing media session", "error", err)
	}
}

func (c *Coordinator) live(gen uint64) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return gen != 0 && gen == c.gen
}

// handleEnd is the implicit stop raised by the media. Events of replaced sessions are dropped.
func (c *Coordinator) handleEnd(gen uint64) {
	c.opMu.Lock()
	defer c.opMu.Unlock()
	if !c.live(gen) {
		return
	}
	c.logger.Debug("preview ended", "track", c.CurrentTrackID())
	c.teardown()
	c.broadcast()
}

func (c *Coordinator) handleProgress(gen uint64) {
	if c.live(gen) {
		c.broadcast()
	}
}

// broadcast delivers the current snapshot to every listener outside the state lock.
func (c *Coordinator) broadcast() {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()

	state := c.PlaybackState()

	c.subMu.Lock()
	listeners := slices.Collect(maps.Values(c.subs))
	c.subMu.Unlock()

	for _, fn := range listeners {
		fn(state)
	}
}
