package audio

import (
	"context"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/effects"
	"github.com/faiface/beep/speaker"

	"github.com/desertthunder/vibes/internal/player"
)

// Session is one playing clip. It implements [player.Media].
type Session struct {
	source beep.StreamSeekCloser
	format beep.Format
	ctrl   *beep.Ctrl
	volume *effects.Volume

	events   player.Events
	interval time.Duration
	start    func() error

	closed bool // guarded by the speaker lock

	stopOnce sync.Once
	done     chan struct{}
}

func newSession(source beep.StreamSeekCloser, format beep.Format, events player.Events, interval time.Duration, start func() error) *Session {
	var stream beep.Streamer = source
	if format.SampleRate != SampleRate {
		stream = beep.Resample(resampleQuality, format.SampleRate, SampleRate, source)
	}
	volume := &effects.Volume{Streamer: stream, Base: 2}
	return &Session{
		source:   source,
		format:   format,
		volume:   volume,
		ctrl:     &beep.Ctrl{Streamer: volume},
		events:   events,
		interval: interval,
		start:    start,
		done:     make(chan struct{}),
	}
}

// Start initializes the speaker on first use and begins playback.
func (s *Session) Start(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.start(); err != nil {
		return err
	}

	speaker.Lock()
	closed := s.closed
	speaker.Unlock()
	if closed {
		return context.Canceled
	}

	speaker.Play(beep.Seq(s.ctrl, beep.Callback(s.finished)))
	go s.tick()
	return nil
}

// finished runs under the speaker lock, so the end event is raised on another goroutine.
func (s *Session) finished() {
	if s.closed {
		return
	}
	s.halt()
	if s.events.OnEnd != nil {
		go s.events.OnEnd()
	}
}

func (s *Session) tick() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			speaker.Lock()
			paused := s.ctrl.Paused
			speaker.Unlock()
			if !paused && s.events.OnProgress != nil {
				s.events.OnProgress()
			}
		}
	}
}

func (s *Session) halt() {
	s.stopOnce.Do(func() { close(s.done) })
}

func (s *Session) Pause() {
	speaker.Lock()
	s.ctrl.Paused = true
	speaker.Unlock()
}

func (s *Session) Resume() {
	speaker.Lock()
	s.ctrl.Paused = false
	speaker.Unlock()
}

// Seek moves to d, clamped to the clip.
func (s *Session) Seek(d time.Duration) error {
	speaker.Lock()
	defer speaker.Unlock()
	p := s.format.SampleRate.N(d)
	return s.source.Seek(min(max(p, 0), max(s.source.Len()-1, 0)))
}

func (s *Session) SetVolume(v float64) {
	gain, silent := VolumeLevel(v)
	speaker.Lock()
	s.volume.Volume = gain
	s.volume.Silent = silent
	speaker.Unlock()
}

func (s *Session) Position() time.Duration {
	speaker.Lock()
	defer speaker.Unlock()
	return s.format.SampleRate.D(s.source.Position())
}

func (s *Session) Duration() time.Duration {
	return s.format.SampleRate.D(s.source.Len())
}

// Close detaches the clip from the speaker and releases the decoder. It never raises OnEnd.
func (s *Session) Close() error {
	speaker.Lock()
	s.closed = true
	s.ctrl.Streamer = nil
	speaker.Unlock()

	s.halt()
	return s.source.Close()
}
