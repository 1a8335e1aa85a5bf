package audio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/faiface/beep"
	"github.com/faiface/beep/effects"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"

	"github.com/desertthunder/vibes/internal/player"
	"github.com/desertthunder/vibes/internal/shared"
)

const (
	SampleRate              = beep.SampleRate(44100)
	DefaultProgressInterval = 250 * time.Millisecond
	resampleQuality         = 4
	maxClipSize             = 16 << 20
)

// SpeakerBackend opens preview sessions on the default output device.
type SpeakerBackend struct {
	client   *http.Client
	interval time.Duration
	logger   *log.Logger

	initOnce sync.Once
	initErr  error
	ready    atomic.Bool
	init     func() error
}

// NewSpeakerBackend creates a backend. A nil client uses [http.DefaultClient]; a non-positive
// interval uses [DefaultProgressInterval].
func NewSpeakerBackend(client *http.Client, interval time.Duration, logger *log.Logger) *SpeakerBackend {
	if client == nil {
		client = http.DefaultClient
	}
	if interval <= 0 {
		interval = DefaultProgressInterval
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &SpeakerBackend{
		client:   client,
		interval: interval,
		logger:   logger,
		init: func() error {
			return speaker.Init(SampleRate, SampleRate.N(time.Second/10))
		},
	}
}

// Open downloads and decodes the clip at url. Playback begins on [Session.Start].
func (b *SpeakerBackend) Open(ctx context.Context, url string, events player.Events) (player.Media, error) {
	data, err := b.fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	streamer, format, err := mp3.Decode(nopSeekCloser{bytes.NewReader(data)})
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", url, err)
	}

	b.logger.Debug("clip decoded", "url", url, "rate", format.SampleRate, "length", format.SampleRate.D(streamer.Len()))
	return newSession(streamer, format, events, b.interval, b.startSpeaker), nil
}

func (b *SpeakerBackend) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrNoPreview, err)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching clip: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: clip returned status %d", shared.ErrNoPreview, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxClipSize))
	if err != nil {
		return nil, fmt.Errorf("reading clip: %w", err)
	}
	return data, nil
}

func (b *SpeakerBackend) startSpeaker() error {
	b.initOnce.Do(func() {
		b.initErr = b.init()
		b.ready.Store(b.initErr == nil)
	})
	return b.initErr
}

// Close stops everything the speaker is playing.
func (b *SpeakerBackend) Close() error {
	if b.ready.Load() {
		speaker.Clear()
	}
	return nil
}

// nopSeekCloser keeps Seek visible to the decoder, unlike [io.NopCloser].
type nopSeekCloser struct {
	io.ReadSeeker
}

func (nopSeekCloser) Close() error { return nil }

// VolumeLevel maps a linear volume in [0,1] onto a base-2 gain and a mute flag.
func VolumeLevel(v float64) (gain float64, silent bool) {
	v = shared.Clamp(v, 0, 1)
	if v == 0 {
		return 0, true
	}
	return math.Log2(v), false
}
