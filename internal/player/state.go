package player

import (
	"context"
	"time"
)

// Action tags the outcome of [Coordinator.PlayPreview].
type Action string

const (
	ActionPlayingPreview Action = "playing_preview"
	ActionPaused         Action = "paused"
	ActionOpenedSpotify  Action = "opened_spotify"
)

// Result is returned by [Coordinator.PlayPreview]. Success is always true; failures are
// reported through Action.
type Result struct {
	Success bool   `json:"success"`
	Action  Action `json:"action"`
}

// PlaybackState is an immutable snapshot handed to subscribers.
//
// ActiveTrackID is empty when no session exists, in which case Position and Duration are zero.
type PlaybackState struct {
	ActiveTrackID string        `json:"active_track_id"`
	IsPlaying     bool          `json:"is_playing"`
	Position      time.Duration `json:"position"`
	Duration      time.Duration `json:"duration"`
}

func (s PlaybackState) PositionSeconds() float64 { return s.Position.Seconds() }
func (s PlaybackState) DurationSeconds() float64 { return s.Duration.Seconds() }

// Active reports whether a session is loaded, playing or paused.
func (s PlaybackState) Active() bool { return s.ActiveTrackID != "" }

// Progress returns Position/Duration in [0,1].
func (s PlaybackState) Progress() float64 {
	if s.Duration <= 0 {
		return 0
	}
	p := float64(s.Position) / float64(s.Duration)
	return min(max(p, 0), 1)
}

// Events are the callbacks a [Media] session raises. Either may be invoked from any
// goroutine, and they must not be invoked while the media holds an internal lock.
type Events struct {
	OnEnd      func() // playback reached the end of the clip
	OnProgress func() // position advanced
}

// Backend acquires media sessions. It is the seam to the platform audio primitive.
type Backend interface {
	Open(ctx context.Context, url string, events Events) (Media, error)
}

// Media is one live playback resource.
type Media interface {
	Start(ctx context.Context) error
	Pause()
	Resume()
	Seek(d time.Duration) error
	SetVolume(v float64)
	Position() time.Duration
	Duration() time.Duration
	Close() error
}
