package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"

	"github.com/desertthunder/vibes/internal/models"
	"github.com/desertthunder/vibes/internal/player"
	"github.com/desertthunder/vibes/internal/shared"
	"github.com/urfave/cli/v3"
)

const progressWidth = 24

// Play previews a track with a live progress line until the clip ends or ctrl+c is pressed.
// Tracks without a preview are opened on Spotify instead.
func (r *Runner) Play(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: track id is required", shared.ErrMissingArgument)
	}

	track, err := r.resolveTrack(ctx, id)
	if err != nil {
		return err
	}
	info := track.Info()

	c := r.coordinator()
	if v := cmd.Float("volume"); v >= 0 {
		c.SetVolume(v)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	var (
		started bool
		once    sync.Once
		done    = make(chan struct{})
	)
	unsubscribe := c.Subscribe(func(s player.PlaybackState) {
		if s.ActiveTrackID == info.ID {
			started = true
			r.writePlain("\r%s", progressLine(info, s))
			return
		}
		if started {
			once.Do(func() { close(done) })
		}
	})
	defer unsubscribe()

	res := c.PlayPreview(ctx, *track)
	r.logger.Debug("play", "track", info.ID, "action", res.Action)

	if res.Action == player.ActionOpenedSpotify {
		link := info.PlayURLs.SpotifyWeb
		if link == "" {
			link = info.PlayURLs.SpotifyApp
		}
		return r.writePlain("No preview for %s, opened %s\n", info, link)
	}

	if cache := r.trackCache(); cache != nil {
		cache.Played(info.ID)
	}

	select {
	case <-done:
		return r.writePlainln("✓ Finished %s", info)
	case <-ctx.Done():
		c.Stop()
		return r.writePlainln("■ Stopped %s", info)
	}
}

// resolveTrack looks id up in the cache first and then asks the backend. Records fetched from
// the backend are cached. Missing play links are filled from /track/play-url when possible.
func (r *Runner) resolveTrack(ctx context.Context, id string) (*models.Track, error) {
	cache := r.trackCache()
	if cache != nil {
		if t, ok := cache.Lookup(id); ok {
			r.logger.Debug("track resolved from cache", "track", id)
			return &t, nil
		}
	}

	track, err := r.api.Track(ctx, id)
	if err != nil {
		return nil, err
	}

	if track.PlayURLs == nil && track.PreviewURL == nil {
		if urls, err := r.api.PlayURLs(ctx, id); err == nil {
			track.PlayURLs = urls
		} else {
			r.logger.Debug("no play urls", "track", id, "error", err)
		}
	}

	r.cacheTracks([]models.Track{*track})
	return track, nil
}

// progressLine renders "▶ Artist - Name [#####-----] 0:05 / 0:30".
func progressLine(info models.TrackInfo, s player.PlaybackState) string {
	icon := "⏸"
	if s.IsPlaying {
		icon = "▶"
	}

	filled := int(s.Progress() * progressWidth)
	bar := strings.Repeat("#", filled) + strings.Repeat("-", progressWidth-filled)

	return fmt.Sprintf("%s %s [%s] %s / %s", icon, info, bar,
		models.FormatDuration(int(s.Position.Milliseconds())),
		models.FormatDuration(int(s.Duration.Milliseconds())))
}
