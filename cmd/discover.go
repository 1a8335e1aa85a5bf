package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/vibes/internal/formatter"
	"github.com/desertthunder/vibes/internal/models"
	"github.com/desertthunder/vibes/internal/shared"
	"github.com/urfave/cli/v3"
)

// Genres lists the genre seeds accepted by the backend.
func (r *Runner) Genres(ctx context.Context, cmd *cli.Command) error {
	genres, err := r.api.Genres(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(genres, cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("Genres (%d)", len(genres)))
	for _, g := range genres {
		r.writePlain("%s\n", g)
	}
	return nil
}

// Search finds tracks matching the query argument.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	query := strings.TrimSpace(cmd.StringArg("query"))
	if query == "" {
		return fmt.Errorf("%w: search query is required", shared.ErrMissingArgument)
	}

	r.logger.Info("searching tracks", "query", query)

	tracks, err := r.api.Search(ctx, query, int(cmd.Int("limit")))
	if err != nil {
		return err
	}
	return r.showTracks(cmd, fmt.Sprintf("Results for %q", query), tracks)
}

// Recommend lists tracks for the --mood and --genre flags.
func (r *Runner) Recommend(ctx context.Context, cmd *cli.Command) error {
	mood, err := models.ParseMood(cmd.String("mood"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidFlag, err)
	}
	genre := cmd.String("genre")

	r.logger.Info("requesting recommendations", "mood", mood, "genre", genre)

	tracks, err := r.api.Recommendations(ctx, mood, genre, int(cmd.Int("limit")))
	if err != nil {
		return err
	}
	return r.showTracks(cmd, models.GeneratePlaylistName(mood, genre), tracks)
}

// Similar lists tracks similar to the id argument.
func (r *Runner) Similar(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: track id is required", shared.ErrMissingArgument)
	}

	tracks, err := r.api.SimilarTracks(ctx, id, int(cmd.Int("limit")))
	if err != nil {
		return err
	}
	return r.showTracks(cmd, fmt.Sprintf("Similar to %s", id), tracks)
}

// History lists recently previewed tracks from the cache.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	cache := r.trackCache()
	if cache == nil {
		return fmt.Errorf("%w: track cache not available, run 'vibes setup'", shared.ErrServiceUnavailable)
	}

	tracks, err := cache.Recent(int(cmd.Int("limit")))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(tracks, cmd.Bool("pretty"))
	}
	r.writePlainHeader("Recently played")
	return formatter.WriteTable(r.output, tracks, nil)
}

// showTracks caches tracks and prints them as JSON or a table with a playlist summary.
func (r *Runner) showTracks(cmd *cli.Command, title string, tracks []models.Track) error {
	r.cacheTracks(tracks)

	if cmd.Bool("json") {
		return r.writeJSON(tracks, cmd.Bool("pretty"))
	}

	r.writePlainHeader(title)
	if len(tracks) == 0 {
		return r.writePlain("No tracks found\n")
	}

	if err := formatter.WriteTable(r.output, tracks, nil); err != nil {
		return err
	}

	p := models.NewPlaylist(title)
	for _, t := range tracks {
		p.Add(t)
	}
	return r.writePlainln("%s", formatter.Summary(p))
}

func (r *Runner) cacheTracks(tracks []models.Track) {
	cache := r.trackCache()
	if cache == nil || len(tracks) == 0 {
		return
	}
	if n, err := cache.CacheTracks(tracks); err != nil {
		r.logger.Warn("failed to cache tracks", "error", err)
	} else {
		r.logger.Debug("cached tracks", "count", n)
	}
}
