package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/vibes/internal/formatter"
	"github.com/desertthunder/vibes/internal/models"
	"github.com/desertthunder/vibes/internal/services"
	"github.com/desertthunder/vibes/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

func tokenSource(cmd *cli.Command) oauth2.TokenSource {
	tok := strings.TrimSpace(cmd.String("token"))
	if tok == "" {
		return nil
	}
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: tok, TokenType: "Bearer"})
}

// PlaylistCreate exports the given track ids to a new Spotify playlist.
func (r *Runner) PlaylistCreate(ctx context.Context, cmd *cli.Command) error {
	ids := cmd.Args().Slice()
	if len(ids) == 0 {
		return fmt.Errorf("%w: at least one track id is required", shared.ErrMissingArgument)
	}

	p := models.NewPlaylist(cmd.String("name"))
	p.Description = cmd.String("description")
	cache := r.trackCache()
	for _, id := range ids {
		t := models.Track{ID: id}
		if cache != nil {
			if cached, ok := cache.Lookup(id); ok {
				t = cached
			}
		}
		if !p.Add(t) {
			r.logger.Warn("skipping duplicate track", "track", id)
		}
	}

	r.logger.Info("creating playlist", "name", p.Name, "tracks", p.Len())

	created, err := r.api.CreatePlaylist(ctx, tokenSource(cmd), services.PlaylistRequest{
		Name:        p.Name,
		Description: p.Description,
		TrackURIs:   p.URIs(),
		Public:      cmd.Bool("public"),
	})
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(created, cmd.Bool("pretty"))
	}

	r.writePlain("✓ Created playlist %q (%s)\n", p.Name, formatter.Summary(p))
	r.writePlain("ID: %s\n", created.ID)
	if created.URL != "" {
		r.writePlain("URL: %s\n", created.URL)
	}
	return nil
}

// PlaylistList lists the authenticated user's playlists.
func (r *Runner) PlaylistList(ctx context.Context, cmd *cli.Command) error {
	playlists, err := r.api.UserPlaylists(ctx, tokenSource(cmd))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(playlists, cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("Playlists (%d)", len(playlists)))
	for _, pl := range playlists {
		visibility := "private"
		if pl.Public {
			visibility = "public"
		}
		r.writePlain("%s  %s (%d tracks, %s)\n", pl.ID, pl.Name, pl.Tracks.Total, visibility)
	}
	return nil
}

// PlaylistTracks lists the tracks of a playlist and caches them for offline play lookups.
func (r *Runner) PlaylistTracks(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: playlist id is required", shared.ErrMissingArgument)
	}

	items, err := r.api.PlaylistTracks(ctx, id, tokenSource(cmd))
	if err != nil {
		return err
	}

	tracks := make([]models.Track, 0, len(items))
	for _, item := range items {
		if item.Track.ID != "" {
			tracks = append(tracks, item.Track)
		}
	}
	return r.showTracks(cmd, fmt.Sprintf("Playlist %s", id), tracks)
}
