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

// Export writes mood recommendations to a CSV, Markdown or text file.
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	mood, err := models.ParseMood(cmd.String("mood"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidFlag, err)
	}
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidFlag, err)
	}
	genre := cmd.String("genre")

	tracks, err := r.api.Recommendations(ctx, mood, genre, int(cmd.Int("limit")))
	if err != nil {
		return err
	}
	if len(tracks) == 0 {
		return fmt.Errorf("%w: no recommendations for %s", shared.ErrTrackNotFound, mood)
	}
	r.cacheTracks(tracks)

	p := models.NewPlaylist(models.GeneratePlaylistName(mood, genre))
	for _, t := range tracks {
		p.Add(t)
	}

	dest := cmd.String("output")
	if dest == "" {
		dest = strings.ReplaceAll(strings.ToLower(p.Name), " ", "-")
	}

	r.logger.Info("exporting playlist", "name", p.Name, "format", format, "dest", dest)

	result, err := formatter.Write(ctx, r.httpClient, p, format, dest)
	if err != nil {
		return err
	}

	for _, w := range result.Warnings {
		r.logger.Warn(w)
	}

	r.writePlain("✓ Exported %q (%s)\n", p.Name, formatter.Summary(p))
	for _, f := range result.Files {
		r.writePlain("  %s\n", f)
	}
	return nil
}
