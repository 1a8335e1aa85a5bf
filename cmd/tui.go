package main

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/vibes/internal/formatter"
	"github.com/desertthunder/vibes/internal/shared"
	"github.com/desertthunder/vibes/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive client.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/vibes-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	opts := ui.Options{Logger: shared.WithLogger(fileLogger, "component", "ui")}
	if cache := r.trackCache(); cache != nil {
		opts.Cache = cache
	}

	model := ui.NewModel(ctx, r.api, r.coordinator(), opts)
	defer model.Close()

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	if pl := model.Playlist(); pl.Len() > 0 {
		ids := make([]string, 0, pl.Len())
		for _, t := range pl.Tracks {
			ids = append(ids, t.ID)
		}
		r.writePlain("%s: %s\n", pl.Name, formatter.Summary(pl))
		r.writePlain("Export it with: vibes playlist create --name %q %s\n", pl.Name, strings.Join(ids, " "))
	}
	return nil
}
