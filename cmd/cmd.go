// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func outputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print JSON output",
		},
	}
}

func limitFlag(value int) cli.Flag {
	return &cli.IntFlag{
		Name:    "limit",
		Aliases: []string{"n"},
		Usage:   "Maximum number of tracks to return",
		Value:   value,
	}
}

func moodFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "mood",
			Aliases:  []string{"m"},
			Usage:    "Mood: happy, sad, energetic, chill or party",
			Required: true,
		},
		&cli.StringFlag{
			Name:    "genre",
			Aliases: []string{"g"},
			Usage:   "Seed genre, see 'vibes genres'",
		},
	}
}

func tokenFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "token",
		Aliases:  []string{"t"},
		Usage:    "Spotify access token returned by 'vibes auth callback'",
		Sources:  cli.EnvVars("VIBES_TOKEN"),
		Required: true,
	}
}

func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create config.toml and initialize the track cache",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.Setup,
	}
}

func healthCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "health",
		Usage:  "Check that the discovery backend is reachable",
		Action: r.Health,
	}
}

func genresCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "genres",
		Usage:  "List the genres accepted by recommend",
		Flags:  outputFlags(),
		Action: r.Genres,
	}
}

func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "search",
		Aliases: []string{"s"},
		Usage:   "Search tracks",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "query",
			},
		},
		Flags:  append(outputFlags(), limitFlag(20)),
		Action: r.Search,
	}
}

func recommendCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "recommend",
		Aliases: []string{"rec"},
		Usage:   "Recommend tracks for a mood and genre",
		Flags:   append(append(moodFlags(), outputFlags()...), limitFlag(20)),
		Action:  r.Recommend,
	}
}

func similarCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "similar",
		Usage: "List tracks similar to a track",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "id",
			},
		},
		Flags:  append(outputFlags(), limitFlag(10)),
		Action: r.Similar,
	}
}

func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "history",
		Usage:  "List recently previewed tracks from the cache",
		Flags:  append(outputFlags(), limitFlag(10)),
		Action: r.History,
	}
}

func playCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "play",
		Aliases: []string{"p"},
		Usage:   "Preview a track; opens Spotify when no preview exists. ctrl+c stops",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "id",
			},
		},
		Flags: []cli.Flag{
			&cli.FloatFlag{
				Name:    "volume",
				Aliases: []string{"v"},
				Usage:   "Volume in [0, 1]; defaults to player.volume",
				Value:   -1,
			},
		},
		Action: r.Play,
	}
}

func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Spotify authorization through the backend",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Print the Spotify authorization URL and open it in the browser",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "no-browser",
						Usage: "Only print the URL",
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:  "callback",
				Usage: "Exchange the authorization code for an access token",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:     "code",
						Usage:    "Authorization code from the redirect URL",
						Required: true,
					},
				}, outputFlags()...),
				Action: r.AuthCallback,
			},
		},
	}
}

func playlistCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "playlist",
		Aliases: []string{"pl"},
		Usage:   "Spotify playlist operations",
		Commands: []*cli.Command{
			{
				Name:      "create",
				Usage:     "Create a Spotify playlist from track ids",
				ArgsUsage: "<track-id...>",
				Flags: append([]cli.Flag{
					tokenFlag(),
					&cli.StringFlag{
						Name:     "name",
						Usage:    "Playlist name",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "description",
						Usage: "Playlist description",
					},
					&cli.BoolFlag{
						Name:  "public",
						Usage: "Make the playlist public",
					},
				}, outputFlags()...),
				Action: r.PlaylistCreate,
			},
			{
				Name:   "list",
				Usage:  "List the user's Spotify playlists",
				Flags:  append([]cli.Flag{tokenFlag()}, outputFlags()...),
				Action: r.PlaylistList,
			},
			{
				Name:  "tracks",
				Usage: "List the tracks of a Spotify playlist",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "id",
					},
				},
				Flags:  append([]cli.Flag{tokenFlag()}, outputFlags()...),
				Action: r.PlaylistTracks,
			},
		},
	}
}

func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export mood recommendations to CSV, Markdown or text",
		Flags: append(moodFlags(),
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Export format: csv, md or text",
				Value:   "csv",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output file, or directory for md; defaults to the playlist name",
			},
			limitFlag(20),
		),
		Action: r.Export,
	}
}

func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "tui",
		Usage:  "Launch the interactive client",
		Action: r.TUI,
	}
}
