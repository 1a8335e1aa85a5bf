package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/vibes/internal/audio"
	"github.com/desertthunder/vibes/internal/player"
	"github.com/desertthunder/vibes/internal/repositories"
	"github.com/desertthunder/vibes/internal/services"
	"github.com/desertthunder/vibes/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	api        *services.APIService
	player     *player.Coordinator
	backend    player.Backend
	opener     player.LinkOpener
	cache      *repositories.TrackCacheAdapter
	db         *sql.DB
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	API        *services.APIService
	Backend    player.Backend
	Opener     player.LinkOpener
	Cache      *repositories.TrackCacheAdapter
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration.
//
// The coordinator is built on first use and then shared by every command. A nil Backend uses
// the speaker backend and a nil Opener uses the system browser.
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.API == nil {
		opts.API = services.NewAPIService(opts.Config.Backend.URL, opts.HTTPClient, opts.Config.Backend.RateLimit)
	}
	opts.API.SetLogger(shared.WithLogger(opts.Logger, "component", "api"))

	if opts.Opener == nil {
		opts.Opener = shared.BrowserOpener{}
	}

	return &Runner{
		config:     opts.Config,
		api:        opts.API,
		backend:    opts.Backend,
		opener:     opts.Opener,
		cache:      opts.Cache,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

// coordinator returns the shared playback coordinator, building it with the current logger.
func (r *Runner) coordinator() *player.Coordinator {
	if r.player != nil {
		return r.player
	}

	cfg := r.config
	if r.backend == nil {
		r.backend = audio.NewSpeakerBackend(r.httpClient, cfg.Player.ProgressInterval.Duration, shared.WithLogger(r.logger, "component", "audio"))
	}
	mobile := cfg.Device.Mobile || player.IsMobile(cfg.Device.UserAgent)

	fallback := player.NewLinkFallback(r.opener, mobile, shared.WithLogger(r.logger, "component", "fallback"))
	if d := cfg.Player.DeepLinkDelay.Duration; d > 0 {
		fallback.Delay = d
	}

	opts := []player.Option{
		player.WithLogger(shared.WithLogger(r.logger, "component", "player")),
		player.WithVolume(cfg.Player.Volume),
	}
	if d := cfg.Player.AcquireTimeout.Duration; d > 0 {
		opts = append(opts, player.WithAcquireTimeout(d))
	}
	r.player = player.New(r.backend, fallback, opts...)
	return r.player
}

// SetLogger replaces the runner's logger. Call it before the first command that plays audio.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
	r.api.SetLogger(shared.WithLogger(l, "component", "api"))
}

// trackCache opens the sqlite cache on first use. A cache that cannot be opened is logged
// and reported as nil; commands work without it.
func (r *Runner) trackCache() *repositories.TrackCacheAdapter {
	if r.cache != nil {
		return r.cache
	}

	db, err := shared.OpenCache(r.config.Database)
	if err != nil {
		r.logger.Warn("track cache unavailable", "path", r.config.Database.Path, "error", err)
		return nil
	}

	r.db = db
	r.cache = repositories.NewTrackCacheAdapter(repositories.NewTrackRepository(db), shared.WithLogger(r.logger, "component", "cache"))
	return r.cache
}

// Close stops playback and releases the cache database.
func (r *Runner) Close() error {
	var err error
	if r.player != nil {
		err = r.player.Close()
	}
	if r.db != nil {
		if dbErr := r.db.Close(); dbErr != nil && err == nil {
			err = dbErr
		}
	}
	return err
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, healthCommand, genresCommand, searchCommand, recommendCommand, similarCommand,
		historyCommand, playCommand, authCommand, playlistCommand, exportCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
