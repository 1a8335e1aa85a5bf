package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/vibes/internal/models"
	"github.com/desertthunder/vibes/internal/player"
	"github.com/desertthunder/vibes/internal/services"
	"github.com/desertthunder/vibes/internal/shared"
	tu "github.com/desertthunder/vibes/internal/testing"
	"github.com/urfave/cli/v3"
)

// syncBuffer guards output written by coordinator listeners and the command goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type testEnv struct {
	runner  *Runner
	output  *syncBuffer
	backend *tu.FakeBackend
	opener  *tu.FakeOpener
}

func encode(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("encode: %v", err)
	}
}

// newTestEnv wires a runner to a fake discovery backend, fake media and a temp cache.
func newTestEnv(t *testing.T, mux *http.ServeMux) *testEnv {
	t.Helper()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	config := shared.DefaultConfig()
	config.Backend.URL = server.URL
	config.Database.Path = filepath.Join(t.TempDir(), "cache.db")

	env := &testEnv{
		output:  &syncBuffer{},
		backend: tu.NewFakeBackend(),
		opener:  &tu.FakeOpener{},
	}
	env.runner = NewRunner(RunnerOpts{
		Config:     config,
		Backend:    env.backend,
		Opener:     env.opener,
		HTTPClient: server.Client(),
		Logger:     shared.NewLogger(io.Discard),
		Output:     env.output,
	})
	t.Cleanup(func() { env.runner.Close() })
	return env
}

// waitForOutput polls until the progress line shows want, i.e. the session is committed.
func (e *testEnv) waitForOutput(t *testing.T, want string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !strings.Contains(e.output.String(), want) {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %q", want)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func (e *testEnv) run(ctx context.Context, args ...string) error {
	app := &cli.Command{
		Name:      "vibes",
		Commands:  e.runner.register(),
		Writer:    io.Discard,
		ErrWriter: io.Discard,
	}
	return app.Run(ctx, append([]string{"vibes"}, args...))
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}
			api := services.NewAPIService("http://example.com", httpClient, 0)
			backend := tu.NewFakeBackend()

			runner := NewRunner(RunnerOpts{
				Config:     config,
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
				API:        api,
				Backend:    backend,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
			if runner.api != api {
				t.Error("expected api to be set")
			}
			if runner.backend != backend {
				t.Error("expected backend to be set")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if runner.config == nil {
				t.Fatal("expected default config")
			}
			if runner.api.BaseURL() != runner.config.Backend.URL {
				t.Errorf("expected api at %s, got %s", runner.config.Backend.URL, runner.api.BaseURL())
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if runner.output != os.Stdout {
				t.Error("expected stdout")
			}
		})

		t.Run("with nil httpClient uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if runner.httpClient != http.DefaultClient {
				t.Error("expected http.DefaultClient")
			}
		})

		t.Run("coordinator is built once", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Backend: tu.NewFakeBackend()})
			if runner.player != nil {
				t.Fatal("expected lazy coordinator")
			}
			if runner.coordinator() != runner.coordinator() {
				t.Error("expected the same coordinator")
			}
		})

		t.Run("coordinator uses configured volume", func(t *testing.T) {
			config := shared.DefaultConfig()
			config.Player.Volume = 0.25
			runner := NewRunner(RunnerOpts{Config: config, Backend: tu.NewFakeBackend()})
			if v := runner.coordinator().Volume(); v != 0.25 {
				t.Errorf("expected 0.25, got %v", v)
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			err := runner.writeJSON(map[string]string{"key": "value"}, true)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if output.String() != expected {
				t.Errorf("expected %q, got %q", expected, output.String())
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			err := runner.writeJSON(make(chan int), false)
			if err == nil || !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "hello world" {
				t.Errorf("expected 'hello world', got %q", output.String())
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writePlain("test")
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		names := map[string]bool{}
		for i, cmd := range commands {
			if cmd == nil {
				t.Fatalf("command at index %d is nil", i)
			}
			names[cmd.Name] = true
		}

		for _, want := range []string{"setup", "genres", "search", "recommend", "similar", "play", "auth", "playlist", "export", "tui"} {
			if !names[want] {
				t.Errorf("expected %q to be registered", want)
			}
		}
	})
}

func TestDiscoveryCommands(t *testing.T) {
	ctx := context.Background()

	newMux := func(t *testing.T) *http.ServeMux {
		mux := http.NewServeMux()
		mux.HandleFunc("GET /search", func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("q") != "daft punk" {
				t.Errorf("unexpected query %q", r.URL.Query().Get("q"))
			}
			encode(t, w, map[string]any{"tracks": map[string]any{"items": []models.Track{tu.PreviewTrack("a"), tu.LinkOnlyTrack("b")}}})
		})
		mux.HandleFunc("POST /playlist/smart-generate", func(w http.ResponseWriter, r *http.Request) {
			encode(t, w, map[string]any{"recommendations": map[string]any{"tracks": []models.Track{tu.PreviewTrack("c")}}})
		})
		mux.HandleFunc("POST /track/similar", func(w http.ResponseWriter, r *http.Request) {
			encode(t, w, map[string]any{"tracks": []models.Track{tu.PreviewTrack("d")}})
		})
		mux.HandleFunc("GET /genres", func(w http.ResponseWriter, r *http.Request) {
			encode(t, w, map[string]any{"genres": []string{"rock", "jazz"}})
		})
		return mux
	}

	t.Run("search prints a table and caches results", func(t *testing.T) {
		env := newTestEnv(t, newMux(t))

		if err := env.run(ctx, "search", "daft punk"); err != nil {
			t.Fatalf("search failed: %v", err)
		}

		out := env.output.String()
		for _, want := range []string{"Track a", "Artist b", "2 tracks"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected %q in output:\n%s", want, out)
			}
		}
		if _, ok := env.runner.trackCache().Lookup("a"); !ok {
			t.Error("expected track a to be cached")
		}
	})

	t.Run("search requires a query", func(t *testing.T) {
		env := newTestEnv(t, newMux(t))
		err := env.run(ctx, "search")
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("search as JSON", func(t *testing.T) {
		env := newTestEnv(t, newMux(t))
		if err := env.run(ctx, "search", "--json", "daft punk"); err != nil {
			t.Fatalf("search failed: %v", err)
		}

		var tracks []models.Track
		if err := json.Unmarshal([]byte(env.output.String()), &tracks); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(tracks) != 2 {
			t.Errorf("expected 2 tracks, got %d", len(tracks))
		}
	})

	t.Run("recommend titles the list", func(t *testing.T) {
		env := newTestEnv(t, newMux(t))
		if err := env.run(ctx, "recommend", "--mood", "happy", "--genre", "rock"); err != nil {
			t.Fatalf("recommend failed: %v", err)
		}
		if !strings.Contains(env.output.String(), "My Happy Rock Playlist") {
			t.Errorf("unexpected output:\n%s", env.output.String())
		}
	})

	t.Run("recommend rejects unknown moods", func(t *testing.T) {
		env := newTestEnv(t, newMux(t))
		err := env.run(ctx, "recommend", "--mood", "angry")
		if !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})

	t.Run("similar", func(t *testing.T) {
		env := newTestEnv(t, newMux(t))
		if err := env.run(ctx, "similar", "a"); err != nil {
			t.Fatalf("similar failed: %v", err)
		}
		if !strings.Contains(env.output.String(), "Track d") {
			t.Errorf("unexpected output:\n%s", env.output.String())
		}
	})

	t.Run("genres", func(t *testing.T) {
		env := newTestEnv(t, newMux(t))
		if err := env.run(ctx, "genres"); err != nil {
			t.Fatalf("genres failed: %v", err)
		}
		if !strings.Contains(env.output.String(), "jazz") {
			t.Errorf("unexpected output:\n%s", env.output.String())
		}
	})

	t.Run("export writes a CSV file", func(t *testing.T) {
		env := newTestEnv(t, newMux(t))
		dest := filepath.Join(t.TempDir(), "happy")

		if err := env.run(ctx, "export", "--mood", "happy", "--format", "csv", "--output", dest); err != nil {
			t.Fatalf("export failed: %v", err)
		}

		tu.AssertFileExists(t, dest+".csv")
		if !strings.Contains(tu.MustReadFile(t, dest+".csv"), "Track c") {
			t.Error("expected track c in export")
		}
	})
}

func TestPlayCommand(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /spotify/track/{id}", func(w http.ResponseWriter, r *http.Request) {
		switch id := r.PathValue("id"); id {
		case "a":
			encode(t, w, tu.PreviewTrack(id))
		case "b":
			encode(t, w, tu.LinkOnlyTrack(id))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	mux.HandleFunc("GET /track/play-url", func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Query().Get("track_id")
		encode(t, w, models.PlayURLs{SpotifyWeb: "http://open.spotify.com/track/" + id, SpotifyApp: "spotify:track:" + id})
	})

	t.Run("plays until the clip ends", func(t *testing.T) {
		env := newTestEnv(t, mux)

		errc := make(chan error, 1)
		go func() { errc <- env.run(context.Background(), "play", "a") }()

		env.waitForOutput(t, "▶ Artist a - Track a")

		media := env.backend.Last()
		media.Advance(5 * time.Second)
		media.End()

		select {
		case err := <-errc:
			if err != nil {
				t.Fatalf("play failed: %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("play did not return after the clip ended")
		}

		out := env.output.String()
		for _, want := range []string{"▶ Artist a - Track a", "0:05 / 0:30", "Finished"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected %q in output:\n%s", want, out)
			}
		}

		recent, err := env.runner.trackCache().Recent(5)
		if err != nil || len(recent) != 1 || recent[0].ID != "a" {
			t.Errorf("expected a in history, got %v (%v)", recent, err)
		}
	})

	t.Run("cancel stops playback", func(t *testing.T) {
		env := newTestEnv(t, mux)
		ctx, cancel := context.WithCancel(context.Background())

		errc := make(chan error, 1)
		go func() { errc <- env.run(ctx, "play", "a") }()

		env.waitForOutput(t, "▶ Artist a - Track a")
		cancel()

		select {
		case <-errc:
		case <-time.After(2 * time.Second):
			t.Fatal("play did not return after cancel")
		}
		if !env.backend.Last().Closed() {
			t.Error("expected media to be released")
		}
		if !strings.Contains(env.output.String(), "Stopped") {
			t.Errorf("unexpected output:\n%s", env.output.String())
		}
	})

	t.Run("track without preview opens Spotify", func(t *testing.T) {
		env := newTestEnv(t, mux)

		if err := env.run(context.Background(), "play", "b"); err != nil {
			t.Fatalf("play failed: %v", err)
		}

		if urls := env.opener.URLs(); len(urls) != 1 || urls[0] != "http://open.spotify.com/track/b" {
			t.Errorf("unexpected opened urls %v", urls)
		}
		if len(env.backend.Opened()) != 0 {
			t.Error("expected no media session")
		}
		if !strings.Contains(env.output.String(), "opened http://open.spotify.com/track/b") {
			t.Errorf("unexpected output:\n%s", env.output.String())
		}
	})

	t.Run("cached tracks resolve without the backend", func(t *testing.T) {
		env := newTestEnv(t, http.NewServeMux())
		if _, err := env.runner.trackCache().CacheTracks([]models.Track{tu.LinkOnlyTrack("z")}); err != nil {
			t.Fatalf("cache: %v", err)
		}

		if err := env.run(context.Background(), "play", "z"); err != nil {
			t.Fatalf("play failed: %v", err)
		}
		if len(env.opener.URLs()) != 1 {
			t.Errorf("expected fallback link, got %v", env.opener.URLs())
		}
	})

	t.Run("unknown track", func(t *testing.T) {
		env := newTestEnv(t, mux)
		err := env.run(context.Background(), "play", "missing")
		if !errors.Is(err, shared.ErrTrackNotFound) {
			t.Errorf("expected ErrTrackNotFound, got %v", err)
		}
	})
}

func TestPlaylistCommands(t *testing.T) {
	var created map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("POST /playlist/create", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			t.Errorf("unexpected auth header %q", r.Header.Get("Authorization"))
		}
		if err := json.NewDecoder(r.Body).Decode(&created); err != nil {
			t.Errorf("decode: %v", err)
		}
		encode(t, w, services.PlaylistCreated{ID: "pl1", URL: "http://open.spotify.com/playlist/pl1"})
	})
	mux.HandleFunc("GET /user/playlists", func(w http.ResponseWriter, r *http.Request) {
		encode(t, w, map[string]any{"playlists": []map[string]any{{"id": "pl1", "name": "Mine", "public": true}}})
	})

	t.Run("create", func(t *testing.T) {
		env := newTestEnv(t, mux)
		err := env.run(context.Background(), "playlist", "create", "--token", "tok", "--name", "Road Trip", "a", "b", "a")
		if err != nil {
			t.Fatalf("create failed: %v", err)
		}

		uris, _ := created["track_uris"].([]any)
		if len(uris) != 2 || uris[0] != "spotify:track:a" {
			t.Errorf("unexpected uris %v", created["track_uris"])
		}
		if !strings.Contains(env.output.String(), "pl1") {
			t.Errorf("unexpected output:\n%s", env.output.String())
		}
	})

	t.Run("list", func(t *testing.T) {
		env := newTestEnv(t, mux)
		if err := env.run(context.Background(), "playlist", "list", "--token", "tok"); err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if !strings.Contains(env.output.String(), "Mine") {
			t.Errorf("unexpected output:\n%s", env.output.String())
		}
	})
}

func TestProgressLine(t *testing.T) {
	info := tu.PreviewTrack("a").Info()

	tests := []struct {
		name  string
		state player.PlaybackState
		want  string
	}{
		{
			"start",
			player.PlaybackState{ActiveTrackID: "a", IsPlaying: true, Duration: 30 * time.Second},
			"▶ Artist a - Track a [" + strings.Repeat("-", progressWidth) + "] 0:00 / 0:30",
		},
		{
			"half paused",
			player.PlaybackState{ActiveTrackID: "a", Position: 15 * time.Second, Duration: 30 * time.Second},
			"⏸ Artist a - Track a [" + strings.Repeat("#", progressWidth/2) + strings.Repeat("-", progressWidth/2) + "] 0:15 / 0:30",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := progressLine(info, tt.state); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
