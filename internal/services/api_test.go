package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"github.com/desertthunder/vibes/internal/models"
	"github.com/desertthunder/vibes/internal/shared"
	tu "github.com/desertthunder/vibes/internal/testing"
)

func newTestService(t *testing.T, handler http.HandlerFunc) *APIService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewAPIService(server.URL, server.Client(), 0)
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Fatalf("encode: %v", err)
	}
}

func decodeBody(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		t.Fatalf("decode request: %v", err)
	}
	return body
}

func TestNewAPIService(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		srv := NewAPIService("", nil, 0)
		if srv.BaseURL() != DefaultBaseURL {
			t.Errorf("expected default base url, got %s", srv.BaseURL())
		}
		if srv.httpClient != http.DefaultClient {
			t.Error("expected http.DefaultClient to be used")
		}
	})

	t.Run("trims trailing slash", func(t *testing.T) {
		srv := NewAPIService("http://example.com/", nil, 2)
		if srv.BaseURL() != "http://example.com" {
			t.Errorf("got %s", srv.BaseURL())
		}
		if srv.limiter.Limit() != 2 {
			t.Errorf("limit = %v", srv.limiter.Limit())
		}
	})
}

func TestGenres(t *testing.T) {
	srv := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/genres" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		writeJSON(t, w, map[string]any{"genres": []string{"rock", "jazz"}})
	})

	genres, err := srv.Genres(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if strings.Join(genres, ",") != "rock,jazz" {
		t.Errorf("got %v", genres)
	}
}

func TestSearch(t *testing.T) {
	t.Run("query parameters and items", func(t *testing.T) {
		srv := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			if r.URL.Path != "/search" || q.Get("q") != "daft punk" || q.Get("type") != "track" || q.Get("limit") != "5" {
				t.Errorf("unexpected request %s", r.URL)
			}
			writeJSON(t, w, map[string]any{"tracks": map[string]any{"items": []models.Track{tu.PreviewTrack("a")}}})
		})

		tracks, err := srv.Search(context.Background(), "daft punk", 5)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(tracks) != 1 || tracks[0].ID != "a" || tracks[0].PreviewURL == nil {
			t.Errorf("unexpected tracks %+v", tracks)
		}
	})

	t.Run("blank query makes no request", func(t *testing.T) {
		srv := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("no request expected")
		})
		tracks, err := srv.Search(context.Background(), "   ", 10)
		if err != nil || tracks == nil || len(tracks) != 0 {
			t.Errorf("got %v, %v", tracks, err)
		}
	})

	t.Run("default limit and missing items", func(t *testing.T) {
		srv := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("limit") != "20" {
				t.Errorf("limit = %s", r.URL.Query().Get("limit"))
			}
			writeJSON(t, w, map[string]any{})
		})
		tracks, err := srv.Search(context.Background(), "x", 0)
		if err != nil || tracks == nil || len(tracks) != 0 {
			t.Errorf("got %v, %v", tracks, err)
		}
	})
}

func TestRecommendationsAndSimilar(t *testing.T) {
	srv := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("missing content type")
		}
		body := decodeBody(t, r)
		switch r.URL.Path {
		case "/playlist/smart-generate":
			if body["mood"] != "happy" || body["genre"] != "rock" || body["limit"] != float64(20) {
				t.Errorf("unexpected body %v", body)
			}
			writeJSON(t, w, map[string]any{"recommendations": map[string]any{"tracks": []models.Track{tu.PreviewTrack("r")}}})
		case "/track/similar":
			if body["track_id"] != "a" || body["limit"] != float64(10) {
				t.Errorf("unexpected body %v", body)
			}
			writeJSON(t, w, map[string]any{"tracks": []models.Track{tu.LinkOnlyTrack("s")}})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})
	ctx := context.Background()

	recs, err := srv.Recommendations(ctx, models.MoodHappy, "rock", 0)
	if err != nil || len(recs) != 1 || recs[0].ID != "r" {
		t.Errorf("Recommendations() = %v, %v", recs, err)
	}

	similar, err := srv.SimilarTracks(ctx, "a", 0)
	if err != nil || len(similar) != 1 || similar[0].ID != "s" {
		t.Errorf("SimilarTracks() = %v, %v", similar, err)
	}

	if _, err := srv.SimilarTracks(ctx, "", 0); !errors.Is(err, shared.ErrMissingArgument) {
		t.Errorf("expected ErrMissingArgument, got %v", err)
	}
}

func TestTrackLookups(t *testing.T) {
	srv := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/track/play-url":
			if r.URL.Query().Get("track_id") != "a" {
				t.Errorf("unexpected query %s", r.URL.RawQuery)
			}
			writeJSON(t, w, models.PlayURLs{SpotifyWeb: "web", SpotifyApp: "app", PreviewURL: "preview"})
		case r.URL.Path == "/spotify/track/a":
			writeJSON(t, w, tu.PreviewTrack("a"))
		case r.URL.Path == "/spotify/track/empty":
			writeJSON(t, w, map[string]any{})
		default:
			w.WriteHeader(http.StatusNotFound)
			writeJSON(t, w, map[string]string{"error": "Endpoint not found"})
		}
	})
	ctx := context.Background()

	urls, err := srv.PlayURLs(ctx, "a")
	if err != nil || urls.PreviewURL != "preview" || urls.SpotifyApp != "app" {
		t.Errorf("PlayURLs() = %+v, %v", urls, err)
	}

	track, err := srv.Track(ctx, "a")
	if err != nil || track.Name != "Track a" {
		t.Errorf("Track() = %+v, %v", track, err)
	}

	for _, id := range []string{"missing", "empty"} {
		if _, err := srv.Track(ctx, id); !errors.Is(err, shared.ErrTrackNotFound) {
			t.Errorf("Track(%q) expected ErrTrackNotFound, got %v", id, err)
		}
	}
}

func TestAuth(t *testing.T) {
	srv := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			writeJSON(t, w, map[string]string{"auth_url": "https://accounts.spotify.com/authorize?x=1"})
		case "/auth/callback":
			body := decodeBody(t, r)
			if body["code"] != "good" {
				w.WriteHeader(http.StatusBadRequest)
				writeJSON(t, w, map[string]string{"error": "invalid code"})
				return
			}
			writeJSON(t, w, map[string]string{"access_token": "tok"})
		}
	})
	ctx := context.Background()

	authURL, err := srv.AuthURL(ctx)
	if err != nil || !strings.HasPrefix(authURL, "https://accounts.spotify.com") {
		t.Errorf("AuthURL() = %q, %v", authURL, err)
	}

	tok, err := srv.ExchangeCode(ctx, "good")
	if err != nil {
		t.Fatalf("ExchangeCode() error = %v", err)
	}
	if tok.AccessToken != "tok" || tok.Type() != "Bearer" {
		t.Errorf("unexpected token %+v", tok)
	}

	_, err = srv.ExchangeCode(ctx, "bad")
	if !errors.Is(err, shared.ErrAuthFailed) || !strings.Contains(err.Error(), "invalid code") {
		t.Errorf("expected ErrAuthFailed with message, got %v", err)
	}

	if _, err := srv.ExchangeCode(ctx, ""); !errors.Is(err, shared.ErrMissingArgument) {
		t.Errorf("expected ErrMissingArgument, got %v", err)
	}
}

func TestPlaylists(t *testing.T) {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "secret"})

	srv := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/playlist/create":
			if r.Header.Get("Authorization") != "Bearer secret" {
				t.Errorf("missing bearer header")
			}
			body := decodeBody(t, r)
			if body["access_token"] != "secret" || body["name"] != "My Happy Rock Playlist" || body["public"] != true {
				t.Errorf("unexpected body %v", body)
			}
			if desc, _ := body["description"].(string); !strings.HasPrefix(desc, "Created by vibes on ") {
				t.Errorf("unexpected description %q", desc)
			}
			if uris, _ := body["track_uris"].([]any); len(uris) != 2 {
				t.Errorf("unexpected uris %v", body["track_uris"])
			}
			writeJSON(t, w, PlaylistCreated{ID: "p1", URL: "https://open.spotify.com/playlist/p1"})
		case "/user/playlists":
			if r.Header.Get("Authorization") != "Bearer secret" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			io.WriteString(w, `{"playlists":[{"id":"p1","name":"Mix","tracks":{"total":12}}]}`)
		case "/playlist/p1/tracks":
			if r.Header.Get("Authorization") != "" {
				t.Errorf("public lookup should not send a token")
			}
			writeJSON(t, w, map[string]any{"items": []PlaylistItem{{AddedAt: "2025-01-01", Track: tu.PreviewTrack("a")}}})
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	t.Run("create", func(t *testing.T) {
		created, err := srv.CreatePlaylist(ctx, ts, PlaylistRequest{
			Name:      models.GeneratePlaylistName(models.MoodHappy, "rock"),
			TrackURIs: []string{"spotify:track:a", "spotify:track:b"},
			Public:    true,
		})
		if err != nil {
			t.Fatalf("CreatePlaylist() error = %v", err)
		}
		if created.ID != "p1" || created.URL == "" {
			t.Errorf("unexpected result %+v", created)
		}
	})

	t.Run("create validation", func(t *testing.T) {
		tests := []struct {
			name string
			ts   oauth2.TokenSource
			req  PlaylistRequest
			want error
		}{
			{"no token", nil, PlaylistRequest{Name: "x", TrackURIs: []string{"u"}}, shared.ErrNotAuthenticated},
			{"empty token", oauth2.StaticTokenSource(&oauth2.Token{}), PlaylistRequest{Name: "x", TrackURIs: []string{"u"}}, shared.ErrNotAuthenticated},
			{"no name", ts, PlaylistRequest{TrackURIs: []string{"u"}}, shared.ErrMissingArgument},
			{"no tracks", ts, PlaylistRequest{Name: "x"}, shared.ErrInvalidInput},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				if _, err := srv.CreatePlaylist(ctx, tt.ts, tt.req); !errors.Is(err, tt.want) {
					t.Errorf("expected %v, got %v", tt.want, err)
				}
			})
		}
	})

	t.Run("user playlists", func(t *testing.T) {
		lists, err := srv.UserPlaylists(ctx, ts)
		if err != nil {
			t.Fatalf("UserPlaylists() error = %v", err)
		}
		if len(lists) != 1 || lists[0].Tracks.Total != 12 {
			t.Errorf("unexpected playlists %+v", lists)
		}
	})

	t.Run("unauthorized", func(t *testing.T) {
		bad := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "wrong"})
		if _, err := srv.UserPlaylists(ctx, bad); !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})

	t.Run("playlist tracks", func(t *testing.T) {
		items, err := srv.PlaylistTracks(ctx, "p1", nil)
		if err != nil || len(items) != 1 || items[0].Track.ID != "a" {
			t.Errorf("PlaylistTracks() = %+v, %v", items, err)
		}
		if _, err := srv.PlaylistTracks(ctx, "nope", nil); !errors.Is(err, shared.ErrPlaylistNotFound) {
			t.Errorf("expected ErrPlaylistNotFound, got %v", err)
		}
	})
}

func TestErrors(t *testing.T) {
	t.Run("server error message", func(t *testing.T) {
		srv := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			writeJSON(t, w, map[string]string{"error": "spotify exploded"})
		})
		_, err := srv.Genres(context.Background())
		if !errors.Is(err, shared.ErrAPIRequest) || !strings.Contains(err.Error(), "spotify exploded") {
			t.Errorf("unexpected error %v", err)
		}
	})

	t.Run("invalid json", func(t *testing.T) {
		srv := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, "<html>")
		})
		if _, err := srv.Health(context.Background()); !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})

	t.Run("transport failure", func(t *testing.T) {
		client := &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("connection refused"))}
		srv := NewAPIService("http://backend", client, 0)
		if _, err := srv.Genres(context.Background()); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})

	t.Run("body read failure", func(t *testing.T) {
		resp := &http.Response{StatusCode: http.StatusOK, Body: &tu.FCloser{}, Header: http.Header{}}
		client := &http.Client{Transport: tu.NewMockRoundTripper(resp, nil)}
		srv := NewAPIService("http://backend", client, 0)
		if _, err := srv.Genres(context.Background()); err == nil {
			t.Error("expected read error")
		}
	})

	t.Run("health", func(t *testing.T) {
		srv := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, Health{Status: "healthy"})
		})
		h, err := srv.Health(context.Background())
		if err != nil || h.Status != "healthy" {
			t.Errorf("Health() = %+v, %v", h, err)
		}
	})
}

func TestRateLimit(t *testing.T) {
	var calls int
	srv := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		writeJSON(t, w, map[string]any{"genres": []string{}})
	})
	srv.limiter.SetLimit(1)
	srv.limiter.SetBurst(1)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := srv.Genres(ctx); err != nil {
		t.Fatalf("first call: %v", err)
	}
	if _, err := srv.Genres(ctx); err == nil {
		t.Error("second call should be throttled past the deadline")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestDefaultDescription(t *testing.T) {
	got := DefaultDescription(time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC))
	if got != "Created by vibes on 2025-03-04" {
		t.Errorf("got %q", got)
	}
}
