// API client for the vibes discovery backend
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/desertthunder/vibes/internal/models"
	"github.com/desertthunder/vibes/internal/shared"
)

const (
	DefaultBaseURL = "http://localhost:5000"

	DefaultSearchLimit  = 20
	DefaultSimilarLimit = 10
)

// APIService is a typed client for the discovery backend.
//
// Requests are throttled by a token bucket so TUI key repeat cannot flood the backend.
type APIService struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *log.Logger
}

// NewAPIService creates a client. An empty baseURL uses [DefaultBaseURL], a nil client uses
// [http.DefaultClient] and a non-positive rps disables throttling.
func NewAPIService(baseURL string, client *http.Client, rps float64) *APIService {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}

	return &APIService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
		limiter:    rate.NewLimiter(limit, max(1, int(rps))),
		logger:     log.New(io.Discard),
	}
}

// SetLogger sets the request logger.
func (a *APIService) SetLogger(l *log.Logger) {
	a.logger = l
}

// BaseURL returns the backend root.
func (a *APIService) BaseURL() string {
	return a.baseURL
}

// PlaylistRequest is the body of POST /playlist/create.
type PlaylistRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	TrackURIs   []string `json:"track_uris"`
	Public      bool     `json:"public"`
}

// PlaylistCreated is returned by POST /playlist/create.
type PlaylistCreated struct {
	ID   string `json:"playlist_id"`
	URL  string `json:"playlist_url"`
	Name string `json:"name,omitempty"`
}

// UserPlaylist is one entry of GET /user/playlists.
type UserPlaylist struct {
	ID           string              `json:"id"`
	Name         string              `json:"name"`
	Description  string              `json:"description"`
	Public       bool                `json:"public"`
	Tracks       struct{ Total int } `json:"tracks"`
	ExternalURLs models.ExternalURLs `json:"external_urls"`
}

// PlaylistItem is one entry of GET /playlist/{id}/tracks.
type PlaylistItem struct {
	AddedAt string       `json:"added_at"`
	Track   models.Track `json:"track"`
}

// Health is the body of GET /health.
type Health struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// DefaultDescription is used when a playlist is created without one.
func DefaultDescription(now time.Time) string {
	return "Created by vibes on " + now.Format("2006-01-02")
}

func (a *APIService) Genres(ctx context.Context) ([]string, error) {
	var body struct {
		Genres []string `json:"genres"`
	}
	if err := a.get(ctx, "/genres", nil, nil, &body); err != nil {
		return nil, err
	}
	return body.Genres, nil
}

// Search finds tracks matching query. A blank query returns no tracks without a request.
func (a *APIService) Search(ctx context.Context, query string, limit int) ([]models.Track, error) {
	if strings.TrimSpace(query) == "" {
		return []models.Track{}, nil
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("type", "track")
	params.Set("limit", strconv.Itoa(limit))

	var body struct {
		Tracks struct {
			Items []models.Track `json:"items"`
		} `json:"tracks"`
	}
	if err := a.get(ctx, "/search", params, nil, &body); err != nil {
		return nil, err
	}
	return orEmpty(body.Tracks.Items), nil
}

// Recommendations asks the backend for tracks matching a mood and optional genre.
func (a *APIService) Recommendations(ctx context.Context, mood models.Mood, genre string, limit int) ([]models.Track, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	req := map[string]any{"mood": mood, "genre": genre, "limit": limit}

	var body struct {
		Recommendations struct {
			Tracks []models.Track `json:"tracks"`
		} `json:"recommendations"`
	}
	if err := a.post(ctx, "/playlist/smart-generate", nil, req, &body); err != nil {
		return nil, err
	}
	return orEmpty(body.Recommendations.Tracks), nil
}

func (a *APIService) SimilarTracks(ctx context.Context, trackID string, limit int) ([]models.Track, error) {
	if trackID == "" {
		return nil, fmt.Errorf("%w: track id", shared.ErrMissingArgument)
	}
	if limit <= 0 {
		limit = DefaultSimilarLimit
	}
	req := map[string]any{"track_id": trackID, "limit": limit}

	var body struct {
		Tracks []models.Track `json:"tracks"`
	}
	if err := a.post(ctx, "/track/similar", nil, req, &body); err != nil {
		return nil, err
	}
	return orEmpty(body.Tracks), nil
}

func (a *APIService) PlayURLs(ctx context.Context, trackID string) (*models.PlayURLs, error) {
	params := url.Values{}
	params.Set("track_id", trackID)

	var urls models.PlayURLs
	if err := a.get(ctx, "/track/play-url", params, nil, &urls); err != nil {
		return nil, err
	}
	return &urls, nil
}

// Track fetches full track metadata by id.
func (a *APIService) Track(ctx context.Context, trackID string) (*models.Track, error) {
	if trackID == "" {
		return nil, fmt.Errorf("%w: track id", shared.ErrMissingArgument)
	}

	var track models.Track
	err := a.get(ctx, "/spotify/track/"+url.PathEscape(trackID), nil, nil, &track)
	if errors.Is(err, errNotFound) {
		return nil, fmt.Errorf("%w: %s", shared.ErrTrackNotFound, trackID)
	}
	if err != nil {
		return nil, err
	}
	if track.ID == "" {
		return nil, fmt.Errorf("%w: %s", shared.ErrTrackNotFound, trackID)
	}
	return &track, nil
}

// AuthURL returns the Spotify authorization URL the user must visit.
func (a *APIService) AuthURL(ctx context.Context) (string, error) {
	var body struct {
		AuthURL string `json:"auth_url"`
	}
	if err := a.get(ctx, "/auth/login", nil, nil, &body); err != nil {
		return "", err
	}
	if body.AuthURL == "" {
		return "", fmt.Errorf("%w: empty auth url", shared.ErrAuthFailed)
	}
	return body.AuthURL, nil
}

// ExchangeCode trades an authorization code for an access token.
func (a *APIService) ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error) {
	if code == "" {
		return nil, fmt.Errorf("%w: authorization code", shared.ErrMissingArgument)
	}

	var body struct {
		AccessToken string `json:"access_token"`
	}
	if err := a.post(ctx, "/auth/callback", nil, map[string]string{"code": code}, &body); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}
	if body.AccessToken == "" {
		return nil, fmt.Errorf("%w: no access token in response", shared.ErrAuthFailed)
	}
	return &oauth2.Token{AccessToken: body.AccessToken, TokenType: "Bearer"}, nil
}

// CreatePlaylist exports track URIs to a new Spotify playlist.
func (a *APIService) CreatePlaylist(ctx context.Context, ts oauth2.TokenSource, p PlaylistRequest) (*PlaylistCreated, error) {
	tok, err := token(ts)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(p.Name) == "" {
		return nil, fmt.Errorf("%w: playlist name", shared.ErrMissingArgument)
	}
	if len(p.TrackURIs) == 0 {
		return nil, fmt.Errorf("%w: no tracks to add", shared.ErrInvalidInput)
	}
	if p.Description == "" {
		p.Description = DefaultDescription(time.Now())
	}

	req := struct {
		AccessToken string `json:"access_token"`
		PlaylistRequest
	}{tok.AccessToken, p}

	var created PlaylistCreated
	if err := a.post(ctx, "/playlist/create", tok, req, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (a *APIService) UserPlaylists(ctx context.Context, ts oauth2.TokenSource) ([]UserPlaylist, error) {
	tok, err := token(ts)
	if err != nil {
		return nil, err
	}

	var body struct {
		Playlists []UserPlaylist `json:"playlists"`
	}
	if err := a.get(ctx, "/user/playlists", nil, tok, &body); err != nil {
		return nil, err
	}
	return orEmpty(body.Playlists), nil
}

// PlaylistTracks lists a playlist's items. ts may be nil for public playlists.
func (a *APIService) PlaylistTracks(ctx context.Context, playlistID string, ts oauth2.TokenSource) ([]PlaylistItem, error) {
	if playlistID == "" {
		return nil, fmt.Errorf("%w: playlist id", shared.ErrMissingArgument)
	}

	var tok *oauth2.Token
	if ts != nil {
		t, err := token(ts)
		if err != nil {
			return nil, err
		}
		tok = t
	}

	var body struct {
		Items []PlaylistItem `json:"items"`
	}
	err := a.get(ctx, "/playlist/"+url.PathEscape(playlistID)+"/tracks", nil, tok, &body)
	if errors.Is(err, errNotFound) {
		return nil, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, playlistID)
	}
	if err != nil {
		return nil, err
	}
	return orEmpty(body.Items), nil
}

func (a *APIService) Health(ctx context.Context) (*Health, error) {
	var h Health
	if err := a.get(ctx, "/health", nil, nil, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

var errNotFound = errors.New("not found")

func token(ts oauth2.TokenSource) (*oauth2.Token, error) {
	if ts == nil {
		return nil, shared.ErrNotAuthenticated
	}
	tok, err := ts.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrNotAuthenticated, err)
	}
	if tok.AccessToken == "" {
		return nil, shared.ErrNotAuthenticated
	}
	return tok, nil
}

func (a *APIService) get(ctx context.Context, path string, params url.Values, tok *oauth2.Token, out any) error {
	fullURL := a.baseURL + path
	if len(params) > 0 {
		fullURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return a.do(req, tok, out)
}

func (a *APIService) post(ctx context.Context, path string, tok *oauth2.Token, payload, out any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return a.do(req, tok, out)
}

func (a *APIService) do(req *http.Request, tok *oauth2.Token, out any) error {
	if err := a.limiter.Wait(req.Context()); err != nil {
		return err
	}
	if tok != nil {
		tok.SetAuthHeader(req)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	a.logger.Debug("api request", "method", req.Method, "path", req.URL.Path, "status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %w: %s", shared.ErrAPIRequest, errNotFound, req.URL.Path)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: %s %s returned %d: %s", shared.ErrAPIRequest, req.Method, req.URL.Path, resp.StatusCode, errorMessage(body))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: invalid response body: %v", shared.ErrAPIRequest, err)
	}
	return nil
}

// errorMessage extracts the backend's {"error": ...} message, falling back to the raw body.
func errorMessage(body []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &e) == nil && e.Error != "" {
		return e.Error
	}
	return strings.TrimSpace(string(body))
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
