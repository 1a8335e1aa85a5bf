package repositories

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/vibes/internal/models"
	"github.com/desertthunder/vibes/internal/shared"
)

// TrackCacheAdapter caches API results and resolves track ids from the cache.
//
// Caching is best effort: records that fail validation are skipped and logged.
type TrackCacheAdapter struct {
	repo   *TrackRepository
	logger *log.Logger
}

// NewTrackCacheAdapter creates a new TrackCacheAdapter with the given repository
func NewTrackCacheAdapter(repo *TrackRepository, logger *log.Logger) *TrackCacheAdapter {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &TrackCacheAdapter{repo: repo, logger: logger}
}

// CacheTracks stores every track, refreshing ones already cached. It returns the number stored.
func (a *TrackCacheAdapter) CacheTracks(tracks []models.Track) (int, error) {
	stored := 0
	for _, t := range tracks {
		err := a.repo.Put(t)
		if errors.Is(err, shared.ErrInvalidInput) {
			a.logger.Debug("skipping uncacheable track", "track", t.ID, "error", err)
			continue
		}
		if err != nil {
			return stored, fmt.Errorf("failed to cache track: %w", err)
		}
		stored++
	}
	return stored, nil
}

// Lookup returns the cached record for id and reports whether it was found.
func (a *TrackCacheAdapter) Lookup(id string) (models.Track, bool) {
	cached, err := a.repo.Get(id)
	if err != nil {
		if !errors.Is(err, shared.ErrTrackNotFound) {
			a.logger.Warn("track cache lookup failed", "track", id, "error", err)
		}
		return models.Track{}, false
	}
	return cached.Track, true
}

// Played marks id as played now. Unknown ids are ignored.
func (a *TrackCacheAdapter) Played(id string) {
	if err := a.repo.MarkPlayed(id, time.Now().UTC()); err != nil && !errors.Is(err, shared.ErrTrackNotFound) {
		a.logger.Warn("could not record play", "track", id, "error", err)
	}
}

// Recent returns up to limit previously played tracks, newest first.
func (a *TrackCacheAdapter) Recent(limit int) ([]models.Track, error) {
	cached, err := a.repo.List(map[string]any{"played": true, "limit": limit})
	if err != nil {
		return nil, err
	}
	tracks := make([]models.Track, 0, len(cached))
	for _, c := range cached {
		tracks = append(tracks, c.Track)
	}
	return tracks, nil
}
