package models

import (
	"errors"
	"strings"
	"time"
)

// CachedTrack is a [Track] stored in the local track cache.
type CachedTrack struct {
	Track
	LastPlayedAt *time.Time

	created time.Time
	updated time.Time
}

// NewCachedTrack wraps t with the current timestamps.
func NewCachedTrack(t Track) *CachedTrack {
	now := time.Now().UTC()
	return &CachedTrack{Track: t, created: now, updated: now}
}

// RestoreCachedTrack rebuilds a cached track read from storage.
func RestoreCachedTrack(t Track, created, updated time.Time, lastPlayed *time.Time) *CachedTrack {
	return &CachedTrack{Track: t, created: created, updated: updated, LastPlayedAt: lastPlayed}
}

func (c *CachedTrack) ID() string           { return c.Track.ID }
func (c *CachedTrack) CreatedAt() time.Time { return c.created }
func (c *CachedTrack) UpdatedAt() time.Time { return c.updated }

// Touch bumps the update timestamp.
func (c *CachedTrack) Touch() {
	c.updated = time.Now().UTC()
}

func (c *CachedTrack) Validate() error {
	if strings.TrimSpace(c.Track.ID) == "" {
		return errors.New("track id is required")
	}
	if strings.TrimSpace(c.Name) == "" {
		return errors.New("track name is required")
	}
	return nil
}
