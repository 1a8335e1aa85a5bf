package repositories

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/desertthunder/vibes/internal/models"
	"github.com/desertthunder/vibes/internal/shared"
)

const trackColumns = `id, payload, created_at, updated_at, last_played_at`

var _ models.Repository[*models.CachedTrack] = (*TrackRepository)(nil)

// TrackRepository implements models.Repository[*models.CachedTrack] for the track cache.
type TrackRepository struct {
	db *sql.DB
}

// NewTrackRepository creates a new TrackRepository with the given database connection
func NewTrackRepository(db *sql.DB) *TrackRepository {
	return &TrackRepository{db: db}
}

// Create inserts a new [models.CachedTrack]. It fails if the id is already cached.
func (r *TrackRepository) Create(track *models.CachedTrack) error {
	if err := track.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	payload, err := json.Marshal(track.Track)
	if err != nil {
		return fmt.Errorf("failed to encode track: %w", err)
	}

	query := `
		INSERT INTO tracks (id, name, artist, album, preview_url, payload, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	info := track.Info()
	_, err = r.db.Exec(query,
		track.ID(),
		info.Name,
		info.Artist,
		info.Album,
		nullString(info.PlayURLs.PreviewURL),
		string(payload),
		track.CreatedAt(),
		track.UpdatedAt(),
	)
	if isConstraint(err) {
		return fmt.Errorf("%w: track %s already cached", shared.ErrInvalidInput, track.ID())
	}
	if err != nil {
		return fmt.Errorf("failed to insert track: %w", err)
	}
	return nil
}

// Put inserts or refreshes a cached track, keeping its creation time and play history.
func (r *TrackRepository) Put(t models.Track) error {
	track := models.NewCachedTrack(t)
	if err := track.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	payload, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to encode track: %w", err)
	}

	query := `
		INSERT INTO tracks (id, name, artist, album, preview_url, payload, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			artist = excluded.artist,
			album = excluded.album,
			preview_url = excluded.preview_url,
			payload = excluded.payload,
			updated_at = excluded.updated_at
	`
	info := t.Info()
	_, err = r.db.Exec(query,
		t.ID,
		info.Name,
		info.Artist,
		info.Album,
		nullString(info.PlayURLs.PreviewURL),
		string(payload),
		track.CreatedAt(),
		track.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert track: %w", err)
	}
	return nil
}

// Get retrieves a cached track by its Spotify id.
func (r *TrackRepository) Get(id string) (*models.CachedTrack, error) {
	query := `SELECT ` + trackColumns + ` FROM tracks WHERE id = ?`

	track, err := r.scan(r.db.QueryRow(query, id))
	if isNoRows(err) {
		return nil, fmt.Errorf("%w: %s", shared.ErrTrackNotFound, id)
	}
	return track, err
}

// Update rewrites the stored record for an existing track.
func (r *TrackRepository) Update(track *models.CachedTrack) error {
	if err := track.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	payload, err := json.Marshal(track.Track)
	if err != nil {
		return fmt.Errorf("failed to encode track: %w", err)
	}

	track.Touch()
	info := track.Info()
	query := `
		UPDATE tracks
		SET name = ?, artist = ?, album = ?, preview_url = ?, payload = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := r.db.Exec(query,
		info.Name,
		info.Artist,
		info.Album,
		nullString(info.PlayURLs.PreviewURL),
		string(payload),
		track.UpdatedAt(),
		track.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update track: %w", err)
	}
	return affectedOne(result, fmt.Errorf("%w: %s", shared.ErrTrackNotFound, track.ID()))
}

// MarkPlayed records that a track was resolved for playback.
func (r *TrackRepository) MarkPlayed(id string, at time.Time) error {
	result, err := r.db.Exec(`UPDATE tracks SET last_played_at = ? WHERE id = ?`, at, id)
	if err != nil {
		return fmt.Errorf("failed to mark track played: %w", err)
	}
	return affectedOne(result, fmt.Errorf("%w: %s", shared.ErrTrackNotFound, id))
}

// Delete removes a track from the cache.
func (r *TrackRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM tracks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete track: %w", err)
	}
	return affectedOne(result, fmt.Errorf("%w: %s", shared.ErrTrackNotFound, id))
}

// List retrieves cached tracks.
//
// Supported criteria:
//   - "artist" (string): exact artist display string
//   - "name" (string): substring of the track name
//   - "with_preview" (bool): only tracks with a preview clip
//   - "played" (bool): only tracks played before, most recent first
//   - "limit" (int): maximum rows
func (r *TrackRepository) List(criteria map[string]any) ([]*models.CachedTrack, error) {
	query := `SELECT ` + trackColumns + ` FROM tracks WHERE 1 = 1`
	args := []any{}

	if artist, ok := criteria["artist"].(string); ok && artist != "" {
		query += " AND artist = ?"
		args = append(args, artist)
	}
	if name, ok := criteria["name"].(string); ok && name != "" {
		query += " AND name LIKE ?"
		args = append(args, "%"+name+"%")
	}
	if preview, ok := criteria["with_preview"].(bool); ok && preview {
		query += " AND preview_url IS NOT NULL"
	}

	played, _ := criteria["played"].(bool)
	if played {
		query += " AND last_played_at IS NOT NULL ORDER BY last_played_at DESC"
	} else {
		query += " ORDER BY name ASC, id ASC"
	}

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracks: %w", err)
	}
	defer rows.Close()

	tracks := []*models.CachedTrack{}
	for rows.Next() {
		track, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, track)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return tracks, nil
}

// Count returns the number of cached tracks.
func (r *TrackRepository) Count() (int, error) {
	var n int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM tracks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count tracks: %w", err)
	}
	return n, nil
}

func (r *TrackRepository) scan(s scanner) (*models.CachedTrack, error) {
	var (
		id         string
		payload    string
		createdAt  time.Time
		updatedAt  time.Time
		lastPlayed sql.NullTime
	)

	if err := s.Scan(&id, &payload, &createdAt, &updatedAt, &lastPlayed); err != nil {
		if isNoRows(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan track: %w", err)
	}

	var track models.Track
	if err := json.Unmarshal([]byte(payload), &track); err != nil {
		return nil, fmt.Errorf("failed to decode cached track %s: %w", id, err)
	}

	var played *time.Time
	if lastPlayed.Valid {
		played = &lastPlayed.Time
	}
	return models.RestoreCachedTrack(track, createdAt, updatedAt, played), nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
