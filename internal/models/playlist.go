package models

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode"
)

// Mood is a recommendation mood understood by the backend.
type Mood string

const (
	MoodHappy     Mood = "happy"
	MoodSad       Mood = "sad"
	MoodEnergetic Mood = "energetic"
	MoodChill     Mood = "chill"
	MoodParty     Mood = "party"
)

// Moods lists the supported moods in menu order.
var Moods = []Mood{MoodHappy, MoodSad, MoodEnergetic, MoodChill, MoodParty}

var ErrUnknownMood = errors.New("unknown mood")

// ParseMood validates a case-insensitive mood name.
func ParseMood(s string) (Mood, error) {
	m := Mood(strings.ToLower(strings.TrimSpace(s)))
	if slices.Contains(Moods, m) {
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMood, s)
}

// GeneratePlaylistName builds the default export name, e.g. "My Happy Rock Playlist".
// Either part may be empty.
func GeneratePlaylistName(mood Mood, genre string) string {
	parts := []string{"My"}
	if m := capitalize(string(mood)); m != "" {
		parts = append(parts, m)
	}
	if g := capitalize(genre); g != "" {
		parts = append(parts, g)
	}
	parts = append(parts, "Playlist")
	return strings.Join(parts, " ")
}

func capitalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// Playlist is an ordered in-memory selection of tracks, de-duplicated by id.
//
// It is client state only and is never persisted.
type Playlist struct {
	Name        string
	Description string
	Tracks      []Track
}

// NewPlaylist creates an empty playlist.
func NewPlaylist(name string) *Playlist {
	return &Playlist{Name: name}
}

// Add appends t unless a track with the same id is present. It reports whether t was added.
func (p *Playlist) Add(t Track) bool {
	if t.ID == "" || p.Contains(t.ID) {
		return false
	}
	p.Tracks = append(p.Tracks, t)
	return true
}

// Remove deletes the track with the given id and reports whether it was present.
func (p *Playlist) Remove(id string) bool {
	i := p.index(id)
	if i < 0 {
		return false
	}
	p.Tracks = slices.Delete(p.Tracks, i, i+1)
	return true
}

func (p *Playlist) Contains(id string) bool {
	return p.index(id) >= 0
}

func (p *Playlist) index(id string) int {
	return slices.IndexFunc(p.Tracks, func(t Track) bool { return t.ID == id })
}

func (p *Playlist) Len() int {
	return len(p.Tracks)
}

// Clear empties the playlist, keeping its name.
func (p *Playlist) Clear() {
	p.Tracks = nil
}

// URIs returns the Spotify URIs of the tracks in order. Tracks without a uri fall back
// to the deep link built from their id.
func (p *Playlist) URIs() []string {
	uris := make([]string, 0, len(p.Tracks))
	for _, t := range p.Tracks {
		if t.URI != "" {
			uris = append(uris, t.URI)
		} else {
			uris = append(uris, DeepLink(t.ID))
		}
	}
	return uris
}

// TotalDuration sums the track durations.
func (p *Playlist) TotalDuration() time.Duration {
	var ms int
	for _, t := range p.Tracks {
		if t.DurationMS > 0 {
			ms += t.DurationMS
		}
	}
	return time.Duration(ms) * time.Millisecond
}

// FormatTotalDuration renders a playlist length as "1h 5m" or "42m".
func FormatTotalDuration(d time.Duration) string {
	minutes := int(d / time.Minute)
	if h := minutes / 60; h > 0 {
		return fmt.Sprintf("%dh %dm", h, minutes%60)
	}
	return fmt.Sprintf("%dm", minutes)
}
