package models

import (
	"fmt"
	"strings"
)

const (
	UnknownArtist   = "Unknown Artist"
	UnknownAlbum    = "Unknown Album"
	ZeroDuration    = "0:00"
	spotifyAppScheme = "spotify:track:"
)

// Image represents an album or artist image.
type Image struct {
	URL    string `json:"url"`
	Height int    `json:"height,omitempty"`
	Width  int    `json:"width,omitempty"`
}

// ExternalURLs holds links to the track on external sites.
type ExternalURLs struct {
	Spotify string `json:"spotify"`
}

// Artist is the simplified artist object embedded in a track.
type Artist struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// Album is the simplified album object embedded in a track.
type Album struct {
	ID     string  `json:"id,omitempty"`
	Name   string  `json:"name"`
	Images []Image `json:"images,omitempty"`
}

// PlayURLs are the playback targets for a track: a streamable preview clip, the web player
// link and the native app deep link.
type PlayURLs struct {
	SpotifyWeb string `json:"spotify_web"`
	SpotifyApp string `json:"spotify_app"`
	PreviewURL string `json:"preview_url"`
}

// Track is the track record supplied by the search and recommendation endpoints.
//
// Album and PlayURLs are pointers because the API omits them on some responses.
type Track struct {
	ID                string       `json:"id"`
	Name              string       `json:"name"`
	Artists           []Artist     `json:"artists"`
	Album             *Album       `json:"album,omitempty"`
	DurationMS        int          `json:"duration_ms"`
	PreviewURL        *string      `json:"preview_url"`
	ExternalURLs      ExternalURLs `json:"external_urls"`
	URI               string       `json:"uri"`
	PlayURLs          *PlayURLs    `json:"play_urls,omitempty"`
	FormattedDuration string       `json:"formatted_duration,omitempty"`
}

// TrackInfo is the display projection of a [Track].
type TrackInfo struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Artist   string   `json:"artist"`
	Album    string   `json:"album"`
	Duration string   `json:"duration"`
	ImageURL string   `json:"image_url,omitempty"`
	PlayURLs PlayURLs `json:"play_urls"`
	URI      string   `json:"uri"`
}

// HasPreview reports whether the track can be previewed in-process.
func (i TrackInfo) HasPreview() bool {
	return i.PlayURLs.PreviewURL != ""
}

// String renders "Artist - Name".
func (i TrackInfo) String() string {
	return fmt.Sprintf("%s - %s", i.Artist, i.Name)
}

// DeepLink returns the native app URI for a track id.
func DeepLink(id string) string {
	return spotifyAppScheme + id
}

// FormatDuration renders milliseconds as M:SS; non-positive input yields "0:00".
func FormatDuration(ms int) string {
	if ms <= 0 {
		return ZeroDuration
	}
	total := ms / 1000
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// ExtractTrackInfo derives a [TrackInfo] from a raw track record.
//
// When the record carries backend-computed play URLs they win; otherwise they are
// derived from preview_url, external_urls and the deep link pattern.
func ExtractTrackInfo(t Track) TrackInfo {
	info := TrackInfo{
		ID:       t.ID,
		Name:     t.Name,
		Artist:   UnknownArtist,
		Album:    UnknownAlbum,
		Duration: FormatDuration(t.DurationMS),
		URI:      t.URI,
	}

	if names := t.ArtistNames(); len(names) > 0 {
		info.Artist = strings.Join(names, ", ")
	}

	if t.Album != nil {
		if t.Album.Name != "" {
			info.Album = t.Album.Name
		}
		if len(t.Album.Images) > 0 {
			info.ImageURL = t.Album.Images[0].URL
		}
	}

	if t.PlayURLs != nil {
		info.PlayURLs = *t.PlayURLs
	} else {
		info.PlayURLs = PlayURLs{
			SpotifyWeb: t.ExternalURLs.Spotify,
			SpotifyApp: DeepLink(t.ID),
		}
		if t.PreviewURL != nil {
			info.PlayURLs.PreviewURL = *t.PreviewURL
		}
	}

	return info
}

// ArtistNames returns the non-empty artist names in credit order.
func (t Track) ArtistNames() []string {
	names := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		if a.Name != "" {
			names = append(names, a.Name)
		}
	}
	return names
}

// Info is shorthand for [ExtractTrackInfo].
func (t Track) Info() TrackInfo {
	return ExtractTrackInfo(t)
}
