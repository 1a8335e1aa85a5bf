package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"

	"github.com/desertthunder/vibes/internal/models"
)

var _ list.Item = trackItem{}

// trackItem wraps [models.Track] to implement [list.Item].
type trackItem struct {
	track      models.Track
	info       models.TrackInfo
	playing    bool
	inPlaylist bool
}

func newTrackItem(t models.Track) trackItem {
	return trackItem{track: t, info: t.Info()}
}

func (i trackItem) FilterValue() string { return i.info.Name }

func (i trackItem) Title() string {
	title := i.info.Name
	if i.inPlaylist {
		title += " +"
	}
	if i.playing {
		return "▶ " + title
	}
	return title
}

func (i trackItem) Description() string {
	desc := fmt.Sprintf("%s • %s • %s", i.info.Artist, i.info.Album, i.info.Duration)
	if !i.info.HasPreview() {
		desc += " • no preview"
	}
	return desc
}

func newTrackList(title string) list.Model {
	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.Title = title
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.DisableQuitKeybindings()
	return l
}

// trackItems builds list items, marking the playing track and playlist members.
func trackItems(tracks []models.Track, playing func(id string) bool, inPlaylist func(id string) bool) []list.Item {
	items := make([]list.Item, len(tracks))
	for i, t := range tracks {
		item := newTrackItem(t)
		item.playing = playing(t.ID)
		item.inPlaylist = inPlaylist(t.ID)
		items[i] = item
	}
	return items
}
