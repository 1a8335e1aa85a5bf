package ui

import (
	"github.com/desertthunder/vibes/internal/models"
	"github.com/desertthunder/vibes/internal/player"
)

// tracksFetchedMsg carries the result of a search, recommendation or similar-tracks request.
type tracksFetchedMsg struct {
	title  string
	tracks []models.Track
	err    error
}

// playbackMsg is a coordinator snapshot delivered through the mailbox.
type playbackMsg player.PlaybackState

// playResultMsg reports the outcome of PlayPreview for track.
type playResultMsg struct {
	track  models.Track
	result player.Result
}

// controlDoneMsg follows a transport command that has no result of its own.
type controlDoneMsg struct{}
