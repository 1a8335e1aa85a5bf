// Package ui implements the interactive vibes client using bubbletea's Elm architecture.
//
// The TUI has two tabs sharing one mini-player footer:
//  1. [TracksView] : search results, recommendations and similar tracks
//  2. [PlaylistView] : the in-memory playlist being assembled for export
//
// The (view) [Model] never polls the coordinator. It subscribes once; the subscription drops each
// snapshot into a one-slot mailbox (older snapshots are discarded) and [Model.waitForPlayback]
// turns the mailbox into [playbackMsg] values. Coordinator calls run inside tea.Cmd goroutines
// because PlayPreview can block on media acquisition.
//
// Keys: / search, m mood recommendations, f similar tracks, enter/space play or pause,
// p pause/resume, s stop, ←/→ seek 5s, +/- volume, a add, d remove, tab switch view, q quit.
package ui
