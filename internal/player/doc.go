// Package player owns "what is playing right now".
//
// A single [Coordinator] is constructed at startup and handed to every surface that shows
// or controls playback (track rows, the mini-player, the CLI progress line). It holds at
// most one live media session, obtained from a [Backend], and pushes a [PlaybackState]
// snapshot to subscribers on every change.
//
// State machine:
//
//	Idle ──PlayPreview──▶ Playing ⇄ Paused
//	  ▲                      │        │
//	  └──── Stop / end ──────┴────────┘
//
// When a track has no preview, or the session cannot be acquired, [Coordinator.PlayPreview]
// hands the track to a [Fallback] (normally [LinkFallback], which opens the Spotify link)
// and reports [ActionOpenedSpotify]. Errors never escape PlayPreview.
//
// Every mutating call produces exactly one broadcast; calls that are no-ops in the current
// state produce none. Subscriber callbacks run synchronously on the caller's goroutine and
// must not call mutating coordinator methods or Subscribe from inside the callback.
package player
