// Package models defines the track records exchanged with the discovery API and the read-only
// projections the client derives from them.
//
// The package contains three groups of types:
//
// 1. Wire records: structs decoded directly from API JSON
//   - [Track] : Spotify track object enriched with [PlayURLs]
//   - [Album], [Artist], [Image], [ExternalURLs]
//
// 2. Projections: values computed on demand and never mutated
//   - [TrackInfo] : display fields with documented defaults, built by [ExtractTrackInfo]
//
// 3. Client state
//   - [Playlist] : ordered, de-duplicated in-memory selection exported to Spotify
//   - [CachedTrack] : a [Track] stored in the local cache; implements [Model]
//
// Derivation never fails: each display field of [TrackInfo] degrades independently
// ("Unknown Artist", "Unknown Album", "0:00", no image).
package models
