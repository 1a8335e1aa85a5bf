// Package repositories implements SQLite persistence for the local track cache.
//
// Every track the discovery API returns is cached so that commands like `vibes play <id>` can
// resolve a track without a round trip. The cache holds remote records only; playlists built
// in the client are never stored.
//
// Key Implementations:
//   - [TrackRepository] : CRUD and upserts over the tracks table, implements models.Repository
//   - [TrackCacheAdapter] : batch caching and id lookups used by the CLI and TUI
//
// The raw JSON record is stored in the payload column so a cached track round-trips with its
// play URLs intact. name, artist, album and preview_url are denormalized for listing.
package repositories
