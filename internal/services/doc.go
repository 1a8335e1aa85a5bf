// Package services implements [APIService], the client for the vibes discovery backend.
//
// The backend fronts Spotify: it searches tracks, computes mood/genre recommendations and
// similar tracks, resolves preview clips and creates playlists on the user's account.
// Every track it returns carries a play_urls object with the preview clip, web link and
// app deep link.
//
// # Endpoints
//
//   - GET  /genres                  : [APIService.Genres]
//   - GET  /search                  : [APIService.Search]
//   - POST /playlist/smart-generate : [APIService.Recommendations]
//   - POST /track/similar           : [APIService.SimilarTracks]
//   - GET  /track/play-url          : [APIService.PlayURLs]
//   - GET  /spotify/track/{id}      : [APIService.Track]
//   - GET  /auth/login              : [APIService.AuthURL]
//   - POST /auth/callback           : [APIService.ExchangeCode]
//   - POST /playlist/create         : [APIService.CreatePlaylist]
//   - GET  /user/playlists          : [APIService.UserPlaylists]
//   - GET  /playlist/{id}/tracks    : [APIService.PlaylistTracks]
//   - GET  /health                  : [APIService.Health]
//
// # Authentication
//
// Playlist endpoints take an [oauth2.TokenSource]. The CLI wraps a user supplied access token
// in [oauth2.StaticTokenSource]; the token is sent as a bearer header and, for playlist
// creation, in the request body as the backend expects. Token refresh and storage are the
// caller's concern.
//
// # Error Handling
//
//   - [shared.ErrAPIRequest] : non-2xx status or malformed body, with the backend's error message
//   - [shared.ErrServiceUnavailable] : the backend could not be reached
//   - [shared.ErrTrackNotFound], [shared.ErrPlaylistNotFound] : 404 on lookups
//   - [shared.ErrNotAuthenticated] : missing or empty token
//   - [shared.ErrAuthFailed] : code exchange rejected
package services
