// Package spotify wraps the parts of the Spotify Web API that tandem needs
// to read and steer playback on listener devices.
//
// # Client
//
// [Client] is a thin, multi-user HTTP client: every call takes the acting
// user's bearer token, so one client instance serves all listeners. Calls
// share a [rate.Limiter] since Spotify throttles per application.
//
// Playback control endpoints (play-at-position, volume, shuffle, repeat) are
// fire-and-forget from Spotify's point of view; the caller decides which
// failures matter.
//
// # Authentication
//
// [Authenticator] builds the authorization-code flow URL and exchanges codes
// for tokens. [TokenService] hands out access tokens per user, refreshing
// them through [oauth2] when expired and persisting the refreshed token via
// a [TokenStore].
package spotify
