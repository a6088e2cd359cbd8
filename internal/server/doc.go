// Package server provides HTTP routing, middleware, and handlers for the
// station API and the CLI OAuth flow.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally and
// relies on its method and path-parameter patterns ("PUT /stations/{id}/join").
//
// # Station API
//
// [StationHandler] exposes the synchronization workflows over HTTP. The
// acting user is identified by the X-User-ID header; workflow outcomes map
// onto status codes (200 success, 202 pending, 404 unknown station, 409
// precondition or conflict, 501 for owner transfer).
//
// # OAuth Callback Handler
//
// [OAuthHandler] implements the OAuth2 authorization code callback used by
// the CLI login command. It validates the state parameter, exchanges the
// code for tokens, and delivers the result through a channel exactly once.
package server
