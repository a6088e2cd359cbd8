package server

import (
	"net/http"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Handler is an HTTP handler that knows its own route patterns, so route
// definitions live next to the implementation that serves them.
type Handler interface {
	http.Handler
	Routes() []string // Routes returns the mux patterns this handler serves
}

// Router defines the interface for HTTP routing and middleware management.
type Router interface {
	// Use adds middleware to the router's middleware stack.
	Use(middleware ...Middleware)
	// Handle registers a handler for the given mux pattern.
	Handle(pattern string, handler http.Handler)
	// Handler registers a custom Handler implementation.
	Handler(handler Handler)
	ServeHTTP(w http.ResponseWriter, r *http.Request)
}
