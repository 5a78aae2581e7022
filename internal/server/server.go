package server

import (
	"context"
	"net/http"
)

// Authorizer is the slice of a provider needed to complete an OAuth2
// authorization code flow. Both the Spotify and TIDAL providers satisfy it.
type Authorizer interface {
	// AuthURL returns the browser URL for the given CSRF state token.
	AuthURL(state string) string
	// Exchange trades the authorization code for a persisted token.
	Exchange(ctx context.Context, code string) error
}

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Handler defines the interface for HTTP request handlers in the callback listener.
type Handler interface {
	http.Handler      // ServeHTTP handles the HTTP request and writes the response
	Routes() []string // Routes returns the path patterns this handler serves
}

// Router defines the interface for HTTP routing and middleware management.
type Router interface {
	Use(middleware ...Middleware)                     // Use adds middleware to the router's middleware stack
	Handle(method, path string, handler http.Handler) // Handle registers a handler for the specified method and path
	Handler(handler Handler)                          // Handler registers a custom Handler implementation
	ServeHTTP(w http.ResponseWriter, r *http.Request) // ServeHTTP implements http.Handler for the entire router
}
