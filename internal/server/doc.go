// Package server runs the short-lived localhost HTTP listener that
// completes OAuth authorization code flows for the auth commands.
//
// # Flow
//
// [Flow] binds a provider's [Authorizer] to a one-shot [CallbackHandler]:
// the CLI prints [Flow.URL], the user authorizes in a browser, the provider
// redirects to the local listener, and the handler trades the code for a
// token through the provider. The listener shuts down as soon as the first
// callback is processed.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
// [Middleware] wraps handlers in reverse order (last added executes first).
// The [BasicRouter] implementation uses [http.ServeMux] internally with
// method filtering.
package server
