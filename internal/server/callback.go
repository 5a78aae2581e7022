package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/ameztoy/crosstune/internal/shared"
)

// CallbackHandler handles the OAuth2 authorization code callback.
// Implements the [Handler] interface for registration with a [Router].
type CallbackHandler struct {
	auth        Authorizer
	state       string
	done        chan error
	once        sync.Once
	callbackHit bool
	mu          sync.Mutex
}

// NewCallbackHandler creates a callback handler bound to the given provider.
// The state token should be cryptographically random for CSRF protection.
func NewCallbackHandler(auth Authorizer, state string) *CallbackHandler {
	return &CallbackHandler{
		auth:  auth,
		state: state,
		done:  make(chan error, 1),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *CallbackHandler) Routes() []string {
	return []string{"/callback"}
}

// ServeHTTP handles the OAuth callback request.
//
// Validates the state parameter, hands the authorization code to the
// provider's Exchange, and signals completion through the done channel.
func (h *CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Only handle the callback once
	h.mu.Lock()
	if h.callbackHit {
		h.mu.Unlock()
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}
	h.callbackHit = true
	h.mu.Unlock()

	state := r.URL.Query().Get("state")
	if state != h.state {
		h.send(errors.New("invalid state parameter"))
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		errParam := r.URL.Query().Get("error")
		errDesc := r.URL.Query().Get("error_description")
		h.send(fmt.Errorf("authorization failed: %s - %s", errParam, errDesc))
		http.Error(w, "Authorization failed", http.StatusBadRequest)
		return
	}

	if err := h.auth.Exchange(r.Context(), code); err != nil {
		h.send(fmt.Errorf("token exchange failed: %w", err))
		http.Error(w, "Token exchange failed", http.StatusInternalServerError)
		return
	}

	h.send(nil)

	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, successPage)
}

// send signals flow completion (only once).
func (h *CallbackHandler) send(err error) {
	h.once.Do(func() {
		h.done <- err
		close(h.done)
	})
}

// Done returns the channel that receives the flow outcome.
//
// The channel receives exactly one value and is then closed.
func (h *CallbackHandler) Done() <-chan error {
	return h.done
}

const successPage = `<!DOCTYPE html>
<html>
<head>
    <title>Authorization Successful</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        .container { text-align: center; background: white; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: #04B575; margin: 0 0 1rem 0; }
        p { color: #666; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>&#10003; Authorization Successful</h1>
        <p>You can close this window and return to the terminal.</p>
    </div>
</body>
</html>
`

// Flow owns one authorization round trip: a listener, a one-shot callback
// handler, and the provider that completes the exchange.
type Flow struct {
	handler *CallbackHandler
	srv     *http.Server
	state   string
	auth    Authorizer
	logger  *log.Logger
}

// NewFlow builds an authorization flow listening on addr (host:port). The
// addr must match the redirect URI registered with the provider.
func NewFlow(auth Authorizer, addr string, logger *log.Logger) *Flow {
	state := shared.GenerateID()
	handler := NewCallbackHandler(auth, state)

	router := NewBasicRouter()
	router.Use(RequestLogger(logger))
	router.Handler(handler)

	return &Flow{
		handler: handler,
		srv:     &http.Server{Addr: addr, Handler: router},
		state:   state,
		auth:    auth,
		logger:  logger,
	}
}

// URL returns the browser URL the user must visit to authorize.
func (f *Flow) URL() string {
	return f.auth.AuthURL(f.state)
}

// Run serves the callback listener until the flow completes or ctx is
// cancelled, then shuts the listener down.
func (f *Flow) Run(ctx context.Context) error {
	serveErr := make(chan error, 1)
	go func() {
		if err := f.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	var result error
	select {
	case result = <-f.handler.Done():
	case err := <-serveErr:
		return fmt.Errorf("callback server: %w", err)
	case <-ctx.Done():
		result = ctx.Err()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := f.srv.Shutdown(shutdownCtx); err != nil {
		f.logger.Warn("callback server shutdown", "error", err)
	}

	return result
}
