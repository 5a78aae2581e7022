// TIDAL implementation of [DestinationProvider]
package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ameztoy/crosstune/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	tidalAuthURL  = "https://login.tidal.com/authorize"
	tidalTokenURL = "https://auth.tidal.com/v1/oauth2/token"
	tidalBaseURL  = "https://api.tidal.com/v1"

	// The search endpoint throttles aggressively; four requests a second
	// keeps long playlists under the limit.
	tidalSearchInterval = 250 * time.Millisecond
)

// TidalArtist represents a TIDAL artist.
type TidalArtist struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// TidalTrack represents a TIDAL track.
type TidalTrack struct {
	ID      int64         `json:"id"`
	Title   string        `json:"title"`
	Artists []TidalArtist `json:"artists"`
}

// TidalPlaylist represents a TIDAL playlist.
type TidalPlaylist struct {
	UUID           string `json:"uuid"`
	Title          string `json:"title"`
	NumberOfTracks int    `json:"numberOfTracks"`
}

type tidalPage[T any] struct {
	Items      []T `json:"items"`
	Limit      int `json:"limit"`
	Offset     int `json:"offset"`
	TotalItems int `json:"totalNumberOfItems"`
}

type tidalSearchResult struct {
	Tracks tidalPage[TidalTrack] `json:"tracks"`
}

type tidalPlaylistItem struct {
	Item TidalTrack `json:"item"`
}

type tidalFavoriteItem struct {
	Item TidalTrack `json:"item"`
}

type tidalSession struct {
	UserID      int64  `json:"userId"`
	CountryCode string `json:"countryCode"`
}

// TidalProvider implements [DestinationProvider] against the TIDAL API.
// Two instances with separate credentials back the reconciler's account pair.
type TidalProvider struct {
	label       string
	config      *oauth2.Config
	token       *oauth2.Token
	httpClient  *http.Client
	tokenPath   string
	baseURL     string
	userID      string
	countryCode string
	limiter     *rate.Limiter
}

// NewTidalProvider creates a TIDAL provider from credentials config. The
// label distinguishes accounts in logs ("TIDAL", "TIDAL B").
func NewTidalProvider(label string, cfg shared.TidalConfig) (*TidalProvider, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("%w: tidal client_id and client_secret are required", shared.ErrMissingCredentials)
	}

	redirectURI := cfg.RedirectURI
	if redirectURI == "" {
		redirectURI = "http://127.0.0.1:8080/callback"
	}

	config := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  redirectURI,
		Scopes:       []string{"r_usr", "w_usr"},
		Endpoint: oauth2.Endpoint{
			AuthURL:  tidalAuthURL,
			TokenURL: tidalTokenURL,
		},
	}

	return &TidalProvider{
		label:      label,
		config:     config,
		httpClient: http.DefaultClient,
		tokenPath:  cfg.TokenPath,
		baseURL:    tidalBaseURL,
		limiter:    rate.NewLimiter(rate.Every(tidalSearchInterval), 1),
	}, nil
}

func (t *TidalProvider) Name() string {
	return t.label
}

// AuthURL returns the OAuth2 authorization URL for user login.
func (t *TidalProvider) AuthURL(state string) string {
	return t.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Exchange trades an authorization code for a token, persists it and loads
// the session identity.
func (t *TidalProvider) Exchange(ctx context.Context, code string) error {
	token, err := t.config.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}

	t.useToken(ctx, token)

	if t.tokenPath != "" {
		if err := SaveToken(t.tokenPath, token); err != nil {
			return err
		}
	}

	return t.loadSession(ctx)
}

// Authenticate restores a previously persisted token and loads the session
// identity. Returns [shared.ErrNotAuthenticated] when no token file exists.
func (t *TidalProvider) Authenticate(ctx context.Context) error {
	if t.tokenPath == "" {
		return fmt.Errorf("%w: no token path configured", shared.ErrNotAuthenticated)
	}

	token, err := LoadToken(t.tokenPath)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrNotAuthenticated, err)
	}

	t.useToken(ctx, token)
	return t.loadSession(ctx)
}

func (t *TidalProvider) useToken(ctx context.Context, token *oauth2.Token) {
	t.token = token
	t.httpClient = t.config.Client(ctx, token)
}

// loadSession resolves the numeric user ID and country code for the token.
func (t *TidalProvider) loadSession(ctx context.Context) error {
	var session tidalSession
	if err := t.doRequest(ctx, http.MethodGet, "/sessions", nil, &session); err != nil {
		return err
	}

	t.userID = strconv.FormatInt(session.UserID, 10)
	t.countryCode = session.CountryCode
	if t.countryCode == "" {
		t.countryCode = "US"
	}
	return nil
}

// doRequest performs an authenticated request against the TIDAL API. Form
// values, when present, are sent urlencoded.
func (t *TidalProvider) doRequest(ctx context.Context, method, endpoint string, form url.Values, result interface{}) error {
	if t.token == nil {
		return fmt.Errorf("%w: call Authenticate first", shared.ErrNotAuthenticated)
	}

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, t.baseURL+endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: %s returned status %d", shared.ErrAuthExpired, t.label, resp.StatusCode)
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s returned status 404", shared.ErrPlaylistNotFound, t.label)
	case resp.StatusCode == http.StatusTooManyRequests, resp.StatusCode >= 500:
		return fmt.Errorf("%w: %s returned status %d", shared.ErrServiceUnavailable, t.label, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("%w: %s returned status %d", shared.ErrAPIRequest, t.label, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// SearchTracks runs a rate limited free-text track search.
func (t *TidalProvider) SearchTracks(ctx context.Context, query string, limit int) ([]Candidate, error) {
	if limit <= 0 {
		limit = 5
	}

	if err := t.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrTimeout, err)
	}

	endpoint := fmt.Sprintf("/search/tracks?query=%s&limit=%d&countryCode=%s",
		url.QueryEscape(query), limit, t.countryCode)

	var result tidalSearchResult
	if err := t.doRequest(ctx, http.MethodGet, endpoint, nil, &result); err != nil {
		return nil, err
	}

	candidates := make([]Candidate, 0, len(result.Tracks.Items))
	for _, track := range result.Tracks.Items {
		candidates = append(candidates, candidateOf(track))
	}

	return candidates, nil
}

// ListPlaylists retrieves handles for all of the user's playlists.
func (t *TidalProvider) ListPlaylists(ctx context.Context) ([]PlaylistHandle, error) {
	var all []PlaylistHandle
	limit := 50
	offset := 0

	for {
		endpoint := fmt.Sprintf("/users/%s/playlists?limit=%d&offset=%d&countryCode=%s",
			t.userID, limit, offset, t.countryCode)

		var page tidalPage[TidalPlaylist]
		if err := t.doRequest(ctx, http.MethodGet, endpoint, nil, &page); err != nil {
			return nil, err
		}

		for _, pl := range page.Items {
			all = append(all, PlaylistHandle{ID: pl.UUID, Name: pl.Title})
		}

		offset += limit
		if offset >= page.TotalItems || len(page.Items) == 0 {
			break
		}
	}

	return all, nil
}

// GetPlaylistByTitle looks a playlist up by case-insensitive exact name
// match. Returns (nil, nil) when no playlist has that name.
func (t *TidalProvider) GetPlaylistByTitle(ctx context.Context, title string) (*PlaylistHandle, error) {
	playlists, err := t.ListPlaylists(ctx)
	if err != nil {
		return nil, err
	}

	want := strings.ToLower(title)
	for _, pl := range playlists {
		if strings.ToLower(pl.Name) == want {
			return &pl, nil
		}
	}

	return nil, nil
}

// GetOrCreatePlaylist returns the playlist named title, creating it when
// absent.
func (t *TidalProvider) GetOrCreatePlaylist(ctx context.Context, title, description string) (*PlaylistHandle, error) {
	existing, err := t.GetPlaylistByTitle(ctx, title)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	endpoint := fmt.Sprintf("/users/%s/playlists", t.userID)
	form := url.Values{}
	form.Set("title", title)
	form.Set("description", description)

	var created TidalPlaylist
	if err := t.doRequest(ctx, http.MethodPost, endpoint, form, &created); err != nil {
		return nil, err
	}

	return &PlaylistHandle{ID: created.UUID, Name: created.Title}, nil
}

// ListTrackIDs returns the deduplicated set of track IDs currently in the
// playlist.
func (t *TidalProvider) ListTrackIDs(ctx context.Context, pl *PlaylistHandle) ([]string, error) {
	seen := make(map[string]bool)
	var ids []string
	limit := 100
	offset := 0

	for {
		endpoint := fmt.Sprintf("/playlists/%s/items?limit=%d&offset=%d&countryCode=%s",
			url.PathEscape(pl.ID), limit, offset, t.countryCode)

		var page tidalPage[tidalPlaylistItem]
		if err := t.doRequest(ctx, http.MethodGet, endpoint, nil, &page); err != nil {
			return nil, err
		}

		for _, item := range page.Items {
			id := strconv.FormatInt(item.Item.ID, 10)
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}

		offset += limit
		if offset >= page.TotalItems || len(page.Items) == 0 {
			break
		}
	}

	return ids, nil
}

// AddTracks appends the given track IDs to the playlist as one batch.
func (t *TidalProvider) AddTracks(ctx context.Context, pl *PlaylistHandle, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	endpoint := fmt.Sprintf("/playlists/%s/items", url.PathEscape(pl.ID))
	form := url.Values{}
	form.Set("trackIds", strings.Join(ids, ","))
	form.Set("onDupes", "SKIP")

	return t.doRequest(ctx, http.MethodPost, endpoint, form, nil)
}

// FavoriteIDs returns the IDs of the user's favorite tracks.
func (t *TidalProvider) FavoriteIDs(ctx context.Context) ([]string, error) {
	var ids []string
	limit := 100
	offset := 0

	for {
		endpoint := fmt.Sprintf("/users/%s/favorites/tracks?limit=%d&offset=%d&countryCode=%s",
			t.userID, limit, offset, t.countryCode)

		var page tidalPage[tidalFavoriteItem]
		if err := t.doRequest(ctx, http.MethodGet, endpoint, nil, &page); err != nil {
			return nil, err
		}

		for _, item := range page.Items {
			ids = append(ids, strconv.FormatInt(item.Item.ID, 10))
		}

		offset += limit
		if offset >= page.TotalItems || len(page.Items) == 0 {
			break
		}
	}

	return ids, nil
}

// AddFavorites adds the given track IDs to the user's favorites.
func (t *TidalProvider) AddFavorites(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	endpoint := fmt.Sprintf("/users/%s/favorites/tracks", t.userID)
	form := url.Values{}
	form.Set("trackIds", strings.Join(ids, ","))

	return t.doRequest(ctx, http.MethodPost, endpoint, form, nil)
}

// SetPlaylistImage uploads a cover image for the playlist.
func (t *TidalProvider) SetPlaylistImage(ctx context.Context, pl *PlaylistHandle, image []byte) error {
	if t.token == nil {
		return fmt.Errorf("%w: call Authenticate first", shared.ErrNotAuthenticated)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("image", "cover.jpg")
	if err != nil {
		return fmt.Errorf("failed to build upload body: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return fmt.Errorf("failed to build upload body: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("failed to build upload body: %w", err)
	}

	endpoint := fmt.Sprintf("/playlists/%s/image", url.PathEscape(pl.ID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+endpoint, &buf)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("%w: %s returned status %d", shared.ErrAuthExpired, t.label, resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: image upload returned status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	return nil
}

func candidateOf(t TidalTrack) Candidate {
	c := Candidate{
		ID:    strconv.FormatInt(t.ID, 10),
		Title: t.Title,
	}
	for _, a := range t.Artists {
		c.Artists = append(c.Artists, a.Name)
	}
	return c
}
