// Spotify implementation of [SourceProvider]
//
// Response types based on https://developer.spotify.com/documentation/web-api/reference/
package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/ameztoy/crosstune/internal/shared"
	"golang.org/x/oauth2"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"
)

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Artists []SpotifyArtist `json:"artists"`
	IsLocal bool            `json:"is_local"`
}

// SpotifyPlaylistTrack represents a track within a playlist context.
type SpotifyPlaylistTrack struct {
	AddedAt string       `json:"added_at"`
	Track   SpotifyTrack `json:"track"`
}

// SpotifyPaginatedPlaylistTracks represents a page of playlist tracks.
type SpotifyPaginatedPlaylistTracks struct {
	Items  []SpotifyPlaylistTrack `json:"items"`
	Total  int                    `json:"total"`
	Limit  int                    `json:"limit"`
	Offset int                    `json:"offset"`
	Next   *string                `json:"next"`
}

// SpotifySavedTrack represents a track saved in the user's library.
type SpotifySavedTrack struct {
	AddedAt string       `json:"added_at"`
	Track   SpotifyTrack `json:"track"`
}

// SpotifyPaginatedSavedTracks represents a page of saved tracks.
type SpotifyPaginatedSavedTracks struct {
	Items  []SpotifySavedTrack `json:"items"`
	Total  int                 `json:"total"`
	Limit  int                 `json:"limit"`
	Offset int                 `json:"offset"`
	Next   *string             `json:"next"`
}

type simplePlaylistTracks struct {
	Total int `json:"total"`
}

// SpotifySimplePlaylist represents a simplified playlist object (used in lists).
type SpotifySimplePlaylist struct {
	ID     string               `json:"id"`
	Name   string               `json:"name"`
	Tracks simplePlaylistTracks `json:"tracks"`
	Images []SpotifyImage       `json:"images"`
}

// SpotifyPaginatedPlaylists represents a page of the user's playlists.
type SpotifyPaginatedPlaylists struct {
	Items  []SpotifySimplePlaylist `json:"items"`
	Total  int                     `json:"total"`
	Limit  int                     `json:"limit"`
	Offset int                     `json:"offset"`
	Next   *string                 `json:"next"`
}

// SpotifyProvider implements [SourceProvider] against the Spotify Web API.
// Uses [oauth2] for the authorization code flow; the token is persisted to
// the configured token path so subsequent runs skip the browser round trip.
type SpotifyProvider struct {
	config     *oauth2.Config
	token      *oauth2.Token
	httpClient *http.Client
	tokenPath  string
	baseURL    string
}

// NewSpotifyProvider creates a Spotify provider from credentials config.
func NewSpotifyProvider(cfg shared.SpotifyConfig) (*SpotifyProvider, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("%w: spotify client_id and client_secret are required", shared.ErrMissingCredentials)
	}

	redirectURI := cfg.RedirectURI
	if redirectURI == "" {
		redirectURI = "http://127.0.0.1:8080/callback"
	}

	config := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  redirectURI,
		Scopes: []string{
			"playlist-read-private",
			"playlist-read-collaborative",
			"user-library-read",
		},
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}

	return &SpotifyProvider{
		config:     config,
		httpClient: http.DefaultClient,
		tokenPath:  cfg.TokenPath,
		baseURL:    spotifyBaseURL,
	}, nil
}

func (s *SpotifyProvider) Name() string {
	return "Spotify"
}

// AuthURL returns the OAuth2 authorization URL for user login.
func (s *SpotifyProvider) AuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Exchange trades an authorization code for a token and persists it.
func (s *SpotifyProvider) Exchange(ctx context.Context, code string) error {
	token, err := s.config.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}

	s.useToken(ctx, token)

	if s.tokenPath != "" {
		if err := SaveToken(s.tokenPath, token); err != nil {
			return err
		}
	}
	return nil
}

// Authenticate restores a previously persisted token. Returns
// [shared.ErrNotAuthenticated] when no token file exists yet.
func (s *SpotifyProvider) Authenticate(ctx context.Context) error {
	if s.tokenPath == "" {
		return fmt.Errorf("%w: no token path configured", shared.ErrNotAuthenticated)
	}

	token, err := LoadToken(s.tokenPath)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrNotAuthenticated, err)
	}

	s.useToken(ctx, token)
	return nil
}

func (s *SpotifyProvider) useToken(ctx context.Context, token *oauth2.Token) {
	s.token = token
	s.httpClient = s.config.Client(ctx, token)
}

// doRequest performs an authenticated GET against the Spotify API.
func (s *SpotifyProvider) doRequest(ctx context.Context, endpoint string, result interface{}) error {
	if s.token == nil {
		return fmt.Errorf("%w: call Authenticate first", shared.ErrNotAuthenticated)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: spotify returned status %d", shared.ErrAuthExpired, resp.StatusCode)
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: spotify returned status 404", shared.ErrPlaylistNotFound)
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: spotify returned status %d", shared.ErrServiceUnavailable, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("%w: spotify returned status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// ListPlaylists retrieves all playlists for the authenticated user.
func (s *SpotifyProvider) ListPlaylists(ctx context.Context) ([]Playlist, error) {
	var all []Playlist
	limit := 50
	offset := 0

	for {
		endpoint := fmt.Sprintf("/me/playlists?limit=%d&offset=%d", limit, offset)

		var page SpotifyPaginatedPlaylists
		if err := s.doRequest(ctx, endpoint, &page); err != nil {
			return nil, err
		}

		for _, sp := range page.Items {
			all = append(all, Playlist{
				ID:         sp.ID,
				Name:       sp.Name,
				TrackCount: sp.Tracks.Total,
			})
		}

		if page.Next == nil {
			break
		}
		offset += limit
	}

	return all, nil
}

// ListTracks retrieves every track of a playlist in playlist order. Local
// files have no catalog identity on other services and are dropped here.
func (s *SpotifyProvider) ListTracks(ctx context.Context, playlistID string) ([]TrackRef, error) {
	var all []TrackRef
	limit := 100
	offset := 0

	for {
		endpoint := fmt.Sprintf("/playlists/%s/tracks?limit=%d&offset=%d",
			url.PathEscape(playlistID), limit, offset)

		var page SpotifyPaginatedPlaylistTracks
		if err := s.doRequest(ctx, endpoint, &page); err != nil {
			return nil, err
		}

		for _, item := range page.Items {
			if item.Track.ID == "" || item.Track.IsLocal {
				continue
			}
			all = append(all, trackRefOf(item.Track))
		}

		if page.Next == nil {
			break
		}
		offset += limit
	}

	return all, nil
}

// SavedTracks retrieves the user's liked songs.
func (s *SpotifyProvider) SavedTracks(ctx context.Context) ([]TrackRef, error) {
	var all []TrackRef
	limit := 50
	offset := 0

	for {
		endpoint := fmt.Sprintf("/me/tracks?limit=%d&offset=%d", limit, offset)

		var page SpotifyPaginatedSavedTracks
		if err := s.doRequest(ctx, endpoint, &page); err != nil {
			return nil, err
		}

		for _, item := range page.Items {
			if item.Track.ID == "" {
				continue
			}
			all = append(all, trackRefOf(item.Track))
		}

		if page.Next == nil {
			break
		}
		offset += limit
	}

	return all, nil
}

// PlaylistImageURL returns the URL of the largest cover image, or "" when
// the playlist has none.
func (s *SpotifyProvider) PlaylistImageURL(ctx context.Context, playlistID string) (string, error) {
	endpoint := fmt.Sprintf("/playlists/%s/images", url.PathEscape(playlistID))

	var images []SpotifyImage
	if err := s.doRequest(ctx, endpoint, &images); err != nil {
		return "", err
	}

	best := ""
	bestWidth := -1
	for _, img := range images {
		if img.Width > bestWidth {
			best = img.URL
			bestWidth = img.Width
		}
	}

	return best, nil
}

// DownloadImage fetches the bytes of a cover image URL.
func (s *SpotifyProvider) DownloadImage(ctx context.Context, imageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: image download returned status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image body: %w", err)
	}

	return data, nil
}

func trackRefOf(t SpotifyTrack) TrackRef {
	ref := TrackRef{Title: t.Name}
	if len(t.Artists) > 0 {
		ref.Artist = t.Artists[0].Name
	}
	return ref
}
