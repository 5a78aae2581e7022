package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ameztoy/crosstune/internal/shared"
	"golang.org/x/oauth2"
)

func TestSpotifyProvider(t *testing.T) {
	t.Run("NewSpotifyProvider", func(t *testing.T) {
		t.Run("With Valid Credentials", func(t *testing.T) {
			p, err := NewSpotifyProvider(shared.SpotifyConfig{
				ClientID:     "test_client_id",
				ClientSecret: "test_client_secret",
				RedirectURI:  "http://127.0.0.1:9999/callback",
			})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if p.Name() != "Spotify" {
				t.Errorf("expected provider name 'Spotify', got %s", p.Name())
			}
			if p.config.RedirectURL != "http://127.0.0.1:9999/callback" {
				t.Errorf("unexpected redirect URL %s", p.config.RedirectURL)
			}
		})

		t.Run("Missing Credentials", func(t *testing.T) {
			_, err := NewSpotifyProvider(shared.SpotifyConfig{ClientID: "only_id"})
			if !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})

		t.Run("Default Redirect URI", func(t *testing.T) {
			p, err := NewSpotifyProvider(shared.SpotifyConfig{
				ClientID:     "test_client_id",
				ClientSecret: "test_client_secret",
			})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if p.config.RedirectURL == "" {
				t.Error("expected a default redirect URL")
			}
		})
	})

	t.Run("AuthURL", func(t *testing.T) {
		p, _ := NewSpotifyProvider(shared.SpotifyConfig{
			ClientID:     "test_client_id",
			ClientSecret: "test_client_secret",
		})

		authURL := p.AuthURL("test_state")
		if !strings.Contains(authURL, "accounts.spotify.com") {
			t.Error("auth URL should contain Spotify domain")
		}
		if !strings.Contains(authURL, "test_state") {
			t.Error("auth URL should contain state")
		}
	})

	t.Run("Requires Authentication", func(t *testing.T) {
		p, _ := NewSpotifyProvider(shared.SpotifyConfig{
			ClientID:     "test_client_id",
			ClientSecret: "test_client_secret",
		})

		_, err := p.ListPlaylists(context.Background())
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("ListPlaylists Paginates", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/me/playlists" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			offset := r.URL.Query().Get("offset")
			if offset == "0" {
				next := "more"
				writeJSON(t, w, SpotifyPaginatedPlaylists{
					Items: []SpotifySimplePlaylist{
						{ID: "p1", Name: "Road Trip", Tracks: simplePlaylistTracks{Total: 12}},
					},
					Next: &next,
				})
				return
			}
			writeJSON(t, w, SpotifyPaginatedPlaylists{
				Items: []SpotifySimplePlaylist{
					{ID: "p2", Name: "Focus", Tracks: simplePlaylistTracks{Total: 3}},
				},
			})
		}))
		defer server.Close()

		p := testSpotifyProvider(server.URL)
		playlists, err := p.ListPlaylists(context.Background())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if len(playlists) != 2 {
			t.Fatalf("expected 2 playlists across pages, got %d", len(playlists))
		}
		if playlists[0].Name != "Road Trip" || playlists[1].Name != "Focus" {
			t.Errorf("unexpected playlists %+v", playlists)
		}
		if playlists[0].TrackCount != 12 {
			t.Errorf("expected track count 12, got %d", playlists[0].TrackCount)
		}
	})

	t.Run("ListTracks Drops Local Files", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, SpotifyPaginatedPlaylistTracks{
				Items: []SpotifyPlaylistTrack{
					{Track: SpotifyTrack{ID: "t1", Name: "Yellow", Artists: []SpotifyArtist{{Name: "Coldplay"}}}},
					{Track: SpotifyTrack{ID: "t2", Name: "Bootleg", IsLocal: true}},
					{Track: SpotifyTrack{Name: "Ghost entry"}},
				},
			})
		}))
		defer server.Close()

		p := testSpotifyProvider(server.URL)
		tracks, err := p.ListTracks(context.Background(), "p1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if len(tracks) != 1 {
			t.Fatalf("expected 1 track after filtering, got %d", len(tracks))
		}
		if tracks[0].Title != "Yellow" || tracks[0].Artist != "Coldplay" {
			t.Errorf("unexpected track %+v", tracks[0])
		}
	})

	t.Run("Unauthorized Maps To ErrAuthExpired", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer server.Close()

		p := testSpotifyProvider(server.URL)
		_, err := p.ListPlaylists(context.Background())
		if !errors.Is(err, shared.ErrAuthExpired) {
			t.Errorf("expected ErrAuthExpired, got %v", err)
		}
	})

	t.Run("Server Error Maps To ErrServiceUnavailable", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		p := testSpotifyProvider(server.URL)
		_, err := p.SavedTracks(context.Background())
		if !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})

	t.Run("PlaylistImageURL Picks Largest", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, []SpotifyImage{
				{URL: "small", Width: 64, Height: 64},
				{URL: "large", Width: 640, Height: 640},
				{URL: "medium", Width: 300, Height: 300},
			})
		}))
		defer server.Close()

		p := testSpotifyProvider(server.URL)
		imageURL, err := p.PlaylistImageURL(context.Background(), "p1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if imageURL != "large" {
			t.Errorf("expected largest image URL, got %s", imageURL)
		}
	})

	t.Run("PlaylistImageURL Empty When No Cover", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, []SpotifyImage{})
		}))
		defer server.Close()

		p := testSpotifyProvider(server.URL)
		imageURL, err := p.PlaylistImageURL(context.Background(), "p1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if imageURL != "" {
			t.Errorf("expected empty URL, got %s", imageURL)
		}
	})

	t.Run("Provider Interface", func(t *testing.T) {
		p, _ := NewSpotifyProvider(shared.SpotifyConfig{
			ClientID:     "test_client_id",
			ClientSecret: "test_client_secret",
		})
		var _ SourceProvider = p
	})
}

func TestTidalProvider(t *testing.T) {
	t.Run("NewTidalProvider", func(t *testing.T) {
		t.Run("With Valid Credentials", func(t *testing.T) {
			p, err := NewTidalProvider("TIDAL", shared.TidalConfig{
				ClientID:     "test_client_id",
				ClientSecret: "test_client_secret",
			})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if p.Name() != "TIDAL" {
				t.Errorf("expected provider name 'TIDAL', got %s", p.Name())
			}
		})

		t.Run("Label Distinguishes Accounts", func(t *testing.T) {
			p, err := NewTidalProvider("TIDAL B", shared.TidalConfig{
				ClientID:     "test_client_id",
				ClientSecret: "test_client_secret",
			})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if p.Name() != "TIDAL B" {
				t.Errorf("expected provider name 'TIDAL B', got %s", p.Name())
			}
		})

		t.Run("Missing Credentials", func(t *testing.T) {
			_, err := NewTidalProvider("TIDAL", shared.TidalConfig{})
			if !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})
	})

	t.Run("SearchTracks", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/search/tracks" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			if got := r.URL.Query().Get("query"); got != "yellow coldplay" {
				t.Errorf("unexpected query %q", got)
			}
			writeJSON(t, w, tidalSearchResult{
				Tracks: tidalPage[TidalTrack]{
					Items: []TidalTrack{
						{ID: 101, Title: "Yellow", Artists: []TidalArtist{{Name: "Coldplay"}}},
						{ID: 102, Title: "Yellow (Live)", Artists: []TidalArtist{{Name: "Coldplay"}, {Name: "Orchestra"}}},
					},
				},
			})
		}))
		defer server.Close()

		p := testTidalProvider(server.URL)
		candidates, err := p.SearchTracks(context.Background(), "yellow coldplay", 5)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if len(candidates) != 2 {
			t.Fatalf("expected 2 candidates, got %d", len(candidates))
		}
		if candidates[0].ID != "101" {
			t.Errorf("expected numeric ID formatted as string, got %s", candidates[0].ID)
		}
		if candidates[1].JoinedArtists() != "Coldplay, Orchestra" {
			t.Errorf("unexpected joined artists %s", candidates[1].JoinedArtists())
		}
	})

	t.Run("GetPlaylistByTitle Is Case Insensitive", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, tidalPage[TidalPlaylist]{
				Items: []TidalPlaylist{
					{UUID: "u1", Title: "Road Trip"},
					{UUID: "u2", Title: "Focus"},
				},
				TotalItems: 2,
			})
		}))
		defer server.Close()

		p := testTidalProvider(server.URL)
		pl, err := p.GetPlaylistByTitle(context.Background(), "ROAD TRIP")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if pl == nil || pl.ID != "u1" {
			t.Fatalf("expected playlist u1, got %+v", pl)
		}

		missing, err := p.GetPlaylistByTitle(context.Background(), "Workout")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if missing != nil {
			t.Errorf("expected nil for absent playlist, got %+v", missing)
		}
	})

	t.Run("GetOrCreatePlaylist", func(t *testing.T) {
		created := false
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPost {
				created = true
				if err := r.ParseForm(); err != nil {
					t.Fatalf("failed to parse form: %v", err)
				}
				if r.PostForm.Get("title") != "Workout" {
					t.Errorf("unexpected title %q", r.PostForm.Get("title"))
				}
				writeJSON(t, w, TidalPlaylist{UUID: "new-uuid", Title: "Workout"})
				return
			}
			writeJSON(t, w, tidalPage[TidalPlaylist]{
				Items:      []TidalPlaylist{{UUID: "u1", Title: "Road Trip"}},
				TotalItems: 1,
			})
		}))
		defer server.Close()

		p := testTidalProvider(server.URL)

		existing, err := p.GetOrCreatePlaylist(context.Background(), "road trip", "")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if existing.ID != "u1" || created {
			t.Errorf("expected existing playlist without creation, got %+v created=%v", existing, created)
		}

		fresh, err := p.GetOrCreatePlaylist(context.Background(), "Workout", "migrated")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if fresh.ID != "new-uuid" || !created {
			t.Errorf("expected created playlist, got %+v created=%v", fresh, created)
		}
	})

	t.Run("ListTrackIDs Deduplicates", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, tidalPage[tidalPlaylistItem]{
				Items: []tidalPlaylistItem{
					{Item: TidalTrack{ID: 1}},
					{Item: TidalTrack{ID: 2}},
					{Item: TidalTrack{ID: 1}},
				},
				TotalItems: 3,
			})
		}))
		defer server.Close()

		p := testTidalProvider(server.URL)
		ids, err := p.ListTrackIDs(context.Background(), &PlaylistHandle{ID: "u1"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(ids) != 2 {
			t.Fatalf("expected deduplicated IDs, got %v", ids)
		}
	})

	t.Run("AddTracks", func(t *testing.T) {
		var gotIDs string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				t.Errorf("expected POST, got %s", r.Method)
			}
			if err := r.ParseForm(); err != nil {
				t.Fatalf("failed to parse form: %v", err)
			}
			gotIDs = r.PostForm.Get("trackIds")
		}))
		defer server.Close()

		p := testTidalProvider(server.URL)
		err := p.AddTracks(context.Background(), &PlaylistHandle{ID: "u1"}, []string{"1", "2", "3"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if gotIDs != "1,2,3" {
			t.Errorf("expected batched IDs '1,2,3', got %q", gotIDs)
		}

		t.Run("Empty Batch Is A No-Op", func(t *testing.T) {
			gotIDs = ""
			if err := p.AddTracks(context.Background(), &PlaylistHandle{ID: "u1"}, nil); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if gotIDs != "" {
				t.Error("expected no request for empty batch")
			}
		})
	})

	t.Run("Unauthorized Maps To ErrAuthExpired", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer server.Close()

		p := testTidalProvider(server.URL)
		_, err := p.SearchTracks(context.Background(), "anything", 5)
		if !errors.Is(err, shared.ErrAuthExpired) {
			t.Errorf("expected ErrAuthExpired, got %v", err)
		}
	})

	t.Run("Rate Limit Maps To ErrServiceUnavailable", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer server.Close()

		p := testTidalProvider(server.URL)
		_, err := p.SearchTracks(context.Background(), "anything", 5)
		if !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})

	t.Run("Provider Interface", func(t *testing.T) {
		p, _ := NewTidalProvider("TIDAL", shared.TidalConfig{
			ClientID:     "test_client_id",
			ClientSecret: "test_client_secret",
		})
		var _ DestinationProvider = p
	})
}

func TestTokenPersistence(t *testing.T) {
	t.Run("Round Trip", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "tokens", "spotify.json")
		token := &oauth2.Token{
			AccessToken:  "access",
			RefreshToken: "refresh",
			TokenType:    "Bearer",
		}

		if err := SaveToken(path, token); err != nil {
			t.Fatalf("expected no error saving, got %v", err)
		}

		loaded, err := LoadToken(path)
		if err != nil {
			t.Fatalf("expected no error loading, got %v", err)
		}
		if loaded.AccessToken != "access" || loaded.RefreshToken != "refresh" {
			t.Errorf("unexpected token %+v", loaded)
		}
	})

	t.Run("Missing File", func(t *testing.T) {
		_, err := LoadToken(filepath.Join(t.TempDir(), "absent.json"))
		if err == nil {
			t.Error("expected error for missing token file")
		}
	})
}

// testSpotifyProvider returns an authenticated provider pointed at a test server.
func testSpotifyProvider(baseURL string) *SpotifyProvider {
	p, _ := NewSpotifyProvider(shared.SpotifyConfig{
		ClientID:     "test_client_id",
		ClientSecret: "test_client_secret",
	})
	p.baseURL = baseURL
	p.token = &oauth2.Token{AccessToken: "test_token"}
	p.httpClient = http.DefaultClient
	return p
}

// testTidalProvider returns an authenticated provider pointed at a test server.
func testTidalProvider(baseURL string) *TidalProvider {
	p, _ := NewTidalProvider("TIDAL", shared.TidalConfig{
		ClientID:     "test_client_id",
		ClientSecret: "test_client_secret",
	})
	p.baseURL = baseURL
	p.token = &oauth2.Token{AccessToken: "test_token"}
	p.httpClient = http.DefaultClient
	p.userID = "42"
	p.countryCode = "US"
	return p
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	data, err := shared.MarshalJSON(v, false)
	if err != nil {
		t.Fatalf("failed to marshal response: %v", err)
	}
	fmt.Fprint(w, string(data))
}
