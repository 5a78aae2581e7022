// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/ameztoy/crosstune/internal/providers"
)

// MockSource is a test double for [providers.SourceProvider]. Playlists
// maps playlist ID to its track list.
type MockSource struct {
	PlaylistList []providers.Playlist
	Tracks       map[string][]providers.TrackRef
	TrackErrs    map[string]error
	Saved        []providers.TrackRef
	Images       map[string]string
	Err          error
}

func (m *MockSource) Name() string { return "mock-source" }

func (m *MockSource) ListPlaylists(ctx context.Context) ([]providers.Playlist, error) {
	return m.PlaylistList, m.Err
}

func (m *MockSource) ListTracks(ctx context.Context, playlistID string) ([]providers.TrackRef, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if err := m.TrackErrs[playlistID]; err != nil {
		return nil, err
	}
	return m.Tracks[playlistID], nil
}

func (m *MockSource) SavedTracks(ctx context.Context) ([]providers.TrackRef, error) {
	return m.Saved, m.Err
}

func (m *MockSource) PlaylistImageURL(ctx context.Context, playlistID string) (string, error) {
	return m.Images[playlistID], m.Err
}

// MockDestination is an in-memory [providers.DestinationProvider] that
// records every mutating call for assertions.
type MockDestination struct {
	Label      string
	Candidates map[string][]providers.Candidate // search query → results
	Playlists  map[string][]string              // playlist name → track IDs
	Favorites  []string

	SearchCalls []string
	AddCalls    int
	ListCalls   int
	SearchErr   error
	AddErr      error
	ListErr     error
}

// NewMockDestination creates an empty destination.
func NewMockDestination(label string) *MockDestination {
	return &MockDestination{
		Label:      label,
		Candidates: make(map[string][]providers.Candidate),
		Playlists:  make(map[string][]string),
	}
}

func (m *MockDestination) Name() string {
	if m.Label == "" {
		return "mock-dest"
	}
	return m.Label
}

func (m *MockDestination) SearchTracks(ctx context.Context, query string, limit int) ([]providers.Candidate, error) {
	m.SearchCalls = append(m.SearchCalls, query)
	if m.SearchErr != nil {
		return nil, m.SearchErr
	}
	results := m.Candidates[query]
	if limit < len(results) {
		results = results[:limit]
	}
	return results, nil
}

func (m *MockDestination) ListPlaylists(ctx context.Context) ([]providers.PlaylistHandle, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	var handles []providers.PlaylistHandle
	for name := range m.Playlists {
		handles = append(handles, providers.PlaylistHandle{ID: "id:" + name, Name: name})
	}
	return handles, nil
}

func (m *MockDestination) GetPlaylistByTitle(ctx context.Context, title string) (*providers.PlaylistHandle, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	for name := range m.Playlists {
		if strings.EqualFold(name, title) {
			return &providers.PlaylistHandle{ID: "id:" + name, Name: name}, nil
		}
	}
	return nil, nil
}

func (m *MockDestination) GetOrCreatePlaylist(ctx context.Context, title, description string) (*providers.PlaylistHandle, error) {
	if existing, err := m.GetPlaylistByTitle(ctx, title); err != nil || existing != nil {
		return existing, err
	}
	m.Playlists[title] = nil
	return &providers.PlaylistHandle{ID: "id:" + title, Name: title}, nil
}

func (m *MockDestination) ListTrackIDs(ctx context.Context, pl *providers.PlaylistHandle) ([]string, error) {
	m.ListCalls++
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	name, err := m.playlistName(pl)
	if err != nil {
		return nil, err
	}
	return append([]string(nil), m.Playlists[name]...), nil
}

func (m *MockDestination) AddTracks(ctx context.Context, pl *providers.PlaylistHandle, ids []string) error {
	m.AddCalls++
	if m.AddErr != nil {
		return m.AddErr
	}
	name, err := m.playlistName(pl)
	if err != nil {
		return err
	}
	m.Playlists[name] = append(m.Playlists[name], ids...)
	return nil
}

func (m *MockDestination) FavoriteIDs(ctx context.Context) ([]string, error) {
	m.ListCalls++
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	return append([]string(nil), m.Favorites...), nil
}

func (m *MockDestination) AddFavorites(ctx context.Context, ids []string) error {
	m.AddCalls++
	if m.AddErr != nil {
		return m.AddErr
	}
	m.Favorites = append(m.Favorites, ids...)
	return nil
}

func (m *MockDestination) SetPlaylistImage(ctx context.Context, pl *providers.PlaylistHandle, image []byte) error {
	return nil
}

func (m *MockDestination) playlistName(pl *providers.PlaylistHandle) (string, error) {
	name := strings.TrimPrefix(pl.ID, "id:")
	if _, ok := m.Playlists[name]; !ok {
		return "", fmt.Errorf("unknown playlist handle %q", pl.ID)
	}
	return name, nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
