// package providers defines the catalog provider boundary for crosstune.
//
// Spotify (source), TIDAL (destination)
package providers

import (
	"context"
	"strings"
)

// TrackRef is a source-side track reference. Artist is the first listed
// artist only and may be empty, which degrades matching quality but is valid.
type TrackRef struct {
	Title  string
	Artist string
}

// Candidate is a destination-side search result scored against a source
// track. ID is provider-specific and opaque to the matching core; it is only
// handed back to the same provider for insertion.
type Candidate struct {
	ID      string
	Title   string
	Artists []string
}

// JoinedArtists returns the candidate's artist names as a single
// comma-separated string for display and artist matching.
func (c Candidate) JoinedArtists() string {
	return strings.Join(c.Artists, ", ")
}

// Playlist describes a source-side playlist listing entry.
type Playlist struct {
	ID         string
	Name       string
	TrackCount int
}

// PlaylistHandle is an opaque destination-provider playlist identifier plus
// its display name. The core never inspects ID; it passes the handle back to
// the provider that produced it.
type PlaylistHandle struct {
	ID   string
	Name string
}

// SourceProvider exposes read access to the account being migrated from.
type SourceProvider interface {
	// Name returns the provider's display name (e.g. "Spotify").
	Name() string

	// ListPlaylists retrieves all playlists for the authenticated user,
	// paginating internally.
	ListPlaylists(ctx context.Context) ([]Playlist, error)

	// ListTracks retrieves every track of a playlist in playlist order.
	ListTracks(ctx context.Context, playlistID string) ([]TrackRef, error)

	// SavedTracks retrieves the user's liked/saved tracks.
	SavedTracks(ctx context.Context) ([]TrackRef, error)

	// PlaylistImageURL returns the URL of the largest cover image for the
	// playlist, or "" when the playlist has no cover.
	PlaylistImageURL(ctx context.Context, playlistID string) (string, error)
}

// DestinationProvider exposes search and write access to the account being
// migrated into. Implementations must tolerate limit values up to the
// planner's per-query limit.
type DestinationProvider interface {
	// Name returns the provider's display name (e.g. "TIDAL").
	Name() string

	// SearchTracks runs a free-text track search and returns up to limit
	// candidates in provider relevance order.
	SearchTracks(ctx context.Context, query string, limit int) ([]Candidate, error)

	// ListPlaylists retrieves handles for all of the user's playlists.
	ListPlaylists(ctx context.Context) ([]PlaylistHandle, error)

	// GetPlaylistByTitle looks a playlist up by case-insensitive exact name
	// match. Returns (nil, nil) when no playlist has that name.
	GetPlaylistByTitle(ctx context.Context, title string) (*PlaylistHandle, error)

	// GetOrCreatePlaylist returns the playlist named title, creating it
	// when absent. The title is a natural key: an existing playlist is
	// never recreated.
	GetOrCreatePlaylist(ctx context.Context, title, description string) (*PlaylistHandle, error)

	// ListTrackIDs returns the deduplicated set of track IDs currently in
	// the playlist. Callers must re-fetch before every mutating operation
	// rather than caching the result.
	ListTrackIDs(ctx context.Context, pl *PlaylistHandle) ([]string, error)

	// AddTracks appends the given track IDs to the playlist as one batch.
	AddTracks(ctx context.Context, pl *PlaylistHandle, ids []string) error

	// FavoriteIDs returns the IDs of the user's favorite tracks.
	FavoriteIDs(ctx context.Context) ([]string, error)

	// AddFavorites adds the given track IDs to the user's favorites.
	AddFavorites(ctx context.Context, ids []string) error

	// SetPlaylistImage uploads a cover image for the playlist.
	SetPlaylistImage(ctx context.Context, pl *PlaylistHandle, image []byte) error
}
