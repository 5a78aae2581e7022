// package cache persists track resolutions in SQLite so repeated migrations
// skip the destination search for pairs they have already resolved.
package cache

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ameztoy/crosstune/internal/match"
	"github.com/ameztoy/crosstune/internal/shared"
	"github.com/charmbracelet/log"
)

// Entry is one cached resolution row.
type Entry struct {
	ID              string
	TrackKey        string
	Provider        string
	ResolvedID      string
	Score           int
	ResolvedTitle   string
	ResolvedArtists string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ResolutionStore implements [match.Cache] on top of the resolutions table.
// Store failures are logged and swallowed; a broken cache must degrade to
// extra searches, never to a failed migration.
type ResolutionStore struct {
	db       *sql.DB
	provider string
	logger   *log.Logger
}

// NewResolutionStore creates a store scoped to one destination provider.
func NewResolutionStore(db *sql.DB, provider string, logger *log.Logger) *ResolutionStore {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &ResolutionStore{db: db, provider: provider, logger: logger}
}

// Lookup returns the cached resolution for a (track, artist) pair.
func (s *ResolutionStore) Lookup(ctx context.Context, track, artist string) (match.Result, bool) {
	key := shared.NormalizeTrackKey(track, artist)

	query := `
		SELECT resolved_id, score, resolved_title, resolved_artists
		FROM resolutions
		WHERE track_key = ? AND provider = ?
	`

	var res match.Result
	err := s.db.QueryRowContext(ctx, query, key, s.provider).
		Scan(&res.ID, &res.Score, &res.Title, &res.Artists)
	if err == sql.ErrNoRows {
		return match.Result{}, false
	}
	if err != nil {
		s.logger.Warn("resolution cache lookup failed", "key", key, "error", err)
		return match.Result{}, false
	}

	return res, true
}

// Store records a resolution, replacing any previous entry for the same
// (key, provider) pair. Other providers' rows for the key are untouched.
func (s *ResolutionStore) Store(ctx context.Context, track, artist string, res match.Result) {
	key := shared.NormalizeTrackKey(track, artist)
	now := time.Now()

	query := `
		INSERT INTO resolutions (id, track_key, provider, resolved_id, score, resolved_title, resolved_artists, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(track_key, provider) DO UPDATE SET
			resolved_id = excluded.resolved_id,
			score = excluded.score,
			resolved_title = excluded.resolved_title,
			resolved_artists = excluded.resolved_artists,
			updated_at = excluded.updated_at
	`

	_, err := s.db.ExecContext(ctx, query,
		shared.GenerateID(),
		key,
		s.provider,
		res.ID,
		res.Score,
		res.Title,
		res.Artists,
		now,
		now,
	)
	if err != nil {
		s.logger.Warn("resolution cache store failed", "key", key, "error", err)
	}
}

// List returns all cached entries for the store's provider, newest first.
func (s *ResolutionStore) List(ctx context.Context) ([]Entry, error) {
	query := `
		SELECT id, track_key, provider, resolved_id, score, resolved_title, resolved_artists, created_at, updated_at
		FROM resolutions
		WHERE provider = ?
		ORDER BY updated_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query, s.provider)
	if err != nil {
		return nil, fmt.Errorf("failed to list resolutions: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		err := rows.Scan(&e.ID, &e.TrackKey, &e.Provider, &e.ResolvedID, &e.Score,
			&e.ResolvedTitle, &e.ResolvedArtists, &e.CreatedAt, &e.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan resolution: %w", err)
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// Count returns the number of cached entries for the store's provider.
func (s *ResolutionStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM resolutions WHERE provider = ?", s.provider).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count resolutions: %w", err)
	}
	return count, nil
}

// Clear deletes every cached entry for the store's provider and returns how
// many rows were removed.
func (s *ResolutionStore) Clear(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM resolutions WHERE provider = ?", s.provider)
	if err != nil {
		return 0, fmt.Errorf("failed to clear resolutions: %w", err)
	}
	return result.RowsAffected()
}
