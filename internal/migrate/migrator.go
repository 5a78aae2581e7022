package migrate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/ameztoy/crosstune/internal/providers"
	"github.com/ameztoy/crosstune/internal/shared"
	"github.com/charmbracelet/log"
)

// ImageSource is the optional slice of the source provider used for cover
// copying.
type ImageSource interface {
	PlaylistImageURL(ctx context.Context, playlistID string) (string, error)
	DownloadImage(ctx context.Context, imageURL string) ([]byte, error)
}

// Confirmer answers yes/no prompts outside the per-item decision protocol
// (per-playlist confirmation, existing-playlist prompt). A nil Confirmer
// means yes to everything.
type Confirmer func(question string) bool

// PlaylistResult summarizes the migration of one playlist (or the favorites
// collection).
type PlaylistResult struct {
	Name        string
	Total       int
	AutoAdded   int
	ManualAdded int
	ListedAdded int
	Skipped     int
	Inserted    int
	SkippedWhy  string // non-empty when the whole playlist was skipped
}

// RunResult aggregates per-playlist results for a full migration run.
type RunResult struct {
	Playlists []PlaylistResult
}

// Migrator orchestrates playlist and favorites migration from a source
// catalog into a destination catalog. Execution is sequential by design:
// destination search quotas make parallel resolution counterproductive, and
// sequential calls keep failures attributable to a single track.
type Migrator struct {
	source  providers.SourceProvider
	dest    providers.DestinationProvider
	images  ImageSource
	planner *Planner
	policy  *Policy
	cfg     shared.MigrationConfig
	confirm Confirmer
	logger  *log.Logger
}

// NewMigrator wires the migration pipeline. images and confirm may be nil.
func NewMigrator(source providers.SourceProvider, dest providers.DestinationProvider, images ImageSource, planner *Planner, policy *Policy, cfg shared.MigrationConfig, confirm Confirmer, logger *log.Logger) *Migrator {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Migrator{
		source:  source,
		dest:    dest,
		images:  images,
		planner: planner,
		policy:  policy,
		cfg:     cfg,
		confirm: confirm,
		logger:  logger,
	}
}

// MigratePlaylists enumerates the source account's playlists and migrates
// each one. A single playlist's failure is logged and does not stop the
// run; authentication failures are fatal.
func (m *Migrator) MigratePlaylists(ctx context.Context, progress chan<- ProgressUpdate) (*RunResult, error) {
	sendProgress(progress, fetchPlaylistsUpdate(m.source.Name()))

	playlists, err := m.source.ListPlaylists(ctx)
	if err != nil {
		return nil, err
	}

	result := &RunResult{}
	for _, pl := range playlists {
		if m.cfg.AskPerPlaylist && m.confirm != nil {
			if !m.confirm(fmt.Sprintf("Migrate playlist %q (%d tracks)?", pl.Name, pl.TrackCount)) {
				result.Playlists = append(result.Playlists, PlaylistResult{
					Name: pl.Name, SkippedWhy: "declined",
				})
				continue
			}
		}

		plResult, err := m.MigratePlaylist(ctx, pl, progress)
		if err != nil {
			if errors.Is(err, shared.ErrAuthExpired) {
				return result, err
			}
			m.logger.Error("playlist migration failed", "playlist", pl.Name, "error", err)
			result.Playlists = append(result.Playlists, PlaylistResult{
				Name: pl.Name, SkippedWhy: err.Error(),
			})
			continue
		}
		result.Playlists = append(result.Playlists, *plResult)
	}

	return result, nil
}

// MigratePlaylist migrates one source playlist. Existing destination
// playlists of the same name follow the configured policy: skip the whole
// playlist (default), prompt, or merge into the existing one.
func (m *Migrator) MigratePlaylist(ctx context.Context, pl providers.Playlist, progress chan<- ProgressUpdate) (*PlaylistResult, error) {
	existing, err := m.dest.GetPlaylistByTitle(ctx, pl.Name)
	if err != nil {
		return nil, err
	}

	var handle *providers.PlaylistHandle
	created := false

	if existing != nil {
		switch m.cfg.OnExistingPlaylist {
		case shared.ExistingMerge:
			handle = existing
		case shared.ExistingPrompt:
			if m.confirm != nil && m.confirm(fmt.Sprintf("Playlist %q already exists on %s. Add tracks anyway?", pl.Name, m.dest.Name())) {
				handle = existing
				break
			}
			fallthrough
		default:
			sendProgress(progress, skipPlaylistUpdate(pl.Name))
			m.logger.Info("destination playlist exists, skipping", "playlist", pl.Name)
			return &PlaylistResult{Name: pl.Name, SkippedWhy: "already exists"}, nil
		}
	}

	tracks, err := m.source.ListTracks(ctx, pl.ID)
	if err != nil {
		return nil, err
	}
	sendProgress(progress, fetchTracksUpdate(pl.Name, len(tracks)))

	if handle == nil {
		sendProgress(progress, createPlaylistUpdate(pl.Name))
		handle, err = m.dest.GetOrCreatePlaylist(ctx, pl.Name,
			fmt.Sprintf("Migrated from %s", m.source.Name()))
		if err != nil {
			return nil, err
		}
		created = true
	}

	result, err := m.migrateItems(ctx, pl.Name, tracks, &playlistTarget{dest: m.dest, handle: handle}, progress)
	if err != nil {
		return nil, err
	}

	if created {
		m.copyCover(ctx, pl, handle, progress)
	}

	return result, nil
}

// MigrateFavorites runs the identical pipeline against the destination's
// favorites collection instead of a playlist.
func (m *Migrator) MigrateFavorites(ctx context.Context, progress chan<- ProgressUpdate) (*PlaylistResult, error) {
	tracks, err := m.source.SavedTracks(ctx)
	if err != nil {
		return nil, err
	}
	sendProgress(progress, fetchTracksUpdate("liked songs", len(tracks)))

	return m.migrateItems(ctx, "liked songs", tracks, &favoritesTarget{dest: m.dest}, progress)
}

// migrateItems is the shared planner → policy → insert loop. Auto-accepted
// items are inserted immediately one by one; manual and listed selections
// are buffered and flushed once at the end to minimize duplicate-check
// round trips.
func (m *Migrator) migrateItems(ctx context.Context, name string, tracks []providers.TrackRef, target insertTarget, progress chan<- ProgressUpdate) (*PlaylistResult, error) {
	items, err := m.planner.Plan(ctx, tracks, progress)
	if err != nil {
		return nil, err
	}

	result := &PlaylistResult{Name: name, Total: len(items)}
	var buffered []string

	for _, item := range items {
		id, outcome := item.Resolution.ID, OutcomeAutoAdded
		if !m.policy.AutoAccept(item) {
			var err error
			id, outcome, err = m.policy.Decide(ctx, item)
			if err != nil {
				return nil, err
			}
		}

		switch outcome {
		case OutcomeAutoAdded:
			inserted, err := m.insert(ctx, target, []string{id})
			if err != nil {
				if errors.Is(err, shared.ErrAuthExpired) {
					return nil, err
				}
				m.logger.Warn("insert failed", "track", item.SourceTrack, "error", err)
				continue
			}
			result.AutoAdded++
			result.Inserted += inserted
		case OutcomeManualAdded:
			result.ManualAdded++
			buffered = append(buffered, id)
		case OutcomeListedAdded:
			result.ListedAdded++
			buffered = append(buffered, id)
		case OutcomeSkipped:
			result.Skipped++
			m.logSkip(name, item)
		}
	}

	if len(buffered) > 0 {
		inserted, err := m.insert(ctx, target, buffered)
		if err != nil {
			if errors.Is(err, shared.ErrAuthExpired) {
				return nil, err
			}
			m.logger.Warn("batch insert failed", "playlist", name, "count", len(buffered), "error", err)
		} else {
			result.Inserted += inserted
		}
	}

	sendProgress(progress, insertUpdate(name, result.Inserted))
	return result, nil
}

// insert pushes ids into the target, dropping ids the destination already
// holds. The membership set is re-fetched on every call, never cached, so
// concurrent external mutation cannot make us re-add a dropped track.
func (m *Migrator) insert(ctx context.Context, target insertTarget, ids []string) (int, error) {
	toAdd := ids

	if m.cfg.AvoidDuplicates {
		existing, err := target.existingIDs(ctx)
		if err != nil {
			return 0, err
		}

		present := make(map[string]bool, len(existing))
		for _, id := range existing {
			present[id] = true
		}

		toAdd = make([]string, 0, len(ids))
		for _, id := range ids {
			if !present[id] {
				toAdd = append(toAdd, id)
			}
		}
	}

	if len(toAdd) == 0 {
		return 0, nil
	}

	if err := target.insert(ctx, toAdd); err != nil {
		return 0, err
	}
	return len(toAdd), nil
}

// logSkip appends one line to the skip log. A write failure is a warning,
// never a run failure. The file is opened and closed per write so no handle
// outlives a playlist.
func (m *Migrator) logSkip(playlistName string, item PlannedItem) {
	if m.cfg.SkipLog == "" {
		return
	}

	if dir := filepath.Dir(m.cfg.SkipLog); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			m.logger.Warn("failed to create skip log directory", "error", err)
			return
		}
	}

	f, err := os.OpenFile(m.cfg.SkipLog, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		m.logger.Warn("failed to open skip log", "error", err)
		return
	}
	defer f.Close()

	line := fmt.Sprintf("%s | %s — %s\n", playlistName, item.SourceTrack, item.SourceArtist)
	if _, err := f.WriteString(line); err != nil {
		m.logger.Warn("failed to write skip log", "error", err)
	}
}

// copyCover downloads the source playlist's cover into the blob directory
// and uploads it to the destination playlist. Best effort: any failure is
// logged and swallowed.
func (m *Migrator) copyCover(ctx context.Context, pl providers.Playlist, handle *providers.PlaylistHandle, progress chan<- ProgressUpdate) {
	if m.images == nil || m.cfg.BlobDir == "" {
		return
	}

	imageURL, err := m.images.PlaylistImageURL(ctx, pl.ID)
	if err != nil || imageURL == "" {
		if err != nil {
			m.logger.Warn("cover lookup failed", "playlist", pl.Name, "error", err)
		}
		return
	}

	sendProgress(progress, copyCoverUpdate(pl.Name))

	image, err := m.images.DownloadImage(ctx, imageURL)
	if err != nil {
		m.logger.Warn("cover download failed", "playlist", pl.Name, "error", err)
		return
	}

	if path, err := writeBlob(m.cfg.BlobDir, pl.Name, image); err != nil {
		m.logger.Warn("cover blob write failed", "playlist", pl.Name, "error", err)
	} else {
		m.logger.Debug("cover stored", "path", path)
	}

	if err := m.dest.SetPlaylistImage(ctx, handle, image); err != nil {
		m.logger.Warn("cover upload failed", "playlist", pl.Name, "error", err)
	}
}

var blobNameRe = regexp.MustCompile(`[^\w.-]+`)

// writeBlob stores data under a name derived from the playlist, suffixing
// on collision instead of overwriting.
func writeBlob(dir, name string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create blob directory: %w", err)
	}

	base := blobNameRe.ReplaceAllString(name, "_")
	if base == "" {
		base = "cover"
	}

	path := filepath.Join(dir, base+".jpg")
	for i := 1; ; i++ {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			break
		}
		path = filepath.Join(dir, fmt.Sprintf("%s_%d.jpg", base, i))
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write blob: %w", err)
	}
	return path, nil
}

// insertTarget abstracts "a place tracks can be added": a playlist or the
// favorites collection.
type insertTarget interface {
	existingIDs(ctx context.Context) ([]string, error)
	insert(ctx context.Context, ids []string) error
}

type playlistTarget struct {
	dest   providers.DestinationProvider
	handle *providers.PlaylistHandle
}

func (t *playlistTarget) existingIDs(ctx context.Context) ([]string, error) {
	return t.dest.ListTrackIDs(ctx, t.handle)
}

func (t *playlistTarget) insert(ctx context.Context, ids []string) error {
	return t.dest.AddTracks(ctx, t.handle, ids)
}

type favoritesTarget struct {
	dest providers.DestinationProvider
}

func (t *favoritesTarget) existingIDs(ctx context.Context) ([]string, error) {
	return t.dest.FavoriteIDs(ctx)
}

func (t *favoritesTarget) insert(ctx context.Context, ids []string) error {
	return t.dest.AddFavorites(ctx, ids)
}
