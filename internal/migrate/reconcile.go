package migrate

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/ameztoy/crosstune/internal/providers"
	"github.com/ameztoy/crosstune/internal/shared"
	"github.com/charmbracelet/log"
)

// ReconcileResult summarizes one playlist's bidirectional sync.
type ReconcileResult struct {
	Name     string
	AddedToA []string
	AddedToB []string
	// Skipped is set when the playlist is missing on either side; the
	// reconciler never creates playlists.
	Skipped bool
}

// ReconcileRunResult aggregates results across all common playlists.
type ReconcileRunResult struct {
	Playlists []ReconcileResult
	Failed    []string
}

// Reconciler keeps playlists of the same name in two destination accounts
// holding the same track set. It operates purely on already-resolved
// destination IDs; no scoring is involved.
type Reconciler struct {
	a               providers.DestinationProvider
	b               providers.DestinationProvider
	avoidDuplicates bool
	logger          *log.Logger
}

// NewReconciler creates a reconciler over an account pair.
func NewReconciler(a, b providers.DestinationProvider, avoidDuplicates bool, logger *log.Logger) *Reconciler {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Reconciler{a: a, b: b, avoidDuplicates: avoidDuplicates, logger: logger}
}

// ReconcileAll enumerates playlist names common to both accounts by
// normalized-name intersection and reconciles each independently. One
// playlist's failure is recorded and does not block the others;
// authentication failures terminate the run.
func (r *Reconciler) ReconcileAll(ctx context.Context, progress chan<- ProgressUpdate) (*ReconcileRunResult, error) {
	listA, err := r.a.ListPlaylists(ctx)
	if err != nil {
		return nil, err
	}
	listB, err := r.b.ListPlaylists(ctx)
	if err != nil {
		return nil, err
	}

	common := CommonNames(listA, listB)

	result := &ReconcileRunResult{}
	total := len(common)

	for i, name := range common {
		sendProgress(progress, reconcileUpdate(i+1, total, name))

		plResult, err := r.Reconcile(ctx, name)
		if err != nil {
			if errors.Is(err, shared.ErrAuthExpired) {
				return result, err
			}
			r.logger.Error("reconciliation failed", "playlist", name, "error", err)
			result.Failed = append(result.Failed, name)
			continue
		}

		sendProgress(progress, reconcileDoneUpdate(i+1, total, name,
			len(plResult.AddedToA), len(plResult.AddedToB)))
		result.Playlists = append(result.Playlists, *plResult)
	}

	return result, nil
}

// Reconcile syncs one playlist name across the account pair. Missing on
// either side is a documented no-op, not an error. After a successful run
// both sides hold the union of their track sets; no relative order is
// imposed on items unique to each side beyond appending in sorted ID order.
func (r *Reconciler) Reconcile(ctx context.Context, name string) (*ReconcileResult, error) {
	handleA, err := r.a.GetPlaylistByTitle(ctx, name)
	if err != nil {
		return nil, err
	}
	handleB, err := r.b.GetPlaylistByTitle(ctx, name)
	if err != nil {
		return nil, err
	}

	if handleA == nil || handleB == nil {
		r.logger.Info("playlist missing on one side, nothing to reconcile", "playlist", name)
		return &ReconcileResult{Name: name, Skipped: true}, nil
	}

	idsA, err := r.a.ListTrackIDs(ctx, handleA)
	if err != nil {
		return nil, err
	}
	idsB, err := r.b.ListTrackIDs(ctx, handleB)
	if err != nil {
		return nil, err
	}

	setA := toSet(idsA)
	setB := toSet(idsB)

	missingInA := sortedDifference(setB, setA)
	missingInB := sortedDifference(setA, setB)

	result := &ReconcileResult{Name: name}

	if added, err := r.push(ctx, r.a, handleA, missingInA); err != nil {
		return nil, err
	} else {
		result.AddedToA = added
	}

	if added, err := r.push(ctx, r.b, handleB, missingInB); err != nil {
		return nil, err
	} else {
		result.AddedToB = added
	}

	return result, nil
}

// push inserts ids into one side, re-checking current membership first.
// The set arithmetic already guarantees no duplicates, but the playlist may
// have been mutated externally since the IDs were listed.
func (r *Reconciler) push(ctx context.Context, dest providers.DestinationProvider, handle *providers.PlaylistHandle, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	toAdd := ids
	if r.avoidDuplicates {
		current, err := dest.ListTrackIDs(ctx, handle)
		if err != nil {
			return nil, err
		}
		present := toSet(current)

		toAdd = make([]string, 0, len(ids))
		for _, id := range ids {
			if !present[id] {
				toAdd = append(toAdd, id)
			}
		}
	}

	if len(toAdd) == 0 {
		return nil, nil
	}

	if err := dest.AddTracks(ctx, handle, toAdd); err != nil {
		return nil, err
	}
	return toAdd, nil
}

func toSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

// sortedDifference returns the members of from absent in have, sorted for
// deterministic insertion order.
func sortedDifference(from, have map[string]bool) []string {
	var out []string
	for id := range from {
		if !have[id] {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// CommonNames returns the case-insensitive intersection of two playlist
// name lists, preserving the first list's display casing.
func CommonNames(a, b []providers.PlaylistHandle) []string {
	inB := make(map[string]bool, len(b))
	for _, pl := range b {
		inB[strings.ToLower(pl.Name)] = true
	}

	var common []string
	seen := make(map[string]bool)
	for _, pl := range a {
		key := strings.ToLower(pl.Name)
		if inB[key] && !seen[key] {
			seen[key] = true
			common = append(common, pl.Name)
		}
	}
	return common
}
