// package migrate implements library migration and reconciliation between a
// source catalog and a destination catalog.
//
// The pipeline is Planner (per-track resolution) → Policy (auto-accept or
// interactive decision) → batched insertion. Reconciler is a separate flow
// operating purely on destination-side identifiers. Operations emit progress
// updates via channels for non-blocking status reporting to CLI/UI layers.
package migrate

import (
	"context"
	"errors"

	"github.com/ameztoy/crosstune/internal/match"
	"github.com/ameztoy/crosstune/internal/providers"
	"github.com/ameztoy/crosstune/internal/shared"
	"github.com/charmbracelet/log"
)

// PlannedItem is one source track with its resolution outcome. Created once
// per source track by the planner and immutable afterward; the decision
// outcome is tracked separately.
type PlannedItem struct {
	SourceTrack  string
	SourceArtist string
	Resolution   match.Result
}

// Planner turns a batch of source tracks into an ordered list of planned
// items. Output order always matches input order.
type Planner struct {
	resolver *match.Resolver
	limit    int
	logger   *log.Logger
}

// NewPlanner creates a planner resolving through the given resolver with a
// fixed per-query candidate limit.
func NewPlanner(resolver *match.Resolver, limit int, logger *log.Logger) *Planner {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Planner{resolver: resolver, limit: limit, logger: logger}
}

// Plan resolves every track once, in order. Titles are cleaned of
// parenthesized and --...-- noise before matching. A provider failure on a
// single query leaves that item unresolved rather than aborting the batch;
// only authentication failures propagate, since nothing later in the run
// can succeed without credentials.
func (p *Planner) Plan(ctx context.Context, tracks []providers.TrackRef, progress chan<- ProgressUpdate) ([]PlannedItem, error) {
	items := make([]PlannedItem, 0, len(tracks))
	total := len(tracks)

	for i, track := range tracks {
		title := match.CleanTitle(track.Title)
		sendProgress(progress, resolveTrackUpdate(i+1, total, title, track.Artist))

		item := PlannedItem{SourceTrack: title, SourceArtist: track.Artist}

		res, err := p.resolver.Resolve(ctx, title, track.Artist, p.limit)
		if err != nil {
			if errors.Is(err, shared.ErrAuthExpired) {
				return nil, err
			}
			p.logger.Warn("resolution failed, leaving track unresolved",
				"track", title, "artist", track.Artist, "error", err)
		} else {
			item.Resolution = res
		}

		items = append(items, item)
	}

	return items, nil
}
