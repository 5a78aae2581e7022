package match

import (
	"context"
	"sort"
	"strings"

	"github.com/ameztoy/crosstune/internal/providers"
)

// Result is a resolved destination track. A zero Result (empty ID) means
// the track could not be resolved.
type Result struct {
	ID      string
	Score   int
	Title   string
	Artists string
}

// Resolved reports whether the result carries a destination ID.
func (r Result) Resolved() bool {
	return r.ID != ""
}

// Scored pairs a candidate with its score for ranked presentation.
type Scored struct {
	Candidate providers.Candidate
	Score     int
}

// Cache is an optional store of previous resolutions keyed by normalized
// (track, artist). Its absence changes call volume, never results.
type Cache interface {
	// Lookup returns a previous resolution and whether one was found.
	Lookup(ctx context.Context, track, artist string) (Result, bool)
	// Store records a successful resolution. Failures are the cache's
	// problem; resolution never depends on a store succeeding.
	Store(ctx context.Context, track, artist string, res Result)
}

// Searcher is the slice of the destination provider the resolver needs.
type Searcher interface {
	SearchTracks(ctx context.Context, query string, limit int) ([]providers.Candidate, error)
}

// Resolver maps a (track, artist) pair to the best destination candidate.
type Resolver struct {
	searcher Searcher
	weights  Weights
	cache    Cache
}

// NewResolver creates a resolver over the given destination search. cache
// may be nil.
func NewResolver(searcher Searcher, weights Weights, cache Cache) *Resolver {
	return &Resolver{searcher: searcher, weights: weights, cache: cache}
}

// BuildQuery joins track and artist into the free-text search string.
func BuildQuery(track, artist string) string {
	if artist == "" {
		return track
	}
	return strings.TrimSpace(track) + " " + strings.TrimSpace(artist)
}

// Resolve returns the best candidate for the pair, or a zero Result when
// the search yields nothing. Provider errors propagate so the caller can
// classify them; they never carry a partial result.
func (r *Resolver) Resolve(ctx context.Context, track, artist string, limit int) (Result, error) {
	if r.cache != nil {
		if res, ok := r.cache.Lookup(ctx, track, artist); ok {
			return res, nil
		}
	}

	ranked, err := r.Rank(ctx, track, artist, limit)
	if err != nil {
		return Result{}, err
	}
	if len(ranked) == 0 {
		return Result{}, nil
	}

	best := ranked[0]
	res := Result{
		ID:      best.Candidate.ID,
		Score:   best.Score,
		Title:   best.Candidate.Title,
		Artists: best.Candidate.JoinedArtists(),
	}

	if r.cache != nil && res.Resolved() {
		r.cache.Store(ctx, track, artist, res)
	}

	return res, nil
}

// Rank searches the destination and returns all candidates ordered by
// descending score. The sort is stable so provider relevance order breaks
// ties.
func (r *Resolver) Rank(ctx context.Context, track, artist string, limit int) ([]Scored, error) {
	candidates, err := r.searcher.SearchTracks(ctx, BuildQuery(track, artist), limit)
	if err != nil {
		return nil, err
	}

	scored := make([]Scored, 0, len(candidates))
	for _, c := range candidates {
		scored = append(scored, Scored{Candidate: c, Score: r.weights.Score(track, artist, c)})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	return scored, nil
}
