package migrate

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/ameztoy/crosstune/internal/match"
	"github.com/ameztoy/crosstune/internal/providers"
	"github.com/ameztoy/crosstune/internal/shared"
	mocks "github.com/ameztoy/crosstune/internal/testing"
)

func testPlanner(dest *mocks.MockDestination) *Planner {
	resolver := match.NewResolver(dest, match.DefaultWeights(), nil)
	return NewPlanner(resolver, 5, shared.NewLogger(io.Discard))
}

func TestPlanner(t *testing.T) {
	ctx := context.Background()

	t.Run("Preserves Order And Length", func(t *testing.T) {
		dest := mocks.NewMockDestination("")
		dest.Candidates["Yellow Coldplay"] = []providers.Candidate{
			{ID: "1", Title: "Yellow", Artists: []string{"Coldplay"}},
		}
		dest.Candidates["Clocks Coldplay"] = []providers.Candidate{
			{ID: "2", Title: "Clocks", Artists: []string{"Coldplay"}},
		}

		tracks := []providers.TrackRef{
			{Title: "Yellow", Artist: "Coldplay"},
			{Title: "Unknown Song", Artist: "Nobody"},
			{Title: "Clocks", Artist: "Coldplay"},
		}

		items, err := testPlanner(dest).Plan(ctx, tracks, nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if len(items) != len(tracks) {
			t.Fatalf("expected %d items, got %d", len(tracks), len(items))
		}
		if items[0].Resolution.ID != "1" || items[2].Resolution.ID != "2" {
			t.Errorf("order not preserved: %+v", items)
		}
		if items[1].Resolution.Resolved() {
			t.Error("expected middle item to be unresolved")
		}
	})

	t.Run("Cleans Titles Before Matching", func(t *testing.T) {
		dest := mocks.NewMockDestination("")
		dest.Candidates["Yellow Coldplay"] = []providers.Candidate{
			{ID: "1", Title: "Yellow", Artists: []string{"Coldplay"}},
		}

		items, err := testPlanner(dest).Plan(ctx, []providers.TrackRef{
			{Title: "Yellow (Remastered 2009)", Artist: "Coldplay"},
		}, nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if len(dest.SearchCalls) != 1 || dest.SearchCalls[0] != "Yellow Coldplay" {
			t.Errorf("expected stripped query, got %v", dest.SearchCalls)
		}
		if items[0].SourceTrack != "Yellow" {
			t.Errorf("expected cleaned title on the item, got %q", items[0].SourceTrack)
		}
		if items[0].Resolution.ID != "1" {
			t.Errorf("expected resolution, got %+v", items[0].Resolution)
		}
	})

	t.Run("Provider Error Leaves Item Unresolved", func(t *testing.T) {
		dest := mocks.NewMockDestination("")
		dest.SearchErr = errors.New("timeout")

		items, err := testPlanner(dest).Plan(ctx, []providers.TrackRef{
			{Title: "Yellow", Artist: "Coldplay"},
			{Title: "Clocks", Artist: "Coldplay"},
		}, nil)
		if err != nil {
			t.Fatalf("expected batch to continue, got %v", err)
		}

		if len(items) != 2 {
			t.Fatalf("expected 2 items, got %d", len(items))
		}
		for _, item := range items {
			if item.Resolution.Resolved() || item.Resolution.Score != 0 {
				t.Errorf("expected unresolved item, got %+v", item.Resolution)
			}
		}
	})

	t.Run("Auth Failure Aborts", func(t *testing.T) {
		dest := mocks.NewMockDestination("")
		dest.SearchErr = shared.ErrAuthExpired

		_, err := testPlanner(dest).Plan(ctx, []providers.TrackRef{
			{Title: "Yellow", Artist: "Coldplay"},
		}, nil)
		if !errors.Is(err, shared.ErrAuthExpired) {
			t.Errorf("expected auth error to propagate, got %v", err)
		}
	})

	t.Run("Reports Progress Without Blocking", func(t *testing.T) {
		dest := mocks.NewMockDestination("")
		// Unbuffered channel that nobody reads; planning must not hang.
		progress := make(chan ProgressUpdate)

		_, err := testPlanner(dest).Plan(ctx, []providers.TrackRef{
			{Title: "Yellow", Artist: "Coldplay"},
		}, progress)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	})
}
