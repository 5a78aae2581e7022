package cache

import (
	"context"
	"testing"

	"github.com/ameztoy/crosstune/internal/match"
	"github.com/ameztoy/crosstune/internal/shared"
)

func setupStore(t *testing.T) *ResolutionStore {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	return NewResolutionStore(db, "TIDAL", nil)
}

func TestResolutionStore(t *testing.T) {
	ctx := context.Background()

	t.Run("Miss On Empty Store", func(t *testing.T) {
		store := setupStore(t)

		if _, ok := store.Lookup(ctx, "Yellow", "Coldplay"); ok {
			t.Error("expected a miss on an empty store")
		}
	})

	t.Run("Store Then Lookup", func(t *testing.T) {
		store := setupStore(t)

		store.Store(ctx, "Yellow", "Coldplay", match.Result{
			ID: "101", Score: 95, Title: "Yellow", Artists: "Coldplay",
		})

		res, ok := store.Lookup(ctx, "Yellow", "Coldplay")
		if !ok {
			t.Fatal("expected a hit after store")
		}
		if res.ID != "101" || res.Score != 95 {
			t.Errorf("unexpected cached result %+v", res)
		}
	})

	t.Run("Key Is Normalized", func(t *testing.T) {
		store := setupStore(t)

		store.Store(ctx, "Yellow", "Coldplay", match.Result{ID: "101", Score: 95})

		if _, ok := store.Lookup(ctx, "  YELLOW ", "coldplay"); !ok {
			t.Error("expected hit for case and whitespace variant")
		}
	})

	t.Run("Store Replaces Existing Entry", func(t *testing.T) {
		store := setupStore(t)

		store.Store(ctx, "Yellow", "Coldplay", match.Result{ID: "101", Score: 60})
		store.Store(ctx, "Yellow", "Coldplay", match.Result{ID: "202", Score: 95})

		res, ok := store.Lookup(ctx, "Yellow", "Coldplay")
		if !ok {
			t.Fatal("expected a hit")
		}
		if res.ID != "202" {
			t.Errorf("expected replaced entry, got %+v", res)
		}

		count, err := store.Count(ctx)
		if err != nil {
			t.Fatalf("failed to count: %v", err)
		}
		if count != 1 {
			t.Errorf("expected a single row after replace, got %d", count)
		}
	})

	t.Run("Provider Scoping", func(t *testing.T) {
		store := setupStore(t)
		other := NewResolutionStore(store.db, "TIDAL B", nil)

		store.Store(ctx, "Yellow", "Coldplay", match.Result{ID: "101", Score: 95})

		if _, ok := other.Lookup(ctx, "Yellow", "Coldplay"); ok {
			t.Error("expected miss for a different provider")
		}

		t.Run("Same Key Per Provider Keeps Both Rows", func(t *testing.T) {
			other.Store(ctx, "Yellow", "Coldplay", match.Result{ID: "909", Score: 80})

			res, ok := store.Lookup(ctx, "Yellow", "Coldplay")
			if !ok || res.ID != "101" {
				t.Errorf("first provider's entry was clobbered, got (%+v, %v)", res, ok)
			}

			res, ok = other.Lookup(ctx, "Yellow", "Coldplay")
			if !ok || res.ID != "909" {
				t.Errorf("expected second provider's own entry, got (%+v, %v)", res, ok)
			}

			for _, s := range []*ResolutionStore{store, other} {
				count, err := s.Count(ctx)
				if err != nil {
					t.Fatalf("failed to count: %v", err)
				}
				if count != 1 {
					t.Errorf("expected one row for provider %s, got %d", s.provider, count)
				}
			}
		})
	})

	t.Run("List And Clear", func(t *testing.T) {
		store := setupStore(t)

		store.Store(ctx, "Yellow", "Coldplay", match.Result{ID: "101", Score: 95})
		store.Store(ctx, "Clocks", "Coldplay", match.Result{ID: "102", Score: 90})

		entries, err := store.List(ctx)
		if err != nil {
			t.Fatalf("failed to list: %v", err)
		}
		if len(entries) != 2 {
			t.Fatalf("expected 2 entries, got %d", len(entries))
		}
		if entries[0].Provider != "TIDAL" {
			t.Errorf("unexpected provider %s", entries[0].Provider)
		}

		removed, err := store.Clear(ctx)
		if err != nil {
			t.Fatalf("failed to clear: %v", err)
		}
		if removed != 2 {
			t.Errorf("expected 2 removed rows, got %d", removed)
		}

		count, err := store.Count(ctx)
		if err != nil {
			t.Fatalf("failed to count: %v", err)
		}
		if count != 0 {
			t.Errorf("expected empty store after clear, got %d", count)
		}
	})

	t.Run("Implements Match Cache", func(t *testing.T) {
		var _ match.Cache = setupStore(t)
	})
}
