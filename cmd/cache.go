package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/ameztoy/crosstune/internal/cache"
)

// CacheList lists cached track resolutions for one destination account.
func (r *Runner) CacheList(ctx context.Context, cmd *cli.Command) error {
	if err := r.loadConfig(cmd); err != nil {
		return err
	}

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	store := cache.NewResolutionStore(db, cmd.String("provider"), r.logger)
	entries, err := store.List(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(entries, true)
	}

	if len(entries) == 0 {
		return r.writePlain("Cache is empty\n")
	}

	for _, entry := range entries {
		r.writePlain("[%3d] %s → %s (%s - %s)\n",
			entry.Score, entry.TrackKey, entry.ResolvedID, entry.ResolvedArtists, entry.ResolvedTitle)
	}
	return r.writePlainln("%d cached resolutions", len(entries))
}

// CacheCount prints the number of cached resolutions.
func (r *Runner) CacheCount(ctx context.Context, cmd *cli.Command) error {
	if err := r.loadConfig(cmd); err != nil {
		return err
	}

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	store := cache.NewResolutionStore(db, cmd.String("provider"), r.logger)
	count, err := store.Count(ctx)
	if err != nil {
		return err
	}

	return r.writePlain("%d cached resolutions\n", count)
}

// CacheClear deletes every cached resolution for one destination account.
func (r *Runner) CacheClear(ctx context.Context, cmd *cli.Command) error {
	if err := r.loadConfig(cmd); err != nil {
		return err
	}

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	store := cache.NewResolutionStore(db, cmd.String("provider"), r.logger)
	deleted, err := store.Clear(ctx)
	if err != nil {
		return err
	}

	r.logger.Info("cache cleared", "provider", cmd.String("provider"), "deleted", deleted)
	return r.writePlain("✓ Deleted %d cached resolutions\n", deleted)
}
