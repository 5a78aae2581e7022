package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/ameztoy/crosstune/internal/migrate"
	"github.com/ameztoy/crosstune/internal/shared"
)

// MigratePlaylists migrates every Spotify playlist to the primary TIDAL account.
func (r *Runner) MigratePlaylists(ctx context.Context, cmd *cli.Command) error {
	if err := r.loadConfig(cmd); err != nil {
		return err
	}

	bulk := cmd.String("bulk")
	if bulk != "" && bulk != "accept" && bulk != "skip" {
		return fmt.Errorf("%w: --bulk must be accept or skip", shared.ErrInvalidFlag)
	}

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	migrator, err := r.migrator(ctx, db, bulk)
	if err != nil {
		return err
	}

	r.logger.Info("starting migration", "source", "Spotify", "dest", tidalLabel)
	r.writePlain("Starting playlist migration...\n\n")

	progressCh := make(chan migrate.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		r.printProgress(progressCh)
	}()

	result, err := migrator.MigratePlaylists(ctx, progressCh)
	close(progressCh)
	<-done

	if result != nil {
		r.printRunSummary(result)
	}
	return err
}

// MigrateFavorites migrates Spotify liked songs into TIDAL favorites.
func (r *Runner) MigrateFavorites(ctx context.Context, cmd *cli.Command) error {
	if err := r.loadConfig(cmd); err != nil {
		return err
	}

	bulk := cmd.String("bulk")
	if bulk != "" && bulk != "accept" && bulk != "skip" {
		return fmt.Errorf("%w: --bulk must be accept or skip", shared.ErrInvalidFlag)
	}

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	migrator, err := r.migrator(ctx, db, bulk)
	if err != nil {
		return err
	}

	r.logger.Info("starting favorites migration", "source", "Spotify", "dest", tidalLabel)
	r.writePlain("Migrating liked songs...\n\n")

	progressCh := make(chan migrate.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		r.printProgress(progressCh)
	}()

	result, err := migrator.MigrateFavorites(ctx, progressCh)
	close(progressCh)
	<-done

	if err != nil {
		return err
	}

	r.printRunSummary(&migrate.RunResult{Playlists: []migrate.PlaylistResult{*result}})
	return nil
}

// printProgress renders progress updates until the channel closes.
func (r *Runner) printProgress(progress <-chan migrate.ProgressUpdate) {
	for update := range progress {
		switch update.Phase {
		case migrate.FetchPlaylists, migrate.FetchTracks:
			r.writePlain("📥 %s\n", update.Message)
		case migrate.ResolveTracks:
			r.writePlain("   🔍 %s\n", update.Message)
		case migrate.CreatePlaylist:
			r.writePlain("\n📝 %s\n", update.Message)
		case migrate.InsertTracks:
			r.writePlain("➕ %s\n", update.Message)
		case migrate.CopyCover:
			r.writePlain("🖼  %s\n", update.Message)
		case migrate.Reconcile:
			r.writePlain("🔁 %s\n", update.Message)
		}
	}
}

// printRunSummary renders the per-playlist outcome table.
func (r *Runner) printRunSummary(result *migrate.RunResult) {
	r.writePlain("\n")
	r.writePlainHeader("Migration Complete!")

	for _, pl := range result.Playlists {
		if pl.SkippedWhy != "" {
			r.writePlain("%s: skipped (%s)\n", pl.Name, pl.SkippedWhy)
			continue
		}

		r.writePlain("%s: %d/%d inserted (auto %d, manual %d, listed %d, skipped %d)\n",
			pl.Name, pl.Inserted, pl.Total, pl.AutoAdded, pl.ManualAdded, pl.ListedAdded, pl.Skipped)
	}

	if skipLog := r.config.Migration.SkipLog; skipLog != "" {
		r.writePlainln("Skipped tracks are listed in %s", skipLog)
	}
}
