package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/ameztoy/crosstune/internal/migrate"
)

// SyncRun reconciles playlists between the two TIDAL accounts so both end up
// holding the union of their shared playlists.
func (r *Runner) SyncRun(ctx context.Context, cmd *cli.Command) error {
	if err := r.loadConfig(cmd); err != nil {
		return err
	}

	a, err := r.destination(ctx, tidalLabel)
	if err != nil {
		return err
	}

	b, err := r.destination(ctx, tidalBLabel)
	if err != nil {
		return err
	}

	reconciler := migrate.NewReconciler(a, b, r.config.Migration.AvoidDuplicates, r.logger)

	if name := cmd.String("playlist"); name != "" {
		r.logger.Info("reconciling playlist", "playlist", name)
		result, err := reconciler.Reconcile(ctx, name)
		if err != nil {
			return err
		}

		if result.Skipped {
			return r.writePlain("Playlist %q is not present on both accounts, nothing to do\n", name)
		}
		return r.writePlain("✓ %s: +%d to %s, +%d to %s\n",
			result.Name, len(result.AddedToA), tidalLabel, len(result.AddedToB), tidalBLabel)
	}

	r.logger.Info("reconciling all shared playlists")
	r.writePlain("Reconciling shared playlists...\n\n")

	progressCh := make(chan migrate.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		r.printProgress(progressCh)
	}()

	result, err := reconciler.ReconcileAll(ctx, progressCh)
	close(progressCh)
	<-done

	if result != nil {
		r.writePlain("\n")
		r.writePlainHeader("Reconciliation Complete!")
		for _, pl := range result.Playlists {
			r.writePlain("%s: +%d to %s, +%d to %s\n",
				pl.Name, len(pl.AddedToA), tidalLabel, len(pl.AddedToB), tidalBLabel)
		}
		for _, name := range result.Failed {
			r.writePlain("%s: failed, see log\n", name)
		}
	}

	return err
}
