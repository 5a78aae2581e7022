package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/ameztoy/crosstune/internal/match"
)

// Search previews the scored TIDAL candidates for one (track, artist) pair.
// Useful for tuning score_threshold before a large run.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	if err := r.loadConfig(cmd); err != nil {
		return err
	}

	track := cmd.String("track")
	artist := cmd.String("artist")

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	dest, err := r.destination(ctx, tidalLabel)
	if err != nil {
		return err
	}

	resolver := r.resolver(db, dest)

	r.logger.Info("searching", "query", match.BuildQuery(track, artist))
	ranked, err := resolver.Rank(ctx, track, artist, r.config.Migration.PerQueryLimit)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(ranked, cmd.Bool("pretty"))
	}

	if len(ranked) == 0 {
		return r.writePlain("No candidates found for %s - %s\n", artist, track)
	}

	threshold := r.config.Migration.ScoreThreshold
	r.writePlain("Candidates for %s - %s (threshold %d):\n\n", artist, track, threshold)
	for i, scored := range ranked {
		marker := " "
		if scored.Score >= threshold {
			marker = "✓"
		}
		r.writePlain("%s %2d. [%3d] %s - %s (id %s)\n",
			marker, i+1, scored.Score, scored.Candidate.JoinedArtists(), scored.Candidate.Title, scored.Candidate.ID)
	}

	return nil
}
