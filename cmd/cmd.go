// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// setupCommand handles configuration and database initialization.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "database",
				Usage: "Initialize database and run migrations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupDatabase,
			},
			{
				Name:  "rollback",
				Usage: "Roll back the most recent database migration",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupRollback,
			},
		},
	}
}

// authCommand handles OAuth flows for each account.
func authCommand(r *Runner) *cli.Command {
	configFlags := []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to configuration file",
			Value:   "config.toml",
		},
	}

	return &cli.Command{
		Name:  "auth",
		Usage: "Manage authentication",
		Commands: []*cli.Command{
			{
				Name:   "spotify",
				Usage:  "Authenticate with Spotify using OAuth2",
				Flags:  configFlags,
				Action: r.AuthSpotify,
			},
			{
				Name:   "tidal",
				Usage:  "Authenticate the primary TIDAL account using OAuth2",
				Flags:  configFlags,
				Action: r.AuthTidal,
			},
			{
				Name:    "tidal-b",
				Aliases: []string{"tidalb"},
				Usage:   "Authenticate the secondary TIDAL account using OAuth2",
				Flags:   configFlags,
				Action:  r.AuthTidalB,
			},
			{
				Name:   "status",
				Usage:  "Check which accounts hold a usable session",
				Flags:  configFlags,
				Action: r.AuthStatus,
			},
		},
	}
}

// migrateCommand handles Spotify → TIDAL migration operations.
func migrateCommand(r *Runner) *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to configuration file",
			Value:   "config.toml",
		},
		&cli.StringFlag{
			Name:  "bulk",
			Usage: "Apply one decision to every low-confidence track (accept or skip)",
		},
	}

	return &cli.Command{
		Name:  "migrate",
		Usage: "Migrate the Spotify library to TIDAL",
		Commands: []*cli.Command{
			{
				Name:   "playlists",
				Usage:  "Migrate every Spotify playlist to TIDAL",
				Flags:  flags,
				Action: r.MigratePlaylists,
			},
			{
				Name:    "favorites",
				Aliases: []string{"liked"},
				Usage:   "Migrate Spotify liked songs to TIDAL favorites",
				Flags:   flags,
				Action:  r.MigrateFavorites,
			},
		},
	}
}

// syncCommand handles bidirectional reconciliation between the two TIDAL accounts.
func syncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Reconcile playlists between the two TIDAL accounts",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.StringFlag{
				Name:  "playlist",
				Usage: "Reconcile a single playlist by name instead of all shared ones",
			},
		},
		Action: r.SyncRun,
	}
}

// searchCommand previews scored TIDAL search results for a track.
func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Search TIDAL and show scored candidates for a track",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.StringFlag{
				Name:     "track",
				Usage:    "Track title",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "artist",
				Usage:    "Artist name",
				Required: true,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
				Value: true,
			},
		},
		Action: r.Search,
	}
}

// cacheCommand inspects and prunes the persistent resolution cache.
func cacheCommand(r *Runner) *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to configuration file",
			Value:   "config.toml",
		},
		&cli.StringFlag{
			Name:  "provider",
			Usage: "Destination account label the entries belong to",
			Value: tidalLabel,
		},
	}

	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect the resolution cache",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List cached track resolutions",
				Flags: append([]cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				}, flags...),
				Action: r.CacheList,
			},
			{
				Name:   "count",
				Usage:  "Count cached track resolutions",
				Flags:  flags,
				Action: r.CacheCount,
			},
			{
				Name:   "clear",
				Usage:  "Delete cached track resolutions",
				Flags:  flags,
				Action: r.CacheClear,
			},
		},
	}
}
