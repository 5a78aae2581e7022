package main

import (
	"context"
	"errors"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/ameztoy/crosstune/internal/shared"
	"github.com/ameztoy/crosstune/internal/ui"
)

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	configPath := ""
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
			configPath = "config.toml"
		}
	}

	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: configPath,
		Logger:     logger,
		Decider:    ui.NewTUIDecider(),
	})

	app := &cli.Command{
		Name:     "crosstune",
		Usage:    "Migrate playlists from Spotify to TIDAL and keep two TIDAL accounts in sync",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		if errors.Is(err, shared.ErrAuthExpired) {
			logger.Fatalf("session expired, re-run the auth command: %v", err)
		}
		logger.Fatalf("application error: %v", err)
	}
}
