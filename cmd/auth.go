package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/ameztoy/crosstune/internal/providers"
	"github.com/ameztoy/crosstune/internal/server"
)

// AuthSpotify runs the browser OAuth flow for the Spotify account.
func (r *Runner) AuthSpotify(ctx context.Context, cmd *cli.Command) error {
	if err := r.loadConfig(cmd); err != nil {
		return err
	}

	spotify, err := providers.NewSpotifyProvider(r.config.Credentials.Spotify)
	if err != nil {
		return err
	}

	return r.runAuthFlow(ctx, "Spotify", spotify)
}

// AuthTidal runs the browser OAuth flow for the primary TIDAL account.
func (r *Runner) AuthTidal(ctx context.Context, cmd *cli.Command) error {
	if err := r.loadConfig(cmd); err != nil {
		return err
	}

	tidal, err := providers.NewTidalProvider(tidalLabel, r.config.Credentials.Tidal)
	if err != nil {
		return err
	}

	return r.runAuthFlow(ctx, tidalLabel, tidal)
}

// AuthTidalB runs the browser OAuth flow for the secondary TIDAL account.
func (r *Runner) AuthTidalB(ctx context.Context, cmd *cli.Command) error {
	if err := r.loadConfig(cmd); err != nil {
		return err
	}

	tidal, err := providers.NewTidalProvider(tidalBLabel, r.config.Credentials.TidalB)
	if err != nil {
		return err
	}

	return r.runAuthFlow(ctx, tidalBLabel, tidal)
}

// runAuthFlow starts the localhost callback listener and blocks until the
// browser round trip completes.
func (r *Runner) runAuthFlow(ctx context.Context, name string, auth server.Authorizer) error {
	flow := server.NewFlow(auth, r.callbackAddr(), r.logger)

	r.logger.Info("starting OAuth flow", "service", name, "listen", r.callbackAddr())
	r.writePlain("Open this URL in your browser to authorize %s:\n\n", name)
	r.writePlain("  %s\n\n", flow.URL())
	r.writePlain("Waiting for the callback...\n")

	if err := flow.Run(ctx); err != nil {
		return fmt.Errorf("authorization failed: %w", err)
	}

	r.logger.Info("authentication successful", "service", name)
	return r.writePlain("✓ %s authenticated\n", name)
}

// AuthStatus reports which accounts currently hold a usable session.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	if err := r.loadConfig(cmd); err != nil {
		return err
	}

	check := func(name string, err error) {
		if err != nil {
			r.logger.Debug("session check failed", "service", name, "error", err)
			r.writePlain("%s: ✗ not authenticated\n", name)
			return
		}
		r.writePlain("%s: ✓ authenticated\n", name)
	}

	if spotify, err := providers.NewSpotifyProvider(r.config.Credentials.Spotify); err != nil {
		check("Spotify", err)
	} else {
		check("Spotify", spotify.Authenticate(ctx))
	}

	if tidal, err := providers.NewTidalProvider(tidalLabel, r.config.Credentials.Tidal); err != nil {
		check(tidalLabel, err)
	} else {
		check(tidalLabel, tidal.Authenticate(ctx))
	}

	if tidalB, err := providers.NewTidalProvider(tidalBLabel, r.config.Credentials.TidalB); err != nil {
		check(tidalBLabel, err)
	} else {
		check(tidalBLabel, tidalB.Authenticate(ctx))
	}

	return nil
}

// callbackAddr returns the listen address for the OAuth callback server.
func (r *Runner) callbackAddr() string {
	host := r.config.Server.Host
	if host == "" {
		host = "127.0.0.1"
	}
	port := r.config.Server.Port
	if port == 0 {
		port = 8080
	}
	return fmt.Sprintf("%s:%d", host, port)
}
