package main

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/ameztoy/crosstune/internal/cache"
	"github.com/ameztoy/crosstune/internal/match"
	"github.com/ameztoy/crosstune/internal/migrate"
	"github.com/ameztoy/crosstune/internal/providers"
	"github.com/ameztoy/crosstune/internal/shared"
)

// Destination account labels. The primary TIDAL account is the migration
// target; the B account only participates in reconciliation.
const (
	tidalLabel  = "TIDAL"
	tidalBLabel = "TIDAL B"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	logger     *log.Logger
	output     io.Writer
	input      *bufio.Scanner
	decider    migrate.Decider
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Logger     *log.Logger
	Output     io.Writer
	Input      io.Reader
	Decider    migrate.Decider
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		logger:     opts.Logger,
		output:     opts.Output,
		input:      bufio.NewScanner(opts.Input),
		decider:    opts.Decider,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, migrateCommand, syncCommand, searchCommand, cacheCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// loadConfig reloads configuration from the command's --config flag when the
// file exists, falling back to the runner's current config otherwise.
func (r *Runner) loadConfig(cmd *cli.Command) error {
	path := cmd.String("config")
	if path == "" {
		path = r.configPath
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			config, err := shared.LoadConfig(path)
			if err != nil {
				return err
			}
			r.config = config
			r.configPath = path
		}
	}

	return r.config.Validate()
}

// openDatabase opens the resolution cache database and brings the schema up
// to date.
func (r *Runner) openDatabase() (*sql.DB, error) {
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

// source builds the authenticated Spotify provider.
func (r *Runner) source(ctx context.Context) (*providers.SpotifyProvider, error) {
	spotify, err := providers.NewSpotifyProvider(r.config.Credentials.Spotify)
	if err != nil {
		return nil, err
	}
	if err := spotify.Authenticate(ctx); err != nil {
		return nil, err
	}
	return spotify, nil
}

// destination builds an authenticated TIDAL provider for the given account label.
func (r *Runner) destination(ctx context.Context, label string) (*providers.TidalProvider, error) {
	cfg := r.config.Credentials.Tidal
	if label == tidalBLabel {
		cfg = r.config.Credentials.TidalB
	}

	tidal, err := providers.NewTidalProvider(label, cfg)
	if err != nil {
		return nil, err
	}
	if err := tidal.Authenticate(ctx); err != nil {
		return nil, err
	}
	return tidal, nil
}

// resolver wires the scorer, the destination search and the persistent
// resolution cache together.
func (r *Runner) resolver(db *sql.DB, dest *providers.TidalProvider) *match.Resolver {
	store := cache.NewResolutionStore(db, dest.Name(), r.logger)
	return match.NewResolver(dest, match.DefaultWeights(), store)
}

// migrator assembles the full migration pipeline against the primary TIDAL
// account.
func (r *Runner) migrator(ctx context.Context, db *sql.DB, bulkAction string) (*migrate.Migrator, error) {
	source, err := r.source(ctx)
	if err != nil {
		return nil, err
	}

	dest, err := r.destination(ctx, tidalLabel)
	if err != nil {
		return nil, err
	}

	cfg := r.config.Migration
	if bulkAction != "" {
		cfg.BulkAction = bulkAction
	}

	resolver := r.resolver(db, dest)
	planner := migrate.NewPlanner(resolver, cfg.PerQueryLimit, r.logger)
	policy := migrate.NewPolicy(cfg.ScoreThreshold, cfg.PerQueryLimit, resolver, r.decider, cfg.BulkAction, r.logger)

	return migrate.NewMigrator(source, dest, source, planner, policy, cfg, r.confirm, r.logger), nil
}

// confirm asks a yes/no question on the runner's input. Anything but an
// explicit yes is a no.
func (r *Runner) confirm(question string) bool {
	r.writePlain("%s [y/N]: ", question)
	if !r.input.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(r.input.Text()))
	return answer == "y" || answer == "yes"
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
