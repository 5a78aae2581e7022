package shared

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// ExistingPlaylistPolicy controls what the migrator does when a destination
// playlist with the source playlist's name already exists.
const (
	ExistingSkip   = "skip"
	ExistingPrompt = "prompt"
	ExistingMerge  = "merge"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Migration   MigrationConfig   `toml:"migration"`
	Database    DatabaseConfig    `toml:"database"`
	Server      ServerConfig      `toml:"server"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
	Tidal   TidalConfig   `toml:"tidal"`
	TidalB  TidalConfig   `toml:"tidal_b"`
}

// SpotifyConfig contains Spotify API credentials.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
	TokenPath    string `toml:"token_path"`
}

// TidalConfig contains TIDAL API credentials for one account.
type TidalConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
	TokenPath    string `toml:"token_path"`
}

// MigrationConfig contains the tunables consumed by the resolution and
// migration pipeline.
type MigrationConfig struct {
	// ScoreThreshold is the minimum candidate score (0-100) for an
	// unattended insert; items below it go through the decision protocol.
	ScoreThreshold int `toml:"score_threshold"`
	// PerQueryLimit is the number of candidates requested per search.
	PerQueryLimit int `toml:"per_query_limit"`
	// AvoidDuplicates re-checks destination membership before every insert.
	AvoidDuplicates bool `toml:"avoid_duplicates"`
	// AskPerPlaylist prompts before migrating or reconciling each playlist.
	AskPerPlaylist bool `toml:"ask_per_playlist"`
	// OnExistingPlaylist is one of skip|prompt|merge.
	OnExistingPlaylist string `toml:"on_existing_playlist"`
	// BulkAction forces a single decision ("accept" or "skip") for every
	// low-confidence item, bypassing interaction. Empty means interactive.
	BulkAction string `toml:"bulk_action"`
	// SkipLog is the append-only audit file for skipped tracks.
	SkipLog string `toml:"skip_log"`
	// BlobDir receives downloaded playlist cover images.
	BlobDir string `toml:"blob_dir"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains OAuth callback server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// Validate checks the migration section for out-of-range values.
func (c *Config) Validate() error {
	m := c.Migration
	if m.ScoreThreshold < 0 || m.ScoreThreshold > 100 {
		return fmt.Errorf("%w: score_threshold must be in [0,100], got %d", ErrInvalidConfig, m.ScoreThreshold)
	}
	if m.PerQueryLimit <= 0 {
		return fmt.Errorf("%w: per_query_limit must be positive, got %d", ErrInvalidConfig, m.PerQueryLimit)
	}
	switch m.OnExistingPlaylist {
	case "", ExistingSkip, ExistingPrompt, ExistingMerge:
	default:
		return fmt.Errorf("%w: on_existing_playlist must be skip, prompt or merge", ErrInvalidConfig)
	}
	switch m.BulkAction {
	case "", "accept", "skip":
	default:
		return fmt.Errorf("%w: bulk_action must be empty, accept or skip", ErrInvalidConfig)
	}
	return nil
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
