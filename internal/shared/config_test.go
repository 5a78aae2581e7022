package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "crosstune.db" {
			t.Errorf("expected database path crosstune.db, got %s", config.Database.Path)
		}

		if config.Server.Port != 8080 {
			t.Errorf("expected server port 8080, got %d", config.Server.Port)
		}

		if config.Migration.ScoreThreshold != 70 {
			t.Errorf("expected score threshold 70, got %d", config.Migration.ScoreThreshold)
		}

		if config.Migration.PerQueryLimit != 5 {
			t.Errorf("expected per-query limit 5, got %d", config.Migration.PerQueryLimit)
		}

		if !config.Migration.AvoidDuplicates {
			t.Error("expected avoid_duplicates to default to true")
		}

		if config.Migration.OnExistingPlaylist != ExistingSkip {
			t.Errorf("expected on_existing_playlist skip, got %s", config.Migration.OnExistingPlaylist)
		}

		if err := config.Validate(); err != nil {
			t.Errorf("default config must validate, got %v", err)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		defaultConfig := DefaultConfig()
		if config.Database.Path != defaultConfig.Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[database]
path = "/custom/path.db"
max_open_conns = 20
max_idle_conns = 10

[server]
host = "0.0.0.0"
port = 3000

[migration]
score_threshold = 85
per_query_limit = 10
avoid_duplicates = false
on_existing_playlist = "merge"

[credentials.spotify]
client_id = "test_client_id"
client_secret = "test_secret"
redirect_uri = "http://localhost:3000/callback"

[credentials.tidal]
client_id = "tidal_client"
client_secret = "tidal_secret"

[credentials.tidal_b]
client_id = "tidal_b_client"
client_secret = "tidal_b_secret"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Database.Path != "/custom/path.db" {
			t.Errorf("expected database path /custom/path.db, got %s", config.Database.Path)
		}

		if config.Server.Port != 3000 {
			t.Errorf("expected server port 3000, got %d", config.Server.Port)
		}

		if config.Migration.ScoreThreshold != 85 {
			t.Errorf("expected score threshold 85, got %d", config.Migration.ScoreThreshold)
		}

		if config.Credentials.Spotify.ClientID != "test_client_id" {
			t.Errorf("expected spotify client_id test_client_id, got %s", config.Credentials.Spotify.ClientID)
		}

		if config.Credentials.TidalB.ClientID != "tidal_b_client" {
			t.Errorf("expected tidal_b client_id tidal_b_client, got %s", config.Credentials.TidalB.ClientID)
		}
	})

	t.Run("Validate", func(t *testing.T) {
		tc := []struct {
			name   string
			mutate func(*Config)
			ok     bool
		}{
			{
				name:   "default is valid",
				mutate: func(c *Config) {},
				ok:     true,
			},
			{
				name:   "threshold above range",
				mutate: func(c *Config) { c.Migration.ScoreThreshold = 101 },
				ok:     false,
			},
			{
				name:   "threshold below range",
				mutate: func(c *Config) { c.Migration.ScoreThreshold = -1 },
				ok:     false,
			},
			{
				name:   "zero query limit",
				mutate: func(c *Config) { c.Migration.PerQueryLimit = 0 },
				ok:     false,
			},
			{
				name:   "unknown existing-playlist policy",
				mutate: func(c *Config) { c.Migration.OnExistingPlaylist = "replace" },
				ok:     false,
			},
			{
				name:   "prompt policy is valid",
				mutate: func(c *Config) { c.Migration.OnExistingPlaylist = ExistingPrompt },
				ok:     true,
			},
			{
				name:   "unknown bulk action",
				mutate: func(c *Config) { c.Migration.BulkAction = "always" },
				ok:     false,
			},
			{
				name:   "bulk accept is valid",
				mutate: func(c *Config) { c.Migration.BulkAction = "accept" },
				ok:     true,
			},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				config := DefaultConfig()
				tt.mutate(config)

				err := config.Validate()
				if tt.ok && err != nil {
					t.Errorf("expected valid config, got %v", err)
				}
				if !tt.ok {
					if err == nil {
						t.Fatal("expected validation error")
					}
					if !errors.Is(err, ErrInvalidConfig) {
						t.Errorf("expected ErrInvalidConfig, got %v", err)
					}
				}
			})
		}
	})
}
