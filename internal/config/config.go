// Package config loads the service configuration from an optional YAML
// file; environment variable overrides are applied by the caller on top
// of the loaded values.
package config

import (
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Config represents the complete service configuration.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Model  ModelConfig  `yaml:"model"`
	Cache  CacheConfig  `yaml:"cache"`
	Grid   GridConfig   `yaml:"grid"`
	Track  TrackConfig  `yaml:"track"`
	Auth   AuthConfig   `yaml:"auth"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Addr       string `yaml:"addr"`
	TrustProxy bool   `yaml:"trust_proxy"`
}

// ModelConfig describes where the coefficient file comes from and the
// date the server's current snapshot is resolved at.
type ModelConfig struct {
	Path      string `yaml:"path"`       // local coefficient file
	SourceURL string `yaml:"source_url"` // remote fallback when Path is unset
	CacheDir  string `yaml:"cache_dir"`  // where fetched files are kept
	MaxFiles  int    `yaml:"max_files"`  // fetched files to keep
	Date      string `yaml:"date"`       // YYYY-MM-DD; empty means today
}

// CacheConfig contains snapshot cache settings.
type CacheConfig struct {
	MaxEntries int `yaml:"max_entries"`
}

// GridConfig contains grid evaluation settings.
type GridConfig struct {
	Workers   int `yaml:"workers"`
	MaxPoints int `yaml:"max_points"`
}

// TrackConfig contains satellite track sampling settings.
type TrackConfig struct {
	MaxSamples int `yaml:"max_samples"`
}

// AuthConfig contains API authentication settings.
type AuthConfig struct {
	Enabled bool   `yaml:"enabled"`
	Token   string `yaml:"token"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr: ":8080",
		},
		Model: ModelConfig{
			CacheDir: "/tmp/geofield/model",
			MaxFiles: 5,
		},
		Cache: CacheConfig{
			MaxEntries: 16,
		},
		Grid: GridConfig{
			Workers:   runtime.NumCPU(),
			MaxPoints: 65341, // 1-degree global grid: 181 * 361
		},
		Track: TrackConfig{
			MaxSamples: 10000,
		},
		Auth: AuthConfig{},
	}
}

// Load reads a YAML configuration file on top of the defaults. An empty
// path returns the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for obvious mistakes.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr must not be empty")
	}
	if c.Grid.Workers < 1 {
		return fmt.Errorf("grid.workers must be positive")
	}
	if c.Grid.MaxPoints < 1 {
		return fmt.Errorf("grid.max_points must be positive")
	}
	if c.Track.MaxSamples < 1 {
		return fmt.Errorf("track.max_samples must be positive")
	}
	if c.Cache.MaxEntries < 1 {
		return fmt.Errorf("cache.max_entries must be positive")
	}
	if c.Auth.Enabled && c.Auth.Token == "" {
		return fmt.Errorf("auth.token is required when auth is enabled")
	}
	return nil
}
