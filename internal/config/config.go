// Package config provides configuration types and defaults for cachebox.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/zjrosen/cachebox/internal/log"
	"github.com/zjrosen/cachebox/internal/tracing"
)

// CatalogConfig selects and configures the asset catalog backend.
type CatalogConfig struct {
	// Driver selects the catalog backend.
	// Options: "yaml", "sqlite", "static"
	// Default: "yaml"
	Driver string `mapstructure:"driver" yaml:"driver"`

	// Path is the manifest file (yaml) or database file (sqlite).
	// Unused by the static driver.
	Path string `mapstructure:"path" yaml:"path"`

	// AutoReload re-reads a yaml manifest when the file changes on disk.
	AutoReload bool `mapstructure:"auto_reload" yaml:"auto_reload"`

	// ReloadDebounce coalesces rapid manifest writes into one reload.
	// Default: 250ms
	ReloadDebounce time.Duration `mapstructure:"reload_debounce" yaml:"reload_debounce"`
}

// CacheConfig tunes the resident asset cache.
type CacheConfig struct {
	// ReleaseTTL is how long a released asset stays resident before the
	// cache janitor may reclaim it.
	// Default: 5m
	ReleaseTTL time.Duration `mapstructure:"release_ttl" yaml:"release_ttl"`

	// CleanupInterval is how often the cache janitor runs.
	// Default: 10m
	CleanupInterval time.Duration `mapstructure:"cleanup_interval" yaml:"cleanup_interval"`
}

// LogConfig controls the category file logger.
type LogConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path" yaml:"path"`
	// Level is the minimum level written: "debug", "info", "warn", "error".
	Level string `mapstructure:"level" yaml:"level"`
}

// Config holds all configuration options for cachebox.
type Config struct {
	Catalog CatalogConfig  `mapstructure:"catalog" yaml:"catalog"`
	Cache   CacheConfig    `mapstructure:"cache" yaml:"cache"`
	Log     LogConfig      `mapstructure:"log" yaml:"log"`
	Tracing tracing.Config `mapstructure:"tracing" yaml:"tracing"`
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		Catalog: CatalogConfig{
			Driver:         "yaml",
			Path:           "assets.yaml",
			AutoReload:     false,
			ReloadDebounce: 250 * time.Millisecond,
		},
		Cache: CacheConfig{
			ReleaseTTL:      5 * time.Minute,
			CleanupInterval: 10 * time.Minute,
		},
		Log: LogConfig{
			Enabled: false,
			Path:    "debug.log",
			Level:   "debug",
		},
		Tracing: tracing.DefaultConfig(),
	}
}

// Validate checks the configuration for errors. Empty values that have
// defaults are accepted.
func (c Config) Validate() error {
	switch c.Catalog.Driver {
	case "", "yaml", "sqlite", "static":
	default:
		return fmt.Errorf("catalog.driver must be \"yaml\", \"sqlite\", or \"static\", got %q", c.Catalog.Driver)
	}

	if c.Catalog.Driver != "static" && c.Catalog.Driver != "" && c.Catalog.Path == "" {
		return fmt.Errorf("catalog.path is required for the %s driver", c.Catalog.Driver)
	}

	if c.Catalog.ReloadDebounce < 0 {
		return fmt.Errorf("catalog.reload_debounce must not be negative, got %v", c.Catalog.ReloadDebounce)
	}

	if c.Cache.ReleaseTTL < 0 {
		return fmt.Errorf("cache.release_ttl must not be negative, got %v", c.Cache.ReleaseTTL)
	}
	if c.Cache.CleanupInterval < 0 {
		return fmt.Errorf("cache.cleanup_interval must not be negative, got %v", c.Cache.CleanupInterval)
	}

	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be \"debug\", \"info\", \"warn\", or \"error\", got %q", c.Log.Level)
	}

	return ValidateTracing(c.Tracing)
}

// ValidateTracing checks tracing configuration for errors.
// Returns nil if the configuration is valid (empty values use defaults).
func ValidateTracing(t tracing.Config) error {
	if t.SampleRate < 0.0 || t.SampleRate > 1.0 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", t.SampleRate)
	}

	switch t.Exporter {
	case "", "none", "file", "stdout", "otlp":
	default:
		return fmt.Errorf("tracing.exporter must be \"none\", \"file\", \"stdout\", or \"otlp\", got %q", t.Exporter)
	}

	if t.Enabled {
		if t.Exporter == "file" && t.FilePath == "" {
			return fmt.Errorf("tracing.file_path is required when exporter is \"file\"")
		}
		if t.Exporter == "otlp" && t.OTLPEndpoint == "" {
			return fmt.Errorf("tracing.otlp_endpoint is required when exporter is \"otlp\"")
		}
	}

	return nil
}

// DefaultTracesFilePath returns the default path for trace file export.
// Returns ~/.config/cachebox/traces/traces.jsonl or empty string if the
// home dir is unavailable.
func DefaultTracesFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "cachebox", "traces", "traces.jsonl")
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# Cachebox Configuration

# Asset catalog backend
catalog:
  driver: yaml            # yaml, sqlite, or static
  path: assets.yaml       # manifest file (yaml) or database file (sqlite)
  auto_reload: false      # re-read a yaml manifest when it changes on disk
  reload_debounce: 250ms  # coalesce rapid manifest writes into one reload

# Resident asset cache
cache:
  release_ttl: 5m         # how long a released asset stays resident
  cleanup_interval: 10m   # how often the cache janitor runs

# Category file logger
log:
  enabled: false
  path: debug.log
  level: debug            # debug, info, warn, error

# Tracing configuration
# tracing:
#   enabled: false                 # Enable/disable tracing (default: false)
#   exporter: file                 # Export backend: none, file, stdout, otlp (default: file)
#   file_path: ~/.config/cachebox/traces/traces.jsonl
#   otlp_endpoint: localhost:4317  # OTLP collector endpoint (for otlp exporter)
#   sample_rate: 1.0               # Trace sampling rate 0.0-1.0 (default: 1.0)
`
}

// WriteDefaultConfig creates a config file at the given path with default
// settings and comments. Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
