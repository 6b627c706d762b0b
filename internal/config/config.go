// Package config provides configuration types, defaults, and validation for
// dispatchy.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/zjrosen/dispatchy/internal/log"
	"github.com/zjrosen/dispatchy/internal/tracing"
)

// Config holds all configuration options for dispatchy.
type Config struct {
	Log     LogConfig       `mapstructure:"log"`
	Tracing tracing.Config  `mapstructure:"tracing"`
	Metrics MetricsConfig   `mapstructure:"metrics"`
	Cache   CacheConfig     `mapstructure:"cache"`
	Watch   WatchConfig     `mapstructure:"watch"`
	Flags   map[string]bool `mapstructure:"flags"`
}

// LogConfig controls the debug log.
type LogConfig struct {
	Level string `mapstructure:"level"` // debug, info, warn or error
	File  string `mapstructure:"file"`  // debug log path used with --debug
}

// MetricsConfig controls the Prometheus collector.
type MetricsConfig struct {
	// Enabled prints a metrics summary after every run.
	Enabled bool `mapstructure:"enabled"`

	// ListenAddr serves /metrics while watching, e.g. "localhost:9464".
	// Empty disables the endpoint.
	ListenAddr string `mapstructure:"listen_addr"`
}

// CacheConfig controls memoization of parsed event strings.
type CacheConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// WatchConfig controls `run --watch`.
type WatchConfig struct {
	Debounce time.Duration `mapstructure:"debounce"`
}

// DefaultDebounce is the quiet period before a changed scenario re-runs.
const DefaultDebounce = 100 * time.Millisecond

// DefaultConfigDir returns ~/.config/dispatchy or empty string if the home
// dir is unavailable.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "dispatchy")
}

// DefaultTracesFilePath returns ~/.config/dispatchy/traces/traces.jsonl or
// empty string if the home dir is unavailable.
func DefaultTracesFilePath() string {
	dir := DefaultConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "traces", "traces.jsonl")
}

// Defaults returns a Config with default values.
func Defaults() Config {
	tc := tracing.DefaultConfig()
	tc.FilePath = DefaultTracesFilePath()
	return Config{
		Log: LogConfig{
			Level: "debug",
			File:  "debug.log",
		},
		Tracing: tc,
		Metrics: MetricsConfig{},
		Cache: CacheConfig{
			Enabled:         true,
			TTL:             10 * time.Minute,
			CleanupInterval: 30 * time.Minute,
		},
		Watch: WatchConfig{
			Debounce: DefaultDebounce,
		},
		Flags: map[string]bool{},
	}
}

// Validate checks every section and returns the first problem found.
func (c Config) Validate() error {
	if err := ValidateLog(c.Log); err != nil {
		return err
	}
	if err := ValidateTracing(c.Tracing); err != nil {
		return err
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl must not be negative, got %v", c.Cache.TTL)
	}
	if c.Cache.CleanupInterval < 0 {
		return fmt.Errorf("cache.cleanup_interval must not be negative, got %v", c.Cache.CleanupInterval)
	}
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative, got %v", c.Watch.Debounce)
	}
	return nil
}

// ValidateLog checks the log level name.
func ValidateLog(l LogConfig) error {
	switch l.Level {
	case "", "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("log.level must be \"debug\", \"info\", \"warn\", or \"error\", got %q", l.Level)
	}
}

// ValidateTracing checks tracing configuration for errors. Empty values use
// defaults.
func ValidateTracing(tc tracing.Config) error {
	if tc.SampleRate < 0.0 || tc.SampleRate > 1.0 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", tc.SampleRate)
	}

	switch tc.Exporter {
	case "", tracing.ExporterNone, tracing.ExporterFile, tracing.ExporterStdout, tracing.ExporterOTLP:
	default:
		return fmt.Errorf("tracing.exporter must be \"none\", \"file\", \"stdout\", or \"otlp\", got %q", tc.Exporter)
	}

	// Path requirements only matter when tracing is on.
	if tc.Enabled {
		if tc.Exporter == tracing.ExporterFile && tc.FilePath == "" {
			return fmt.Errorf("tracing.file_path is required when exporter is \"file\"")
		}
		if tc.Exporter == tracing.ExporterOTLP && tc.OTLPEndpoint == "" {
			return fmt.Errorf("tracing.otlp_endpoint is required when exporter is \"otlp\"")
		}
	}
	return nil
}

// DefaultConfigTemplate returns the default config as a YAML string with
// comments.
func DefaultConfigTemplate() string {
	return `# dispatchy configuration

# Debug log, written when running with --debug or DISPATCHY_DEBUG=1
log:
  level: debug        # debug, info, warn, error
  file: debug.log

# Distributed tracing of fires and scenario runs
tracing:
  enabled: false
  exporter: file      # none, file, stdout, otlp
  # file_path: ~/.config/dispatchy/traces/traces.jsonl
  # otlp_endpoint: localhost:4317
  sample_rate: 1.0

# Prometheus metrics for registrations, removals and fires
metrics:
  enabled: false              # print a summary after each run
  # listen_addr: localhost:9464   # serve /metrics while watching

# Cache of parsed event-type strings
cache:
  enabled: true
  ttl: 10m
  cleanup_interval: 30m

# run --watch
watch:
  debounce: 100ms

# Feature flags
flags:
  partial-mapping: false   # on/one with a mapping keep keys registered before an invalid listener
  listener-spans: false    # record a span per listener invocation
`
}

// WriteDefaultConfig creates a config file at configPath with default
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
