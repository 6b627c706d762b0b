package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/dispatchy/internal/config"
	"github.com/zjrosen/dispatchy/internal/log"
)

// localConfigPath is checked before the user config directory.
const localConfigPath = ".dispatchy/config.yaml"

var (
	version  = "dev"
	cfgFile  string
	debug    bool
	cfg      config.Config
	closeLog func()
)

var rootCmd = &cobra.Command{
	Use:   "dispatchy",
	Short: "Run and inspect event registry scenarios",
	Long: `dispatchy drives an in-process event registry: listeners registered by
type and namespace, fire-once listeners, lifecycle hooks and persistent events.

Scenario files describe registry operations and the listener calls they are
expected to produce. Use 'dispatchy run' to check them and 'dispatchy parse'
to see how an event string is split into types and namespaces.`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(*cobra.Command, []string) {
		if closeLog != nil {
			closeLog()
			closeLog = nil
		}
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ./.dispatchy/config.yaml, then ~/.config/dispatchy/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false,
		"write debug logs to the configured log file (also enabled by "+log.EnvDebug+")")
}

func initConfig() {
	cfg = loadConfig(cfgFile)
}

// loadConfig reads the config file at path, or the first one found in the
// default locations. A missing file leaves the defaults in place.
func loadConfig(path string) config.Config {
	v := viper.New()
	defaults := config.Defaults()
	v.SetDefault("log.level", defaults.Log.Level)
	v.SetDefault("log.file", defaults.Log.File)
	v.SetDefault("tracing.enabled", defaults.Tracing.Enabled)
	v.SetDefault("tracing.exporter", defaults.Tracing.Exporter)
	v.SetDefault("tracing.file_path", defaults.Tracing.FilePath)
	v.SetDefault("tracing.otlp_endpoint", defaults.Tracing.OTLPEndpoint)
	v.SetDefault("tracing.sample_rate", defaults.Tracing.SampleRate)
	v.SetDefault("tracing.service_name", defaults.Tracing.ServiceName)
	v.SetDefault("metrics.enabled", defaults.Metrics.Enabled)
	v.SetDefault("metrics.listen_addr", defaults.Metrics.ListenAddr)
	v.SetDefault("cache.enabled", defaults.Cache.Enabled)
	v.SetDefault("cache.ttl", defaults.Cache.TTL)
	v.SetDefault("cache.cleanup_interval", defaults.Cache.CleanupInterval)
	v.SetDefault("watch.debounce", defaults.Watch.Debounce)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		// Config lookup order:
		// 1. .dispatchy/config.yaml (current directory)
		// 2. ~/.config/dispatchy/config.yaml (user config)
		if _, err := os.Stat(localConfigPath); err == nil {
			v.SetConfigFile(localConfigPath)
		} else if dir := config.DefaultConfigDir(); dir != "" {
			v.AddConfigPath(dir)
			v.SetConfigName("config")
			v.SetConfigType("yaml")
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			log.Warn(log.CatConfig, "Reading config failed, using defaults", "error", err)
		}
	}

	loaded := defaults
	if err := v.Unmarshal(&loaded); err != nil {
		log.Warn(log.CatConfig, "Decoding config failed, using defaults", "error", err)
		loaded = defaults
	}
	if loaded.Flags == nil {
		loaded.Flags = map[string]bool{}
	}
	return loaded
}

// configPath returns the file flag commands should write to.
func configPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	if _, err := os.Stat(localConfigPath); err == nil {
		return localConfigPath
	}
	if dir := config.DefaultConfigDir(); dir != "" {
		if p := filepath.Join(dir, "config.yaml"); fileExists(p) {
			return p
		}
	}
	return localConfigPath
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func setup(*cobra.Command, []string) error {
	if debug || os.Getenv(log.EnvDebug) != "" {
		closer, err := log.Init(cfg.Log.File)
		if err != nil {
			return fmt.Errorf("initializing debug log: %w", err)
		}
		closeLog = closer
		log.SetMinLevel(log.ParseLevel(cfg.Log.Level))
		log.Info(log.CatConfig, "dispatchy starting", "version", version, "config", cfgFile)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
