// Package cmd implements the cachebox command-line interface.
package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/cachebox/internal/config"
	"github.com/zjrosen/cachebox/internal/log"
)

var (
	version   = "dev"
	cfgFile   string
	debugMode bool
	cfg       config.Config

	logCleanup func()
)

var rootCmd = &cobra.Command{
	Use:     "cachebox",
	Short:   "A resource lifecycle registry over a streamed asset catalog",
	Long: `Cachebox tracks every object a workflow creates or loads and guarantees
all of them can be torn down or released together. The CLI drives the
registry against a catalog backend (yaml, sqlite, or a static demo set).`,
	Version:           version,
	PersistentPreRunE: setupLogging,
	SilenceUsage:      true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ~/.config/cachebox/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false,
		"enable debug logging to the configured log file")
}

func initConfig() {
	defaults := config.Defaults()
	viper.SetDefault("catalog.driver", defaults.Catalog.Driver)
	viper.SetDefault("catalog.path", defaults.Catalog.Path)
	viper.SetDefault("catalog.auto_reload", defaults.Catalog.AutoReload)
	viper.SetDefault("catalog.reload_debounce", defaults.Catalog.ReloadDebounce)
	viper.SetDefault("cache.release_ttl", defaults.Cache.ReleaseTTL)
	viper.SetDefault("cache.cleanup_interval", defaults.Cache.CleanupInterval)
	viper.SetDefault("log.enabled", defaults.Log.Enabled)
	viper.SetDefault("log.path", defaults.Log.Path)
	viper.SetDefault("log.level", defaults.Log.Level)
	viper.SetDefault("tracing.enabled", defaults.Tracing.Enabled)
	viper.SetDefault("tracing.exporter", defaults.Tracing.Exporter)
	viper.SetDefault("tracing.file_path", config.DefaultTracesFilePath())
	viper.SetDefault("tracing.sample_rate", defaults.Tracing.SampleRate)
	viper.SetDefault("tracing.otlp_endpoint", defaults.Tracing.OTLPEndpoint)
	viper.SetDefault("tracing.service_name", defaults.Tracing.ServiceName)

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .cachebox/config.yaml (current directory)
		// 2. ~/.config/cachebox/config.yaml (user config)
		if _, err := os.Stat(".cachebox/config.yaml"); err == nil {
			viper.SetConfigFile(".cachebox/config.yaml")
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(filepath.Join(home, ".config", "cachebox"))
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		// No config file found anywhere; continue with defaults.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			cobra.CheckErr(err)
		}
	}

	_ = viper.Unmarshal(&cfg)
}

func setupLogging(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	enabled := cfg.Log.Enabled || debugMode || os.Getenv("CACHEBOX_DEBUG") != ""
	if !enabled {
		return nil
	}

	cleanup, err := log.Init(cfg.Log.Path)
	if err != nil {
		return err
	}
	logCleanup = cleanup
	log.SetMinLevel(log.ParseLevel(cfg.Log.Level))
	log.Info(log.CatCLI, "Logging enabled", "path", cfg.Log.Path, "level", cfg.Log.Level)
	return nil
}

// Execute runs the root command.
func Execute() error {
	defer func() {
		if logCleanup != nil {
			logCleanup()
		}
	}()
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags).
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
