package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/matheuskafuri/dbroast/internal/cache"
	"github.com/matheuskafuri/dbroast/internal/config"
	"github.com/matheuskafuri/dbroast/internal/logger"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	flagConfig   string
	flagCache    string
	flagLogLevel string
)

var rootCmd = &cobra.Command{
	Use:   "dbroast",
	Short: "Satirical commentary for database engineering blogs",
	Long: `dbroast fetches the latest posts from database engineering blogs, has a
language model roast each new one, and keeps the roasts in a local cache that a
static site generator can consume.

Run without a subcommand to do one refresh.`,
	SilenceUsage: true,
	RunE:         runRefresh,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config file")
	rootCmd.PersistentFlags().StringVar(&flagCache, "cache", "", "path to the roast cache (overrides cache.path)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "debug, info, warn or error (overrides log_level)")
	rootCmd.Flags().StringVar(&flagExport, "export", "", "also write the sorted roasts as JSON to this path")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(browseCmd)
	rootCmd.AddCommand(versionCmd)
}

// env is what every subcommand needs: config, logger and a cache store.
type env struct {
	cfg   *config.Config
	log   *slog.Logger
	store cache.Store
	path  string
}

func setup() (*env, error) {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}

	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	level := cfg.LogLevel
	if flagLogLevel != "" {
		level = flagLogLevel
	}
	if level == "" {
		level = "info"
	}
	log, err := logger.Init(level)
	if err != nil {
		return nil, fmt.Errorf("configuring logger: %w", err)
	}

	path := cfg.CachePath()
	if flagCache != "" {
		path = flagCache
	}
	store, err := cache.Open(cfg.CacheBackend(), path)
	if err != nil {
		return nil, fmt.Errorf("opening cache: %w", err)
	}

	return &env{cfg: cfg, log: log, store: store, path: path}, nil
}

// loadEntries reads the cache without touching any feed. A cache that cannot
// be read is reported as an error here since nothing would be written back.
func (e *env) loadEntries(cmd *cobra.Command) ([]cache.Entry, error) {
	c, err := e.store.Load(cmd.Context())
	if err != nil {
		return nil, fmt.Errorf("reading cache %s: %w", e.path, err)
	}
	return c.Entries(), nil
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
}
