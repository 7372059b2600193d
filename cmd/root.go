package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/tensetrainer/internal/config"
	"github.com/abhisek/tensetrainer/internal/store"
)

// cfg is resolved once per invocation by the root pre-run hook.
var cfg config.Config

var rootCmd = &cobra.Command{
	Use:   "tensetrainer",
	Short: "Practise English tenses with AI-generated questions",
	Long: "Tense Trainer serves an HTTP API for three-round tense practice sessions " +
		"and ships a terminal client for it.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig(cmd)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to the TOML config file (default $XDG_CONFIG_HOME/tensetrainer/config.toml)")
	rootCmd.PersistentFlags().String("db", "", "SQLite path or postgres:// URL (overrides TENSE_DB)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(practiceCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads the config file and environment, then applies flags.
func loadConfig(cmd *cobra.Command) error {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = config.DefaultPath()
	}
	c, err := config.Load(path)
	if err != nil {
		return err
	}
	if dsn, _ := cmd.Flags().GetString("db"); dsn != "" {
		c.Database.DSN = dsn
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		c.Log.Level = lvl
	}
	cfg = c
	return nil
}

// resolveDSN returns the configured database, or the default SQLite file.
func resolveDSN() (string, error) {
	if cfg.Database.DSN != "" {
		return cfg.Database.DSN, store.EnsureDir(cfg.Database.DSN)
	}
	return store.DefaultDBPath()
}

// openStore opens the configured database.
func openStore() (*store.Store, error) {
	dsn, err := resolveDSN()
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	s, err := store.Open(dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}

// newLogger builds the process logger. format falls back to fallback when
// the config leaves it empty.
func newLogger(w io.Writer, fallback string) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		return nil, fmt.Errorf("log level %q: %w", cfg.Log.Level, err)
	}
	opts := &slog.HandlerOptions{Level: level}

	format := cfg.Log.Format
	if format == "" {
		format = fallback
	}
	switch strings.ToLower(format) {
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q (want text or json)", format)
	}
}
