// Package main provides the CLI entrypoint for focusdesk.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/focusdesk/internal/config"
	"github.com/jmylchreest/focusdesk/internal/countdown"
)

// Build-time variables (set via ldflags)
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

// Global configuration and state
var (
	cfg        *config.Config
	globalOpts struct {
		verbose    bool
		configPath string
		stateFile  string
		logFile    string
	}
	logger    *slog.Logger
	logCloser io.Closer

	// countdownStore is the global store instance
	countdownStore *countdown.Store
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "focusdesk",
	Short: "Focus countdown timer for the terminal",
	Long: `focusdesk is a focus countdown timer for the terminal.

Pick a duration, start the countdown and a chime plays when it reaches zero.
The countdown survives restarts, completed sessions are logged, and ambient
cues can play while you work.

Running focusdesk without a subcommand launches the interactive TUI.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildTime),
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := setupLogger(isInteractive(cmd)); err != nil {
			return err
		}

		var err error
		cfg, err = config.LoadConfig(globalOpts.configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if err := config.EnsureDataDir(); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}

		countdownStore = countdown.NewStore(
			countdown.NewFilePersister(statePath()),
			countdown.WithLogger(logger),
			countdown.WithDefaultMinutes(cfg.Timer.DefaultMinutes),
			countdown.WithAllowedDurations(cfg.Timer.Presets),
		)
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if logCloser != nil {
			return logCloser.Close()
		}
		return nil
	},
	// Default to TUI when no subcommand is provided
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI(cmd, args)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&globalOpts.verbose, "verbose", "v", false,
		"Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&globalOpts.configPath, "config", "",
		"Path to config file (default: ~/.config/focusdesk/config.toml)")
	rootCmd.PersistentFlags().StringVar(&globalOpts.stateFile, "state-file", "",
		"Path to countdown state file (default: ~/.local/share/focusdesk/duration-storage.json)")
	rootCmd.PersistentFlags().StringVar(&globalOpts.logFile, "log-file", "",
		"Path to the TUI log file (default: ~/.local/share/focusdesk/focusdesk.log)")
}

// isInteractive reports whether cmd takes over the terminal.
func isInteractive(cmd *cobra.Command) bool {
	return !cmd.HasParent() || cmd.Name() == "tui"
}

// setupLogger configures the global slog logger. The TUI logs to a file so
// the alternate screen is not corrupted; everything else logs to stderr so
// stdout is clean for output.
func setupLogger(toFile bool) error {
	level := slog.LevelWarn
	if globalOpts.verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var w io.Writer = os.Stderr
	if toFile {
		path := globalOpts.logFile
		if path == "" {
			path = config.LogPath()
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		w = f
		logCloser = f
	}

	logger = slog.New(slog.NewTextHandler(w, opts))
	slog.SetDefault(logger)
	return nil
}

func statePath() string {
	if globalOpts.stateFile != "" {
		return globalOpts.stateFile
	}
	return config.StatePath()
}

// hydratedStore loads the persisted countdown for one-shot commands.
func hydratedStore(ctx context.Context) *countdown.Store {
	if err := countdownStore.Hydrate(ctx); err != nil {
		logger.Warn("failed to load countdown state, using defaults", "error", err)
	}
	return countdownStore
}
