package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/tim/internal/config"
	"github.com/jmylchreest/tim/internal/history"
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
		verbose     bool
		historyFile string
		configPath  string
		backend     string
	}
	logger  *slog.Logger
	logFile *os.File
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "tim [duration]",
	Short: "Countdown timer with brown noise",
	Long: `tim is a terminal countdown timer that plays brown noise while it runs.

When the countdown reaches zero the noise stops, a desktop notification is
sent, an optional chime plays and the session is recorded in history.

Running tim without a subcommand launches the interactive TUI. The optional
duration is either a Go duration (25m, 1h30m) or a number of minutes.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildTime),
	Args:    cobra.MaximumNArgs(1),
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if logFile != nil {
			return logFile.Close()
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
	// Assigned here rather than in the literal to avoid an initialization
	// cycle: the hook compares against rootCmd.
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		// The TUI owns the terminal, so its logs go to a file
		interactive := cmd == rootCmd || cmd == tuiCmd
		if err := setupLogger(interactive); err != nil {
			return err
		}

		var err error
		cfg, err = config.LoadConfig(globalOpts.configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if globalOpts.backend != "" {
			cfg.Audio.Backend = globalOpts.backend
		}

		return nil
	}

	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&globalOpts.verbose, "verbose", "v", false,
		"Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&globalOpts.historyFile, "history-file", "",
		"Path to history file (default: ~/.local/share/tim/history.jsonl)")
	rootCmd.PersistentFlags().StringVar(&globalOpts.configPath, "config", "",
		"Path to config file (default: ~/.config/tim/config.toml)")
	rootCmd.PersistentFlags().StringVar(&globalOpts.backend, "backend", "",
		"Audio backend override (speaker, oto)")
}

// setupLogger configures the global slog logger. Interactive sessions log to
// the state directory; everything else logs to stderr.
func setupLogger(interactive bool) error {
	level := slog.LevelWarn
	if globalOpts.verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var w io.Writer = os.Stderr
	if interactive {
		path := config.LogPath()
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		logFile = f
		w = f
	}

	logger = slog.New(slog.NewTextHandler(w, opts))
	slog.SetDefault(logger)
	return nil
}

// historyPath returns the custom history file or the default.
func historyPath() string {
	if globalOpts.historyFile != "" {
		return globalOpts.historyFile
	}
	return config.HistoryPath()
}

// configPath returns the custom config file or the default.
func configPath() string {
	if globalOpts.configPath != "" {
		return globalOpts.configPath
	}
	return config.ConfigPath()
}

// openHistory opens the history file and applies the configured retention.
func openHistory() (*history.File, error) {
	f, err := history.Open(historyPath())
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}

	if removed, err := f.Prune(cfg.History.Keep); err != nil {
		logger.Warn("failed to prune history", "error", err)
	} else if removed > 0 {
		logger.Debug("pruned history", "removed", removed)
	}

	return f, nil
}

// parseDurationArg accepts a Go duration or a bare number of minutes.
func parseDurationArg(s string) (time.Duration, error) {
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 {
			return 0, fmt.Errorf("invalid duration %q", s)
		}
		return time.Duration(n) * time.Minute, nil
	}

	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	return d, nil
}
