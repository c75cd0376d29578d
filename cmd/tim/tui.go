package main

import (
	"github.com/spf13/cobra"

	"github.com/jmylchreest/tim/internal/audio"
	"github.com/jmylchreest/tim/internal/notify"
	"github.com/jmylchreest/tim/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui [duration]",
	Short: "Launch the interactive countdown",
	Long: `Launch the interactive countdown timer.

Brown noise plays while the countdown runs and stops when it is paused,
cleared or finished. Completion sends a desktop notification, plays the
configured chime and records the session in history.

Key bindings:
  space       Start/pause
  c           Clear
  0-9         Type a time (last two digits are minutes, the rest hours)
  ↑/↓         Add/remove time
  s           Toggle seconds
  n           Toggle noise
  ?           Show help
  q           Quit`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, args []string) error {
	opts := tui.RunOptions{
		Options: tui.Options{
			Config: cfg,
			Logger: logger,
		},
		ConfigPath: configPath(),
	}

	if len(args) == 1 {
		d, err := parseDurationArg(args[0])
		if err != nil {
			return err
		}
		opts.Duration = d
	}

	// Audio and notifications are optional; the countdown runs without them
	if mgr, err := audio.NewManager(cfg, logger); err != nil {
		logger.Warn("audio unavailable", "error", err)
	} else {
		mgr.Start()
		defer mgr.Close()
		opts.Audio = mgr
	}

	if client, err := notify.NewClient(logger); err != nil {
		logger.Warn("notifications unavailable", "error", err)
	} else {
		opts.Notifier = client
	}

	if cfg.History.Enabled {
		if f, err := openHistory(); err != nil {
			logger.Warn("history unavailable", "error", err)
		} else {
			defer f.Close()
			opts.History = f
		}
	}

	return tui.Run(opts)
}
