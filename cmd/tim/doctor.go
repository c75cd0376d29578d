package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/tim/internal/audio"
	"github.com/jmylchreest/tim/internal/history"
	"github.com/jmylchreest/tim/internal/notify"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check audio, notifications and history",
	Long: `Check that tim can reach everything it uses.

Probes the configured audio backend by briefly opening it with silence,
queries the notification server over D-Bus and opens the history file.
Exits non-zero if any check fails.`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	failed := 0

	report := func(name string, err error, detail string) {
		if err != nil {
			failed++
			fmt.Fprintf(out, "✗ %-13s %v\n", name, err)
			return
		}
		fmt.Fprintf(out, "✓ %-13s %s\n", name, detail)
	}

	report("config", nil, configPath())
	report("audio", probeAudio(), fmt.Sprintf("%s backend at %d Hz", cfg.Audio.Backend, cfg.Audio.SampleRate))

	info, caps, err := probeNotifications()
	report("notifications", err, fmt.Sprintf("%s %s (%s)", info.Name, info.Version, strings.Join(caps, ", ")))

	report("history", probeHistory(), historyPath())

	if failed > 0 {
		return fmt.Errorf("%d check(s) failed", failed)
	}
	return nil
}

func probeAudio() error {
	mgr, err := audio.NewManager(cfg, logger)
	if err != nil {
		return err
	}
	defer mgr.Close()
	return mgr.Probe()
}

func probeNotifications() (notify.ServerInfo, []string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := notify.NewClient(logger)
	if err != nil {
		return notify.ServerInfo{}, nil, err
	}

	info, err := client.ServerInformation(ctx)
	if err != nil {
		return notify.ServerInfo{}, nil, err
	}
	caps, err := client.Capabilities(ctx)
	if err != nil {
		return info, nil, err
	}
	return info, caps, nil
}

func probeHistory() error {
	f, err := history.Open(historyPath())
	if err != nil {
		return err
	}
	defer f.Close()

	sessions, err := f.Load()
	if err != nil {
		return err
	}
	logger.Debug("history readable", "sessions", len(sessions))
	return nil
}
