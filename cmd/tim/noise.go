package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/tim/internal/audio"
)

var noiseOpts struct {
	duration string
	gain     float64
}

var noiseCmd = &cobra.Command{
	Use:   "noise",
	Short: "Play brown noise until interrupted",
	Long: `Play brown noise without a countdown.

Examples:
  # Play until Ctrl+C
  tim noise

  # Play for half an hour at reduced volume
  tim noise --for 30m --gain 0.5`,
	Args: cobra.NoArgs,
	RunE: runNoise,
}

func init() {
	rootCmd.AddCommand(noiseCmd)

	noiseCmd.Flags().StringVar(&noiseOpts.duration, "for", "",
		"Stop after this duration (e.g., 30m, 1h; default: until interrupted)")
	noiseCmd.Flags().Float64Var(&noiseOpts.gain, "gain", 0,
		"Output gain from 0.0 to 1.0 (default: noise.gain from config)")
}

func runNoise(cmd *cobra.Command, args []string) error {
	// Explicitly requested, so the config's enabled flag does not apply
	cfg.Noise.Enabled = true
	if cmd.Flags().Changed("gain") {
		if noiseOpts.gain < 0 || noiseOpts.gain > 1 {
			return fmt.Errorf("gain must be between 0 and 1, got %v", noiseOpts.gain)
		}
		cfg.Noise.Gain = noiseOpts.gain
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if noiseOpts.duration != "" {
		d, err := parseDurationArg(noiseOpts.duration)
		if err != nil {
			return err
		}
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	mgr, err := audio.NewManager(cfg, logger)
	if err != nil {
		return err
	}
	defer mgr.Close()

	if err := mgr.StartNoise(); err != nil {
		return fmt.Errorf("failed to start noise: %w", err)
	}
	fmt.Fprintln(cmd.ErrOrStderr(), "Playing brown noise, press Ctrl+C to stop")

	<-ctx.Done()
	mgr.StopNoise()

	return nil
}
