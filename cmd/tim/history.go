package main

import (
	"fmt"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/tim/internal/adapter/output"
	"github.com/jmylchreest/tim/internal/history"
)

var historyOpts struct {
	format   string
	template string
	limit    int
}

var pruneOpts struct {
	keep   int
	dryRun bool
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show completed countdowns",
	Long: `Show completed countdown sessions, newest first.

Examples:
  # Last ten sessions
  tim history --limit 10

  # Machine-readable output
  tim history --format json
  tim history --format yaml

  # Custom line format
  tim history --template '{{.Length}} {{.RelativeTime}}'`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

var historyPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove old sessions from history",
	Long: `Remove old sessions from the history file.

Examples:
  # Keep only the 100 most recent sessions
  tim history prune --keep 100

  # Preview what would be removed (dry run)
  tim history prune --keep 10 --dry-run`,
	Args: cobra.NoArgs,
	RunE: runHistoryPrune,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyPruneCmd)

	historyCmd.Flags().StringVarP(&historyOpts.format, "format", "f", "plain",
		"Output format (plain, json, yaml, ids)")
	historyCmd.Flags().StringVar(&historyOpts.template, "template", "",
		"Go template for plain output")
	historyCmd.Flags().IntVarP(&historyOpts.limit, "limit", "n", 0,
		"Show at most N sessions (0=unlimited)")

	historyPruneCmd.Flags().IntVar(&pruneOpts.keep, "keep", 0,
		"Keep only the N most recent sessions")
	historyPruneCmd.Flags().BoolVar(&pruneOpts.dryRun, "dry-run", false,
		"Show what would be removed without actually removing")
	_ = historyPruneCmd.MarkFlagRequired("keep")
}

func runHistory(cmd *cobra.Command, args []string) error {
	format := output.FormatType(historyOpts.format)
	switch format {
	case output.FormatPlain, output.FormatJSON, output.FormatYAML, output.FormatIDs:
	default:
		return fmt.Errorf("unknown format %q", historyOpts.format)
	}

	f, err := history.Open(historyPath())
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	defer f.Close()

	sessions, err := f.Load()
	if err != nil {
		return err
	}

	sessions = newestFirst(sessions, historyOpts.limit)
	if len(sessions) == 0 && format == output.FormatPlain {
		fmt.Fprintln(os.Stderr, "No sessions in history")
		return nil
	}

	opts := output.DefaultFormatterOptions()
	opts.Template = historyOpts.template
	return output.NewFormatter(format, opts).Format(cmd.OutOrStdout(), sessions)
}

// newestFirst reverses the file order and applies limit.
func newestFirst(sessions []history.Session, limit int) []history.Session {
	sessions = slices.Clone(sessions)
	slices.Reverse(sessions)
	if limit > 0 && len(sessions) > limit {
		sessions = sessions[:limit]
	}
	return sessions
}

func runHistoryPrune(cmd *cobra.Command, args []string) error {
	if pruneOpts.keep <= 0 {
		return fmt.Errorf("--keep must be at least 1")
	}

	f, err := history.Open(historyPath())
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	defer f.Close()

	out := cmd.OutOrStdout()

	if pruneOpts.dryRun {
		sessions, err := f.Load()
		if err != nil {
			return err
		}
		excess := len(sessions) - pruneOpts.keep
		if excess <= 0 {
			fmt.Fprintln(out, "No sessions to remove")
			return nil
		}
		fmt.Fprintf(out, "Would remove %d session(s):\n", excess)
		opts := output.DefaultFormatterOptions()
		opts.ShowIndex = false
		return output.NewPlainFormatter(opts).Format(out, sessions[:excess])
	}

	removed, err := f.Prune(pruneOpts.keep)
	if err != nil {
		return err
	}
	if removed == 0 {
		fmt.Fprintln(out, "No sessions to remove")
		return nil
	}

	fmt.Fprintf(out, "Removed %d session(s)\n", removed)
	return nil
}
