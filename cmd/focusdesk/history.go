package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/focusdesk/internal/config"
	"github.com/jmylchreest/focusdesk/internal/history"
	"github.com/jmylchreest/focusdesk/internal/output"
)

var historyOpts struct {
	format string
	since  string
	limit  int
}

var pruneOpts struct {
	olderThan string
	dryRun    bool
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List completed focus sessions",
	Long: `List completed focus sessions, newest first.

Examples:
  # Everything
  focusdesk history

  # The last week as JSON
  focusdesk history --since 7d --format json

  # Session count for a status bar
  focusdesk history --since 24h --format waybar`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

var historyPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove old sessions from the history",
	Long: `Remove completed sessions older than a duration.

Examples:
  # Remove sessions older than 90 days
  focusdesk history prune --older-than 90d

  # Preview what would be removed (dry run)
  focusdesk history prune --older-than 2w --dry-run`,
	Args: cobra.NoArgs,
	RunE: runHistoryPrune,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyPruneCmd)

	historyCmd.Flags().StringVarP(&historyOpts.format, "format", "f", "plain",
		"Output format (plain, json, yaml, waybar)")
	historyCmd.Flags().StringVar(&historyOpts.since, "since", "",
		"Only show sessions from the last duration (e.g., 48h, 7d, 1w)")
	historyCmd.Flags().IntVarP(&historyOpts.limit, "limit", "n", 0,
		"Show at most N sessions (0=unlimited)")

	historyPruneCmd.Flags().StringVar(&pruneOpts.olderThan, "older-than", "",
		"Remove sessions older than this duration (e.g., 48h, 7d, 1w)")
	historyPruneCmd.Flags().BoolVar(&pruneOpts.dryRun, "dry-run", false,
		"Show what would be removed without actually removing")
}

func historyPath() string {
	return config.HistoryPath()
}

func runHistory(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(historyOpts.format)
	if err != nil {
		return err
	}

	since, err := history.ParseDuration(historyOpts.since)
	if err != nil {
		return fmt.Errorf("invalid duration: %w", err)
	}

	log, err := history.Open(historyPath())
	if err != nil {
		return err
	}
	defer func() { _ = log.Close() }()

	sessions, err := log.Load()
	if err != nil {
		return err
	}

	sessions = history.Filter(sessions, history.FilterOptions{
		Since: since,
		Limit: historyOpts.limit,
	}, time.Now())

	return output.NewFormatter(format, output.DefaultFormatterOptions()).FormatSessions(os.Stdout, sessions)
}

func runHistoryPrune(cmd *cobra.Command, args []string) error {
	if pruneOpts.olderThan == "" {
		return errors.New("specify --older-than")
	}

	age, err := history.ParseDuration(pruneOpts.olderThan)
	if err != nil {
		return fmt.Errorf("invalid duration: %w", err)
	}
	if age <= 0 {
		return errors.New("--older-than must be greater than 0")
	}
	cutoff := time.Now().Add(-age)

	log, err := history.Open(historyPath())
	if err != nil {
		return err
	}
	defer func() { _ = log.Close() }()

	if !pruneOpts.dryRun {
		removed, err := log.Prune(cutoff)
		if err != nil {
			return err
		}
		fmt.Printf("Removed %d session(s)\n", removed)
		return nil
	}

	sessions, err := log.Load()
	if err != nil {
		return err
	}

	var toRemove []history.Session
	for _, s := range sessions {
		if s.Time().Before(cutoff) {
			toRemove = append(toRemove, s)
		}
	}
	if len(toRemove) == 0 {
		fmt.Println("No sessions to remove")
		return nil
	}

	history.SortNewestFirst(toRemove)
	fmt.Printf("Would remove %d session(s) completed before %s:\n", len(toRemove), humanize.Time(cutoff))
	for i, s := range toRemove {
		if i >= 10 {
			fmt.Printf("  ... and %d more\n", len(toRemove)-10)
			break
		}
		fmt.Printf("  - %d min (%s)\n", s.Minutes, s.RelativeTime())
	}
	return nil
}
