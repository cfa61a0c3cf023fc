package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/focusdesk/internal/countdown"
)

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List the preset durations",
	Long: `List the preset durations bound to the number keys in the TUI.
The selected duration is marked with an asterisk.

Presets are stored with the countdown. The presets in config.toml are only
used until they are first edited.`,
	Args: cobra.NoArgs,
	RunE: runPresets,
}

var presetsAddCmd = &cobra.Command{
	Use:   "add <minutes>...",
	Short: "Add preset durations",
	Example: `  focusdesk presets add 20
  focusdesk presets add 10 40`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPresetsAdd,
}

var presetsRemoveCmd = &cobra.Command{
	Use:     "remove <minutes>...",
	Aliases: []string{"rm"},
	Short:   "Remove preset durations",
	Long: `Remove preset durations. Removing the selected duration clears the
selection; the remaining time is left alone.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPresetsRemove,
}

func init() {
	rootCmd.AddCommand(presetsCmd)
	presetsCmd.AddCommand(presetsAddCmd, presetsRemoveCmd)
}

func runPresets(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	return writePresets(os.Stdout, hydratedStore(ctx).State())
}

func runPresetsAdd(cmd *cobra.Command, args []string) error {
	durations, err := parseMinutesArgs(args)
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	s := hydratedStore(ctx)
	for _, d := range durations {
		if s.State().HasPreset(d) {
			logger.Debug("preset already present", "minutes", d)
			continue
		}
		s.AddAllowedDuration(d)
	}
	return writePresets(os.Stdout, s.State())
}

func runPresetsRemove(cmd *cobra.Command, args []string) error {
	durations, err := parseMinutesArgs(args)
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	s := hydratedStore(ctx)
	if !s.State().CanChangeDuration() {
		return errors.New("the countdown is running; pause it before changing the presets")
	}

	var missing []int
	for _, d := range durations {
		if !s.State().HasPreset(d) {
			missing = append(missing, d)
			continue
		}
		s.RemoveAllowedDuration(d)
	}
	if err := writePresets(os.Stdout, s.State()); err != nil {
		return err
	}
	if len(missing) > 0 {
		return fmt.Errorf("not a preset: %v", missing)
	}
	return nil
}

// parseMinutes parses a positive duration in minutes.
func parseMinutes(arg string) (int, error) {
	minutes, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("invalid minutes %q: %w", arg, err)
	}
	if minutes <= 0 {
		return 0, errors.New("minutes must be greater than 0")
	}
	return minutes, nil
}

func parseMinutesArgs(args []string) ([]int, error) {
	durations := make([]int, 0, len(args))
	for _, arg := range args {
		minutes, err := parseMinutes(arg)
		if err != nil {
			return nil, err
		}
		durations = append(durations, minutes)
	}
	return durations, nil
}

// writePresets prints one preset per line with its number key.
func writePresets(w io.Writer, st countdown.State) error {
	if len(st.AllowedDurations) == 0 {
		_, err := fmt.Fprintln(w, "No presets")
		return err
	}

	for i, d := range st.AllowedDurations {
		key := " "
		if i < 9 {
			key = strconv.Itoa(i + 1)
		}
		mark := " "
		if d == st.SelectedMinutes {
			mark = "*"
		}
		if _, err := fmt.Fprintf(w, "%s %s %d min\n", mark, key, d); err != nil {
			return err
		}
	}
	return nil
}
