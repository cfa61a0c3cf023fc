package main

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/focusdesk/internal/countdown"
	"github.com/jmylchreest/focusdesk/internal/output"
)

var setOpts struct {
	force bool
	start bool
}

var setCmd = &cobra.Command{
	Use:   "set <minutes>",
	Short: "Select a countdown duration",
	Long: `Select a new countdown duration in minutes. The countdown is paused and
restarted from the new duration.

Changing the duration of a running countdown is refused unless --force is given.

Examples:
  focusdesk set 25
  focusdesk set 50 --start`,
	Args: cobra.ExactArgs(1),
	RunE: runSet,
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset the countdown to the selected duration",
	Args:  cobra.NoArgs,
	RunE:  runReset,
}

var toggleCmd = &cobra.Command{
	Use:   "toggle",
	Short: "Start or pause the countdown",
	Long: `Start or pause the countdown. A finished countdown starts over from the
selected duration. The countdown only ticks while the TUI is open.`,
	Args: cobra.NoArgs,
	RunE: runToggle,
}

func init() {
	rootCmd.AddCommand(setCmd, resetCmd, toggleCmd)

	setCmd.Flags().BoolVar(&setOpts.force, "force", false,
		"Change the duration even while the countdown is running")
	setCmd.Flags().BoolVar(&setOpts.start, "start", false,
		"Start the countdown after selecting the duration")
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), 5*time.Second)
}

func runSet(cmd *cobra.Command, args []string) error {
	minutes, err := parseMinutes(args[0])
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	s := hydratedStore(ctx)
	if !s.State().CanChangeDuration() && !setOpts.force {
		return errors.New("the countdown is running; pause it first or use --force")
	}

	st := s.SetDuration(minutes)
	if setOpts.start {
		st = s.TogglePause()
	}
	return printState(st)
}

func runReset(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	return printState(hydratedStore(ctx).Reset())
}

func runToggle(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	s := hydratedStore(ctx)
	st := s.State()
	if st.RemainingSeconds == 0 {
		if st.SelectedMinutes == 0 {
			return errors.New("no duration selected; use focusdesk set <minutes>")
		}
		s.Reset()
	}
	return printState(s.TogglePause())
}

func printState(st countdown.State) error {
	return output.NewPlainFormatter(output.FormatterOptions{}).FormatStatus(os.Stdout, output.NewStatus(st))
}
