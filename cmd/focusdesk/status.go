package main

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/focusdesk/internal/output"
)

var statusOpts struct {
	format   string
	template string
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the countdown status",
	Long: `Print the persisted countdown status.

Formats:
  plain   "24:59 running (25 min)", or a custom --template
  json    the full status object
  yaml    the full status object
  waybar  JSON for a Waybar custom module

Waybar module example:

  "custom/focusdesk": {
    "exec": "focusdesk status --format waybar",
    "interval": 1,
    "return-type": "json",
    "on-click": "focusdesk toggle",
    "on-click-right": "focusdesk reset"
  }

Template fields: .Condition .Display .SelectedMinutes .RemainingSeconds
.IsPaused .Progress, with the upper and lower functions.`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().StringVarP(&statusOpts.format, "format", "f", "plain",
		"Output format (plain, json, yaml, waybar)")
	statusCmd.Flags().StringVar(&statusOpts.template, "template", "",
		"Go template for plain output (e.g. '{{.Display}}')")
}

func runStatus(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(statusOpts.format)
	if err != nil {
		return err
	}
	if statusOpts.template != "" {
		if err := output.ValidateTemplate(statusOpts.template); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
	defer cancel()

	st := hydratedStore(ctx).State()

	opts := output.DefaultFormatterOptions()
	opts.Template = statusOpts.template
	return output.NewFormatter(format, opts).FormatStatus(os.Stdout, output.NewStatus(st))
}
