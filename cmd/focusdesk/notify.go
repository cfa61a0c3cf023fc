package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/focusdesk/internal/notify"
)

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Send a test completion notification",
	Long: `Show which notification server is running on the session bus and send
the notification focusdesk shows when a countdown completes.`,
	Args: cobra.NoArgs,
	RunE: runNotify,
}

func init() {
	rootCmd.AddCommand(notifyCmd)
}

func runNotify(cmd *cobra.Command, args []string) error {
	client, err := notify.Connect(
		notify.WithLogger(logger),
		notify.WithTimeout(cfg.Notify.Timeout.Duration()),
	)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
	defer cancel()

	info, err := client.ServerInformation(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Notification server: %s %s (%s, spec %s)\n", info.Name, info.Version, info.Vendor, info.SpecVersion)

	if !cfg.Notify.Enabled {
		fmt.Println("Notifications are disabled in the config; sending anyway")
	}
	return client.Notify(ctx, "Time is up", fmt.Sprintf("%d minute focus session finished", cfg.Timer.DefaultMinutes))
}
