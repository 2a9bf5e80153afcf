package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"drivemover/internal/notifications"
	"drivemover/internal/services"
)

var errNoNotifyTarget = errors.New("no notification endpoints configured; set NOTIFY_URL or CALLBACK_URL")

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test notification",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			dispatcher := notifications.NewDispatcher(cfg, ctx.cliLogger(cmd.ErrOrStderr()))
			if err := dispatcher.Test(cmd.Context()); err != nil {
				if errors.Is(err, services.ErrConfiguration) {
					return errNoNotifyTarget
				}
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Test notification sent")
			return nil
		},
	}
}
