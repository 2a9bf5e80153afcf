package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"drivemover/internal/services"
	"drivemover/internal/session"
)

func newSessionCommand(ctx *commandContext) *cobra.Command {
	sessionCmd := &cobra.Command{
		Use:   "session",
		Short: "Drive session utilities",
	}
	sessionCmd.AddCommand(newSessionCheckCommand(ctx))
	return sessionCmd
}

func newSessionCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify the drive session cookie is accepted",
		RunE: func(cmd *cobra.Command, args []string) error {
			drive, err := ctx.openDrive(cmd)
			if err != nil {
				return err
			}
			watchdog := session.NewWatchdog(drive.client, drive.exec, session.DefaultEvery, drive.logger)
			identity, err := watchdog.Identity(cmd.Context())
			if err != nil {
				return describeRemote(err)
			}
			if !identity.Success {
				return fmt.Errorf("%w: session rejected\nhint: %s", services.ErrAuth, session.RemediationHint)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Session valid")
			fmt.Fprintf(out, "User: %s (%s)\n", identity.UserName, identity.UserID)
			return nil
		},
	}
}
