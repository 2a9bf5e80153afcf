package main

import (
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"drivemover/internal/daemonctl"
	"drivemover/internal/logging"
	"drivemover/internal/logs"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether the agent is running",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			status, err := daemonctl.Inspect(cfg)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Running: %s\n", yesNo(status.Running))
			if status.Running && status.PID > 0 {
				fmt.Fprintf(out, "PID: %d\n", status.PID)
			}
			fmt.Fprintf(out, "Lock: %s\n", status.LockPath)
			fmt.Fprintf(out, "Mappings: %d\n", len(cfg.Mappings))
			return nil
		},
	}
}

func newStopCommand(ctx *commandContext) *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the running agent",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := daemonctl.Stop(cfg, timeout); err != nil {
				if errors.Is(err, daemonctl.ErrNotRunning) {
					fmt.Fprintln(cmd.OutOrStdout(), "Agent is not running")
					return nil
				}
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Agent stopped")
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "How long to wait for the agent to exit")
	return cmd
}

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var lines int
	var follow bool
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Print the agent's most recent log lines",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path, err := logs.Latest(cfg.Paths.LogDir, logging.LogFilePrefix)
			if err != nil {
				return err
			}
			recent, offset, err := logs.Last(path, lines)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, line := range recent {
				fmt.Fprintln(out, line)
			}
			if !follow {
				return nil
			}
			followCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			return logs.Follow(followCtx, logs.FollowOptions{
				Dir:    cfg.Paths.LogDir,
				Prefix: logging.LogFilePrefix,
				Path:   path,
				Offset: offset,
			}, func(line string) {
				fmt.Fprintln(out, line)
			})
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new lines")
	return cmd
}
