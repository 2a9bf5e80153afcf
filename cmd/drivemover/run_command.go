package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"drivemover/internal/daemonrun"
	"drivemover/internal/mover"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var once bool
	var logLevel string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the move agent",
		Long: "Start the move agent. It resolves every configured mapping, then moves " +
			"eligible files from each source folder to its target every check interval " +
			"until interrupted or the drive session expires.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			result, err := daemonrun.Run(cmd.Context(), cfg, daemonrun.Options{
				Once:      once,
				LogLevel:  logLevel,
				NewClient: newDriveClient,
			})
			if err != nil {
				return err
			}
			if once {
				printRunSummary(cmd.OutOrStdout(), result)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "Run a single cycle and exit")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Override the configured log level")
	return cmd
}

func printRunSummary(w io.Writer, result mover.Result) {
	if result.LastCycle != nil && len(result.LastCycle.Mappings) > 0 {
		rows := make([][]string, 0, len(result.LastCycle.Mappings))
		for _, m := range result.LastCycle.Mappings {
			rows = append(rows, []string{
				m.Mapping.Source,
				m.Mapping.Target,
				strconv.Itoa(m.Scan.Total),
				strconv.Itoa(m.Stats.Moved),
				strconv.Itoa(m.Stats.Failed),
				yesNo(m.Skipped),
			})
		}
		writeTable(w,
			[]string{"Source", "Target", "Files", "Moved", "Failed", "Skipped"},
			rows,
			[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
		)
	}
	fmt.Fprintf(w, "Stopped: %s (moved %d, failed %d)\n", result.Reason, result.Totals.Moved, result.Totals.Failed)
}
