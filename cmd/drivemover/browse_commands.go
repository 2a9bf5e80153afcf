package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"drivemover/internal/config"
	"drivemover/internal/remote"
	"drivemover/internal/resolver"
	"drivemover/internal/retry"
	"drivemover/internal/scan"
)

func newResolveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <path>",
		Short: "Print the folder ID of a drive path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			drive, err := ctx.openDrive(cmd)
			if err != nil {
				return err
			}
			id, err := resolver.New(drive.client, drive.exec, drive.logger).Resolve(cmd.Context(), args[0], remote.RootID)
			if err != nil {
				return describeRemote(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
}

func newListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "ls [path]",
		Short: "List the subfolders of a drive path",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			drive, err := ctx.openDrive(cmd)
			if err != nil {
				return err
			}
			id, err := resolver.New(drive.client, drive.exec, drive.logger).Resolve(cmd.Context(), pathArg(args), remote.RootID)
			if err != nil {
				return describeRemote(err)
			}
			folders, err := retry.Execute(cmd.Context(), drive.exec, "list subfolders of "+string(id), func(ctx context.Context) ([]remote.Folder, error) {
				return drive.client.ListSubfolders(ctx, id)
			})
			if err != nil {
				return describeRemote(err)
			}
			out := cmd.OutOrStdout()
			if len(folders) == 0 {
				fmt.Fprintln(out, "No subfolders")
				return nil
			}
			rows := make([][]string, 0, len(folders))
			for _, folder := range folders {
				rows = append(rows, []string{string(folder.ID), folder.Name})
			}
			writeTable(out, []string{"ID", "Name"}, rows, []columnAlignment{alignRight, alignLeft})
			return nil
		},
	}
}

func newScanCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "scan <path>",
		Short: "Show which files under a path would be moved",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			drive, err := ctx.openDrive(cmd)
			if err != nil {
				return err
			}
			id, err := resolver.New(drive.client, drive.exec, drive.logger).Resolve(cmd.Context(), args[0], remote.RootID)
			if err != nil {
				return describeRemote(err)
			}
			result, err := scan.New(drive.client, drive.exec, drive.logger).Scan(cmd.Context(), id, scan.RulesFromConfig(cfg))
			if err != nil {
				return describeRemote(err)
			}

			out := cmd.OutOrStdout()
			if len(result.Candidates) > 0 {
				rows := make([][]string, 0, len(result.Candidates))
				for _, c := range result.Candidates {
					rows = append(rows, []string{c.Path, config.FormatSize(c.Size), c.ID})
				}
				writeTable(out, []string{"Path", "Size", "ID"}, rows, []columnAlignment{alignLeft, alignRight, alignRight})
			}
			fmt.Fprintf(out, "Candidates: %d of %d (excluded %d, too small %d, minimum %s)\n",
				len(result.Candidates),
				result.Stats.Total,
				result.Stats.Excluded,
				result.Stats.TooSmall,
				config.FormatSize(cfg.MinFileSizeBytes),
			)
			return nil
		},
	}
}
