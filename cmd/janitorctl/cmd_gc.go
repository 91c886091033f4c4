package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/janhq/media-janitor/internal/app"
	"github.com/janhq/media-janitor/internal/domain/gc"
)

func newGCCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gc",
		Short: "Collect unreferenced media",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run one mark-and-sweep pass outside the scheduler",
		Long: `Run one mark-and-sweep pass and print the report.

With --dry-run nothing is deleted; the report lists the keys that would go.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			minAge, _ := cmd.Flags().GetString("min-age")
			opts, err := gc.TaskConfig{DryRun: dryRun, MinAge: minAge}.Options()
			if err != nil {
				return err
			}
			return withContainer(cmd, func(ctx context.Context, c *app.Container) error {
				report, err := c.Collector.Run(ctx, opts)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), report)
			})
		},
	}
	runCmd.Flags().Bool("dry-run", false, "Report without deleting")
	runCmd.Flags().String("min-age", "", "Skip objects younger than this duration, e.g. 24h")

	cmd.AddCommand(runCmd)
	return cmd
}
