package main

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/janhq/media-janitor/internal/app"
)

func newTasksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Inspect and run scheduled tasks",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List task records",
		RunE: func(cmd *cobra.Command, _ []string) error {
			asJSON, _ := cmd.Flags().GetBool("json")
			return withContainer(cmd, func(ctx context.Context, c *app.Container) error {
				tasks, err := c.Tasks.List(ctx)
				if err != nil {
					return err
				}
				if asJSON {
					return printJSON(cmd.OutOrStdout(), tasks)
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tTYPE\tCRON\tENABLED\tSTATUS\tNEXT RUN")
				for _, t := range tasks {
					next := "-"
					if t.NextRunAt != nil {
						next = t.NextRunAt.Format(time.RFC3339)
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%s\t%s\n", t.ID, t.Type, t.CronExpression, t.Enabled, t.Status, next)
				}
				return tw.Flush()
			})
		},
	}
	listCmd.Flags().Bool("json", false, "Print records as JSON")

	runCmd := &cobra.Command{
		Use:   "run [task-id]",
		Short: "Run a task now and wait for its result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(cmd, func(ctx context.Context, c *app.Container) error {
				result := c.Tasks.Run(ctx, args[0])
				if err := printJSON(cmd.OutOrStdout(), result); err != nil {
					return err
				}
				if !result.Success {
					return errors.New(result.Message)
				}
				return nil
			})
		},
	}

	bootstrapCmd := &cobra.Command{
		Use:   "bootstrap",
		Short: "Create the default task records that are missing",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withContainer(cmd, func(ctx context.Context, c *app.Container) error {
				created, err := c.Bootstrapper.Bootstrap(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created %d task(s)\n", created)
				return nil
			})
		},
	}

	cmd.AddCommand(listCmd, runCmd, bootstrapCmd)
	return cmd
}
