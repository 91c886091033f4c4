package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/janhq/media-janitor/internal/app"
)

func newPostsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "posts",
		Short: "Manage posts",
	}

	deleteCmd := &cobra.Command{
		Use:   "delete [post-id]",
		Short: "Delete a post with its comments and embedded media",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(cmd, func(ctx context.Context, c *app.Container) error {
				report, err := c.Content.DeletePost(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), report)
			})
		},
	}

	cmd.AddCommand(deleteCmd)
	return cmd
}
