package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/janhq/media-janitor/internal/app"
	"github.com/janhq/media-janitor/internal/config"
	"github.com/janhq/media-janitor/internal/infrastructure/logger"
)

var version = "0.1.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "janitorctl",
		Short: "Operate the media janitor from the command line",
		Long: `janitorctl runs janitor operations directly against the configured
database and blob store, without going through the admin API.

Examples:
  janitorctl tasks list
  janitorctl tasks run task_01HZY...
  janitorctl gc run --dry-run --min-age 24h
  janitorctl posts delete post_01HZY...
  janitorctl schema scan-targets -o scan-targets.schema.json`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("env-file", "", "Extra .env file loaded after the defaults")

	root.AddCommand(newTasksCmd())
	root.AddCommand(newGCCmd())
	root.AddCommand(newPostsCmd())
	root.AddCommand(newSchemaCmd())
	return root
}

// withContainer loads config, opens every backend and runs fn against them.
func withContainer(cmd *cobra.Command, fn func(ctx context.Context, c *app.Container) error) error {
	envFile, _ := cmd.Flags().GetString("env-file")
	if err := loadEnvFiles(envFile); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg)

	ctx := cmd.Context()
	container, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := container.Close(); err != nil {
			log.Warn().Err(err).Msg("close database")
		}
	}()
	return fn(ctx, container)
}

func loadEnvFiles(extra string) error {
	for _, path := range []string{".env", "../.env"} {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Overload(path); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
			}
		}
	}
	if extra == "" {
		return nil
	}
	if err := godotenv.Overload(extra); err != nil {
		return fmt.Errorf("load %s: %w", extra, err)
	}
	return nil
}

func printJSON(w io.Writer, v any) error {
	encoded, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(encoded))
	return err
}
