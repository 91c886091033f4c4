package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/janhq/media-janitor/internal/app"
	"github.com/janhq/media-janitor/internal/config"
	"github.com/janhq/media-janitor/internal/infrastructure/logger"
	"github.com/janhq/media-janitor/internal/infrastructure/observability"
	"github.com/janhq/media-janitor/internal/interfaces/httpserver"
)

type Application struct {
	container  *app.Container
	httpServer *httpserver.HttpServer
	log        zerolog.Logger
}

func NewApplication(container *app.Container, httpServer *httpserver.HttpServer, log zerolog.Logger) *Application {
	return &Application{
		container:  container,
		httpServer: httpServer,
		log:        log,
	}
}

// Start seeds the default tasks, then runs the scheduler and the admin
// server until ctx is cancelled.
func (a *Application) Start(ctx context.Context) error {
	created, err := a.container.Bootstrapper.Bootstrap(ctx)
	if err != nil {
		return fmt.Errorf("bootstrap tasks: %w", err)
	}
	a.log.Info().Int("created", created).Msg("default tasks ensured")

	group, ctx := errgroup.WithContext(ctx)
	if a.container.Config.SchedulerEnabled {
		group.Go(func() error {
			return a.container.Scheduler.Run(ctx)
		})
	} else {
		a.log.Warn().Msg("scheduler disabled, tasks only run when triggered manually")
	}
	group.Go(func() error {
		return a.httpServer.Run(ctx)
	})
	return group.Wait()
}

func main() {
	loadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observability.Setup(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize observability")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown telemetry")
		}
	}()

	container, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize services")
	}
	defer func() {
		if err := container.Close(); err != nil {
			log.Error().Err(err).Msg("close database")
		}
	}()

	application := NewApplication(container, httpserver.New(container, log), log)
	if err := application.Start(ctx); err != nil {
		log.Error().Err(err).Msg("application stopped with error")
		return
	}

	log.Info().Msg("application exited cleanly")
}

func loadEnvFiles() {
	paths := []string{".env", "../.env"}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Overload(path); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
			}
		}
	}
}
