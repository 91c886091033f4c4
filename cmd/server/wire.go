//go:build wireinject

package main

import (
	"context"

	"github.com/google/wire"

	"github.com/janhq/media-janitor/internal/app"
	"github.com/janhq/media-janitor/internal/config"
	"github.com/janhq/media-janitor/internal/infrastructure/logger"
	"github.com/janhq/media-janitor/internal/infrastructure/repository/contentrepo"
	"github.com/janhq/media-janitor/internal/infrastructure/storage"
	"github.com/janhq/media-janitor/internal/interfaces/httpserver"
)

var containerSet = wire.NewSet(
	app.NewDatabaseConfig,
	app.OpenDatabase,
	storage.New,
	provideScanTargets,
	app.Build,
)

// BuildApplication assembles the janitor with Wire.
func BuildApplication(ctx context.Context) (*Application, error) {
	wire.Build(
		config.Load,
		logger.New,
		containerSet,
		httpserver.New,
		NewApplication,
	)
	return nil, nil
}

func provideScanTargets(cfg *config.Config) ([]contentrepo.ScanTarget, error) {
	return contentrepo.LoadScanTargets(cfg.ScanTargetsFile)
}
