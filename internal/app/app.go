// Package app assembles the janitor's services from configuration. The HTTP
// server and janitorctl share it so both run against the same wiring.
package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/janhq/media-janitor/internal/config"
	"github.com/janhq/media-janitor/internal/domain/content"
	"github.com/janhq/media-janitor/internal/domain/gc"
	"github.com/janhq/media-janitor/internal/domain/media"
	"github.com/janhq/media-janitor/internal/domain/task"
	"github.com/janhq/media-janitor/internal/domain/user"
	"github.com/janhq/media-janitor/internal/infrastructure/database"
	"github.com/janhq/media-janitor/internal/infrastructure/repository/contentrepo"
	"github.com/janhq/media-janitor/internal/infrastructure/repository/mediarepo"
	"github.com/janhq/media-janitor/internal/infrastructure/repository/taskrepo"
	"github.com/janhq/media-janitor/internal/infrastructure/repository/userrepo"
	"github.com/janhq/media-janitor/internal/infrastructure/storage"
)

// Container holds every long-lived service.
type Container struct {
	Config *config.Config
	Log    zerolog.Logger
	DB     *gorm.DB

	Storage      media.Storage
	Media        *media.Service
	Collector    *gc.Collector
	Content      *content.Service
	Scheduler    *task.Scheduler
	Tasks        *task.Service
	Bootstrapper *task.Bootstrapper
}

// NewDatabaseConfig maps service config onto the connection settings.
func NewDatabaseConfig(cfg *config.Config) database.Config {
	driver := database.DriverPostgres
	if cfg.IsSQLite() {
		driver = database.DriverSQLite
	}
	return database.Config{
		Driver:          driver,
		DSN:             cfg.DatabaseDSN(),
		MaxIdleConns:    cfg.DBMaxIdleConns,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
		LogLevel:        gormlogger.Warn,
	}
}

// OpenDatabase connects and applies migrations.
func OpenDatabase(ctx context.Context, cfg database.Config, log zerolog.Logger) (*gorm.DB, error) {
	cfg.Log = &log
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(ctx, db, log); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return db, nil
}

// New opens the database and blob store and builds every service on top.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Container, error) {
	db, err := OpenDatabase(ctx, NewDatabaseConfig(cfg), log)
	if err != nil {
		return nil, err
	}
	blobs, err := storage.New(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("initialize storage: %w", err)
	}
	targets, err := contentrepo.LoadScanTargets(cfg.ScanTargetsFile)
	if err != nil {
		return nil, err
	}
	return Build(cfg, log, db, blobs, targets)
}

// Build wires services over an already opened database and blob store.
func Build(cfg *config.Config, log zerolog.Logger, db *gorm.DB, blobs media.Storage, targets []contentrepo.ScanTarget) (*Container, error) {
	convention := media.NewReferenceConvention(cfg.ReferencePrefix)
	scanner := media.NewScanner(convention)

	mediaRepo := mediarepo.NewRepository(db)
	mediaService := media.NewService(mediaRepo, blobs, convention, cfg.MaxMediaBytes, log)

	collector := gc.NewCollector(mediaRepo, mediaService, contentrepo.NewSources(db, targets), convention, log)

	cascade := content.NewCascadeDeleter(contentrepo.NewPostGraph(db), mediaService, scanner, log)
	contentService := content.NewService(contentrepo.NewPostRepository(db), cascade, log)

	calc, err := task.NewCalculator(cfg.CronDialect)
	if err != nil {
		return nil, err
	}
	registry, err := task.NewRegistry(map[task.Type]task.Handler{
		task.TypeCleanupUnusedImages: gc.NewTaskHandler(collector),
		task.TypeUpdateInactiveUsers: user.NewInactiveSweeper(userrepo.NewRepository(db), log),
	})
	if err != nil {
		return nil, err
	}

	taskRepo := taskrepo.NewRepository(db, log)
	scheduler := task.NewScheduler(taskRepo, registry, calc, task.SchedulerOptions{
		TickSchedule: cfg.TickSchedule(),
		RunTimeout:   cfg.TaskRunTimeout,
		StuckAfter:   cfg.TaskStuckAfter,
	}, log)

	return &Container{
		Config:       cfg,
		Log:          log,
		DB:           db,
		Storage:      blobs,
		Media:        mediaService,
		Collector:    collector,
		Content:      contentService,
		Scheduler:    scheduler,
		Tasks:        task.NewService(taskRepo, calc, scheduler, registry, log),
		Bootstrapper: task.NewBootstrapper(taskRepo, calc, log),
	}, nil
}

// Close releases the database pool.
func (c *Container) Close() error {
	sqlDB, err := c.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
