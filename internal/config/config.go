package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds the environment driven configuration for the media janitor.
type Config struct {
	// Service Configuration
	ServiceName     string        `env:"SERVICE_NAME" envDefault:"media-janitor"`
	Environment     string        `env:"ENVIRONMENT" envDefault:"development"`
	HTTPPort        int           `env:"HTTP_PORT" envDefault:"8290"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	EnableTracing   bool          `env:"ENABLE_TRACING" envDefault:"false"`
	OTLPEndpoint    string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:""`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// Database
	DBDriver             string        `env:"DB_DRIVER" envDefault:"postgres"` // Options: "postgres" or "sqlite"
	DBPostgresqlWriteDSN string        `env:"DB_POSTGRESQL_WRITE_DSN"`
	DBSQLitePath         string        `env:"DB_SQLITE_PATH" envDefault:"media-janitor.db"`
	DBMaxIdleConns       int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	DBMaxOpenConns       int           `env:"DB_MAX_OPEN_CONNS" envDefault:"15"`
	DBConnLifetime       time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"30m"`

	// Storage Backend Selection
	StorageBackend string `env:"MEDIA_STORAGE_BACKEND" envDefault:"s3"` // Options: "s3", "minio" or "local"

	// Local Storage Configuration
	LocalStoragePath string `env:"MEDIA_LOCAL_STORAGE_PATH"`

	// S3 Storage Configuration
	S3Endpoint     string `env:"MEDIA_S3_ENDPOINT"`
	S3Region       string `env:"MEDIA_S3_REGION" envDefault:"us-west-2"`
	S3Bucket       string `env:"MEDIA_S3_BUCKET"`
	S3AccessKeyID  string `env:"MEDIA_S3_ACCESS_KEY_ID"`
	S3SecretKey    string `env:"MEDIA_S3_SECRET_ACCESS_KEY"`
	S3UsePathStyle bool   `env:"MEDIA_S3_USE_PATH_STYLE" envDefault:"true"`

	// MinIO Storage Configuration
	MinioEndpoint  string `env:"MEDIA_MINIO_ENDPOINT"`
	MinioBucket    string `env:"MEDIA_MINIO_BUCKET"`
	MinioAccessKey string `env:"MEDIA_MINIO_ACCESS_KEY"`
	MinioSecretKey string `env:"MEDIA_MINIO_SECRET_KEY"`
	MinioUseSSL    bool   `env:"MEDIA_MINIO_USE_SSL" envDefault:"false"`

	// Media Configuration
	ReferencePrefix string `env:"MEDIA_REFERENCE_PREFIX" envDefault:"/media"`
	MaxMediaBytes   int64  `env:"MEDIA_MAX_BYTES" envDefault:"20971520"`
	ScanTargetsFile string `env:"SCAN_TARGETS_FILE"`

	// Scheduler
	SchedulerEnabled     bool          `env:"SCHEDULER_ENABLED" envDefault:"true"`
	SchedulerTickMinutes int           `env:"SCHEDULER_TICK_MINUTES" envDefault:"1"`
	CronDialect          string        `env:"SCHEDULER_CRON_DIALECT" envDefault:"reduced"` // Options: "reduced" or "standard"
	TaskRunTimeout       time.Duration `env:"TASK_RUN_TIMEOUT" envDefault:"30m"`
	TaskStuckAfter       time.Duration `env:"TASK_STUCK_AFTER" envDefault:"1h"`
}

// Load parses environment variables into Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) normalize() error {
	c.DBDriver = strings.ToLower(strings.TrimSpace(c.DBDriver))
	c.StorageBackend = strings.ToLower(strings.TrimSpace(c.StorageBackend))
	c.CronDialect = strings.ToLower(strings.TrimSpace(c.CronDialect))
	c.S3Bucket = strings.TrimSpace(c.S3Bucket)
	c.S3AccessKeyID = strings.TrimSpace(c.S3AccessKeyID)
	c.S3SecretKey = strings.TrimSpace(c.S3SecretKey)
	c.S3Endpoint = strings.TrimSpace(c.S3Endpoint)
	c.ReferencePrefix = strings.TrimSuffix(strings.TrimSpace(c.ReferencePrefix), "/")

	switch c.DBDriver {
	case "postgres":
		if strings.TrimSpace(c.DBPostgresqlWriteDSN) == "" {
			return fmt.Errorf("DB_POSTGRESQL_WRITE_DSN is required when DB_DRIVER is postgres")
		}
	case "sqlite":
		if strings.TrimSpace(c.DBSQLitePath) == "" {
			return fmt.Errorf("DB_SQLITE_PATH is required when DB_DRIVER is sqlite")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}

	switch c.StorageBackend {
	case "", "s3":
		c.StorageBackend = "s3"
	case "minio", "local":
	default:
		return fmt.Errorf("unsupported MEDIA_STORAGE_BACKEND %q", c.StorageBackend)
	}

	switch c.CronDialect {
	case "", "reduced":
		c.CronDialect = "reduced"
	case "standard":
	default:
		return fmt.Errorf("unsupported SCHEDULER_CRON_DIALECT %q", c.CronDialect)
	}

	if c.ReferencePrefix == "" {
		return fmt.Errorf("MEDIA_REFERENCE_PREFIX must not be empty")
	}
	if c.MaxMediaBytes <= 0 {
		c.MaxMediaBytes = 20 * 1024 * 1024
	}
	if c.SchedulerTickMinutes <= 0 {
		c.SchedulerTickMinutes = 1
	}
	if c.TaskRunTimeout <= 0 {
		c.TaskRunTimeout = 30 * time.Minute
	}
	if c.TaskStuckAfter <= c.TaskRunTimeout {
		return fmt.Errorf("TASK_STUCK_AFTER (%s) must exceed TASK_RUN_TIMEOUT (%s)", c.TaskStuckAfter, c.TaskRunTimeout)
	}
	return nil
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// IsSQLite reports whether the embedded SQLite driver is selected.
func (c *Config) IsSQLite() bool {
	return c.DBDriver == "sqlite"
}

// DatabaseDSN returns the connection string for the selected driver.
func (c *Config) DatabaseDSN() string {
	if c.IsSQLite() {
		return c.DBSQLitePath
	}
	return c.DBPostgresqlWriteDSN
}

// TickSchedule is the crontab expression driving scheduler ticks.
func (c *Config) TickSchedule() string {
	if c.SchedulerTickMinutes == 1 {
		return "* * * * *"
	}
	return fmt.Sprintf("*/%d * * * *", c.SchedulerTickMinutes)
}
