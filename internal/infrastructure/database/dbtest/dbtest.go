// Package dbtest opens throwaway in-memory SQLite databases for repository tests.
package dbtest

import (
	"context"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/janhq/media-janitor/internal/infrastructure/database"
	"github.com/janhq/media-janitor/internal/utils/idgen"
)

// New returns a migrated database private to the calling test.
func New(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", idgen.New("testdb"))
	db, err := database.Connect(database.Config{
		Driver:   database.DriverSQLite,
		DSN:      dsn,
		LogLevel: gormlogger.Silent,
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(context.Background(), db, zerolog.Nop()))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}
