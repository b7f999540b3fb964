package db

import (
	"fmt"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"suarawarga/internal/config"
	"suarawarga/internal/logger"
	"suarawarga/internal/models"
)

// Open connects to postgres or sqlite according to the store driver and migrates the schema.
func Open(cfg *config.Config, log *logger.Logger) (*gorm.DB, error) {
	log = log.WithComponent("db")

	var dialector gorm.Dialector
	switch cfg.Store.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.Database.DSN)
	case "sqlite":
		path := cfg.Database.SQLitePath
		if path == "" {
			// 未指定路径时使用内存数据库，方便本地调试
			path = "file::memory:?cache=shared"
		}
		dialector = sqlite.Open(path)
	default:
		return nil, fmt.Errorf("store driver %q is not backed by gorm", cfg.Store.Driver)
	}

	gormCfg := &gorm.Config{
		Logger:         gormlogger.Discard,
		TranslateError: true,
	}
	if cfg.App.Debug {
		gormCfg.Logger = gormlogger.Default.LogMode(gormlogger.Info)
	}

	conn, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Info().Str("driver", cfg.Store.Driver).Msg("database connection established")

	if err := Migrate(conn); err != nil {
		return nil, err
	}
	log.Info().Msg("database migration completed")
	return conn, nil
}

// Migrate creates or updates the key/value table.
func Migrate(conn *gorm.DB) error {
	if err := conn.AutoMigrate(&models.KVEntry{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}
