package main

import (
	"context"
	"fmt"

	"suarawarga/internal/config"
	"suarawarga/internal/db"
	"suarawarga/internal/logger"
	"suarawarga/internal/store"
)

// openStore 按 store.driver 选择存储后端
func openStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (store.Store, error) {
	switch cfg.Store.Driver {
	case "postgres", "sqlite":
		conn, err := db.Open(cfg, log)
		if err != nil {
			return nil, err
		}
		return store.NewGormStore(conn), nil
	case "badger":
		st, err := store.NewBadgerStore(cfg.Badger.Dir, cfg.Badger.InMemory)
		if err != nil {
			return nil, err
		}
		log.Info().Str("dir", cfg.Badger.Dir).Bool("in_memory", cfg.Badger.InMemory).Msg("badger store opened")
		return st, nil
	case "redis":
		st, err := store.DialRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.KeyPrefix)
		if err != nil {
			return nil, err
		}
		log.Info().Str("addr", cfg.Redis.Addr).Msg("redis store connected")
		return st, nil
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Store.Driver)
	}
}

func migrateRun() error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	log := logger.New(cfg.Logger)

	if cfg.Store.Driver != "postgres" && cfg.Store.Driver != "sqlite" {
		log.Info().Str("driver", cfg.Store.Driver).Msg("driver has no schema, nothing to migrate")
		return nil
	}
	conn, err := db.Open(cfg, log)
	if err != nil {
		return err
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
