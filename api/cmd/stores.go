package cmd

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/smartmilk/smart-milk/internal/config"
	"github.com/smartmilk/smart-milk/internal/db"
	"github.com/smartmilk/smart-milk/internal/repo"
	"github.com/smartmilk/smart-milk/internal/session"
	"go.uber.org/zap"
)

type stores struct {
	users   repo.UserRepository
	devices repo.DeviceRepository
	sqlDB   *sql.DB
}

func (s stores) Close() error {
	return s.sqlDB.Close()
}

func openStores(cfg config.DatabaseConfig) (stores, error) {
	switch cfg.Driver {
	case "postgres":
		database, err := db.Connect(cfg)
		if err != nil {
			return stores{}, err
		}
		return stores{
			users:   repo.NewPostgresUserRepository(database, cfg.QueryTimeout),
			devices: repo.NewPostgresDeviceRepository(database, cfg.QueryTimeout),
			sqlDB:   database,
		}, nil
	case "sqlite":
		gdb, err := db.OpenSQLite(cfg.URL)
		if err != nil {
			return stores{}, err
		}
		// The embedded database may be in-memory, so the schema cannot be left
		// to a separate migrate run.
		if err := db.MigrateSQLite(gdb); err != nil {
			return stores{}, err
		}
		sqlDB, err := gdb.DB()
		if err != nil {
			return stores{}, fmt.Errorf("sqlite handle: %w", err)
		}
		return stores{
			users:   repo.NewSQLiteUserRepository(gdb),
			devices: repo.NewSQLiteDeviceRepository(gdb),
			sqlDB:   sqlDB,
		}, nil
	default:
		return stores{}, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// openSessions returns the session store and a function releasing it.
func openSessions(ctx context.Context, cfg config.Config, logger *zap.Logger) (session.Store, func() error, error) {
	switch cfg.Session.Backend {
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, fmt.Errorf("could not connect to Redis at %s: %w", cfg.Redis.Addr, err)
		}
		logger.Info("session store ready", zap.String("backend", "redis"), zap.String("addr", cfg.Redis.Addr))
		return session.NewRedisStore(rdb), rdb.Close, nil
	case "memory":
		store := session.NewMemoryStore()
		go store.StartCleanupLoop(ctx, memoryCleanupInterval)
		logger.Info("session store ready", zap.String("backend", "memory"))
		return store, func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unsupported session backend %q", cfg.Session.Backend)
	}
}
