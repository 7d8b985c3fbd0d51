package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"certprep/internal/app"
	"certprep/internal/config"
	"certprep/internal/infra/file"
	"certprep/internal/infra/memory"
	redisstore "certprep/internal/infra/redis"
	"certprep/internal/infra/sqlite"
	"certprep/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// sqliteFile is the database name inside storage.path.
const sqliteFile = "certprep.db"

// openLeaderboard builds the leaderboard over the configured storage driver.
// The returned func releases the backend.
func openLeaderboard(ctx context.Context, cfg *config.Config, log logger.Logger) (*app.Leaderboard, func() error, error) {
	store, closeFn, err := openStore(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	log.Debug(ctx, "storage ready", logger.String("driver", cfg.Storage.Driver), logger.String("key", cfg.Storage.Key))
	board := app.NewLeaderboard(store,
		app.WithLeaderboardKey(cfg.Storage.Key),
		app.WithLeaderboardLogger(log.Named("leaderboard")))
	return board, closeFn, nil
}

func openStore(ctx context.Context, cfg *config.Config) (app.KVStore, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Storage.Driver {
	case config.DriverMemory:
		return memory.NewKVStore(), noop, nil
	case config.DriverSQLite:
		store, err := sqlite.Open(ctx, filepath.Join(cfg.Storage.Path, sqliteFile))
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	case config.DriverRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Storage.Redis.Addr,
			Password: cfg.Storage.Redis.Password,
			DB:       cfg.Storage.Redis.DB,
		})
		store := redisstore.NewKVStore(client, "")
		if err := store.Ping(ctx); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("redis %s: %w", cfg.Storage.Redis.Addr, err)
		}
		return store, client.Close, nil
	default:
		return file.NewKVStore(cfg.Storage.Path), noop, nil
	}
}
