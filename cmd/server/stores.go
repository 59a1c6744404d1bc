package main

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"statusboard-backend/internal/config"
	"statusboard-backend/internal/database"
	"statusboard-backend/internal/repository"
	"statusboard-backend/internal/services"
)

type stores struct {
	users    services.UserStore
	statuses services.StatusStore
	logs     services.LogStore
	pool     *pgxpool.Pool
}

func (s *stores) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// openStores connects the configured store backend, applying migrations
// when it is PostgreSQL.
func openStores(cfg *config.Config, redisClients *database.RedisClients, logger *zap.Logger) (*stores, error) {
	switch cfg.StoreBackend {
	case config.StoreBackendRedis:
		return &stores{
			users:    repository.NewRedisUserRepo(redisClients.Main),
			statuses: repository.NewRedisStatusRepo(redisClients.Main),
			logs:     repository.NewRedisLogRepo(redisClients.Main),
		}, nil

	case config.StoreBackendPostgres:
		pool, err := database.NewPostgresPool(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		if err := database.RunMigrations(pool, cfg.MigrationsDir, logger); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		return &stores{
			users:    repository.NewUserRepo(pool),
			statuses: repository.NewStatusRepo(pool),
			logs:     repository.NewLogRepo(pool),
			pool:     pool,
		}, nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}
