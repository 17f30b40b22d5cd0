// Package repository selects the Credential Store backend from configuration.
package repository

import (
	"context"
	"fmt"

	"github.com/Lsoni680/ai-chatbot-new/internal/config"
	"github.com/Lsoni680/ai-chatbot-new/internal/domain"
	"github.com/Lsoni680/ai-chatbot-new/internal/repository/memory"
	"github.com/Lsoni680/ai-chatbot-new/internal/repository/mongo"
	"github.com/Lsoni680/ai-chatbot-new/internal/repository/postgres"
	"github.com/Lsoni680/ai-chatbot-new/internal/repository/redis"
	"github.com/Lsoni680/ai-chatbot-new/internal/repository/sqlstore"
	"github.com/rs/zerolog/log"
)

// Open connects the backend named by cfg.Driver
func Open(ctx context.Context, cfg config.StorageConfig) (domain.UserRepository, error) {
	log.Info().Str("driver", cfg.Driver).Msg("Opening user store")

	switch cfg.Driver {
	case config.DriverMemory, "":
		return memory.NewUserRepository(), nil

	case config.DriverPostgres:
		if cfg.AutoMigrate {
			if err := postgres.RunMigrations(cfg.Postgres.DSN); err != nil {
				return nil, err
			}
		}
		db, err := postgres.NewDB(ctx, cfg.Postgres)
		if err != nil {
			return nil, err
		}
		return postgres.NewUserRepository(db), nil

	case config.DriverSQLite:
		return sqlstore.OpenSQLite(ctx, cfg.SQLite.Path)

	case config.DriverMySQL:
		return sqlstore.OpenMySQL(ctx, cfg.MySQL.DSN)

	case config.DriverMongo:
		return mongo.Connect(ctx, cfg.Mongo)

	case config.DriverRedis:
		client, err := redis.NewClient(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		return redis.NewUserRepository(client), nil

	default:
		return nil, fmt.Errorf("unknown storage driver: %q", cfg.Driver)
	}
}
