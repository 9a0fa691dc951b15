package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq"

	"assetd/internal/platform/config"
	"assetd/internal/platform/redis"
	"assetd/internal/registry/store"
)

// storage is the opened registry backend plus its liveness probe.
type storage struct {
	backend store.Backend
	health  func(ctx context.Context) error
	close   func() error
}

func openStorage(ctx context.Context, cfg *config.Config, log *slog.Logger) (*storage, error) {
	switch cfg.Storage.Driver {
	case config.DriverBolt:
		backend, err := store.OpenBolt(cfg.Storage.BoltPath)
		if err != nil {
			return nil, err
		}
		log.Info("using bolt registry storage", "path", cfg.Storage.BoltPath)
		return &storage{backend: backend, close: backend.Close}, nil

	case config.DriverPostgres:
		db, err := sql.Open("postgres", cfg.Storage.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("ping postgres: %w", err)
		}
		backend := store.NewPostgresBackend(db)
		if err := backend.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
		log.Info("using postgres registry storage")
		return &storage{backend: backend, health: db.PingContext, close: db.Close}, nil

	case config.DriverRedis:
		client, err := redis.New(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		if client == nil {
			return nil, errors.New("redis storage requires a redis url")
		}
		log.Info("using redis registry storage")
		return &storage{
			backend: store.NewRedisBackend(client.Client),
			health:  client.Health,
			close:   client.Close,
		}, nil

	default:
		log.Info("using in-memory registry storage")
		backend := store.NewMemoryBackend()
		return &storage{backend: backend, close: backend.Close}, nil
	}
}

func (s *storage) Health(ctx context.Context) error {
	if s.health == nil {
		return nil
	}
	return s.health(ctx)
}
