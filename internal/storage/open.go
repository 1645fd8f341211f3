package storage

import (
	"context"
	"fmt"

	"foxden/config"
	"foxden/pkg/logger"
)

// Open selects and constructs the persistence backend from config.
// Mode "auto" prefers the host-native redis store and falls back to
// the local file, so a missing redis never blocks startup. Explicit
// modes fail hard instead of silently degrading.
func Open(ctx context.Context, cfg *config.Config, log *logger.Logger) (Backend, error) {
	switch cfg.StoreBackend {
	case config.BackendRedis:
		return NewRedisBackend(ctx, RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPass,
			DB:       cfg.RedisDB,
		})

	case config.BackendPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("postgres backend requires DATABASE_URL")
		}
		return NewPostgresBackend(ctx, cfg.DatabaseURL)

	case config.BackendFile:
		return openFile(cfg)

	case config.BackendAuto:
		backend, err := NewRedisBackend(ctx, RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPass,
			DB:       cfg.RedisDB,
		})
		if err == nil {
			return backend, nil
		}
		log.Warnf("host store unavailable (%v), falling back to local file", err)
		return openFile(cfg)

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

func openFile(cfg *config.Config) (Backend, error) {
	path := cfg.StateFile
	if path == "" {
		var err error
		path, err = DefaultStatePath()
		if err != nil {
			return nil, err
		}
	}
	return NewFileBackend(path)
}
