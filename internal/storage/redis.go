package storage

import (
	"context"

	goredis "github.com/redis/go-redis/v9"
)

// RedisConfig contains connection settings for the redis backend.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RedisBackend persists snapshots into a redis key. Values are stored
// without TTL; the snapshot must survive restarts.
type RedisBackend struct {
	client *goredis.Client
}

// NewRedisBackend creates a redis backend and verifies connectivity.
func NewRedisBackend(ctx context.Context, cfg RedisConfig) (*RedisBackend, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return &RedisBackend{client: client}, nil
}

func (b *RedisBackend) Name() string { return "redis" }

func (b *RedisBackend) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := b.client.Get(ctx, key).Bytes()
	if err == goredis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (b *RedisBackend) Set(ctx context.Context, key string, value []byte) error {
	return b.client.Set(ctx, key, value, 0).Err()
}

func (b *RedisBackend) Close() error {
	return b.client.Close()
}
