package state

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	guarderrors "github.com/ducminhle1904/strategy-guard/internal/errors"
)

// RedisStore keeps snapshots in Redis under prefix+key
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// RedisConfig holds connection settings for the snapshot store
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
	TTL       time.Duration // zero keeps snapshots forever
}

// NewRedisStore connects to Redis and verifies the connection
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, guarderrors.NewStorageError("state", "Connect", fmt.Errorf("redis %s: %w", cfg.Addr, err))
	}

	return NewRedisStoreWithClient(rdb, cfg.KeyPrefix, cfg.TTL), nil
}

// NewRedisStoreWithClient wraps an existing client
func NewRedisStoreWithClient(client *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

// Save stores data under the prefixed key
func (rs *RedisStore) Save(ctx context.Context, key string, data []byte) error {
	if err := rs.client.Set(ctx, rs.prefix+key, data, rs.ttl).Err(); err != nil {
		return guarderrors.NewStorageError("state", "Save", err)
	}
	return nil
}

// Load reads the snapshot under the prefixed key
func (rs *RedisStore) Load(ctx context.Context, key string) ([]byte, error) {
	val, err := rs.client.Get(ctx, rs.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, guarderrors.NewNotFoundError("state", "Load", "no snapshot under "+rs.prefix+key)
		}
		return nil, guarderrors.NewStorageError("state", "Load", err)
	}
	return val, nil
}

// Close releases the underlying connection pool
func (rs *RedisStore) Close() error {
	return rs.client.Close()
}
