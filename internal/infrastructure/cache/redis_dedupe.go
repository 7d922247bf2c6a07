package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/microlend/backend/internal/infrastructure/config"
)

const defaultKeyPrefix = "relay:dedupe:"

// RedisDedupeStore implements DedupeStore on Redis, for deployments
// running more than one relay instance against the same operator.
type RedisDedupeStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisDedupeStore connects to Redis and verifies the connection
func NewRedisDedupeStore(cfg config.RedisConfig) (*RedisDedupeStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &RedisDedupeStore{client: client, keyPrefix: defaultKeyPrefix}, nil
}

// NewRedisDedupeStoreWithClient wraps an existing client, used in tests
func NewRedisDedupeStoreWithClient(client *redis.Client, keyPrefix string) *RedisDedupeStore {
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	return &RedisDedupeStore{client: client, keyPrefix: keyPrefix}
}

// MarkProcessed marks an event id atomically via SETNX
func (s *RedisDedupeStore) MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error) {
	fresh, err := s.client.SetNX(ctx, s.keyPrefix+eventID, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("mark event processed: %w", err)
	}
	return fresh, nil
}

// IsProcessed checks whether an event id has been processed
func (s *RedisDedupeStore) IsProcessed(ctx context.Context, eventID string) (bool, error) {
	n, err := s.client.Exists(ctx, s.keyPrefix+eventID).Result()
	if err != nil {
		return false, fmt.Errorf("check event processed: %w", err)
	}
	return n > 0, nil
}

// Close closes the underlying client
func (s *RedisDedupeStore) Close() error {
	return s.client.Close()
}

var _ DedupeStore = (*RedisDedupeStore)(nil)
