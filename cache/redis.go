package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const redisKeyPrefix = "agentroute:cache:"

// Redis is the shared tier, visible to all orchestrator instances. Writes
// are idempotent upserts; last-write-wins is acceptable since logically
// identical keys hold identical values.
type Redis struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedis wraps an existing Redis client as the shared tier.
func NewRedis(client *redis.Client, logger *zap.Logger) *Redis {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Redis{
		client: client,
		logger: logger.With(zap.String("component", "cache_redis")),
	}
}

// Get returns the entry for key or ErrMiss.
func (r *Redis) Get(ctx context.Context, key string) (*Entry, error) {
	data, err := r.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if err == redis.Nil {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("cache get failed: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		// A corrupt entry is treated as a miss; the write-through after the
		// provider call will replace it.
		r.logger.Warn("dropping undecodable cache entry", zap.String("key", key), zap.Error(err))
		return nil, ErrMiss
	}
	return &entry, nil
}

// Set stores the entry with the given TTL.
func (r *Redis) Set(ctx context.Context, key string, entry *Entry, ttl time.Duration) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal cache entry: %w", err)
	}
	if err := r.client.Set(ctx, redisKeyPrefix+key, data, ttl).Err(); err != nil {
		return fmt.Errorf("cache set failed: %w", err)
	}
	return nil
}
