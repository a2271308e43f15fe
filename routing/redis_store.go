package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/BaSui01/agentroute/types"
)

const redisKeyPrefix = "agentroute:handoffs:"

// RedisStore keeps per-contact transfer history in a sorted set scored by
// timestamp, shared across router instances.
type RedisStore struct {
	client    *redis.Client
	retention time.Duration
	logger    *zap.Logger
}

// NewRedisStore wraps the client. retention bounds the key TTL so abandoned
// contacts expire even without an explicit prune.
func NewRedisStore(client *redis.Client, retention time.Duration, logger *zap.Logger) *RedisStore {
	if retention <= 0 {
		retention = 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisStore{
		client:    client,
		retention: retention,
		logger:    logger.With(zap.String("component", "handoff_store")),
	}
}

func (s *RedisStore) key(contactID string) string {
	return redisKeyPrefix + contactID
}

func (s *RedisStore) Append(ctx context.Context, rec *types.HandoffRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	key := s.key(rec.ContactID)
	pipe := s.client.TxPipeline()
	pipe.ZAdd(ctx, key, redis.Z{
		Score:  float64(rec.Timestamp.UnixMilli()),
		Member: payload,
	})
	pipe.Expire(ctx, key, s.retention)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *RedisStore) RecentByContact(ctx context.Context, contactID string, since time.Time) ([]types.HandoffRecord, error) {
	members, err := s.client.ZRangeByScore(ctx, s.key(contactID), &redis.ZRangeBy{
		Min: fmt.Sprintf("%d", since.UnixMilli()),
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, err
	}

	records := make([]types.HandoffRecord, 0, len(members))
	for _, member := range members {
		var rec types.HandoffRecord
		if err := json.Unmarshal([]byte(member), &rec); err != nil {
			s.logger.Warn("dropping corrupt handoff record", zap.Error(err))
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// Prune walks the key space and drops members older than before. The key
// TTL already bounds growth, so this trims inside still-live keys.
func (s *RedisStore) Prune(ctx context.Context, before time.Time) error {
	iter := s.client.Scan(ctx, 0, redisKeyPrefix+"*", 100).Iterator()
	max := fmt.Sprintf("(%d", before.UnixMilli())
	for iter.Next(ctx) {
		if err := s.client.ZRemRangeByScore(ctx, iter.Val(), "-inf", max).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}
