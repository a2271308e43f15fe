package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupRedisTier(t *testing.T) (*miniredis.Miniredis, *Redis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, NewRedis(client, zap.NewNop())
}

func TestRedis_SetAndGet(t *testing.T) {
	_, tier := setupRedisTier(t)
	ctx := context.Background()

	entry := entryWithIntent("pricing")
	require.NoError(t, tier.Set(ctx, "k1", entry, time.Minute))

	got, err := tier.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, "pricing", got.Response.Intent)
}

func TestRedis_Miss(t *testing.T) {
	_, tier := setupRedisTier(t)

	_, err := tier.Get(context.Background(), "absent")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestRedis_TTL(t *testing.T) {
	mr, tier := setupRedisTier(t)
	ctx := context.Background()

	require.NoError(t, tier.Set(ctx, "k1", entryWithIntent("pricing"), time.Second))

	mr.FastForward(2 * time.Second)

	_, err := tier.Get(ctx, "k1")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestRedis_CorruptEntryIsMiss(t *testing.T) {
	mr, tier := setupRedisTier(t)

	mr.Set(redisKeyPrefix+"bad", "not json")

	_, err := tier.Get(context.Background(), "bad")
	assert.ErrorIs(t, err, ErrMiss)
}
