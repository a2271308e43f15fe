package cache

import (
	"context"
	"sync"
	"time"

	"github.com/BaSui01/agentroute/config"
	"go.uber.org/zap"
)

// MultiTier mediates lookups across the configured tiers, fastest first,
// promoting slower-tier hits into the in-process tier.
type MultiTier struct {
	cfg      config.CacheConfig
	local    *Local
	redis    *Redis
	semantic *Semantic
	logger   *zap.Logger

	mu     sync.Mutex
	hits   map[Tier]uint64
	misses uint64
}

// NewMultiTier composes the cache tiers. redis and semantic may be nil; the
// corresponding tiers are then skipped regardless of configuration.
func NewMultiTier(cfg config.CacheConfig, redis *Redis, semantic *Semantic, logger *zap.Logger) *MultiTier {
	if logger == nil {
		logger = zap.NewNop()
	}
	var local *Local
	if cfg.EnableLocal {
		ttl := cfg.LocalTTL
		if ttl <= 0 {
			ttl = cfg.TTL
		}
		local = NewLocal(cfg.LocalMaxSize, ttl)
	}
	return &MultiTier{
		cfg:      cfg,
		local:    local,
		redis:    redis,
		semantic: semantic,
		logger:   logger.With(zap.String("component", "cache")),
		hits:     make(map[Tier]uint64, 3),
	}
}

// Get looks the prompt up across tiers. On a hit it returns the entry and
// the tier that produced it, after promoting the entry into L1.
func (m *MultiTier) Get(ctx context.Context, tenantID, prompt string) (*Entry, Tier, error) {
	key := Fingerprint(tenantID, prompt)
	now := time.Now()

	if m.local != nil {
		if entry, ok := m.local.Get(key); ok && !entry.Expired(now) {
			m.recordHit(TierLocal)
			return entry, TierLocal, nil
		}
	}

	if m.cfg.EnableRedis && m.redis != nil {
		entry, err := m.redis.Get(ctx, key)
		if err == nil && !entry.Expired(now) {
			m.promote(key, entry)
			m.recordHit(TierRedis)
			return entry, TierRedis, nil
		}
	}

	if m.cfg.EnableSemantic && m.semantic != nil {
		entry, err := m.semantic.Nearest(ctx, tenantID, prompt)
		if err == nil && !entry.Expired(now) {
			m.promote(key, entry)
			m.recordHit(TierSemantic)
			return entry, TierSemantic, nil
		}
	}

	m.mu.Lock()
	m.misses++
	m.mu.Unlock()
	return nil, "", ErrMiss
}

// Set writes the entry through every enabled tier with the configured TTL.
// Tier write failures are logged and absorbed; the caller already has the
// response and a future miss just re-computes it.
func (m *MultiTier) Set(ctx context.Context, tenantID, prompt string, entry *Entry) {
	key := Fingerprint(tenantID, prompt)
	entry.InsertedAt = time.Now()
	entry.ExpiresAt = entry.InsertedAt.Add(m.cfg.TTL)

	if m.local != nil {
		m.local.Set(key, entry)
	}
	if m.cfg.EnableRedis && m.redis != nil {
		if err := m.redis.Set(ctx, key, entry, m.cfg.TTL); err != nil {
			m.logger.Warn("redis write-through failed", zap.Error(err))
		}
	}
	if m.cfg.EnableSemantic && m.semantic != nil {
		if err := m.semantic.Add(ctx, tenantID, prompt, key, entry); err != nil {
			m.logger.Warn("semantic index write failed", zap.Error(err))
		}
	}
}

// Stats returns aggregate hit/miss counters.
func (m *MultiTier) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	hits := make(map[Tier]uint64, len(m.hits))
	for k, v := range m.hits {
		hits[k] = v
	}
	var evictions uint64
	if m.local != nil {
		evictions = m.local.Evictions()
	}
	return Stats{Hits: hits, Misses: m.misses, Evictions: evictions}
}

func (m *MultiTier) promote(key string, entry *Entry) {
	if m.local != nil {
		m.local.Set(key, entry)
	}
}

func (m *MultiTier) recordHit(tier Tier) {
	m.mu.Lock()
	m.hits[tier]++
	m.mu.Unlock()
}
