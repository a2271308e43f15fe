// Package cache provides the multi-tier response cache used by the model
// call orchestrator: an in-process LRU (L1), a shared Redis store (L2), and
// an optional semantic similarity index (L3). Tiers are checked fastest
// first; a hit in a slower tier is promoted into the in-process tier.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/BaSui01/agentroute/types"
)

// ErrMiss indicates no tier had an entry for the key.
var ErrMiss = errors.New("cache miss")

// Tier identifies which cache layer produced an entry. Informational only;
// it never affects correctness.
type Tier string

const (
	TierLocal    Tier = "l1"
	TierRedis    Tier = "l2"
	TierSemantic Tier = "l3"
)

// Entry is one cached model response. Entries are immutable once written;
// a changed prompt produces a different key, never an in-place mutation.
type Entry struct {
	Response   *types.ParsedResponse `json:"response"`
	Tier       Tier                  `json:"tier,omitempty"`
	InsertedAt time.Time             `json:"inserted_at"`
	ExpiresAt  time.Time             `json:"expires_at"`
	HitCount   int                   `json:"hit_count"`
}

// Expired reports whether the entry's TTL has elapsed at now.
func (e *Entry) Expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && now.After(e.ExpiresAt)
}

// Fingerprint produces the deterministic cache key for a tenant and prompt.
// The prompt is normalized first so trivial whitespace and case differences
// map to the same key.
func Fingerprint(tenantID, prompt string) string {
	h := sha256.New()
	h.Write([]byte(tenantID))
	h.Write([]byte{0})
	h.Write([]byte(NormalizePrompt(prompt)))
	return hex.EncodeToString(h.Sum(nil)[:16])
}

// NormalizePrompt lowercases the prompt and collapses runs of whitespace.
func NormalizePrompt(prompt string) string {
	return strings.Join(strings.Fields(strings.ToLower(prompt)), " ")
}

// Stats aggregates hit/miss counters across tiers.
type Stats struct {
	Hits      map[Tier]uint64 `json:"hits"`
	Misses    uint64          `json:"misses"`
	Evictions uint64          `json:"evictions"`
}
