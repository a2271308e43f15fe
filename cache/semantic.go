package cache

import (
	"context"
	"math"
	"sync"

	"go.uber.org/zap"
)

// Embedder turns a prompt into a vector for similarity search. The
// llm/embedding package provides HTTP-backed and hashing implementations.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Semantic is the similarity tier. It trades a small risk of serving a
// near-but-not-identical answer for a large reduction in duplicate provider
// calls on paraphrased prompts. Vectors are scoped per tenant; a hit
// requires cosine similarity at or above the configured threshold.
//
// The index is in-memory and instance-local. Exact-match reuse across
// instances is already covered by the Redis tier, so losing the index on
// restart only costs similarity hits, never correctness.
type Semantic struct {
	embedder  Embedder
	threshold float64
	logger    *zap.Logger

	mu      sync.RWMutex
	entries map[string][]semanticEntry // tenant -> vectors
}

type semanticEntry struct {
	key    string
	vector []float32
	entry  *Entry
}

// NewSemantic creates the similarity tier.
func NewSemantic(embedder Embedder, threshold float64, logger *zap.Logger) *Semantic {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Semantic{
		embedder:  embedder,
		threshold: threshold,
		logger:    logger.With(zap.String("component", "cache_semantic")),
		entries:   make(map[string][]semanticEntry),
	}
}

// Nearest returns the best entry for the tenant whose stored prompt vector
// meets the similarity threshold, or ErrMiss.
func (s *Semantic) Nearest(ctx context.Context, tenantID, prompt string) (*Entry, error) {
	vec, err := s.embedder.Embed(ctx, NormalizePrompt(prompt))
	if err != nil {
		// Embedding trouble must not fail the whole lookup chain.
		s.logger.Warn("embedding failed, skipping semantic tier", zap.Error(err))
		return nil, ErrMiss
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	best := -1.0
	var bestEntry *Entry
	for _, cand := range s.entries[tenantID] {
		if sim := cosine(vec, cand.vector); sim > best {
			best = sim
			bestEntry = cand.entry
		}
	}
	if bestEntry == nil || best < s.threshold {
		return nil, ErrMiss
	}
	return bestEntry, nil
}

// Add indexes a freshly written entry under the tenant's prompt vector.
func (s *Semantic) Add(ctx context.Context, tenantID, prompt, key string, entry *Entry) error {
	vec, err := s.embedder.Embed(ctx, NormalizePrompt(prompt))
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Replace in place when the exact key is re-written.
	for i, cand := range s.entries[tenantID] {
		if cand.key == key {
			s.entries[tenantID][i] = semanticEntry{key: key, vector: vec, entry: entry}
			return nil
		}
	}
	s.entries[tenantID] = append(s.entries[tenantID], semanticEntry{key: key, vector: vec, entry: entry})
	return nil
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return -1
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return -1
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
