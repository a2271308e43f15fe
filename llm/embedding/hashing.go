package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
)

// Hashing is a deterministic, dependency-free embedder built on the hashing
// trick: each token is hashed into a fixed number of buckets with a signed
// contribution, then the vector is L2-normalized. It captures token overlap
// only, which is enough for near-duplicate prompt detection and for running
// the semantic tier without an embedding service.
type Hashing struct {
	dims int
}

// NewHashing creates a hashing embedder. dims defaults to 256.
func NewHashing(dims int) *Hashing {
	if dims <= 0 {
		dims = 256
	}
	return &Hashing{dims: dims}
}

// Embed maps text to a normalized bag-of-tokens vector. It never fails.
func (h *Hashing) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, h.dims)

	for _, token := range strings.Fields(strings.ToLower(text)) {
		token = strings.Trim(token, ".,!?;:\"'()")
		if token == "" {
			continue
		}
		hash := fnv.New64a()
		hash.Write([]byte(token))
		sum := hash.Sum64()

		bucket := int(sum % uint64(h.dims))
		// Use a high bit for the sign so colliding tokens can cancel instead
		// of always accumulating.
		if sum&(1<<63) != 0 {
			vec[bucket]--
		} else {
			vec[bucket]++
		}
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= scale
		}
	}
	return vec, nil
}
