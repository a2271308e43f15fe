package types

import "time"

// IntentUnknown is the intent reported when every provider failed or the
// response could not be interpreted at all.
const IntentUnknown = "unknown"

// ParsedResponse is the orchestrator's public output. It is always produced,
// even on total parse failure: in the worst case Intent is "unknown" with a
// conservative confidence and the raw text preserved. Callers never receive
// an error for a parse problem, only a degraded-confidence result.
type ParsedResponse struct {
	// Intent is the extracted intent label, or IntentUnknown / a truncation
	// of the raw text when no structure could be recovered.
	Intent string `json:"intent"`

	// Entities maps extracted field names to values. Keys are unique.
	Entities map[string]any `json:"entities,omitempty"`

	// Confidence in [0,1]. Degraded parses report fixed low values.
	Confidence float64 `json:"confidence"`

	// RawResponse is the unmodified provider text (or the last error text
	// when every provider was exhausted).
	RawResponse string `json:"raw_response"`

	// CacheHit is true when the response was served from any cache tier.
	CacheHit bool `json:"cache_hit"`

	// Provider names the provider that produced the response, when known.
	Provider string `json:"provider,omitempty"`

	// Metadata carries auxiliary information: the cache tier on a hit, the
	// parse strategy that succeeded, or the final provider error on total
	// exhaustion.
	Metadata map[string]string `json:"metadata,omitempty"`

	// CreatedAt is when the response was produced (not when it was cached).
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// WithMeta sets a metadata key, allocating the map on first use.
func (r *ParsedResponse) WithMeta(key, value string) *ParsedResponse {
	if r.Metadata == nil {
		r.Metadata = make(map[string]string, 2)
	}
	r.Metadata[key] = value
	return r
}
