// Package parser normalizes heterogeneous model output into a
// types.ParsedResponse. Strategies are ordered pure functions tried in
// sequence; the final strategy always succeeds, so parsing is total and
// callers never see an error for a malformed response.
package parser

import (
	"encoding/json"
	"strings"
	"unicode/utf8"

	"github.com/BaSui01/agentroute/types"
)

// Strategy is one parsing attempt. ok is false when the strategy cannot
// extract a structured result from the text.
type Strategy struct {
	Name  string
	Parse func(raw string) (resp *types.ParsedResponse, ok bool)
}

// Confidence defaults per degradation level.
const (
	// structuredDefaultConfidence applies when structured output carried no
	// explicit confidence field.
	structuredDefaultConfidence = 0.75

	// FallbackConfidence is reported when the whole raw text had to be
	// treated as the intent.
	FallbackConfidence = 0.5
)

// maxFallbackIntentLen bounds the intent when it is a truncation of prose.
const maxFallbackIntentLen = 120

// Cascade returns the default strategy order: direct JSON, embedded block
// extraction, pattern-based field extraction, whole-text fallback.
func Cascade() []Strategy {
	return []Strategy{
		{Name: "json", Parse: parseDirectJSON},
		{Name: "block", Parse: parseEmbeddedBlock},
		{Name: "fields", Parse: parseFields},
		{Name: "fallback", Parse: parseFallback},
	}
}

// Parse runs the default cascade over the raw text. The result is never nil;
// metadata records which strategy produced it.
func Parse(raw string) *types.ParsedResponse {
	for _, s := range Cascade() {
		if resp, ok := s.Parse(raw); ok {
			resp.RawResponse = raw
			resp.WithMeta("parse_strategy", s.Name)
			return resp
		}
	}
	// Unreachable: parseFallback always succeeds. Kept so a reordered
	// cascade cannot silently return nil.
	resp := &types.ParsedResponse{Intent: types.IntentUnknown, RawResponse: raw}
	return resp
}

// payload is the structured shape models are asked to produce.
type payload struct {
	Intent     string         `json:"intent"`
	Confidence *float64       `json:"confidence"`
	Entities   map[string]any `json:"entities"`
}

func (p payload) toResponse() *types.ParsedResponse {
	conf := structuredDefaultConfidence
	if p.Confidence != nil {
		conf = clamp01(*p.Confidence)
	}
	return &types.ParsedResponse{
		Intent:     p.Intent,
		Confidence: conf,
		Entities:   p.Entities,
	}
}

// parseDirectJSON accepts raw text that is entirely a JSON object with an
// intent field.
func parseDirectJSON(raw string) (*types.ParsedResponse, bool) {
	var p payload
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &p); err != nil {
		return nil, false
	}
	if p.Intent == "" {
		return nil, false
	}
	return p.toResponse(), true
}

// parseEmbeddedBlock extracts a JSON object embedded in surrounding prose:
// a ```json fence, a generic fence, or the first balanced brace region.
func parseEmbeddedBlock(raw string) (*types.ParsedResponse, bool) {
	for _, inner := range candidateBlocks(raw) {
		if resp, ok := parseDirectJSON(inner); ok {
			return resp, true
		}
	}
	return nil, false
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	// Cut on a rune boundary.
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return strings.TrimSpace(s[:cut])
}

// parseFallback treats the whole text as the intent with a fixed low
// confidence. It never fails, which makes the cascade total.
func parseFallback(raw string) (*types.ParsedResponse, bool) {
	intent := truncate(raw, maxFallbackIntentLen)
	if intent == "" {
		intent = types.IntentUnknown
	}
	return &types.ParsedResponse{
		Intent:     intent,
		Confidence: FallbackConfidence,
	}, true
}
