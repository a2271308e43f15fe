package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/agentroute/types"
)

func TestParse_DirectJSON(t *testing.T) {
	raw := `{"intent": "pricing", "confidence": 0.91, "entities": {"budget": 450000}}`

	resp := Parse(raw)

	assert.Equal(t, "pricing", resp.Intent)
	assert.Equal(t, 0.91, resp.Confidence)
	assert.Equal(t, float64(450000), resp.Entities["budget"])
	assert.Equal(t, "json", resp.Metadata["parse_strategy"])
	assert.Equal(t, raw, resp.RawResponse)
}

func TestParse_DirectJSONDefaultConfidence(t *testing.T) {
	resp := Parse(`{"intent": "pricing"}`)

	assert.Equal(t, "pricing", resp.Intent)
	assert.Equal(t, structuredDefaultConfidence, resp.Confidence)
}

func TestParse_JSONFence(t *testing.T) {
	raw := "Here is my analysis.\n```json\n{\"intent\": \"listing\", \"confidence\": 0.8}\n```\nLet me know."

	resp := Parse(raw)

	assert.Equal(t, "listing", resp.Intent)
	assert.Equal(t, 0.8, resp.Confidence)
	assert.Equal(t, "block", resp.Metadata["parse_strategy"])
}

func TestParse_GenericFence(t *testing.T) {
	raw := "Result:\n```\n{\"intent\": \"support\"}\n```"

	resp := Parse(raw)

	assert.Equal(t, "support", resp.Intent)
	assert.Equal(t, "block", resp.Metadata["parse_strategy"])
}

func TestParse_BalancedBraceInProse(t *testing.T) {
	raw := `After reviewing, the verdict is {"intent": "valuation", "confidence": 0.7} as requested.`

	resp := Parse(raw)

	assert.Equal(t, "valuation", resp.Intent)
	assert.Equal(t, 0.7, resp.Confidence)
}

func TestParse_BracesInsideStrings(t *testing.T) {
	raw := `{"intent": "quote", "entities": {"note": "use {curly} braces"}}`

	resp := Parse(raw)

	assert.Equal(t, "quote", resp.Intent)
	assert.Equal(t, "use {curly} braces", resp.Entities["note"])
}

func TestParse_FieldExtractionFromProse(t *testing.T) {
	raw := "The detected intent: pricing. I'd say 85% confidence here."

	resp := Parse(raw)

	assert.Equal(t, "pricing", resp.Intent)
	assert.Equal(t, 0.85, resp.Confidence)
	assert.Equal(t, "fields", resp.Metadata["parse_strategy"])
}

func TestParse_FieldExtractionFromLooseJSON(t *testing.T) {
	// Trailing comma makes this invalid for encoding/json; gjson tolerates it.
	raw := `{"intent": "pricing", "entities": {"city": "Austin"},}`

	resp := Parse(raw)

	assert.Equal(t, "pricing", resp.Intent)
	assert.Equal(t, "Austin", resp.Entities["city"])
	assert.Equal(t, "fields", resp.Metadata["parse_strategy"])
}

func TestParse_QualitativeConfidence(t *testing.T) {
	resp := Parse("intent: follow_up\nI have high confidence in this assessment.")

	assert.Equal(t, "follow_up", resp.Intent)
	assert.Equal(t, 0.8, resp.Confidence)
}

func TestParse_PlainProseFallback(t *testing.T) {
	raw := "I'm happy to help you find a new home in the spring market."

	resp := Parse(raw)

	assert.Equal(t, raw, resp.Intent)
	assert.Equal(t, FallbackConfidence, resp.Confidence)
	assert.Equal(t, raw, resp.RawResponse)
	assert.Equal(t, "fallback", resp.Metadata["parse_strategy"])
}

func TestParse_LongProseTruncated(t *testing.T) {
	raw := strings.Repeat("very long prose ", 40)

	resp := Parse(raw)

	assert.LessOrEqual(t, len(resp.Intent), maxFallbackIntentLen)
	assert.Equal(t, FallbackConfidence, resp.Confidence)
}

func TestParse_EmptyInput(t *testing.T) {
	resp := Parse("")

	require.NotNil(t, resp)
	assert.Equal(t, types.IntentUnknown, resp.Intent)
	assert.Equal(t, FallbackConfidence, resp.Confidence)
}

func TestParse_ConfidenceClamped(t *testing.T) {
	resp := Parse(`{"intent": "x", "confidence": 3.5}`)
	assert.Equal(t, 1.0, resp.Confidence)

	resp = Parse(`{"intent": "x", "confidence": -2}`)
	assert.Equal(t, 0.0, resp.Confidence)
}

func TestExtractConfidence(t *testing.T) {
	tests := []struct {
		raw   string
		want  float64
		found bool
	}{
		{"confidence: 85%", 0.85, true},
		{"85 % confidence", 0.85, true},
		{"roughly eighty-five percent sure", 0, false},
		{"confidence: 0.42", 0.42, true},
		{"confidence 1", 1.0, true},
		{"high confidence overall", 0.8, true},
		{"confidence is low", 0.4, true},
		{"moderate confidence", 0.6, true},
		{"no score at all", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, found := extractConfidence(tt.raw)
			assert.Equal(t, tt.found, found)
			if tt.found {
				assert.InDelta(t, tt.want, got, 1e-9)
			}
		})
	}
}

func TestBalancedJSONObject(t *testing.T) {
	assert.Equal(t, `{"a": 1}`, balancedJSONObject(`before {"a": 1} after`))
	assert.Equal(t, "", balancedJSONObject("no braces"))
	assert.Equal(t, "", balancedJSONObject(`{"unterminated": `))
	assert.Equal(t,
		`{"a": {"b": "}"}}`,
		balancedJSONObject(`x {"a": {"b": "}"}} y`))
}
