package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAI_Embed(t *testing.T) {
	var gotAuth, gotModel string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotModel, _ = req["model"].(string)

		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"embedding": []float32{0.1, 0.2, 0.3}},
			},
		})
	}))
	defer srv.Close()

	client := NewOpenAI(OpenAIConfig{BaseURL: srv.URL, APIKey: "sk-test", Model: "text-embedding-3-small"})
	vec, err := client.Embed(context.Background(), "hello world")

	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.Equal(t, "text-embedding-3-small", gotModel)
}

func TestOpenAI_Embed_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"rate limited"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewOpenAI(OpenAIConfig{BaseURL: srv.URL})
	_, err := client.Embed(context.Background(), "hello")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestOpenAI_Embed_EmptyData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"data": []any{}})
	}))
	defer srv.Close()

	client := NewOpenAI(OpenAIConfig{BaseURL: srv.URL})
	_, err := client.Embed(context.Background(), "hello")

	require.Error(t, err)
}

func TestHashing_Deterministic(t *testing.T) {
	h := NewHashing(128)

	a, err := h.Embed(context.Background(), "show me houses in Austin")
	require.NoError(t, err)
	b, err := h.Embed(context.Background(), "show me houses in Austin")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a, 128)
}

func TestHashing_SimilarTextsCloserThanUnrelated(t *testing.T) {
	h := NewHashing(256)
	ctx := context.Background()

	base, _ := h.Embed(ctx, "what is the price of the house on Oak Street")
	similar, _ := h.Embed(ctx, "what is the price of the home on Oak Street")
	unrelated, _ := h.Embed(ctx, "cancel my appointment tomorrow morning")

	assert.Greater(t, dot(base, similar), dot(base, unrelated))
}

func TestHashing_NormalizedVector(t *testing.T) {
	h := NewHashing(64)
	vec, err := h.Embed(context.Background(), "hello world again")
	require.NoError(t, err)

	assert.InDelta(t, 1.0, dot(vec, vec), 1e-5)
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
