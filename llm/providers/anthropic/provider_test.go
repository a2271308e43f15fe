package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/agentroute/types"
)

func newTestProvider(url string) *Provider {
	return New(Config{APIKey: "sk-ant-test", BaseURL: url}, nil)
}

func TestComplete_Success(t *testing.T) {
	var gotKey, gotVersion string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-api-key")
		gotVersion = r.Header.Get("anthropic-version")
		require.Equal(t, "/v1/messages", r.URL.Path)

		var req request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "user", req.Messages[0].Role)

		json.NewEncoder(w).Encode(response{
			Content: []contentBlock{
				{Type: "text", Text: `{"intent":`},
				{Type: "text", Text: `"greeting"}`},
			},
			StopReason: "end_turn",
		})
	}))
	defer srv.Close()

	raw, err := newTestProvider(srv.URL).Complete(context.Background(), "hello")

	require.NoError(t, err)
	assert.Equal(t, `{"intent":"greeting"}`, raw, "text blocks are concatenated")
	assert.Equal(t, "sk-ant-test", gotKey)
	assert.Equal(t, apiVersion, gotVersion)
}

func TestComplete_RateLimitedIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"type": "rate_limit_error", "message": "rate limited"},
		})
	}))
	defer srv.Close()

	_, err := newTestProvider(srv.URL).Complete(context.Background(), "hello")

	require.Error(t, err)
	assert.True(t, types.IsRetryable(err))
	assert.Equal(t, types.ErrRateLimited, types.GetErrorCode(err))
}

func TestComplete_OverloadedIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(529)
	}))
	defer srv.Close()

	_, err := newTestProvider(srv.URL).Complete(context.Background(), "hello")

	require.Error(t, err)
	assert.True(t, types.IsRetryable(err))
	assert.Equal(t, types.ErrModelOverloaded, types.GetErrorCode(err))
}

func TestComplete_UnauthorizedIsFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"type": "authentication_error", "message": "invalid x-api-key"},
		})
	}))
	defer srv.Close()

	_, err := newTestProvider(srv.URL).Complete(context.Background(), "hello")

	require.Error(t, err)
	assert.False(t, types.IsRetryable(err))
	assert.Equal(t, types.ErrAuthentication, types.GetErrorCode(err))
	assert.Contains(t, err.Error(), "invalid x-api-key")
}

func TestComplete_EmptyContentIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(response{})
	}))
	defer srv.Close()

	_, err := newTestProvider(srv.URL).Complete(context.Background(), "hello")

	require.Error(t, err)
	assert.True(t, types.IsRetryable(err))
}

func TestComplete_ConnectionRefusedIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // refuse all connections

	_, err := newTestProvider(srv.URL).Complete(context.Background(), "hello")

	require.Error(t, err)
	assert.True(t, types.IsRetryable(err))
}
