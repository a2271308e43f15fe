// Package openai implements the chat completions client used for the GPT-4
// chain position. It also works against any OpenAI-compatible server.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/agentroute/types"
)

// Config configures the client.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float32
	Timeout     time.Duration
}

// Provider calls an OpenAI-compatible chat completions endpoint.
type Provider struct {
	cfg    Config
	client *http.Client
	logger *zap.Logger
}

func New(cfg Config, logger *zap.Logger) *Provider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger.With(zap.String("provider", "gpt4")),
	}
}

func (p *Provider) Name() string { return "gpt4" }

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type request struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float32   `json:"temperature,omitempty"`
}

type response struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Complete sends the prompt as a single user message.
func (p *Provider) Complete(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(request{
		Model:       p.cfg.Model,
		Messages:    []message{{Role: "user", Content: prompt}},
		MaxTokens:   p.cfg.MaxTokens,
		Temperature: p.cfg.Temperature,
	})
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(p.cfg.BaseURL, "/")+"/v1/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", transportError(p.Name(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", mapError(resp.StatusCode, readErrMsg(resp.Body), p.Name())
	}

	var parsed response
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", types.NewTransientProviderError(types.ErrUpstreamError, p.Name(),
			fmt.Sprintf("decode response: %v", err)).WithHTTPStatus(http.StatusBadGateway)
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", types.NewTransientProviderError(types.ErrUpstreamError, p.Name(), "response contained no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

func readErrMsg(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, 64<<10))
	if err != nil {
		return ""
	}
	var parsed errorResponse
	if json.Unmarshal(raw, &parsed) == nil && parsed.Error.Message != "" {
		return parsed.Error.Message
	}
	return strings.TrimSpace(string(raw))
}

func mapError(status int, msg, provider string) *types.Error {
	switch status {
	case http.StatusUnauthorized:
		return types.NewFatalProviderError(types.ErrAuthentication, provider, msg).WithHTTPStatus(status)
	case http.StatusForbidden:
		return types.NewFatalProviderError(types.ErrForbidden, provider, msg).WithHTTPStatus(status)
	case http.StatusTooManyRequests:
		// 429 covers both rate limits and quota exhaustion; quota errors are
		// not worth retrying on the same key.
		if strings.Contains(msg, "quota") {
			return types.NewFatalProviderError(types.ErrRateLimited, provider, msg).WithHTTPStatus(status)
		}
		return types.NewTransientProviderError(types.ErrRateLimited, provider, msg).WithHTTPStatus(status)
	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
		return types.NewTransientProviderError(types.ErrUpstreamError, provider, msg).WithHTTPStatus(status)
	default:
		if status >= 500 {
			return types.NewTransientProviderError(types.ErrUpstreamError, provider, msg).WithHTTPStatus(status)
		}
		return types.NewFatalProviderError(types.ErrUpstreamError, provider, msg).WithHTTPStatus(status)
	}
}

func transportError(provider string, err error) *types.Error {
	code := types.ErrUpstreamError
	if errors.Is(err, context.DeadlineExceeded) {
		code = types.ErrUpstreamTimeout
	}
	return types.NewTransientProviderError(code, provider, err.Error()).WithCause(err)
}
