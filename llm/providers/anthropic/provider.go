// Package anthropic implements the Claude messages API client.
//
// The Claude API differs from OpenAI-compatible servers: authentication uses
// the x-api-key header rather than a Bearer token, and overload is signalled
// with the non-standard 529 status.
package anthropic

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

const apiVersion = "2023-06-01"

// Config configures the Claude client.
type Config struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

// Provider calls the Anthropic messages endpoint.
type Provider struct {
	cfg    Config
	client *http.Client
	logger *zap.Logger
}

// New creates the provider with defaults filled in.
func New(cfg Config, logger *zap.Logger) *Provider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.anthropic.com"
	}
	if cfg.Model == "" {
		cfg.Model = "claude-3-5-sonnet-20241022"
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1024
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
		logger: logger.With(zap.String("provider", "claude")),
	}
}

func (p *Provider) Name() string { return "claude" }

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type request struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Messages  []message `json:"messages"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type response struct {
	Content    []contentBlock `json:"content"`
	StopReason string         `json:"stop_reason"`
}

type errorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Complete sends the prompt as a single user message and returns the
// concatenated text blocks of the reply.
func (p *Provider) Complete(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(request{
		Model:     p.cfg.Model,
		MaxTokens: p.cfg.MaxTokens,
		Messages:  []message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(p.cfg.BaseURL, "/")+"/v1/messages", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", p.cfg.APIKey)
	httpReq.Header.Set("anthropic-version", apiVersion)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", transportError("claude", err)
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

	var text strings.Builder
	for _, block := range parsed.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return "", types.NewTransientProviderError(types.ErrUpstreamError, p.Name(), "response contained no text blocks")
	}
	return text.String(), nil
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
		return types.NewTransientProviderError(types.ErrRateLimited, provider, msg).WithHTTPStatus(status)
	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
		return types.NewTransientProviderError(types.ErrUpstreamError, provider, msg).WithHTTPStatus(status)
	case 529: // Anthropic's overloaded status
		return types.NewTransientProviderError(types.ErrModelOverloaded, provider, msg).WithHTTPStatus(status)
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
