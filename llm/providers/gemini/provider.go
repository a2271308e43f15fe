// Package gemini implements the Google Gemini generateContent client.
// Gemini passes the API key as a query parameter instead of a header.
package gemini

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

// Config configures the Gemini client.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Provider calls the Gemini generateContent endpoint.
type Provider struct {
	cfg    Config
	client *http.Client
	logger *zap.Logger
}

func New(cfg Config, logger *zap.Logger) *Provider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com"
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-1.5-pro"
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
		logger: logger.With(zap.String("provider", "gemini")),
	}
}

func (p *Provider) Name() string { return "gemini" }

type part struct {
	Text string `json:"text"`
}

type content struct {
	Parts []part `json:"parts"`
	Role  string `json:"role,omitempty"`
}

type request struct {
	Contents []content `json:"contents"`
}

type response struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Complete sends the prompt as a single-turn content request.
func (p *Provider) Complete(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(request{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", err
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		strings.TrimRight(p.cfg.BaseURL, "/"), p.cfg.Model, p.cfg.APIKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		code := types.ErrUpstreamError
		if errors.Is(err, context.DeadlineExceeded) {
			code = types.ErrUpstreamTimeout
		}
		return "", types.NewTransientProviderError(code, p.Name(), err.Error()).WithCause(err)
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
	for _, candidate := range parsed.Candidates {
		for _, pt := range candidate.Content.Parts {
			text.WriteString(pt.Text)
		}
		break // only the first candidate
	}
	if text.Len() == 0 {
		return "", types.NewTransientProviderError(types.ErrUpstreamError, p.Name(), "response contained no candidates")
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
	case http.StatusUnauthorized, http.StatusBadRequest:
		// Gemini reports invalid keys as 400 INVALID_ARGUMENT.
		if strings.Contains(msg, "API key") || status == http.StatusUnauthorized {
			return types.NewFatalProviderError(types.ErrAuthentication, provider, msg).WithHTTPStatus(status)
		}
		return types.NewFatalProviderError(types.ErrUpstreamError, provider, msg).WithHTTPStatus(status)
	case http.StatusForbidden:
		return types.NewFatalProviderError(types.ErrForbidden, provider, msg).WithHTTPStatus(status)
	case http.StatusTooManyRequests:
		return types.NewTransientProviderError(types.ErrRateLimited, provider, msg).WithHTTPStatus(status)
	case http.StatusServiceUnavailable, http.StatusInternalServerError:
		return types.NewTransientProviderError(types.ErrModelOverloaded, provider, msg).WithHTTPStatus(status)
	default:
		if status >= 500 {
			return types.NewTransientProviderError(types.ErrUpstreamError, provider, msg).WithHTTPStatus(status)
		}
		return types.NewFatalProviderError(types.ErrUpstreamError, provider, msg).WithHTTPStatus(status)
	}
}
