package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Error(t *testing.T) {
	err := NewError(ErrValidation, "contact id must not be empty")
	assert.Equal(t, "[VALIDATION] contact id must not be empty", err.Error())
}

func TestError_ErrorWithCause(t *testing.T) {
	cause := errors.New("boom")
	err := NewError(ErrUpstreamError, "provider call failed").WithCause(cause)
	assert.Contains(t, err.Error(), "boom")
	assert.Equal(t, cause, errors.Unwrap(err))
}

func TestError_Builders(t *testing.T) {
	err := NewError(ErrRateLimited, "429 from upstream").
		WithHTTPStatus(429).
		WithRetryable(true).
		WithProvider("claude")

	assert.Equal(t, 429, err.HTTPStatus)
	assert.True(t, err.Retryable)
	assert.Equal(t, "claude", err.Provider)
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(NewTransientProviderError(ErrUpstreamTimeout, "gpt4", "timeout")))
	assert.False(t, IsRetryable(NewFatalProviderError(ErrAuthentication, "gpt4", "bad key")))
	assert.False(t, IsRetryable(errors.New("plain")))
	assert.False(t, IsRetryable(nil))
}

func TestIsRetryable_Wrapped(t *testing.T) {
	inner := NewTransientProviderError(ErrModelOverloaded, "claude", "overloaded")
	wrapped := fmt.Errorf("attempt 2: %w", inner)
	assert.True(t, IsRetryable(wrapped))
	assert.Equal(t, ErrModelOverloaded, GetErrorCode(wrapped))
}

func TestBoundaryPredicates(t *testing.T) {
	assert.True(t, IsValidation(NewError(ErrValidation, "bad input")))
	assert.True(t, IsConfiguration(NewError(ErrConfiguration, "empty provider order")))
	assert.False(t, IsValidation(NewError(ErrConfiguration, "")))
	assert.False(t, IsConfiguration(errors.New("plain")))
}
