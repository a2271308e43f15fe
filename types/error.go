package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unified error code across the orchestration core.
type ErrorCode string

// Boundary error codes. Only these two cross component boundaries as errors;
// everything else (provider outages, parse ambiguity, handoff suppression)
// is absorbed and represented in return values.
const (
	ErrValidation    ErrorCode = "VALIDATION"
	ErrConfiguration ErrorCode = "CONFIGURATION"
)

// Provider error codes. Transient codes drive retry and fallback; fatal codes
// skip the retry budget and advance the fallback chain immediately.
const (
	ErrRateLimited         ErrorCode = "RATE_LIMITED"
	ErrUpstreamTimeout     ErrorCode = "UPSTREAM_TIMEOUT"
	ErrUpstreamError       ErrorCode = "UPSTREAM_ERROR"
	ErrModelOverloaded     ErrorCode = "MODEL_OVERLOADED"
	ErrAuthentication      ErrorCode = "AUTHENTICATION"
	ErrForbidden           ErrorCode = "FORBIDDEN"
	ErrProviderUnavailable ErrorCode = "PROVIDER_UNAVAILABLE"
)

// Error represents a structured error with code, message, and metadata.
type Error struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	HTTPStatus int       `json:"http_status,omitempty"`
	Retryable  bool      `json:"retryable"`
	Provider   string    `json:"provider,omitempty"`
	Cause      error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithHTTPStatus sets the HTTP status code.
func (e *Error) WithHTTPStatus(status int) *Error {
	e.HTTPStatus = status
	return e
}

// WithRetryable marks the error as retryable.
func (e *Error) WithRetryable(retryable bool) *Error {
	e.Retryable = retryable
	return e
}

// WithProvider sets the provider name.
func (e *Error) WithProvider(provider string) *Error {
	e.Provider = provider
	return e
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Retryable
	}
	return false
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool {
	return GetErrorCode(err) == ErrValidation
}

// IsConfiguration reports whether err is a configuration error.
func IsConfiguration(err error) bool {
	return GetErrorCode(err) == ErrConfiguration
}

// NewTransientProviderError builds a retryable provider error.
func NewTransientProviderError(code ErrorCode, provider, message string) *Error {
	return &Error{Code: code, Message: message, Provider: provider, Retryable: true}
}

// NewFatalProviderError builds a non-retryable provider error (auth,
// permission). The fallback chain advances without burning retry budget.
func NewFatalProviderError(code ErrorCode, provider, message string) *Error {
	return &Error{Code: code, Message: message, Provider: provider, Retryable: false}
}
