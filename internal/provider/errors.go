package provider

import (
	"errors"
	"fmt"
)

// ErrNoProvider indicates that no text-generation provider is configured.
var ErrNoProvider = errors.New("provider: not configured")

// ErrorCode classifies provider failures.
type ErrorCode string

const (
	ErrCodeAuthFailed         ErrorCode = "AUTH_FAILED"         // invalid or missing credentials
	ErrCodeRateLimited        ErrorCode = "RATE_LIMITED"        // too many requests
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE" // service temporarily unavailable
	ErrCodeNetworkError       ErrorCode = "NETWORK_ERROR"       // connectivity issues
	ErrCodeInvalidRequest     ErrorCode = "INVALID_REQUEST"     // malformed request
	ErrCodeUnknown            ErrorCode = "UNKNOWN"             // unclassified
)

// ProviderError is a structured error for capability-boundary failures.
type ProviderError struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Provider  string    `json:"provider"`
	Retryable bool      `json:"retryable"`
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Provider, e.Code, e.Message)
}

// NewProviderError creates a new ProviderError.
func NewProviderError(code ErrorCode, message, provider string, retryable bool) *ProviderError {
	return &ProviderError{
		Code:      code,
		Message:   message,
		Provider:  provider,
		Retryable: retryable,
	}
}

// IsAuthFailure reports whether err is an authentication failure, which the
// engine treats as "capability unavailable" rather than a hard error.
func IsAuthFailure(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Code == ErrCodeAuthFailed
	}
	return false
}
