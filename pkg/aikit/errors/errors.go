// Package errors provides domain-specific error types for aikit
package errors

import (
	"errors"
	"fmt"
)

// Standard errors that can be used with errors.Is()
var (
	// ErrInvalidConfig indicates a configuration error
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrProviderUnavailable indicates the provider is not configured (missing credential)
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrProviderCall indicates a transport error, non-success status or malformed response
	ErrProviderCall = errors.New("provider call failed")

	// ErrEmptyResponse indicates the provider answered without any usable content
	ErrEmptyResponse = errors.New("empty response")

	// ErrRateLimit indicates provider rate limiting
	ErrRateLimit = errors.New("rate limit exceeded")

	// ErrTransient indicates a timeout, dropped connection or 5xx status
	ErrTransient = errors.New("transient failure")

	// ErrApplication indicates an unexpected failure inside a pipeline stage
	ErrApplication = errors.New("application failure")
)

// ProviderError wraps provider-related errors with context
type ProviderError struct {
	// Provider is the name of the provider (e.g., "gemini", "brave")
	Provider string

	// Operation being performed (e.g., "generate_text", "search")
	Op string

	// Underlying error
	Err error
}

// Error implements the error interface
func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %s: %v", e.Provider, e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *ProviderError) Unwrap() error {
	return e.Err
}

// New creates a new ProviderError
func New(provider, op string, err error) error {
	return &ProviderError{
		Provider: provider,
		Op:       op,
		Err:      err,
	}
}

// Wrap adds provider context to an existing error
func Wrap(err error, provider, op string) error {
	if err == nil {
		return nil
	}
	return &ProviderError{
		Provider: provider,
		Op:       op,
		Err:      err,
	}
}

// CallFailed marks err as a provider call failure while keeping the cause
// reachable through errors.Is and errors.As.
func CallFailed(provider, op string, err error) error {
	if err == nil {
		err = ErrEmptyResponse
	}
	return &ProviderError{
		Provider: provider,
		Op:       op,
		Err:      fmt.Errorf("%w: %w", ErrProviderCall, err),
	}
}

// Mark tags err with kind (ErrRateLimit or ErrTransient) so IsRetryable
// recognises it. A nil err stays nil.
func Mark(kind, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", kind, err)
}

// IsUnavailable reports whether err means the provider was never configured
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrProviderUnavailable)
}

// IsRetryable reports whether a failed call may succeed when repeated.
// Only errors marked as rate limited or transient qualify; empty responses,
// rejected requests and missing credentials fail the same way every time.
func IsRetryable(err error) bool {
	if err == nil || IsUnavailable(err) {
		return false
	}
	return errors.Is(err, ErrRateLimit) || errors.Is(err, ErrTransient)
}

// Is enables custom error matching
func (e *ProviderError) Is(target error) bool {
	if errors.Is(e.Err, target) {
		return true
	}

	// Compare with another ProviderError
	t, ok := target.(*ProviderError)
	if !ok {
		return false
	}

	// Match on specific fields if provided
	if t.Provider != "" && t.Provider != e.Provider {
		return false
	}
	if t.Op != "" && t.Op != e.Op {
		return false
	}

	// If we got here with specific fields, it's a match
	if t.Provider != "" || t.Op != "" {
		return true
	}

	return errors.Is(e.Err, t.Err)
}
