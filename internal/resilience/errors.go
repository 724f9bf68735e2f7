package resilience

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
)

// CriticalReason classifies why a provider error is unrecoverable.
type CriticalReason string

const (
	ReasonAuth    CriticalReason = "auth"
	ReasonBilling CriticalReason = "billing"
)

// CriticalProviderError is an unrecoverable provider failure (expired key,
// exhausted billing). It aborts the run that encounters it.
type CriticalProviderError struct {
	Provider string
	Reason   CriticalReason
	Err      error
}

func (e *CriticalProviderError) Error() string {
	return fmt.Sprintf("%s: critical provider error (%s): %v", e.Provider, e.Reason, e.Err)
}

func (e *CriticalProviderError) Unwrap() error {
	return e.Err
}

// NewCriticalProviderError wraps err as a run-aborting provider failure.
func NewCriticalProviderError(provider string, reason CriticalReason, err error) *CriticalProviderError {
	return &CriticalProviderError{Provider: provider, Reason: reason, Err: err}
}

// IsCritical returns true if the error chain contains a CriticalProviderError.
func IsCritical(err error) bool {
	var ce *CriticalProviderError
	return errors.As(err, &ce)
}

// RateLimitedError indicates the provider returned 429. Callers apply one
// fixed backoff and continue; it never aborts a run.
type RateLimitedError struct {
	Provider string
	Err      error
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("%s: rate limited: %v", e.Provider, e.Err)
}

func (e *RateLimitedError) Unwrap() error {
	return e.Err
}

// NewRateLimitedError wraps err as a rate-limit signal.
func NewRateLimitedError(provider string, err error) *RateLimitedError {
	return &RateLimitedError{Provider: provider, Err: err}
}

// IsRateLimited returns true if the error chain contains a RateLimitedError.
func IsRateLimited(err error) bool {
	var re *RateLimitedError
	return errors.As(err, &re)
}

// TransientError wraps an error that is safe to retry (e.g., 5xx, network
// timeout).
type TransientError struct {
	Err        error
	StatusCode int
}

func (e *TransientError) Error() string {
	return e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// NewTransientError wraps an error as transient with an optional HTTP status code.
func NewTransientError(err error, statusCode int) *TransientError {
	return &TransientError{Err: err, StatusCode: statusCode}
}

// IsTransient returns true if the error (or any error in its chain) is a
// TransientError, or if it matches common transient error patterns (network
// timeouts, connection resets, DNS failures). Critical and rate-limit
// errors are never transient: they have their own handling paths.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if IsCritical(err) || IsRateLimited(err) {
		return false
	}

	// Check for explicit TransientError in chain.
	var te *TransientError
	if errors.As(err, &te) {
		return true
	}

	// Check for network-level transient errors.
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	// Connection reset / refused / DNS.
	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	// String-based heuristics for wrapped errors from HTTP clients.
	msg := strings.ToLower(err.Error())
	transientPatterns := []string{
		"connection reset by peer",
		"broken pipe",
		"temporary failure in name resolution",
		"no such host",
		"tls handshake timeout",
		"i/o timeout",
		"server closed idle connection",
		"transport connection broken",
	}
	for _, p := range transientPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}

	return false
}

// IsTransientHTTPStatus returns true if the HTTP status code indicates a
// transient server-side issue that is safe to retry.
func IsTransientHTTPStatus(statusCode int) bool {
	switch statusCode {
	case 408, // Request Timeout
		500, // Internal Server Error
		502, // Bad Gateway
		503, // Service Unavailable
		504: // Gateway Timeout
		return true
	default:
		return false
	}
}
