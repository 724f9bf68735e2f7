package resilience

import (
	"errors"
	"fmt"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
)

func TestIsCritical(t *testing.T) {
	base := errors.New("401 unauthorized")
	err := NewCriticalProviderError("jina", ReasonAuth, base)

	assert.True(t, IsCritical(err))
	assert.True(t, IsCritical(fmt.Errorf("collect: %w", err)))
	assert.True(t, IsCritical(eris.Wrap(err, "collector: search")))
	assert.False(t, IsCritical(base))
	assert.False(t, IsCritical(nil))
}

func TestIsRateLimited(t *testing.T) {
	err := NewRateLimitedError("jina", errors.New("429 too many requests"))

	assert.True(t, IsRateLimited(err))
	assert.True(t, IsRateLimited(fmt.Errorf("collect: %w", err)))
	assert.False(t, IsRateLimited(errors.New("429")))
}

func TestIsTransient_ExcludesCriticalAndRateLimit(t *testing.T) {
	assert.False(t, IsTransient(NewCriticalProviderError("jina", ReasonBilling, errors.New("402"))))
	assert.False(t, IsTransient(NewRateLimitedError("jina", errors.New("429"))))
	assert.True(t, IsTransient(NewTransientError(errors.New("503 unavailable"), 503)))
	assert.True(t, IsTransient(errors.New("dial tcp: i/o timeout")))
	assert.False(t, IsTransient(errors.New("invalid schema")))
	assert.False(t, IsTransient(nil))
}

func TestIsTransientHTTPStatus(t *testing.T) {
	for _, code := range []int{408, 500, 502, 503, 504} {
		assert.True(t, IsTransientHTTPStatus(code), "code %d", code)
	}
	// 429 is handled by the rate-limit path, not the transient retry path.
	for _, code := range []int{200, 400, 401, 402, 404, 429} {
		assert.False(t, IsTransientHTTPStatus(code), "code %d", code)
	}
}
