package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBaseURL(t *testing.T) {
	t.Setenv("VOICEDOC_BASE_URL", "")
	assert.Equal(t, "http://localhost:3000", BaseURL())

	t.Setenv("VOICEDOC_BASE_URL", "http://voicedoc.internal:8080")
	assert.Equal(t, "http://voicedoc.internal:8080", BaseURL())
}

func TestEnvDuration_InvalidFallsBack(t *testing.T) {
	t.Setenv("VOICEDOC_STUB_CHUNK_DELAY", "soon")
	assert.Equal(t, 20*time.Millisecond, StubChunkDelay())

	t.Setenv("VOICEDOC_STUB_CHUNK_DELAY", "0s")
	assert.Equal(t, time.Duration(0), StubChunkDelay())
}

func TestStubRateLimit(t *testing.T) {
	t.Setenv("VOICEDOC_STUB_RATE_LIMIT", "")
	assert.Equal(t, 0, StubRateLimit())

	t.Setenv("VOICEDOC_STUB_RATE_LIMIT", "3")
	assert.Equal(t, 3, StubRateLimit())

	t.Setenv("VOICEDOC_STUB_RATE_LIMIT", "-1")
	assert.Equal(t, 0, StubRateLimit())
}

func TestStubRateLimitWindow_RejectsNonPositive(t *testing.T) {
	for _, v := range []string{"0s", "-5s", "later"} {
		t.Setenv("VOICEDOC_STUB_RATE_LIMIT_PER", v)
		assert.Equal(t, time.Second, StubRateLimitPer(), "window %q", v)
	}

	t.Setenv("VOICEDOC_STUB_RATE_LIMIT_PER", "250ms")
	assert.Equal(t, 250*time.Millisecond, StubRateLimitPer())
}

func TestStubRetryAfter_RejectsNonPositive(t *testing.T) {
	for _, v := range []string{"0", "-2", "x"} {
		t.Setenv("VOICEDOC_STUB_RETRY_AFTER", v)
		assert.Equal(t, 1, StubRetryAfterSec(), "retry-after %q", v)
	}

	t.Setenv("VOICEDOC_STUB_RETRY_AFTER", "7")
	assert.Equal(t, 7, StubRetryAfterSec())
}

func TestStubLimiterSettings_RejectZero(t *testing.T) {
	t.Setenv("VOICEDOC_STUB_LIMITER_MAX_STALE", "0s")
	assert.Equal(t, 5*time.Minute, StubLimiterMaxStale())

	t.Setenv("VOICEDOC_STUB_LIMITER_EVICT_THRESHOLD", "0")
	assert.Equal(t, 100, StubLimiterEvictThreshold())
}
