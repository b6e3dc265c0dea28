package config

import (
	"os"
	"strconv"
	"time"
)

const (
	// DefaultBaseURL is the locally hosted VoiceDoc app.
	DefaultBaseURL = "http://localhost:3000"
	// ChatPath is the chat endpoint every simulated turn is posted to.
	ChatPath = "/api/gemini"
	// RequestTimeout bounds a single simulated turn, including draining the stream.
	RequestTimeout = 30 * time.Second
	// ChunkSize is the read size used to drain streamed replies.
	ChunkSize = 1024

	TrafficHeader  = "X-VoiceDoc-Traffic"
	ScenarioHeader = "X-VoiceDoc-Scenario"
	// TrafficSynthetic tags everything this tool sends.
	TrafficSynthetic = "synthetic"
)

// Debug returns true when VOICEDOC_DEBUG is set (e.g. VOICEDOC_DEBUG=1).
func Debug() bool {
	return os.Getenv("VOICEDOC_DEBUG") != ""
}

// envString returns env value, or default if unset.
func envString(name, defaultVal string) string {
	if s := os.Getenv(name); s != "" {
		return s
	}
	return defaultVal
}

// envInt returns env value as int, or default if unset/invalid/non-positive.
func envInt(name string, defaultVal int) int {
	if s := os.Getenv(name); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return defaultVal
}

// envDuration returns env value as duration, or default if unset/invalid/non-positive.
func envDuration(name string, defaultVal time.Duration) time.Duration {
	if s := os.Getenv(name); s != "" {
		if d, err := time.ParseDuration(s); err == nil && d > 0 {
			return d
		}
	}
	return defaultVal
}

// envDurationOrZero is envDuration but also accepts zero.
func envDurationOrZero(name string, defaultVal time.Duration) time.Duration {
	if s := os.Getenv(name); s != "" {
		if d, err := time.ParseDuration(s); err == nil && d >= 0 {
			return d
		}
	}
	return defaultVal
}

// BaseURL returns the chat app base URL. Env: VOICEDOC_BASE_URL.
func BaseURL() string {
	return envString("VOICEDOC_BASE_URL", DefaultBaseURL)
}

// StubAddr returns the listen address of the chat stub. Env: VOICEDOC_STUB_ADDR.
func StubAddr() string {
	return envString("VOICEDOC_STUB_ADDR", ":3000")
}

// StubChunkDelay returns the pause between streamed reply chunks, 0 streams
// without pausing. Env: VOICEDOC_STUB_CHUNK_DELAY.
func StubChunkDelay() time.Duration {
	return envDurationOrZero("VOICEDOC_STUB_CHUNK_DELAY", 20*time.Millisecond)
}

// StubRateLimit returns requests allowed per scenario per window, 0 disables limiting.
// Env: VOICEDOC_STUB_RATE_LIMIT.
func StubRateLimit() int {
	return envInt("VOICEDOC_STUB_RATE_LIMIT", 0)
}

// StubRateLimitPer returns the rate limit window. Env: VOICEDOC_STUB_RATE_LIMIT_PER.
func StubRateLimitPer() time.Duration {
	return envDuration("VOICEDOC_STUB_RATE_LIMIT_PER", time.Second)
}

// StubRetryAfterSec returns the Retry-After header value on 429. Env: VOICEDOC_STUB_RETRY_AFTER.
func StubRetryAfterSec() int {
	return envInt("VOICEDOC_STUB_RETRY_AFTER", 1)
}

// StubLimiterMaxStale returns the idle time after which a scenario limiter is dropped.
// Env: VOICEDOC_STUB_LIMITER_MAX_STALE.
func StubLimiterMaxStale() time.Duration {
	return envDuration("VOICEDOC_STUB_LIMITER_MAX_STALE", 5*time.Minute)
}

// StubLimiterEvictThreshold returns the limiter count above which eviction runs.
// Env: VOICEDOC_STUB_LIMITER_EVICT_THRESHOLD.
func StubLimiterEvictThreshold() int {
	return envInt("VOICEDOC_STUB_LIMITER_EVICT_THRESHOLD", 100)
}
