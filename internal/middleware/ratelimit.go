package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/aaron/voicedoc-traffic/internal/config"
)

// Limiter rate limits chat turns per traffic scenario so a burst phase can
// be pushed into 429s without touching other scenarios.
type Limiter struct {
	limit    rate.Limit
	burst    int
	mu       sync.Mutex
	limiters map[string]*scenarioLimiter
}

type scenarioLimiter struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// NewLimiter allows requests per scenario per window.
// Example: NewLimiter(3, time.Second) = 3 turns/s per scenario.
func NewLimiter(requests int, per time.Duration) *Limiter {
	if requests <= 0 {
		requests = 1
	}
	return &Limiter{
		limit:    rate.Every(per / time.Duration(requests)),
		burst:    requests,
		limiters: make(map[string]*scenarioLimiter),
	}
}

// Allow reports whether a turn tagged with scenario should be served.
func (l *Limiter) Allow(scenario string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if len(l.limiters) > config.StubLimiterEvictThreshold() {
		l.evictStale(now)
	}
	s, ok := l.limiters[scenario]
	if !ok {
		s = &scenarioLimiter{lim: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[scenario] = s
	}
	s.lastSeen = now
	return s.lim.AllowN(now, 1)
}

// evictStale drops limiters idle for longer than the configured max. Caller holds mu.
func (l *Limiter) evictStale(now time.Time) {
	maxStale := config.StubLimiterMaxStale()
	for k, s := range l.limiters {
		if now.Sub(s.lastSeen) > maxStale {
			delete(l.limiters, k)
		}
	}
}

func (l *Limiter) limiterCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}

// Middleware rate limits POSTs by the X-VoiceDoc-Scenario header.
// Other methods pass through.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			next.ServeHTTP(w, r)
			return
		}
		if !l.Allow(scenarioOf(r)) {
			w.Header().Set("Retry-After", strconv.Itoa(config.StubRetryAfterSec()))
			http.Error(w, "rate limited", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func scenarioOf(r *http.Request) string {
	if s := r.Header.Get(config.ScenarioHeader); s != "" {
		return s
	}
	return "normal"
}
