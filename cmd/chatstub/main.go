// chatstub serves a local stand-in for the VoiceDoc /api/gemini route so
// trafficgen can be run without the real app.
//
//	go run ./cmd/chatstub
//	VOICEDOC_STUB_RATE_LIMIT=3 go run ./cmd/chatstub
package main

import (
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/aaron/voicedoc-traffic/internal/config"
	"github.com/aaron/voicedoc-traffic/internal/metrics"
	"github.com/aaron/voicedoc-traffic/internal/middleware"
	"github.com/aaron/voicedoc-traffic/internal/stub"
)

func main() {
	newLogger := zap.NewProduction
	if config.Debug() {
		newLogger = zap.NewDevelopment
	}
	zl, err := newLogger()
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()
	logger := zl.Sugar()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New()
	if err := m.Register(reg); err != nil {
		logger.Fatalw("register metrics", "error", err)
	}

	h := stub.New(m, logger, config.StubChunkDelay())
	var handler http.Handler = h.Routes(promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	if n := config.StubRateLimit(); n > 0 {
		limiter := middleware.NewLimiter(n, config.StubRateLimitPer())
		handler = limiter.Middleware(handler)
		logger.Infow("per-scenario rate limit enabled", "requests", n, "per", config.StubRateLimitPer())
	}
	handler = m.Middleware(handler)

	addr := config.StubAddr()
	logger.Infow("listening", "addr", addr, "endpoint", config.ChatPath)
	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.Fatalw("serve", "error", err)
	}
}
