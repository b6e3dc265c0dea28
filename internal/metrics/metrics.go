package metrics

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aaron/voicedoc-traffic/internal/config"
)

// Voice modes used as the voice_mode label.
const (
	VoiceStandard   = "standard"
	VoiceExpressive = "expressive"
)

// VoiceMode maps the expressive flag to its label value.
func VoiceMode(expressive bool) string {
	if expressive {
		return VoiceExpressive
	}
	return VoiceStandard
}

// Metrics holds the chat stub's collectors. Traffic source comes from the
// X-VoiceDoc-Traffic header so synthetic load can be told apart from users.
type Metrics struct {
	Hits            *prometheus.CounterVec
	Personas        *prometheus.CounterVec
	Successes       *prometheus.CounterVec
	Errors          *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	TTFT            *prometheus.HistogramVec
	ResponseLength  *prometheus.HistogramVec
	HTTPRequests    *prometheus.CounterVec
}

// New creates unregistered collectors.
func New() *Metrics {
	return &Metrics{
		Hits: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "voicedoc_request_hits_total", Help: "Chat requests received"},
			[]string{"voice_mode", "narration", "traffic"},
		),
		Personas: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "voicedoc_persona_usage_total", Help: "Chat requests per persona"},
			[]string{"persona", "traffic"},
		),
		Successes: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "voicedoc_request_success_total", Help: "Chat replies streamed to completion"},
			[]string{"voice_mode", "traffic"},
		),
		Errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "voicedoc_request_errors_total", Help: "Chat request failures by error type"},
			[]string{"error_type", "voice_mode", "traffic"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "voicedoc_request_duration_seconds",
				Help:    "Chat request latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"voice_mode", "narration", "traffic"},
		),
		TTFT: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "voicedoc_time_to_first_token_seconds",
				Help:    "Time until the first reply chunk was written",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"voice_mode", "narration", "traffic"},
		),
		ResponseLength: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "voicedoc_response_length_chars",
				Help:    "Length of streamed replies",
				Buckets: []float64{100, 250, 500, 1000, 2000, 4000, 8000},
			},
			[]string{"voice_mode", "traffic"},
		),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "voicedoc_http_requests_total", Help: "HTTP requests by path and status code"},
			[]string{"path", "code"},
		),
	}
}

// Collectors returns every collector for registration.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.Hits, m.Personas, m.Successes, m.Errors,
		m.RequestDuration, m.TTFT, m.ResponseLength, m.HTTPRequests,
	}
}

// Register registers all collectors with reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) RecordHit(voiceMode string, narration bool, traffic string) {
	m.Hits.WithLabelValues(voiceMode, strconv.FormatBool(narration), traffic).Inc()
}

func (m *Metrics) RecordPersona(persona, traffic string) {
	m.Personas.WithLabelValues(persona, traffic).Inc()
}

func (m *Metrics) RecordSuccess(voiceMode, traffic string) {
	m.Successes.WithLabelValues(voiceMode, traffic).Inc()
}

func (m *Metrics) RecordError(errorType, voiceMode, traffic string) {
	m.Errors.WithLabelValues(errorType, voiceMode, traffic).Inc()
}

func (m *Metrics) RecordDuration(d time.Duration, voiceMode string, narration bool, traffic string) {
	m.RequestDuration.WithLabelValues(voiceMode, strconv.FormatBool(narration), traffic).Observe(d.Seconds())
}

func (m *Metrics) RecordTTFT(d time.Duration, voiceMode string, narration bool, traffic string) {
	m.TTFT.WithLabelValues(voiceMode, strconv.FormatBool(narration), traffic).Observe(d.Seconds())
}

func (m *Metrics) RecordResponseLength(chars int, voiceMode, traffic string) {
	m.ResponseLength.WithLabelValues(voiceMode, traffic).Observe(float64(chars))
}

// responseRecorder captures status for metrics and keeps streaming working.
type responseRecorder struct {
	http.ResponseWriter
	status int
}

func (r *responseRecorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

func (r *responseRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *responseRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := r.ResponseWriter.(http.Hijacker); ok {
		return h.Hijack()
	}
	return nil, nil, errors.New("hijack not supported")
}

// paths excluded from traffic metrics (monitoring endpoints)
var excludedPaths = map[string]bool{"/metrics": true, "/health": true}

// otherPath labels every request outside the served routes.
const otherPath = "other"

// routeLabel keeps the path label bounded: unknown paths share one series.
func routeLabel(path string) string {
	if path == config.ChatPath {
		return path
	}
	return otherPath
}

// Middleware counts requests by route and final status code.
// /metrics and /health are excluded so scrapes do not show up as traffic.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if excludedPaths[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}
		rec := &responseRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)
		status := rec.status
		if status == 0 {
			status = http.StatusOK
		}
		m.HTTPRequests.WithLabelValues(routeLabel(r.URL.Path), strconv.Itoa(status)).Inc()
	})
}
