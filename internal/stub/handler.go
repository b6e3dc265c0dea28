// Package stub serves a stand-in for the VoiceDoc chat endpoint. It streams
// canned replies and records the same request metrics the real route does, so
// the traffic generator can be demonstrated without the LLM backend.
package stub

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"time"

	"go.uber.org/zap"

	"github.com/aaron/voicedoc-traffic/internal/chat"
	"github.com/aaron/voicedoc-traffic/internal/config"
	"github.com/aaron/voicedoc-traffic/internal/metrics"
	"github.com/aaron/voicedoc-traffic/internal/persona"
)

// errForced is what a forceError turn fails with.
var errForced = errors.New("Synthetic Gemini failure for Datadog demo")

var narrationPattern = regexp.MustCompile(`(?i)^(read|narrate|tell me|recite|play|start|begin|chapter|section)`)

// request is the chat turn body. Context is accepted for parity with the app
// but only echoed in logs.
type request struct {
	chat.Payload
	Context string `json:"context"`
}

// Handler holds dependencies for the stub's HTTP handlers.
type Handler struct {
	Metrics    *metrics.Metrics
	Logger     *zap.SugaredLogger
	ChunkDelay time.Duration
}

// New creates a Handler. A nil logger discards logs.
func New(m *metrics.Metrics, logger *zap.SugaredLogger, chunkDelay time.Duration) *Handler {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Handler{Metrics: m, Logger: logger, ChunkDelay: chunkDelay}
}

// Routes registers the chat, health and metrics endpoints.
func (h *Handler) Routes(metricsHandler http.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST "+config.ChatPath, h.Chat)
	mux.HandleFunc("GET "+config.ChatPath, h.Describe)
	mux.HandleFunc("GET /health", Health)
	if metricsHandler != nil {
		mux.Handle("GET /metrics", metricsHandler)
	}
	return mux
}

// Health reports liveness.
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Describe reports what the chat endpoint accepts.
func (h *Handler) Describe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, chat.Descriptor{
		Status:         "ok",
		Endpoint:       config.ChatPath,
		Method:         http.MethodPost,
		RequiredFields: []string{"query", "history"},
		OptionalFields: []string{"context", "filename"},
	})
}

// Chat answers one turn: forced errors get a 500, empty queries a 400, and
// everything else a streamed plain-text reply.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	traffic := headerOr(r, config.TrafficHeader, "user")
	scenario := headerOr(r, config.ScenarioHeader, "normal")

	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.fail(w, fmt.Errorf("decode request: %w", err), metrics.VoiceStandard, traffic, start)
		return
	}
	voiceMode := metrics.VoiceMode(req.ExpressiveMode)
	name := req.Persona
	if name == "" {
		name = persona.Default
	}
	narration := narrationPattern.MatchString(req.Query)

	h.Logger.Infow("received request",
		"queryPreview", preview(req.Query, 50),
		"filename", req.Filename,
		"persona", name,
		"expressiveMode", req.ExpressiveMode,
		"forceError", req.ForceError,
		"hasContext", req.Context != "",
		"traffic", traffic,
		"scenario", scenario,
	)
	h.Metrics.RecordHit(voiceMode, narration, traffic)
	h.Metrics.RecordPersona(name, traffic)

	if req.ForceError {
		h.Logger.Errorw("forced synthetic error triggered", "scenario", scenario)
		h.Metrics.RecordError("forced_error", voiceMode, traffic)
		h.fail(w, errForced, voiceMode, traffic, start)
		return
	}
	if req.Query == "" {
		h.Metrics.RecordError("no_query", voiceMode, traffic)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Query required"})
		return
	}

	h.stream(w, r, composeReply(name, req.Filename, req.ExpressiveMode), voiceMode, narration, traffic)
}

func (h *Handler) stream(w http.ResponseWriter, r *http.Request, chunks []string, voiceMode string, narration bool, traffic string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher, _ := w.(http.Flusher)

	start := time.Now()
	total := 0
	for i, chunk := range chunks {
		if i > 0 && h.ChunkDelay > 0 {
			select {
			case <-r.Context().Done():
				h.Metrics.RecordError("generator_error", voiceMode, traffic)
				h.Metrics.RecordDuration(time.Since(start), voiceMode, narration, traffic)
				h.Logger.Warnw("client went away mid-stream", "chunks", i, "error", r.Context().Err())
				return
			case <-time.After(h.ChunkDelay):
			}
		}
		if _, err := w.Write([]byte(chunk)); err != nil {
			h.Metrics.RecordError("generator_error", voiceMode, traffic)
			h.Metrics.RecordDuration(time.Since(start), voiceMode, narration, traffic)
			h.Logger.Warnw("write chunk", "error", err)
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
		if i == 0 {
			h.Metrics.RecordTTFT(time.Since(start), voiceMode, narration, traffic)
		}
		total += len(chunk)
	}
	elapsed := time.Since(start)
	h.Metrics.RecordSuccess(voiceMode, traffic)
	h.Metrics.RecordDuration(elapsed, voiceMode, narration, traffic)
	h.Metrics.RecordResponseLength(total, voiceMode, traffic)
	h.Logger.Infow("request completed", "duration", elapsed, "chars", total, "chunks", len(chunks))
}

func (h *Handler) fail(w http.ResponseWriter, err error, voiceMode, traffic string, start time.Time) {
	h.Logger.Errorw("chat request failed", "error", err)
	h.Metrics.RecordError("api_error", voiceMode, traffic)
	h.Metrics.RecordDuration(time.Since(start), voiceMode, false, traffic)
	writeJSON(w, http.StatusInternalServerError, map[string]string{
		"error":     "Failed to generate response",
		"details":   err.Error(),
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func headerOr(r *http.Request, name, fallback string) string {
	if v := r.Header.Get(name); v != "" {
		return v
	}
	return fallback
}

func preview(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// composeReply builds the canned reply as stream chunks. Expressive turns get
// a longer reply, which is the latency the expressive suffix asks for.
func composeReply(name, filename string, expressive bool) []string {
	if filename == "" {
		filename = persona.Filename(name)
	}
	sentences := []string{
		fmt.Sprintf("Speaking as your %s guide to %s. ", name, filename),
		"The document opens by stating its purpose and scope. ",
		"Its central section lays out the main obligations, figures, or arguments. ",
		"The closing part lists open issues worth a second look. ",
	}
	if expressive {
		sentences = append(sentences,
			"Let me pause here... because this next part matters. ",
			"There is a quiet tension running through the text, and it deserves care. ",
			"Each detail, taken slowly, adds weight to the whole. ",
			"And so, with a breath, we arrive at what it all means for you. ",
		)
	}
	return sentences
}
