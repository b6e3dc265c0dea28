package driver

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/aaron/voicedoc-traffic/internal/chat"
	"github.com/aaron/voicedoc-traffic/internal/persona"
)

// ExpressiveSuffix is appended to non-empty queries in expressive mode to
// stretch the reply and its latency.
const ExpressiveSuffix = " Please provide a deeply emotional, nuanced, and detailed response with natural pauses and hesitations."

// DefaultScenario labels turns that name no scenario.
const DefaultScenario = "normal"

// Sender delivers one chat turn. *chat.Client implements it.
type Sender interface {
	Send(ctx context.Context, scenario string, payload chat.Payload) (*chat.Response, error)
}

// Turn is one simulated user message.
type Turn struct {
	Query          string `yaml:"query"`
	Persona        string `yaml:"persona"`
	ExpressiveMode bool   `yaml:"expressiveMode"`
	Scenario       string `yaml:"scenario"`
	ForceError     bool   `yaml:"forceError,omitempty"`
}

// Result is what happened to a single turn.
type Result struct {
	Persona    string
	Payload    chat.Payload
	StatusCode int
	Bytes      int64
	Duration   time.Duration
	Err        error
}

// OK reports whether the turn completed, whatever its status code.
func (r Result) OK() bool { return r.Err == nil }

// Summary tallies a run.
type Summary struct {
	Sent      int
	Completed int
	Failed    int
	Statuses  map[int]int
}

// Driver sends scripted chat turns one at a time and reports each to out.
type Driver struct {
	sender Sender
	out    io.Writer
	logger *zap.SugaredLogger
	sleep  func(time.Duration)
}

// Option customises a Driver.
type Option func(d *Driver)

// WithLogger sets the diagnostic logger.
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(d *Driver) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithSleep replaces time.Sleep for the pauses between turns.
func WithSleep(sleep func(time.Duration)) Option {
	return func(d *Driver) {
		if sleep != nil {
			d.sleep = sleep
		}
	}
}

// New creates a driver that sends through sender and prints status lines to out.
func New(sender Sender, out io.Writer, opts ...Option) *Driver {
	d := &Driver{
		sender: sender,
		out:    out,
		logger: zap.NewNop().Sugar(),
		sleep:  time.Sleep,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// BuildPayload resolves the persona's document and applies expressive mode.
func BuildPayload(turn Turn) chat.Payload {
	name := turn.Persona
	if name == "" {
		name = persona.Default
	}
	query := turn.Query
	if turn.ExpressiveMode && query != "" {
		query += ExpressiveSuffix
	}
	return chat.Payload{
		Query:          query,
		History:        []chat.Message{},
		Persona:        name,
		Filename:       persona.Filename(name),
		ExpressiveMode: turn.ExpressiveMode,
		ForceError:     turn.ForceError,
	}
}

// SimulateChat sends one turn and prints whether it completed. Transport
// failures are printed and swallowed; error statuses count as completed.
func (d *Driver) SimulateChat(ctx context.Context, turn Turn) Result {
	scenario := turn.Scenario
	if scenario == "" {
		scenario = DefaultScenario
	}
	payload := BuildPayload(turn)
	tag := payload.Persona
	if !persona.Known(tag) {
		d.logger.Debugw("unknown persona, using fallback document", "persona", tag, "filename", payload.Filename)
	}
	d.printf("[%s] Sending query for %s: %s (Expressive: %t, Scenario: %s)\n",
		tag, payload.Filename, turn.Query, turn.ExpressiveMode, scenario)

	result := Result{Persona: tag, Payload: payload}
	start := time.Now()
	resp, err := d.sender.Send(ctx, scenario, payload)
	result.Duration = time.Since(start)
	if resp != nil {
		result.StatusCode = resp.StatusCode
		result.Bytes = resp.Bytes
	}
	if err != nil {
		result.Err = err
		d.logger.Debugw("turn failed", "persona", tag, "scenario", scenario, "duration", result.Duration, "error", err)
		d.printf("[%s] ❌ Request failed: %v\n", tag, err)
		return result
	}
	d.logger.Debugw("turn complete", "persona", tag, "scenario", scenario,
		"status", result.StatusCode, "bytes", result.Bytes, "duration", result.Duration)
	d.printf("[%s] ✅ Request complete (Status: %d)\n", tag, result.StatusCode)
	return result
}

// Run executes script in order, pausing after each step as it says.
// Results never change what runs next.
func (d *Driver) Run(ctx context.Context, script []Step) Summary {
	summary := Summary{Statuses: map[int]int{}}
	for _, step := range script {
		if step.Banner != "" {
			d.printf("%s\n", step.Banner)
		}
		if step.Turn != nil {
			d.logger.Debugw("step", "phase", step.Phase, "scenario", step.Turn.Scenario)
			r := d.SimulateChat(ctx, *step.Turn)
			summary.Sent++
			if r.OK() {
				summary.Completed++
				summary.Statuses[r.StatusCode]++
			} else {
				summary.Failed++
			}
		}
		if step.Pause > 0 {
			d.sleep(step.Pause)
		}
	}
	d.logger.Infow("run finished", "sent", summary.Sent, "completed", summary.Completed, "failed", summary.Failed)
	return summary
}

func (d *Driver) printf(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(d.out, format, args...); err != nil {
		d.logger.Debugw("write status line", "error", err)
	}
}
