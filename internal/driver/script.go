package driver

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aaron/voicedoc-traffic/internal/persona"
)

const (
	PhaseWarmup  = "warmup"
	PhaseSweep   = "persona-sweep"
	PhaseBurst   = "burst"
	PhaseFailure = "forced-error"

	StartBanner = "🚀 Starting VoiceDoc Traffic Generator (Datadog Challenge Edition)"
	BurstBanner = "🔥 Starting burst traffic..."
	ErrorBanner = "💥 Simulating intentional Gemini error..."
	DoneBanner  = "🏁 Traffic generation complete."

	// BurstSize is the number of back-to-back burst turns.
	BurstSize = 5
	// TurnPause follows warm-up and persona sweep turns.
	TurnPause = time.Second
	// BurstPause follows each burst turn.
	BurstPause = 500 * time.Millisecond
)

// SweepPersonas are swept in this order; narrative is left to the default turns.
var SweepPersonas = []string{persona.Legal, persona.Financial, persona.Technical, persona.Academic}

// Step is one entry of a traffic script: an optional banner line, an optional
// turn, then an optional pause.
type Step struct {
	Phase  string
	Banner string
	Turn   *Turn
	Pause  time.Duration
}

// Script returns the fixed traffic sequence: warm-up, persona sweep, burst,
// then one forced error.
func Script() []Step {
	steps := []Step{
		{Banner: StartBanner},
		{Phase: PhaseWarmup, Turn: &Turn{
			Query:    "Hello! What is this document about?",
			Persona:  persona.Default,
			Scenario: "warmup",
		}, Pause: TurnPause},
	}
	for _, p := range SweepPersonas {
		steps = append(steps,
			Step{Phase: PhaseSweep, Turn: &Turn{
				Query:          "Give me a brief summary of the key points.",
				Persona:        p,
				ExpressiveMode: true,
				Scenario:       "persona-test",
			}, Pause: TurnPause},
			Step{Phase: PhaseSweep, Turn: &Turn{
				Query:    "What are the risks?",
				Persona:  p,
				Scenario: "persona-test",
			}, Pause: TurnPause},
		)
	}
	steps = append(steps, Step{Banner: BurstBanner})
	for i := 0; i < BurstSize; i++ {
		steps = append(steps, Step{Phase: PhaseBurst, Turn: &Turn{
			Query:          fmt.Sprintf("Burst query %d: Describe the methodology in detail.", i),
			Persona:        persona.Technical,
			ExpressiveMode: true,
			Scenario:       "burst-test",
		}, Pause: BurstPause})
	}
	steps = append(steps,
		Step{Banner: ErrorBanner},
		Step{Phase: PhaseFailure, Turn: &Turn{
			Query:      "This query will fail.",
			Persona:    persona.Default,
			Scenario:   "error-demo",
			ForceError: true,
		}},
		Step{Banner: DoneBanner},
	)
	return steps
}

type planEntry struct {
	Phase    string `yaml:"phase"`
	Turn     Turn   `yaml:"turn"`
	Filename string `yaml:"filename"`
	Pause    string `yaml:"pause,omitempty"`
}

// PlanYAML renders the turns of script, without banners, as a YAML list.
func PlanYAML(script []Step) ([]byte, error) {
	var entries []planEntry
	for _, step := range script {
		if step.Turn == nil {
			continue
		}
		e := planEntry{
			Phase:    step.Phase,
			Turn:     *step.Turn,
			Filename: BuildPayload(*step.Turn).Filename,
		}
		if step.Pause > 0 {
			e.Pause = step.Pause.String()
		}
		entries = append(entries, e)
	}
	return yaml.Marshal(entries)
}
