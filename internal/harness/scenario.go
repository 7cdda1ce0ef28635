package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/overlay/internal/state"
)

// DefaultFrame is the frame length used when a scenario does not set one.
const DefaultFrame = 16 * time.Millisecond

// Scenario is one scripted play session with expectations on its outcome.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Data is the content directory, relative to the scenario file.
	Data string `yaml:"data"`

	// Frame is the length of one tick, as a Go duration. Defaults to DefaultFrame.
	Frame string `yaml:"frame,omitempty"`

	// SessionID is a fixed session id for deterministic saves.
	// Defaults to "test-session-default".
	SessionID string `yaml:"session_id,omitempty"`

	// Setup steps run before the flow and are not traced.
	Setup []Step `yaml:"setup,omitempty"`

	// Flow steps are traced.
	Flow []Step `yaml:"flow"`

	// Assertions validate the final trace and state.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one scenario action. Exactly one field is set.
type Step struct {
	Map        *int            `yaml:"map,omitempty"`
	Switch     *SwitchStep     `yaml:"switch,omitempty"`
	Variable   *VariableStep   `yaml:"variable,omitempty"`
	SelfSwitch *SelfSwitchStep `yaml:"self_switch,omitempty"`
	Touch      *TouchStep      `yaml:"touch,omitempty"`
	Tick       int             `yaml:"tick,omitempty"`
	Advance    string          `yaml:"advance,omitempty"`
	Plugin     string          `yaml:"plugin,omitempty"`
	Save       *int            `yaml:"save,omitempty"`
	Load       *int            `yaml:"load,omitempty"`
}

// SwitchStep sets a global switch.
type SwitchStep struct {
	ID    int  `yaml:"id"`
	Value bool `yaml:"value"`
}

// VariableStep sets a global variable to an integer.
type VariableStep struct {
	ID    int   `yaml:"id"`
	Value int64 `yaml:"value"`
}

// SelfSwitchStep sets a self switch of an event on the current map.
type SelfSwitchStep struct {
	Event   int    `yaml:"event"`
	Channel string `yaml:"channel"`
	Value   bool   `yaml:"value"`
}

// TouchStep starts the event at a tile, as when the player bumps into it.
type TouchStep struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
}

// Assertion validates the trace or the final session state.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Kind is the trace entry kind (trace_contains, trace_count).
	Kind string `yaml:"kind,omitempty"`

	// Detail is a subset match on the entry detail (trace_contains, trace_count).
	Detail map[string]any `yaml:"detail,omitempty"`

	// Kinds is the expected order of first occurrences (trace_order).
	Kinds []string `yaml:"kinds,omitempty"`

	// Count is the expected number of matching entries (trace_count).
	Count int `yaml:"count,omitempty"`

	// Lines is every message line expected, in order (messages).
	Lines []string `yaml:"lines,omitempty"`

	// Map and Event locate a map event (self_switch, growth, page).
	// Map defaults to the current map.
	Map   int `yaml:"map,omitempty"`
	Event int `yaml:"event,omitempty"`

	// Channel and Value check a self switch (self_switch).
	Channel string `yaml:"channel,omitempty"`
	Value   bool   `yaml:"value,omitempty"`

	// Status is the expected growth status (growth).
	Status string `yaml:"status,omitempty"`

	// Page is the expected active page (page).
	Page int `yaml:"page,omitempty"`

	// Sources is the expected resident set (resident).
	Sources []string `yaml:"sources,omitempty"`

	// Variable and Equals check a variable's integer value (variable).
	Variable int   `yaml:"variable,omitempty"`
	Equals   int64 `yaml:"equals,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertMessages      = "messages"
	AssertSelfSwitch    = "self_switch"
	AssertGrowth        = "growth"
	AssertPage          = "page"
	AssertResident      = "resident"
	AssertVariable      = "variable"
)

// LoadScenario reads and parses a scenario YAML file. The data directory is
// resolved relative to the file. Unknown fields are rejected.
func LoadScenario(path string) (*Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(raw))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Data != "" && !filepath.IsAbs(scenario.Data) {
		scenario.Data = filepath.Join(filepath.Dir(path), scenario.Data)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// FrameLength parses Frame, falling back to DefaultFrame.
func (s *Scenario) FrameLength() (time.Duration, error) {
	if s.Frame == "" {
		return DefaultFrame, nil
	}
	d, err := time.ParseDuration(s.Frame)
	if err != nil {
		return 0, fmt.Errorf("frame: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("frame must be positive, got %s", d)
	}
	return d, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Data == "" {
		return fmt.Errorf("data directory is required")
	}
	if info, err := os.Stat(s.Data); err != nil || !info.IsDir() {
		return fmt.Errorf("data directory not found: %s", s.Data)
	}
	if _, err := s.FrameLength(); err != nil {
		return err
	}
	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Setup {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("setup[%d]: %w", i, err)
		}
	}
	for i, step := range s.Flow {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("flow[%d]: %w", i, err)
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(a); err != nil {
			return fmt.Errorf("assertions[%d]: %w", i, err)
		}
	}
	return nil
}

func validateStep(step Step) error {
	set := 0
	for _, ok := range []bool{
		step.Map != nil, step.Switch != nil, step.Variable != nil,
		step.SelfSwitch != nil, step.Touch != nil, step.Tick != 0,
		step.Advance != "", step.Plugin != "", step.Save != nil, step.Load != nil,
	} {
		if ok {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("exactly one action per step, got %d", set)
	}
	switch {
	case step.Tick < 0:
		return fmt.Errorf("tick must be positive, got %d", step.Tick)
	case step.Advance != "":
		if _, err := time.ParseDuration(step.Advance); err != nil {
			return fmt.Errorf("advance: %w", err)
		}
	case step.SelfSwitch != nil:
		if !state.Channel(step.SelfSwitch.Channel).Valid() {
			return fmt.Errorf("self_switch: invalid channel %q", step.SelfSwitch.Channel)
		}
	}
	return nil
}

func validateAssertion(a Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("type is required")
	case AssertTraceContains:
		if a.Kind == "" {
			return fmt.Errorf("trace_contains: kind is required")
		}
	case AssertTraceOrder:
		if len(a.Kinds) < 2 {
			return fmt.Errorf("trace_order: at least two kinds are required")
		}
	case AssertTraceCount:
		if a.Kind == "" {
			return fmt.Errorf("trace_count: kind is required")
		}
	case AssertMessages, AssertResident:
	case AssertSelfSwitch:
		if a.Event == 0 || !state.Channel(a.Channel).Valid() {
			return fmt.Errorf("self_switch: event and a valid channel are required")
		}
	case AssertGrowth:
		if a.Event == 0 || a.Status == "" {
			return fmt.Errorf("growth: event and status are required")
		}
	case AssertPage:
		if a.Event == 0 {
			return fmt.Errorf("page: event is required")
		}
	case AssertVariable:
		if a.Variable == 0 {
			return fmt.Errorf("variable: variable id is required")
		}
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}
