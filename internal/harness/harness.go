package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/roach88/overlay/internal/session"
	"github.com/roach88/overlay/internal/source"
	"github.com/roach88/overlay/internal/state"
	"github.com/roach88/overlay/internal/store"
	"github.com/roach88/overlay/internal/testutil"
)

// Harness drives one session through a scenario.
type Harness struct {
	session *session.Session
	saves   *store.Store
	clock   *testutil.FrameClock
	logger  *slog.Logger

	result  *Result
	tracing bool
	seq     int64
	pages   map[int]int
}

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh data store over its content directory
// and a fresh in-memory save database.
//
// Execution flow:
// 1. Open the content and an in-memory save database
// 2. Build a session with a fixed id and a scripted interpreter
// 3. Execute setup steps without tracing
// 4. Execute flow steps, tracing every effect
// 5. Evaluate assertions against the trace and final state
func Run(scenario *Scenario) (*Result, error) {
	return RunWithLogger(scenario, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// RunWithLogger is Run with an explicit logger for the session.
func RunWithLogger(scenario *Scenario, logger *slog.Logger) (*Result, error) {
	frame, err := scenario.FrameLength()
	if err != nil {
		return nil, err
	}

	saves, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer saves.Close()

	h := &Harness{
		saves:  saves,
		clock:  testutil.NewFrameClock(frame),
		logger: logger,
		result: NewResult(),
		pages:  make(map[int]int),
	}

	interp := NewScriptInterpreter(h.record, logger)
	s, err := session.New(session.Options{
		Store:       source.NewStore(source.MultiLoader{Dir: scenario.Data}, source.WithLogger(logger)),
		Interpreter: interp,
		Messages:    h,
		IDs:         testutil.NewFixedIDGenerator(scenario.SessionID),
		Logger:      logger,
	})
	if err != nil {
		return nil, err
	}
	interp.Bind(s)
	h.session = s

	ctx := context.Background()
	if err := h.execute(ctx, scenario.Setup); err != nil {
		return nil, fmt.Errorf("failed to execute setup: %w", err)
	}
	h.tracing = true
	if err := h.execute(ctx, scenario.Flow); err != nil {
		return nil, fmt.Errorf("failed to execute flow: %w", err)
	}

	for _, msg := range EvaluateAssertions(h.result, scenario.Assertions, s) {
		h.result.AddError(msg)
	}
	return h.result, nil
}

// ShowText implements session.MessageSink.
func (h *Harness) ShowText(lines []string) {
	h.result.Messages = append(h.result.Messages, lines...)
	traced := make([]any, len(lines))
	for i, l := range lines {
		traced[i] = l
	}
	h.record(KindShowText, map[string]any{"lines": traced})
}

func (h *Harness) record(kind string, detail map[string]any) {
	if !h.tracing {
		return
	}
	h.seq++
	h.result.Trace = append(h.result.Trace, TraceEntry{
		Kind:   kind,
		Frame:  h.clock.Frame(),
		Seq:    h.seq,
		Detail: detail,
	})
}

func (h *Harness) execute(ctx context.Context, steps []Step) error {
	for i, step := range steps {
		if err := h.step(ctx, step); err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
	}
	return nil
}

func (h *Harness) step(ctx context.Context, step Step) error {
	s := h.session
	switch {
	case step.Map != nil:
		if err := s.SetupMap(ctx, *step.Map); err != nil {
			return err
		}
		h.record(KindSetupMap, map[string]any{"map": *step.Map})
		h.pages = h.activePages()

	case step.Switch != nil:
		s.State.Switches.Set(step.Switch.ID, step.Switch.Value)
		s.Map.SetNeedRefresh()
		h.record(KindSwitch, map[string]any{"id": step.Switch.ID, "value": step.Switch.Value})

	case step.Variable != nil:
		s.State.Variables.SetInt(step.Variable.ID, step.Variable.Value)
		s.Map.SetNeedRefresh()
		h.record(KindVariable, map[string]any{"id": step.Variable.ID, "value": step.Variable.Value})

	case step.SelfSwitch != nil:
		ss := step.SelfSwitch
		key := state.SelfSwitchKey{MapID: s.Map.ID(), EventID: ss.Event, Channel: state.Channel(ss.Channel)}
		s.State.SelfSwitches.Set(key, ss.Value)
		h.record(KindSelfSwitch, map[string]any{"key": key.String(), "value": ss.Value})

	case step.Touch != nil:
		started := s.Map.StartEventAt(step.Touch.X, step.Touch.Y)
		h.record(KindTouch, map[string]any{"x": step.Touch.X, "y": step.Touch.Y, "started": started})

	case step.Tick > 0:
		for range step.Tick {
			h.frame()
		}

	case step.Advance != "":
		d, err := time.ParseDuration(step.Advance)
		if err != nil {
			return err
		}
		for range h.clock.FramesFor(d) {
			h.frame()
		}

	case step.Plugin != "":
		h.record(KindPlugin, map[string]any{"command": step.Plugin})
		if err := s.Plugins.Execute(step.Plugin); err != nil {
			h.record(KindPluginErr, map[string]any{"command": step.Plugin, "error": err.Error()})
		}

	case step.Save != nil:
		save, err := s.Save(ctx, h.saves, *step.Save)
		if err != nil {
			return err
		}
		h.record(KindSave, map[string]any{"slot": save.Slot, "seq": save.Seq, "play_time": save.PlayTime})

	case step.Load != nil:
		if err := s.Load(ctx, h.saves, *step.Load); err != nil {
			return err
		}
		h.record(KindLoad, map[string]any{"slot": *step.Load})
	}
	return nil
}

// frame runs one session update and traces what it changed.
func (h *Harness) frame() {
	_, dt := h.clock.Tick()
	for _, key := range h.session.Update(dt) {
		h.record(KindPromote, map[string]any{"map": key.MapID, "event": key.EventID})
	}

	pages := h.activePages()
	for _, e := range h.session.Map.Events() {
		if pages[e.ID] != h.pages[e.ID] {
			h.record(KindPage, map[string]any{"event": e.ID, "page": pages[e.ID]})
		}
	}
	h.pages = pages
}

func (h *Harness) activePages() map[int]int {
	pages := make(map[int]int)
	for _, e := range h.session.Map.Events() {
		page, ok := e.ActivePage()
		if !ok {
			page = -1
		}
		pages[e.ID] = page
	}
	return pages
}
