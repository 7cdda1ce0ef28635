package harness

import (
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/roach88/overlay/internal/data"
	"github.com/roach88/overlay/internal/session"
	"github.com/roach88/overlay/internal/state"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Trace    []TraceEntry
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, entry := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] frame %d %s %v\n", entry.Seq, entry.Frame, entry.Kind, entry.Detail)
		}
	}
	return buf.String()
}

// EvaluateAssertions checks every assertion and returns the failure
// messages, in assertion order.
func EvaluateAssertions(result *Result, assertions []Assertion, s *session.Session) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluate(result, a, s); err != nil {
			errs = append(errs, fmt.Sprintf("assertion %d: %v", i, err))
		}
	}
	return errs
}

func evaluate(result *Result, a Assertion, s *session.Session) error {
	switch a.Type {
	case AssertTraceContains:
		return assertTraceContains(result.Trace, a)
	case AssertTraceOrder:
		return assertTraceOrder(result.Trace, a)
	case AssertTraceCount:
		return assertTraceCount(result.Trace, a)
	case AssertMessages:
		return assertMessages(result.Messages, a)
	case AssertSelfSwitch:
		return assertSelfSwitch(s, a)
	case AssertGrowth:
		return assertGrowth(s, a)
	case AssertPage:
		return assertPage(s, a)
	case AssertResident:
		return assertResident(s, a)
	case AssertVariable:
		return assertVariable(s, a)
	}
	return fmt.Errorf("unknown assertion type %q", a.Type)
}

func assertTraceContains(trace []TraceEntry, a Assertion) error {
	for _, entry := range trace {
		if entry.Kind == a.Kind && matchDetail(entry.Detail, a.Detail) {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: fmt.Sprintf("%s with detail %v", a.Kind, a.Detail),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks that the first entry of each kind appears in
// order. Other entries may come between them.
func assertTraceOrder(trace []TraceEntry, a Assertion) error {
	positions := make(map[string]int)
	for i, entry := range trace {
		if _, seen := positions[entry.Kind]; !seen {
			positions[entry.Kind] = i + 1
		}
	}

	for _, kind := range a.Kinds {
		if positions[kind] == 0 {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("all kinds present: %v", a.Kinds),
				Actual:   fmt.Sprintf("missing kind: %s", kind),
				Trace:    trace,
			}
		}
	}
	for i := 1; i < len(a.Kinds); i++ {
		prev, curr := a.Kinds[i-1], a.Kinds[i]
		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("kinds in order: %v", a.Kinds),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: trace,
			}
		}
	}
	return nil
}

func assertTraceCount(trace []TraceEntry, a Assertion) error {
	count := 0
	for _, entry := range trace {
		if entry.Kind == a.Kind && matchDetail(entry.Detail, a.Detail) {
			count++
		}
	}
	if count != a.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%s appears %d times", a.Kind, a.Count),
			Actual:   fmt.Sprintf("appears %d times", count),
			Trace:    trace,
		}
	}
	return nil
}

func assertMessages(messages []string, a Assertion) error {
	want := a.Lines
	if want == nil {
		want = []string{}
	}
	if !slices.Equal(messages, want) {
		return &AssertionError{
			Type:     AssertMessages,
			Expected: fmt.Sprintf("%q", want),
			Actual:   fmt.Sprintf("%q", messages),
		}
	}
	return nil
}

func mapID(s *session.Session, a Assertion) int {
	if a.Map != 0 {
		return a.Map
	}
	return s.Map.ID()
}

func assertSelfSwitch(s *session.Session, a Assertion) error {
	key := state.SelfSwitchKey{MapID: mapID(s, a), EventID: a.Event, Channel: state.Channel(a.Channel)}
	if got := s.State.SelfSwitches.Get(key); got != a.Value {
		return &AssertionError{
			Type:     AssertSelfSwitch,
			Expected: fmt.Sprintf("%s = %t", key, a.Value),
			Actual:   fmt.Sprintf("%s = %t", key, got),
		}
	}
	return nil
}

func assertGrowth(s *session.Session, a Assertion) error {
	m := mapID(s, a)
	if got := s.Growth.Status(m, a.Event); got != a.Status {
		return &AssertionError{
			Type:     AssertGrowth,
			Expected: fmt.Sprintf("map %d event %d %q", m, a.Event, a.Status),
			Actual:   fmt.Sprintf("%q", got),
		}
	}
	return nil
}

func assertVariable(s *session.Session, a Assertion) error {
	if got := s.State.Variables.Int(a.Variable); got != a.Equals {
		return &AssertionError{
			Type:     AssertVariable,
			Expected: fmt.Sprintf("variable %d = %d", a.Variable, a.Equals),
			Actual:   fmt.Sprintf("%d", got),
		}
	}
	return nil
}

func assertPage(s *session.Session, a Assertion) error {
	e, ok := s.Map.Event(a.Event)
	if !ok {
		return &AssertionError{
			Type:     AssertPage,
			Expected: fmt.Sprintf("event %d on map %d", a.Event, s.Map.ID()),
			Actual:   "no such event",
		}
	}
	got, ok := e.ActivePage()
	if !ok {
		got = -1
	}
	if got != a.Page {
		return &AssertionError{
			Type:     AssertPage,
			Expected: fmt.Sprintf("event %d page %d", a.Event, a.Page),
			Actual:   fmt.Sprintf("page %d", got),
		}
	}
	return nil
}

func assertResident(s *session.Session, a Assertion) error {
	got := s.Store.Resident()
	want := slices.Sorted(slices.Values(a.Sources))
	if !slices.Equal(got, want) {
		return &AssertionError{
			Type:     AssertResident,
			Expected: fmt.Sprintf("%v", want),
			Actual:   fmt.Sprintf("%v", got),
		}
	}
	return nil
}

// matchDetail reports whether actual holds every expected field. YAML and
// trace values are compared after conversion to data values, so int and
// int64 compare equal.
func matchDetail(actual, expected map[string]any) bool {
	for key, want := range expected {
		got, ok := actual[key]
		if !ok {
			return false
		}
		wv, err := data.FromAny(want)
		if err != nil {
			return false
		}
		gv, err := data.FromAny(got)
		if err != nil {
			return false
		}
		if !reflect.DeepEqual(wv, gv) {
			return false
		}
	}
	return true
}
