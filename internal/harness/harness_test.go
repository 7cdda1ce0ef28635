package harness

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/overlay/internal/session"
)

func intPtr(n int) *int { return &n }

func TestRunWithGolden_FarmPlotCycle(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/farm_plot_cycle.yaml")
	require.NoError(t, err)

	result, err := RunWithGolden(t, scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_ScriptedCommands(t *testing.T) {
	scenario := &Scenario{
		Name:        "cellar_lever",
		Description: "A lever in the cellar opens the farm gate",
		Data:        "testdata/content",
		Setup:       []Step{{Map: intPtr(2)}},
		Flow: []Step{
			{Touch: &TouchStep{X: 0, Y: 0}},
			{Tick: 5},
			{Map: intPtr(1)},
		},
		Assertions: []Assertion{
			{Type: AssertMessages, Lines: []string{"Something clicks upstairs."}},
			{Type: AssertSelfSwitch, Map: 2, Event: 1, Channel: "C", Value: true},
			{Type: AssertPage, Event: 1, Page: 1},
			{Type: AssertPage, Event: 3, Page: -1},
			{Type: AssertTraceOrder, Kinds: []string{KindTouch, KindRun, KindShowText, KindSetupMap}},
			{Type: AssertTraceCount, Kind: KindRun, Count: 1},
			{Type: AssertResident, Sources: nil},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_DirectStepsAndSaveLoad(t *testing.T) {
	scenario := &Scenario{
		Name:        "save_load",
		Description: "Loading a save brings back a planted plot",
		Data:        "testdata/content",
		Frame:       "1s",
		Setup:       []Step{{Map: intPtr(1)}},
		Flow: []Step{
			{Variable: &VariableStep{ID: 9, Value: 5}},
			{Plugin: "check_soil(4)"},
			{Plugin: "check_soil(4)"},
			{Tick: 1},
			{Save: intPtr(2)},
			{SelfSwitch: &SelfSwitchStep{Event: 4, Channel: "B", Value: false}},
			{SelfSwitch: &SelfSwitchStep{Event: 4, Channel: "A", Value: false}},
			{Tick: 1},
			{Load: intPtr(2)},
			{Tick: 1},
			{Advance: "20s"},
		},
		Assertions: []Assertion{
			{Type: AssertMessages, Lines: []string{session.MsgTilled, session.MsgPlanted}},
			{Type: AssertPage, Event: 3, Page: 0},
			{Type: AssertPage, Event: 4, Page: 3},
			{Type: AssertGrowth, Event: 4, Status: "harvestable"},
			{Type: AssertTraceContains, Kind: KindSave, Detail: map[string]any{"slot": 2, "seq": 1}},
			{Type: AssertTraceContains, Kind: KindLoad, Detail: map[string]any{"slot": 2}},
			{Type: AssertTraceCount, Kind: KindPage, Detail: map[string]any{"event": 4, "page": 2}, Count: 2},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_PluginErrorsAreTraced(t *testing.T) {
	scenario := &Scenario{
		Name:        "bad_plugin",
		Description: "Unknown commands are traced, not fatal",
		Data:        "testdata/content",
		Setup:       []Step{{Map: intPtr(1)}},
		Flow:        []Step{{Plugin: "water_crops(4)"}, {Plugin: "check_soil('x')"}},
		Assertions: []Assertion{
			{Type: AssertTraceCount, Kind: KindPluginErr, Count: 2},
			{Type: AssertMessages},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Contains(t, result.Trace[1].Detail["error"], "unknown plugin command")
}

func TestRun_FailedAssertionsAreReported(t *testing.T) {
	scenario := &Scenario{
		Name:        "wrong",
		Description: "Expectations that do not hold",
		Data:        "testdata/content",
		Setup:       []Step{{Map: intPtr(1)}},
		Flow:        []Step{{Tick: 1}},
		Assertions: []Assertion{
			{Type: AssertMessages, Lines: []string{"hello"}},
			{Type: AssertSelfSwitch, Event: 4, Channel: "A", Value: true},
			{Type: AssertGrowth, Event: 4, Status: "harvestable"},
			{Type: AssertPage, Event: 99},
			{Type: AssertTraceContains, Kind: KindPromote},
			{Type: AssertResident, Sources: []string{"actors"}},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 6)
	assert.True(t, strings.HasPrefix(result.Errors[0], "assertion 0: Assertion failed: messages"))
	assert.Contains(t, result.Errors[3], "no such event")
}

func TestRun_MissingMapFails(t *testing.T) {
	scenario := &Scenario{
		Name:        "no_map",
		Description: "Setting up a map that does not exist",
		Data:        "testdata/content",
		Flow:        []Step{{Map: intPtr(9)}},
		Assertions:  []Assertion{{Type: AssertMessages}},
	}

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to execute flow")
}

func TestMarshalTrace(t *testing.T) {
	out, err := MarshalTrace([]TraceEntry{
		{Kind: KindTouch, Frame: 2, Seq: 1, Detail: map[string]any{"y": 1, "x": 0, "started": false}},
		{Kind: KindTouch, Frame: 3, Seq: 2},
	})
	require.NoError(t, err)
	assert.Equal(t,
		`{"detail":{"started":false,"x":0,"y":1},"frame":2,"kind":"touch","seq":1}`+"\n"+
			`{"frame":3,"kind":"touch","seq":2}`+"\n",
		string(out))
}
