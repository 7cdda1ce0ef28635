// Package harness runs scripted play scenarios against a real session.
//
// A scenario names a content directory, a sequence of steps and a list of
// assertions. Each run gets a fresh session over its own data store and an
// in-memory save database, a fixed session id and fixed-length frames, so
// the trace it records is byte-identical from run to run.
//
// # Scenario Format
//
//	name: farm_plot_cycle
//	description: "Tilling, planting and harvesting one plot"
//	data: content
//	frame: 1s
//	setup:
//	  - map: 1
//	flow:
//	  - touch: {x: 3, y: 2}
//	  - tick: 3
//	  - advance: 20s
//	  - self_switch: {event: 4, channel: A, value: true}
//	  - plugin: "check_soil(4)"
//	  - save: 1
//	assertions:
//	  - type: trace_contains
//	    kind: promote
//	    detail: {map: 1, event: 4}
//	  - type: self_switch
//	    map: 1
//	    event: 4
//	    channel: D
//	    value: true
//
// Every step sets exactly one field. touch bumps the event at (x, y); tick
// runs N frames; advance runs however many frames cover the duration.
//
// # Assertion Types
//
//   - trace_contains: a trace entry of kind whose detail contains the given fields
//   - trace_order: the first entries of each kind appear in the given order
//   - trace_count: exactly count entries of kind (optionally filtered by detail)
//   - messages: the full list of lines shown, in order
//   - self_switch: the final value of one self switch
//   - growth: the final growth status of one map event
//   - page: the final active page of one event on the current map (-1 for none)
//   - resident: the sources still resident in the data store
//   - variable: the integer value of a variable
//
// # Golden Files
//
// RunWithGolden writes the trace as canonical JSON lines and compares it
// with testdata/golden/<name>.golden. Regenerate with:
//
//	go test ./internal/harness -update
package harness
