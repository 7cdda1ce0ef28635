package state

import (
	"log/slog"
	"maps"
	"slices"
	"strconv"

	"github.com/roach88/overlay/internal/data"
)

// Switches is the global flag table. Unset ids read as false.
type Switches struct {
	values map[int]bool
	logger *slog.Logger
}

// NewSwitches returns an empty table. A nil logger means slog.Default.
func NewSwitches(logger *slog.Logger) *Switches {
	if logger == nil {
		logger = slog.Default()
	}
	return &Switches{values: make(map[int]bool), logger: logger}
}

// Get returns the flag for id.
func (s *Switches) Get(id int) bool {
	return s.values[id]
}

// Set stores the flag for id.
func (s *Switches) Set(id int, v bool) {
	s.values[id] = v
}

// IDs returns the ids that have been set, sorted.
func (s *Switches) IDs() []int {
	return slices.Sorted(maps.Keys(s.values))
}

// Snapshot serializes the table with decimal string keys.
func (s *Switches) Snapshot() data.Object {
	out := make(data.Object, len(s.values))
	for id, v := range s.values {
		out[strconv.Itoa(id)] = data.Bool(v)
	}
	return out
}

// Restore replaces the table. Entries with non-integer keys or non-boolean
// values are skipped.
func (s *Switches) Restore(obj data.Object) {
	s.values = make(map[int]bool, len(obj))
	for k, v := range obj {
		id, err := strconv.Atoi(k)
		b, ok := v.(data.Bool)
		if err != nil || !ok {
			s.logger.Debug("skipping switch entry", "key", k)
			continue
		}
		s.values[id] = bool(b)
	}
}

// Variables is the global variable table. Unset ids read as Int(0).
type Variables struct {
	values map[int]data.Value
	logger *slog.Logger
}

// NewVariables returns an empty table. A nil logger means slog.Default.
func NewVariables(logger *slog.Logger) *Variables {
	if logger == nil {
		logger = slog.Default()
	}
	return &Variables{values: make(map[int]data.Value), logger: logger}
}

// Get returns the value for id.
func (v *Variables) Get(id int) data.Value {
	if val, ok := v.values[id]; ok {
		return val
	}
	return data.Int(0)
}

// Int returns the value for id when it is an integer, and 0 otherwise.
func (v *Variables) Int(id int) int64 {
	if n, ok := v.Get(id).(data.Int); ok {
		return int64(n)
	}
	return 0
}

// Set stores val for id. A nil value resets id to the default.
func (v *Variables) Set(id int, val data.Value) {
	if val == nil {
		delete(v.values, id)
		return
	}
	v.values[id] = val
}

// SetInt stores an integer for id.
func (v *Variables) SetInt(id int, n int64) {
	v.values[id] = data.Int(n)
}

// Snapshot serializes the table with decimal string keys.
func (v *Variables) Snapshot() data.Object {
	out := make(data.Object, len(v.values))
	for id, val := range v.values {
		out[strconv.Itoa(id)] = data.Clone(val)
	}
	return out
}

// Restore replaces the table. Entries with non-integer keys are skipped.
func (v *Variables) Restore(obj data.Object) {
	v.values = make(map[int]data.Value, len(obj))
	for k, val := range obj {
		id, err := strconv.Atoi(k)
		if err != nil || val == nil {
			v.logger.Debug("skipping variable entry", "key", k)
			continue
		}
		v.values[id] = data.Clone(val)
	}
}
