package state

import (
	"fmt"
	"log/slog"
	"regexp"
	"slices"
	"strconv"

	"github.com/roach88/overlay/internal/data"
)

// Channel names one of the four per-event flags.
type Channel string

const (
	ChannelA Channel = "A"
	ChannelB Channel = "B"
	ChannelC Channel = "C"
	ChannelD Channel = "D"
)

// Valid reports whether c is one of A, B, C or D.
func (c Channel) Valid() bool {
	switch c {
	case ChannelA, ChannelB, ChannelC, ChannelD:
		return true
	}
	return false
}

// SelfSwitchKey identifies one self switch.
type SelfSwitchKey struct {
	MapID   int
	EventID int
	Channel Channel
}

// String renders the key as a triple, e.g. (3, 7, 'A'). Saves use this form.
func (k SelfSwitchKey) String() string {
	return fmt.Sprintf("(%d, %d, '%s')", k.MapID, k.EventID, k.Channel)
}

var selfSwitchKeyPattern = regexp.MustCompile(`^\(\s*(-?\d+)\s*,\s*(-?\d+)\s*,\s*['"]([ABCD])['"]\s*\)$`)

// ParseSelfSwitchKey parses the output of SelfSwitchKey.String.
func ParseSelfSwitchKey(s string) (SelfSwitchKey, error) {
	m := selfSwitchKeyPattern.FindStringSubmatch(s)
	if m == nil {
		return SelfSwitchKey{}, fmt.Errorf("malformed self switch key %q", s)
	}
	mapID, err := strconv.Atoi(m[1])
	if err != nil {
		return SelfSwitchKey{}, fmt.Errorf("self switch key %q: map id: %w", s, err)
	}
	eventID, err := strconv.Atoi(m[2])
	if err != nil {
		return SelfSwitchKey{}, fmt.Errorf("self switch key %q: event id: %w", s, err)
	}
	return SelfSwitchKey{MapID: mapID, EventID: eventID, Channel: Channel(m[3])}, nil
}

// SelfSwitches is the per-event flag table. Unset keys read as false.
// Every write calls the change hook, which the session wires to the map's
// refresh flag.
type SelfSwitches struct {
	values   map[SelfSwitchKey]bool
	onChange func(SelfSwitchKey)
	logger   *slog.Logger
}

// NewSelfSwitches returns an empty table. A nil logger means slog.Default.
func NewSelfSwitches(logger *slog.Logger) *SelfSwitches {
	if logger == nil {
		logger = slog.Default()
	}
	return &SelfSwitches{values: make(map[SelfSwitchKey]bool), logger: logger}
}

// OnChange installs fn as the write hook, replacing any previous one.
func (s *SelfSwitches) OnChange(fn func(SelfSwitchKey)) {
	s.onChange = fn
}

// Get returns the flag for key.
func (s *SelfSwitches) Get(key SelfSwitchKey) bool {
	return s.values[key]
}

// Set stores the flag for key and notifies the hook.
func (s *SelfSwitches) Set(key SelfSwitchKey, v bool) {
	s.values[key] = v
	if s.onChange != nil {
		s.onChange(key)
	}
}

// Keys returns the keys that have been set, ordered by map, event, channel.
func (s *SelfSwitches) Keys() []SelfSwitchKey {
	keys := make([]SelfSwitchKey, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b SelfSwitchKey) int {
		if a.MapID != b.MapID {
			return a.MapID - b.MapID
		}
		if a.EventID != b.EventID {
			return a.EventID - b.EventID
		}
		switch {
		case a.Channel < b.Channel:
			return -1
		case a.Channel > b.Channel:
			return 1
		}
		return 0
	})
	return keys
}

// Snapshot serializes the table keyed by SelfSwitchKey.String.
func (s *SelfSwitches) Snapshot() data.Object {
	out := make(data.Object, len(s.values))
	for k, v := range s.values {
		out[k.String()] = data.Bool(v)
	}
	return out
}

// Restore replaces the table without calling the change hook. Unparseable
// keys and non-boolean values are skipped.
func (s *SelfSwitches) Restore(obj data.Object) {
	s.values = make(map[SelfSwitchKey]bool, len(obj))
	for k, v := range obj {
		key, err := ParseSelfSwitchKey(k)
		b, ok := v.(data.Bool)
		if err != nil || !ok {
			s.logger.Debug("skipping self switch entry", "key", k)
			continue
		}
		s.values[key] = bool(b)
	}
}
