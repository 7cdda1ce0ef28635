// Package growth schedules deferred promotions: an entry registered for a
// map event becomes harvestable once the play clock passes its expiry, and
// announces it by turning on the event's D self switch.
package growth

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/roach88/overlay/internal/data"
	"github.com/roach88/overlay/internal/state"
)

// State is the phase of a scheduled entry.
type State string

const (
	Growing     State = "growing"
	Harvestable State = "harvestable"
)

// Status strings for entries that are not growing.
const (
	StatusNone        = "none"
	StatusHarvestable = "harvestable"
)

// DoneChannel is the self switch written when an entry is promoted.
const DoneChannel = state.ChannelD

// Key identifies the map event an entry belongs to.
type Key struct {
	MapID   int
	EventID int
}

// Entry is one scheduled promotion. ExpiresAt is measured on the play clock.
type Entry struct {
	State     State
	ExpiresAt time.Duration
}

// Clock is the session's monotonic play time.
type Clock interface {
	Now() time.Duration
}

// Scheduler tracks at most one entry per map event.
type Scheduler struct {
	clock    Clock
	switches *state.SelfSwitches
	entries  map[Key]Entry
	logger   *slog.Logger
}

// New returns an empty scheduler.
func New(clock Clock, switches *state.SelfSwitches, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		clock:    clock,
		switches: switches,
		entries:  make(map[Key]Entry),
		logger:   logger,
	}
}

// Register starts a cycle of length d for the event. It reports false and
// changes nothing if the event already has an entry.
func (s *Scheduler) Register(mapID, eventID int, d time.Duration) bool {
	key := Key{MapID: mapID, EventID: eventID}
	if _, ok := s.entries[key]; ok {
		return false
	}
	s.entries[key] = Entry{State: Growing, ExpiresAt: s.clock.Now() + d}
	s.logger.Debug("growth registered",
		"map_id", mapID,
		"event_id", eventID,
		"duration", d)
	return true
}

// Update promotes every growing entry whose expiry has passed and returns
// the promoted keys in map, event order.
func (s *Scheduler) Update() []Key {
	now := s.clock.Now()
	var promoted []Key
	for _, key := range s.Keys() {
		e := s.entries[key]
		if e.State != Growing || e.ExpiresAt > now {
			continue
		}
		e.State = Harvestable
		s.entries[key] = e
		s.switches.Set(state.SelfSwitchKey{MapID: key.MapID, EventID: key.EventID, Channel: DoneChannel}, true)
		promoted = append(promoted, key)
		s.logger.Debug("growth complete",
			"map_id", key.MapID,
			"event_id", key.EventID)
	}
	return promoted
}

// Resolve removes the event's entry, if any.
func (s *Scheduler) Resolve(mapID, eventID int) {
	delete(s.entries, Key{MapID: mapID, EventID: eventID})
}

// Entry returns the event's entry.
func (s *Scheduler) Entry(mapID, eventID int) (Entry, bool) {
	e, ok := s.entries[Key{MapID: mapID, EventID: eventID}]
	return e, ok
}

// Status describes the event's entry for display: "none", "harvestable",
// or "growing (Ns left)" with the remaining seconds rounded up.
func (s *Scheduler) Status(mapID, eventID int) string {
	e, ok := s.Entry(mapID, eventID)
	switch {
	case !ok:
		return StatusNone
	case e.State == Harvestable:
		return StatusHarvestable
	}
	left := max(e.ExpiresAt-s.clock.Now(), 0)
	secs := (left + time.Second - 1) / time.Second
	return fmt.Sprintf("growing (%ds left)", secs)
}

// Keys returns every key with an entry, ordered by map then event.
func (s *Scheduler) Keys() []Key {
	return slices.SortedFunc(maps.Keys(s.entries), func(a, b Key) int {
		if a.MapID != b.MapID {
			return a.MapID - b.MapID
		}
		return a.EventID - b.EventID
	})
}

// Snapshot serializes the entries keyed "map,event" with expiry in
// milliseconds of play time.
func (s *Scheduler) Snapshot() data.Object {
	out := make(data.Object, len(s.entries))
	for key, e := range s.entries {
		out[fmt.Sprintf("%d,%d", key.MapID, key.EventID)] = data.Object{
			"state":     data.String(e.State),
			"expiresAt": data.Int(e.ExpiresAt.Milliseconds()),
		}
	}
	return out
}

// Restore replaces the entries. Malformed entries are skipped.
func (s *Scheduler) Restore(obj data.Object) {
	s.entries = make(map[Key]Entry, len(obj))
	for k, v := range obj {
		key, err := parseKey(k)
		rec, ok := v.(data.Object)
		st := State(rec.String("state", ""))
		if err != nil || !ok || (st != Growing && st != Harvestable) {
			s.logger.Debug("skipping growth entry", "key", k)
			continue
		}
		s.entries[key] = Entry{
			State:     st,
			ExpiresAt: time.Duration(rec.Int("expires_at", 0)) * time.Millisecond,
		}
	}
}

func parseKey(s string) (Key, error) {
	mapPart, eventPart, ok := strings.Cut(s, ",")
	if !ok {
		return Key{}, fmt.Errorf("malformed growth key %q", s)
	}
	mapID, err := strconv.Atoi(strings.TrimSpace(mapPart))
	if err != nil {
		return Key{}, fmt.Errorf("growth key %q: %w", s, err)
	}
	eventID, err := strconv.Atoi(strings.TrimSpace(eventPart))
	if err != nil {
		return Key{}, fmt.Errorf("growth key %q: %w", s, err)
	}
	return Key{MapID: mapID, EventID: eventID}, nil
}
