// Package state holds the mutable session state that map events and the
// growth scheduler read and write: switches, variables, self switches,
// lazily built actors, the party and the play clock.
package state

import (
	"log/slog"
	"time"

	"github.com/roach88/overlay/internal/data"
)

// Save blob keys.
const (
	KeyActors       = "actors"
	KeyParty        = "party"
	KeySwitches     = "switches"
	KeySelfSwitches = "self_switches"
	KeyVariables    = "variables"
	KeyTimer        = "timer"    // whole seconds, rounded up
	KeyTimerMillis  = "timer_ms" // exact play time; preferred on restore
)

// Registry is the session's mutable state.
type Registry struct {
	Switches     *Switches
	Variables    *Variables
	SelfSwitches *SelfSwitches
	Actors       *Actors
	Party        *Party
	Clock        *PlayClock

	logger *slog.Logger
}

// NewRegistry creates empty state whose actors are read from src.
func NewRegistry(src ActorSource, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		Switches:     NewSwitches(logger),
		Variables:    NewVariables(logger),
		SelfSwitches: NewSelfSwitches(logger),
		Actors:       NewActors(src, logger),
		Party:        &Party{},
		Clock:        &PlayClock{},
		logger:       logger,
	}
}

// Snapshot serializes every table into one save blob.
func (r *Registry) Snapshot() data.Object {
	return data.Object{
		KeyActors:       r.Actors.Snapshot(),
		KeyParty:        r.Party.Snapshot(),
		KeySwitches:     r.Switches.Snapshot(),
		KeySelfSwitches: r.SelfSwitches.Snapshot(),
		KeyVariables:    r.Variables.Snapshot(),
		KeyTimer:        data.Int(r.Clock.Seconds()),
		KeyTimerMillis:  data.Int(r.Clock.Now().Milliseconds()),
	}
}

// Restore replaces all state from blob. Missing sections reset to empty and
// unknown keys are ignored. Actors are seeded, not built.
func (r *Registry) Restore(blob data.Object) {
	for k := range blob {
		switch k {
		case KeyActors, KeyParty, KeySwitches, KeySelfSwitches, KeyVariables, KeyTimer, KeyTimerMillis:
		default:
			r.logger.Debug("ignoring unknown save key", "key", k)
		}
	}
	r.Actors.Restore(blob.Object(KeyActors))
	r.Party.Restore(blob.Object(KeyParty))
	r.Switches.Restore(blob.Object(KeySwitches))
	r.SelfSwitches.Restore(blob.Object(KeySelfSwitches))
	r.Variables.Restore(blob.Object(KeyVariables))
	if ms, ok := blob[KeyTimerMillis].(data.Int); ok {
		r.Clock.Set(time.Duration(ms) * time.Millisecond)
	} else {
		r.Clock.Set(time.Duration(blob.Int(KeyTimer, 0)) * time.Second)
	}
}
