package state

import (
	"context"
	"log/slog"
	"maps"
	"slices"
	"strconv"

	"github.com/roach88/overlay/internal/data"
	"github.com/roach88/overlay/internal/source"
)

// ActorSourceName is the data source holding base actor records.
const ActorSourceName = "actors"

// ActorSource is the part of the data store actor construction needs.
type ActorSource interface {
	Exists(name, object string) bool
	Acquire(ctx context.Context, name, object string) (*source.Handle, error)
}

// Actors builds actor records on first access and caches them for the
// session. It is the only way an Actor is created, so there is at most one
// instance per id.
type Actors struct {
	src     ActorSource
	logger  *slog.Logger
	cache   map[int]*Actor
	pending map[int]data.Object
}

// NewActors returns an empty actor cache reading base records from src.
func NewActors(src ActorSource, logger *slog.Logger) *Actors {
	if logger == nil {
		logger = slog.Default()
	}
	return &Actors{
		src:     src,
		logger:  logger,
		cache:   make(map[int]*Actor),
		pending: make(map[int]data.Object),
	}
}

// Get returns the actor with id, building it on first access. It returns
// nil when no such actor exists in the data store.
func (a *Actors) Get(ctx context.Context, id int) *Actor {
	if actor, ok := a.cache[id]; ok {
		return actor
	}

	name := source.ObjectName("ACTOR", id)
	if !a.src.Exists(ActorSourceName, name) {
		a.logger.Warn("unknown actor", "actor_id", id, "object", name)
		return nil
	}

	h, err := a.src.Acquire(ctx, ActorSourceName, name)
	if err != nil {
		a.logger.Warn("actor load failed", "actor_id", id, "error", err)
		return nil
	}
	defer h.Close()

	base, err := h.Object()
	if err != nil {
		a.logger.Warn("actor record is not an object", "actor_id", id, "error", err)
		return nil
	}

	actor := newActor(id, base)
	if saved, ok := a.pending[id]; ok {
		a.logger.Debug("applying saved actor state", "actor_id", id)
		actor.apply(saved)
		delete(a.pending, id)
	}
	a.cache[id] = actor
	return actor
}

// Loaded returns the ids of instantiated actors, sorted.
func (a *Actors) Loaded() []int {
	return slices.Sorted(maps.Keys(a.cache))
}

// Snapshot serializes every instantiated actor. Saved state for actors that
// were restored but never accessed is carried through unchanged.
func (a *Actors) Snapshot() data.Object {
	out := make(data.Object, len(a.cache)+len(a.pending))
	for id, saved := range a.pending {
		out[strconv.Itoa(id)] = data.Clone(saved)
	}
	for id, actor := range a.cache {
		out[strconv.Itoa(id)] = actor.Snapshot()
	}
	return out
}

// Restore drops every cached actor and keeps obj's entries as seeds applied
// on next access. No actor is built here.
func (a *Actors) Restore(obj data.Object) {
	a.cache = make(map[int]*Actor)
	a.pending = make(map[int]data.Object, len(obj))
	for k, v := range obj {
		id, err := strconv.Atoi(k)
		saved, ok := v.(data.Object)
		if err != nil || !ok {
			a.logger.Debug("skipping actor entry", "key", k)
			continue
		}
		a.pending[id] = data.Clone(saved).(data.Object)
	}
}
