package mapevent

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/roach88/overlay/internal/data"
	"github.com/roach88/overlay/internal/source"
	"github.com/roach88/overlay/internal/state"
)

// TilesetSourceName is the data source holding tileset records.
const TilesetSourceName = "tilesets"

// Source is the part of the data store the map reads from.
type Source interface {
	Exists(name, object string) bool
	Acquire(ctx context.Context, name, object string) (*source.Handle, error)
}

// Map owns the events of the current map and decides passability.
type Map struct {
	src    Source
	reg    *state.Registry
	interp Interpreter
	logger *slog.Logger

	id        int
	width     int
	height    int
	tilesetID string
	tiles     []int
	solid     map[int]bool

	events []*Event
	byPos  map[Point]*Event

	needRefresh bool
	dirty       map[Point]struct{}
}

// New returns a map with nothing loaded. interp must not be nil.
func New(src Source, reg *state.Registry, interp Interpreter, logger *slog.Logger) *Map {
	if logger == nil {
		logger = slog.Default()
	}
	return &Map{
		src:    src,
		reg:    reg,
		interp: interp,
		logger: logger,
		byPos:  make(map[Point]*Event),
		dirty:  make(map[Point]struct{}),
	}
}

// layout is everything Setup reads from a map source.
type layout struct {
	width, height int
	tilesetID     string
	tiles         []int
	events        []eventDef
	solid         map[int]bool
}

// Setup loads map id, replacing the current events. On error the previous
// map stays in place.
func (m *Map) Setup(ctx context.Context, id int) error {
	l, err := m.load(ctx, id)
	if err != nil {
		return fmt.Errorf("setup map %d: %w", id, err)
	}

	m.id = id
	m.width, m.height = l.width, l.height
	m.tilesetID = l.tilesetID
	m.tiles = l.tiles
	m.solid = l.solid
	m.interp.Clear()
	m.dirty = make(map[Point]struct{})
	m.needRefresh = false

	m.events = make([]*Event, 0, len(l.events))
	m.byPos = make(map[Point]*Event, len(l.events))
	for _, def := range l.events {
		e := newEvent(id, def.ID, def.Pos, def.Pages, m.reg, m.markDirty)
		m.events = append(m.events, e)
		m.byPos[def.Pos] = e
	}

	m.logger.Info("map setup",
		"map_id", id,
		"width", m.width,
		"height", m.height,
		"tileset", m.tilesetID,
		"events", len(m.events))
	return nil
}

func (m *Map) load(ctx context.Context, id int) (*layout, error) {
	name := source.MapSource(id)

	// Every handle stays open until load returns, so the map source is read
	// once and evicted on the way out.
	var handles []*source.Handle
	defer func() {
		for _, h := range handles {
			h.Close()
		}
	}()
	get := func(object string) (data.Value, error) {
		h, err := m.src.Acquire(ctx, name, object)
		if err != nil {
			return nil, err
		}
		handles = append(handles, h)
		return h.Value(), nil
	}

	l := &layout{}
	for _, f := range []struct {
		object string
		dst    *int
	}{{"width", &l.width}, {"height", &l.height}} {
		v, err := get(f.object)
		if err != nil {
			return nil, err
		}
		n, ok := v.(data.Int)
		if !ok || n < 0 {
			return nil, fmt.Errorf("%s: want non-negative integer, got %v", f.object, v)
		}
		*f.dst = int(n)
	}

	tiles, err := get("data")
	if err != nil {
		return nil, err
	}
	list, ok := tiles.(data.List)
	if !ok {
		return nil, fmt.Errorf("data: want list, got %T", tiles)
	}
	l.tiles = make([]int, 0, len(list))
	for i, t := range list {
		n, ok := t.(data.Int)
		if !ok {
			return nil, fmt.Errorf("data[%d]: want integer tile id, got %v", i, t)
		}
		l.tiles = append(l.tiles, int(n))
	}
	if len(l.tiles) < l.width*l.height {
		return nil, fmt.Errorf("data: %d tiles for a %dx%d map", len(l.tiles), l.width, l.height)
	}

	if m.src.Exists(name, "events") {
		v, err := get("events")
		if err != nil {
			return nil, err
		}
		if l.events, err = decodeEvents(v); err != nil {
			return nil, err
		}
	}

	if m.src.Exists(name, "tilesetId") {
		v, err := get("tilesetId")
		if err != nil {
			return nil, err
		}
		switch t := v.(type) {
		case data.String:
			l.tilesetID = string(t)
		case data.Int:
			l.tilesetID = source.ObjectName("TILESET", int(t))
		}
	}
	l.solid = m.loadSolid(ctx, l.tilesetID)
	return l, nil
}

// loadSolid reads the impassable tile ids of a tileset. A missing tileset
// leaves every tile passable.
func (m *Map) loadSolid(ctx context.Context, tileset string) map[int]bool {
	solid := make(map[int]bool)
	if tileset == "" {
		return solid
	}
	if !m.src.Exists(TilesetSourceName, tileset) {
		m.logger.Warn("unknown tileset", "tileset", tileset)
		return solid
	}
	h, err := m.src.Acquire(ctx, TilesetSourceName, tileset)
	if err != nil {
		m.logger.Warn("tileset load failed", "tileset", tileset, "error", err)
		return solid
	}
	defer h.Close()
	obj, _ := h.Value().(data.Object)
	for _, id := range obj.List("solid").Ints() {
		solid[int(id)] = true
	}
	return solid
}

// ID returns the loaded map id, or 0 before Setup.
func (m *Map) ID() int { return m.id }

// Width returns the map width in tiles.
func (m *Map) Width() int { return m.width }

// Height returns the map height in tiles.
func (m *Map) Height() int { return m.height }

// Events returns the events in id order.
func (m *Map) Events() []*Event {
	return slices.Clone(m.events)
}

// Event returns the event with id.
func (m *Map) Event(id int) (*Event, bool) {
	for _, e := range m.events {
		if e.ID == id {
			return e, true
		}
	}
	return nil, false
}

// EventAt returns the event standing on (x, y).
func (m *Map) EventAt(x, y int) (*Event, bool) {
	e, ok := m.byPos[Point{x, y}]
	return e, ok
}

func (m *Map) inBounds(x, y int) bool {
	return x >= 0 && x < m.width && y >= 0 && y < m.height
}

// TileID returns the tile at (x, y), or 0 outside the map.
func (m *Map) TileID(x, y int) int {
	if !m.inBounds(x, y) {
		return 0
	}
	return m.tiles[y*m.width+x]
}

// IsPassable reports whether a character may enter (x, y).
func (m *Map) IsPassable(x, y int) bool {
	if !m.inBounds(x, y) {
		return false
	}
	if e, ok := m.byPos[Point{x, y}]; ok && !e.Through {
		return false
	}
	return !m.solid[m.TileID(x, y)]
}

// StartEventAt starts the event on (x, y), as when the player bumps into
// it. It reports whether an event is now waiting to run.
func (m *Map) StartEventAt(x, y int) bool {
	e, ok := m.byPos[Point{x, y}]
	if !ok {
		return false
	}
	e.Start()
	return e.starting
}

// SetNeedRefresh schedules a refresh of every event on the next Update.
func (m *Map) SetNeedRefresh() {
	m.needRefresh = true
}

// NeedRefresh reports whether a refresh is pending.
func (m *Map) NeedRefresh() bool {
	return m.needRefresh
}

// Refresh re-selects the active page of every event now.
func (m *Map) Refresh() {
	for _, e := range m.events {
		e.Refresh()
	}
	m.needRefresh = false
}

func (m *Map) markDirty(p Point) {
	m.dirty[p] = struct{}{}
}

// DrainDirty returns the tiles redrawn since the last call, ordered by row
// then column, and forgets them.
func (m *Map) DrainDirty() []Point {
	out := make([]Point, 0, len(m.dirty))
	for p := range m.dirty {
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b Point) int {
		if a.Y != b.Y {
			return a.Y - b.Y
		}
		return a.X - b.X
	})
	clear(m.dirty)
	return out
}

// Update runs one tick: a pending refresh, then the interpreter, then any
// events that were started since the last tick.
func (m *Map) Update() {
	if m.needRefresh {
		m.Refresh()
	}
	if m.interp.IsRunning() {
		m.interp.Update()
	}
	for _, e := range m.events {
		if !e.starting {
			continue
		}
		e.starting = false
		if !m.interp.IsRunning() {
			m.logger.Debug("starting event",
				"map_id", m.id,
				"event_id", e.ID)
			m.interp.Setup(e.List(), e.ID)
		}
	}
}
