package mapevent

import (
	"github.com/roach88/overlay/internal/state"
)

// Point is a tile coordinate.
type Point struct {
	X, Y int
}

// Conditions gate a page. Checks whose Valid flag is false always pass.
type Conditions struct {
	Switch1Valid    bool
	Switch1ID       int
	Switch2Valid    bool
	Switch2ID       int
	VariableValid   bool
	VariableID      int
	VariableValue   int64
	SelfSwitchValid bool
	SelfSwitchCh    state.Channel
}

// Met evaluates the checks in order switch 1, switch 2, variable, self
// switch. The variable check passes when the stored value is at least
// VariableValue.
func (c Conditions) Met(reg *state.Registry, mapID, eventID int) bool {
	if c.Switch1Valid && !reg.Switches.Get(c.Switch1ID) {
		return false
	}
	if c.Switch2Valid && !reg.Switches.Get(c.Switch2ID) {
		return false
	}
	if c.VariableValid && reg.Variables.Int(c.VariableID) < c.VariableValue {
		return false
	}
	if c.SelfSwitchValid {
		key := state.SelfSwitchKey{MapID: mapID, EventID: eventID, Channel: c.SelfSwitchCh}
		if !reg.SelfSwitches.Get(key) {
			return false
		}
	}
	return true
}

// Graphic is how a page draws its event.
type Graphic struct {
	TileID         int
	CharacterName  string
	CharacterIndex int
	Direction      int
}

// Page is one conditioned variant of an event.
type Page struct {
	Conditions Conditions
	Graphic    Graphic
	Through    bool
	List       []Instruction
}

const noPage = -1

// Event is a map object at a fixed tile. At most one page is active; an
// erased event has none.
type Event struct {
	ID    int
	MapID int
	Pos   Point
	Pages []Page

	TileID         int
	CharacterName  string
	CharacterIndex int
	Direction      int
	Through        bool

	page     int
	erased   bool
	starting bool

	reg       *state.Registry
	markDirty func(Point)
}

func newEvent(mapID, id int, pos Point, pages []Page, reg *state.Registry, markDirty func(Point)) *Event {
	e := &Event{
		ID:        id,
		MapID:     mapID,
		Pos:       pos,
		Pages:     pages,
		Through:   true,
		Direction: 2,
		page:      noPage,
		reg:       reg,
		markDirty: markDirty,
	}
	e.Refresh()
	return e
}

// ActivePage returns the index of the active page.
func (e *Event) ActivePage() (int, bool) {
	return e.page, e.page != noPage
}

// Erased reports whether Erase was called.
func (e *Event) Erased() bool {
	return e.erased
}

// Starting reports whether the event waits for the next map update to run.
func (e *Event) Starting() bool {
	return e.starting
}

// Refresh activates the highest-indexed page whose conditions hold.
func (e *Event) Refresh() {
	if next := e.findPage(); next != e.page {
		e.setupPage(next)
	}
}

func (e *Event) findPage() int {
	if e.erased {
		return noPage
	}
	for i := len(e.Pages) - 1; i >= 0; i-- {
		if e.Pages[i].Conditions.Met(e.reg, e.MapID, e.ID) {
			return i
		}
	}
	return noPage
}

func (e *Event) setupPage(index int) {
	e.page = index
	if index == noPage {
		e.TileID = 0
		e.CharacterName = ""
		e.CharacterIndex = 0
		e.Through = true
	} else {
		p := e.Pages[index]
		e.TileID = p.Graphic.TileID
		e.CharacterName = p.Graphic.CharacterName
		e.CharacterIndex = p.Graphic.CharacterIndex
		e.Direction = p.Graphic.Direction
		e.Through = p.Through
	}
	e.starting = false
	if e.markDirty != nil {
		e.markDirty(e.Pos)
	}
}

// Erase hides the event until the map is set up again.
func (e *Event) Erase() {
	e.erased = true
	e.Refresh()
}

// Start marks the event to run on the next map update. It does nothing when
// the active page has no instructions.
func (e *Event) Start() {
	if list := e.List(); len(list) > 0 {
		e.starting = true
	}
}

// List returns the active page's instructions.
func (e *Event) List() []Instruction {
	if e.page == noPage {
		return nil
	}
	return e.Pages[e.page].List
}
