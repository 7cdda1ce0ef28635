package mapevent

import (
	"fmt"
	"slices"

	"github.com/roach88/overlay/internal/data"
	"github.com/roach88/overlay/internal/state"
)

// eventDef is an event as declared in map data, before it is bound to the
// session state.
type eventDef struct {
	ID    int
	Pos   Point
	Pages []Page
}

// decodeEvents accepts either a list of event records or an object whose
// values are event records. Keys of the object are not used; positions come
// from each record's x and y.
func decodeEvents(v data.Value) ([]eventDef, error) {
	var records []data.Value
	switch ev := v.(type) {
	case nil, data.Null:
	case data.List:
		records = ev
	case data.Object:
		for _, k := range ev.SortedKeys() {
			records = append(records, ev[k])
		}
	default:
		return nil, fmt.Errorf("events: want list or object, got %T", v)
	}

	defs := make([]eventDef, 0, len(records))
	seen := make(map[int]bool, len(records))
	for i, r := range records {
		obj, ok := r.(data.Object)
		if !ok {
			// Editor exports pad the list with nulls.
			continue
		}
		def, err := decodeEvent(obj)
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
		if seen[def.ID] {
			return nil, fmt.Errorf("duplicate event id %d", def.ID)
		}
		seen[def.ID] = true
		defs = append(defs, def)
	}
	slices.SortFunc(defs, func(a, b eventDef) int { return a.ID - b.ID })
	return defs, nil
}

func decodeEvent(obj data.Object) (eventDef, error) {
	def := eventDef{
		ID:  int(obj.Int("id", 0)),
		Pos: Point{X: int(obj.Int("x", 0)), Y: int(obj.Int("y", 0))},
	}
	for i, p := range obj.List("pages") {
		page, ok := p.(data.Object)
		if !ok {
			return eventDef{}, fmt.Errorf("page %d: want object, got %T", i, p)
		}
		def.Pages = append(def.Pages, decodePage(page))
	}
	return def, nil
}

func decodePage(obj data.Object) Page {
	cond := obj.Object("conditions")
	g := obj.Object("graphic")
	p := Page{
		Conditions: Conditions{
			Switch1Valid:    cond.Bool("switch1_valid", false),
			Switch1ID:       int(cond.Int("switch1_id", 1)),
			Switch2Valid:    cond.Bool("switch2_valid", false),
			Switch2ID:       int(cond.Int("switch2_id", 1)),
			VariableValid:   cond.Bool("variable_valid", false),
			VariableID:      int(cond.Int("variable_id", 1)),
			VariableValue:   cond.Int("variable_value", 0),
			SelfSwitchValid: cond.Bool("self_switch_valid", false),
			SelfSwitchCh:    state.Channel(cond.String("self_switch_ch", string(state.ChannelA))),
		},
		Graphic: Graphic{
			TileID:         int(g.Int("tile_id", 0)),
			CharacterName:  g.String("character_name", ""),
			CharacterIndex: int(g.Int("character_index", 0)),
			Direction:      int(g.Int("direction", 2)),
		},
		Through: obj.Bool("through", false),
	}
	for _, item := range obj.List("list") {
		cmd, ok := item.(data.Object)
		if !ok {
			continue
		}
		p.List = append(p.List, Instruction{
			Code:       int(cmd.Int("code", 0)),
			Indent:     int(cmd.Int("indent", 0)),
			Parameters: cmd.List("parameters"),
		})
	}
	return p
}
