// Package testutil holds fixtures shared by package tests: deterministic
// ids and frames, a small farm content set and a message recorder.
package testutil

import (
	"slices"
	"sync"

	"github.com/roach88/overlay/internal/data"
	"github.com/roach88/overlay/internal/source"
)

// Farm fixture layout. The soil plot is event SoilEvent on map FarmMap at
// (SoilX, SoilY); its pages show tiles SoilTiles[0..3] for untouched,
// tilled, planted and ripe.
const (
	FarmMap   = 1
	SoilEvent = 4
	SoilX     = 3
	SoilY     = 2
)

// SoilTiles are the graphics of the soil plot pages.
var SoilTiles = [4]int{20, 21, 22, 23}

const farmMapJSON = `{
  "width": 4,
  "height": 3,
  "tilesetId": 1,
  "data": [1, 1, 1, 5,
           1, 1, 1, 1,
           1, 1, 1, 1],
  "events": [
    null,
    {"id": 1, "x": 1, "y": 1, "pages": [
      {"graphic": {"tileId": 10}, "list": [{"code": 101, "parameters": ["", 0, 0, 2]}, {"code": 401, "parameters": ["Fields ahead."]}]},
      {"conditions": {"switch1Valid": true, "switch1Id": 7}, "graphic": {"tileId": 11},
       "list": [{"code": 101, "parameters": ["", 0, 0, 2]}, {"code": 401, "parameters": ["The gate is open."]}]}
    ]},
    {"id": 2, "x": 2, "y": 1, "pages": [
      {"graphic": {"tileId": 12}, "through": true}
    ]},
    {"id": 3, "x": 0, "y": 2, "pages": [
      {"conditions": {"variableValid": true, "variableId": 9, "variableValue": 5}, "graphic": {"tileId": 13}}
    ]},
    {"id": 4, "x": 3, "y": 2, "pages": [
      {"graphic": {"tileId": 20}, "list": [{"code": 356, "parameters": ["check_soil(4)"]}]},
      {"conditions": {"selfSwitchValid": true, "selfSwitchCh": "A"}, "graphic": {"tileId": 21},
       "list": [{"code": 356, "parameters": ["check_soil(4)"]}]},
      {"conditions": {"selfSwitchValid": true, "selfSwitchCh": "B"}, "graphic": {"tileId": 22},
       "list": [{"code": 356, "parameters": ["check_soil(4)"]}]},
      {"conditions": {"selfSwitchValid": true, "selfSwitchCh": "D"}, "graphic": {"tileId": 23},
       "list": [{"code": 356, "parameters": ["check_soil(4)"]}]}
    ]}
  ]
}`

const cellarMapJSON = `{"width": 2, "height": 2, "data": [1, 1, 1, 1]}`

// FarmLoader returns an in-memory content set: actors, two maps and the
// farm tileset.
func FarmLoader() *source.MemoryLoader {
	farm, err := data.UnmarshalObject([]byte(farmMapJSON))
	if err != nil {
		panic("testutil: farm map: " + err.Error())
	}
	cellar, err := data.UnmarshalObject([]byte(cellarMapJSON))
	if err != nil {
		panic("testutil: cellar map: " + err.Error())
	}

	loader := source.NewMemoryLoader()
	loader.Add("actors", data.Object{
		"ACTOR_001": data.Object{
			"id": data.Int(1), "name": data.String("Harold"), "class_id": data.Int(1),
			"initial_level": data.Int(1),
			"params":        data.List{data.Int(450), data.Int(90), data.Int(12), data.Int(10), data.Int(8), data.Int(8), data.Int(9), data.Int(5)},
		},
		"ACTOR_002": data.Object{
			"id": data.Int(2), "name": data.String("Therese"), "class_id": data.Int(2),
			"initial_level": data.Int(3),
			"params":        data.List{data.Int(380), data.Int(140), data.Int(9), data.Int(9), data.Int(14), data.Int(12), data.Int(11), data.Int(7)},
		},
	})
	loader.Add(source.MapSource(1), farm)
	loader.Add(source.MapSource(2), cellar)
	loader.Add("tilesets", data.Object{
		source.ObjectName("TILESET", 1): data.Object{"solid": data.List{data.Int(5)}},
	})
	return loader
}

// MessageLog records text shown by a session.
type MessageLog struct {
	mu    sync.Mutex
	lines []string
}

// ShowText appends lines to the log.
func (l *MessageLog) ShowText(lines []string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, lines...)
}

// Lines returns every recorded line.
func (l *MessageLog) Lines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.lines)
}

// Last returns the most recent line, or "" if nothing was shown.
func (l *MessageLog) Last() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.lines) == 0 {
		return ""
	}
	return l.lines[len(l.lines)-1]
}

// Reset forgets every recorded line.
func (l *MessageLog) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = nil
}
