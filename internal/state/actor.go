package state

import (
	"github.com/roach88/overlay/internal/data"
)

// Param indexes into Actor.Params.
const (
	ParamMaxHP = iota
	ParamMaxMP
	ParamATK
	ParamDEF
	ParamMAT
	ParamMDF
	ParamAGI
	ParamLUK
)

const (
	paramCount = 8
	equipSlots = 5
)

// Actor is the mutable runtime record of one character. Actors are only
// created through Actors.Get.
type Actor struct {
	ID             int
	Name           string
	Nickname       string
	ClassID        int
	Level          int
	HP             int
	MP             int
	Params         [paramCount]int
	Equips         [equipSlots]int
	CharacterName  string
	CharacterIndex int
	FaceName       string
	FaceIndex      int
	Description    []string
	Note           string
}

// MaxHP returns the maximum hit points.
func (a *Actor) MaxHP() int { return a.Params[ParamMaxHP] }

// MaxMP returns the maximum magic points.
func (a *Actor) MaxMP() int { return a.Params[ParamMaxMP] }

// ATK returns the attack parameter.
func (a *Actor) ATK() int { return a.Params[ParamATK] }

// DEF returns the defense parameter.
func (a *Actor) DEF() int { return a.Params[ParamDEF] }

// newActor builds an actor from its base record. Keys may be snake_case or
// camelCase.
func newActor(id int, base data.Object) *Actor {
	a := &Actor{
		ID:             id,
		Name:           base.String("name", "Actor"),
		Nickname:       base.String("nickname", ""),
		ClassID:        int(base.Int("class_id", 1)),
		Level:          int(base.Int("initial_level", base.Int("level", 1))),
		CharacterName:  base.String("character_name", ""),
		CharacterIndex: int(base.Int("character_index", 0)),
		FaceName:       base.String("face_name", ""),
		FaceIndex:      int(base.Int("face_index", 0)),
		Description:    descriptionLines(base),
		Note:           base.String("note", ""),
	}
	copyInts(a.Params[:], base.List("params").Ints())
	copyInts(a.Equips[:], base.List("equips").Ints())
	a.recoverAll()
	return a
}

func descriptionLines(obj data.Object) []string {
	v, ok := obj.Lookup("description")
	if !ok {
		return nil
	}
	switch d := v.(type) {
	case data.String:
		return []string{string(d)}
	case data.List:
		return d.Strings()
	}
	return nil
}

func copyInts(dst []int, src []int64) {
	for i := 0; i < len(dst) && i < len(src); i++ {
		dst[i] = int(src[i])
	}
}

func (a *Actor) recoverAll() {
	a.HP = a.MaxHP()
	a.MP = a.MaxMP()
}

// Snapshot serializes the actor's mutable state with camelCase keys.
func (a *Actor) Snapshot() data.Object {
	params := make(data.List, len(a.Params))
	for i, p := range a.Params {
		params[i] = data.Int(p)
	}
	equips := make(data.List, len(a.Equips))
	for i, e := range a.Equips {
		equips[i] = data.Int(e)
	}
	desc := make(data.List, len(a.Description))
	for i, line := range a.Description {
		desc[i] = data.String(line)
	}
	return data.Object{
		"id":             data.Int(a.ID),
		"name":           data.String(a.Name),
		"nickname":       data.String(a.Nickname),
		"classId":        data.Int(a.ClassID),
		"level":          data.Int(a.Level),
		"hp":             data.Int(a.HP),
		"mp":             data.Int(a.MP),
		"params":         params,
		"equips":         equips,
		"characterName":  data.String(a.CharacterName),
		"characterIndex": data.Int(a.CharacterIndex),
		"faceName":       data.String(a.FaceName),
		"faceIndex":      data.Int(a.FaceIndex),
		"description":    desc,
		"note":           data.String(a.Note),
	}
}

// apply overlays saved state. Absent keys keep their current values; params
// are only replaced by a full list of eight.
func (a *Actor) apply(saved data.Object) {
	a.Name = saved.String("name", a.Name)
	a.Nickname = saved.String("nickname", a.Nickname)
	a.ClassID = int(saved.Int("classId", int64(a.ClassID)))
	a.Level = int(saved.Int("level", int64(a.Level)))
	a.CharacterName = saved.String("characterName", a.CharacterName)
	a.CharacterIndex = int(saved.Int("characterIndex", int64(a.CharacterIndex)))
	a.FaceName = saved.String("faceName", a.FaceName)
	a.FaceIndex = int(saved.Int("faceIndex", int64(a.FaceIndex)))
	a.Note = saved.String("note", a.Note)
	if _, ok := saved.Lookup("description"); ok {
		a.Description = descriptionLines(saved)
	}
	if params := saved.List("params").Ints(); len(params) == paramCount {
		copyInts(a.Params[:], params)
	}
	if equips := saved.List("equips"); equips != nil {
		a.Equips = [equipSlots]int{}
		copyInts(a.Equips[:], equips.Ints())
	}
	a.HP = clamp(int(saved.Int("hp", int64(a.HP))), 0, a.MaxHP())
	a.MP = clamp(int(saved.Int("mp", int64(a.MP))), 0, a.MaxMP())
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
