package session

import (
	"time"

	"github.com/roach88/overlay/internal/plugin"
	"github.com/roach88/overlay/internal/state"
)

// GrowDuration is how long a planted seed takes to ripen.
const GrowDuration = 20 * time.Second

// Farm plot messages.
const (
	MsgHarvested = "You harvested a ripe potato!"
	MsgGrowing   = "A small sprout is growing."
	MsgPlanted   = "You planted a potato seed."
	MsgTilled    = "You tilled the soil."
)

func (s *Session) registerBuiltins() error {
	return s.Plugins.Register("check_soil", []plugin.ArgKind{plugin.Int}, func(args plugin.Args) error {
		s.checkSoil(int(args.Int(0)))
		return nil
	})
}

// checkSoil advances a farm plot on the current map one step. Self switch A
// marks tilled soil, B a planted seed and D a ripe crop.
func (s *Session) checkSoil(eventID int) {
	mapID := s.Map.ID()
	key := func(ch state.Channel) state.SelfSwitchKey {
		return state.SelfSwitchKey{MapID: mapID, EventID: eventID, Channel: ch}
	}
	sw := s.State.SelfSwitches

	switch {
	case sw.Get(key(state.ChannelD)):
		s.ShowText(MsgHarvested)
		sw.Set(key(state.ChannelA), false)
		sw.Set(key(state.ChannelB), false)
		sw.Set(key(state.ChannelD), false)
		s.Growth.Resolve(mapID, eventID)
	case sw.Get(key(state.ChannelB)):
		s.ShowText(MsgGrowing, "Status: "+s.Growth.Status(mapID, eventID))
	case sw.Get(key(state.ChannelA)):
		s.ShowText(MsgPlanted)
		sw.Set(key(state.ChannelB), true)
		s.Growth.Register(mapID, eventID, GrowDuration)
	default:
		s.ShowText(MsgTilled)
		sw.Set(key(state.ChannelA), true)
	}
	s.logger.Debug("soil checked",
		"map_id", mapID,
		"event_id", eventID)
}
