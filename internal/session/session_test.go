package session

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/overlay/internal/growth"
	"github.com/roach88/overlay/internal/mapevent"
	"github.com/roach88/overlay/internal/source"
	"github.com/roach88/overlay/internal/state"
	"github.com/roach88/overlay/internal/store"
	"github.com/roach88/overlay/internal/testutil"
)

// runInterpreter executes a whole list in one Update: text and plugin
// commands only.
type runInterpreter struct {
	s       *Session
	list    []mapevent.Instruction
	running bool
	errs    []error
}

func (r *runInterpreter) Setup(list []mapevent.Instruction, _ int) {
	r.list = list
	r.running = true
}

func (r *runInterpreter) IsRunning() bool { return r.running }

func (r *runInterpreter) Update() {
	for _, in := range r.list {
		switch in.Code {
		case 401:
			r.s.ShowText(in.Parameters.Strings()...)
		case 356:
			if err := r.s.Plugins.Execute(in.Parameters.Strings()[0]); err != nil {
				r.errs = append(r.errs, err)
			}
		}
	}
	r.Clear()
}

func (r *runInterpreter) Clear() {
	r.list = nil
	r.running = false
}

type harness struct {
	s      *Session
	interp *runInterpreter
	log    *testutil.MessageLog
	loader *source.MemoryLoader
}

func newSession(t *testing.T) *harness {
	t.Helper()
	loader := testutil.FarmLoader()
	interp := &runInterpreter{}
	log := &testutil.MessageLog{}
	s, err := New(Options{
		Store:       source.NewStore(loader, source.WithReclaimer(nil)),
		Interpreter: interp,
		Messages:    log,
		IDs:         testutil.NewFixedIDGenerator("session-1"),
	})
	require.NoError(t, err)
	interp.s = s
	require.NoError(t, s.SetupMap(context.Background(), testutil.FarmMap))
	return &harness{s: s, interp: interp, log: log, loader: loader}
}

// interact bumps the soil plot and pumps frames until its script has run
// and the plot has refreshed.
func (h *harness) interact(t *testing.T) string {
	t.Helper()
	require.True(t, h.s.Map.StartEventAt(testutil.SoilX, testutil.SoilY))
	h.s.Update(0)
	h.s.Update(0)
	h.s.Update(0)
	require.Empty(t, h.interp.errs)
	return h.log.Last()
}

func (h *harness) soilTile(t *testing.T) int {
	t.Helper()
	e, ok := h.s.Map.Event(testutil.SoilEvent)
	require.True(t, ok)
	return e.TileID
}

func soilKey(ch state.Channel) state.SelfSwitchKey {
	return state.SelfSwitchKey{MapID: testutil.FarmMap, EventID: testutil.SoilEvent, Channel: ch}
}

func TestNewRequiresDependencies(t *testing.T) {
	_, err := New(Options{Interpreter: &runInterpreter{}})
	assert.Error(t, err)

	_, err = New(Options{Store: source.NewStore(source.NewMemoryLoader())})
	assert.Error(t, err)
}

func TestNewDefaultsToUUIDv7(t *testing.T) {
	s, err := New(Options{
		Store:       source.NewStore(source.NewMemoryLoader()),
		Interpreter: &runInterpreter{},
	})
	require.NoError(t, err)
	assert.Len(t, s.ID, 36)
	assert.Equal(t, byte('7'), s.ID[14], "version nibble")
	assert.Equal(t, []string{"check_soil"}, s.Plugins.Names())
}

func TestFarmPlotCycle(t *testing.T) {
	h := newSession(t)
	assert.Equal(t, testutil.SoilTiles[0], h.soilTile(t))

	assert.Equal(t, MsgTilled, h.interact(t))
	assert.Equal(t, testutil.SoilTiles[1], h.soilTile(t))

	assert.Equal(t, MsgPlanted, h.interact(t))
	assert.Equal(t, testutil.SoilTiles[2], h.soilTile(t))
	entry, ok := h.s.Growth.Entry(testutil.FarmMap, testutil.SoilEvent)
	require.True(t, ok)
	assert.Equal(t, growth.Growing, entry.State)
	assert.Equal(t, GrowDuration, entry.ExpiresAt)

	h.s.Update(5 * time.Second)
	assert.Equal(t, "Status: growing (15s left)", h.interact(t))
	assert.Equal(t, []string{MsgGrowing, "Status: growing (15s left)"}, h.log.Lines()[2:])

	h.s.Update(14 * time.Second)
	assert.False(t, h.s.State.SelfSwitches.Get(soilKey(state.ChannelD)))

	h.s.Update(time.Second)
	assert.True(t, h.s.State.SelfSwitches.Get(soilKey(state.ChannelD)))
	assert.Equal(t, growth.StatusHarvestable, h.s.Growth.Status(testutil.FarmMap, testutil.SoilEvent))
	h.s.Update(0)
	assert.Equal(t, testutil.SoilTiles[3], h.soilTile(t))

	assert.Equal(t, MsgHarvested, h.interact(t))
	assert.Equal(t, testutil.SoilTiles[0], h.soilTile(t))
	for _, ch := range []state.Channel{state.ChannelA, state.ChannelB, state.ChannelD} {
		assert.False(t, h.s.State.SelfSwitches.Get(soilKey(ch)), "channel %s", ch)
	}
	assert.Equal(t, growth.StatusNone, h.s.Growth.Status(testutil.FarmMap, testutil.SoilEvent))
}

func TestMapSourceIsReleasedAfterSetup(t *testing.T) {
	h := newSession(t)
	assert.Empty(t, h.s.Store.Resident())
	assert.Equal(t, 1, h.loader.Loads(source.MapSource(testutil.FarmMap)))
}

func TestSnapshotIncludesGrowth(t *testing.T) {
	h := newSession(t)
	h.interact(t)
	h.interact(t)

	blob := h.s.Snapshot()
	for _, key := range []string{state.KeyActors, state.KeyParty, state.KeySwitches, state.KeySelfSwitches, state.KeyVariables, state.KeyTimer, KeyGrowth} {
		assert.Contains(t, blob, key)
	}
	assert.Len(t, blob.Object(KeyGrowth), 1)
}

func TestSaveAndLoad(t *testing.T) {
	ctx := context.Background()
	saves, err := store.Open(filepath.Join(t.TempDir(), "saves.db"))
	require.NoError(t, err)
	defer saves.Close()

	h := newSession(t)
	h.s.State.Party.Add(1)
	h.s.State.Variables.SetInt(9, 6)
	h.s.Update(3 * time.Second)
	h.interact(t)
	h.interact(t)

	save, err := h.s.Save(ctx, saves, 1)
	require.NoError(t, err)
	assert.Equal(t, "session-1", save.SessionID)
	assert.Equal(t, int64(3), save.PlayTime)

	other := newSession(t)
	assert.Equal(t, testutil.SoilTiles[0], other.soilTile(t))
	require.NoError(t, other.s.Load(ctx, saves, 1))
	assert.True(t, other.s.Map.NeedRefresh())

	other.s.Update(0)
	assert.Equal(t, testutil.SoilTiles[2], other.soilTile(t))
	assert.Equal(t, []int{1}, other.s.State.Party.Members())
	assert.Equal(t, int64(6), other.s.State.Variables.Int(9))
	assert.Equal(t, 3*time.Second, other.s.State.Clock.Now())

	other.s.Update(GrowDuration)
	assert.True(t, other.s.State.SelfSwitches.Get(soilKey(state.ChannelD)))
}

func TestLoadKeepsSubsecondPlayTime(t *testing.T) {
	ctx := context.Background()
	saves, err := store.Open(filepath.Join(t.TempDir(), "saves.db"))
	require.NoError(t, err)
	defer saves.Close()

	h := newSession(t)
	h.s.Update(500 * time.Millisecond)
	h.interact(t)
	h.interact(t)
	_, err = h.s.Save(ctx, saves, 1)
	require.NoError(t, err)

	other := newSession(t)
	require.NoError(t, other.s.Load(ctx, saves, 1))
	assert.Equal(t, 500*time.Millisecond, other.s.State.Clock.Now())

	other.s.Update(GrowDuration - 100*time.Millisecond)
	assert.False(t, other.s.State.SelfSwitches.Get(soilKey(state.ChannelD)), "crop must not ripen early")
	other.s.Update(100 * time.Millisecond)
	assert.True(t, other.s.State.SelfSwitches.Get(soilKey(state.ChannelD)))
}

func TestLoadEmptySlot(t *testing.T) {
	saves, err := store.Open(filepath.Join(t.TempDir(), "saves.db"))
	require.NoError(t, err)
	defer saves.Close()

	h := newSession(t)
	err = h.s.Load(context.Background(), saves, 4)
	assert.ErrorIs(t, err, store.ErrSlotEmpty)
}
