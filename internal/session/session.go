// Package session owns one play session: the data store, the state
// registry, the current map, the growth scheduler and the plugin commands,
// wired together explicitly.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/overlay/internal/data"
	"github.com/roach88/overlay/internal/growth"
	"github.com/roach88/overlay/internal/mapevent"
	"github.com/roach88/overlay/internal/plugin"
	"github.com/roach88/overlay/internal/source"
	"github.com/roach88/overlay/internal/state"
	"github.com/roach88/overlay/internal/store"
)

// KeyGrowth is the save blob key holding scheduler entries.
const KeyGrowth = "growth"

// MessageSink displays text to the player.
type MessageSink interface {
	ShowText(lines []string)
}

// Options configures New.
type Options struct {
	// Store is required.
	Store *source.Store
	// Interpreter runs event scripts. Required.
	Interpreter mapevent.Interpreter
	// Messages receives text shown by plugin commands. Optional.
	Messages MessageSink
	// IDs generates the session id. Defaults to UUIDv7Generator.
	IDs    IDGenerator
	Logger *slog.Logger
}

// Session is one running game.
type Session struct {
	ID      string
	Store   *source.Store
	State   *state.Registry
	Map     *mapevent.Map
	Growth  *growth.Scheduler
	Plugins *plugin.Registry

	messages MessageSink
	logger   *slog.Logger
}

// New builds a session and registers the built-in plugin commands.
func New(opts Options) (*Session, error) {
	if opts.Store == nil {
		return nil, errors.New("session: store is required")
	}
	if opts.Interpreter == nil {
		return nil, errors.New("session: interpreter is required")
	}
	if opts.IDs == nil {
		opts.IDs = UUIDv7Generator{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	reg := state.NewRegistry(opts.Store, logger)
	s := &Session{
		ID:       opts.IDs.Generate(),
		Store:    opts.Store,
		State:    reg,
		Map:      mapevent.New(opts.Store, reg, opts.Interpreter, logger),
		Growth:   growth.New(reg.Clock, reg.SelfSwitches, logger),
		Plugins:  plugin.NewRegistry(logger),
		messages: opts.Messages,
		logger:   logger,
	}
	s.logger = logger.With("session_id", s.ID)
	reg.SelfSwitches.OnChange(func(state.SelfSwitchKey) { s.Map.SetNeedRefresh() })

	if err := s.registerBuiltins(); err != nil {
		return nil, err
	}
	return s, nil
}

// ShowText sends lines to the message sink, if any.
func (s *Session) ShowText(lines ...string) {
	if s.messages != nil {
		s.messages.ShowText(lines)
	}
}

// SetupMap loads map id.
func (s *Session) SetupMap(ctx context.Context, id int) error {
	return s.Map.Setup(ctx, id)
}

// Update advances the session by one frame of length dt: the play clock,
// then the map, then the growth scheduler. It returns the growth entries
// promoted this frame.
func (s *Session) Update(dt time.Duration) []growth.Key {
	s.State.Clock.Advance(dt)
	s.Map.Update()
	return s.Growth.Update()
}

// Snapshot returns the full save blob.
func (s *Session) Snapshot() data.Object {
	blob := s.State.Snapshot()
	blob[KeyGrowth] = s.Growth.Snapshot()
	return blob
}

// Restore replaces the session state from blob. Events on the current map
// are refreshed on the next Update.
func (s *Session) Restore(blob data.Object) {
	s.State.Restore(blob)
	s.Growth.Restore(blob.Object(KeyGrowth))
	s.Map.SetNeedRefresh()
}

// Save writes the session snapshot to slot.
func (s *Session) Save(ctx context.Context, saves *store.Store, slot int) (store.Save, error) {
	save, err := saves.WriteSave(ctx, slot, s.ID, s.State.Clock.Seconds(), s.Snapshot())
	if err != nil {
		return store.Save{}, fmt.Errorf("save slot %d: %w", slot, err)
	}
	s.logger.Info("game saved",
		"slot", slot,
		"seq", save.Seq,
		"play_time", save.PlayTime)
	return save, nil
}

// Load restores the session from slot.
func (s *Session) Load(ctx context.Context, saves *store.Store, slot int) error {
	save, err := saves.ReadSave(ctx, slot)
	if err != nil {
		return fmt.Errorf("load slot %d: %w", slot, err)
	}
	s.Restore(save.Blob)
	s.logger.Info("game loaded",
		"slot", slot,
		"saved_by", save.SessionID,
		"play_time", save.PlayTime)
	return nil
}
