package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"slices"
	"sync"

	"github.com/roach88/overlay/internal/data"
)

// Store pages named sources in and out of memory. A source body is resident
// only while at least one Handle into it is open; closing the last handle
// strips the body, evicts it and runs the reclaimer.
//
// Manifests are cheap and cached for the life of the Store.
type Store struct {
	loader  Loader
	reclaim func()
	logger  *slog.Logger

	mu        sync.Mutex
	manifests map[string]Manifest
	resident  map[string]*residentSource
}

type residentSource struct {
	loaded *Loaded
	refs   int
}

// Option configures a Store.
type Option func(*Store)

// WithReclaimer replaces the function run after a source is evicted.
// The default is runtime.GC. Pass nil to skip reclamation.
func WithReclaimer(fn func()) Option {
	return func(s *Store) {
		s.reclaim = fn
	}
}

// WithLogger sets the logger used for load and eviction messages.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// NewStore creates a Store backed by loader.
func NewStore(loader Loader, opts ...Option) *Store {
	s := &Store{
		loader:    loader,
		reclaim:   runtime.GC,
		logger:    slog.Default(),
		manifests: make(map[string]Manifest),
		resident:  make(map[string]*residentSource),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Manifest returns the manifest of name without loading its body.
// A malformed manifest is treated as empty.
func (s *Store) Manifest(name string) (Manifest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.manifestLocked(name)
}

func (s *Store) manifestLocked(name string) (Manifest, error) {
	if m, ok := s.manifests[name]; ok {
		return m, nil
	}
	m, err := s.loader.LoadManifest(name)
	switch {
	case err == nil:
	case errors.Is(err, ErrMalformedManifest):
		s.logger.Warn("malformed manifest, treating as empty",
			"source", name,
			"error", err)
		m = Manifest{}
	case errors.Is(err, ErrSourceUnavailable):
		return Manifest{}, unavailable(name, err)
	default:
		return Manifest{}, &Error{Code: CodeLoadFailed, Source: name, Err: err}
	}
	s.manifests[name] = m
	return m, nil
}

// Exists reports whether object is exported by name. Only the manifest is
// consulted; an unavailable source exports nothing.
func (s *Store) Exists(name, object string) bool {
	m, err := s.Manifest(name)
	if err != nil {
		return false
	}
	return m.Has(object)
}

// Acquire opens a handle to object in source name, loading the source body
// if it is not already resident. On error nothing is left resident.
func (s *Store) Acquire(ctx context.Context, name, object string) (*Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.manifestLocked(name)
	if err != nil {
		return nil, err
	}
	if !m.Has(object) {
		return nil, notExported(name, object, "")
	}

	rs, ok := s.resident[name]
	if !ok {
		loaded, err := s.loader.LoadSource(name)
		if err != nil {
			if errors.Is(err, ErrSourceUnavailable) {
				return nil, unavailable(name, err)
			}
			return nil, &Error{Code: CodeLoadFailed, Source: name, Object: object, Err: err}
		}
		rs = &residentSource{loaded: loaded}
		s.logger.Debug("source loaded",
			"source", name,
			"bytes", loaded.Bytes)
	}

	value, ok := rs.loaded.Objects[object]
	if !ok {
		if rs.refs == 0 {
			rs.loaded.strip()
		}
		return nil, notExported(name, object, "declared in manifest but missing from body")
	}

	rs.refs++
	s.resident[name] = rs
	return &Handle{store: s, source: name, object: object, value: value}, nil
}

// Get copies object out of source name and releases the source before
// returning.
func (s *Store) Get(ctx context.Context, name, object string) (data.Value, error) {
	h, err := s.Acquire(ctx, name, object)
	if err != nil {
		return nil, err
	}
	defer h.Close()
	return data.Clone(h.Value()), nil
}

func (s *Store) release(name string) {
	s.mu.Lock()
	rs, ok := s.resident[name]
	if !ok {
		s.mu.Unlock()
		return
	}
	rs.refs--
	if rs.refs > 0 {
		s.mu.Unlock()
		return
	}
	s.evictLocked(name, rs)
	s.mu.Unlock()

	if s.reclaim != nil {
		s.reclaim()
	}
}

func (s *Store) evictLocked(name string, rs *residentSource) {
	rs.loaded.strip()
	delete(s.resident, name)
	s.logger.Debug("source evicted", "source", name)
}

// Evict drops name from memory if it is resident and no handle into it is
// open. It reports whether name is absent afterwards.
func (s *Store) Evict(name string) bool {
	s.mu.Lock()
	rs, ok := s.resident[name]
	if !ok {
		s.mu.Unlock()
		return true
	}
	if rs.refs > 0 {
		s.mu.Unlock()
		s.logger.Warn("evict refused, handles open",
			"source", name,
			"handles", rs.refs)
		return false
	}
	s.evictLocked(name, rs)
	s.mu.Unlock()

	if s.reclaim != nil {
		s.reclaim()
	}
	return true
}

// EvictAll evicts every resident source without open handles and reports
// whether nothing is resident afterwards.
func (s *Store) EvictAll() bool {
	all := true
	for _, name := range s.Resident() {
		if !s.Evict(name) {
			all = false
		}
	}
	return all
}

// Resident lists the names of resident sources, sorted.
func (s *Store) Resident() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.resident))
	for name := range s.resident {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// ResidentBytes sums the footprint of every resident body.
func (s *Store) ResidentBytes() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, rs := range s.resident {
		n += rs.loaded.Bytes
	}
	return n
}

// Handle is a scoped reference to one object of a resident source.
// The value must not be retained after Close.
type Handle struct {
	store  *Store
	source string
	object string
	value  data.Value
	closed bool
}

// Value returns the object. It is nil after Close.
func (h *Handle) Value() data.Value {
	return h.value
}

// Object returns the value as an object, or an error if it is not one.
func (h *Handle) Object() (data.Object, error) {
	obj, ok := h.value.(data.Object)
	if !ok {
		return nil, fmt.Errorf("%s/%s: want object, got %T", h.source, h.object, h.value)
	}
	return obj, nil
}

// Source returns the source name the handle was opened on.
func (h *Handle) Source() string {
	return h.source
}

// Close releases the handle. Closing twice is a no-op.
func (h *Handle) Close() error {
	if h.closed {
		return nil
	}
	h.closed = true
	h.value = nil
	h.store.release(h.source)
	return nil
}
