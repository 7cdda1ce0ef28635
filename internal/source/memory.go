package source

import (
	"fmt"
	"sync"

	"github.com/roach88/overlay/internal/data"
)

// MemoryLoader serves sources held in memory. It counts body loads so tests
// can observe when the store goes back to backing storage.
type MemoryLoader struct {
	mu        sync.Mutex
	sources   map[string]memorySource
	loads     map[string]int
	manifests map[string]int
}

type memorySource struct {
	manifest  Manifest
	malformed bool
	body      data.Object
}

// NewMemoryLoader returns an empty loader.
func NewMemoryLoader() *MemoryLoader {
	return &MemoryLoader{
		sources:   make(map[string]memorySource),
		loads:     make(map[string]int),
		manifests: make(map[string]int),
	}
}

// Add registers a source whose manifest exports every top-level key of body.
func (m *MemoryLoader) Add(name string, body data.Object) {
	m.AddWithManifest(name, Manifest{Exports: body.SortedKeys()}, body)
}

// AddWithManifest registers a source with an explicit manifest, which may
// disagree with the body.
func (m *MemoryLoader) AddWithManifest(name string, manifest Manifest, body data.Object) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sources[name] = memorySource{manifest: manifest, body: body}
}

// AddMalformed registers a source whose manifest cannot be read.
func (m *MemoryLoader) AddMalformed(name string, body data.Object) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sources[name] = memorySource{malformed: true, body: body}
}

// Loads reports how many times the body of name has been materialized.
func (m *MemoryLoader) Loads(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loads[name]
}

// ManifestReads reports how many times the manifest of name has been read.
func (m *MemoryLoader) ManifestReads(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.manifests[name]
}

// LoadManifest implements Loader.
func (m *MemoryLoader) LoadManifest(name string) (Manifest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	src, ok := m.sources[name]
	if !ok {
		return Manifest{}, fmt.Errorf("%w: %s not registered", ErrSourceUnavailable, name)
	}
	m.manifests[name]++
	if src.malformed {
		return Manifest{}, fmt.Errorf("%w: %s", ErrMalformedManifest, name)
	}
	return src.manifest, nil
}

// LoadSource implements Loader. Each call returns a fresh copy of the body.
func (m *MemoryLoader) LoadSource(name string) (*Loaded, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	src, ok := m.sources[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s not registered", ErrSourceUnavailable, name)
	}
	m.loads[name]++
	body, _ := data.Clone(src.body).(data.Object)
	if body == nil {
		body = data.Object{}
	}
	return &Loaded{Name: name, Objects: body, Bytes: data.Size(body)}, nil
}
