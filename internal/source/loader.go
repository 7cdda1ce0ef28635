package source

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/roach88/overlay/internal/data"
)

// Manifest lists the objects a source exports. It is read without
// materializing the source body.
type Manifest struct {
	Description string   `json:"description" yaml:"description"`
	Exports     []string `json:"exports" yaml:"exports"`
}

// Has reports whether object is exported.
func (m Manifest) Has(object string) bool {
	return slices.Contains(m.Exports, object)
}

// ObjectName maps an integer id to the export naming convention used by
// content files: ObjectName("ACTOR", 1) == "ACTOR_001".
func ObjectName(prefix string, id int) string {
	return fmt.Sprintf("%s_%03d", prefix, id)
}

// MapSource names the source holding map id's layout and events.
func MapSource(id int) string {
	return fmt.Sprintf("map_%03d", id)
}

// Loaded is a fully materialized source body.
type Loaded struct {
	Name    string
	Objects data.Object
	// Bytes is the estimated footprint counted against the residency budget.
	Bytes int64
}

// strip drops every object so nothing in the loaded body stays reachable
// through the store.
func (l *Loaded) strip() {
	clear(l.Objects)
	l.Objects = nil
	l.Bytes = 0
}

// Loader resolves source names against some backing storage.
//
// LoadManifest must return an error wrapping ErrSourceUnavailable when the
// source does not exist and ErrMalformedManifest when its manifest cannot be
// read. LoadSource materializes the whole body.
type Loader interface {
	LoadManifest(name string) (Manifest, error)
	LoadSource(name string) (*Loaded, error)
}

// MultiLoader serves sources from a directory, picking the backend by file
// extension: <name>.yaml, <name>.cue, then <name>.pak.
type MultiLoader struct {
	Dir string
}

func (l MultiLoader) backend(name string) (Loader, error) {
	candidates := []struct {
		ext    string
		loader Loader
	}{
		{".yaml", YAMLLoader{Dir: l.Dir}},
		{".cue", CUELoader{Dir: l.Dir}},
		{".pak", PakLoader{Dir: l.Dir}},
	}
	for _, c := range candidates {
		if _, err := os.Stat(filepath.Join(l.Dir, name+c.ext)); err == nil {
			return c.loader, nil
		}
	}
	return nil, fmt.Errorf("%w: no %s.{yaml,cue,pak} in %s", ErrSourceUnavailable, name, l.Dir)
}

// LoadManifest implements Loader.
func (l MultiLoader) LoadManifest(name string) (Manifest, error) {
	b, err := l.backend(name)
	if err != nil {
		return Manifest{}, err
	}
	return b.LoadManifest(name)
}

// LoadSource implements Loader.
func (l MultiLoader) LoadSource(name string) (*Loaded, error) {
	b, err := l.backend(name)
	if err != nil {
		return nil, err
	}
	return b.LoadSource(name)
}

// Names lists the source names present in the directory, sorted.
func (l MultiLoader) Names() ([]string, error) {
	entries, err := os.ReadDir(l.Dir)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		switch ext {
		case ".yaml", ".cue", ".pak":
		default:
			continue
		}
		name := e.Name()[:len(e.Name())-len(ext)]
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names, nil
}

func notExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
