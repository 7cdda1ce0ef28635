package source

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/overlay/internal/data"
)

// YAMLLoader reads <Dir>/<name>.yaml.
//
// The file holds two documents. The first carries the manifest:
//
//	header:
//	  description: Contains all actor base data.
//	  exports: [ACTOR_001, ACTOR_002]
//	---
//	ACTOR_001: {...}
//
// Reading the manifest decodes only the first document. A single-document
// file is accepted too; its top-level keys other than header form the body.
type YAMLLoader struct {
	Dir string
}

type yamlHeader struct {
	Header *Manifest `yaml:"header"`
}

func (l YAMLLoader) path(name string) string {
	return filepath.Join(l.Dir, name+".yaml")
}

// LoadManifest implements Loader.
func (l YAMLLoader) LoadManifest(name string) (Manifest, error) {
	f, err := os.Open(l.path(name))
	if err != nil {
		if notExist(err) {
			return Manifest{}, fmt.Errorf("%w: %s", ErrSourceUnavailable, l.path(name))
		}
		return Manifest{}, err
	}
	defer f.Close()

	var doc yamlHeader
	if err := yaml.NewDecoder(f).Decode(&doc); err != nil {
		return Manifest{}, fmt.Errorf("%w: %v", ErrMalformedManifest, err)
	}
	if doc.Header == nil {
		return Manifest{}, fmt.Errorf("%w: no header in %s", ErrMalformedManifest, l.path(name))
	}
	return *doc.Header, nil
}

// LoadSource implements Loader.
func (l YAMLLoader) LoadSource(name string) (*Loaded, error) {
	raw, err := os.ReadFile(l.path(name))
	if err != nil {
		if notExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrSourceUnavailable, l.path(name))
		}
		return nil, err
	}

	dec := yaml.NewDecoder(bytes.NewReader(raw))
	var first map[string]any
	if err := dec.Decode(&first); err != nil {
		return nil, fmt.Errorf("decode %s: %w", l.path(name), err)
	}

	body := first
	var second map[string]any
	switch err := dec.Decode(&second); {
	case err == nil:
		body = second
	case errors.Is(err, io.EOF):
		delete(body, "header")
	default:
		return nil, fmt.Errorf("decode body of %s: %w", l.path(name), err)
	}

	v, err := data.FromAny(body)
	if err != nil {
		return nil, fmt.Errorf("convert %s: %w", l.path(name), err)
	}
	obj, _ := v.(data.Object)
	if obj == nil {
		obj = data.Object{}
	}
	return &Loaded{Name: name, Objects: obj, Bytes: data.Size(obj)}, nil
}
