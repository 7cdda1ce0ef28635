package source

import (
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/overlay/internal/data"
)

// CUELoader reads <Dir>/<name>.cue.
//
// The manifest lives in a top-level header struct; every other top-level
// field is an exported object. Values must be concrete and must not be
// floats.
type CUELoader struct {
	Dir string
}

func (l CUELoader) path(name string) string {
	return filepath.Join(l.Dir, name+".cue")
}

func (l CUELoader) compile(name string) (cue.Value, error) {
	path := l.path(name)
	src, err := os.ReadFile(path)
	if err != nil {
		if notExist(err) {
			return cue.Value{}, fmt.Errorf("%w: %s", ErrSourceUnavailable, path)
		}
		return cue.Value{}, err
	}
	v := cuecontext.New().CompileBytes(src, cue.Filename(path))
	if err := v.Err(); err != nil {
		return cue.Value{}, fmt.Errorf("compile %s: %w", path, err)
	}
	return v, nil
}

// LoadManifest implements Loader.
func (l CUELoader) LoadManifest(name string) (Manifest, error) {
	v, err := l.compile(name)
	if err != nil {
		if IsUnavailable(err) {
			return Manifest{}, err
		}
		return Manifest{}, fmt.Errorf("%w: %v", ErrMalformedManifest, err)
	}
	hdr := v.LookupPath(cue.ParsePath("header"))
	if !hdr.Exists() {
		return Manifest{}, fmt.Errorf("%w: no header in %s", ErrMalformedManifest, l.path(name))
	}
	var m Manifest
	if err := hdr.Decode(&m); err != nil {
		return Manifest{}, fmt.Errorf("%w: %v", ErrMalformedManifest, err)
	}
	return m, nil
}

// LoadSource implements Loader.
func (l CUELoader) LoadSource(name string) (*Loaded, error) {
	v, err := l.compile(name)
	if err != nil {
		return nil, err
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("validate %s: %w", l.path(name), err)
	}

	iter, err := v.Fields()
	if err != nil {
		return nil, fmt.Errorf("fields of %s: %w", l.path(name), err)
	}
	obj := data.Object{}
	for iter.Next() {
		label := iter.Selector().Unquoted()
		if label == "header" {
			continue
		}
		val, err := fromCUE(iter.Value())
		if err != nil {
			return nil, fmt.Errorf("%s: field %s: %w", l.path(name), label, err)
		}
		obj[label] = val
	}
	return &Loaded{Name: name, Objects: obj, Bytes: data.Size(obj)}, nil
}

func fromCUE(v cue.Value) (data.Value, error) {
	switch k := v.Kind(); k {
	case cue.NullKind:
		return data.Null{}, nil
	case cue.BoolKind:
		b, err := v.Bool()
		return data.Bool(b), err
	case cue.IntKind:
		n, err := v.Int64()
		return data.Int(n), err
	case cue.StringKind:
		s, err := v.String()
		return data.String(s), err
	case cue.BytesKind:
		b, err := v.Bytes()
		return data.Bytes(b), err
	case cue.ListKind:
		iter, err := v.List()
		if err != nil {
			return nil, err
		}
		list := data.List{}
		for iter.Next() {
			item, err := fromCUE(iter.Value())
			if err != nil {
				return nil, err
			}
			list = append(list, item)
		}
		return list, nil
	case cue.StructKind:
		iter, err := v.Fields()
		if err != nil {
			return nil, err
		}
		obj := data.Object{}
		for iter.Next() {
			item, err := fromCUE(iter.Value())
			if err != nil {
				return nil, err
			}
			obj[iter.Selector().Unquoted()] = item
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("unsupported value kind %s", k)
	}
}
