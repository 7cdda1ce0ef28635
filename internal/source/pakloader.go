package source

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/roach88/overlay/internal/data"
	"github.com/roach88/overlay/internal/pak"
)

// PakLoader reads packed image containers at <Dir>/<name>.pak. Every entry
// is exported under its entry name. The manifest comes from the entry table
// alone; pixel and palette blobs are only read by LoadSource.
type PakLoader struct {
	Dir string
}

func (l PakLoader) open(name string) (*pak.File, error) {
	path := filepath.Join(l.Dir, name+".pak")
	f, err := pak.OpenFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSourceUnavailable, path)
		}
		return nil, err
	}
	return f, nil
}

// LoadManifest implements Loader.
func (l PakLoader) LoadManifest(name string) (Manifest, error) {
	f, err := l.open(name)
	if err != nil {
		if IsUnavailable(err) {
			return Manifest{}, err
		}
		return Manifest{}, fmt.Errorf("%w: %v", ErrMalformedManifest, err)
	}
	defer f.Close()
	return Manifest{
		Description: fmt.Sprintf("packed images (%d entries)", len(f.Names())),
		Exports:     f.Names(),
	}, nil
}

// LoadSource implements Loader.
func (l PakLoader) LoadSource(name string) (*Loaded, error) {
	f, err := l.open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	obj := data.Object{}
	for _, e := range f.Entries() {
		img, err := f.ReadImage(e)
		if err != nil {
			return nil, err
		}
		obj[e.Name] = ImageValue(img)
	}
	return &Loaded{Name: name, Objects: obj, Bytes: data.Size(obj)}, nil
}

// ImageValue converts a decoded image into a data object.
func ImageValue(img *pak.Image) data.Object {
	return data.Object{
		"name":       data.String(img.Name),
		"profile":    data.Int(img.Profile),
		"colorCount": data.Int(img.ColorCount),
		"width":      data.Int(img.Width),
		"height":     data.Int(img.Height),
		"stride":     data.Int(img.Stride),
		"palette":    data.Bytes(img.Palette),
		"pixels":     data.Bytes(img.Pixels),
	}
}

// Image converts a value produced by ImageValue back into an image.
func Image(v data.Value) (*pak.Image, error) {
	obj, ok := v.(data.Object)
	if !ok {
		return nil, fmt.Errorf("image: want object, got %T", v)
	}
	palette, _ := obj["palette"].(data.Bytes)
	pixels, _ := obj["pixels"].(data.Bytes)
	return &pak.Image{
		Entry: pak.Entry{
			Name:       obj.String("name", ""),
			Profile:    uint8(obj.Int("profile", 0)),
			ColorCount: uint16(obj.Int("colorCount", 0)),
			Width:      uint16(obj.Int("width", 0)),
			Height:     uint16(obj.Int("height", 0)),
			Stride:     uint16(obj.Int("stride", 0)),
			PaletteLen: uint32(len(palette)),
			DataLen:    uint32(len(pixels)),
		},
		Palette: []byte(palette),
		Pixels:  []byte(pixels),
	}, nil
}

var (
	_ Loader = PakLoader{}
	_ Loader = YAMLLoader{}
	_ Loader = CUELoader{}
	_ Loader = MultiLoader{}
	_ Loader = (*MemoryLoader)(nil)
)
