package source

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/overlay/internal/data"
	"github.com/roach88/overlay/internal/pak"
)

const actorsYAML = `header:
  description: Contains all actor base data.
  exports: [ACTOR_001, ACTOR_002]
---
ACTOR_001:
  id: 1
  name: Harold
  params: [10, 20, 30]
ACTOR_002:
  id: 2
  name: Therese
`

const actorsCUE = `header: {
	description: "Contains all actor base data."
	exports: ["ACTOR_001"]
}
ACTOR_001: {
	id:   1
	name: "Harold"
	params: [10, 20, 30]
	equips: {weapon: 3}
}
`

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestYAMLLoader(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "actors.yaml", actorsYAML)
	l := YAMLLoader{Dir: dir}

	m, err := l.LoadManifest("actors")
	require.NoError(t, err)
	assert.Equal(t, "Contains all actor base data.", m.Description)
	assert.Equal(t, []string{"ACTOR_001", "ACTOR_002"}, m.Exports)

	loaded, err := l.LoadSource("actors")
	require.NoError(t, err)
	assert.Equal(t, []string{"ACTOR_001", "ACTOR_002"}, loaded.Objects.SortedKeys())
	harold := loaded.Objects.Object("ACTOR_001")
	assert.Equal(t, "Harold", harold.String("name", ""))
	assert.Equal(t, []int64{10, 20, 30}, harold.List("params").Ints())
	assert.Positive(t, loaded.Bytes)
}

func TestYAMLLoaderSingleDocument(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "items.yaml", "header:\n  exports: [ITEM_001]\nITEM_001:\n  name: Hoe\n")

	loaded, err := YAMLLoader{Dir: dir}.LoadSource("items")
	require.NoError(t, err)
	assert.Equal(t, []string{"ITEM_001"}, loaded.Objects.SortedKeys())
}

func TestYAMLLoaderErrors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "noheader.yaml", "ITEM_001: {}\n")
	writeFile(t, dir, "garbage.yaml", "header: [unclosed\n")
	l := YAMLLoader{Dir: dir}

	_, err := l.LoadManifest("missing")
	assert.ErrorIs(t, err, ErrSourceUnavailable)

	_, err = l.LoadManifest("noheader")
	assert.ErrorIs(t, err, ErrMalformedManifest)

	_, err = l.LoadManifest("garbage")
	assert.ErrorIs(t, err, ErrMalformedManifest)
}

func TestCUELoader(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "actors.cue", actorsCUE)
	l := CUELoader{Dir: dir}

	m, err := l.LoadManifest("actors")
	require.NoError(t, err)
	assert.Equal(t, []string{"ACTOR_001"}, m.Exports)

	loaded, err := l.LoadSource("actors")
	require.NoError(t, err)
	assert.Equal(t, []string{"ACTOR_001"}, loaded.Objects.SortedKeys())
	harold := loaded.Objects.Object("ACTOR_001")
	assert.Equal(t, int64(1), harold.Int("id", 0))
	assert.Equal(t, []int64{10, 20, 30}, harold.List("params").Ints())
	assert.Equal(t, int64(3), harold.Object("equips").Int("weapon", 0))
}

func TestCUELoaderRejectsFloats(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "rates.cue", "header: exports: [\"RATE\"]\nRATE: 1.5\n")

	_, err := CUELoader{Dir: dir}.LoadSource("rates")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RATE")
}

func TestCUELoaderMissing(t *testing.T) {
	_, err := CUELoader{Dir: t.TempDir()}.LoadManifest("actors")
	assert.ErrorIs(t, err, ErrSourceUnavailable)
}

func writePak(t *testing.T, dir, name string) []pak.Image {
	t.Helper()
	images := []pak.Image{
		{
			Entry:   pak.Entry{Name: "tile_soil", Profile: 2, ColorCount: 4, Width: 8, Height: 8, Stride: 4},
			Palette: []byte{1, 2, 3, 4, 5, 6, 7, 8},
			Pixels:  bytes.Repeat([]byte{0x21}, 32),
		},
	}
	var buf bytes.Buffer
	require.NoError(t, pak.Write(&buf, images))
	writeFile(t, dir, name+".pak", buf.String())
	return images
}

func TestPakLoader(t *testing.T) {
	dir := t.TempDir()
	images := writePak(t, dir, "tiles")
	l := PakLoader{Dir: dir}

	m, err := l.LoadManifest("tiles")
	require.NoError(t, err)
	assert.Equal(t, []string{"tile_soil"}, m.Exports)

	loaded, err := l.LoadSource("tiles")
	require.NoError(t, err)

	img, err := Image(loaded.Objects["tile_soil"])
	require.NoError(t, err)
	assert.Equal(t, images[0].Name, img.Name)
	assert.Equal(t, images[0].Width, img.Width)
	assert.Equal(t, images[0].Palette, img.Palette)
	assert.Equal(t, images[0].Pixels, img.Pixels)

	_, err = l.LoadManifest("missing")
	assert.ErrorIs(t, err, ErrSourceUnavailable)
}

func TestImageRejectsNonObject(t *testing.T) {
	_, err := Image(data.Int(3))
	require.Error(t, err)
}

func TestMultiLoaderThroughStore(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "actors.yaml", actorsYAML)
	writeFile(t, dir, "classes.cue", "header: exports: [\"CLASS_001\"]\nCLASS_001: name: \"Farmer\"\n")
	writePak(t, dir, "tiles")
	writeFile(t, dir, "README.txt", "ignored")

	l := MultiLoader{Dir: dir}
	names, err := l.Names()
	require.NoError(t, err)
	assert.Equal(t, []string{"actors", "classes", "tiles"}, names)

	s := NewStore(l, WithReclaimer(nil))
	ctx := context.Background()

	v, err := s.Get(ctx, "classes", "CLASS_001")
	require.NoError(t, err)
	assert.Equal(t, "Farmer", v.(data.Object).String("name", ""))

	h, err := s.Acquire(ctx, "tiles", "tile_soil")
	require.NoError(t, err)
	assert.Equal(t, []string{"tiles"}, s.Resident())
	require.NoError(t, h.Close())
	assert.Empty(t, s.Resident())

	_, err = s.Manifest("nothing")
	assert.True(t, IsUnavailable(err))
}
