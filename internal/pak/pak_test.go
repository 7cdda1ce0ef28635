package pak

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleImages() []Image {
	return []Image{
		{
			Entry:   Entry{Name: "tile_grass", Profile: 2, ColorCount: 4, Width: 8, Height: 8, Stride: 4},
			Palette: []byte{0x00, 0x00, 0xFF, 0xFF, 0x07, 0xE0, 0xF8, 0x00},
			Pixels:  bytes.Repeat([]byte{0x12}, 32),
		},
		{
			Entry:   Entry{Name: "hero_sprite", Profile: 1, ColorCount: 16, Width: 16, Height: 16, Stride: 8},
			Palette: bytes.Repeat([]byte{0xAB}, 32),
			Pixels:  bytes.Repeat([]byte{0x34}, 128),
		},
	}
}

func writeSample(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleImages()))
	return buf.Bytes()
}

func TestWriteOpenRoundTrip(t *testing.T) {
	raw := writeSample(t)

	f, err := Open(bytes.NewReader(raw), int64(len(raw)))
	require.NoError(t, err)

	assert.Equal(t, []string{"tile_grass", "hero_sprite"}, f.Names())

	for _, want := range sampleImages() {
		e, ok := f.Lookup(want.Name)
		require.True(t, ok, want.Name)
		assert.Equal(t, want.Profile, e.Profile)
		assert.Equal(t, want.ColorCount, e.ColorCount)
		assert.Equal(t, want.Width, e.Width)
		assert.Equal(t, want.Height, e.Height)
		assert.Equal(t, want.Stride, e.Stride)

		img, err := f.ReadImage(e)
		require.NoError(t, err)
		assert.Equal(t, want.Palette, img.Palette)
		assert.Equal(t, want.Pixels, img.Pixels)
	}
}

func TestHeaderLayout(t *testing.T) {
	raw := writeSample(t)

	assert.Equal(t, Magic, string(raw[0:4]))
	assert.Equal(t, uint16(Version), binary.LittleEndian.Uint16(raw[4:6]))
	assert.Equal(t, uint16(2), binary.LittleEndian.Uint16(raw[6:8]))

	indexOff := binary.LittleEndian.Uint32(raw[8:12])
	assert.Equal(t, len(raw), int(indexOff)+2*EntrySize, "entry table sits at the end")

	// First blob starts right after the header.
	first := raw[indexOff : indexOff+EntrySize]
	assert.Equal(t, uint32(HeaderSize), binary.LittleEndian.Uint32(first[54:58]))
}

func TestOpenRejectsBadMagic(t *testing.T) {
	raw := writeSample(t)
	copy(raw[0:4], "NOPE")

	_, err := Open(bytes.NewReader(raw), int64(len(raw)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad magic")
}

func TestOpenRejectsBadVersion(t *testing.T) {
	raw := writeSample(t)
	binary.LittleEndian.PutUint16(raw[4:6], 9)

	_, err := Open(bytes.NewReader(raw), int64(len(raw)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "version")
}

func TestOpenRejectsTruncatedIndex(t *testing.T) {
	raw := writeSample(t)
	truncated := raw[:len(raw)-10]

	_, err := Open(bytes.NewReader(truncated), int64(len(truncated)))
	require.Error(t, err)
}

func TestWriteRejectsLongNames(t *testing.T) {
	img := Image{Entry: Entry{Name: "this_name_is_definitely_longer_than_32_bytes"}}
	err := Write(&bytes.Buffer{}, []Image{img})
	require.Error(t, err)
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tiles.pak")
	require.NoError(t, os.WriteFile(path, writeSample(t), 0o644))

	f, err := OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Len(t, f.Entries(), 2)
	_, ok := f.Lookup("missing")
	assert.False(t, ok)
}

func TestEmptyContainer(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, nil))
	assert.Equal(t, HeaderSize, buf.Len())

	f, err := Open(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	assert.Empty(t, f.Names())
}
