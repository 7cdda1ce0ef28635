// Package pak reads and writes packed image containers.
//
// A container is a 12-byte header, then raw palette and pixel blobs, then a
// fixed-size entry table at the header's index offset. All integers are
// little-endian:
//
//	header: magic[4] "GIPK" | version u16 | count u16 | index offset u32
//	entry:  name[32] | profile u8 | reserved u8 | colors u16 | width u16 |
//	        height u16 | stride u16 | reserved u32 | palette len u32 |
//	        data len u32 | palette off u32 | data off u32
//
// Only the header and the entry table are read on Open. Blobs are read per
// entry, so a caller can list a container without paying for its pixels.
package pak

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"

	"github.com/pkg/errors"
)

const (
	Magic      = "GIPK"
	Version    = 1
	HeaderSize = 12
	EntrySize  = 62
	NameSize   = 32
)

// Entry describes one image in the container.
type Entry struct {
	Name       string
	Profile    uint8
	ColorCount uint16
	Width      uint16
	Height     uint16
	Stride     uint16
	PaletteLen uint32
	DataLen    uint32
	PaletteOff uint32
	DataOff    uint32
}

// Image is an entry together with its blobs.
type Image struct {
	Entry
	Palette []byte
	Pixels  []byte
}

// File is an opened container.
type File struct {
	r       io.ReaderAt
	closer  io.Closer
	size    int64
	version uint16
	entries []Entry
	byName  map[string]int
}

// OpenFile opens the container at path. The caller must Close it.
func OpenFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	pf, err := Open(f, info.Size())
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "open %s", path)
	}
	pf.closer = f
	return pf, nil
}

// Open parses the header and entry table from r.
func Open(r io.ReaderAt, size int64) (*File, error) {
	var hdr [HeaderSize]byte
	if _, err := r.ReadAt(hdr[:], 0); err != nil {
		return nil, errors.Wrap(err, "read header")
	}
	if string(hdr[0:4]) != Magic {
		return nil, errors.Errorf("bad magic %q", hdr[0:4])
	}
	version := binary.LittleEndian.Uint16(hdr[4:6])
	if version != Version {
		return nil, errors.Errorf("unsupported version %d", version)
	}
	count := int(binary.LittleEndian.Uint16(hdr[6:8]))
	indexOff := int64(binary.LittleEndian.Uint32(hdr[8:12]))

	if indexOff < HeaderSize || indexOff+int64(count)*EntrySize > size {
		return nil, errors.Errorf("index table [%d, +%d entries) outside file of %d bytes", indexOff, count, size)
	}

	table := make([]byte, count*EntrySize)
	if count > 0 {
		if _, err := r.ReadAt(table, indexOff); err != nil {
			return nil, errors.Wrap(err, "read index table")
		}
	}

	f := &File{
		r:       r,
		size:    size,
		version: version,
		entries: make([]Entry, 0, count),
		byName:  make(map[string]int, count),
	}
	for i := 0; i < count; i++ {
		e := unmarshalEntry(table[i*EntrySize : (i+1)*EntrySize])
		if int64(e.PaletteOff)+int64(e.PaletteLen) > size || int64(e.DataOff)+int64(e.DataLen) > size {
			return nil, errors.Errorf("entry %q: blob outside file", e.Name)
		}
		f.byName[e.Name] = len(f.entries)
		f.entries = append(f.entries, e)
	}
	return f, nil
}

func unmarshalEntry(buf []byte) Entry {
	return Entry{
		Name:       string(bytes.TrimRight(buf[0:32], "\x00")),
		Profile:    buf[32],
		ColorCount: binary.LittleEndian.Uint16(buf[34:36]),
		Width:      binary.LittleEndian.Uint16(buf[36:38]),
		Height:     binary.LittleEndian.Uint16(buf[38:40]),
		Stride:     binary.LittleEndian.Uint16(buf[40:42]),
		PaletteLen: binary.LittleEndian.Uint32(buf[46:50]),
		DataLen:    binary.LittleEndian.Uint32(buf[50:54]),
		PaletteOff: binary.LittleEndian.Uint32(buf[54:58]),
		DataOff:    binary.LittleEndian.Uint32(buf[58:62]),
	}
}

func marshalEntry(e Entry) []byte {
	buf := make([]byte, EntrySize)
	copy(buf[0:32], e.Name)
	buf[32] = e.Profile
	binary.LittleEndian.PutUint16(buf[34:36], e.ColorCount)
	binary.LittleEndian.PutUint16(buf[36:38], e.Width)
	binary.LittleEndian.PutUint16(buf[38:40], e.Height)
	binary.LittleEndian.PutUint16(buf[40:42], e.Stride)
	binary.LittleEndian.PutUint32(buf[46:50], e.PaletteLen)
	binary.LittleEndian.PutUint32(buf[50:54], e.DataLen)
	binary.LittleEndian.PutUint32(buf[54:58], e.PaletteOff)
	binary.LittleEndian.PutUint32(buf[58:62], e.DataOff)
	return buf
}

// Close releases the underlying file when opened with OpenFile.
func (f *File) Close() error {
	if f.closer == nil {
		return nil
	}
	err := f.closer.Close()
	f.closer = nil
	return err
}

// Entries returns the entry table in container order.
func (f *File) Entries() []Entry {
	out := make([]Entry, len(f.entries))
	copy(out, f.entries)
	return out
}

// Names returns entry names in container order.
func (f *File) Names() []string {
	names := make([]string, len(f.entries))
	for i, e := range f.entries {
		names[i] = e.Name
	}
	return names
}

// Lookup finds an entry by name.
func (f *File) Lookup(name string) (Entry, bool) {
	i, ok := f.byName[name]
	if !ok {
		return Entry{}, false
	}
	return f.entries[i], true
}

// ReadImage reads the palette and pixel blobs of e.
func (f *File) ReadImage(e Entry) (*Image, error) {
	img := &Image{
		Entry:   e,
		Palette: make([]byte, e.PaletteLen),
		Pixels:  make([]byte, e.DataLen),
	}
	if e.PaletteLen > 0 {
		if _, err := f.r.ReadAt(img.Palette, int64(e.PaletteOff)); err != nil {
			return nil, errors.Wrapf(err, "read palette of %q", e.Name)
		}
	}
	if e.DataLen > 0 {
		if _, err := f.r.ReadAt(img.Pixels, int64(e.DataOff)); err != nil {
			return nil, errors.Wrapf(err, "read data of %q", e.Name)
		}
	}
	return img, nil
}

// Write serializes images into a container. Offsets and lengths in the
// images' entries are ignored and recomputed.
func Write(w io.Writer, images []Image) error {
	if len(images) > 0xFFFF {
		return errors.Errorf("too many entries: %d", len(images))
	}

	var blobs bytes.Buffer
	entries := make([]Entry, len(images))
	offset := uint32(HeaderSize)
	for i, img := range images {
		if len(img.Name) > NameSize {
			return errors.Errorf("entry name %q longer than %d bytes", img.Name, NameSize)
		}
		e := img.Entry
		e.PaletteOff = offset
		e.PaletteLen = uint32(len(img.Palette))
		blobs.Write(img.Palette)
		offset += e.PaletteLen

		e.DataOff = offset
		e.DataLen = uint32(len(img.Pixels))
		blobs.Write(img.Pixels)
		offset += e.DataLen
		entries[i] = e
	}

	var hdr [HeaderSize]byte
	copy(hdr[0:4], Magic)
	binary.LittleEndian.PutUint16(hdr[4:6], Version)
	binary.LittleEndian.PutUint16(hdr[6:8], uint16(len(images)))
	binary.LittleEndian.PutUint32(hdr[8:12], offset)

	if _, err := w.Write(hdr[:]); err != nil {
		return errors.Wrap(err, "write header")
	}
	if _, err := w.Write(blobs.Bytes()); err != nil {
		return errors.Wrap(err, "write blobs")
	}
	for _, e := range entries {
		if _, err := w.Write(marshalEntry(e)); err != nil {
			return errors.Wrapf(err, "write entry %q", e.Name)
		}
	}
	return nil
}
