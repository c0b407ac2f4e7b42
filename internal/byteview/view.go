// Package byteview implements bounds-checked, offset-relative parsing of
// packed C-style structures and arrays out of an untrusted byte buffer.
//
// A View is an immutable pair of (buffer, origin). Every read is checked
// against the buffer bounds before any byte is dereferenced; every arithmetic
// step on an offset is checked for negative overflow and upper-bound overrun.
// Views never copy the underlying buffer — they only ever borrow it — so a
// View (and any []byte or string it hands back from Bytes/ReadCString) must
// not outlive the buffer it was constructed from.
package byteview

import (
	"encoding/binary"
	"math"

	"github.com/TAServers/source-parsers/parseerr"
)

// View is a borrowed window into a byte buffer, rooted at origin.
type View struct {
	buf    []byte
	origin int
}

// New constructs a View rooted at the start of buf.
func New(buf []byte) View {
	return View{buf: buf}
}

// Len returns the length of the underlying buffer (not the remaining span
// from origin).
func (v View) Len() int {
	return len(v.buf)
}

// Origin returns the view's current absolute origin.
func (v View) Origin() int {
	return v.origin
}

// AtAbsolute rebases the view to a new absolute origin. The new origin must
// lie within [0, len(buffer)).
func (v View) AtAbsolute(offset int, tag, msg string) (View, error) {
	if offset < 0 || offset >= len(v.buf) {
		return View{}, parseerr.Taggedf(parseerr.ErrOutOfBounds, tag, "%s: offset %d out of bounds (size %d)", msg, offset, len(v.buf))
	}
	return View{buf: v.buf, origin: offset}, nil
}

// AtRelative rebases the view to origin+delta. The resulting absolute offset
// must lie within [0, len(buffer)).
func (v View) AtRelative(delta int64, tag, msg string) (View, error) {
	abs, err := v.absolute(delta, 0, tag, msg)
	if err != nil {
		return View{}, err
	}
	return View{buf: v.buf, origin: abs}, nil
}

// absolute computes origin+delta and checks that reading readSize bytes from
// it stays within the buffer. readSize of 0 still requires the offset itself
// to address a valid byte (used by AtRelative and ReadCString).
func (v View) absolute(delta int64, readSize int, tag, msg string) (int, error) {
	if readSize < 0 {
		return 0, parseerr.Taggedf(parseerr.ErrOutOfBounds, tag, "%s: negative read size %d", msg, readSize)
	}
	abs := int64(v.origin) + delta
	if abs < 0 {
		return 0, parseerr.Taggedf(parseerr.ErrOutOfBounds, tag, "%s: negative offset", msg)
	}
	if abs >= int64(len(v.buf)) || abs+int64(readSize) > int64(len(v.buf)) {
		return 0, parseerr.Taggedf(parseerr.ErrOutOfBounds, tag, "%s: offset %d (+%d bytes) out of bounds (size %d)", msg, abs, readSize, len(v.buf))
	}
	return int(abs), nil
}

// Bytes returns a borrowed slice of n raw bytes at delta. n == 0 always
// succeeds with no bounds check and returns nil.
func (v View) Bytes(delta int64, n int, tag, msg string) ([]byte, error) {
	if n == 0 {
		return nil, nil
	}
	abs, err := v.absolute(delta, n, tag, msg)
	if err != nil {
		return nil, err
	}
	return v.buf[abs : abs+n], nil
}

// ReadCString scans forward from delta for a NUL terminator and returns the
// string up to (excluding) it. Fails with ErrOutOfBounds if no NUL is found
// before the buffer ends.
func (v View) ReadCString(delta int64, tag, msg string) (string, error) {
	abs, err := v.absolute(delta, 0, tag, msg)
	if err != nil {
		return "", err
	}
	for i := abs; i < len(v.buf); i++ {
		if v.buf[i] == 0 {
			return string(v.buf[abs:i]), nil
		}
	}
	return "", parseerr.Taggedf(parseerr.ErrOutOfBounds, tag, "%s: unterminated string starting at %d", msg, abs)
}

func (v View) Uint8(delta int64, tag, msg string) (uint8, error) {
	abs, err := v.absolute(delta, 1, tag, msg)
	if err != nil {
		return 0, err
	}
	return v.buf[abs], nil
}

func (v View) Uint16(delta int64, tag, msg string) (uint16, error) {
	abs, err := v.absolute(delta, 2, tag, msg)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(v.buf[abs:]), nil
}

func (v View) Int16(delta int64, tag, msg string) (int16, error) {
	u, err := v.Uint16(delta, tag, msg)
	return int16(u), err
}

func (v View) Uint32(delta int64, tag, msg string) (uint32, error) {
	abs, err := v.absolute(delta, 4, tag, msg)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(v.buf[abs:]), nil
}

func (v View) Int32(delta int64, tag, msg string) (int32, error) {
	u, err := v.Uint32(delta, tag, msg)
	return int32(u), err
}

func (v View) Uint64(delta int64, tag, msg string) (uint64, error) {
	abs, err := v.absolute(delta, 8, tag, msg)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(v.buf[abs:]), nil
}

func (v View) Int64(delta int64, tag, msg string) (int64, error) {
	u, err := v.Uint64(delta, tag, msg)
	return int64(u), err
}

func (v View) Float32(delta int64, tag, msg string) (float32, error) {
	u, err := v.Uint32(delta, tag, msg)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(u), nil
}

// ValueOffset pairs a decoded value with the absolute offset it was read
// from, needed by formats whose per-element internal offsets are relative to
// that element (e.g. VTX's nested body-part/model/mesh tables).
type ValueOffset[T any] struct {
	Value  T
	Offset int
}

// ReadStruct decodes a single fixed-size T at delta using decode, which is
// handed the raw size-byte slice for T. Returns the absolute offset it was
// read from as well, mirroring parseStructWithOffset.
func ReadStruct[T any](v View, delta int64, size int, decode func([]byte) T, tag, msg string) (T, int, error) {
	var zero T
	abs, err := v.absolute(delta, size, tag, msg)
	if err != nil {
		return zero, 0, err
	}
	return decode(v.buf[abs : abs+size]), abs, nil
}

// ReadArray decodes n consecutive fixed-size T values starting at delta.
// n == 0 always succeeds with no bounds check and returns nil.
func ReadArray[T any](v View, delta int64, n int, size int, decode func([]byte) T, tag, msg string) ([]T, error) {
	if n == 0 {
		return nil, nil
	}
	abs, err := v.absolute(delta, size*n, tag, msg)
	if err != nil {
		return nil, err
	}
	out := make([]T, n)
	for i := 0; i < n; i++ {
		out[i] = decode(v.buf[abs+i*size : abs+(i+1)*size])
	}
	return out, nil
}

// ReadArrayWithOffsets is ReadArray but also returns each element's absolute
// origin, needed when an element's own fields are offsets relative to it.
func ReadArrayWithOffsets[T any](v View, delta int64, n int, size int, decode func([]byte) T, tag, msg string) ([]ValueOffset[T], error) {
	if n == 0 {
		return nil, nil
	}
	abs, err := v.absolute(delta, size*n, tag, msg)
	if err != nil {
		return nil, err
	}
	out := make([]ValueOffset[T], n)
	for i := 0; i < n; i++ {
		elemOffset := abs + i*size
		out[i] = ValueOffset[T]{Value: decode(v.buf[elemOffset : elemOffset+size]), Offset: elemOffset}
	}
	return out, nil
}
