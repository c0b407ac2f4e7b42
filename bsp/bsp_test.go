package bsp

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/TAServers/source-parsers/internal/lzmashim"
	"github.com/TAServers/source-parsers/parseerr"
)

// buildHeader returns a zeroed, valid BSP header of the given version with
// every lump's offset/length left at zero (and therefore valid, since
// 0+0 <= len(data)). Callers patch individual lump headers with
// setLump before appending the corresponding payload bytes.
func buildHeader(version int32) []byte {
	buf := make([]byte, headerSize)
	binary.LittleEndian.PutUint32(buf[0:4], fileIdent)
	binary.LittleEndian.PutUint32(buf[4:8], uint32(version))
	return buf
}

func setLump(header []byte, lump Lump, offset, length int32, fourCC uint32) {
	base := 8 + int(lump)*lumpHeaderSize
	binary.LittleEndian.PutUint32(header[base:base+4], uint32(offset))
	binary.LittleEndian.PutUint32(header[base+4:base+8], uint32(length))
	binary.LittleEndian.PutUint32(header[base+12:base+16], fourCC)
}

func putFloat32(b []byte, v float32) {
	binary.LittleEndian.PutUint32(b, math.Float32bits(v))
}

func TestNewParsesTinyUncompressedBsp(t *testing.T) {
	header := buildHeader(20)
	setLump(header, LumpPlanes, int32(len(header)), planeSize, 0)

	plane := make([]byte, planeSize)
	putFloat32(plane[0:4], 1)
	putFloat32(plane[4:8], 0)
	putFloat32(plane[8:12], 0)
	putFloat32(plane[12:16], 5)

	data := append(header, plane...)

	b, err := New(data, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if len(b.Planes) != 1 {
		t.Fatalf("expected 1 plane, got %d", len(b.Planes))
	}
	if b.Planes[0].Dist != 5 {
		t.Fatalf("expected plane dist 5, got %v", b.Planes[0].Dist)
	}
}

func TestNewDecompressesVertexLumpViaCallback(t *testing.T) {
	header := buildHeader(20)
	compressedPayload := []byte{0xAA, 0xBB, 0xCC}
	lzmaHeader := make([]byte, 24)
	binary.LittleEndian.PutUint32(lzmaHeader[0:4], uint32('L')|uint32('Z')<<8|uint32('M')<<16|uint32('A')<<24)
	binary.LittleEndian.PutUint32(lzmaHeader[4:8], 12)
	binary.LittleEndian.PutUint32(lzmaHeader[8:12], uint32(len(compressedPayload)))

	onDiskLength := int32(len(lzmaHeader) + len(compressedPayload))
	setLump(header, LumpVertexes, int32(len(header)), onDiskLength, 12) // fourCC = uncompressed size

	data := append(header, append(lzmaHeader, compressedPayload...)...)

	callCount := 0
	callback := func(compressed []byte, metadata lzmashim.Metadata) ([]byte, error) {
		callCount++
		out := make([]byte, 12)
		putFloat32(out[0:4], 1)
		putFloat32(out[4:8], 2)
		putFloat32(out[8:12], 3)
		return out, nil
	}

	b, err := New(data, callback)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if callCount != 1 {
		t.Fatalf("expected decompress callback invoked exactly once, got %d", callCount)
	}
	if len(b.Vertices) != 1 {
		t.Fatalf("expected 1 vertex, got %d", len(b.Vertices))
	}
	want := [3]float32{1, 2, 3}
	got := [3]float32{b.Vertices[0].X, b.Vertices[0].Y, b.Vertices[0].Z}
	if got != want {
		t.Fatalf("expected vertex %v, got %v", want, got)
	}
}

func TestNewMissingCallbackForCompressedVertexLump(t *testing.T) {
	header := buildHeader(20)
	setLump(header, LumpVertexes, int32(len(header)), 27, 12)
	data := append(header, make([]byte, 24+3)...)

	_, err := New(data, nil)
	if err == nil {
		t.Fatal("expected an error, got nil")
	}
	if !errors.Is(err, parseerr.ErrMissingDecompressCallback) {
		t.Fatalf("expected ErrMissingDecompressCallback, got %v", err)
	}
}

func TestNewMissingCallbackForCompressedPakfile(t *testing.T) {
	header := buildHeader(20)
	setLump(header, LumpPakfile, int32(len(header)), 25, 100)
	data := append(header, make([]byte, 24+1)...)

	_, err := New(data, nil)
	if err == nil {
		t.Fatal("expected an error, got nil")
	}
	if !errors.Is(err, parseerr.ErrMissingDecompressCallback) {
		t.Fatalf("expected ErrMissingDecompressCallback, got %v", err)
	}
}
