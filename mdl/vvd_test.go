package mdl

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/TAServers/source-parsers/parseerr"
)

func putF32(b []byte, v float32) {
	binary.LittleEndian.PutUint32(b, math.Float32bits(v))
}

// buildVvd assembles a minimal VVD file with numVertices root-LoD vertices
// (each vertex's Position.X set to its index, for easy identification) and
// the given fixups appended after the vertex/tangent arrays.
func buildVvd(checksum int32, numVertices int32, fixups []Fixup) []byte {
	header := make([]byte, vvdHeaderSize)
	binary.LittleEndian.PutUint32(header[0:4], vvdFileID)
	binary.LittleEndian.PutUint32(header[4:8], vvdSupportedVersion)
	binary.LittleEndian.PutUint32(header[8:12], uint32(checksum))
	binary.LittleEndian.PutUint32(header[12:16], 1) // NumLoDs
	binary.LittleEndian.PutUint32(header[16:20], uint32(numVertices))
	binary.LittleEndian.PutUint32(header[12+4+maxNumLoDs*4:12+4+maxNumLoDs*4+4], uint32(len(fixups)))

	vertexDataOffset := int32(vvdHeaderSize)
	vertices := make([]byte, int(numVertices)*vertexSize)
	for i := 0; i < int(numVertices); i++ {
		putF32(vertices[i*vertexSize+16:i*vertexSize+20], float32(i))
	}

	tangentDataOffset := vertexDataOffset + int32(len(vertices))
	tangents := make([]byte, int(numVertices)*tangentSize)

	fixupTableOffset := tangentDataOffset + int32(len(tangents))
	fixupBytes := make([]byte, len(fixups)*fixupSize)
	for i, f := range fixups {
		off := i * fixupSize
		binary.LittleEndian.PutUint32(fixupBytes[off:off+4], uint32(f.LoD))
		binary.LittleEndian.PutUint32(fixupBytes[off+4:off+8], uint32(f.SourceVertexID))
		binary.LittleEndian.PutUint32(fixupBytes[off+8:off+12], uint32(f.NumVertices))
	}

	base := 16 + maxNumLoDs*4
	binary.LittleEndian.PutUint32(header[base+4:base+8], uint32(fixupTableOffset))
	binary.LittleEndian.PutUint32(header[base+8:base+12], uint32(vertexDataOffset))
	binary.LittleEndian.PutUint32(header[base+12:base+16], uint32(tangentDataOffset))

	data := append(header, vertices...)
	data = append(data, tangents...)
	data = append(data, fixupBytes...)
	return data
}

func TestNewVvdExpandsFixups(t *testing.T) {
	fixups := []Fixup{
		{LoD: 0, SourceVertexID: 0, NumVertices: 3},
		{LoD: 0, SourceVertexID: 5, NumVertices: 2},
	}
	data := buildVvd(42, 8, fixups)

	v, err := NewVvd(data, nil)
	if err != nil {
		t.Fatalf("NewVvd: %v", err)
	}
	if len(v.GetVertices()) != 5 {
		t.Fatalf("expected 5 vertices, got %d", len(v.GetVertices()))
	}
	want := []float32{0, 1, 2, 5, 6}
	for i, w := range want {
		if v.GetVertices()[i].Position.X != w {
			t.Fatalf("vertex %d: expected X=%v, got %v", i, w, v.GetVertices()[i].Position.X)
		}
	}
}

func TestNewVvdNoFixupsCopiesRootLoD(t *testing.T) {
	data := buildVvd(1, 4, nil)

	v, err := NewVvd(data, nil)
	if err != nil {
		t.Fatalf("NewVvd: %v", err)
	}
	if len(v.GetVertices()) != 4 {
		t.Fatalf("expected 4 vertices, got %d", len(v.GetVertices()))
	}
}

func TestNewVvdChecksumGating(t *testing.T) {
	data := buildVvd(99, 2, nil)

	match := int32(99)
	if _, err := NewVvd(data, &match); err != nil {
		t.Fatalf("expected matching checksum to succeed, got %v", err)
	}

	mismatch := int32(100)
	_, err := NewVvd(data, &mismatch)
	if !errors.Is(err, parseerr.ErrInvalidChecksum) {
		t.Fatalf("expected ErrInvalidChecksum, got %v", err)
	}
}
