package phy

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/TAServers/source-parsers/internal/byteview"
	"github.com/TAServers/source-parsers/internal/geom"
)

func TestParseLedgeRemapsDegenerateIndices(t *testing.T) {
	// Eight shared-pool vertices, a single ledge referencing only two of
	// them (indices 7, 7, 3 across its one triangle), parsed directly with
	// parseLedge rather than through a ledge tree.
	const pointCount = 8

	ledge := make([]byte, ledgeSize)
	binary.LittleEndian.PutUint32(ledge[0:4], uint32(ledgeSize+compactTriangleSize)) // pointOffset: pool immediately follows the ledge's triangle
	binary.LittleEndian.PutUint16(ledge[12:14], 1)               // trianglesCount
	binary.LittleEndian.PutUint16(ledge[14:16], 3)                // boneIndex

	triangle := make([]byte, compactTriangleSize)
	binary.LittleEndian.PutUint32(triangle[4:8], 7)
	binary.LittleEndian.PutUint32(triangle[8:12], 7)
	binary.LittleEndian.PutUint32(triangle[12:16], 3)

	pool := make([]byte, vector4Size*pointCount)
	for i := 0; i < pointCount; i++ {
		off := i * vector4Size
		binary.LittleEndian.PutUint32(pool[off:off+4], math.Float32bits(float32(i)))
	}

	body := append(append(ledge, triangle...), pool...)

	surfaceHeader := compactSurfaceHeader{massCentre: geom.Vector3{X: 1, Y: 2, Z: 3}}

	v := byteview.New(body)
	solid, err := parseLedge(v, 0, surfaceHeader)
	if err != nil {
		t.Fatalf("parseLedge: %v", err)
	}

	if len(solid.Vertices) != 2 {
		t.Fatalf("expected 2 deduplicated vertices, got %d", len(solid.Vertices))
	}
	wantIndices := []uint16{0, 0, 1}
	if len(solid.Indices) != len(wantIndices) {
		t.Fatalf("expected indices %v, got %v", wantIndices, solid.Indices)
	}
	for i, idx := range wantIndices {
		if solid.Indices[i] != idx {
			t.Fatalf("expected indices %v, got %v", wantIndices, solid.Indices)
		}
	}
	if solid.CentreOfMass != surfaceHeader.massCentre {
		t.Fatalf("expected centre of mass %+v, got %+v", surfaceHeader.massCentre, solid.CentreOfMass)
	}
	if solid.BoneIndex != 3 {
		t.Fatalf("expected bone index 3, got %d", solid.BoneIndex)
	}
}

func TestSplitQuotedPairsKeysAndValues(t *testing.T) {
	fields := splitQuoted(`"key1" "value1" "key2" "value2"`)
	want := []string{"key1", "value1", "key2", "value2"}
	if len(fields) != len(want) {
		t.Fatalf("expected %v, got %v", want, fields)
	}
	for i := range want {
		if fields[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, fields)
		}
	}
}
