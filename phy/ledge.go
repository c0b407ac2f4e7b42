package phy

import (
	"encoding/binary"
	"math"

	"github.com/TAServers/source-parsers/internal/geom"
)

// compactSurfaceHeader is IVP's compact-surface layout: a legacy surface
// header followed by the IVP_Compact_Surface fields (mass centre, rotation
// inertia, ledge-tree root offset, ...). Only the fields needed to locate
// the ledge tree root are decoded individually; the rest are skipped over by
// offset rather than modeled.
type compactSurfaceHeader struct {
	massCentre          geom.Vector3
	offsetLedgetreeRoot int32
}

// Byte offsets within compactSurfaceHeader, matching IVP_Compact_Surface's
// on-disk layout (size, id, version/modeltype, surfaceSize, dragAxisAreas,
// axisMapSize precede massCentre; rotationInertia, upperLimitRadius, and a
// packed deviation/size bitfield follow it before offsetLedgetreeRoot).
const (
	massCentreOffset          = 32
	offsetLedgetreeRootOffset = 64
	compactSurfaceHeaderSize  = 80
)

func decodeCompactSurfaceHeader(b []byte) compactSurfaceHeader {
	return compactSurfaceHeader{
		massCentre: geom.Vector3{
			X: leFloat32(b[massCentreOffset : massCentreOffset+4]),
			Y: leFloat32(b[massCentreOffset+4 : massCentreOffset+8]),
			Z: leFloat32(b[massCentreOffset+8 : massCentreOffset+12]),
		},
		offsetLedgetreeRoot: le32(b[offsetLedgetreeRootOffset : offsetLedgetreeRootOffset+4]),
	}
}

// ledgeNode is one node of the ledge tree (IVP_Compact_Ledgetree_Node).
// A node is terminal when rightNodeOffset is zero, per the engine's
// convention: terminal leaves point directly at a Ledge via
// compactNodeOffset instead of having a right sibling.
type ledgeNode struct {
	rightNodeOffset   int32
	compactNodeOffset int32
}

const ledgeNodeSize = 28

func decodeLedgeNode(b []byte) ledgeNode {
	return ledgeNode{
		rightNodeOffset:   le32(b[0:4]),
		compactNodeOffset: le32(b[4:8]),
	}
}

func (n ledgeNode) isTerminal() bool {
	return n.rightNodeOffset == 0
}

// ledge is one leaf of the ledge tree (IVP_Compact_Ledge): an offset to the
// shared point pool, a triangle count, and the bone index this solid binds
// to.
type ledge struct {
	pointOffset    int32
	trianglesCount int16
	boneIndex      int16
}

const ledgeSize = 16

func decodeLedge(b []byte) ledge {
	return ledge{
		pointOffset:    le32(b[0:4]),
		trianglesCount: int16(binary.LittleEndian.Uint16(b[12:14])),
		boneIndex:      int16(binary.LittleEndian.Uint16(b[14:16])),
	}
}

// compactTriangle holds three edges, each of which identifies the start
// point index of one edge of the triangle in the low 16 bits of a packed
// 32-bit word (IVP_Compact_Triangle / IVP_Compact_Edge).
type compactTriangle struct {
	edges [3]uint32
}

const compactTriangleSize = 16

func decodeCompactTriangle(b []byte) compactTriangle {
	var t compactTriangle
	for i := 0; i < 3; i++ {
		off := 4 + i*4
		t.edges[i] = binary.LittleEndian.Uint32(b[off : off+4])
	}
	return t
}

func (e compactTriangle) startPointIndex(edgeIndex int) uint16 {
	return uint16(e.edges[edgeIndex] & 0xFFFF)
}

func decodeVector4(b []byte) geom.Vector4 {
	return geom.Vector4{
		X: leFloat32(b[0:4]),
		Y: leFloat32(b[4:8]),
		Z: leFloat32(b[8:12]),
		W: leFloat32(b[12:16]),
	}
}

const vector4Size = 16

func leFloat32(b []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}
