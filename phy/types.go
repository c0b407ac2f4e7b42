// Package phy parses the Source engine's .phy physics collision format: a
// header, a sequence of compact-surface physics solids, and a trailing
// key-value text section.
package phy

import "github.com/TAServers/source-parsers/internal/geom"

// ModelType identifies the physics model encoding of a single surface.
type ModelType int32

const (
	ModelTypeIVPCompactSurface ModelType = 0
	ModelTypeIVPMOPP           ModelType = 1
	ModelTypeIVPBall           ModelType = 2
	ModelTypeIVPVirtual        ModelType = 3
)

// Header is the fixed 16-byte .phy file header.
type Header struct {
	Size       int32
	ID         int32
	SolidCount int32
	Checksum   int32
}

func decodeHeader(b []byte) Header {
	return Header{
		Size:       le32(b[0:4]),
		ID:         le32(b[4:8]),
		SolidCount: le32(b[8:12]),
		Checksum:   le32(b[12:16]),
	}
}

const headerSize = 16

// SurfaceHeader precedes each physics model's body.
type SurfaceHeader struct {
	Size           int32
	ID             int32
	ModelType      ModelType
	SurfaceVersion int32
}

func decodeSurfaceHeader(b []byte) SurfaceHeader {
	return SurfaceHeader{
		Size:           le32(b[0:4]),
		ID:             le32(b[4:8]),
		ModelType:      ModelType(le32(b[8:12])),
		SurfaceVersion: le32(b[12:16]),
	}
}

const surfaceHeaderSize = 16

// Solid is one de-duplicated vertex/index buffer derived from a single ledge
// of a compact-surface tree.
type Solid struct {
	Vertices     []geom.Vector4
	Indices      []uint16
	CentreOfMass geom.Vector3
	BoneIndex    int32
}

// TextEntry is a single key/value pair from the trailing text section.
type TextEntry struct {
	Key   string
	Value string
}

func le32(b []byte) int32 {
	return int32(uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24)
}
