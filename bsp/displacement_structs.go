package bsp

import (
	"encoding/binary"

	"github.com/TAServers/source-parsers/internal/geom"
)

// DispNeighbor names the base face of the displacement sharing one edge
// with this one, or -1 if that edge borders nothing.
type DispNeighbor struct {
	SubNeighborFace int16
}

// DispInfo is one displacement patch's metadata, pointing into the
// DispVert lump for its per-corner deltas.
type DispInfo struct {
	StartPosition      geom.Vector3
	DispVertStart      int32
	DispTriStart       int32
	Power              int32
	MinTess            int32
	SmoothingAngle     float32
	Contents           int32
	MapFace            uint16
	LightmapAlphaStart int32
	LightmapSamplePositionStart int32
	// EdgeNeighbors holds the base-face index of the displacement across
	// each of the four edges (-1 if none), in left/right/top/bottom order.
	EdgeNeighbors [4]int16
}

// dispInfoSize is the full on-disk size of the engine's ddispinfo_t record.
// decodeDispInfo reads only the leading fields held in DispInfo; the rest of
// the record (per-edge/per-corner sub-neighbor chains and allowed-vertex
// bitfields) is treated as opaque trailing padding.
const dispInfoSize = 176

func decodeDispInfo(b []byte) DispInfo {
	return DispInfo{
		StartPosition:      decodeVector(b[0:12]),
		DispVertStart:      int32(binary.LittleEndian.Uint32(b[12:16])),
		DispTriStart:       int32(binary.LittleEndian.Uint32(b[16:20])),
		Power:              int32(binary.LittleEndian.Uint32(b[20:24])),
		MinTess:            int32(binary.LittleEndian.Uint32(b[24:28])),
		SmoothingAngle:     leFloat32(b[28:32]),
		Contents:           int32(binary.LittleEndian.Uint32(b[32:36])),
		MapFace:            binary.LittleEndian.Uint16(b[36:38]),
		LightmapAlphaStart: int32(binary.LittleEndian.Uint32(b[40:44])),
		LightmapSamplePositionStart: int32(binary.LittleEndian.Uint32(b[44:48])),
		EdgeNeighbors: [4]int16{
			int16(binary.LittleEndian.Uint16(b[48:50])),
			int16(binary.LittleEndian.Uint16(b[50:52])),
			int16(binary.LittleEndian.Uint16(b[52:54])),
			int16(binary.LittleEndian.Uint16(b[54:56])),
		},
	}
}

// DispVert is one per-corner displacement: a unit direction, a magnitude,
// and a blend alpha.
type DispVert struct {
	Vector geom.Vector3
	Dist   float32
	Alpha  float32
}

const dispVertSize = 20

func decodeDispVert(b []byte) DispVert {
	return DispVert{
		Vector: decodeVector(b[0:12]),
		Dist:   leFloat32(b[12:16]),
		Alpha:  leFloat32(b[16:20]),
	}
}
