package bsp

import (
	"encoding/binary"
	"math"

	"github.com/TAServers/source-parsers/internal/geom"
)

const bspTag = "Bsp"

func leFloat32(b []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}

// fileIdent is the 4-byte little-endian encoding of "VBSP".
const fileIdent = uint32('V') | uint32('B')<<8 | uint32('S')<<16 | uint32('P')<<24

// LumpHeader is one entry of the fixed 64-entry lump table.
type LumpHeader struct {
	Offset  int32
	Length  int32
	Version int32
	FourCC  uint32
}

const lumpHeaderSize = 16

func decodeLumpHeader(b []byte) LumpHeader {
	return LumpHeader{
		Offset:  int32(binary.LittleEndian.Uint32(b[0:4])),
		Length:  int32(binary.LittleEndian.Uint32(b[4:8])),
		Version: int32(binary.LittleEndian.Uint32(b[8:12])),
		FourCC:  binary.LittleEndian.Uint32(b[12:16]),
	}
}

// Header is the fixed BSP file header: identifier, version, 64 lump
// descriptors, and map revision.
type Header struct {
	Ident       uint32
	Version     int32
	Lumps       [NumLumps]LumpHeader
	MapRevision int32
}

const headerSize = 4 + 4 + NumLumps*lumpHeaderSize + 4

func decodeHeader(b []byte) Header {
	var h Header
	h.Ident = binary.LittleEndian.Uint32(b[0:4])
	h.Version = int32(binary.LittleEndian.Uint32(b[4:8]))
	for i := 0; i < NumLumps; i++ {
		off := 8 + i*lumpHeaderSize
		h.Lumps[i] = decodeLumpHeader(b[off : off+lumpHeaderSize])
	}
	h.MapRevision = int32(binary.LittleEndian.Uint32(b[8+NumLumps*lumpHeaderSize:]))
	return h
}

func decodeVector(b []byte) geom.Vector3 {
	return geom.Vector3{
		X: leFloat32(b[0:4]),
		Y: leFloat32(b[4:8]),
		Z: leFloat32(b[8:12]),
	}
}

const vectorSize = 12

// Plane is one entry of the plane lump.
type Plane struct {
	Normal geom.Vector3
	Dist   float32
	Type   int32
}

const planeSize = 20

func decodePlane(b []byte) Plane {
	return Plane{
		Normal: decodeVector(b[0:12]),
		Dist:   leFloat32(b[12:16]),
		Type:   int32(binary.LittleEndian.Uint32(b[16:20])),
	}
}

// Edge is a pair of vertex indices.
type Edge struct {
	VertexIndices [2]uint16
}

const edgeSize = 4

func decodeEdge(b []byte) Edge {
	return Edge{VertexIndices: [2]uint16{
		binary.LittleEndian.Uint16(b[0:2]),
		binary.LittleEndian.Uint16(b[2:4]),
	}}
}

// Face describes one polygon of the world geometry.
type Face struct {
	PlaneNum               uint16
	Side                   uint8
	OnNode                 uint8
	FirstEdge              int32
	NumEdges               int16
	TexInfo                int16
	DispInfo               int16
	SurfaceFogVolumeID     int16
	Styles                 [4]uint8
	LightOffset            int32
	Area                   float32
	LightmapTextureMinsInLuxels [2]int32
	LightmapTextureSizeInLuxels [2]int32
	OrigFace               int32
	NumPrims               uint16
	FirstPrimID            uint16
	SmoothingGroups        uint32
}

const faceSize = 56

func decodeFace(b []byte) Face {
	return Face{
		PlaneNum:           binary.LittleEndian.Uint16(b[0:2]),
		Side:               b[2],
		OnNode:             b[3],
		FirstEdge:          int32(binary.LittleEndian.Uint32(b[4:8])),
		NumEdges:           int16(binary.LittleEndian.Uint16(b[8:10])),
		TexInfo:            int16(binary.LittleEndian.Uint16(b[10:12])),
		DispInfo:           int16(binary.LittleEndian.Uint16(b[12:14])),
		SurfaceFogVolumeID: int16(binary.LittleEndian.Uint16(b[14:16])),
		Styles:             [4]uint8{b[16], b[17], b[18], b[19]},
		LightOffset:        int32(binary.LittleEndian.Uint32(b[20:24])),
		Area:               leFloat32(b[24:28]),
		LightmapTextureMinsInLuxels: [2]int32{
			int32(binary.LittleEndian.Uint32(b[28:32])),
			int32(binary.LittleEndian.Uint32(b[32:36])),
		},
		LightmapTextureSizeInLuxels: [2]int32{
			int32(binary.LittleEndian.Uint32(b[36:40])),
			int32(binary.LittleEndian.Uint32(b[40:44])),
		},
		OrigFace:        int32(binary.LittleEndian.Uint32(b[44:48])),
		NumPrims:        binary.LittleEndian.Uint16(b[48:50]),
		FirstPrimID:     binary.LittleEndian.Uint16(b[50:52]),
		SmoothingGroups: binary.LittleEndian.Uint32(b[52:56]),
	}
}

// TexInfo maps a face to its texture projection and TexData entry.
type TexInfo struct {
	TextureVecs [2][4]float32
	LightmapVecs [2][4]float32
	Flags   int32
	TexData int32
}

const texInfoSize = 72

func decodeTexInfo(b []byte) TexInfo {
	var t TexInfo
	off := 0
	for i := 0; i < 2; i++ {
		for j := 0; j < 4; j++ {
			t.TextureVecs[i][j] = leFloat32(b[off : off+4])
			off += 4
		}
	}
	for i := 0; i < 2; i++ {
		for j := 0; j < 4; j++ {
			t.LightmapVecs[i][j] = leFloat32(b[off : off+4])
			off += 4
		}
	}
	t.Flags = int32(binary.LittleEndian.Uint32(b[off : off+4]))
	off += 4
	t.TexData = int32(binary.LittleEndian.Uint32(b[off : off+4]))
	return t
}

// TexData is the shared per-material metadata a TexInfo refers to.
type TexData struct {
	Reflectivity       geom.Vector3
	NameStringTableID  int32
	Width, Height      int32
	ViewWidth, ViewHeight int32
}

const texDataSize = 32

func decodeTexData(b []byte) TexData {
	return TexData{
		Reflectivity:      decodeVector(b[0:12]),
		NameStringTableID: int32(binary.LittleEndian.Uint32(b[12:16])),
		Width:             int32(binary.LittleEndian.Uint32(b[16:20])),
		Height:            int32(binary.LittleEndian.Uint32(b[20:24])),
		ViewWidth:         int32(binary.LittleEndian.Uint32(b[24:28])),
		ViewHeight:        int32(binary.LittleEndian.Uint32(b[28:32])),
	}
}

// Model is one sub-brush-model (e.g. the world or a bmodel entity).
type Model struct {
	Mins, Maxs geom.Vector3
	Origin     geom.Vector3
	HeadNode   int32
	FirstFace  int32
	NumFaces   int32
}

const modelSize = 48

func decodeModel(b []byte) Model {
	return Model{
		Mins:      decodeVector(b[0:12]),
		Maxs:      decodeVector(b[12:24]),
		Origin:    decodeVector(b[24:36]),
		HeadNode:  int32(binary.LittleEndian.Uint32(b[36:40])),
		FirstFace: int32(binary.LittleEndian.Uint32(b[40:44])),
		NumFaces:  int32(binary.LittleEndian.Uint32(b[44:48])),
	}
}
