// Package mdl parses the Source engine's model triplet: VVD (vertex
// data with LoD fixups), VTX (index/strip/mesh/model/bodypart hierarchy),
// and MDL (animation, materials, bone metadata at a high level only). All
// three are bound by a shared 32-bit checksum.
package mdl

import (
	"encoding/binary"
	"math"

	"github.com/TAServers/source-parsers/internal/byteview"
	"github.com/TAServers/source-parsers/internal/geom"
	"github.com/TAServers/source-parsers/parseerr"
)

const vvdTag = "Vvd"

const vvdFileID = uint32('I') | uint32('D')<<8 | uint32('S')<<16 | uint32('V')<<24

const vvdSupportedVersion = 4

const maxNumLoDs = 8

type vvdHeader struct {
	ID               uint32
	Version          int32
	Checksum         int32
	NumLoDs          int32
	NumLoDVertices   [maxNumLoDs]int32
	NumFixups        int32
	FixupTableOffset int32
	VertexDataOffset int32
	TangentDataOffset int32
}

const vvdHeaderSize = 64

func decodeVvdHeader(b []byte) vvdHeader {
	var h vvdHeader
	h.ID = binary.LittleEndian.Uint32(b[0:4])
	h.Version = int32(binary.LittleEndian.Uint32(b[4:8]))
	h.Checksum = int32(binary.LittleEndian.Uint32(b[8:12]))
	h.NumLoDs = int32(binary.LittleEndian.Uint32(b[12:16]))
	for i := 0; i < maxNumLoDs; i++ {
		off := 16 + i*4
		h.NumLoDVertices[i] = int32(binary.LittleEndian.Uint32(b[off : off+4]))
	}
	base := 16 + maxNumLoDs*4
	h.NumFixups = int32(binary.LittleEndian.Uint32(b[base : base+4]))
	h.FixupTableOffset = int32(binary.LittleEndian.Uint32(b[base+4 : base+8]))
	h.VertexDataOffset = int32(binary.LittleEndian.Uint32(b[base+8 : base+12]))
	h.TangentDataOffset = int32(binary.LittleEndian.Uint32(b[base+12 : base+16]))
	return h
}

// BoneWeight is a vertex's skinning data: up to three bone indices with
// corresponding weights.
type BoneWeight struct {
	Weight   [3]float32
	Bone     [3]uint8
	NumBones uint8
}

// Vertex is one VVD vertex: skinning data, position, normal, and texture
// coordinate.
type Vertex struct {
	BoneWeight BoneWeight
	Position   geom.Vector3
	Normal     geom.Vector3
	TexCoord   [2]float32
}

const vertexSize = 48

func decodeVertex(b []byte) Vertex {
	return Vertex{
		BoneWeight: BoneWeight{
			Weight:   [3]float32{leFloat32(b[0:4]), leFloat32(b[4:8]), leFloat32(b[8:12])},
			Bone:     [3]uint8{b[12], b[13], b[14]},
			NumBones: b[15],
		},
		Position: decodeVec3(b[16:28]),
		Normal:   decodeVec3(b[28:40]),
		TexCoord: [2]float32{leFloat32(b[40:44]), leFloat32(b[44:48])},
	}
}

// Tangent is a per-vertex 4-component tangent (xyz direction, w
// handedness).
type Tangent = geom.Vector4

const tangentSize = 16

func decodeTangent(b []byte) Tangent {
	return geom.Vector4{
		X: leFloat32(b[0:4]),
		Y: leFloat32(b[4:8]),
		Z: leFloat32(b[8:12]),
		W: leFloat32(b[12:16]),
	}
}

// Fixup remaps a range of the root vertex pool into the output stream for
// a given LoD.
type Fixup struct {
	LoD             int32
	SourceVertexID  int32
	NumVertices     int32
}

const fixupSize = 12

func decodeFixup(b []byte) Fixup {
	return Fixup{
		LoD:            int32(binary.LittleEndian.Uint32(b[0:4])),
		SourceVertexID: int32(binary.LittleEndian.Uint32(b[4:8])),
		NumVertices:    int32(binary.LittleEndian.Uint32(b[8:12])),
	}
}

// Vvd is a fully parsed .vvd vertex data file.
type Vvd struct {
	header   vvdHeader
	vertices []Vertex
	tangents []Tangent
}

// NewVvd parses a .vvd file's bytes. If expectedChecksum is non-nil, it is
// compared against the file's checksum and ErrInvalidChecksum is returned
// on mismatch.
func NewVvd(data []byte, expectedChecksum *int32) (*Vvd, error) {
	if len(data) < vvdHeaderSize {
		return nil, parseerr.Tagged(parseerr.ErrInvalidHeader, vvdTag, "file too short to contain a header")
	}
	header := decodeVvdHeader(data[:vvdHeaderSize])

	if header.ID != vvdFileID {
		return nil, parseerr.Tagged(parseerr.ErrInvalidHeader, vvdTag, "header id does not match 'IDSV'")
	}
	if header.Version != vvdSupportedVersion {
		return nil, parseerr.Taggedf(parseerr.ErrUnsupportedVersion, vvdTag, "unsupported VVD version %d", header.Version)
	}
	if expectedChecksum != nil && header.Checksum != *expectedChecksum {
		return nil, parseerr.Taggedf(parseerr.ErrInvalidChecksum, vvdTag, "checksum %d does not match expected %d", header.Checksum, *expectedChecksum)
	}

	const rootLoD = 0
	numVertices := header.NumLoDVertices[rootLoD]

	v := byteview.New(data)

	originalVertices, err := byteview.ReadArray(v, int64(header.VertexDataOffset), int(numVertices), vertexSize, decodeVertex, vvdTag, "VVD vertices")
	if err != nil {
		return nil, err
	}
	originalTangents, err := byteview.ReadArray(v, int64(header.TangentDataOffset), int(numVertices), tangentSize, decodeTangent, vvdTag, "VVD tangents")
	if err != nil {
		return nil, err
	}

	if header.NumFixups == 0 {
		return &Vvd{header: header, vertices: originalVertices, tangents: originalTangents}, nil
	}

	fixups, err := byteview.ReadArray(v, int64(header.FixupTableOffset), int(header.NumFixups), fixupSize, decodeFixup, vvdTag, "VVD fixups")
	if err != nil {
		return nil, err
	}

	vertices := make([]Vertex, 0, numVertices)
	tangents := make([]Tangent, 0, numVertices)
	for _, fixup := range fixups {
		if fixup.LoD < rootLoD || fixup.NumVertices <= 0 || fixup.SourceVertexID < 0 {
			continue
		}
		if fixup.SourceVertexID+fixup.NumVertices > numVertices {
			return nil, parseerr.Tagged(parseerr.ErrOutOfBounds, vvdTag, "fixup accesses outside vertex data")
		}

		vertices = append(vertices, originalVertices[fixup.SourceVertexID:fixup.SourceVertexID+fixup.NumVertices]...)
		tangents = append(tangents, originalTangents[fixup.SourceVertexID:fixup.SourceVertexID+fixup.NumVertices]...)
	}

	return &Vvd{header: header, vertices: vertices, tangents: tangents}, nil
}

func (v *Vvd) GetChecksum() int32 { return v.header.Checksum }
func (v *Vvd) GetVertices() []Vertex { return v.vertices }
func (v *Vvd) GetTangents() []Tangent { return v.tangents }
func (v *Vvd) GetLevelsOfDetail() int32 { return v.header.NumLoDs }

func decodeVec3(b []byte) geom.Vector3 {
	return geom.Vector3{X: leFloat32(b[0:4]), Y: leFloat32(b[4:8]), Z: leFloat32(b[8:12])}
}

func leFloat32(b []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}
