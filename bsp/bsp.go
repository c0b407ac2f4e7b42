// Package bsp parses the Source engine's compiled map (.bsp) format: a
// fixed header, a table of typed and optionally LZMA-compressed lumps, a
// game-lump sub-dispatch for static props, an embedded pakfile, physics
// collision data, and displacement surfaces.
package bsp

import (
	"encoding/binary"

	"github.com/TAServers/source-parsers/internal/geom"
	"github.com/TAServers/source-parsers/internal/lzmashim"
	"github.com/TAServers/source-parsers/internal/zipreader"
	"github.com/TAServers/source-parsers/parseerr"
	"github.com/TAServers/source-parsers/phy"
)

// supportedVersions is the closed set of BSP file-format versions this
// parser understands.
var supportedVersions = map[int32]bool{19: true, 20: true, 21: true, 22: true}

// Bsp is a fully parsed BSP file. Uncompressed lumps alias the caller's
// buffer directly; compressed lumps and restructured data (displacements,
// physics solids) are owned by the Bsp and released with it.
type Bsp struct {
	data   []byte
	header Header

	decompressCallback lzmashim.DecompressCallback
	decompressedLumps  [][]byte

	Vertices     []geom.Vector3
	Planes       []Plane
	Edges        []Edge
	SurfaceEdges []int32
	Faces        []Face

	TexInfos           []TexInfo
	TexDatas           []TexData
	TexDataStringTable []int32
	TexDataStringData  []byte

	Models []Model

	DisplacementInfos     []DispInfo
	DisplacementVertices  []DispVert
	Displacements         []TriangulatedDisplacement
	displacementsSmoothed bool

	PhysicsSolids []phy.Solid

	Pakfile []zipreader.Entry

	StaticPropDictionary []StaticPropDict
	StaticPropLeaves     []StaticPropLeaf
	StaticProps          StaticProps
	hasStaticProps       bool
}

// New parses a BSP file's bytes. decompressCallback is invoked whenever a
// lump or game lump is LZMA-compressed; passing nil is valid as long as
// the file contains no compressed regions.
func New(data []byte, decompressCallback lzmashim.DecompressCallback) (*Bsp, error) {
	if len(data) < headerSize {
		return nil, parseerr.Tagged(parseerr.ErrInvalidHeader, bspTag, "file too short to contain a header")
	}
	header := decodeHeader(data[:headerSize])
	if header.Ident != fileIdent {
		return nil, parseerr.Tagged(parseerr.ErrInvalidHeader, bspTag, "file identifier is not 'VBSP'")
	}
	if !supportedVersions[header.Version] {
		return nil, parseerr.Taggedf(parseerr.ErrUnsupportedVersion, bspTag, "unsupported BSP version %d", header.Version)
	}

	for i, lh := range header.Lumps {
		if err := assertLumpHeaderValid(Lump(i), lh, len(data)); err != nil {
			return nil, err
		}
	}

	b := &Bsp{
		data:                data,
		header:              header,
		decompressCallback:  decompressCallback,
	}

	var err error
	if b.Vertices, err = parseLump(b, LumpVertexes, vectorSize, decodeVector, -1); err != nil {
		return nil, err
	}
	if b.Planes, err = parseLump(b, LumpPlanes, planeSize, decodePlane, -1); err != nil {
		return nil, err
	}
	if b.Edges, err = parseLump(b, LumpEdges, edgeSize, decodeEdge, -1); err != nil {
		return nil, err
	}
	if b.SurfaceEdges, err = parseLump(b, LumpSurfEdges, 4, decodeInt32, -1); err != nil {
		return nil, err
	}
	if b.Faces, err = parseLump(b, LumpFaces, faceSize, decodeFace, -1); err != nil {
		return nil, err
	}
	if b.TexInfos, err = parseLump(b, LumpTexInfo, texInfoSize, decodeTexInfo, -1); err != nil {
		return nil, err
	}
	if b.TexDatas, err = parseLump(b, LumpTexData, texDataSize, decodeTexData, -1); err != nil {
		return nil, err
	}
	if b.TexDataStringTable, err = parseLump(b, LumpTexDataStringTable, 4, decodeInt32, -1); err != nil {
		return nil, err
	}
	if b.TexDataStringData, err = parseRawLump(b, LumpTexDataStringData); err != nil {
		return nil, err
	}
	if b.Models, err = parseLump(b, LumpModels, modelSize, decodeModel, -1); err != nil {
		return nil, err
	}
	if b.DisplacementInfos, err = parseLump(b, LumpDispInfo, dispInfoSize, decodeDispInfo, -1); err != nil {
		return nil, err
	}
	if b.DisplacementVertices, err = parseLump(b, LumpDispVerts, dispVertSize, decodeDispVert, -1); err != nil {
		return nil, err
	}

	if err := b.parsePakfileLump(); err != nil {
		return nil, err
	}
	if err := b.parsePhysCollideLump(); err != nil {
		return nil, err
	}
	if err := b.parseGameLump(); err != nil {
		return nil, err
	}

	b.Displacements = make([]TriangulatedDisplacement, len(b.DisplacementInfos))
	for i, info := range b.DisplacementInfos {
		triangulated, err := b.createTriangulatedDisplacement(info)
		if err != nil {
			return nil, err
		}
		b.Displacements[i] = triangulated
	}

	return b, nil
}

func decodeInt32(b []byte) int32 {
	return int32(binary.LittleEndian.Uint32(b))
}

func assertLumpHeaderValid(lump Lump, lh LumpHeader, dataLen int) error {
	if lh.Offset < 0 {
		return parseerr.Taggedf(parseerr.ErrInvalidBody, bspTag, "lump %s has a negative offset (%d)", lump, lh.Offset)
	}
	if lh.Length < 0 {
		return parseerr.Taggedf(parseerr.ErrInvalidBody, bspTag, "lump %s has a negative length (%d)", lump, lh.Length)
	}
	if int64(lh.Offset)+int64(lh.Length) > int64(dataLen) {
		return parseerr.Taggedf(parseerr.ErrOutOfBounds, bspTag, "lump %s offset+length overruns the file", lump)
	}
	return nil
}
