package mdl

import (
	"encoding/binary"

	"github.com/TAServers/source-parsers/internal/byteview"
	"github.com/TAServers/source-parsers/parseerr"
)

const vtxTag = "Vtx"

const vtxSupportedVersion = 7

type vtxHeader struct {
	Version                       int32
	VertCacheSize                 int32
	MaxBonesPerStrip              uint16
	MaxBonesPerTri                uint16
	MaxBonesPerVert               int32
	Checksum                      int32
	NumLoDs                       int32
	MaterialReplacementListOffset int32
	NumBodyParts                  int32
	BodyPartOffset                int32
}

const vtxHeaderSize = 36

func decodeVtxHeader(b []byte) vtxHeader {
	return vtxHeader{
		Version:                       int32(binary.LittleEndian.Uint32(b[0:4])),
		VertCacheSize:                 int32(binary.LittleEndian.Uint32(b[4:8])),
		MaxBonesPerStrip:              binary.LittleEndian.Uint16(b[8:10]),
		MaxBonesPerTri:                binary.LittleEndian.Uint16(b[10:12]),
		MaxBonesPerVert:               int32(binary.LittleEndian.Uint32(b[12:16])),
		Checksum:                      int32(binary.LittleEndian.Uint32(b[16:20])),
		NumLoDs:                       int32(binary.LittleEndian.Uint32(b[20:24])),
		MaterialReplacementListOffset: int32(binary.LittleEndian.Uint32(b[24:28])),
		NumBodyParts:                  int32(binary.LittleEndian.Uint32(b[28:32])),
		BodyPartOffset:                int32(binary.LittleEndian.Uint32(b[32:36])),
	}
}

type vtxBodyPartHeader struct {
	NumModels   int32
	ModelOffset int32
}

const vtxBodyPartHeaderSize = 8

func decodeVtxBodyPartHeader(b []byte) vtxBodyPartHeader {
	return vtxBodyPartHeader{
		NumModels:   int32(binary.LittleEndian.Uint32(b[0:4])),
		ModelOffset: int32(binary.LittleEndian.Uint32(b[4:8])),
	}
}

type vtxModelHeader struct {
	NumLoDs   int32
	LoDOffset int32
}

const vtxModelHeaderSize = 8

func decodeVtxModelHeader(b []byte) vtxModelHeader {
	return vtxModelHeader{
		NumLoDs:   int32(binary.LittleEndian.Uint32(b[0:4])),
		LoDOffset: int32(binary.LittleEndian.Uint32(b[4:8])),
	}
}

type vtxModelLoDHeader struct {
	NumMeshes    int32
	MeshOffset   int32
	SwitchPoint  float32
}

const vtxModelLoDHeaderSize = 12

func decodeVtxModelLoDHeader(b []byte) vtxModelLoDHeader {
	return vtxModelLoDHeader{
		NumMeshes:   int32(binary.LittleEndian.Uint32(b[0:4])),
		MeshOffset:  int32(binary.LittleEndian.Uint32(b[4:8])),
		SwitchPoint: leFloat32(b[8:12]),
	}
}

type vtxMeshHeader struct {
	NumStripGroups          int32
	StripGroupHeaderOffset  int32
	Flags                   uint8
}

const vtxMeshHeaderSize = 9

func decodeVtxMeshHeader(b []byte) vtxMeshHeader {
	return vtxMeshHeader{
		NumStripGroups:         int32(binary.LittleEndian.Uint32(b[0:4])),
		StripGroupHeaderOffset: int32(binary.LittleEndian.Uint32(b[4:8])),
		Flags:                  b[8],
	}
}

type vtxStripGroupHeader struct {
	NumVerts    int32
	VertOffset  int32
	NumIndices  int32
	IndexOffset int32
	NumStrips   int32
	StripOffset int32
	Flags       uint8
}

const vtxStripGroupHeaderSize = 25

func decodeVtxStripGroupHeader(b []byte) vtxStripGroupHeader {
	return vtxStripGroupHeader{
		NumVerts:    int32(binary.LittleEndian.Uint32(b[0:4])),
		VertOffset:  int32(binary.LittleEndian.Uint32(b[4:8])),
		NumIndices:  int32(binary.LittleEndian.Uint32(b[8:12])),
		IndexOffset: int32(binary.LittleEndian.Uint32(b[12:16])),
		NumStrips:   int32(binary.LittleEndian.Uint32(b[16:20])),
		StripOffset: int32(binary.LittleEndian.Uint32(b[20:24])),
		Flags:       b[24],
	}
}

type vtxStripHeader struct {
	NumIndices            int32
	IndexOffset           int32
	NumVerts              int32
	VertOffset            int32
	NumBones              int16
	Flags                 uint8
	NumBoneStateChanges   int32
	BoneStateChangeOffset int32
}

const vtxStripHeaderSize = 27

func decodeVtxStripHeader(b []byte) vtxStripHeader {
	return vtxStripHeader{
		NumIndices:            int32(binary.LittleEndian.Uint32(b[0:4])),
		IndexOffset:           int32(binary.LittleEndian.Uint32(b[4:8])),
		NumVerts:              int32(binary.LittleEndian.Uint32(b[8:12])),
		VertOffset:            int32(binary.LittleEndian.Uint32(b[12:16])),
		NumBones:              int16(binary.LittleEndian.Uint16(b[16:18])),
		Flags:                 b[18],
		NumBoneStateChanges:   int32(binary.LittleEndian.Uint32(b[19:23])),
		BoneStateChangeOffset: int32(binary.LittleEndian.Uint32(b[23:27])),
	}
}

// StripVertex is one VTX-local vertex record, referencing back into the
// VVD vertex pool via OrigMeshVertID.
type StripVertex struct {
	BoneWeightIndex [3]uint8
	NumBones        uint8
	OrigMeshVertID  uint16
	BoneID          [3]int8
}

const stripVertexSize = 9

func decodeStripVertex(b []byte) StripVertex {
	return StripVertex{
		BoneWeightIndex: [3]uint8{b[0], b[1], b[2]},
		NumBones:        b[3],
		OrigMeshVertID:  binary.LittleEndian.Uint16(b[4:6]),
		BoneID:          [3]int8{int8(b[6]), int8(b[7]), int8(b[8])},
	}
}

// Strip is one triangle strip/list within a strip group.
type Strip struct {
	VerticesCount  int32
	VerticesOffset int32
	IndicesCount   int32
	IndicesOffset  int32
	Flags          uint8
}

// StripGroup is a set of strips sharing one vertex/index pool.
type StripGroup struct {
	Vertices []StripVertex
	Indices  []uint16
	Strips   []Strip
	Flags    uint8
}

// Mesh is one material's set of strip groups within a model LoD.
type Mesh struct {
	StripGroups []StripGroup
	Flags       uint8
}

// ModelLoD is one level-of-detail's meshes.
type ModelLoD struct {
	Meshes      []Mesh
	SwitchPoint float32
}

// Model is one body-part sub-model's LoDs.
type Model struct {
	LevelsOfDetail []ModelLoD
}

// BodyPart is a set of alternative models (e.g. different heads).
type BodyPart struct {
	Models []Model
}

// MaterialReplacement names a material swapped in for a given LoD.
type MaterialReplacement struct {
	ReplacementID   int16
	ReplacementName string
}

// Vtx is a fully parsed .vtx file.
type Vtx struct {
	header                  vtxHeader
	bodyParts               []BodyPart
	materialReplacementsByLoD [][]MaterialReplacement
}

// NewVtx parses a .vtx file's bytes. If expectedChecksum is non-nil, it is
// compared against the file's checksum (shared with the MDL/VVD triplet).
func NewVtx(data []byte, expectedChecksum *int32) (*Vtx, error) {
	if len(data) < vtxHeaderSize {
		return nil, parseerr.Tagged(parseerr.ErrInvalidHeader, vtxTag, "file too short to contain a header")
	}
	header := decodeVtxHeader(data[:vtxHeaderSize])

	if header.Version != vtxSupportedVersion {
		return nil, parseerr.Taggedf(parseerr.ErrUnsupportedVersion, vtxTag, "unsupported VTX version %d", header.Version)
	}
	if expectedChecksum != nil && header.Checksum != *expectedChecksum {
		return nil, parseerr.Taggedf(parseerr.ErrInvalidChecksum, vtxTag, "checksum %d does not match expected %d", header.Checksum, *expectedChecksum)
	}

	v := byteview.New(data)

	bodyPartHeaders, err := byteview.ReadArrayWithOffsets(v, int64(header.BodyPartOffset), int(header.NumBodyParts), vtxBodyPartHeaderSize, decodeVtxBodyPartHeader, vtxTag, "VTX body part array")
	if err != nil {
		return nil, err
	}

	bodyParts := make([]BodyPart, 0, len(bodyPartHeaders))
	for _, bp := range bodyPartHeaders {
		rebased, err := v.AtAbsolute(bp.Offset, vtxTag, "VTX body part")
		if err != nil {
			return nil, err
		}
		bodyPart, err := parseBodyPart(rebased, bp.Value, header.NumLoDs)
		if err != nil {
			return nil, err
		}
		bodyParts = append(bodyParts, bodyPart)
	}

	materialLists, err := byteview.ReadArrayWithOffsets(v, int64(header.MaterialReplacementListOffset), int(header.NumLoDs), materialReplacementListHeaderSize, decodeMaterialReplacementListHeader, vtxTag, "VTX material replacement lists")
	if err != nil {
		return nil, err
	}

	materialReplacementsByLoD := make([][]MaterialReplacement, 0, len(materialLists))
	for _, ml := range materialLists {
		rebased, err := v.AtAbsolute(ml.Offset, vtxTag, "VTX material replacement list")
		if err != nil {
			return nil, err
		}
		replacements, err := parseMaterialReplacements(rebased, ml.Value)
		if err != nil {
			return nil, err
		}
		materialReplacementsByLoD = append(materialReplacementsByLoD, replacements)
	}

	return &Vtx{header: header, bodyParts: bodyParts, materialReplacementsByLoD: materialReplacementsByLoD}, nil
}

func parseBodyPart(v byteview.View, bp vtxBodyPartHeader, expectedLoDs int32) (BodyPart, error) {
	modelHeaders, err := byteview.ReadArrayWithOffsets(v, int64(bp.ModelOffset), int(bp.NumModels), vtxModelHeaderSize, decodeVtxModelHeader, vtxTag, "VTX model array")
	if err != nil {
		return BodyPart{}, err
	}

	models := make([]Model, 0, len(modelHeaders))
	for _, m := range modelHeaders {
		if m.Value.NumLoDs != expectedLoDs {
			return BodyPart{}, parseerr.Tagged(parseerr.ErrInvalidBody, vtxTag, "VTX model LoD count does not match header")
		}
		rebased, err := v.AtAbsolute(m.Offset, vtxTag, "VTX model")
		if err != nil {
			return BodyPart{}, err
		}
		model, err := parseModel(rebased, m.Value)
		if err != nil {
			return BodyPart{}, err
		}
		models = append(models, model)
	}

	return BodyPart{Models: models}, nil
}

func parseModel(v byteview.View, m vtxModelHeader) (Model, error) {
	lodHeaders, err := byteview.ReadArrayWithOffsets(v, int64(m.LoDOffset), int(m.NumLoDs), vtxModelLoDHeaderSize, decodeVtxModelLoDHeader, vtxTag, "VTX model LoD array")
	if err != nil {
		return Model{}, err
	}

	lods := make([]ModelLoD, 0, len(lodHeaders))
	for _, l := range lodHeaders {
		rebased, err := v.AtAbsolute(l.Offset, vtxTag, "VTX model LoD")
		if err != nil {
			return Model{}, err
		}
		lod, err := parseModelLoD(rebased, l.Value)
		if err != nil {
			return Model{}, err
		}
		lods = append(lods, lod)
	}

	return Model{LevelsOfDetail: lods}, nil
}

func parseModelLoD(v byteview.View, l vtxModelLoDHeader) (ModelLoD, error) {
	meshHeaders, err := byteview.ReadArrayWithOffsets(v, int64(l.MeshOffset), int(l.NumMeshes), vtxMeshHeaderSize, decodeVtxMeshHeader, vtxTag, "VTX mesh array")
	if err != nil {
		return ModelLoD{}, err
	}

	meshes := make([]Mesh, 0, len(meshHeaders))
	for _, mh := range meshHeaders {
		rebased, err := v.AtAbsolute(mh.Offset, vtxTag, "VTX mesh")
		if err != nil {
			return ModelLoD{}, err
		}
		mesh, err := parseMesh(rebased, mh.Value)
		if err != nil {
			return ModelLoD{}, err
		}
		meshes = append(meshes, mesh)
	}

	return ModelLoD{Meshes: meshes, SwitchPoint: l.SwitchPoint}, nil
}

func parseMesh(v byteview.View, mh vtxMeshHeader) (Mesh, error) {
	stripGroupHeaders, err := byteview.ReadArrayWithOffsets(v, int64(mh.StripGroupHeaderOffset), int(mh.NumStripGroups), vtxStripGroupHeaderSize, decodeVtxStripGroupHeader, vtxTag, "VTX strip group array")
	if err != nil {
		return Mesh{}, err
	}

	stripGroups := make([]StripGroup, 0, len(stripGroupHeaders))
	for _, sg := range stripGroupHeaders {
		rebased, err := v.AtAbsolute(sg.Offset, vtxTag, "VTX strip group")
		if err != nil {
			return Mesh{}, err
		}
		stripGroup, err := parseStripGroup(rebased, sg.Value)
		if err != nil {
			return Mesh{}, err
		}
		stripGroups = append(stripGroups, stripGroup)
	}

	return Mesh{StripGroups: stripGroups, Flags: mh.Flags}, nil
}

func parseStripGroup(v byteview.View, sg vtxStripGroupHeader) (StripGroup, error) {
	stripHeaders, err := byteview.ReadArrayWithOffsets(v, int64(sg.StripOffset), int(sg.NumStrips), vtxStripHeaderSize, decodeVtxStripHeader, vtxTag, "VTX strip array")
	if err != nil {
		return StripGroup{}, err
	}

	strips := make([]Strip, 0, len(stripHeaders))
	for _, sh := range stripHeaders {
		if err := checkBounds(sh.Value.VertOffset, sh.Value.NumVerts, sg.NumVerts, "VTX strip accesses outside strip group vertex data"); err != nil {
			return StripGroup{}, err
		}
		if err := checkBounds(sh.Value.IndexOffset, sh.Value.NumIndices, sg.NumIndices, "VTX strip accesses outside strip group index data"); err != nil {
			return StripGroup{}, err
		}
		strips = append(strips, Strip{
			VerticesCount:  sh.Value.NumVerts,
			VerticesOffset: sh.Value.VertOffset,
			IndicesCount:   sh.Value.NumIndices,
			IndicesOffset:  sh.Value.IndexOffset,
			Flags:          sh.Value.Flags,
		})
	}

	vertices, err := byteview.ReadArray(v, int64(sg.VertOffset), int(sg.NumVerts), stripVertexSize, decodeStripVertex, vtxTag, "VTX vertex array")
	if err != nil {
		return StripGroup{}, err
	}
	indices, err := byteview.ReadArray(v, int64(sg.IndexOffset), int(sg.NumIndices), 2, decodeUint16, vtxTag, "VTX index array")
	if err != nil {
		return StripGroup{}, err
	}

	return StripGroup{Vertices: vertices, Indices: indices, Strips: strips, Flags: sg.Flags}, nil
}

func decodeUint16(b []byte) uint16 {
	return binary.LittleEndian.Uint16(b)
}

// checkBounds requires [offset, offset+count) to lie within [0, limit).
func checkBounds(offset, count, limit int32, msg string) error {
	if count == 0 {
		return nil
	}
	if offset < 0 || offset+count > limit {
		return parseerr.Tagged(parseerr.ErrOutOfBounds, vtxTag, msg)
	}
	return nil
}

type materialReplacementListHeader struct {
	ReplacementCount  int32
	ReplacementOffset int32
}

const materialReplacementListHeaderSize = 8

func decodeMaterialReplacementListHeader(b []byte) materialReplacementListHeader {
	return materialReplacementListHeader{
		ReplacementCount:  int32(binary.LittleEndian.Uint32(b[0:4])),
		ReplacementOffset: int32(binary.LittleEndian.Uint32(b[4:8])),
	}
}

type materialReplacementHeader struct {
	MaterialID                     int16
	ReplacementMaterialNameOffset  int32
}

const materialReplacementHeaderSize = 6

func decodeMaterialReplacementHeader(b []byte) materialReplacementHeader {
	return materialReplacementHeader{
		MaterialID:                    int16(binary.LittleEndian.Uint16(b[0:2])),
		ReplacementMaterialNameOffset: int32(binary.LittleEndian.Uint32(b[2:6])),
	}
}

func parseMaterialReplacements(v byteview.View, list materialReplacementListHeader) ([]MaterialReplacement, error) {
	headers, err := byteview.ReadArrayWithOffsets(v, int64(list.ReplacementOffset), int(list.ReplacementCount), materialReplacementHeaderSize, decodeMaterialReplacementHeader, vtxTag, "VTX material replacements")
	if err != nil {
		return nil, err
	}

	replacements := make([]MaterialReplacement, 0, len(headers))
	for _, h := range headers {
		rebased, err := v.AtAbsolute(h.Offset, vtxTag, "VTX material replacement")
		if err != nil {
			return nil, err
		}
		name, err := rebased.ReadCString(int64(h.Value.ReplacementMaterialNameOffset), vtxTag, "VTX material replacement name")
		if err != nil {
			return nil, err
		}
		replacements = append(replacements, MaterialReplacement{ReplacementID: h.Value.MaterialID, ReplacementName: name})
	}
	return replacements, nil
}

func (v *Vtx) GetChecksum() int32 { return v.header.Checksum }

func (v *Vtx) GetBodyParts() []BodyPart { return v.bodyParts }

func (v *Vtx) GetMaterialReplacements(lod int) ([]MaterialReplacement, error) {
	if lod < 0 || lod >= len(v.materialReplacementsByLoD) {
		return nil, parseerr.Tagged(parseerr.ErrOutOfBounds, vtxTag, "level of detail is outside range")
	}
	return v.materialReplacementsByLoD[lod], nil
}
