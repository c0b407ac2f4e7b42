package mdl

import (
	"encoding/binary"

	"github.com/TAServers/source-parsers/internal/byteview"
	"github.com/TAServers/source-parsers/parseerr"
)

const mdlTag = "Mdl"

const mdlFileID = uint32('I') | uint32('D')<<8 | uint32('S')<<16 | uint32('T')<<24

// mdlSupportedVersions covers the studiohdr_t versions seen across the
// Source 2013 branch; newer or older revisions are rejected rather than
// silently misparsed.
var mdlSupportedVersions = map[int32]bool{44: true, 45: true, 46: true, 47: true, 48: true, 49: true}

const mdlNameSize = 64

// Only the fields needed for header validation and bone/material name
// lookups are decoded; the real studiohdr_t carries dozens of additional
// offsets (hitboxes, sequences, animations, IK chains, flex controllers)
// that are out of scope here.
//
// Offsets below skip over the real studiohdr_t's eye position, illumination
// position, hull and view bounding boxes, flags, and a handful of other
// fields this package never reads. They are fixed constants rather than a
// literal transcription of the real struct, consistent with this package's
// header being a deliberately partial view of the on-disk layout.
const (
	mdlHeaderIDOffset         = 0
	mdlHeaderVersionOffset    = 4
	mdlHeaderChecksumOffset   = 8
	mdlHeaderNameOffset       = 12
	mdlHeaderNumBonesOffset   = 164
	mdlHeaderBoneIndexOffset  = 168
)

// mstudiobone_t: we only need the name offset for an owned accessor, the
// rest of the per-bone transform/parent data is out of scope.
type boneRecord struct {
	NameOffset int32
}

const boneRecordSize = 216

// mstudiotexture_t: only the name offset, the flags and index fields are
// unused by this package's accessors.
type textureRecord struct {
	NameOffset int32
}

const textureRecordSize = 64

// BoneInfo is a bone's name, resolved from the owning mstudiobone_t's
// internal name offset.
type BoneInfo struct {
	Name string
}

// MaterialInfo is a referenced material's name, resolved the same way as
// BoneInfo, from mstudiotexture_t.
type MaterialInfo struct {
	Name string
}

// Mdl is a minimally parsed .mdl file: header identity, checksum, and
// bone/material name tables. Animation, sequence, and hitbox data are
// entirely out of scope.
type Mdl struct {
	checksum  int32
	name      string
	bones     []BoneInfo
	materials []MaterialInfo
}

// NewMdl parses a .mdl file's header and bone/material name tables. If
// expectedChecksum is non-nil, it is compared against the file's checksum.
func NewMdl(data []byte, expectedChecksum *int32) (*Mdl, error) {
	if len(data) < mdlHeaderBoneIndexOffset+4 {
		return nil, parseerr.Tagged(parseerr.ErrInvalidHeader, mdlTag, "file too short to contain a header")
	}

	id := binary.LittleEndian.Uint32(data[mdlHeaderIDOffset : mdlHeaderIDOffset+4])
	if id != mdlFileID {
		return nil, parseerr.Tagged(parseerr.ErrInvalidHeader, mdlTag, "header id does not match 'IDST'")
	}
	version := int32(binary.LittleEndian.Uint32(data[mdlHeaderVersionOffset : mdlHeaderVersionOffset+4]))
	if !mdlSupportedVersions[version] {
		return nil, parseerr.Taggedf(parseerr.ErrUnsupportedVersion, mdlTag, "unsupported MDL version %d", version)
	}
	checksum := int32(binary.LittleEndian.Uint32(data[mdlHeaderChecksumOffset : mdlHeaderChecksumOffset+4]))
	if expectedChecksum != nil && checksum != *expectedChecksum {
		return nil, parseerr.Taggedf(parseerr.ErrInvalidChecksum, mdlTag, "checksum %d does not match expected %d", checksum, *expectedChecksum)
	}

	name, err := readFixedCString(data, mdlHeaderNameOffset, mdlNameSize)
	if err != nil {
		return nil, parseerr.Tagged(parseerr.ErrInvalidBody, mdlTag, "model name is not NUL-terminated within its field")
	}

	numBones := int32(binary.LittleEndian.Uint32(data[mdlHeaderNumBonesOffset : mdlHeaderNumBonesOffset+4]))
	boneIndex := int32(binary.LittleEndian.Uint32(data[mdlHeaderBoneIndexOffset : mdlHeaderBoneIndexOffset+4]))
	numTexturesOffset := mdlHeaderBoneIndexOffset + 4
	if len(data) < numTexturesOffset+8 {
		return nil, parseerr.Tagged(parseerr.ErrInvalidHeader, mdlTag, "file too short to contain texture counts")
	}
	numTextures := int32(binary.LittleEndian.Uint32(data[numTexturesOffset : numTexturesOffset+4]))
	textureIndex := int32(binary.LittleEndian.Uint32(data[numTexturesOffset+4 : numTexturesOffset+8]))

	v := byteview.New(data)

	boneRecords, err := byteview.ReadArrayWithOffsets(v, int64(boneIndex), int(numBones), boneRecordSize, decodeBoneRecord, mdlTag, "MDL bone array")
	if err != nil {
		return nil, err
	}
	bones := make([]BoneInfo, 0, len(boneRecords))
	for _, br := range boneRecords {
		rebased, err := v.AtAbsolute(br.Offset, mdlTag, "MDL bone")
		if err != nil {
			return nil, err
		}
		boneName, err := rebased.ReadCString(int64(br.Value.NameOffset), mdlTag, "MDL bone name")
		if err != nil {
			return nil, err
		}
		bones = append(bones, BoneInfo{Name: boneName})
	}

	textureRecords, err := byteview.ReadArrayWithOffsets(v, int64(textureIndex), int(numTextures), textureRecordSize, decodeTextureRecord, mdlTag, "MDL texture array")
	if err != nil {
		return nil, err
	}
	materials := make([]MaterialInfo, 0, len(textureRecords))
	for _, tr := range textureRecords {
		rebased, err := v.AtAbsolute(tr.Offset, mdlTag, "MDL texture")
		if err != nil {
			return nil, err
		}
		materialName, err := rebased.ReadCString(int64(tr.Value.NameOffset), mdlTag, "MDL material name")
		if err != nil {
			return nil, err
		}
		materials = append(materials, MaterialInfo{Name: materialName})
	}

	return &Mdl{checksum: checksum, name: name, bones: bones, materials: materials}, nil
}

func decodeBoneRecord(b []byte) boneRecord {
	return boneRecord{NameOffset: int32(binary.LittleEndian.Uint32(b[0:4]))}
}

func decodeTextureRecord(b []byte) textureRecord {
	return textureRecord{NameOffset: int32(binary.LittleEndian.Uint32(b[0:4]))}
}

func readFixedCString(b []byte, offset, size int) (string, error) {
	field := b[offset : offset+size]
	for i, c := range field {
		if c == 0 {
			return string(field[:i]), nil
		}
	}
	return "", parseerr.Tagged(parseerr.ErrInvalidBody, mdlTag, "fixed string field has no NUL terminator")
}

func (m *Mdl) GetChecksum() int32          { return m.checksum }
func (m *Mdl) GetName() string             { return m.name }
func (m *Mdl) GetBones() []BoneInfo        { return m.bones }
func (m *Mdl) GetMaterials() []MaterialInfo { return m.materials }
