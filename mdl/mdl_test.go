package mdl

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/TAServers/source-parsers/parseerr"
)

// buildMinimalMdl assembles an .mdl file with one bone ("root") and one
// material ("metal_wall"), enough to exercise header validation, checksum
// gating, and the name accessors.
func buildMinimalMdl(checksum int32) []byte {
	headerLen := mdlHeaderBoneIndexOffset + 4 + 8
	buf := make([]byte, headerLen)

	binary.LittleEndian.PutUint32(buf[mdlHeaderIDOffset:mdlHeaderIDOffset+4], mdlFileID)
	binary.LittleEndian.PutUint32(buf[mdlHeaderVersionOffset:mdlHeaderVersionOffset+4], 48)
	binary.LittleEndian.PutUint32(buf[mdlHeaderChecksumOffset:mdlHeaderChecksumOffset+4], uint32(checksum))
	copy(buf[mdlHeaderNameOffset:mdlHeaderNameOffset+mdlNameSize], "testmodel.mdl\x00")

	boneIndex := int32(len(buf))
	boneRecordBytes := make([]byte, boneRecordSize)
	binary.LittleEndian.PutUint32(boneRecordBytes[0:4], boneRecordSize) // name immediately follows the record
	buf = append(buf, boneRecordBytes...)
	buf = append(buf, []byte("root\x00")...)

	textureIndex := int32(len(buf))
	textureRecordBytes := make([]byte, textureRecordSize)
	binary.LittleEndian.PutUint32(textureRecordBytes[0:4], textureRecordSize)
	buf = append(buf, textureRecordBytes...)
	buf = append(buf, []byte("metal_wall\x00")...)

	binary.LittleEndian.PutUint32(buf[mdlHeaderNumBonesOffset:mdlHeaderNumBonesOffset+4], 1)
	binary.LittleEndian.PutUint32(buf[mdlHeaderBoneIndexOffset:mdlHeaderBoneIndexOffset+4], uint32(boneIndex))
	numTexturesOffset := mdlHeaderBoneIndexOffset + 4
	binary.LittleEndian.PutUint32(buf[numTexturesOffset:numTexturesOffset+4], 1)
	binary.LittleEndian.PutUint32(buf[numTexturesOffset+4:numTexturesOffset+8], uint32(textureIndex))

	return buf
}

func TestNewMdlParsesBonesAndMaterials(t *testing.T) {
	data := buildMinimalMdl(55)

	m, err := NewMdl(data, nil)
	if err != nil {
		t.Fatalf("NewMdl: %v", err)
	}
	if m.GetName() != "testmodel.mdl" {
		t.Fatalf("expected name 'testmodel.mdl', got %q", m.GetName())
	}
	if len(m.GetBones()) != 1 || m.GetBones()[0].Name != "root" {
		t.Fatalf("unexpected bones: %+v", m.GetBones())
	}
	if len(m.GetMaterials()) != 1 || m.GetMaterials()[0].Name != "metal_wall" {
		t.Fatalf("unexpected materials: %+v", m.GetMaterials())
	}
}

func TestNewMdlChecksumGating(t *testing.T) {
	data := buildMinimalMdl(7)

	match := int32(7)
	if _, err := NewMdl(data, &match); err != nil {
		t.Fatalf("expected matching checksum to succeed, got %v", err)
	}

	mismatch := int32(8)
	_, err := NewMdl(data, &mismatch)
	if !errors.Is(err, parseerr.ErrInvalidChecksum) {
		t.Fatalf("expected ErrInvalidChecksum, got %v", err)
	}
}

func TestNewMdlRejectsBadID(t *testing.T) {
	data := buildMinimalMdl(1)
	binary.LittleEndian.PutUint32(data[0:4], 0)

	_, err := NewMdl(data, nil)
	if !errors.Is(err, parseerr.ErrInvalidHeader) {
		t.Fatalf("expected ErrInvalidHeader, got %v", err)
	}
}
