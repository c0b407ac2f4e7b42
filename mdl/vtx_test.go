package mdl

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/TAServers/source-parsers/parseerr"
)

// buildMinimalVtx assembles a VTX file with one body part, one model, one
// LoD, one mesh, one strip group (two vertices, three indices, one strip),
// and one material replacement for that LoD.
func buildMinimalVtx(checksum int32) []byte {
	header := make([]byte, vtxHeaderSize)
	binary.LittleEndian.PutUint32(header[0:4], vtxSupportedVersion)
	binary.LittleEndian.PutUint32(header[16:20], uint32(checksum))
	binary.LittleEndian.PutUint32(header[20:24], 1) // NumLoDs

	var buf []byte
	buf = append(buf, header...)

	bodyPartOffset := int32(len(buf))
	bodyPart := make([]byte, vtxBodyPartHeaderSize)
	binary.LittleEndian.PutUint32(bodyPart[0:4], 1) // NumModels
	modelRelOffset := int32(vtxBodyPartHeaderSize)
	binary.LittleEndian.PutUint32(bodyPart[4:8], uint32(modelRelOffset))
	buf = append(buf, bodyPart...)

	model := make([]byte, vtxModelHeaderSize)
	binary.LittleEndian.PutUint32(model[0:4], 1) // NumLoDs
	lodRelOffset := int32(vtxModelHeaderSize)
	binary.LittleEndian.PutUint32(model[4:8], uint32(lodRelOffset))
	buf = append(buf, model...)

	lod := make([]byte, vtxModelLoDHeaderSize)
	binary.LittleEndian.PutUint32(lod[0:4], 1) // NumMeshes
	meshRelOffset := int32(vtxModelLoDHeaderSize)
	binary.LittleEndian.PutUint32(lod[4:8], uint32(meshRelOffset))
	buf = append(buf, lod...)

	mesh := make([]byte, vtxMeshHeaderSize)
	binary.LittleEndian.PutUint32(mesh[0:4], 1) // NumStripGroups
	sgRelOffset := int32(vtxMeshHeaderSize)
	binary.LittleEndian.PutUint32(mesh[4:8], uint32(sgRelOffset))
	buf = append(buf, mesh...)

	stripGroup := make([]byte, vtxStripGroupHeaderSize)
	binary.LittleEndian.PutUint32(stripGroup[0:4], 2)  // NumVerts
	binary.LittleEndian.PutUint32(stripGroup[8:12], 3) // NumIndices
	binary.LittleEndian.PutUint32(stripGroup[16:20], 1) // NumStrips

	sgStart := int32(len(buf))

	vertOffset := int32(vtxStripGroupHeaderSize)
	indexOffset := vertOffset + 2*stripVertexSize
	stripOffset := indexOffset + 3*2
	binary.LittleEndian.PutUint32(stripGroup[4:8], uint32(vertOffset))
	binary.LittleEndian.PutUint32(stripGroup[12:16], uint32(indexOffset))
	binary.LittleEndian.PutUint32(stripGroup[20:24], uint32(stripOffset))
	buf = append(buf, stripGroup...)

	vertices := make([]byte, 2*stripVertexSize)
	buf = append(buf, vertices...)

	indices := make([]byte, 3*2)
	binary.LittleEndian.PutUint16(indices[0:2], 0)
	binary.LittleEndian.PutUint16(indices[2:4], 1)
	binary.LittleEndian.PutUint16(indices[4:6], 0)
	buf = append(buf, indices...)

	strip := make([]byte, vtxStripHeaderSize)
	binary.LittleEndian.PutUint32(strip[0:4], 3) // NumIndices
	binary.LittleEndian.PutUint32(strip[8:12], 2) // NumVerts
	buf = append(buf, strip...)

	_ = sgStart

	materialListOffset := int32(len(buf))
	materialList := make([]byte, materialReplacementListHeaderSize)
	binary.LittleEndian.PutUint32(materialList[0:4], 1) // ReplacementCount
	replRelOffset := int32(materialReplacementListHeaderSize)
	binary.LittleEndian.PutUint32(materialList[4:8], uint32(replRelOffset))
	buf = append(buf, materialList...)

	replacement := make([]byte, materialReplacementHeaderSize)
	binary.LittleEndian.PutUint16(replacement[0:2], 5) // MaterialID
	nameRelOffset := int32(materialReplacementHeaderSize)
	binary.LittleEndian.PutUint32(replacement[2:6], uint32(nameRelOffset))
	buf = append(buf, replacement...)
	buf = append(buf, []byte("brick\x00")...)

	binary.LittleEndian.PutUint32(buf[24:28], uint32(materialListOffset)) // MaterialReplacementListOffset
	binary.LittleEndian.PutUint32(buf[28:32], 1)                         // NumBodyParts
	binary.LittleEndian.PutUint32(buf[32:36], uint32(bodyPartOffset))    // BodyPartOffset

	return buf
}

func TestNewVtxWalksNestedHierarchy(t *testing.T) {
	data := buildMinimalVtx(7)

	v, err := NewVtx(data, nil)
	if err != nil {
		t.Fatalf("NewVtx: %v", err)
	}

	bodyParts := v.GetBodyParts()
	if len(bodyParts) != 1 {
		t.Fatalf("expected 1 body part, got %d", len(bodyParts))
	}
	stripGroups := bodyParts[0].Models[0].LevelsOfDetail[0].Meshes[0].StripGroups
	if len(stripGroups) != 1 {
		t.Fatalf("expected 1 strip group, got %d", len(stripGroups))
	}
	sg := stripGroups[0]
	if len(sg.Vertices) != 2 || len(sg.Indices) != 3 || len(sg.Strips) != 1 {
		t.Fatalf("unexpected strip group shape: %+v", sg)
	}

	replacements, err := v.GetMaterialReplacements(0)
	if err != nil {
		t.Fatalf("GetMaterialReplacements: %v", err)
	}
	if len(replacements) != 1 || replacements[0].ReplacementName != "brick" || replacements[0].ReplacementID != 5 {
		t.Fatalf("unexpected material replacements: %+v", replacements)
	}
}

func TestNewVtxChecksumGating(t *testing.T) {
	data := buildMinimalVtx(123)

	mismatch := int32(456)
	_, err := NewVtx(data, &mismatch)
	if !errors.Is(err, parseerr.ErrInvalidChecksum) {
		t.Fatalf("expected ErrInvalidChecksum, got %v", err)
	}

	match := int32(123)
	if _, err := NewVtx(data, &match); err != nil {
		t.Fatalf("expected matching checksum to succeed, got %v", err)
	}
}

func TestNewVtxStripOutOfBoundsIsRejected(t *testing.T) {
	data := buildMinimalVtx(7)

	// Corrupt the strip's NumVerts (at stripOffset+8 within the strip
	// header) to exceed the enclosing strip group's NumVerts (2).
	v := findStripNumVertsOffset(data)
	binary.LittleEndian.PutUint32(data[v:v+4], 99)

	_, err := NewVtx(data, nil)
	if !errors.Is(err, parseerr.ErrOutOfBounds) {
		t.Fatalf("expected ErrOutOfBounds, got %v", err)
	}
}

// findStripNumVertsOffset locates the NumVerts field of the single strip
// built by buildMinimalVtx, by walking the same fixed layout it constructs.
func findStripNumVertsOffset(data []byte) int {
	bodyPartOffset := int(binary.LittleEndian.Uint32(data[32:36]))
	modelOffset := bodyPartOffset + vtxBodyPartHeaderSize
	lodOffset := modelOffset + vtxModelHeaderSize
	meshOffset := lodOffset + vtxModelLoDHeaderSize
	sgOffset := meshOffset + vtxMeshHeaderSize
	vertOffset := sgOffset + vtxStripGroupHeaderSize
	indexOffset := vertOffset + 2*stripVertexSize
	stripOffset := indexOffset + 3*2
	return stripOffset + 8
}
