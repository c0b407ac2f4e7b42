package bsp

import (
	"bytes"

	"github.com/TAServers/source-parsers/internal/geom"
)

// FaceVertices resolves a face's polygon vertices in winding order via its
// surface-edge indirection.
func (b *Bsp) FaceVertices(face Face) []geom.Vector3 {
	vertices := make([]geom.Vector3, 0, face.NumEdges)
	for i := 0; i < int(face.NumEdges); i++ {
		surfEdge := b.SurfaceEdges[int(face.FirstEdge)+i]
		edgeIdx := surfEdge
		reversed := false
		if edgeIdx < 0 {
			edgeIdx = -edgeIdx
			reversed = true
		}
		edge := b.Edges[edgeIdx]
		vertIdx := edge.VertexIndices[0]
		if reversed {
			vertIdx = edge.VertexIndices[1]
		}
		vertices = append(vertices, b.Vertices[vertIdx])
	}
	return vertices
}

// TexDataName resolves the material path a TexData entry points at, via
// the string table and string data lumps.
func (b *Bsp) TexDataName(texData TexData) string {
	tableIdx := texData.NameStringTableID
	if int(tableIdx) < 0 || int(tableIdx) >= len(b.TexDataStringTable) {
		return ""
	}
	offset := b.TexDataStringTable[tableIdx]
	if int(offset) < 0 || int(offset) >= len(b.TexDataStringData) {
		return ""
	}
	rest := b.TexDataStringData[offset:]
	if end := bytes.IndexByte(rest, 0); end != -1 {
		return string(rest[:end])
	}
	return string(rest)
}

// HasStaticProps reports whether a static-prop game lump was present.
func (b *Bsp) HasStaticProps() bool {
	return b.hasStaticProps
}

// ModelFaces resolves a model's contiguous run of faces.
func (b *Bsp) ModelFaces(model Model) []Face {
	return b.Faces[model.FirstFace : model.FirstFace+model.NumFaces]
}
