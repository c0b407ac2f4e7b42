package bsp

import (
	"github.com/TAServers/source-parsers/internal/geom"
	"github.com/TAServers/source-parsers/parseerr"
)

// TriangulatedDisplacement is the derived regular-grid mesh for one
// DispInfo: a (2^power+1)^2 grid of positions/normals/tangents/alphas plus
// an index buffer, along with the patch's power and grid side length.
type TriangulatedDisplacement struct {
	Power     int32
	Side      int
	Positions []geom.Vector3
	Normals   []geom.Vector3
	Tangents  []geom.Vector4
	Alphas    []float32
	Indices   []uint16
}

// faceCorners returns the four corner positions of a face's first four
// vertices, in winding order, via the edge/surface-edge indirection.
func (b *Bsp) faceCorners(face Face) ([4]geom.Vector3, error) {
	var corners [4]geom.Vector3
	if face.NumEdges < 4 {
		return corners, parseerr.Taggedf(parseerr.ErrInvalidBody, LumpFaces.String(), "displacement base face has fewer than 4 edges (%d)", face.NumEdges)
	}
	for i := 0; i < 4; i++ {
		surfEdgeIdx := int(face.FirstEdge) + i
		if surfEdgeIdx < 0 || surfEdgeIdx >= len(b.SurfaceEdges) {
			return corners, parseerr.Tagged(parseerr.ErrOutOfBounds, LumpFaces.String(), "displacement base face surface edge index out of range")
		}
		surfEdge := b.SurfaceEdges[surfEdgeIdx]

		edgeIdx := surfEdge
		reversed := false
		if edgeIdx < 0 {
			edgeIdx = -edgeIdx
			reversed = true
		}
		if int(edgeIdx) >= len(b.Edges) {
			return corners, parseerr.Tagged(parseerr.ErrOutOfBounds, LumpFaces.String(), "displacement base face edge index out of range")
		}
		edge := b.Edges[edgeIdx]

		vertIdx := edge.VertexIndices[0]
		if reversed {
			vertIdx = edge.VertexIndices[1]
		}
		if int(vertIdx) >= len(b.Vertices) {
			return corners, parseerr.Tagged(parseerr.ErrOutOfBounds, LumpFaces.String(), "displacement base face vertex index out of range")
		}
		corners[i] = b.Vertices[vertIdx]
	}
	return corners, nil
}

// closestCornerIndex finds which of the four corners lies nearest to
// start. No distance threshold is applied: the nearest corner is chosen even
// when none of them coincides with start.
func closestCornerIndex(corners [4]geom.Vector3, start geom.Vector3) int {
	best := 0
	bestDist := corners[0].DistanceTo(start)
	for i := 1; i < 4; i++ {
		if d := corners[i].DistanceTo(start); d < bestDist {
			best = i
			bestDist = d
		}
	}
	return best
}

func bilinear(corners [4]geom.Vector3, s, t float32) geom.Vector3 {
	top := corners[0].Scale(1 - s).Add(corners[1].Scale(s))
	bottom := corners[3].Scale(1 - s).Add(corners[2].Scale(s))
	return top.Scale(1 - t).Add(bottom.Scale(t))
}

// createTriangulatedDisplacement builds the mesh for one displacement
// patch, per the engine's regular-grid subdivision and zig-zag
// triangulation.
func (b *Bsp) createTriangulatedDisplacement(info DispInfo) (TriangulatedDisplacement, error) {
	if info.Power < 2 || info.Power > 4 {
		return TriangulatedDisplacement{}, parseerr.Taggedf(parseerr.ErrInvalidBody, LumpDispInfo.String(), "displacement power out of supported range [2,4]: %d", info.Power)
	}
	if int(info.MapFace) >= len(b.Faces) {
		return TriangulatedDisplacement{}, parseerr.Tagged(parseerr.ErrOutOfBounds, LumpDispInfo.String(), "displacement map face index out of range")
	}

	side := (1 << uint(info.Power)) + 1
	vertexCount := side * side

	baseFace := b.Faces[info.MapFace]
	corners, err := b.faceCorners(baseFace)
	if err != nil {
		return TriangulatedDisplacement{}, err
	}

	origin := closestCornerIndex(corners, info.StartPosition)
	rotated := [4]geom.Vector3{
		corners[origin],
		corners[(origin+1)%4],
		corners[(origin+2)%4],
		corners[(origin+3)%4],
	}

	if int(info.DispVertStart)+vertexCount > len(b.DisplacementVertices) {
		return TriangulatedDisplacement{}, parseerr.Tagged(parseerr.ErrOutOfBounds, LumpDispVerts.String(), "displacement vertex range overruns the lump")
	}

	positions := make([]geom.Vector3, vertexCount)
	alphas := make([]float32, vertexCount)
	for v := 0; v < side; v++ {
		for u := 0; u < side; u++ {
			idx := v*side + u
			s := float32(u) / float32(side-1)
			t := float32(v) / float32(side-1)
			base := bilinear(rotated, s, t)

			dv := b.DisplacementVertices[int(info.DispVertStart)+idx]
			positions[idx] = base.Add(dv.Vector.Scale(dv.Dist))
			alphas[idx] = dv.Alpha
		}
	}

	indices := make([]uint16, 0, 2*(side-1)*(side-1)*3)
	for v := 0; v < side-1; v++ {
		for u := 0; u < side-1; u++ {
			topLeft := uint16(v*side + u)
			topRight := uint16(v*side + u + 1)
			bottomLeft := uint16((v+1)*side + u)
			bottomRight := uint16((v+1)*side + u + 1)

			if (u+v)%2 == 0 {
				indices = append(indices, topLeft, bottomLeft, bottomRight)
				indices = append(indices, topLeft, bottomRight, topRight)
			} else {
				indices = append(indices, topLeft, bottomLeft, topRight)
				indices = append(indices, topRight, bottomLeft, bottomRight)
			}
		}
	}

	normals := make([]geom.Vector3, vertexCount)
	tangents := make([]geom.Vector4, vertexCount)
	accumulateNormals(positions, indices, side, normals)
	accumulateTangents(baseFace, rotated, side, tangents)

	return TriangulatedDisplacement{
		Power:     info.Power,
		Side:      side,
		Positions: positions,
		Normals:   normals,
		Tangents:  tangents,
		Alphas:    alphas,
		Indices:   indices,
	}, nil
}

// accumulateNormals computes a per-face normal for every triangle and
// averages it into each of its three vertices, then normalizes.
func accumulateNormals(positions []geom.Vector3, indices []uint16, side int, out []geom.Vector3) {
	for i := 0; i+2 < len(indices); i += 3 {
		a, b, c := indices[i], indices[i+1], indices[i+2]
		faceNormal := positions[b].Sub(positions[a]).Cross(positions[c].Sub(positions[a]))
		out[a] = out[a].Add(faceNormal)
		out[b] = out[b].Add(faceNormal)
		out[c] = out[c].Add(faceNormal)
	}
	for i := range out {
		out[i] = out[i].Normalized()
	}
}

// accumulateTangents applies one tangent uniformly across the grid: the
// normalized direction of the first rotated base-face edge (corners[0] to
// corners[1]), with W = 1. The face's texture vectors are not used; the only
// later change is smoothing, which averages tangents at coincident boundary
// vertices.
func accumulateTangents(baseFace Face, corners [4]geom.Vector3, side int, out []geom.Vector4) {
	edge := corners[1].Sub(corners[0]).Normalized()
	tangent := geom.Vector4{X: edge.X, Y: edge.Y, Z: edge.Z, W: 1}
	for i := range out {
		out[i] = tangent
	}
	_ = baseFace
}
