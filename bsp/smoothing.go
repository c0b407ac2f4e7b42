package bsp

import "github.com/TAServers/source-parsers/internal/geom"

const smoothEpsilon = 0.01

// boundaryVertex identifies one grid vertex lying on the perimeter of a
// displacement, by its displacement index and flat grid index.
type boundaryVertex struct {
	dispIndex int
	gridIndex int
}

// SmoothNeighbouringDisplacements averages normals and tangents across
// coincident boundary vertices of neighbouring displacements. It must only
// be called once; a second call is a programming error and panics, per
// the single-boolean idempotence guard the format's design calls for.
func (b *Bsp) SmoothNeighbouringDisplacements() {
	if b.displacementsSmoothed {
		panic("bsp: SmoothNeighbouringDisplacements called more than once")
	}
	b.displacementsSmoothed = true

	groups := b.groupCoincidentBoundaryVertices()
	for _, group := range groups {
		if len(group) < 2 {
			continue
		}
		var normalSum geom.Vector3
		var tangentSum geom.Vector4
		for _, bv := range group {
			d := &b.Displacements[bv.dispIndex]
			normalSum = normalSum.Add(d.Normals[bv.gridIndex])
			tangentSum.X += d.Tangents[bv.gridIndex].X
			tangentSum.Y += d.Tangents[bv.gridIndex].Y
			tangentSum.Z += d.Tangents[bv.gridIndex].Z
			tangentSum.W += d.Tangents[bv.gridIndex].W
		}
		n := float32(len(group))
		avgNormal := normalSum.Normalized()
		avgTangent := geom.Vector4{X: tangentSum.X / n, Y: tangentSum.Y / n, Z: tangentSum.Z / n, W: tangentSum.W / n}

		for _, bv := range group {
			d := &b.Displacements[bv.dispIndex]
			d.Normals[bv.gridIndex] = avgNormal
			d.Tangents[bv.gridIndex] = avgTangent
		}
	}
}

// groupCoincidentBoundaryVertices collects every displacement's boundary
// grid vertices and groups the ones that land at (approximately) the same
// world-space position, regardless of which displacement or edge they
// belong to.
func (b *Bsp) groupCoincidentBoundaryVertices() [][]boundaryVertex {
	type positioned struct {
		pos geom.Vector3
		bv  boundaryVertex
	}

	var boundary []positioned
	for di, d := range b.Displacements {
		for row := 0; row < d.Side; row++ {
			for col := 0; col < d.Side; col++ {
				if row != 0 && row != d.Side-1 && col != 0 && col != d.Side-1 {
					continue
				}
				idx := row*d.Side + col
				boundary = append(boundary, positioned{pos: d.Positions[idx], bv: boundaryVertex{dispIndex: di, gridIndex: idx}})
			}
		}
	}

	var groups [][]boundaryVertex
	used := make([]bool, len(boundary))
	for i := range boundary {
		if used[i] {
			continue
		}
		group := []boundaryVertex{boundary[i].bv}
		used[i] = true
		for j := i + 1; j < len(boundary); j++ {
			if used[j] {
				continue
			}
			if boundary[i].pos.ApproxEqual(boundary[j].pos, smoothEpsilon) {
				group = append(group, boundary[j].bv)
				used[j] = true
			}
		}
		groups = append(groups, group)
	}
	return groups
}
