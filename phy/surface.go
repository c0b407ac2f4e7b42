package phy

import (
	"github.com/TAServers/source-parsers/internal/byteview"
	"github.com/TAServers/source-parsers/internal/geom"
	"github.com/TAServers/source-parsers/parseerr"
)

const tag = "Phy"

// ParseSurfaces walks solidCount physics solids starting at the front of
// data, returning one Solid per compact-surface ledge encountered plus the
// total number of bytes consumed across all solids (including each
// surface's own 4-byte size field, per the on-disk convention that size
// does not count itself).
func ParseSurfaces(data []byte, solidCount int) ([]Solid, int, error) {
	v := byteview.New(data)

	var solids []Solid
	consumed := 0
	for i := 0; i < solidCount; i++ {
		surfaceView, err := v.AtRelative(int64(consumed), tag, "surface header")
		if err != nil {
			return nil, 0, err
		}
		raw, err := surfaceView.Bytes(0, surfaceHeaderSize, tag, "surface header")
		if err != nil {
			return nil, 0, err
		}
		header := decodeSurfaceHeader(raw)

		bodyView, err := surfaceView.AtRelative(int64(surfaceHeaderSize), tag, "surface body")
		if err != nil {
			return nil, 0, err
		}

		parsed, err := parseSurface(bodyView, header)
		if err != nil {
			return nil, 0, err
		}
		solids = append(solids, parsed...)

		consumed += int(header.Size) + 4
	}

	return solids, consumed, nil
}

// parseSurface dispatches on the surface's model type. Only
// ModelTypeIVPCompactSurface is supported; every other known or unknown
// model type fails with ErrInvalidBody rather than attempting to decode an
// unsupported collision representation.
func parseSurface(body byteview.View, header SurfaceHeader) ([]Solid, error) {
	switch header.ModelType {
	case ModelTypeIVPCompactSurface:
		return parseCompactSurface(body, header)
	default:
		return nil, parseerr.Taggedf(parseerr.ErrInvalidBody, tag, "unsupported physics model type %d", header.ModelType)
	}
}

// ledgeTreeTask is one pending node in the iterative, stack-based ledge
// tree walk. Recursion is avoided so a pathologically deep tree cannot blow
// the call stack on attacker-controlled input.
type ledgeTreeTask struct {
	nodeOffset int64
}

// parseCompactSurface parses an IVP_Compact_Surface body: the fixed
// compact-surface header, then an iterative walk of the ledge tree rooted
// at offsetLedgetreeRoot, collecting one Solid per terminal ledge.
func parseCompactSurface(body byteview.View, header SurfaceHeader) ([]Solid, error) {
	raw, err := body.Bytes(0, compactSurfaceHeaderSize, tag, "compact surface header")
	if err != nil {
		return nil, err
	}
	surfaceHeader := decodeCompactSurfaceHeader(raw)

	rootOffset := int64(massCentreOffset) + int64(surfaceHeader.offsetLedgetreeRoot)

	var solids []Solid
	stack := []ledgeTreeTask{{nodeOffset: rootOffset}}
	for len(stack) > 0 {
		task := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		nodeView, err := body.AtRelative(task.nodeOffset, tag, "ledge tree node")
		if err != nil {
			return nil, err
		}
		nodeRaw, err := nodeView.Bytes(0, ledgeNodeSize, tag, "ledge tree node")
		if err != nil {
			return nil, err
		}
		node := decodeLedgeNode(nodeRaw)

		if !node.isTerminal() {
			rightOffset := task.nodeOffset + int64(node.rightNodeOffset)
			leftOffset := task.nodeOffset + int64(ledgeNodeSize)
			stack = append(stack, ledgeTreeTask{nodeOffset: rightOffset}, ledgeTreeTask{nodeOffset: leftOffset})
			continue
		}

		ledgeOffset := task.nodeOffset + int64(node.compactNodeOffset)
		solid, err := parseLedge(body, ledgeOffset, surfaceHeader)
		if err != nil {
			return nil, err
		}
		solids = append(solids, solid)
	}

	return solids, nil
}

// parseLedge decodes the ledge at ledgeOffset, its triangles, and the
// subset of the shared point pool it references, remapping point indices
// into a dense, per-solid index buffer so each Solid only carries the
// vertices it actually uses.
func parseLedge(body byteview.View, ledgeOffset int64, surfaceHeader compactSurfaceHeader) (Solid, error) {
	ledgeView, err := body.AtRelative(ledgeOffset, tag, "ledge")
	if err != nil {
		return Solid{}, err
	}
	ledgeRaw, err := ledgeView.Bytes(0, ledgeSize, tag, "ledge")
	if err != nil {
		return Solid{}, err
	}
	l := decodeLedge(ledgeRaw)

	triangles, err := byteview.ReadArray(ledgeView, int64(ledgeSize), int(l.trianglesCount), compactTriangleSize, decodeCompactTriangle, tag, "ledge triangles")
	if err != nil {
		return Solid{}, err
	}

	remap := make(map[uint16]uint16)
	var indices []uint16
	nextIndex := uint16(0)

	remapIndex := func(original uint16) uint16 {
		if idx, ok := remap[original]; ok {
			return idx
		}
		idx := nextIndex
		remap[original] = idx
		nextIndex++
		return idx
	}

	for _, tri := range triangles {
		for edgeIdx := 0; edgeIdx < 3; edgeIdx++ {
			indices = append(indices, remapIndex(tri.startPointIndex(edgeIdx)))
		}
	}

	pointPoolView, err := ledgeView.AtRelative(int64(l.pointOffset), tag, "ledge point pool")
	if err != nil {
		return Solid{}, err
	}

	verts := make([]geom.Vector4, len(remap))
	for original, idx := range remap {
		raw, err := pointPoolView.Bytes(int64(original)*vector4Size, vector4Size, tag, "ledge point pool entry")
		if err != nil {
			return Solid{}, err
		}
		verts[idx] = decodeVector4(raw)
	}

	return Solid{
		Vertices:     verts,
		Indices:      indices,
		CentreOfMass: surfaceHeader.massCentre,
		BoneIndex:    int32(l.boneIndex),
	}, nil
}
