package bsp

import (
	"encoding/binary"

	"github.com/TAServers/source-parsers/internal/byteview"
	"github.com/TAServers/source-parsers/internal/zipreader"
	"github.com/TAServers/source-parsers/parseerr"
	"github.com/TAServers/source-parsers/phy"
)

func (b *Bsp) parsePakfileLump() error {
	lh := b.header.Lumps[LumpPakfile]
	if lh.Length == 0 {
		return nil
	}
	if b.isLumpCompressed(LumpPakfile) {
		raw, err := byteview.New(b.data).Bytes(int64(lh.Offset), int(lh.Length), LumpPakfile.String(), "compressed pakfile lump")
		if err != nil {
			return err
		}
		decompressed, err := b.decompressLumpBytes(raw, LumpPakfile)
		if err != nil {
			return err
		}
		entries, err := zipreader.ReadEntries(decompressed)
		if err != nil {
			return err
		}
		b.Pakfile = entries
		return nil
	}

	archive, err := byteview.New(b.data).Bytes(int64(lh.Offset), int(lh.Length), LumpPakfile.String(), "pakfile lump")
	if err != nil {
		return err
	}
	entries, err := zipreader.ReadEntries(archive)
	if err != nil {
		return err
	}
	b.Pakfile = entries
	return nil
}

func (b *Bsp) parsePhysCollideLump() error {
	lh := b.header.Lumps[LumpPhysCollide]
	if lh.Length == 0 {
		return nil
	}

	raw, err := byteview.New(b.data).Bytes(int64(lh.Offset), int(lh.Length), LumpPhysCollide.String(), "physics collide lump")
	if err != nil {
		return err
	}

	// The lump packs one physics-model block per brush model: a small
	// header naming the owning model index and the solid count within it,
	// then that many compact-surface solids (the physics walker's input
	// contract), then a keydata text blob. A model index of -1 terminates
	// the sequence.
	const physModelHeaderSize = 16
	offset := 0
	for {
		if offset+4 > len(raw) {
			break
		}
		modelIndex := int32(binary.LittleEndian.Uint32(raw[offset : offset+4]))
		if modelIndex == -1 {
			break
		}
		if offset+physModelHeaderSize > len(raw) {
			return parseerr.Tagged(parseerr.ErrInvalidBody, LumpPhysCollide.String(), "physics model header overruns the lump")
		}
		dataSize := int32(binary.LittleEndian.Uint32(raw[offset+4 : offset+8]))
		keydataSize := int32(binary.LittleEndian.Uint32(raw[offset+8 : offset+12]))
		solidCount := int32(binary.LittleEndian.Uint32(raw[offset+12 : offset+16]))

		bodyStart := offset + physModelHeaderSize
		bodyEnd := bodyStart + int(dataSize)
		if bodyEnd > len(raw) {
			return parseerr.Tagged(parseerr.ErrOutOfBounds, LumpPhysCollide.String(), "physics model body overruns the lump")
		}

		solids, _, err := phy.ParseSurfaces(raw[bodyStart:bodyEnd], int(solidCount))
		if err != nil {
			return err
		}
		b.PhysicsSolids = append(b.PhysicsSolids, solids...)

		offset = bodyEnd + int(keydataSize)
	}

	return nil
}

func (b *Bsp) parseGameLump() error {
	lh := b.header.Lumps[LumpGameLump]
	if lh.Length == 0 {
		return nil
	}

	raw, err := byteview.New(b.data).Bytes(int64(lh.Offset), int(lh.Length), LumpGameLump.String(), "game lump")
	if err != nil {
		return err
	}

	view := byteview.New(raw)
	headers, err := parseGameLumpHeaders(view)
	if err != nil {
		return err
	}

	staticPropHeader, ok := findStaticPropHeader(headers)
	if !ok {
		return nil
	}

	dataView := byteview.New(b.data)
	propSpan, err := dataView.Bytes(int64(staticPropHeader.Offset), int(staticPropHeader.Length), LumpGameLump.String(), "static prop game lump")
	if err != nil {
		return err
	}

	var propView byteview.View
	if gameLumpIsCompressed(staticPropHeader) {
		decompressed, err := b.decompressLumpBytes(propSpan, LumpGameLump)
		if err != nil {
			return err
		}
		propView = byteview.New(decompressed)
	} else {
		propView = byteview.New(propSpan)
	}

	dict, leaves, props, err := parseStaticPropLump(propView, int32(staticPropHeader.Version))
	if err != nil {
		return err
	}

	b.StaticPropDictionary = dict
	b.StaticPropLeaves = leaves
	b.StaticProps = props
	b.hasStaticProps = true
	return nil
}
