package bsp

import (
	"github.com/TAServers/source-parsers/internal/byteview"
	"github.com/TAServers/source-parsers/internal/lzmashim"
	"github.com/TAServers/source-parsers/parseerr"
)

// isLumpCompressed reports whether a lump's fourCC marks it LZMA-compressed.
func (b *Bsp) isLumpCompressed(lump Lump) bool {
	return b.header.Lumps[lump].FourCC != 0
}

// decompressLumpBytes validates and decompresses lumpData via the LZMA
// shim, storing the owned result so it outlives the call and can be
// re-aliased by the caller. A lump is decompressed at most once because New
// parses each lump exactly once (via parseLump, parseRawLump,
// parsePakfileLump or parseGameLump).
func (b *Bsp) decompressLumpBytes(lumpData []byte, lump Lump) ([]byte, error) {
	decompressed, err := lzmashim.Decompress(lumpData, b.decompressCallback, lump.String())
	if err != nil {
		return nil, err
	}
	b.decompressedLumps = append(b.decompressedLumps, decompressed)
	return decompressed, nil
}

// parseLump decodes the typed contents of lump, decompressing it first if
// its fourCC marks it compressed. maxItems caps the element count to the
// engine's documented ceiling for that lump; pass a negative value to skip
// the cap.
func parseLump[T any](b *Bsp, lump Lump, size int, decode func([]byte) T, maxItems int) ([]T, error) {
	lh := b.header.Lumps[lump]

	effectiveLength := lh.Length
	if b.isLumpCompressed(lump) {
		effectiveLength = int32(lh.FourCC)
	}
	if effectiveLength%int32(size) != 0 {
		return nil, parseerr.Taggedf(parseerr.ErrInvalidBody, lump.String(), "lump has length (%d) which is not a multiple of the size of its item type (%d)", effectiveLength, size)
	}

	numItems := int(effectiveLength) / size
	if maxItems >= 0 && numItems > maxItems {
		return nil, parseerr.Taggedf(parseerr.ErrInvalidBody, lump.String(), "number of lump items (%d) exceeds engine maximum (%d)", numItems, maxItems)
	}

	if !b.isLumpCompressed(lump) {
		return byteview.ReadArray(byteview.New(b.data), int64(lh.Offset), numItems, size, decode, lump.String(), "lump contents")
	}

	raw, err := byteview.New(b.data).Bytes(int64(lh.Offset), int(lh.Length), lump.String(), "compressed lump contents")
	if err != nil {
		return nil, err
	}
	decompressed, err := b.decompressLumpBytes(raw, lump)
	if err != nil {
		return nil, err
	}
	return byteview.ReadArray(byteview.New(decompressed), 0, numItems, size, decode, lump.String(), "decompressed lump contents")
}

// parseRawLump returns a lump's bytes verbatim (decompressing first if
// needed), for lumps that are just an opaque byte blob (e.g. the
// texdata string table's backing char data).
func parseRawLump(b *Bsp, lump Lump) ([]byte, error) {
	lh := b.header.Lumps[lump]

	if !b.isLumpCompressed(lump) {
		return byteview.New(b.data).Bytes(int64(lh.Offset), int(lh.Length), lump.String(), "lump contents")
	}

	raw, err := byteview.New(b.data).Bytes(int64(lh.Offset), int(lh.Length), lump.String(), "compressed lump contents")
	if err != nil {
		return nil, err
	}
	return b.decompressLumpBytes(raw, lump)
}
