package bsp

import (
	"encoding/binary"

	"github.com/TAServers/source-parsers/internal/byteview"
	"github.com/TAServers/source-parsers/parseerr"
)

// staticPropGameLumpID is the little-endian encoding of the four-character
// game lump id "sprp".
const staticPropGameLumpID = uint32('s') | uint32('p')<<8 | uint32('r')<<16 | uint32('p')<<24

// gameLumpCompressedFlag marks an individual game lump payload as
// LZMA-compressed, independent of the outer lump's own fourCC field.
const gameLumpCompressedFlag uint16 = 0x1

// GameLumpHeader describes one entry of the game lump's sub-directory.
type GameLumpHeader struct {
	ID      uint32
	Flags   uint16
	Version uint16
	Offset  int32
	Length  int32
}

const gameLumpHeaderSize = 16

func decodeGameLumpHeader(b []byte) GameLumpHeader {
	return GameLumpHeader{
		ID:      binary.LittleEndian.Uint32(b[0:4]),
		Flags:   binary.LittleEndian.Uint16(b[4:6]),
		Version: binary.LittleEndian.Uint16(b[6:8]),
		Offset:  int32(binary.LittleEndian.Uint32(b[8:12])),
		Length:  int32(binary.LittleEndian.Uint32(b[12:16])),
	}
}

// parseGameLumpHeaders reads the int32 count then that many GameLumpHeader
// entries from the start of the game lump.
func parseGameLumpHeaders(v byteview.View) ([]GameLumpHeader, error) {
	count, err := v.Int32(0, bspTag, "game lump count")
	if err != nil {
		return nil, err
	}
	if count < 0 {
		return nil, parseerr.Tagged(parseerr.ErrInvalidBody, bspTag, "negative game lump count")
	}
	return byteview.ReadArray(v, 4, int(count), gameLumpHeaderSize, decodeGameLumpHeader, bspTag, "game lump headers")
}

// gameLumpIsCompressed reports whether the header's flags carry the
// compressed bit. The intended semantics are (flags & COMPRESSED_FLAG) !=
// 0; Go's operator precedence produces exactly this, unlike the original
// C++ whose `flags & FLAG != 0` parses as `flags & (FLAG != 0)`.
func gameLumpIsCompressed(header GameLumpHeader) bool {
	return header.Flags&gameLumpCompressedFlag != 0
}

// findStaticPropHeader returns the "sprp" entry of headers, if present.
func findStaticPropHeader(headers []GameLumpHeader) (GameLumpHeader, bool) {
	for _, h := range headers {
		if h.ID == staticPropGameLumpID {
			return h, true
		}
	}
	return GameLumpHeader{}, false
}
