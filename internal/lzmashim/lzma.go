// Package lzmashim validates the BSP/game-lump LZMA sub-header and invokes a
// caller-supplied decompression callback. No LZMA codec is implemented here;
// this package only understands the wrapper Valve's engine puts around an
// LZMA stream and the contract for the callback that actually decompresses
// it.
package lzmashim

import (
	"encoding/binary"

	"github.com/TAServers/source-parsers/internal/byteview"
	"github.com/TAServers/source-parsers/parseerr"
)

// headerID is the little-endian encoding of the ASCII bytes 'L','Z','M','A'.
const headerID = uint32('L') | uint32('Z')<<8 | uint32('M')<<16 | uint32('A')<<24

// headerFieldsSize is the size in bytes of the header's meaningful fields:
// id (4) + uncompressed size (4) + compressed size (4) + properties (5).
const headerFieldsSize = 17

// headerWireSize is the number of bytes the header occupies on the wire
// before the compressed stream proper begins; the trailing 7 bytes are
// unused padding reserved by the engine's on-disk layout.
const headerWireSize = 24

// Header is the 17 meaningful bytes of a BSP/game-lump LZMA sub-header.
type Header struct {
	ID               uint32
	UncompressedSize uint32
	CompressedSize   uint32
	Properties       [5]byte
}

// Metadata is handed to the caller-supplied DecompressCallback alongside the
// compressed bytes.
type Metadata struct {
	UncompressedSize uint32
	Properties       [5]byte
}

// DecompressCallback decompresses an LZMA stream given its properties and
// expected uncompressed size. The core never implements LZMA itself; callers
// must supply this.
type DecompressCallback func(compressed []byte, metadata Metadata) ([]byte, error)

// Decompress validates the LZMA sub-header at the start of lumpData and
// invokes callback on the compressed stream following it, returning the
// owned decompressed bytes. tag identifies the lump/game-lump for error
// messages.
func Decompress(lumpData []byte, callback DecompressCallback, tag string) ([]byte, error) {
	if callback == nil {
		return nil, parseerr.Tagged(parseerr.ErrMissingDecompressCallback, tag, "encountered a compressed lump but no LZMA decompression callback was provided")
	}

	v := byteview.New(lumpData)
	hdr, err := parseHeader(v, tag)
	if err != nil {
		return nil, err
	}
	if hdr.ID != headerID {
		return nil, parseerr.Tagged(parseerr.ErrInvalidBody, tag, "LZMA header id does not match 'LZMA'")
	}

	compressed, err := v.Bytes(headerWireSize, len(lumpData)-headerWireSize, tag, "LZMA compressed stream")
	if err != nil {
		return nil, err
	}

	decompressed, err := callback(compressed, Metadata{UncompressedSize: hdr.UncompressedSize, Properties: hdr.Properties})
	if err != nil {
		return nil, parseerr.Taggedf(parseerr.ErrInvalidBody, tag, "LZMA decompression callback failed: %v", err)
	}
	return decompressed, nil
}

func parseHeader(v byteview.View, tag string) (Header, error) {
	raw, err := v.Bytes(0, headerFieldsSize, tag, "LZMA header")
	if err != nil {
		return Header{}, err
	}
	var hdr Header
	hdr.ID = binary.LittleEndian.Uint32(raw[0:4])
	hdr.UncompressedSize = binary.LittleEndian.Uint32(raw[4:8])
	hdr.CompressedSize = binary.LittleEndian.Uint32(raw[8:12])
	copy(hdr.Properties[:], raw[12:17])
	return hdr, nil
}
