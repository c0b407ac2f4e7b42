// Package zipreader implements a minimal ZIP central-directory walker
// sufficient for reading a game pakfile embedded as a BSP lump. It does not
// implement any decompression codec: entries are returned with their raw
// (possibly still-compressed) data slice plus enough metadata for the caller
// to decompress them.
package zipreader

import (
	"encoding/binary"

	"github.com/TAServers/source-parsers/internal/byteview"
	"github.com/TAServers/source-parsers/parseerr"
)

const (
	tag = "Pakfile"

	eocdSignature    = 0x06054b50 // "PK\x05\x06"
	cdfhSignature    = 0x02014b50 // "PK\x01\x02"
	localFhSignature = 0x04034b50 // "PK\x03\x04"

	eocdSize = 22
	cdfhSize = 46
	localFhSize = 30

	// CompressionNone and CompressionLZMA are the two compression methods
	// recognized in a pakfile; any other method fails with ErrInvalidBody.
	CompressionNone uint16 = 0
	CompressionLZMA uint16 = 14

	entryLZMAHeaderSize = 11
)

// EntryLZMA is the per-entry LZMA sub-header prefixed to an entry's payload
// when its compression method is CompressionLZMA. The sub-header itself is
// 11 bytes on the wire (major+minor+uncompressedSize+properties);
// CompressionHeaderSize is that constant size, not a wire field, matching
// how the sub-header's size is a derived value rather than something parsed.
type EntryLZMA struct {
	MajorVersion          uint8
	MinorVersion          uint8
	UncompressedSize      uint32
	Properties            [5]byte
	CompressionHeaderSize uint8
}

// Entry describes a single file within the ZIP archive.
type Entry struct {
	FileName         string
	CompressionMethod uint16
	UncompressedSize  uint32
	// Data is a borrowed slice of the archive buffer. For CompressionNone it
	// is the raw file contents; for CompressionLZMA it is the compressed
	// stream following the per-entry LZMA sub-header (LZMA is set in that
	// case).
	Data []byte
	LZMA *EntryLZMA
}

// ReadEntries walks the central directory of a ZIP archive and returns one
// Entry per file. The archive's central directory is located by scanning
// backward from the end of data for the end-of-central-directory signature.
func ReadEntries(data []byte) ([]Entry, error) {
	eocdOffset, err := findEOCD(data)
	if err != nil {
		return nil, err
	}

	v := byteview.New(data)
	entryCount, err := v.Uint16(int64(eocdOffset)+10, tag, "end of central directory entry count")
	if err != nil {
		return nil, err
	}
	cdOffset, err := v.Uint32(int64(eocdOffset)+16, tag, "end of central directory offset")
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, entryCount)
	offset := int64(cdOffset)
	for i := 0; i < int(entryCount); i++ {
		entry, next, err := readCentralDirectoryEntry(v, data, offset)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
		offset = next
	}

	return entries, nil
}

// findEOCD scans backward from the end of data for the end-of-central-
// directory signature, as required because the trailing comment field has
// variable length.
func findEOCD(data []byte) (int, error) {
	if len(data) < eocdSize {
		return 0, parseerr.Tagged(parseerr.ErrInvalidHeader, tag, "data too short to contain an end of central directory record")
	}
	maxBack := len(data) - eocdSize
	for i := maxBack; i >= 0; i-- {
		if binary.LittleEndian.Uint32(data[i:i+4]) == eocdSignature {
			return i, nil
		}
		if maxBack-i > 65557 { // 22 + max 65535-byte comment, plus slack
			break
		}
	}
	return 0, parseerr.Tagged(parseerr.ErrInvalidHeader, tag, "end of central directory signature not found")
}

func readCentralDirectoryEntry(v byteview.View, data []byte, offset int64) (Entry, int64, error) {
	sig, err := v.Uint32(offset, tag, "central directory record signature")
	if err != nil {
		return Entry{}, 0, err
	}
	if sig != cdfhSignature {
		return Entry{}, 0, parseerr.Tagged(parseerr.ErrInvalidBody, tag, "central directory record signature mismatch")
	}

	compressionMethod, err := v.Uint16(offset+10, tag, "central directory compression method")
	if err != nil {
		return Entry{}, 0, err
	}
	uncompressedSize, err := v.Uint32(offset+24, tag, "central directory uncompressed size")
	if err != nil {
		return Entry{}, 0, err
	}
	fileNameLen, err := v.Uint16(offset+28, tag, "central directory filename length")
	if err != nil {
		return Entry{}, 0, err
	}
	extraLen, err := v.Uint16(offset+30, tag, "central directory extra field length")
	if err != nil {
		return Entry{}, 0, err
	}
	commentLen, err := v.Uint16(offset+32, tag, "central directory comment length")
	if err != nil {
		return Entry{}, 0, err
	}
	localHeaderOffset, err := v.Uint32(offset+42, tag, "central directory local header offset")
	if err != nil {
		return Entry{}, 0, err
	}

	fileName, err := v.Bytes(offset+cdfhSize, int(fileNameLen), tag, "central directory filename")
	if err != nil {
		return Entry{}, 0, err
	}

	data2, lzma, err := readLocalEntryData(v, data, int64(localHeaderOffset), compressionMethod, uncompressedSize)
	if err != nil {
		return Entry{}, 0, err
	}

	nextOffset := offset + cdfhSize + int64(fileNameLen) + int64(extraLen) + int64(commentLen)
	return Entry{
		FileName:          string(fileName),
		CompressionMethod: compressionMethod,
		UncompressedSize:  uncompressedSize,
		Data:              data2,
		LZMA:              lzma,
	}, nextOffset, nil
}

func readLocalEntryData(v byteview.View, data []byte, localOffset int64, compressionMethod uint16, uncompressedSize uint32) ([]byte, *EntryLZMA, error) {
	sig, err := v.Uint32(localOffset, tag, "local file header signature")
	if err != nil {
		return nil, nil, err
	}
	if sig != localFhSignature {
		return nil, nil, parseerr.Tagged(parseerr.ErrInvalidBody, tag, "local file header signature mismatch")
	}

	compressedSize, err := v.Uint32(localOffset+18, tag, "local file header compressed size")
	if err != nil {
		return nil, nil, err
	}
	fileNameLen, err := v.Uint16(localOffset+26, tag, "local file header filename length")
	if err != nil {
		return nil, nil, err
	}
	extraLen, err := v.Uint16(localOffset+28, tag, "local file header extra field length")
	if err != nil {
		return nil, nil, err
	}

	payloadOffset := localOffset + localFhSize + int64(fileNameLen) + int64(extraLen)
	payload, err := v.Bytes(payloadOffset, int(compressedSize), tag, "entry payload")
	if err != nil {
		return nil, nil, err
	}

	switch compressionMethod {
	case CompressionNone:
		return payload, nil, nil
	case CompressionLZMA:
		entryView := byteview.New(payload)
		major, err := entryView.Uint8(0, tag, "entry LZMA major version")
		if err != nil {
			return nil, nil, err
		}
		minor, err := entryView.Uint8(1, tag, "entry LZMA minor version")
		if err != nil {
			return nil, nil, err
		}
		lzmaUncompressedSize, err := entryView.Uint32(2, tag, "entry LZMA uncompressed size")
		if err != nil {
			return nil, nil, err
		}
		propsBytes, err := entryView.Bytes(6, 5, tag, "entry LZMA properties")
		if err != nil {
			return nil, nil, err
		}

		var props [5]byte
		copy(props[:], propsBytes)

		stream, err := entryView.Bytes(entryLZMAHeaderSize, len(payload)-entryLZMAHeaderSize, tag, "entry LZMA compressed stream")
		if err != nil {
			return nil, nil, err
		}

		_ = uncompressedSize // redundant with lzmaUncompressedSize; central directory copy kept for reference only
		return stream, &EntryLZMA{
			MajorVersion:          major,
			MinorVersion:          minor,
			UncompressedSize:      lzmaUncompressedSize,
			Properties:            props,
			CompressionHeaderSize: entryLZMAHeaderSize,
		}, nil
	default:
		return nil, nil, parseerr.Taggedf(parseerr.ErrInvalidBody, tag, "unrecognized compression method %d", compressionMethod)
	}
}
