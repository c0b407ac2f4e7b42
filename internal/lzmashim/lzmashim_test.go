package lzmashim

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/TAServers/source-parsers/parseerr"
)

func buildLumpData(compressed []byte, uncompressedSize uint32, props [5]byte) []byte {
	buf := make([]byte, headerWireSize+len(compressed))
	binary.LittleEndian.PutUint32(buf[0:4], headerID)
	binary.LittleEndian.PutUint32(buf[4:8], uncompressedSize)
	binary.LittleEndian.PutUint32(buf[8:12], uint32(len(compressed)))
	copy(buf[12:17], props[:])
	copy(buf[headerWireSize:], compressed)
	return buf
}

func TestDecompressInvokesCallbackWithParsedMetadata(t *testing.T) {
	props := [5]byte{1, 2, 3, 4, 5}
	compressed := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	data := buildLumpData(compressed, 99, props)

	var gotCompressed []byte
	var gotMeta Metadata
	callback := func(c []byte, m Metadata) ([]byte, error) {
		gotCompressed = c
		gotMeta = m
		return []byte{1, 2, 3}, nil
	}

	out, err := Decompress(data, callback, "Test")
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if string(out) != string([]byte{1, 2, 3}) {
		t.Fatalf("unexpected decompressed output: %v", out)
	}
	if string(gotCompressed) != string(compressed) {
		t.Fatalf("expected callback to receive %v, got %v", compressed, gotCompressed)
	}
	if gotMeta.UncompressedSize != 99 || gotMeta.Properties != props {
		t.Fatalf("unexpected metadata: %+v", gotMeta)
	}
}

func TestDecompressRejectsNilCallback(t *testing.T) {
	data := buildLumpData([]byte{0x01}, 1, [5]byte{})

	_, err := Decompress(data, nil, "Test")
	if !errors.Is(err, parseerr.ErrMissingDecompressCallback) {
		t.Fatalf("expected ErrMissingDecompressCallback, got %v", err)
	}
}

func TestDecompressRejectsBadHeaderID(t *testing.T) {
	data := buildLumpData([]byte{0x01}, 1, [5]byte{})
	binary.LittleEndian.PutUint32(data[0:4], 0)

	_, err := Decompress(data, func(c []byte, m Metadata) ([]byte, error) { return c, nil }, "Test")
	if !errors.Is(err, parseerr.ErrInvalidBody) {
		t.Fatalf("expected ErrInvalidBody, got %v", err)
	}
}

func TestDecompressPropagatesCallbackError(t *testing.T) {
	data := buildLumpData([]byte{0x01}, 1, [5]byte{})
	wantErr := errors.New("bad stream")

	_, err := Decompress(data, func(c []byte, m Metadata) ([]byte, error) { return nil, wantErr }, "Test")
	if !errors.Is(err, parseerr.ErrInvalidBody) {
		t.Fatalf("expected the callback's error to be wrapped in ErrInvalidBody, got %v", err)
	}
}

func TestDecompressRejectsTruncatedHeader(t *testing.T) {
	data := make([]byte, headerFieldsSize-1)

	_, err := Decompress(data, func(c []byte, m Metadata) ([]byte, error) { return c, nil }, "Test")
	if !errors.Is(err, parseerr.ErrOutOfBounds) {
		t.Fatalf("expected ErrOutOfBounds, got %v", err)
	}
}
