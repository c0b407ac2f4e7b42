package phy

import (
	"strings"

	"github.com/TAServers/source-parsers/parseerr"
)

// Phy is a fully parsed .phy physics collision file: the solids derived
// from its compact-surface ledge trees, plus the trailing key-value text
// section most .phy files carry (collision rules, mass overrides, and so
// on).
type Phy struct {
	checksum    int32
	solids      []Solid
	textSection []TextEntry
}

// New parses a .phy file's bytes. If expectedChecksum is non-nil, the
// file's header checksum is compared against it and ErrInvalidChecksum is
// returned on mismatch; pass nil to skip the check (e.g. when the matching
// MDL checksum is unknown or irrelevant to the caller).
func New(data []byte, expectedChecksum *int32) (*Phy, error) {
	if len(data) < headerSize {
		return nil, parseerr.Tagged(parseerr.ErrInvalidHeader, tag, "file too short to contain a header")
	}
	header := decodeHeader(data[:headerSize])

	if expectedChecksum != nil && header.Checksum != *expectedChecksum {
		return nil, parseerr.Taggedf(parseerr.ErrInvalidChecksum, tag, "checksum %d does not match expected %d", header.Checksum, *expectedChecksum)
	}
	if header.SolidCount < 0 {
		return nil, parseerr.Tagged(parseerr.ErrInvalidBody, tag, "negative solid count")
	}
	if header.Size < headerSize || int(header.Size) > len(data) {
		return nil, parseerr.Taggedf(parseerr.ErrInvalidHeader, tag, "header declares size %d, file is %d bytes", header.Size, len(data))
	}

	body := data[header.Size:]
	solids, consumed, err := ParseSurfaces(body, int(header.SolidCount))
	if err != nil {
		return nil, err
	}

	textSection, err := parseTextSection(body[consumed:])
	if err != nil {
		return nil, err
	}

	return &Phy{
		checksum:    header.Checksum,
		solids:      solids,
		textSection: textSection,
	}, nil
}

// GetChecksum returns the file's header checksum, shared with the MDL file
// it was compiled alongside.
func (p *Phy) GetChecksum() int32 {
	return p.checksum
}

// GetSolids returns every physics solid extracted from the file's surfaces.
func (p *Phy) GetSolids() []Solid {
	return p.solids
}

// GetTextSection returns the trailing key-value text section, in file
// order; it is empty if the file carries none.
func (p *Phy) GetTextSection() []TextEntry {
	return p.textSection
}

// parseTextSection parses the trailing "key" "value" pair text blob some
// .phy files carry after their solids (collision rules, mass overrides). An
// empty or whitespace-only remainder yields no entries rather than an
// error, since the text section is optional.
func parseTextSection(remainder []byte) ([]TextEntry, error) {
	text := strings.TrimRight(string(remainder), "\x00")
	fields := splitQuoted(text)
	if len(fields)%2 != 0 {
		return nil, parseerr.Tagged(parseerr.ErrInvalidBody, tag, "text section has an unpaired key or value")
	}

	entries := make([]TextEntry, 0, len(fields)/2)
	for i := 0; i+1 < len(fields); i += 2 {
		entries = append(entries, TextEntry{Key: fields[i], Value: fields[i+1]})
	}
	return entries, nil
}

// splitQuoted splits text into the sequence of double-quoted tokens it
// contains, ignoring whitespace and any other characters between them.
func splitQuoted(text string) []string {
	var fields []string
	for {
		start := strings.IndexByte(text, '"')
		if start == -1 {
			break
		}
		text = text[start+1:]
		end := strings.IndexByte(text, '"')
		if end == -1 {
			break
		}
		fields = append(fields, text[:end])
		text = text[end+1:]
	}
	return fields
}
