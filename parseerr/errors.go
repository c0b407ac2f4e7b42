// Package parseerr defines the closed set of error kinds shared by every
// parser in this module. Every fatal parse failure wraps exactly one of the
// sentinel errors below, so callers can classify failures with errors.Is
// without depending on message text.
package parseerr

import (
	"errors"
	"fmt"
)

// Sentinel error kinds. Every *ParseError produced by this module wraps
// exactly one of these.
var (
	ErrInvalidHeader             = errors.New("invalid header")
	ErrUnsupportedVersion        = errors.New("unsupported version")
	ErrInvalidChecksum           = errors.New("invalid checksum")
	ErrInvalidBody               = errors.New("invalid body")
	ErrOutOfBounds               = errors.New("out of bounds access")
	ErrMissingDecompressCallback = errors.New("missing decompress callback")
)

// ParseError wraps one of the sentinel error kinds with a human-readable
// message and, where meaningful, the lump id or file role that produced it.
type ParseError struct {
	Kind error
	Tag  string // lump id / file role; empty if not applicable
	Msg  string
}

func (e *ParseError) Error() string {
	if e.Tag == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	}
	return fmt.Sprintf("%s (%s): %s", e.Kind, e.Tag, e.Msg)
}

func (e *ParseError) Unwrap() error {
	return e.Kind
}

// New constructs a *ParseError with no tag.
func New(kind error, msg string) error {
	return &ParseError{Kind: kind, Msg: msg}
}

// Newf constructs a *ParseError with no tag from a format string.
func Newf(kind error, format string, args ...any) error {
	return &ParseError{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Tagged constructs a *ParseError carrying a lump id / file role tag.
func Tagged(kind error, tag, msg string) error {
	return &ParseError{Kind: kind, Tag: tag, Msg: msg}
}

// Taggedf constructs a *ParseError carrying a lump id / file role tag from a
// format string.
func Taggedf(kind error, tag, format string, args ...any) error {
	return &ParseError{Kind: kind, Tag: tag, Msg: fmt.Sprintf(format, args...)}
}
