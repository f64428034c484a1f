// Package bmff walks ISO base media file format box trees.
//
// Boxes are stored flat in an arena (Tree.Nodes) with parent and child
// relations expressed as indices. The walk is iterative with an explicit
// depth cap, so adversarial nesting cannot grow the call stack.
package bmff

import (
	"errors"
	"fmt"

	"github.com/simonhull/metaspector/internal/binary"
	"github.com/simonhull/metaspector/internal/types"
)

// ErrEndOfContainer is returned by ReadHeader when no bytes remain.
var ErrEndOfContainer = errors.New("end of container")

// Header is a decoded box header.
type Header struct {
	Type       string // 4-character type code
	Size       uint64 // Total size including header, after size-0 normalization
	Offset     int64  // Position of the size field
	HeaderSize int64  // 8, or 16 for 64-bit extended sizes
	Extended   bool   // Whether the 64-bit size form was used
	ToEnd      bool   // Size field was 0 ("extends to end of enclosing container")
}

// PayloadOffset returns the file offset where the box payload starts.
func (h Header) PayloadOffset() int64 {
	return h.Offset + h.HeaderSize
}

// PayloadLength returns the payload size (excluding header).
func (h Header) PayloadLength() int64 {
	return int64(h.Size) - h.HeaderSize
}

// End returns the offset one past the box.
func (h Header) End() int64 {
	return h.Offset + int64(h.Size)
}

// ReadHeader reads one box header at the cursor position.
//
// c must be limited to the enclosing container: a size of 0 is normalized
// to the bytes remaining in c. The cursor is left just past the header.
// A size smaller than the header yields types.ErrInvalidBoxSize; a size
// larger than what remains yields types.ErrMalformedContainer, with the
// returned header still describing the declared box.
func ReadHeader(c *binary.Cursor) (Header, error) {
	if c.Remaining() == 0 {
		return Header{}, ErrEndOfContainer
	}

	h := Header{Offset: c.Position(), HeaderSize: 8}
	remaining := c.Remaining()

	size32, err := c.U32("box size")
	if err != nil {
		return h, wrapHeaderErr(h.Offset, "box header", err)
	}
	h.Type, err = c.FourCC("box type")
	if err != nil {
		return h, wrapHeaderErr(h.Offset, "box header", err)
	}

	switch size32 {
	case 0:
		h.Size = uint64(remaining)
		h.ToEnd = true
	case 1:
		size64, err := c.U64("extended box size")
		if err != nil {
			return h, wrapHeaderErr(h.Offset, "extended size of "+printable(h.Type), err)
		}
		h.Size = size64
		h.HeaderSize = 16
		h.Extended = true
	default:
		h.Size = uint64(size32)
	}

	if h.Size < uint64(h.HeaderSize) {
		return h, &types.DecodeError{
			Kind:   types.KindInvalidBoxSize,
			Offset: h.Offset,
			Reason: fmt.Sprintf("box %s declares size %d, smaller than its %d-byte header", printable(h.Type), h.Size, h.HeaderSize),
		}
	}
	if h.Size > uint64(remaining) {
		return h, &types.DecodeError{
			Kind:   types.KindMalformedContainer,
			Offset: h.Offset,
			Reason: fmt.Sprintf("box %s declares size %d but only %d bytes remain in its container", printable(h.Type), h.Size, remaining),
		}
	}
	return h, nil
}

func wrapHeaderErr(offset int64, what string, err error) error {
	return &types.DecodeError{
		Kind:   types.KindTruncatedInput,
		Offset: offset,
		Reason: what + " cut short",
		Err:    err,
	}
}

// printable renders a fourcc for messages, escaping non-ASCII bytes
// (e.g. the 0xA9 prefix of iTunes atoms).
func printable(fourcc string) string {
	for i := 0; i < len(fourcc); i++ {
		if fourcc[i] < 0x20 || fourcc[i] > 0x7E {
			return fmt.Sprintf("%q", fourcc)
		}
	}
	return "'" + fourcc + "'"
}

// containerTypes lists boxes whose payload is a sequence of child boxes.
var containerTypes = map[string]bool{
	"moov": true, // Movie container
	"trak": true, // Track container
	"mdia": true, // Media container
	"minf": true, // Media information
	"stbl": true, // Sample table
	"udta": true, // User data
	"meta": true, // Metadata container (full box)
	"ilst": true, // iTunes metadata list
	"dinf": true, // Data information
	"edts": true, // Edit list container
	"mvex": true, // Movie extends
	"moof": true, // Movie fragment
	"traf": true, // Track fragment
	"tref": true, // Track references
	"sinf": true, // Protection scheme information
	"schi": true, // Scheme information
}

// IsContainer reports whether boxes of this type hold child boxes.
func IsContainer(fourcc string) bool {
	return containerTypes[fourcc]
}
