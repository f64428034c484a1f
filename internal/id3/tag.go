// Package id3 decodes ID3v2 tags (versions 2.2, 2.3 and 2.4) and the
// ID3v1 trailer.
//
// Read walks the frames of a tag and never fails on a damaged frame: the
// walk stops there and the frames already read are kept, with the fault
// recorded in Tag.Warnings. Apply folds a tag into the unified model.
package id3

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/simonhull/metaspector/internal/binary"
	"github.com/simonhull/metaspector/internal/types"
)

// ErrNoTag is returned by Read when no tag starts at the given offset.
// It is not a decode failure: MP3 files are valid without a tag.
var ErrNoTag = errors.New("no ID3v2 tag")

// HeaderSize is the size of the tag header and of the v2.4 footer.
const HeaderSize = 10

// Tag header flags.
const (
	flagUnsync   = 0x80
	flagExtended = 0x40 // compression in v2.2
	flagFooter   = 0x10
)

// Header is the 10-byte tag header.
type Header struct {
	Major    byte
	Revision byte
	Flags    byte
	Size     uint32 // tag body size, excluding header and footer
}

// TotalSize returns the bytes the tag occupies, including the header and
// a v2.4 footer.
func (h Header) TotalSize() int64 {
	n := int64(HeaderSize) + int64(h.Size)
	if h.Major == 4 && h.Flags&flagFooter != 0 {
		n += HeaderSize
	}
	return n
}

// Frame is one decoded frame. ID uses the four-character form for every
// version; v2.2 ids without a later equivalent keep their three
// characters.
type Frame struct {
	ID      string
	Flags   uint16
	Offset  int64 // file offset of the frame header
	Payload []byte
}

// Tag is a decoded ID3v2 tag.
type Tag struct {
	Header   Header
	Offset   int64
	Frames   []Frame
	Warnings []types.Warning
}

// End returns the file offset just past the tag.
func (t *Tag) End() int64 {
	return t.Offset + t.Header.TotalSize()
}

func (t *Tag) warn(offset int64, kind types.Kind, format string, args ...any) {
	t.Warnings = append(t.Warnings, types.WarningFrom("metadata", types.NewDecodeError(kind, offset, format, args...)))
}

// ReadHeader reads a tag header at off. It returns ErrNoTag when the
// bytes there do not start with "ID3".
func ReadHeader(sr *binary.SafeReader, off int64) (Header, error) {
	if sr.Size()-off < 3 {
		return Header{}, ErrNoTag
	}
	b, err := sr.Bytes(off, min(HeaderSize, sr.Size()-off), "ID3v2 header")
	if err != nil {
		return Header{}, err
	}
	if !bytes.HasPrefix(b, []byte("ID3")) {
		return Header{}, ErrNoTag
	}
	if len(b) < HeaderSize {
		return Header{}, types.NewDecodeError(types.KindTruncatedInput, off, "ID3v2 header of %d bytes", len(b))
	}
	return Header{
		Major:    b[3],
		Revision: b[4],
		Flags:    b[5],
		Size:     binary.DecodeSynchsafe(b[6:10]),
	}, nil
}

// Read decodes the tag at off.
//
// A tag that runs past the end of the source is read up to the end, with
// a warning. Only an unreadable header is an error.
func Read(sr *binary.SafeReader, off int64) (*Tag, error) {
	h, err := ReadHeader(sr, off)
	if err != nil {
		return nil, err
	}
	t := &Tag{Header: h, Offset: off}

	v, ok := versionFor(h.Major, h.Flags)
	if !ok {
		t.warn(off, types.KindMalformedBlock, "unsupported ID3v2 version 2.%d", h.Major)
		return t, nil
	}
	if h.Major == 2 && h.Flags&flagExtended != 0 {
		t.warn(off, types.KindMalformedBlock, "compressed ID3v2.2 tag")
		return t, nil
	}

	bodyStart := off + HeaderSize
	bodyLen := int64(h.Size)
	if avail := sr.Size() - bodyStart; bodyLen > avail {
		t.warn(off, types.KindTruncatedInput, "tag declares %d bytes but only %d remain", bodyLen, avail)
		bodyLen = avail
	}
	body, err := sr.Bytes(bodyStart, bodyLen, "ID3v2 tag body")
	if err != nil {
		return t, err
	}

	// v2.2 and v2.3 unsynchronise the whole body; v2.4 does it per frame.
	if h.Flags&flagUnsync != 0 && h.Major < 4 {
		body = Deunsync(body)
	}

	pos := 0
	if h.Major > 2 && h.Flags&flagExtended != 0 {
		n, err := extendedHeaderLen(h.Major, body)
		if err != nil {
			t.warn(bodyStart, types.KindMalformedBlock, "%v", err)
			return t, nil
		}
		pos = n
	}

	t.readFrames(v, body, pos, bodyStart)
	return t, nil
}

// extendedHeaderLen returns the bytes taken by the extended header. Its
// size field excludes itself in v2.3 and includes itself in v2.4.
func extendedHeaderLen(major byte, body []byte) (int, error) {
	if len(body) < 4 {
		return 0, fmt.Errorf("extended header cut short")
	}
	var n int
	if major == 3 {
		n = 4 + int(uint32(body[0])<<24|uint32(body[1])<<16|uint32(body[2])<<8|uint32(body[3]))
	} else {
		n = int(binary.DecodeSynchsafe(body[:4]))
	}
	if n < 4 || n > len(body) {
		return 0, fmt.Errorf("extended header of %d bytes in a %d-byte tag", n, len(body))
	}
	return n, nil
}

// readFrames walks the frames in body from pos. base is the file offset
// of body[0], for diagnostics only: after whole-tag unsynchronisation the
// offsets are approximate.
func (t *Tag) readFrames(v version, body []byte, pos int, base int64) {
	hl := v.headerLen()
	idLen := 4
	if hl == 6 {
		idLen = 3
	}
	for pos+hl <= len(body) {
		h := body[pos : pos+hl]
		if h[0] == 0 {
			return // padding
		}
		id, size, flags := v.frameHeader(h)
		at := base + int64(pos)
		if !validID(h[:idLen]) {
			t.warn(at, types.KindMalformedBlock, "invalid frame id %q", id)
			return
		}
		start := pos + hl
		if int64(size) > int64(len(body)-start) {
			t.warn(at, types.KindMalformedBlock, "frame %s declares %d bytes but only %d remain in the tag", id, size, len(body)-start)
			return
		}
		end := start + int(size)
		pos = end
		if size == 0 {
			continue
		}

		payload, err := v.unpack(body[start:end], flags)
		if err != nil {
			t.warn(at, types.KindMalformedBlock, "frame %s: %v", id, err)
			continue
		}
		t.Frames = append(t.Frames, Frame{ID: id, Flags: flags, Offset: at, Payload: payload})
	}
}

// validID reports whether b is a frame id: upper-case letters and digits.
func validID(b []byte) bool {
	for _, c := range b {
		if (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
			return false
		}
	}
	return true
}
