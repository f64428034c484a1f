package mp3

import (
	"bytes"
	"strings"

	"github.com/simonhull/metaspector/internal/binary"
)

// Xing header flags.
const (
	xingFrames  = 0x1
	xingBytes   = 0x2
	xingTOC     = 0x4
	xingQuality = 0x8
)

// vbrInfo is what a Xing, Info or VBRI header in the first frame declares.
type vbrInfo struct {
	kind    string // "Xing", "Info" or "VBRI"
	frames  uint32
	bytes   uint32
	encoder string // LAME version string, when present
}

// vbr reports whether the stream is variable bitrate. Info headers are
// written by LAME for CBR streams.
func (v *vbrInfo) vbr() bool {
	return v != nil && v.kind != "Info"
}

// readVBRHeader looks for a Xing/Info header after the side information
// and a VBRI header at its fixed offset. It returns nil when neither is
// present.
func readVBRHeader(sr *binary.SafeReader, off int64, h frameHeader) *vbrInfo {
	frame, err := sr.Bytes(off, min(int64(h.length()), sr.Size()-off), "first MPEG frame")
	if err != nil {
		return nil
	}
	if v := parseXing(frame, 4+h.sideInfoLen()); v != nil {
		return v
	}
	return parseVBRI(frame, 4+32)
}

func parseXing(frame []byte, at int) *vbrInfo {
	if at+8 > len(frame) {
		return nil
	}
	tag := string(frame[at : at+4])
	if tag != "Xing" && tag != "Info" {
		return nil
	}
	c := cursorOver(frame[at+4:])
	ch := binary.NewChain(c)
	v := &vbrInfo{kind: tag}
	flags := ch.U32("Xing flags")
	if flags&xingFrames != 0 {
		v.frames = ch.U32("Xing frame count")
	}
	if flags&xingBytes != 0 {
		v.bytes = ch.U32("Xing byte count")
	}
	if flags&xingTOC != 0 {
		ch.Skip(100)
	}
	if flags&xingQuality != 0 {
		ch.Skip(4)
	}
	if ch.Err() != nil {
		return v
	}
	// LAME extension: a 9-byte version string
	if enc := ch.Bytes(9, "LAME version"); ch.Err() == nil && bytes.HasPrefix(enc, []byte("LAME")) {
		v.encoder = strings.TrimRight(strings.TrimSpace(string(enc)), "\x00")
	}
	return v
}

// parseVBRI decodes the Fraunhofer VBRI header: id, version, delay,
// quality, bytes, frames.
func parseVBRI(frame []byte, at int) *vbrInfo {
	if at+18 > len(frame) || string(frame[at:at+4]) != "VBRI" {
		return nil
	}
	ch := binary.NewChain(cursorOver(frame[at+4:]))
	ch.Skip(6)
	v := &vbrInfo{kind: "VBRI"}
	v.bytes = ch.U32("VBRI byte count")
	v.frames = ch.U32("VBRI frame count")
	if ch.Err() != nil {
		return nil
	}
	return v
}

// cursorOver wraps an in-memory buffer in a cursor.
func cursorOver(b []byte) *binary.Cursor {
	return binary.NewCursor(binary.NewSafeReader(bytes.NewReader(b), int64(len(b)), "MPEG frame"))
}
