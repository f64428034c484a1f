package flac

import (
	"strings"

	"github.com/simonhull/metaspector/internal/binary"
	"github.com/simonhull/metaspector/internal/types"
)

// CueSheet is the part of a CUESHEET block that feeds the metadata
// section.
type CueSheet struct {
	MediaCatalogNumber string
	LeadIn             uint64
	IsCD               bool
	Tracks             []CueTrack
}

// CueTrack is one track of a cue sheet. Number 170 (CD) or 255 is the
// lead-out.
type CueTrack struct {
	Offset  uint64 // samples from start of audio
	Number  byte
	ISRC    string
	IsAudio bool
	Indices int
}

const (
	cueTrackSize = 8 + 1 + 12 + 1 + 13 + 1
	cueIndexSize = 8 + 1 + 3
)

// parseCueSheet decodes a CUESHEET block.
func parseCueSheet(c *binary.Cursor) (*CueSheet, error) {
	ch := binary.NewChain(c)
	cs := &CueSheet{}
	cs.MediaCatalogNumber = strings.TrimRight(ch.String(128, "media catalog number"), "\x00 ")
	cs.LeadIn = ch.U64("lead-in samples")
	cs.IsCD = ch.U8("cuesheet flags")&0x80 != 0
	ch.Skip(258)
	count := ch.U8("track count")
	if err := ch.Err(); err != nil {
		return nil, err
	}
	if int64(count)*cueTrackSize > c.Remaining() {
		return nil, types.NewDecodeError(types.KindMalformedBlock, c.Position(),
			"%d cue tracks declared in %d bytes", count, c.Remaining())
	}

	for range count {
		t := CueTrack{
			Offset: ch.U64("track offset"),
			Number: ch.U8("track number"),
			ISRC:   strings.TrimRight(ch.String(12, "track ISRC"), "\x00 "),
		}
		t.IsAudio = ch.U8("track flags")&0x80 == 0
		ch.Skip(13)
		t.Indices = int(ch.U8("index count"))
		ch.Skip(int64(t.Indices) * cueIndexSize)
		if err := ch.Err(); err != nil {
			return cs, err
		}
		cs.Tracks = append(cs.Tracks, t)
	}
	return cs, nil
}

// applyCueSheet records the catalog number, and the ISRC of a single-track
// sheet, unless the comments already supplied them.
func (s *stream) applyCueSheet(b block) {
	c, err := s.sr.Range(b.offset, b.offset+b.length)
	if err != nil {
		s.out.WarnErr("metadata", err)
		return
	}
	cs, err := parseCueSheet(c)
	if err != nil {
		s.out.WarnErr("metadata", err)
		if cs == nil {
			return
		}
	}

	md := &s.out.Metadata
	md.Set("media_catalog_number", cs.MediaCatalogNumber)

	var audio []CueTrack
	for _, t := range cs.Tracks {
		if t.IsAudio && t.Number != 170 && t.Number != 255 {
			audio = append(audio, t)
		}
	}
	if len(audio) == 1 {
		md.SetIfAbsent("isrc", audio[0].ISRC)
	}
	if len(audio) > 1 {
		md.Set("cue_track_count", len(audio))
	}
}
