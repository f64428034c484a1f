// Package flac decodes the metadata blocks of native FLAC streams.
package flac

import (
	"bytes"
	"fmt"

	"github.com/icza/bitio"

	"github.com/simonhull/metaspector/internal/binary"
	"github.com/simonhull/metaspector/internal/registry"
	"github.com/simonhull/metaspector/internal/types"
	"github.com/simonhull/metaspector/internal/vorbis"
)

// Metadata block types
const (
	blockTypeStreamInfo    = 0
	blockTypePadding       = 1
	blockTypeApplication   = 2
	blockTypeSeekTable     = 3
	blockTypeVorbisComment = 4
	blockTypeCueSheet      = 5
	blockTypePicture       = 6
)

const (
	markerSize      = 4
	blockHeaderSize = 4
	streamInfoSize  = 34
)

// decoder implements registry.Decoder.
type decoder struct{}

func init() {
	registry.Register(types.FormatFLAC, &decoder{})
}

// block is one metadata block header and the span of its payload.
type block struct {
	typ    byte
	last   bool
	offset int64 // payload start
	length int64
}

// StreamInfo holds the STREAMINFO fields this package reports.
type StreamInfo struct {
	MinBlockSize  uint16
	MaxBlockSize  uint16
	SampleRate    int
	Channels      int
	BitsPerSample int
	TotalSamples  uint64
}

// Seconds returns the stream duration.
func (s *StreamInfo) Seconds() float64 {
	if s.SampleRate == 0 {
		return 0
	}
	return float64(s.TotalSamples) / float64(s.SampleRate)
}

// stream carries the state of one decode.
type stream struct {
	sr  *binary.SafeReader
	req registry.Request
	out *types.UnifiedMetadata

	info     *StreamInfo
	comments *vorbis.Comments
	pictures []block
	audioAt  int64 // first byte after the metadata blocks
}

// Decode decodes a FLAC stream.
func (d *decoder) Decode(sr *binary.SafeReader, req registry.Request) (*types.UnifiedMetadata, error) {
	magic, err := sr.Bytes(0, min(markerSize, sr.Size()), "FLAC marker")
	if err != nil {
		return nil, err
	}
	if string(magic) != "fLaC" {
		return nil, &types.CorruptedFileError{Path: sr.Path(), Reason: "missing fLaC marker"}
	}
	if sr.Size() < markerSize+blockHeaderSize {
		return nil, &types.DecodeError{
			Kind:   types.KindTruncatedInput,
			Path:   sr.Path(),
			Offset: markerSize,
			Reason: "no metadata block after the fLaC marker",
		}
	}

	s := &stream{sr: sr, req: req, out: types.NewUnifiedMetadata(types.FormatFLAC)}
	s.readBlocks()

	if req.Wants(types.SectionMetadata) && s.comments != nil {
		s.comments.Apply(&s.out.Metadata)
	}
	if req.WantsCover() {
		s.selectCover()
	}
	if s.info != nil {
		track := s.audioTrack()
		if req.Wants(types.SectionMetadata) {
			s.out.Metadata.SetIfAbsent("length", int(track.DurationSeconds*1000))
		}
		if req.Wants(types.SectionAudio) {
			s.out.Audio = append(s.out.Audio, track)
		}
	}

	req.Log().Debug("decoded flac",
		"path", sr.Path(),
		"audio_offset", s.audioAt,
		"result", s.out)
	return s.out, nil
}

// readBlocks walks the metadata blocks until the last-block flag, the end
// of the source, or a block that overruns it.
func (s *stream) readBlocks() {
	off := int64(markerSize)
	for first := true; ; first = false {
		b, err := s.readBlockHeader(off)
		if err != nil {
			s.out.WarnErr("metadata", err)
			s.audioAt = off
			return
		}
		if first && b.typ != blockTypeStreamInfo {
			s.out.Warn("metadata", off, types.KindMalformedBlock,
				"first metadata block is type %d, not STREAMINFO", b.typ)
		}
		if b.offset+b.length > s.sr.Size() {
			s.out.Warn("metadata", off, types.KindMalformedBlock,
				"block type %d declares %d bytes but only %d remain", b.typ, b.length, s.sr.Size()-b.offset)
			s.audioAt = s.sr.Size()
			return
		}
		s.readBlock(b, first)

		off = b.offset + b.length
		if b.last {
			s.audioAt = off
			return
		}
	}
}

func (s *stream) readBlockHeader(off int64) (block, error) {
	h, err := binary.Read[uint32](s.sr, off, "metadata block header")
	if err != nil {
		return block{}, err
	}
	return block{
		typ:    byte(h>>24) & 0x7F,
		last:   h>>31 == 1,
		offset: off + blockHeaderSize,
		length: int64(h & 0xFFFFFF),
	}, nil
}

func (s *stream) readBlock(b block, first bool) {
	switch b.typ {
	case blockTypeStreamInfo:
		if !first {
			s.out.Warn("metadata", b.offset, types.KindMalformedBlock, "STREAMINFO after the first block")
			return
		}
		info, err := s.parseStreamInfo(b)
		if err != nil {
			s.out.WarnErr("audio", err)
			return
		}
		s.info = info

	case blockTypeVorbisComment:
		if s.comments != nil {
			s.out.Warn("metadata", b.offset, types.KindMalformedBlock, "second VORBIS_COMMENT block ignored")
			return
		}
		c, err := s.sr.Range(b.offset, b.offset+b.length)
		if err != nil {
			s.out.WarnErr("metadata", err)
			return
		}
		comments, err := vorbis.Parse(c)
		if err != nil {
			s.out.WarnErr("metadata", fmt.Errorf("VORBIS_COMMENT: %w", err))
		}
		s.comments = comments

	case blockTypePicture:
		s.pictures = append(s.pictures, b)

	case blockTypeCueSheet:
		if s.req.Wants(types.SectionMetadata) {
			s.applyCueSheet(b)
		}

	case blockTypePadding, blockTypeApplication, blockTypeSeekTable:
	}
}

// parseStreamInfo unpacks the bit-packed STREAMINFO fields.
func (s *stream) parseStreamInfo(b block) (*StreamInfo, error) {
	if b.length < streamInfoSize {
		return nil, types.NewDecodeError(types.KindMalformedBlock, b.offset,
			"STREAMINFO of %d bytes, want %d", b.length, streamInfoSize)
	}
	data, err := s.sr.Bytes(b.offset, streamInfoSize, "STREAMINFO")
	if err != nil {
		return nil, err
	}

	r := bitio.NewReader(bytes.NewReader(data))
	info := &StreamInfo{
		MinBlockSize: uint16(r.TryReadBits(16)),
		MaxBlockSize: uint16(r.TryReadBits(16)),
	}
	r.TryReadBits(24) // min frame size
	r.TryReadBits(24) // max frame size
	info.SampleRate = int(r.TryReadBits(20))
	info.Channels = int(r.TryReadBits(3)) + 1
	info.BitsPerSample = int(r.TryReadBits(5)) + 1
	info.TotalSamples = r.TryReadBits(36)
	if r.TryError != nil {
		return nil, fmt.Errorf("STREAMINFO: %w", r.TryError)
	}
	if info.SampleRate == 0 {
		return nil, types.NewDecodeError(types.KindMalformedBlock, b.offset, "STREAMINFO sample rate is 0")
	}
	return info, nil
}

func (s *stream) audioTrack() types.AudioTrack {
	t := types.AudioTrack{
		Index:           0,
		TrackID:         1,
		HandlerName:     "Audio",
		Language:        "und",
		Codec:           "FLAC",
		Channels:        s.info.Channels,
		ChannelLayout:   types.ChannelLayout(s.info.Channels),
		SampleRate:      s.info.SampleRate,
		BitsPerSample:   s.info.BitsPerSample,
		TotalSamples:    s.info.TotalSamples,
		DurationSeconds: s.info.Seconds(),
	}
	if s.comments != nil {
		if lang := s.comments.Values("LANGUAGE"); len(lang) > 0 && lang[0] != "" {
			t.Language = lang[0]
		}
	}
	if audioBytes := s.sr.Size() - s.audioAt; t.DurationSeconds > 0 && audioBytes > 0 {
		t.BitrateKbps = int(float64(audioBytes) * 8 / t.DurationSeconds / 1000)
	}
	return t
}
