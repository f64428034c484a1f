// Package mp3 decodes MPEG audio files: an optional ID3v2 tag, the first
// MPEG frame for the stream parameters, and an optional ID3v1 trailer.
package mp3

import (
	"errors"

	"github.com/simonhull/metaspector/internal/binary"
	"github.com/simonhull/metaspector/internal/id3"
	"github.com/simonhull/metaspector/internal/registry"
	"github.com/simonhull/metaspector/internal/types"
)

// decoder implements registry.Decoder.
type decoder struct{}

func init() {
	registry.Register(types.FormatMP3, &decoder{})
}

// Decode decodes an MP3 file. A file with a tag but no audio frames still
// decodes, with a warning; a file with neither is not an MP3.
func (d *decoder) Decode(sr *binary.SafeReader, req registry.Request) (*types.UnifiedMetadata, error) {
	out := types.NewUnifiedMetadata(types.FormatMP3)

	audioStart := int64(0)
	tag, err := id3.Read(sr, 0)
	switch {
	case errors.Is(err, id3.ErrNoTag):
	case err != nil:
		return nil, err
	default:
		id3.Apply(tag, out, req)
		audioStart = min(tag.End(), sr.Size())
	}

	audioEnd := sr.Size()
	v1, hasV1 := id3.ReadV1(sr)
	if hasV1 {
		audioEnd -= id3.V1Size
		if req.Wants(types.SectionMetadata) {
			v1.Apply(&out.Metadata)
		}
	}

	off, h, err := findFirstFrame(sr, audioStart, audioEnd)
	if err != nil {
		if tag == nil {
			return nil, &types.CorruptedFileError{Path: sr.Path(), Reason: "no ID3 tag and no MPEG audio frame"}
		}
		out.WarnErr("audio", err)
		req.Log().Debug("decoded mp3 tag without audio", "path", sr.Path(), "result", out)
		return out, nil
	}

	vbr := readVBRHeader(sr, off, h)
	track := audioTrack(h, vbr, audioEnd-off)
	if req.Wants(types.SectionMetadata) {
		if vbr != nil {
			out.Metadata.SetIfAbsent("encoder", vbr.encoder)
		}
		// TLEN wins; otherwise the stream length
		if !out.Metadata.Has("length") {
			out.Metadata.SetInt("length", int(track.DurationSeconds*1000))
		} else if track.DurationSeconds == 0 {
			track.DurationSeconds = float64(out.Metadata.Int("length")) / 1000
		}
	}
	if req.Wants(types.SectionAudio) {
		track.Language = out.Metadata.String("language")
		if track.Language == "" {
			track.Language = "und"
		}
		out.Audio = append(out.Audio, track)
	}

	req.Log().Debug("decoded mp3",
		"path", sr.Path(),
		"first_frame", off,
		"result", out)
	return out, nil
}

// audioTrack describes the stream from its first frame. Duration and
// average bitrate come from a Xing or VBRI header when one is present,
// else from the frame bitrate and the audio byte count.
func audioTrack(h frameHeader, vbr *vbrInfo, audioBytes int64) types.AudioTrack {
	t := types.AudioTrack{
		Index:         0,
		TrackID:       1,
		HandlerName:   "Audio",
		Codec:         h.codec(),
		CodecProfile:  h.profile(),
		Channels:      h.channels(),
		ChannelLayout: types.ChannelLayout(h.channels()),
		ChannelMode:   channelModes[h.channelMode],
		SampleRate:    h.sampleRate,
		BitrateKbps:   h.bitrate,
	}
	if vbr != nil && vbr.frames > 0 {
		t.TotalSamples = uint64(vbr.frames) * uint64(h.samplesPerFrame())
		t.DurationSeconds = float64(t.TotalSamples) / float64(h.sampleRate)
		n := int64(vbr.bytes)
		if n == 0 {
			n = audioBytes
		}
		t.BitrateKbps = int(float64(n) * 8 / t.DurationSeconds / 1000)
		t.VBR = vbr.vbr()
		return t
	}

	if h.bitrate > 0 && audioBytes > 0 {
		t.DurationSeconds = float64(audioBytes) * 8 / float64(h.bitrate*1000)
	}
	t.VBR = vbr.vbr()
	return t
}
