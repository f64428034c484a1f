package mp4

import (
	"errors"
	"math"
	"strings"

	"github.com/simonhull/metaspector/internal/binary"
	"github.com/simonhull/metaspector/internal/bmff"
	"github.com/simonhull/metaspector/internal/codec"
	"github.com/simonhull/metaspector/internal/types"
)

// maxConfigSize bounds the configuration boxes read after a sample entry's
// fixed fields.
const maxConfigSize = 1 << 20

// sampleEntry is the first entry of a track's stsd box.
type sampleEntry struct {
	fourcc  string
	entries uint32
	config  []byte
	boxes   codec.Boxes

	// visual entries
	width, height int

	// audio entries
	channels   int
	bits       int
	sampleRate int
}

// readSampleEntry reads the first sample description of a track. The
// layout of the fixed fields depends on the track kind.
func (m *movie) readSampleEntry(stbl int, kind types.TrackKind) (*sampleEntry, error) {
	stsd := m.tree.Find(stbl, "stsd")
	if stsd < 0 {
		return nil, types.NewDecodeError(types.KindMalformedContainer, m.tree.Nodes[stbl].Offset, "stbl without stsd")
	}
	c, err := m.tree.Payload(m.sr, stsd)
	if err != nil {
		return nil, err
	}
	ch := binary.NewChain(c)
	ch.Skip(4)
	entries := ch.U32("stsd entry count")
	if err := ch.Err(); err != nil {
		return nil, err
	}
	if entries == 0 {
		return nil, types.NewDecodeError(types.KindMalformedContainer, m.tree.Nodes[stsd].Offset, "stsd has no entries")
	}

	h, err := bmff.ReadHeader(c)
	if errors.Is(err, bmff.ErrEndOfContainer) {
		return nil, types.NewDecodeError(types.KindMalformedContainer, m.tree.Nodes[stsd].Offset, "stsd declares %d entries but holds none", entries)
	}
	var overrun error
	if err != nil {
		if !errors.Is(err, types.ErrMalformedContainer) {
			return nil, err
		}
		overrun = err
	}

	e := &sampleEntry{fourcc: h.Type, entries: entries}
	ec, err := m.sr.Range(h.PayloadOffset(), min(h.End(), c.End()))
	if err != nil {
		return e, err
	}

	ech := binary.NewChain(ec)
	ech.Skip(8) // reserved, data_reference_index
	switch kind {
	case types.TrackVideo:
		readVisualFields(ech, e)
	case types.TrackAudio:
		readAudioFields(ech, e)
	default:
		// Timed text entries have no configuration boxes worth reading.
		return e, overrun
	}
	if err := ech.Err(); err != nil {
		return e, err
	}

	n := min(ec.Remaining(), maxConfigSize)
	if e.config, err = ec.Bytes(n, "sample entry configuration"); err != nil {
		return e, err
	}
	e.boxes = codec.ParseConfig(e.config)

	// QuickTime sound entries nest their esds inside a 'wave' box.
	if wave, ok := e.boxes.Find("wave"); ok {
		e.config = append(e.config, wave...)
		e.boxes = codec.ParseConfig(e.config)
	}
	return e, overrun
}

// readVisualFields reads the fixed part of a VisualSampleEntry.
func readVisualFields(ch *binary.Chain, e *sampleEntry) {
	ch.Skip(16) // pre_defined, reserved, pre_defined[3]
	e.width = int(ch.U16("visual entry width"))
	e.height = int(ch.U16("visual entry height"))
	// resolutions, reserved, frame count, compressor name, depth, pre_defined
	ch.Skip(4 + 4 + 4 + 2 + 32 + 2 + 2)
}

// readAudioFields reads the fixed part of an AudioSampleEntry, including the
// QuickTime version 1 and 2 extensions.
func readAudioFields(ch *binary.Chain, e *sampleEntry) {
	version := ch.U16("audio entry version")
	ch.Skip(6) // revision, vendor
	e.channels = int(ch.U16("audio entry channel count"))
	e.bits = int(ch.U16("audio entry sample size"))
	ch.Skip(4) // compression id, packet size
	e.sampleRate = int(ch.U32("audio entry sample rate") >> 16)

	switch version {
	case 1:
		ch.Skip(16) // samples per packet, bytes per packet, bytes per frame, bytes per sample
	case 2:
		ch.Skip(4) // sizeOfStructOnly
		rate := math.Float64frombits(ch.U64("audio entry v2 sample rate"))
		channels := ch.U32("audio entry v2 channel count")
		ch.Skip(4) // always 0x7F000000
		bits := ch.U32("audio entry v2 bits per channel")
		ch.Skip(12) // format flags, bytes per packet, frames per packet
		if rate > 0 && rate < 1e7 {
			e.sampleRate = int(rate)
		}
		e.channels = int(channels)
		e.bits = int(bits)
	}
}

// videoTrack builds the record of a video trak.
func (m *movie) videoTrack(t *track) types.VideoTrack {
	v := types.VideoTrack{
		TrackID:         t.id,
		HandlerName:     t.name,
		Language:        t.language,
		I18nLanguage:    t.i18n,
		Codec:           "unknown",
		Width:           t.width,
		Height:          t.height,
		DurationSeconds: t.seconds(),
		TotalSamples:    t.samples.count,
		BitrateKbps:     t.bitrateKbps(),
		Characteristics: t.characteristics,
		HDRFormat:       "SDR",
	}

	e := m.sampleEntryFor(t)
	if e == nil {
		return v
	}
	info := codec.Classify(e.fourcc, e.config)
	v.Codec = info.Name
	v.CodecTag = strings.TrimSpace(e.fourcc)
	v.DolbyVision = info.DolbyVision
	if e.width > 0 && e.height > 0 {
		v.Width, v.Height = e.width, e.height
	}

	var cfg codec.VideoConfig
	var err error
	switch {
	case e.boxes.Has("hvcC"):
		b, _ := e.boxes.Find("hvcC")
		cfg, err = codec.ParseHEVC(b)
	case e.boxes.Has("avcC"):
		b, _ := e.boxes.Find("avcC")
		cfg, err = codec.ParseAVC(b)
	case e.boxes.Has("av1C"):
		b, _ := e.boxes.Find("av1C")
		cfg, err = codec.ParseAV1(b)
	case e.boxes.Has("vpcC"):
		b, _ := e.boxes.Find("vpcC")
		cfg, err = codec.ParseVPC(b)
	}
	if err != nil {
		m.out.Warn("video", m.tree.Nodes[t.box].Offset, types.KindMalformedBlock, "%s: %v", v.CodecTag, err)
	}
	v.Profile = cfg.Profile
	v.BitDepth = cfg.BitDepth
	if v.BitDepth == 0 {
		v.BitDepth = 8
	}

	colour := cfg.Colour
	if b, ok := e.boxes.Find("colr"); ok {
		c, ok, err := codec.ParseColr(b)
		switch {
		case err != nil:
			m.out.Warn("video", m.tree.Nodes[t.box].Offset, types.KindMalformedBlock, "colr: %v", err)
		case ok:
			colour = c
		}
	}
	if colour != nil {
		v.ColorPrimaries = colour.Primaries
		v.TransferCharacteristics = colour.Transfer
		v.MatrixCoefficients = colour.Matrix
		v.ColorRange = colour.Range
	}

	for _, typ := range []string{"dvcC", "dvvC", "dvwC"} {
		b, ok := e.boxes.Find(typ)
		if !ok {
			continue
		}
		dv, err := codec.ParseDolbyVision(b)
		if err != nil {
			m.out.Warn("video", m.tree.Nodes[t.box].Offset, types.KindMalformedBlock, "%s: %v", typ, err)
			continue
		}
		v.DolbyVision = true
		v.DolbyVisionProfile = dv.Profile
		v.DolbyVisionLevel = dv.Level
		v.DolbyVisionSDRCompatible = dv.SDRCompatible(e.fourcc)
		break
	}

	hasMDCV := e.boxes.Has("mdcv") || e.boxes.Has("SmDm")
	v.HDRFormat = codec.HDRFormat(v.TransferCharacteristics, hasMDCV, v.DolbyVision)

	if v.BitrateKbps == 0 {
		v.BitrateKbps = btrtKbps(e.boxes)
	}
	return v
}

// audioTrack builds the record of an audio trak.
func (m *movie) audioTrack(t *track) types.AudioTrack {
	a := types.AudioTrack{
		TrackID:         t.id,
		HandlerName:     t.name,
		Language:        t.language,
		I18nLanguage:    t.i18n,
		Codec:           "unknown",
		DurationSeconds: t.seconds(),
		TotalSamples:    t.samples.count,
		BitrateKbps:     t.bitrateKbps(),
		Characteristics: t.characteristics,
	}

	e := m.sampleEntryFor(t)
	if e == nil {
		return a
	}
	info := codec.Classify(e.fourcc, e.config)
	a.Codec = info.Name
	a.CodecTag = strings.TrimSpace(e.fourcc)
	a.DolbyAtmos = info.DolbyAtmos
	a.Channels = e.channels
	a.SampleRate = e.sampleRate
	a.BitsPerSample = e.bits

	offset := m.tree.Nodes[t.box].Offset
	if b, ok := e.boxes.Find("esds"); ok {
		d, err := codec.ParseESDS(b)
		if err != nil {
			m.out.Warn("audio", offset, types.KindMalformedBlock, "esds: %v", err)
		} else {
			a.CodecProfile = d.Profile()
			if d.Channels > 0 {
				a.Channels = d.Channels
			}
			if a.SampleRate == 0 {
				a.SampleRate = d.SampleRate
			}
			if a.BitrateKbps == 0 {
				a.BitrateKbps = int(d.AvgBitrate / 1000)
			}
		}
	}
	if b, ok := e.boxes.Find("dac3"); ok {
		c, err := codec.ParseAC3(b)
		if err != nil {
			m.out.Warn("audio", offset, types.KindMalformedBlock, "dac3: %v", err)
		} else {
			a.Channels = c.Channels
			if a.BitrateKbps == 0 {
				a.BitrateKbps = c.BitrateKbps
			}
		}
	}
	if b, ok := e.boxes.Find("dec3"); ok {
		c, err := codec.ParseEAC3(b)
		if err != nil {
			m.out.Warn("audio", offset, types.KindMalformedBlock, "dec3: %v", err)
		} else {
			a.Channels = c.Channels
			if a.BitrateKbps == 0 {
				a.BitrateKbps = c.DataRateKbps
			}
		}
	}
	if e.fourcc == "ec-3" && !a.DolbyAtmos {
		a.DolbyAtmos = m.sniffJOC(t)
	}

	// Sample entries often carry placeholder values (2 channels, 16 bits)
	// for compressed streams; only lossless and PCM codecs keep bits.
	switch a.Codec {
	case "AAC", "MP3", "AC-3", "E-AC-3", "Opus", "Vorbis", "AC-4", "DTS":
		a.BitsPerSample = 0
	}
	a.ChannelLayout = types.ChannelLayout(a.Channels)
	if a.BitrateKbps == 0 {
		a.BitrateKbps = btrtKbps(e.boxes)
	}
	return a
}

// subtitleTrack builds the record of a subtitle or caption trak.
func (m *movie) subtitleTrack(t *track) types.SubtitleTrack {
	s := types.SubtitleTrack{
		TrackID:         t.id,
		HandlerName:     t.name,
		Language:        t.language,
		I18nLanguage:    t.i18n,
		Codec:           "unknown",
		DurationSeconds: t.seconds(),
		TotalSamples:    t.samples.count,
		Characteristics: t.characteristics,
		ForcedOnly:      t.forcedOnly,
	}
	if e := m.sampleEntryFor(t); e != nil {
		s.Codec = codec.Classify(e.fourcc, nil).Name
		s.CodecTag = strings.TrimSpace(e.fourcc)
	}
	return s
}

// sampleEntryFor reads a track's sample entry, recording any fault as a
// warning. A nil result leaves the track with an unknown codec.
func (m *movie) sampleEntryFor(t *track) *sampleEntry {
	if t.stbl < 0 {
		m.out.Warn(t.kind.String(), m.tree.Nodes[t.box].Offset, types.KindMalformedContainer, "track %d has no sample table", t.id)
		return nil
	}
	e, err := m.readSampleEntry(t.stbl, t.kind)
	if err != nil {
		m.out.WarnErr(t.kind.String(), err)
	}
	return e
}

// btrtKbps reads the average bitrate from a btrt box.
func btrtKbps(boxes codec.Boxes) int {
	b, ok := boxes.Find("btrt")
	if !ok || len(b) < 12 {
		return 0
	}
	avg := uint32(b[8])<<24 | uint32(b[9])<<16 | uint32(b[10])<<8 | uint32(b[11])
	return int(avg / 1000)
}

// jocSniffLimit bounds how much of the first sample is searched for the
// object audio marker.
const jocSniffLimit = 64 * 1024

// sniffJOC looks for the E-AC-3 joint object coding marker in the first
// sample of a track, for files whose dec3 omits the extension.
func (m *movie) sniffJOC(t *track) bool {
	if t.stbl < 0 || t.samples.first == 0 {
		return false
	}
	off, err := m.firstChunkOffset(t.stbl)
	if err != nil {
		return false
	}
	n := min(int64(t.samples.first), jocSniffLimit)
	sample, err := m.sr.Bytes(off, n, "first audio sample")
	if err != nil {
		return false
	}
	return codec.HasJOCMarker(sample)
}
