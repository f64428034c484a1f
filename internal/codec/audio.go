package codec

import (
	"bytes"
	"fmt"
)

// aacProfiles maps AAC Audio Object Types to profile names.
var aacProfiles = map[int]string{
	1:  "AAC Main",
	2:  "AAC-LC",
	3:  "AAC-SSR",
	4:  "AAC-LTP",
	5:  "HE-AAC",
	6:  "AAC Scalable",
	23: "AAC-LD",
	29: "HE-AAC v2",
	39: "AAC-ELD",
	42: "xHE-AAC",
}

var aacSampleRates = [...]int{
	96000, 88200, 64000, 48000, 44100, 32000, 24000,
	22050, 16000, 12000, 11025, 8000, 7350,
}

// ESDS is the subset of an MPEG-4 elementary stream descriptor needed to
// name the codec.
type ESDS struct {
	ObjectType      uint8 // objectTypeIndication of the DecoderConfigDescriptor
	AudioObjectType int   // from AudioSpecificConfig, 0 if absent
	SampleRate      int
	Channels        int
	MaxBitrate      uint32
	AvgBitrate      uint32
}

// CodecName names the stream by its object type indication.
func (d ESDS) CodecName() string {
	switch d.ObjectType {
	case 0x69, 0x6B:
		return "MP3"
	case 0xA5:
		return "AC-3"
	case 0xA6:
		return "E-AC-3"
	case 0xA9:
		return "DTS"
	case 0xAD:
		return "Opus"
	case 0xDD:
		return "Vorbis"
	}
	return "AAC"
}

// Profile names the AAC object type, or "" for non-AAC streams.
func (d ESDS) Profile() string {
	switch d.ObjectType {
	case 0x66:
		return "AAC Main"
	case 0x67:
		return "AAC-LC"
	case 0x68:
		return "AAC-SSR"
	}
	if d.CodecName() != "AAC" {
		return ""
	}
	return aacProfiles[d.AudioObjectType]
}

// descriptors walks the tag/length/value records of an ES descriptor.
type descriptors struct {
	b   []byte
	pos int
}

// next returns the tag and body of the next descriptor. Lengths that
// overrun the buffer are clipped, since several muxers write them loosely.
func (d *descriptors) next() (tag byte, body []byte, ok bool) {
	if d.pos >= len(d.b) {
		return 0, nil, false
	}
	tag = d.b[d.pos]
	d.pos++

	size := 0
	for i := 0; i < 4; i++ {
		if d.pos >= len(d.b) {
			return 0, nil, false
		}
		c := d.b[d.pos]
		d.pos++
		size = size<<7 | int(c&0x7F)
		if c&0x80 == 0 {
			break
		}
	}
	end := min(d.pos+size, len(d.b))
	body = d.b[d.pos:end]
	d.pos = end
	return tag, body, true
}

// ParseESDS decodes an 'esds' payload, including its version and flags.
func ParseESDS(payload []byte) (ESDS, error) {
	var d ESDS
	if len(payload) < 4 {
		return d, fmt.Errorf("%w: esds of %d bytes", ErrInvalidConfig, len(payload))
	}

	top := descriptors{b: payload[4:]}
	tag, es, ok := top.next()
	if !ok || tag != 0x03 {
		return d, fmt.Errorf("%w: esds without ES_Descriptor", ErrInvalidConfig)
	}
	if len(es) < 3 {
		return d, fmt.Errorf("%w: ES_Descriptor of %d bytes", ErrInvalidConfig, len(es))
	}
	flags := es[2]
	pos := 3
	if flags&0x80 != 0 { // streamDependenceFlag
		pos += 2
	}
	if flags&0x40 != 0 && pos < len(es) { // URL_Flag
		pos += 1 + int(es[pos])
	}
	if flags&0x20 != 0 { // OCRstreamFlag
		pos += 2
	}
	if pos >= len(es) {
		return d, fmt.Errorf("%w: ES_Descriptor has no DecoderConfigDescriptor", ErrInvalidConfig)
	}

	inner := descriptors{b: es[pos:]}
	for {
		tag, dc, ok := inner.next()
		if !ok {
			return d, fmt.Errorf("%w: ES_Descriptor has no DecoderConfigDescriptor", ErrInvalidConfig)
		}
		if tag != 0x04 {
			continue
		}
		if len(dc) < 13 {
			return d, fmt.Errorf("%w: DecoderConfigDescriptor of %d bytes", ErrInvalidConfig, len(dc))
		}
		d.ObjectType = dc[0]
		d.MaxBitrate = be32(dc[5:9])
		d.AvgBitrate = be32(dc[9:13])

		specific := descriptors{b: dc[13:]}
		for {
			tag, dsi, ok := specific.next()
			if !ok {
				return d, nil
			}
			if tag == 0x05 {
				parseAudioSpecificConfig(dsi, &d)
				return d, nil
			}
		}
	}
}

func parseAudioSpecificConfig(b []byte, d *ESDS) {
	if len(b) < 2 {
		return
	}
	br := newBitReader(b)
	objectType := func() int {
		aot := int(br.bits(5))
		if aot == 31 {
			aot = 32 + int(br.bits(6))
		}
		return aot
	}
	rate := func() int {
		idx := int(br.bits(4))
		if idx == 15 {
			return int(br.bits(24))
		}
		if idx < len(aacSampleRates) {
			return aacSampleRates[idx]
		}
		return 0
	}

	aot := objectType()
	sampleRate := rate()
	channels := int(br.bits(4))
	if aot == 5 || aot == 29 {
		// Explicit SBR signalling: the extension rate is the output rate.
		if ext := rate(); ext > 0 {
			sampleRate = ext
		}
	}
	if br.err("AudioSpecificConfig") != nil {
		return
	}

	d.AudioObjectType = aot
	d.SampleRate = sampleRate
	switch {
	case channels >= 1 && channels <= 6:
		d.Channels = channels
	case channels == 7:
		d.Channels = 8
	}
}

func be32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

// acmodChannels is the full-bandwidth channel count per AC-3 audio coding mode.
var acmodChannels = [8]int{2, 1, 2, 3, 3, 4, 4, 5}

var ac3SampleRates = [3]int{48000, 44100, 32000}

var ac3Bitrates = [...]int{
	32, 40, 48, 56, 64, 80, 96, 112, 128, 160,
	192, 224, 256, 320, 384, 448, 512, 576, 640,
}

// AC3 is the content of a 'dac3' box.
type AC3 struct {
	SampleRate  int
	Channels    int
	LFE         bool
	BitrateKbps int
}

// ParseAC3 decodes a 'dac3' payload.
func ParseAC3(payload []byte) (AC3, error) {
	var c AC3
	br := newBitReader(payload)
	fscod := br.bits(2)
	br.skip(5) // bsid
	br.skip(3) // bsmod
	acmod := br.bits(3)
	c.LFE = br.flag()
	rateCode := br.bits(5)
	if err := br.err("dac3"); err != nil {
		return c, err
	}

	if int(fscod) < len(ac3SampleRates) {
		c.SampleRate = ac3SampleRates[fscod]
	}
	c.Channels = acmodChannels[acmod]
	if c.LFE {
		c.Channels++
	}
	if int(rateCode) < len(ac3Bitrates) {
		c.BitrateKbps = ac3Bitrates[rateCode]
	}
	return c, nil
}

// chanLocChannels is the number of channels each chan_loc bit adds,
// most significant bit first.
var chanLocChannels = [9]int{2, 2, 1, 1, 2, 2, 2, 1, 1}

// EAC3 is the content of a 'dec3' box.
type EAC3 struct {
	DataRateKbps int
	SampleRate   int
	Channels     int
	LFE          bool
	// JOC is set when the joint object coding extension is signalled,
	// which is how Atmos rides on E-AC-3.
	JOC        bool
	Complexity int
}

// ParseEAC3 decodes a 'dec3' payload.
func ParseEAC3(payload []byte) (EAC3, error) {
	var c EAC3
	br := newBitReader(payload)
	c.DataRateKbps = int(br.bits(13))
	numInd := int(br.bits(3)) + 1

	for i := 0; i < numInd; i++ {
		fscod := br.bits(2)
		br.skip(5) // bsid
		br.skip(1) // reserved
		br.skip(1) // asvc
		br.skip(3) // bsmod
		acmod := br.bits(3)
		lfe := br.flag()
		br.skip(3) // reserved
		numDep := br.bits(4)
		var chanLoc uint64
		if numDep > 0 {
			chanLoc = br.bits(9)
		} else {
			br.skip(1) // reserved
		}
		if err := br.err("dec3"); err != nil {
			return c, err
		}

		// Only the first independent substream describes the main program.
		if i > 0 {
			continue
		}
		if int(fscod) < len(ac3SampleRates) {
			c.SampleRate = ac3SampleRates[fscod]
		}
		c.LFE = lfe
		c.Channels = acmodChannels[acmod]
		if lfe {
			c.Channels++
		}
		for bit := range chanLocChannels {
			if chanLoc&(1<<(8-bit)) != 0 {
				c.Channels += chanLocChannels[bit]
			}
		}
	}

	if br.remaining() >= 16 {
		br.skip(7) // reserved
		if br.flag() { // flag_ec3_extension_type_a
			c.JOC = true
			c.Complexity = int(br.bits(8))
		}
		if err := br.err("dec3 extension"); err != nil {
			return c, err
		}
	}
	return c, nil
}

// Atmos reports whether the joint object coding extension declares at
// least one object.
func (c EAC3) Atmos() bool {
	return c.JOC && c.Complexity > 0
}

// jocMarker starts the EMDF payload that carries Atmos object metadata
// inside an E-AC-3 frame.
var jocMarker = []byte{0x03, 0xBB, 0xBB, 0x81}

// HasJOCMarker reports whether an E-AC-3 sample carries Atmos metadata.
func HasJOCMarker(sample []byte) bool {
	return bytes.Contains(sample, jocMarker)
}
