package mp3

import (
	"fmt"

	"github.com/simonhull/metaspector/internal/binary"
)

// MPEG audio versions, by their two header bits.
const (
	mpeg25 = 0
	mpeg2  = 2
	mpeg1  = 3
)

// Layers, by their two header bits.
const (
	layer3 = 1
	layer2 = 2
	layer1 = 3
)

// bitrates in kbit/s, indexed by [MPEG-1?][layer][index]. MPEG-2 and 2.5
// share a table.
var bitrates = [2][4][16]int{
	{ // MPEG-2, MPEG-2.5
		{},
		{0, 8, 16, 24, 32, 40, 48, 56, 64, 80, 96, 112, 128, 144, 160, 0},
		{0, 8, 16, 24, 32, 40, 48, 56, 64, 80, 96, 112, 128, 144, 160, 0},
		{0, 32, 48, 56, 64, 80, 96, 112, 128, 144, 160, 176, 192, 224, 256, 0},
	},
	{ // MPEG-1
		{},
		{0, 32, 40, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320, 0},
		{0, 32, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320, 384, 0},
		{0, 32, 64, 96, 128, 160, 192, 224, 256, 288, 320, 352, 384, 416, 448, 0},
	},
}

var sampleRates = [4][3]int{
	mpeg25: {11025, 12000, 8000},
	mpeg2:  {22050, 24000, 16000},
	mpeg1:  {44100, 48000, 32000},
}

var channelModes = [4]string{"Stereo", "Joint Stereo", "Dual Channel", "Mono"}

// frameHeader is a decoded 4-byte MPEG audio frame header.
type frameHeader struct {
	version     int
	layer       int
	bitrate     int // kbit/s
	sampleRate  int
	padding     bool
	channelMode int
}

// parseFrameHeader decodes b, rejecting reserved and free-format values.
func parseFrameHeader(b []byte) (frameHeader, bool) {
	if len(b) < 4 || b[0] != 0xFF || b[1]&0xE0 != 0xE0 {
		return frameHeader{}, false
	}
	h := frameHeader{
		version:     int(b[1]>>3) & 0x3,
		layer:       int(b[1]>>1) & 0x3,
		padding:     b[2]&0x02 != 0,
		channelMode: int(b[3]>>6) & 0x3,
	}
	brIdx := int(b[2]>>4) & 0xF
	srIdx := int(b[2]>>2) & 0x3
	if h.version == 1 || h.layer == 0 || brIdx == 0 || brIdx == 15 || srIdx == 3 {
		return frameHeader{}, false
	}
	v1 := 0
	if h.version == mpeg1 {
		v1 = 1
	}
	h.bitrate = bitrates[v1][h.layer][brIdx]
	h.sampleRate = sampleRates[h.version][srIdx]
	return h, true
}

func (h frameHeader) samplesPerFrame() int {
	switch {
	case h.layer == layer1:
		return 384
	case h.layer == layer3 && h.version != mpeg1:
		return 576
	}
	return 1152
}

// length returns the frame size in bytes, header included.
func (h frameHeader) length() int {
	pad := 0
	if h.padding {
		pad = 1
	}
	if h.layer == layer1 {
		return (12*h.bitrate*1000/h.sampleRate + pad) * 4
	}
	return h.samplesPerFrame()/8*h.bitrate*1000/h.sampleRate + pad
}

func (h frameHeader) channels() int {
	if h.channelMode == 3 {
		return 1
	}
	return 2
}

// sideInfoLen is the size of the Layer III side information that follows
// the header. A Xing header starts right after it.
func (h frameHeader) sideInfoLen() int {
	switch {
	case h.version == mpeg1 && h.channels() == 2:
		return 32
	case h.version == mpeg1, h.channels() == 2:
		return 17
	}
	return 9
}

func (h frameHeader) versionName() string {
	switch h.version {
	case mpeg1:
		return "MPEG-1"
	case mpeg2:
		return "MPEG-2"
	}
	return "MPEG-2.5"
}

// codec returns "MP1", "MP2" or "MP3".
func (h frameHeader) codec() string {
	return fmt.Sprintf("MP%d", 4-h.layer)
}

func (h frameHeader) profile() string {
	return fmt.Sprintf("%s Layer %s", h.versionName(), [4]string{"", "III", "II", "I"}[h.layer])
}

// compatible reports whether next could follow h in the same stream.
func (h frameHeader) compatible(next frameHeader) bool {
	return h.version == next.version && h.layer == next.layer && h.sampleRate == next.sampleRate
}

// maxSyncScan bounds the search for the first frame after the tag.
const maxSyncScan = 1 << 20

// findFirstFrame returns the offset and header of the first frame at or
// after start whose successor is also a frame, or which ends the stream.
// end is the end of the audio data.
func findFirstFrame(sr *binary.SafeReader, start, end int64) (int64, frameHeader, error) {
	n := min(end-start, maxSyncScan)
	if n < 4 {
		return 0, frameHeader{}, fmt.Errorf("no MPEG audio frame after offset %d", start)
	}
	buf, err := sr.Bytes(start, n, "MPEG sync search")
	if err != nil {
		return 0, frameHeader{}, err
	}
	for i := 0; i+4 <= len(buf); i++ {
		if buf[i] != 0xFF {
			continue
		}
		h, ok := parseFrameHeader(buf[i : i+4])
		if !ok {
			continue
		}
		off := start + int64(i)
		next := off + int64(h.length())
		if next+4 > end {
			if next <= end {
				return off, h, nil
			}
			continue
		}
		nb, err := sr.Bytes(next, 4, "MPEG frame header")
		if err != nil {
			continue
		}
		if nh, ok := parseFrameHeader(nb); ok && h.compatible(nh) {
			return off, h, nil
		}
	}
	return 0, frameHeader{}, fmt.Errorf("no MPEG audio frame in %d bytes after offset %d", n, start)
}
