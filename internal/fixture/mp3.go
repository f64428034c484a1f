package fixture

import "github.com/simonhull/metaspector/internal/binary"

// ID3 text encodings.
const (
	Latin1  = 0
	UTF16   = 1
	UTF16BE = 2
	UTF8    = 3
)

// ID3Tag builds an ID3v2 tag of the given major version around frames.
func ID3Tag(major, flags byte, frames ...[]byte) []byte {
	body := binary.NewWriter()
	for _, f := range frames {
		body.Raw(f)
	}
	return binary.NewWriter().
		String("ID3").U8(major).U8(0).U8(flags).
		Synchsafe(uint32(body.Len())).
		Raw(body.Bytes()).
		Bytes()
}

// ID3Frame builds one frame with the header layout of the given version.
func ID3Frame(major byte, id string, payload []byte) []byte {
	w := binary.NewWriter().String(id)
	switch major {
	case 2:
		w.U24(uint32(len(payload)))
	case 3:
		w.U32(uint32(len(payload))).U16(0)
	default:
		w.Synchsafe(uint32(len(payload))).U16(0)
	}
	return w.Raw(payload).Bytes()
}

// TextFrame builds a text information frame.
func TextFrame(major byte, id string, encoding byte, text []byte) []byte {
	return ID3Frame(major, id, append([]byte{encoding}, text...))
}

// APIC builds an attached picture frame (v2.3/v2.4) with Latin-1 text.
func APIC(major byte, mime string, pictureType byte, desc string, data []byte) []byte {
	payload := binary.NewWriter().
		U8(Latin1).String(mime).U8(0).U8(pictureType).String(desc).U8(0).
		Raw(data).Bytes()
	return ID3Frame(major, "APIC", payload)
}

// PIC builds a v2.2 picture frame.
func PIC(format string, pictureType byte, desc string, data []byte) []byte {
	payload := binary.NewWriter().
		U8(Latin1).String(format).U8(pictureType).String(desc).U8(0).
		Raw(data).Bytes()
	return ID3Frame(2, "PIC", payload)
}

// TXXX builds a user-defined text frame with Latin-1 text.
func TXXX(major byte, desc, value string) []byte {
	payload := binary.NewWriter().U8(Latin1).String(desc).U8(0).String(value).Bytes()
	return ID3Frame(major, "TXXX", payload)
}

// COMM builds a comment frame with Latin-1 text.
func COMM(major byte, lang, desc, text string) []byte {
	id := "COMM"
	if major == 2 {
		id = "COM"
	}
	payload := binary.NewWriter().U8(Latin1).String(lang).String(desc).U8(0).String(text).Bytes()
	return ID3Frame(major, id, payload)
}

// MPEGFrames returns n MPEG-1 Layer III frames at 128 kbit/s, 44.1 kHz,
// joint stereo. Each frame is 417 bytes.
func MPEGFrames(n int) []byte {
	w := binary.NewWriter()
	for range n {
		w.Raw(mpegFrameHeader).Zero(417 - 4)
	}
	return w.Bytes()
}

var mpegFrameHeader = []byte{0xFF, 0xFB, 0x90, 0x64}

// XingFrame returns an MPEG-1 Layer III frame carrying a Xing VBR header
// that declares the given frame and byte counts.
func XingFrame(frames, bytes uint32) []byte {
	return binary.NewWriter().
		Raw(mpegFrameHeader).
		Zero(32). // side information, MPEG-1 stereo
		String("Xing").U32(0x3).U32(frames).U32(bytes).
		Zero(417 - 4 - 32 - 16).
		Bytes()
}
