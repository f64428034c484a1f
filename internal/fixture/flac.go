package fixture

import (
	"bytes"

	"github.com/icza/bitio"

	"github.com/simonhull/metaspector/internal/binary"
)

// FLAC metadata block types.
const (
	BlockStreamInfo    = 0
	BlockPadding       = 1
	BlockApplication   = 2
	BlockSeekTable     = 3
	BlockVorbisComment = 4
	BlockCueSheet      = 5
	BlockPicture       = 6
)

// FLACBlock is one metadata block of a FLAC stream.
type FLACBlock struct {
	Type    byte
	Payload []byte
}

// FLAC builds a stream: the marker, the blocks (the last one flagged),
// then audio bytes standing in for frames.
func FLAC(audio []byte, blocks ...FLACBlock) []byte {
	w := binary.NewWriter().String("fLaC")
	for i, b := range blocks {
		header := b.Type & 0x7F
		if i == len(blocks)-1 {
			header |= 0x80
		}
		w.U8(header).U24(uint32(len(b.Payload))).Raw(b.Payload)
	}
	return w.Raw(audio).Bytes()
}

// StreamInfo builds a STREAMINFO block.
func StreamInfo(sampleRate, channels, bits int, totalSamples uint64) FLACBlock {
	var buf bytes.Buffer
	bw := bitio.NewWriter(&buf)
	bw.TryWriteBits(4096, 16) // min block size
	bw.TryWriteBits(4096, 16) // max block size
	bw.TryWriteBits(0, 24)    // min frame size
	bw.TryWriteBits(0, 24)    // max frame size
	bw.TryWriteBits(uint64(sampleRate), 20)
	bw.TryWriteBits(uint64(channels-1), 3)
	bw.TryWriteBits(uint64(bits-1), 5)
	bw.TryWriteBits(totalSamples, 36)
	if bw.TryError != nil {
		panic(bw.TryError)
	}
	if err := bw.Close(); err != nil {
		panic(err)
	}
	buf.Write(make([]byte, 16)) // MD5
	return FLACBlock{Type: BlockStreamInfo, Payload: buf.Bytes()}
}

// VorbisComment builds a VORBIS_COMMENT block from KEY=VALUE strings.
func VorbisComment(vendor string, comments ...string) FLACBlock {
	w := binary.NewWriter().U32LE(uint32(len(vendor))).String(vendor)
	w.U32LE(uint32(len(comments)))
	for _, c := range comments {
		w.U32LE(uint32(len(c))).String(c)
	}
	return FLACBlock{Type: BlockVorbisComment, Payload: w.Bytes()}
}

// PictureBody builds the body shared by the PICTURE block and the
// METADATA_BLOCK_PICTURE comment.
func PictureBody(pictureType uint32, mime, desc string, width, height int, data []byte) []byte {
	return binary.NewWriter().
		U32(pictureType).
		U32(uint32(len(mime))).String(mime).
		U32(uint32(len(desc))).String(desc).
		U32(uint32(width)).U32(uint32(height)).U32(24).U32(0).
		U32(uint32(len(data))).Raw(data).
		Bytes()
}

// Picture builds a PICTURE block.
func Picture(pictureType uint32, mime, desc string, width, height int, data []byte) FLACBlock {
	return FLACBlock{Type: BlockPicture, Payload: PictureBody(pictureType, mime, desc, width, height, data)}
}

// Padding builds a PADDING block of n zero bytes.
func Padding(n int) FLACBlock {
	return FLACBlock{Type: BlockPadding, Payload: make([]byte, n)}
}
