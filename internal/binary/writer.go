package binary

import (
	"bytes"
	"encoding/binary"
)

// Writer assembles binary layouts in memory.
//
// It produces the same structures the decoders read (boxes, ID3 frames,
// FLAC blocks) and is used to build fixtures.
type Writer struct {
	buf bytes.Buffer
}

// NewWriter creates an empty Writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Bytes returns the written bytes.
func (w *Writer) Bytes() []byte {
	return w.buf.Bytes()
}

// Len returns the number of bytes written.
func (w *Writer) Len() int {
	return w.buf.Len()
}

// Raw writes bytes as-is.
func (w *Writer) Raw(b []byte) *Writer {
	w.buf.Write(b)
	return w
}

// String writes s without a terminator.
func (w *Writer) String(s string) *Writer {
	w.buf.WriteString(s)
	return w
}

// Zero writes n zero bytes.
func (w *Writer) Zero(n int) *Writer {
	w.buf.Write(make([]byte, n))
	return w
}

// U8 writes one byte.
func (w *Writer) U8(v uint8) *Writer {
	w.buf.WriteByte(v)
	return w
}

// U16 writes a big-endian uint16.
func (w *Writer) U16(v uint16) *Writer {
	w.buf.Write(binary.BigEndian.AppendUint16(nil, v))
	return w
}

// U24 writes a big-endian 24-bit integer.
func (w *Writer) U24(v uint32) *Writer {
	w.buf.Write([]byte{byte(v >> 16), byte(v >> 8), byte(v)})
	return w
}

// U32 writes a big-endian uint32.
func (w *Writer) U32(v uint32) *Writer {
	w.buf.Write(binary.BigEndian.AppendUint32(nil, v))
	return w
}

// U64 writes a big-endian uint64.
func (w *Writer) U64(v uint64) *Writer {
	w.buf.Write(binary.BigEndian.AppendUint64(nil, v))
	return w
}

// U32LE writes a little-endian uint32.
func (w *Writer) U32LE(v uint32) *Writer {
	w.buf.Write(binary.LittleEndian.AppendUint32(nil, v))
	return w
}

// Synchsafe writes v as a 4-byte synchsafe integer.
func (w *Writer) Synchsafe(v uint32) *Writer {
	b := EncodeSynchsafe(v)
	w.buf.Write(b[:])
	return w
}

// Box writes an ISO-BMFF box with a 32-bit size header around body.
func (w *Writer) Box(typ string, body func(*Writer)) *Writer {
	inner := NewWriter()
	if body != nil {
		body(inner)
	}
	w.U32(uint32(8 + inner.Len()))
	w.String(typ)
	w.Raw(inner.Bytes())
	return w
}

// FullBox writes a box whose body starts with version and 24-bit flags.
func (w *Writer) FullBox(typ string, version uint8, flags uint32, body func(*Writer)) *Writer {
	return w.Box(typ, func(b *Writer) {
		b.U8(version).U24(flags)
		if body != nil {
			body(b)
		}
	})
}

// LargeBox writes a box using the 64-bit extended size form.
func (w *Writer) LargeBox(typ string, body func(*Writer)) *Writer {
	inner := NewWriter()
	if body != nil {
		body(inner)
	}
	w.U32(1)
	w.String(typ)
	w.U64(uint64(16 + inner.Len()))
	w.Raw(inner.Bytes())
	return w
}
