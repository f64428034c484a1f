package binary

import (
	"fmt"

	"github.com/simonhull/metaspector/internal/types"
)

// Cursor reads sequentially through a window [start, end) of a SafeReader.
//
// Positions are absolute offsets in the underlying source. A read that
// needs more bytes than remain in the window fails with an error matching
// types.ErrTruncatedInput; a Seek or Skip that leaves the window fails with
// one matching types.ErrOutOfBounds.
type Cursor struct {
	sr    *SafeReader
	start int64
	end   int64
	pos   int64
}

// NewCursor creates a Cursor over the whole source.
func NewCursor(sr *SafeReader) *Cursor {
	return &Cursor{sr: sr, end: sr.size}
}

// Range creates a Cursor over [start, end) of the source.
func (sr *SafeReader) Range(start, end int64) (*Cursor, error) {
	if start < 0 || end < start || end > sr.size {
		return nil, &types.DecodeError{
			Kind:   types.KindOutOfBounds,
			Path:   sr.path,
			Offset: start,
			Reason: fmt.Sprintf("window [%d, %d) outside source of size %d", start, end, sr.size),
		}
	}
	return &Cursor{sr: sr, start: start, end: end, pos: start}, nil
}

// Reader returns the underlying SafeReader.
func (c *Cursor) Reader() *SafeReader { return c.sr }

// Position returns the current absolute offset.
func (c *Cursor) Position() int64 { return c.pos }

// Start returns the absolute offset of the window start.
func (c *Cursor) Start() int64 { return c.start }

// End returns the absolute offset one past the window.
func (c *Cursor) End() int64 { return c.end }

// Len returns the window length.
func (c *Cursor) Len() int64 { return c.end - c.start }

// Remaining returns the bytes left between the position and the window end.
func (c *Cursor) Remaining() int64 { return c.end - c.pos }

// Seek moves to an absolute offset within [start, end].
func (c *Cursor) Seek(off int64) error {
	if off < c.start || off > c.end {
		return &types.DecodeError{
			Kind:   types.KindOutOfBounds,
			Path:   c.sr.path,
			Offset: off,
			Reason: fmt.Sprintf("seek outside [%d, %d]", c.start, c.end),
		}
	}
	c.pos = off
	return nil
}

// Skip advances by n bytes.
func (c *Cursor) Skip(n int64) error {
	if n < 0 || n > c.Remaining() {
		return &types.DecodeError{
			Kind:   types.KindOutOfBounds,
			Path:   c.sr.path,
			Offset: c.pos,
			Reason: fmt.Sprintf("skip of %d bytes with %d remaining", n, c.Remaining()),
		}
	}
	c.pos += n
	return nil
}

// need checks that n bytes remain in the window.
func (c *Cursor) need(n int64, what string) error {
	if n < 0 || n > c.Remaining() {
		return &types.OutOfBoundsError{
			Path:   c.sr.path,
			What:   what,
			Offset: c.pos,
			Length: n,
			Size:   c.end,
		}
	}
	return nil
}

// Bytes reads n bytes and advances.
func (c *Cursor) Bytes(n int64, what string) ([]byte, error) {
	if err := c.need(n, what); err != nil {
		return nil, err
	}
	b, err := c.sr.Bytes(c.pos, n, what)
	if err != nil {
		return nil, err
	}
	c.pos += n
	return b, nil
}

// Peek reads n bytes without advancing.
func (c *Cursor) Peek(n int64, what string) ([]byte, error) {
	if err := c.need(n, what); err != nil {
		return nil, err
	}
	return c.sr.Bytes(c.pos, n, what)
}

// Rest reads everything up to the window end.
func (c *Cursor) Rest(what string) ([]byte, error) {
	return c.Bytes(c.Remaining(), what)
}

// String reads n bytes as a string.
func (c *Cursor) String(n int64, what string) (string, error) {
	b, err := c.Bytes(n, what)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// FourCC reads a 4-byte code.
func (c *Cursor) FourCC(what string) (string, error) {
	return c.String(4, what)
}

// Window returns a Cursor over the next n bytes and advances past them.
func (c *Cursor) Window(n int64, what string) (*Cursor, error) {
	if err := c.need(n, what); err != nil {
		return nil, err
	}
	sub := &Cursor{sr: c.sr, start: c.pos, end: c.pos + n, pos: c.pos}
	c.pos += n
	return sub, nil
}

// readValue reads a value of type T in the given byte order and advances.
func readValue[T uint8 | uint16 | uint32 | uint64](c *Cursor, what string, endian Endianness) (T, error) {
	n := int64(sizeOf[T]())
	if err := c.need(n, what); err != nil {
		var zero T
		return zero, err
	}
	v, err := ReadEndian[T](c.sr, c.pos, what, endian)
	if err != nil {
		return v, err
	}
	c.pos += n
	return v, nil
}

// U8 reads one byte.
func (c *Cursor) U8(what string) (uint8, error) { return readValue[uint8](c, what, BigEndian) }

// U16 reads a big-endian uint16.
func (c *Cursor) U16(what string) (uint16, error) { return readValue[uint16](c, what, BigEndian) }

// U32 reads a big-endian uint32.
func (c *Cursor) U32(what string) (uint32, error) { return readValue[uint32](c, what, BigEndian) }

// U64 reads a big-endian uint64.
func (c *Cursor) U64(what string) (uint64, error) { return readValue[uint64](c, what, BigEndian) }

// U16LE reads a little-endian uint16.
func (c *Cursor) U16LE(what string) (uint16, error) { return readValue[uint16](c, what, LittleEndian) }

// U32LE reads a little-endian uint32.
func (c *Cursor) U32LE(what string) (uint32, error) { return readValue[uint32](c, what, LittleEndian) }

// U64LE reads a little-endian uint64.
func (c *Cursor) U64LE(what string) (uint64, error) { return readValue[uint64](c, what, LittleEndian) }

// U24 reads a big-endian 24-bit integer.
func (c *Cursor) U24(what string) (uint32, error) {
	b, err := c.Bytes(3, what)
	if err != nil {
		return 0, err
	}
	return Uint24(b), nil
}
