// Package binary provides bounds-checked binary reading primitives.
//
// SafeReader guards random access to an io.ReaderAt; Cursor layers a
// sequential, window-limited reader on top of it. Every read is
// all-or-nothing: a short source yields an error wrapping
// types.ErrTruncatedInput, never partial data.
package binary

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/simonhull/metaspector/internal/types"
)

// SafeReader wraps io.ReaderAt with bounds checking and helpful error messages.
type SafeReader struct {
	r    io.ReaderAt
	path string
	size int64
}

// NewSafeReader creates a new SafeReader.
func NewSafeReader(r io.ReaderAt, size int64, path string) *SafeReader {
	return &SafeReader{
		r:    r,
		size: size,
		path: path,
	}
}

// Path returns the file path associated with this reader.
func (sr *SafeReader) Path() string {
	return sr.path
}

// Size returns the total number of bytes in the source.
func (sr *SafeReader) Size() int64 {
	return sr.size
}

// ReadAt fills b from offset off, naming the field for error messages.
func (sr *SafeReader) ReadAt(b []byte, off int64, what string) error {
	if off < 0 || off > sr.size || off+int64(len(b)) > sr.size {
		return &types.OutOfBoundsError{
			Path:   sr.path,
			What:   what,
			Offset: off,
			Length: int64(len(b)),
			Size:   sr.size,
		}
	}
	if len(b) == 0 {
		return nil
	}

	n, err := sr.r.ReadAt(b, off)
	if n == len(b) {
		return nil
	}
	if err != nil && err != io.EOF {
		return fmt.Errorf("%s: failed to read %s at offset %d: %w", sr.path, what, off, err)
	}
	// The source is shorter than its declared size.
	return &types.OutOfBoundsError{
		Path:   sr.path,
		What:   what,
		Offset: off,
		Length: int64(len(b)),
		Size:   off + int64(n),
	}
}

// Bytes reads n bytes at offset off.
//
// The bounds are checked before allocating, so a corrupt length field
// cannot trigger an oversized allocation.
func (sr *SafeReader) Bytes(off, n int64, what string) ([]byte, error) {
	if n < 0 || off < 0 || off > sr.size || n > sr.size-off {
		return nil, &types.OutOfBoundsError{
			Path:   sr.path,
			What:   what,
			Offset: off,
			Length: n,
			Size:   sr.size,
		}
	}
	buf := make([]byte, n)
	if err := sr.ReadAt(buf, off, what); err != nil {
		return nil, err
	}
	return buf, nil
}

// Read reads a big-endian value of type T from the given offset.
// T must be uint8, uint16, uint32, or uint64.
func Read[T uint8 | uint16 | uint32 | uint64](sr *SafeReader, off int64, what string) (T, error) {
	return ReadEndian[T](sr, off, what, BigEndian)
}

// sizeOf returns the encoded width of T in bytes.
func sizeOf[T uint8 | uint16 | uint32 | uint64]() int {
	var zero T
	switch any(zero).(type) {
	case uint8:
		return 1
	case uint16:
		return 2
	case uint32:
		return 4
	default:
		return 8
	}
}

// decode converts buf to T using the given byte order.
func decode[T uint8 | uint16 | uint32 | uint64](buf []byte, endian Endianness) T {
	var order binary.ByteOrder = binary.BigEndian
	if endian == LittleEndian {
		order = binary.LittleEndian
	}
	var zero T
	switch any(zero).(type) {
	case uint8:
		return T(buf[0])
	case uint16:
		return T(order.Uint16(buf))
	case uint32:
		return T(order.Uint32(buf))
	default:
		return T(order.Uint64(buf))
	}
}
