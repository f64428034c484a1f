package binary

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/simonhull/metaspector/internal/types"
)

// mockReader implements io.ReaderAt for testing.
type mockReader struct {
	data []byte
}

func (m *mockReader) ReadAt(p []byte, off int64) (n int, err error) {
	if off >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n = copy(p, m.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func newTestReader(data []byte) *SafeReader {
	return NewSafeReader(&mockReader{data: data}, int64(len(data)), "test.mp4")
}

func TestSafeReader_ReadAt_Success(t *testing.T) {
	sr := newTestReader([]byte{0x01, 0x02, 0x03, 0x04})

	buf := make([]byte, 2)
	if err := sr.ReadAt(buf, 0, "test read"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buf[0] != 0x01 || buf[1] != 0x02 {
		t.Errorf("expected [0x01, 0x02], got [0x%02x, 0x%02x]", buf[0], buf[1])
	}
}

func TestSafeReader_ReadAt_OutOfBounds(t *testing.T) {
	sr := newTestReader([]byte{0x01, 0x02, 0x03, 0x04})

	err := sr.ReadAt(make([]byte, 2), 10, "out of bounds read")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !errors.Is(err, types.ErrOutOfBounds) {
		t.Errorf("expected ErrOutOfBounds, got %v", err)
	}

	errMsg := err.Error()
	if !strings.Contains(errMsg, "test.mp4") {
		t.Errorf("error should contain filename: %v", errMsg)
	}
	if !strings.Contains(errMsg, "out of bounds read") {
		t.Errorf("error should contain context: %v", errMsg)
	}
}

func TestSafeReader_ReadAt_Truncated(t *testing.T) {
	sr := newTestReader([]byte{0x01, 0x02, 0x03, 0x04})

	err := sr.ReadAt(make([]byte, 4), 2, "tail")
	if !errors.Is(err, types.ErrTruncatedInput) {
		t.Errorf("expected ErrTruncatedInput, got %v", err)
	}
}

func TestSafeReader_ShortSource(t *testing.T) {
	// Declared size is larger than what the source can deliver.
	sr := NewSafeReader(&mockReader{data: []byte{1, 2}}, 8, "short")

	err := sr.ReadAt(make([]byte, 4), 0, "header")
	if !errors.Is(err, types.ErrTruncatedInput) {
		t.Errorf("expected ErrTruncatedInput, got %v", err)
	}
}

func TestSafeReader_Bytes_NoOversizedAllocation(t *testing.T) {
	sr := newTestReader([]byte{1, 2, 3})

	if _, err := sr.Bytes(0, 1<<40, "huge"); !errors.Is(err, types.ErrTruncatedInput) {
		t.Errorf("expected ErrTruncatedInput, got %v", err)
	}
	if _, err := sr.Bytes(0, -1, "negative"); err == nil {
		t.Error("expected error for negative length")
	}
}

func TestRead_Values(t *testing.T) {
	sr := newTestReader([]byte{0x12, 0x34, 0x56, 0x78, 0x9A, 0xBC, 0xDE, 0xF0})

	if v, err := Read[uint8](sr, 0, "u8"); err != nil || v != 0x12 {
		t.Errorf("Read[uint8] = 0x%x, %v", v, err)
	}
	if v, err := Read[uint16](sr, 0, "u16"); err != nil || v != 0x1234 {
		t.Errorf("Read[uint16] = 0x%x, %v", v, err)
	}
	if v, err := Read[uint32](sr, 0, "u32"); err != nil || v != 0x12345678 {
		t.Errorf("Read[uint32] = 0x%x, %v", v, err)
	}
	if v, err := Read[uint64](sr, 0, "u64"); err != nil || v != 0x123456789ABCDEF0 {
		t.Errorf("Read[uint64] = 0x%x, %v", v, err)
	}
	if v, err := ReadLE[uint32](sr, 0, "u32le"); err != nil || v != 0x78563412 {
		t.Errorf("ReadLE[uint32] = 0x%x, %v", v, err)
	}
	if v, err := ReadBE[uint16](sr, 6, "u16be"); err != nil || v != 0xDEF0 {
		t.Errorf("ReadBE[uint16] = 0x%x, %v", v, err)
	}
}

func TestRead_BytesReaderSource(t *testing.T) {
	data := []byte("fLaC")
	sr := NewSafeReader(bytes.NewReader(data), int64(len(data)), "x.flac")

	b, err := sr.Bytes(0, 4, "magic")
	if err != nil || string(b) != "fLaC" {
		t.Errorf("Bytes() = %q, %v", b, err)
	}
}
