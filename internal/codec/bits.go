package codec

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/icza/bitio"
)

// ErrInvalidConfig is returned when a configuration record is too short or
// carries a value outside its defined range.
var ErrInvalidConfig = errors.New("invalid codec configuration")

// bitReader counts consumed bits on top of bitio so callers can test for
// optional trailing fields.
type bitReader struct {
	r     *bitio.Reader
	total int
	used  int
}

func newBitReader(b []byte) *bitReader {
	return &bitReader{r: bitio.NewReader(bytes.NewReader(b)), total: len(b) * 8}
}

func (br *bitReader) bits(n uint8) uint64 {
	br.used += int(n)
	return br.r.TryReadBits(n)
}

func (br *bitReader) flag() bool {
	return br.bits(1) == 1
}

func (br *bitReader) skip(n uint8) {
	br.bits(n)
}

func (br *bitReader) remaining() int {
	return br.total - br.used
}

func (br *bitReader) err(record string) error {
	if br.r.TryError != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, record, br.r.TryError)
	}
	return nil
}
