package binary

// Chain reads fixed layouts from a Cursor with deferred error checking.
//
// After the first failure every read returns the zero value and the error
// is reported once by Err. This keeps long fixed-field headers (mvhd, tkhd,
// STREAMINFO neighbours) free of repetitive "if err != nil" checks.
type Chain struct {
	c   *Cursor
	err error
}

// NewChain creates a Chain over c.
func NewChain(c *Cursor) *Chain {
	return &Chain{c: c}
}

func chained[T any](ch *Chain, read func() (T, error)) T {
	var zero T
	if ch.err != nil {
		return zero
	}
	v, err := read()
	if err != nil {
		ch.err = err
		return zero
	}
	return v
}

// U8 reads one byte.
func (ch *Chain) U8(what string) uint8 {
	return chained(ch, func() (uint8, error) { return ch.c.U8(what) })
}

// U16 reads a big-endian uint16.
func (ch *Chain) U16(what string) uint16 {
	return chained(ch, func() (uint16, error) { return ch.c.U16(what) })
}

// U24 reads a big-endian 24-bit integer.
func (ch *Chain) U24(what string) uint32 {
	return chained(ch, func() (uint32, error) { return ch.c.U24(what) })
}

// U32 reads a big-endian uint32.
func (ch *Chain) U32(what string) uint32 {
	return chained(ch, func() (uint32, error) { return ch.c.U32(what) })
}

// U64 reads a big-endian uint64.
func (ch *Chain) U64(what string) uint64 {
	return chained(ch, func() (uint64, error) { return ch.c.U64(what) })
}

// Bytes reads n bytes.
func (ch *Chain) Bytes(n int64, what string) []byte {
	return chained(ch, func() ([]byte, error) { return ch.c.Bytes(n, what) })
}

// String reads n bytes as a string.
func (ch *Chain) String(n int64, what string) string {
	return chained(ch, func() (string, error) { return ch.c.String(n, what) })
}

// Skip advances by n bytes.
func (ch *Chain) Skip(n int64) {
	if ch.err == nil {
		ch.err = ch.c.Skip(n)
	}
}

// Err returns the first error, if any.
func (ch *Chain) Err() error {
	return ch.err
}
