package mp4

import (
	"fmt"

	"github.com/simonhull/metaspector/internal/binary"
	"github.com/simonhull/metaspector/internal/types"
)

// samples summarizes a track's sample size table.
type samples struct {
	count uint64
	bytes uint64
	first uint32 // size of the first sample, 0 if unknown
}

// sizeChunk bounds how much of a sample size table is read at once.
const sizeChunk = 64 * 1024

// readSampleSizes sums the sample size table (stsz, or the compact stz2).
func (m *movie) readSampleSizes(stbl int) (samples, error) {
	if idx := m.tree.Find(stbl, "stsz"); idx >= 0 {
		return m.readStsz(idx)
	}
	if idx := m.tree.Find(stbl, "stz2"); idx >= 0 {
		return m.readStz2(idx)
	}
	return samples{}, nil
}

func (m *movie) readStsz(idx int) (samples, error) {
	var s samples
	c, err := m.tree.Payload(m.sr, idx)
	if err != nil {
		return s, err
	}
	ch := binary.NewChain(c)
	ch.Skip(4)
	size := ch.U32("stsz sample size")
	count := ch.U32("stsz sample count")
	if err := ch.Err(); err != nil {
		return s, err
	}

	s.count = uint64(count)
	if size != 0 {
		s.bytes = uint64(size) * uint64(count)
		s.first = size
		return s, nil
	}

	want := int64(count) * 4
	var short error
	if want > c.Remaining() {
		short = types.NewDecodeError(types.KindTruncatedInput, m.tree.Nodes[idx].Offset,
			"stsz lists %d samples but holds %d", count, c.Remaining()/4)
		want = c.Remaining() / 4 * 4
	}
	first := true
	for want > 0 {
		n := min(want, sizeChunk)
		b, err := c.Bytes(n, "stsz entries")
		if err != nil {
			return s, err
		}
		for i := 0; i+4 <= len(b); i += 4 {
			v := uint32(b[i])<<24 | uint32(b[i+1])<<16 | uint32(b[i+2])<<8 | uint32(b[i+3])
			if first {
				s.first, first = v, false
			}
			s.bytes += uint64(v)
		}
		want -= n
	}
	return s, short
}

func (m *movie) readStz2(idx int) (samples, error) {
	var s samples
	c, err := m.tree.Payload(m.sr, idx)
	if err != nil {
		return s, err
	}
	ch := binary.NewChain(c)
	ch.Skip(7) // version, flags, reserved
	field := ch.U8("stz2 field size")
	count := ch.U32("stz2 sample count")
	if err := ch.Err(); err != nil {
		return s, err
	}
	switch field {
	case 4, 8, 16:
	default:
		return s, types.NewDecodeError(types.KindMalformedContainer, m.tree.Nodes[idx].Offset,
			"stz2 field size %d", field)
	}

	s.count = uint64(count)
	need := (int64(count)*int64(field) + 7) / 8
	if need > c.Remaining() {
		return s, types.NewDecodeError(types.KindTruncatedInput, m.tree.Nodes[idx].Offset,
			"stz2 needs %d bytes, has %d", need, c.Remaining())
	}
	b, err := c.Bytes(need, "stz2 entries")
	if err != nil {
		return s, err
	}
	for i := uint64(0); i < s.count; i++ {
		var v uint32
		switch field {
		case 4:
			v = uint32(b[i/2])
			if i%2 == 0 {
				v >>= 4
			}
			v &= 0x0F
		case 8:
			v = uint32(b[i])
		case 16:
			v = uint32(b[2*i])<<8 | uint32(b[2*i+1])
		}
		if i == 0 {
			s.first = v
		}
		s.bytes += uint64(v)
	}
	return s, nil
}

// firstChunkOffset returns the file offset of the first chunk (stco or co64).
func (m *movie) firstChunkOffset(stbl int) (int64, error) {
	if idx := m.tree.Find(stbl, "stco"); idx >= 0 {
		c, err := m.tree.Payload(m.sr, idx)
		if err != nil {
			return 0, err
		}
		ch := binary.NewChain(c)
		ch.Skip(4)
		count := ch.U32("stco entry count")
		first := ch.U32("stco first offset")
		if err := ch.Err(); err != nil {
			return 0, err
		}
		if count == 0 {
			return 0, fmt.Errorf("stco has no entries")
		}
		return int64(first), nil
	}
	if idx := m.tree.Find(stbl, "co64"); idx >= 0 {
		c, err := m.tree.Payload(m.sr, idx)
		if err != nil {
			return 0, err
		}
		ch := binary.NewChain(c)
		ch.Skip(4)
		count := ch.U32("co64 entry count")
		first := ch.U64("co64 first offset")
		if err := ch.Err(); err != nil {
			return 0, err
		}
		if count == 0 {
			return 0, fmt.Errorf("co64 has no entries")
		}
		return int64(first), nil
	}
	return 0, fmt.Errorf("no chunk offset table")
}
