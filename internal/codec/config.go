package codec

import "encoding/binary"

// Box is one configuration box found after a sample entry's fixed header.
type Box struct {
	Type    string
	Payload []byte
}

// Boxes is the ordered list of configuration boxes of a sample entry.
type Boxes []Box

// ParseConfig splits b into child boxes.
//
// Iteration stops at the first header that is short, undersized, or runs
// past the end of b; boxes before it are kept.
func ParseConfig(b []byte) Boxes {
	var out Boxes
	for len(b) >= 8 {
		size := uint64(binary.BigEndian.Uint32(b[0:4]))
		typ := string(b[4:8])
		hdr := uint64(8)
		switch size {
		case 0:
			size = uint64(len(b))
		case 1:
			if len(b) < 16 {
				return out
			}
			size = binary.BigEndian.Uint64(b[8:16])
			hdr = 16
		}
		if size < hdr || size > uint64(len(b)) {
			return out
		}
		out = append(out, Box{Type: typ, Payload: b[hdr:size]})
		b = b[size:]
	}
	return out
}

// Find returns the payload of the first box of the given type.
func (bs Boxes) Find(typ string) ([]byte, bool) {
	for _, b := range bs {
		if b.Type == typ {
			return b.Payload, true
		}
	}
	return nil, false
}

// Has reports whether a box of the given type is present.
func (bs Boxes) Has(typ string) bool {
	_, ok := bs.Find(typ)
	return ok
}
