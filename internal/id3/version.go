package id3

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"

	"github.com/simonhull/metaspector/internal/binary"
)

// version is the frame layout of one ID3v2 major version. It is chosen
// once per tag from the header.
type version interface {
	// headerLen is the size of a frame header.
	headerLen() int
	// frameHeader decodes a frame header of headerLen bytes.
	frameHeader(h []byte) (id string, size uint32, flags uint16)
	// unpack undoes the frame-level transformations flagged in flags.
	unpack(payload []byte, flags uint16) ([]byte, error)
}

func versionFor(major byte, tagFlags byte) (version, bool) {
	switch major {
	case 2:
		return v22{}, true
	case 3:
		return v23{}, true
	case 4:
		return v24{unsync: tagFlags&flagUnsync != 0}, true
	}
	return nil, false
}

// maxInflated bounds a decompressed frame.
const maxInflated = 16 << 20

// v22 has three-character ids, 24-bit sizes and no frame flags.
type v22 struct{}

func (v22) headerLen() int { return 6 }

func (v22) frameHeader(h []byte) (string, uint32, uint16) {
	id := string(h[:3])
	if upgraded, ok := v22IDs[id]; ok {
		id = upgraded
	}
	return id, binary.Uint24(h[3:6]), 0
}

func (v22) unpack(payload []byte, _ uint16) ([]byte, error) { return payload, nil }

// v2.3 frame flags.
const (
	v23Compressed = 0x0080
	v23Encrypted  = 0x0040
	v23Grouped    = 0x0020
)

// v23 has four-character ids and plain 32-bit sizes.
type v23 struct{}

func (v23) headerLen() int { return 10 }

func (v23) frameHeader(h []byte) (string, uint32, uint16) {
	size := uint32(h[4])<<24 | uint32(h[5])<<16 | uint32(h[6])<<8 | uint32(h[7])
	return string(h[:4]), size, uint16(h[8])<<8 | uint16(h[9])
}

func (v23) unpack(payload []byte, flags uint16) ([]byte, error) {
	if flags&v23Encrypted != 0 {
		return nil, fmt.Errorf("encrypted frame")
	}
	compressed := flags&v23Compressed != 0
	if compressed {
		// decompressed size
		if len(payload) < 4 {
			return nil, fmt.Errorf("compressed frame of %d bytes", len(payload))
		}
		payload = payload[4:]
	}
	if flags&v23Grouped != 0 {
		if len(payload) < 1 {
			return nil, fmt.Errorf("grouped frame without group id")
		}
		payload = payload[1:]
	}
	if compressed {
		return inflate(payload)
	}
	return payload, nil
}

// v2.4 frame flags.
const (
	v24Grouped      = 0x0040
	v24Compressed   = 0x0008
	v24Encrypted    = 0x0004
	v24Unsync       = 0x0002
	v24DataLenIndic = 0x0001
)

// v24 has four-character ids and synchsafe sizes. Unsynchronisation is
// applied per frame, since frame sizes count the stored bytes.
type v24 struct {
	unsync bool
}

func (v24) headerLen() int { return 10 }

func (v24) frameHeader(h []byte) (string, uint32, uint16) {
	var size uint32
	if binary.IsSynchsafe(h[4:8]) {
		size = binary.DecodeSynchsafe(h[4:8])
	} else {
		// Some writers store plain 32-bit sizes in 2.4 tags.
		size = uint32(h[4])<<24 | uint32(h[5])<<16 | uint32(h[6])<<8 | uint32(h[7])
	}
	return string(h[:4]), size, uint16(h[8])<<8 | uint16(h[9])
}

func (v v24) unpack(payload []byte, flags uint16) ([]byte, error) {
	if flags&v24Encrypted != 0 {
		return nil, fmt.Errorf("encrypted frame")
	}
	if flags&v24Grouped != 0 {
		if len(payload) < 1 {
			return nil, fmt.Errorf("grouped frame without group id")
		}
		payload = payload[1:]
	}
	if flags&v24DataLenIndic != 0 {
		if len(payload) < 4 {
			return nil, fmt.Errorf("data length indicator cut short")
		}
		payload = payload[4:]
	}
	if v.unsync || flags&v24Unsync != 0 {
		payload = Deunsync(payload)
	}
	if flags&v24Compressed != 0 {
		return inflate(payload)
	}
	return payload, nil
}

func inflate(b []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("compressed frame: %w", err)
	}
	defer zr.Close()
	out, err := io.ReadAll(io.LimitReader(zr, maxInflated+1))
	if err != nil {
		return nil, fmt.Errorf("compressed frame: %w", err)
	}
	if len(out) > maxInflated {
		return nil, fmt.Errorf("compressed frame inflates past %d bytes", maxInflated)
	}
	return out, nil
}

// Deunsync removes the 0x00 stuffed after every 0xFF by the
// unsynchronisation scheme.
func Deunsync(b []byte) []byte {
	if bytes.IndexByte(b, 0xFF) < 0 {
		return b
	}
	out := make([]byte, 0, len(b))
	for i := 0; i < len(b); i++ {
		out = append(out, b[i])
		if b[i] == 0xFF && i+1 < len(b) && b[i+1] == 0x00 {
			i++
		}
	}
	return out
}

// v22IDs maps ID3v2.2 frame ids to their later equivalents, so one key
// table serves every version.
var v22IDs = map[string]string{
	"TT1": "TIT1", "TT2": "TIT2", "TT3": "TIT3",
	"TP1": "TPE1", "TP2": "TPE2", "TP3": "TPE3", "TP4": "TPE4",
	"TAL": "TALB", "TCM": "TCOM", "TCO": "TCON", "TXT": "TEXT",
	"TYE": "TYER", "TDA": "TDAT", "TOR": "TORY",
	"TRK": "TRCK", "TPA": "TPOS",
	"TEN": "TENC", "TSS": "TSSE", "TCR": "TCOP", "TPB": "TPUB",
	"TBP": "TBPM", "TRC": "TSRC", "TLE": "TLEN", "TLA": "TLAN",
	"TKE": "TKEY", "TMT": "TMED", "TCP": "TCMP",
	"TST": "TSOT", "TSP": "TSOP", "TSA": "TSOA", "TS2": "TSO2", "TSC": "TSOC",
	"TXX": "TXXX", "COM": "COMM", "ULT": "USLT", "UFI": "UFID",
	"WXX": "WXXX", "WAR": "WOAR", "WAS": "WOAS", "WAF": "WOAF",
}
