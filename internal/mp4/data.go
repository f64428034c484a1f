package mp4

import (
	"strconv"
	"strings"

	"golang.org/x/text/encoding/unicode"

	"github.com/simonhull/metaspector/internal/types"
)

// Well-known data types of an ilst 'data' atom.
const (
	dataImplicit = 0
	dataUTF8     = 1
	dataUTF16    = 2
	dataJPEG     = 13
	dataPNG      = 14
	dataSigned   = 21
	dataUnsigned = 22
	dataBMP      = 27
	dataInt8     = 65
	dataInt16    = 66
	dataInt32    = 67
	dataInt64    = 74
	dataUint8    = 75
	dataUint16   = 76
	dataUint32   = 77
	dataUint64   = 78
)

// maxTagSize bounds a single non-picture tag value.
const maxTagSize = 1 << 20

// dataValue is the content of one 'data' atom.
type dataValue struct {
	kind   uint32
	offset int64
	value  []byte
}

// itemData reads the 'data' children of an ilst item.
func (m *movie) itemData(item int) []dataValue {
	return m.itemDataLimit(item, maxTagSize)
}

// itemDataLimit is itemData with a caller-chosen bound on each value; a
// limit of 0 or less reads values of any size.
func (m *movie) itemDataLimit(item int, limit int64) []dataValue {
	if limit > 0 {
		limit += 8 // type and locale words
	}
	var out []dataValue
	for _, idx := range m.tree.FindAll(item, "data") {
		n := m.tree.Nodes[idx]
		if m.clipped(idx) {
			m.out.Warn("metadata", n.Offset, types.KindTruncatedInput, "%s value cut short, skipped", displayKey(m.tree.Nodes[item].Type))
			continue
		}
		if n.PayloadLength < 8 {
			m.out.Warn("metadata", n.Offset, types.KindMalformedBlock, "data atom of %d bytes", n.PayloadLength)
			continue
		}
		b, err := m.tree.PayloadBytes(m.sr, idx, limit)
		if err != nil {
			m.out.WarnErr("metadata", err)
			continue
		}
		out = append(out, dataValue{
			kind:   uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3]),
			offset: n.Offset,
			value:  b[8:],
		})
	}
	return out
}

// clipped reports whether the box at idx, or the ilst item holding it,
// overran its container. Such a payload is a prefix of the real value.
func (m *movie) clipped(idx int) bool {
	n := &m.tree.Nodes[idx]
	if n.Truncated {
		return true
	}
	return n.Parent >= 0 && m.tree.Nodes[n.Parent].Truncated
}

// text decodes the value as a string.
func (d dataValue) text() string {
	var s string
	switch d.kind {
	case dataUTF16:
		dec := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewDecoder()
		b, err := dec.Bytes(d.value)
		if err != nil {
			return ""
		}
		s = string(b)
	case dataImplicit, dataUTF8:
		s = string(d.value)
	default:
		if n, ok := d.integer(); ok {
			return strconv.FormatInt(n, 10)
		}
		return ""
	}
	return strings.TrimSpace(strings.TrimRight(s, "\x00"))
}

// integer decodes the value as a big-endian integer. Text values that
// hold a number are accepted too.
func (d dataValue) integer() (int64, bool) {
	if d.kind == dataUTF8 {
		n, err := strconv.ParseInt(strings.TrimSpace(string(d.value)), 10, 64)
		return n, err == nil
	}

	switch len(d.value) {
	case 1, 2, 3, 4, 8:
	default:
		return 0, false
	}
	var u uint64
	for _, c := range d.value {
		u = u<<8 | uint64(c)
	}

	signed := false
	switch d.kind {
	case dataSigned, dataInt8, dataInt16, dataInt32, dataInt64:
		signed = true
	case dataImplicit, dataUnsigned, dataUint8, dataUint16, dataUint32, dataUint64:
	default:
		return 0, false
	}
	if signed {
		shift := 64 - 8*uint(len(d.value))
		return int64(u<<shift) >> shift, true
	}
	return int64(u), true
}

// pair decodes the number/total layout of trkn and disk: two reserved
// bytes, then two 16-bit values.
func (d dataValue) pair() (n, total int, ok bool) {
	if len(d.value) < 4 {
		return 0, 0, false
	}
	n = int(d.value[2])<<8 | int(d.value[3])
	if len(d.value) >= 6 {
		total = int(d.value[4])<<8 | int(d.value[5])
	}
	return n, total, true
}

// imageMIME maps picture data types to MIME types.
func (d dataValue) imageMIME() string {
	switch d.kind {
	case dataJPEG:
		return "image/jpeg"
	case dataPNG:
		return "image/png"
	case dataBMP:
		return "image/bmp"
	}
	return ""
}
