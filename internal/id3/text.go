package id3

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// Text encodings of the leading byte of text-bearing frames.
const (
	encLatin1  = 0
	encUTF16   = 1 // with byte order mark
	encUTF16BE = 2
	encUTF8    = 3
)

func decoderFor(enc byte) *encoding.Decoder {
	switch enc {
	case encUTF16:
		// A missing BOM is read as big-endian.
		return unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewDecoder()
	case encUTF16BE:
		return unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewDecoder()
	case encUTF8:
		return nil
	}
	return charmap.ISO8859_1.NewDecoder()
}

// decodeText decodes b in the given encoding, dropping trailing NULs.
// Unknown encodings are read as Latin-1.
func decodeText(enc byte, b []byte) string {
	if len(b) == 0 {
		return ""
	}
	if wide(enc) && len(b)%2 != 0 {
		b = b[:len(b)-1]
	}
	var s string
	if dec := decoderFor(enc); dec != nil {
		out, err := dec.Bytes(b)
		if err != nil {
			return ""
		}
		s = string(out)
	} else {
		s = string(b)
		if !utf8.ValidString(s) {
			s = strings.ToValidUTF8(s, "\uFFFD")
		}
	}
	return strings.TrimRight(s, "\x00")
}

// decodeValues decodes a text frame body into its values. ID3v2.4 allows
// several values separated by NUL.
func decodeValues(enc byte, b []byte) []string {
	var out []string
	for _, part := range strings.Split(decodeText(enc, b), "\x00") {
		// each UTF-16 value carries its own BOM
		part = strings.ReplaceAll(part, "\uFEFF", "")
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func wide(enc byte) bool {
	return enc == encUTF16 || enc == encUTF16BE
}

// splitTerminated splits b at the first string terminator of the
// encoding: one NUL byte, or an aligned pair for UTF-16. ok is false when
// no terminator is present, in which case head is all of b.
func splitTerminated(enc byte, b []byte) (head, rest []byte, ok bool) {
	if !wide(enc) {
		i := bytes.IndexByte(b, 0)
		if i < 0 {
			return b, nil, false
		}
		return b[:i], b[i+1:], true
	}
	for i := 0; i+1 < len(b); i += 2 {
		if b[i] == 0 && b[i+1] == 0 {
			return b[:i], b[i+2:], true
		}
	}
	return b, nil, false
}

// latin1 decodes a Latin-1 string such as a MIME type or owner id.
func latin1(b []byte) string {
	return strings.TrimSpace(decodeText(encLatin1, b))
}
