package types

import "fmt"

// Format represents the detected container format.
type Format int

const (
	// FormatUnknown represents an unknown or unsupported format.
	FormatUnknown Format = iota
	// FormatMP4 represents ISO-BMFF files (MP4, M4A, M4V, M4B, MOV).
	FormatMP4
	// FormatMP3 represents MPEG audio, with or without an ID3v2 tag.
	FormatMP3
	// FormatFLAC represents native FLAC streams.
	FormatFLAC
)

var formatNames = [...]string{
	FormatUnknown: "Unknown",
	FormatMP4:     "MP4",
	FormatMP3:     "MP3",
	FormatFLAC:    "FLAC",
}

func (f Format) String() string {
	if f < 0 || int(f) >= len(formatNames) {
		return fmt.Sprintf("Format(%d)", int(f))
	}
	return formatNames[f]
}

// Extensions returns common file extensions for this format.
func (f Format) Extensions() []string {
	switch f {
	case FormatMP4:
		return []string{".mp4", ".m4a", ".m4v", ".m4b", ".mov"}
	case FormatMP3:
		return []string{".mp3"}
	case FormatFLAC:
		return []string{".flac"}
	default:
		return nil
	}
}

// MarshalText implements encoding.TextMarshaler.
func (f Format) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}
