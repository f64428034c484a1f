package registry

import (
	"bytes"

	"github.com/simonhull/metaspector/internal/binary"
	"github.com/simonhull/metaspector/internal/types"
)

// mp4Leaders are box types accepted as the first box of an ISO-BMFF file.
var mp4Leaders = []string{"ftyp", "moov", "mdat", "free", "skip", "wide", "pnot"}

// DetectFormat determines the container format by examining magic bytes.
//
// Detection is based on file signatures at the beginning of the source and
// does not validate the file structure.
func DetectFormat(sr *binary.SafeReader) (types.Format, error) {
	if sr.Size() < 4 {
		return types.FormatUnknown, &types.UnsupportedFormatError{
			Path:   sr.Path(),
			Reason: "file too small",
		}
	}

	magic, err := sr.Bytes(0, min(sr.Size(), 12), "file magic bytes")
	if err != nil {
		return types.FormatUnknown, &types.UnsupportedFormatError{
			Path:   sr.Path(),
			Reason: "failed to read file header",
		}
	}

	switch {
	case bytes.HasPrefix(magic, []byte("fLaC")):
		return types.FormatFLAC, nil
	case bytes.HasPrefix(magic, []byte("ID3")):
		return types.FormatMP3, nil
	case magic[0] == 0xFF && magic[1]&0xE0 == 0xE0:
		// MPEG audio frame sync, for files without an ID3v2 tag
		return types.FormatMP3, nil
	}

	if len(magic) >= 8 {
		leader := string(magic[4:8])
		for _, t := range mp4Leaders {
			if leader == t {
				return types.FormatMP4, nil
			}
		}
	}

	return types.FormatUnknown, &types.UnsupportedFormatError{
		Path:   sr.Path(),
		Reason: "unrecognized file signature",
	}
}
