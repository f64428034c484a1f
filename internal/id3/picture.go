package id3

import (
	"fmt"
	"strings"

	"github.com/simonhull/metaspector/internal/types"
)

// Picture is a decoded APIC or PIC frame.
type Picture struct {
	MIMEType    string
	Type        types.ArtworkType
	Description string
	Data        []byte
}

// parsePicture decodes an attached picture frame. v2.2 PIC frames carry a
// three-letter image format in place of the MIME type.
func parsePicture(f Frame) (*Picture, error) {
	p := f.Payload
	if len(p) < 2 {
		return nil, fmt.Errorf("picture frame of %d bytes", len(p))
	}
	enc := p[0]
	p = p[1:]

	var mime string
	if f.ID == "PIC" {
		if len(p) < 3 {
			return nil, fmt.Errorf("PIC frame cut short")
		}
		mime = picFormatMIME(latin1(p[:3]))
		p = p[3:]
	} else {
		head, rest, ok := splitTerminated(encLatin1, p)
		if !ok {
			return nil, fmt.Errorf("unterminated MIME type")
		}
		mime = strings.ToLower(latin1(head))
		p = rest
	}

	if len(p) < 1 {
		return nil, fmt.Errorf("picture frame without picture type")
	}
	kind := types.ArtworkType(p[0])
	desc, data, ok := splitTerminated(enc, p[1:])
	if !ok {
		return nil, fmt.Errorf("unterminated picture description")
	}

	if mime == "" || mime == "-->" || !strings.Contains(mime, "/") {
		// "-->" marks a linked picture; sniff instead
		mime = types.SniffImageMIME(data)
	}
	return &Picture{
		MIMEType:    mime,
		Type:        kind,
		Description: strings.TrimSpace(decodeText(enc, desc)),
		Data:        data,
	}, nil
}

func picFormatMIME(format string) string {
	switch strings.ToUpper(format) {
	case "JPG", "JPEG":
		return "image/jpeg"
	case "PNG":
		return "image/png"
	case "GIF":
		return "image/gif"
	case "BMP":
		return "image/bmp"
	}
	return ""
}

// applyCover picks the front cover, or the first picture when there is
// none, and stores it unless it exceeds limit.
func applyCover(t *Tag, out *types.UnifiedMetadata, limit int64) {
	var frameAt int64
	var chosen *Picture
	for _, f := range t.Frames {
		if f.ID != "APIC" && f.ID != "PIC" {
			continue
		}
		pic, err := parsePicture(f)
		if err != nil {
			out.Warn("metadata", f.Offset, types.KindMalformedBlock, "%s: %v", f.ID, err)
			continue
		}
		if len(pic.Data) == 0 {
			continue
		}
		if chosen == nil || (chosen.Type != types.ArtworkFrontCover && pic.Type == types.ArtworkFrontCover) {
			chosen, frameAt = pic, f.Offset
		}
	}
	if chosen == nil {
		return
	}
	if limit > 0 && int64(len(chosen.Data)) > limit {
		out.Warn("metadata", frameAt, types.KindMalformedBlock,
			"picture of %d bytes exceeds the %d-byte limit", len(chosen.Data), limit)
		return
	}
	out.SetCoverArt(&types.CoverArt{
		Data:        chosen.Data,
		MIMEType:    chosen.MIMEType,
		Type:        chosen.Type,
		Description: chosen.Description,
	})
}
