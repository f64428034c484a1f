package flac

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/simonhull/metaspector/internal/binary"
	"github.com/simonhull/metaspector/internal/types"
)

// errTooLarge marks a picture skipped for exceeding the artwork size cap.
var errTooLarge = errors.New("picture exceeds the size limit")

// pictureHeader holds the fields of a PICTURE body that precede the image.
type pictureHeader struct {
	typ         types.ArtworkType
	mime        string
	description string
	width       int
	height      int
	dataLen     int64
}

// readPictureHeader reads a PICTURE body up to the image data. The same
// layout is used by PICTURE blocks and METADATA_BLOCK_PICTURE comments.
func readPictureHeader(c *binary.Cursor) (pictureHeader, error) {
	ch := binary.NewChain(c)
	var h pictureHeader
	h.typ = types.ArtworkType(ch.U32("picture type"))
	mimeLen := ch.U32("MIME type length")
	h.mime = strings.ToLower(strings.TrimSpace(ch.String(int64(mimeLen), "MIME type")))
	descLen := ch.U32("description length")
	h.description = strings.TrimSpace(ch.String(int64(descLen), "description"))
	h.width = int(ch.U32("width"))
	h.height = int(ch.U32("height"))
	ch.Skip(8) // colour depth, indexed colours
	h.dataLen = int64(ch.U32("picture data length"))
	if err := ch.Err(); err != nil {
		return h, err
	}
	if h.dataLen > c.Remaining() {
		return h, types.NewDecodeError(types.KindMalformedBlock, c.Position(),
			"picture declares %d bytes but only %d remain", h.dataLen, c.Remaining())
	}
	return h, nil
}

// readPicture reads a whole picture body. limit caps the image size; 0
// means no cap.
func readPicture(c *binary.Cursor, limit int64) (*types.CoverArt, error) {
	h, err := readPictureHeader(c)
	if err != nil {
		return nil, err
	}
	if limit > 0 && h.dataLen > limit {
		return nil, fmt.Errorf("%w: %d bytes over %d", errTooLarge, h.dataLen, limit)
	}
	data, err := c.Bytes(h.dataLen, "picture data")
	if err != nil {
		return nil, err
	}
	mime := h.mime
	if mime == "" || mime == "-->" {
		mime = types.SniffImageMIME(data)
	}
	return &types.CoverArt{
		Data:        data,
		MIMEType:    mime,
		Type:        h.typ,
		Description: h.description,
		Width:       h.width,
		Height:      h.height,
	}, nil
}

// selectCover stores the front cover, or the first picture when there is
// no front cover. PICTURE blocks come first; base64 METADATA_BLOCK_PICTURE
// comments are the fallback.
func (s *stream) selectCover() {
	var cursors []*binary.Cursor
	for _, b := range s.pictures {
		c, err := s.sr.Range(b.offset, b.offset+b.length)
		if err != nil {
			s.out.WarnErr("artwork", err)
			continue
		}
		cursors = append(cursors, c)
	}
	if len(cursors) == 0 && s.comments != nil {
		for i, v := range s.comments.Values("METADATA_BLOCK_PICTURE") {
			body, err := base64.StdEncoding.DecodeString(strings.TrimSpace(v))
			if err != nil {
				s.out.Warn("artwork", 0, types.KindMalformedBlock, "METADATA_BLOCK_PICTURE %d: %v", i, err)
				continue
			}
			cursors = append(cursors, memCursor(body))
		}
	}

	pick := -1
	for i, c := range cursors {
		h, err := readPictureHeader(c)
		if err != nil {
			s.out.WarnErr("artwork", err)
			continue
		}
		if pick < 0 {
			pick = i
		}
		if h.typ == types.ArtworkFrontCover {
			pick = i
			break
		}
	}
	if pick < 0 {
		return
	}

	c := cursors[pick]
	if err := c.Seek(c.Start()); err != nil {
		s.out.WarnErr("artwork", err)
		return
	}
	art, err := readPicture(c, s.req.MaxArtworkSize)
	if err != nil {
		s.out.WarnErr("artwork", err)
		return
	}
	s.out.SetCoverArt(art)
}

func memCursor(b []byte) *binary.Cursor {
	return binary.NewCursor(binary.NewSafeReader(bytes.NewReader(b), int64(len(b)), "METADATA_BLOCK_PICTURE"))
}
