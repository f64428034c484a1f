// Package vorbis decodes Vorbis comment blocks, the KEY=VALUE tag list
// FLAC carries in its VORBIS_COMMENT metadata block.
package vorbis

import (
	"fmt"
	"strings"

	"github.com/simonhull/metaspector/internal/binary"
	"github.com/simonhull/metaspector/internal/types"
)

// Comment is one KEY=VALUE entry. Key keeps the case it was written in.
type Comment struct {
	Key   string
	Value string
}

// Comments is a decoded comment block.
type Comments struct {
	Vendor   string
	Comments []Comment
}

// maxComments caps the declared comment count before any are read.
const maxComments = 1 << 16

// Parse decodes a comment block read through c. All lengths are
// little-endian. Entries decoded before a fault are returned with the
// error.
func Parse(c *binary.Cursor) (*Comments, error) {
	vendorLen, err := c.U32LE("vendor length")
	if err != nil {
		return nil, err
	}
	vendor, err := c.String(int64(vendorLen), "vendor string")
	if err != nil {
		return nil, err
	}
	out := &Comments{Vendor: vendor}

	count, err := c.U32LE("comment count")
	if err != nil {
		return out, err
	}
	if count > maxComments || int64(count)*4 > c.Remaining() {
		return out, types.NewDecodeError(types.KindMalformedBlock, c.Position()-4,
			"%d comments declared in %d bytes", count, c.Remaining())
	}
	for i := range count {
		n, err := c.U32LE("comment length")
		if err != nil {
			return out, err
		}
		s, err := c.String(int64(n), fmt.Sprintf("comment %d", i))
		if err != nil {
			return out, err
		}
		key, value, ok := strings.Cut(s, "=")
		if !ok || key == "" {
			continue
		}
		out.Comments = append(out.Comments, Comment{Key: key, Value: value})
	}
	return out, nil
}

// Values returns every value of key, compared case-insensitively.
func (c *Comments) Values(key string) []string {
	var out []string
	for _, e := range c.Comments {
		if strings.EqualFold(e.Key, key) {
			out = append(out, e.Value)
		}
	}
	return out
}
