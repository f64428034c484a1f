package id3

import (
	"strconv"
	"strings"

	"github.com/simonhull/metaspector/internal/binary"
	"github.com/simonhull/metaspector/internal/types"
)

// V1Size is the size of the ID3v1 trailer.
const V1Size = 128

// V1 is an ID3v1 (or v1.1) trailer.
type V1 struct {
	Title   string
	Artist  string
	Album   string
	Year    string
	Comment string
	Track   int // v1.1 only
	Genre   int // 255 when unset
}

// ReadV1 reads the trailer in the last 128 bytes of the source. ok is
// false when there is none.
func ReadV1(sr *binary.SafeReader) (v *V1, ok bool) {
	if sr.Size() < V1Size {
		return nil, false
	}
	b, err := sr.Bytes(sr.Size()-V1Size, V1Size, "ID3v1 trailer")
	if err != nil || string(b[:3]) != "TAG" {
		return nil, false
	}
	v = &V1{
		Title:  v1String(b[3:33]),
		Artist: v1String(b[33:63]),
		Album:  v1String(b[63:93]),
		Year:   v1String(b[93:97]),
		Genre:  int(b[127]),
	}
	comment := b[97:127]
	if comment[28] == 0 && comment[29] != 0 {
		v.Track = int(comment[29])
		comment = comment[:28]
	}
	v.Comment = v1String(comment)
	return v, true
}

func v1String(b []byte) string {
	if i := strings.IndexByte(string(b), 0); i >= 0 {
		b = b[:i]
	}
	return latin1(b)
}

// Apply fills the keys an ID3v2 tag left unset.
func (v *V1) Apply(md *types.Metadata) {
	md.SetIfAbsent("title", v.Title)
	md.SetIfAbsent("artist", v.Artist)
	md.SetIfAbsent("album", v.Album)
	if _, err := strconv.Atoi(v.Year); err == nil {
		md.SetIfAbsent("release_date", v.Year)
	}
	md.SetIfAbsent("comment", v.Comment)
	if v.Track > 0 && !md.Has("track_number") {
		md.SetInt("track_number", v.Track)
	}
	if g := GenreName(v.Genre); g != "" {
		md.SetIfAbsent("genre", g)
	}
}
