package mp4

import "github.com/simonhull/metaspector/internal/types"

// parseCover takes the first picture of a covr item. Later pictures and
// later covr items are ignored.
func (m *movie) parseCover(item int) {
	if m.out.CoverArt != nil {
		return
	}
	for _, d := range m.itemDataLimit(item, m.req.MaxArtworkSize) {
		if len(d.value) == 0 {
			continue
		}
		m.out.SetCoverArt(&types.CoverArt{
			Data:     d.value,
			MIMEType: d.imageMIME(),
			Type:     types.ArtworkFrontCover,
		})
		return
	}
}
