package vorbis

import (
	"strings"

	"github.com/simonhull/metaspector/internal/types"
)

// keys maps upper-cased comment names to metadata keys.
var keys = map[string]string{
	"TITLE":           "title",
	"SUBTITLE":        "subtitle",
	"ARTIST":          "artist",
	"ALBUM":           "album",
	"ALBUMARTIST":     "album_artist",
	"ALBUM ARTIST":    "album_artist",
	"DATE":            "release_date",
	"YEAR":            "release_date",
	"ORIGINALDATE":    "original_release_date",
	"GENRE":           "genre",
	"COMMENT":         "comment",
	"DESCRIPTION":     "description",
	"COMPOSER":        "composer",
	"LYRICIST":        "lyricist",
	"CONDUCTOR":       "conductor",
	"LYRICS":          "lyrics",
	"UNSYNCEDLYRICS":  "lyrics",
	"PERFORMER":       "performer",
	"ORGANIZATION":    "record_company",
	"LABEL":           "record_company",
	"PUBLISHER":       "publisher",
	"COPYRIGHT":       "copyright",
	"ISRC":            "isrc",
	"BARCODE":         "barcode",
	"UPC":             "upc",
	"CATALOGNUMBER":   "catalog_number",
	"MEDIA":           "media_type",
	"ENCODER":         "encoder",
	"ENCODED-BY":      "encoder",
	"ENCODEDBY":       "encoder",
	"LANGUAGE":        "language",
	"GROUPING":        "grouping",
	"TITLESORT":       "sort_title",
	"ARTISTSORT":      "sort_artist",
	"ALBUMSORT":       "sort_album",
	"ALBUMARTISTSORT": "sort_album_artist",
	"COMPOSERSORT":    "sort_composer",

	"REPLAYGAIN_TRACK_GAIN": "replaygain_track_gain",
	"REPLAYGAIN_TRACK_PEAK": "replaygain_track_peak",
	"REPLAYGAIN_ALBUM_GAIN": "replaygain_album_gain",
	"REPLAYGAIN_ALBUM_PEAK": "replaygain_album_peak",
}

// numbers are comments holding a count or an "n/total" pair.
var numbers = map[string]string{
	"TRACKNUMBER": "track",
	"DISCNUMBER":  "disc",
}

var totals = map[string]string{
	"TRACKTOTAL":  "track_total",
	"TOTALTRACKS": "track_total",
	"DISCTOTAL":   "disc_total",
	"TOTALDISCS":  "disc_total",
	"BPM":         "tempo",
}

// skipped are comments decoded elsewhere.
var skipped = map[string]bool{
	"METADATA_BLOCK_PICTURE": true,
	"COVERART":               true,
	"COVERARTMIME":           true,
}

// Apply folds the comments into md. Repeated comments join with "; ";
// names with no normalized key are kept raw.
func (c *Comments) Apply(md *types.Metadata) {
	joined := make(map[string][]string)
	var order []string
	for _, e := range c.Comments {
		name := strings.ToUpper(strings.TrimSpace(e.Key))
		value := strings.TrimSpace(e.Value)
		if value == "" || skipped[name] {
			continue
		}
		if _, seen := joined[name]; !seen {
			order = append(order, name)
		}
		joined[name] = append(joined[name], value)
	}

	for _, name := range order {
		values := joined[name]
		switch {
		case keys[name] != "":
			md.Set(keys[name], strings.Join(values, "; "))
		case numbers[name] != "":
			md.SetPair(numbers[name], values[0])
		case totals[name] != "":
			// applied below
		case name == "COMPILATION":
			md.Set("compilation", values[0] == "1")
		default:
			md.AddRaw(name, values...)
		}
	}
	// an explicit total wins over one split from "n/total"
	for _, name := range order {
		if key := totals[name]; key != "" {
			md.SetNumberOrString(key, joined[name][0])
		}
	}
}
