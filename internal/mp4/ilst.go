package mp4

import (
	"strconv"
	"strings"

	"howett.net/plist"

	"github.com/simonhull/metaspector/internal/id3"
	"github.com/simonhull/metaspector/internal/types"
)

type valueKind int

const (
	asText valueKind = iota
	asInt
	asBool
)

type itemKey struct {
	key  string
	kind valueKind
}

// itemKeys maps ilst item types to metadata keys.
// In MP4, © is the byte 0xA9, so "©nam" is "\xA9nam" in Go strings.
var itemKeys = map[string]itemKey{
	"\xA9nam": {"title", asText},
	"\xA9ART": {"artist", asText},
	"aART":    {"album_artist", asText},
	"\xA9alb": {"album", asText},
	"\xA9gen": {"genre", asText},
	"\xA9day": {"release_date", asText},
	"\xA9wrt": {"composer", asText},
	"\xA9too": {"encoder", asText},
	"\xA9enc": {"encoded_by", asText},
	"\xA9cmt": {"comment", asText},
	"\xA9lyr": {"lyrics", asText},
	"\xA9grp": {"grouping", asText},
	"\xA9pub": {"publisher", asText},
	"\xA9mak": {"record_company", asText},
	"\xA9st3": {"subtitle", asText},
	"\xA9wrk": {"work", asText},
	"\xA9mvn": {"movement_name", asText},
	"\xA9mvi": {"movement_number", asInt},
	"\xA9mvc": {"movement_total", asInt},
	"\xA9aut": {"lyricist", asText},
	"\xA9con": {"conductor", asText},
	"\xA9dir": {"director", asText},
	"\xA9prd": {"producer", asText},
	"perf":    {"performer", asText},
	"arrn":    {"arranger", asText},
	"desc":    {"description", asText},
	"ldes":    {"long_description", asText},
	"sdes":    {"series_description", asText},
	"cprt":    {"copyright", asText},
	"tmpo":    {"tempo", asInt},
	"cpil":    {"compilation", asBool},
	"pgap":    {"gapless", asBool},
	"pcst":    {"podcast", asBool},
	"shwv":    {"show_work_and_movement", asBool},
	"purl":    {"podcast_url", asText},
	"egid":    {"episode_guid", asText},
	"keyw":    {"keywords", asText},
	"catg":    {"category", asText},
	"tvsh":    {"tv_show", asText},
	"tven":    {"tv_episode_id", asText},
	"tvsn":    {"tv_season", asInt},
	"tves":    {"tv_episode", asInt},
	"tvnn":    {"tv_network", asText},
	"sonm":    {"sort_title", asText},
	"soar":    {"sort_artist", asText},
	"soal":    {"sort_album", asText},
	"soaa":    {"sort_album_artist", asText},
	"soco":    {"sort_composer", asText},
	"sosn":    {"sort_show", asText},
	"purd":    {"purchase_date", asText},
	"apID":    {"account_id", asText},
	"ownr":    {"owner", asText},
	"xid ":    {"xid", asText},
	"akID":    {"account_type", asInt},
	"sfID":    {"store_country", asInt},
	"cnID":    {"content_id", asInt},
	"atID":    {"artist_id", asInt},
	"plID":    {"playlist_id", asInt},
	"geID":    {"genre_id", asInt},
	"cmID":    {"composer_id", asInt},
}

// mediaTypes names the stik values.
var mediaTypes = map[int64]string{
	0:  "Movie",
	1:  "Music",
	2:  "Audiobook",
	5:  "Whacked Bookmark",
	6:  "Music Video",
	9:  "Movie",
	10: "TV Show",
	11: "Booklet",
	14: "Ringtone",
	21: "Podcast",
	23: "iTunes U",
}

// hdVideoDefinitions names the hdvd values.
var hdVideoDefinitions = map[int64]string{
	0: "SD",
	1: "720p HD",
	2: "1080p HD",
	3: "2160p UHD",
}

// freeformKeys maps the upper-cased names of '----' items to metadata keys.
var freeformKeys = map[string]string{
	"ISRC":                  "isrc",
	"LABEL":                 "record_company",
	"PUBLISHER":             "publisher",
	"BARCODE":               "barcode",
	"UPC":                   "upc",
	"CATALOGNUMBER":         "catalog_number",
	"LANGUAGE":              "language",
	"ARTISTS":               "artists",
	"SUBTITLE":              "subtitle",
	"NARRATOR":              "narrator",
	"SERIES":                "series",
	"SERIES PART":           "series_part",
	"SERIES-PART":           "series_part",
	"ISBN":                  "isbn",
	"ASIN":                  "asin",
	"AUDIBLE_ASIN":          "asin",
	"REPLAYGAIN_TRACK_GAIN": "replaygain_track_gain",
	"REPLAYGAIN_TRACK_PEAK": "replaygain_track_peak",
	"REPLAYGAIN_ALBUM_GAIN": "replaygain_album_gain",
	"REPLAYGAIN_ALBUM_PEAK": "replaygain_album_peak",
}

// ilstBoxes returns the tag lists of the file: moov/udta/meta, moov/meta,
// and a top-level meta.
func (m *movie) ilstBoxes() []int {
	var out []int
	for _, idx := range []int{
		m.tree.Path(m.moov, "udta", "meta", "ilst"),
		m.tree.Path(m.moov, "meta", "ilst"),
		m.tree.Path(-1, "meta", "ilst"),
	} {
		if idx >= 0 {
			out = append(out, idx)
		}
	}
	return out
}

// parseTags folds every ilst item into the metadata section, and the
// first covr picture into the cover art.
func (m *movie) parseTags() {
	for _, ilst := range m.ilstBoxes() {
		for _, item := range m.tree.Children(ilst) {
			typ := m.tree.Nodes[item].Type
			if typ == "covr" {
				m.parseCover(item)
				continue
			}
			if m.req.CoverOnly {
				continue
			}
			m.parseItem(item, typ)
		}
	}
	if !m.req.CoverOnly {
		m.finishTags()
	}
}

// parseItem decodes one ilst item.
func (m *movie) parseItem(item int, typ string) {
	md := &m.out.Metadata

	switch typ {
	case "----":
		m.parseFreeform(item)
		return
	case "trkn", "disk":
		prefix := "track"
		if typ == "disk" {
			prefix = "disc"
		}
		for _, d := range m.itemData(item) {
			if n, total, ok := d.pair(); ok {
				md.SetInt(prefix+"_number", n)
				md.SetInt(prefix+"_total", total)
				return
			}
		}
		return
	}

	values := m.itemData(item)
	if len(values) == 0 {
		return
	}
	d := values[0]

	switch typ {
	case "gnre":
		if n, ok := d.integer(); ok {
			// ID3v1 genre index, one-based
			md.SetIfAbsent("genre", id3.GenreName(int(n)-1))
		}
		return
	case "stik":
		if n, ok := d.integer(); ok {
			if name, ok := mediaTypes[n]; ok {
				md.Set("media_type", name)
			} else {
				md.Set("media_type", int(n))
			}
		}
		return
	case "rtng":
		if n, ok := d.integer(); ok {
			md.Set("content_advisory", advisory(n))
		}
		return
	case "hdvd":
		if n, ok := d.integer(); ok {
			md.Set("hd_video", n > 0)
			md.Set("hd_video_definition", hdVideoDefinitions[n])
		}
		return
	}

	k, ok := itemKeys[typ]
	if !ok {
		if s := d.text(); s != "" {
			md.AddRaw(displayKey(typ), s)
		}
		return
	}
	switch k.kind {
	case asText:
		md.Set(k.key, d.text())
	case asInt:
		if n, ok := d.integer(); ok {
			md.Set(k.key, int(n))
		}
	case asBool:
		if n, ok := d.integer(); ok {
			md.Set(k.key, n != 0)
		}
	}
}

// advisory names an rtng value.
func advisory(n int64) string {
	switch n {
	case 1, 4:
		return "explicit"
	case 2:
		return "clean"
	}
	return "none"
}

// parseFreeform decodes a '----' item: a reverse-DNS 'mean', a 'name' and
// the value.
func (m *movie) parseFreeform(item int) {
	mean := m.freeformString(item, "mean")
	name := m.freeformString(item, "name")
	if name == "" {
		return
	}
	var values []string
	for _, d := range m.itemData(item) {
		if s := d.text(); s != "" {
			values = append(values, s)
		}
	}
	if len(values) == 0 {
		return
	}

	md := &m.out.Metadata
	switch name {
	case "iTunEXTC":
		if m.parseRating(values[0]) {
			return
		}
	case "iTunMOVI":
		if m.parseMovieInfo(m.tree.Nodes[item].Offset, values[0]) {
			return
		}
	}
	if key, ok := freeformKeys[strings.ToUpper(name)]; ok {
		md.Set(key, values[0])
		return
	}
	md.AddRaw("----:"+mean+":"+name, values...)
}

// parseRating splits an iTunEXTC value, system|label|unit|annotation
// (e.g. "mpaa|PG-13|300|").
func (m *movie) parseRating(s string) bool {
	parts := strings.Split(s, "|")
	if len(parts) < 2 {
		return false
	}
	md := &m.out.Metadata
	system, label := parts[0], parts[1]
	md.Set("content_rating_system", system)
	md.Set("content_rating", label)
	if age, ok := AgeClassification(system, label); ok {
		md.Set("rating_age_classification", age)
	}
	if len(parts) >= 3 {
		if unit, err := strconv.Atoi(strings.TrimSpace(parts[2])); err == nil {
			md.Set("rating_unit", unit)
		}
	}
	return true
}

// moviePerson is one entry of an iTunMOVI people list.
type moviePerson struct {
	Name string `plist:"name"`
}

// movieInfo is the part of the iTunMOVI property list that names people.
type movieInfo struct {
	Cast          []moviePerson `plist:"cast"`
	Directors     []moviePerson `plist:"directors"`
	Producers     []moviePerson `plist:"producers"`
	Screenwriters []moviePerson `plist:"screenwriters"`
}

// parseMovieInfo reads the XML property list of an iTunMOVI item into the
// cast, directors, producers and screenwriters keys. It reports false when
// the value is not a property list, leaving the caller to keep it raw.
func (m *movie) parseMovieInfo(offset int64, s string) bool {
	var info movieInfo
	if _, err := plist.Unmarshal([]byte(s), &info); err != nil {
		m.out.Warn("metadata", offset, types.KindMalformedBlock, "iTunMOVI property list: %v", err)
		return false
	}
	md := &m.out.Metadata
	for _, l := range []struct {
		key    string
		people []moviePerson
	}{
		{"cast", info.Cast},
		{"directors", info.Directors},
		{"producers", info.Producers},
		{"screenwriters", info.Screenwriters},
	} {
		if names := personNames(l.people); len(names) > 0 {
			md.Set(l.key, names)
		}
	}
	return true
}

// personNames drops unnamed entries and names elided with "...".
func personNames(people []moviePerson) []string {
	var out []string
	for _, p := range people {
		name := strings.TrimSpace(p.Name)
		if name == "" || strings.HasSuffix(name, "...") {
			continue
		}
		out = append(out, name)
	}
	return out
}

// freeformString reads a 'mean' or 'name' child: version and flags, then text.
func (m *movie) freeformString(item int, typ string) string {
	idx := m.tree.Find(item, typ)
	if idx < 0 || m.clipped(idx) {
		return ""
	}
	b, err := m.tree.PayloadBytes(m.sr, idx, 4096)
	if err != nil {
		m.out.WarnErr("metadata", err)
		return ""
	}
	if len(b) < 4 {
		return ""
	}
	return strings.TrimSpace(strings.TrimRight(string(b[4:]), "\x00"))
}

// finishTags applies rules that depend on several items.
func (m *movie) finishTags() {
	md := &m.out.Metadata
	if md.String("media_type") == "Music" {
		md.Delete("hd_video")
		md.Delete("hd_video_definition")
		md.SetIfAbsent("content_advisory", "none")
	}
}

// displayKey renders an item type for the raw namespace, spelling the
// 0xA9 prefix as ©.
func displayKey(typ string) string {
	if strings.HasPrefix(typ, "\xA9") {
		return "©" + typ[1:]
	}
	return strings.ToValidUTF8(typ, "?")
}
