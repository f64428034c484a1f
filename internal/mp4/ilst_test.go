package mp4

import (
	"bytes"
	"slices"
	"testing"

	"github.com/simonhull/metaspector/internal/binary"
	"github.com/simonhull/metaspector/internal/fixture"
	"github.com/simonhull/metaspector/internal/registry"
	"github.com/simonhull/metaspector/internal/types"
)

func tagged(items ...[]byte) []byte {
	return fixture.Movie{
		Timescale: 1000,
		Duration:  1000,
		Tracks:    []fixture.Track{audioTrack()},
		Items:     slices.Concat(items...),
	}.Bytes()
}

func TestTags_TextItems(t *testing.T) {
	out := decode(t, tagged(
		fixture.TextItem("\xA9nam", "Song"),
		fixture.TextItem("\xA9ART", "Artist"),
		fixture.TextItem("aART", "Album Artist"),
		fixture.TextItem("\xA9alb", "Album"),
		fixture.TextItem("\xA9day", "2021-03-04"),
		fixture.TextItem("\xA9too", "Lavf58"),
		fixture.TextItem("\xA9cmt", "  padded \x00"),
	), registry.Request{})

	tests := map[string]string{
		"title":        "Song",
		"artist":       "Artist",
		"album_artist": "Album Artist",
		"album":        "Album",
		"release_date": "2021-03-04",
		"encoder":      "Lavf58",
		"comment":      "padded",
	}
	for key, want := range tests {
		if got := out.Metadata.String(key); got != want {
			t.Errorf("%s = %q, want %q", key, got, want)
		}
	}
}

func TestTags_NumericItems(t *testing.T) {
	out := decode(t, tagged(
		fixture.PairItem("trkn", 3, 12),
		fixture.PairItem("disk", 1, 0),
		fixture.Item("tmpo", 21, []byte{0x00, 0x78}),
		fixture.Item("cpil", 21, []byte{1}),
		fixture.Item("tvsn", 21, []byte{0, 0, 0, 2}),
		fixture.Item("\xA9mvi", 21, []byte{0xFF}),
	), registry.Request{})

	md := &out.Metadata
	if md.Int("track_number") != 3 || md.Int("track_total") != 12 {
		t.Errorf("track = %d/%d, want 3/12", md.Int("track_number"), md.Int("track_total"))
	}
	if md.Int("disc_number") != 1 {
		t.Errorf("disc_number = %d, want 1", md.Int("disc_number"))
	}
	if md.Has("disc_total") {
		t.Error("zero disc_total should be omitted")
	}
	if md.Int("tempo") != 120 {
		t.Errorf("tempo = %d, want 120", md.Int("tempo"))
	}
	if v, _ := md.Get("compilation"); v != true {
		t.Errorf("compilation = %v, want true", v)
	}
	if md.Int("tv_season") != 2 {
		t.Errorf("tv_season = %d, want 2", md.Int("tv_season"))
	}
	// signed one-byte value
	if md.Int("movement_number") != -1 {
		t.Errorf("movement_number = %d, want -1", md.Int("movement_number"))
	}
}

func TestTags_GenreIndex(t *testing.T) {
	out := decode(t, tagged(fixture.Item("gnre", 0, []byte{0, 18})), registry.Request{})
	if got := out.Metadata.String("genre"); got != "Rock" {
		t.Errorf("genre = %q, want Rock", got)
	}

	// A text genre wins over the index.
	out = decode(t, tagged(
		fixture.TextItem("\xA9gen", "Shoegaze"),
		fixture.Item("gnre", 0, []byte{0, 18}),
	), registry.Request{})
	if got := out.Metadata.String("genre"); got != "Shoegaze" {
		t.Errorf("genre = %q, want Shoegaze", got)
	}
}

func TestTags_MediaTypeAndAdvisory(t *testing.T) {
	tests := []struct {
		name     string
		items    [][]byte
		media    string
		advisory string
		hd       bool
	}{
		{
			name:     "music defaults advisory and drops hd",
			items:    [][]byte{fixture.Item("stik", 21, []byte{1}), fixture.Item("hdvd", 21, []byte{2})},
			media:    "Music",
			advisory: "none",
		},
		{
			name:     "explicit music",
			items:    [][]byte{fixture.Item("stik", 21, []byte{1}), fixture.Item("rtng", 21, []byte{4})},
			media:    "Music",
			advisory: "explicit",
		},
		{
			name:     "tv show keeps hd",
			items:    [][]byte{fixture.Item("stik", 21, []byte{10}), fixture.Item("hdvd", 21, []byte{1}), fixture.Item("rtng", 21, []byte{2})},
			media:    "TV Show",
			advisory: "clean",
			hd:       true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := decode(t, tagged(tt.items...), registry.Request{})
			md := &out.Metadata
			if got := md.String("media_type"); got != tt.media {
				t.Errorf("media_type = %q, want %q", got, tt.media)
			}
			if got := md.String("content_advisory"); got != tt.advisory {
				t.Errorf("content_advisory = %q, want %q", got, tt.advisory)
			}
			if md.Has("hd_video") != tt.hd {
				t.Errorf("hd_video present = %v, want %v", md.Has("hd_video"), tt.hd)
			}
			if tt.hd && md.String("hd_video_definition") != "720p HD" {
				t.Errorf("hd_video_definition = %q", md.String("hd_video_definition"))
			}
		})
	}
}

func TestTags_Freeform(t *testing.T) {
	out := decode(t, tagged(
		fixture.FreeformItem("com.apple.iTunes", "ISRC", "USRC17607839"),
		fixture.FreeformItem("com.apple.iTunes", "iTunEXTC", "mpaa|PG-13|300|"),
		fixture.FreeformItem("com.apple.iTunes", "MOOD", "Calm"),
		fixture.FreeformItem("com.apple.iTunes", "Narrator", "Jim Dale"),
		fixture.FreeformItem("com.apple.iTunes", "Series Part", "3"),
	), registry.Request{})

	md := &out.Metadata
	if got := md.String("isrc"); got != "USRC17607839" {
		t.Errorf("isrc = %q", got)
	}
	if md.String("content_rating_system") != "mpaa" || md.String("content_rating") != "PG-13" {
		t.Errorf("rating = %q/%q", md.String("content_rating_system"), md.String("content_rating"))
	}
	if md.Int("rating_age_classification") != 13 || md.Int("rating_unit") != 300 {
		t.Errorf("rating age/unit = %d/%d", md.Int("rating_age_classification"), md.Int("rating_unit"))
	}
	if got := md.RawFirst("----:com.apple.iTunes:MOOD"); got != "Calm" {
		t.Errorf("raw MOOD = %q, want Calm", got)
	}
	if md.String("narrator") != "Jim Dale" || md.String("series_part") != "3" {
		t.Errorf("audiobook keys = %q/%q", md.String("narrator"), md.String("series_part"))
	}
}

func TestTags_UnknownItemKeptRaw(t *testing.T) {
	out := decode(t, tagged(fixture.TextItem("\xA9xyz", "value")), registry.Request{})
	if got := out.Metadata.RawFirst("©xyz"); got != "value" {
		t.Errorf("raw ©xyz = %q, want value (raw: %v)", got, out.Metadata.Raw())
	}
}

func TestTags_UTF16Text(t *testing.T) {
	title := []byte{0x00, 'H', 0x00, 'i', 0x00, 0xE9}
	out := decode(t, tagged(fixture.Item("\xA9nam", 2, title)), registry.Request{})
	if got := out.Metadata.String("title"); got != "Hié" {
		t.Errorf("title = %q, want Hié", got)
	}
}

func TestTags_ShortDataAtomWarns(t *testing.T) {
	bad := fixture.Box("\xA9nam", fixture.Box("data", []byte{0, 0, 0, 1}))
	out := decode(t, tagged(bad, fixture.TextItem("\xA9ART", "ok")), registry.Request{})
	if out.Metadata.Has("title") {
		t.Error("title decoded from a short data atom")
	}
	if out.Metadata.String("artist") != "ok" {
		t.Error("sibling item lost after a short data atom")
	}
	if len(out.Warnings) == 0 {
		t.Error("expected a warning")
	}
}

func TestTags_CutValueSkipped(t *testing.T) {
	data := tagged(fixture.TextItem("\xA9ART", "Artist"), fixture.TextItem("\xA9nam", "Complete Title"))
	at := bytes.Index(data, []byte("Complete Title"))
	if at < 0 {
		t.Fatal("title not found in fixture")
	}

	for _, cut := range []int{at + 1, at + 5, at + len("Complete Title") - 1} {
		out := decode(t, data[:cut], registry.Request{})
		if got := out.Metadata.String("title"); got != "" {
			t.Errorf("cut at %d: title = %q, want none", cut, got)
		}
		if got := out.Metadata.String("artist"); got != "Artist" {
			t.Errorf("cut at %d: artist = %q, want Artist", cut, got)
		}
		if len(out.Warnings) == 0 {
			t.Errorf("cut at %d: expected a warning", cut)
		}
	}
}

func TestTags_Rating(t *testing.T) {
	tests := []struct {
		value  string
		age    int
		hasAge bool
		unit   int
	}{
		{"mpaa|PG-13|300|", 13, true, 300},
		{"us-tv|TV-MA|600|", 17, true, 600},
		{"uk-movie|12A|200|", 12, true, 200},
		{"de-movie|ab 16 Jahren|400|", 16, true, 400},
		{"mpaa|XYZ|100|", 0, false, 100},
		{"mpaa|R", 17, true, 0},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			out := decode(t, tagged(fixture.FreeformItem("com.apple.iTunes", "iTunEXTC", tt.value)), registry.Request{})
			md := &out.Metadata
			if md.Has("rating_age_classification") != tt.hasAge {
				t.Fatalf("rating_age_classification present = %v, want %v", md.Has("rating_age_classification"), tt.hasAge)
			}
			if tt.hasAge && md.Int("rating_age_classification") != tt.age {
				t.Errorf("rating_age_classification = %d, want %d", md.Int("rating_age_classification"), tt.age)
			}
			if got := md.Int("rating_unit"); got != tt.unit {
				t.Errorf("rating_unit = %d, want %d", got, tt.unit)
			}
		})
	}
}

const moviePlist = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>cast</key>
	<array>
		<dict><key>name</key><string>Ada Lovelace</string></dict>
		<dict><key>name</key><string>Alan Turing</string></dict>
		<dict><key>name</key><string>and more...</string></dict>
	</array>
	<key>directors</key>
	<array>
		<dict><key>name</key><string>Grace Hopper</string></dict>
	</array>
	<key>producers</key>
	<array>
		<dict><key>name</key><string>Edsger Dijkstra</string></dict>
		<dict><key>role</key><string>executive</string></dict>
	</array>
	<key>screenwriters</key>
	<array>
		<dict><key>name</key><string>Barbara Liskov</string></dict>
	</array>
	<key>studio</key>
	<string>Analytical Engines</string>
</dict>
</plist>
`

func TestTags_MovieInfo(t *testing.T) {
	out := decode(t, tagged(fixture.FreeformItem("com.apple.iTunes", "iTunMOVI", moviePlist)), registry.Request{})
	md := &out.Metadata

	tests := []struct {
		key  string
		want []string
	}{
		{"cast", []string{"Ada Lovelace", "Alan Turing"}},
		{"directors", []string{"Grace Hopper"}},
		{"producers", []string{"Edsger Dijkstra"}},
		{"screenwriters", []string{"Barbara Liskov"}},
	}
	for _, tt := range tests {
		v, ok := md.Get(tt.key)
		if !ok {
			t.Errorf("%s missing", tt.key)
			continue
		}
		if got, _ := v.([]string); !slices.Equal(got, tt.want) {
			t.Errorf("%s = %v, want %v", tt.key, v, tt.want)
		}
	}
	if got := md.RawFirst("----:com.apple.iTunes:iTunMOVI"); got != "" {
		t.Errorf("parsed plist also kept raw: %q", got)
	}
	if len(out.Warnings) != 0 {
		t.Errorf("warnings = %v", out.Warnings)
	}
}

func TestTags_MovieInfoNotAPlist(t *testing.T) {
	out := decode(t, tagged(fixture.FreeformItem("com.apple.iTunes", "iTunMOVI", "<?xml version=\"1.0\"?><plist><dict><key>cast")), registry.Request{})
	if out.Metadata.Has("cast") {
		t.Error("cast decoded from a broken property list")
	}
	if got := out.Metadata.RawFirst("----:com.apple.iTunes:iTunMOVI"); got == "" {
		t.Error("broken property list not kept raw")
	}
	if len(out.Warnings) == 0 {
		t.Error("expected a warning")
	}
}

func TestCoverArt(t *testing.T) {
	jpeg := fixture.JPEG(600, 400)
	png := fixture.PNG(32, 32)
	covr := binary.NewWriter().Box("covr", func(w *binary.Writer) {
		w.Box("data", func(w *binary.Writer) { w.U32(13).U32(0).Raw(jpeg) })
		w.Box("data", func(w *binary.Writer) { w.U32(14).U32(0).Raw(png) })
	}).Bytes()

	out := decode(t, tagged(covr, fixture.TextItem("\xA9nam", "x")), registry.Request{})
	art := out.CoverArt
	if art == nil {
		t.Fatal("no cover art")
	}
	if art.MIMEType != "image/jpeg" || art.Width != 600 || art.Height != 400 {
		t.Errorf("cover = %s %dx%d, want image/jpeg 600x400", art.MIMEType, art.Width, art.Height)
	}
	if art.Type != types.ArtworkFrontCover {
		t.Errorf("type = %v, want front cover", art.Type)
	}
	md := &out.Metadata
	if v, _ := md.Get("has_cover_art"); v != true {
		t.Error("has_cover_art not set")
	}
	if md.String("cover_art_dimensions") != "600x400" || md.String("cover_art_mime") != "image/jpeg" {
		t.Errorf("cover keys = %q %q", md.String("cover_art_dimensions"), md.String("cover_art_mime"))
	}
}

func TestCoverArt_CoverOnly(t *testing.T) {
	data := tagged(fixture.Item("covr", 14, fixture.PNG(16, 16)), fixture.TextItem("\xA9nam", "x"))
	out := decode(t, data, registry.Request{CoverOnly: true})
	if out.CoverArt == nil || out.CoverArt.MIMEType != "image/png" {
		t.Fatalf("cover = %+v", out.CoverArt)
	}
	if out.Metadata.Has("title") {
		t.Error("tags decoded for a cover-only request")
	}
	if len(out.Audio) != 0 {
		t.Error("tracks decoded for a cover-only request")
	}
}

func TestCoverArt_SizeLimit(t *testing.T) {
	data := tagged(fixture.Item("covr", 13, fixture.JPEG(10, 10)))
	out := decode(t, data, registry.Request{MaxArtworkSize: 8})
	if out.CoverArt != nil {
		t.Error("oversized picture accepted")
	}
	if len(out.Warnings) == 0 {
		t.Error("expected a warning for the oversized picture")
	}
}

func TestHandlerName(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want string
	}{
		{"c string", []byte("SoundHandler\x00"), "SoundHandler"},
		{"pascal", append([]byte{5}, "Apple"...), "Apple"},
		{"pascal with padding", append([]byte{5}, "Apple\x00\x00"...), "Apple"},
		{"empty", nil, ""},
		{"only nul", []byte{0}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := handlerName(tt.in); got != tt.want {
				t.Errorf("handlerName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestDecodeLanguage(t *testing.T) {
	tests := []struct {
		code uint16
		want string
	}{
		{fixture.PackLanguage("eng"), "eng"},
		{fixture.PackLanguage("und"), "und"},
		{0, "und"},
		{0x7FFF, "und"},
	}
	for _, tt := range tests {
		if got := decodeLanguage(tt.code); got != tt.want {
			t.Errorf("decodeLanguage(%#x) = %q, want %q", tt.code, got, tt.want)
		}
	}
}
