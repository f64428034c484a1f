package id3

import (
	"strconv"
	"strings"

	"github.com/simonhull/metaspector/internal/registry"
	"github.com/simonhull/metaspector/internal/types"
)

type keyKind int

const (
	kindText keyKind = iota
	kindInt
	kindPair
	kindGenre
	kindBool
)

type frameKey struct {
	key  string
	kind keyKind
}

// frameKeys maps text frame ids to metadata keys.
var frameKeys = map[string]frameKey{
	"TIT1": {"grouping", kindText},
	"TIT2": {"title", kindText},
	"TIT3": {"subtitle", kindText},
	"TPE1": {"artist", kindText},
	"TPE2": {"album_artist", kindText},
	"TPE3": {"conductor", kindText},
	"TPE4": {"remixer", kindText},
	"TALB": {"album", kindText},
	"TCOM": {"composer", kindText},
	"TEXT": {"lyricist", kindText},
	"TCON": {"genre", kindGenre},
	"TDRC": {"release_date", kindText},
	"TYER": {"release_date", kindText},
	"TDOR": {"original_release_date", kindText},
	"TORY": {"original_release_date", kindText},
	"TRCK": {"track", kindPair},
	"TPOS": {"disc", kindPair},
	"TENC": {"encoder", kindText},
	"TSSE": {"encoder", kindText},
	"TCOP": {"copyright", kindText},
	"TPUB": {"publisher", kindText},
	"TSOP": {"sort_artist", kindText},
	"TSOT": {"sort_title", kindText},
	"TSOA": {"sort_album", kindText},
	"TSO2": {"sort_album_artist", kindText},
	"TSOC": {"sort_composer", kindText},
	"TMPO": {"tempo", kindInt},
	"TBPM": {"tempo", kindInt},
	"TSRC": {"isrc", kindText},
	"TLEN": {"length", kindInt},
	"TLAN": {"language", kindText},
	"TKEY": {"initial_key", kindText},
	"TMED": {"media_type", kindText},
	"TCMP": {"compilation", kindBool},
}

// txxxKeys maps upper-cased TXXX descriptions to metadata keys. Other
// descriptions are stored under their lower-cased form.
var txxxKeys = map[string]string{
	"REPLAYGAIN_TRACK_GAIN": "replaygain_track_gain",
	"REPLAYGAIN_TRACK_PEAK": "replaygain_track_peak",
	"REPLAYGAIN_ALBUM_GAIN": "replaygain_album_gain",
	"REPLAYGAIN_ALBUM_PEAK": "replaygain_album_peak",
	"ORGANIZATION":          "record_company",
	"LABEL":                 "record_company",
	"BARCODE":               "barcode",
	"CUSTOM_BARCODE":        "barcode",
	"UPC":                   "upc",
	"MEDIA":                 "media_type",
	"DESCRIPTION":           "description",
	"CATALOGNUMBER":         "catalog_number",
	"ISRC":                  "isrc",
	"CUSTOM_ISRC":           "isrc",
	"COMMENT":               "comment",
	"DATE":                  "release_date",
	"PERFORMER":             "performer",
	"CM/REPUBLIC":           "publisher",
	"TSSE":                  "encoder",
	"CUSTOM_TRACKTOTAL":     "track_total",
	"CUSTOM_DISCTOTAL":      "disc_total",
	"CUSTOM_BPM":            "tempo",
	"ARTISTS":               "artists",
}

// Apply folds a tag into out: its warnings always, its frames into the
// metadata section when req wants it, and its front cover (or first
// picture) when req wants cover art.
func Apply(t *Tag, out *types.UnifiedMetadata, req registry.Request) {
	out.Warnings = append(out.Warnings, t.Warnings...)

	if req.WantsCover() {
		applyCover(t, out, req.MaxArtworkSize)
	}
	if !req.Wants(types.SectionMetadata) {
		return
	}
	md := &out.Metadata
	for _, f := range t.Frames {
		switch {
		case f.ID == "TXXX":
			applyUserText(md, f)
		case f.ID == "COMM":
			applyComment(md, f)
		case f.ID == "USLT":
			applyLyrics(md, f)
		case f.ID == "WXXX":
			// user URL: description then a Latin-1 URL
			if len(f.Payload) > 1 {
				desc, rest, _ := splitTerminated(f.Payload[0], f.Payload[1:])
				md.AddRaw("WXXX:"+decodeText(f.Payload[0], desc), latin1(rest))
			}
		case strings.HasPrefix(f.ID, "W"):
			md.AddRaw(f.ID, latin1(f.Payload))
		case strings.HasPrefix(f.ID, "T"):
			applyText(md, f)
		}
	}
}

func applyText(md *types.Metadata, f Frame) {
	if len(f.Payload) < 1 {
		return
	}
	values := decodeValues(f.Payload[0], f.Payload[1:])
	if len(values) == 0 {
		return
	}

	k, ok := frameKeys[f.ID]
	if !ok {
		md.AddRaw(f.ID, values...)
		return
	}
	switch k.kind {
	case kindText:
		md.Set(k.key, strings.Join(values, "; "))
	case kindInt:
		if n, err := strconv.ParseFloat(values[0], 64); err == nil {
			md.SetInt(k.key, int(n))
		}
	case kindPair:
		md.SetPair(k.key, values[0])
	case kindGenre:
		var names []string
		for _, v := range values {
			if g := resolveGenre(v); g != "" {
				names = append(names, g)
			}
		}
		md.Set(k.key, strings.Join(names, "; "))
	case kindBool:
		md.Set(k.key, values[0] == "1")
	}
}

// applyUserText decodes TXXX: encoding, description, value.
func applyUserText(md *types.Metadata, f Frame) {
	if len(f.Payload) < 2 {
		return
	}
	enc := f.Payload[0]
	desc, rest, ok := splitTerminated(enc, f.Payload[1:])
	if !ok {
		return
	}
	name := strings.TrimSpace(decodeText(enc, desc))
	values := decodeValues(enc, rest)
	if name == "" || len(values) == 0 {
		return
	}
	value := strings.Join(values, "; ")

	upper := strings.ToUpper(name)
	if key, ok := txxxKeys[upper]; ok {
		switch key {
		case "track_total", "disc_total", "tempo":
			md.SetNumberOrString(key, value)
		default:
			md.Set(key, value)
		}
		return
	}
	md.SetIfAbsent(strings.ToLower(name), value)
}

// applyComment decodes COMM: encoding, language, description, text. The
// first comment without a description is the comment; described ones
// (iTunNORM, iTunSMPB, ...) go to raw.
func applyComment(md *types.Metadata, f Frame) {
	if len(f.Payload) < 4 {
		return
	}
	enc := f.Payload[0]
	desc, text, ok := splitTerminated(enc, f.Payload[4:])
	if !ok {
		text, desc = desc, nil
	}
	value := strings.TrimSpace(decodeText(enc, text))
	if value == "" {
		return
	}
	name := strings.TrimSpace(decodeText(enc, desc))
	if name == "" {
		md.SetIfAbsent("comment", value)
		return
	}
	md.AddRaw("COMM:"+name, value)
}

// applyLyrics decodes USLT, which shares the COMM layout.
func applyLyrics(md *types.Metadata, f Frame) {
	if len(f.Payload) < 4 {
		return
	}
	enc := f.Payload[0]
	_, text, ok := splitTerminated(enc, f.Payload[4:])
	if !ok {
		text = f.Payload[4:]
	}
	lyrics := decodeText(enc, text)
	lyrics = strings.ReplaceAll(lyrics, "\r\n", "\n")
	lyrics = strings.ReplaceAll(lyrics, "\r", "\n")
	md.SetIfAbsent("lyrics", strings.TrimSpace(lyrics))
}
