// Package codec classifies ISO-BMFF sample entries.
//
// The classification table is built at package initialization and never
// written afterwards, so it is safe for concurrent use without locking.
// Classification never fails: unknown codes degrade to CategoryUnknown with
// the raw code as the name.
package codec

import "strings"

// Category is the broad kind of a codec.
type Category int

const (
	CategoryUnknown Category = iota
	CategoryVideo
	CategoryAudio
	CategorySubtitle
)

func (c Category) String() string {
	switch c {
	case CategoryVideo:
		return "video"
	case CategoryAudio:
		return "audio"
	case CategorySubtitle:
		return "subtitle"
	}
	return "unknown"
}

// Info is the outcome of classifying one sample entry.
type Info struct {
	Name        string
	Category    Category
	DolbyVision bool
	DolbyAtmos  bool
}

type entry struct {
	name     string
	category Category
	dv       bool
}

var table = map[string]entry{
	// Video
	"avc1": {"AVC", CategoryVideo, false},
	"avc3": {"AVC", CategoryVideo, false},
	"hvc1": {"HEVC", CategoryVideo, false},
	"hev1": {"HEVC", CategoryVideo, false},
	"av01": {"AV1", CategoryVideo, false},
	"vp08": {"VP8", CategoryVideo, false},
	"vp09": {"VP9", CategoryVideo, false},
	"mp4v": {"MPEG-4 Visual", CategoryVideo, false},
	"s263": {"H.263", CategoryVideo, false},
	"jpeg": {"Motion JPEG", CategoryVideo, false},
	"apch": {"ProRes", CategoryVideo, false},
	"apcn": {"ProRes", CategoryVideo, false},
	"apcs": {"ProRes", CategoryVideo, false},
	"apco": {"ProRes", CategoryVideo, false},
	"ap4h": {"ProRes", CategoryVideo, false},

	// Dolby Vision sample entries carry the base-layer codec
	"dvh1": {"HEVC", CategoryVideo, true},
	"dvhe": {"HEVC", CategoryVideo, true},
	"dva1": {"AVC", CategoryVideo, true},
	"dvav": {"AVC", CategoryVideo, true},
	"dav1": {"AV1", CategoryVideo, true},

	// Audio
	"mp4a": {"AAC", CategoryAudio, false},
	"ac-3": {"AC-3", CategoryAudio, false},
	"ec-3": {"E-AC-3", CategoryAudio, false},
	"ac-4": {"AC-4", CategoryAudio, false},
	"fLaC": {"FLAC", CategoryAudio, false},
	"flac": {"FLAC", CategoryAudio, false},
	"alac": {"ALAC", CategoryAudio, false},
	"Opus": {"Opus", CategoryAudio, false},
	"opus": {"Opus", CategoryAudio, false},
	"mp3 ": {"MP3", CategoryAudio, false},
	".mp3": {"MP3", CategoryAudio, false},
	"mha1": {"MPEG-H 3D Audio", CategoryAudio, false},
	"mhm1": {"MPEG-H 3D Audio", CategoryAudio, false},
	"dtsc": {"DTS", CategoryAudio, false},
	"dtsh": {"DTS-HD", CategoryAudio, false},
	"dtsl": {"DTS-HD MA", CategoryAudio, false},
	"dtse": {"DTS Express", CategoryAudio, false},
	"lpcm": {"PCM", CategoryAudio, false},
	"ipcm": {"PCM", CategoryAudio, false},
	"sowt": {"PCM", CategoryAudio, false},
	"twos": {"PCM", CategoryAudio, false},

	// Subtitles and captions
	"tx3g": {"tx3g", CategorySubtitle, false},
	"c608": {"CEA-608", CategorySubtitle, false},
	"c708": {"CEA-708", CategorySubtitle, false},
	"mp4s": {"mp4s", CategorySubtitle, false},
	"sbtl": {"sbtl", CategorySubtitle, false},
	"clcp": {"Closed Caption", CategorySubtitle, false},
	"text": {"text", CategorySubtitle, false},
	"wvtt": {"WebVTT", CategorySubtitle, false},
	"stpp": {"TTML", CategorySubtitle, false},
	"subp": {"VobSub", CategorySubtitle, false},
}

// dolbyVisionBoxes are the configuration records that mark an enhancement layer.
var dolbyVisionBoxes = []string{"dvcC", "dvvC", "dvwC"}

// IsDolbyVisionFourCC reports whether the sample entry code itself signals Dolby Vision.
func IsDolbyVisionFourCC(fourcc string) bool {
	return table[fourcc].dv
}

// Lookup returns the table entry for a code without inspecting any configuration.
func Lookup(fourcc string) (name string, category Category, ok bool) {
	e, ok := table[fourcc]
	if !ok {
		return strings.TrimSpace(fourcc), CategoryUnknown, false
	}
	return e.name, e.category, true
}

// Classify maps a sample entry code and the configuration boxes that follow
// its fixed header to a codec identity.
//
// config may be nil. Malformed configuration is ignored rather than reported.
func Classify(fourcc string, config []byte) Info {
	name, category, _ := Lookup(fourcc)
	info := Info{
		Name:        name,
		Category:    category,
		DolbyVision: IsDolbyVisionFourCC(fourcc),
	}
	if info.Name == "" {
		info.Name = "unknown"
	}

	boxes := ParseConfig(config)
	for _, typ := range dolbyVisionBoxes {
		if boxes.Has(typ) {
			info.DolbyVision = true
		}
	}

	switch fourcc {
	case "mp4a":
		if esds, ok := boxes.Find("esds"); ok {
			if d, err := ParseESDS(esds); err == nil {
				info.Name = d.CodecName()
			}
		}
	case "ec-3":
		if dec3, ok := boxes.Find("dec3"); ok {
			if c, err := ParseEAC3(dec3); err == nil && c.Atmos() {
				info.DolbyAtmos = true
			}
		}
	}
	return info
}
