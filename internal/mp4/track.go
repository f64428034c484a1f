package mp4

import (
	"bytes"
	"strings"

	"github.com/simonhull/metaspector/internal/binary"
	"github.com/simonhull/metaspector/internal/types"
)

// track is what one trak box says about its stream, before it is turned
// into a typed record.
type track struct {
	box  int
	stbl int

	id          uint32
	kind        types.TrackKind
	handlerType string
	name        string
	language    string
	i18n        string
	timescale   uint32
	duration    uint64
	width       int // tkhd presentation size, integer part
	height      int

	characteristics []string
	forcedOnly      bool

	samples samples
}

// seconds returns the media duration.
func (t *track) seconds() float64 {
	if t.timescale == 0 {
		return 0
	}
	return float64(t.duration) / float64(t.timescale)
}

// bitrateKbps derives the average bitrate from the sample sizes.
func (t *track) bitrateKbps() int {
	secs := t.seconds()
	if secs <= 0 || t.samples.bytes == 0 {
		return 0
	}
	return int(float64(t.samples.bytes) * 8 / secs / 1000)
}

// handlerKinds maps hdlr handler types to track kinds.
var handlerKinds = map[string]types.TrackKind{
	"vide": types.TrackVideo,
	"soun": types.TrackAudio,
	"sbtl": types.TrackSubtitle,
	"subt": types.TrackSubtitle,
	"text": types.TrackSubtitle,
	"clcp": types.TrackSubtitle,
	"subp": types.TrackSubtitle,
}

var defaultHandlerNames = map[types.TrackKind]string{
	types.TrackVideo:    "Video",
	types.TrackAudio:    "Audio",
	types.TrackSubtitle: "Subtitle",
}

// sectionOf maps a track kind to the output section it fills.
func sectionOf(k types.TrackKind) types.Section {
	switch k {
	case types.TrackVideo:
		return types.SectionVideo
	case types.TrackSubtitle:
		return types.SectionSubtitle
	}
	return types.SectionAudio
}

// parseTracks builds one record per wanted trak.
func (m *movie) parseTracks() {
	chapters := m.chapterTrackIDs()

	for _, trak := range m.tree.FindAll(m.moov, "trak") {
		t, ok := m.readTrack(trak)
		if !ok {
			continue
		}
		if t.id != 0 && chapters[t.id] {
			continue
		}

		switch t.kind {
		case types.TrackVideo:
			v := m.videoTrack(t)
			v.Index = len(m.out.Video)
			m.out.Video = append(m.out.Video, v)
		case types.TrackAudio:
			a := m.audioTrack(t)
			a.Index = len(m.out.Audio)
			m.out.Audio = append(m.out.Audio, a)
		case types.TrackSubtitle:
			s := m.subtitleTrack(t)
			s.Index = len(m.out.Subtitle)
			m.out.Subtitle = append(m.out.Subtitle, s)
		}
	}
}

// chapterTrackIDs collects the tracks referenced as chapter lists. Those
// carry chapter titles or images, not a stream of their own.
func (m *movie) chapterTrackIDs() map[uint32]bool {
	ids := make(map[uint32]bool)
	for _, trak := range m.tree.FindAll(m.moov, "trak") {
		chap := m.tree.Path(trak, "tref", "chap")
		if chap < 0 {
			continue
		}
		c, err := m.tree.Payload(m.sr, chap)
		if err != nil {
			continue
		}
		for c.Remaining() >= 4 {
			id, err := c.U32("chapter track id")
			if err != nil {
				break
			}
			ids[id] = true
		}
	}
	return ids
}

// readTrack reads the headers of one trak. It reports false for tracks of
// a kind the request does not want and for handlers that are not streams
// (hint, timecode, metadata).
func (m *movie) readTrack(trak int) (*track, bool) {
	t := &track{box: trak, language: "und"}

	mdia := m.tree.Find(trak, "mdia")
	if mdia < 0 {
		m.out.Warn("boxes", m.tree.Nodes[trak].Offset, types.KindMalformedContainer, "trak without mdia")
		return nil, false
	}

	hdlr := m.tree.Find(mdia, "hdlr")
	if hdlr < 0 {
		m.out.Warn("boxes", m.tree.Nodes[mdia].Offset, types.KindMalformedContainer, "mdia without hdlr")
		return nil, false
	}
	if err := m.readHandler(hdlr, t); err != nil {
		m.out.WarnErr("boxes", err)
		return nil, false
	}

	var ok bool
	t.kind, ok = handlerKinds[t.handlerType]
	if !ok || !m.req.Wants(sectionOf(t.kind)) {
		return nil, false
	}
	stage := t.kind.String()

	if tkhd := m.tree.Find(trak, "tkhd"); tkhd >= 0 {
		m.out.WarnErr(stage, m.readTrackHeader(tkhd, t))
	}
	if mdhd := m.tree.Find(mdia, "mdhd"); mdhd >= 0 {
		m.out.WarnErr(stage, m.readMediaHeader(mdhd, t))
	}
	if elng := m.tree.Find(mdia, "elng"); elng >= 0 {
		m.out.WarnErr(stage, m.readExtendedLanguage(elng, t))
	}
	if udta := m.tree.Find(trak, "udta"); udta >= 0 {
		m.readTrackUserData(udta, t)
	}
	if t.name == "" {
		t.name = defaultHandlerNames[t.kind]
	}

	t.stbl = m.tree.Path(mdia, "minf", "stbl")
	if t.stbl >= 0 {
		s, err := m.readSampleSizes(t.stbl)
		m.out.WarnErr(stage, err)
		t.samples = s
	}
	return t, true
}

// readHandler reads the handler type and name from hdlr.
func (m *movie) readHandler(idx int, t *track) error {
	c, err := m.tree.Payload(m.sr, idx)
	if err != nil {
		return err
	}
	ch := binary.NewChain(c)
	ch.Skip(8) // version, flags, pre_defined
	t.handlerType = ch.String(4, "handler type")
	ch.Skip(12)
	if err := ch.Err(); err != nil {
		return err
	}
	rest, err := c.Rest("handler name")
	if err != nil {
		return err
	}
	t.name = handlerName(rest)
	return nil
}

// handlerName decodes the hdlr name, which is a C string in ISO files and
// a Pascal string in QuickTime ones.
func handlerName(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	if n := int(b[0]); n > 0 && n < len(b) && (n == len(b)-1 || n < 0x20) {
		b = b[1 : n+1]
	}
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return strings.TrimSpace(string(b))
}

// readTrackHeader reads the track id and presentation size from tkhd.
func (m *movie) readTrackHeader(idx int, t *track) error {
	c, err := m.tree.Payload(m.sr, idx)
	if err != nil {
		return err
	}
	ch := binary.NewChain(c)
	version := ch.U8("tkhd version")
	ch.Skip(3)
	if version == 1 {
		ch.Skip(16)
	} else {
		ch.Skip(8)
	}
	t.id = ch.U32("tkhd track id")
	if err := ch.Err(); err != nil {
		return err
	}

	// reserved, duration, reserved, layer, alternate group, volume,
	// reserved, matrix
	if version == 1 {
		ch.Skip(4 + 8 + 8 + 8 + 36)
	} else {
		ch.Skip(4 + 4 + 8 + 8 + 36)
	}
	w := ch.U32("tkhd width")
	h := ch.U32("tkhd height")
	if ch.Err() == nil {
		t.width, t.height = int(w>>16), int(h>>16)
	}
	return nil
}

// readMediaHeader reads the timescale, duration and language from mdhd.
func (m *movie) readMediaHeader(idx int, t *track) error {
	c, err := m.tree.Payload(m.sr, idx)
	if err != nil {
		return err
	}
	ch := binary.NewChain(c)
	t.timescale, t.duration = readTiming(ch, "mdhd")
	lang := ch.U16("mdhd language")
	if err := ch.Err(); err != nil {
		return err
	}
	t.language = decodeLanguage(lang)
	return nil
}

// decodeLanguage unpacks an ISO-639-2/T code stored as three 5-bit letters.
// Values below 0x400 are Macintosh language codes and map to "und".
func decodeLanguage(code uint16) string {
	if code < 0x400 || code == 0x7FFF {
		return "und"
	}
	b := []byte{
		byte(code>>10&0x1F) + 0x60,
		byte(code>>5&0x1F) + 0x60,
		byte(code&0x1F) + 0x60,
	}
	for _, c := range b {
		if c < 'a' || c > 'z' {
			return "und"
		}
	}
	return string(b)
}

// readExtendedLanguage reads the BCP-47 tag from elng.
func (m *movie) readExtendedLanguage(idx int, t *track) error {
	c, err := m.tree.Payload(m.sr, idx)
	if err != nil {
		return err
	}
	if err := c.Skip(4); err != nil {
		return err
	}
	rest, err := c.Rest("elng tag")
	if err != nil {
		return err
	}
	if i := bytes.IndexByte(rest, 0); i >= 0 {
		rest = rest[:i]
	}
	t.i18n = strings.TrimSpace(string(rest))
	return nil
}

// trackNameBoxes hold a QuickTime user data string naming the track.
var trackNameBoxes = []string{"\xA9nam", "name", "titl"}

// forcedOnly marks subtitle tracks that only carry forced captions.
const forcedOnly = "public.subtitles.forced-only"

// readTrackUserData reads the track name and the tagc characteristics.
func (m *movie) readTrackUserData(udta int, t *track) {
	for _, idx := range m.tree.FindAll(udta, "tagc") {
		b, err := m.tree.PayloadBytes(m.sr, idx, 1024)
		if err != nil {
			m.out.WarnErr(t.kind.String(), err)
			continue
		}
		s := strings.TrimSpace(strings.TrimRight(string(b), "\x00"))
		if s == "" {
			continue
		}
		t.characteristics = append(t.characteristics, s)
		if s == forcedOnly {
			t.forcedOnly = true
		}
	}

	for _, typ := range trackNameBoxes {
		idx := m.tree.Find(udta, typ)
		if idx < 0 {
			continue
		}
		b, err := m.tree.PayloadBytes(m.sr, idx, 4096)
		if err != nil {
			continue
		}
		if name := userDataString(b); name != "" {
			t.name = name
			break
		}
	}

	// An ilst title inside the track's own meta overrides everything.
	if item := m.tree.Path(udta, "meta", "ilst", "\xA9nam"); item >= 0 {
		for _, v := range m.itemData(item) {
			if s := v.text(); s != "" {
				t.name = s
				break
			}
		}
	}
}

// userDataString decodes a QuickTime international text item: a 16-bit
// length and a 16-bit language code ahead of the text. Items that do not
// start with a zero byte are taken as plain text.
func userDataString(b []byte) string {
	if len(b) > 4 && b[0] == 0 {
		b = b[4:]
	}
	return strings.TrimSpace(strings.TrimRight(string(b), "\x00"))
}
