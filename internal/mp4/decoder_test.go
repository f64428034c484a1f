package mp4

import (
	"bytes"
	"errors"
	"slices"
	"testing"

	"github.com/simonhull/metaspector/internal/binary"
	"github.com/simonhull/metaspector/internal/fixture"
	"github.com/simonhull/metaspector/internal/registry"
	"github.com/simonhull/metaspector/internal/types"
)

func decode(t *testing.T, data []byte, req registry.Request) *types.UnifiedMetadata {
	t.Helper()
	sr := binary.NewSafeReader(bytes.NewReader(data), int64(len(data)), "test.mp4")
	out, err := (&decoder{}).Decode(sr, req)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	return out
}

// aacLC is an AudioSpecificConfig for AAC-LC, 44.1 kHz, stereo.
var aacLC = []byte{0x12, 0x10}

func videoTrack() fixture.Track {
	return fixture.Track{
		ID:          1,
		Handler:     "vide",
		HandlerName: "VideoHandler",
		Language:    "und",
		Timescale:   600,
		Duration:    6000,
		Width:       1920,
		Height:      1080,
		Entry:       fixture.VisualEntry("avc1", 1920, 1080, fixture.AVCC(100, 41)),
		SampleSizes: []uint32{50000, 25000, 25000},
	}
}

func audioTrack() fixture.Track {
	return fixture.Track{
		ID:          2,
		Handler:     "soun",
		HandlerName: "SoundHandler",
		Language:    "eng",
		Timescale:   44100,
		Duration:    441000,
		Entry:       fixture.AudioEntry("mp4a", 2, 16, 44100, fixture.ESDS(0x40, 128000, aacLC)),
		SampleSizes: []uint32{100000, 60000},
	}
}

func TestDecode_VideoAndTitle(t *testing.T) {
	data := fixture.Movie{
		Timescale: 1000,
		Duration:  10000,
		Tracks:    []fixture.Track{videoTrack()},
		Items:     fixture.TextItem("\xA9nam", "Test"),
	}.Bytes()

	out := decode(t, data, registry.Request{})

	if got := out.Metadata.String("title"); got != "Test" {
		t.Errorf("title = %q, want %q", got, "Test")
	}
	if got := out.Metadata.Int("length"); got != 10000 {
		t.Errorf("length = %d, want 10000", got)
	}
	if len(out.Video) != 1 {
		t.Fatalf("expected 1 video track, got %d", len(out.Video))
	}
	v := out.Video[0]
	if v.Codec != "AVC" || v.CodecTag != "avc1" {
		t.Errorf("codec = %q (%q), want AVC (avc1)", v.Codec, v.CodecTag)
	}
	if v.Width != 1920 || v.Height != 1080 {
		t.Errorf("size = %dx%d, want 1920x1080", v.Width, v.Height)
	}
	if v.Profile != "High@L4.1" {
		t.Errorf("profile = %q, want High@L4.1", v.Profile)
	}
	if v.BitDepth != 8 {
		t.Errorf("bit depth = %d, want 8", v.BitDepth)
	}
	if v.HDRFormat != "SDR" {
		t.Errorf("hdr format = %q, want SDR", v.HDRFormat)
	}
	if v.TrackID != 1 || v.HandlerName != "VideoHandler" || v.Language != "und" {
		t.Errorf("track header fields = %+v", v)
	}
	if v.DurationSeconds != 10 || v.TotalSamples != 3 {
		t.Errorf("duration %v samples %d, want 10 and 3", v.DurationSeconds, v.TotalSamples)
	}
	// 100000 bytes over 10 s
	if v.BitrateKbps != 80 {
		t.Errorf("bitrate = %d, want 80", v.BitrateKbps)
	}
	if len(out.Audio) != 0 || len(out.Subtitle) != 0 {
		t.Errorf("unexpected tracks: %d audio, %d subtitle", len(out.Audio), len(out.Subtitle))
	}
	if len(out.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", out.Warnings)
	}
}

func TestDecode_AudioTrack(t *testing.T) {
	data := fixture.Movie{Timescale: 1000, Duration: 10000, Tracks: []fixture.Track{audioTrack()}}.Bytes()
	out := decode(t, data, registry.Request{})

	if len(out.Audio) != 1 {
		t.Fatalf("expected 1 audio track, got %d", len(out.Audio))
	}
	a := out.Audio[0]
	if a.Codec != "AAC" || a.CodecProfile != "AAC-LC" {
		t.Errorf("codec = %q/%q, want AAC/AAC-LC", a.Codec, a.CodecProfile)
	}
	if a.Channels != 2 || a.ChannelLayout != "2.0" || a.SampleRate != 44100 {
		t.Errorf("channels %d (%s) rate %d", a.Channels, a.ChannelLayout, a.SampleRate)
	}
	if a.BitsPerSample != 0 {
		t.Errorf("bits per sample = %d for a compressed codec, want 0", a.BitsPerSample)
	}
	if a.Language != "eng" {
		t.Errorf("language = %q, want eng", a.Language)
	}
	// 160000 bytes over 10 s
	if a.BitrateKbps != 128 {
		t.Errorf("bitrate = %d, want 128", a.BitrateKbps)
	}
}

func TestDecode_SectionScope(t *testing.T) {
	data := fixture.Movie{
		Timescale: 1000,
		Duration:  10000,
		Tracks:    []fixture.Track{videoTrack(), audioTrack()},
		Items:     fixture.TextItem("\xA9nam", "Test"),
	}.Bytes()

	out := decode(t, data, registry.Request{Scoped: true, Section: types.SectionAudio})
	if len(out.Audio) != 1 {
		t.Fatalf("expected 1 audio track, got %d", len(out.Audio))
	}
	if len(out.Video) != 0 {
		t.Errorf("video section not empty: %+v", out.Video)
	}
	if !out.Metadata.Empty() {
		t.Errorf("metadata section not empty: %v", out.Metadata.Keys())
	}
}

func TestDecode_TrackIndexPerKind(t *testing.T) {
	second := audioTrack()
	second.ID = 3
	data := fixture.Movie{Tracks: []fixture.Track{audioTrack(), videoTrack(), second}}.Bytes()
	out := decode(t, data, registry.Request{})

	if len(out.Audio) != 2 || len(out.Video) != 1 {
		t.Fatalf("got %d audio, %d video", len(out.Audio), len(out.Video))
	}
	if out.Audio[0].Index != 0 || out.Audio[1].Index != 1 || out.Video[0].Index != 0 {
		t.Errorf("indices = %d, %d, %d", out.Audio[0].Index, out.Audio[1].Index, out.Video[0].Index)
	}
	if out.Audio[1].TrackID != 3 {
		t.Errorf("second audio track id = %d, want 3", out.Audio[1].TrackID)
	}
}

func TestDecode_NoMoov(t *testing.T) {
	data := binary.NewWriter().
		Box("ftyp", func(w *binary.Writer) { w.String("isom").U32(0) }).
		Box("mdat", func(w *binary.Writer) { w.Zero(64) }).
		Bytes()
	sr := binary.NewSafeReader(bytes.NewReader(data), int64(len(data)), "test.mp4")
	_, err := (&decoder{}).Decode(sr, registry.Request{})
	if !errors.Is(err, types.ErrNotAMediaFile) {
		t.Errorf("Decode() error = %v, want ErrNotAMediaFile", err)
	}
}

func TestDecode_MoovCutOff(t *testing.T) {
	data := fixture.Movie{Tracks: []fixture.Track{videoTrack()}}.Bytes()
	ftypLen := 8 + 4 + 4 + 12
	sr := binary.NewSafeReader(bytes.NewReader(data[:ftypLen+4]), int64(ftypLen+4), "test.mp4")
	_, err := (&decoder{}).Decode(sr, registry.Request{})
	if !errors.Is(err, types.ErrTruncatedInput) {
		t.Errorf("Decode() error = %v, want ErrTruncatedInput", err)
	}
}

func TestDecode_MissingSampleDescription(t *testing.T) {
	v := videoTrack()
	v.Entry = nil
	data := fixture.Movie{Tracks: []fixture.Track{v, audioTrack()}}.Bytes()
	out := decode(t, data, registry.Request{})

	if len(out.Video) != 1 {
		t.Fatalf("expected the video track to survive, got %d", len(out.Video))
	}
	if out.Video[0].Codec != "unknown" {
		t.Errorf("codec = %q, want unknown", out.Video[0].Codec)
	}
	if len(out.Audio) != 1 || out.Audio[0].Codec != "AAC" {
		t.Errorf("audio track damaged by sibling: %+v", out.Audio)
	}
	if len(out.Warnings) == 0 {
		t.Error("expected a warning for the missing stsd")
	}
}

func TestDecode_SubtitleTrack(t *testing.T) {
	sub := fixture.Track{
		ID:          3,
		Handler:     "sbtl",
		Language:    "fra",
		ExtLanguage: "fr-CA",
		Timescale:   1000,
		Duration:    5000,
		Entry:       fixture.TextEntry("tx3g"),
		UserData: slices.Concat(
			fixture.Box("tagc", []byte("public.subtitles.forced-only")),
			fixture.Box("name", []byte("Forced French")),
		),
	}
	data := fixture.Movie{Tracks: []fixture.Track{sub}}.Bytes()
	out := decode(t, data, registry.Request{})

	if len(out.Subtitle) != 1 {
		t.Fatalf("expected 1 subtitle track, got %d", len(out.Subtitle))
	}
	s := out.Subtitle[0]
	if s.Codec != "tx3g" || s.Language != "fra" || s.I18nLanguage != "fr-CA" {
		t.Errorf("subtitle = %+v", s)
	}
	if !s.ForcedOnly || !slices.Contains(s.Characteristics, "public.subtitles.forced-only") {
		t.Errorf("forced flag %v, characteristics %v", s.ForcedOnly, s.Characteristics)
	}
	if s.HandlerName != "Forced French" {
		t.Errorf("handler name = %q, want %q", s.HandlerName, "Forced French")
	}
}

func TestDecode_DefaultHandlerName(t *testing.T) {
	a := audioTrack()
	a.HandlerName = ""
	out := decode(t, fixture.Movie{Tracks: []fixture.Track{a}}.Bytes(), registry.Request{})
	if out.Audio[0].HandlerName != "Audio" {
		t.Errorf("handler name = %q, want Audio", out.Audio[0].HandlerName)
	}
}

func TestDecode_ChapterTrackExcluded(t *testing.T) {
	a := audioTrack()
	a.Chapters = []uint32{9}
	chapters := fixture.Track{ID: 9, Handler: "text", Timescale: 1000, Duration: 1000, Entry: fixture.TextEntry("text")}
	out := decode(t, fixture.Movie{Tracks: []fixture.Track{a, chapters}}.Bytes(), registry.Request{})
	if len(out.Subtitle) != 0 {
		t.Errorf("chapter track listed as subtitle: %+v", out.Subtitle)
	}
}

func TestDecode_HDRAndDolbyVision(t *testing.T) {
	word := uint16(8)<<9 | uint16(6)<<3 | 1<<2 | 1
	dvcC := fixture.Box("dvcC", binary.NewWriter().U8(1).U8(0).U16(word).U8(0x10).Zero(19).Bytes())
	hvcC := fixture.Box("hvcC", binary.NewWriter().
		U8(1).U8(0x02). // Main 10, main tier
		U32(0).Zero(6).U8(153).
		U16(0xF000).U8(0xFC).U8(0xFD).U8(0xFA).U8(0xFA).
		Zero(4).Bytes())
	v := videoTrack()
	v.Entry = fixture.VisualEntry("hvc1", 3840, 2160,
		hvcC,
		fixture.Colr(9, 16, 9, false),
		fixture.Box("mdcv", make([]byte, 24)),
		dvcC,
	)
	out := decode(t, fixture.Movie{Tracks: []fixture.Track{v}}.Bytes(), registry.Request{})
	got := out.Video[0]

	if got.Codec != "HEVC" || got.BitDepth != 10 {
		t.Errorf("codec %q depth %d, want HEVC and 10", got.Codec, got.BitDepth)
	}
	if got.ColorPrimaries != "bt2020" || got.TransferCharacteristics != "smpte2084" || got.ColorRange != "tv" {
		t.Errorf("colour = %s/%s/%s", got.ColorPrimaries, got.TransferCharacteristics, got.ColorRange)
	}
	if !got.DolbyVision || got.DolbyVisionProfile != 8 || got.DolbyVisionLevel != 6 || !got.DolbyVisionSDRCompatible {
		t.Errorf("dolby vision fields = %+v", got)
	}
	if got.HDRFormat != "HDR10, Dolby Vision" {
		t.Errorf("hdr format = %q", got.HDRFormat)
	}
}

func TestDecode_AtmosFromFirstSample(t *testing.T) {
	// dec3 without the JOC extension; the marker is only in the sample.
	dec3 := fixture.Box("dec3", []byte{0x18, 0x00, 0x20, 0x0F, 0x00})
	a := fixture.Track{
		ID:        1,
		Handler:   "soun",
		Timescale: 48000,
		Duration:  48000,
		Entry:     fixture.AudioEntry("ec-3", 2, 16, 48000, dec3),
		Sample:    []byte{0x0B, 0x77, 0x00, 0x00, 0x03, 0xBB, 0xBB, 0x81, 0x00},
	}
	out := decode(t, fixture.Movie{Tracks: []fixture.Track{a}}.Bytes(), registry.Request{})
	got := out.Audio[0]
	if got.Codec != "E-AC-3" || got.Channels != 6 || got.ChannelLayout != "5.1" {
		t.Errorf("codec %q channels %d layout %q", got.Codec, got.Channels, got.ChannelLayout)
	}
	if !got.DolbyAtmos {
		t.Error("JOC marker in first sample not detected")
	}

	a.Sample = []byte{0x0B, 0x77, 0x00, 0x00, 0x00}
	out = decode(t, fixture.Movie{Tracks: []fixture.Track{a}}.Bytes(), registry.Request{})
	if out.Audio[0].DolbyAtmos {
		t.Error("Atmos reported without JOC signalling")
	}
}

func TestDecode_TruncatedNeverPanics(t *testing.T) {
	data := fixture.Movie{
		Timescale: 1000,
		Duration:  10000,
		Tracks:    []fixture.Track{videoTrack(), audioTrack()},
		Items:     slices.Concat(fixture.TextItem("\xA9nam", "Test"), fixture.Item("covr", 13, fixture.JPEG(8, 8))),
	}.Bytes()
	for n := 0; n < len(data); n++ {
		sr := binary.NewSafeReader(bytes.NewReader(data[:n]), int64(n), "test.mp4")
		out, err := (&decoder{}).Decode(sr, registry.Request{})
		if err != nil {
			if !errors.Is(err, types.ErrTruncatedInput) && !errors.Is(err, types.ErrMalformedContainer) && !errors.Is(err, types.ErrNotAMediaFile) {
				t.Fatalf("cut at %d: unexpected error %v", n, err)
			}
			continue
		}
		if len(out.Video) > 1 || len(out.Audio) > 1 {
			t.Fatalf("cut at %d: more tracks than the full file", n)
		}
		if title := out.Metadata.String("title"); title != "" && title != "Test" {
			t.Fatalf("cut at %d: title %q", n, title)
		}
		if out.CoverArt != nil && !bytes.Equal(out.CoverArt.Data, fixture.JPEG(8, 8)) {
			t.Fatalf("cut at %d: cover art of %d bytes, want the full picture or none", n, len(out.CoverArt.Data))
		}
	}
}

func FuzzDecode(f *testing.F) {
	f.Add(fixture.Movie{Tracks: []fixture.Track{videoTrack(), audioTrack()}, Items: fixture.TextItem("\xA9nam", "x")}.Bytes())
	f.Add([]byte("\x00\x00\x00\x08moov"))
	f.Fuzz(func(t *testing.T, data []byte) {
		if len(data) > 1<<20 {
			return
		}
		sr := binary.NewSafeReader(bytes.NewReader(data), int64(len(data)), "fuzz.mp4")
		_, _ = (&decoder{}).Decode(sr, registry.Request{})
	})
}
