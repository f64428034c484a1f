package metaspector_test

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/simonhull/metaspector"
	"github.com/simonhull/metaspector/internal/fixture"
)

func inspect(t *testing.T, data []byte, opts ...metaspector.Option) *metaspector.UnifiedMetadata {
	t.Helper()
	md, err := metaspector.Inspect(bytes.NewReader(data), int64(len(data)), opts...)
	if err != nil {
		t.Fatalf("Inspect() error = %v", err)
	}
	return md
}

func movie() []byte {
	return fixture.Movie{
		Timescale: 1000,
		Duration:  10000,
		Tracks: []fixture.Track{
			{
				ID:          1,
				Handler:     "vide",
				Timescale:   600,
				Duration:    6000,
				Width:       1920,
				Height:      1080,
				Entry:       fixture.VisualEntry("avc1", 1920, 1080, fixture.AVCC(100, 41)),
				SampleSizes: []uint32{50000, 25000},
			},
			{
				ID:          2,
				Handler:     "soun",
				Language:    "eng",
				Timescale:   44100,
				Duration:    441000,
				Entry:       fixture.AudioEntry("mp4a", 2, 16, 44100, fixture.ESDS(0x40, 128000, []byte{0x12, 0x10})),
				SampleSizes: []uint32{100000, 60000},
			},
		},
		Items: fixture.TextItem("\xA9nam", "Test"),
	}.Bytes()
}

func mp3File() []byte {
	tag := fixture.ID3Tag(3, 0,
		fixture.TextFrame(3, "TIT2", fixture.Latin1, []byte("Song")),
		fixture.APIC(3, "image/jpeg", 3, "", fixture.JPEG(300, 300)),
	)
	return append(tag, fixture.MPEGFrames(10)...)
}

func flacFile() []byte {
	return fixture.FLAC(make([]byte, 4096),
		fixture.StreamInfo(44100, 2, 16, 441000),
		fixture.VorbisComment("reference libFLAC 1.4.3", "ARTIST=Someone"),
		fixture.Picture(3, "image/png", "", 64, 64, fixture.PNG(64, 64)),
	)
}

func TestInspect_MP4(t *testing.T) {
	md := inspect(t, movie())

	if md.Format != metaspector.FormatMP4 {
		t.Errorf("format = %v", md.Format)
	}
	if got := md.Metadata.String("title"); got != "Test" {
		t.Errorf("title = %q, want Test", got)
	}
	if len(md.Video) != 1 {
		t.Fatalf("video tracks = %d, want 1", len(md.Video))
	}
	if v := md.Video[0]; v.Codec != "AVC" || v.Width != 1920 || v.Height != 1080 {
		t.Errorf("video = %+v", v)
	}
	if len(md.Audio) != 1 || md.Audio[0].Codec != "AAC" {
		t.Errorf("audio = %+v", md.Audio)
	}
}

func TestInspect_MP3(t *testing.T) {
	data := mp3File()
	md := inspect(t, data)
	if got := md.Metadata.String("title"); got != "Song" {
		t.Errorf("title = %q, want Song", got)
	}

	art, err := metaspector.ExtractCoverArt(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("ExtractCoverArt() error = %v", err)
	}
	if art == nil {
		t.Fatal("no cover art")
	}
	if !bytes.HasPrefix(art.Data, []byte{0xFF, 0xD8}) {
		t.Errorf("cover does not start with the JPEG magic: % x", art.Data[:min(4, len(art.Data))])
	}
	if art.MIMEType != "image/jpeg" {
		t.Errorf("mime = %q", art.MIMEType)
	}
}

func TestInspect_FLAC(t *testing.T) {
	md := inspect(t, flacFile())
	if got := md.Metadata.String("artist"); got != "Someone" {
		t.Errorf("artist = %q, want Someone", got)
	}
	if md.CoverArt == nil || !bytes.Equal(md.CoverArt.Data, fixture.PNG(64, 64)) {
		t.Errorf("cover = %v", md.CoverArt)
	}
	if len(md.Audio) != 1 || md.Audio[0].SampleRate != 44100 {
		t.Errorf("audio = %+v", md.Audio)
	}
}

func TestInspectSection(t *testing.T) {
	data := movie()
	md, err := metaspector.InspectSection(bytes.NewReader(data), int64(len(data)), metaspector.SectionAudio)
	if err != nil {
		t.Fatalf("InspectSection() error = %v", err)
	}
	if len(md.Audio) != 1 {
		t.Errorf("audio tracks = %d, want 1", len(md.Audio))
	}
	if len(md.Video) != 0 || len(md.Subtitle) != 0 {
		t.Errorf("video = %d, subtitle = %d, want none", len(md.Video), len(md.Subtitle))
	}
	if !md.Metadata.Empty() || md.CoverArt != nil {
		t.Error("metadata section leaked into an audio request")
	}
}

func TestInspectSection_Invalid(t *testing.T) {
	data := movie()
	_, err := metaspector.InspectSection(bytes.NewReader(data), int64(len(data)), metaspector.Section(42))
	if !errors.Is(err, metaspector.ErrInvalidSection) {
		t.Errorf("error = %v, want ErrInvalidSection", err)
	}
}

func TestInspect_UnsupportedFormat(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"text", []byte("not a valid media file")},
		{"ogg", []byte("OggS\x00\x02\x00\x00\x00\x00\x00\x00")},
		{"tiny", []byte{0x00}},
		{"empty", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			md, err := metaspector.Inspect(bytes.NewReader(tt.data), int64(len(tt.data)))
			if md != nil {
				t.Error("partial result returned for an unsupported file")
			}
			if !errors.Is(err, metaspector.ErrUnsupportedFormat) {
				t.Errorf("error = %v, want ErrUnsupportedFormat", err)
			}
			var ufe *metaspector.UnsupportedFormatError
			if !errors.As(err, &ufe) {
				t.Errorf("error type = %T, want *UnsupportedFormatError", err)
			}
		})
	}
}

func TestInspect_NotAMediaFile(t *testing.T) {
	data := fixture.Box("ftyp", []byte("isom\x00\x00\x02\x00isom"))
	data = append(data, fixture.Box("free", make([]byte, 16))...)
	_, err := metaspector.Inspect(bytes.NewReader(data), int64(len(data)))
	if !errors.Is(err, metaspector.ErrNotAMediaFile) {
		t.Errorf("error = %v, want ErrNotAMediaFile", err)
	}
}

func TestInspect_Idempotent(t *testing.T) {
	for name, data := range map[string][]byte{"mp4": movie(), "mp3": mp3File(), "flac": flacFile()} {
		t.Run(name, func(t *testing.T) {
			first := inspect(t, data)
			second := inspect(t, data)
			if !reflect.DeepEqual(first, second) {
				t.Errorf("results differ:\n%+v\n%+v", first, second)
			}
		})
	}
}

// Every prefix of a valid file must decode or fail with a classified error.
func TestInspect_Truncated(t *testing.T) {
	for name, data := range map[string][]byte{"mp4": movie(), "mp3": mp3File(), "flac": flacFile()} {
		t.Run(name, func(t *testing.T) {
			step := max(1, len(data)/400)
			for n := 0; n < len(data); n += step {
				_, err := metaspector.Inspect(bytes.NewReader(data[:n]), int64(n))
				if err != nil && metaspector.KindOf(err) == metaspector.KindUnknown {
					t.Fatalf("prefix %d: unclassified error %v", n, err)
				}
			}
		})
	}
}

func TestInspect_StrictParsing(t *testing.T) {
	data := fixture.FLAC(nil, fixture.VorbisComment("v", "TITLE=No stream info"))

	md := inspect(t, data)
	if len(md.Warnings) == 0 {
		t.Fatal("expected a warning for the missing STREAMINFO")
	}

	_, err := metaspector.Inspect(bytes.NewReader(data), int64(len(data)), metaspector.WithStrictParsing())
	if !errors.Is(err, metaspector.ErrMalformedBlock) {
		t.Errorf("strict error = %v, want ErrMalformedBlock", err)
	}

	md = inspect(t, data, metaspector.WithIgnoreWarnings())
	if md.Warnings != nil {
		t.Errorf("warnings = %v, want none", md.Warnings)
	}
}

func TestInspect_MaxArtworkSize(t *testing.T) {
	md := inspect(t, flacFile(), metaspector.WithMaxArtworkSize(16))
	if md.CoverArt != nil {
		t.Error("oversized cover was kept")
	}
	if md.Metadata.Has("has_cover_art") {
		t.Error("has_cover_art set without a cover")
	}
}

func TestInspect_LogsWarnings(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	data := fixture.FLAC(nil, fixture.VorbisComment("v", "TITLE=x"))
	inspect(t, data, metaspector.WithLogger(logger), metaspector.WithName("broken.flac"))

	out := buf.String()
	for _, want := range []string{"stage=metadata", "format=FLAC", "path=broken.flac"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

func TestExtractCoverArt_None(t *testing.T) {
	data := fixture.FLAC(nil, fixture.StreamInfo(44100, 2, 16, 0))
	art, err := metaspector.ExtractCoverArt(bytes.NewReader(data), int64(len(data)))
	if err != nil || art != nil {
		t.Errorf("ExtractCoverArt() = %v, %v; want nil, nil", art, err)
	}
}

func TestInspectFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "song.flac")
	if err := os.WriteFile(path, flacFile(), 0o644); err != nil {
		t.Fatal(err)
	}

	md, err := metaspector.InspectFile(path, metaspector.WithSection(metaspector.SectionMetadata))
	if err != nil {
		t.Fatalf("InspectFile() error = %v", err)
	}
	if md.Metadata.String("artist") != "Someone" || len(md.Audio) != 0 {
		t.Errorf("metadata = %v, audio = %d", md.Metadata.Keys(), len(md.Audio))
	}

	if _, err := metaspector.InspectFile(filepath.Join(t.TempDir(), "missing.mp4")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("error = %v, want os.ErrNotExist", err)
	}
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want metaspector.Format
	}{
		{"mp4", movie(), metaspector.FormatMP4},
		{"mp3 with tag", mp3File(), metaspector.FormatMP3},
		{"bare mpeg", fixture.MPEGFrames(2), metaspector.FormatMP3},
		{"flac", flacFile(), metaspector.FormatFLAC},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := metaspector.DetectFormat(bytes.NewReader(tt.data), int64(len(tt.data)))
			if err != nil || got != tt.want {
				t.Errorf("DetectFormat() = %v, %v; want %v", got, err, tt.want)
			}
		})
	}
}

func TestParseSection(t *testing.T) {
	tests := []struct {
		in      string
		want    metaspector.Section
		wantErr bool
	}{
		{"metadata", metaspector.SectionMetadata, false},
		{"Audio", metaspector.SectionAudio, false},
		{" video ", metaspector.SectionVideo, false},
		{"subtitle", metaspector.SectionSubtitle, false},
		{"chapters", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := metaspector.ParseSection(tt.in)
		if tt.wantErr {
			if !errors.Is(err, metaspector.ErrInvalidSection) {
				t.Errorf("ParseSection(%q) error = %v, want ErrInvalidSection", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseSection(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
	}
}

func FuzzInspect(f *testing.F) {
	f.Add(movie())
	f.Add(mp3File())
	f.Add(flacFile())

	f.Fuzz(func(t *testing.T, data []byte) {
		if len(data) > 1<<20 {
			return
		}
		metaspector.Inspect(bytes.NewReader(data), int64(len(data)))
	})
}
