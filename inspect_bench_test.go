package metaspector_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/simonhull/metaspector"
)

func benchmarkInspect(b *testing.B, data []byte) {
	r := bytes.NewReader(data)
	size := int64(len(data))

	b.ReportAllocs()
	b.SetBytes(size)
	for b.Loop() {
		if _, err := metaspector.Inspect(r, size); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkInspect_MP4 measures a two-track movie with an ilst title.
func BenchmarkInspect_MP4(b *testing.B) { benchmarkInspect(b, movie()) }

// BenchmarkInspect_MP3 measures an ID3v2.3 tag with a picture and ten frames.
func BenchmarkInspect_MP3(b *testing.B) { benchmarkInspect(b, mp3File()) }

func BenchmarkInspect_FLAC(b *testing.B) { benchmarkInspect(b, flacFile()) }

func BenchmarkExtractCoverArt(b *testing.B) {
	data := mp3File()
	r := bytes.NewReader(data)

	b.ReportAllocs()
	for b.Loop() {
		if _, err := metaspector.ExtractCoverArt(r, int64(len(data))); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkInspectMany measures the concurrent path over 30 files.
func BenchmarkInspectMany(b *testing.B) {
	dir := b.TempDir()
	var paths []string
	for i, data := range [][]byte{movie(), mp3File(), flacFile()} {
		for j := range 10 {
			p := filepath.Join(dir, string(rune('a'+i))+string(rune('0'+j)))
			if err := os.WriteFile(p, data, 0o644); err != nil {
				b.Fatal(err)
			}
			paths = append(paths, p)
		}
	}
	ctx := context.Background()

	b.ReportAllocs()
	for b.Loop() {
		if _, err := metaspector.InspectMany(ctx, paths); err != nil {
			b.Fatal(err)
		}
	}
}
