package metaspector

import (
	"context"
	"fmt"
	"io"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/simonhull/metaspector/internal/binary"
	"github.com/simonhull/metaspector/internal/registry"
	"github.com/simonhull/metaspector/internal/types"

	_ "github.com/simonhull/metaspector/internal/flac" // Register FLAC decoder
	_ "github.com/simonhull/metaspector/internal/mp3"  // Register MP3 decoder
	_ "github.com/simonhull/metaspector/internal/mp4"  // Register MP4 decoder
)

// Inspect decodes the media file held in r, which is size bytes long.
//
// The format is chosen from the leading bytes. A source matching no
// supported signature fails with ErrUnsupportedFormat, and a recognized
// file lacking its root structure (an MP4 without moov, say) fails with
// ErrNotAMediaFile. Any other damage is tolerated: the result holds
// everything decoded before the fault and a Warning describing it.
//
//	f, _ := os.Open("movie.mp4")
//	st, _ := f.Stat()
//	md, err := metaspector.Inspect(f, st.Size())
func Inspect(r io.ReaderAt, size int64, opts ...Option) (*UnifiedMetadata, error) {
	return inspect(r, size, buildOptions(opts))
}

// InspectSection is Inspect limited to one section. The container is still
// walked in full, but only the requested section is extracted; the others
// come back empty.
func InspectSection(r io.ReaderAt, size int64, section Section, opts ...Option) (*UnifiedMetadata, error) {
	o := buildOptions(opts)
	o.scoped = true
	o.section = section
	return inspect(r, size, o)
}

// ExtractCoverArt returns the embedded cover picture, or nil when the file
// has none. Tracks and tags are not decoded.
func ExtractCoverArt(r io.ReaderAt, size int64, opts ...Option) (*CoverArt, error) {
	o := buildOptions(opts)
	req := o.request()
	req.CoverOnly = true
	md, err := decode(r, size, o, req)
	if err != nil {
		return nil, err
	}
	return md.CoverArt, nil
}

// InspectFile opens path and inspects it.
func InspectFile(path string, opts ...Option) (*UnifiedMetadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}

	o := buildOptions(opts)
	o.name = path
	return inspect(f, stat.Size(), o)
}

// InspectMany inspects several files concurrently, at most
// WithConcurrency of them at a time (runtime.NumCPU() by default).
//
// Results are returned in the order of paths. The first failure cancels
// the files not yet started and is returned, prefixed with its path.
//
//	results, err := metaspector.InspectMany(ctx, paths)
//	if err != nil {
//		log.Fatal(err)
//	}
//	for i, md := range results {
//		fmt.Printf("%s: %s\n", paths[i], md.Metadata.String("title"))
//	}
func InspectMany(ctx context.Context, paths []string, opts ...Option) ([]*UnifiedMetadata, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	o := buildOptions(opts)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)

	results := make([]*UnifiedMetadata, len(paths))
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			md, err := InspectFile(path, opts...)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			results[i] = md
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// DetectFormat reports which decoder Inspect would use for r.
func DetectFormat(r io.ReaderAt, size int64) (Format, error) {
	return registry.DetectFormat(binary.NewSafeReader(r, size, "input"))
}

func inspect(r io.ReaderAt, size int64, o *inspectOptions) (*UnifiedMetadata, error) {
	if o.scoped && !o.section.Valid() {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSection, o.section)
	}
	return decode(r, size, o, o.request())
}

// decode runs one dispatch and applies the result-level options.
func decode(r io.ReaderAt, size int64, o *inspectOptions, req registry.Request) (*UnifiedMetadata, error) {
	sr := binary.NewSafeReader(r, size, o.name)
	format, err := registry.DetectFormat(sr)
	if err != nil {
		return nil, err
	}

	dec := registry.Get(format)
	if dec == nil {
		return nil, &UnsupportedFormatError{
			Path:   o.name,
			Reason: fmt.Sprintf("no decoder available for format %s", format),
		}
	}

	md, err := dec.Decode(sr, req)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", format, err)
	}
	if req.Scoped {
		md.Keep(req.Section)
	}

	log := req.Log()
	for _, w := range md.Warnings {
		log.Debug(w.Message,
			"path", o.name,
			"stage", w.Stage,
			"offset", w.Offset,
			"format", format)
	}

	if o.strictParsing && len(md.Warnings) > 0 {
		w := md.Warnings[0]
		return nil, &types.DecodeError{
			Kind:   w.Kind,
			Path:   o.name,
			Offset: w.Offset,
			Reason: "strict parsing: " + w.Stage + ": " + w.Message,
		}
	}
	if o.ignoreWarnings {
		md.Warnings = nil
	}
	return md, nil
}
