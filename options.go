package metaspector

import (
	"log/slog"
	"runtime"

	"github.com/simonhull/metaspector/internal/bmff"
	"github.com/simonhull/metaspector/internal/registry"
)

// Option configures an inspection.
//
// Options use the functional options pattern:
//
//	md, err := metaspector.InspectFile("movie.mp4",
//	    metaspector.WithStrictParsing(),
//	    metaspector.WithMaxArtworkSize(4<<20),
//	)
type Option func(*inspectOptions)

// inspectOptions holds the settings of one call.
type inspectOptions struct {
	strictParsing  bool  // Fail on the first warning
	ignoreWarnings bool  // Drop warnings from the result
	maxArtworkSize int64 // Maximum cover size in bytes (0 = no limit)
	maxDepth       int   // Box nesting cap
	concurrency    int   // InspectMany worker limit
	name           string
	scoped         bool
	section        Section
	logger         *slog.Logger
}

// defaultOptions returns the default configuration.
func defaultOptions() *inspectOptions {
	return &inspectOptions{
		maxDepth:    bmff.DefaultMaxDepth,
		concurrency: runtime.NumCPU(),
		name:        "input",
	}
}

func buildOptions(opts []Option) *inspectOptions {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// request converts the options into what decoders consume.
func (o *inspectOptions) request() registry.Request {
	return registry.Request{
		Scoped:         o.scoped,
		Section:        o.section,
		MaxDepth:       o.maxDepth,
		MaxArtworkSize: o.maxArtworkSize,
		Logger:         o.logger,
	}
}

// WithStrictParsing turns the first warning into a returned error.
//
// By default a malformed box, frame, or block is recorded on
// UnifiedMetadata.Warnings and decoding carries on. With strict parsing the
// call fails instead, with an error carrying the warning's Kind:
//
//	_, err := metaspector.InspectFile("song.mp3", metaspector.WithStrictParsing())
//	if errors.Is(err, metaspector.ErrMalformedBlock) {
//		// a frame or block was damaged
//	}
func WithStrictParsing() Option {
	return func(o *inspectOptions) {
		o.strictParsing = true
	}
}

// WithIgnoreWarnings discards all warnings from the result.
func WithIgnoreWarnings() Option {
	return func(o *inspectOptions) {
		o.ignoreWarnings = true
	}
}

// WithMaxArtworkSize skips cover pictures larger than n bytes, with a
// warning. 0 means no limit, which is the default.
func WithMaxArtworkSize(n int64) Option {
	return func(o *inspectOptions) {
		o.maxArtworkSize = n
	}
}

// WithMaxDepth bounds ISO-BMFF box nesting. Deeper boxes are dropped and
// reported as ErrMaxDepthExceeded warnings. Values below 1 restore the
// default of 32.
func WithMaxDepth(depth int) Option {
	return func(o *inspectOptions) {
		if depth < 1 {
			depth = bmff.DefaultMaxDepth
		}
		o.maxDepth = depth
	}
}

// WithLogger sends decode diagnostics to l at debug level. By default
// nothing is logged.
func WithLogger(l *slog.Logger) Option {
	return func(o *inspectOptions) {
		o.logger = l
	}
}

// WithConcurrency caps the number of files InspectMany decodes at once.
// Values below 1 restore the default of runtime.NumCPU().
func WithConcurrency(n int) Option {
	return func(o *inspectOptions) {
		if n < 1 {
			n = runtime.NumCPU()
		}
		o.concurrency = n
	}
}

// WithSection restricts extraction to one section, as InspectSection does.
// It is mostly useful with InspectFile and InspectMany.
func WithSection(s Section) Option {
	return func(o *inspectOptions) {
		o.scoped = true
		o.section = s
	}
}

// WithName labels the byte source in errors and log records. InspectFile
// uses the file path.
func WithName(name string) Option {
	return func(o *inspectOptions) {
		if name != "" {
			o.name = name
		}
	}
}
