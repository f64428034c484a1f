// Package registry maps detected formats to their decoders.
package registry

import (
	"log/slog"

	"github.com/simonhull/metaspector/internal/binary"
	"github.com/simonhull/metaspector/internal/types"
)

// Request carries the per-call settings every decoder honours.
type Request struct {
	// Scoped restricts extraction to Section. The container structure is
	// still walked in full.
	Scoped  bool
	Section types.Section

	// CoverOnly skips everything except locating the cover picture.
	CoverOnly bool

	MaxDepth       int   // box nesting cap, 0 for the default
	MaxArtworkSize int64 // pictures larger than this are skipped, 0 for no limit

	Logger *slog.Logger
}

// Wants reports whether section s should be extracted.
func (r Request) Wants(s types.Section) bool {
	if r.CoverOnly {
		return false
	}
	return !r.Scoped || r.Section == s
}

// WantsCover reports whether the cover picture should be extracted.
func (r Request) WantsCover() bool {
	return r.CoverOnly || r.Wants(types.SectionMetadata)
}

// Log returns the request logger, or a discarding one.
func (r Request) Log() *slog.Logger {
	if r.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return r.Logger
}

// Decoder is implemented by each format package.
type Decoder interface {
	// Decode folds one file into a UnifiedMetadata. It returns an error
	// only when the file's mandatory root structure is missing; local
	// faults are recorded as warnings on the result.
	Decode(sr *binary.SafeReader, req Request) (*types.UnifiedMetadata, error)
}

// decoders maps formats to their decoders.
var decoders = make(map[types.Format]Decoder)

// Register registers a decoder for a format.
// This is called by format packages during initialization (init functions).
func Register(format types.Format, d Decoder) {
	decoders[format] = d
}

// Get returns the decoder for a given format.
// Returns nil if no decoder is registered for the format.
func Get(format types.Format) Decoder {
	return decoders[format]
}
