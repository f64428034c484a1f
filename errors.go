package metaspector

import (
	"github.com/simonhull/metaspector/internal/types"
)

// DecodeError is a structural failure at a known offset. Its Kind selects
// the sentinel it matches with errors.Is.
type DecodeError = types.DecodeError

// Kind classifies a DecodeError or Warning.
type Kind = types.Kind

// Re-export the kinds.
const (
	KindUnknown            = types.KindUnknown
	KindUnsupportedFormat  = types.KindUnsupportedFormat
	KindTruncatedInput     = types.KindTruncatedInput
	KindOutOfBounds        = types.KindOutOfBounds
	KindMalformedContainer = types.KindMalformedContainer
	KindMalformedBlock     = types.KindMalformedBlock
	KindInvalidBoxSize     = types.KindInvalidBoxSize
	KindMaxDepthExceeded   = types.KindMaxDepthExceeded
	KindNotAMediaFile      = types.KindNotAMediaFile
)

// Sentinel errors. Every error returned by this package that stems from
// the input bytes matches one of them with errors.Is.
var (
	ErrUnsupportedFormat  = types.ErrUnsupportedFormat
	ErrTruncatedInput     = types.ErrTruncatedInput
	ErrOutOfBounds        = types.ErrOutOfBounds
	ErrMalformedContainer = types.ErrMalformedContainer
	ErrMalformedBlock     = types.ErrMalformedBlock
	ErrInvalidBoxSize     = types.ErrInvalidBoxSize
	ErrMaxDepthExceeded   = types.ErrMaxDepthExceeded
	ErrNotAMediaFile      = types.ErrNotAMediaFile
	ErrInvalidSection     = types.ErrInvalidSection
)

// OutOfBoundsError is returned when a read falls outside the source. It
// matches ErrTruncatedInput when the read started inside the source and
// ErrOutOfBounds otherwise.
type OutOfBoundsError = types.OutOfBoundsError

// UnsupportedFormatError is returned when no signature matches.
type UnsupportedFormatError = types.UnsupportedFormatError

// CorruptedFileError is returned when a recognized file lacks its root
// structure. It matches ErrNotAMediaFile.
type CorruptedFileError = types.CorruptedFileError

// Warning is a non-fatal problem recorded on a result.
type Warning = types.Warning

// KindOf returns the Kind of the first classified error in err's chain.
func KindOf(err error) Kind {
	return types.KindOf(err)
}
