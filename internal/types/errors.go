package types

import (
	"errors"
	"fmt"
)

// Kind classifies decode failures.
type Kind int

const (
	KindUnknown Kind = iota
	KindUnsupportedFormat
	KindTruncatedInput
	KindOutOfBounds
	KindMalformedContainer
	KindMalformedBlock
	KindInvalidBoxSize
	KindMaxDepthExceeded
	KindNotAMediaFile
)

var kindNames = [...]string{
	KindUnknown:            "unknown",
	KindUnsupportedFormat:  "unsupported format",
	KindTruncatedInput:     "truncated input",
	KindOutOfBounds:        "out of bounds",
	KindMalformedContainer: "malformed container",
	KindMalformedBlock:     "malformed block",
	KindInvalidBoxSize:     "invalid box size",
	KindMaxDepthExceeded:   "max depth exceeded",
	KindNotAMediaFile:      "not a media file",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Sentinel errors, one per Kind. Match with errors.Is.
var (
	ErrUnsupportedFormat  = errors.New("unsupported format")
	ErrTruncatedInput     = errors.New("truncated input")
	ErrOutOfBounds        = errors.New("out of bounds")
	ErrMalformedContainer = errors.New("malformed container")
	ErrMalformedBlock     = errors.New("malformed block")
	ErrInvalidBoxSize     = errors.New("invalid box size")
	ErrMaxDepthExceeded   = errors.New("max depth exceeded")
	ErrNotAMediaFile      = errors.New("not a media file")
	ErrInvalidSection     = errors.New("invalid section")
)

func (k Kind) sentinel() error {
	switch k {
	case KindUnsupportedFormat:
		return ErrUnsupportedFormat
	case KindTruncatedInput:
		return ErrTruncatedInput
	case KindOutOfBounds:
		return ErrOutOfBounds
	case KindMalformedContainer:
		return ErrMalformedContainer
	case KindMalformedBlock:
		return ErrMalformedBlock
	case KindInvalidBoxSize:
		return ErrInvalidBoxSize
	case KindMaxDepthExceeded:
		return ErrMaxDepthExceeded
	case KindNotAMediaFile:
		return ErrNotAMediaFile
	}
	return nil
}

// DecodeError is a structural failure at a known position in the input.
type DecodeError struct {
	Err    error
	Path   string
	Reason string
	Offset int64
	Kind   Kind
}

// NewDecodeError builds a DecodeError without an underlying cause.
func NewDecodeError(kind Kind, offset int64, format string, args ...any) *DecodeError {
	return &DecodeError{
		Kind:   kind,
		Offset: offset,
		Reason: fmt.Sprintf(format, args...),
	}
}

func (e *DecodeError) Error() string {
	msg := fmt.Sprintf("%s at offset %d: %s", e.Kind, e.Offset, e.Reason)
	if e.Path != "" {
		msg = e.Path + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for e.Kind.
func (e *DecodeError) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && s == target
}

// KindOf returns the Kind of the first classified error in err's chain.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	for k := KindUnsupportedFormat; k <= KindNotAMediaFile; k++ {
		if errors.Is(err, k.sentinel()) {
			return k
		}
	}
	return KindUnknown
}

// OutOfBoundsError is returned when a read or seek falls outside the source.
//
// A read that starts inside the source but runs past its end is a truncation
// (ErrTruncatedInput); anything starting outside [0, Size] is ErrOutOfBounds.
type OutOfBoundsError struct {
	Path   string
	What   string
	Offset int64
	Length int64
	Size   int64
}

func (e *OutOfBoundsError) Error() string {
	if e.outside() {
		return fmt.Sprintf("%s: offset %d out of bounds (size: %d) while reading %s",
			e.Path, e.Offset, e.Size, e.What)
	}
	return fmt.Sprintf("%s: read of %d bytes at offset %d would exceed size %d while reading %s",
		e.Path, e.Length, e.Offset, e.Size, e.What)
}

func (e *OutOfBoundsError) outside() bool {
	return e.Offset < 0 || e.Offset > e.Size
}

// Is maps the error onto ErrOutOfBounds or ErrTruncatedInput.
func (e *OutOfBoundsError) Is(target error) bool {
	if e.outside() {
		return target == ErrOutOfBounds
	}
	return target == ErrTruncatedInput
}

// UnsupportedFormatError is returned when the leading bytes match no known signature.
type UnsupportedFormatError struct {
	Path   string
	Reason string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("%s: unsupported format: %s", e.Path, e.Reason)
}

func (e *UnsupportedFormatError) Is(target error) bool {
	return target == ErrUnsupportedFormat
}

// CorruptedFileError is returned when a recognized file lacks its mandatory root structure.
type CorruptedFileError struct {
	Path   string
	Reason string
	Offset int64
}

func (e *CorruptedFileError) Error() string {
	return fmt.Sprintf("%s: corrupted file at offset %d: %s", e.Path, e.Offset, e.Reason)
}

func (e *CorruptedFileError) Is(target error) bool {
	return target == ErrNotAMediaFile
}

// Warning represents a non-fatal issue encountered during decoding.
//
// Warnings are recorded when a sub-tree, frame, or metadata block is
// structurally invalid. Everything decoded before the fault is kept.
type Warning struct {
	// Stage where the warning occurred
	Stage string `json:"stage"` // "boxes", "metadata", "audio", "video", "subtitle", "artwork"

	// Warning message
	Message string `json:"message"`

	// File offset where the issue occurred (0 if not applicable)
	Offset int64 `json:"offset,omitempty"`

	// Classification of the underlying fault
	Kind Kind `json:"-"`
}

// String returns a human-readable warning message.
func (w Warning) String() string {
	if w.Offset > 0 {
		return fmt.Sprintf("%s (at offset %d): %s", w.Stage, w.Offset, w.Message)
	}
	return fmt.Sprintf("%s: %s", w.Stage, w.Message)
}

// WarningFrom converts err into a Warning for the given stage.
func WarningFrom(stage string, err error) Warning {
	w := Warning{Stage: stage, Message: err.Error(), Kind: KindOf(err)}
	var de *DecodeError
	var ob *OutOfBoundsError
	switch {
	case errors.As(err, &de):
		w.Offset = de.Offset
	case errors.As(err, &ob):
		w.Offset = ob.Offset
	}
	return w
}
