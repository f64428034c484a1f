// Package mp4 decodes ISO-BMFF files (MP4, M4A, M4V, M4B, MOV).
//
// The box tree is read once by internal/bmff; this package interprets the
// moov sub-tree: one record per trak, the iTunes-style ilst tag list, the
// covr picture and the movie header.
package mp4

import (
	"github.com/simonhull/metaspector/internal/binary"
	"github.com/simonhull/metaspector/internal/bmff"
	"github.com/simonhull/metaspector/internal/registry"
	"github.com/simonhull/metaspector/internal/types"
)

// decoder implements registry.Decoder.
type decoder struct{}

func init() {
	registry.Register(types.FormatMP4, &decoder{})
}

// movie carries the state of one decode.
type movie struct {
	sr   *binary.SafeReader
	tree *bmff.Tree
	req  registry.Request
	out  *types.UnifiedMetadata
	moov int
}

// Decode decodes an ISO-BMFF file.
func (d *decoder) Decode(sr *binary.SafeReader, req registry.Request) (*types.UnifiedMetadata, error) {
	tree := bmff.Parse(sr, bmff.Options{MaxDepth: req.MaxDepth})

	moov := tree.Find(-1, "moov")
	if moov < 0 {
		return nil, missingMovie(sr, tree)
	}

	m := &movie{
		sr:   sr,
		tree: tree,
		req:  req,
		out:  types.NewUnifiedMetadata(types.FormatMP4),
		moov: moov,
	}
	m.out.Warnings = append(m.out.Warnings, tree.Warnings...)

	if req.Wants(types.SectionMetadata) {
		m.parseMovieHeader()
	}
	m.parseTracks()
	if req.WantsCover() {
		m.parseTags()
	}

	req.Log().Debug("decoded mp4",
		"path", sr.Path(),
		"boxes", len(tree.Nodes),
		"result", m.out)
	return m.out, nil
}

// missingMovie explains why no moov box was found. A file cut short before
// its moov reports truncation; a complete file without one is not a movie.
func missingMovie(sr *binary.SafeReader, tree *bmff.Tree) error {
	for _, w := range tree.Warnings {
		if w.Kind == types.KindTruncatedInput || w.Kind == types.KindMalformedContainer {
			return &types.DecodeError{
				Kind:   w.Kind,
				Path:   sr.Path(),
				Offset: w.Offset,
				Reason: "no moov box before the damage: " + w.Message,
			}
		}
	}
	return &types.CorruptedFileError{
		Path:   sr.Path(),
		Reason: "no moov box",
	}
}

// parseMovieHeader reads mvhd for the movie length in milliseconds.
func (m *movie) parseMovieHeader() {
	idx := m.tree.Find(m.moov, "mvhd")
	if idx < 0 {
		return
	}
	c, err := m.tree.Payload(m.sr, idx)
	if err != nil {
		m.out.WarnErr("metadata", err)
		return
	}
	ch := binary.NewChain(c)
	timescale, duration := readTiming(ch, "mvhd")
	if err := ch.Err(); err != nil {
		m.out.WarnErr("metadata", err)
		return
	}
	if timescale > 0 {
		m.out.Metadata.Set("length", int(float64(duration)/float64(timescale)*1000))
	}
}

// readTiming reads the timescale and duration shared by mvhd and mdhd.
//
// Both start with version and flags, then creation and modification times
// (32-bit in version 0, 64-bit in version 1), the timescale, and the
// duration in the same width.
func readTiming(ch *binary.Chain, name string) (timescale uint32, duration uint64) {
	version := ch.U8(name + " version")
	ch.Skip(3)
	if version == 1 {
		ch.Skip(16)
		timescale = ch.U32(name + " timescale")
		duration = ch.U64(name + " duration")
		return timescale, duration
	}
	ch.Skip(8)
	timescale = ch.U32(name + " timescale")
	duration = uint64(ch.U32(name + " duration"))
	return timescale, duration
}
