// Package types provides the unified metadata model shared by every decoder.
//
// Each decoder folds its container into a UnifiedMetadata: a tag mapping,
// one list per track kind, an optional cover picture, and the non-fatal
// warnings raised along the way.
package types

import "log/slog"

// UnifiedMetadata is the result of inspecting one file.
type UnifiedMetadata struct {
	Format   Format          `json:"-"`
	Metadata Metadata        `json:"metadata"`
	Audio    []AudioTrack    `json:"audio"`
	Video    []VideoTrack    `json:"video"`
	Subtitle []SubtitleTrack `json:"subtitle"`
	CoverArt *CoverArt       `json:"-"`
	Warnings []Warning       `json:"warnings,omitempty"`
}

// NewUnifiedMetadata returns an empty result with non-nil track lists,
// so every section serializes as [] rather than null.
func NewUnifiedMetadata(format Format) *UnifiedMetadata {
	return &UnifiedMetadata{
		Format:   format,
		Audio:    []AudioTrack{},
		Video:    []VideoTrack{},
		Subtitle: []SubtitleTrack{},
	}
}

// Warn records a non-fatal problem.
func (u *UnifiedMetadata) Warn(stage string, offset int64, kind Kind, format string, args ...any) {
	w := WarningFrom(stage, NewDecodeError(kind, offset, format, args...))
	u.Warnings = append(u.Warnings, w)
}

// WarnErr records err as a non-fatal problem.
func (u *UnifiedMetadata) WarnErr(stage string, err error) {
	if err == nil {
		return
	}
	u.Warnings = append(u.Warnings, WarningFrom(stage, err))
}

// SetCoverArt keeps the first picture offered and mirrors its description
// into the metadata section.
func (u *UnifiedMetadata) SetCoverArt(art *CoverArt) {
	if art == nil || len(art.Data) == 0 || u.CoverArt != nil {
		return
	}
	art.Finalize()
	u.CoverArt = art
	u.Metadata.Set("has_cover_art", true)
	u.Metadata.Set("cover_art_mime", art.MIMEType)
	u.Metadata.Set("cover_art_dimensions", art.Dimensions())
	u.Metadata.Set("cover_art_description", art.Description)
}

// Keep drops everything but the requested section.
//
// Warnings are retained so callers still see why a section may be partial.
func (u *UnifiedMetadata) Keep(section Section) {
	if section != SectionMetadata {
		u.Metadata = Metadata{}
		u.CoverArt = nil
	}
	if section != SectionAudio {
		u.Audio = []AudioTrack{}
	}
	if section != SectionVideo {
		u.Video = []VideoTrack{}
	}
	if section != SectionSubtitle {
		u.Subtitle = []SubtitleTrack{}
	}
}

// LogValue implements slog.LogValuer.
func (u *UnifiedMetadata) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("format", u.Format.String()),
		slog.Int("tags", u.Metadata.Len()),
		slog.Int("audio", len(u.Audio)),
		slog.Int("video", len(u.Video)),
		slog.Int("subtitle", len(u.Subtitle)),
		slog.Bool("cover_art", u.CoverArt != nil),
		slog.Int("warnings", len(u.Warnings)),
	)
}
