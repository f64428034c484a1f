package metaspector

import (
	"github.com/simonhull/metaspector/internal/types"
)

// Format is the detected container format.
type Format = types.Format

// Re-export the format constants.
const (
	FormatUnknown = types.FormatUnknown
	FormatMP4     = types.FormatMP4
	FormatMP3     = types.FormatMP3
	FormatFLAC    = types.FormatFLAC
)

// Section selects one part of the result for InspectSection.
type Section = types.Section

// Re-export the sections.
const (
	SectionMetadata = types.SectionMetadata
	SectionAudio    = types.SectionAudio
	SectionVideo    = types.SectionVideo
	SectionSubtitle = types.SectionSubtitle
)

// ParseSection parses "metadata", "audio", "video" or "subtitle". Any other
// name fails with ErrInvalidSection.
func ParseSection(name string) (Section, error) {
	return types.ParseSection(name)
}
