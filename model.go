package metaspector

import (
	"github.com/simonhull/metaspector/internal/types"
)

// UnifiedMetadata is the result of inspecting one file. It serializes to a
// JSON object with the keys metadata, audio, video and subtitle, plus
// warnings when there are any. Cover bytes are never serialized.
type UnifiedMetadata = types.UnifiedMetadata

// Metadata is the tag mapping of a result.
type Metadata = types.Metadata

// AudioTrack is one audio stream.
type AudioTrack = types.AudioTrack

// VideoTrack is one video stream.
type VideoTrack = types.VideoTrack

// SubtitleTrack is one subtitle or caption stream.
type SubtitleTrack = types.SubtitleTrack
