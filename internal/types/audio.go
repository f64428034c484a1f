package types

import (
	"fmt"
	"strings"
)

// AudioTrack is one audio stream.
//
// Only Index and Codec are always present; the rest depend on what the
// container describes.
type AudioTrack struct {
	Index           int      `json:"index"`
	TrackID         uint32   `json:"track_id,omitempty"`
	HandlerName     string   `json:"handler_name,omitempty"`
	Language        string   `json:"language,omitempty"`
	I18nLanguage    string   `json:"internationalized_language,omitempty"`
	Codec           string   `json:"codec"`
	CodecTag        string   `json:"codec_tag,omitempty"`
	CodecProfile    string   `json:"codec_profile,omitempty"`
	Channels        int      `json:"channels,omitempty"`
	ChannelLayout   string   `json:"channel_layout,omitempty"`
	ChannelMode     string   `json:"channel_mode,omitempty"`
	SampleRate      int      `json:"sample_rate,omitempty"`
	BitsPerSample   int      `json:"bits_per_sample,omitempty"`
	BitrateKbps     int      `json:"bitrate_kbps,omitempty"`
	DurationSeconds float64  `json:"duration_seconds,omitempty"`
	TotalSamples    uint64   `json:"total_samples,omitempty"`
	Characteristics []string `json:"characteristics,omitempty"`
	VBR             bool     `json:"vbr,omitempty"`
	DolbyAtmos      bool     `json:"dolby_atmos,omitempty"`
}

// String returns a short human-readable summary.
// Example output: "FLAC 44.1kHz 16-bit stereo".
func (a AudioTrack) String() string {
	parts := []string{a.Codec}
	if a.SampleRate > 0 {
		parts = append(parts, fmt.Sprintf("%.1fkHz", float64(a.SampleRate)/1000))
	}
	if a.BitsPerSample > 0 {
		parts = append(parts, fmt.Sprintf("%d-bit", a.BitsPerSample))
	}
	switch a.Channels {
	case 0:
	case 1:
		parts = append(parts, "mono")
	case 2:
		parts = append(parts, "stereo")
	default:
		if a.ChannelLayout != "" {
			parts = append(parts, a.ChannelLayout)
		} else {
			parts = append(parts, fmt.Sprintf("%dch", a.Channels))
		}
	}
	if a.DolbyAtmos {
		parts = append(parts, "Atmos")
	}
	return strings.Join(parts, " ")
}

// ChannelLayout names the conventional layout for a channel count.
func ChannelLayout(channels int) string {
	switch channels {
	case 1:
		return "1.0"
	case 2:
		return "2.0"
	case 3:
		return "3.0"
	case 4:
		return "4.0"
	case 5:
		return "5.0"
	case 6:
		return "5.1"
	case 7:
		return "6.1"
	case 8:
		return "7.1"
	}
	return ""
}
