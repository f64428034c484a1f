package types

import "fmt"

// TrackKind classifies a track by its handler.
type TrackKind int

const (
	TrackOther TrackKind = iota
	TrackVideo
	TrackAudio
	TrackSubtitle
)

func (k TrackKind) String() string {
	switch k {
	case TrackVideo:
		return "video"
	case TrackAudio:
		return "audio"
	case TrackSubtitle:
		return "subtitle"
	}
	return "other"
}

// VideoTrack is one video stream.
type VideoTrack struct {
	Index                    int      `json:"index"`
	TrackID                  uint32   `json:"track_id,omitempty"`
	HandlerName              string   `json:"handler_name,omitempty"`
	Language                 string   `json:"language,omitempty"`
	I18nLanguage             string   `json:"internationalized_language,omitempty"`
	Codec                    string   `json:"codec"`
	CodecTag                 string   `json:"codec_tag,omitempty"`
	Profile                  string   `json:"profile,omitempty"`
	Width                    int      `json:"width,omitempty"`
	Height                   int      `json:"height,omitempty"`
	BitDepth                 int      `json:"bit_depth,omitempty"`
	BitrateKbps              int      `json:"bitrate_kbps,omitempty"`
	DurationSeconds          float64  `json:"duration_seconds,omitempty"`
	TotalSamples             uint64   `json:"total_samples,omitempty"`
	ColorPrimaries           string   `json:"color_primaries,omitempty"`
	TransferCharacteristics  string   `json:"transfer_characteristics,omitempty"`
	MatrixCoefficients       string   `json:"matrix_coefficients,omitempty"`
	ColorRange               string   `json:"color_range,omitempty"`
	HDRFormat                string   `json:"hdr_format,omitempty"`
	Characteristics          []string `json:"characteristics,omitempty"`
	DolbyVision              bool     `json:"dolby_vision,omitempty"`
	DolbyVisionProfile       int      `json:"dolby_vision_profile,omitempty"`
	DolbyVisionLevel         int      `json:"dolby_vision_level,omitempty"`
	DolbyVisionSDRCompatible bool     `json:"dolby_vision_sdr_compatible,omitempty"`
}

// String returns a short human-readable summary.
func (v VideoTrack) String() string {
	s := v.Codec
	if v.Width > 0 && v.Height > 0 {
		s += fmt.Sprintf(" %dx%d", v.Width, v.Height)
	}
	if v.HDRFormat != "" && v.HDRFormat != "SDR" {
		s += " " + v.HDRFormat
	} else if v.DolbyVision {
		s += " Dolby Vision"
	}
	return s
}

// SubtitleTrack is one timed-text stream.
type SubtitleTrack struct {
	Index           int      `json:"index"`
	TrackID         uint32   `json:"track_id,omitempty"`
	HandlerName     string   `json:"handler_name,omitempty"`
	Language        string   `json:"language,omitempty"`
	I18nLanguage    string   `json:"internationalized_language,omitempty"`
	Codec           string   `json:"codec"`
	CodecTag        string   `json:"codec_tag,omitempty"`
	DurationSeconds float64  `json:"duration_seconds,omitempty"`
	TotalSamples    uint64   `json:"total_samples,omitempty"`
	Characteristics []string `json:"characteristics,omitempty"`
	ForcedOnly      bool     `json:"forced_only,omitempty"`
}

// String returns a short human-readable summary.
func (s SubtitleTrack) String() string {
	if s.Language != "" && s.Language != "und" {
		return s.Codec + " (" + s.Language + ")"
	}
	return s.Codec
}
