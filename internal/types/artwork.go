package types

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// CoverArt is an embedded picture together with its MIME hint.
//
// Data is never serialized into the JSON output; callers fetch it through
// the cover art accessor instead.
type CoverArt struct {
	// Image binary data
	Data []byte `json:"-"`

	// MIME type of the image data ("image/jpeg", "image/png", ...)
	MIMEType string `json:"mime_type"`

	// Purpose of the picture (front cover, back cover, ...)
	Type ArtworkType `json:"-"`

	// Description of the picture (optional)
	Description string `json:"description,omitempty"`

	// Dimensions, from the container or sniffed from the image header (0 if unknown)
	Width  int `json:"width,omitempty"`
	Height int `json:"height,omitempty"`
}

// Dimensions formats the size as "WxH", or "" when unknown.
func (c *CoverArt) Dimensions() string {
	if c.Width <= 0 || c.Height <= 0 {
		return ""
	}
	return fmt.Sprintf("%dx%d", c.Width, c.Height)
}

// Extension returns the file extension matching the MIME type.
func (c *CoverArt) Extension() string {
	switch c.MIMEType {
	case "image/png":
		return ".png"
	case "image/jpeg", "image/jpg", "":
		return ".jpg"
	}
	if ext := mimetype.Detect(c.Data).Extension(); ext != "" {
		return ext
	}
	return ".jpg"
}

// String returns a human-readable description of the picture.
//
// Example output: "Front cover (1200x1200 JPEG, 245KB)"
func (c *CoverArt) String() string {
	dims := ""
	if d := c.Dimensions(); d != "" {
		dims = d + " "
	}
	return fmt.Sprintf("%s (%s%s, %s)", c.Type, dims, mimeToFormat(c.MIMEType), formatSize(len(c.Data)))
}

// Finalize fills in a missing MIME type and dimensions from the image bytes.
func (c *CoverArt) Finalize() {
	mime := strings.ToLower(strings.TrimSpace(c.MIMEType))
	switch mime {
	case "", "image/", "-->":
		mime = SniffImageMIME(c.Data)
	case "jpg", "jpeg", "image/jpg":
		mime = "image/jpeg"
	case "png":
		mime = "image/png"
	}
	c.MIMEType = mime
	if c.Width == 0 || c.Height == 0 {
		c.Width, c.Height = ImageDimensions(c.Data)
	}
}

// SniffImageMIME identifies an image by its magic bytes.
//
// JPEG, PNG, GIF, BMP and WebP are recognized directly; anything else is
// handed to mimetype. Returns "application/octet-stream" when unknown.
func SniffImageMIME(data []byte) string {
	switch {
	case len(data) >= 3 && data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF:
		return "image/jpeg"
	case len(data) >= 4 && bytes.Equal(data[:4], pngMagic[:4]):
		return "image/png"
	case len(data) >= 3 && string(data[:3]) == "GIF":
		return "image/gif"
	case len(data) >= 2 && data[0] == 'B' && data[1] == 'M':
		return "image/bmp"
	case len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WEBP":
		return "image/webp"
	}
	return mimetype.Detect(data).String()
}

var pngMagic = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}

// ImageDimensions reads width and height from a JPEG or PNG header.
func ImageDimensions(data []byte) (int, int) {
	if len(data) >= 24 && bytes.Equal(data[:8], pngMagic) && string(data[12:16]) == "IHDR" {
		w := int(data[16])<<24 | int(data[17])<<16 | int(data[18])<<8 | int(data[19])
		h := int(data[20])<<24 | int(data[21])<<16 | int(data[22])<<8 | int(data[23])
		return w, h
	}
	if len(data) >= 4 && data[0] == 0xFF && data[1] == 0xD8 {
		return jpegDimensions(data)
	}
	return 0, 0
}

// jpegDimensions walks JPEG segments up to the first SOFn marker.
func jpegDimensions(data []byte) (int, int) {
	i := 2
	for i+4 <= len(data) {
		if data[i] != 0xFF {
			i++
			continue
		}
		marker := data[i+1]
		if marker == 0xFF {
			i++
			continue
		}
		if marker == 0xD8 || marker == 0x01 || (marker >= 0xD0 && marker <= 0xD7) {
			i += 2
			continue
		}
		length := int(data[i+2])<<8 | int(data[i+3])
		isSOF := marker >= 0xC0 && marker <= 0xCF && marker != 0xC4 && marker != 0xC8 && marker != 0xCC
		if isSOF {
			if i+9 > len(data) {
				return 0, 0
			}
			h := int(data[i+5])<<8 | int(data[i+6])
			w := int(data[i+7])<<8 | int(data[i+8])
			return w, h
		}
		if length < 2 {
			return 0, 0
		}
		i += 2 + length
	}
	return 0, 0
}

// ArtworkType categorizes the purpose/content of a picture.
//
// Values are the ID3v2 APIC and FLAC PICTURE picture types.
type ArtworkType int

const (
	ArtworkOther ArtworkType = iota
	ArtworkIcon
	ArtworkOtherIcon
	ArtworkFrontCover
	ArtworkBackCover
	ArtworkLeaflet
	ArtworkMedia
	ArtworkLeadArtist
	ArtworkArtist
	ArtworkConductor
	ArtworkBand
	ArtworkComposer
	ArtworkLyricist
	ArtworkRecordingLocation
	ArtworkDuringRecording
	ArtworkDuringPerformance
	ArtworkVideoCapture
	ArtworkBrightFish
	ArtworkIllustration
	ArtworkBandLogotype
	ArtworkPublisherLogotype
)

var artworkTypeNames = [...]string{
	"Other", "File icon", "Other file icon", "Front cover", "Back cover",
	"Leaflet page", "Media", "Lead artist", "Artist", "Conductor", "Band",
	"Composer", "Lyricist", "Recording location", "During recording",
	"During performance", "Video capture", "A bright colored fish",
	"Illustration", "Band logotype", "Publisher logotype",
}

func (t ArtworkType) String() string {
	if t < 0 || int(t) >= len(artworkTypeNames) {
		return fmt.Sprintf("ArtworkType(%d)", int(t))
	}
	return artworkTypeNames[t]
}

// formatSize formats byte size in human-readable form.
func formatSize(bytes int) string {
	const (
		KB = 1024
		MB = 1024 * KB
	)

	switch {
	case bytes >= MB:
		return fmt.Sprintf("%.1fMB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%dKB", bytes/KB)
	default:
		return fmt.Sprintf("%dB", bytes)
	}
}

// mimeToFormat converts MIME type to short format name.
func mimeToFormat(mime string) string {
	switch mime {
	case "image/jpeg":
		return "JPEG"
	case "image/png":
		return "PNG"
	case "image/gif":
		return "GIF"
	case "image/bmp":
		return "BMP"
	case "image/webp":
		return "WebP"
	default:
		return "Image"
	}
}
