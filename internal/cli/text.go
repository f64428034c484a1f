package cli

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/simonhull/metaspector"
)

// writeText prints md as an indented summary.
//
// Example output:
//
//	song.flac
//	  Format:        FLAC
//	Metadata:
//	  artist         Someone
//	Audio:
//	  #0             FLAC 44.1kHz 16-bit stereo
//	Cover art:       Front cover (600x400 JPEG, 12KB)
func writeText(w io.Writer, path string, md *metaspector.UnifiedMetadata) {
	fmt.Fprintln(w, path)
	fmt.Fprintf(w, "  %-14s %s\n", "Format:", md.Format)

	if md.Metadata.Len() > 0 {
		fmt.Fprintln(w, "Metadata:")
		for k, v := range md.Metadata.All() {
			fmt.Fprintf(w, "  %-14s %v\n", k, v)
		}
	}
	if raw := md.Metadata.Raw(); len(raw) > 0 {
		fmt.Fprintln(w, "Raw tags:")
		keys := make([]string, 0, len(raw))
		for k := range raw {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			fmt.Fprintf(w, "  %-14s %s\n", k, strings.Join(raw[k], "; "))
		}
	}

	if len(md.Video) > 0 {
		fmt.Fprintln(w, "Video:")
		for _, v := range md.Video {
			fmt.Fprintf(w, "  %-14s %s%s\n", fmt.Sprintf("#%d", v.Index), v, language(v.Language))
		}
	}
	if len(md.Audio) > 0 {
		fmt.Fprintln(w, "Audio:")
		for _, a := range md.Audio {
			fmt.Fprintf(w, "  %-14s %s%s\n", fmt.Sprintf("#%d", a.Index), a, language(a.Language))
		}
	}
	if len(md.Subtitle) > 0 {
		fmt.Fprintln(w, "Subtitle:")
		for _, s := range md.Subtitle {
			fmt.Fprintf(w, "  %-14s %s\n", fmt.Sprintf("#%d", s.Index), s)
		}
	}

	if md.CoverArt != nil {
		fmt.Fprintf(w, "%-16s %s\n", "Cover art:", md.CoverArt)
	}
	if len(md.Warnings) > 0 {
		fmt.Fprintln(w, "Warnings:")
		for _, warn := range md.Warnings {
			fmt.Fprintf(w, "  - %s\n", warn)
		}
	}
}

func language(lang string) string {
	if lang == "" || lang == "und" {
		return ""
	}
	return " [" + lang + "]"
}
