package types

import (
	"fmt"
	"strings"
)

// Section selects one part of the unified output.
type Section int

const (
	SectionMetadata Section = iota
	SectionAudio
	SectionVideo
	SectionSubtitle
)

var sectionNames = [...]string{
	SectionMetadata: "metadata",
	SectionAudio:    "audio",
	SectionVideo:    "video",
	SectionSubtitle: "subtitle",
}

func (s Section) String() string {
	if s < 0 || int(s) >= len(sectionNames) {
		return fmt.Sprintf("Section(%d)", int(s))
	}
	return sectionNames[s]
}

// Valid reports whether s names a known section.
func (s Section) Valid() bool {
	return s >= SectionMetadata && s <= SectionSubtitle
}

// ParseSection parses a section name case-insensitively.
func ParseSection(name string) (Section, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for i, v := range sectionNames {
		if v == n {
			return Section(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q (want one of %s)", ErrInvalidSection, name, strings.Join(sectionNames[:], ", "))
}

// Sections lists all sections in output order.
func Sections() []Section {
	return []Section{SectionMetadata, SectionAudio, SectionVideo, SectionSubtitle}
}
