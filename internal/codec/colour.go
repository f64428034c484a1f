package codec

import (
	"encoding/binary"
	"fmt"
)

var transferNames = map[int]string{
	1:  "bt709",
	4:  "bt470m",
	5:  "bt470bg",
	6:  "smpte170m",
	14: "smpte428",
	16: "smpte2084",
	18: "arib-std-b67",
}

var primariesNames = map[int]string{
	1:  "bt709",
	5:  "smpte170m",
	9:  "bt2020",
	10: "smpte428",
	11: "smpte428",
	12: "smpte431",
	13: "smpte432",
}

var matrixNames = map[int]string{
	0:  "gbr",
	1:  "bt709",
	5:  "bt470bg",
	6:  "smpte170m",
	9:  "bt2020nc",
	10: "bt2020c",
	14: "bt2020nc",
	15: "bt2020nc",
}

// Colour is a decoded colour description. Unknown code points are left
// empty rather than guessed.
type Colour struct {
	Primaries string
	Transfer  string
	Matrix    string
	Range     string // "full" or "tv"; empty for nclc, which has no range flag
}

func newColour(primaries, transfer, matrix int, full bool) *Colour {
	c := &Colour{
		Primaries: primariesNames[primaries],
		Transfer:  transferNames[transfer],
		Matrix:    matrixNames[matrix],
		Range:     "tv",
	}
	if full {
		c.Range = "full"
	}
	return c
}

// ParseColr decodes a 'colr' payload of type nclx or nclc. ICC profiles
// (rICC, prof) return ok=false.
func ParseColr(payload []byte) (c *Colour, ok bool, err error) {
	if len(payload) < 4 {
		return nil, false, fmt.Errorf("%w: colr of %d bytes", ErrInvalidConfig, len(payload))
	}
	kind := string(payload[:4])
	switch kind {
	case "nclx", "nclc":
	default:
		return nil, false, nil
	}
	if len(payload) < 10 {
		return nil, false, fmt.Errorf("%w: %s colr of %d bytes", ErrInvalidConfig, kind, len(payload))
	}
	primaries := int(binary.BigEndian.Uint16(payload[4:6]))
	transfer := int(binary.BigEndian.Uint16(payload[6:8]))
	matrix := int(binary.BigEndian.Uint16(payload[8:10]))

	full := kind == "nclx" && len(payload) > 10 && payload[10]&0x80 != 0
	c = newColour(primaries, transfer, matrix, full)
	if kind == "nclc" {
		c.Range = ""
	}
	return c, true, nil
}

// HDRFormat names the dynamic range of a video track.
//
// hasMDCV reports a mastering display colour volume box, which is what
// separates HDR10 from bare PQ.
func HDRFormat(transfer string, hasMDCV, dolbyVision bool) string {
	hdr10 := transfer == "smpte2084" && hasMDCV
	switch {
	case dolbyVision && hdr10:
		return "HDR10, Dolby Vision"
	case dolbyVision:
		return "Dolby Vision"
	case hdr10:
		return "HDR10"
	case transfer == "smpte2084":
		return "HDR (PQ)"
	case transfer == "arib-std-b67":
		return "HLG"
	}
	return "SDR"
}
