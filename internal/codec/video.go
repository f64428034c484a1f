package codec

import "fmt"

var avcProfiles = map[uint8]string{
	66:  "Baseline",
	77:  "Main",
	88:  "Extended",
	100: "High",
	110: "High 10",
	122: "High 4:2:2",
	244: "High 4:4:4 Predictive",
	44:  "CAVLC 4:4:4 Intra",
	118: "Multiview High",
	128: "Stereo High",
}

var hevcProfiles = map[uint8]string{
	1: "Main",
	2: "Main 10",
	3: "Main Still Picture",
	4: "Range Extensions",
	5: "High Throughput",
	9: "Screen Content Coding",
}

var av1Profiles = map[uint8]string{
	0: "Main",
	1: "High",
	2: "Professional",
}

// VideoConfig is what the decoder configuration record of a video sample
// entry says about the stream.
type VideoConfig struct {
	Profile  string
	BitDepth int // 0 when the record does not carry it

	// Colour description carried in-band (vpcC only).
	Colour *Colour
}

// ParseAVC decodes an 'avcC' payload.
func ParseAVC(payload []byte) (VideoConfig, error) {
	if len(payload) < 4 {
		return VideoConfig{}, fmt.Errorf("%w: avcC of %d bytes", ErrInvalidConfig, len(payload))
	}
	profile := payload[1]
	level := payload[3]
	name, ok := avcProfiles[profile]
	if !ok {
		name = fmt.Sprintf("Profile %d", profile)
	}
	return VideoConfig{Profile: fmt.Sprintf("%s@L%d.%d", name, level/10, level%10)}, nil
}

// ParseHEVC decodes an 'hvcC' payload.
func ParseHEVC(payload []byte) (VideoConfig, error) {
	var cfg VideoConfig
	br := newBitReader(payload)
	br.skip(8) // configurationVersion
	br.skip(2) // general_profile_space
	tier := br.flag()
	profile := uint8(br.bits(5))
	br.skip(32) // general_profile_compatibility_flags
	br.skip(48) // general_constraint_indicator_flags
	level := int(br.bits(8))
	br.skip(16) // min_spatial_segmentation_idc
	br.skip(8)  // parallelismType
	br.skip(8)  // chromaFormat
	br.skip(5)
	depth := int(br.bits(3)) + 8
	if err := br.err("hvcC"); err != nil {
		return cfg, err
	}

	name, ok := hevcProfiles[profile]
	if !ok {
		name = fmt.Sprintf("Profile %d", profile)
	}
	cfg.Profile = fmt.Sprintf("%s@L%d.%d", name, level/30, (level%30)/3)
	if tier {
		cfg.Profile += "@High"
	} else {
		cfg.Profile += "@Main"
	}
	cfg.BitDepth = depth
	return cfg, nil
}

// ParseAV1 decodes an 'av1C' payload.
func ParseAV1(payload []byte) (VideoConfig, error) {
	var cfg VideoConfig
	br := newBitReader(payload)
	br.skip(1) // marker
	br.skip(7) // version
	profile := uint8(br.bits(3))
	level := int(br.bits(5))
	br.skip(1) // seq_tier_0
	high := br.flag()
	twelve := br.flag()
	if err := br.err("av1C"); err != nil {
		return cfg, err
	}

	name, ok := av1Profiles[profile]
	if !ok {
		name = fmt.Sprintf("Profile %d", profile)
	}
	// seq_level_idx maps to level X.Y as 2+idx/4 . idx%4
	cfg.Profile = fmt.Sprintf("%s@L%d.%d", name, 2+level/4, level%4)
	switch {
	case high && twelve:
		cfg.BitDepth = 12
	case high:
		cfg.BitDepth = 10
	default:
		cfg.BitDepth = 8
	}
	return cfg, nil
}

// ParseVPC decodes a 'vpcC' payload, including its version and flags.
func ParseVPC(payload []byte) (VideoConfig, error) {
	var cfg VideoConfig
	if len(payload) < 4 {
		return cfg, fmt.Errorf("%w: vpcC of %d bytes", ErrInvalidConfig, len(payload))
	}
	br := newBitReader(payload[4:])
	profile := br.bits(8)
	level := br.bits(8)
	depth := br.bits(4)
	br.skip(3) // chromaSubsampling
	full := br.flag()
	primaries := br.bits(8)
	transfer := br.bits(8)
	matrix := br.bits(8)
	if err := br.err("vpcC"); err != nil {
		return cfg, err
	}

	cfg.Profile = fmt.Sprintf("Profile %d@L%d.%d", profile, level/10, level%10)
	cfg.BitDepth = int(depth)
	cfg.Colour = newColour(int(primaries), int(transfer), int(matrix), full)
	return cfg, nil
}

// DolbyVision is the content of a 'dvcC', 'dvvC' or 'dvwC' box.
type DolbyVision struct {
	VersionMajor     int
	VersionMinor     int
	Profile          int
	Level            int
	RPU              bool
	EnhancementLayer bool
	BaseLayer        bool
	Compatibility    int // dv_bl_signal_compatibility_id
}

// ParseDolbyVision decodes a Dolby Vision configuration record.
func ParseDolbyVision(payload []byte) (DolbyVision, error) {
	var dv DolbyVision
	br := newBitReader(payload)
	dv.VersionMajor = int(br.bits(8))
	dv.VersionMinor = int(br.bits(8))
	dv.Profile = int(br.bits(7))
	dv.Level = int(br.bits(6))
	dv.RPU = br.flag()
	dv.EnhancementLayer = br.flag()
	dv.BaseLayer = br.flag()
	dv.Compatibility = int(br.bits(4))
	if err := br.err("dvcC"); err != nil {
		return DolbyVision{}, err
	}
	return dv, nil
}

// SDRCompatible reports whether the base layer decodes to a usable picture
// on a non-Dolby display. Profiles 8 and 10 carry a cross-compatible base
// layer when muxed as plain HEVC or AV1 sample entries.
func (dv DolbyVision) SDRCompatible(fourcc string) bool {
	switch dv.Profile {
	case 8:
		return fourcc == "hvc1" || fourcc == "hev1"
	case 10:
		return fourcc == "av01"
	}
	return false
}
