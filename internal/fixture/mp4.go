// Package fixture builds small synthetic media files for tests.
//
// The builders favour well-formed output; tests that need damage take the
// bytes and cut or patch them.
package fixture

import (
	"github.com/simonhull/metaspector/internal/binary"
)

// Track describes one trak of a Movie.
type Track struct {
	ID          uint32
	Handler     string // vide, soun, sbtl, text, ...
	HandlerName string
	Language    string // ISO-639-2 code, "" for und
	ExtLanguage string // elng tag, omitted when empty
	Timescale   uint32
	Duration    uint32
	Width       int // tkhd presentation size
	Height      int

	// Entry is a complete sample entry box; nil omits stsd.
	Entry []byte
	// SampleSizes fills stsz; when nil and Sample is set, the one
	// sample's size is used.
	SampleSizes []uint32
	// Sample is written to mdat and referenced by stco.
	Sample []byte
	// UserData holds the children of the track's udta box.
	UserData []byte
	// Chapters lists track ids referenced through tref/chap.
	Chapters []uint32
}

// Movie describes an ISO-BMFF file: ftyp, moov, then mdat.
type Movie struct {
	Brand     string // major brand, "isom" when empty
	Timescale uint32
	Duration  uint32
	Tracks    []Track
	// Items holds the children of moov/udta/meta/ilst; no udta is
	// written when nil.
	Items []byte
	// Mdat is appended after the track samples.
	Mdat []byte
}

// Bytes renders the movie.
func (m Movie) Bytes() []byte {
	brand := m.Brand
	if brand == "" {
		brand = "isom"
	}
	ftyp := binary.NewWriter().Box("ftyp", func(w *binary.Writer) {
		w.String(brand).U32(0x200).String("isomiso2mp41")
	}).Bytes()

	// Chunk offsets depend on the moov size, which does not depend on
	// the offsets: render once to measure, then again with real values.
	moov := m.moov(0)
	moov = m.moov(uint32(len(ftyp) + len(moov) + 8))

	w := binary.NewWriter().Raw(ftyp).Raw(moov)
	w.Box("mdat", func(w *binary.Writer) {
		for _, t := range m.Tracks {
			w.Raw(t.Sample)
		}
		w.Raw(m.Mdat)
	})
	return w.Bytes()
}

func (m Movie) moov(mdatPayload uint32) []byte {
	return binary.NewWriter().Box("moov", func(w *binary.Writer) {
		w.FullBox("mvhd", 0, 0, func(w *binary.Writer) {
			w.U32(0).U32(0).U32(m.Timescale).U32(m.Duration)
			w.U32(0x00010000).U16(0x0100).Zero(10).Zero(36).Zero(24)
			w.U32(uint32(len(m.Tracks) + 1))
		})
		offset := mdatPayload
		for _, t := range m.Tracks {
			w.Raw(t.trak(offset))
			offset += uint32(len(t.Sample))
		}
		if m.Items != nil {
			w.Box("udta", func(w *binary.Writer) {
				w.Raw(Meta(m.Items))
			})
		}
	}).Bytes()
}

func (t Track) trak(chunkOffset uint32) []byte {
	return binary.NewWriter().Box("trak", func(w *binary.Writer) {
		w.FullBox("tkhd", 0, 3, func(w *binary.Writer) {
			w.U32(0).U32(0).U32(t.ID).U32(0).U32(t.Duration)
			w.Zero(8).U16(0).U16(0).U16(0).U16(0).Zero(36)
			w.U32(uint32(t.Width) << 16).U32(uint32(t.Height) << 16)
		})
		if len(t.Chapters) > 0 {
			w.Box("tref", func(w *binary.Writer) {
				w.Box("chap", func(w *binary.Writer) {
					for _, id := range t.Chapters {
						w.U32(id)
					}
				})
			})
		}
		w.Box("mdia", func(w *binary.Writer) {
			w.FullBox("mdhd", 0, 0, func(w *binary.Writer) {
				w.U32(0).U32(0).U32(t.Timescale).U32(t.Duration)
				w.U16(PackLanguage(t.Language)).U16(0)
			})
			w.FullBox("hdlr", 0, 0, func(w *binary.Writer) {
				w.U32(0).String(t.Handler).Zero(12).String(t.HandlerName).U8(0)
			})
			if t.ExtLanguage != "" {
				w.FullBox("elng", 0, 0, func(w *binary.Writer) {
					w.String(t.ExtLanguage).U8(0)
				})
			}
			w.Box("minf", func(w *binary.Writer) {
				w.Box("stbl", func(w *binary.Writer) {
					if t.Entry != nil {
						w.FullBox("stsd", 0, 0, func(w *binary.Writer) {
							w.U32(1).Raw(t.Entry)
						})
					}
					sizes := t.SampleSizes
					if sizes == nil && t.Sample != nil {
						sizes = []uint32{uint32(len(t.Sample))}
					}
					w.FullBox("stsz", 0, 0, func(w *binary.Writer) {
						w.U32(0).U32(uint32(len(sizes)))
						for _, s := range sizes {
							w.U32(s)
						}
					})
					if t.Sample != nil {
						w.FullBox("stco", 0, 0, func(w *binary.Writer) {
							w.U32(1).U32(chunkOffset)
						})
					}
				})
			})
		})
		if t.UserData != nil {
			w.Box("udta", func(w *binary.Writer) { w.Raw(t.UserData) })
		}
	}).Bytes()
}

// PackLanguage packs an ISO-639-2 code into the 15-bit mdhd form.
func PackLanguage(code string) uint16 {
	if len(code) != 3 {
		return 0x55C4 // "und"
	}
	return uint16(code[0]-0x60)<<10 | uint16(code[1]-0x60)<<5 | uint16(code[2]-0x60)
}

// Box wraps payload in a box header.
func Box(typ string, payload []byte) []byte {
	return binary.NewWriter().Box(typ, func(w *binary.Writer) { w.Raw(payload) }).Bytes()
}

// Meta builds an ISO meta full box holding an mdir hdlr and an ilst.
func Meta(items []byte) []byte {
	return binary.NewWriter().FullBox("meta", 0, 0, func(w *binary.Writer) {
		w.FullBox("hdlr", 0, 0, func(w *binary.Writer) {
			w.U32(0).String("mdir").String("appl").Zero(8).U8(0)
		})
		w.Box("ilst", func(w *binary.Writer) { w.Raw(items) })
	}).Bytes()
}

// Item builds an ilst item with one data atom.
func Item(typ string, dataType uint32, value []byte) []byte {
	return binary.NewWriter().Box(typ, func(w *binary.Writer) {
		w.Box("data", func(w *binary.Writer) {
			w.U32(dataType).U32(0).Raw(value)
		})
	}).Bytes()
}

// TextItem builds a UTF-8 ilst item.
func TextItem(typ, value string) []byte {
	return Item(typ, 1, []byte(value))
}

// PairItem builds a trkn or disk item.
func PairItem(typ string, n, total uint16) []byte {
	return Item(typ, 0, binary.NewWriter().U16(0).U16(n).U16(total).U16(0).Bytes())
}

// FreeformItem builds a '----' item.
func FreeformItem(mean, name, value string) []byte {
	return binary.NewWriter().Box("----", func(w *binary.Writer) {
		w.FullBox("mean", 0, 0, func(w *binary.Writer) { w.String(mean) })
		w.FullBox("name", 0, 0, func(w *binary.Writer) { w.String(name) })
		w.Box("data", func(w *binary.Writer) { w.U32(1).U32(0).String(value) })
	}).Bytes()
}

// VisualEntry builds a VisualSampleEntry followed by config boxes.
func VisualEntry(fourcc string, width, height int, config ...[]byte) []byte {
	return binary.NewWriter().Box(fourcc, func(w *binary.Writer) {
		w.Zero(6).U16(1)
		w.Zero(16)
		w.U16(uint16(width)).U16(uint16(height))
		w.U32(0x00480000).U32(0x00480000).U32(0).U16(1)
		w.Zero(32).U16(0x0018).U16(0xFFFF)
		for _, c := range config {
			w.Raw(c)
		}
	}).Bytes()
}

// AudioEntry builds a version 0 AudioSampleEntry followed by config boxes.
func AudioEntry(fourcc string, channels, bits, rate int, config ...[]byte) []byte {
	return binary.NewWriter().Box(fourcc, func(w *binary.Writer) {
		w.Zero(6).U16(1)
		w.U16(0).U16(0).U32(0)
		w.U16(uint16(channels)).U16(uint16(bits)).U16(0).U16(0)
		w.U32(uint32(rate) << 16)
		for _, c := range config {
			w.Raw(c)
		}
	}).Bytes()
}

// TextEntry builds a minimal timed text sample entry.
func TextEntry(fourcc string) []byte {
	return binary.NewWriter().Box(fourcc, func(w *binary.Writer) {
		w.Zero(6).U16(1).Zero(30)
	}).Bytes()
}

// ESDS builds an esds box for an MPEG-4 audio stream.
func ESDS(objectType byte, avgBitrate uint32, asc []byte) []byte {
	dsi := append([]byte{0x05, byte(len(asc))}, asc...)
	dc := binary.NewWriter().
		U8(objectType).U8(0x15).U24(0).U32(avgBitrate).U32(avgBitrate).
		Raw(dsi).Bytes()
	es := binary.NewWriter().
		U16(1).U8(0).
		U8(0x04).U8(byte(len(dc))).Raw(dc).
		Bytes()
	return binary.NewWriter().FullBox("esds", 0, 0, func(w *binary.Writer) {
		w.U8(0x03).U8(byte(len(es))).Raw(es)
	}).Bytes()
}

// AVCC builds an avcC box for the given profile and level.
func AVCC(profile, level byte) []byte {
	return Box("avcC", []byte{1, profile, 0, level, 0xFF, 0xE0, 0})
}

// Colr builds an nclx colr box.
func Colr(primaries, transfer, matrix uint16, full bool) []byte {
	flag := byte(0)
	if full {
		flag = 0x80
	}
	return Box("colr", binary.NewWriter().
		String("nclx").U16(primaries).U16(transfer).U16(matrix).U8(flag).Bytes())
}
