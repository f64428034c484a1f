package bmff

import (
	"bytes"
	"errors"
	"testing"

	"github.com/simonhull/metaspector/internal/binary"
	"github.com/simonhull/metaspector/internal/types"
)

func newReader(data []byte) *binary.SafeReader {
	return binary.NewSafeReader(bytes.NewReader(data), int64(len(data)), "test.mp4")
}

func sampleMovie() []byte {
	return binary.NewWriter().
		Box("ftyp", func(w *binary.Writer) { w.String("isom").U32(0x200).String("isommp41") }).
		Box("moov", func(w *binary.Writer) {
			w.FullBox("mvhd", 0, 0, func(w *binary.Writer) { w.Zero(96) })
			w.Box("trak", func(w *binary.Writer) {
				w.FullBox("tkhd", 0, 3, func(w *binary.Writer) { w.Zero(80) })
				w.Box("mdia", func(w *binary.Writer) {
					w.FullBox("hdlr", 0, 0, func(w *binary.Writer) { w.U32(0).String("vide").Zero(13) })
				})
			})
		}).
		Box("mdat", func(w *binary.Writer) { w.Zero(32) }).
		Bytes()
}

func TestParse_SizeAccounting(t *testing.T) {
	data := sampleMovie()
	tree := Parse(newReader(data), Options{})

	if len(tree.Warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", tree.Warnings)
	}
	if got := tree.TopLevelSize(); got != uint64(len(data)) {
		t.Errorf("TopLevelSize() = %d, want %d", got, len(data))
	}
	if len(tree.Roots) != 3 {
		t.Fatalf("expected 3 top-level boxes, got %d", len(tree.Roots))
	}

	hdlr := tree.Path(-1, "moov", "trak", "mdia", "hdlr")
	if hdlr < 0 {
		t.Fatal("moov/trak/mdia/hdlr not found")
	}
	n := tree.Node(hdlr)
	if n.Depth != 3 {
		t.Errorf("hdlr depth = %d, want 3", n.Depth)
	}
	if n.Children != nil {
		t.Errorf("leaf box has children: %v", n.Children)
	}
}

func TestParse_ChildrenStayInsideParent(t *testing.T) {
	tree := Parse(newReader(sampleMovie()), Options{})
	tree.Walk(func(_ int, n *Node) bool {
		if n.Parent < 0 {
			return true
		}
		p := tree.Node(n.Parent)
		if n.Offset < p.PayloadOffset || n.End() > p.End() {
			t.Errorf("box %s [%d,%d) escapes parent %s [%d,%d)",
				n.Type, n.Offset, n.End(), p.Type, p.PayloadOffset, p.End())
		}
		return true
	})
}

func TestParse_SizeZeroExtendsToEnd(t *testing.T) {
	data := binary.NewWriter().
		Box("ftyp", func(w *binary.Writer) { w.String("M4A ") }).
		U32(0).String("mdat").Zero(40).
		Bytes()

	tree := Parse(newReader(data), Options{})
	mdat := tree.Node(tree.Find(-1, "mdat"))
	if mdat == nil {
		t.Fatal("mdat not found")
	}
	if !mdat.ToEnd {
		t.Error("expected ToEnd to be set")
	}
	if mdat.Size != 48 {
		t.Errorf("mdat size = %d, want 48", mdat.Size)
	}
	if tree.TopLevelSize() != uint64(len(data)) {
		t.Errorf("TopLevelSize() = %d, want %d", tree.TopLevelSize(), len(data))
	}
}

func TestParse_ExtendedSize(t *testing.T) {
	data := binary.NewWriter().
		LargeBox("mdat", func(w *binary.Writer) { w.Zero(10) }).
		Box("free", nil).
		Bytes()

	tree := Parse(newReader(data), Options{})
	if len(tree.Roots) != 2 {
		t.Fatalf("expected 2 boxes, got %d", len(tree.Roots))
	}
	mdat := tree.Node(tree.Roots[0])
	if !mdat.Extended || mdat.HeaderSize != 16 || mdat.Size != 26 {
		t.Errorf("mdat = %+v", mdat.Header)
	}
	if mdat.PayloadLength != 10 {
		t.Errorf("payload length = %d, want 10", mdat.PayloadLength)
	}
}

func TestParse_InvalidBoxSizeStopsContainer(t *testing.T) {
	data := binary.NewWriter().
		Box("ftyp", func(w *binary.Writer) { w.String("isom") }).
		U32(4).String("bad!").
		Box("free", nil).
		Bytes()

	tree := Parse(newReader(data), Options{})
	if len(tree.Roots) != 1 || tree.Node(tree.Roots[0]).Type != "ftyp" {
		t.Fatalf("expected only ftyp to survive, got %d roots", len(tree.Roots))
	}
	if len(tree.Warnings) != 1 {
		t.Fatalf("expected 1 warning, got %v", tree.Warnings)
	}
	if tree.Warnings[0].Kind != types.KindInvalidBoxSize {
		t.Errorf("warning kind = %v, want %v", tree.Warnings[0].Kind, types.KindInvalidBoxSize)
	}
}

func TestParse_OverrunIsContained(t *testing.T) {
	data := binary.NewWriter().
		Box("moov", func(w *binary.Writer) {
			w.Box("free", nil)
			// trak claims 100 bytes but moov ends after tkhd.
			w.U32(100).String("trak").Box("tkhd", nil)
		}).
		Box("mdat", func(w *binary.Writer) { w.Zero(4) }).
		Bytes()

	tree := Parse(newReader(data), Options{})

	if len(tree.Warnings) != 1 || tree.Warnings[0].Kind != types.KindMalformedContainer {
		t.Fatalf("expected one malformed-container warning, got %v", tree.Warnings)
	}
	if tree.Path(-1, "moov", "free") < 0 {
		t.Error("sibling parsed before the fault was lost")
	}
	trak := tree.Node(tree.Path(-1, "moov", "trak"))
	if trak == nil || !trak.Truncated {
		t.Fatalf("expected a truncated trak node, got %+v", trak)
	}
	if trak.PayloadLength != 8 {
		t.Errorf("clipped payload = %d, want 8", trak.PayloadLength)
	}
	if tree.Path(-1, "moov", "trak", "tkhd") < 0 {
		t.Error("child of clipped container not parsed")
	}
	if tree.Find(-1, "mdat") < 0 {
		t.Error("top-level sibling after the faulty container was lost")
	}
}

func TestParse_MaxDepth(t *testing.T) {
	// 10 nested moov boxes.
	var build func(w *binary.Writer, n int)
	build = func(w *binary.Writer, n int) {
		if n == 0 {
			return
		}
		w.Box("moov", func(w *binary.Writer) { build(w, n-1) })
	}
	w := binary.NewWriter()
	build(w, 10)

	tree := Parse(newReader(w.Bytes()), Options{MaxDepth: 4})

	if len(tree.Nodes) != 4 {
		t.Errorf("expected 4 nodes, got %d", len(tree.Nodes))
	}
	var found bool
	for _, warn := range tree.Warnings {
		if warn.Kind == types.KindMaxDepthExceeded {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a max-depth warning, got %v", tree.Warnings)
	}
}

func TestParse_MetaFullBox(t *testing.T) {
	tests := []struct {
		name string
		meta func(w *binary.Writer)
	}{
		{
			name: "iso full box",
			meta: func(w *binary.Writer) {
				w.FullBox("meta", 0, 0, func(w *binary.Writer) {
					w.FullBox("hdlr", 0, 0, func(w *binary.Writer) { w.U32(0).String("mdir").Zero(12) })
					w.Box("ilst", nil)
				})
			},
		},
		{
			name: "quicktime plain container",
			meta: func(w *binary.Writer) {
				w.Box("meta", func(w *binary.Writer) {
					w.FullBox("hdlr", 0, 0, func(w *binary.Writer) { w.U32(0).String("mdta").Zero(12) })
					w.Box("ilst", nil)
				})
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			data := binary.NewWriter().Box("udta", tc.meta).Bytes()
			tree := Parse(newReader(data), Options{})
			if len(tree.Warnings) != 0 {
				t.Fatalf("unexpected warnings: %v", tree.Warnings)
			}
			if tree.Path(-1, "udta", "meta", "hdlr") < 0 || tree.Path(-1, "udta", "meta", "ilst") < 0 {
				t.Error("meta children not found")
			}
		})
	}
}

func TestParse_Flat(t *testing.T) {
	tree := Parse(newReader(sampleMovie()), Options{Flat: true})
	if len(tree.Nodes) != 3 {
		t.Errorf("flat walk produced %d nodes, want 3", len(tree.Nodes))
	}
}

func TestPayloadBytes_Limit(t *testing.T) {
	data := sampleMovie()
	sr := newReader(data)
	tree := Parse(sr, Options{})
	mdat := tree.Find(-1, "mdat")

	b, err := tree.PayloadBytes(sr, mdat, 0)
	if err != nil || len(b) != 32 {
		t.Fatalf("PayloadBytes() = %d bytes, %v", len(b), err)
	}
	if _, err := tree.PayloadBytes(sr, mdat, 16); !errors.Is(err, types.ErrMalformedContainer) {
		t.Errorf("expected limit error, got %v", err)
	}
}

func TestReadHeader_Truncated(t *testing.T) {
	data := []byte{0, 0, 0, 16, 'm', 'o'}
	c := binary.NewCursor(newReader(data))
	if _, err := ReadHeader(c); !errors.Is(err, types.ErrTruncatedInput) {
		t.Errorf("expected truncated input, got %v", err)
	}
}

func FuzzParse(f *testing.F) {
	f.Add(sampleMovie())
	f.Add([]byte{0, 0, 0, 0, 'm', 'o', 'o', 'v'})
	f.Add([]byte{0, 0, 0, 1, 'm', 'd', 'a', 't', 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF})

	f.Fuzz(func(t *testing.T, data []byte) {
		if len(data) > 1<<20 {
			return
		}
		tree := Parse(newReader(data), Options{})
		for i := range tree.Nodes {
			n := &tree.Nodes[i]
			if n.PayloadLength < 0 || n.End() > int64(len(data)) {
				t.Fatalf("node %s [%d,%d) outside input of %d bytes", n.Type, n.PayloadOffset, n.End(), len(data))
			}
			if n.Depth >= DefaultMaxDepth {
				t.Fatalf("node depth %d exceeds cap", n.Depth)
			}
		}
	})
}
