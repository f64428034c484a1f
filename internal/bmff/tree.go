package bmff

import (
	"errors"
	"fmt"

	"github.com/simonhull/metaspector/internal/binary"
	"github.com/simonhull/metaspector/internal/types"
)

// DefaultMaxDepth bounds container nesting. Real files nest about ten deep.
const DefaultMaxDepth = 32

// Node is one box in a Tree.
type Node struct {
	Header
	PayloadOffset int64
	PayloadLength int64
	Parent        int   // index of the parent node, -1 for top-level boxes
	Children      []int // indices of child nodes, nil for leaves
	Depth         int
	Truncated     bool // declared size overran the parent; payload was clipped
}

// End returns the offset one past the (possibly clipped) payload.
func (n *Node) End() int64 {
	return n.PayloadOffset + n.PayloadLength
}

// Tree is an arena of boxes in depth-first (file) order.
type Tree struct {
	Nodes    []Node
	Roots    []int
	Warnings []types.Warning
}

// Options tune a walk.
type Options struct {
	// MaxDepth bounds nesting; 0 means DefaultMaxDepth.
	MaxDepth int
	// Flat stops descent: only the boxes of the given range are listed.
	Flat bool
}

type frame struct {
	parent int
	cursor *binary.Cursor
	depth  int
}

// Parse walks the whole source.
func Parse(sr *binary.SafeReader, opts Options) *Tree {
	return ParseRange(sr, 0, sr.Size(), opts)
}

// ParseRange walks the boxes laid out in [start, end).
//
// Structural faults never abort the walk: a box that cannot be read ends
// iteration of its own container only, and is recorded in Tree.Warnings.
// Everything parsed before the fault stays in the tree.
func ParseRange(sr *binary.SafeReader, start, end int64, opts Options) *Tree {
	maxDepth := opts.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}

	t := &Tree{}
	root, err := sr.Range(start, end)
	if err != nil {
		t.warn(err)
		return t
	}

	stack := []frame{{parent: -1, cursor: root}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		c := top.cursor

		h, err := ReadHeader(c)
		if errors.Is(err, ErrEndOfContainer) {
			stack = stack[:len(stack)-1]
			continue
		}
		if err != nil && !errors.Is(err, types.ErrMalformedContainer) {
			// Header unreadable or size below header length: the rest of
			// this container cannot be located.
			t.warn(err)
			stack = stack[:len(stack)-1]
			continue
		}

		parent, depth := top.parent, top.depth
		node := Node{
			Header:        h,
			PayloadOffset: h.PayloadOffset(),
			Parent:        parent,
			Depth:         depth,
		}

		overrun := err != nil
		if overrun {
			t.warn(err)
			node.Truncated = true
			node.PayloadLength = c.End() - node.PayloadOffset
			if node.PayloadLength < 0 {
				node.PayloadLength = 0
			}
		} else {
			node.PayloadLength = h.PayloadLength()
		}

		idx := t.add(node)

		// Advance the parent past this box before descending.
		if overrun {
			_ = c.Seek(c.End())
		} else if err := c.Seek(h.End()); err != nil {
			t.warn(err)
			stack = stack[:len(stack)-1]
			continue
		}

		// iTunes list items hold 'data' (and 'mean'/'name') children
		// whatever their own type code.
		isItem := parent >= 0 && t.Nodes[parent].Type == "ilst"
		if opts.Flat || !(IsContainer(h.Type) || isItem) {
			continue
		}
		if depth+1 >= maxDepth {
			t.warn(&types.DecodeError{
				Kind:   types.KindMaxDepthExceeded,
				Offset: h.Offset,
				Reason: fmt.Sprintf("box %s at depth %d exceeds nesting limit %d", printable(h.Type), depth+1, maxDepth),
			})
			continue
		}

		payload, err := sr.Range(node.PayloadOffset, node.PayloadOffset+node.PayloadLength)
		if err != nil {
			t.warn(err)
			continue
		}
		if h.Type == "meta" && !isItem {
			skipMetaFullBoxHeader(payload)
		}
		t.Nodes[idx].Children = []int{}
		stack = append(stack, frame{parent: idx, cursor: payload, depth: depth + 1})
	}
	return t
}

// skipMetaFullBoxHeader skips the version/flags word of an ISO 'meta' box.
//
// QuickTime files carry 'meta' as a plain container whose first child
// ('hdlr') starts immediately; those are left untouched.
func skipMetaFullBoxHeader(c *binary.Cursor) {
	peek, err := c.Peek(8, "meta header")
	if err != nil {
		_ = c.Skip(min(4, c.Remaining()))
		return
	}
	if string(peek[4:8]) == "hdlr" {
		return
	}
	_ = c.Skip(4)
}

func (t *Tree) add(n Node) int {
	idx := len(t.Nodes)
	t.Nodes = append(t.Nodes, n)
	if n.Parent < 0 {
		t.Roots = append(t.Roots, idx)
	} else {
		t.Nodes[n.Parent].Children = append(t.Nodes[n.Parent].Children, idx)
	}
	return idx
}

func (t *Tree) warn(err error) {
	t.Warnings = append(t.Warnings, types.WarningFrom("boxes", err))
}

// Node returns the node at idx, or nil when idx is out of range.
func (t *Tree) Node(idx int) *Node {
	if idx < 0 || idx >= len(t.Nodes) {
		return nil
	}
	return &t.Nodes[idx]
}

// children returns the child indices of parent (-1 for top level).
func (t *Tree) children(parent int) []int {
	if parent < 0 {
		return t.Roots
	}
	if n := t.Node(parent); n != nil {
		return n.Children
	}
	return nil
}

// Find returns the first child of parent with the given type, or -1.
func (t *Tree) Find(parent int, fourcc string) int {
	for _, idx := range t.children(parent) {
		if t.Nodes[idx].Type == fourcc {
			return idx
		}
	}
	return -1
}

// FindAll returns every child of parent with the given type.
func (t *Tree) FindAll(parent int, fourcc string) []int {
	var out []int
	for _, idx := range t.children(parent) {
		if t.Nodes[idx].Type == fourcc {
			out = append(out, idx)
		}
	}
	return out
}

// Path follows a chain of child types from parent, returning -1 if any
// link is missing.
//
//	stsd := tree.Path(trak, "mdia", "minf", "stbl", "stsd")
func (t *Tree) Path(parent int, path ...string) int {
	idx := parent
	for _, fourcc := range path {
		idx = t.Find(idx, fourcc)
		if idx < 0 {
			return -1
		}
	}
	return idx
}

// Children returns the child indices of parent (-1 for top level).
func (t *Tree) Children(parent int) []int {
	return t.children(parent)
}

// Walk visits nodes in depth-first order until fn returns false.
func (t *Tree) Walk(fn func(idx int, n *Node) bool) {
	for i := range t.Nodes {
		if !fn(i, &t.Nodes[i]) {
			return
		}
	}
}

// TopLevelSize sums the declared sizes of the top-level boxes.
func (t *Tree) TopLevelSize() uint64 {
	var total uint64
	for _, idx := range t.Roots {
		total += t.Nodes[idx].Size
	}
	return total
}

// Payload returns a cursor over a node's payload.
func (t *Tree) Payload(sr *binary.SafeReader, idx int) (*binary.Cursor, error) {
	n := t.Node(idx)
	if n == nil {
		return nil, fmt.Errorf("no box at index %d", idx)
	}
	return sr.Range(n.PayloadOffset, n.End())
}

// PayloadBytes reads a node's payload, refusing payloads larger than limit
// when limit is positive.
func (t *Tree) PayloadBytes(sr *binary.SafeReader, idx int, limit int64) ([]byte, error) {
	n := t.Node(idx)
	if n == nil {
		return nil, fmt.Errorf("no box at index %d", idx)
	}
	if limit > 0 && n.PayloadLength > limit {
		return nil, &types.DecodeError{
			Kind:   types.KindMalformedContainer,
			Offset: n.Offset,
			Reason: fmt.Sprintf("box %s payload of %d bytes exceeds limit %d", printable(n.Type), n.PayloadLength, limit),
		}
	}
	return sr.Bytes(n.PayloadOffset, n.PayloadLength, "payload of "+printable(n.Type))
}
