// Package rbtree implements the order-statistic red-black tree that backs
// the piece table: a sentinel-based tree whose nodes carry a Piece plus two
// subtree aggregates, size_left and lf_left, kept consistent across
// rotations, insertion and deletion.
package rbtree

// Color is the red-black color of a node.
type Color bool

const (
	Red   Color = false
	Black Color = true
)

// BufferCursor is a (line, column) coordinate internal to one buffer.
type BufferCursor struct {
	Line   int
	Column int
}

// Piece is a value-typed view into one buffer: buffer[start..end).
type Piece struct {
	BufferIndex int
	Start       BufferCursor
	End         BufferCursor
	Length      int
	LineFeedCnt int
}

// Node is one tree node. A single sentinel, private to its Tree, stands in
// for every absent child so rotation and fix-up code never special-cases a
// nil pointer.
type Node struct {
	Color    Color
	Parent   *Node
	Left     *Node
	Right    *Node
	Piece    Piece
	SizeLeft int
	LFLeft   int

	// Detached is set once a node is spliced out of the tree. Callers that
	// cache node pointers (the navigator's search cache) must treat a
	// detached node as stale regardless of what it still points at.
	Detached bool
}

// Tree is an order-statistic red-black tree of Pieces. The zero value is not
// usable; construct with New.
type Tree struct {
	Root     *Node
	sentinel *Node
}

// New returns an empty tree with its own sentinel. Each tree owns its
// sentinel rather than sharing one package-level sentinel, so two
// PieceTreeBase values may be mutated concurrently on different goroutines
// without racing on sentinel bookkeeping (see DESIGN.md).
func New() *Tree {
	s := &Node{Color: Black}
	s.Parent, s.Left, s.Right = s, s, s
	return &Tree{Root: s, sentinel: s}
}

// IsSentinel reports whether n is this tree's sentinel (or nil).
func (t *Tree) IsSentinel(n *Node) bool {
	return n == nil || n == t.sentinel
}

// IsEmpty reports whether the tree holds no pieces.
func (t *Tree) IsEmpty() bool {
	return t.IsSentinel(t.Root)
}

// Leftmost returns the leftmost (first in-order) node of the subtree rooted
// at n.
func (t *Tree) Leftmost(n *Node) *Node {
	if t.IsSentinel(n) {
		return t.sentinel
	}
	for !t.IsSentinel(n.Left) {
		n = n.Left
	}
	return n
}

// Rightmost returns the rightmost (last in-order) node of the subtree rooted
// at n.
func (t *Tree) Rightmost(n *Node) *Node {
	if t.IsSentinel(n) {
		return t.sentinel
	}
	for !t.IsSentinel(n.Right) {
		n = n.Right
	}
	return n
}

// Next returns the in-order successor of n, or the sentinel if n is last.
func (t *Tree) Next(n *Node) *Node {
	if !t.IsSentinel(n.Right) {
		return t.Leftmost(n.Right)
	}
	for !t.IsSentinel(n.Parent) {
		if n.Parent.Left == n {
			break
		}
		n = n.Parent
	}
	return n.Parent
}

// Prev returns the in-order predecessor of n, or the sentinel if n is first.
func (t *Tree) Prev(n *Node) *Node {
	if !t.IsSentinel(n.Left) {
		return t.Rightmost(n.Left)
	}
	for !t.IsSentinel(n.Parent) {
		if n.Parent.Right == n {
			break
		}
		n = n.Parent
	}
	return n.Parent
}

// UpdateMetadata walks from node up to the root, adding delta to SizeLeft
// and lfDelta to LFLeft of every ancestor that has node in its left subtree.
func (t *Tree) UpdateMetadata(node *Node, delta, lfDelta int) {
	for !t.IsSentinel(node) && node != t.Root {
		if node.Parent.Left == node {
			node.Parent.SizeLeft += delta
			node.Parent.LFLeft += lfDelta
		}
		node = node.Parent
	}
}

func (t *Tree) leftRotate(x *Node) {
	y := x.Right
	y.SizeLeft += x.SizeLeft + x.Piece.Length
	y.LFLeft += x.LFLeft + x.Piece.LineFeedCnt

	x.Right = y.Left
	if !t.IsSentinel(y.Left) {
		y.Left.Parent = x
	}
	y.Parent = x.Parent
	if t.IsSentinel(x.Parent) {
		t.Root = y
	} else if x.Parent.Left == x {
		x.Parent.Left = y
	} else {
		x.Parent.Right = y
	}
	y.Left = x
	x.Parent = y
}

func (t *Tree) rightRotate(y *Node) {
	x := y.Left
	y.SizeLeft -= x.SizeLeft + x.Piece.Length
	y.LFLeft -= x.LFLeft + x.Piece.LineFeedCnt

	y.Left = x.Right
	if !t.IsSentinel(x.Right) {
		x.Right.Parent = y
	}
	x.Parent = y.Parent
	if t.IsSentinel(y.Parent) {
		t.Root = x
	} else if y.Parent.Right == y {
		y.Parent.Right = x
	} else {
		y.Parent.Left = x
	}
	x.Right = y
	y.Parent = x
}

func (t *Tree) newNode(p Piece) *Node {
	return &Node{
		Color:  Red,
		Parent: t.sentinel,
		Left:   t.sentinel,
		Right:  t.sentinel,
		Piece:  p,
	}
}

// InsertFirst inserts p as the sole piece of an empty tree.
func (t *Tree) InsertFirst(p Piece) *Node {
	z := t.newNode(p)
	t.Root = z
	z.Color = Black
	return z
}

// InsertRight inserts p as the in-order successor of node.
func (t *Tree) InsertRight(node *Node, p Piece) *Node {
	z := t.newNode(p)
	if t.IsSentinel(node.Right) {
		node.Right = z
		z.Parent = node
	} else {
		next := t.Leftmost(node.Right)
		next.Left = z
		z.Parent = next
	}
	t.UpdateMetadata(z, p.Length, p.LineFeedCnt)
	t.insertFixup(z)
	return z
}

// InsertLeft inserts p as the in-order predecessor of node.
func (t *Tree) InsertLeft(node *Node, p Piece) *Node {
	z := t.newNode(p)
	if t.IsSentinel(node.Left) {
		node.Left = z
		z.Parent = node
	} else {
		prev := t.Rightmost(node.Left)
		prev.Right = z
		z.Parent = prev
	}
	t.UpdateMetadata(z, p.Length, p.LineFeedCnt)
	t.insertFixup(z)
	return z
}

func (t *Tree) insertFixup(z *Node) {
	for z.Parent.Color == Red {
		if z.Parent == z.Parent.Parent.Left {
			y := z.Parent.Parent.Right
			if y.Color == Red {
				z.Parent.Color = Black
				y.Color = Black
				z.Parent.Parent.Color = Red
				z = z.Parent.Parent
			} else {
				if z == z.Parent.Right {
					z = z.Parent
					t.leftRotate(z)
				}
				z.Parent.Color = Black
				z.Parent.Parent.Color = Red
				t.rightRotate(z.Parent.Parent)
			}
		} else {
			y := z.Parent.Parent.Left
			if y.Color == Red {
				z.Parent.Color = Black
				y.Color = Black
				z.Parent.Parent.Color = Red
				z = z.Parent.Parent
			} else {
				if z == z.Parent.Left {
					z = z.Parent
					t.rightRotate(z)
				}
				z.Parent.Color = Black
				z.Parent.Parent.Color = Red
				t.leftRotate(z.Parent.Parent)
			}
		}
		if z == t.Root {
			break
		}
	}
	t.Root.Color = Black
}

// calculateSize sums node.Piece.Length across node's own subtree by walking
// its right spine; bounded by subtree height since SizeLeft already totals
// the left subtree at each step.
func (t *Tree) calculateSize(node *Node) int {
	if t.IsSentinel(node) {
		return 0
	}
	return node.SizeLeft + node.Piece.Length + t.calculateSize(node.Right)
}

func (t *Tree) calculateLF(node *Node) int {
	if t.IsSentinel(node) {
		return 0
	}
	return node.LFLeft + node.Piece.LineFeedCnt + t.calculateLF(node.Right)
}

// Delete removes z from the tree, preserving red-black and aggregate
// invariants.
func (t *Tree) Delete(z *Node) {
	var x, y *Node

	switch {
	case t.IsSentinel(z.Left):
		y = z
		x = y.Right
	case t.IsSentinel(z.Right):
		y = z
		x = y.Left
	default:
		y = t.Leftmost(z.Right)
		x = y.Right
	}

	if y == t.Root {
		t.Root = x
		x.Parent = t.sentinel
		x.Color = Black
		z.Detached = true
		t.resetSentinel()
		return
	}

	yWasRed := y.Color == Red

	// Take z out of every ancestor that counts it in its left subtree, and y
	// out of every ancestor that counts it there; y's share is given back
	// once y sits in z's place.
	t.UpdateMetadata(z, -z.Piece.Length, -z.Piece.LineFeedCnt)
	if y != z {
		t.UpdateMetadata(y, -y.Piece.Length, -y.Piece.LineFeedCnt)
	}

	if y.Parent.Left == y {
		y.Parent.Left = x
	} else {
		y.Parent.Right = x
	}

	if y == z {
		x.Parent = y.Parent
	} else {
		if y.Parent == z {
			x.Parent = y
		} else {
			x.Parent = y.Parent
		}

		y.Left = z.Left
		y.Right = z.Right
		y.Parent = z.Parent
		y.Color = z.Color
		y.SizeLeft = z.SizeLeft
		y.LFLeft = z.LFLeft

		if t.Root == z {
			t.Root = y
		} else if z.Parent.Left == z {
			z.Parent.Left = y
		} else {
			z.Parent.Right = y
		}

		if !t.IsSentinel(y.Left) {
			y.Left.Parent = y
		}
		if !t.IsSentinel(y.Right) {
			y.Right.Parent = y
		}
		t.UpdateMetadata(y, y.Piece.Length, y.Piece.LineFeedCnt)
	}

	z.Detached = true

	if x.Parent.Left == x {
		newSize := t.calculateSize(x)
		newLF := t.calculateLF(x)
		if newSize != x.Parent.SizeLeft || newLF != x.Parent.LFLeft {
			delta := newSize - x.Parent.SizeLeft
			lfDelta := newLF - x.Parent.LFLeft
			x.Parent.SizeLeft = newSize
			x.Parent.LFLeft = newLF
			t.UpdateMetadata(x.Parent, delta, lfDelta)
		}
	}

	if !yWasRed {
		t.deleteFixup(x)
	}
	t.resetSentinel()
}

func (t *Tree) deleteFixup(x *Node) {
	for x != t.Root && x.Color == Black {
		if x == x.Parent.Left {
			w := x.Parent.Right
			if w.Color == Red {
				w.Color = Black
				x.Parent.Color = Red
				t.leftRotate(x.Parent)
				w = x.Parent.Right
			}
			if w.Left.Color == Black && w.Right.Color == Black {
				w.Color = Red
				x = x.Parent
			} else {
				if w.Right.Color == Black {
					w.Left.Color = Black
					w.Color = Red
					t.rightRotate(w)
					w = x.Parent.Right
				}
				w.Color = x.Parent.Color
				x.Parent.Color = Black
				w.Right.Color = Black
				t.leftRotate(x.Parent)
				x = t.Root
			}
		} else {
			w := x.Parent.Left
			if w.Color == Red {
				w.Color = Black
				x.Parent.Color = Red
				t.rightRotate(x.Parent)
				w = x.Parent.Left
			}
			if w.Right.Color == Black && w.Left.Color == Black {
				w.Color = Red
				x = x.Parent
			} else {
				if w.Left.Color == Black {
					w.Right.Color = Black
					w.Color = Red
					t.leftRotate(w)
					w = x.Parent.Left
				}
				w.Color = x.Parent.Color
				x.Parent.Color = Black
				w.Left.Color = Black
				t.rightRotate(x.Parent)
				x = t.Root
			}
		}
	}
	x.Color = Black
}

// resetSentinel restores the sentinel's self-referencing pointers, which
// deletion bookkeeping may have overwritten transiently.
func (t *Tree) resetSentinel() {
	t.sentinel.Parent = t.sentinel
	t.sentinel.Left = t.sentinel
	t.sentinel.Right = t.sentinel
	t.sentinel.Color = Black
}

// Walk performs an in-order traversal, calling f for every node until f
// returns false.
func (t *Tree) Walk(f func(*Node) bool) {
	t.walk(t.Root, f)
}

func (t *Tree) walk(n *Node, f func(*Node) bool) bool {
	if t.IsSentinel(n) {
		return true
	}
	if !t.walk(n.Left, f) {
		return false
	}
	if !f(n) {
		return false
	}
	return t.walk(n.Right, f)
}
