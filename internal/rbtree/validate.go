package rbtree

import "fmt"

// Validate checks the red-black properties and the size_left/lf_left
// aggregates against the actual subtree sums. It is used by this package's
// own tests (spec testable properties 3 and 4); a violation is a programmer
// error, not a recoverable condition.
func (t *Tree) Validate() error {
	if t.IsSentinel(t.Root) {
		return nil
	}
	if t.Root.Color != Black {
		return fmt.Errorf("rbtree: root is not black")
	}
	_, err := t.validate(t.Root)
	return err
}

func (t *Tree) validate(n *Node) (blackHeight int, err error) {
	if t.IsSentinel(n) {
		return 0, nil
	}

	if n.Color == Red {
		if n.Left.Color == Red || n.Right.Color == Red {
			return 0, fmt.Errorf("rbtree: red node has a red child")
		}
	}

	wantSize := t.calculateSize(n.Left)
	wantLF := t.calculateLF(n.Left)
	if n.SizeLeft != wantSize {
		return 0, fmt.Errorf("rbtree: size_left mismatch: have %d want %d", n.SizeLeft, wantSize)
	}
	if n.LFLeft != wantLF {
		return 0, fmt.Errorf("rbtree: lf_left mismatch: have %d want %d", n.LFLeft, wantLF)
	}
	if n.Piece.Length < 0 {
		return 0, fmt.Errorf("rbtree: piece with negative length")
	}

	lh, err := t.validate(n.Left)
	if err != nil {
		return 0, err
	}
	rh, err := t.validate(n.Right)
	if err != nil {
		return 0, err
	}
	if lh != rh {
		return 0, fmt.Errorf("rbtree: unequal black height (%d vs %d)", lh, rh)
	}

	bh := lh
	if n.Color == Black {
		bh++
	}
	return bh, nil
}
