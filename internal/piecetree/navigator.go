package piecetree

import "github.com/shinyvision/vimfony-text/internal/rbtree"

// nodePosition is the result of locating a document position in the piece
// tree: the owning node, the in-piece byte remainder, the node's starting
// document offset, and the 0-based count of line feeds strictly before the
// node's first byte (so nodeStartLine, 1-based, is lfBefore+1).
type nodePosition struct {
	node            *rbtree.Node
	remainder       int
	nodeStartOffset int
	lfBefore        int
}

func (pt *PieceTreeBase) buffer(piece rbtree.Piece) *textBuffer {
	return pt.buffers[piece.BufferIndex]
}

// nodeAt descends the tree by cumulative size (spec.md §4.3), tracking the
// cumulative line-feed count on the same path so callers get both offset and
// line bookkeeping from a single O(log n) descent.
func (pt *PieceTreeBase) nodeAt(offset int) (nodePosition, bool) {
	if cached, ok := pt.searchCache.lookupOffset(offset); ok {
		return cached, true
	}

	x := pt.tree.Root
	nodeStartOffset := 0
	lfBefore := 0
	for !pt.tree.IsSentinel(x) {
		switch {
		case offset <= x.SizeLeft && x.SizeLeft > 0:
			x = x.Left
		case offset <= x.SizeLeft+x.Piece.Length:
			nodeStartOffset += x.SizeLeft
			lfBefore += x.LFLeft
			np := nodePosition{node: x, remainder: offset - x.SizeLeft, nodeStartOffset: nodeStartOffset, lfBefore: lfBefore}
			pt.searchCache.insert(np)
			return np, true
		default:
			offset -= x.SizeLeft + x.Piece.Length
			nodeStartOffset += x.SizeLeft + x.Piece.Length
			lfBefore += x.LFLeft + x.Piece.LineFeedCnt
			x = x.Right
		}
	}
	return nodePosition{}, false
}

// nodeAt2 descends the tree by cumulative line-feed count to locate the
// node owning (lineNumber, column) (spec.md §4.4). A node is only a left-
// descent candidate when it actually has a left child: the leftmost node on
// any path has LFLeft==0 by construction, and for the first line of any
// subtree that is the correct terminal node, not a sentinel to recurse into.
//
// A piece can own the *start* of a line without owning its end (the line's
// terminating break lives in a later piece, e.g. right after an insert that
// split a piece mid-line). When that happens and column overflows the
// piece's remaining bytes, resolution continues with a forward walk through
// successor nodes until one is found that either contains a line break or
// has enough remaining length to absorb the rest of column.
func (pt *PieceTreeBase) nodeAt2(lineNumber, column int) (node *rbtree.Node, remainder, nodeStartOffset int, ok bool) {
	x := pt.tree.Root
	line := lineNumber
	col := column
	offset := 0

	for !pt.tree.IsSentinel(x) {
		if !pt.tree.IsSentinel(x.Left) && x.LFLeft >= line-1 {
			x = x.Left
			continue
		}

		xStart := offset + x.SizeLeft

		if x.LFLeft+x.Piece.LineFeedCnt > line-1 {
			buf := pt.buffer(x.Piece)
			acc := accumulatedValue(buf, x.Piece, line-x.LFLeft-1)
			r := acc + col - 1
			if r > x.Piece.Length {
				r = x.Piece.Length
			}
			return x, r, xStart, true
		}

		if x.LFLeft+x.Piece.LineFeedCnt == line-1 {
			buf := pt.buffer(x.Piece)
			acc := accumulatedValue(buf, x.Piece, line-x.LFLeft-1)
			if acc+col-1 <= x.Piece.Length {
				return x, acc + col - 1, xStart, true
			}
			col -= x.Piece.Length - acc
			return pt.forwardWalkColumn(x, xStart+x.Piece.Length, col)
		}

		line -= x.LFLeft + x.Piece.LineFeedCnt
		offset = xStart + x.Piece.Length
		x = x.Right
	}
	return nil, 0, 0, false
}

// forwardWalkColumn continues resolving a column that overflowed the piece
// ending at nodeStartOffset, walking successor nodes in document order.
func (pt *PieceTreeBase) forwardWalkColumn(after *rbtree.Node, nodeStartOffset, col int) (node *rbtree.Node, remainder, startOffset int, ok bool) {
	x := pt.tree.Next(after)
	for !pt.tree.IsSentinel(x) {
		if x.Piece.LineFeedCnt > 0 {
			buf := pt.buffer(x.Piece)
			acc := accumulatedValue(buf, x.Piece, 1)
			r := col - 1
			if r > acc {
				r = acc
			}
			return x, r, nodeStartOffset, true
		}
		if x.Piece.Length >= col-1 {
			return x, col - 1, nodeStartOffset, true
		}
		col -= x.Piece.Length
		nodeStartOffset += x.Piece.Length
		x = pt.tree.Next(x)
	}
	return nil, 0, 0, false
}

// accumulatedValue returns the piece-relative byte offset reached after
// skipping i completed line breaks inside piece (i==0 means the start of the
// piece itself), clamped at the piece's end.
func accumulatedValue(buf *textBuffer, piece rbtree.Piece, i int) int {
	pieceStart := buf.offsetAt(piece.Start)
	pieceEnd := buf.offsetAt(piece.End)
	if i <= 0 {
		return 0
	}
	idx := piece.Start.Line + i
	if idx >= len(buf.lineStarts) {
		return pieceEnd - pieceStart
	}
	abs := buf.lineStarts[idx]
	if abs > pieceEnd {
		return pieceEnd - pieceStart
	}
	return abs - pieceStart
}

// getIndexOf inverts accumulatedValue: given a piece-relative byte offset v,
// return how many line breaks precede it within the piece and the column on
// that line, with the CRLF-at-tail correction of spec.md §4.4.
func getIndexOf(buf *textBuffer, piece rbtree.Piece, v int) (i, column int) {
	pieceStart := buf.offsetAt(piece.Start)
	pieceEnd := buf.offsetAt(piece.End)
	absolute := pieceStart + v

	idx := buf.lineIndexAt(absolute)
	i = idx - piece.Start.Line
	if i < 0 {
		i = 0
	}
	column = absolute - buf.lineStarts[idx]

	if absolute == pieceEnd {
		real := buf.lineFeedCntBetween(pieceStart, pieceEnd)
		if real > i {
			return real, 0
		}
	}
	return i, column
}

// GetOffsetAt converts a 1-based (line, column) into a 0-based byte offset.
// Columns past end-of-line clip to end-of-line; line numbers past the last
// line clamp to the last line (spec.md §7).
func (pt *PieceTreeBase) GetOffsetAt(lineNumber, column int) int {
	if pt.tree.IsEmpty() {
		return 0
	}
	lineNumber = clampInt(lineNumber, 1, pt.lineCnt)
	if column < 1 {
		column = 1
	}

	_, remainder, nodeStartOffset, ok := pt.nodeAt2(lineNumber, column)
	if !ok {
		return pt.length
	}
	return clampInt(nodeStartOffset+remainder, 0, pt.length)
}

// GetPositionAt converts a 0-based byte offset into a 1-based (line, column).
func (pt *PieceTreeBase) GetPositionAt(offset int) (line, column int) {
	offset = clampInt(offset, 0, pt.length)
	if pt.tree.IsEmpty() {
		return 1, 1
	}

	np, ok := pt.nodeAt(offset)
	if !ok {
		return pt.lineCnt, 1
	}

	buf := pt.buffer(np.node.Piece)
	i, col := getIndexOf(buf, np.node.Piece, np.remainder)
	line = np.lfBefore + i + 1

	if i > 0 {
		return line, col + 1
	}

	lineStart := pt.GetOffsetAt(line, 1)
	return line, offset-lineStart+1
}
