package piecetree

import "github.com/shinyvision/vimfony-text/internal/rbtree"

// shouldCheckCRLF reports whether the CRLF boundary guard is active. It is
// a no-op once the document is normalized to "\n" only (spec.md §4.6).
func (pt *PieceTreeBase) shouldCheckCRLF() bool {
	return !(pt.eolNormalized && pt.eol == "\n")
}

func (pt *PieceTreeBase) startWithLF(piece rbtree.Piece) bool {
	if piece.Length == 0 {
		return false
	}
	buf := pt.buffer(piece)
	c, ok := buf.charCodeAt(buf.offsetAt(piece.Start))
	return ok && c == '\n'
}

func (pt *PieceTreeBase) endWithCR(piece rbtree.Piece) bool {
	if piece.Length == 0 {
		return false
	}
	buf := pt.buffer(piece)
	c, ok := buf.charCodeAt(buf.offsetAt(piece.End) - 1)
	return ok && c == '\r'
}

// validateCRLFWithPrevNode repairs invariant CR-LF-UNITY at node's left
// boundary: if node begins with \n and its predecessor ends with \r, the
// pair must live in one piece.
func (pt *PieceTreeBase) validateCRLFWithPrevNode(node *rbtree.Node) {
	if !pt.shouldCheckCRLF() || pt.tree.IsSentinel(node) {
		return
	}
	if !pt.startWithLF(node.Piece) {
		return
	}
	prev := pt.tree.Prev(node)
	if pt.tree.IsSentinel(prev) || !pt.endWithCR(prev.Piece) {
		return
	}
	pt.fixCRLF(prev, node)
}

// validateCRLFWithNextNode repairs invariant CR-LF-UNITY at node's right
// boundary.
func (pt *PieceTreeBase) validateCRLFWithNextNode(node *rbtree.Node) {
	if !pt.shouldCheckCRLF() || pt.tree.IsSentinel(node) {
		return
	}
	if !pt.endWithCR(node.Piece) {
		return
	}
	next := pt.tree.Next(node)
	if pt.tree.IsSentinel(next) || !pt.startWithLF(next.Piece) {
		return
	}
	pt.fixCRLF(node, next)
}

// fixCRLF re-establishes CR-LF-UNITY between adjacent prev/next pieces whose
// boundary splits a \r\n pair: it shortens both, and inserts a dedicated
// two-byte piece holding the reunited pair.
func (pt *PieceTreeBase) fixCRLF(prev, next *rbtree.Node) {
	prevBuf := pt.buffer(prev.Piece)
	prevEndOffset := prevBuf.offsetAt(prev.Piece.End)
	newPrevEndOffset := prevEndOffset - 1
	newPrev := rbtree.Piece{
		BufferIndex: prev.Piece.BufferIndex,
		Start:       prev.Piece.Start,
		End:         prevBuf.cursorAt(newPrevEndOffset),
		Length:      prev.Piece.Length - 1,
		LineFeedCnt: prevBuf.lineFeedCntBetween(prevBuf.offsetAt(prev.Piece.Start), newPrevEndOffset),
	}

	nextBuf := pt.buffer(next.Piece)
	newNextStartOffset := nextBuf.offsetAt(next.Piece.Start) + 1
	newNext := rbtree.Piece{
		BufferIndex: next.Piece.BufferIndex,
		Start:       nextBuf.cursorAt(newNextStartOffset),
		End:         next.Piece.End,
		Length:      next.Piece.Length - 1,
		LineFeedCnt: nextBuf.lineFeedCntBetween(newNextStartOffset, nextBuf.offsetAt(next.Piece.End)),
	}

	pt.setNodePiece(prev, newPrev)
	pt.setNodePiece(next, newNext)

	crlfPieces := pt.createNewPieces("\r\n")
	anchor := prev
	for _, p := range crlfPieces {
		anchor = pt.insertPieceRight(anchor, p)
	}

	if prev.Piece.Length == 0 {
		pt.deleteNode(prev)
	}
	if next.Piece.Length == 0 {
		pt.deleteNode(next)
	}
}

// adjustCarriageReturnFromNext steals a successor's leading \n when value
// ends with \r, keeping the pair in one piece (used by the append fast path;
// other inserts repair the boundary with the validateCRLF helpers).
func (pt *PieceTreeBase) adjustCarriageReturnFromNext(value string, node *rbtree.Node) string {
	if !pt.shouldCheckCRLF() || value == "" || value[len(value)-1] != '\r' {
		return value
	}
	next := pt.tree.Next(node)
	if pt.tree.IsSentinel(next) || !pt.startWithLF(next.Piece) {
		return value
	}

	value += "\n"
	if next.Piece.Length == 1 {
		pt.deleteNode(next)
		return value
	}

	buf := pt.buffer(next.Piece)
	newStartOffset := buf.offsetAt(next.Piece.Start) + 1
	newPiece := rbtree.Piece{
		BufferIndex: next.Piece.BufferIndex,
		Start:       buf.cursorAt(newStartOffset),
		End:         next.Piece.End,
		Length:      next.Piece.Length - 1,
		LineFeedCnt: buf.lineFeedCntBetween(newStartOffset, buf.offsetAt(next.Piece.End)),
	}
	pt.setNodePiece(next, newPiece)
	return value
}
