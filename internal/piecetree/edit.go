package piecetree

import (
	"unicode/utf8"

	"github.com/shinyvision/vimfony-text/internal/rbtree"
)

// fillerByte is the one-byte separator createNewPieces writes into the
// change buffer when an appended \n would otherwise land immediately after
// an existing \r left over from an unrelated, independently created piece.
// It is never referenced by any piece; it exists purely so buffer 0 never
// contains a synthetic \r\n that no piece owns (spec.md §9 open question).
const fillerByte = "_"

// setNodePiece replaces the Piece value stored at node (never mutating the
// old value the snapshot machinery may still be holding a copy of) and
// propagates the size/line-feed delta to ancestor aggregates and the
// tree-wide totals.
func (pt *PieceTreeBase) setNodePiece(node *rbtree.Node, p rbtree.Piece) {
	deltaLen := p.Length - node.Piece.Length
	deltaLF := p.LineFeedCnt - node.Piece.LineFeedCnt
	node.Piece = p
	pt.tree.UpdateMetadata(node, deltaLen, deltaLF)
	pt.length += deltaLen
	pt.lineCnt += deltaLF
}

// deleteNode removes node from the tree and its content from the tree-wide
// totals.
func (pt *PieceTreeBase) deleteNode(node *rbtree.Node) {
	pt.length -= node.Piece.Length
	pt.lineCnt -= node.Piece.LineFeedCnt
	pt.tree.Delete(node)
}

// insertPieceRight inserts p as anchor's immediate successor, or as the
// tree's sole node if the tree is currently empty.
func (pt *PieceTreeBase) insertPieceRight(anchor *rbtree.Node, p rbtree.Piece) *rbtree.Node {
	var node *rbtree.Node
	if pt.tree.IsEmpty() {
		node = pt.tree.InsertFirst(p)
	} else {
		node = pt.tree.InsertRight(anchor, p)
	}
	pt.length += p.Length
	pt.lineCnt += p.LineFeedCnt
	return node
}

func (pt *PieceTreeBase) deleteNodeHead(node *rbtree.Node, newStartRemainder int) {
	buf := pt.buffer(node.Piece)
	startOffset := buf.offsetAt(node.Piece.Start)
	newStartOffset := startOffset + newStartRemainder
	endOffset := buf.offsetAt(node.Piece.End)
	pt.setNodePiece(node, rbtree.Piece{
		BufferIndex: node.Piece.BufferIndex,
		Start:       buf.cursorAt(newStartOffset),
		End:         node.Piece.End,
		Length:      endOffset - newStartOffset,
		LineFeedCnt: buf.lineFeedCntBetween(newStartOffset, endOffset),
	})
}

func (pt *PieceTreeBase) deleteNodeTail(node *rbtree.Node, newEndRemainder int) {
	buf := pt.buffer(node.Piece)
	startOffset := buf.offsetAt(node.Piece.Start)
	newEndOffset := startOffset + newEndRemainder
	pt.setNodePiece(node, rbtree.Piece{
		BufferIndex: node.Piece.BufferIndex,
		Start:       node.Piece.Start,
		End:         buf.cursorAt(newEndOffset),
		Length:      newEndOffset - startOffset,
		LineFeedCnt: buf.lineFeedCntBetween(startOffset, newEndOffset),
	})
}

// shrinkNode splits node into a left remnant (kept at node) and a right
// remnant (inserted as node's new successor), dropping the byte range
// [startRemainder, endRemainder) between them.
func (pt *PieceTreeBase) shrinkNode(node *rbtree.Node, startRemainder, endRemainder int) *rbtree.Node {
	buf := pt.buffer(node.Piece)
	pieceStartOffset := buf.offsetAt(node.Piece.Start)
	pieceEndOffset := buf.offsetAt(node.Piece.End)
	leftEndOffset := pieceStartOffset + startRemainder
	rightStartOffset := pieceStartOffset + endRemainder

	rightPiece := rbtree.Piece{
		BufferIndex: node.Piece.BufferIndex,
		Start:       buf.cursorAt(rightStartOffset),
		End:         node.Piece.End,
		Length:      pieceEndOffset - rightStartOffset,
		LineFeedCnt: buf.lineFeedCntBetween(rightStartOffset, pieceEndOffset),
	}
	leftPiece := rbtree.Piece{
		BufferIndex: node.Piece.BufferIndex,
		Start:       node.Piece.Start,
		End:         buf.cursorAt(leftEndOffset),
		Length:      leftEndOffset - pieceStartOffset,
		LineFeedCnt: buf.lineFeedCntBetween(pieceStartOffset, leftEndOffset),
	}

	pt.setNodePiece(node, leftPiece)
	right := pt.tree.InsertRight(node, rightPiece)
	pt.length += rightPiece.Length
	pt.lineCnt += rightPiece.LineFeedCnt
	return right
}

// backOffToRuneBoundary walks n back until it no longer splits a multi-byte
// UTF-8 rune, the Go-idiomatic reading of spec.md §4.5's "never split a
// UTF-16 surrogate pair" rule (UTF-8 has no surrogates; the equivalent
// hazard is slicing inside a multi-byte encoding).
func backOffToRuneBoundary(s string, n int) int {
	for n > 0 && n < len(s) && !utf8.RuneStart(s[n]) {
		n--
	}
	return n
}

// createNewPieces turns user text into one or more Pieces: a single
// change-buffer append for ordinary-sized inserts, or a chain of dedicated
// read-only buffers, each up to AverageBufferSize bytes, for very large
// inserts (spec.md §4.5).
func (pt *PieceTreeBase) createNewPieces(text string) []rbtree.Piece {
	if text == "" {
		return nil
	}
	if len(text) <= AverageBufferSize {
		return []rbtree.Piece{pt.appendToChangeBuffer(text)}
	}
	return pt.createNewPiecesFromChunks(text)
}

func (pt *PieceTreeBase) appendToChangeBuffer(text string) rbtree.Piece {
	buf := pt.buffers[0]
	if endsWithCR(buf.content) && startsWithLF(text) {
		buf.append(fillerByte)
	}
	start, end, lf := buf.append(text)
	pt.lastChangeBufferPos = end
	return rbtree.Piece{
		BufferIndex: 0,
		Start:       start,
		End:         end,
		Length:      len(text),
		LineFeedCnt: lf,
	}
}

func (pt *PieceTreeBase) createNewPiecesFromChunks(text string) []rbtree.Piece {
	var pieces []rbtree.Piece
	total := len(text)
	for len(text) > 0 {
		n := AverageBufferSize
		if n >= len(text) {
			n = len(text)
		} else {
			if text[n-1] == '\r' && text[n] == '\n' {
				n--
			}
			if b := backOffToRuneBoundary(text, n); b > 0 {
				n = b
			}
		}

		chunk := text[:n]
		buf := newTextBuffer(chunk, nil)
		idx := len(pt.buffers)
		pt.buffers = append(pt.buffers, buf)
		pieces = append(pieces, rbtree.Piece{
			BufferIndex: idx,
			Start:       rbtree.BufferCursor{Line: 0, Column: 0},
			End:         buf.lastCursor(),
			Length:      len(chunk),
			LineFeedCnt: len(buf.lineStarts) - 1,
		})
		text = text[n:]
	}
	pt.logger.Debugf("chunked %d-byte insert into %d read-only buffer(s)", total, len(pieces))
	return pieces
}

func endsWithCR(s string) bool   { return s != "" && s[len(s)-1] == '\r' }
func startsWithLF(s string) bool { return s != "" && s[0] == '\n' }

// Insert inserts text at offset. eolNormalized tells the engine whether the
// caller already ensured text's line endings match GetEOL(); the tree's own
// _EOLNormalized flag is the logical AND of every insert's claim.
func (pt *PieceTreeBase) Insert(offset int, text string, eolNormalized bool) {
	pt.eolNormalized = pt.eolNormalized && eolNormalized
	pt.invalidateLastVisitedLine()
	if text == "" {
		return
	}
	offset = clampInt(offset, 0, pt.length)

	if pt.tree.IsEmpty() {
		pieces := pt.createNewPieces(text)
		var anchor *rbtree.Node
		for i, p := range pieces {
			if i == 0 {
				anchor = pt.tree.InsertFirst(p)
			} else {
				anchor = pt.tree.InsertRight(anchor, p)
			}
			pt.length += p.Length
			pt.lineCnt += p.LineFeedCnt
		}
		pt.logger.Debugf("insert: %d byte(s) into empty tree", len(text))
		return
	}

	np, ok := pt.nodeAt(offset)
	if !ok {
		return
	}

	if pt.tryAppendFastPath(np.node, np.nodeStartOffset, offset, text) {
		pt.searchCache.invalidateFrom(offset)
		return
	}

	switch {
	case np.remainder == 0:
		pt.insertAtNodeStart(np.node, text)
	case np.remainder == np.node.Piece.Length:
		pt.insertAtNodeEnd(np.node, text)
	default:
		pt.insertInMiddle(np.node, np.remainder, text)
	}
	pt.searchCache.invalidateFrom(offset)
}

// tryAppendFastPath extends the most recently appended change-buffer piece
// in place instead of allocating a new node, per spec.md §4.5 step 4.
func (pt *PieceTreeBase) tryAppendFastPath(node *rbtree.Node, nodeStartOffset, offset int, text string) bool {
	if node.Piece.BufferIndex != 0 {
		return false
	}
	if node.Piece.End != pt.lastChangeBufferPos {
		return false
	}
	if offset != nodeStartOffset+node.Piece.Length {
		return false
	}
	if len(text) >= AverageBufferSize {
		return false
	}

	text = pt.adjustCarriageReturnFromNext(text, node)

	buf := pt.buffers[0]
	if endsWithCR(buf.content) && startsWithLF(text) {
		// The trailing \r is this piece's own last byte; with the appended \n
		// it forms one \r\n break, so drop the line start the lone \r made.
		buf.lineStarts = buf.lineStarts[:len(buf.lineStarts)-1]
	}
	startOffset := buf.offsetAt(node.Piece.Start)
	_, end, _ := buf.append(text)
	pt.lastChangeBufferPos = end

	pt.setNodePiece(node, rbtree.Piece{
		BufferIndex: 0,
		Start:       node.Piece.Start,
		End:         end,
		Length:      node.Piece.Length + len(text),
		LineFeedCnt: buf.lineFeedCntBetween(startOffset, buf.offsetAt(end)),
	})
	pt.logger.Debugf("insert: extended change-buffer piece in place by %d byte(s)", len(text))
	return true
}

func (pt *PieceTreeBase) insertAtNodeStart(node *rbtree.Node, text string) {
	pieces := pt.createNewPieces(text)
	if len(pieces) == 0 {
		return
	}
	var first, last *rbtree.Node
	for i, p := range pieces {
		n := pt.tree.InsertLeft(node, p)
		pt.length += p.Length
		pt.lineCnt += p.LineFeedCnt
		if i == 0 {
			first = n
		}
		last = n
	}
	pt.validateCRLFWithPrevNode(first)
	pt.validateCRLFWithNextNode(last)
	pt.logger.Debugf("insert: %d byte(s) before piece boundary", len(text))
}

func (pt *PieceTreeBase) insertAtNodeEnd(node *rbtree.Node, text string) {
	pieces := pt.createNewPieces(text)
	if len(pieces) == 0 {
		return
	}
	anchor := node
	var first, last *rbtree.Node
	for i, p := range pieces {
		n := pt.tree.InsertRight(anchor, p)
		pt.length += p.Length
		pt.lineCnt += p.LineFeedCnt
		if i == 0 {
			first = n
		}
		last = n
		anchor = n
	}
	pt.validateCRLFWithPrevNode(first)
	pt.validateCRLFWithNextNode(last)
	pt.logger.Debugf("insert: %d byte(s) after piece boundary", len(text))
}

// insertInMiddle splits node at remainder and inserts text between the two
// halves, applying the CRLF split fixups of spec.md §4.5 step 6.
func (pt *PieceTreeBase) insertInMiddle(node *rbtree.Node, remainder int, text string) {
	buf := pt.buffer(node.Piece)
	origStart := node.Piece.Start
	origStartOffset := buf.offsetAt(origStart)
	origEndOffset := buf.offsetAt(node.Piece.End)
	splitOffset := origStartOffset + remainder
	leftEndOffset := splitOffset

	checkCRLF := pt.shouldCheckCRLF()

	if checkCRLF && endsWithCR(text) {
		if c, ok := buf.charCodeAt(splitOffset); ok && c == '\n' {
			text += "\n"
			splitOffset++
		}
	}
	if checkCRLF && startsWithLF(text) {
		if c, ok := buf.charCodeAt(leftEndOffset - 1); ok && c == '\r' {
			text = "\r" + text
			leftEndOffset--
		}
	}

	newLeft := rbtree.Piece{
		BufferIndex: node.Piece.BufferIndex,
		Start:       origStart,
		End:         buf.cursorAt(leftEndOffset),
		Length:      leftEndOffset - origStartOffset,
		LineFeedCnt: buf.lineFeedCntBetween(origStartOffset, leftEndOffset),
	}
	newRight := rbtree.Piece{
		BufferIndex: node.Piece.BufferIndex,
		Start:       buf.cursorAt(splitOffset),
		End:         node.Piece.End,
		Length:      origEndOffset - splitOffset,
		LineFeedCnt: buf.lineFeedCntBetween(splitOffset, origEndOffset),
	}

	pt.setNodePiece(node, newLeft)

	anchor := node
	for _, p := range pt.createNewPieces(text) {
		n := pt.tree.InsertRight(anchor, p)
		pt.length += p.Length
		pt.lineCnt += p.LineFeedCnt
		anchor = n
	}

	if newRight.Length > 0 {
		pt.tree.InsertRight(anchor, newRight)
		pt.length += newRight.Length
		pt.lineCnt += newRight.LineFeedCnt
	}

	if node.Piece.Length == 0 {
		pt.deleteNode(node)
	}
	pt.logger.Debugf("insert: split piece at remainder %d", remainder)
}

// Delete removes count bytes starting at offset. Non-positive count or an
// empty tree is a no-op (spec.md §7).
func (pt *PieceTreeBase) Delete(offset, count int) {
	pt.invalidateLastVisitedLine()
	if count <= 0 || pt.tree.IsEmpty() {
		return
	}
	offset = clampInt(offset, 0, pt.length)
	count = clampInt(count, 0, pt.length-offset)
	if count == 0 {
		return
	}

	start, ok1 := pt.nodeAt(offset)
	end, ok2 := pt.nodeAt(offset + count)
	if !ok1 || !ok2 {
		return
	}

	if start.node == end.node {
		pt.deleteWithinNode(start, end)
	} else {
		pt.deleteAcrossNodes(start, end)
	}

	pt.searchCache.invalidateFrom(offset)
	pt.logger.Debugf("delete: %d byte(s) at offset %d", count, offset)
}

func (pt *PieceTreeBase) deleteWithinNode(start, end nodePosition) {
	node := start.node
	switch {
	case start.remainder == 0 && end.remainder == node.Piece.Length:
		prev := pt.tree.Prev(node)
		pt.deleteNode(node)
		if !pt.tree.IsSentinel(prev) {
			pt.validateCRLFWithNextNode(prev)
		}
	case start.remainder == 0:
		pt.deleteNodeHead(node, end.remainder)
		pt.validateCRLFWithPrevNode(node)
	case end.remainder == node.Piece.Length:
		pt.deleteNodeTail(node, start.remainder)
		pt.validateCRLFWithNextNode(node)
	default:
		right := pt.shrinkNode(node, start.remainder, end.remainder)
		pt.validateCRLFWithNextNode(node)
		pt.validateCRLFWithPrevNode(right)
	}
}

func (pt *PieceTreeBase) deleteAcrossNodes(start, end nodePosition) {
	startNode := start.node
	endNode := end.node

	var between []*rbtree.Node
	for n := pt.tree.Next(startNode); !pt.tree.IsSentinel(n) && n != endNode; n = pt.tree.Next(n) {
		between = append(between, n)
	}

	prev := pt.tree.Prev(startNode)

	pt.deleteNodeTail(startNode, start.remainder)
	pt.deleteNodeHead(endNode, end.remainder)
	for _, n := range between {
		pt.deleteNodeTail(n, 0)
	}

	var survivor *rbtree.Node
	if startNode.Piece.Length == 0 {
		pt.deleteNode(startNode)
		if !pt.tree.IsSentinel(prev) {
			survivor = prev
		}
	} else {
		survivor = startNode
	}
	for _, n := range between {
		pt.deleteNode(n)
	}
	if endNode.Piece.Length == 0 {
		pt.deleteNode(endNode)
	}

	if survivor != nil && !pt.tree.IsSentinel(survivor) {
		pt.validateCRLFWithNextNode(survivor)
	}
}
