package piecetree

import "github.com/shinyvision/vimfony-text/internal/rbtree"

// SetEOL rewrites every line terminator in the document to newEOL and
// rebuilds the tree from freshly chunked read-only buffers (spec.md §4.8).
// Idempotent: calling it twice with the same value is observably identical
// to calling it once (testable property 8), since the rebuilt tree no
// longer references any of the old mixed-ending buffers.
func (pt *PieceTreeBase) SetEOL(newEOL string) {
	if newEOL != "\r\n" {
		newEOL = "\n"
	}

	content := pt.GetValueInRange(Range{Start: 0, End: pt.length}, "")
	normalized := normalizeEOL(content, newEOL)

	// Chunk target size per spec.md §4.8; a soft lower bound only, since
	// the last chunk of a document is whatever remains.
	const chunkLo = AverageBufferSize * 2 / 3
	const chunkHi = AverageBufferSize * 2

	buffers := []*textBuffer{pt.buffers[0]}
	var pieces []rbtree.Piece

	for len(normalized) > 0 {
		n := chunkHi
		if n >= len(normalized) {
			n = len(normalized)
		} else if newEOL == "\r\n" && normalized[n-1] == '\r' {
			n--
		}

		chunk := normalized[:n]
		buf := newTextBuffer(chunk, nil)
		idx := len(buffers)
		buffers = append(buffers, buf)
		pieces = append(pieces, rbtree.Piece{
			BufferIndex: idx,
			Start:       rbtree.BufferCursor{Line: 0, Column: 0},
			End:         buf.lastCursor(),
			Length:      len(chunk),
			LineFeedCnt: len(buf.lineStarts) - 1,
		})
		normalized = normalized[n:]
	}

	pt.buffers = buffers
	pt.eol = newEOL
	pt.lastChangeBufferPos = pt.buffers[0].lastCursor()
	pt.buildFromPieces(pieces)
	pt.eolNormalized = true
	pt.logger.Debugf("normalized EOL to %q across %d buffer(s)", newEOL, len(pieces))
}
