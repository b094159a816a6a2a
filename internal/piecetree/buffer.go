package piecetree

import (
	"sort"

	"github.com/shinyvision/vimfony-text/internal/rbtree"
)

// textBuffer is one backing buffer: an immutable original, or the
// append-only change buffer at index 0. lineStarts holds ascending absolute
// byte offsets, one per line, always starting with 0.
type textBuffer struct {
	content    string
	lineStarts []int
}

func newTextBuffer(content string, lineStarts []int) *textBuffer {
	if lineStarts == nil {
		lineStarts = computeLineStarts(content)
	}
	return &textBuffer{content: content, lineStarts: lineStarts}
}

// computeLineStarts recognizes \r, \n and \r\n as single line breaks.
func computeLineStarts(s string) []int {
	starts := make([]int, 1, len(s)/32+1)
	starts[0] = 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\r':
			if i+1 < len(s) && s[i+1] == '\n' {
				i++
			}
			starts = append(starts, i+1)
		case '\n':
			starts = append(starts, i+1)
		}
	}
	return starts
}

// offsetAt converts a BufferCursor into an absolute byte offset.
func (b *textBuffer) offsetAt(c rbtree.BufferCursor) int {
	return b.lineStarts[c.Line] + c.Column
}

// cursorAt converts an absolute byte offset into a BufferCursor.
func (b *textBuffer) cursorAt(offset int) rbtree.BufferCursor {
	idx := b.lineIndexAt(offset)
	return rbtree.BufferCursor{Line: idx, Column: offset - b.lineStarts[idx]}
}

// lineIndexAt returns the greatest line index i such that lineStarts[i] <= offset.
func (b *textBuffer) lineIndexAt(offset int) int {
	i := sort.Search(len(b.lineStarts), func(i int) bool { return b.lineStarts[i] > offset })
	return i - 1
}

// lineFeedCntBetween counts completed line breaks in [start, end): the
// number of lineStarts entries strictly greater than start and at most end.
// A \r\n that straddles `end` (end lands on the \n, excluding it) is
// naturally not counted, since its lineStarts entry sits past end. This is
// the CRLF-at-tail correction spec.md §3/§8 describes.
func (b *textBuffer) lineFeedCntBetween(start, end int) int {
	if end <= start {
		return 0
	}
	lo := sort.Search(len(b.lineStarts), func(i int) bool { return b.lineStarts[i] > start })
	hi := sort.Search(len(b.lineStarts), func(i int) bool { return b.lineStarts[i] > end })
	return hi - lo
}

func (b *textBuffer) charCodeAt(offset int) (byte, bool) {
	if offset < 0 || offset >= len(b.content) {
		return 0, false
	}
	return b.content[offset], true
}

// append adds text to an append-only buffer (buffer 0) and returns the
// BufferCursor range it now occupies plus the number of line feeds it
// introduced.
func (b *textBuffer) append(text string) (start, end rbtree.BufferCursor, lineFeedCnt int) {
	startOffset := len(b.content)
	startLine := len(b.lineStarts) - 1
	startColumn := startOffset - b.lineStarts[startLine]

	b.content += text

	appended := computeLineStarts(text)
	lineFeedCnt = len(appended) - 1
	for _, rel := range appended[1:] {
		b.lineStarts = append(b.lineStarts, startOffset+rel)
	}

	endLine := len(b.lineStarts) - 1
	endColumn := len(b.content) - b.lineStarts[endLine]

	return rbtree.BufferCursor{Line: startLine, Column: startColumn},
		rbtree.BufferCursor{Line: endLine, Column: endColumn},
		lineFeedCnt
}

// lastCursor returns the BufferCursor one past the last byte in the buffer.
func (b *textBuffer) lastCursor() rbtree.BufferCursor {
	line := len(b.lineStarts) - 1
	return rbtree.BufferCursor{Line: line, Column: len(b.content) - b.lineStarts[line]}
}

func (b *textBuffer) substring(startOffset, endOffset int) string {
	return b.content[startOffset:endOffset]
}
