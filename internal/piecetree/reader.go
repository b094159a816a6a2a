package piecetree

import (
	"strings"

	"github.com/shinyvision/vimfony-text/internal/rbtree"
)

// Range is a half-open [Start, End) span of 0-based byte offsets.
type Range struct {
	Start int
	End   int
}

// GetValueInRange returns the document bytes in rng, walking every piece the
// range touches (spec.md §4.7). eol, if non-empty, re-terminates embedded
// line breaks to that sequence instead of returning them as stored.
func (pt *PieceTreeBase) GetValueInRange(rng Range, eol string) string {
	start := clampInt(rng.Start, 0, pt.length)
	end := clampInt(rng.End, 0, pt.length)
	if end <= start {
		return ""
	}

	var sb strings.Builder
	sb.Grow(end - start)
	pt.collect(start, end, func(s string) { sb.WriteString(s) })
	value := sb.String()
	if eol == "" || (eol == pt.eol && pt.eolNormalized) {
		return value
	}
	return normalizeEOL(value, eol)
}

// collect walks every piece overlapping [start, end) in document order,
// calling emit with each piece's contribution.
func (pt *PieceTreeBase) collect(start, end int, emit func(string)) {
	startPos, ok := pt.nodeAt(start)
	if !ok {
		return
	}

	node := startPos.node
	offset := startPos.nodeStartOffset
	for !pt.tree.IsSentinel(node) && offset < end {
		buf := pt.buffer(node.Piece)
		pieceStartOffset := buf.offsetAt(node.Piece.Start)

		loOff := 0
		if start > offset {
			loOff = start - offset
		}
		hiOff := node.Piece.Length
		if end < offset+node.Piece.Length {
			hiOff = end - offset
		}
		if hiOff > loOff {
			emit(buf.substring(pieceStartOffset+loOff, pieceStartOffset+hiOff))
		}

		offset += node.Piece.Length
		node = pt.tree.Next(node)
	}
}

// normalizeEOL rewrites every \r\n, lone \r and lone \n in s to eol.
func normalizeEOL(s, eol string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\r':
			sb.WriteString(eol)
			if i+1 < len(s) && s[i+1] == '\n' {
				i++
			}
		case '\n':
			sb.WriteString(eol)
		default:
			sb.WriteByte(s[i])
		}
	}
	return sb.String()
}

// GetLinesContent returns every line's text, EOL characters stripped, in
// document order.
func (pt *PieceTreeBase) GetLinesContent() []string {
	lines := make([]string, 0, pt.lineCnt)
	for i := 1; i <= pt.lineCnt; i++ {
		lines = append(lines, pt.GetLineContent(i))
	}
	return lines
}

// GetLineContent returns one line's text (EOL stripped), consulting and
// refreshing the single-entry last-visited-line cache (spec.md §4.7).
func (pt *PieceTreeBase) GetLineContent(lineNumber int) string {
	if pt.lastVisitedLine.valid && pt.lastVisitedLine.lineNumber == lineNumber {
		return pt.lastVisitedLine.value
	}

	var value string
	if lineNumber == pt.lineCnt {
		value = pt.GetValueInRange(Range{Start: pt.GetOffsetAt(lineNumber, 1), End: pt.length}, "")
	} else {
		start := pt.GetOffsetAt(lineNumber, 1)
		end := pt.GetOffsetAt(lineNumber+1, 1)
		value = strings.TrimSuffix(strings.TrimSuffix(pt.GetValueInRange(Range{Start: start, End: end}, ""), "\n"), "\r")
	}

	pt.lastVisitedLine.valid = true
	pt.lastVisitedLine.lineNumber = lineNumber
	pt.lastVisitedLine.value = value
	return value
}

// Equal reports whether pt and other hold the same content and EOL choice.
// Equality is defined by rendered bytes, not tree shape: two trees built by
// different edit histories that happen to read back identically are equal.
func (pt *PieceTreeBase) Equal(other *PieceTreeBase) bool {
	if other == nil {
		return false
	}
	if pt.length != other.length || pt.eol != other.eol {
		return false
	}
	return pt.GetValueInRange(Range{Start: 0, End: pt.length}, "") ==
		other.GetValueInRange(Range{Start: 0, End: other.length}, "")
}

// GetLineLength returns a line's byte length, EOL excluded.
func (pt *PieceTreeBase) GetLineLength(lineNumber int) int {
	return len(pt.GetLineContent(lineNumber))
}

// GetLineCharCode returns the byte at a 0-based index within a line,
// including its line-terminator bytes (so index == line length peeks the
// first EOL byte, letting callers distinguish "\n" from "\r\n" tails).
// Returns 0 past the end of the final line (spec.md §9 open question:
// the reference implementation signals end-of-document this way rather
// than with a distinct sentinel).
func (pt *PieceTreeBase) GetLineCharCode(lineNumber, index int) int {
	lineStart := pt.GetOffsetAt(lineNumber, 1)
	var lineEnd int
	if lineNumber == pt.lineCnt {
		lineEnd = pt.length
	} else {
		lineEnd = pt.GetOffsetAt(lineNumber+1, 1)
	}
	offset := lineStart + index
	if offset < lineStart || offset >= lineEnd {
		return 0
	}
	np, ok := pt.nodeAt(offset)
	if !ok {
		return 0
	}
	node, remainder := np.node, np.remainder
	for remainder >= node.Piece.Length {
		// offset sits at the end of node; its byte starts a later piece.
		node = pt.tree.Next(node)
		if pt.tree.IsSentinel(node) {
			return 0
		}
		remainder = 0
	}
	buf := pt.buffer(node.Piece)
	c, ok := buf.charCodeAt(buf.offsetAt(node.Piece.Start) + remainder)
	if !ok {
		return 0
	}
	return int(c)
}

// SnapshotChunkSize equals AverageBufferSize, the chunk granularity the
// piece tree favors for large buffers. The snapshot reader does not split by
// it: each Read call hands back one whole piece (spec.md §4.7).
const SnapshotChunkSize = AverageBufferSize

// snapshot is a pull-based, read-only view over a tree's content at the
// moment CreateSnapshot was called: later edits to the originating
// PieceTreeBase do not affect it, since it holds copies of every piece's
// content taken at creation and never goes back to the tree.
type snapshot struct {
	chunks  []string
	bom     string
	bomSent bool
	idx     int
}

// CreateSnapshot returns a forward-only reader over the document's current
// content, optionally prefixed with bom. It captures every piece's buffer
// slice up front, so later edits to pt do not affect reads already in
// flight (spec.md §4.7).
func (pt *PieceTreeBase) CreateSnapshot(bom string) *snapshot {
	s := &snapshot{bom: bom}
	pt.tree.Walk(func(n *rbtree.Node) bool {
		buf := pt.buffer(n.Piece)
		start := buf.offsetAt(n.Piece.Start)
		end := buf.offsetAt(n.Piece.End)
		if end > start {
			s.chunks = append(s.chunks, buf.substring(start, end))
		}
		return true
	})
	return s
}

// Read returns the next chunk of the snapshot, or ("", false) once
// exhausted.
func (s *snapshot) Read() (string, bool) {
	if !s.bomSent {
		s.bomSent = true
		if s.bom != "" {
			return s.bom, true
		}
	}
	if s.idx >= len(s.chunks) {
		return "", false
	}
	c := s.chunks[s.idx]
	s.idx++
	return c, true
}
