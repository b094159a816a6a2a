// Package piecetree implements the engine described by the piece-table
// specification: one append-only change buffer plus any number of immutable
// original buffers, indexed by an order-statistic red-black tree (see
// internal/rbtree) so that offset<->(line,column) lookups, inserts and
// deletes all resolve in O(log n).
package piecetree

import (
	"github.com/shinyvision/vimfony-text/internal/rbtree"
	"github.com/tliron/commonlog"
)

// AverageBufferSize is the threshold spec.md §4.5 names: inserts of text
// larger than this get their own read-only buffers instead of being appended
// to the change buffer, and it is the chunk target for large-insert
// splitting and EOL re-chunking.
const AverageBufferSize = 65535

// Chunk is one (buffer, lineStarts?) pair supplied at construction. LineStarts
// may be nil, in which case it is computed.
type Chunk struct {
	Content    string
	LineStarts []int
}

// Options configures a new PieceTreeBase.
type Options struct {
	EOL            string // "\n" or "\r\n"; defaults to "\n"
	EOLNormalized  bool
}

func (o Options) eol() string {
	if o.EOL == "\r\n" {
		return "\r\n"
	}
	return "\n"
}

// PieceTreeBase is the piece-table engine. It is exclusively owned by its
// caller: concurrent mutation of one instance is not supported (spec.md §5).
type PieceTreeBase struct {
	tree    *rbtree.Tree
	buffers []*textBuffer // index 0 is the change buffer

	length  int
	lineCnt int

	eol           string
	eolNormalized bool

	lastChangeBufferPos rbtree.BufferCursor

	lastVisitedLine struct {
		valid      bool
		lineNumber int
		value      string
	}

	searchCache *searchCache

	logger commonlog.Logger
}

// New builds a PieceTreeBase from a sequence of original-buffer chunks.
func New(chunks []Chunk, opts Options) *PieceTreeBase {
	pt := &PieceTreeBase{
		tree:          rbtree.New(),
		eol:           opts.eol(),
		eolNormalized: opts.EOLNormalized,
		searchCache:   newSearchCache(8),
		logger:        commonlog.GetLoggerf("vimfonytext.piecetree"),
	}

	pt.buffers = append(pt.buffers, newTextBuffer("", []int{0}))
	pt.lastChangeBufferPos = rbtree.BufferCursor{Line: 0, Column: 0}

	var pieces []rbtree.Piece
	for _, c := range chunks {
		if c.Content == "" {
			continue
		}
		buf := newTextBuffer(c.Content, c.LineStarts)
		idx := len(pt.buffers)
		pt.buffers = append(pt.buffers, buf)

		start := rbtree.BufferCursor{Line: 0, Column: 0}
		end := buf.lastCursor()
		pieces = append(pieces, rbtree.Piece{
			BufferIndex: idx,
			Start:       start,
			End:         end,
			Length:      len(c.Content),
			LineFeedCnt: len(buf.lineStarts) - 1,
		})
	}

	pt.buildFromPieces(pieces)
	pt.logger.Debugf("constructed piece tree: %d chunk(s), %d byte(s), eol=%q", len(chunks), pt.length, pt.eol)
	return pt
}

// NewFromString is a convenience constructor for the common single-buffer
// case (every worked scenario in spec.md §8 starts from one or a handful of
// whole-string buffers, never a pre-chunked list).
func NewFromString(s string, opts Options) *PieceTreeBase {
	if s == "" {
		return New(nil, opts)
	}
	return New([]Chunk{{Content: s}}, opts)
}

// buildFromPieces discards the current tree and rebuilds it as a balanced
// chain of InsertRight calls from an ordered piece list. Used by
// construction and by setEOL's rebuild (§4.8).
func (pt *PieceTreeBase) buildFromPieces(pieces []rbtree.Piece) {
	pt.tree = rbtree.New()
	pt.length = 0
	pt.lineCnt = 1
	pt.searchCache = newSearchCache(8)
	pt.invalidateLastVisitedLine()

	if len(pieces) == 0 {
		return
	}

	node := pt.tree.InsertFirst(pieces[0])
	pt.length += pieces[0].Length
	pt.lineCnt += pieces[0].LineFeedCnt
	for _, p := range pieces[1:] {
		node = pt.tree.InsertRight(node, p)
		pt.length += p.Length
		pt.lineCnt += p.LineFeedCnt
	}
}

func (pt *PieceTreeBase) invalidateLastVisitedLine() {
	pt.lastVisitedLine.valid = false
}

// GetLength returns the total document length in bytes.
func (pt *PieceTreeBase) GetLength() int {
	return pt.length
}

// GetLineCount returns the total number of lines.
func (pt *PieceTreeBase) GetLineCount() int {
	return pt.lineCnt
}

// GetEOL returns the document's normalized-or-not line ending choice.
func (pt *PieceTreeBase) GetEOL() string {
	return pt.eol
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
