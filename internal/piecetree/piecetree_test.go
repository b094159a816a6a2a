package piecetree

import (
	"strings"
	"testing"

	"github.com/shinyvision/vimfony-text/internal/rbtree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fullValue(pt *PieceTreeBase) string {
	return pt.GetValueInRange(Range{Start: 0, End: pt.GetLength()}, "")
}

// S1 — Insert splits a piece.
func TestScenarioInsertSplitsAPiece(t *testing.T) {
	pt := NewFromString("hello world", Options{EOL: "\n"})
	pt.Insert(5, " there", true)

	assert.Equal(t, []string{"hello there world"}, pt.GetLinesContent())
	assert.Equal(t, 17, pt.GetLength())
	assert.Equal(t, 1, pt.GetLineCount())
}

// S2 — CRLF split at boundary.
func TestScenarioCRLFSplitAtBoundary(t *testing.T) {
	pt := NewFromString("", Options{EOL: "\r\n"})
	pt.Insert(0, "a\r", false)
	pt.Insert(2, "\nb", false)

	assert.Equal(t, []string{"a", "b"}, pt.GetLinesContent())
	assert.Equal(t, 2, pt.GetLineCount())

	// CR-LF-UNITY: no piece may end in \r while the next piece starts with \n.
	n := pt.tree.Leftmost(pt.tree.Root)
	for !pt.tree.IsSentinel(n) {
		next := pt.tree.Next(n)
		if !pt.tree.IsSentinel(next) {
			assert.False(t, pt.endWithCR(n.Piece) && pt.startWithLF(next.Piece))
		}
		n = next
	}
}

// S3 — Append fast path.
func TestScenarioAppendFastPath(t *testing.T) {
	pt := NewFromString("", Options{EOL: "\n"})
	pt.Insert(0, "abc", true)
	pt.Insert(3, "def", true)
	pt.Insert(6, "ghi", true)

	assert.Equal(t, []string{"abcdefghi"}, pt.GetLinesContent())

	count := 0
	pt.tree.Walk(func(n *rbtree.Node) bool {
		count++
		return true
	})
	assert.Equal(t, 1, count)
}

// S4 — Large insert chunking.
func TestScenarioLargeInsertChunking(t *testing.T) {
	const size = 200000
	var sb strings.Builder
	for sb.Len() < size {
		sb.WriteByte('x')
	}
	raw := []byte(sb.String())
	raw[65534] = '\r'
	raw[65535] = '\n'
	text := string(raw)

	pt := NewFromString("", Options{EOL: "\n"})
	pt.Insert(0, text, true)

	assert.Equal(t, size, pt.GetLength())
	assert.Equal(t, fullValue(pt), text)

	wantLines := strings.Count(text, "\n") + 1
	assert.Equal(t, wantLines, pt.GetLineCount())

	pieceCount := 0
	pt.tree.Walk(func(n *rbtree.Node) bool {
		pieceCount++
		return true
	})
	assert.Greater(t, pieceCount, 1, "a 200000-byte insert should be chunked across multiple pieces")
}

// S5 — Delete across pieces.
func TestScenarioDeleteAcrossPieces(t *testing.T) {
	pt := New([]Chunk{
		{Content: "foo\n"},
		{Content: "bar\n"},
		{Content: "baz"},
	}, Options{EOL: "\n"})

	require.Equal(t, "foo\nbar\nbaz", fullValue(pt))

	pt.Delete(2, 7)

	assert.Equal(t, "foaz", fullValue(pt))
	assert.Equal(t, 1, pt.GetLineCount())
	assert.Equal(t, 4, pt.GetLength())
}

// S6 — EOL normalization.
func TestScenarioEOLNormalization(t *testing.T) {
	pt := NewFromString("a\r\nb\nc\rd", Options{EOL: "\n", EOLNormalized: false})
	pt.SetEOL("\n")

	assert.Equal(t, "a\nb\nc\nd", fullValue(pt))
	assert.Equal(t, 4, pt.GetLineCount())
	assert.True(t, pt.eolNormalized)
}

func TestSetEOLIsIdempotent(t *testing.T) {
	pt := NewFromString("a\r\nb\nc\rd", Options{EOL: "\n"})
	pt.SetEOL("\n")
	once := fullValue(pt)
	pt.SetEOL("\n")
	twice := fullValue(pt)

	assert.Equal(t, once, twice)
}

func TestOffsetPositionRoundTrip(t *testing.T) {
	pt := NewFromString("alpha\nbeta\ngamma\n", Options{EOL: "\n"})

	for offset := 0; offset <= pt.GetLength(); offset++ {
		line, col := pt.GetPositionAt(offset)
		got := pt.GetOffsetAt(line, col)
		assert.Equal(t, offset, got, "offset=%d line=%d col=%d", offset, line, col)
	}
}

func TestGetLineContentStripsEOL(t *testing.T) {
	pt := NewFromString("one\r\ntwo\nthree", Options{EOL: "\n"})

	assert.Equal(t, "one", pt.GetLineContent(1))
	assert.Equal(t, "two", pt.GetLineContent(2))
	assert.Equal(t, "three", pt.GetLineContent(3))
	assert.Equal(t, 3, pt.GetLineCount())
}

func TestDeleteWholeNode(t *testing.T) {
	pt := New([]Chunk{{Content: "AAA"}, {Content: "BBB"}, {Content: "CCC"}}, Options{EOL: "\n"})
	pt.Delete(3, 3)
	assert.Equal(t, "AAACCC", fullValue(pt))
}

func TestInsertAtStartAndEnd(t *testing.T) {
	pt := NewFromString("middle", Options{EOL: "\n"})
	pt.Insert(0, "[", true)
	pt.Insert(pt.GetLength(), "]", true)
	assert.Equal(t, "[middle]", fullValue(pt))
}

func TestEqualComparesContentNotShape(t *testing.T) {
	a := NewFromString("hello world", Options{EOL: "\n"})
	a.Insert(5, " there", true)

	b := New([]Chunk{{Content: "hello there world"}}, Options{EOL: "\n"})

	assert.True(t, a.Equal(b))
}

func TestCreateSnapshotReadsFullContent(t *testing.T) {
	pt := New([]Chunk{{Content: "foo\n"}, {Content: "bar\n"}, {Content: "baz"}}, Options{EOL: "\n"})
	snap := pt.CreateSnapshot("BOM:")

	var sb strings.Builder
	for {
		chunk, ok := snap.Read()
		if !ok {
			break
		}
		sb.WriteString(chunk)
	}
	assert.Equal(t, "BOM:foo\nbar\nbaz", sb.String())
}

func TestDeleteNoopOnNonPositiveCount(t *testing.T) {
	pt := NewFromString("unchanged", Options{EOL: "\n"})
	pt.Delete(3, 0)
	pt.Delete(3, -5)
	assert.Equal(t, "unchanged", fullValue(pt))
}

func TestEmptyTreeOperations(t *testing.T) {
	pt := NewFromString("", Options{EOL: "\n"})
	assert.Equal(t, 0, pt.GetLength())
	assert.Equal(t, 1, pt.GetLineCount())
	assert.Equal(t, []string{""}, pt.GetLinesContent())

	pt.Insert(0, "x", true)
	assert.Equal(t, "x", fullValue(pt))
}
