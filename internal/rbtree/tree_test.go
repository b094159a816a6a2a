package rbtree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func piece(length, lineFeedCnt int) Piece {
	return Piece{BufferIndex: 0, Length: length, LineFeedCnt: lineFeedCnt}
}

func TestInsertMaintainsInvariants(t *testing.T) {
	tr := New()
	node := tr.InsertFirst(piece(5, 0))
	require.NoError(t, tr.Validate())

	for i := 0; i < 50; i++ {
		node = tr.InsertRight(node, piece(1, i%3))
		require.NoError(t, tr.Validate())
	}

	assert.Equal(t, 55, tr.calculateSize(tr.Root))
}

func TestInsertLeftOrdersBeforeAnchor(t *testing.T) {
	tr := New()
	mid := tr.InsertFirst(piece(1, 0))
	tr.InsertRight(mid, piece(1, 0))
	first := tr.InsertLeft(mid, piece(1, 0))
	require.NoError(t, tr.Validate())

	assert.Same(t, first, tr.Leftmost(tr.Root))
}

func TestDeleteMaintainsInvariants(t *testing.T) {
	tr := New()
	var nodes []*Node
	node := tr.InsertFirst(piece(2, 1))
	nodes = append(nodes, node)
	for i := 0; i < 30; i++ {
		node = tr.InsertRight(node, piece(2, i%2))
		nodes = append(nodes, node)
	}
	require.NoError(t, tr.Validate())

	for i := 0; i < len(nodes); i += 2 {
		tr.Delete(nodes[i])
		require.NoError(t, tr.Validate())
		assert.True(t, nodes[i].Detached)
	}
}

func TestNextPrevWalkInOrder(t *testing.T) {
	tr := New()
	node := tr.InsertFirst(piece(1, 0))
	inserted := []*Node{node}
	for i := 0; i < 9; i++ {
		node = tr.InsertRight(node, piece(1, 0))
		inserted = append(inserted, node)
	}

	var visited []*Node
	n := tr.Leftmost(tr.Root)
	for !tr.IsSentinel(n) {
		visited = append(visited, n)
		n = tr.Next(n)
	}
	require.Len(t, visited, 10)
	for i, v := range visited {
		assert.Same(t, inserted[i], v)
	}

	n = tr.Rightmost(tr.Root)
	count := 0
	for !tr.IsSentinel(n) {
		count++
		n = tr.Prev(n)
	}
	assert.Equal(t, 10, count)
}

func TestWalkVisitsEveryNode(t *testing.T) {
	tr := New()
	node := tr.InsertFirst(piece(1, 0))
	for i := 0; i < 19; i++ {
		node = tr.InsertRight(node, piece(1, 0))
	}

	visited := 0
	tr.Walk(func(n *Node) bool {
		visited++
		return true
	})
	assert.Equal(t, 20, visited)
}

func TestUpdateMetadataPropagatesToAncestors(t *testing.T) {
	tr := New()
	node := tr.InsertFirst(piece(10, 0))
	for i := 0; i < 20; i++ {
		node = tr.InsertRight(node, piece(10, 0))
	}

	last := tr.Rightmost(tr.Root)
	last.Piece.Length += 100
	tr.UpdateMetadata(last, 100, 0)
	require.NoError(t, tr.Validate())
}
