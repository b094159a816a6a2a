package lspsync

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentTableOpenGetClose(t *testing.T) {
	dt := newDocumentTable()

	_, ok := dt.get("file:///a.twig")
	assert.False(t, ok)

	dt.open("file:///a.twig", "twig", "hello world")
	doc, ok := dt.get("file:///a.twig")
	require.True(t, ok)
	assert.Equal(t, "twig", doc.languageID)
	assert.Equal(t, 11, doc.buf.GetLength())

	dt.close("file:///a.twig")
	_, ok = dt.get("file:///a.twig")
	assert.False(t, ok)
}

func TestDocumentTableReopenReplacesBuffer(t *testing.T) {
	dt := newDocumentTable()
	dt.open("file:///a.twig", "twig", "first")
	firstID, _ := dt.get("file:///a.twig")

	dt.open("file:///a.twig", "twig", "second version")
	second, ok := dt.get("file:///a.twig")
	require.True(t, ok)
	assert.NotEqual(t, firstID.id, second.id)
	assert.Equal(t, 14, second.buf.GetLength())
}
