package lspsync

import (
	"testing"

	"github.com/shinyvision/vimfony-text/internal/piecetree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

func TestDidOpenThenDidClose(t *testing.T) {
	s := NewServer()

	err := s.didOpen(nil, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{
			URI:        "file:///x.twig",
			LanguageID: "twig",
			Text:       "hello",
		},
	})
	require.NoError(t, err)

	doc, ok := s.docs.get("file:///x.twig")
	require.True(t, ok)
	assert.Equal(t, 5, doc.buf.GetLength())

	err = s.didClose(nil, &protocol.DidCloseTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: "file:///x.twig"},
	})
	require.NoError(t, err)

	_, ok = s.docs.get("file:///x.twig")
	assert.False(t, ok)
}

func TestDidChangeIncrementalAppliesRange(t *testing.T) {
	s := NewServer()
	require.NoError(t, s.didOpen(nil, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: "file:///x.twig", LanguageID: "twig", Text: "hello world"},
	}))

	err := s.didChange(nil, &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: "file:///x.twig"},
		},
		ContentChanges: []interface{}{
			protocol.TextDocumentContentChangeEvent{
				Range: &protocol.Range{
					Start: protocol.Position{Line: 0, Character: 6},
					End:   protocol.Position{Line: 0, Character: 11},
				},
				Text: "there",
			},
		},
	})
	require.NoError(t, err)

	doc, ok := s.docs.get("file:///x.twig")
	require.True(t, ok)
	assert.Equal(t, "hello there", doc.buf.GetValueInRange(piecetree.Range{Start: 0, End: doc.buf.GetLength()}, ""))
}

func TestDidChangeWholeDocumentReplacesBuffer(t *testing.T) {
	s := NewServer()
	require.NoError(t, s.didOpen(nil, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: "file:///x.twig", LanguageID: "twig", Text: "old"},
	}))

	err := s.didChange(nil, &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: "file:///x.twig"},
		},
		ContentChanges: []interface{}{
			protocol.TextDocumentContentChangeEventWhole{Text: "brand new content"},
		},
	})
	require.NoError(t, err)

	doc, ok := s.docs.get("file:///x.twig")
	require.True(t, ok)
	assert.Equal(t, 17, doc.buf.GetLength())
}

func TestDidChangeUnknownDocumentIsNoop(t *testing.T) {
	s := NewServer()
	err := s.didChange(nil, &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: "file:///missing.twig"},
		},
	})
	assert.NoError(t, err)
}

func TestExecuteCommandBufferStats(t *testing.T) {
	s := NewServer()
	require.NoError(t, s.didOpen(nil, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: "file:///x.twig", LanguageID: "twig", Text: "line one\nline two\n"},
	}))

	res, err := s.executeCommand(nil, &protocol.ExecuteCommandParams{
		Command:   bufferStatsCommand,
		Arguments: []interface{}{"file:///x.twig"},
	})
	require.NoError(t, err)

	stats, ok := res.(BufferStats)
	require.True(t, ok)
	assert.Equal(t, 18, stats.Length)
	assert.Equal(t, 3, stats.LineCount)
}

func TestExecuteCommandUnknownCommandReturnsNil(t *testing.T) {
	s := NewServer()
	res, err := s.executeCommand(nil, &protocol.ExecuteCommandParams{Command: "something.else"})
	assert.NoError(t, err)
	assert.Nil(t, res)
}

func TestExecuteCommandUnknownDocumentReturnsNil(t *testing.T) {
	s := NewServer()
	res, err := s.executeCommand(nil, &protocol.ExecuteCommandParams{
		Command:   bufferStatsCommand,
		Arguments: []interface{}{"file:///missing.twig"},
	})
	assert.NoError(t, err)
	assert.Nil(t, res)
}
