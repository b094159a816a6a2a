// Package lspsync bridges glsp's text-document-sync notifications to the
// piece-table engine in internal/piecetree: one PieceTreeBase per open
// document, kept current by incremental didChange events.
package lspsync

import (
	"github.com/sasha-s/go-deadlock"
	"github.com/segmentio/ksuid"
	"github.com/shinyvision/vimfony-text/internal/piecetree"
)

// document pairs an open file's engine state with bookkeeping the adapter
// needs but the engine itself has no concept of (URI, language, a stable
// identity distinct from the URI).
type document struct {
	id         ksuid.KSUID
	uri        string
	languageID string
	buf        *piecetree.PieceTreeBase
}

// documentTable owns every open document, keyed by URI. mu is a
// go-deadlock.Mutex rather than sync.Mutex: the one lock this package takes,
// guarding concurrent LSP notifications for different documents, gets
// deadlock detection for free since this module's dependency graph already
// pulls it in.
type documentTable struct {
	mu   deadlock.Mutex
	docs map[string]*document
}

func newDocumentTable() *documentTable {
	return &documentTable{docs: make(map[string]*document)}
}

func (t *documentTable) open(uri, languageID, text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.docs[uri] = &document{
		id:         ksuid.New(),
		uri:        uri,
		languageID: languageID,
		buf:        piecetree.NewFromString(text, piecetree.Options{EOL: "\n"}),
	}
}

func (t *documentTable) get(uri string) (*document, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	d, ok := t.docs[uri]
	return d, ok
}

func (t *documentTable) close(uri string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.docs, uri)
}
