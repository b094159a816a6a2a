package lspsync

import (
	"github.com/shinyvision/vimfony-text/internal/piecetree"
	"github.com/shinyvision/vimfony-text/internal/utils"
	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"
)

const lsName = "vimfonytext"

var version = "0.1.0"

// bufferStatsCommand is the workspace/executeCommand name integration tests
// invoke to inspect a document's engine state without reaching into the
// adapter's internals directly.
const bufferStatsCommand = "vimfonytext.bufferStats"

// Server is the LSP front end for the piece-table engine: it owns no text
// buffers of its own, only the per-document PieceTreeBase instances in its
// documentTable.
type Server struct {
	docs   *documentTable
	h      protocol.Handler
	logger commonlog.Logger
}

func NewServer() *Server {
	s := &Server{
		docs:   newDocumentTable(),
		logger: commonlog.GetLoggerf("vimfonytext.lspsync"),
	}
	s.h = protocol.Handler{
		Initialize:            s.initialize,
		Initialized:           s.initialized,
		Shutdown:              s.shutdown,
		SetTrace:              s.setTrace,
		TextDocumentDidOpen:   s.didOpen,
		TextDocumentDidChange: s.didChange,
		TextDocumentDidClose:  s.didClose,
		WorkspaceExecuteCommand: s.executeCommand,
	}
	return s
}

func (s *Server) Run() {
	server := glspserver.NewServer(&s.h, lsName, false)
	server.RunStdio()
}

func (s *Server) initialize(_ *glsp.Context, _ *protocol.InitializeParams) (any, error) {
	caps := s.h.CreateServerCapabilities()
	openClose := true
	change := protocol.TextDocumentSyncKindIncremental
	caps.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: &openClose,
		Change:    &change,
	}
	caps.ExecuteCommandProvider = &protocol.ExecuteCommandOptions{
		Commands: []string{bufferStatsCommand},
	}

	return protocol.InitializeResult{
		Capabilities: caps,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lsName,
			Version: &version,
		},
	}, nil
}

func (s *Server) initialized(_ *glsp.Context, _ *protocol.InitializedParams) error { return nil }
func (s *Server) shutdown(_ *glsp.Context) error                                   { return nil }
func (s *Server) setTrace(_ *glsp.Context, p *protocol.SetTraceParams) error {
	protocol.SetTraceValue(p.Value)
	return nil
}

func (s *Server) didOpen(_ *glsp.Context, p *protocol.DidOpenTextDocumentParams) error {
	s.docs.open(p.TextDocument.URI, p.TextDocument.LanguageID, p.TextDocument.Text)
	s.logger.Debugf("opened %s (%s)", utils.UriToPath(p.TextDocument.URI), p.TextDocument.LanguageID)
	return nil
}

// didChange feeds every content-change event into the document's
// PieceTreeBase, translating each LSP Range into a byte offset pair via
// GetOffsetAt instead of slicing a flat string directly.
func (s *Server) didChange(_ *glsp.Context, p *protocol.DidChangeTextDocumentParams) error {
	doc, ok := s.docs.get(p.TextDocument.URI)
	if !ok {
		return nil
	}

	for _, c := range p.ContentChanges {
		switch ch := c.(type) {
		case protocol.TextDocumentContentChangeEventWhole:
			doc.buf = piecetree.NewFromString(ch.Text, piecetree.Options{EOL: doc.buf.GetEOL()})
		case protocol.TextDocumentContentChangeEvent:
			start := s.offsetOf(doc.buf, ch.Range.Start)
			end := s.offsetOf(doc.buf, ch.Range.End)
			if end > start {
				doc.buf.Delete(start, end-start)
			}
			doc.buf.Insert(start, ch.Text, false)
		}
	}
	return nil
}

func (s *Server) didClose(_ *glsp.Context, p *protocol.DidCloseTextDocumentParams) error {
	s.docs.close(p.TextDocument.URI)
	return nil
}

// offsetOf converts an LSP Position (0-based line, 0-based character) into
// the engine's 0-based byte offset, treating Character as a byte column.
// The engine's coordinate model is bytes, not UTF-16 code units (spec.md
// §6); for non-ASCII content this is an approximation, not a silent bug.
func (s *Server) offsetOf(buf *piecetree.PieceTreeBase, pos protocol.Position) int {
	return buf.GetOffsetAt(int(pos.Line)+1, int(pos.Character)+1)
}

// BufferStats is the result vimfonytext.bufferStats returns.
type BufferStats struct {
	Length    int    `json:"length"`
	LineCount int    `json:"lineCount"`
	EOL       string `json:"eol"`
}

func (s *Server) executeCommand(_ *glsp.Context, p *protocol.ExecuteCommandParams) (any, error) {
	if p.Command != bufferStatsCommand {
		return nil, nil
	}
	if len(p.Arguments) == 0 {
		return nil, nil
	}
	uri, ok := p.Arguments[0].(string)
	if !ok {
		return nil, nil
	}
	doc, ok := s.docs.get(uri)
	if !ok {
		return nil, nil
	}
	return BufferStats{
		Length:    doc.buf.GetLength(),
		LineCount: doc.buf.GetLineCount(),
		EOL:       doc.buf.GetEOL(),
	}, nil
}
