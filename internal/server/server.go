// Package server speaks the Language Server Protocol over stdio, mapping
// editor requests onto the intelligence engine.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"

	"github.com/sourcegraph/jsonrpc2"
	"go.lsp.dev/protocol"

	"github.com/vcltools/vci/internal/config"
	"github.com/vcltools/vci/internal/intel"
	"github.com/vcltools/vci/internal/textdoc"
	"github.com/vcltools/vci/internal/version"
)

// Server is one LSP session. The editor is the only client; requests arrive
// serialized on the jsonrpc2 connection, so handler state needs no locking
// beyond the debounce bookkeeping.
type Server struct {
	engine *intel.Engine
	cfg    *config.Config
	logger *log.Logger

	conn *jsonrpc2.Conn

	mu       sync.Mutex
	pending  map[string]*pendingChange
	shutdown bool
}

// pendingChange accumulates edits between debounce ticks: the latest full
// text plus its version, reparsed once the edit burst goes quiet.
type pendingChange struct {
	timer   *time.Timer
	text    string
	version int
}

// New returns a server over the given engine.
func New(cfg *config.Config, engine *intel.Engine, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		engine:  engine,
		cfg:     cfg,
		logger:  logger,
		pending: make(map[string]*pendingChange),
	}
}

// Serve runs the session over stdin/stdout until the client disconnects or
// the context ends.
func (s *Server) Serve(ctx context.Context) error {
	rwc := stdioPipe{Reader: os.Stdin, Writer: os.Stdout}
	stream := jsonrpc2.NewBufferedStream(rwc, jsonrpc2.VSCodeObjectCodec{})
	conn := jsonrpc2.NewConn(ctx, stream, jsonrpc2.HandlerWithError(s.handle))
	s.conn = conn

	select {
	case <-ctx.Done():
		conn.Close()
		return ctx.Err()
	case <-conn.DisconnectNotify():
		return nil
	}
}

type stdioPipe struct {
	io.Reader
	io.Writer
}

func (stdioPipe) Close() error { return nil }

func (s *Server) handle(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) (interface{}, error) {
	switch req.Method {
	case "initialize":
		return s.initialize()
	case "initialized":
		return nil, nil
	case "shutdown":
		s.mu.Lock()
		s.shutdown = true
		s.mu.Unlock()
		return nil, nil
	case "exit":
		conn.Close()
		return nil, nil

	case "textDocument/didOpen":
		var params protocol.DidOpenTextDocumentParams
		if err := unmarshal(req, &params); err != nil {
			return nil, err
		}
		return nil, s.didOpen(ctx, params)
	case "textDocument/didChange":
		var params didChangeParams
		if err := unmarshal(req, &params); err != nil {
			return nil, err
		}
		return nil, s.didChange(ctx, params)
	case "textDocument/didClose":
		var params protocol.DidCloseTextDocumentParams
		if err := unmarshal(req, &params); err != nil {
			return nil, err
		}
		s.didClose(string(params.TextDocument.URI))
		return nil, nil

	case "textDocument/definition":
		var params protocol.DefinitionParams
		if err := unmarshal(req, &params); err != nil {
			return nil, err
		}
		return s.definition(params)
	case "textDocument/references":
		var params protocol.ReferenceParams
		if err := unmarshal(req, &params); err != nil {
			return nil, err
		}
		return s.references(params)
	case "textDocument/documentHighlight":
		var params protocol.DocumentHighlightParams
		if err := unmarshal(req, &params); err != nil {
			return nil, err
		}
		return s.documentHighlight(params)
	case "textDocument/prepareRename":
		var params protocol.PrepareRenameParams
		if err := unmarshal(req, &params); err != nil {
			return nil, err
		}
		return s.prepareRename(params)
	case "textDocument/rename":
		var params protocol.RenameParams
		if err := unmarshal(req, &params); err != nil {
			return nil, err
		}
		return s.rename(params)
	case "textDocument/documentSymbol":
		var params protocol.DocumentSymbolParams
		if err := unmarshal(req, &params); err != nil {
			return nil, err
		}
		return s.documentSymbols(params)
	case "workspace/symbol":
		var params protocol.WorkspaceSymbolParams
		if err := unmarshal(req, &params); err != nil {
			return nil, err
		}
		return s.workspaceSymbols(params)
	case "textDocument/foldingRange":
		var params protocol.FoldingRangeParams
		if err := unmarshal(req, &params); err != nil {
			return nil, err
		}
		return s.foldingRanges(params)
	case "textDocument/selectionRange":
		var params protocol.SelectionRangeParams
		if err := unmarshal(req, &params); err != nil {
			return nil, err
		}
		return s.selectionRanges(params)
	case "textDocument/semanticTokens/full":
		var params protocol.SemanticTokensParams
		if err := unmarshal(req, &params); err != nil {
			return nil, err
		}
		return s.semanticTokens(params)
	}

	if req.Notif {
		return nil, nil
	}
	return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeMethodNotFound, Message: fmt.Sprintf("method not supported: %s", req.Method)}
}

func unmarshal(req *jsonrpc2.Request, v interface{}) error {
	if req.Params == nil {
		return &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: "missing params"}
	}
	if err := json.Unmarshal(*req.Params, v); err != nil {
		return &jsonrpc2.Error{Code: jsonrpc2.CodeParseError, Message: err.Error()}
	}
	return nil
}

func (s *Server) initialize() (*protocol.InitializeResult, error) {
	return &protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: protocol.TextDocumentSyncOptions{
				OpenClose: true,
				Change:    protocol.TextDocumentSyncKindIncremental,
			},
			DefinitionProvider:        true,
			ReferencesProvider:        true,
			DocumentHighlightProvider: true,
			DocumentSymbolProvider:    true,
			WorkspaceSymbolProvider:   true,
			FoldingRangeProvider:      true,
			SelectionRangeProvider:    true,
			RenameProvider: map[string]interface{}{
				"prepareProvider": true,
			},
			SemanticTokensProvider: map[string]interface{}{
				"legend": map[string]interface{}{
					"tokenTypes":     semanticTokenTypes(),
					"tokenModifiers": semanticTokenModifiers(),
				},
				"full": true,
			},
		},
		ServerInfo: &protocol.ServerInfo{
			Name:    "vci",
			Version: version.Version,
		},
	}, nil
}

// didOpen indexes the document immediately; the first parse is never
// debounced, the editor wants symbols as soon as the file is visible.
func (s *Server) didOpen(ctx context.Context, params protocol.DidOpenTextDocumentParams) error {
	uri := string(params.TextDocument.URI)
	if err := s.engine.Open(ctx, uri, int(params.TextDocument.Version), params.TextDocument.Text); err != nil {
		return err
	}
	s.publishDiagnostics(ctx, uri)
	return nil
}

// didChangeParams is decoded locally rather than through the protocol
// library: an absent range means "replace the whole document", and only a
// pointer field can distinguish absent from zero.
type didChangeParams struct {
	TextDocument struct {
		URI     string `json:"uri"`
		Version int32  `json:"version"`
	} `json:"textDocument"`
	ContentChanges []contentChange `json:"contentChanges"`
}

type contentChange struct {
	Range *protocol.Range `json:"range,omitempty"`
	Text  string          `json:"text"`
}

// didChange folds the incoming edits into the pending text for the URI and
// re-arms the debounce timer; the engine reparses once per quiet period, and
// queries in between see the previous snapshot.
func (s *Server) didChange(ctx context.Context, params didChangeParams) error {
	uri := params.TextDocument.URI

	s.mu.Lock()
	defer s.mu.Unlock()

	base := ""
	if p, ok := s.pending[uri]; ok {
		base = p.text
		p.timer.Stop()
	} else if text, ok := s.engine.Text(uri); ok {
		base = text
	} else {
		return fmt.Errorf("change for unopened document %s", uri)
	}

	version := int(params.TextDocument.Version)
	shadow := textdoc.New(uri, version, base)
	for _, change := range params.ContentChanges {
		shadow.ApplyChange(fromProtocolRangePtr(change.Range), change.Text, version)
	}

	p := &pendingChange{text: shadow.Content(), version: version}
	p.timer = time.AfterFunc(time.Duration(s.cfg.Engine.DebounceMs)*time.Millisecond, func() {
		s.flush(ctx, uri)
	})
	s.pending[uri] = p
	return nil
}

// flush applies the pending text for one URI to the engine and publishes
// fresh diagnostics.
func (s *Server) flush(ctx context.Context, uri string) {
	s.mu.Lock()
	p, ok := s.pending[uri]
	delete(s.pending, uri)
	s.mu.Unlock()
	if !ok {
		return
	}
	if err := s.engine.Open(ctx, uri, p.version, p.text); err != nil {
		s.logger.Printf("reparse %s: %v", uri, err)
		return
	}
	s.publishDiagnostics(ctx, uri)
}

func (s *Server) didClose(uri string) {
	s.mu.Lock()
	if p, ok := s.pending[uri]; ok {
		p.timer.Stop()
		delete(s.pending, uri)
	}
	s.mu.Unlock()
	s.engine.Close(uri)
}

func (s *Server) publishDiagnostics(ctx context.Context, uri string) {
	if s.conn == nil {
		return
	}
	diags := s.engine.Diagnostics(uri)
	params := protocol.PublishDiagnosticsParams{
		URI:         protocol.DocumentURI(uri),
		Diagnostics: make([]protocol.Diagnostic, 0, len(diags)),
	}
	for _, d := range diags {
		params.Diagnostics = append(params.Diagnostics, toProtocolDiagnostic(d))
	}
	if err := s.conn.Notify(ctx, "textDocument/publishDiagnostics", &params); err != nil {
		s.logger.Printf("publish diagnostics %s: %v", uri, err)
	}
}
