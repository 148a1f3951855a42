package server

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/sourcegraph/jsonrpc2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.lsp.dev/protocol"
	"go.uber.org/goleak"

	"github.com/vcltools/vci/internal/config"
	"github.com/vcltools/vci/internal/intel"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.Default(t.TempDir())
	cfg.Engine.DebounceMs = 1
	return New(cfg, intel.NewEngine(intel.DefaultOracle()), nil)
}

func request(t *testing.T, method string, params interface{}, notif bool) *jsonrpc2.Request {
	t.Helper()
	req := &jsonrpc2.Request{Method: method, Notif: notif}
	if params != nil {
		raw, err := json.Marshal(params)
		require.NoError(t, err)
		msg := json.RawMessage(raw)
		req.Params = &msg
	}
	return req
}

func openDocument(t *testing.T, s *Server, uri, text string) {
	t.Helper()
	params := map[string]interface{}{
		"textDocument": map[string]interface{}{
			"uri": uri, "languageId": "vcl", "version": 1, "text": text,
		},
	}
	_, err := s.handle(context.Background(), nil, request(t, "textDocument/didOpen", params, true))
	require.NoError(t, err)
}

const sessionSrc = `sub do_backend_fetch {
  set req.http.X-Mode = "fetch";
}

sub vcl_recv {
  call do_backend_fetch;
}
`

func TestInitialize(t *testing.T) {
	s := newTestServer(t)
	res, err := s.handle(context.Background(), nil, request(t, "initialize", map[string]interface{}{}, false))
	require.NoError(t, err)

	init, ok := res.(*protocol.InitializeResult)
	require.True(t, ok, "unexpected result type %T", res)
	assert.Equal(t, "vci", init.ServerInfo.Name)
	assert.True(t, init.Capabilities.DefinitionProvider.(bool))
	assert.True(t, init.Capabilities.DocumentSymbolProvider.(bool))
}

func TestDocumentLifecycle(t *testing.T) {
	s := newTestServer(t)
	openDocument(t, s, "file:///t.vcl", sessionSrc)

	res, err := s.handle(context.Background(), nil, request(t, "textDocument/documentSymbol", map[string]interface{}{
		"textDocument": map[string]interface{}{"uri": "file:///t.vcl"},
	}, false))
	require.NoError(t, err)
	syms, ok := res.([]protocol.DocumentSymbol)
	require.True(t, ok, "unexpected result type %T", res)
	require.Len(t, syms, 2)
	assert.Equal(t, "do_backend_fetch", syms[0].Name)

	res, err = s.handle(context.Background(), nil, request(t, "textDocument/definition", map[string]interface{}{
		"textDocument": map[string]interface{}{"uri": "file:///t.vcl"},
		"position":     map[string]interface{}{"line": 5, "character": 10},
	}, false))
	require.NoError(t, err)
	locs, ok := res.([]protocol.Location)
	require.True(t, ok, "unexpected result type %T", res)
	require.Len(t, locs, 1)
	assert.Equal(t, uint32(0), locs[0].Range.Start.Line)
	assert.Equal(t, uint32(4), locs[0].Range.Start.Character)

	res, err = s.handle(context.Background(), nil, request(t, "textDocument/rename", map[string]interface{}{
		"textDocument": map[string]interface{}{"uri": "file:///t.vcl"},
		"position":     map[string]interface{}{"line": 0, "character": 6},
		"newName":      "fetch_prep",
	}, false))
	require.NoError(t, err)
	edit, ok := res.(*protocol.WorkspaceEdit)
	require.True(t, ok, "unexpected result type %T", res)
	require.Len(t, edit.Changes, 1)

	_, err = s.handle(context.Background(), nil, request(t, "textDocument/didClose", map[string]interface{}{
		"textDocument": map[string]interface{}{"uri": "file:///t.vcl"},
	}, true))
	require.NoError(t, err)
	assert.Equal(t, 0, s.engine.DocumentCount())
}

func TestDidChangeDebounce(t *testing.T) {
	s := newTestServer(t)
	openDocument(t, s, "file:///t.vcl", sessionSrc)

	replacement := "sub vcl_recv {\n  restart;\n}\n"
	_, err := s.handle(context.Background(), nil, request(t, "textDocument/didChange", map[string]interface{}{
		"textDocument":   map[string]interface{}{"uri": "file:///t.vcl", "version": 2},
		"contentChanges": []map[string]interface{}{{"text": replacement}},
	}, true))
	require.NoError(t, err)

	// The edit lands once the debounce window closes.
	require.Eventually(t, func() bool {
		text, ok := s.engine.Text("file:///t.vcl")
		return ok && text == replacement
	}, time.Second, 5*time.Millisecond)
}

func TestDidChangeUnopened(t *testing.T) {
	s := newTestServer(t)
	_, err := s.handle(context.Background(), nil, request(t, "textDocument/didChange", map[string]interface{}{
		"textDocument":   map[string]interface{}{"uri": "file:///ghost.vcl", "version": 1},
		"contentChanges": []map[string]interface{}{{"text": "x"}},
	}, true))
	assert.Error(t, err)
}

func TestUnknownMethod(t *testing.T) {
	s := newTestServer(t)

	_, err := s.handle(context.Background(), nil, request(t, "textDocument/typeDefinition", map[string]interface{}{}, false))
	var rpcErr *jsonrpc2.Error
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, int64(jsonrpc2.CodeMethodNotFound), rpcErr.Code)

	// Unknown notifications are ignored rather than failed.
	_, err = s.handle(context.Background(), nil, request(t, "$/cancelRequest", map[string]interface{}{}, true))
	assert.NoError(t, err)
}

func TestMissingParams(t *testing.T) {
	s := newTestServer(t)
	_, err := s.handle(context.Background(), nil, request(t, "textDocument/definition", nil, false))
	assert.Error(t, err)
}
