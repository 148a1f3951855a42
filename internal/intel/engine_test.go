package intel

import (
	"context"
	"testing"

	"go.uber.org/goleak"

	"github.com/vcltools/vci/internal/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const engineSrc = `sub do_backend_fetch {
  set req.http.X-Mode = "fetch";
}

sub vcl_recv {
  call do_backend_fetch;
}
`

func openFixture(t *testing.T, src string) *Engine {
	t.Helper()
	e := NewEngine(DefaultOracle())
	if err := e.Open(context.Background(), "file:///test.vcl", 1, src); err != nil {
		t.Fatalf("open: %v", err)
	}
	return e
}

func TestEngineQueries(t *testing.T) {
	e := openFixture(t, engineSrc)

	syms := e.DocumentSymbols("file:///test.vcl")
	if len(syms) != 2 {
		t.Fatalf("got %d symbols, want 2", len(syms))
	}

	loc := e.Definition("file:///test.vcl", types.Position{Line: 5, Character: 10})
	if loc == nil || loc.Range.Start != (types.Position{Line: 0, Character: 4}) {
		t.Errorf("definition = %+v, want 0:4", loc)
	}

	refsList := e.References("file:///test.vcl", types.Position{Line: 0, Character: 6}, true)
	if len(refsList) != 2 {
		t.Errorf("got %d references, want 2", len(refsList))
	}

	if hl := e.Highlights("file:///test.vcl", types.Position{Line: 0, Character: 6}); len(hl) != 2 {
		t.Errorf("got %d highlights, want 2", len(hl))
	}

	edit := e.Rename("file:///test.vcl", types.Position{Line: 0, Character: 6}, "fetch_prep")
	if edit == nil || len(edit.Changes["file:///test.vcl"]) != 2 {
		t.Errorf("rename edit = %+v, want 2 edits", edit)
	}
	if prep := e.PrepareRename("file:///test.vcl", types.Position{Line: 0, Character: 6}); prep == nil {
		t.Error("prepare rename returned nil")
	}

	stream := e.SemanticTokens("file:///test.vcl")
	if len(stream) == 0 || len(stream)%5 != 0 {
		t.Errorf("token stream length = %d, want a positive multiple of 5", len(stream))
	}

	if folds := e.FoldingRanges("file:///test.vcl"); len(folds) != 2 {
		t.Errorf("got %d folds, want 2", len(folds))
	}

	chains := e.SelectionRanges("file:///test.vcl", []types.Position{{Line: 1, Character: 8}})
	if len(chains) != 1 || chains[0] == nil {
		t.Errorf("selection chains = %+v", chains)
	}

	if diags := e.Diagnostics("file:///test.vcl"); len(diags) != 0 {
		t.Errorf("clean document has diagnostics: %+v", diags)
	}
	if text, ok := e.Text("file:///test.vcl"); !ok || text != engineSrc {
		t.Error("Text does not round-trip the opened content")
	}
}

func TestEngineChange(t *testing.T) {
	e := openFixture(t, engineSrc)

	// Full replacement drops one sub; the symbol table follows.
	err := e.Change(context.Background(), "file:///test.vcl", 2, nil, "sub vcl_recv {\n  restart;\n}\n")
	if err != nil {
		t.Fatalf("change: %v", err)
	}
	syms := e.DocumentSymbols("file:///test.vcl")
	if len(syms) != 1 || syms[0].Name != "vcl_recv" {
		t.Errorf("symbols after replace = %+v", syms)
	}

	// Incremental edit: rewrite "restart" to "error 503".
	rng := &types.Range{
		Start: types.Position{Line: 1, Character: 2},
		End:   types.Position{Line: 1, Character: 9},
	}
	if err := e.Change(context.Background(), "file:///test.vcl", 3, rng, "error 503"); err != nil {
		t.Fatalf("incremental change: %v", err)
	}
	if text, _ := e.Text("file:///test.vcl"); text != "sub vcl_recv {\n  error 503;\n}\n" {
		t.Errorf("content after edit = %q", text)
	}
}

func TestEngineChangeUnopened(t *testing.T) {
	e := NewEngine(DefaultOracle())
	if err := e.Change(context.Background(), "file:///ghost.vcl", 1, nil, "x"); err == nil {
		t.Error("change on unopened document succeeded")
	}
}

func TestEngineBrokenDocument(t *testing.T) {
	e := NewEngine(DefaultOracle())
	if err := e.Open(context.Background(), "file:///broken.vcl", 1, "sub {"); err != nil {
		t.Fatalf("open: %v", err)
	}
	if diags := e.Diagnostics("file:///broken.vcl"); len(diags) == 0 {
		t.Error("broken document has no diagnostics")
	}
	if syms := e.DocumentSymbols("file:///broken.vcl"); len(syms) != 0 {
		t.Errorf("broken document has symbols: %+v", syms)
	}
	// Queries degrade instead of failing.
	if loc := e.Definition("file:///broken.vcl", types.Position{}); loc != nil {
		t.Errorf("definition on broken document = %+v", loc)
	}
}

func TestEngineCloseAndCount(t *testing.T) {
	e := openFixture(t, engineSrc)
	if e.DocumentCount() != 1 {
		t.Errorf("count = %d", e.DocumentCount())
	}
	e.Close("file:///test.vcl")
	if e.DocumentCount() != 0 {
		t.Errorf("count after close = %d", e.DocumentCount())
	}
	if syms := e.WorkspaceSymbols("", 0); len(syms) != 0 {
		t.Errorf("closed document still searchable: %+v", syms)
	}
}

func TestEngineWorkspaceSymbols(t *testing.T) {
	e := openFixture(t, engineSrc)
	if err := e.Open(context.Background(), "file:///other.vcl", 1, "acl internal {\n  \"10.0.0.0\"/8;\n}\n"); err != nil {
		t.Fatalf("open: %v", err)
	}
	got := e.WorkspaceSymbols("internal", 0)
	if len(got) != 1 || got[0].Name != "internal" {
		t.Errorf("search = %+v", got)
	}
	if all := e.WorkspaceSymbols("", 0); len(all) != 3 {
		t.Errorf("got %d symbols across documents, want 3", len(all))
	}
}
