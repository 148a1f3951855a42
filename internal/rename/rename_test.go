package rename

import (
	"context"
	"testing"

	"github.com/vcltools/vci/internal/oracle"
	"github.com/vcltools/vci/internal/oracle/vclparse"
	"github.com/vcltools/vci/internal/refs"
	"github.com/vcltools/vci/internal/symbols"
	"github.com/vcltools/vci/internal/textdoc"
	"github.com/vcltools/vci/internal/types"
)

func engineFor(t *testing.T, src string) *Engine {
	t.Helper()
	doc := textdoc.New("file:///test.vcl", 1, src)
	res, err := vclparse.New().Parse(context.Background(), []byte(src), oracle.ParseOptions{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if res.Program == nil {
		t.Fatalf("fixture failed to parse: %v", res.Diagnostics)
	}
	return &Engine{Resolver: &refs.Resolver{
		Doc:     doc,
		Program: res.Program,
		Symbols: symbols.Build(doc, res.Program),
	}}
}

const renameSrc = `sub do_backend_fetch {
  set req.http.X-Mode = "fetch";
}

sub vcl_recv {
  call do_backend_fetch;
}

sub vcl_miss {
  call do_backend_fetch;
}
`

func TestRenameSubroutine(t *testing.T) {
	e := engineFor(t, renameSrc)
	edit := e.Rename(types.Position{Line: 0, Character: 6}, "fetch_prep")
	if edit == nil {
		t.Fatal("rename returned nil")
	}
	edits := edit.Changes["file:///test.vcl"]
	if len(edits) != 3 {
		t.Fatalf("got %d edits, want 3 (declaration plus two calls)", len(edits))
	}
	for i, ed := range edits {
		if ed.NewText != "fetch_prep" {
			t.Errorf("edit %d text = %q", i, ed.NewText)
		}
	}
	// Edit ranges must be pairwise non-overlapping within the document.
	for i := range edits {
		for j := i + 1; j < len(edits); j++ {
			if edits[i].Range.Overlaps(edits[j].Range) {
				t.Errorf("edits %d and %d overlap: %+v / %+v", i, j, edits[i].Range, edits[j].Range)
			}
		}
	}
}

func TestRenameToSameNameIsNoOp(t *testing.T) {
	e := engineFor(t, renameSrc)
	if edit := e.Rename(types.Position{Line: 0, Character: 6}, "do_backend_fetch"); edit != nil {
		t.Errorf("renaming to the current name produced edits: %+v", edit)
	}
}

func TestRenameProtectedSubroutine(t *testing.T) {
	e := engineFor(t, renameSrc)
	if edit := e.Rename(types.Position{Line: 4, Character: 6}, "my_recv"); edit != nil {
		t.Errorf("lifecycle sub was renamed: %+v", edit)
	}
	if prep := e.Prepare(types.Position{Line: 4, Character: 6}); prep != nil {
		t.Errorf("prepare accepted a lifecycle sub: %+v", prep)
	}
}

func TestRenameNothingUnderCursor(t *testing.T) {
	e := engineFor(t, renameSrc)
	if edit := e.Rename(types.Position{Line: 3, Character: 0}, "x"); edit != nil {
		t.Errorf("rename on blank line produced edits: %+v", edit)
	}
}

func TestPrepare(t *testing.T) {
	e := engineFor(t, renameSrc)
	prep := e.Prepare(types.Position{Line: 0, Character: 6})
	if prep == nil {
		t.Fatal("prepare returned nil for a renameable symbol")
	}
	want := types.Range{
		Start: types.Position{Line: 0, Character: 4},
		End:   types.Position{Line: 0, Character: 20},
	}
	if prep.Range != want {
		t.Errorf("prepare range = %+v, want %+v", prep.Range, want)
	}
	if prep.Placeholder != "do_backend_fetch" {
		t.Errorf("placeholder = %q", prep.Placeholder)
	}
}

func TestRenameLocalVariable(t *testing.T) {
	src := `sub compute {
  declare local var.result STRING;
  set var.result = "a";
  set req.http.R = var.result;
}
`
	e := engineFor(t, src)
	edit := e.Rename(types.Position{Line: 2, Character: 8}, "var.out")
	if edit == nil {
		t.Fatal("rename returned nil")
	}
	edits := edit.Changes["file:///test.vcl"]
	if len(edits) != 3 {
		t.Fatalf("got %d edits, want 3", len(edits))
	}
	if edits[0].Range.Start != (types.Position{Line: 1, Character: 16}) {
		t.Errorf("first edit at %v, want the declaration site 1:16", edits[0].Range.Start)
	}
}

func TestRenameHeader(t *testing.T) {
	src := `sub vcl_recv {
  set req.http.X-Trace = "on";
}

sub vcl_deliver {
  set resp.http.X-Trace = req.http.X-Trace;
}
`
	e := engineFor(t, src)
	edit := e.Rename(types.Position{Line: 1, Character: 17}, "X-Debug")
	if edit == nil {
		t.Fatal("rename returned nil")
	}
	edits := edit.Changes["file:///test.vcl"]
	if len(edits) != 3 {
		t.Fatalf("got %d edits, want 3 (both objects' paths)", len(edits))
	}
	// Each edit touches only the header-name portion, never the object part.
	for i, ed := range edits {
		if got := ed.Range.End.Character - ed.Range.Start.Character; got != len("X-Trace") {
			t.Errorf("edit %d spans %d characters, want %d", i, got, len("X-Trace"))
		}
	}
}

func TestIsProtected(t *testing.T) {
	protected := []string{
		"vcl_recv", "vcl_hash", "vcl_hit", "vcl_miss", "vcl_pass",
		"vcl_fetch", "vcl_error", "vcl_deliver", "vcl_log",
	}
	for _, name := range protected {
		if !IsProtected(name) {
			t.Errorf("IsProtected(%q) = false", name)
		}
	}
	for _, name := range []string{"helper", "vcl_custom", "recv"} {
		if IsProtected(name) {
			t.Errorf("IsProtected(%q) = true", name)
		}
	}
}

func TestRenameIsIdempotent(t *testing.T) {
	// Applying the same rename a second time (same position, same new name)
	// after the first one would find the entity already carrying the target
	// name. Simulate by renaming a symbol to its current spelling.
	e := engineFor(t, renameSrc)
	first := e.Rename(types.Position{Line: 0, Character: 6}, "fetch_prep")
	if first == nil {
		t.Fatal("first rename failed")
	}
	second := e.Rename(types.Position{Line: 0, Character: 6}, "do_backend_fetch")
	if second != nil {
		t.Error("renaming to the unchanged current name should be nil")
	}
}
