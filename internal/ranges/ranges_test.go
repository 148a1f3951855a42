package ranges

import (
	"context"
	"testing"

	"github.com/vcltools/vci/internal/oracle"
	"github.com/vcltools/vci/internal/oracle/vclparse"
	"github.com/vcltools/vci/internal/textdoc"
	"github.com/vcltools/vci/internal/types"
	"github.com/vcltools/vci/internal/vast"
)

func parseFixture(t *testing.T, src string) (*textdoc.Document, *vast.Program) {
	t.Helper()
	doc := textdoc.New("file:///test.vcl", 1, src)
	res, err := vclparse.New().Parse(context.Background(), []byte(src), oracle.ParseOptions{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if res.Program == nil {
		t.Fatalf("fixture failed to parse: %v", res.Diagnostics)
	}
	return doc, res.Program
}

const foldSrc = `sub vcl_recv {
  if (req.url ~ "^/a") {
    restart;
  }
}

# first
# second
# third

backend origin {
  .host = "x";
}
`

func TestFolding(t *testing.T) {
	doc, program := parseFixture(t, foldSrc)
	got := Folding(doc, program)

	want := []types.FoldingRange{
		{StartLine: 0, EndLine: 4},
		{StartLine: 1, EndLine: 3},
		{StartLine: 10, EndLine: 12},
		{StartLine: 6, EndLine: 8, IsComment: true},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d folds, want %d: %+v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("fold %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestFoldingSingleLineBlock(t *testing.T) {
	doc, program := parseFixture(t, "acl a { }\n")
	if got := Folding(doc, program); len(got) != 0 {
		t.Errorf("single-line block produced folds: %+v", got)
	}
}

func TestFoldingNestedSubroutine(t *testing.T) {
	doc, program := parseFixture(t, "sub outer {\n  sub inner {\n    restart;\n  }\n}\n")
	got := Folding(doc, program)
	// Only the host declaration folds; the hoisted sub's lines are covered.
	if len(got) != 1 {
		t.Fatalf("got %d folds, want 1: %+v", len(got), got)
	}
	if got[0].StartLine != 0 || got[0].EndLine != 4 {
		t.Errorf("fold = %+v, want 0-4", got[0])
	}
}

func TestFoldingBlockComment(t *testing.T) {
	doc, program := parseFixture(t, "/* multi\n   line\n*/\nsub vcl_recv {\n  restart;\n}\n")
	got := Folding(doc, program)
	var comment *types.FoldingRange
	for i := range got {
		if got[i].IsComment {
			comment = &got[i]
		}
	}
	if comment == nil {
		t.Fatalf("no comment fold in %+v", got)
	}
	if comment.StartLine != 0 || comment.EndLine != 2 {
		t.Errorf("block comment fold = %+v, want 0-2", *comment)
	}
}

func TestFoldingNilProgram(t *testing.T) {
	doc := textdoc.New("file:///broken.vcl", 1, "# a\n# b\nsub {\n")
	got := Folding(doc, nil)
	// Comment folds still come from the text pass.
	if len(got) != 1 || !got[0].IsComment {
		t.Fatalf("got %+v, want the comment run only", got)
	}
}

const selSrc = `sub vcl_recv {
  set req.http.Host = "a";
}

`

func TestSelectionChain(t *testing.T) {
	doc, program := parseFixture(t, selSrc)
	pos := types.Position{Line: 1, Character: 10}

	chain := Selection(doc, program, pos)
	if chain == nil {
		t.Fatal("no selection chain")
	}

	wantWord := types.Range{
		Start: types.Position{Line: 1, Character: 6},
		End:   types.Position{Line: 1, Character: 19},
	}
	if chain.Range != wantWord {
		t.Errorf("innermost range = %+v, want the identifier %+v", chain.Range, wantWord)
	}

	size := func(r types.Range) int { return doc.Offset(r.End) - doc.Offset(r.Start) }
	prev := chain
	for link := chain.Parent; link != nil; link = link.Parent {
		if !link.Range.Contains(pos) {
			t.Errorf("link %+v does not contain the position", link.Range)
		}
		if size(link.Range) <= size(prev.Range) {
			t.Errorf("link %+v is not larger than its child %+v", link.Range, prev.Range)
		}
		prev = link
	}
	// The chain ends at the outermost containing extent, the declaration.
	if prev.Range.Start.Line != 0 || prev.Range.End.Line != 2 {
		t.Errorf("outermost range = %+v, want the whole sub", prev.Range)
	}
}

func TestSelectionWithoutTree(t *testing.T) {
	doc := textdoc.New("file:///broken.vcl", 1, "  set req.http.Host = \"a\";\n")
	chain := Selection(doc, nil, types.Position{Line: 0, Character: 10})
	if chain == nil {
		t.Fatal("no chain without a tree")
	}
	if chain.Parent == nil || chain.Parent.Parent != nil {
		t.Errorf("degraded chain should be word then line, got %+v", chain)
	}
	wantLine := types.Range{
		Start: types.Position{Line: 0, Character: 2},
		End:   types.Position{Line: 0, Character: 26},
	}
	if chain.Parent.Range != wantLine {
		t.Errorf("outer range = %+v, want trimmed line %+v", chain.Parent.Range, wantLine)
	}
}

func TestSelectionAll(t *testing.T) {
	doc, program := parseFixture(t, selSrc)
	chains := SelectionAll(doc, program, []types.Position{
		{Line: 1, Character: 10},
		{Line: 3, Character: 0}, // blank line
	})
	if len(chains) != 2 {
		t.Fatalf("got %d chains, want 2", len(chains))
	}
	if chains[0] == nil {
		t.Error("chain 0 is nil")
	}
	if chains[1] != nil {
		t.Errorf("blank-line chain = %+v, want nil", chains[1])
	}
}
