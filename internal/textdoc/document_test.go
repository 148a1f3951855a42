package textdoc

import (
	"testing"

	"github.com/vcltools/vci/internal/types"
)

func TestOffsetAndPositionRoundTrip(t *testing.T) {
	doc := New("file:///t.vcl", 1, "line one\nsecond\n\nlast")

	tests := []struct {
		name   string
		pos    types.Position
		offset int
	}{
		{name: "start of document", pos: types.Position{Line: 0, Character: 0}, offset: 0},
		{name: "middle of first line", pos: types.Position{Line: 0, Character: 5}, offset: 5},
		{name: "start of second line", pos: types.Position{Line: 1, Character: 0}, offset: 9},
		{name: "empty line", pos: types.Position{Line: 2, Character: 0}, offset: 16},
		{name: "last line", pos: types.Position{Line: 3, Character: 2}, offset: 19},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := doc.Offset(tt.pos); got != tt.offset {
				t.Errorf("Offset(%v) = %d, want %d", tt.pos, got, tt.offset)
			}
			if got := doc.PositionAt(tt.offset); got != tt.pos {
				t.Errorf("PositionAt(%d) = %v, want %v", tt.offset, got, tt.pos)
			}
		})
	}
}

func TestOffsetClamping(t *testing.T) {
	doc := New("file:///t.vcl", 1, "abc\ndef")

	// Past the end of a line clamps to the line end, not into the next line.
	if got := doc.Offset(types.Position{Line: 0, Character: 99}); got != 3 {
		t.Errorf("Offset past line end = %d, want 3", got)
	}
	if got := doc.Offset(types.Position{Line: 99, Character: 0}); got != 7 {
		t.Errorf("Offset past last line = %d, want 7", got)
	}
	if got := doc.Offset(types.Position{Line: -1, Character: 0}); got != 0 {
		t.Errorf("Offset negative line = %d, want 0", got)
	}
	if got := doc.PositionAt(-5); got != (types.Position{Line: 0, Character: 0}) {
		t.Errorf("PositionAt(-5) = %v, want 0:0", got)
	}
	if got := doc.PositionAt(999); got != (types.Position{Line: 1, Character: 3}) {
		t.Errorf("PositionAt(999) = %v, want 1:3", got)
	}
}

func TestLineAt(t *testing.T) {
	doc := New("file:///t.vcl", 1, "first\r\nsecond\nthird")
	if got := doc.LineAt(0); got != "first" {
		t.Errorf("LineAt(0) = %q, want %q (CR stripped)", got, "first")
	}
	if got := doc.LineAt(1); got != "second" {
		t.Errorf("LineAt(1) = %q, want %q", got, "second")
	}
	if got := doc.LineAt(2); got != "third" {
		t.Errorf("LineAt(2) = %q, want %q", got, "third")
	}
	if got := doc.LineAt(3); got != "" {
		t.Errorf("LineAt out of range = %q, want empty", got)
	}
	if got := doc.LineCount(); got != 3 {
		t.Errorf("LineCount = %d, want 3", got)
	}
}

func TestApplyChangeIncremental(t *testing.T) {
	doc := New("file:///t.vcl", 1, "set req.http.A = \"one\";")
	before := doc.Hash()

	rng := types.Range{
		Start: types.Position{Line: 0, Character: 18},
		End:   types.Position{Line: 0, Character: 21},
	}
	doc.ApplyChange(&rng, "two", 2)

	if got := doc.Content(); got != "set req.http.A = \"two\";" {
		t.Errorf("content after edit = %q", got)
	}
	if doc.Version != 2 {
		t.Errorf("version = %d, want 2", doc.Version)
	}
	if doc.Hash() == before {
		t.Error("hash did not change after edit")
	}
}

func TestApplyChangeFullReplace(t *testing.T) {
	doc := New("file:///t.vcl", 1, "old content")
	doc.ApplyChange(nil, "sub vcl_recv {\n}\n", 3)

	if got := doc.Content(); got != "sub vcl_recv {\n}\n" {
		t.Errorf("content after full replace = %q", got)
	}
	if got := doc.LineCount(); got != 3 {
		t.Errorf("LineCount after replace = %d, want 3", got)
	}
}

func TestSlice(t *testing.T) {
	doc := New("file:///t.vcl", 1, "acl internal {\n}")
	got := doc.Slice(types.Range{
		Start: types.Position{Line: 0, Character: 4},
		End:   types.Position{Line: 0, Character: 12},
	})
	if got != "internal" {
		t.Errorf("Slice = %q, want %q", got, "internal")
	}
}
