package textdoc

import (
	"testing"

	"github.com/vcltools/vci/internal/types"
)

func TestWordSpanAt(t *testing.T) {
	doc := New("file:///t.vcl", 1, "set req.http.Cache-Control = var.x;")

	tests := []struct {
		name string
		pos  types.Position
		word string
		span types.Span
	}{
		{
			name: "dotted path with hyphenated header",
			pos:  types.Position{Line: 0, Character: 10},
			word: "req.http.Cache-Control",
			span: types.Span{Line: 0, Character: 4, Length: 22},
		},
		{
			name: "cursor at word start",
			pos:  types.Position{Line: 0, Character: 0},
			word: "set",
			span: types.Span{Line: 0, Character: 0, Length: 3},
		},
		{
			name: "cursor just after word still hits it",
			pos:  types.Position{Line: 0, Character: 3},
			word: "set",
			span: types.Span{Line: 0, Character: 0, Length: 3},
		},
		{
			name: "cursor on operator",
			pos:  types.Position{Line: 0, Character: 27},
			word: "",
			span: types.Span{Line: 0, Character: 27},
		},
		{
			name: "local variable",
			pos:  types.Position{Line: 0, Character: 31},
			word: "var.x",
			span: types.Span{Line: 0, Character: 29, Length: 5},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			word, span := doc.WordSpanAt(tt.pos)
			if word != tt.word {
				t.Errorf("word = %q, want %q", word, tt.word)
			}
			if span != tt.span {
				t.Errorf("span = %+v, want %+v", span, tt.span)
			}
		})
	}
}

func TestClosingBraceOf(t *testing.T) {
	tests := []struct {
		name    string
		content string
		start   types.Position
		want    *types.Position
	}{
		{
			name:    "simple block",
			content: "sub a {\n  restart;\n}",
			start:   types.Position{Line: 0, Character: 0},
			want:    &types.Position{Line: 2, Character: 0},
		},
		{
			name:    "same-line block",
			content: "acl a { }",
			start:   types.Position{Line: 0, Character: 0},
			want:    &types.Position{Line: 0, Character: 8},
		},
		{
			name:    "brace inside string ignored",
			content: "sub a {\n  set x = \"}\";\n  if (y) {\n    z;\n  }\n}",
			start:   types.Position{Line: 0, Character: 0},
			want:    &types.Position{Line: 5, Character: 0},
		},
		{
			name:    "brace inside comment ignored",
			content: "sub a {\n  # closing } here\n}",
			start:   types.Position{Line: 0, Character: 0},
			want:    &types.Position{Line: 2, Character: 0},
		},
		{
			name:    "unbalanced document",
			content: "sub a {\n  restart;\n",
			start:   types.Position{Line: 0, Character: 0},
			want:    nil,
		},
		{
			name:    "start past first brace finds inner block",
			content: "sub a {\n  if (x) {\n  }\n}",
			start:   types.Position{Line: 1, Character: 2},
			want:    &types.Position{Line: 2, Character: 2},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := New("file:///t.vcl", 1, tt.content)
			got := doc.ClosingBraceOf(tt.start)
			if tt.want == nil {
				if got != nil {
					t.Fatalf("ClosingBraceOf = %v, want nil", got)
				}
				return
			}
			if got == nil {
				t.Fatalf("ClosingBraceOf = nil, want %v", *tt.want)
			}
			if *got != *tt.want {
				t.Errorf("ClosingBraceOf = %v, want %v", *got, *tt.want)
			}
		})
	}
}
