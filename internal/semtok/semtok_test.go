package semtok

import (
	"context"
	"reflect"
	"testing"

	"github.com/vcltools/vci/internal/oracle"
	"github.com/vcltools/vci/internal/oracle/vclparse"
)

func TestNormalize(t *testing.T) {
	in := []Token{
		{Line: 2, Character: 0, Length: 3, Class: ClassKeyword},
		{Line: 0, Character: 5, Length: 4, Class: ClassString},
		{Line: 0, Character: 5, Length: 4, Class: ClassRegexp},
		{Line: 0, Character: 0, Length: 3, Class: ClassKeyword},
	}
	got := Normalize(in)
	want := []Token{
		{Line: 0, Character: 0, Length: 3, Class: ClassKeyword},
		{Line: 0, Character: 5, Length: 4, Class: ClassRegexp},
		{Line: 2, Character: 0, Length: 3, Class: ClassKeyword},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Normalize = %+v, want %+v", got, want)
	}
}

func TestNormalizeRegexpWinsEitherOrder(t *testing.T) {
	in := []Token{
		{Line: 1, Character: 8, Length: 6, Class: ClassRegexp},
		{Line: 1, Character: 8, Length: 6, Class: ClassString},
	}
	got := Normalize(in)
	if len(got) != 1 || got[0].Class != ClassRegexp {
		t.Errorf("Normalize = %+v, want single regexp token", got)
	}
}

func TestEncode(t *testing.T) {
	tokens := []Token{
		{Line: 0, Character: 4, Length: 3, Class: ClassFunction, Modifiers: ModDeclaration},
		{Line: 0, Character: 10, Length: 2, Class: ClassString},
		{Line: 2, Character: 1, Length: 4, Class: ClassRegexp},
	}
	got := Encode(tokens)
	want := []uint32{
		0, 4, 3, ClassFunction, ModDeclaration,
		0, 6, 2, ClassString, 0, // same line: character delta
		2, 1, 4, ClassRegexp, 0, // new line: character is absolute
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Encode = %v, want %v", got, want)
	}
}

func TestEncodeEmpty(t *testing.T) {
	if got := Encode(nil); len(got) != 0 {
		t.Errorf("Encode(nil) = %v", got)
	}
}

func TestClassify(t *testing.T) {
	src := "sub vcl_recv {\n" +
		"  if (req.url ~ \"^/api/\") {\n" +
		"    set req.http.X-Api = \"1\";\n" +
		"  }\n" +
		"}\n"
	res, err := vclparse.New().Parse(context.Background(), []byte(src), oracle.ParseOptions{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if res.Program == nil {
		t.Fatalf("fixture failed to parse: %v", res.Diagnostics)
	}

	got := Classify(res.Program)
	want := []Token{
		{Line: 0, Character: 0, Length: 3, Class: ClassKeyword},
		{Line: 0, Character: 4, Length: 8, Class: ClassFunction, Modifiers: ModDeclaration},
		{Line: 1, Character: 2, Length: 2, Class: ClassKeyword},
		{Line: 1, Character: 6, Length: 7, Class: ClassVariable, Modifiers: ModDefaultLibrary},
		{Line: 1, Character: 14, Length: 1, Class: ClassOperator},
		{Line: 1, Character: 16, Length: 8, Class: ClassRegexp},
		{Line: 2, Character: 4, Length: 3, Class: ClassKeyword},
		{Line: 2, Character: 8, Length: 14, Class: ClassProperty, Modifiers: ModDefaultLibrary},
		{Line: 2, Character: 23, Length: 1, Class: ClassOperator},
		{Line: 2, Character: 25, Length: 3, Class: ClassString},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Classify mismatch\n got: %+v\nwant: %+v", got, want)
	}

	// The stream contract: strictly increasing positions.
	for i := 1; i < len(got); i++ {
		prev, cur := got[i-1], got[i]
		if cur.Line < prev.Line || (cur.Line == prev.Line && cur.Character <= prev.Character) {
			t.Errorf("token %d at %d:%d not after %d:%d", i, cur.Line, cur.Character, prev.Line, prev.Character)
		}
	}
}

func TestClassifyNilProgram(t *testing.T) {
	if got := Classify(nil); got != nil {
		t.Errorf("Classify(nil) = %+v", got)
	}
}

func TestLegendsAligned(t *testing.T) {
	if len(TokenTypes) != 10 {
		t.Errorf("TokenTypes has %d entries", len(TokenTypes))
	}
	if TokenTypes[ClassRegexp] != "regexp" {
		t.Errorf("TokenTypes[ClassRegexp] = %q", TokenTypes[ClassRegexp])
	}
	if TokenModifiers[1] != "defaultLibrary" {
		t.Errorf("TokenModifiers[1] = %q", TokenModifiers[1])
	}
}
