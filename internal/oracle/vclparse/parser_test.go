package vclparse

import (
	"context"
	"testing"

	"github.com/vcltools/vci/internal/oracle"
	"github.com/vcltools/vci/internal/types"
	"github.com/vcltools/vci/internal/vast"
)

func parse(t *testing.T, src string) *oracle.Result {
	t.Helper()
	res, err := New().Parse(context.Background(), []byte(src), oracle.ParseOptions{FileName: "test.vcl"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return res
}

func mustParse(t *testing.T, src string) *vast.Program {
	t.Helper()
	res := parse(t, src)
	if res.Program == nil {
		t.Fatalf("parse failed: %v", res.Diagnostics)
	}
	return res.Program
}

const fullFixture = `include "common";

acl internal {
  "10.0.0.0"/8;
  ! "192.168.0.1";
}

backend origin {
  .host = "example.com";
  .port = "443";
  .probe = {
    .request = "GET / HTTP/1.1";
    .timeout = 2s;
  }
}

director edge random {
  .retries = 3;
  { .backend = origin; .weight = 1; }
}

table routes STRING {
  "a": "one",
  "b": "two",
}

sub vcl_recv {
  declare local var.who STRING;
  set var.who = "world" " and " req.http.Host;
  if (client.ip ~ internal) {
    set req.backend = origin;
  } elsif (req.url ~ "^/api/") {
    call helper;
  } else {
    error 403 "no";
  }
  return(lookup);
}
`

func TestParseFullDocument(t *testing.T) {
	program := mustParse(t, fullFixture)
	if len(program.Statements) != 6 {
		t.Fatalf("got %d top-level statements, want 6", len(program.Statements))
	}

	inc, ok := program.Statements[0].(*vast.IncludeStatement)
	if !ok {
		t.Fatalf("statement 0 is %T, want IncludeStatement", program.Statements[0])
	}
	if inc.Module == nil || inc.Module.Value != "common" {
		t.Errorf("include module = %+v, want common", inc.Module)
	}

	acl, ok := program.Statements[1].(*vast.AclDeclaration)
	if !ok {
		t.Fatalf("statement 1 is %T, want AclDeclaration", program.Statements[1])
	}
	if acl.Name.Value != "internal" {
		t.Errorf("acl name = %q", acl.Name.Value)
	}
	if acl.Name.Tok.Line != 3 || acl.Name.Tok.Column != 5 {
		t.Errorf("acl name position = %d:%d, want 3:5", acl.Name.Tok.Line, acl.Name.Tok.Column)
	}
	if len(acl.Entries) != 2 {
		t.Fatalf("acl entries = %d, want 2", len(acl.Entries))
	}
	if acl.Entries[0].Inverse || acl.Entries[0].Mask == nil || acl.Entries[0].Mask.Value != 8 {
		t.Errorf("first entry = %+v, want /8 non-inverse", acl.Entries[0])
	}
	if !acl.Entries[1].Inverse {
		t.Error("second entry should be inverse")
	}

	be, ok := program.Statements[2].(*vast.BackendDeclaration)
	if !ok {
		t.Fatalf("statement 2 is %T, want BackendDeclaration", program.Statements[2])
	}
	if be.Name.Value != "origin" || len(be.Properties) != 3 {
		t.Fatalf("backend = %q with %d properties, want origin with 3", be.Name.Value, len(be.Properties))
	}
	probe, ok := be.Properties[2].Value.(*vast.BackendObject)
	if !ok {
		t.Fatalf("probe value is %T, want BackendObject", be.Properties[2].Value)
	}
	if len(probe.Values) != 2 {
		t.Errorf("probe has %d properties, want 2", len(probe.Values))
	}
	if _, ok := probe.Values[1].Value.(*vast.RTimeLiteral); !ok {
		t.Errorf("probe timeout is %T, want RTimeLiteral", probe.Values[1].Value)
	}

	dir, ok := program.Statements[3].(*vast.DirectorDeclaration)
	if !ok {
		t.Fatalf("statement 3 is %T, want DirectorDeclaration", program.Statements[3])
	}
	if dir.DirectorType.Value != "random" || len(dir.Properties) != 1 || len(dir.Backends) != 1 {
		t.Errorf("director = type %q, %d props, %d members", dir.DirectorType.Value, len(dir.Properties), len(dir.Backends))
	}
	if len(dir.Backends[0].Values) != 2 {
		t.Errorf("director member has %d values, want 2", len(dir.Backends[0].Values))
	}

	tbl, ok := program.Statements[4].(*vast.TableDeclaration)
	if !ok {
		t.Fatalf("statement 4 is %T, want TableDeclaration", program.Statements[4])
	}
	if tbl.ValueType == nil || tbl.ValueType.Value != "STRING" || len(tbl.Entries) != 2 {
		t.Errorf("table = %+v with %d entries", tbl.ValueType, len(tbl.Entries))
	}

	sub, ok := program.Statements[5].(*vast.SubroutineDeclaration)
	if !ok {
		t.Fatalf("statement 5 is %T, want SubroutineDeclaration", program.Statements[5])
	}
	if sub.Name.Value != "vcl_recv" || sub.Nested {
		t.Errorf("sub = %q nested=%v", sub.Name.Value, sub.Nested)
	}
	if len(sub.Block.Statements) != 4 {
		t.Fatalf("sub body has %d statements, want 4", len(sub.Block.Statements))
	}
}

func TestParseConcatFoldsLeft(t *testing.T) {
	program := mustParse(t, fullFixture)
	sub := program.Statements[5].(*vast.SubroutineDeclaration)
	set := sub.Block.Statements[1].(*vast.SetStatement)

	// "world" " and " req.http.Host folds into left-nested "+" nodes.
	outer, ok := set.Value.(*vast.InfixExpression)
	if !ok || outer.Operator != "+" {
		t.Fatalf("set value = %T, want concat infix", set.Value)
	}
	inner, ok := outer.Left.(*vast.InfixExpression)
	if !ok || inner.Operator != "+" {
		t.Fatalf("left of outer concat = %T, want inner concat", outer.Left)
	}
	if _, ok := inner.Left.(*vast.StringLiteral); !ok {
		t.Errorf("innermost left = %T, want StringLiteral", inner.Left)
	}
	if id, ok := outer.Right.(*vast.Ident); !ok || id.Value != "req.http.Host" {
		t.Errorf("outer right = %+v, want req.http.Host", outer.Right)
	}
}

func TestParseIfChain(t *testing.T) {
	program := mustParse(t, fullFixture)
	sub := program.Statements[5].(*vast.SubroutineDeclaration)
	ifStmt := sub.Block.Statements[2].(*vast.IfStatement)

	cond, ok := ifStmt.Condition.(*vast.InfixExpression)
	if !ok || cond.Operator != "~" {
		t.Fatalf("condition = %T %v", ifStmt.Condition, ifStmt.Condition)
	}
	if len(ifStmt.Alternatives) != 1 {
		t.Fatalf("got %d elsif branches, want 1", len(ifStmt.Alternatives))
	}
	if ifStmt.Alternative == nil {
		t.Fatal("missing else branch")
	}
	if _, ok := ifStmt.Alternatives[0].Condition.(*vast.InfixExpression); !ok {
		t.Errorf("elsif condition = %T", ifStmt.Alternatives[0].Condition)
	}
}

func TestParseNestedSubroutineFlag(t *testing.T) {
	program := mustParse(t, "sub outer {\n  sub inner {\n    restart;\n  }\n}\n")
	outer := program.Statements[0].(*vast.SubroutineDeclaration)
	if outer.Nested {
		t.Error("top-level sub flagged nested")
	}
	inner, ok := outer.Block.Statements[0].(*vast.SubroutineDeclaration)
	if !ok {
		t.Fatalf("inner statement = %T, want SubroutineDeclaration", outer.Block.Statements[0])
	}
	if !inner.Nested {
		t.Error("hoisted sub not flagged nested")
	}
}

func TestParseFunctionalSubroutine(t *testing.T) {
	program := mustParse(t, "sub greet(STRING who) STRING {\n  return \"hi \" who;\n}\n")
	sub := program.Statements[0].(*vast.SubroutineDeclaration)
	if len(sub.Parameters) != 1 || sub.Parameters[0].Name.Value != "who" {
		t.Fatalf("parameters = %+v", sub.Parameters)
	}
	if sub.Parameters[0].ValueType.Value != "STRING" {
		t.Errorf("parameter type = %q", sub.Parameters[0].ValueType.Value)
	}
	if sub.ReturnType == nil || sub.ReturnType.Value != "STRING" {
		t.Errorf("return type = %+v", sub.ReturnType)
	}
}

func TestParseErrorsYieldNilProgram(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{name: "missing name", src: "sub {\n}"},
		{name: "garbage at top level", src: "wibble wobble"},
		{name: "bad statement", src: "sub a {\n  set = 3;\n}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := parse(t, tt.src)
			if res.Program != nil {
				t.Error("broken document produced a tree; want nil Program")
			}
			if len(res.Diagnostics) == 0 {
				t.Fatal("no diagnostics for broken document")
			}
			if res.Diagnostics[0].Severity != types.SeverityError {
				t.Errorf("severity = %v, want error", res.Diagnostics[0].Severity)
			}
			if res.Diagnostics[0].RuleID != "syntax" {
				t.Errorf("rule id = %q, want syntax", res.Diagnostics[0].RuleID)
			}
		})
	}
}

func TestParseLongString(t *testing.T) {
	program := mustParse(t, "sub a {\n  synthetic {\"body \"quoted\" text\"};\n}\n")
	sub := program.Statements[0].(*vast.SubroutineDeclaration)
	syn := sub.Block.Statements[0].(*vast.SyntheticStatement)
	lit, ok := syn.Value.(*vast.StringLiteral)
	if !ok {
		t.Fatalf("synthetic value = %T, want StringLiteral", syn.Value)
	}
	if !lit.LongString {
		t.Error("braced string not flagged LongString")
	}
	if lit.Value != `body "quoted" text` {
		t.Errorf("value = %q", lit.Value)
	}
	if lit.QuoteOverhead() != 4 {
		t.Errorf("quote overhead = %d, want 4", lit.QuoteOverhead())
	}
}

func TestParseContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New().Parse(ctx, []byte("sub a {\n}"), oracle.ParseOptions{}); err == nil {
		t.Error("expected error from canceled context")
	}
}
