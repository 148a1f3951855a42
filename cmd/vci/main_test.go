package main

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// Silence printJSON while commands run.
func quietStdout(t *testing.T) {
	t.Helper()
	saved := os.Stdout
	devnull, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
	if err != nil {
		t.Fatal(err)
	}
	os.Stdout = devnull
	t.Cleanup(func() {
		os.Stdout = saved
		devnull.Close()
	})
}

func TestSymbolsCommand(t *testing.T) {
	quietStdout(t)
	path := writeFile(t, "main.vcl", "sub vcl_recv {\n  restart;\n}\n")
	if err := newApp().Run([]string{"vci", "symbols", path}); err != nil {
		t.Fatalf("symbols: %v", err)
	}
}

func TestDefinitionCommand(t *testing.T) {
	quietStdout(t)
	path := writeFile(t, "main.vcl", "sub helper {\n  restart;\n}\n\nsub vcl_recv {\n  call helper;\n}\n")
	if err := newApp().Run([]string{"vci", "definition", "-l", "6", "-c", "9", path}); err != nil {
		t.Fatalf("definition: %v", err)
	}
	if err := newApp().Run([]string{"vci", "definition", "-l", "4", "-c", "1", path}); err == nil {
		t.Fatal("definition on a blank line should fail")
	}
}

func TestDiagnosticsCommand(t *testing.T) {
	quietStdout(t)
	path := writeFile(t, "broken.vcl", "sub {")
	if err := newApp().Run([]string{"vci", "diagnostics", path}); err != nil {
		t.Fatalf("diagnostics: %v", err)
	}
}

const dumpFixture = `{
  "ast": {
    "kind": "Program",
    "token": {"type": "ident", "literal": "sub", "line": 1, "column": 1},
    "statements": [{
      "kind": "SubroutineDeclaration",
      "token": {"type": "ident", "literal": "sub", "line": 1, "column": 1},
      "name": {"kind": "Ident", "token": {"type": "ident", "literal": "vcl_recv", "line": 1, "column": 5}},
      "block": {
        "kind": "BlockStatement",
        "token": {"type": "{", "literal": "{", "line": 1, "column": 14},
        "statements": [],
        "end_token": {"type": "}", "literal": "}", "line": 2, "column": 1}
      }
    }]
  },
  "diagnostics": [
    {"message": "unused subroutine", "severity": "warning", "line": 1, "column": 5, "length": 8, "rule_id": "unused"}
  ]
}`

func TestDiagnosticsCommandASTJSON(t *testing.T) {
	quietStdout(t)
	path := writeFile(t, "main.json", dumpFixture)
	if err := newApp().Run([]string{"vci", "diagnostics", "--ast-json", path}); err != nil {
		t.Fatalf("diagnostics --ast-json: %v", err)
	}
}

func TestSymbolsCommandASTJSON(t *testing.T) {
	quietStdout(t)
	path := writeFile(t, "main.json", dumpFixture)
	if err := newApp().Run([]string{"vci", "symbols", "--ast-json", path}); err != nil {
		t.Fatalf("symbols --ast-json: %v", err)
	}
	if err := newApp().Run([]string{"vci", "symbols", "--ast-json", writeFile(t, "bad.json", "{")}); err == nil {
		t.Fatal("malformed dump should fail")
	}
}
