package refs

import (
	"fmt"
	"regexp"

	"github.com/vcltools/vci/internal/textdoc"
	"github.com/vcltools/vci/internal/types"
)

// Usage detection for global symbols is pattern-based over raw text, one
// fixed expression per kind. The patterns deliberately over-match identical
// spellings in unrelated contexts and miss some legitimate usage forms;
// resolution quality is bounded by the heuristic, and the fixtures encode
// its exact behavior. Full AST-based resolution for globals would be a
// behavior change, not a fix.
type usagePattern struct {
	template  string
	nameGroup int
}

var usagePatterns = map[types.SymbolKind]usagePattern{
	types.SymbolAcl:        {template: `!?~\s*(%s)\b`, nameGroup: 1},
	types.SymbolTable:      {template: `table\.(lookup|contains)\s*\(\s*(%s)\b`, nameGroup: 2},
	types.SymbolBackend:    {template: `(req|bereq)\.backend\s*=\s*(%s)\b`, nameGroup: 2},
	types.SymbolSubroutine: {template: `call\s+(%s)\s*;`, nameGroup: 1},
}

func compileUsage(kind types.SymbolKind, name string) (*regexp.Regexp, int, bool) {
	p, ok := usagePatterns[kind]
	if !ok {
		return nil, 0, false
	}
	re, err := regexp.Compile(fmt.Sprintf(p.template, regexp.QuoteMeta(name)))
	if err != nil {
		return nil, 0, false
	}
	return re, p.nameGroup, true
}

// globalUsages scans every line of the document for usage-pattern matches of
// a global symbol and returns the name capture of each match as a read
// occurrence.
func globalUsages(doc *textdoc.Document, kind types.SymbolKind, name string) []types.Occurrence {
	re, group, ok := compileUsage(kind, name)
	if !ok {
		return nil
	}

	var out []types.Occurrence
	for line := 0; line < doc.LineCount(); line++ {
		text := doc.LineAt(line)
		for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
			lo, hi := m[2*group], m[2*group+1]
			if lo < 0 {
				continue
			}
			out = append(out, types.Occurrence{
				Value: name,
				Span:  types.Span{Line: line, Character: lo, Length: hi - lo},
			})
		}
	}
	return out
}

// inferKindFromLine tests one line of text against each usage pattern in a
// fixed order and returns the first kind whose pattern matches the name on
// that line. Used when the cursor sits on a usage rather than a declaration.
var inferOrder = []types.SymbolKind{
	types.SymbolAcl,
	types.SymbolTable,
	types.SymbolBackend,
	types.SymbolSubroutine,
}

func inferKindFromLine(text, name string) (types.SymbolKind, bool) {
	for _, kind := range inferOrder {
		re, _, ok := compileUsage(kind, name)
		if !ok {
			continue
		}
		if re.MatchString(text) {
			return kind, true
		}
	}
	return 0, false
}
