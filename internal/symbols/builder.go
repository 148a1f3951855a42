// Package symbols builds and caches per-document symbol tables: the named
// declarations of a VCL file arranged as an outline tree, plus the flat form
// used for workspace-wide queries.
package symbols

import (
	"log"

	"github.com/vcltools/vci/internal/textdoc"
	"github.com/vcltools/vci/internal/types"
	"github.com/vcltools/vci/internal/vast"
)

// Build derives the symbol tree for one parsed document. A nil program (the
// oracle failed) yields zero symbols. The defining range of block-shaped
// declarations runs from the declaration keyword to the matching closing
// brace, found by brace-balance scan over the document text rather than
// trusting the tree's end tokens: the scan stays correct even when the
// oracle recovered past a malformed body.
//
// Any panic while shaping the tree is absorbed: the document degrades to
// symbol-free rather than taking the whole session down.
func Build(doc *textdoc.Document, program *vast.Program) (syms []types.Symbol) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("symbols: builder panic on %s: %v", doc.URI, r)
			syms = nil
		}
	}()

	if program == nil {
		return nil
	}

	b := builder{doc: doc}
	for _, stmt := range program.Statements {
		b.statement(stmt)
	}
	return b.out
}

type builder struct {
	doc *textdoc.Document
	out []types.Symbol
}

func (b *builder) statement(stmt vast.Statement) {
	switch n := stmt.(type) {
	case *vast.AclDeclaration:
		b.block(types.SymbolAcl, n.Tok, n.Name)
	case *vast.TableDeclaration:
		b.block(types.SymbolTable, n.Tok, n.Name)
	case *vast.BackendDeclaration:
		b.block(types.SymbolBackend, n.Tok, n.Name)
	case *vast.DirectorDeclaration:
		b.block(types.SymbolDirector, n.Tok, n.Name)
	case *vast.RatecounterDeclaration:
		b.block(types.SymbolRateCounter, n.Tok, n.Name)
	case *vast.PenaltyboxDeclaration:
		b.block(types.SymbolPenaltyBox, n.Tok, n.Name)
	case *vast.SubroutineDeclaration:
		b.subroutine(n)
	case *vast.IncludeStatement:
		b.include(n)
	}
}

// block appends one brace-bodied symbol. Declarations whose closing brace
// cannot be found (truncated document) are omitted entirely; a symbol with a
// guessed extent is worse than no symbol.
func (b *builder) block(kind types.SymbolKind, keyword vast.Token, name *vast.Ident) {
	sym, ok := b.makeBlock(kind, keyword, name)
	if !ok {
		return
	}
	b.out = append(b.out, sym)
}

func (b *builder) makeBlock(kind types.SymbolKind, keyword vast.Token, name *vast.Ident) (types.Symbol, bool) {
	if name == nil {
		return types.Symbol{}, false
	}
	start := keyword.Start()
	closing := b.doc.ClosingBraceOf(start)
	if closing == nil {
		return types.Symbol{}, false
	}
	return types.Symbol{
		Name: name.Value,
		Kind: kind,
		DefiningRange: types.Range{
			Start: start,
			End:   types.Position{Line: closing.Line, Character: closing.Character + 1},
		},
		SelectionRange: name.Tok.Span().Range(),
	}, true
}

// subroutine appends the sub as a symbol with its local variable declarations
// as children. A sub the oracle flagged as nested inside another declaration
// does not stand on its own: it attaches as a child of the most recent
// top-level symbol, or is dropped when there is none.
func (b *builder) subroutine(n *vast.SubroutineDeclaration) {
	sym, ok := b.makeBlock(types.SymbolSubroutine, n.Tok, n.Name)
	if !ok {
		return
	}
	sym.Children = b.locals(n.Block)

	if n.Nested {
		if len(b.out) == 0 {
			return
		}
		parent := &b.out[len(b.out)-1]
		parent.Children = append(parent.Children, sym)
		return
	}
	b.out = append(b.out, sym)
}

// locals collects "declare local" statements anywhere inside the body,
// including nested if-blocks. Each local is a point symbol: its defining
// range runs from the declare keyword to the end of the variable name.
func (b *builder) locals(block *vast.BlockStatement) []types.Symbol {
	if block == nil {
		return nil
	}
	var out []types.Symbol
	vast.Walk(block, func(n vast.Node) bool {
		if d, ok := n.(*vast.DeclareStatement); ok && d.Name != nil {
			nameSpan := d.Name.Tok.Span()
			out = append(out, types.Symbol{
				Name: d.Name.Value,
				Kind: types.SymbolLocalVariable,
				DefiningRange: types.Range{
					Start: d.Tok.Start(),
					End:   nameSpan.End(),
				},
				SelectionRange: nameSpan.Range(),
			})
		}
		// Locals of a nested sub belong to that sub, handled separately.
		if s, ok := n.(*vast.SubroutineDeclaration); ok && s != nil {
			return false
		}
		return true
	})
	return out
}

// include appends a point symbol for `include "module";` so outlines and
// workspace queries surface cross-file structure.
func (b *builder) include(n *vast.IncludeStatement) {
	if n.Module == nil {
		return
	}
	modSpan := n.Module.Tok.Span()
	// Cover the quoted literal, delimiters included.
	modSpan.Length = len(n.Module.Value) + n.Module.QuoteOverhead()
	b.out = append(b.out, types.Symbol{
		Name: n.Module.Value,
		Kind: types.SymbolInclude,
		DefiningRange: types.Range{
			Start: n.Tok.Start(),
			End:   modSpan.End(),
		},
		SelectionRange: modSpan.Range(),
	})
}

// Flatten converts a symbol tree to the flat workspace form, one entry per
// symbol with the parent's name as container.
func Flatten(uri string, syms []types.Symbol) []types.SymbolInformation {
	var out []types.SymbolInformation
	var walk func(container string, list []types.Symbol)
	walk = func(container string, list []types.Symbol) {
		for _, s := range list {
			out = append(out, types.SymbolInformation{
				Name:          s.Name,
				Kind:          s.Kind,
				ContainerName: container,
				Location:      types.Location{URI: uri, Range: s.SelectionRange},
			})
			walk(s.Name, s.Children)
		}
	}
	walk("", syms)
	return out
}

// FindAt returns the innermost symbol whose defining range contains pos,
// scanning in document order so that a later (more deeply nested) match
// replaces an earlier one.
func FindAt(syms []types.Symbol, pos types.Position) *types.Symbol {
	var found *types.Symbol
	for i := range syms {
		s := &syms[i]
		if !s.DefiningRange.Contains(pos) {
			continue
		}
		found = s
		if child := FindAt(s.Children, pos); child != nil {
			found = child
		}
	}
	return found
}
