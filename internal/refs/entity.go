// Package refs resolves definitions, references, and highlights for the
// entities a cursor can land on: HTTP header names (AST-invisible, carved
// out of dotted identifier tokens), subroutine-local variables and
// parameters, and document-wide global symbols.
package refs

import (
	"strings"

	"github.com/vcltools/vci/internal/scope"
	"github.com/vcltools/vci/internal/textdoc"
	"github.com/vcltools/vci/internal/types"
	"github.com/vcltools/vci/internal/vast"
)

// Category discriminates what kind of entity a position resolved to.
type Category uint8

const (
	// EntityNone means the cursor is not on anything resolvable.
	EntityNone Category = iota
	// EntityHeader is an HTTP header name inside a dotted variable path.
	EntityHeader
	// EntityLocal is a subroutine-local variable or parameter.
	EntityLocal
	// EntityGlobal is a document-wide named declaration.
	EntityGlobal
)

// Entity is the outcome of resolving the word under a cursor. Exactly one
// of the category-specific fields is meaningful.
type Entity struct {
	Category Category
	// Name is the logical name being operated on: the header name for
	// EntityHeader, the full dotted variable for EntityLocal, the symbol
	// name for EntityGlobal.
	Name string
	// WordSpan covers the renameable text: the header-name sub-span for
	// headers, the whole identifier word otherwise.
	WordSpan types.Span

	// Sub is the enclosing subroutine, set for EntityLocal.
	Sub *vast.SubroutineDeclaration
	// Kind is the global symbol kind, set for EntityGlobal.
	Kind types.SymbolKind
	// Symbol is the matching declaration, set for EntityGlobal when one
	// exists. A usage-inferred entity with no declaration leaves it nil.
	Symbol *types.Symbol
}

// Resolver answers position queries against one document snapshot: the text,
// its tree, and its cached symbol table. All methods are pure reads.
type Resolver struct {
	Doc     *textdoc.Document
	Program *vast.Program
	Symbols []types.Symbol
}

// EntityAt resolves the word under pos, trying header name, then local
// variable, then global symbol by declaration containment, then global by
// usage-pattern inference, then any symbol with the same name. The priority
// order is what makes `var.foo` inside a sub resolve as a local even when a
// global shares the spelling.
func (r *Resolver) EntityAt(pos types.Position) *Entity {
	word, span := r.Doc.WordSpanAt(pos)
	if word == "" {
		return nil
	}

	if header := types.HeaderName(word); header != "" {
		sub := headerSubSpan(word, span)
		// Only when the cursor actually touches the header portion; on the
		// object part (req.http) the path is not a header reference.
		if sub.Contains(pos) {
			return &Entity{Category: EntityHeader, Name: header, WordSpan: sub}
		}
	}

	if sub := scope.EnclosingSubroutine(r.Program, pos); sub != nil {
		if scope.LocalDefinition(sub, word) != nil {
			return &Entity{Category: EntityLocal, Name: word, WordSpan: span, Sub: sub}
		}
	}

	if sym := r.symbolDeclaring(word, pos); sym != nil {
		return &Entity{Category: EntityGlobal, Name: word, WordSpan: span, Kind: sym.Kind, Symbol: sym}
	}

	if kind, ok := inferKindFromLine(r.Doc.LineAt(pos.Line), word); ok {
		e := &Entity{Category: EntityGlobal, Name: word, WordSpan: span, Kind: kind}
		e.Symbol = r.symbolByKind(word, kind)
		return e
	}

	// Best effort: any symbol with this exact spelling. Ambiguous when the
	// document reuses one name across kinds; first in document order wins.
	if sym := r.symbolByName(word); sym != nil {
		return &Entity{Category: EntityGlobal, Name: word, WordSpan: span, Kind: sym.Kind, Symbol: sym}
	}
	return nil
}

// headerSubSpan narrows the span of a dotted path token to its header-name
// portion: "req.http.Cache-Control" keeps only "Cache-Control".
func headerSubSpan(word string, span types.Span) types.Span {
	idx := strings.Index(word, ".http.") + len(".http.")
	return types.Span{
		Line:      span.Line,
		Character: span.Character + idx,
		Length:    len(word) - idx,
	}
}

// symbolDeclaring finds a symbol named name whose defining range contains
// pos, descending into children so a local declared in a sub is preferred
// over the sub itself.
func (r *Resolver) symbolDeclaring(name string, pos types.Position) *types.Symbol {
	var find func(list []types.Symbol) *types.Symbol
	find = func(list []types.Symbol) *types.Symbol {
		for i := range list {
			s := &list[i]
			if !s.DefiningRange.Contains(pos) {
				continue
			}
			if child := find(s.Children); child != nil {
				return child
			}
			if s.Name == name {
				return s
			}
		}
		return nil
	}
	return find(r.Symbols)
}

func (r *Resolver) symbolByKind(name string, kind types.SymbolKind) *types.Symbol {
	return r.findSymbol(func(s *types.Symbol) bool {
		return s.Name == name && s.Kind == kind
	})
}

func (r *Resolver) symbolByName(name string) *types.Symbol {
	return r.findSymbol(func(s *types.Symbol) bool {
		return s.Name == name
	})
}

func (r *Resolver) findSymbol(match func(*types.Symbol) bool) *types.Symbol {
	var find func(list []types.Symbol) *types.Symbol
	find = func(list []types.Symbol) *types.Symbol {
		for i := range list {
			if match(&list[i]) {
				return &list[i]
			}
			if child := find(list[i].Children); child != nil {
				return child
			}
		}
		return nil
	}
	return find(r.Symbols)
}
