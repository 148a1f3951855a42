package refs

import (
	"sort"

	"github.com/vcltools/vci/internal/types"
	"github.com/vcltools/vci/internal/vast"
)

// Highlight is one occurrence surfaced for cursor highlighting.
type Highlight struct {
	Range   types.Range
	IsWrite bool
}

// Definition resolves the declaration site of the entity under pos, or nil.
// Header names have no declaration; a query on one returns nil, matching
// the "no result is a normal outcome" contract.
func (r *Resolver) Definition(pos types.Position) *types.Location {
	e := r.EntityAt(pos)
	if e == nil {
		return nil
	}
	switch e.Category {
	case EntityLocal:
		decl := localDeclIdent(e)
		if decl == nil {
			return nil
		}
		return &types.Location{URI: r.Doc.URI, Range: decl.Tok.Span().Range()}
	case EntityGlobal:
		if e.Symbol == nil {
			return nil
		}
		return &types.Location{URI: r.Doc.URI, Range: e.Symbol.SelectionRange}
	}
	return nil
}

// References returns every occurrence of the entity under pos as locations,
// ordered by position. includeDeclaration controls whether the declaration
// site itself is part of the answer.
func (r *Resolver) References(pos types.Position, includeDeclaration bool) []types.Location {
	e := r.EntityAt(pos)
	if e == nil {
		return nil
	}
	occs := r.Occurrences(e, includeDeclaration)
	out := make([]types.Location, 0, len(occs))
	for _, occ := range occs {
		out = append(out, types.Location{URI: r.Doc.URI, Range: occ.Span.Range()})
	}
	return out
}

// Highlights returns the occurrences of the entity under pos within this
// document, declaration included, each tagged read or write.
func (r *Resolver) Highlights(pos types.Position) []Highlight {
	e := r.EntityAt(pos)
	if e == nil {
		return nil
	}
	occs := r.Occurrences(e, true)
	out := make([]Highlight, 0, len(occs))
	for _, occ := range occs {
		out = append(out, Highlight{Range: occ.Span.Range(), IsWrite: occ.IsWrite})
	}
	return out
}

// Occurrences collects the full occurrence set for an already-resolved
// entity, deduplicated by (line, character) and sorted by position.
func (r *Resolver) Occurrences(e *Entity, includeDeclaration bool) []types.Occurrence {
	var occs []types.Occurrence
	switch e.Category {
	case EntityHeader:
		occs = r.headerOccurrences(e.Name)
	case EntityLocal:
		occs = r.localOccurrences(e)
		if !includeDeclaration {
			occs = dropDeclaration(occs, localDeclIdent(e))
		}
	case EntityGlobal:
		occs = globalUsages(r.Doc, e.Kind, e.Name)
		if includeDeclaration && e.Symbol != nil {
			occs = append(occs, types.Occurrence{
				Value:   e.Name,
				Span:    rangeToSpan(e.Symbol.SelectionRange),
				IsWrite: true,
			})
		}
	}
	return dedupSort(occs)
}

// localOccurrences walks only the enclosing subroutine: its parameter list
// and body. The walker reaches declaration names both as the statement's
// Name field and as plain idents, so the dedup pass downstream is load-
// bearing, not defensive.
func (r *Resolver) localOccurrences(e *Entity) []types.Occurrence {
	writes := writeIdents(e.Sub)
	var occs []types.Occurrence

	for _, p := range e.Sub.Parameters {
		if p.Name != nil && p.Name.Value == e.Name {
			occs = append(occs, types.Occurrence{Value: e.Name, Span: p.Name.Tok.Span(), IsWrite: true})
		}
	}
	if e.Sub.Block == nil {
		return occs
	}
	vast.Walk(e.Sub.Block, func(n vast.Node) bool {
		switch id := n.(type) {
		case *vast.Ident:
			if id.Value == e.Name {
				occs = append(occs, types.Occurrence{
					Value:   e.Name,
					Span:    id.Tok.Span(),
					IsWrite: writes[id],
				})
			}
		case *vast.SubroutineDeclaration:
			// Nested sub bodies are a different scope.
			return false
		}
		return true
	})
	return occs
}

// headerOccurrences walks the whole document for dotted paths addressing the
// header, narrowing each hit to the header-name sub-span.
func (r *Resolver) headerOccurrences(header string) []types.Occurrence {
	if r.Program == nil {
		return nil
	}
	writes := writeIdents(r.Program)
	var occs []types.Occurrence
	vast.Walk(r.Program, func(n vast.Node) bool {
		id, ok := n.(*vast.Ident)
		if !ok {
			return true
		}
		if types.HeaderName(id.Value) != header {
			return true
		}
		occs = append(occs, types.Occurrence{
			Value:   header,
			Span:    headerSubSpan(id.Value, id.Tok.Span()),
			IsWrite: writes[id],
		})
		return true
	})
	return occs
}

// writeIdents collects the identifier nodes that sit in write position:
// assignment/append/unset targets, local declarations, and parameter names.
func writeIdents(root vast.Node) map[*vast.Ident]bool {
	writes := make(map[*vast.Ident]bool)
	vast.Walk(root, func(n vast.Node) bool {
		switch s := n.(type) {
		case *vast.SetStatement:
			writes[s.Ident] = true
		case *vast.AddStatement:
			writes[s.Ident] = true
		case *vast.UnsetStatement:
			writes[s.Ident] = true
		case *vast.DeclareStatement:
			writes[s.Name] = true
		case *vast.Parameter:
			writes[s.Name] = true
		}
		return true
	})
	return writes
}

func localDeclIdent(e *Entity) *vast.Ident {
	for _, p := range e.Sub.Parameters {
		if p.Name != nil && p.Name.Value == e.Name {
			return p.Name
		}
	}
	var found *vast.Ident
	if e.Sub.Block == nil {
		return nil
	}
	vast.Walk(e.Sub.Block, func(n vast.Node) bool {
		if found != nil {
			return false
		}
		if d, ok := n.(*vast.DeclareStatement); ok && d.Name != nil && d.Name.Value == e.Name {
			found = d.Name
			return false
		}
		return true
	})
	return found
}

func dropDeclaration(occs []types.Occurrence, decl *vast.Ident) []types.Occurrence {
	if decl == nil {
		return occs
	}
	declStart := decl.Tok.Start()
	out := occs[:0]
	for _, occ := range occs {
		if occ.Span.Start() == declStart {
			continue
		}
		out = append(out, occ)
	}
	return out
}

func rangeToSpan(r types.Range) types.Span {
	return types.Span{
		Line:      r.Start.Line,
		Character: r.Start.Character,
		Length:    r.End.Character - r.Start.Character,
	}
}

func dedupSort(occs []types.Occurrence) []types.Occurrence {
	sort.Slice(occs, func(i, j int) bool {
		return occs[i].Span.Start().Before(occs[j].Span.Start())
	})
	out := occs[:0]
	var last *types.Occurrence
	for i := range occs {
		if last != nil && occs[i].Span.Start() == last.Span.Start() {
			// Same logical occurrence reached through two field paths; keep
			// the write classification if either path saw one.
			if occs[i].IsWrite {
				out[len(out)-1].IsWrite = true
			}
			continue
		}
		out = append(out, occs[i])
		last = &out[len(out)-1]
	}
	return out
}
