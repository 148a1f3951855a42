// Package scope answers "which subroutine owns this position" and resolves
// names inside that subroutine's lexical scope. Local variables and
// parameters are invisible outside their subroutine; everything here takes
// the enclosing sub as the unit of visibility.
package scope

import (
	"github.com/vcltools/vci/internal/types"
	"github.com/vcltools/vci/internal/vast"
)

// EnclosingSubroutine returns the subroutine whose body range contains pos,
// or nil at top level. The walk visits subs in document order and keeps the
// last containing match, so a sub nested inside another declaration wins
// over its host.
func EnclosingSubroutine(program *vast.Program, pos types.Position) *vast.SubroutineDeclaration {
	if program == nil {
		return nil
	}
	var found *vast.SubroutineDeclaration
	vast.Walk(program, func(n vast.Node) bool {
		sub, ok := n.(*vast.SubroutineDeclaration)
		if !ok {
			return true
		}
		if Extent(sub).Contains(pos) {
			found = sub
		}
		return true
	})
	return found
}

// Extent is the subroutine's full range, keyword through closing brace.
// An unterminated body extends to the opening line only.
func Extent(sub *vast.SubroutineDeclaration) types.Range {
	start := sub.Tok.Start()
	end := start
	if sub.Block != nil {
		end = types.Position{Line: sub.Block.EndLine(), Character: sub.Block.End.Column}
	}
	return types.Range{Start: start, End: end}
}

// LocalDefinition finds the declaration site of a local variable or
// parameter named name inside sub: the name ident of the first matching
// "declare local" statement, or the parameter ident. Returns nil when the
// name is not declared in this scope.
func LocalDefinition(sub *vast.SubroutineDeclaration, name string) *vast.Ident {
	if sub == nil {
		return nil
	}
	for _, p := range sub.Parameters {
		if p.Name != nil && p.Name.Value == name {
			return p.Name
		}
	}
	var found *vast.Ident
	if sub.Block == nil {
		return nil
	}
	vast.Walk(sub.Block, func(n vast.Node) bool {
		if found != nil {
			return false
		}
		switch d := n.(type) {
		case *vast.DeclareStatement:
			if d.Name != nil && d.Name.Value == name {
				found = d.Name
				return false
			}
		case *vast.SubroutineDeclaration:
			// A nested sub is its own scope.
			return false
		}
		return true
	})
	return found
}

// Locals lists every local variable name declared in sub, parameters
// included, in declaration order.
func Locals(sub *vast.SubroutineDeclaration) []string {
	if sub == nil {
		return nil
	}
	var names []string
	for _, p := range sub.Parameters {
		if p.Name != nil {
			names = append(names, p.Name.Value)
		}
	}
	if sub.Block == nil {
		return names
	}
	vast.Walk(sub.Block, func(n vast.Node) bool {
		switch d := n.(type) {
		case *vast.DeclareStatement:
			if d.Name != nil {
				names = append(names, d.Name.Value)
			}
		case *vast.SubroutineDeclaration:
			return false
		}
		return true
	})
	return names
}
