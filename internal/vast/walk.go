package vast

import (
	"github.com/vcltools/vci/internal/types"
)

// maxWalkDepth guards against runaway recursion should a future oracle ever
// emit shared sub-nodes. The tree contract makes cycles impossible today;
// a legitimate VCL document stays well under this bound.
const maxWalkDepth = 4096

// Visitor is invoked once per node in pre-order. Returning false skips the
// node's children (the node itself has already been visited).
type Visitor func(Node) bool

// Walk traverses the tree depth-first in pre-order, invoking visit for every
// node regardless of kind. Field order within a variant is fixed by the
// switch below, so traversal order is stable for a given tree instance;
// several resolvers rely on first-match-wins over this order.
func Walk(n Node, visit Visitor) {
	walk(n, visit, 0)
}

func walk(n Node, visit Visitor, depth int) {
	if n == nil || isNilNode(n) || depth > maxWalkDepth {
		return
	}
	if !visit(n) {
		return
	}
	depth++

	switch v := n.(type) {
	case *Program:
		for _, s := range v.Statements {
			walk(s, visit, depth)
		}

	case *AclDeclaration:
		walk(v.Name, visit, depth)
		for _, e := range v.Entries {
			walk(e, visit, depth)
		}
	case *AclEntry:
		walk(v.IP, visit, depth)
		walk(v.Mask, visit, depth)
	case *BackendDeclaration:
		walk(v.Name, visit, depth)
		for _, p := range v.Properties {
			walk(p, visit, depth)
		}
	case *BackendProperty:
		walk(v.Key, visit, depth)
		walk(v.Value, visit, depth)
	case *BackendObject:
		for _, p := range v.Values {
			walk(p, visit, depth)
		}
	case *DirectorDeclaration:
		walk(v.Name, visit, depth)
		walk(v.DirectorType, visit, depth)
		for _, p := range v.Properties {
			walk(p, visit, depth)
		}
		for _, b := range v.Backends {
			walk(b, visit, depth)
		}
	case *DirectorProperty:
		walk(v.Key, visit, depth)
		walk(v.Value, visit, depth)
	case *DirectorBackend:
		for _, p := range v.Values {
			walk(p, visit, depth)
		}
	case *TableDeclaration:
		walk(v.Name, visit, depth)
		walk(v.ValueType, visit, depth)
		for _, e := range v.Entries {
			walk(e, visit, depth)
		}
	case *TableEntry:
		walk(v.Key, visit, depth)
		walk(v.Value, visit, depth)
	case *SubroutineDeclaration:
		walk(v.Name, visit, depth)
		walk(v.ReturnType, visit, depth)
		for _, p := range v.Parameters {
			walk(p, visit, depth)
		}
		walk(v.Block, visit, depth)
	case *Parameter:
		walk(v.Name, visit, depth)
		walk(v.ValueType, visit, depth)
	case *RatecounterDeclaration:
		walk(v.Name, visit, depth)
	case *PenaltyboxDeclaration:
		walk(v.Name, visit, depth)
	case *IncludeStatement:
		walk(v.Module, visit, depth)
	case *ImportStatement:
		walk(v.Name, visit, depth)

	case *BlockStatement:
		for _, s := range v.Statements {
			walk(s, visit, depth)
		}
	case *DeclareStatement:
		walk(v.Name, visit, depth)
		walk(v.ValueType, visit, depth)
	case *SetStatement:
		walk(v.Ident, visit, depth)
		walk(v.Value, visit, depth)
	case *AddStatement:
		walk(v.Ident, visit, depth)
		walk(v.Value, visit, depth)
	case *UnsetStatement:
		walk(v.Ident, visit, depth)
	case *CallStatement:
		walk(v.Subroutine, visit, depth)
	case *IfStatement:
		walk(v.Condition, visit, depth)
		walk(v.Consequence, visit, depth)
		for _, alt := range v.Alternatives {
			walk(alt, visit, depth)
		}
		walk(v.Alternative, visit, depth)
	case *ReturnStatement:
		walk(v.Value, visit, depth)
	case *ErrorStatement:
		walk(v.Code, visit, depth)
		walk(v.Argument, visit, depth)
	case *SyntheticStatement:
		walk(v.Value, visit, depth)
	case *LogStatement:
		walk(v.Value, visit, depth)

	case *PrefixExpression:
		walk(v.Right, visit, depth)
	case *InfixExpression:
		walk(v.Left, visit, depth)
		walk(v.Right, visit, depth)
	case *GroupedExpression:
		walk(v.Right, visit, depth)
	case *FunctionCallExpression:
		walk(v.Function, visit, depth)
		for _, a := range v.Arguments {
			walk(a, visit, depth)
		}
	}
}

// isNilNode reports whether a non-nil interface wraps a nil pointer, which
// happens for optional fields like IfStatement.Alternative.
func isNilNode(n Node) bool {
	switch v := n.(type) {
	case *Program:
		return v == nil
	case *AclDeclaration:
		return v == nil
	case *AclEntry:
		return v == nil
	case *BackendDeclaration:
		return v == nil
	case *BackendProperty:
		return v == nil
	case *BackendObject:
		return v == nil
	case *DirectorDeclaration:
		return v == nil
	case *DirectorProperty:
		return v == nil
	case *DirectorBackend:
		return v == nil
	case *TableDeclaration:
		return v == nil
	case *TableEntry:
		return v == nil
	case *SubroutineDeclaration:
		return v == nil
	case *Parameter:
		return v == nil
	case *RatecounterDeclaration:
		return v == nil
	case *PenaltyboxDeclaration:
		return v == nil
	case *IncludeStatement:
		return v == nil
	case *ImportStatement:
		return v == nil
	case *BlockStatement:
		return v == nil
	case *DeclareStatement:
		return v == nil
	case *SetStatement:
		return v == nil
	case *AddStatement:
		return v == nil
	case *UnsetStatement:
		return v == nil
	case *CallStatement:
		return v == nil
	case *IfStatement:
		return v == nil
	case *ReturnStatement:
		return v == nil
	case *ErrorStatement:
		return v == nil
	case *SyntheticStatement:
		return v == nil
	case *LogStatement:
		return v == nil
	case *RestartStatement:
		return v == nil
	case *EsiStatement:
		return v == nil
	case *Ident:
		return v == nil
	case *StringLiteral:
		return v == nil
	case *IntegerLiteral:
		return v == nil
	case *FloatLiteral:
		return v == nil
	case *BoolLiteral:
		return v == nil
	case *RTimeLiteral:
		return v == nil
	case *IPLiteral:
		return v == nil
	case *PrefixExpression:
		return v == nil
	case *InfixExpression:
		return v == nil
	case *GroupedExpression:
		return v == nil
	case *FunctionCallExpression:
		return v == nil
	}
	return false
}

// NodeRange computes the zero-based extent of a node's subtree: from its own
// token to the furthest token end reachable below it, including closing
// braces and string delimiters. Used by the selection-range provider.
func NodeRange(n Node) types.Range {
	start := n.Token().Start()
	end := tokenEnd(n)

	Walk(n, func(child Node) bool {
		ce := tokenEnd(child)
		if end.Before(ce) {
			end = ce
		}
		return true
	})

	return types.Range{Start: start, End: end}
}

// tokenEnd returns the zero-based end position of the node's own token,
// accounting for closing braces and quote delimiters where the node carries
// them.
func tokenEnd(n Node) types.Position {
	switch v := n.(type) {
	case *BlockStatement:
		if v.End.Line > 0 {
			return types.Position{Line: v.End.Line - 1, Character: v.End.Column}
		}
	case *AclDeclaration:
		if v.End.Line > 0 {
			return types.Position{Line: v.End.Line - 1, Character: v.End.Column}
		}
	case *BackendDeclaration:
		if v.End.Line > 0 {
			return types.Position{Line: v.End.Line - 1, Character: v.End.Column}
		}
	case *BackendObject:
		if v.End.Line > 0 {
			return types.Position{Line: v.End.Line - 1, Character: v.End.Column}
		}
	case *DirectorDeclaration:
		if v.End.Line > 0 {
			return types.Position{Line: v.End.Line - 1, Character: v.End.Column}
		}
	case *DirectorBackend:
		if v.End.Line > 0 {
			return types.Position{Line: v.End.Line - 1, Character: v.End.Column}
		}
	case *TableDeclaration:
		if v.End.Line > 0 {
			return types.Position{Line: v.End.Line - 1, Character: v.End.Column}
		}
	case *RatecounterDeclaration:
		if v.End.Line > 0 {
			return types.Position{Line: v.End.Line - 1, Character: v.End.Column}
		}
	case *PenaltyboxDeclaration:
		if v.End.Line > 0 {
			return types.Position{Line: v.End.Line - 1, Character: v.End.Column}
		}
	case *StringLiteral:
		sp := v.Tok.Span()
		return types.Position{Line: sp.Line, Character: sp.Character + sp.Length + v.QuoteOverhead()}
	}
	sp := n.Token().Span()
	return sp.End()
}
