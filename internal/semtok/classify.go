package semtok

import (
	"strings"

	"github.com/vcltools/vci/internal/vast"
)

// builtinObjects are the engine-provided variable roots; idents rooted at
// one of them get the defaultLibrary modifier.
var builtinObjects = map[string]bool{
	"req":     true,
	"bereq":   true,
	"resp":    true,
	"beresp":  true,
	"obj":     true,
	"client":  true,
	"server":  true,
	"now":     true,
	"math":    true,
	"std":     true,
	"table":   true,
	"digest":  true,
	"crypto":  true,
	"uuid":    true,
	"fastly":  true,
	"querystring": true,
}

// Classify walks the tree once and emits a normalized token list: sorted by
// position, one entry per start position, match-operator string operands
// reclassified as regexp.
func Classify(program *vast.Program) []Token {
	if program == nil {
		return nil
	}
	c := classifier{}
	vast.Walk(program, c.visit)
	return Normalize(c.tokens)
}

type classifier struct {
	tokens []Token
}

func (c *classifier) emit(tok vast.Token, class, mods uint32, length int) {
	if tok.Line == 0 {
		return
	}
	c.tokens = append(c.tokens, Token{
		Line:      tok.Line - 1,
		Character: tok.Column - 1,
		Length:    length,
		Class:     class,
		Modifiers: mods,
	})
}

func (c *classifier) keyword(tok vast.Token) {
	c.emit(tok, ClassKeyword, 0, len(tok.Literal))
}

func (c *classifier) visit(n vast.Node) bool {
	switch node := n.(type) {
	case *vast.AclDeclaration:
		c.keyword(node.Tok)
		c.declName(node.Name)
	case *vast.BackendDeclaration:
		c.keyword(node.Tok)
		c.declName(node.Name)
	case *vast.DirectorDeclaration:
		c.keyword(node.Tok)
		c.declName(node.Name)
		if node.DirectorType != nil {
			c.emit(node.DirectorType.Tok, ClassType, 0, len(node.DirectorType.Value))
		}
	case *vast.TableDeclaration:
		c.keyword(node.Tok)
		c.declName(node.Name)
		if node.ValueType != nil {
			c.emit(node.ValueType.Tok, ClassType, 0, len(node.ValueType.Value))
		}
	case *vast.RatecounterDeclaration:
		c.keyword(node.Tok)
		c.declName(node.Name)
	case *vast.PenaltyboxDeclaration:
		c.keyword(node.Tok)
		c.declName(node.Name)
	case *vast.SubroutineDeclaration:
		c.keyword(node.Tok)
		if node.Name != nil {
			c.emit(node.Name.Tok, ClassFunction, ModDeclaration, len(node.Name.Value))
		}
		if node.ReturnType != nil {
			c.emit(node.ReturnType.Tok, ClassType, 0, len(node.ReturnType.Value))
		}
	case *vast.Parameter:
		if node.ValueType != nil {
			c.emit(node.ValueType.Tok, ClassType, 0, len(node.ValueType.Value))
		}
		if node.Name != nil {
			c.emit(node.Name.Tok, ClassParameter, ModDeclaration, len(node.Name.Value))
		}
		// Children already emitted.
		return false
	case *vast.IncludeStatement, *vast.ImportStatement, *vast.ReturnStatement,
		*vast.ErrorStatement, *vast.SyntheticStatement, *vast.LogStatement,
		*vast.RestartStatement, *vast.EsiStatement, *vast.IfStatement,
		*vast.UnsetStatement:
		c.keyword(n.Token())
	case *vast.CallStatement:
		c.keyword(node.Tok)
		if node.Subroutine != nil {
			c.emit(node.Subroutine.Tok, ClassFunction, 0, len(node.Subroutine.Value))
		}
		return false
	case *vast.DeclareStatement:
		c.keyword(node.Tok)
		if node.Name != nil {
			c.emit(node.Name.Tok, ClassVariable, ModDeclaration, len(node.Name.Value))
		}
		if node.ValueType != nil {
			c.emit(node.ValueType.Tok, ClassType, 0, len(node.ValueType.Value))
		}
		return false
	case *vast.SetStatement:
		c.keyword(node.Tok)
		c.operator(node.Operator)
	case *vast.AddStatement:
		c.keyword(node.Tok)
		c.operator(node.Operator)
	case *vast.BackendProperty:
		if node.Key != nil {
			c.emit(node.Key.Tok, ClassProperty, 0, len(node.Key.Value))
		}
	case *vast.DirectorProperty:
		if node.Key != nil {
			c.emit(node.Key.Tok, ClassProperty, 0, len(node.Key.Value))
		}

	case *vast.Ident:
		c.ident(node)
	case *vast.FunctionCallExpression:
		if node.Function != nil {
			mods := uint32(0)
			if isBuiltinPath(node.Function.Value) {
				mods = ModDefaultLibrary
			}
			c.emit(node.Function.Tok, ClassFunction, mods, len(node.Function.Value))
		}
		for _, arg := range node.Arguments {
			vast.Walk(arg, c.visit)
		}
		return false

	case *vast.StringLiteral:
		c.emit(node.Tok, ClassString, 0, literalWidth(node))
	case *vast.IPLiteral:
		// Quoted in source, so the visible span includes the quotes.
		c.emit(node.Tok, ClassString, 0, len(node.Value)+2)
	case *vast.IntegerLiteral:
		c.emit(node.Tok, ClassNumber, 0, len(node.Tok.Literal))
	case *vast.FloatLiteral:
		c.emit(node.Tok, ClassNumber, 0, len(node.Tok.Literal))
	case *vast.RTimeLiteral:
		c.emit(node.Tok, ClassNumber, 0, len(node.Value))
	case *vast.BoolLiteral:
		c.emit(node.Tok, ClassKeyword, 0, len(node.Tok.Literal))

	case *vast.PrefixExpression:
		if node.Tok.Literal == node.Operator {
			c.operator(node.Tok)
		}
	case *vast.InfixExpression:
		// Synthetic concatenation nodes reuse an operand token; only emit
		// the operator span when the token really is the operator.
		if node.Tok.Literal == node.Operator {
			c.operator(node.Tok)
		}
		if node.Operator == "~" || node.Operator == "!~" {
			if lit, ok := node.Right.(*vast.StringLiteral); ok {
				c.emit(lit.Tok, ClassRegexp, 0, literalWidth(lit))
			}
		}
	}
	return true
}

func (c *classifier) declName(name *vast.Ident) {
	if name != nil {
		c.emit(name.Tok, ClassType, ModDeclaration, len(name.Value))
	}
}

func (c *classifier) operator(tok vast.Token) {
	if tok.Literal != "" {
		c.emit(tok, ClassOperator, 0, len(tok.Literal))
	}
}

// ident classifies a bare identifier by naming convention: local variables
// by their var. prefix, engine-provided objects by the builtin registry,
// anything else as a plain variable.
func (c *classifier) ident(node *vast.Ident) {
	mods := uint32(0)
	if isBuiltinPath(node.Value) {
		mods = ModDefaultLibrary
	}
	class := ClassVariable
	if strings.Contains(node.Value, ".http.") {
		class = ClassProperty
	}
	c.emit(node.Tok, class, mods, len(node.Value))
}

func isBuiltinPath(path string) bool {
	root := path
	if i := strings.IndexByte(path, '.'); i >= 0 {
		root = path[:i]
	}
	return builtinObjects[root]
}

// literalWidth is the on-screen width of a string literal's first line:
// logical value plus quote overhead, truncated at the first newline for the
// braced multi-line form so the span never crosses lines.
func literalWidth(lit *vast.StringLiteral) int {
	if i := strings.IndexByte(lit.Value, '\n'); i >= 0 {
		return i + 2 // opening {" only
	}
	return len(lit.Value) + lit.QuoteOverhead()
}
