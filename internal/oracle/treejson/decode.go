// Package treejson decodes the parse-tree JSON emitted by the external VCL
// linter (its --dump-ast output) into the vast node set. The JSON schema is
// the entire contract with the external tool: one object per node with a
// "kind" discriminator, a "token" carrying 1-based line/column, and
// kind-specific node or node-array fields. Nothing else about the tool is
// relied on.
package treejson

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/vcltools/vci/internal/oracle"
	"github.com/vcltools/vci/internal/types"
	"github.com/vcltools/vci/internal/vast"
)

// Dump is the top-level document the external tool emits.
type Dump struct {
	AST         json.RawMessage  `json:"ast"`
	Diagnostics []DiagnosticJSON `json:"diagnostics"`
}

// DiagnosticJSON is one finding in the dump.
type DiagnosticJSON struct {
	Message  string `json:"message"`
	Severity string `json:"severity"`
	Line     int    `json:"line"`     // 1-based
	Column   int    `json:"column"`   // 1-based
	Length   int    `json:"length"`   // literal length
	RuleID   string `json:"rule_id,omitempty"`
}

type nodeJSON struct {
	Kind   string `json:"kind"`
	Token  tokJSON
	Nested bool `json:"nested,omitempty"`

	Name       *nodeJSON   `json:"name,omitempty"`
	Statements []*nodeJSON `json:"statements,omitempty"`
	Entries    []*nodeJSON `json:"entries,omitempty"`
	Properties []*nodeJSON `json:"properties,omitempty"`
	Backends   []*nodeJSON `json:"backends,omitempty"`
	Values     []*nodeJSON `json:"values,omitempty"`
	Parameters []*nodeJSON `json:"parameters,omitempty"`
	Arguments  []*nodeJSON `json:"arguments,omitempty"`

	Block        *nodeJSON `json:"block,omitempty"`
	Consequence  *nodeJSON `json:"consequence,omitempty"`
	Alternative  *nodeJSON `json:"alternative,omitempty"`
	Alternatives []*nodeJSON `json:"alternatives,omitempty"`
	Condition    *nodeJSON `json:"condition,omitempty"`
	Left         *nodeJSON `json:"left,omitempty"`
	Right        *nodeJSON `json:"right,omitempty"`
	Value        *nodeJSON `json:"value,omitempty"`
	Key          *nodeJSON `json:"key,omitempty"`
	Code         *nodeJSON `json:"code,omitempty"`
	Argument     *nodeJSON `json:"argument,omitempty"`
	Module       *nodeJSON `json:"module,omitempty"`
	Subroutine   *nodeJSON `json:"subroutine,omitempty"`
	Ident        *nodeJSON `json:"ident,omitempty"`
	Function     *nodeJSON `json:"function,omitempty"`
	ValueType    *nodeJSON `json:"value_type,omitempty"`
	ReturnType   *nodeJSON `json:"return_type,omitempty"`
	DirectorType *nodeJSON `json:"director_type,omitempty"`
	IP           *nodeJSON `json:"ip,omitempty"`
	Mask         *nodeJSON `json:"mask,omitempty"`

	Operator string   `json:"operator,omitempty"`
	Inverse  bool     `json:"inverse,omitempty"`
	Long     bool     `json:"long,omitempty"`
	EndToken *tokJSON `json:"end_token,omitempty"`
}

type tokJSON struct {
	Type    string `json:"type"`
	Literal string `json:"literal"`
	Line    int    `json:"line"`
	Column  int    `json:"column"`
	Offset  int    `json:"offset"`
}

func (t tokJSON) token() vast.Token {
	return vast.Token{Type: t.Type, Literal: t.Literal, Line: t.Line, Column: t.Column, Offset: t.Offset}
}

// Decoder implements oracle.Oracle over a pre-produced JSON dump. The src
// bytes passed to Parse are the dump itself, not VCL source.
type Decoder struct{}

// New returns a dump decoder.
func New() *Decoder {
	return &Decoder{}
}

// Parse implements oracle.Oracle.
func (d *Decoder) Parse(ctx context.Context, src []byte, opts oracle.ParseOptions) (*oracle.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Decode(src)
}

// Decode converts one dump into an oracle result. A missing or null "ast"
// field yields a nil Program; malformed node structure is an error (the
// schema contract is broken, not the source document).
func Decode(data []byte) (*oracle.Result, error) {
	var dump Dump
	if err := json.Unmarshal(data, &dump); err != nil {
		return nil, fmt.Errorf("malformed tree dump: %w", err)
	}

	res := &oracle.Result{}
	for _, dj := range dump.Diagnostics {
		res.Diagnostics = append(res.Diagnostics, types.Diagnostic{
			Message:  dj.Message,
			Severity: severity(dj.Severity),
			Span:     types.Span{Line: dj.Line - 1, Character: dj.Column - 1, Length: dj.Length},
			RuleID:   dj.RuleID,
		})
	}

	if len(dump.AST) == 0 || string(dump.AST) == "null" {
		return res, nil
	}

	var root nodeJSON
	if err := json.Unmarshal(dump.AST, &root); err != nil {
		return nil, fmt.Errorf("malformed ast node: %w", err)
	}
	node, err := decodeNode(&root)
	if err != nil {
		return nil, err
	}
	program, ok := node.(*vast.Program)
	if !ok {
		return nil, fmt.Errorf("dump root is %s, want Program", node.Kind())
	}
	res.Program = program
	return res, nil
}

func severity(s string) types.DiagnosticSeverity {
	switch s {
	case "warning":
		return types.SeverityWarning
	case "info":
		return types.SeverityInfo
	}
	return types.SeverityError
}

func decodeNode(j *nodeJSON) (vast.Node, error) {
	if j == nil {
		return nil, nil
	}
	tok := j.Token.token()

	switch j.Kind {
	case "Program":
		p := &vast.Program{Tok: tok}
		stmts, err := decodeStatements(j.Statements)
		if err != nil {
			return nil, err
		}
		p.Statements = stmts
		return p, nil

	case "AclDeclaration":
		d := &vast.AclDeclaration{Tok: tok, End: endToken(j)}
		if err := assign(&d.Name, j.Name); err != nil {
			return nil, err
		}
		for _, ej := range j.Entries {
			var e *vast.AclEntry
			if err := assign(&e, ej); err != nil {
				return nil, err
			}
			d.Entries = append(d.Entries, e)
		}
		return d, nil
	case "AclEntry":
		e := &vast.AclEntry{Tok: tok, Inverse: j.Inverse}
		if err := assign(&e.IP, j.IP); err != nil {
			return nil, err
		}
		if err := assign(&e.Mask, j.Mask); err != nil {
			return nil, err
		}
		return e, nil

	case "BackendDeclaration":
		d := &vast.BackendDeclaration{Tok: tok, End: endToken(j)}
		if err := assign(&d.Name, j.Name); err != nil {
			return nil, err
		}
		for _, pj := range j.Properties {
			var p *vast.BackendProperty
			if err := assign(&p, pj); err != nil {
				return nil, err
			}
			d.Properties = append(d.Properties, p)
		}
		return d, nil
	case "BackendProperty":
		p := &vast.BackendProperty{Tok: tok}
		if err := assign(&p.Key, j.Key); err != nil {
			return nil, err
		}
		v, err := decodeExpression(j.Value)
		if err != nil {
			return nil, err
		}
		p.Value = v
		return p, nil
	case "BackendObject":
		o := &vast.BackendObject{Tok: tok, End: endToken(j)}
		for _, pj := range j.Values {
			var p *vast.BackendProperty
			if err := assign(&p, pj); err != nil {
				return nil, err
			}
			o.Values = append(o.Values, p)
		}
		return o, nil

	case "DirectorDeclaration":
		d := &vast.DirectorDeclaration{Tok: tok, End: endToken(j)}
		if err := assign(&d.Name, j.Name); err != nil {
			return nil, err
		}
		if err := assign(&d.DirectorType, j.DirectorType); err != nil {
			return nil, err
		}
		for _, pj := range j.Properties {
			var p *vast.DirectorProperty
			if err := assign(&p, pj); err != nil {
				return nil, err
			}
			d.Properties = append(d.Properties, p)
		}
		for _, bj := range j.Backends {
			var b *vast.DirectorBackend
			if err := assign(&b, bj); err != nil {
				return nil, err
			}
			d.Backends = append(d.Backends, b)
		}
		return d, nil
	case "DirectorProperty":
		p := &vast.DirectorProperty{Tok: tok}
		if err := assign(&p.Key, j.Key); err != nil {
			return nil, err
		}
		v, err := decodeExpression(j.Value)
		if err != nil {
			return nil, err
		}
		p.Value = v
		return p, nil
	case "DirectorBackend":
		b := &vast.DirectorBackend{Tok: tok, End: endToken(j)}
		for _, pj := range j.Values {
			var p *vast.DirectorProperty
			if err := assign(&p, pj); err != nil {
				return nil, err
			}
			b.Values = append(b.Values, p)
		}
		return b, nil

	case "TableDeclaration":
		d := &vast.TableDeclaration{Tok: tok, End: endToken(j)}
		if err := assign(&d.Name, j.Name); err != nil {
			return nil, err
		}
		if err := assign(&d.ValueType, j.ValueType); err != nil {
			return nil, err
		}
		for _, ej := range j.Entries {
			var e *vast.TableEntry
			if err := assign(&e, ej); err != nil {
				return nil, err
			}
			d.Entries = append(d.Entries, e)
		}
		return d, nil
	case "TableEntry":
		e := &vast.TableEntry{Tok: tok}
		if err := assign(&e.Key, j.Key); err != nil {
			return nil, err
		}
		v, err := decodeExpression(j.Value)
		if err != nil {
			return nil, err
		}
		e.Value = v
		return e, nil

	case "SubroutineDeclaration":
		d := &vast.SubroutineDeclaration{Tok: tok, Nested: j.Nested}
		if err := assign(&d.Name, j.Name); err != nil {
			return nil, err
		}
		if err := assign(&d.ReturnType, j.ReturnType); err != nil {
			return nil, err
		}
		for _, pj := range j.Parameters {
			var p *vast.Parameter
			if err := assign(&p, pj); err != nil {
				return nil, err
			}
			d.Parameters = append(d.Parameters, p)
		}
		if err := assign(&d.Block, j.Block); err != nil {
			return nil, err
		}
		return d, nil
	case "Parameter":
		p := &vast.Parameter{Tok: tok}
		if err := assign(&p.Name, j.Name); err != nil {
			return nil, err
		}
		if err := assign(&p.ValueType, j.ValueType); err != nil {
			return nil, err
		}
		return p, nil

	case "RatecounterDeclaration":
		d := &vast.RatecounterDeclaration{Tok: tok, End: endToken(j)}
		if err := assign(&d.Name, j.Name); err != nil {
			return nil, err
		}
		return d, nil
	case "PenaltyboxDeclaration":
		d := &vast.PenaltyboxDeclaration{Tok: tok, End: endToken(j)}
		if err := assign(&d.Name, j.Name); err != nil {
			return nil, err
		}
		return d, nil
	case "IncludeStatement":
		st := &vast.IncludeStatement{Tok: tok}
		if err := assign(&st.Module, j.Module); err != nil {
			return nil, err
		}
		return st, nil
	case "ImportStatement":
		st := &vast.ImportStatement{Tok: tok}
		if err := assign(&st.Name, j.Name); err != nil {
			return nil, err
		}
		return st, nil

	case "BlockStatement":
		b := &vast.BlockStatement{Tok: tok, End: endToken(j)}
		stmts, err := decodeStatements(j.Statements)
		if err != nil {
			return nil, err
		}
		b.Statements = stmts
		return b, nil
	case "DeclareStatement":
		st := &vast.DeclareStatement{Tok: tok}
		if err := assign(&st.Name, j.Name); err != nil {
			return nil, err
		}
		if err := assign(&st.ValueType, j.ValueType); err != nil {
			return nil, err
		}
		return st, nil
	case "SetStatement":
		st := &vast.SetStatement{Tok: tok, Operator: vast.Token{Type: "=", Literal: j.Operator}}
		if err := assign(&st.Ident, j.Ident); err != nil {
			return nil, err
		}
		v, err := decodeExpression(j.Value)
		if err != nil {
			return nil, err
		}
		st.Value = v
		return st, nil
	case "AddStatement":
		st := &vast.AddStatement{Tok: tok, Operator: vast.Token{Type: "=", Literal: j.Operator}}
		if err := assign(&st.Ident, j.Ident); err != nil {
			return nil, err
		}
		v, err := decodeExpression(j.Value)
		if err != nil {
			return nil, err
		}
		st.Value = v
		return st, nil
	case "UnsetStatement":
		st := &vast.UnsetStatement{Tok: tok}
		if err := assign(&st.Ident, j.Ident); err != nil {
			return nil, err
		}
		return st, nil
	case "CallStatement":
		st := &vast.CallStatement{Tok: tok}
		if err := assign(&st.Subroutine, j.Subroutine); err != nil {
			return nil, err
		}
		return st, nil
	case "IfStatement":
		st := &vast.IfStatement{Tok: tok}
		cond, err := decodeExpression(j.Condition)
		if err != nil {
			return nil, err
		}
		st.Condition = cond
		if err := assign(&st.Consequence, j.Consequence); err != nil {
			return nil, err
		}
		for _, aj := range j.Alternatives {
			var alt *vast.IfStatement
			if err := assign(&alt, aj); err != nil {
				return nil, err
			}
			st.Alternatives = append(st.Alternatives, alt)
		}
		if err := assign(&st.Alternative, j.Alternative); err != nil {
			return nil, err
		}
		return st, nil
	case "ReturnStatement":
		st := &vast.ReturnStatement{Tok: tok}
		v, err := decodeExpression(j.Value)
		if err != nil {
			return nil, err
		}
		st.Value = v
		return st, nil
	case "ErrorStatement":
		st := &vast.ErrorStatement{Tok: tok}
		code, err := decodeExpression(j.Code)
		if err != nil {
			return nil, err
		}
		st.Code = code
		arg, err := decodeExpression(j.Argument)
		if err != nil {
			return nil, err
		}
		st.Argument = arg
		return st, nil
	case "SyntheticStatement":
		st := &vast.SyntheticStatement{Tok: tok}
		v, err := decodeExpression(j.Value)
		if err != nil {
			return nil, err
		}
		st.Value = v
		return st, nil
	case "LogStatement":
		st := &vast.LogStatement{Tok: tok}
		v, err := decodeExpression(j.Value)
		if err != nil {
			return nil, err
		}
		st.Value = v
		return st, nil
	case "RestartStatement":
		return &vast.RestartStatement{Tok: tok}, nil
	case "EsiStatement":
		return &vast.EsiStatement{Tok: tok}, nil

	case "Ident":
		return &vast.Ident{Tok: tok, Value: tok.Literal}, nil
	case "StringLiteral":
		return &vast.StringLiteral{Tok: tok, Value: tok.Literal, LongString: j.Long}, nil
	case "IntegerLiteral":
		var n int64
		fmt.Sscanf(tok.Literal, "%d", &n)
		return &vast.IntegerLiteral{Tok: tok, Value: n}, nil
	case "FloatLiteral":
		var f float64
		fmt.Sscanf(tok.Literal, "%g", &f)
		return &vast.FloatLiteral{Tok: tok, Value: f}, nil
	case "BoolLiteral":
		return &vast.BoolLiteral{Tok: tok, Value: tok.Literal == "true"}, nil
	case "RTimeLiteral":
		return &vast.RTimeLiteral{Tok: tok, Value: tok.Literal}, nil
	case "IPLiteral":
		return &vast.IPLiteral{Tok: tok, Value: tok.Literal}, nil
	case "PrefixExpression":
		e := &vast.PrefixExpression{Tok: tok, Operator: j.Operator}
		r, err := decodeExpression(j.Right)
		if err != nil {
			return nil, err
		}
		e.Right = r
		return e, nil
	case "InfixExpression":
		e := &vast.InfixExpression{Tok: tok, Operator: j.Operator}
		l, err := decodeExpression(j.Left)
		if err != nil {
			return nil, err
		}
		r, err := decodeExpression(j.Right)
		if err != nil {
			return nil, err
		}
		e.Left, e.Right = l, r
		return e, nil
	case "GroupedExpression":
		e := &vast.GroupedExpression{Tok: tok}
		r, err := decodeExpression(j.Right)
		if err != nil {
			return nil, err
		}
		e.Right = r
		return e, nil
	case "FunctionCallExpression":
		e := &vast.FunctionCallExpression{Tok: tok}
		if err := assign(&e.Function, j.Function); err != nil {
			return nil, err
		}
		for _, aj := range j.Arguments {
			a, err := decodeExpression(aj)
			if err != nil {
				return nil, err
			}
			e.Arguments = append(e.Arguments, a)
		}
		return e, nil
	}

	return nil, fmt.Errorf("unknown node kind %q", j.Kind)
}

func endToken(j *nodeJSON) vast.Token {
	if j.EndToken == nil {
		return vast.Token{}
	}
	return j.EndToken.token()
}

// assign decodes j and stores it into the typed target, failing when the
// dump's kind does not match the field's expected variant.
func assign[T vast.Node](target *T, j *nodeJSON) error {
	if j == nil {
		return nil
	}
	n, err := decodeNode(j)
	if err != nil {
		return err
	}
	typed, ok := n.(T)
	if !ok {
		return fmt.Errorf("unexpected %s node in %T field", n.Kind(), *target)
	}
	*target = typed
	return nil
}

func decodeExpression(j *nodeJSON) (vast.Expression, error) {
	if j == nil {
		return nil, nil
	}
	n, err := decodeNode(j)
	if err != nil {
		return nil, err
	}
	expr, ok := n.(vast.Expression)
	if !ok {
		return nil, fmt.Errorf("node %s is not an expression", n.Kind())
	}
	return expr, nil
}

func decodeStatements(js []*nodeJSON) ([]vast.Statement, error) {
	var stmts []vast.Statement
	for _, sj := range js {
		n, err := decodeNode(sj)
		if err != nil {
			return nil, err
		}
		stmt, ok := n.(vast.Statement)
		if !ok {
			return nil, fmt.Errorf("node %s is not a statement", n.Kind())
		}
		stmts = append(stmts, stmt)
	}
	return stmts, nil
}
