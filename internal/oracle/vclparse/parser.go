package vclparse

import (
	"context"
	"fmt"
	"strconv"

	"github.com/vcltools/vci/internal/oracle"
	"github.com/vcltools/vci/internal/types"
	"github.com/vcltools/vci/internal/vast"
)

// Parser is the in-process oracle implementation. Zero value is not usable;
// construct with New.
type Parser struct{}

// New returns a ready-to-use parser. The parser is stateless and safe for
// concurrent use; per-parse state lives in the session struct.
func New() *Parser {
	return &Parser{}
}

// Parse implements oracle.Oracle. A document with any syntax error yields a
// nil Program plus error diagnostics; consumers then treat it as
// symbol-free, matching the external tool's unrecoverable-error behavior.
func (p *Parser) Parse(ctx context.Context, src []byte, opts oracle.ParseOptions) (*oracle.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := &session{lex: newLexer(src)}
	program := s.parseProgram()

	res := &oracle.Result{Diagnostics: s.diags}
	if !s.errored {
		res.Program = program
	}
	return res, nil
}

type session struct {
	lex     *lexer
	diags   []types.Diagnostic
	errored bool
}

func (s *session) errorf(tok vast.Token, format string, args ...interface{}) {
	s.errored = true
	s.diags = append(s.diags, types.Diagnostic{
		Message:  fmt.Sprintf(format, args...),
		Severity: types.SeverityError,
		Span:     tok.Span(),
		RuleID:   "syntax",
	})
}

// expect consumes the next token and checks its type (punctuation tokens use
// their literal as type). On mismatch it records a diagnostic and reports
// failure; the caller decides how to resync.
func (s *session) expect(typ string) (vast.Token, bool) {
	tok := s.lex.next()
	if tok.Type != typ {
		s.errorf(tok, "expected %q, found %q", typ, tok.Literal)
		return tok, false
	}
	return tok, true
}

func (s *session) expectIdent() (*vast.Ident, bool) {
	tok, ok := s.expect(vast.TokenIdent)
	if !ok {
		return nil, false
	}
	return &vast.Ident{Tok: tok, Value: tok.Literal}, true
}

// resyncTop skips tokens until the next plausible top-level declaration
// keyword, keeping one bad declaration from consuming the rest of the file's
// diagnostics.
func (s *session) resyncTop() {
	for {
		tok := s.lex.peek()
		if tok.Type == tokenEOF {
			return
		}
		if tok.Type == vast.TokenIdent {
			switch tok.Literal {
			case "acl", "backend", "director", "table", "sub",
				"ratecounter", "penaltybox", "include", "import":
				return
			}
		}
		s.lex.next()
	}
}

// resyncStmt skips to just past the next ';' or up to the next '}'.
func (s *session) resyncStmt() {
	for {
		tok := s.lex.peek()
		switch tok.Type {
		case tokenEOF, "}":
			return
		case ";":
			s.lex.next()
			return
		}
		s.lex.next()
	}
}

func (s *session) parseProgram() *vast.Program {
	program := &vast.Program{Tok: s.lex.peek()}
	for {
		tok := s.lex.peek()
		if tok.Type == tokenEOF {
			return program
		}
		stmt := s.parseDeclaration()
		if stmt == nil {
			s.resyncTop()
			continue
		}
		program.Statements = append(program.Statements, stmt)
	}
}

func (s *session) parseDeclaration() vast.Statement {
	tok := s.lex.peek()
	if tok.Type != vast.TokenIdent {
		s.errorf(tok, "expected declaration, found %q", tok.Literal)
		s.lex.next()
		return nil
	}
	switch tok.Literal {
	case "acl":
		return s.parseAcl()
	case "backend":
		return s.parseBackend()
	case "director":
		return s.parseDirector()
	case "table":
		return s.parseTable()
	case "sub":
		return s.parseSubroutine(false)
	case "ratecounter":
		return s.parseRatecounter()
	case "penaltybox":
		return s.parsePenaltybox()
	case "include":
		return s.parseInclude()
	case "import":
		return s.parseImport()
	}
	s.errorf(tok, "unknown declaration %q", tok.Literal)
	s.lex.next()
	return nil
}

func (s *session) parseAcl() vast.Statement {
	decl := &vast.AclDeclaration{Tok: s.lex.next()}
	name, ok := s.expectIdent()
	if !ok {
		return nil
	}
	decl.Name = name
	if _, ok := s.expect("{"); !ok {
		return nil
	}
	for {
		tok := s.lex.peek()
		if tok.Type == "}" || tok.Type == tokenEOF {
			break
		}
		entry := s.parseAclEntry()
		if entry == nil {
			s.resyncStmt()
			continue
		}
		decl.Entries = append(decl.Entries, entry)
	}
	end, ok := s.expect("}")
	if !ok {
		return nil
	}
	decl.End = end
	return decl
}

func (s *session) parseAclEntry() *vast.AclEntry {
	entry := &vast.AclEntry{Tok: s.lex.peek()}
	if tok := s.lex.peek(); tok.Type == vast.TokenOp && tok.Literal == "!" {
		entry.Inverse = true
		s.lex.next()
	}
	ip, ok := s.expect(vast.TokenString)
	if !ok {
		return nil
	}
	entry.IP = &vast.IPLiteral{Tok: ip, Value: ip.Literal}
	if tok := s.lex.peek(); tok.Type == vast.TokenOp && tok.Literal == "/" {
		s.lex.next()
		mask, ok := s.expect(vast.TokenInt)
		if !ok {
			return nil
		}
		n, _ := strconv.ParseInt(mask.Literal, 10, 64)
		entry.Mask = &vast.IntegerLiteral{Tok: mask, Value: n}
	}
	if _, ok := s.expect(";"); !ok {
		return nil
	}
	return entry
}

func (s *session) parseBackend() vast.Statement {
	decl := &vast.BackendDeclaration{Tok: s.lex.next()}
	name, ok := s.expectIdent()
	if !ok {
		return nil
	}
	decl.Name = name
	props, end, ok := s.parsePropertyBlock()
	if !ok {
		return nil
	}
	decl.Properties = props
	decl.End = end
	return decl
}

// parsePropertyBlock parses "{ .key = value; ... }" shared by backends and
// probe objects.
func (s *session) parsePropertyBlock() ([]*vast.BackendProperty, vast.Token, bool) {
	if _, ok := s.expect("{"); !ok {
		return nil, vast.Token{}, false
	}
	var props []*vast.BackendProperty
	for {
		tok := s.lex.peek()
		if tok.Type == "}" || tok.Type == tokenEOF {
			break
		}
		prop := s.parseBackendProperty()
		if prop == nil {
			s.resyncStmt()
			continue
		}
		props = append(props, prop)
	}
	end, ok := s.expect("}")
	if !ok {
		return nil, vast.Token{}, false
	}
	return props, end, true
}

func (s *session) parseBackendProperty() *vast.BackendProperty {
	dot, ok := s.expect(".")
	if !ok {
		return nil
	}
	prop := &vast.BackendProperty{Tok: dot}
	key, ok := s.expectIdent()
	if !ok {
		return nil
	}
	prop.Key = key
	if _, ok := s.expect("="); !ok {
		return nil
	}
	if s.lex.peek().Type == "{" {
		open := s.lex.peek()
		values, end, ok := s.parsePropertyBlock()
		if !ok {
			return nil
		}
		prop.Value = &vast.BackendObject{Tok: open, Values: values, End: end}
		// Nested objects are not semicolon-terminated in all dialects;
		// accept either form.
		if s.lex.peek().Type == ";" {
			s.lex.next()
		}
		return prop
	}
	value := s.parseConcat()
	if value == nil {
		return nil
	}
	prop.Value = value
	if _, ok := s.expect(";"); !ok {
		return nil
	}
	return prop
}

func (s *session) parseDirector() vast.Statement {
	decl := &vast.DirectorDeclaration{Tok: s.lex.next()}
	name, ok := s.expectIdent()
	if !ok {
		return nil
	}
	decl.Name = name
	dtype, ok := s.expectIdent()
	if !ok {
		return nil
	}
	decl.DirectorType = dtype
	if _, ok := s.expect("{"); !ok {
		return nil
	}
	for {
		tok := s.lex.peek()
		if tok.Type == "}" || tok.Type == tokenEOF {
			break
		}
		if tok.Type == "{" {
			member := s.parseDirectorBackend()
			if member == nil {
				s.resyncStmt()
				continue
			}
			decl.Backends = append(decl.Backends, member)
			continue
		}
		prop := s.parseDirectorProperty()
		if prop == nil {
			s.resyncStmt()
			continue
		}
		decl.Properties = append(decl.Properties, prop)
	}
	end, ok := s.expect("}")
	if !ok {
		return nil
	}
	decl.End = end
	return decl
}

func (s *session) parseDirectorProperty() *vast.DirectorProperty {
	dot, ok := s.expect(".")
	if !ok {
		return nil
	}
	prop := &vast.DirectorProperty{Tok: dot}
	key, ok := s.expectIdent()
	if !ok {
		return nil
	}
	prop.Key = key
	if _, ok := s.expect("="); !ok {
		return nil
	}
	value := s.parseExpression(0)
	if value == nil {
		return nil
	}
	prop.Value = value
	if s.lex.peek().Type == tokenPercent {
		s.lex.next()
	}
	if _, ok := s.expect(";"); !ok {
		return nil
	}
	return prop
}

func (s *session) parseDirectorBackend() *vast.DirectorBackend {
	member := &vast.DirectorBackend{Tok: s.lex.next()} // {
	for {
		tok := s.lex.peek()
		if tok.Type == "}" || tok.Type == tokenEOF {
			break
		}
		prop := s.parseDirectorProperty()
		if prop == nil {
			s.resyncStmt()
			continue
		}
		member.Values = append(member.Values, prop)
	}
	end, ok := s.expect("}")
	if !ok {
		return nil
	}
	member.End = end
	return member
}

func (s *session) parseTable() vast.Statement {
	decl := &vast.TableDeclaration{Tok: s.lex.next()}
	name, ok := s.expectIdent()
	if !ok {
		return nil
	}
	decl.Name = name
	if s.lex.peek().Type == vast.TokenIdent {
		vt, _ := s.expectIdent()
		decl.ValueType = vt
	}
	if _, ok := s.expect("{"); !ok {
		return nil
	}
	for {
		tok := s.lex.peek()
		if tok.Type == "}" || tok.Type == tokenEOF {
			break
		}
		entry := s.parseTableEntry()
		if entry == nil {
			s.resyncStmt()
			continue
		}
		decl.Entries = append(decl.Entries, entry)
		if s.lex.peek().Type == "," {
			s.lex.next()
		}
	}
	end, ok := s.expect("}")
	if !ok {
		return nil
	}
	decl.End = end
	return decl
}

func (s *session) parseTableEntry() *vast.TableEntry {
	keyTok := s.lex.next()
	if keyTok.Type != vast.TokenString && keyTok.Type != tokenLongString {
		s.errorf(keyTok, "expected table key string, found %q", keyTok.Literal)
		return nil
	}
	entry := &vast.TableEntry{
		Tok: keyTok,
		Key: &vast.StringLiteral{Tok: keyTok, Value: keyTok.Literal, LongString: keyTok.Type == tokenLongString},
	}
	if _, ok := s.expect(":"); !ok {
		return nil
	}
	value := s.parseExpression(0)
	if value == nil {
		return nil
	}
	entry.Value = value
	return entry
}

func (s *session) parseSubroutine(nested bool) vast.Statement {
	decl := &vast.SubroutineDeclaration{Tok: s.lex.next(), Nested: nested}
	name, ok := s.expectIdent()
	if !ok {
		return nil
	}
	decl.Name = name

	if s.lex.peek().Type == "(" {
		params, ok := s.parseParameters()
		if !ok {
			return nil
		}
		decl.Parameters = params
	}
	if s.lex.peek().Type == vast.TokenIdent {
		// Functional subroutine return type: sub foo STRING { ... }
		rt, _ := s.expectIdent()
		decl.ReturnType = rt
	}

	block := s.parseBlock()
	if block == nil {
		return nil
	}
	decl.Block = block
	return decl
}

func (s *session) parseParameters() ([]*vast.Parameter, bool) {
	s.lex.next() // (
	var params []*vast.Parameter
	for {
		tok := s.lex.peek()
		if tok.Type == ")" || tok.Type == tokenEOF {
			break
		}
		ptok := tok
		vt, ok := s.expectIdent()
		if !ok {
			return nil, false
		}
		name, ok := s.expectIdent()
		if !ok {
			return nil, false
		}
		params = append(params, &vast.Parameter{Tok: ptok, Name: name, ValueType: vt})
		if s.lex.peek().Type == "," {
			s.lex.next()
		}
	}
	if _, ok := s.expect(")"); !ok {
		return nil, false
	}
	return params, true
}

func (s *session) parseRatecounter() vast.Statement {
	decl := &vast.RatecounterDeclaration{Tok: s.lex.next()}
	name, ok := s.expectIdent()
	if !ok {
		return nil
	}
	decl.Name = name
	end, ok := s.skipBalancedBlock()
	if !ok {
		return nil
	}
	decl.End = end
	return decl
}

func (s *session) parsePenaltybox() vast.Statement {
	decl := &vast.PenaltyboxDeclaration{Tok: s.lex.next()}
	name, ok := s.expectIdent()
	if !ok {
		return nil
	}
	decl.Name = name
	end, ok := s.skipBalancedBlock()
	if !ok {
		return nil
	}
	decl.End = end
	return decl
}

// skipBalancedBlock consumes "{ ... }" without interpreting the contents,
// returning the closing brace. Ratecounter and penaltybox bodies are empty
// today; tolerating unknown contents keeps us forward-compatible.
func (s *session) skipBalancedBlock() (vast.Token, bool) {
	if _, ok := s.expect("{"); !ok {
		return vast.Token{}, false
	}
	depth := 1
	for {
		tok := s.lex.next()
		switch tok.Type {
		case tokenEOF:
			s.errorf(tok, "unterminated block")
			return vast.Token{}, false
		case "{":
			depth++
		case "}":
			depth--
			if depth == 0 {
				return tok, true
			}
		}
	}
}

func (s *session) parseInclude() vast.Statement {
	stmt := &vast.IncludeStatement{Tok: s.lex.next()}
	mod := s.lex.next()
	if mod.Type != vast.TokenString && mod.Type != tokenLongString {
		s.errorf(mod, "expected include module string, found %q", mod.Literal)
		return nil
	}
	stmt.Module = &vast.StringLiteral{Tok: mod, Value: mod.Literal, LongString: mod.Type == tokenLongString}
	if _, ok := s.expect(";"); !ok {
		return nil
	}
	return stmt
}

func (s *session) parseImport() vast.Statement {
	stmt := &vast.ImportStatement{Tok: s.lex.next()}
	name, ok := s.expectIdent()
	if !ok {
		return nil
	}
	stmt.Name = name
	if _, ok := s.expect(";"); !ok {
		return nil
	}
	return stmt
}

// --- Statements -------------------------------------------------------------

func (s *session) parseBlock() *vast.BlockStatement {
	open, ok := s.expect("{")
	if !ok {
		return nil
	}
	block := &vast.BlockStatement{Tok: open}
	for {
		tok := s.lex.peek()
		if tok.Type == "}" || tok.Type == tokenEOF {
			break
		}
		stmt := s.parseStatement()
		if stmt == nil {
			s.resyncStmt()
			continue
		}
		block.Statements = append(block.Statements, stmt)
	}
	end, ok := s.expect("}")
	if !ok {
		return nil
	}
	block.End = end
	return block
}

func (s *session) parseStatement() vast.Statement {
	tok := s.lex.peek()
	if tok.Type == "{" {
		return s.parseBlock()
	}
	if tok.Type != vast.TokenIdent {
		s.errorf(tok, "expected statement, found %q", tok.Literal)
		s.lex.next()
		return nil
	}

	switch tok.Literal {
	case "declare":
		return s.parseDeclare()
	case "set":
		return s.parseSet()
	case "add":
		return s.parseAdd()
	case "unset", "remove":
		return s.parseUnset()
	case "call":
		return s.parseCall()
	case "if":
		return s.parseIf()
	case "return":
		return s.parseReturn()
	case "error":
		return s.parseError()
	case "synthetic":
		return s.parseSynthetic()
	case "log":
		return s.parseLog()
	case "restart":
		stmt := &vast.RestartStatement{Tok: s.lex.next()}
		if _, ok := s.expect(";"); !ok {
			return nil
		}
		return stmt
	case "esi":
		stmt := &vast.EsiStatement{Tok: s.lex.next()}
		if _, ok := s.expect(";"); !ok {
			return nil
		}
		return stmt
	case "include":
		return s.parseInclude()
	case "sub":
		return s.parseSubroutine(true)
	}

	s.errorf(tok, "unknown statement %q", tok.Literal)
	s.lex.next()
	return nil
}

func (s *session) parseDeclare() vast.Statement {
	stmt := &vast.DeclareStatement{Tok: s.lex.next()}
	scopeTok, ok := s.expect(vast.TokenIdent)
	if !ok {
		return nil
	}
	if scopeTok.Literal != "local" {
		s.errorf(scopeTok, "expected \"local\", found %q", scopeTok.Literal)
		return nil
	}
	name, ok := s.expectIdent()
	if !ok {
		return nil
	}
	stmt.Name = name
	vt, ok := s.expectIdent()
	if !ok {
		return nil
	}
	stmt.ValueType = vt
	if _, ok := s.expect(";"); !ok {
		return nil
	}
	return stmt
}

func (s *session) parseSet() vast.Statement {
	stmt := &vast.SetStatement{Tok: s.lex.next()}
	target, ok := s.expectIdent()
	if !ok {
		return nil
	}
	stmt.Ident = target
	op, ok := s.expect("=")
	if !ok {
		return nil
	}
	stmt.Operator = op
	value := s.parseConcat()
	if value == nil {
		return nil
	}
	stmt.Value = value
	if _, ok := s.expect(";"); !ok {
		return nil
	}
	return stmt
}

func (s *session) parseAdd() vast.Statement {
	stmt := &vast.AddStatement{Tok: s.lex.next()}
	target, ok := s.expectIdent()
	if !ok {
		return nil
	}
	stmt.Ident = target
	op, ok := s.expect("=")
	if !ok {
		return nil
	}
	stmt.Operator = op
	value := s.parseConcat()
	if value == nil {
		return nil
	}
	stmt.Value = value
	if _, ok := s.expect(";"); !ok {
		return nil
	}
	return stmt
}

func (s *session) parseUnset() vast.Statement {
	stmt := &vast.UnsetStatement{Tok: s.lex.next()}
	target, ok := s.expectIdent()
	if !ok {
		return nil
	}
	stmt.Ident = target
	if _, ok := s.expect(";"); !ok {
		return nil
	}
	return stmt
}

func (s *session) parseCall() vast.Statement {
	stmt := &vast.CallStatement{Tok: s.lex.next()}
	name, ok := s.expectIdent()
	if !ok {
		return nil
	}
	stmt.Subroutine = name
	if _, ok := s.expect(";"); !ok {
		return nil
	}
	return stmt
}

func (s *session) parseIf() vast.Statement {
	stmt := &vast.IfStatement{Tok: s.lex.next()}
	if _, ok := s.expect("("); !ok {
		return nil
	}
	cond := s.parseExpression(0)
	if cond == nil {
		return nil
	}
	stmt.Condition = cond
	if _, ok := s.expect(")"); !ok {
		return nil
	}
	block := s.parseBlock()
	if block == nil {
		return nil
	}
	stmt.Consequence = block

	for {
		tok := s.lex.peek()
		if tok.Type != vast.TokenIdent {
			break
		}
		switch tok.Literal {
		case "elsif", "elseif":
			alt := s.parseElsif(s.lex.next())
			if alt == nil {
				return nil
			}
			stmt.Alternatives = append(stmt.Alternatives, alt)
		case "else":
			elseTok := s.lex.next()
			if next := s.lex.peek(); next.Type == vast.TokenIdent && next.Literal == "if" {
				s.lex.next()
				alt := s.parseElsif(elseTok)
				if alt == nil {
					return nil
				}
				stmt.Alternatives = append(stmt.Alternatives, alt)
				continue
			}
			block := s.parseBlock()
			if block == nil {
				return nil
			}
			stmt.Alternative = block
			return stmt
		default:
			return stmt
		}
	}
	return stmt
}

func (s *session) parseElsif(tok vast.Token) *vast.IfStatement {
	alt := &vast.IfStatement{Tok: tok}
	if _, ok := s.expect("("); !ok {
		return nil
	}
	cond := s.parseExpression(0)
	if cond == nil {
		return nil
	}
	alt.Condition = cond
	if _, ok := s.expect(")"); !ok {
		return nil
	}
	block := s.parseBlock()
	if block == nil {
		return nil
	}
	alt.Consequence = block
	return alt
}

func (s *session) parseReturn() vast.Statement {
	stmt := &vast.ReturnStatement{Tok: s.lex.next()}
	if s.lex.peek().Type == ";" {
		s.lex.next()
		return stmt
	}
	value := s.parseConcat()
	if value == nil {
		return nil
	}
	stmt.Value = value
	if _, ok := s.expect(";"); !ok {
		return nil
	}
	return stmt
}

func (s *session) parseError() vast.Statement {
	stmt := &vast.ErrorStatement{Tok: s.lex.next()}
	if s.lex.peek().Type == ";" {
		s.lex.next()
		return stmt
	}
	code := s.parseExpression(0)
	if code == nil {
		return nil
	}
	stmt.Code = code
	if s.lex.peek().Type != ";" {
		arg := s.parseConcat()
		if arg == nil {
			return nil
		}
		stmt.Argument = arg
	}
	if _, ok := s.expect(";"); !ok {
		return nil
	}
	return stmt
}

func (s *session) parseSynthetic() vast.Statement {
	stmt := &vast.SyntheticStatement{Tok: s.lex.next()}
	value := s.parseConcat()
	if value == nil {
		return nil
	}
	stmt.Value = value
	if _, ok := s.expect(";"); !ok {
		return nil
	}
	return stmt
}

func (s *session) parseLog() vast.Statement {
	stmt := &vast.LogStatement{Tok: s.lex.next()}
	value := s.parseConcat()
	if value == nil {
		return nil
	}
	stmt.Value = value
	if _, ok := s.expect(";"); !ok {
		return nil
	}
	return stmt
}

// --- Expressions ------------------------------------------------------------

// Binding powers for infix operators.
func precedence(op string) int {
	switch op {
	case "||":
		return 1
	case "&&":
		return 2
	case "==", "!=", "~", "!~", "<", ">", "<=", ">=":
		return 3
	case "+", "-":
		return 4
	}
	return 0
}

// parseConcat parses an expression where VCL's juxtaposition concatenation
// is allowed: "a" var.x "b" folds into left-nested "+" infix nodes, which is
// how the external tool's tree represents it.
func (s *session) parseConcat() vast.Expression {
	left := s.parseExpression(0)
	if left == nil {
		return nil
	}
	for {
		tok := s.lex.peek()
		if !startsPrimary(tok) {
			return left
		}
		right := s.parseExpression(precedence("+"))
		if right == nil {
			return nil
		}
		left = &vast.InfixExpression{
			Tok:      right.Token(),
			Operator: "+",
			Left:     left,
			Right:    right,
		}
	}
}

func startsPrimary(tok vast.Token) bool {
	switch tok.Type {
	case vast.TokenString, tokenLongString, vast.TokenIdent, vast.TokenInt,
		vast.TokenFloat, vast.TokenBool, vast.TokenRTime:
		return true
	}
	return false
}

func (s *session) parseExpression(minPrec int) vast.Expression {
	left := s.parsePrimary()
	if left == nil {
		return nil
	}
	for {
		tok := s.lex.peek()
		if tok.Type != vast.TokenOp {
			return left
		}
		prec := precedence(tok.Literal)
		if prec == 0 || prec <= minPrec {
			return left
		}
		op := s.lex.next()
		right := s.parseExpression(prec)
		if right == nil {
			return nil
		}
		left = &vast.InfixExpression{Tok: op, Operator: op.Literal, Left: left, Right: right}
	}
}

func (s *session) parsePrimary() vast.Expression {
	tok := s.lex.peek()
	switch tok.Type {
	case vast.TokenString:
		s.lex.next()
		return &vast.StringLiteral{Tok: tok, Value: tok.Literal}
	case tokenLongString:
		s.lex.next()
		return &vast.StringLiteral{Tok: tok, Value: tok.Literal, LongString: true}
	case vast.TokenInt:
		s.lex.next()
		n, _ := strconv.ParseInt(tok.Literal, 10, 64)
		expr := vast.Expression(&vast.IntegerLiteral{Tok: tok, Value: n})
		if s.lex.peek().Type == tokenPercent {
			s.lex.next()
		}
		return expr
	case vast.TokenFloat:
		s.lex.next()
		f, _ := strconv.ParseFloat(tok.Literal, 64)
		return &vast.FloatLiteral{Tok: tok, Value: f}
	case vast.TokenBool:
		s.lex.next()
		return &vast.BoolLiteral{Tok: tok, Value: tok.Literal == "true"}
	case vast.TokenRTime:
		s.lex.next()
		return &vast.RTimeLiteral{Tok: tok, Value: tok.Literal}
	case vast.TokenIdent:
		s.lex.next()
		ident := &vast.Ident{Tok: tok, Value: tok.Literal}
		if s.lex.peek().Type == "(" {
			return s.parseCallArgs(ident)
		}
		return ident
	case "(":
		open := s.lex.next()
		inner := s.parseExpression(0)
		if inner == nil {
			return nil
		}
		if _, ok := s.expect(")"); !ok {
			return nil
		}
		return &vast.GroupedExpression{Tok: open, Right: inner}
	case vast.TokenOp:
		if tok.Literal == "!" || tok.Literal == "-" {
			s.lex.next()
			right := s.parsePrimary()
			if right == nil {
				return nil
			}
			return &vast.PrefixExpression{Tok: tok, Operator: tok.Literal, Right: right}
		}
	}
	s.errorf(tok, "expected expression, found %q", tok.Literal)
	return nil
}

func (s *session) parseCallArgs(fn *vast.Ident) vast.Expression {
	call := &vast.FunctionCallExpression{Tok: fn.Tok, Function: fn}
	s.lex.next() // (
	for {
		tok := s.lex.peek()
		if tok.Type == ")" || tok.Type == tokenEOF {
			break
		}
		arg := s.parseConcat()
		if arg == nil {
			return nil
		}
		call.Arguments = append(call.Arguments, arg)
		if s.lex.peek().Type == "," {
			s.lex.next()
		}
	}
	if _, ok := s.expect(")"); !ok {
		return nil
	}
	return call
}
