// Package vast models the parse tree the oracle produces for VCL sources.
//
// Each node kind is its own struct (a closed tagged union discriminated by
// Kind()) rather than a bag of dynamically probed fields; the generic walker
// in walk.go descends into every node-valued field of every variant. Nodes
// never point back at their parents; parent relationships are recomputed by
// re-walking from the Program root, which keeps the tree trivially
// replaceable on reparse.
package vast

// NodeKind discriminates the node variants.
type NodeKind uint8

const (
	KindProgram NodeKind = iota

	// Declarations
	KindAclDeclaration
	KindBackendDeclaration
	KindDirectorDeclaration
	KindTableDeclaration
	KindSubroutineDeclaration
	KindRatecounterDeclaration
	KindPenaltyboxDeclaration
	KindIncludeStatement
	KindImportStatement

	// Statements
	KindBlockStatement
	KindDeclareStatement
	KindSetStatement
	KindAddStatement
	KindUnsetStatement
	KindCallStatement
	KindIfStatement
	KindReturnStatement
	KindErrorStatement
	KindSyntheticStatement
	KindLogStatement
	KindRestartStatement
	KindEsiStatement

	// Expressions
	KindIdent
	KindStringLiteral
	KindIntegerLiteral
	KindFloatLiteral
	KindBoolLiteral
	KindRTimeLiteral
	KindIPLiteral
	KindPrefixExpression
	KindInfixExpression
	KindGroupedExpression
	KindFunctionCallExpression

	// Sub-structures
	KindAclEntry
	KindBackendProperty
	KindBackendObject
	KindDirectorProperty
	KindDirectorBackend
	KindTableEntry
	KindParameter
)

func (k NodeKind) String() string {
	switch k {
	case KindProgram:
		return "Program"
	case KindAclDeclaration:
		return "AclDeclaration"
	case KindBackendDeclaration:
		return "BackendDeclaration"
	case KindDirectorDeclaration:
		return "DirectorDeclaration"
	case KindTableDeclaration:
		return "TableDeclaration"
	case KindSubroutineDeclaration:
		return "SubroutineDeclaration"
	case KindRatecounterDeclaration:
		return "RatecounterDeclaration"
	case KindPenaltyboxDeclaration:
		return "PenaltyboxDeclaration"
	case KindIncludeStatement:
		return "IncludeStatement"
	case KindImportStatement:
		return "ImportStatement"
	case KindBlockStatement:
		return "BlockStatement"
	case KindDeclareStatement:
		return "DeclareStatement"
	case KindSetStatement:
		return "SetStatement"
	case KindAddStatement:
		return "AddStatement"
	case KindUnsetStatement:
		return "UnsetStatement"
	case KindCallStatement:
		return "CallStatement"
	case KindIfStatement:
		return "IfStatement"
	case KindReturnStatement:
		return "ReturnStatement"
	case KindErrorStatement:
		return "ErrorStatement"
	case KindSyntheticStatement:
		return "SyntheticStatement"
	case KindLogStatement:
		return "LogStatement"
	case KindRestartStatement:
		return "RestartStatement"
	case KindEsiStatement:
		return "EsiStatement"
	case KindIdent:
		return "Ident"
	case KindStringLiteral:
		return "StringLiteral"
	case KindIntegerLiteral:
		return "IntegerLiteral"
	case KindFloatLiteral:
		return "FloatLiteral"
	case KindBoolLiteral:
		return "BoolLiteral"
	case KindRTimeLiteral:
		return "RTimeLiteral"
	case KindIPLiteral:
		return "IPLiteral"
	case KindPrefixExpression:
		return "PrefixExpression"
	case KindInfixExpression:
		return "InfixExpression"
	case KindGroupedExpression:
		return "GroupedExpression"
	case KindFunctionCallExpression:
		return "FunctionCallExpression"
	case KindAclEntry:
		return "AclEntry"
	case KindBackendProperty:
		return "BackendProperty"
	case KindBackendObject:
		return "BackendObject"
	case KindDirectorProperty:
		return "DirectorProperty"
	case KindDirectorBackend:
		return "DirectorBackend"
	case KindTableEntry:
		return "TableEntry"
	case KindParameter:
		return "Parameter"
	}
	return "Unknown"
}

// Node is the interface implemented by every tree node.
type Node interface {
	Kind() NodeKind
	Token() Token
}

// Statement is a marker for statement-position nodes.
type Statement interface {
	Node
	statementNode()
}

// Expression is a marker for expression-position nodes.
type Expression interface {
	Node
	expressionNode()
}

// Program is the root of a parsed document.
type Program struct {
	Tok        Token
	Statements []Statement
}

func (p *Program) Kind() NodeKind { return KindProgram }
func (p *Program) Token() Token   { return p.Tok }

// --- Declarations -----------------------------------------------------------

// AclDeclaration is "acl name { entries }".
type AclDeclaration struct {
	Tok     Token
	Name    *Ident
	Entries []*AclEntry
	End     Token // closing brace
}

func (d *AclDeclaration) Kind() NodeKind { return KindAclDeclaration }
func (d *AclDeclaration) Token() Token   { return d.Tok }
func (d *AclDeclaration) statementNode() {}

// AclEntry is one CIDR line inside an acl block, optionally negated.
type AclEntry struct {
	Tok     Token
	Inverse bool
	IP      *IPLiteral
	Mask    *IntegerLiteral
}

func (e *AclEntry) Kind() NodeKind { return KindAclEntry }
func (e *AclEntry) Token() Token   { return e.Tok }

// BackendDeclaration is "backend name { .prop = value; ... }".
type BackendDeclaration struct {
	Tok        Token
	Name       *Ident
	Properties []*BackendProperty
	End        Token
}

func (d *BackendDeclaration) Kind() NodeKind { return KindBackendDeclaration }
func (d *BackendDeclaration) Token() Token   { return d.Tok }
func (d *BackendDeclaration) statementNode() {}

// BackendProperty is one ".key = value" pair; the value may itself be a
// nested object (probes).
type BackendProperty struct {
	Tok   Token
	Key   *Ident
	Value Expression
}

func (p *BackendProperty) Kind() NodeKind { return KindBackendProperty }
func (p *BackendProperty) Token() Token   { return p.Tok }

// BackendObject is a nested property object such as a probe body.
type BackendObject struct {
	Tok    Token
	Values []*BackendProperty
	End    Token
}

func (o *BackendObject) Kind() NodeKind  { return KindBackendObject }
func (o *BackendObject) Token() Token    { return o.Tok }
func (o *BackendObject) expressionNode() {}

// DirectorDeclaration is "director name type { ... }".
type DirectorDeclaration struct {
	Tok          Token
	Name         *Ident
	DirectorType *Ident
	Properties   []*DirectorProperty
	Backends     []*DirectorBackend
	End          Token
}

func (d *DirectorDeclaration) Kind() NodeKind { return KindDirectorDeclaration }
func (d *DirectorDeclaration) Token() Token   { return d.Tok }
func (d *DirectorDeclaration) statementNode() {}

// DirectorProperty is a ".key = value" pair at director level.
type DirectorProperty struct {
	Tok   Token
	Key   *Ident
	Value Expression
}

func (p *DirectorProperty) Kind() NodeKind { return KindDirectorProperty }
func (p *DirectorProperty) Token() Token   { return p.Tok }

// DirectorBackend is one "{ .backend = name; .weight = n; }" member.
type DirectorBackend struct {
	Tok    Token
	Values []*DirectorProperty
	End    Token
}

func (b *DirectorBackend) Kind() NodeKind { return KindDirectorBackend }
func (b *DirectorBackend) Token() Token   { return b.Tok }

// TableDeclaration is "table name [TYPE] { "key": value, ... }".
type TableDeclaration struct {
	Tok       Token
	Name      *Ident
	ValueType *Ident
	Entries   []*TableEntry
	End       Token
}

func (d *TableDeclaration) Kind() NodeKind { return KindTableDeclaration }
func (d *TableDeclaration) Token() Token   { return d.Tok }
func (d *TableDeclaration) statementNode() {}

// TableEntry is one key/value pair.
type TableEntry struct {
	Tok   Token
	Key   *StringLiteral
	Value Expression
}

func (e *TableEntry) Kind() NodeKind { return KindTableEntry }
func (e *TableEntry) Token() Token   { return e.Tok }

// SubroutineDeclaration is "sub name { ... }". Nested marks subroutine
// definitions hoisted out of another declaration by the oracle; they become
// children of the preceding top-level symbol rather than symbols of their
// own, and never produce fold ranges.
type SubroutineDeclaration struct {
	Tok        Token
	Name       *Ident
	ReturnType *Ident
	Parameters []*Parameter
	Block      *BlockStatement
	Nested     bool
}

func (d *SubroutineDeclaration) Kind() NodeKind { return KindSubroutineDeclaration }
func (d *SubroutineDeclaration) Token() Token   { return d.Tok }
func (d *SubroutineDeclaration) statementNode() {}

// Parameter is one declared subroutine parameter.
type Parameter struct {
	Tok       Token
	Name      *Ident
	ValueType *Ident
}

func (p *Parameter) Kind() NodeKind { return KindParameter }
func (p *Parameter) Token() Token   { return p.Tok }

// RatecounterDeclaration is "ratecounter name { }".
type RatecounterDeclaration struct {
	Tok  Token
	Name *Ident
	End  Token
}

func (d *RatecounterDeclaration) Kind() NodeKind { return KindRatecounterDeclaration }
func (d *RatecounterDeclaration) Token() Token   { return d.Tok }
func (d *RatecounterDeclaration) statementNode() {}

// PenaltyboxDeclaration is "penaltybox name { }".
type PenaltyboxDeclaration struct {
	Tok  Token
	Name *Ident
	End  Token
}

func (d *PenaltyboxDeclaration) Kind() NodeKind { return KindPenaltyboxDeclaration }
func (d *PenaltyboxDeclaration) Token() Token   { return d.Tok }
func (d *PenaltyboxDeclaration) statementNode() {}

// IncludeStatement is `include "module";`.
type IncludeStatement struct {
	Tok    Token
	Module *StringLiteral
}

func (s *IncludeStatement) Kind() NodeKind { return KindIncludeStatement }
func (s *IncludeStatement) Token() Token   { return s.Tok }
func (s *IncludeStatement) statementNode() {}

// ImportStatement is "import name;".
type ImportStatement struct {
	Tok  Token
	Name *Ident
}

func (s *ImportStatement) Kind() NodeKind { return KindImportStatement }
func (s *ImportStatement) Token() Token   { return s.Tok }
func (s *ImportStatement) statementNode() {}

// --- Statements -------------------------------------------------------------

// BlockStatement is a braced statement list. End carries the closing brace
// token so scope resolution can bound the block without rescanning text.
type BlockStatement struct {
	Tok        Token
	Statements []Statement
	End        Token
}

func (b *BlockStatement) Kind() NodeKind { return KindBlockStatement }
func (b *BlockStatement) Token() Token   { return b.Tok }
func (b *BlockStatement) statementNode() {}

// EndLine returns the zero-based line of the closing brace, falling back to
// the opening line when the block is unterminated.
func (b *BlockStatement) EndLine() int {
	if b.End.Line > 0 {
		return b.End.Line - 1
	}
	return b.Tok.Line - 1
}

// DeclareStatement is "declare local var.name TYPE;".
type DeclareStatement struct {
	Tok       Token
	Name      *Ident
	ValueType *Ident
}

func (s *DeclareStatement) Kind() NodeKind { return KindDeclareStatement }
func (s *DeclareStatement) Token() Token   { return s.Tok }
func (s *DeclareStatement) statementNode() {}

// SetStatement is "set target OP value;".
type SetStatement struct {
	Tok      Token
	Ident    *Ident
	Operator Token
	Value    Expression
}

func (s *SetStatement) Kind() NodeKind { return KindSetStatement }
func (s *SetStatement) Token() Token   { return s.Tok }
func (s *SetStatement) statementNode() {}

// AddStatement is "add target = value;" (append semantics for headers).
type AddStatement struct {
	Tok      Token
	Ident    *Ident
	Operator Token
	Value    Expression
}

func (s *AddStatement) Kind() NodeKind { return KindAddStatement }
func (s *AddStatement) Token() Token   { return s.Tok }
func (s *AddStatement) statementNode() {}

// UnsetStatement is "unset target;" or "remove target;".
type UnsetStatement struct {
	Tok   Token
	Ident *Ident
}

func (s *UnsetStatement) Kind() NodeKind { return KindUnsetStatement }
func (s *UnsetStatement) Token() Token   { return s.Tok }
func (s *UnsetStatement) statementNode() {}

// CallStatement is "call name;".
type CallStatement struct {
	Tok        Token
	Subroutine *Ident
}

func (s *CallStatement) Kind() NodeKind { return KindCallStatement }
func (s *CallStatement) Token() Token   { return s.Tok }
func (s *CallStatement) statementNode() {}

// IfStatement covers if/elsif/else chains; each elsif is another IfStatement
// in Alternatives, the trailing else (if any) is Alternative.
type IfStatement struct {
	Tok          Token
	Condition    Expression
	Consequence  *BlockStatement
	Alternatives []*IfStatement
	Alternative  *BlockStatement
}

func (s *IfStatement) Kind() NodeKind { return KindIfStatement }
func (s *IfStatement) Token() Token   { return s.Tok }
func (s *IfStatement) statementNode() {}

// ReturnStatement is "return;" or "return(state);" or "return expr;".
type ReturnStatement struct {
	Tok   Token
	Value Expression
}

func (s *ReturnStatement) Kind() NodeKind { return KindReturnStatement }
func (s *ReturnStatement) Token() Token   { return s.Tok }
func (s *ReturnStatement) statementNode() {}

// ErrorStatement is "error code [response];".
type ErrorStatement struct {
	Tok      Token
	Code     Expression
	Argument Expression
}

func (s *ErrorStatement) Kind() NodeKind { return KindErrorStatement }
func (s *ErrorStatement) Token() Token   { return s.Tok }
func (s *ErrorStatement) statementNode() {}

// SyntheticStatement is "synthetic value;".
type SyntheticStatement struct {
	Tok   Token
	Value Expression
}

func (s *SyntheticStatement) Kind() NodeKind { return KindSyntheticStatement }
func (s *SyntheticStatement) Token() Token   { return s.Tok }
func (s *SyntheticStatement) statementNode() {}

// LogStatement is "log value;".
type LogStatement struct {
	Tok   Token
	Value Expression
}

func (s *LogStatement) Kind() NodeKind { return KindLogStatement }
func (s *LogStatement) Token() Token   { return s.Tok }
func (s *LogStatement) statementNode() {}

// RestartStatement is "restart;".
type RestartStatement struct {
	Tok Token
}

func (s *RestartStatement) Kind() NodeKind { return KindRestartStatement }
func (s *RestartStatement) Token() Token   { return s.Tok }
func (s *RestartStatement) statementNode() {}

// EsiStatement is "esi;".
type EsiStatement struct {
	Tok Token
}

func (s *EsiStatement) Kind() NodeKind { return KindEsiStatement }
func (s *EsiStatement) Token() Token   { return s.Tok }
func (s *EsiStatement) statementNode() {}

// --- Expressions ------------------------------------------------------------

// Ident is any identifier, including dotted variable paths like
// "req.http.Host" and "var.result".
type Ident struct {
	Tok   Token
	Value string
}

func (e *Ident) Kind() NodeKind  { return KindIdent }
func (e *Ident) Token() Token    { return e.Tok }
func (e *Ident) expressionNode() {}

// StringLiteral holds the logical string value. LongString marks the braced
// {"..."} form whose delimiters occupy four characters instead of two.
type StringLiteral struct {
	Tok        Token
	Value      string
	LongString bool
}

func (e *StringLiteral) Kind() NodeKind  { return KindStringLiteral }
func (e *StringLiteral) Token() Token    { return e.Tok }
func (e *StringLiteral) expressionNode() {}

// QuoteOverhead returns the number of delimiter characters not present in
// the logical value: 2 for "..." and 4 for {"..."}.
func (e *StringLiteral) QuoteOverhead() int {
	if e.LongString {
		return 4
	}
	return 2
}

// IntegerLiteral is a whole number.
type IntegerLiteral struct {
	Tok   Token
	Value int64
}

func (e *IntegerLiteral) Kind() NodeKind  { return KindIntegerLiteral }
func (e *IntegerLiteral) Token() Token    { return e.Tok }
func (e *IntegerLiteral) expressionNode() {}

// FloatLiteral is a decimal number.
type FloatLiteral struct {
	Tok   Token
	Value float64
}

func (e *FloatLiteral) Kind() NodeKind  { return KindFloatLiteral }
func (e *FloatLiteral) Token() Token    { return e.Tok }
func (e *FloatLiteral) expressionNode() {}

// BoolLiteral is true/false.
type BoolLiteral struct {
	Tok   Token
	Value bool
}

func (e *BoolLiteral) Kind() NodeKind  { return KindBoolLiteral }
func (e *BoolLiteral) Token() Token    { return e.Tok }
func (e *BoolLiteral) expressionNode() {}

// RTimeLiteral is a relative time such as 30s or 1h.
type RTimeLiteral struct {
	Tok   Token
	Value string
}

func (e *RTimeLiteral) Kind() NodeKind  { return KindRTimeLiteral }
func (e *RTimeLiteral) Token() Token    { return e.Tok }
func (e *RTimeLiteral) expressionNode() {}

// IPLiteral is a quoted IP address inside an acl entry.
type IPLiteral struct {
	Tok   Token
	Value string
}

func (e *IPLiteral) Kind() NodeKind  { return KindIPLiteral }
func (e *IPLiteral) Token() Token    { return e.Tok }
func (e *IPLiteral) expressionNode() {}

// PrefixExpression is "!expr" or "-expr".
type PrefixExpression struct {
	Tok      Token
	Operator string
	Right    Expression
}

func (e *PrefixExpression) Kind() NodeKind  { return KindPrefixExpression }
func (e *PrefixExpression) Token() Token    { return e.Tok }
func (e *PrefixExpression) expressionNode() {}

// InfixExpression is "left OP right"; Operator carries the literal operator
// text ("~", "!~", "==", "&&", ...). String concatenation uses operator "+".
type InfixExpression struct {
	Tok      Token
	Operator string
	Left     Expression
	Right    Expression
}

func (e *InfixExpression) Kind() NodeKind  { return KindInfixExpression }
func (e *InfixExpression) Token() Token    { return e.Tok }
func (e *InfixExpression) expressionNode() {}

// GroupedExpression is "(expr)".
type GroupedExpression struct {
	Tok   Token
	Right Expression
}

func (e *GroupedExpression) Kind() NodeKind  { return KindGroupedExpression }
func (e *GroupedExpression) Token() Token    { return e.Tok }
func (e *GroupedExpression) expressionNode() {}

// FunctionCallExpression is "pkg.fn(args...)".
type FunctionCallExpression struct {
	Tok       Token
	Function  *Ident
	Arguments []Expression
}

func (e *FunctionCallExpression) Kind() NodeKind  { return KindFunctionCallExpression }
func (e *FunctionCallExpression) Token() Token    { return e.Tok }
func (e *FunctionCallExpression) expressionNode() {}
