package types

import (
	"fmt"
	"strings"
)

// Position is a zero-based (line, character) pair, matching the editor
// coordinate space. The oracle emits 1-based positions; conversion happens
// at the oracle boundary, never inside query algorithms.
type Position struct {
	Line      int
	Character int
}

// Before reports whether p sorts strictly before other in document order.
func (p Position) Before(other Position) bool {
	if p.Line != other.Line {
		return p.Line < other.Line
	}
	return p.Character < other.Character
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Character)
}

// Span is a single-line extent: a start position plus a length in characters.
// Multi-line extents are represented as a Range (separate start/end), never
// as a Span crossing lines.
type Span struct {
	Line      int
	Character int
	Length    int
}

// Start returns the span's starting position.
func (s Span) Start() Position {
	return Position{Line: s.Line, Character: s.Character}
}

// End returns the position one past the last character of the span.
func (s Span) End() Position {
	return Position{Line: s.Line, Character: s.Character + s.Length}
}

// Contains reports whether pos falls within the span. The end is inclusive:
// a cursor sitting just after the last character still hits the span, the
// behavior editors expect for word-under-cursor queries.
func (s Span) Contains(pos Position) bool {
	return pos.Line == s.Line &&
		pos.Character >= s.Character &&
		pos.Character <= s.Character+s.Length
}

// Range converts the span to an explicit start/end Range.
func (s Span) Range() Range {
	return Range{Start: s.Start(), End: s.End()}
}

// Range is an explicit start/end position pair. End is exclusive for edits,
// end-inclusive for containment queries.
type Range struct {
	Start Position
	End   Position
}

// Contains reports whether pos falls within the range (end-inclusive).
func (r Range) Contains(pos Position) bool {
	if pos.Line < r.Start.Line || pos.Line > r.End.Line {
		return false
	}
	if pos.Line == r.Start.Line && pos.Character < r.Start.Character {
		return false
	}
	if pos.Line == r.End.Line && pos.Character > r.End.Character {
		return false
	}
	return true
}

// ContainsLine reports whether line falls within [Start.Line, End.Line].
func (r Range) ContainsLine(line int) bool {
	return line >= r.Start.Line && line <= r.End.Line
}

// Overlaps reports whether two ranges share at least one position.
// Touching at a single boundary point does not count; adjacent edits are
// legal in one edit set.
func (r Range) Overlaps(other Range) bool {
	if r.End.Before(other.Start) || other.End.Before(r.Start) {
		return false
	}
	if r.End == other.Start || other.End == r.Start {
		return false
	}
	return true
}

// Location pairs a document URI with a range inside it.
type Location struct {
	URI   string
	Range Range
}

// SymbolKind classifies a document symbol.
type SymbolKind uint8

const (
	SymbolAcl SymbolKind = iota
	SymbolTable
	SymbolBackend
	SymbolDirector
	SymbolRateCounter
	SymbolPenaltyBox
	SymbolSubroutine
	SymbolLocalVariable
	SymbolInclude
)

func (k SymbolKind) String() string {
	switch k {
	case SymbolAcl:
		return "acl"
	case SymbolTable:
		return "table"
	case SymbolBackend:
		return "backend"
	case SymbolDirector:
		return "director"
	case SymbolRateCounter:
		return "ratecounter"
	case SymbolPenaltyBox:
		return "penaltybox"
	case SymbolSubroutine:
		return "subroutine"
	case SymbolLocalVariable:
		return "local"
	case SymbolInclude:
		return "include"
	}
	return "unknown"
}

// IsBlock reports whether the kind is declared with a braced body.
func (k SymbolKind) IsBlock() bool {
	switch k {
	case SymbolAcl, SymbolTable, SymbolBackend, SymbolDirector,
		SymbolRateCounter, SymbolPenaltyBox, SymbolSubroutine:
		return true
	}
	return false
}

// Symbol is one named declaration in a document.
//
// Invariant: SelectionRange is contained in DefiningRange. For block kinds
// DefiningRange spans from the declaration keyword to the matching closing
// brace; for locals and includes it spans from the declaring token to the
// end of the name.
type Symbol struct {
	Name           string
	Kind           SymbolKind
	DefiningRange  Range
	SelectionRange Range
	Children       []Symbol
}

// SymbolInformation is the flat form used for workspace-wide symbol queries.
type SymbolInformation struct {
	Name          string
	Kind          SymbolKind
	ContainerName string
	Location      Location
}

// Occurrence is one syntactic appearance of a name, tagged read or write.
// Produced transiently by reference queries; never cached.
type Occurrence struct {
	Value   string
	Span    Span
	IsWrite bool
}

// Edit is a single text replacement. A rename produces a set of pairwise
// non-overlapping edits within one document.
type Edit struct {
	Range   Range
	NewText string
}

// WorkspaceEdit maps document URIs to their edit sets.
type WorkspaceEdit struct {
	Changes map[string][]Edit
}

// DiagnosticSeverity mirrors the oracle's severity levels.
type DiagnosticSeverity uint8

const (
	SeverityError DiagnosticSeverity = iota + 1
	SeverityWarning
	SeverityInfo
)

// Diagnostic is one parse/lint finding reported by the oracle.
type Diagnostic struct {
	Message  string
	Severity DiagnosticSeverity
	Span     Span
	RuleID   string
}

// FoldingRange is a collapsible line range.
type FoldingRange struct {
	StartLine int
	EndLine   int
	IsComment bool
}

// SelectionRange is one link in an expand-selection chain; Parent is the
// next larger enclosing range, nil at the outermost link.
type SelectionRange struct {
	Range  Range
	Parent *SelectionRange
}

// HeaderName extracts the HTTP header name from a dotted variable path like
// "req.http.Cache-Control", or "" if the path does not address a header.
// Header names are AST-invisible entities: the tree stores the whole dotted
// ident, so sub-ident spans must be recomputed from the literal text.
func HeaderName(path string) string {
	idx := strings.Index(path, ".http.")
	if idx < 0 {
		return ""
	}
	name := path[idx+len(".http."):]
	return name
}

// IsLocalVariable reports whether a dotted path names a subroutine-local
// variable (declared via "declare local var.name TYPE").
func IsLocalVariable(path string) bool {
	return strings.HasPrefix(path, "var.")
}
