package vast

import (
	"github.com/vcltools/vci/internal/types"
)

// Token is one lexical token as reported by the oracle: type, literal text
// and a 1-based line/column position in the original source.
//
// The 1-based convention is the oracle's contract; everything above the
// oracle boundary works with zero-based types.Position. Span() is the single
// conversion point.
type Token struct {
	Type    string
	Literal string
	Line    int // 1-based
	Column  int // 1-based
	Offset  int // byte offset of the token start, -1 when unknown
}

// Token type names shared by the oracle schema and the in-process parser.
const (
	TokenIdent   = "IDENT"
	TokenString  = "STRING"
	TokenInt     = "INT"
	TokenFloat   = "FLOAT"
	TokenBool    = "BOOL"
	TokenRTime   = "RTIME"
	TokenIP      = "IP"
	TokenKeyword = "KEYWORD"
	TokenOp      = "OPERATOR"
)

// Span converts the token to a zero-based single-line span covering the
// literal text. String literals report the logical value only; quote
// overhead is the classifier's concern.
func (t Token) Span() types.Span {
	return types.Span{
		Line:      t.Line - 1,
		Character: t.Column - 1,
		Length:    len(t.Literal),
	}
}

// Start returns the zero-based start position of the token.
func (t Token) Start() types.Position {
	return types.Position{Line: t.Line - 1, Character: t.Column - 1}
}
