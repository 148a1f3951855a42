// Package semtok classifies parse-tree nodes into semantic highlighting
// tokens and delta-encodes them into the incremental stream format editors
// consume.
package semtok

import "sort"

// Token classes, in legend order. The indices are part of the wire contract
// with the presentation layer; append only.
const (
	ClassKeyword uint32 = iota
	ClassType
	ClassFunction
	ClassVariable
	ClassParameter
	ClassProperty
	ClassString
	ClassRegexp
	ClassNumber
	ClassOperator
)

// TokenTypes is the legend advertised to the editor, index-aligned with the
// Class constants.
var TokenTypes = []string{
	"keyword",
	"type",
	"function",
	"variable",
	"parameter",
	"property",
	"string",
	"regexp",
	"number",
	"operator",
}

// Modifier bits.
const (
	ModDeclaration uint32 = 1 << iota
	ModDefaultLibrary
	ModReadonly
)

// TokenModifiers is the modifier legend, bit-aligned with the Mod constants.
var TokenModifiers = []string{
	"declaration",
	"defaultLibrary",
	"readonly",
}

// Token is one classified span. Spans never cross lines.
type Token struct {
	Line      int
	Character int
	Length    int
	Class     uint32
	Modifiers uint32
}

// specificity orders classes for same-span conflicts: a string operand of a
// match operator is reclassified as regexp, and the regexp entry must win
// the dedup.
func specificity(class uint32) int {
	switch class {
	case ClassRegexp:
		return 2
	case ClassString:
		return 1
	}
	return 0
}

// Normalize sorts tokens by (line, character) ascending and collapses
// entries sharing a start position, keeping the most specific class. The
// result satisfies the stream contract: strictly ordered, no duplicate
// positions.
func Normalize(tokens []Token) []Token {
	sort.SliceStable(tokens, func(i, j int) bool {
		if tokens[i].Line != tokens[j].Line {
			return tokens[i].Line < tokens[j].Line
		}
		return tokens[i].Character < tokens[j].Character
	})

	out := tokens[:0]
	for _, t := range tokens {
		if n := len(out); n > 0 && out[n-1].Line == t.Line && out[n-1].Character == t.Character {
			if specificity(t.Class) > specificity(out[n-1].Class) {
				out[n-1] = t
			}
			continue
		}
		out = append(out, t)
	}
	return out
}

// Encode converts a normalized token list into the flat delta stream: five
// integers per token, line and character deltas relative to the previous
// token, with the character delta absolute whenever the line changes.
func Encode(tokens []Token) []uint32 {
	data := make([]uint32, 0, len(tokens)*5)
	prevLine, prevChar := 0, 0
	for _, t := range tokens {
		deltaLine := t.Line - prevLine
		deltaChar := t.Character
		if deltaLine == 0 {
			deltaChar = t.Character - prevChar
		}
		data = append(data,
			uint32(deltaLine),
			uint32(deltaChar),
			uint32(t.Length),
			t.Class,
			t.Modifiers,
		)
		prevLine, prevChar = t.Line, t.Character
	}
	return data
}
