package textdoc

import (
	"github.com/vcltools/vci/internal/types"
)

// isWordByte matches the identifier-plus-dot-plus-hyphen class used for
// word-under-cursor expansion. Dots keep dotted variable paths whole
// (req.http.Host); hyphens keep header names whole (Cache-Control).
func isWordByte(b byte) bool {
	return b == '_' || b == '.' || b == '-' ||
		(b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') ||
		(b >= '0' && b <= '9')
}

// WordAt expands left and right from the cursor while characters match the
// word class and returns the covered text, or "" when neither neighbor
// matches.
func (d *Document) WordAt(pos types.Position) string {
	w, _ := d.WordSpanAt(pos)
	return w
}

// WordSpanAt is WordAt plus the covered span. The span is zero-length and
// the word "" when the cursor touches no word character.
func (d *Document) WordSpanAt(pos types.Position) (string, types.Span) {
	line := d.LineAt(pos.Line)
	col := pos.Character
	if col > len(line) {
		col = len(line)
	}

	start := col
	for start > 0 && isWordByte(line[start-1]) {
		start--
	}
	end := col
	for end < len(line) && isWordByte(line[end]) {
		end++
	}
	if start == end {
		return "", types.Span{Line: pos.Line, Character: col}
	}
	return line[start:end], types.Span{Line: pos.Line, Character: start, Length: end - start}
}

// ClosingBraceOf scans forward line-by-line from start, tracking brace depth
// and ignoring braces inside double-quoted strings, and returns the position
// of the brace that returns the depth to zero. Returns nil when the document
// ends unbalanced; callers treat that as "range cannot be determined" and
// omit the affected symbol or fold.
func (d *Document) ClosingBraceOf(start types.Position) *types.Position {
	depth := 0
	opened := false

	for line := start.Line; line < d.LineCount(); line++ {
		text := d.LineAt(line)
		from := 0
		if line == start.Line {
			from = start.Character
			if from > len(text) {
				from = len(text)
			}
		}

		inString := false
		for i := from; i < len(text); i++ {
			c := text[i]
			switch {
			case c == '"':
				inString = !inString
			case inString:
				// Braces inside string literals don't count.
			case c == '{':
				depth++
				opened = true
			case c == '}':
				depth--
				if opened && depth == 0 {
					return &types.Position{Line: line, Character: i}
				}
			case c == '#' && !inString:
				// Rest of line is a comment.
				i = len(text)
			}
		}
	}
	return nil
}
