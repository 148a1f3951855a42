// Package ranges derives structural line ranges from a parsed document:
// folding ranges for the outline gutter and hierarchical selection-range
// chains for expand-selection commands.
package ranges

import (
	"strings"

	"github.com/vcltools/vci/internal/textdoc"
	"github.com/vcltools/vci/internal/types"
	"github.com/vcltools/vci/internal/vast"
)

// Folding computes the document's foldable ranges in two independent
// passes: a tree pass for braced declarations and control flow, and a text
// pass for comments. The two never produce the same range, so the results
// concatenate without dedup.
func Folding(doc *textdoc.Document, program *vast.Program) []types.FoldingRange {
	out := treeFolds(doc, program)
	return append(out, commentFolds(doc)...)
}

func treeFolds(doc *textdoc.Document, program *vast.Program) []types.FoldingRange {
	if program == nil {
		return nil
	}
	var out []types.FoldingRange

	emit := func(startTok vast.Token) {
		start := startTok.Start()
		closing := doc.ClosingBraceOf(start)
		if closing == nil || closing.Line <= start.Line {
			return
		}
		out = append(out, types.FoldingRange{StartLine: start.Line, EndLine: closing.Line})
	}

	vast.Walk(program, func(n vast.Node) bool {
		switch node := n.(type) {
		case *vast.AclDeclaration:
			emit(node.Tok)
		case *vast.BackendDeclaration:
			emit(node.Tok)
		case *vast.DirectorDeclaration:
			emit(node.Tok)
		case *vast.TableDeclaration:
			emit(node.Tok)
		case *vast.RatecounterDeclaration:
			emit(node.Tok)
		case *vast.PenaltyboxDeclaration:
			emit(node.Tok)
		case *vast.SubroutineDeclaration:
			// A sub hoisted out of another declaration never folds on its
			// own; the host declaration's fold already covers its lines.
			if node.Nested {
				return false
			}
			emit(node.Tok)
		case *vast.IfStatement:
			emit(node.Tok)
			if node.Alternative != nil {
				emit(node.Alternative.Tok)
			}
		case *vast.BackendObject:
			emit(node.Tok)
		case *vast.DirectorBackend:
			emit(node.Tok)
		}
		return true
	})
	return out
}

// commentFolds scans raw text for block comments spanning multiple lines
// and for runs of consecutive line comments, emitting a range only when the
// span covers more than one line.
func commentFolds(doc *textdoc.Document) []types.FoldingRange {
	var out []types.FoldingRange

	inBlock := false
	blockStart := 0
	runStart := -1

	endRun := func(line int) {
		if runStart >= 0 && line-1 > runStart {
			out = append(out, types.FoldingRange{StartLine: runStart, EndLine: line - 1, IsComment: true})
		}
		runStart = -1
	}

	for line := 0; line < doc.LineCount(); line++ {
		text := doc.LineAt(line)
		trimmed := strings.TrimSpace(text)

		if inBlock {
			if strings.Contains(text, "*/") {
				if line > blockStart {
					out = append(out, types.FoldingRange{StartLine: blockStart, EndLine: line, IsComment: true})
				}
				inBlock = false
			}
			continue
		}

		if strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "//") {
			if runStart < 0 {
				runStart = line
			}
			continue
		}
		endRun(line)

		if idx := strings.Index(text, "/*"); idx >= 0 && !strings.Contains(text[idx:], "*/") {
			inBlock = true
			blockStart = line
		}
	}
	endRun(doc.LineCount())
	return out
}
