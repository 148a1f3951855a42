package ranges

import (
	"sort"
	"strings"

	"github.com/vcltools/vci/internal/textdoc"
	"github.com/vcltools/vci/internal/types"
	"github.com/vcltools/vci/internal/vast"
)

// Selection builds the expand-selection chain for one position: the
// innermost range first, each Parent strictly larger, assembled from every
// tree-node extent containing the position, the brace-inner content ranges,
// the identifier word, and the trimmed line. With no parse tree the chain
// degrades to word-then-line.
func Selection(doc *textdoc.Document, program *vast.Program, pos types.Position) *types.SelectionRange {
	var candidates []types.Range

	if word, span := doc.WordSpanAt(pos); word != "" {
		candidates = append(candidates, span.Range())
	}
	if line := trimmedLineRange(doc, pos.Line); line != nil {
		candidates = append(candidates, *line)
	}

	if program != nil {
		vast.Walk(program, func(n vast.Node) bool {
			r := vast.NodeRange(n)
			if !r.Contains(pos) {
				// Subtrees of a non-containing node cannot contain pos.
				return false
			}
			candidates = append(candidates, r)
			if inner := blockInner(n); inner != nil && inner.Contains(pos) {
				candidates = append(candidates, *inner)
			}
			return true
		})
	}

	kept := candidates[:0]
	for _, r := range candidates {
		if r.Contains(pos) {
			kept = append(kept, r)
		}
	}
	if len(kept) == 0 {
		return nil
	}

	size := func(r types.Range) int {
		return doc.Offset(r.End) - doc.Offset(r.Start)
	}
	sort.Slice(kept, func(i, j int) bool {
		return size(kept[i]) < size(kept[j])
	})

	// Smallest first; dedup identical spans, then chain outward.
	var chain *types.SelectionRange
	var tail *types.SelectionRange
	var prev *types.Range
	for i := range kept {
		r := kept[i]
		if prev != nil && r == *prev {
			continue
		}
		link := &types.SelectionRange{Range: r}
		if chain == nil {
			chain = link
		} else {
			tail.Parent = link
		}
		tail = link
		prev = &kept[i]
	}
	return chain
}

// SelectionAll maps Selection over a batch of positions, one chain each;
// positions that yield nothing produce a nil entry at the same index.
func SelectionAll(doc *textdoc.Document, program *vast.Program, positions []types.Position) []*types.SelectionRange {
	out := make([]*types.SelectionRange, len(positions))
	for i, pos := range positions {
		out[i] = Selection(doc, program, pos)
	}
	return out
}

// blockInner returns the content range between a node's braces, exclusive
// of the delimiters, for node kinds that carry a closing-brace token.
func blockInner(n vast.Node) *types.Range {
	var open, close vast.Token
	switch node := n.(type) {
	case *vast.BlockStatement:
		open, close = node.Tok, node.End
	case *vast.BackendObject:
		open, close = node.Tok, node.End
	case *vast.DirectorBackend:
		open, close = node.Tok, node.End
	case *vast.AclDeclaration:
		return bodyInner(node.Name, node.End)
	case *vast.BackendDeclaration:
		return bodyInner(node.Name, node.End)
	case *vast.DirectorDeclaration:
		return bodyInner(node.DirectorType, node.End)
	case *vast.TableDeclaration:
		return bodyInner(node.Name, node.End)
	default:
		return nil
	}
	if close.Line == 0 {
		return nil
	}
	return &types.Range{
		Start: types.Position{Line: open.Line - 1, Character: open.Column},
		End:   types.Position{Line: close.Line - 1, Character: close.Column - 1},
	}
}

// bodyInner approximates a declaration's inner range as "after the last
// header token through just before the closing brace".
func bodyInner(lastHeader *vast.Ident, close vast.Token) *types.Range {
	if lastHeader == nil || close.Line == 0 {
		return nil
	}
	span := lastHeader.Tok.Span()
	return &types.Range{
		Start: span.End(),
		End:   types.Position{Line: close.Line - 1, Character: close.Column - 1},
	}
}

func trimmedLineRange(doc *textdoc.Document, line int) *types.Range {
	text := doc.LineAt(line)
	if strings.TrimSpace(text) == "" {
		return nil
	}
	start := len(text) - len(strings.TrimLeft(text, " \t"))
	end := len(strings.TrimRight(text, " \t"))
	return &types.Range{
		Start: types.Position{Line: line, Character: start},
		End:   types.Position{Line: line, Character: end},
	}
}
