package server

import (
	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"

	"github.com/vcltools/vci/internal/semtok"
	"github.com/vcltools/vci/internal/types"
)

func (s *Server) definition(params protocol.DefinitionParams) (interface{}, error) {
	loc := s.engine.Definition(string(params.TextDocument.URI), fromProtocolPosition(params.Position))
	if loc == nil {
		return nil, nil
	}
	return []protocol.Location{toProtocolLocation(*loc)}, nil
}

func (s *Server) references(params protocol.ReferenceParams) (interface{}, error) {
	locs := s.engine.References(
		string(params.TextDocument.URI),
		fromProtocolPosition(params.Position),
		params.Context.IncludeDeclaration,
	)
	out := make([]protocol.Location, 0, len(locs))
	for _, loc := range locs {
		out = append(out, toProtocolLocation(loc))
	}
	return out, nil
}

func (s *Server) documentHighlight(params protocol.DocumentHighlightParams) (interface{}, error) {
	highlights := s.engine.Highlights(string(params.TextDocument.URI), fromProtocolPosition(params.Position))
	out := make([]protocol.DocumentHighlight, 0, len(highlights))
	for _, h := range highlights {
		kind := protocol.DocumentHighlightKindRead
		if h.IsWrite {
			kind = protocol.DocumentHighlightKindWrite
		}
		out = append(out, protocol.DocumentHighlight{
			Range: toProtocolRange(h.Range),
			Kind:  kind,
		})
	}
	return out, nil
}

// prepareRenameResult is the {range, placeholder} response form.
type prepareRenameResult struct {
	Range       protocol.Range `json:"range"`
	Placeholder string         `json:"placeholder"`
}

func (s *Server) prepareRename(params protocol.PrepareRenameParams) (interface{}, error) {
	prepared := s.engine.PrepareRename(string(params.TextDocument.URI), fromProtocolPosition(params.Position))
	if prepared == nil {
		return nil, nil
	}
	return &prepareRenameResult{
		Range:       toProtocolRange(prepared.Range),
		Placeholder: prepared.Placeholder,
	}, nil
}

func (s *Server) rename(params protocol.RenameParams) (interface{}, error) {
	edit := s.engine.Rename(string(params.TextDocument.URI), fromProtocolPosition(params.Position), params.NewName)
	if edit == nil {
		return nil, nil
	}
	changes := make(map[uri.URI][]protocol.TextEdit, len(edit.Changes))
	for docURI, edits := range edit.Changes {
		converted := make([]protocol.TextEdit, 0, len(edits))
		for _, e := range edits {
			converted = append(converted, protocol.TextEdit{
				Range:   toProtocolRange(e.Range),
				NewText: e.NewText,
			})
		}
		changes[uri.URI(docURI)] = converted
	}
	return &protocol.WorkspaceEdit{Changes: changes}, nil
}

func (s *Server) documentSymbols(params protocol.DocumentSymbolParams) (interface{}, error) {
	syms := s.engine.DocumentSymbols(string(params.TextDocument.URI))
	return toProtocolDocumentSymbols(syms), nil
}

func (s *Server) workspaceSymbols(params protocol.WorkspaceSymbolParams) (interface{}, error) {
	infos := s.engine.WorkspaceSymbols(params.Query, s.cfg.Engine.WorkspaceSymbolLimit)
	out := make([]protocol.SymbolInformation, 0, len(infos))
	for _, info := range infos {
		out = append(out, protocol.SymbolInformation{
			Name:          info.Name,
			Kind:          toProtocolSymbolKind(info.Kind),
			ContainerName: info.ContainerName,
			Location:      toProtocolLocation(info.Location),
		})
	}
	return out, nil
}

// foldingRangeResult is built locally; only startLine/endLine/kind matter.
type foldingRangeResult struct {
	StartLine int    `json:"startLine"`
	EndLine   int    `json:"endLine"`
	Kind      string `json:"kind,omitempty"`
}

func (s *Server) foldingRanges(params protocol.FoldingRangeParams) (interface{}, error) {
	folds := s.engine.FoldingRanges(string(params.TextDocument.URI))
	out := make([]foldingRangeResult, 0, len(folds))
	for _, f := range folds {
		fr := foldingRangeResult{StartLine: f.StartLine, EndLine: f.EndLine}
		if f.IsComment {
			fr.Kind = "comment"
		}
		out = append(out, fr)
	}
	return out, nil
}

// selectionRangeResult nests outward via parent, mirroring the chain shape.
type selectionRangeResult struct {
	Range  protocol.Range        `json:"range"`
	Parent *selectionRangeResult `json:"parent,omitempty"`
}

func (s *Server) selectionRanges(params protocol.SelectionRangeParams) (interface{}, error) {
	positions := make([]types.Position, 0, len(params.Positions))
	for _, p := range params.Positions {
		positions = append(positions, fromProtocolPosition(p))
	}
	chains := s.engine.SelectionRanges(string(params.TextDocument.URI), positions)

	out := make([]*selectionRangeResult, 0, len(chains))
	for i, chain := range chains {
		if chain == nil {
			// The protocol requires one result per position; an empty chain
			// degrades to a zero-width range at the query position.
			out = append(out, &selectionRangeResult{
				Range: toProtocolRange(types.Range{Start: positions[i], End: positions[i]}),
			})
			continue
		}
		out = append(out, toSelectionResult(chain))
	}
	return out, nil
}

func toSelectionResult(chain *types.SelectionRange) *selectionRangeResult {
	if chain == nil {
		return nil
	}
	return &selectionRangeResult{
		Range:  toProtocolRange(chain.Range),
		Parent: toSelectionResult(chain.Parent),
	}
}

type semanticTokensResult struct {
	Data []uint32 `json:"data"`
}

func (s *Server) semanticTokens(params protocol.SemanticTokensParams) (interface{}, error) {
	return &semanticTokensResult{Data: s.engine.SemanticTokens(string(params.TextDocument.URI))}, nil
}

func semanticTokenTypes() []string {
	return semtok.TokenTypes
}

func semanticTokenModifiers() []string {
	return semtok.TokenModifiers
}
