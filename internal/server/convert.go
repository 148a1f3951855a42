package server

import (
	"go.lsp.dev/protocol"

	"github.com/vcltools/vci/internal/types"
)

func fromProtocolPosition(p protocol.Position) types.Position {
	return types.Position{Line: int(p.Line), Character: int(p.Character)}
}

func toProtocolPosition(p types.Position) protocol.Position {
	return protocol.Position{Line: uint32(p.Line), Character: uint32(p.Character)}
}

func toProtocolRange(r types.Range) protocol.Range {
	return protocol.Range{Start: toProtocolPosition(r.Start), End: toProtocolPosition(r.End)}
}

func fromProtocolRangePtr(r *protocol.Range) *types.Range {
	if r == nil {
		return nil
	}
	out := types.Range{
		Start: fromProtocolPosition(r.Start),
		End:   fromProtocolPosition(r.End),
	}
	return &out
}

func toProtocolLocation(loc types.Location) protocol.Location {
	return protocol.Location{
		URI:   protocol.DocumentURI(loc.URI),
		Range: toProtocolRange(loc.Range),
	}
}

func toProtocolSymbolKind(kind types.SymbolKind) protocol.SymbolKind {
	switch kind {
	case types.SymbolSubroutine:
		return protocol.SymbolKindFunction
	case types.SymbolLocalVariable:
		return protocol.SymbolKindVariable
	case types.SymbolTable:
		return protocol.SymbolKindObject
	case types.SymbolBackend, types.SymbolDirector:
		return protocol.SymbolKindClass
	case types.SymbolAcl:
		return protocol.SymbolKindArray
	case types.SymbolRateCounter, types.SymbolPenaltyBox:
		return protocol.SymbolKindNumber
	case types.SymbolInclude:
		return protocol.SymbolKindModule
	}
	return protocol.SymbolKindNull
}

func toProtocolDocumentSymbols(syms []types.Symbol) []protocol.DocumentSymbol {
	out := make([]protocol.DocumentSymbol, 0, len(syms))
	for _, s := range syms {
		out = append(out, protocol.DocumentSymbol{
			Name:           s.Name,
			Detail:         s.Kind.String(),
			Kind:           toProtocolSymbolKind(s.Kind),
			Range:          toProtocolRange(s.DefiningRange),
			SelectionRange: toProtocolRange(s.SelectionRange),
			Children:       toProtocolDocumentSymbols(s.Children),
		})
	}
	return out
}

func toProtocolDiagnostic(d types.Diagnostic) protocol.Diagnostic {
	return protocol.Diagnostic{
		Range:    toProtocolRange(d.Span.Range()),
		Severity: protocol.DiagnosticSeverity(d.Severity),
		Source:   "vci",
		Message:  d.Message,
	}
}
