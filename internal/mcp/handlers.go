package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.lsp.dev/uri"

	"github.com/vcltools/vci/internal/types"
)

type positionParams struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
}

// resolve converts tool params to the engine's coordinate space: file paths
// become URIs, 1-based lines and columns become 0-based.
func (s *Server) resolve(p positionParams) (string, types.Position) {
	path := p.File
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.cfg.Project.Root, path)
	}
	return string(uri.File(path)), types.Position{Line: p.Line - 1, Character: p.Column - 1}
}

// location renders an engine location in tool coordinates (path plus
// 1-based line/column).
func (s *Server) location(loc types.Location) map[string]interface{} {
	path := loc.URI
	if parsed, err := uri.Parse(loc.URI); err == nil {
		path = parsed.Filename()
	}
	return map[string]interface{}{
		"file":       path,
		"line":       loc.Range.Start.Line + 1,
		"column":     loc.Range.Start.Character + 1,
		"end_line":   loc.Range.End.Line + 1,
		"end_column": loc.Range.End.Character + 1,
	}
}

func (s *Server) handleSymbols(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params struct {
		File  string `json:"file"`
		Query string `json:"query"`
	}
	if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
		return errorResponse("vcl_symbols", fmt.Errorf("invalid parameters: %w", err))
	}

	if params.File != "" {
		docURI, _ := s.resolve(positionParams{File: params.File})
		syms := s.engine.DocumentSymbols(docURI)
		return jsonResponse(map[string]interface{}{
			"file":    params.File,
			"symbols": renderSymbols(syms),
		})
	}

	infos := s.engine.WorkspaceSymbols(params.Query, s.cfg.Engine.WorkspaceSymbolLimit)
	out := make([]map[string]interface{}, 0, len(infos))
	for _, info := range infos {
		entry := s.location(info.Location)
		entry["name"] = info.Name
		entry["kind"] = info.Kind.String()
		if info.ContainerName != "" {
			entry["container"] = info.ContainerName
		}
		out = append(out, entry)
	}
	return jsonResponse(map[string]interface{}{"symbols": out})
}

func renderSymbols(syms []types.Symbol) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(syms))
	for _, sym := range syms {
		entry := map[string]interface{}{
			"name":   sym.Name,
			"kind":   sym.Kind.String(),
			"line":   sym.SelectionRange.Start.Line + 1,
			"column": sym.SelectionRange.Start.Character + 1,
		}
		if len(sym.Children) > 0 {
			entry["children"] = renderSymbols(sym.Children)
		}
		out = append(out, entry)
	}
	return out
}

func (s *Server) handleDefinition(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params positionParams
	if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
		return errorResponse("vcl_definition", fmt.Errorf("invalid parameters: %w", err))
	}
	docURI, pos := s.resolve(params)
	loc := s.engine.Definition(docURI, pos)
	if loc == nil {
		return jsonResponse(map[string]interface{}{"found": false})
	}
	result := s.location(*loc)
	result["found"] = true
	return jsonResponse(result)
}

func (s *Server) handleReferences(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params struct {
		positionParams
		IncludeDeclaration *bool `json:"include_declaration"`
	}
	if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
		return errorResponse("vcl_references", fmt.Errorf("invalid parameters: %w", err))
	}
	include := true
	if params.IncludeDeclaration != nil {
		include = *params.IncludeDeclaration
	}
	docURI, pos := s.resolve(params.positionParams)
	locs := s.engine.References(docURI, pos, include)
	out := make([]map[string]interface{}, 0, len(locs))
	for _, loc := range locs {
		out = append(out, s.location(loc))
	}
	return jsonResponse(map[string]interface{}{
		"count":      len(out),
		"references": out,
	})
}

func (s *Server) handleRename(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params struct {
		positionParams
		NewName string `json:"new_name"`
	}
	if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
		return errorResponse("vcl_rename", fmt.Errorf("invalid parameters: %w", err))
	}
	if params.NewName == "" {
		return errorResponse("vcl_rename", fmt.Errorf("new_name is required"))
	}

	docURI, pos := s.resolve(params.positionParams)
	edit := s.engine.Rename(docURI, pos, params.NewName)
	if edit == nil {
		return jsonResponse(map[string]interface{}{
			"renamed": false,
			"reason":  "target is protected, already has that name, or nothing resolvable is at the position",
		})
	}

	changes := make(map[string][]map[string]interface{}, len(edit.Changes))
	for docURI, edits := range edit.Changes {
		path := docURI
		if parsed, err := uri.Parse(docURI); err == nil {
			path = parsed.Filename()
		}
		rendered := make([]map[string]interface{}, 0, len(edits))
		for _, e := range edits {
			rendered = append(rendered, map[string]interface{}{
				"line":       e.Range.Start.Line + 1,
				"column":     e.Range.Start.Character + 1,
				"end_line":   e.Range.End.Line + 1,
				"end_column": e.Range.End.Character + 1,
				"new_text":   e.NewText,
			})
		}
		changes[path] = rendered
	}
	return jsonResponse(map[string]interface{}{
		"renamed": true,
		"changes": changes,
	})
}

func (s *Server) handleDiagnostics(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params struct {
		File string `json:"file"`
	}
	if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
		return errorResponse("vcl_diagnostics", fmt.Errorf("invalid parameters: %w", err))
	}
	docURI, _ := s.resolve(positionParams{File: params.File})
	diags := s.engine.Diagnostics(docURI)
	out := make([]map[string]interface{}, 0, len(diags))
	for _, d := range diags {
		out = append(out, map[string]interface{}{
			"message":  d.Message,
			"severity": int(d.Severity),
			"line":     d.Span.Line + 1,
			"column":   d.Span.Character + 1,
			"rule_id":  d.RuleID,
		})
	}
	return jsonResponse(map[string]interface{}{
		"file":        params.File,
		"diagnostics": out,
	})
}
