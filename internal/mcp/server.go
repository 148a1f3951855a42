// Package mcp exposes the intelligence engine to coding agents over the
// Model Context Protocol: symbol queries, navigation, and renames as tools
// on a stdio transport.
package mcp

import (
	"context"
	"fmt"
	"log"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/vcltools/vci/internal/config"
	"github.com/vcltools/vci/internal/intel"
	"github.com/vcltools/vci/internal/version"
	"github.com/vcltools/vci/internal/workspace"
)

// Server wraps the MCP stdio server around an indexed workspace.
type Server struct {
	cfg    *config.Config
	engine *intel.Engine
	server *mcp.Server
}

// NewServer indexes the workspace and registers the tool set.
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	engine := intel.NewEngine(intel.DefaultOracle())
	scanner := workspace.NewScanner(cfg, engine)
	n, err := scanner.Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("index workspace: %w", err)
	}
	log.Printf("mcp: indexed %d files under %s", n, cfg.Project.Root)

	s := &Server{
		cfg:    cfg,
		engine: engine,
		server: mcp.NewServer(&mcp.Implementation{
			Name:    "vci-mcp-server",
			Version: version.Version,
		}, nil),
	}
	s.registerTools()
	return s, nil
}

// Run serves on stdio until the context ends.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) registerTools() {
	fileProp := &jsonschema.Schema{
		Type:        "string",
		Description: "VCL file path, absolute or relative to the project root",
	}
	lineProp := &jsonschema.Schema{
		Type:        "integer",
		Description: "1-based line number",
	}
	columnProp := &jsonschema.Schema{
		Type:        "integer",
		Description: "1-based column number",
	}

	s.server.AddTool(&mcp.Tool{
		Name:        "vcl_symbols",
		Description: "List declared symbols. With a file: the file's outline (acls, backends, tables, subroutines, locals). Without: a workspace-wide name search.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"file": fileProp,
				"query": {
					Type:        "string",
					Description: "Case-insensitive substring filter on symbol names",
				},
			},
		},
	}, s.handleSymbols)

	s.server.AddTool(&mcp.Tool{
		Name:        "vcl_definition",
		Description: "Resolve the declaration site of the symbol at a position.",
		InputSchema: &jsonschema.Schema{
			Type:     "object",
			Required: []string{"file", "line", "column"},
			Properties: map[string]*jsonschema.Schema{
				"file":   fileProp,
				"line":   lineProp,
				"column": columnProp,
			},
		},
	}, s.handleDefinition)

	s.server.AddTool(&mcp.Tool{
		Name:        "vcl_references",
		Description: "List every occurrence of the symbol at a position.",
		InputSchema: &jsonschema.Schema{
			Type:     "object",
			Required: []string{"file", "line", "column"},
			Properties: map[string]*jsonschema.Schema{
				"file":   fileProp,
				"line":   lineProp,
				"column": columnProp,
				"include_declaration": {
					Type:        "boolean",
					Description: "Include the declaration site itself (default true)",
				},
			},
		},
	}, s.handleReferences)

	s.server.AddTool(&mcp.Tool{
		Name:        "vcl_rename",
		Description: "Compute the edit set renaming the symbol at a position. Does not modify files; returns the edits.",
		InputSchema: &jsonschema.Schema{
			Type:     "object",
			Required: []string{"file", "line", "column", "new_name"},
			Properties: map[string]*jsonschema.Schema{
				"file":   fileProp,
				"line":   lineProp,
				"column": columnProp,
				"new_name": {
					Type:        "string",
					Description: "Replacement name",
				},
			},
		},
	}, s.handleRename)

	s.server.AddTool(&mcp.Tool{
		Name:        "vcl_diagnostics",
		Description: "Report parse diagnostics for one file.",
		InputSchema: &jsonschema.Schema{
			Type:     "object",
			Required: []string{"file"},
			Properties: map[string]*jsonschema.Schema{
				"file": fileProp,
			},
		},
	}, s.handleDiagnostics)
}
