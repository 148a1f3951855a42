package mcp

import (
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// jsonResponse renders a tool result as one JSON text block.
func jsonResponse(data interface{}) (*mcp.CallToolResult, error) {
	content, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal response: %w", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(content)},
		},
	}, nil
}

// errorResponse reports a tool-level failure inside the result, per the MCP
// convention that tool errors are results with IsError set rather than
// protocol errors.
func errorResponse(operation string, err error) (*mcp.CallToolResult, error) {
	res, marshalErr := jsonResponse(map[string]interface{}{
		"success":   false,
		"operation": operation,
		"error":     err.Error(),
	})
	if marshalErr != nil {
		return nil, marshalErr
	}
	res.IsError = true
	return res, nil
}
