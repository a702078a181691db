// Package tools holds the MCP tool definitions and their handlers
package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// ToolHandlerFunc is a function that handles a tool call
type ToolHandlerFunc func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)

// Tool pairs a tool definition with its handler
type Tool struct {
	Definition mcp.Tool
	Handler    ToolHandlerFunc
}

// ToolHandlerRegistry maps tool names to tools, keeping registration order
type ToolHandlerRegistry struct {
	tools map[string]Tool
	order []string
}

// NewToolHandlerRegistry creates a registry holding the given tools
func NewToolHandlerRegistry(initial ...Tool) *ToolHandlerRegistry {
	r := &ToolHandlerRegistry{
		tools: make(map[string]Tool),
	}
	for _, t := range initial {
		r.Register(t)
	}
	return r
}

// Register adds or replaces a tool
func (r *ToolHandlerRegistry) Register(tool Tool) {
	name := tool.Definition.Name
	if _, exists := r.tools[name]; !exists {
		r.order = append(r.order, name)
	}
	r.tools[name] = tool
}

// Tools returns the registered tools in registration order
func (r *ToolHandlerRegistry) Tools() []Tool {
	out := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name])
	}
	return out
}
