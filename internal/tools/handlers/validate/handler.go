// Package validate provides the validate_syntax tool handler implementation
package validate

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/AltairaLabs/mermaider-mcp/internal/config"
	"github.com/AltairaLabs/mermaider-mcp/internal/tools"
	"github.com/AltairaLabs/mermaider-mcp/internal/types"
)

// Handler implements the validate_syntax tool handler
type Handler struct {
	engine types.DiagramEngine
}

// NewHandler creates a new validate_syntax handler
func NewHandler(engine types.DiagramEngine) *Handler {
	return &Handler{engine: engine}
}

// Tool returns the tool definition paired with this handler
func (h *Handler) Tool() tools.Tool {
	return tools.Tool{
		Definition: mcp.NewTool(config.ToolValidateSyntax,
			mcp.WithDescription("Validates Mermaid diagram syntax. Returns an empty text result on success, "+
				"or an error result whose content is the parser message."),
			mcp.WithString(config.ArgDiagramCode,
				mcp.Required(),
				mcp.Description("The Mermaid diagram code to validate"),
			),
		),
		Handler: h.Handle,
	}
}

// Handle checks the diagram source. A valid diagram yields an empty text
// block; an invalid one yields an error result carrying the engine message.
func (h *Handler) Handle(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	source, err := request.RequireString(config.ArgDiagramCode)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	outcome, err := h.engine.Parse(ctx, source)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !outcome.Valid {
		return mcp.NewToolResultError(outcome.Message), nil
	}
	return mcp.NewToolResultText(""), nil
}
