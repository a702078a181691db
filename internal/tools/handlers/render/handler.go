// Package render provides the render_diagram tool handler implementation
package render

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"slices"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/AltairaLabs/mermaider-mcp/internal/cache"
	"github.com/AltairaLabs/mermaider-mcp/internal/config"
	"github.com/AltairaLabs/mermaider-mcp/internal/tools"
	"github.com/AltairaLabs/mermaider-mcp/internal/types"
)

// Handler implements the render_diagram tool handler
type Handler struct {
	engine    types.DiagramEngine
	converter types.ImageConverter
	cache     types.OutcomeCache
	logger    *slog.Logger
}

// NewHandler creates a new render_diagram handler. outcomes may be nil, in
// which case every call reaches the engine.
func NewHandler(
	engine types.DiagramEngine,
	converter types.ImageConverter,
	outcomes types.OutcomeCache,
	logger *slog.Logger,
) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		engine:    engine,
		converter: converter,
		cache:     outcomes,
		logger:    logger,
	}
}

// Tool returns the tool definition paired with this handler
func (h *Handler) Tool() tools.Tool {
	return tools.Tool{
		Definition: mcp.NewTool(config.ToolRenderDiagram,
			mcp.WithDescription("Renders a Mermaid diagram to SVG or PNG"),
			mcp.WithString(config.ArgDiagramText,
				mcp.Required(),
				mcp.Description("The Mermaid diagram code to render"),
			),
			mcp.WithString(config.ArgOutputFormat,
				mcp.Required(),
				mcp.Enum(config.OutputFormats()...),
				mcp.Description("Output image format"),
			),
		),
		Handler: h.Handle,
	}
}

// Handle renders the diagram in the requested format
func (h *Handler) Handle(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	source, err := request.RequireString(config.ArgDiagramText)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	format, err := request.RequireString(config.ArgOutputFormat)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !slices.Contains(config.OutputFormats(), format) {
		return mcp.NewToolResultError(fmt.Sprintf(config.ErrUnsupportedFormat, format)), nil
	}

	key := cache.Key(format, source)
	if h.cache != nil {
		if outcome, ok := h.cache.Get(key); ok {
			h.logger.DebugContext(ctx, "Render cache hit", "format", format)
			return toResult(format, outcome), nil
		}
	}

	outcome, err := h.render(ctx, format, source)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !outcome.Valid {
		return mcp.NewToolResultError(outcome.Message), nil
	}

	if h.cache != nil {
		h.cache.Store(key, outcome)
	}
	return toResult(format, outcome), nil
}

func (h *Handler) render(ctx context.Context, format, source string) (*types.Outcome, error) {
	outcome, err := h.engine.Render(ctx, source)
	if err != nil || !outcome.Valid || format != config.FormatPNG {
		return outcome, err
	}

	png, err := h.converter.Convert(ctx, outcome.SVG)
	if err != nil {
		return nil, fmt.Errorf("convert: %w", err)
	}
	return &types.Outcome{Valid: true, SVG: outcome.SVG, PNG: png}, nil
}

func toResult(format string, outcome *types.Outcome) *mcp.CallToolResult {
	if format == config.FormatPNG {
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				mcp.NewImageContent(base64.StdEncoding.EncodeToString(outcome.PNG), config.MimeTypePNG),
			},
		}
	}
	return mcp.NewToolResultText(outcome.SVG)
}
