// Package server exposes the diagram tools over MCP.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/AltairaLabs/mermaider-mcp/internal/config"
	"github.com/AltairaLabs/mermaider-mcp/internal/tools"
	"github.com/AltairaLabs/mermaider-mcp/internal/types"
)

// MCPServer wraps the mcp-go server with tool dispatch
type MCPServer struct {
	server       *mcpserver.MCPServer
	toolRegistry *tools.ToolHandlerRegistry
	auditLogger  types.AuditLogger
	recorder     types.ToolRecorder
	logger       *slog.Logger

	// mu serializes tool calls; the engine runs one call at a time.
	mu       sync.Mutex
	draining atomic.Bool
}

// Config holds configuration for the MCP server
type Config struct {
	Name    string
	Version string
}

// NewMCPServer creates and configures a new MCP server. recorder may be nil.
func NewMCPServer(
	cfg Config,
	registry *tools.ToolHandlerRegistry,
	audit types.AuditLogger,
	recorder types.ToolRecorder,
	logger *slog.Logger,
) *MCPServer {
	if logger == nil {
		logger = slog.Default()
	}

	mcpServer := mcpserver.NewMCPServer(
		cfg.Name,
		cfg.Version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithRecovery(),
	)

	ms := &MCPServer{
		server:       mcpServer,
		toolRegistry: registry,
		auditLogger:  audit,
		recorder:     recorder,
		logger:       logger,
	}

	ms.registerTools()

	return ms
}

// registerTools registers every tool in the registry with the mcp-go server
func (ms *MCPServer) registerTools() {
	for _, t := range ms.toolRegistry.Tools() {
		ms.server.AddTool(t.Definition, ms.dispatch(t.Definition.Name, t.Handler))
	}
}

// dispatch wraps a handler so that calls are serialized, audited and
// recorded, and so that nothing it does escapes as anything but an error
// result.
func (ms *MCPServer) dispatch(name string, handler tools.ToolHandlerFunc) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (result *mcp.CallToolResult, err error) {
		if ms.draining.Load() {
			return mcp.NewToolResultError(config.ErrShuttingDown), nil
		}

		ms.mu.Lock()
		defer ms.mu.Unlock()

		// Calls queued behind an in-flight one may have waited past Drain.
		if ms.draining.Load() {
			return mcp.NewToolResultError(config.ErrShuttingDown), nil
		}

		ms.auditLogger.LogToolCall(ctx, &types.AuditEntry{
			ToolName:  name,
			Arguments: request.GetArguments(),
		})

		start := time.Now()
		defer func() {
			if r := recover(); r != nil {
				ms.logger.ErrorContext(ctx, "PANIC in tool handler", "tool_name", name, "panic", r)
				result = mcp.NewToolResultError(fmt.Sprintf("%s: %v", config.ErrToolPanic, r))
				err = nil
			}

			duration := time.Since(start)
			entry := &types.AuditEntry{ToolName: name, Duration: duration}
			if result.IsError {
				entry.ErrorMsg = resultText(result)
			}
			ms.auditLogger.LogToolResult(ctx, entry)
			if ms.recorder != nil {
				ms.recorder.ObserveToolCall(name, result.IsError, duration)
			}
		}()

		result, err = handler(ctx, request)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if result == nil {
			return mcp.NewToolResultError(config.ErrUnknownEngineFailure), nil
		}
		return result, nil
	}
}

// Drain makes every later tool call fail fast, including calls queued behind
// the one in flight. The call already running completes.
func (ms *MCPServer) Drain() {
	if ms.draining.CompareAndSwap(false, true) {
		ms.logger.Info("Rejecting new tool calls")
	}
}

// Listen serves MCP over the given streams until in is exhausted or ctx is
// cancelled. Both count as a clean close of the transport.
func (ms *MCPServer) Listen(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := mcpserver.NewStdioServer(ms.server)
	stdio.SetErrorLogger(slog.NewLogLogger(ms.logger.Handler(), slog.LevelError))

	ms.logger.Info("Starting MCP server with stdio transport")
	err := stdio.Listen(ctx, in, out)
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
		ms.logger.Info("MCP transport closed")
		return nil
	}
	return fmt.Errorf("mcp transport: %w", err)
}

func resultText(result *mcp.CallToolResult) string {
	var parts []string
	for _, c := range result.Content {
		if text, ok := c.(mcp.TextContent); ok {
			parts = append(parts, text.Text)
		}
	}
	if len(parts) == 0 {
		return config.ErrUnknownEngineFailure
	}
	return strings.Join(parts, "\n")
}
