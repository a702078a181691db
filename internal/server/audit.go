package server

import (
	"context"
	"log/slog"
	"sort"

	"github.com/AltairaLabs/mermaider-mcp/internal/types"
)

// AuditLogger handles audit logging for MCP tool calls
type AuditLogger struct {
	logger *slog.Logger
}

// NewAuditLogger creates a new audit logger
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return &AuditLogger{
		logger: logger,
	}
}

// LogToolCall logs a tool invocation. Only argument names are recorded;
// diagram sources can be large.
func (al *AuditLogger) LogToolCall(ctx context.Context, entry *types.AuditEntry) {
	al.logger.InfoContext(ctx, "tool_call",
		"tool_name", entry.ToolName,
		"arguments", argumentNames(entry.Arguments),
	)
}

// LogToolResult logs a tool execution result
func (al *AuditLogger) LogToolResult(ctx context.Context, entry *types.AuditEntry) {
	if entry.ErrorMsg != "" {
		al.logger.ErrorContext(ctx, "tool_error",
			"tool_name", entry.ToolName,
			"error", entry.ErrorMsg,
			"duration_ms", entry.Duration.Milliseconds(),
		)
		return
	}
	al.logger.InfoContext(ctx, "tool_result",
		"tool_name", entry.ToolName,
		"duration_ms", entry.Duration.Milliseconds(),
	)
}

func argumentNames(args map[string]interface{}) []string {
	names := make([]string, 0, len(args))
	for name := range args {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
