// Package types provides shared types used across the mermaider-mcp codebase
package types

import (
	"context"
	"time"
)

// Outcome is the result of a parse or render call into the diagram engine.
// Exactly one of the payload fields or Message is set: a valid outcome
// carries SVG (and PNG once rasterized), an invalid one carries Message.
// Parse outcomes carry only Valid and, when invalid, Message.
type Outcome struct {
	Valid   bool
	SVG     string
	PNG     []byte
	Message string
}

// Invalid returns an outcome describing an engine failure
func Invalid(message string) *Outcome {
	return &Outcome{Valid: false, Message: message}
}

// DiagramEngine provides the operations of the diagram engine bound in the page
type DiagramEngine interface {
	Parse(ctx context.Context, source string) (*Outcome, error)
	Render(ctx context.Context, source string) (*Outcome, error)
}

// ImageConverter turns vector markup into a raster image
type ImageConverter interface {
	Convert(ctx context.Context, markup string) ([]byte, error)
}

// OutcomeCache stores render outcomes keyed by format and source
type OutcomeCache interface {
	Get(key string) (*Outcome, bool)
	Store(key string, outcome *Outcome)
}

// AuditEntry represents an audit log entry for tool calls and results
type AuditEntry struct {
	ToolName  string
	Arguments map[string]interface{}
	ErrorMsg  string
	Duration  time.Duration
}

// AuditLogger provides audit logging operations
type AuditLogger interface {
	LogToolCall(ctx context.Context, entry *AuditEntry)
	LogToolResult(ctx context.Context, entry *AuditEntry)
}

// ToolRecorder records tool call metrics
type ToolRecorder interface {
	ObserveToolCall(tool string, isError bool, duration time.Duration)
}
