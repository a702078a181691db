package tools

import (
	"context"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
)

func TestRegisterAndList(t *testing.T) {
	const (
		toolA = "test_tool"
		toolB = "other_tool"
	)

	called := false
	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		called = true
		return mcp.NewToolResultText("ok"), nil
	}

	r := NewToolHandlerRegistry(Tool{Definition: mcp.NewTool(toolA), Handler: handler})

	registered := r.Tools()
	if len(registered) != 1 {
		t.Fatalf("expected 1 tool, got %d", len(registered))
	}

	var req mcp.CallToolRequest
	res, err := registered[0].Handler(context.Background(), req)
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if res == nil {
		t.Fatalf("expected non-nil result")
	}
	if !called {
		t.Fatalf("expected handler to be called")
	}

	handler2 := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultText("ok2"), nil
	}
	r.Register(Tool{Definition: mcp.NewTool(toolB), Handler: handler2})

	all := r.Tools()
	if len(all) != 2 {
		t.Fatalf("expected 2 tools, got %d", len(all))
	}
	if all[0].Definition.Name != toolA || all[1].Definition.Name != toolB {
		t.Fatalf("expected registration order to be kept, got %s, %s", all[0].Definition.Name, all[1].Definition.Name)
	}
}

func TestRegisterReplacesExisting(t *testing.T) {
	r := NewToolHandlerRegistry()
	first := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultText("first"), nil
	}
	second := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultText("second"), nil
	}

	r.Register(Tool{Definition: mcp.NewTool("t"), Handler: first})
	r.Register(Tool{Definition: mcp.NewTool("t"), Handler: second})

	registered := r.Tools()
	if len(registered) != 1 {
		t.Fatalf("expected replacement, got %d tools", len(registered))
	}
	res, _ := registered[0].Handler(context.Background(), mcp.CallToolRequest{})
	if text := res.Content[0].(mcp.TextContent).Text; text != "second" {
		t.Fatalf("expected second handler, got %s", text)
	}
}

func TestToolsEmptyRegistry(t *testing.T) {
	if got := NewToolHandlerRegistry().Tools(); len(got) != 0 {
		t.Fatalf("expected no tools, got %d", len(got))
	}
}
