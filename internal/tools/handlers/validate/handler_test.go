package validate

import (
	"context"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/AltairaLabs/mermaider-mcp/internal/config"
	"github.com/AltairaLabs/mermaider-mcp/internal/types"
)

type fakeEngine struct {
	outcome *types.Outcome
	err     error
	sources []string
}

func (f *fakeEngine) Parse(ctx context.Context, source string) (*types.Outcome, error) {
	f.sources = append(f.sources, source)
	return f.outcome, f.err
}

func (f *fakeEngine) Render(ctx context.Context, source string) (*types.Outcome, error) {
	return nil, errors.New("not used")
}

func request(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Name = config.ToolValidateSyntax
	req.Params.Arguments = args
	return req
}

func textOf(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) != 1 {
		t.Fatalf("Expected one content block, got %d", len(res.Content))
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("Expected text content, got %T", res.Content[0])
	}
	return text.Text
}

func TestHandle(t *testing.T) {
	tests := []struct {
		name      string
		engine    *fakeEngine
		args      map[string]any
		wantError bool
		wantText  string
	}{
		{
			name:     "valid diagram",
			engine:   &fakeEngine{outcome: &types.Outcome{Valid: true}},
			args:     map[string]any{config.ArgDiagramCode: "graph TD; A-->B"},
			wantText: "",
		},
		{
			name:      "invalid diagram",
			engine:    &fakeEngine{outcome: types.Invalid("Parse error on line 1")},
			args:      map[string]any{config.ArgDiagramCode: "graph TD; A-->"},
			wantError: true,
			wantText:  "Parse error on line 1",
		},
		{
			name:      "boundary failure",
			engine:    &fakeEngine{err: errors.New("parse: target closed")},
			args:      map[string]any{config.ArgDiagramCode: "graph TD; A-->B"},
			wantError: true,
			wantText:  "parse: target closed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(tt.engine)
			res, err := h.Handle(context.Background(), request(tt.args))
			if err != nil {
				t.Fatalf("Handler must not return Go errors, got %v", err)
			}
			if res.IsError != tt.wantError {
				t.Errorf("Expected IsError=%v, got %v", tt.wantError, res.IsError)
			}
			if got := textOf(t, res); got != tt.wantText {
				t.Errorf("Expected text %q, got %q", tt.wantText, got)
			}
			if len(tt.engine.sources) != 1 || tt.engine.sources[0] != tt.args[config.ArgDiagramCode] {
				t.Errorf("Expected source to be passed through, got %v", tt.engine.sources)
			}
		})
	}
}

func TestHandle_MissingArgument(t *testing.T) {
	engine := &fakeEngine{}
	res, err := NewHandler(engine).Handle(context.Background(), request(map[string]any{}))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !res.IsError {
		t.Error("Expected error result for missing argument")
	}
	if len(engine.sources) != 0 {
		t.Error("Expected engine not to be called")
	}
}

func TestTool(t *testing.T) {
	tool := NewHandler(&fakeEngine{}).Tool()
	if tool.Definition.Name != config.ToolValidateSyntax {
		t.Errorf("Unexpected tool name: %s", tool.Definition.Name)
	}
	if len(tool.Definition.InputSchema.Required) != 1 || tool.Definition.InputSchema.Required[0] != config.ArgDiagramCode {
		t.Errorf("Expected %s to be required, got %v", config.ArgDiagramCode, tool.Definition.InputSchema.Required)
	}
	if tool.Handler == nil {
		t.Error("Expected handler to be set")
	}
}
