package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/AltairaLabs/mermaider-mcp/internal/config"
	"github.com/AltairaLabs/mermaider-mcp/internal/types"
)

const (
	// parseFn throws when the source is not a valid diagram
	parseFn Function = `async (mermaid, text) => {
  await mermaid.parse(text);
  return true;
}`

	// renderFn returns the SVG markup and removes the scratch elements the
	// engine leaves in the document when rendering fails
	renderFn Function = `async (mermaid, id, text) => {
  try {
    const { svg } = await mermaid.render(id, text);
    return svg;
  } finally {
    for (const stale of [id, "d" + id]) {
      const el = document.getElementById(stale);
      if (el) el.remove();
    }
  }
}`
)

// Engine is the diagram engine capability bound in the page.
type Engine struct {
	invoker *Invoker
	newID   func() string
}

// Option configures an Engine
type Option func(*Engine)

// WithIDGenerator overrides how render element ids are generated.
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) { e.newID = fn }
}

// New creates an engine capability from an invoker bound to the engine handle.
func New(invoker *Invoker, opts ...Option) *Engine {
	e := &Engine{
		invoker: invoker,
		newID:   func() string { return "mermaider-" + uuid.NewString() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Parse checks the syntax of source.
func (e *Engine) Parse(ctx context.Context, source string) (*types.Outcome, error) {
	res, err := e.invoker.Invoke(ctx, parseFn, source)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	if !res.OK {
		return types.Invalid(failureMessage(res)), nil
	}
	return &types.Outcome{Valid: true}, nil
}

// Render renders source to SVG markup.
func (e *Engine) Render(ctx context.Context, source string) (*types.Outcome, error) {
	res, err := e.invoker.Invoke(ctx, renderFn, e.newID(), source)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	if !res.OK {
		return types.Invalid(failureMessage(res)), nil
	}

	var svg string
	if err := res.Decode(&svg); err != nil {
		return nil, fmt.Errorf("render: %w: %v", ErrMalformedResult, err)
	}
	return &types.Outcome{Valid: true, SVG: svg}, nil
}

func failureMessage(res Result) string {
	if res.Error == "" {
		return config.ErrUnknownEngineFailure
	}
	return res.Error
}
