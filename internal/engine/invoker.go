// Package engine marshals calls into the diagram engine loaded in the
// browser page.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Evaluator runs a function in the page with the bound value as its first
// parameter. playwright.JSHandle satisfies it.
type Evaluator interface {
	Evaluate(expression string, arg ...interface{}) (interface{}, error)
}

// Function is the source of a JavaScript function taking the engine as its
// first parameter followed by the call arguments. It must not capture any
// state other than globals present in the page. Arguments and the return
// value must be JSON serializable.
type Function string

// Result is the tagged outcome of a call made inside the page.
type Result struct {
	// OK is false when the function threw inside the page
	OK bool
	// Value is the JSON encoded return value when OK
	Value json.RawMessage
	// Error is the message of the thrown error when not OK
	Error string
}

// Decode unmarshals the returned value into v.
func (r Result) Decode(v any) error {
	if !r.OK {
		return errors.New(r.Error)
	}
	return json.Unmarshal(r.Value, v)
}

// ErrMalformedResult is returned when the page answers with an unexpected shape
var ErrMalformedResult = errors.New("malformed result from page")

// wrapper turns thrown errors into a tagged result so failures inside the
// page never surface as a value of the expected type.
const wrapper = `async (engine, call) => {
  try {
    const value = await (%s)(engine, ...call.args);
    return { ok: true, value: value === undefined ? null : value };
  } catch (error) {
    const message = error && error.message ? error.message : String(error);
    return { ok: false, error: message };
  }
}`

type wireResult struct {
	OK    bool            `json:"ok"`
	Value json.RawMessage `json:"value"`
	Error string          `json:"error"`
}

// Invoker calls functions against the engine capability inside the page.
type Invoker struct {
	target Evaluator
}

// NewInvoker creates an invoker bound to the engine handle.
func NewInvoker(target Evaluator) *Invoker {
	return &Invoker{target: target}
}

// Invoke runs fn inside the page. A function that throws yields a Result
// with OK false; the returned error is reserved for failures crossing the
// boundary itself (page closed, serialization). An engine call already in
// flight is not interrupted by ctx.
func (i *Invoker) Invoke(ctx context.Context, fn Function, args ...any) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if args == nil {
		args = []any{}
	}

	raw, err := i.target.Evaluate(fmt.Sprintf(wrapper, fn), map[string]any{"args": args})
	if err != nil {
		return Result{}, fmt.Errorf("evaluate in page: %w", err)
	}

	if raw == nil {
		return Result{}, ErrMalformedResult
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrMalformedResult, err)
	}
	var wire wireResult
	if err := json.Unmarshal(data, &wire); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrMalformedResult, err)
	}
	return Result{OK: wire.OK, Value: wire.Value, Error: wire.Error}, nil
}
