package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
	"golang.org/x/sync/errgroup"

	"github.com/AltairaLabs/mermaider-mcp/internal/bundle"
	"github.com/AltairaLabs/mermaider-mcp/internal/config"
)

const rasterHostID = "mermaider-raster"

// documentHTML is the empty document scripts are attached to. The raster
// host receives markup that is screenshotted to PNG.
const documentHTML = `<!DOCTYPE html><html><head><title>Mermaider</title></head>` +
	`<body><div id="` + rasterHostID + `" style="display:block;background:white"></div></body></html>`

// registerScript registers every loaded extension with the engine.
const registerScript = `async ({ engine, extensions }) => {
  const target = globalThis[engine];
  if (!target) throw new Error("engine " + engine + " is not loaded");
  const defs = extensions.map((name) => {
    const ext = globalThis[name];
    if (!ext) throw new Error("extension " + name + " is not loaded");
    return ext;
  });
  await target.registerExternalDiagrams(defs);
}`

const mountScript = `({ id, markup }) => {
  const host = document.getElementById(id);
  host.innerHTML = markup;
  if (!host.querySelector("svg")) throw new Error("markup has no svg root");
}`

const clearScript = `(id) => { document.getElementById(id).innerHTML = ""; }`

// Page is the browser context and page the engine is loaded in. It is only
// handed out after bootstrap completed.
type Page struct {
	context playwright.BrowserContext
	page    playwright.Page
	engine  playwright.JSHandle
	logger  *slog.Logger

	mu     sync.Mutex
	closed bool
}

type openResult struct {
	page *Page
	err  error
}

// OpenPage creates a page in the session and loads the bundles into it.
// It fails with a BootstrapError after timeout; a partially created page is
// always closed before returning an error.
func (s *Session) OpenPage(ctx context.Context, bundles bundle.Bundles, timeout time.Duration) (*Page, error) {
	if timeout <= 0 {
		timeout = config.DefaultBootstrapTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan openResult, 1)
	go func() {
		p, err := s.openPage(bundles, timeout)
		done <- openResult{page: p, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return nil, r.err
		}
		return r.page, nil
	case <-ctx.Done():
		go func() {
			if r := <-done; r.page != nil {
				_ = r.page.Close()
			}
		}()
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, &BootstrapError{Step: "cancelled", Err: ctx.Err()}
		}
		return nil, &BootstrapError{Step: "timeout", Err: fmt.Errorf("bootstrap did not complete within %s: %w", timeout, ctx.Err())}
	}
}

func (s *Session) openPage(bundles bundle.Bundles, timeout time.Duration) (*Page, error) {
	bctx, err := s.browser.NewContext(s.contextOpts)
	if err != nil {
		return nil, &BootstrapError{Step: "new context", Err: err}
	}
	p := &Page{context: bctx, logger: s.logger}

	fail := func(step string, err error) (*Page, error) {
		if closeErr := p.Close(); closeErr != nil {
			s.logger.Warn("Failed to close partially created page", "error", closeErr)
		}
		return nil, &BootstrapError{Step: step, Err: err}
	}

	page, err := bctx.NewPage()
	if err != nil {
		return fail("new page", err)
	}
	p.page = page
	page.OnConsole(p.forwardConsole)
	page.SetDefaultTimeout(float64(timeout.Milliseconds()))

	if err := page.SetContent(documentHTML); err != nil {
		return fail("set content", err)
	}

	var g errgroup.Group
	for _, path := range bundles.Paths() {
		g.Go(func() error {
			if _, err := page.AddScriptTag(playwright.PageAddScriptTagOptions{Path: playwright.String(path)}); err != nil {
				return fmt.Errorf("load %s: %w", path, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fail("load scripts", err)
	}

	globals := make([]string, 0, len(bundles.Extensions))
	for _, ext := range bundles.Extensions {
		globals = append(globals, ext.Global)
	}
	engineGlobal := bundle.GlobalName(bundle.ModuleEngine)
	if _, err := page.Evaluate(registerScript, map[string]any{"engine": engineGlobal, "extensions": globals}); err != nil {
		return fail("register extensions", err)
	}

	handle, err := page.EvaluateHandle("(name) => globalThis[name]", engineGlobal)
	if err != nil {
		return fail("engine handle", err)
	}
	p.engine = handle

	s.logger.Info("Page bootstrapped", "bundles", len(bundles.Paths()))
	return p, nil
}

// forwardConsole copies page console output to the diagnostic log. It never
// fails the caller.
func (p *Page) forwardConsole(msg playwright.ConsoleMessage) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Debug("Dropped page console message", "panic", r)
		}
	}()
	p.logger.Info("PAGE LOG", "type", msg.Type(), "text", msg.Text())
}

// Engine returns the handle of the engine global. Calls made through it
// receive the engine as their first parameter.
func (p *Page) Engine() playwright.JSHandle {
	return p.engine
}

// Convert renders SVG markup to PNG by mounting it in the page and taking
// a screenshot of the element.
func (p *Page) Convert(ctx context.Context, markup string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p.isClosed() {
		return nil, ErrClosed
	}

	if _, err := p.page.Evaluate(mountScript, map[string]any{"id": rasterHostID, "markup": markup}); err != nil {
		return nil, fmt.Errorf("mount markup: %w", err)
	}
	defer func() {
		if _, err := p.page.Evaluate(clearScript, rasterHostID); err != nil {
			p.logger.Debug("Failed to clear raster host", "error", err)
		}
	}()

	png, err := p.page.Locator("#" + rasterHostID + " > svg").Screenshot(playwright.LocatorScreenshotOptions{
		Type: playwright.ScreenshotTypePng,
	})
	if err != nil {
		return nil, fmt.Errorf("screenshot: %w", err)
	}
	return png, nil
}

func (p *Page) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// Close releases the engine handle, the page and its browser context. It is
// idempotent; only the first call does work.
func (p *Page) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	p.logger.Info("Closing page...")

	var errs []error
	if p.engine != nil {
		if err := p.engine.Dispose(); err != nil {
			p.logger.Debug("Failed to dispose engine handle", "error", err)
		}
	}
	if p.page != nil && !p.page.IsClosed() {
		if err := p.page.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close page: %w", err))
		}
	}
	if err := p.context.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close context: %w", err))
	}
	return errors.Join(errs...)
}

// WithPage opens a bootstrapped page, runs fn with it and closes it on every
// exit path.
func WithPage(ctx context.Context, s *Session, bundles bundle.Bundles, timeout time.Duration, fn func(*Page) error) error {
	p, err := s.OpenPage(ctx, bundles, timeout)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := p.Close(); closeErr != nil {
			s.logger.Warn("Failed to close page cleanly", "error", closeErr)
		}
	}()
	s.logger.Info("Running MCP server in page context...")
	return fn(p)
}
