package browser

import (
	"errors"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/playwright-community/playwright-go"
)

// The fakes embed the playwright interfaces and override only what the
// package calls. Any other method panics on the nil embedded value.

type fakeDriver struct {
	browser   *fakeBrowser
	startErr  error
	launchErr error
	block     chan struct{}

	stops    atomic.Int32
	launched []playwright.BrowserTypeLaunchOptions
}

func (d *fakeDriver) start() (Driver, error) {
	if d.startErr != nil {
		return nil, d.startErr
	}
	return d, nil
}

func (d *fakeDriver) Launch(opts playwright.BrowserTypeLaunchOptions) (playwright.Browser, error) {
	if d.block != nil {
		<-d.block
	}
	d.launched = append(d.launched, opts)
	if d.launchErr != nil {
		return nil, d.launchErr
	}
	return d.browser, nil
}

func (d *fakeDriver) Stop() error {
	d.stops.Add(1)
	return nil
}

type fakeBrowser struct {
	playwright.Browser

	connected     atomic.Bool
	closes        atomic.Int32
	context       *fakeContext
	newContextErr error
	onDisconnect  func(playwright.Browser)
	contextOpts   []playwright.BrowserNewContextOptions
}

func newFakeBrowser() *fakeBrowser {
	b := &fakeBrowser{context: newFakeContext()}
	b.connected.Store(true)
	return b
}

func (b *fakeBrowser) IsConnected() bool { return b.connected.Load() }

func (b *fakeBrowser) Close(options ...playwright.BrowserCloseOptions) error {
	b.closes.Add(1)
	b.connected.Store(false)
	return nil
}

func (b *fakeBrowser) NewContext(options ...playwright.BrowserNewContextOptions) (playwright.BrowserContext, error) {
	b.contextOpts = append(b.contextOpts, options...)
	if b.newContextErr != nil {
		return nil, b.newContextErr
	}
	return b.context, nil
}

func (b *fakeBrowser) OnDisconnected(fn func(playwright.Browser)) {
	b.onDisconnect = fn
}

type fakeContext struct {
	playwright.BrowserContext

	page       *fakePage
	newPageErr error
	closes     atomic.Int32
}

func newFakeContext() *fakeContext {
	return &fakeContext{page: newFakePage()}
}

func (c *fakeContext) NewPage() (playwright.Page, error) {
	if c.newPageErr != nil {
		return nil, c.newPageErr
	}
	return c.page, nil
}

func (c *fakeContext) Close(options ...playwright.BrowserContextCloseOptions) error {
	c.closes.Add(1)
	return nil
}

type fakePage struct {
	playwright.Page

	mu             sync.Mutex
	scripts        []string
	scriptErr      error
	setContentErr  error
	setContentWait chan struct{}
	html           string
	evaluated      []string
	evaluateErr    map[string]error
	handle         *fakeHandle
	locator        *fakeLocator
	console        func(playwright.ConsoleMessage)
	timeout        float64
	closed         atomic.Bool
	closes         atomic.Int32
}

func newFakePage() *fakePage {
	return &fakePage{
		evaluateErr: make(map[string]error),
		handle:      &fakeHandle{},
		locator:     &fakeLocator{png: []byte("\x89PNG\r\n\x1a\n")},
	}
}

func (p *fakePage) OnConsole(fn func(playwright.ConsoleMessage)) { p.console = fn }

func (p *fakePage) SetDefaultTimeout(timeout float64) { p.timeout = timeout }

func (p *fakePage) SetContent(html string, options ...playwright.PageSetContentOptions) error {
	if p.setContentWait != nil {
		<-p.setContentWait
	}
	p.html = html
	return p.setContentErr
}

func (p *fakePage) AddScriptTag(options playwright.PageAddScriptTagOptions) (playwright.ElementHandle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.scriptErr != nil {
		return nil, p.scriptErr
	}
	p.scripts = append(p.scripts, *options.Path)
	return nil, nil
}

func (p *fakePage) Evaluate(expression string, arg ...interface{}) (interface{}, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.evaluated = append(p.evaluated, expression)
	for marker, err := range p.evaluateErr {
		if strings.Contains(expression, marker) {
			return nil, err
		}
	}
	return nil, nil
}

func (p *fakePage) EvaluateHandle(expression string, arg ...interface{}) (playwright.JSHandle, error) {
	return p.handle, nil
}

func (p *fakePage) Locator(selector string, options ...playwright.PageLocatorOptions) playwright.Locator {
	p.locator.selector = selector
	return p.locator
}

func (p *fakePage) IsClosed() bool { return p.closed.Load() }

func (p *fakePage) Close(options ...playwright.PageCloseOptions) error {
	p.closes.Add(1)
	p.closed.Store(true)
	return nil
}

func (p *fakePage) evaluatedMatching(marker string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.evaluated {
		if strings.Contains(e, marker) {
			n++
		}
	}
	return n
}

type fakeHandle struct {
	playwright.JSHandle

	disposes atomic.Int32
}

func (h *fakeHandle) Dispose() error {
	h.disposes.Add(1)
	return nil
}

// pwLocator aliases playwright.Locator so the embedded field is not named
// Locator, which would shadow the interface's own Locator method.
type pwLocator = playwright.Locator

type fakeLocator struct {
	pwLocator

	selector string
	png      []byte
	err      error
}

func (l *fakeLocator) Screenshot(options ...playwright.LocatorScreenshotOptions) ([]byte, error) {
	if l.err != nil {
		return nil, l.err
	}
	return l.png, nil
}

type fakeConsoleMessage struct {
	playwright.ConsoleMessage

	kind string
	text string
}

func (m *fakeConsoleMessage) Type() string { return m.kind }

func (m *fakeConsoleMessage) Text() string {
	if m.text == "" {
		panic(errors.New("message detached"))
	}
	return m.text
}
