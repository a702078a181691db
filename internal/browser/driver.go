// Package browser owns the headless browser process and the page the
// diagram engine runs in.
package browser

import (
	"fmt"
	"io"

	"github.com/playwright-community/playwright-go"
)

// Driver launches browser processes. It is backed by the playwright driver
// in production and by fakes in tests.
type Driver interface {
	Launch(opts playwright.BrowserTypeLaunchOptions) (playwright.Browser, error)
	Stop() error
}

// StartDriverFunc starts a Driver.
type StartDriverFunc func() (Driver, error)

type playwrightDriver struct {
	pw *playwright.Playwright
}

func (d *playwrightDriver) Launch(opts playwright.BrowserTypeLaunchOptions) (playwright.Browser, error) {
	return d.pw.Chromium.Launch(opts)
}

func (d *playwrightDriver) Stop() error {
	return d.pw.Stop()
}

// StartPlaywright returns a StartDriverFunc that installs (if needed) and
// runs the playwright driver. Browsers are never downloaded since the
// configured executable is used. Driver output goes to out, which must not
// be the MCP transport stream.
func StartPlaywright(out io.Writer) StartDriverFunc {
	return func() (Driver, error) {
		if out == nil {
			out = io.Discard
		}
		opts := &playwright.RunOptions{
			SkipInstallBrowsers: true,
			Verbose:             false,
			Stdout:              out,
			Stderr:              out,
		}

		if err := playwright.Install(opts); err != nil {
			return nil, fmt.Errorf("failed to install playwright driver: %w", err)
		}

		pw, err := playwright.Run(opts)
		if err != nil {
			return nil, fmt.Errorf("failed to start playwright: %w", err)
		}
		return &playwrightDriver{pw: pw}, nil
	}
}
