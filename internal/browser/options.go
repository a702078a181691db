package browser

import (
	"github.com/playwright-community/playwright-go"

	"github.com/AltairaLabs/mermaider-mcp/internal/config"
)

// launchOptions maps the launch configuration to playwright launch options.
func launchOptions(cfg *config.LaunchConfig) playwright.BrowserTypeLaunchOptions {
	opts := playwright.BrowserTypeLaunchOptions{
		ExecutablePath:    playwright.String(cfg.ExecutablePath),
		Headless:          cfg.Headless,
		Args:              cfg.Args,
		Env:               cfg.Env,
		IgnoreDefaultArgs: cfg.IgnoreDefaultArgs,
		HandleSIGINT:      cfg.HandleSIGINT,
		HandleSIGTERM:     cfg.HandleSIGTERM,
		HandleSIGHUP:      cfg.HandleSIGHUP,
	}

	if cfg.Timeout > 0 {
		opts.Timeout = playwright.Float(float64(cfg.Timeout.Milliseconds()))
	}
	if cfg.SlowMo > 0 {
		opts.SlowMo = playwright.Float(float64(cfg.SlowMo.Milliseconds()))
	}
	if cfg.Channel != "" {
		opts.Channel = playwright.String(cfg.Channel)
	}
	if cfg.IgnoreAllDefaultArgs {
		opts.IgnoreAllDefaultArgs = playwright.Bool(true)
	}
	if cfg.DownloadsPath != "" {
		opts.DownloadsPath = playwright.String(cfg.DownloadsPath)
	}

	return opts
}

// contextOptions maps the page emulation keys of the launch configuration to
// the options of the browser context the page lives in.
func contextOptions(cfg *config.LaunchConfig) playwright.BrowserNewContextOptions {
	var opts playwright.BrowserNewContextOptions

	switch {
	case cfg.NoViewport:
		opts.NoViewport = playwright.Bool(true)
	case cfg.Viewport != nil:
		vp := cfg.Viewport
		opts.Viewport = &playwright.Size{Width: vp.Width, Height: vp.Height}
		if vp.DeviceScaleFactor > 0 {
			opts.DeviceScaleFactor = playwright.Float(vp.DeviceScaleFactor)
		}
		if vp.IsMobile {
			opts.IsMobile = playwright.Bool(true)
		}
		if vp.HasTouch {
			opts.HasTouch = playwright.Bool(true)
		}
	}
	opts.IgnoreHttpsErrors = cfg.IgnoreHTTPSErrors

	return opts
}
