package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/playwright-community/playwright-go"

	"github.com/AltairaLabs/mermaider-mcp/internal/config"
)

// Manager launches browser sessions.
type Manager struct {
	startDriver StartDriverFunc
	logger      *slog.Logger
}

// NewManager creates a session manager using the given driver.
func NewManager(start StartDriverFunc, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		startDriver: start,
		logger:      logger,
	}
}

// Session is one running browser process and the driver controlling it.
type Session struct {
	driver      Driver
	browser     playwright.Browser
	contextOpts playwright.BrowserNewContextOptions
	logger      *slog.Logger

	mu     sync.Mutex
	closed bool
}

type launchResult struct {
	session *Session
	err     error
}

// Launch starts the driver and the browser described by cfg. It fails with a
// LaunchError when the process cannot be started within cfg.Timeout; nothing
// is left running on failure.
func (m *Manager) Launch(ctx context.Context, cfg *config.LaunchConfig) (*Session, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = config.DefaultLaunchTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan launchResult, 1)
	go func() {
		s, err := m.launch(cfg)
		done <- launchResult{session: s, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return nil, &LaunchError{Err: r.err}
		}
		m.logger.Info("Browser launched", "executable", cfg.ExecutablePath)
		return r.session, nil
	case <-ctx.Done():
		// The launch may still complete; close whatever it produces.
		go func() {
			if r := <-done; r.session != nil {
				_ = r.session.Close()
			}
		}()
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, &LaunchError{Err: fmt.Errorf("launch cancelled: %w", ctx.Err())}
		}
		return nil, &LaunchError{Err: fmt.Errorf("launch did not complete within %s: %w", timeout, ctx.Err())}
	}
}

func (m *Manager) launch(cfg *config.LaunchConfig) (*Session, error) {
	for key := range cfg.Extra {
		m.logger.Warn("Ignoring unsupported launch option", "option", key)
	}

	driver, err := m.startDriver()
	if err != nil {
		return nil, err
	}

	b, err := driver.Launch(launchOptions(cfg))
	if err != nil {
		if stopErr := driver.Stop(); stopErr != nil {
			m.logger.Warn("Failed to stop driver after launch failure", "error", stopErr)
		}
		return nil, err
	}

	s := &Session{
		driver:      driver,
		browser:     b,
		contextOpts: contextOptions(cfg),
		logger:      m.logger,
	}
	b.OnDisconnected(func(playwright.Browser) {
		if !s.isClosed() {
			m.logger.Warn("Browser disconnected unexpectedly")
		}
	})
	return s, nil
}

func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close shuts the browser down and stops the driver. It is idempotent and
// tolerates a browser that already exited; only the first call does work.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.logger.Info("Closing browser...")

	var errs []error
	if s.browser.IsConnected() {
		if err := s.browser.Close(); err != nil && s.browser.IsConnected() {
			errs = append(errs, fmt.Errorf("close browser: %w", err))
		}
	}
	if err := s.driver.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("stop driver: %w", err))
	}
	return errors.Join(errs...)
}

// WithBrowser launches a session, runs fn with it and closes it on every
// exit path, including a panic in fn.
func WithBrowser(ctx context.Context, m *Manager, cfg *config.LaunchConfig, fn func(*Session) error) (err error) {
	s, err := m.Launch(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := s.Close(); closeErr != nil {
			m.logger.Warn("Failed to close browser cleanly", "error", closeErr)
		}
	}()
	return fn(s)
}
