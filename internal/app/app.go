// Package app wires the pipeline together: config, browser session, page,
// engine, tools and the lifetime keeper.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AltairaLabs/mermaider-mcp/internal/browser"
	"github.com/AltairaLabs/mermaider-mcp/internal/bundle"
	"github.com/AltairaLabs/mermaider-mcp/internal/cache"
	"github.com/AltairaLabs/mermaider-mcp/internal/config"
	"github.com/AltairaLabs/mermaider-mcp/internal/engine"
	"github.com/AltairaLabs/mermaider-mcp/internal/health"
	"github.com/AltairaLabs/mermaider-mcp/internal/lifecycle"
	"github.com/AltairaLabs/mermaider-mcp/internal/metrics"
	"github.com/AltairaLabs/mermaider-mcp/internal/server"
	"github.com/AltairaLabs/mermaider-mcp/internal/tools"
	"github.com/AltairaLabs/mermaider-mcp/internal/tools/handlers/render"
	"github.com/AltairaLabs/mermaider-mcp/internal/tools/handlers/validate"
)

// ServerName is the MCP server name announced to clients
const ServerName = "mermaider"

// Options configures a run
type Options struct {
	// Args are the positional command line arguments
	Args []string
	// ModulesDir is where node_modules lookups start
	ModulesDir string
	// HealthAddr enables the gRPC health server when set
	HealthAddr string
	// MetricsAddr enables the Prometheus endpoint when set
	MetricsAddr string
	Version     string

	Stdin  io.Reader
	Stdout io.Writer

	// StartDriver defaults to the playwright driver with output on stderr
	StartDriver      browser.StartDriverFunc
	BootstrapTimeout time.Duration
	CacheTTL         time.Duration
	// Signals close the pipeline. They are caught from before the browser
	// launches; nil means SIGINT and SIGTERM.
	Signals       []os.Signal
	KeeperOptions []lifecycle.Option
}

func (o *Options) setDefaults() {
	if o.ModulesDir == "" {
		o.ModulesDir = "."
	}
	if o.Stdin == nil {
		o.Stdin = os.Stdin
	}
	if o.Stdout == nil {
		o.Stdout = os.Stdout
	}
	if o.StartDriver == nil {
		o.StartDriver = browser.StartPlaywright(os.Stderr)
	}
	if o.BootstrapTimeout <= 0 {
		o.BootstrapTimeout = config.DefaultBootstrapTimeout
	}
	if o.CacheTTL <= 0 {
		o.CacheTTL = config.DefaultRenderCacheTTL
	}
	if o.Signals == nil {
		o.Signals = []os.Signal{os.Interrupt, syscall.SIGTERM}
	}
}

// Run loads the config and serves MCP until the keeper closes the pipeline.
// The page is released before the browser on every exit path.
func Run(ctx context.Context, opts Options, logger *slog.Logger) error {
	opts.setDefaults()

	cfg, err := config.Load(opts.Args)
	if err != nil {
		return err
	}

	logger.Info(config.MsgStarting)

	bundles, err := bundle.ResolveDefaults(opts.ModulesDir)
	if err != nil {
		return &browser.BootstrapError{Step: "resolve modules", Err: err}
	}

	// A signal during launch or bootstrap cancels startup so the browser
	// and page scopes still unwind.
	startCtx := ctx
	if len(opts.Signals) > 0 {
		var stop context.CancelFunc
		startCtx, stop = signal.NotifyContext(ctx, opts.Signals...)
		defer stop()
	}

	keeperOpts := append([]lifecycle.Option{lifecycle.WithSignals(opts.Signals...)}, opts.KeeperOptions...)
	keeper := lifecycle.New(logger, keeperOpts...)
	recorder := metrics.NewRecorder()
	keeper.OnStateChange(recorder.SetState)

	stopSidecars, err := startSidecars(opts, keeper, recorder, logger)
	if err != nil {
		return err
	}
	defer stopSidecars()

	mgr := browser.NewManager(opts.StartDriver, logger)
	err = browser.WithBrowser(startCtx, mgr, cfg, func(session *browser.Session) error {
		keeper.Acquire("browser", session.Close)

		return browser.WithPage(startCtx, session, bundles, opts.BootstrapTimeout, func(page *browser.Page) error {
			keeper.Acquire("page", page.Close)
			return serve(startCtx, opts, keeper, page, recorder, logger)
		})
	})
	if err != nil && keeper.State() == lifecycle.Starting && startCtx.Err() != nil && ctx.Err() == nil {
		logger.Info("Received signal during startup, shutting down")
		return nil
	}
	return err
}

func serve(
	ctx context.Context,
	opts Options,
	keeper *lifecycle.Keeper,
	page *browser.Page,
	recorder *metrics.Recorder,
	logger *slog.Logger,
) error {
	eng := engine.New(engine.NewInvoker(page.Engine()))

	outcomes := cache.NewRenderCache(opts.CacheTTL)
	defer outcomes.Close()

	registry := tools.NewToolHandlerRegistry(
		validate.NewHandler(eng).Tool(),
		render.NewHandler(eng, page, outcomes, logger).Tool(),
	)

	mcpServer := server.NewMCPServer(
		server.Config{Name: ServerName, Version: opts.Version},
		registry,
		server.NewAuditLogger(logger),
		recorder,
		logger,
	)
	keeper.OnStateChange(func(s lifecycle.State) {
		if s >= lifecycle.Draining {
			mcpServer.Drain()
		}
	})

	logger.Info("MCP Server initialized", "name", ServerName, "version", opts.Version)
	return keeper.Run(ctx, func(ctx context.Context) error {
		return mcpServer.Listen(ctx, opts.Stdin, opts.Stdout)
	})
}

// startSidecars starts the optional health and metrics listeners. The
// returned function stops whatever was started.
func startSidecars(opts Options, keeper *lifecycle.Keeper, recorder *metrics.Recorder, logger *slog.Logger) (func(), error) {
	var stops []func()
	stopAll := func() {
		for i := len(stops) - 1; i >= 0; i-- {
			stops[i]()
		}
	}

	if opts.HealthAddr != "" {
		lis, err := net.Listen("tcp", opts.HealthAddr)
		if err != nil {
			return nil, fmt.Errorf("health listener: %w", err)
		}
		hs := health.NewServer(logger)
		keeper.OnStateChange(hs.SetState)
		go func() {
			if err := hs.Serve(lis); err != nil {
				logger.Error("gRPC health server error", "error", err)
			}
		}()
		stops = append(stops, hs.Stop)
	}

	if opts.MetricsAddr != "" {
		lis, err := net.Listen("tcp", opts.MetricsAddr)
		if err != nil {
			stopAll()
			return nil, fmt.Errorf("metrics listener: %w", err)
		}
		mux := http.NewServeMux()
		mux.Handle("/metrics", recorder.Handler())
		srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			logger.Info("Starting metrics server", "address", lis.Addr().String())
			if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("Metrics server error", "error", err)
			}
		}()
		stops = append(stops, func() {
			ctx, cancel := context.WithTimeout(context.Background(), config.DefaultShutdownTimeout)
			defer cancel()
			_ = srv.Shutdown(ctx)
		})
	}

	return stopAll, nil
}
