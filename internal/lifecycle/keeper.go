package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"syscall"
	"time"

	"github.com/oklog/run"

	"github.com/AltairaLabs/mermaider-mcp/internal/config"
)

var (
	// ErrTransportClosed is the trigger raised when serve returns cleanly
	ErrTransportClosed = errors.New("transport closed")
	// ErrParentExited is the trigger raised when the parent process is gone
	ErrParentExited = errors.New("parent process exited")
	// ErrAlreadyRun is returned by a second call to Run
	ErrAlreadyRun = errors.New("keeper already run")
)

type resource struct {
	name  string
	close func() error
}

// Keeper holds the pipeline open while serving and unwinds it on the first
// close trigger.
type Keeper struct {
	logger       *slog.Logger
	pollInterval time.Duration
	parentAlive  func() bool
	signals      []os.Signal

	mu        sync.Mutex
	state     State
	resources []resource
	listeners []func(State)
}

// Option configures a Keeper
type Option func(*Keeper)

// WithPollInterval sets how often parent liveness is checked
func WithPollInterval(d time.Duration) Option {
	return func(k *Keeper) { k.pollInterval = d }
}

// WithParentProbe replaces the parent liveness check. A nil probe disables it.
func WithParentProbe(probe func() bool) Option {
	return func(k *Keeper) { k.parentAlive = probe }
}

// WithSignals sets the signals that close the pipeline
func WithSignals(signals ...os.Signal) Option {
	return func(k *Keeper) { k.signals = signals }
}

// New creates a keeper in the Starting state. By default it watches the
// parent process every second and closes on SIGINT and SIGTERM.
func New(logger *slog.Logger, opts ...Option) *Keeper {
	if logger == nil {
		logger = slog.Default()
	}
	k := &Keeper{
		logger:       logger,
		pollInterval: config.DefaultParentPollInterval,
		parentAlive:  ParentProbe(),
		signals:      []os.Signal{os.Interrupt, syscall.SIGTERM},
		state:        Starting,
	}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

// State returns the current state
func (k *Keeper) State() State {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.state
}

// OnStateChange registers fn to be called after every transition
func (k *Keeper) OnStateChange(fn func(State)) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.listeners = append(k.listeners, fn)
}

// Acquire registers a resource to close during draining. Resources are
// closed in reverse order of acquisition. A resource acquired once draining
// has begun is closed immediately.
func (k *Keeper) Acquire(name string, closeFn func() error) {
	k.mu.Lock()
	if k.state < Draining {
		k.resources = append(k.resources, resource{name: name, close: closeFn})
		k.mu.Unlock()
		return
	}
	k.mu.Unlock()

	k.logger.Warn("Resource acquired after shutdown began", "resource", name)
	k.release(resource{name: name, close: closeFn})
}

// transition moves to next if it is later than the current state. It
// reports whether the state changed.
func (k *Keeper) transition(next State) bool {
	k.mu.Lock()
	if next <= k.state {
		k.mu.Unlock()
		return false
	}
	k.state = next
	listeners := make([]func(State), len(k.listeners))
	copy(listeners, k.listeners)
	k.mu.Unlock()

	k.logger.Debug("Lifecycle state changed", "state", next.String())
	for _, fn := range listeners {
		fn(next)
	}
	return true
}

// Run serves until the first close trigger: serve returning, the parent
// process exiting, a signal, or ctx being cancelled. The keeper moves to
// Draining as soon as the trigger fires, while serve may still be finishing
// an in-flight call, and releases the acquired resources once every actor
// has returned. Expected triggers yield a nil error; a failing serve yields
// its error.
func (k *Keeper) Run(ctx context.Context, serve func(context.Context) error) error {
	if !k.transition(Serving) {
		return ErrAlreadyRun
	}

	var g run.Group

	serveCtx, cancelServe := context.WithCancel(ctx)
	defer cancelServe()
	g.Add(func() error {
		if err := serve(serveCtx); err != nil {
			return err
		}
		return ErrTransportClosed
	}, k.interrupt(func(error) {
		cancelServe()
	}))

	if k.parentAlive != nil {
		probeCtx, cancelProbe := context.WithCancel(context.Background())
		g.Add(func() error {
			return k.watchParent(probeCtx)
		}, k.interrupt(func(error) {
			cancelProbe()
		}))
	}

	if len(k.signals) > 0 {
		execute, interrupt := run.SignalHandler(context.Background(), k.signals...)
		g.Add(execute, k.interrupt(interrupt))
	}

	doneCtx, cancelDone := context.WithCancel(context.Background())
	g.Add(func() error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-doneCtx.Done():
			return nil
		}
	}, k.interrupt(func(error) {
		cancelDone()
	}))

	trigger := g.Run()
	err := k.classify(trigger)

	k.transition(Draining)
	k.drain()
	k.transition(Closed)
	return err
}

// interrupt wraps an actor's interrupt function. run.Group calls every
// interrupt as soon as the first actor returns, so the first call moves the
// keeper to Draining before the remaining actors are waited on.
func (k *Keeper) interrupt(fn func(error)) func(error) {
	return func(err error) {
		k.transition(Draining)
		fn(err)
	}
}

func (k *Keeper) watchParent(ctx context.Context) error {
	ticker := time.NewTicker(k.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if !k.parentAlive() {
				return ErrParentExited
			}
		}
	}
}

// classify logs the trigger and returns it only when it is a failure
func (k *Keeper) classify(trigger error) error {
	var sig run.SignalError
	switch {
	case errors.Is(trigger, ErrTransportClosed):
		k.logger.Info("Transport closed, shutting down")
	case errors.Is(trigger, ErrParentExited):
		k.logger.Info("Parent process exited, shutting down")
	case errors.As(trigger, &sig):
		k.logger.Info("Received signal, shutting down", "signal", sig.Signal.String())
	case errors.Is(trigger, context.Canceled), errors.Is(trigger, context.DeadlineExceeded):
		k.logger.Info("Context done, shutting down", "reason", trigger.Error())
	default:
		k.logger.Error("Serve failed, shutting down", "error", trigger)
		return fmt.Errorf("serve: %w", trigger)
	}
	return nil
}

func (k *Keeper) drain() {
	k.mu.Lock()
	resources := k.resources
	k.resources = nil
	k.mu.Unlock()

	for i := len(resources) - 1; i >= 0; i-- {
		k.release(resources[i])
	}
}

func (k *Keeper) release(r resource) {
	k.logger.Info("Releasing resource", "resource", r.name)
	if err := r.close(); err != nil {
		k.logger.Warn("Failed to release resource", "resource", r.name, "error", err)
	}
}
