package browser

import (
	"errors"
	"fmt"
)

var (
	// ErrLaunch is matched by errors returned when the browser cannot be started
	ErrLaunch = errors.New("browser launch failed")
	// ErrBootstrap is matched by errors returned when the page cannot be prepared
	ErrBootstrap = errors.New("page bootstrap failed")
	// ErrClosed is returned when a closed page is used
	ErrClosed = errors.New("page is closed")
)

// LaunchError wraps the cause of a failed browser launch.
type LaunchError struct {
	Err error
}

func (e *LaunchError) Error() string { return fmt.Sprintf("failed to launch browser: %v", e.Err) }

// Is reports whether target is ErrLaunch.
func (e *LaunchError) Is(target error) bool { return target == ErrLaunch }

func (e *LaunchError) Unwrap() error { return e.Err }

// BootstrapError wraps the cause of a failed page bootstrap and names the step.
type BootstrapError struct {
	Step string
	Err  error
}

func (e *BootstrapError) Error() string {
	return fmt.Sprintf("failed to bootstrap page (%s): %v", e.Step, e.Err)
}

// Is reports whether target is ErrBootstrap.
func (e *BootstrapError) Is(target error) bool { return target == ErrBootstrap }

func (e *BootstrapError) Unwrap() error { return e.Err }
