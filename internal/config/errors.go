package config

import (
	"errors"
	"fmt"
)

var (
	// ErrNoConfig is matched by errors returned when no config argument was given
	ErrNoConfig = errors.New("no config")
	// ErrBadLaunchOptions is matched by errors returned for unusable launch options
	ErrBadLaunchOptions = errors.New("bad launch options")
)

// NoConfigError is returned by Load when the program was started without a
// configuration argument.
type NoConfigError struct {
	Message string
}

func (e *NoConfigError) Error() string { return e.Message }

// Is reports whether target is ErrNoConfig.
func (e *NoConfigError) Is(target error) bool { return target == ErrNoConfig }

// BadLaunchOptionsError is returned by Load when the configuration cannot be
// read, parsed or does not describe a launchable browser.
type BadLaunchOptionsError struct {
	Message string
	// Options holds the raw configuration text, the parsed options or the
	// underlying error, whichever best identifies the problem.
	Options any
}

func (e *BadLaunchOptionsError) Error() string {
	return fmt.Sprintf("%s: %v", e.Message, e.Options)
}

// Is reports whether target is ErrBadLaunchOptions.
func (e *BadLaunchOptionsError) Is(target error) bool { return target == ErrBadLaunchOptions }

// Unwrap returns the underlying error when Options holds one.
func (e *BadLaunchOptionsError) Unwrap() error {
	if err, ok := e.Options.(error); ok {
		return err
	}
	return nil
}
