package config

import "time"

// Default timing configurations used throughout the server
const (
	// DefaultLaunchTimeout bounds starting the driver and the browser process
	DefaultLaunchTimeout = 30 * time.Second

	// DefaultBootstrapTimeout bounds page creation and script bundle loading
	DefaultBootstrapTimeout = 30 * time.Second

	// DefaultParentPollInterval is how often the parent process liveness is checked
	DefaultParentPollInterval = 1 * time.Second

	// DefaultRenderCacheTTL is the default time-to-live for cached render outcomes
	DefaultRenderCacheTTL = 5 * time.Minute

	// DefaultShutdownTimeout bounds stopping auxiliary listeners
	DefaultShutdownTimeout = 2 * time.Second
)
