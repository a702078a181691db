package config

// Messages written to the diagnostic stream or returned to tool callers
const (
	// ErrUnsupportedFormat is the format string for unknown render formats
	ErrUnsupportedFormat = "Unsupported format: %s"
	// ErrUnknownEngineFailure is used when the engine fails without a message
	ErrUnknownEngineFailure = "Unknown error"
	// ErrShuttingDown is returned for tool calls arriving after shutdown began
	ErrShuttingDown = "Server is shutting down"
	// ErrToolPanic prefixes the message of a tool call that panicked
	ErrToolPanic = "Internal error"
	// MsgNoConfig is reported when the program starts without a config argument
	MsgNoConfig = "No config file provided: syntax - `mermaider '{ <inline config>} | <config-file.json>`"
	// MsgStarting is logged before the browser is launched
	MsgStarting = "Starting mermaider MCP..."
	// MsgExited is printed after a clean shutdown
	MsgExited = "Exited mermaider MCP."
	// MsgExitedWithError prefixes fatal runtime errors
	MsgExitedWithError = "The mermaider MCP exited due to an error:"
)
