// Package lifecycle keeps the server pipeline open until a close trigger
// fires and then releases what was acquired, newest first.
package lifecycle

// State is the lifecycle phase of the process
type State int32

const (
	// Starting is the state before the transport is connected
	Starting State = iota
	// Serving means tools are dispatchable
	Serving
	// Draining means a close trigger fired and resources are being released
	Draining
	// Closed is terminal
	Closed
)

func (s State) String() string {
	switch s {
	case Starting:
		return "starting"
	case Serving:
		return "serving"
	case Draining:
		return "draining"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}
