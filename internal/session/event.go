package session

import "fmt"

// State is the connectivity state of a session.
type State int32

const (
	StateDisconnected State = iota
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// EventKind identifies a transport event.
type EventKind string

const (
	EventOpen  EventKind = "open"
	EventError EventKind = "error"
	EventClose EventKind = "close"
)

// Event is pushed by the transport and consumed by the session dispatcher.
type Event struct {
	Kind   EventKind
	Err    error
	Code   int
	Reason string
}

func (e Event) String() string {
	switch e.Kind {
	case EventError:
		return fmt.Sprintf("error: %v", e.Err)
	case EventClose:
		return fmt.Sprintf("close: %d %s", e.Code, e.Reason)
	default:
		return string(e.Kind)
	}
}
