package realtime

// ConnectionState represents the current state of the realtime session.
type ConnectionState int

const (
	// StateDisconnected means no session is open.
	StateDisconnected ConnectionState = iota

	// StateConnecting means a connection attempt is in flight.
	StateConnecting

	// StateConnected means the session is live and rooms can be joined.
	StateConnected

	// StateReconnecting means the session dropped and the manager is
	// re-establishing it.
	StateReconnecting

	// StateGaveUp means the retry budget is exhausted and the manager
	// left the session closed.
	StateGaveUp
)

// String returns the string representation of a ConnectionState.
func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	case StateGaveUp:
		return "gave_up"
	default:
		return "unknown"
	}
}

// StateEvent represents a state change.
type StateEvent struct {
	OldState ConnectionState
	NewState ConnectionState
	Error    error // cause of the transition, if any
}
