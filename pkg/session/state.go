package session

// State is the device session's position in its lifecycle.
type State int

const (
	StatePending State = iota
	StateConnecting
	StateAuthenticating
	StateEnteringMode
	StateExecuting
	StateExitingMode
	StateDisconnecting
	StateSucceeded
	StateFailed
)

var stateNames = map[State]string{
	StatePending:        "Pending",
	StateConnecting:     "Connecting",
	StateAuthenticating: "Authenticating",
	StateEnteringMode:   "EnteringMode",
	StateExecuting:      "Executing",
	StateExitingMode:    "ExitingMode",
	StateDisconnecting:  "Disconnecting",
	StateSucceeded:      "Succeeded",
	StateFailed:         "Failed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "Unknown"
}
