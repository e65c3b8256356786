package model

import "fmt"

// SessionState represents the state of an inspection/download session
type SessionState string

const (
	// StateIdle means no task is running and no metadata is held
	StateIdle SessionState = "Idle"

	// StateFetchingInfo means a metadata-only extraction is running
	StateFetchingInfo SessionState = "FetchingInfo"

	// StateAwaitingSelection means metadata is available and a format can be chosen
	StateAwaitingSelection SessionState = "AwaitingSelection"

	// StateDownloading means a download task is running
	StateDownloading SessionState = "Downloading"

	// StateSucceeded means the download finished successfully
	StateSucceeded SessionState = "Succeeded"

	// StateAlreadyDownloaded means the engine found the target file on disk
	StateAlreadyDownloaded SessionState = "AlreadyDownloaded"

	// StateFailed means the download failed with an error
	StateFailed SessionState = "Failed"

	// StateCancelled means the download was cancelled by the user
	StateCancelled SessionState = "Cancelled"
)

var allowedTransitions = map[SessionState]map[SessionState]bool{
	StateIdle: {
		StateFetchingInfo: true,
	},
	StateFetchingInfo: {
		StateAwaitingSelection: true,
		StateIdle:              true,
	},
	StateAwaitingSelection: {
		StateFetchingInfo: true, // a new URL replaces the current metadata
		StateDownloading:  true,
		StateIdle:         true,
	},
	StateDownloading: {
		StateSucceeded:         true,
		StateAlreadyDownloaded: true,
		StateFailed:            true,
		StateCancelled:         true,
		StateIdle:              true,
	},
	StateSucceeded:         {StateIdle: true},
	StateAlreadyDownloaded: {StateIdle: true},
	StateFailed:            {StateIdle: true},
	StateCancelled:         {StateIdle: true},
}

// String returns the string representation of SessionState
func (s SessionState) String() string {
	return string(s)
}

// IsActive returns true if a background task runs in this state
func (s SessionState) IsActive() bool {
	return s == StateFetchingInfo || s == StateDownloading
}

// IsTerminal returns true if the state ends a download (only Reset leaves it)
func (s SessionState) IsTerminal() bool {
	return s == StateSucceeded || s == StateAlreadyDownloaded || s == StateFailed || s == StateCancelled
}

// IsKnown reports whether s is one of the declared states
func (s SessionState) IsKnown() bool {
	_, ok := allowedTransitions[s]
	return ok
}

// CanTransition reports whether the state machine allows from -> to
func CanTransition(from, to SessionState) bool {
	next, ok := allowedTransitions[from]
	if !ok {
		return false
	}
	return next[to]
}

// ValidateTransition returns an error describing a forbidden transition
func ValidateTransition(from, to SessionState) error {
	if !CanTransition(from, to) {
		return fmt.Errorf("invalid session state transition: %q -> %q", from, to)
	}
	return nil
}

// StateForOutcome maps a download outcome to its terminal session state
func StateForOutcome(kind OutcomeKind) SessionState {
	switch kind {
	case OutcomeSuccess:
		return StateSucceeded
	case OutcomeAlreadyDownloaded:
		return StateAlreadyDownloaded
	case OutcomeCancelled:
		return StateCancelled
	default:
		return StateFailed
	}
}
