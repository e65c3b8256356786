package model

import (
	"fmt"
	"time"
)

// Severity classifies a user-facing log line
type Severity string

const (
	SeverityDebug   Severity = "debug"
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
	SeveritySuccess Severity = "success"
)

// LogEvent is a single line for the presentation log view
type LogEvent struct {
	Severity Severity
	Text     string
}

// ProgressUpdate is the normalized form of one engine progress callback
type ProgressUpdate struct {
	Percent          int      // 0 to 100
	DownloadedBytes  int64    // bytes written so far
	TotalBytes       int64    // 0 when unknown
	SpeedBytesPerSec *float64 // nil when the engine reports no speed
	ETASeconds       *int     // nil when unknown
	Filename         string   // base name of the file being written
}

// OutcomeKind enumerates the terminal results of a download task
type OutcomeKind string

const (
	OutcomeSuccess           OutcomeKind = "success"
	OutcomeAlreadyDownloaded OutcomeKind = "already_downloaded"
	OutcomeError             OutcomeKind = "error"
	OutcomeCancelled         OutcomeKind = "cancelled"
)

// Outcome is the terminal result of a download task
type Outcome struct {
	Kind     OutcomeKind
	Message  string // success text or verbatim engine error
	Filename string // last file reported by the engine, if any
}

// String returns a compact description used in logs
func (o Outcome) String() string {
	if o.Message == "" {
		return string(o.Kind)
	}
	return fmt.Sprintf("%s: %s", o.Kind, o.Message)
}

// EventKind identifies the payload carried by an Event
type EventKind int

const (
	EventLog EventKind = iota
	EventProgress
	EventStateChanged
	EventInfoReady
	EventInfoFailed
	EventOutcome
)

// String returns the string representation of the event kind
func (k EventKind) String() string {
	switch k {
	case EventLog:
		return "log"
	case EventProgress:
		return "progress"
	case EventStateChanged:
		return "state_changed"
	case EventInfoReady:
		return "info_ready"
	case EventInfoFailed:
		return "info_failed"
	case EventOutcome:
		return "outcome"
	default:
		return "unknown"
	}
}

// Event is the unit delivered from a session to its presentation layer.
// Only the field matching Kind is meaningful.
type Event struct {
	Kind      EventKind
	SessionID string
	TaskID    string
	At        time.Time

	Log      LogEvent
	Progress ProgressUpdate
	State    SessionState
	Info     *VideoMetadata
	Formats  []FormatDescriptor // ranked list, set with EventInfoReady
	Err      error              // set with EventInfoFailed
	Outcome  Outcome
}
