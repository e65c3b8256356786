package session

import "errors"

var (
	// ErrBusy is returned when a start is requested while a task is running
	ErrBusy = errors.New("session: a task is already running")
	// ErrInvalidInput is returned for an empty URL or output directory
	ErrInvalidInput = errors.New("session: invalid input")
	// ErrInvalidState is returned when an operation does not apply to the current state
	ErrInvalidState = errors.New("session: operation not allowed in current state")
	// ErrUnknownFormat is returned when the selected format id was not offered
	ErrUnknownFormat = errors.New("session: unknown format")
	// ErrClosed is returned after Close
	ErrClosed = errors.New("session: closed")
)
