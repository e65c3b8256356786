// Package session owns the inspection/download state machine. A Controller
// runs at most one task at a time and publishes typed events that a
// presentation layer drains with Dispatch.
package session
