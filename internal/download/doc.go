// Package download implements the orchestration core on top of an extraction
// engine: log classification, progress normalization, and the cancellable
// metadata and download tasks driven by the session controller.
package download
