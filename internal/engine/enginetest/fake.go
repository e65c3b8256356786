// Package enginetest provides a scriptable engine.Engine for tests.
package enginetest

import (
	"context"
	"sync"

	"github.com/ytget/vidgrab/internal/engine"
	"github.com/ytget/vidgrab/internal/model"
)

// Channel names accepted in Line.Channel
const (
	Debug   = "debug"
	Warning = "warning"
	Error   = "error"
)

// Line is a message the fake writes to the engine logger
type Line struct {
	Channel string
	Text    string
}

// Fake replays scripted metadata, logs and progress samples. A non-nil
// gate holds the call until the gate is closed or ctx is done; the call
// name is sent to Started (when set) before waiting.
type Fake struct {
	Info      *model.VideoMetadata
	InfoErr   error
	InfoLines []Line

	Samples       []engine.ProgressSample
	DownloadLines []Line
	Result        *engine.DownloadResult
	DownloadErr   error
	DownloadPanic any

	ExtractGate  chan struct{}
	DownloadGate chan struct{}
	Started      chan string

	mu            sync.Mutex
	extractCalls  int
	downloadCalls int
	lastDownload  engine.DownloadOptions
}

var _ engine.Engine = (*Fake)(nil)

// ExtractInfo implements engine.Engine
func (f *Fake) ExtractInfo(ctx context.Context, url string, opts engine.ExtractOptions) (*model.VideoMetadata, error) {
	f.mu.Lock()
	f.extractCalls++
	f.mu.Unlock()

	writeLines(opts.Logger, f.InfoLines)
	if err := f.wait(ctx, "extract", f.ExtractGate); err != nil {
		return nil, err
	}
	if f.InfoErr != nil {
		return nil, f.InfoErr
	}
	return f.Info, nil
}

// Download implements engine.Engine
func (f *Fake) Download(ctx context.Context, url string, opts engine.DownloadOptions) (*engine.DownloadResult, error) {
	f.mu.Lock()
	f.downloadCalls++
	f.lastDownload = opts
	f.mu.Unlock()

	writeLines(opts.Logger, f.DownloadLines)
	for _, s := range f.Samples {
		if opts.Progress != nil {
			opts.Progress(s)
		}
	}
	if f.DownloadPanic != nil {
		panic(f.DownloadPanic)
	}
	if err := f.wait(ctx, "download", f.DownloadGate); err != nil {
		return nil, err
	}
	if f.DownloadErr != nil {
		return nil, f.DownloadErr
	}
	if f.Result == nil {
		return &engine.DownloadResult{}, nil
	}
	return f.Result, nil
}

// ExtractCalls returns how many times ExtractInfo ran
func (f *Fake) ExtractCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.extractCalls
}

// DownloadCalls returns how many times Download ran
func (f *Fake) DownloadCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.downloadCalls
}

// LastDownload returns the options of the most recent Download call
func (f *Fake) LastDownload() engine.DownloadOptions {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastDownload
}

func (f *Fake) wait(ctx context.Context, name string, gate chan struct{}) error {
	if f.Started != nil {
		select {
		case f.Started <- name:
		default:
		}
	}
	if gate == nil {
		return ctx.Err()
	}
	select {
	case <-gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func writeLines(logger engine.Logger, lines []Line) {
	if logger == nil {
		return
	}
	for _, l := range lines {
		switch l.Channel {
		case Warning:
			logger.Warning(l.Text)
		case Error:
			logger.Error(l.Text)
		default:
			logger.Debug(l.Text)
		}
	}
}

// Samples builds downloading samples for the given percents of a file of
// total bytes
func Samples(filename string, total int64, percents ...int) []engine.ProgressSample {
	out := make([]engine.ProgressSample, 0, len(percents))
	for _, p := range percents {
		t := total
		out = append(out, engine.ProgressSample{
			Status:          engine.StatusDownloading,
			DownloadedBytes: total * int64(p) / 100,
			TotalBytes:      &t,
			Filename:        filename,
		})
	}
	return out
}
