package download

import (
	"sync/atomic"

	"github.com/ytget/vidgrab/internal/model"
)

// Sink receives the events a task produces, in production order.
// Implementations must be safe for use from the engine's goroutines.
type Sink interface {
	Log(model.LogEvent)
	Progress(model.ProgressUpdate)
}

// cancelGate holds a task's cancel flag and drops emissions once it is set
type cancelGate struct {
	cancelled atomic.Bool
	sink      Sink
}

func (g *cancelGate) Cancel() {
	g.cancelled.Store(true)
}

func (g *cancelGate) IsCancelled() bool {
	return g.cancelled.Load()
}

func (g *cancelGate) emitLog(severity model.Severity, text string) {
	if g.sink == nil || g.cancelled.Load() {
		return
	}
	g.sink.Log(model.LogEvent{Severity: severity, Text: text})
}

func (g *cancelGate) emitProgress(update model.ProgressUpdate) {
	if g.sink == nil || g.cancelled.Load() {
		return
	}
	g.sink.Progress(update)
}

// engineLogger adapts the engine's three-method logger to the classifier
type engineLogger struct {
	gate       *cancelGate
	classifier *Classifier
}

func (l engineLogger) Debug(msg string)   { l.route(ChannelDebug, msg) }
func (l engineLogger) Warning(msg string) { l.route(ChannelWarning, msg) }
func (l engineLogger) Error(msg string)   { l.route(ChannelError, msg) }

func (l engineLogger) route(channel Channel, msg string) {
	if ev, ok := l.classifier.Classify(channel, msg); ok {
		l.gate.emitLog(ev.Severity, ev.Text)
	}
}
