package session

import (
	"context"

	"github.com/ytget/vidgrab/internal/model"
)

// Listener is the presentation side of a session
type Listener interface {
	OnProgress(model.ProgressUpdate)
	OnLog(model.LogEvent)
	OnStateChanged(model.SessionState)
	OnOutcome(model.Outcome)
	OnInfoReady(info *model.VideoMetadata, formats []model.FormatDescriptor)
	OnInfoFailed(err error)
}

// ListenerFuncs adapts optional functions to a Listener. Nil fields are
// ignored.
type ListenerFuncs struct {
	Progress     func(model.ProgressUpdate)
	Log          func(model.LogEvent)
	StateChanged func(model.SessionState)
	Outcome      func(model.Outcome)
	InfoReady    func(*model.VideoMetadata, []model.FormatDescriptor)
	InfoFailed   func(error)
}

var _ Listener = ListenerFuncs{}

func (l ListenerFuncs) OnProgress(u model.ProgressUpdate) {
	if l.Progress != nil {
		l.Progress(u)
	}
}

func (l ListenerFuncs) OnLog(ev model.LogEvent) {
	if l.Log != nil {
		l.Log(ev)
	}
}

func (l ListenerFuncs) OnStateChanged(s model.SessionState) {
	if l.StateChanged != nil {
		l.StateChanged(s)
	}
}

func (l ListenerFuncs) OnOutcome(o model.Outcome) {
	if l.Outcome != nil {
		l.Outcome(o)
	}
}

func (l ListenerFuncs) OnInfoReady(info *model.VideoMetadata, formats []model.FormatDescriptor) {
	if l.InfoReady != nil {
		l.InfoReady(info, formats)
	}
}

func (l ListenerFuncs) OnInfoFailed(err error) {
	if l.InfoFailed != nil {
		l.InfoFailed(err)
	}
}

// Dispatch delivers events to l in order until the channel is closed
// (returning nil) or ctx is done (returning ctx.Err())
func Dispatch(ctx context.Context, events <-chan model.Event, l Listener) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			Deliver(ev, l)
		}
	}
}

// Deliver calls the Listener method matching ev.Kind
func Deliver(ev model.Event, l Listener) {
	switch ev.Kind {
	case model.EventLog:
		l.OnLog(ev.Log)
	case model.EventProgress:
		l.OnProgress(ev.Progress)
	case model.EventStateChanged:
		l.OnStateChanged(ev.State)
	case model.EventOutcome:
		l.OnOutcome(ev.Outcome)
	case model.EventInfoReady:
		l.OnInfoReady(ev.Info, ev.Formats)
	case model.EventInfoFailed:
		l.OnInfoFailed(ev.Err)
	}
}
