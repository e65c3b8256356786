package session

import (
	"context"
	"errors"
	"testing"

	"github.com/ytget/vidgrab/internal/model"
)

func TestDispatchDeliversInOrder(t *testing.T) {
	events := make(chan model.Event, 8)
	events <- model.Event{Kind: model.EventStateChanged, State: model.StateDownloading}
	events <- model.Event{Kind: model.EventLog, Log: model.LogEvent{Severity: model.SeverityInfo, Text: "hello"}}
	events <- model.Event{Kind: model.EventProgress, Progress: model.ProgressUpdate{Percent: 40}}
	events <- model.Event{Kind: model.EventOutcome, Outcome: model.Outcome{Kind: model.OutcomeSuccess}}
	events <- model.Event{Kind: model.EventInfoFailed, Err: errors.New("boom")}
	close(events)

	var got []string
	l := ListenerFuncs{
		StateChanged: func(s model.SessionState) { got = append(got, "state:"+s.String()) },
		Log:          func(ev model.LogEvent) { got = append(got, "log:"+ev.Text) },
		Progress:     func(u model.ProgressUpdate) { got = append(got, "progress") },
		Outcome:      func(o model.Outcome) { got = append(got, "outcome:"+string(o.Kind)) },
		InfoFailed:   func(err error) { got = append(got, "failed:"+err.Error()) },
	}

	if err := Dispatch(context.Background(), events, l); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	want := []string{"state:Downloading", "log:hello", "progress", "outcome:success", "failed:boom"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("call %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestDispatchStopsOnContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Dispatch(ctx, make(chan model.Event), ListenerFuncs{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Dispatch() error = %v, want context.Canceled", err)
	}
}

func TestListenerFuncsNilSafe(t *testing.T) {
	var l ListenerFuncs
	Deliver(model.Event{Kind: model.EventInfoReady}, l)
	Deliver(model.Event{Kind: model.EventLog}, l)
}
