package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ytget/vidgrab/internal/download"
	"github.com/ytget/vidgrab/internal/engine"
	"github.com/ytget/vidgrab/internal/i18n"
	"github.com/ytget/vidgrab/internal/model"
)

// DefaultCancelGrace is how long a cancelled task may run before its
// context is cancelled
const DefaultCancelGrace = 3 * time.Second

// Config configures a Controller
type Config struct {
	Engine       engine.Engine
	Options      download.Options
	Localization *i18n.Localization
	Logger       *zap.Logger
	CancelGrace  time.Duration
}

// canceller is the part of a task the controller needs to stop it
type canceller interface {
	Cancel()
}

// taskRun tracks one running task
type taskRun struct {
	id     string
	gen    uint64
	task   canceller
	cancel context.CancelFunc
	done   chan struct{}

	stopOnce sync.Once
	timer    *time.Timer
}

// requestStop sets the task's cancel flag and arms the forced stop
func (r *taskRun) requestStop(grace time.Duration) {
	r.stopOnce.Do(func() {
		r.task.Cancel()
		r.timer = time.AfterFunc(grace, r.cancel)
	})
}

// Controller drives one inspection/download session
type Controller struct {
	id     string
	engine engine.Engine
	opts   download.Options
	loc    *i18n.Localization
	log    *zap.Logger
	grace  time.Duration
	queue  *eventQueue

	mu         sync.Mutex
	state      model.SessionState
	url        string
	info       *model.VideoMetadata
	formats    []model.FormatDescriptor
	selected   string
	active     *taskRun
	generation uint64
	closed     bool
}

// NewController creates an idle controller
func NewController(cfg Config) (*Controller, error) {
	if cfg.Engine == nil {
		return nil, errors.New("session: engine is required")
	}
	if cfg.Localization == nil {
		cfg.Localization = i18n.NewLocalization()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.CancelGrace <= 0 {
		cfg.CancelGrace = DefaultCancelGrace
	}

	id := newID()
	return &Controller{
		id:     id,
		engine: cfg.Engine,
		opts:   cfg.Options,
		loc:    cfg.Localization,
		log:    cfg.Logger.With(zap.String("session", id)),
		grace:  cfg.CancelGrace,
		queue:  newEventQueue(),
		state:  model.StateIdle,
	}, nil
}

// ID returns the session id
func (c *Controller) ID() string {
	return c.id
}

// Events returns the channel events are published on. It is closed by Close.
func (c *Controller) Events() <-chan model.Event {
	return c.queue.out
}

// State returns the current state
func (c *Controller) State() model.SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Info returns the metadata of the current inspection, if any
func (c *Controller) Info() *model.VideoMetadata {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.info
}

// Formats returns the ranked, deduplicated formats of the current inspection
func (c *Controller) Formats() []model.FormatDescriptor {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.FormatDescriptor(nil), c.formats...)
}

// SelectedFormat returns the selected format id; empty means the default
func (c *Controller) SelectedFormat() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected
}

// URL returns the URL of the current inspection
func (c *Controller) URL() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.url
}

// StartInfoFetch starts a metadata-only extraction for url
func (c *Controller) StartInfoFetch(url string) error {
	url = strings.TrimSpace(url)
	if url == "" {
		return ErrInvalidInput
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkStart(model.StateFetchingInfo); err != nil {
		return err
	}

	c.url = url
	c.clearInspection()
	c.transition(model.StateFetchingInfo)

	run := c.newRun()
	sink := runSink{c: c, run: run}
	task := download.NewInfoFetchTask(c.engine, c.opts, c.loc, sink, c.log.With(zap.String("task", run.id)))
	run.task = task

	ctx, cancel := context.WithCancel(context.Background())
	run.cancel = cancel
	go c.runInfoFetch(ctx, run, task, url)
	return nil
}

// SelectFormat chooses the format used by StartDownload. An empty id
// selects the engine default.
func (c *Controller) SelectFormat(formatID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if c.state != model.StateAwaitingSelection {
		if c.state.IsActive() {
			return ErrBusy
		}
		return ErrInvalidState
	}
	if formatID != "" {
		if _, ok := model.FindFormat(c.formats, formatID); !ok {
			return ErrUnknownFormat
		}
	}
	c.selected = formatID
	return nil
}

// StartDownload starts downloading the selected format into dir
func (c *Controller) StartDownload(dir string) error {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return ErrInvalidInput
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkStart(model.StateDownloading); err != nil {
		return err
	}

	c.transition(model.StateDownloading)

	run := c.newRun()
	sink := runSink{c: c, run: run}
	task := download.NewDownloadTask(c.engine, c.opts, c.loc, sink, c.log.With(zap.String("task", run.id)))
	run.task = task

	ctx, cancel := context.WithCancel(context.Background())
	run.cancel = cancel
	req := download.Request{URL: c.url, OutputDir: dir, FormatID: c.selected}
	go c.runDownload(ctx, run, task, req)
	return nil
}

// Cancel requests cancellation of the running task. The task gets the
// grace period to stop on its own before its context is cancelled. With no
// task running, a pending format selection is abandoned.
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case c.active != nil:
		c.log.Info("cancelling task", zap.String("task", c.active.id), zap.Stringer("state", c.state))
		c.active.requestStop(c.grace)
	case c.state == model.StateAwaitingSelection:
		c.clearInspection()
		c.transition(model.StateIdle)
	}
}

// Reset cancels any running task, waits for it at most the grace period
// plus one second, and returns the session to Idle
func (c *Controller) Reset() {
	c.mu.Lock()
	run := c.active
	if run != nil {
		run.requestStop(c.grace)
	}
	c.mu.Unlock()

	if run != nil {
		select {
		case <-run.done:
		case <-time.After(c.grace + time.Second):
			c.log.Warn("task did not stop in time, detaching", zap.String("task", run.id))
			run.cancel()
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active == run {
		c.active = nil
	}
	c.generation++
	c.url = ""
	c.clearInspection()
	if c.state != model.StateIdle {
		c.transition(model.StateIdle)
	}
}

// Close resets the session and closes the event channel
func (c *Controller) Close() {
	c.Reset()

	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	c.queue.close()
}

func (c *Controller) checkStart(target model.SessionState) error {
	switch {
	case c.closed:
		return ErrClosed
	case c.active != nil || c.state.IsActive():
		return ErrBusy
	case !model.CanTransition(c.state, target):
		return ErrInvalidState
	}
	return nil
}

func (c *Controller) newRun() *taskRun {
	run := &taskRun{
		id:   newID(),
		gen:  c.generation,
		done: make(chan struct{}),
	}
	c.active = run
	return run
}

func (c *Controller) runInfoFetch(ctx context.Context, run *taskRun, task *download.InfoFetchTask, url string) {
	defer close(run.done)
	defer run.cancel()

	meta, err := task.Run(ctx, url)

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.finish(run) {
		return
	}

	if err != nil {
		c.transition(model.StateIdle)
		c.publish(run.id, model.Event{Kind: model.EventInfoFailed, Err: err})
		return
	}

	c.info = meta
	c.formats = model.RankFormats(meta.Formats)
	c.transition(model.StateAwaitingSelection)
	c.publish(run.id, model.Event{Kind: model.EventInfoReady, Info: meta, Formats: c.formats})
}

func (c *Controller) runDownload(ctx context.Context, run *taskRun, task *download.DownloadTask, req download.Request) {
	defer close(run.done)
	defer run.cancel()

	outcome := task.Run(ctx, req)

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.finish(run) {
		return
	}

	c.log.Info("download finished", zap.String("task", run.id), zap.Stringer("outcome", outcome))
	c.transition(model.StateForOutcome(outcome.Kind))
	c.publish(run.id, model.Event{Kind: model.EventOutcome, Outcome: outcome})
}

// finish detaches run from the controller. It reports false when the run
// was already detached by Reset. Requires c.mu.
func (c *Controller) finish(run *taskRun) bool {
	if run.timer != nil {
		run.timer.Stop()
	}
	if c.active != run || run.gen != c.generation {
		return false
	}
	c.active = nil
	return true
}

// transition moves to next and publishes the change. Requires c.mu.
func (c *Controller) transition(next model.SessionState) {
	if err := model.ValidateTransition(c.state, next); err != nil {
		c.log.Warn("unexpected state transition", zap.Error(err))
	}
	c.state = next
	c.publish("", model.Event{Kind: model.EventStateChanged, State: next})
}

func (c *Controller) clearInspection() {
	c.info = nil
	c.formats = nil
	c.selected = ""
}

// publish stamps and queues ev. Requires c.mu.
func (c *Controller) publish(taskID string, ev model.Event) {
	if c.closed {
		return
	}
	ev.SessionID = c.id
	ev.TaskID = taskID
	ev.At = time.Now()
	c.queue.push(ev)
}

// publishFromRun queues a task emission unless run was detached
func (c *Controller) publishFromRun(run *taskRun, ev model.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active != run || run.gen != c.generation {
		return
	}
	c.publish(run.id, ev)
}

// runSink forwards task emissions to the controller
type runSink struct {
	c   *Controller
	run *taskRun
}

func (s runSink) Log(ev model.LogEvent) {
	s.c.publishFromRun(s.run, model.Event{Kind: model.EventLog, Log: ev})
}

func (s runSink) Progress(u model.ProgressUpdate) {
	s.c.publishFromRun(s.run, model.Event{Kind: model.EventProgress, Progress: u})
}

func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
