package download

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/ytget/vidgrab/internal/engine"
	"github.com/ytget/vidgrab/internal/i18n"
	"github.com/ytget/vidgrab/internal/model"
)

// Request describes one download
type Request struct {
	URL       string
	OutputDir string
	FormatID  string // empty selects DefaultFormat
}

// DownloadTask runs one download and reports a terminal Outcome
type DownloadTask struct {
	cancelGate

	engine engine.Engine
	opts   Options
	loc    *i18n.Localization
	log    *zap.Logger

	mu      sync.Mutex
	tracker *ProgressTracker
}

// NewDownloadTask creates a download task reporting to sink
func NewDownloadTask(eng engine.Engine, opts Options, loc *i18n.Localization, sink Sink, log *zap.Logger) *DownloadTask {
	if loc == nil {
		loc = i18n.NewLocalization()
	}
	if log == nil {
		log = zap.NewNop()
	}
	t := &DownloadTask{
		engine:  eng,
		opts:    opts,
		loc:     loc,
		log:     log,
		tracker: NewProgressTracker(loc),
	}
	t.sink = sink
	return t
}

// Run performs the download. It never panics; every failure other than
// cancellation is logged once at error severity and returned as an Error
// outcome. A cancelled task emits nothing further.
func (t *DownloadTask) Run(ctx context.Context, req Request) (outcome model.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			t.log.Error("download task panicked", zap.Any("panic", r))
			outcome = t.fail(fmt.Sprintf("%v", r))
		}
	}()

	logger := engineLogger{gate: &t.cancelGate, classifier: NewClassifier(t.loc)}
	t.info(t.loc.GetText(i18n.KeyStartingDownload))

	if t.opts.Preflight {
		t.info(t.loc.GetText(i18n.KeyFetchingInfo))
		meta, err := t.engine.ExtractInfo(ctx, req.URL, t.opts.extractOptions(logger))
		if t.stopped(ctx) {
			return t.cancelled()
		}
		if err != nil {
			return t.fail(err.Error())
		}
		if meta == nil {
			return t.fail(t.loc.GetText(i18n.KeyEmptyResult))
		}
		t.describe(meta)
	}

	t.info(t.loc.GetText(i18n.KeyStartingTransfer))
	t.log.Info("starting transfer",
		zap.String("url", req.URL),
		zap.String("format", req.FormatID),
		zap.String("dir", req.OutputDir),
	)
	res, err := t.engine.Download(ctx, req.URL, t.opts.downloadOptions(req.OutputDir, req.FormatID, logger, t.onProgress))
	if t.stopped(ctx) || errors.Is(err, context.Canceled) {
		return t.cancelled()
	}
	if err != nil {
		return t.fail(err.Error())
	}

	filename := t.lastFile()
	if res != nil && res.Filename != "" {
		filename = res.Filename
	}
	if res != nil && res.AlreadyDownloaded {
		msg := t.loc.GetText(i18n.KeyAlreadyDownloaded)
		t.emitLog(model.SeveritySuccess, msg)
		return model.Outcome{Kind: model.OutcomeAlreadyDownloaded, Message: msg, Filename: filename}
	}

	msg := t.loc.GetText(i18n.KeyDownloadSucceeded)
	t.emitLog(model.SeveritySuccess, msg)
	return model.Outcome{Kind: model.OutcomeSuccess, Message: msg, Filename: filename}
}

func (t *DownloadTask) describe(meta *model.VideoMetadata) {
	title := meta.Title
	if title == "" {
		title = t.loc.GetText(i18n.KeyUntitled)
	}
	t.info(t.loc.Textf(i18n.KeyTitle, title))
	t.info(t.loc.Textf(i18n.KeyDuration, model.FormatClock(meta.DurationSeconds)))
	if len(meta.Formats) == 0 {
		return
	}
	t.info(t.loc.Textf(i18n.KeyFormatsAvailable, len(meta.Formats)))
	if height, ok := model.BestHeight(meta.Formats); ok {
		t.info(t.loc.Textf(i18n.KeyBestQuality, height))
	}
}

// onProgress is the engine progress hook. Malformed samples are logged and
// skipped so that a single bad sample never ends the transfer.
func (t *DownloadTask) onProgress(sample engine.ProgressSample) {
	if t.IsCancelled() {
		return
	}
	if sample.Status == engine.StatusFinished {
		t.info(t.loc.GetText(i18n.KeyFinishedProcessing))
		return
	}

	update, line, err := t.track(sample)
	if err != nil {
		t.log.Debug("malformed progress sample", zap.Error(err))
		t.emitLog(model.SeverityError, t.loc.Textf(i18n.KeyProgressFailed, err.Error()))
		t.emitLog(model.SeverityDebug, t.loc.Textf(i18n.KeyProgressData, sample))
		return
	}
	t.emitProgress(update)
	if line != "" {
		t.info(line)
	}
}

// track returns the normalized update and the periodic log line, if one is due
func (t *DownloadTask) track(sample engine.ProgressSample) (model.ProgressUpdate, string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	update, due, err := t.tracker.Update(sample)
	if err != nil || !due {
		return update, "", err
	}
	return update, t.tracker.ProgressLine(update), nil
}

func (t *DownloadTask) lastFile() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tracker.LastFile()
}

func (t *DownloadTask) stopped(ctx context.Context) bool {
	return t.IsCancelled() || ctx.Err() != nil
}

func (t *DownloadTask) info(text string) {
	t.emitLog(model.SeverityInfo, text)
}

func (t *DownloadTask) fail(msg string) model.Outcome {
	if t.IsCancelled() {
		return t.cancelled()
	}
	t.log.Warn("download failed", zap.String("error", msg))
	t.emitLog(model.SeverityError, t.loc.Textf(i18n.KeyErrorPrefix, msg))
	return model.Outcome{Kind: model.OutcomeError, Message: msg, Filename: t.lastFile()}
}

func (t *DownloadTask) cancelled() model.Outcome {
	t.cancelGate.Cancel()
	t.log.Debug("download cancelled")
	return model.Outcome{Kind: model.OutcomeCancelled}
}
