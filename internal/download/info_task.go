package download

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/ytget/vidgrab/internal/engine"
	"github.com/ytget/vidgrab/internal/i18n"
	"github.com/ytget/vidgrab/internal/model"
)

// InfoFetchTask runs one metadata-only extraction
type InfoFetchTask struct {
	cancelGate

	engine engine.Engine
	opts   Options
	loc    *i18n.Localization
	log    *zap.Logger
}

// NewInfoFetchTask creates a metadata task reporting to sink
func NewInfoFetchTask(eng engine.Engine, opts Options, loc *i18n.Localization, sink Sink, log *zap.Logger) *InfoFetchTask {
	if loc == nil {
		loc = i18n.NewLocalization()
	}
	if log == nil {
		log = zap.NewNop()
	}
	t := &InfoFetchTask{
		engine: eng,
		opts:   opts,
		loc:    loc,
		log:    log,
	}
	t.sink = sink
	return t
}

// Run fetches metadata for url. It returns ErrCancelled once Cancel was
// called or ctx is done, ErrEmptyResult when the engine produced nothing,
// and an *ExtractionError for any other engine failure. Failures other
// than cancellation are logged once at error severity.
func (t *InfoFetchTask) Run(ctx context.Context, url string) (*model.VideoMetadata, error) {
	logger := engineLogger{gate: &t.cancelGate, classifier: NewClassifier(t.loc)}

	t.log.Debug("fetching metadata", zap.String("url", url))
	meta, err := t.engine.ExtractInfo(ctx, url, t.opts.extractOptions(logger))
	if t.IsCancelled() || ctx.Err() != nil {
		t.log.Debug("metadata fetch cancelled", zap.String("url", url))
		return nil, ErrCancelled
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, ErrCancelled
		}
		extErr := newExtractionError(err)
		t.emitLog(model.SeverityError, t.loc.Textf(i18n.KeyErrorPrefix, extErr.Message))
		return nil, extErr
	}
	if meta == nil {
		t.emitLog(model.SeverityError, t.loc.Textf(i18n.KeyErrorPrefix, t.loc.GetText(i18n.KeyEmptyResult)))
		return nil, ErrEmptyResult
	}

	t.log.Debug("metadata fetched",
		zap.String("title", meta.Title),
		zap.Int("formats", len(meta.Formats)),
	)
	return meta, nil
}
