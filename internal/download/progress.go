package download

import (
	"fmt"
	"math"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"github.com/ytget/vidgrab/internal/engine"
	"github.com/ytget/vidgrab/internal/i18n"
	"github.com/ytget/vidgrab/internal/model"
)

// periodicLogStep is the percent interval at which progress is echoed to the log
const periodicLogStep = 10

// NormalizeSample converts a raw engine sample into a progress update.
// Only "downloading" samples are accepted.
func NormalizeSample(sample engine.ProgressSample) (model.ProgressUpdate, error) {
	if err := validateSample(sample); err != nil {
		return model.ProgressUpdate{}, err
	}

	var total int64
	switch {
	case sample.TotalBytes != nil && *sample.TotalBytes > 0:
		total = *sample.TotalBytes
	case sample.TotalBytesEstimate != nil && *sample.TotalBytesEstimate > 0:
		total = *sample.TotalBytesEstimate
	}

	update := model.ProgressUpdate{
		DownloadedBytes:  sample.DownloadedBytes,
		TotalBytes:       total,
		SpeedBytesPerSec: sample.Speed,
		ETASeconds:       sample.ETA,
	}
	if sample.Filename != "" {
		update.Filename = filepath.Base(sample.Filename)
	}
	if total > 0 {
		update.Percent = min(int(sample.DownloadedBytes*100/total), 100)
	}
	return update, nil
}

func validateSample(sample engine.ProgressSample) error {
	switch {
	case sample.Status != engine.StatusDownloading:
		return fmt.Errorf("%w: unexpected status %q", ErrMalformedSample, sample.Status)
	case sample.DownloadedBytes < 0:
		return fmt.Errorf("%w: negative downloaded bytes %d", ErrMalformedSample, sample.DownloadedBytes)
	case sample.TotalBytes != nil && *sample.TotalBytes < 0:
		return fmt.Errorf("%w: negative total bytes %d", ErrMalformedSample, *sample.TotalBytes)
	case sample.TotalBytesEstimate != nil && *sample.TotalBytesEstimate < 0:
		return fmt.Errorf("%w: negative total estimate %d", ErrMalformedSample, *sample.TotalBytesEstimate)
	case sample.Speed != nil && (math.IsNaN(*sample.Speed) || math.IsInf(*sample.Speed, 0) || *sample.Speed < 0):
		return fmt.Errorf("%w: invalid speed %v", ErrMalformedSample, *sample.Speed)
	case sample.ETA != nil && *sample.ETA < 0:
		return fmt.Errorf("%w: negative eta %d", ErrMalformedSample, *sample.ETA)
	}
	return nil
}

// ShouldEmitPeriodicLog reports whether update lands on a logging step
// (0, 10, ..., 100)
func ShouldEmitPeriodicLog(update model.ProgressUpdate) bool {
	return update.Percent >= 0 && update.Percent <= 100 && update.Percent%periodicLogStep == 0
}

// ProgressTracker normalizes the samples of one download task and decides
// which of them are echoed to the log. A percent step is logged once per
// file; a percent drop or a new file name starts a new file.
type ProgressTracker struct {
	loc *i18n.Localization

	file        string
	lastPercent int
	lastLogged  int
	lastPath    string
}

// NewProgressTracker creates a tracker rendering texts with loc
func NewProgressTracker(loc *i18n.Localization) *ProgressTracker {
	if loc == nil {
		loc = i18n.NewLocalization()
	}
	return &ProgressTracker{loc: loc, lastLogged: -1}
}

// Update normalizes sample and reports whether a periodic log line is due
func (t *ProgressTracker) Update(sample engine.ProgressSample) (model.ProgressUpdate, bool, error) {
	update, err := NormalizeSample(sample)
	if err != nil {
		return update, false, err
	}

	if update.Filename != t.file || update.Percent < t.lastPercent {
		t.file = update.Filename
		t.lastLogged = -1
	}
	t.lastPercent = update.Percent
	if sample.Filename != "" {
		t.lastPath = sample.Filename
	}

	due := ShouldEmitPeriodicLog(update) && update.Percent != t.lastLogged
	if due {
		t.lastLogged = update.Percent
	}
	return update, due, nil
}

// LastFile returns the full path of the last file the engine reported
func (t *ProgressTracker) LastFile() string {
	return t.lastPath
}

// SpeedString renders the speed in MB/s with two decimals
func (t *ProgressTracker) SpeedString(speed *float64) string {
	if speed == nil || *speed <= 0 {
		return t.loc.GetText(i18n.KeyNotAvailable)
	}
	return t.loc.Textf(i18n.KeySpeedFormat, *speed/model.MiB)
}

// ETAString renders the remaining time as m:ss
func (t *ProgressTracker) ETAString(eta *int) string {
	if eta == nil || *eta <= 0 {
		return t.loc.GetText(i18n.KeyNotAvailable)
	}
	return model.FormatClock(*eta)
}

// SizeString renders "Downloaded: X of Y" with human readable sizes
func (t *ProgressTracker) SizeString(update model.ProgressUpdate) string {
	total := t.loc.GetText(i18n.KeyNotAvailable)
	if update.TotalBytes > 0 {
		total = humanize.IBytes(uint64(update.TotalBytes))
	}
	return t.loc.Textf(i18n.KeySizeLine, humanize.IBytes(uint64(update.DownloadedBytes)), total)
}

// ProgressLine renders the periodic log line
func (t *ProgressTracker) ProgressLine(update model.ProgressUpdate) string {
	return t.loc.Textf(i18n.KeyProgressLine, update.Percent, t.SpeedString(update.SpeedBytesPerSec), t.ETAString(update.ETASeconds))
}

// DetailText renders the file name followed by the progress line
func (t *ProgressTracker) DetailText(update model.ProgressUpdate) string {
	return t.loc.Textf(i18n.KeyProgressFile, update.Filename) + "\n" + t.ProgressLine(update)
}
