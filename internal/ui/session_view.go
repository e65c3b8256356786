package ui

import (
	"context"
	"errors"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/ytget/vidgrab/internal/config"
	"github.com/ytget/vidgrab/internal/download"
	"github.com/ytget/vidgrab/internal/i18n"
	"github.com/ytget/vidgrab/internal/model"
	"github.com/ytget/vidgrab/internal/platform"
	"github.com/ytget/vidgrab/internal/session"
)

// sessionView walks one URL through the loading, info and download
// windows. All methods except the listener wrappers run on the UI thread.
type sessionView struct {
	root    *RootUI
	ctrl    *session.Controller
	url     string
	log     *zap.Logger
	tracker *download.ProgressTracker
	started time.Time
	stop    context.CancelFunc
	closed  bool

	loadingWin  fyne.Window
	infoWin     fyne.Window
	downloadWin fyne.Window

	formats      []model.FormatDescriptor
	formatSelect *widget.Select

	progressBar *widget.ProgressBar
	sizeLabel   *widget.Label
	detailLabel *widget.Label
	logView     *widget.RichText
	logScroll   *container.Scroll
	cancelBtn   *widget.Button
	openBtn     *widget.Button
	outcome     *model.Outcome
}

func newSessionView(root *RootUI, link string) (*sessionView, error) {
	ctrl, err := root.newController()
	if err != nil {
		return nil, err
	}
	return &sessionView{
		root:    root,
		ctrl:    ctrl,
		url:     link,
		log:     root.log.With(zap.String("session", ctrl.ID())),
		tracker: download.NewProgressTracker(root.localization),
	}, nil
}

// start opens the loading window and begins the metadata fetch
func (v *sessionView) start() {
	ctx, cancel := context.WithCancel(context.Background())
	v.stop = cancel
	go func() {
		if err := session.Dispatch(ctx, v.ctrl.Events(), v.listener()); err != nil && !errors.Is(err, context.Canceled) {
			v.log.Warn("event dispatch stopped", zap.Error(err))
		}
	}()

	v.showLoading()
	v.started = time.Now()
	if err := v.ctrl.StartInfoFetch(v.url); err != nil {
		v.log.Error("failed to start info fetch", zap.Error(err))
		dialog.ShowError(err, v.root.window)
		v.shutdown()
	}
}

// listener marshals controller events onto the UI thread
func (v *sessionView) listener() session.Listener {
	return session.ListenerFuncs{
		Progress: func(u model.ProgressUpdate) {
			fyne.Do(func() { v.onProgress(u) })
		},
		Log: func(ev model.LogEvent) {
			fyne.Do(func() { v.onLog(ev) })
		},
		StateChanged: func(s model.SessionState) {
			fyne.Do(func() { v.onStateChanged(s) })
		},
		Outcome: func(o model.Outcome) {
			fyne.Do(func() { v.onOutcome(o) })
		},
		InfoReady: func(info *model.VideoMetadata, formats []model.FormatDescriptor) {
			fyne.Do(func() { v.onInfoReady(info, formats) })
		},
		InfoFailed: func(err error) {
			fyne.Do(func() { v.onInfoFailed(err) })
		},
	}
}

// shutdown closes every window of the session and releases the controller
func (v *sessionView) shutdown() {
	if v.closed {
		return
	}
	v.closed = true

	v.closeWindow(v.loadingWin, config.WindowLoading)
	v.closeWindow(v.infoWin, config.WindowInfo)
	v.closeWindow(v.downloadWin, config.WindowDownload)

	ctrl, stop := v.ctrl, v.stop
	go func() {
		ctrl.Close()
		if stop != nil {
			stop()
		}
	}()
	v.root.sessionFinished(v)
}

func (v *sessionView) closeWindow(w fyne.Window, kind config.Window) {
	if w == nil {
		return
	}
	v.root.settings.SetWindowSize(kind, w.Canvas().Size())
	w.SetCloseIntercept(nil)
	w.Close()
}

func (v *sessionView) newWindow(title string, kind config.Window) fyne.Window {
	w := v.root.app.NewWindow(title)
	w.Resize(v.root.settings.GetWindowSize(kind))
	w.SetCloseIntercept(v.shutdown)
	return w
}

func (v *sessionView) showLoading() {
	loc := v.root.localization
	v.loadingWin = v.newWindow(loc.GetText(i18n.KeyLoadingInfo), config.WindowLoading)

	urlLabel := widget.NewLabel(v.url)
	urlLabel.Truncation = fyne.TextTruncateEllipsis
	cancelBtn := widget.NewButton(loc.GetText(i18n.KeyCancel), v.shutdown)

	v.loadingWin.SetContent(container.NewVBox(
		widget.NewLabel(loc.GetText(i18n.KeySearching)),
		widget.NewProgressBarInfinite(),
		urlLabel,
		container.NewHBox(layout.NewSpacer(), cancelBtn),
	))
	v.loadingWin.Show()
}

func (v *sessionView) onStateChanged(s model.SessionState) {
	if v.closed {
		return
	}
	v.log.Debug("session state changed", zap.Stringer("state", s))
	if s == model.StateFetchingInfo {
		v.root.showNotification(v.root.localization.GetText(i18n.KeySearching), true)
	}
}

func (v *sessionView) onInfoReady(info *model.VideoMetadata, formats []model.FormatDescriptor) {
	if v.closed {
		return
	}
	v.closeWindow(v.loadingWin, config.WindowLoading)
	v.loadingWin = nil
	v.root.hideNotification()

	loc := v.root.localization
	v.formats = formats
	v.infoWin = v.newWindow(info.Title, config.WindowInfo)

	details := widget.NewLabel(infoDetails(loc, info, formats, time.Since(v.started)))
	details.Wrapping = fyne.TextWrapWord

	labels := make([]string, len(formats))
	for i, f := range formats {
		labels[i] = f.Label()
	}
	v.formatSelect = widget.NewSelect(labels, nil)
	if len(labels) > 0 {
		v.formatSelect.SetSelectedIndex(0)
	}

	downloadBtn := widget.NewButton(loc.GetText(i18n.KeyDownload), v.onDownloadClick)
	downloadBtn.Importance = widget.HighImportance
	if len(formats) == 0 {
		downloadBtn.Disable()
	}
	cancelBtn := widget.NewButton(loc.GetText(i18n.KeyCancel), v.shutdown)

	v.infoWin.SetContent(container.NewBorder(
		nil,
		container.NewVBox(
			widget.NewLabel(loc.GetText(i18n.KeyFormat)),
			v.formatSelect,
			container.NewHBox(layout.NewSpacer(), cancelBtn, downloadBtn),
		),
		nil,
		nil,
		container.NewVScroll(details),
	))
	v.infoWin.Show()
}

func (v *sessionView) onInfoFailed(err error) {
	if v.closed {
		return
	}
	v.log.Info("info fetch failed", zap.Error(err))
	loc := v.root.localization
	window := v.root.window
	v.shutdown()
	dialog.ShowError(errors.New(loc.Textf(i18n.KeyInfoFailed, err.Error())), window)
}

func (v *sessionView) onDownloadClick() {
	idx := v.formatSelect.SelectedIndex()
	if idx < 0 || idx >= len(v.formats) {
		return
	}
	dir := v.root.settings.GetSaveDirectory()
	if err := platform.CreateDirectoryIfNotExists(dir); err != nil {
		dialog.ShowError(err, v.infoWin)
		return
	}
	if err := v.ctrl.SelectFormat(v.formats[idx].FormatID); err != nil {
		dialog.ShowError(err, v.infoWin)
		return
	}

	v.showDownload()
	if err := v.ctrl.StartDownload(dir); err != nil {
		v.log.Error("failed to start download", zap.Error(err))
		v.closeWindow(v.downloadWin, config.WindowDownload)
		v.downloadWin, v.logView, v.progressBar = nil, nil, nil
		dialog.ShowError(err, v.infoWin)
		return
	}
	v.closeWindow(v.infoWin, config.WindowInfo)
	v.infoWin = nil
}

func (v *sessionView) showDownload() {
	loc := v.root.localization
	v.downloadWin = v.newWindow(loc.GetText(i18n.KeyDownloadTitle), config.WindowDownload)

	v.progressBar = widget.NewProgressBar()
	v.sizeLabel = widget.NewLabel("")
	v.detailLabel = widget.NewLabel("")
	v.detailLabel.Wrapping = fyne.TextWrapWord
	v.logView = widget.NewRichText()
	v.logView.Wrapping = fyne.TextWrapWord
	v.logScroll = container.NewVScroll(v.logView)
	v.logScroll.SetMinSize(fyne.NewSize(0, LogMinHeight))

	v.cancelBtn = widget.NewButton(loc.GetText(i18n.KeyCancel), v.onCancelClick)
	v.openBtn = widget.NewButton(IconFolder+" "+loc.GetText(i18n.KeyOpenFolder), v.onOpenFolder)
	v.openBtn.Disable()

	v.downloadWin.SetContent(container.NewBorder(
		container.NewVBox(v.progressBar, v.sizeLabel, v.detailLabel),
		container.NewHBox(v.openBtn, layout.NewSpacer(), v.cancelBtn),
		nil,
		nil,
		v.logScroll,
	))
	v.downloadWin.Show()
}

func (v *sessionView) onCancelClick() {
	if v.outcome != nil {
		v.shutdown()
		return
	}
	v.cancelBtn.Disable()
	v.ctrl.Cancel()
}

func (v *sessionView) onProgress(u model.ProgressUpdate) {
	if v.closed || v.progressBar == nil {
		return
	}
	v.progressBar.SetValue(float64(u.Percent) / 100)
	v.sizeLabel.SetText(v.tracker.SizeString(u))
	v.detailLabel.SetText(v.tracker.DetailText(u))
}

func (v *sessionView) onLog(ev model.LogEvent) {
	if v.closed {
		return
	}
	if v.logView == nil {
		// Lines of the inspection phase go to the process log only
		v.log.Debug("session log", zap.String("severity", string(ev.Severity)), zap.String("text", ev.Text))
		return
	}
	v.logView.Segments = append(v.logView.Segments, &widget.TextSegment{
		Text:  ev.Text,
		Style: widget.RichTextStyle{ColorName: severityColor(ev.Severity)},
	})
	v.logView.Refresh()
	v.logScroll.ScrollToBottom()
}

func (v *sessionView) onOutcome(o model.Outcome) {
	if v.closed || v.downloadWin == nil {
		return
	}
	v.outcome = &o
	v.cancelBtn.SetText(v.root.localization.GetText(i18n.KeyClose))
	v.cancelBtn.Enable()

	switch o.Kind {
	case model.OutcomeSuccess, model.OutcomeAlreadyDownloaded:
		v.progressBar.SetValue(1)
		v.openBtn.Enable()
	case model.OutcomeError:
		dialog.ShowError(errors.New(o.Message), v.downloadWin)
	}
}

// onOpenFolder reveals the downloaded file, or the save directory when
// the engine never reported one
func (v *sessionView) onOpenFolder() {
	target := v.root.settings.GetSaveDirectory()
	if v.outcome != nil && v.outcome.Filename != "" {
		if resolved, err := platform.ResolveDownloadedFile(v.outcome.Filename); err == nil {
			target = resolved
		}
	}
	if err := platform.OpenFileInManager(target); err != nil {
		v.log.Warn("failed to open file manager", zap.String("path", target), zap.Error(err))
		dialog.ShowError(err, v.downloadWin)
	}
}

// infoDetails renders the details block of the info window
func infoDetails(loc *i18n.Localization, info *model.VideoMetadata, formats []model.FormatDescriptor, elapsed time.Duration) string {
	title := info.Title
	if title == "" {
		title = loc.GetText(i18n.KeyUntitled)
	}

	lines := []string{
		loc.Textf(i18n.KeyTitle, title),
		loc.Textf(i18n.KeyDuration, model.FormatClock(info.DurationSeconds)),
	}
	if info.Uploader != nil && *info.Uploader != "" {
		lines = append(lines, loc.Textf(i18n.KeyUploader, *info.Uploader))
	}
	if info.ViewCount != nil {
		lines = append(lines, loc.Textf(i18n.KeyViews, humanize.Comma(*info.ViewCount)))
	}
	lines = append(lines, loc.Textf(i18n.KeyFormatsAvailable, len(formats)))
	if height, ok := model.BestHeight(formats); ok {
		lines = append(lines, loc.Textf(i18n.KeyBestQuality, height))
	}
	lines = append(lines, loc.Textf(i18n.KeyElapsed, elapsed.Round(100*time.Millisecond)))
	return strings.Join(lines, "\n")
}

// severityColor maps a log severity to the theme color of its line
func severityColor(s model.Severity) fyne.ThemeColorName {
	switch s {
	case model.SeverityError:
		return theme.ColorNameError
	case model.SeverityWarning:
		return theme.ColorNameWarning
	case model.SeveritySuccess:
		return theme.ColorNameSuccess
	case model.SeverityDebug:
		return theme.ColorNameDisabled
	default:
		return theme.ColorNameForeground
	}
}
