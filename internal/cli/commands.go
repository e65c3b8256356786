package cli

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/ytget/vidgrab/internal/download"
	"github.com/ytget/vidgrab/internal/i18n"
	"github.com/ytget/vidgrab/internal/model"
	"github.com/ytget/vidgrab/internal/platform"
	"github.com/ytget/vidgrab/internal/session"
)

// ErrNoFormats is returned when the video offers nothing to download
var ErrNoFormats = errors.New("no formats available")

// reportedError marks an error whose message was already printed as a
// log line
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

// IsReported reports whether err was already shown to the user
func IsReported(err error) bool {
	var re *reportedError
	return errors.As(err, &re)
}

type infoJSON struct {
	Title           string       `json:"title"`
	DurationSeconds int          `json:"duration_seconds"`
	Uploader        *string      `json:"uploader,omitempty"`
	ViewCount       *int64       `json:"view_count,omitempty"`
	Formats         []formatJSON `json:"formats"`
}

type formatJSON struct {
	ID         string  `json:"id"`
	Label      string  `json:"label"`
	Height     *int    `json:"height,omitempty"`
	Resolution *string `json:"resolution,omitempty"`
	Extension  string  `json:"ext"`
	FileSize   *int64  `json:"filesize,omitempty"`
}

func (a *App) runInfo(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("info", flag.ContinueOnError)
	jsonOut := fs.Bool("json", false, "print JSON output")
	lang := fs.String("lang", a.Options.Language, "message language: en|ru|pt")
	verbose := fs.Bool("verbose", false, "print debug lines")

	fs.SetOutput(a.Err)
	if err := fs.Parse(args); err != nil {
		return err
	}
	link, err := urlArg(fs)
	if err != nil {
		return err
	}

	ctrl, loc, err := a.newController(*lang, a.Options.Preflight)
	if err != nil {
		return err
	}
	defer ctrl.Close()

	printer := newLogPrinter(a.Err, *verbose)
	info, formats, err := a.fetchInfo(ctx, ctrl, link, printer)
	if err != nil {
		return err
	}

	if *jsonOut {
		return printJSON(a.Out, toInfoJSON(info, formats))
	}
	return printInfo(a.Out, loc, info, formats)
}

func (a *App) runDownload(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("download", flag.ContinueOnError)
	formatID := fs.String("format", "", "format id to download (default: best ranked format)")
	outputDir := fs.String("output-dir", a.Options.OutputDir, "download output dir")
	lang := fs.String("lang", a.Options.Language, "message language: en|ru|pt")
	preflight := fs.Bool("preflight", a.Options.Preflight, "fetch the video info again before the transfer")
	noProgress := fs.Bool("no-progress", false, "disable the progress bar")
	verbose := fs.Bool("verbose", false, "print debug lines")

	fs.SetOutput(a.Err)
	if err := fs.Parse(args); err != nil {
		return err
	}
	link, err := urlArg(fs)
	if err != nil {
		return err
	}
	dir := strings.TrimSpace(*outputDir)
	if dir == "" {
		return fmt.Errorf("%w: --output-dir is required", ErrUsage)
	}
	if err := platform.CreateDirectoryIfNotExists(dir); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	ctrl, loc, err := a.newController(*lang, *preflight)
	if err != nil {
		return err
	}
	defer ctrl.Close()

	printer := newLogPrinter(a.Err, *verbose)
	info, formats, err := a.fetchInfo(ctx, ctrl, link, printer)
	if err != nil {
		return err
	}

	id := strings.TrimSpace(*formatID)
	if id == "" {
		if len(formats) == 0 {
			return ErrNoFormats
		}
		id = formats[0].FormatID
	}
	if err := ctrl.SelectFormat(id); err != nil {
		return err
	}
	selected, _ := model.FindFormat(formats, id)
	fmt.Fprintln(a.Out, loc.Textf(i18n.KeyTitle, titleOf(loc, info)))
	fmt.Fprintf(a.Out, "%s %s\n", loc.GetText(i18n.KeyFormat), selected.Label())

	if err := ctrl.StartDownload(dir); err != nil {
		return err
	}

	bar := newProgressRenderer(a.Err, !*noProgress)
	outcome, err := a.waitOutcome(ctx, ctrl, printer, bar)
	if err != nil {
		return err
	}

	a.Logger.Info("download finished", zap.Stringer("outcome", outcome), zap.String("session", ctrl.ID()))
	switch outcome.Kind {
	case model.OutcomeSuccess, model.OutcomeAlreadyDownloaded:
		if outcome.Filename != "" {
			fmt.Fprintln(a.Out, outcome.Filename)
		}
		return nil
	case model.OutcomeCancelled:
		return &reportedError{err: download.ErrCancelled}
	default:
		return &reportedError{err: errors.New(outcome.Message)}
	}
}

// fetchInfo runs the inspection phase and waits for its result. An
// interrupt abandons the fetch.
func (a *App) fetchInfo(ctx context.Context, ctrl *session.Controller, link string, printer *logPrinter) (*model.VideoMetadata, []model.FormatDescriptor, error) {
	if err := ctrl.StartInfoFetch(link); err != nil {
		return nil, nil, err
	}

	events := ctrl.Events()
	for {
		select {
		case <-ctx.Done():
			ctrl.Cancel()
			return nil, nil, ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil, nil, session.ErrClosed
			}
			switch ev.Kind {
			case model.EventLog:
				printer.Print(ev.Log)
			case model.EventInfoReady:
				return ev.Info, ev.Formats, nil
			case model.EventInfoFailed:
				return nil, nil, &reportedError{err: ev.Err}
			}
		}
	}
}

// waitOutcome renders the download until its terminal event. The first
// interrupt requests cancellation; the task then reports Cancelled.
func (a *App) waitOutcome(ctx context.Context, ctrl *session.Controller, printer *logPrinter, bar *progressRenderer) (model.Outcome, error) {
	interrupted := ctx.Done()
	events := ctrl.Events()
	for {
		select {
		case <-interrupted:
			interrupted = nil
			bar.Clear()
			ctrl.Cancel()
		case ev, ok := <-events:
			if !ok {
				bar.Abort()
				return model.Outcome{}, session.ErrClosed
			}
			switch ev.Kind {
			case model.EventProgress:
				bar.Update(ev.Progress)
			case model.EventLog:
				bar.Clear()
				printer.Print(ev.Log)
			case model.EventOutcome:
				if ev.Outcome.Kind == model.OutcomeSuccess {
					bar.Finish()
				} else {
					bar.Abort()
				}
				return ev.Outcome, nil
			}
		}
	}
}

func urlArg(fs *flag.FlagSet) (string, error) {
	if fs.NArg() != 1 {
		return "", fmt.Errorf("%w: expected exactly one URL, got %d arguments", ErrUsage, fs.NArg())
	}
	link := strings.TrimSpace(fs.Arg(0))
	if link == "" {
		return "", fmt.Errorf("%w: empty URL", ErrUsage)
	}
	return link, nil
}

func titleOf(loc *i18n.Localization, info *model.VideoMetadata) string {
	if info == nil || info.Title == "" {
		return loc.GetText(i18n.KeyUntitled)
	}
	return info.Title
}

func printInfo(w io.Writer, loc *i18n.Localization, info *model.VideoMetadata, formats []model.FormatDescriptor) error {
	fmt.Fprintln(w, loc.Textf(i18n.KeyTitle, titleOf(loc, info)))
	fmt.Fprintln(w, loc.Textf(i18n.KeyDuration, model.FormatClock(info.DurationSeconds)))
	if info.Uploader != nil && *info.Uploader != "" {
		fmt.Fprintln(w, loc.Textf(i18n.KeyUploader, *info.Uploader))
	}
	if info.ViewCount != nil {
		fmt.Fprintln(w, loc.Textf(i18n.KeyViews, humanize.Comma(*info.ViewCount)))
	}
	fmt.Fprintln(w, loc.Textf(i18n.KeyFormatsAvailable, len(formats)))
	if height, ok := model.BestHeight(formats); ok {
		fmt.Fprintln(w, loc.Textf(i18n.KeyBestQuality, height))
	}
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tHEIGHT\tRESOLUTION\tEXT\tSIZE")
	for _, f := range formats {
		height := "-"
		if f.Height != nil {
			height = strconv.Itoa(*f.Height) + "p"
		}
		resolution := "-"
		if f.Resolution != nil && *f.Resolution != "" {
			resolution = *f.Resolution
		}
		size := "-"
		if f.FileSizeBytes != nil && *f.FileSizeBytes > 0 {
			size = humanize.IBytes(uint64(*f.FileSizeBytes))
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", f.FormatID, height, resolution, strings.ToUpper(f.Extension), size)
	}
	return tw.Flush()
}

func toInfoJSON(info *model.VideoMetadata, formats []model.FormatDescriptor) infoJSON {
	out := infoJSON{
		Title:           info.Title,
		DurationSeconds: info.DurationSeconds,
		Uploader:        info.Uploader,
		ViewCount:       info.ViewCount,
		Formats:         make([]formatJSON, 0, len(formats)),
	}
	for _, f := range formats {
		out.Formats = append(out.Formats, formatJSON{
			ID:         f.FormatID,
			Label:      f.Label(),
			Height:     f.Height,
			Resolution: f.Resolution,
			Extension:  f.Extension,
			FileSize:   f.FileSizeBytes,
		})
	}
	return out
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
