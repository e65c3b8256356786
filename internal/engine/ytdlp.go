package engine

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/lrstanley/go-ytdlp"
	"go.uber.org/zap"

	"github.com/ytget/vidgrab/internal/model"
)

// ProgressInterval is how often yt-dlp progress is forwarded to the hook
const ProgressInterval = 250 * time.Millisecond

// RunError is a yt-dlp failure carrying the engine's own error text
type RunError struct {
	Message string
	Err     error
}

func (e *RunError) Error() string {
	return e.Message
}

func (e *RunError) Unwrap() error {
	return e.Err
}

// YTDLP implements Engine by running the yt-dlp executable
type YTDLP struct {
	executable  string
	autoInstall bool
	log         *zap.Logger

	installOnce sync.Once
	installErr  error
}

// NewYTDLP creates a yt-dlp backed engine. An empty executable uses the
// binary found on PATH (or the one installed when autoInstall is set).
func NewYTDLP(executable string, autoInstall bool, log *zap.Logger) *YTDLP {
	if log == nil {
		log = zap.NewNop()
	}
	return &YTDLP{
		executable:  executable,
		autoInstall: autoInstall,
		log:         log.Named("ytdlp"),
	}
}

// ExtractInfo runs yt-dlp in metadata-only mode and decodes its JSON dump
func (y *YTDLP) ExtractInfo(ctx context.Context, url string, opts ExtractOptions) (*model.VideoMetadata, error) {
	if err := y.ensureInstalled(ctx); err != nil {
		return nil, err
	}

	dl := y.command().
		SkipDownload().
		DumpSingleJSON().
		NoPlaylist()
	applyExtractOptions(dl, opts)

	y.log.Debug("extracting metadata", zap.String("url", url))
	result, err := dl.Run(ctx, url)
	// stdout carries the JSON document only, which routeOutput skips
	routeOutput(outputLines(result), opts.Logger, err != nil)
	if err != nil {
		return nil, runError(ctx, err, result)
	}

	return parseMetadata(result.Stdout)
}

// Download runs yt-dlp for url, forwarding progress and diagnostics
func (y *YTDLP) Download(ctx context.Context, url string, opts DownloadOptions) (*DownloadResult, error) {
	if err := y.ensureInstalled(ctx); err != nil {
		return nil, err
	}

	dl := y.command().
		NoPlaylist().
		Format(opts.Format).
		Output(opts.OutputTemplate)
	applyExtractOptions(dl, opts.ExtractOptions)

	if opts.SocketTimeout > 0 {
		dl.SocketTimeout(opts.SocketTimeout.Seconds())
	}
	if opts.Retries > 0 {
		dl.Retries(strconv.Itoa(opts.Retries))
	}
	if opts.FragmentRetries > 0 {
		dl.FragmentRetries(strconv.Itoa(opts.FragmentRetries))
	}
	for _, header := range headerFields(opts.Headers) {
		dl.AddHeaders(header)
	}
	if opts.Progress != nil {
		hook := opts.Progress
		dl.ProgressFunc(ProgressInterval, func(update ytdlp.ProgressUpdate) {
			sample := sampleFromUpdate(update, time.Now())
			if sample.Status != StatusDownloading && sample.Status != StatusFinished {
				return
			}
			hook(sample)
		})
	}

	y.log.Debug("starting download",
		zap.String("url", url),
		zap.String("format", opts.Format),
		zap.String("output", opts.OutputTemplate),
	)
	result, err := dl.Run(ctx, url)
	routeOutput(outputLines(result), opts.Logger, err != nil)
	if err != nil {
		return nil, runError(ctx, err, result)
	}

	res := scanDownloadOutput(result.Stdout)
	if res.Filename == "" {
		if info, infoErr := result.GetExtractedInfo(); infoErr == nil && len(info) > 0 && info[0].Filename != nil {
			res.Filename = *info[0].Filename
		}
	}
	return res, nil
}

func (y *YTDLP) command() *ytdlp.Command {
	dl := ytdlp.New()
	if y.executable != "" {
		dl.SetExecutable(y.executable)
	}
	return dl
}

func (y *YTDLP) ensureInstalled(ctx context.Context) error {
	if !y.autoInstall || y.executable != "" {
		return nil
	}
	y.installOnce.Do(func() {
		y.log.Info("ensuring yt-dlp is installed")
		if _, err := ytdlp.Install(ctx, nil); err != nil {
			y.installErr = &RunError{Message: "failed to install yt-dlp: " + err.Error(), Err: err}
		}
	})
	return y.installErr
}

func applyExtractOptions(dl *ytdlp.Command, opts ExtractOptions) {
	if opts.NoCheckCertificates {
		dl.NoCheckCertificates()
	}
	if opts.GeoBypassCountry != "" {
		dl.GeoBypassCountry(opts.GeoBypassCountry)
	}
	if opts.IgnoreErrors {
		dl.IgnoreErrors()
	}
	if opts.Verbose {
		dl.Verbose()
	}
}

// headerFields renders headers as sorted "Name:Value" fields
func headerFields(headers map[string]string) []string {
	names := make([]string, 0, len(headers))
	for name := range headers {
		names = append(names, name)
	}
	sort.Strings(names)

	fields := make([]string, 0, len(names))
	for _, name := range names {
		fields = append(fields, name+":"+headers[name])
	}
	return fields
}

// sampleFromUpdate converts a go-ytdlp progress update. Speed is derived from
// the transfer start time since yt-dlp's template does not carry it.
func sampleFromUpdate(update ytdlp.ProgressUpdate, now time.Time) ProgressSample {
	status := string(update.Status)
	if status == "starting" {
		status = StatusDownloading
	}

	sample := ProgressSample{
		Status:          status,
		DownloadedBytes: int64(update.DownloadedBytes),
		Filename:        update.Filename,
	}
	if update.TotalBytes > 0 {
		total := int64(update.TotalBytes)
		sample.TotalBytes = &total
	}
	if !update.Started.IsZero() && update.DownloadedBytes > 0 {
		elapsed := now.Sub(update.Started).Seconds()
		if elapsed > 0 {
			speed := float64(update.DownloadedBytes) / elapsed
			sample.Speed = &speed
		}
	}
	if eta := update.ETA(); eta > 0 {
		secs := int(eta.Seconds())
		sample.ETA = &secs
	}
	return sample
}

// runError prefers cancellation, then the last ERROR line yt-dlp printed
func runError(ctx context.Context, err error, result *ytdlp.Result) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if result != nil {
		if msg := lastErrorLine(result.Stderr); msg != "" {
			return &RunError{Message: msg, Err: err}
		}
	}
	return &RunError{Message: err.Error(), Err: err}
}

func lastErrorLine(output string) string {
	var last string
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, errorPrefix) {
			last = strings.TrimSpace(strings.TrimPrefix(line, errorPrefix))
		}
	}
	return last
}
