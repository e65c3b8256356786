package engine

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ytget/ytdlp/errs"
	"github.com/ytget/ytdlp/types"
	ytgo "github.com/ytget/ytdlp/v2"
	"go.uber.org/zap"

	"github.com/ytget/vidgrab/internal/model"
)

var (
	reQualityHeight = regexp.MustCompile(`(\d{3,4})p`)
	reUnsafeName    = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]+`)
)

// nativeClient is the part of the pure-Go YouTube downloader the engine uses
type nativeClient interface {
	ResolveURL(ctx context.Context, videoURL string) (string, *ytgo.VideoInfo, error)
	Download(ctx context.Context, videoURL string) (*ytgo.VideoInfo, error)
}

// nativeRequest configures one client
type nativeRequest struct {
	selector   string
	outputPath string
	progress   func(ytgo.Progress)
	httpClient *http.Client
}

// Native implements Engine with a pure-Go YouTube client. It needs no
// yt-dlp binary but only understands YouTube links, and it reports no
// engine diagnostics of its own besides the screen lines it synthesizes.
type Native struct {
	log       *zap.Logger
	newClient func(nativeRequest) nativeClient
}

// NewNative creates the pure-Go engine
func NewNative(log *zap.Logger) *Native {
	if log == nil {
		log = zap.NewNop()
	}
	return &Native{
		log:       log.Named("native"),
		newClient: newNativeClient,
	}
}

func newNativeClient(req nativeRequest) nativeClient {
	dl := ytgo.New().WithFormat(req.selector, "")
	if req.outputPath != "" {
		dl.WithOutputPath(req.outputPath)
	}
	if req.progress != nil {
		dl.WithProgress(req.progress)
	}
	if req.httpClient != nil {
		dl.WithHTTPClient(req.httpClient)
	}
	return dl
}

// ExtractInfo resolves the video page and maps its stream list to formats
func (n *Native) ExtractInfo(ctx context.Context, videoURL string, opts ExtractOptions) (*model.VideoMetadata, error) {
	client := n.newClient(nativeRequest{
		selector:   nativeSelector(""),
		httpClient: nativeHTTPClient(opts.NoCheckCertificates, 0),
	})

	n.log.Debug("resolving metadata", zap.String("url", videoURL))
	screen(opts.Logger, "[youtube] Extracting URL: %s", videoURL)
	info, _, err := n.resolve(ctx, client, videoURL)
	if err != nil {
		return nil, err
	}
	if info == nil {
		return nil, nil
	}

	meta := metadataFromNative(info)
	screen(opts.Logger, "[info] %s: %d format(s) available", meta.ID, len(meta.Formats))
	return meta, nil
}

// Download resolves the selected stream, names the output file from the
// template and fetches the stream into it
func (n *Native) Download(ctx context.Context, videoURL string, opts DownloadOptions) (*DownloadResult, error) {
	httpClient := nativeHTTPClient(opts.NoCheckCertificates, opts.SocketTimeout)
	selector := nativeSelector(opts.Format)

	screen(opts.Logger, "[youtube] Extracting URL: %s", videoURL)
	info, mediaURL, err := n.resolve(ctx, n.newClient(nativeRequest{selector: selector, httpClient: httpClient}), videoURL)
	if err != nil {
		return nil, err
	}
	if info == nil {
		return nil, &RunError{Message: "no video information returned for " + videoURL}
	}

	ext := "mp4"
	if f, ok := selectedFormat(info.Formats, mediaURL); ok {
		if e := extFromMime(f.MimeType); e != "" {
			ext = e
		}
	}
	path := expandOutputTemplate(opts.OutputTemplate, info.ID, info.Title, ext)

	if st, statErr := os.Stat(path); statErr == nil && !st.IsDir() && st.Size() > 0 {
		screen(opts.Logger, "[download] %s has already been downloaded", path)
		return &DownloadResult{Filename: path, AlreadyDownloaded: true}, nil
	}
	screen(opts.Logger, "[download] Destination: %s", path)

	n.log.Debug("starting download",
		zap.String("url", videoURL),
		zap.String("selector", selector),
		zap.String("output", path),
	)
	progress := newNativeProgress(path, opts.Progress)
	client := n.newClient(nativeRequest{
		selector:   selector,
		outputPath: path,
		progress:   progress.update,
		httpClient: httpClient,
	})
	if err := guard(func() error {
		_, err := client.Download(ctx, videoURL)
		return err
	}); err != nil {
		return nil, nativeError(ctx, err)
	}

	progress.finish()
	return &DownloadResult{Filename: path}, nil
}

func (n *Native) resolve(ctx context.Context, client nativeClient, videoURL string) (*ytgo.VideoInfo, string, error) {
	var (
		mediaURL string
		info     *ytgo.VideoInfo
	)
	err := guard(func() error {
		var err error
		mediaURL, info, err = client.ResolveURL(ctx, videoURL)
		return err
	})
	if err != nil {
		return nil, "", nativeError(ctx, err)
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, "", ctxErr
	}
	return info, mediaURL, nil
}

// guard turns a panic inside the client into an error
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("native engine panic: %v", r)
		}
	}()
	return fn()
}

// nativeSelector maps a format id to the client's selector syntax
func nativeSelector(format string) string {
	format = strings.TrimSpace(format)
	if format == "" {
		return "best"
	}
	if _, err := strconv.Atoi(format); err == nil {
		return "itag=" + format
	}
	return format
}

func nativeHTTPClient(insecure bool, timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &http.Client{
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           (&net.Dialer{Timeout: timeout}).DialContext,
			TLSHandshakeTimeout:   timeout,
			ResponseHeaderTimeout: timeout,
			MaxIdleConns:          100,
			IdleConnTimeout:       90 * time.Second,
			TLSClientConfig:       &tls.Config{InsecureSkipVerify: insecure},
		},
	}
}

func metadataFromNative(info *ytgo.VideoInfo) *model.VideoMetadata {
	meta := &model.VideoMetadata{
		ID:      info.ID,
		Title:   info.Title,
		Formats: make([]model.FormatDescriptor, 0, len(info.Formats)),
	}
	if info.Duration > 0 {
		meta.DurationSeconds = info.Duration
	}
	if author := strings.TrimSpace(info.Author); author != "" {
		meta.Uploader = &author
	}
	for _, f := range info.Formats {
		desc := model.FormatDescriptor{
			FormatID:  strconv.Itoa(f.Itag),
			Extension: extFromMime(f.MimeType),
		}
		if m := reQualityHeight.FindStringSubmatch(f.Quality); m != nil {
			if h, err := strconv.Atoi(m[1]); err == nil && h > 0 {
				desc.Height = &h
			}
		} else if strings.HasPrefix(f.MimeType, "audio/") {
			audio := "audio only"
			desc.Resolution = &audio
		}
		if f.Size > 0 {
			size := f.Size
			desc.FileSizeBytes = &size
		}
		meta.Formats = append(meta.Formats, desc)
	}
	return meta
}

// selectedFormat finds the format whose stream the media URL points to
func selectedFormat(formats []types.Format, mediaURL string) (types.Format, bool) {
	u, err := url.Parse(mediaURL)
	if err != nil {
		return types.Format{}, false
	}
	itag, err := strconv.Atoi(u.Query().Get("itag"))
	if err != nil {
		return types.Format{}, false
	}
	for _, f := range formats {
		if f.Itag == itag {
			return f, true
		}
	}
	return types.Format{}, false
}

// extFromMime returns the file extension for a stream mime type such as
// `video/mp4; codecs="avc1.64001F"`
func extFromMime(mimeType string) string {
	mediaType, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return ""
	}
	switch mediaType {
	case "audio/mp4":
		return "m4a"
	case "video/3gpp":
		return "3gp"
	}
	if _, sub, ok := strings.Cut(mediaType, "/"); ok {
		return sub
	}
	return ""
}

// expandOutputTemplate fills the title, id and ext fields of an output
// template like "/dir/%(title)s.%(ext)s"
func expandOutputTemplate(template, id, title, ext string) string {
	return strings.NewReplacer(
		"%(title)s", safeFileName(title),
		"%(id)s", safeFileName(id),
		"%(ext)s", ext,
	).Replace(template)
}

func safeFileName(name string) string {
	name = strings.TrimSpace(reUnsafeName.ReplaceAllString(name, "_"))
	name = strings.Trim(name, ". ")
	if name == "" {
		return "video"
	}
	return name
}

var nativeErrorMessages = []struct {
	err error
	msg string
}{
	{errs.ErrPrivate, "Private video. Sign in if you've been granted access to this video"},
	{errs.ErrAgeRestricted, "Sign in to confirm your age. This video may be inappropriate for some users."},
	{errs.ErrGeoBlocked, "The uploader has not made this video available in your country"},
	{errs.ErrRateLimited, "HTTP Error 429: Too Many Requests"},
	{errs.ErrCipherFailed, "Unable to decipher the stream signature"},
	{errs.ErrVideoUnavailable, "Video unavailable"},
}

// nativeError prefers cancellation, then a readable text for the client's
// typed playability errors
func nativeError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	for _, m := range nativeErrorMessages {
		if errors.Is(err, m.err) {
			return &RunError{Message: m.msg, Err: err}
		}
	}
	return &RunError{Message: err.Error(), Err: err}
}

// screen writes a synthesized yt-dlp style screen line to the logger
func screen(logger Logger, format string, args ...any) {
	if logger != nil {
		logger.Debug(fmt.Sprintf(format, args...))
	}
}

// nativeProgress converts the client's byte counters into progress samples,
// forwarding at most one sample per ProgressInterval
type nativeProgress struct {
	filename string
	hook     func(ProgressSample)
	started  time.Time
	lastEmit time.Time
	last     ytgo.Progress
	now      func() time.Time
}

func newNativeProgress(filename string, hook func(ProgressSample)) *nativeProgress {
	return &nativeProgress{filename: filename, hook: hook, now: time.Now}
}

func (p *nativeProgress) update(pr ytgo.Progress) {
	now := p.now()
	if p.started.IsZero() {
		p.started = now
	}
	p.last = pr
	if p.hook == nil || (!p.lastEmit.IsZero() && now.Sub(p.lastEmit) < ProgressInterval) {
		return
	}
	p.lastEmit = now
	p.hook(p.sample(StatusDownloading, now))
}

func (p *nativeProgress) finish() {
	if p.hook == nil {
		return
	}
	if p.last.TotalSize <= 0 {
		if st, err := os.Stat(p.filename); err == nil {
			p.last.TotalSize = st.Size()
		}
	}
	p.last.DownloadedSize = p.last.TotalSize
	p.hook(p.sample(StatusFinished, p.now()))
}

func (p *nativeProgress) sample(status string, now time.Time) ProgressSample {
	s := ProgressSample{
		Status:          status,
		DownloadedBytes: p.last.DownloadedSize,
		Filename:        p.filename,
	}
	if p.last.TotalSize > 0 {
		total := p.last.TotalSize
		s.TotalBytes = &total
	}
	if elapsed := now.Sub(p.started).Seconds(); !p.started.IsZero() && elapsed > 0 && p.last.DownloadedSize > 0 {
		speed := float64(p.last.DownloadedSize) / elapsed
		s.Speed = &speed
		if p.last.TotalSize > p.last.DownloadedSize {
			eta := int(float64(p.last.TotalSize-p.last.DownloadedSize) / speed)
			s.ETA = &eta
		}
	}
	return s
}
