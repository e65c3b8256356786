package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ytget/vidgrab/internal/model"
)

// Logger receives engine diagnostics split by channel
type Logger interface {
	Debug(msg string)
	Warning(msg string)
	Error(msg string)
}

// Progress statuses reported by the engine
const (
	StatusDownloading = "downloading"
	StatusFinished    = "finished"
)

// ProgressSample is one raw progress callback from the engine. Optional
// values are nil when the engine did not report them.
type ProgressSample struct {
	Status             string
	DownloadedBytes    int64
	TotalBytes         *int64
	TotalBytesEstimate *int64
	Speed              *float64 // bytes per second
	ETA                *int     // seconds
	Filename           string
}

// ExtractOptions configures a metadata-only extraction
type ExtractOptions struct {
	NoCheckCertificates bool
	GeoBypassCountry    string
	IgnoreErrors        bool
	Verbose             bool
	Logger              Logger
}

// DownloadOptions configures a download
type DownloadOptions struct {
	ExtractOptions

	Format          string // format selector, e.g. "best" or an engine format id
	OutputTemplate  string // e.g. /home/user/Downloads/%(title)s.%(ext)s
	SocketTimeout   time.Duration
	Retries         int
	FragmentRetries int
	Headers         map[string]string
	Progress        func(ProgressSample)
}

// DownloadResult describes what the engine did
type DownloadResult struct {
	Filename          string
	AlreadyDownloaded bool
}

// Engine resolves URLs into metadata and saves media to disk
type Engine interface {
	ExtractInfo(ctx context.Context, url string, opts ExtractOptions) (*model.VideoMetadata, error)
	Download(ctx context.Context, url string, opts DownloadOptions) (*DownloadResult, error)
}

// Engine kinds selectable by configuration
const (
	KindYTDLP  = "ytdlp"
	KindNative = "native"
)

var (
	_ Engine = (*YTDLP)(nil)
	_ Engine = (*Native)(nil)
)

// New returns the engine of the given kind. The executable and autoInstall
// settings only apply to the yt-dlp engine.
func New(kind, executable string, autoInstall bool, log *zap.Logger) (Engine, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", KindYTDLP:
		return NewYTDLP(executable, autoInstall, log), nil
	case KindNative:
		return NewNative(log), nil
	default:
		return nil, fmt.Errorf("unknown engine %q, expected %s or %s", kind, KindYTDLP, KindNative)
	}
}
