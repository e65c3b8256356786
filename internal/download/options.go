package download

import (
	"path/filepath"
	"time"

	"github.com/ytget/vidgrab/internal/engine"
)

const (
	// DefaultFormat is the selector used when no format was chosen
	DefaultFormat = "best"
	// OutputTemplate names files after the video title
	OutputTemplate = "%(title)s.%(ext)s"

	DefaultGeoBypassCountry = "RU"
	DefaultSocketTimeout    = 30 * time.Second
	DefaultRetries          = 10
	DefaultFragmentRetries  = 10
)

// Options configures the engine calls made by tasks
type Options struct {
	GeoBypassCountry string
	SocketTimeout    time.Duration
	Retries          int
	FragmentRetries  int
	Headers          map[string]string
	Verbose          bool
	// Preflight repeats the metadata fetch before the transfer to log the
	// title, duration and format count
	Preflight bool
}

// DefaultOptions returns the fixed download configuration
func DefaultOptions() Options {
	return Options{
		GeoBypassCountry: DefaultGeoBypassCountry,
		SocketTimeout:    DefaultSocketTimeout,
		Retries:          DefaultRetries,
		FragmentRetries:  DefaultFragmentRetries,
		Headers:          DefaultHeaders(),
		Verbose:          true,
		Preflight:        true,
	}
}

// DefaultHeaders returns a browser-like header set
func DefaultHeaders() map[string]string {
	return map[string]string{
		"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		"Accept-Language": "en-us,en;q=0.5",
		"Sec-Fetch-Mode":  "navigate",
	}
}

func (o Options) extractOptions(logger engine.Logger) engine.ExtractOptions {
	return engine.ExtractOptions{
		NoCheckCertificates: true,
		GeoBypassCountry:    o.GeoBypassCountry,
		IgnoreErrors:        true,
		Verbose:             o.Verbose,
		Logger:              logger,
	}
}

func (o Options) downloadOptions(outputDir, formatID string, logger engine.Logger, progress func(engine.ProgressSample)) engine.DownloadOptions {
	if formatID == "" {
		formatID = DefaultFormat
	}
	return engine.DownloadOptions{
		ExtractOptions:  o.extractOptions(logger),
		Format:          formatID,
		OutputTemplate:  filepath.Join(outputDir, OutputTemplate),
		SocketTimeout:   o.SocketTimeout,
		Retries:         o.Retries,
		FragmentRetries: o.FragmentRetries,
		Headers:         o.Headers,
		Progress:        progress,
	}
}
