package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/ytget/vidgrab/internal/download"
	"github.com/ytget/vidgrab/internal/engine"
	"github.com/ytget/vidgrab/internal/i18n"
	"github.com/ytget/vidgrab/internal/platform"
	"github.com/ytget/vidgrab/internal/session"
)

// Environment variable names
const (
	EnvEngine          = "YTDL_ENGINE"
	EnvBinary          = "YTDL_BINARY"
	EnvAutoInstall     = "YTDL_AUTO_INSTALL"
	EnvGeoCountry      = "YTDL_GEO_COUNTRY"
	EnvSocketTimeout   = "YTDL_SOCKET_TIMEOUT"
	EnvRetries         = "YTDL_RETRIES"
	EnvFragmentRetries = "YTDL_FRAGMENT_RETRIES"
	EnvPreflight       = "YTDL_PREFLIGHT"
	EnvCancelGrace     = "YTDL_CANCEL_GRACE"
	EnvOutputDir       = "YTDL_OUTPUT_DIR"
	EnvLanguage        = "YTDL_LANGUAGE"
	EnvLogLevel        = "YTDL_LOG_LEVEL"
)

// DefaultLogLevel is used when YTDL_LOG_LEVEL is unset
const DefaultLogLevel = "INFO"

var validLogLevels = map[string]bool{
	"DEBUG": true,
	"INFO":  true,
	"WARN":  true,
	"ERROR": true,
}

// Options holds the process-wide configuration read from the environment
type Options struct {
	Engine          string        // ytdlp or native
	Binary          string        // yt-dlp executable; empty uses PATH
	AutoInstall     bool          // download yt-dlp when it is missing
	GeoCountry      string        // geo bypass country code
	SocketTimeout   time.Duration // per-socket engine timeout
	Retries         int           // engine connection retries
	FragmentRetries int           // engine retries per fragment
	Preflight       bool          // fetch metadata again before downloading
	CancelGrace     time.Duration // wait before a cancelled task is stopped
	OutputDir       string        // default save directory
	Language        string        // user-facing text language
	LogLevel        string        // DEBUG, INFO, WARN or ERROR
}

// DefaultOptions returns the configuration used when nothing is set
func DefaultOptions() Options {
	return Options{
		Engine:          engine.KindYTDLP,
		GeoCountry:      download.DefaultGeoBypassCountry,
		SocketTimeout:   download.DefaultSocketTimeout,
		Retries:         download.DefaultRetries,
		FragmentRetries: download.DefaultFragmentRetries,
		Preflight:       true,
		CancelGrace:     session.DefaultCancelGrace,
		Language:        i18n.LangEnglish,
		LogLevel:        DefaultLogLevel,
	}
}

// LoadOptions reads a .env file when present (the named files, or ".env"
// in the working directory) and then the environment. Values already set
// in the environment win over the file.
func LoadOptions(files ...string) (*Options, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}

	opts := DefaultOptions()
	var errs []error
	opts.Engine = strings.ToLower(envString(EnvEngine, opts.Engine))
	opts.Binary = os.Getenv(EnvBinary)
	opts.AutoInstall = envBool(EnvAutoInstall, opts.AutoInstall, &errs)
	opts.GeoCountry = envString(EnvGeoCountry, opts.GeoCountry)
	opts.SocketTimeout = envDuration(EnvSocketTimeout, opts.SocketTimeout, &errs)
	opts.Retries = envInt(EnvRetries, opts.Retries, &errs)
	opts.FragmentRetries = envInt(EnvFragmentRetries, opts.FragmentRetries, &errs)
	opts.Preflight = envBool(EnvPreflight, opts.Preflight, &errs)
	opts.CancelGrace = envDuration(EnvCancelGrace, opts.CancelGrace, &errs)
	opts.OutputDir = os.Getenv(EnvOutputDir)
	opts.Language = envString(EnvLanguage, opts.Language)
	opts.LogLevel = strings.ToUpper(envString(EnvLogLevel, opts.LogLevel))
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	if opts.OutputDir == "" {
		if dir, err := platform.GetHomeDownloadsDir(); err == nil {
			opts.OutputDir = dir
		}
	}

	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &opts, nil
}

// Validate checks that the configuration is usable
func (o *Options) Validate() error {
	if o.Engine != engine.KindYTDLP && o.Engine != engine.KindNative {
		return fmt.Errorf("%s must be %s or %s, got: %q", EnvEngine, engine.KindYTDLP, engine.KindNative, o.Engine)
	}
	if len(o.GeoCountry) != 2 {
		return fmt.Errorf("%s must be a two-letter country code, got: %q", EnvGeoCountry, o.GeoCountry)
	}
	if o.SocketTimeout <= 0 {
		return fmt.Errorf("%s must be positive, got: %s", EnvSocketTimeout, o.SocketTimeout)
	}
	if o.Retries < 0 {
		return fmt.Errorf("%s cannot be negative, got: %d", EnvRetries, o.Retries)
	}
	if o.FragmentRetries < 0 {
		return fmt.Errorf("%s cannot be negative, got: %d", EnvFragmentRetries, o.FragmentRetries)
	}
	if o.CancelGrace <= 0 || o.CancelGrace > time.Minute {
		return fmt.Errorf("%s must be between 0 and 1m, got: %s", EnvCancelGrace, o.CancelGrace)
	}
	if _, ok := i18n.NewLocalization().GetAvailableLanguages()[o.Language]; !ok && o.Language != i18n.LangSystem {
		return fmt.Errorf("unsupported %s: %s", EnvLanguage, o.Language)
	}
	if !validLogLevels[o.LogLevel] {
		return fmt.Errorf("invalid log level: %s. Valid levels are: DEBUG, INFO, WARN, ERROR", o.LogLevel)
	}
	return nil
}

// NewEngine builds the configured extraction engine
func (o *Options) NewEngine(log *zap.Logger) (engine.Engine, error) {
	return engine.New(o.Engine, o.Binary, o.AutoInstall, log)
}

// DownloadOptions converts the configuration into task options
func (o *Options) DownloadOptions() download.Options {
	opts := download.DefaultOptions()
	opts.GeoBypassCountry = o.GeoCountry
	opts.SocketTimeout = o.SocketTimeout
	opts.Retries = o.Retries
	opts.FragmentRetries = o.FragmentRetries
	opts.Preflight = o.Preflight
	return opts
}

func envString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envBool(key string, def bool, errs *[]error) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: invalid boolean %q", key, v))
		return def
	}
	return b
}

func envInt(key string, def int, errs *[]error) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: invalid integer %q", key, v))
		return def
	}
	return n
}

// envDuration accepts Go durations ("30s") or plain seconds ("30")
func envDuration(key string, def time.Duration, errs *[]error) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	if secs, err := strconv.ParseFloat(v, 64); err == nil {
		return time.Duration(secs * float64(time.Second))
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: invalid duration %q", key, v))
		return def
	}
	return d
}
