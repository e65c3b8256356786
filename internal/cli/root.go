// Package cli is the terminal front-end: it drives one session per command
// and renders its events with a progress bar and colored log lines.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/ytget/vidgrab/internal/config"
	"github.com/ytget/vidgrab/internal/engine"
	"github.com/ytget/vidgrab/internal/i18n"
	"github.com/ytget/vidgrab/internal/session"
)

// ErrUsage is returned for malformed command lines
var ErrUsage = errors.New("invalid usage")

// App holds what every command needs
type App struct {
	Engine  engine.Engine
	Options *config.Options
	Logger  *zap.Logger
	Out     io.Writer
	Err     io.Writer
}

// Run executes the command named by args[0]
func (a *App) Run(ctx context.Context, args []string) error {
	a.defaults()
	if len(args) == 0 {
		a.printUsage()
		return nil
	}

	switch args[0] {
	case "info":
		return a.runInfo(ctx, args[1:])
	case "download", "get":
		return a.runDownload(ctx, args[1:])
	case "help", "-h", "--help":
		a.printUsage()
		return nil
	default:
		a.printUsage()
		return fmt.Errorf("%w: unknown command %q", ErrUsage, args[0])
	}
}

func (a *App) defaults() {
	if a.Out == nil {
		a.Out = os.Stdout
	}
	if a.Err == nil {
		a.Err = os.Stderr
	}
	if a.Logger == nil {
		a.Logger = zap.NewNop()
	}
	if a.Options == nil {
		opts := config.DefaultOptions()
		a.Options = &opts
	}
}

// newController builds a session for one command. Flags override the
// environment configuration.
func (a *App) newController(lang string, preflight bool) (*session.Controller, *i18n.Localization, error) {
	loc := i18n.NewLocalization()
	loc.SetLanguage(lang)

	opts := a.Options.DownloadOptions()
	opts.Preflight = preflight

	ctrl, err := session.NewController(session.Config{
		Engine:       a.Engine,
		Options:      opts,
		Localization: loc,
		Logger:       a.Logger,
		CancelGrace:  a.Options.CancelGrace,
	})
	return ctrl, loc, err
}

func (a *App) printUsage() {
	fmt.Fprintln(a.Out, "yt-downloader: inspect and download a single video via yt-dlp")
	fmt.Fprintln(a.Out)
	fmt.Fprintln(a.Out, "Usage:")
	fmt.Fprintln(a.Out, "  yt-downloader info [--json] [--lang <code>] <url>")
	fmt.Fprintln(a.Out, "  yt-downloader download [--format <id>] [--output-dir <dir>] [--verbose] <url>")
	fmt.Fprintln(a.Out)
	fmt.Fprintln(a.Out, "Commands:")
	fmt.Fprintln(a.Out, "  info      fetch metadata and list the available formats, best first")
	fmt.Fprintln(a.Out, "  download  download one format (default: the best ranked one)")
	fmt.Fprintln(a.Out)
	fmt.Fprintln(a.Out, "Configuration is read from the environment and an optional .env file")
	fmt.Fprintln(a.Out, "(YTDL_ENGINE, YTDL_BINARY, YTDL_OUTPUT_DIR, YTDL_LANGUAGE, YTDL_LOG_LEVEL, ...).")
	fmt.Fprintln(a.Out, "Press Ctrl+C to cancel a running download.")
}
