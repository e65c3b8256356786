package main

import (
	"fmt"
	"os"

	"fyne.io/fyne/v2/app"
	"go.uber.org/zap"

	"github.com/ytget/vidgrab/internal/config"
	"github.com/ytget/vidgrab/internal/ui"
)

// Version is set during build via -ldflags "-X main.version=X.Y.Z"
var version = "dev"

const (
	AppID   = "com.ytget.vidgrab"
	AppName = "VidGrab"
)

func main() {
	opts, err := config.LoadOptions()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(2)
	}

	logger, err := config.NewLogger(opts.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(2)
	}
	defer func() { _ = logger.Sync() }()

	// the native engine's client writes progress notes through the std log
	if undo, err := zap.RedirectStdLogAt(logger.Named("stdlog"), zap.DebugLevel); err == nil {
		defer undo()
	}

	eng, err := opts.NewEngine(logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(2)
	}
	logger.Info("starting", zap.String("app", AppName), zap.String("version", version))

	myApp := app.NewWithID(AppID)
	myApp.Settings().SetTheme(ui.NewCompactTheme())

	settings := config.NewSettings(myApp, opts.OutputDir)
	if os.Getenv(config.EnvLanguage) != "" {
		settings.SetLanguage(opts.Language)
	}

	myWindow := myApp.NewWindow(fmt.Sprintf("%s v%s", AppName, version))
	ui.NewRootUI(myWindow, myApp, settings, ui.Dependencies{
		Engine:      eng,
		Options:     opts.DownloadOptions(),
		CancelGrace: opts.CancelGrace,
		Logger:      logger,
	})

	myWindow.ShowAndRun()
}
