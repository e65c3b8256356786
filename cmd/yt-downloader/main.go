package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/ytget/vidgrab/internal/cli"
	"github.com/ytget/vidgrab/internal/config"
)

func main() {
	os.Exit(run())
}

func run() int {
	opts, err := config.LoadOptions()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 2
	}

	logger, err := config.NewLogger(opts.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 2
	}
	defer func() { _ = logger.Sync() }()

	// the native engine's client writes progress notes through the std log
	if undo, err := zap.RedirectStdLogAt(logger.Named("stdlog"), zap.DebugLevel); err == nil {
		defer undo()
	}

	eng, err := opts.NewEngine(logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli.App{
		Engine:  eng,
		Options: opts,
		Logger:  logger,
		Out:     os.Stdout,
		Err:     os.Stderr,
	}
	if err := app.Run(ctx, os.Args[1:]); err != nil {
		if !cli.IsReported(err) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		logger.Debug("command failed", zap.Error(err))
		return 1
	}
	return 0
}
