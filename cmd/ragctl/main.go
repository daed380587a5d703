package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"sermon-rag/internal/app"
	"sermon-rag/internal/cli"
	"sermon-rag/internal/config"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 1
	}

	// Logs go to stderr so command output stays pipeable.
	slog.SetDefault(app.NewLogger(cfg, os.Stderr))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		return 1
	}
	defer func() {
		_ = a.Close()
	}()

	cli.SetService(a.Service)
	if err := cli.Execute(ctx); err != nil {
		return 1
	}
	return 0
}
