package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samvad-hq/samvad-connector/internal/app"
	"github.com/samvad-hq/samvad-connector/internal/config"
	"github.com/samvad-hq/samvad-connector/internal/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "restcall: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.Init(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	logger.DebugObj("restcall starting", "config", cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := newRootCommand(cliDeps{
		openRuntime: func(ctx context.Context) (*app.Runtime, error) {
			return app.NewRuntime(ctx, cfg, log)
		},
		out: os.Stdout,
		err: os.Stderr,
	})
	return root.ExecuteContext(ctx)
}
